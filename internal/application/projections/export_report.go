package projections

import (
	"context"
	"time"

	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/report"
)

// ExportReportQuery carries input for the export projection.
type ExportReportQuery struct {
	Filter attendance.Filter
	Format string    // csv (default), md or html
	Now    time.Time // optional: if zero, time.Now() is used
}

// ExportResult is a rendered export ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ExportReportDeps holds dependencies for the export projection.
type ExportReportDeps struct {
	AttendanceStore AttendanceStore
	RosterStore     RosterStore
}

// QueryExportReport renders the learner summaries in scope.
// PRE: query.Format is empty or a supported format
// POST: An empty scope yields a header-only body, never an error
func QueryExportReport(ctx context.Context, query ExportReportQuery, deps ExportReportDeps) (ExportResult, error) {
	const op = "projections.ExportReport"
	format, err := report.ParseFormat(query.Format)
	if err != nil {
		return ExportResult{}, &attendance.Error{Kind: attendance.KindUnsupportedFormat, Op: op, Err: err, Detail: query.Format}
	}
	if err := query.Filter.Range.Validate(); err != nil {
		return ExportResult{}, invalidFilter(op, err)
	}
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}

	rows, err := summarizeScope(ctx, query.Filter, scopeDeps{attendance: deps.AttendanceStore, roster: deps.RosterStore})
	if err != nil {
		return ExportResult{}, err
	}
	body, err := report.Render(format, rows)
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{
		Filename:    report.Filename(format, now),
		ContentType: format.ContentType(),
		Body:        body,
		Rows:        len(rows),
	}, nil
}
