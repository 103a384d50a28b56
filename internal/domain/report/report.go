// Package report renders learner attendance summaries to flat export formats.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"catequesis/internal/domain/risk"
	"catequesis/internal/domain/roster"
	"catequesis/internal/domain/stats"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ErrUnsupportedFormat is returned for formats other than the supported ones.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// FilenamePrefix is the stem downstream consumers expect for summary exports.
const FilenamePrefix = "resumen_asistencia_"

// Columns is the fixed export column order and header labels.
var Columns = []string{
	"Nombre",
	"Apellido",
	"Documento",
	"Grupo",
	"Total Sesiones",
	"Asistencias",
	"Ausencias",
	"Porcentaje",
	"Clasificación",
}

// Row is one learner summary joined with identity for export.
type Row struct {
	Name       string               `json:"name"`
	Surname    string               `json:"surname"`
	DocumentID string               `json:"document_id"`
	GroupLabel string               `json:"group"`
	Summary    stats.LearnerSummary `json:"summary"`
}

// NewRow joins a summary with its enrollment and group.
func NewRow(e roster.Enrollment, g roster.Group, s stats.LearnerSummary) Row {
	return Row{
		Name:       e.LearnerName,
		Surname:    e.LearnerSurname,
		DocumentID: e.DocumentID,
		GroupLabel: g.Label(),
		Summary:    s,
	}
}

// Fields returns the row's values in Columns order.
func (r Row) Fields() []string {
	return []string{
		r.Name,
		r.Surname,
		r.DocumentID,
		r.GroupLabel,
		strconv.Itoa(r.Summary.TotalSessions),
		strconv.Itoa(r.Summary.AttendedCount),
		strconv.Itoa(r.Summary.AbsentCount),
		risk.Format(r.Summary.Percentage),
		r.Summary.Classification.Label(),
	}
}

// ParseFormat resolves a format name; empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename returns resumen_asistencia_<YYYY-MM-DD>.<ext> for the given day.
func Filename(f Format, day time.Time) string {
	return FilenamePrefix + day.Format("2006-01-02") + "." + string(f)
}

// Render produces the export body for rows in format f.
// PRE: f was returned by ParseFormat
// POST: an empty row set yields a header-only document, never an error
func Render(f Format, rows []Row) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportCSV(rows), nil
	case FormatMarkdown:
		return Markdown(rows), nil
	case FormatHTML:
		return HTML(rows)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// ExportCSV renders rows as CSV: every field double-quoted, fields joined by
// commas, rows joined by "\n", header first.
func ExportCSV(rows []Row) []byte {
	var buf bytes.Buffer
	_ = WriteCSV(&buf, rows)
	return buf.Bytes()
}

// WriteCSV streams the CSV rendition of rows to w.
func WriteCSV(w io.Writer, rows []Row) error {
	if _, err := io.WriteString(w, csvLine(Columns)); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := io.WriteString(w, "\n"+csvLine(r.Fields())); err != nil {
			return err
		}
	}
	return nil
}

// csvLine quotes every field. encoding/csv only quotes when needed, and the
// consumers of this file expect unconditional quoting.
func csvLine(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
