package projections

import (
	"context"
	"sort"

	rosterStore "catequesis/internal/adapters/storage/roster"
	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/report"
	"catequesis/internal/domain/roster"
	"catequesis/internal/domain/stats"
)

// scopeDeps are the stores needed to summarize every learner in a filter scope.
type scopeDeps struct {
	attendance AttendanceStore
	roster     RosterStore
}

// summarizeScope returns one row per enrollment matched by filter, with
// summaries computed over the records inside filter.Range. Rows are ordered
// by group, surname, then name.
func summarizeScope(ctx context.Context, filter attendance.Filter, deps scopeDeps) ([]report.Row, error) {
	enrollments, err := deps.roster.ListEnrollments(ctx, rosterStore.ListFilter{GroupID: filter.GroupID, Parish: filter.Parish})
	if err != nil {
		return nil, err
	}
	if filter.EnrollmentID != "" {
		var only []roster.Enrollment
		for _, e := range enrollments {
			if e.ID == filter.EnrollmentID {
				only = append(only, e)
			}
		}
		enrollments = only
	}
	if len(enrollments) == 0 {
		return []report.Row{}, nil
	}

	groups, err := deps.roster.ListGroups(ctx, filter.Parish)
	if err != nil {
		return nil, err
	}
	groupByID := make(map[string]roster.Group, len(groups))
	for _, g := range groups {
		groupByID[g.ID] = g
	}

	records, err := deps.attendance.QueryByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	summaries := stats.SummariesByEnrollment(roster.IDs(enrollments), records)

	rows := make([]report.Row, 0, len(enrollments))
	for _, e := range enrollments {
		g, ok := groupByID[e.GroupID]
		if !ok {
			g = roster.Group{ID: e.GroupID, Name: e.GroupID}
		}
		rows = append(rows, report.NewRow(e, g, summaries[e.ID]))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].GroupLabel != rows[j].GroupLabel {
			return rows[i].GroupLabel < rows[j].GroupLabel
		}
		if rows[i].Surname != rows[j].Surname {
			return rows[i].Surname < rows[j].Surname
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}
