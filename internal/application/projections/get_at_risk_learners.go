package projections

import (
	"context"
	"fmt"
	"sort"

	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/report"
	"catequesis/internal/domain/risk"
)

// GetAtRiskLearnersQuery carries input for the at-risk projection.
type GetAtRiskLearnersQuery struct {
	Threshold *float64 // nil means risk.AtRiskThreshold
	Filter    attendance.Filter
}

// GetAtRiskLearnersResult carries the learners below the threshold.
type GetAtRiskLearnersResult struct {
	Threshold float64      `json:"threshold"`
	Learners  []report.Row `json:"learners"`
}

// GetAtRiskLearnersDeps holds dependencies for the at-risk projection.
type GetAtRiskLearnersDeps struct {
	AttendanceStore AttendanceStore
	RosterStore     RosterStore
}

// QueryGetAtRiskLearners lists learners whose percentage is below the threshold.
// PRE: Threshold is nil or a finite value in (0, 100]
// POST: Learners without records are excluded; ordered by percentage ascending
func QueryGetAtRiskLearners(ctx context.Context, query GetAtRiskLearnersQuery, deps GetAtRiskLearnersDeps) (GetAtRiskLearnersResult, error) {
	const op = "projections.GetAtRiskLearners"
	threshold := risk.AtRiskThreshold
	if query.Threshold != nil {
		threshold = *query.Threshold
	}
	// Negated so NaN fails too.
	if !(threshold > 0 && threshold <= 100) {
		return GetAtRiskLearnersResult{}, invalidFilter(op, fmt.Errorf("threshold %v outside (0, 100]", threshold))
	}
	if err := query.Filter.Range.Validate(); err != nil {
		return GetAtRiskLearnersResult{}, invalidFilter(op, err)
	}

	rows, err := summarizeScope(ctx, query.Filter, scopeDeps{attendance: deps.AttendanceStore, roster: deps.RosterStore})
	if err != nil {
		return GetAtRiskLearnersResult{}, err
	}

	atRisk := []report.Row{}
	for _, r := range rows {
		if r.Summary.HasData() && r.Summary.Percentage < threshold {
			atRisk = append(atRisk, r)
		}
	}
	sort.SliceStable(atRisk, func(i, j int) bool {
		return atRisk[i].Summary.Percentage < atRisk[j].Summary.Percentage
	})
	return GetAtRiskLearnersResult{Threshold: threshold, Learners: atRisk}, nil
}
