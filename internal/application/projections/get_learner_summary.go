package projections

import (
	"context"

	"catequesis/internal/application/statscache"
	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/roster"
	"catequesis/internal/domain/stats"
)

// GetLearnerSummaryQuery carries input for the learner summary projection.
type GetLearnerSummaryQuery struct {
	EnrollmentID string
	Range        attendance.DateRange // optional
}

// GetLearnerSummaryResult carries the output of the learner summary projection.
type GetLearnerSummaryResult struct {
	Enrollment roster.Enrollment    `json:"enrollment"`
	Summary    stats.LearnerSummary `json:"summary"`
}

// GetLearnerSummaryDeps holds dependencies for the learner summary projection.
type GetLearnerSummaryDeps struct {
	AttendanceStore AttendanceStore
	RosterStore     RosterStore
	Cache           *statscache.Cache[GetLearnerSummaryResult] // optional
}

// QueryGetLearnerSummary computes one enrollment's attendance summary.
// PRE: query.EnrollmentID is non-empty
// POST: Returns NOT_FOUND for unknown enrollments; zero records yields an
// insufficient-data summary, not an error
func QueryGetLearnerSummary(ctx context.Context, query GetLearnerSummaryQuery, deps GetLearnerSummaryDeps) (GetLearnerSummaryResult, error) {
	const op = "projections.GetLearnerSummary"
	if query.EnrollmentID == "" {
		return GetLearnerSummaryResult{}, invalidFilter(op, attendance.ErrEmptyEnrollmentID)
	}
	if err := query.Range.Validate(); err != nil {
		return GetLearnerSummaryResult{}, invalidFilter(op, err)
	}

	key := "summary:" + query.EnrollmentID + "|" + query.Range.From + "|" + query.Range.To
	var gen uint64
	if deps.Cache != nil {
		if cached, ok := deps.Cache.Get(key); ok {
			return cached, nil
		}
		gen = deps.Cache.Generation()
	}

	enrollment, err := deps.RosterStore.GetEnrollment(ctx, query.EnrollmentID)
	if err != nil {
		return GetLearnerSummaryResult{}, err
	}
	records, err := deps.AttendanceStore.GetByEnrollment(ctx, query.EnrollmentID, query.Range)
	if err != nil {
		return GetLearnerSummaryResult{}, err
	}

	result := GetLearnerSummaryResult{
		Enrollment: enrollment,
		Summary:    stats.LearnerSummaryOf(query.EnrollmentID, records),
	}
	if deps.Cache != nil {
		deps.Cache.Set(key, result, gen,
			statscache.EnrollmentTag(query.EnrollmentID), statscache.GroupTag(enrollment.GroupID))
	}
	return result, nil
}
