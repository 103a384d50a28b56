package projections

import (
	"context"

	rosterStore "catequesis/internal/adapters/storage/roster"
	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/roster"
)

// AttendanceStore interface for attendance record queries.
type AttendanceStore interface {
	GetByEnrollment(ctx context.Context, enrollmentID string, rng attendance.DateRange) ([]attendance.Record, error)
	QueryByFilter(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error)
}

// RosterStore interface for enrollment and group lookups.
type RosterStore interface {
	GetEnrollment(ctx context.Context, id string) (roster.Enrollment, error)
	GetGroup(ctx context.Context, id string) (roster.Group, error)
	ListEnrollments(ctx context.Context, filter rosterStore.ListFilter) ([]roster.Enrollment, error)
	ListGroups(ctx context.Context, parish string) ([]roster.Group, error)
}

func invalidFilter(op string, err error) error {
	return &attendance.Error{Kind: attendance.KindInvalidFilter, Op: op, Err: err}
}
