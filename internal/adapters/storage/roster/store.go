package roster

import (
	"context"

	domain "catequesis/internal/domain/roster"
)

// Store reads the enrollment roster and group metadata owned by the
// surrounding portal. Save methods exist for seeding and tests only.
type Store interface {
	ListEnrollmentsByGroup(ctx context.Context, groupID string) ([]domain.Enrollment, error)
	ListEnrollments(ctx context.Context, filter ListFilter) ([]domain.Enrollment, error)
	GetEnrollment(ctx context.Context, id string) (domain.Enrollment, error)
	GetGroup(ctx context.Context, id string) (domain.Group, error)
	ListGroups(ctx context.Context, parish string) ([]domain.Group, error)
	SaveGroup(ctx context.Context, g domain.Group) error
	SaveEnrollment(ctx context.Context, e domain.Enrollment) error
}

// ListFilter narrows ListEnrollments. Empty fields do not filter.
type ListFilter struct {
	GroupID string
	Parish  string
}
