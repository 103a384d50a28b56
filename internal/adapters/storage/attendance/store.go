package attendance

import (
	"context"

	domain "catequesis/internal/domain/attendance"
)

// Store persists AttendanceRecords, enforcing one record per
// (enrollment_id, session_date).
type Store interface {
	GetByGroupAndDate(ctx context.Context, groupID string, date string) ([]domain.Record, error)
	GetByEnrollment(ctx context.Context, enrollmentID string, rng domain.DateRange) ([]domain.Record, error)
	Upsert(ctx context.Context, record domain.Record) (domain.Record, error)
	UpsertBatch(ctx context.Context, groupID string, date string, entries []domain.Entry) (BatchResult, error)
	QueryByFilter(ctx context.Context, filter domain.Filter) ([]domain.Record, error)
	Delete(ctx context.Context, enrollmentID string, date string) error
}

// BatchResult is the outcome of one committed UpsertBatch.
type BatchResult struct {
	// Records is every record stored for (group, date) after the commit.
	Records   []domain.Record
	Created   int
	Updated   int
	Unchanged int
}

// outcome of writing a single entry.
type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeUnchanged
)
