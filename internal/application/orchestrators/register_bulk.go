package orchestrators

import (
	"context"
	"log/slog"
	"time"

	attendanceStore "catequesis/internal/adapters/storage/attendance"
	"catequesis/internal/application/keylock"
	"catequesis/internal/application/statscache"
	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/roster"
)

// maxRegisterAttempts bounds the automatic retry on STORE_CONFLICT.
const maxRegisterAttempts = 2

// sharedLocks serializes registrations when the caller does not supply a lock map.
var sharedLocks = keylock.New()

// BulkAttendanceStore defines the attendance store interface needed by bulk registration.
type BulkAttendanceStore interface {
	GetByGroupAndDate(ctx context.Context, groupID string, date string) ([]attendance.Record, error)
	UpsertBatch(ctx context.Context, groupID string, date string, entries []attendance.Entry) (attendanceStore.BatchResult, error)
}

// RosterLookup defines the roster interface needed to check batch membership.
type RosterLookup interface {
	ListEnrollmentsByGroup(ctx context.Context, groupID string) ([]roster.Enrollment, error)
}

// CacheInvalidator drops cached statistics by tag.
type CacheInvalidator interface {
	Invalidate(tags ...string) int
}

// RegisterBulkInput carries one batch of presence marks for a group session.
type RegisterBulkInput struct {
	GroupID     string
	SessionDate string // YYYY-MM-DD
	Entries     []attendance.Entry
}

// RegisterBulkResult carries every record stored for (group, date) after the batch.
type RegisterBulkResult struct {
	Records   []attendance.Record `json:"records"`
	Created   int                 `json:"created"`
	Updated   int                 `json:"updated"`
	Unchanged int                 `json:"unchanged"`
	Attempts  int                 `json:"-"`
}

// RegisterBulkDeps holds dependencies for RegisterBulk.
type RegisterBulkDeps struct {
	AttendanceStore BulkAttendanceStore
	RosterStore     RosterLookup
	Locks           *keylock.Map       // optional: if nil, a process-wide map is used
	Caches          []CacheInvalidator // optional
	Now             func() time.Time   // optional: if nil, time.Now is used
}

// ExecuteRegisterBulk merges a batch of presence marks into the store.
// PRE: SessionDate is within the registration window; every entry's
// enrollment belongs to GroupID and appears once
// POST: Either every entry is upserted or none is; omitted enrollments are untouched
// INVARIANT: batches for the same (group, date) never interleave
func ExecuteRegisterBulk(ctx context.Context, input RegisterBulkInput, deps RegisterBulkDeps) (RegisterBulkResult, error) {
	const op = "orchestrators.RegisterBulk"
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	if err := validateBatch(op, input, now()); err != nil {
		return RegisterBulkResult{}, err
	}

	enrollments, err := deps.RosterStore.ListEnrollmentsByGroup(ctx, input.GroupID)
	if err != nil {
		return RegisterBulkResult{}, err
	}
	if err := checkRoster(op, input, enrollments); err != nil {
		return RegisterBulkResult{}, err
	}

	if len(input.Entries) == 0 {
		records, err := deps.AttendanceStore.GetByGroupAndDate(ctx, input.GroupID, input.SessionDate)
		if err != nil {
			return RegisterBulkResult{}, err
		}
		return RegisterBulkResult{Records: records}, nil
	}

	locks := deps.Locks
	if locks == nil {
		locks = sharedLocks
	}
	unlock, err := locks.Lock(ctx, keylock.Key(input.GroupID, input.SessionDate))
	if err != nil {
		return RegisterBulkResult{}, err
	}
	defer unlock()

	var batch attendanceStore.BatchResult
	attempt := 0
	for {
		attempt++
		batch, err = deps.AttendanceStore.UpsertBatch(ctx, input.GroupID, input.SessionDate, input.Entries)
		if err == nil {
			break
		}
		if attendance.KindOf(err) != attendance.KindStoreConflict || attempt >= maxRegisterAttempts || ctx.Err() != nil {
			slog.Warn("attendance_event", "event", "register_bulk_failed",
				"group_id", input.GroupID, "session_date", input.SessionDate,
				"entries", len(input.Entries), "attempt", attempt, "kind", attendance.KindOf(err), "error", err)
			return RegisterBulkResult{}, err
		}
		slog.Info("attendance_event", "event", "register_bulk_retry",
			"group_id", input.GroupID, "session_date", input.SessionDate, "attempt", attempt)
	}

	if batch.Created+batch.Updated > 0 {
		tags := make([]string, 0, len(input.Entries)+2)
		tags = append(tags, statscache.GroupTag(input.GroupID), statscache.DateTag(input.SessionDate))
		for _, e := range input.Entries {
			tags = append(tags, statscache.EnrollmentTag(e.EnrollmentID))
		}
		for _, c := range deps.Caches {
			c.Invalidate(tags...)
		}
	}

	slog.Info("attendance_event", "event", "register_bulk",
		"group_id", input.GroupID, "session_date", input.SessionDate,
		"entries", len(input.Entries), "created", batch.Created, "updated", batch.Updated,
		"unchanged", batch.Unchanged, "attempt", attempt)

	return RegisterBulkResult{
		Records:   batch.Records,
		Created:   batch.Created,
		Updated:   batch.Updated,
		Unchanged: batch.Unchanged,
		Attempts:  attempt,
	}, nil
}

// validateBatch runs every local check before any I/O.
func validateBatch(op string, input RegisterBulkInput, now time.Time) error {
	if input.GroupID == "" {
		return &attendance.Error{Kind: attendance.KindInvalidBatch, Op: op, Err: attendance.ErrEmptyGroupID}
	}
	if err := attendance.ValidateSessionDate(input.SessionDate, now); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(input.Entries))
	var dups []string
	for _, e := range input.Entries {
		if e.EnrollmentID == "" {
			return &attendance.Error{Kind: attendance.KindInvalidBatch, Op: op, Err: attendance.ErrEmptyEnrollmentID}
		}
		if _, ok := seen[e.EnrollmentID]; ok {
			dups = append(dups, e.EnrollmentID)
			continue
		}
		seen[e.EnrollmentID] = struct{}{}
	}
	if len(dups) > 0 {
		return &attendance.Error{Kind: attendance.KindInvalidBatch, Op: op, Err: attendance.ErrDuplicateEntry, IDs: dups}
	}
	return nil
}

// checkRoster rejects the whole batch if any entry is outside the group.
func checkRoster(op string, input RegisterBulkInput, enrollments []roster.Enrollment) error {
	members := make(map[string]struct{}, len(enrollments))
	for _, e := range enrollments {
		members[e.ID] = struct{}{}
	}
	var outside []string
	for _, e := range input.Entries {
		if _, ok := members[e.EnrollmentID]; !ok {
			outside = append(outside, e.EnrollmentID)
		}
	}
	if len(outside) > 0 {
		return &attendance.Error{
			Kind:   attendance.KindRosterMismatch,
			Op:     op,
			Detail: "group " + input.GroupID,
			IDs:    outside,
		}
	}
	return nil
}
