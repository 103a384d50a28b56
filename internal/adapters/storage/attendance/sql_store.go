package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"catequesis/internal/adapters/storage"
	domain "catequesis/internal/domain/attendance"
)

// querier is the subset shared by storage.SQLDB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const recordColumns = "r.id, r.enrollment_id, r.session_date, r.attended, r.notes, r.created_at, r.updated_at"

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
	now     func() time.Time
}

// Compile-time check that *SQLStore satisfies Store.
var _ Store = (*SQLStore)(nil)

// NewSQLStore creates a Store speaking the given dialect.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

// NewSQLiteStore creates a Store backed by SQLite.
func NewSQLiteStore(db storage.SQLDB) *SQLStore {
	return NewSQLStore(db, storage.SQLite)
}

// NewPostgresStore creates a Store backed by Postgres.
func NewPostgresStore(db storage.SQLDB) *SQLStore {
	return NewSQLStore(db, storage.Postgres)
}

// WithClock overrides the timestamp source. Used by tests.
func (s *SQLStore) WithClock(now func() time.Time) *SQLStore {
	s.now = now
	return s
}

func (s *SQLStore) q(query string) string {
	return s.dialect.Rebind(query)
}

// txOptions returns the isolation used for batch writes. Postgres runs
// serializable so concurrent batches surface 40001 instead of interleaving.
func (s *SQLStore) txOptions() *sql.TxOptions {
	if s.dialect == storage.Postgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// GetByGroupAndDate returns the records of every enrollment in groupID for date.
// PRE: groupID non-empty, date is YYYY-MM-DD
// POST: Records ordered by enrollment_id; a single statement so the result is one snapshot
func (s *SQLStore) GetByGroupAndDate(ctx context.Context, groupID string, date string) ([]domain.Record, error) {
	records, err := s.byGroupAndDate(ctx, s.db, groupID, date)
	if err != nil {
		return nil, storage.Classify("attendance.get_by_group_and_date", err)
	}
	return records, nil
}

func (s *SQLStore) byGroupAndDate(ctx context.Context, db querier, groupID, date string) ([]domain.Record, error) {
	query := "SELECT " + recordColumns + ` FROM attendance_record r
		JOIN enrollment e ON e.id = r.enrollment_id
		WHERE e.group_id = ? AND r.session_date = ?
		ORDER BY r.enrollment_id`
	rows, err := db.QueryContext(ctx, s.q(query), groupID, date)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// GetByEnrollment returns the records of one enrollment inside rng.
// PRE: enrollmentID non-empty, rng validated
// POST: Records ordered by session_date ascending
func (s *SQLStore) GetByEnrollment(ctx context.Context, enrollmentID string, rng domain.DateRange) ([]domain.Record, error) {
	where := []string{"r.enrollment_id = ?"}
	args := []any{enrollmentID}
	where, args = appendRange(where, args, rng)

	query := "SELECT " + recordColumns + " FROM attendance_record r WHERE " +
		strings.Join(where, " AND ") + " ORDER BY r.session_date"
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, storage.Classify("attendance.get_by_enrollment", err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, storage.Classify("attendance.get_by_enrollment", err)
	}
	return records, nil
}

// QueryByFilter returns records matching every non-empty filter field.
// PRE: filter.Range validated
// POST: Records ordered by session_date, then enrollment_id
func (s *SQLStore) QueryByFilter(ctx context.Context, filter domain.Filter) ([]domain.Record, error) {
	var where []string
	var args []any
	if filter.GroupID != "" {
		where = append(where, "e.group_id = ?")
		args = append(args, filter.GroupID)
	}
	if filter.Parish != "" {
		where = append(where, "g.parish_name = ?")
		args = append(args, filter.Parish)
	}
	if filter.EnrollmentID != "" {
		where = append(where, "r.enrollment_id = ?")
		args = append(args, filter.EnrollmentID)
	}
	where, args = appendRange(where, args, filter.Range)

	query := "SELECT " + recordColumns + ` FROM attendance_record r
		JOIN enrollment e ON e.id = r.enrollment_id
		JOIN catechesis_group g ON g.id = e.group_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY r.session_date, r.enrollment_id"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, storage.Classify("attendance.query_by_filter", err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return nil, storage.Classify("attendance.query_by_filter", err)
	}
	return records, nil
}

// Upsert creates or amends a single record keyed by (enrollment_id, session_date).
// PRE: record.EnrollmentID non-empty, record.SessionDate is YYYY-MM-DD
// POST: Exactly one stored row for the key; returns it as stored
func (s *SQLStore) Upsert(ctx context.Context, record domain.Record) (domain.Record, error) {
	tx, err := s.db.BeginTx(ctx, s.txOptions())
	if err != nil {
		return domain.Record{}, storage.Classify("attendance.upsert", err)
	}
	defer tx.Rollback()

	entry := domain.Entry{EnrollmentID: record.EnrollmentID, Attended: record.Attended, Notes: record.Notes}
	if _, err := s.write(ctx, tx, record.SessionDate, entry); err != nil {
		return domain.Record{}, storage.Classify("attendance.upsert", err)
	}
	stored, err := s.byKey(ctx, tx, record.EnrollmentID, record.SessionDate)
	if err != nil {
		return domain.Record{}, storage.Classify("attendance.upsert", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Record{}, storage.Classify("attendance.upsert", err)
	}
	return stored, nil
}

// UpsertBatch writes every entry for date in one transaction, then reads back
// the full (groupID, date) record set inside the same transaction.
// PRE: entries validated, unique by enrollment_id and all belonging to groupID
// POST: On error nothing is written; on success every entry is durable
// INVARIANT: an entry identical to the stored mark leaves updated_at untouched
func (s *SQLStore) UpsertBatch(ctx context.Context, groupID string, date string, entries []domain.Entry) (BatchResult, error) {
	tx, err := s.db.BeginTx(ctx, s.txOptions())
	if err != nil {
		return BatchResult{}, storage.Classify("attendance.upsert_batch", err)
	}
	defer tx.Rollback()

	var result BatchResult
	for _, entry := range entries {
		out, err := s.write(ctx, tx, date, entry)
		if err != nil {
			return BatchResult{}, storage.Classify("attendance.upsert_batch", err)
		}
		switch out {
		case outcomeCreated:
			result.Created++
		case outcomeUpdated:
			result.Updated++
		default:
			result.Unchanged++
		}
	}

	result.Records, err = s.byGroupAndDate(ctx, tx, groupID, date)
	if err != nil {
		return BatchResult{}, storage.Classify("attendance.upsert_batch", err)
	}
	if err := tx.Commit(); err != nil {
		return BatchResult{}, storage.Classify("attendance.upsert_batch", err)
	}
	return result, nil
}

// write inserts the entry, or amends the existing row when the mark differs.
func (s *SQLStore) write(ctx context.Context, db querier, date string, entry domain.Entry) (outcome, error) {
	now := s.now().UTC().Format(time.RFC3339Nano)

	res, err := db.ExecContext(ctx, s.q(`INSERT INTO attendance_record
		(id, enrollment_id, session_date, attended, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (enrollment_id, session_date) DO NOTHING`),
		uuid.NewString(), entry.EnrollmentID, date, entry.Attended, nullable(entry.Notes), now, now)
	if err != nil {
		return 0, fmt.Errorf("insert %s/%s: %w", entry.EnrollmentID, date, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return outcomeCreated, nil
	}

	res, err = db.ExecContext(ctx, s.q(`UPDATE attendance_record
		SET attended = ?, notes = ?, updated_at = ?
		WHERE enrollment_id = ? AND session_date = ?
		AND (attended <> ? OR COALESCE(notes, '') <> ?)`),
		entry.Attended, nullable(entry.Notes), now,
		entry.EnrollmentID, date,
		entry.Attended, entry.Notes)
	if err != nil {
		return 0, fmt.Errorf("update %s/%s: %w", entry.EnrollmentID, date, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return outcomeUpdated, nil
	}
	return outcomeUnchanged, nil
}

func (s *SQLStore) byKey(ctx context.Context, db querier, enrollmentID, date string) (domain.Record, error) {
	row := db.QueryRowContext(ctx, s.q("SELECT "+recordColumns+
		" FROM attendance_record r WHERE r.enrollment_id = ? AND r.session_date = ?"), enrollmentID, date)
	return scanRecord(row)
}

// Delete removes one record. This is the administrative path only.
// PRE: enrollmentID non-empty, date is YYYY-MM-DD
// POST: Returns a NOT_FOUND error when no record matched
func (s *SQLStore) Delete(ctx context.Context, enrollmentID string, date string) error {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM attendance_record WHERE enrollment_id = ? AND session_date = ?"),
		enrollmentID, date)
	if err != nil {
		return storage.Classify("attendance.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storage.Classify("attendance.delete", err)
	}
	if n == 0 {
		return &domain.Error{
			Kind: domain.KindNotFound,
			Op:   "attendance.delete",
			IDs:  []string{enrollmentID},
			Err:  domain.ErrNotFound,
		}
	}
	return nil
}

func appendRange(where []string, args []any, rng domain.DateRange) ([]string, []any) {
	if rng.From != "" {
		where = append(where, "r.session_date >= ?")
		args = append(args, rng.From)
	}
	if rng.To != "" {
		where = append(where, "r.session_date <= ?")
		args = append(args, rng.To)
	}
	return where, args
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.Record, error) {
	var r domain.Record
	var notes sql.NullString
	var createdStr, updatedStr string
	if err := row.Scan(&r.ID, &r.EnrollmentID, &r.SessionDate, &r.Attended, &notes, &createdStr, &updatedStr); err != nil {
		return domain.Record{}, err
	}
	r.Notes = notes.String

	var err error
	if r.CreatedAt, err = parseStoredTime(createdStr); err != nil {
		return domain.Record{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if r.UpdatedAt, err = parseStoredTime(updatedStr); err != nil {
		return domain.Record{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return r, nil
}

func scanRecords(rows *sql.Rows) ([]domain.Record, error) {
	defer rows.Close()
	var records []domain.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// parseStoredTime accepts the timestamp layouts either driver may return.
func parseStoredTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}
