package roster

import (
	"context"
	"strings"

	"catequesis/internal/adapters/storage"
	domain "catequesis/internal/domain/roster"
)

const enrollmentColumns = "e.id, e.learner_name, e.learner_surname, e.document_id, e.group_id"

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// Compile-time check that *SQLStore satisfies Store.
var _ Store = (*SQLStore)(nil)

// NewSQLStore creates a roster Store speaking the given dialect.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// ListEnrollmentsByGroup returns the roster of one group.
// PRE: groupID non-empty
// POST: Ordered by surname, then name
func (s *SQLStore) ListEnrollmentsByGroup(ctx context.Context, groupID string) ([]domain.Enrollment, error) {
	return s.ListEnrollments(ctx, ListFilter{GroupID: groupID})
}

// ListEnrollments returns enrollments matching the filter across groups.
func (s *SQLStore) ListEnrollments(ctx context.Context, filter ListFilter) ([]domain.Enrollment, error) {
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
	query := "SELECT " + enrollmentColumns + " FROM enrollment e JOIN catechesis_group g ON g.id = e.group_id"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.learner_surname, e.learner_name, e.id"

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, storage.Classify("roster.list_enrollments", err)
	}
	defer rows.Close()

	var results []domain.Enrollment
	for rows.Next() {
		var e domain.Enrollment
		if err := rows.Scan(&e.ID, &e.LearnerName, &e.LearnerSurname, &e.DocumentID, &e.GroupID); err != nil {
			return nil, storage.Classify("roster.list_enrollments", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Classify("roster.list_enrollments", err)
	}
	return results, nil
}

// GetEnrollment retrieves one enrollment.
// POST: Returns a NOT_FOUND error when absent
func (s *SQLStore) GetEnrollment(ctx context.Context, id string) (domain.Enrollment, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind("SELECT "+enrollmentColumns+" FROM enrollment e WHERE e.id = ?"), id)
	var e domain.Enrollment
	if err := row.Scan(&e.ID, &e.LearnerName, &e.LearnerSurname, &e.DocumentID, &e.GroupID); err != nil {
		return domain.Enrollment{}, storage.Classify("roster.get_enrollment", err)
	}
	return e, nil
}

// GetGroup retrieves one group.
// POST: Returns a NOT_FOUND error when absent
func (s *SQLStore) GetGroup(ctx context.Context, id string) (domain.Group, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.Rebind(
		"SELECT id, name, parish_name, level_name, period FROM catechesis_group WHERE id = ?"), id)
	var g domain.Group
	if err := row.Scan(&g.ID, &g.Name, &g.ParishName, &g.LevelName, &g.Period); err != nil {
		return domain.Group{}, storage.Classify("roster.get_group", err)
	}
	return g, nil
}

// ListGroups returns the groups of a parish, or every group when parish is empty.
func (s *SQLStore) ListGroups(ctx context.Context, parish string) ([]domain.Group, error) {
	query := "SELECT id, name, parish_name, level_name, period FROM catechesis_group"
	var args []any
	if parish != "" {
		query += " WHERE parish_name = ?"
		args = append(args, parish)
	}
	query += " ORDER BY parish_name, name"

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, storage.Classify("roster.list_groups", err)
	}
	defer rows.Close()

	var results []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.ParishName, &g.LevelName, &g.Period); err != nil {
			return nil, storage.Classify("roster.list_groups", err)
		}
		results = append(results, g)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Classify("roster.list_groups", err)
	}
	return results, nil
}

// SaveGroup inserts or replaces a group.
// PRE: g has been validated
func (s *SQLStore) SaveGroup(ctx context.Context, g domain.Group) error {
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(`INSERT INTO catechesis_group (id, name, parish_name, level_name, period)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, parish_name = excluded.parish_name,
		level_name = excluded.level_name, period = excluded.period`),
		g.ID, g.Name, g.ParishName, g.LevelName, g.Period)
	return storage.Classify("roster.save_group", err)
}

// SaveEnrollment inserts or replaces an enrollment.
// PRE: e has been validated and its group exists
func (s *SQLStore) SaveEnrollment(ctx context.Context, e domain.Enrollment) error {
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(`INSERT INTO enrollment (id, group_id, learner_name, learner_surname, document_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET group_id = excluded.group_id, learner_name = excluded.learner_name,
		learner_surname = excluded.learner_surname, document_id = excluded.document_id`),
		e.ID, e.GroupID, e.LearnerName, e.LearnerSurname, e.DocumentID)
	return storage.Classify("roster.save_enrollment", err)
}
