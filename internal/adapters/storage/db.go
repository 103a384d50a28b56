package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// migration is one forward-only schema step.
type migration struct {
	version    int
	name       string
	statements []string
}

// migrations are applied in order; statements must be valid on both dialects.
var migrations = []migration{
	{
		version: 1,
		name:    "roster",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS catechesis_group (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				parish_name TEXT NOT NULL,
				level_name TEXT NOT NULL DEFAULT '',
				period TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS enrollment (
				id TEXT PRIMARY KEY,
				group_id TEXT NOT NULL REFERENCES catechesis_group(id),
				learner_name TEXT NOT NULL,
				learner_surname TEXT NOT NULL DEFAULT '',
				document_id TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_enrollment_group ON enrollment(group_id)`,
			`CREATE INDEX IF NOT EXISTS idx_group_parish ON catechesis_group(parish_name)`,
		},
	},
	{
		version: 2,
		name:    "attendance_record",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS attendance_record (
				id TEXT PRIMARY KEY,
				enrollment_id TEXT NOT NULL REFERENCES enrollment(id),
				session_date TEXT NOT NULL,
				attended BOOLEAN NOT NULL,
				notes TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE (enrollment_id, session_date)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_attendance_record_date ON attendance_record(session_date)`,
		},
	},
}

// LatestSchemaVersion is the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the highest applied migration, 0 for a fresh database.
// PRE: schema_version table exists (MigrateDB creates it)
func SchemaVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, err
	}
	if !v.Valid {
		return 0, nil
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// PRE: db is a valid connection for dialect d
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB, d Dialect) error {
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, d, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name, "dialect", d.String())
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, d Dialect, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, d.Rebind("INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)"),
		m.version, m.name, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}
