package storage

import (
	"database/sql"
	"sort"
	"testing"

	_ "modernc.org/sqlite"
)

// openTestDB creates an in-memory SQLite database for testing. A single
// connection keeps every statement on the same in-memory database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var expectedTables = []string{
	"attendance_record",
	"catechesis_group",
	"enrollment",
	"schema_version",
}

// TestMigrateDB_CreatesTables verifies a fresh database reaches the latest schema.
func TestMigrateDB_CreatesTables(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateDB(db, SQLite); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}

	got := getTableNames(t, db)
	if len(got) != len(expectedTables) {
		t.Fatalf("tables = %v, want %v", got, expectedTables)
	}
	for i := range got {
		if got[i] != expectedTables[i] {
			t.Errorf("table[%d] = %q, want %q", i, got[i], expectedTables[i])
		}
	}

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != LatestSchemaVersion() {
		t.Errorf("SchemaVersion = %d, want %d", v, LatestSchemaVersion())
	}
}

// TestMigrateDB_Idempotent verifies a second run applies nothing.
func TestMigrateDB_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateDB(db, SQLite); err != nil {
		t.Fatalf("first MigrateDB: %v", err)
	}
	if err := MigrateDB(db, SQLite); err != nil {
		t.Fatalf("second MigrateDB: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		t.Fatalf("count schema_version: %v", err)
	}
	if n != len(migrations) {
		t.Errorf("schema_version rows = %d, want %d", n, len(migrations))
	}
}

// TestMigrateDB_UniqueAttendanceKey verifies the (enrollment_id, session_date) constraint.
func TestMigrateDB_UniqueAttendanceKey(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateDB(db, SQLite); err != nil {
		t.Fatalf("MigrateDB: %v", err)
	}
	stmts := []string{
		"INSERT INTO catechesis_group (id, name, parish_name) VALUES ('g1', 'Confirmación A', 'San José')",
		"INSERT INTO enrollment (id, group_id, learner_name) VALUES ('e1', 'g1', 'Ana')",
		"INSERT INTO attendance_record (id, enrollment_id, session_date, attended, created_at, updated_at) VALUES ('r1', 'e1', '2024-02-19', 1, 'x', 'x')",
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	_, err := db.Exec("INSERT INTO attendance_record (id, enrollment_id, session_date, attended, created_at, updated_at) VALUES ('r2', 'e1', '2024-02-19', 0, 'x', 'x')")
	if err == nil {
		t.Fatal("expected unique violation for duplicate (enrollment_id, session_date)")
	}
}

// TestSchemaVersion_Fresh reports 0 before any migration is applied.
func TestSchemaVersion_Fresh(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Exec("CREATE TABLE schema_version (version INTEGER PRIMARY KEY, name TEXT NOT NULL, applied_at TEXT NOT NULL)"); err != nil {
		t.Fatalf("create schema_version: %v", err)
	}
	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 0 {
		t.Errorf("SchemaVersion = %d, want 0", v)
	}
}
