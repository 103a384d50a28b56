package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"catequesis/internal/domain/attendance"
)

func TestParseDialect(t *testing.T) {
	cases := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"", SQLite, false},
		{"sqlite", SQLite, false},
		{"SQLite3", SQLite, false},
		{"postgres", Postgres, false},
		{" pgx ", Postgres, false},
		{"mysql", 0, true},
	}
	for _, c := range cases {
		got, err := ParseDialect(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseDialect(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if !c.wantErr && got != c.want {
			t.Errorf("ParseDialect(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDialect_Rebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	if got := SQLite.Rebind(q); got != q {
		t.Errorf("SQLite.Rebind = %q", got)
	}
	if got := Postgres.Rebind(q); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("Postgres.Rebind = %q", got)
	}
	if SQLite.DriverName() != "sqlite" || Postgres.DriverName() != "pgx" {
		t.Error("unexpected driver names")
	}
}

func TestSQLiteDSN(t *testing.T) {
	dsn := SQLiteDSN("/tmp/x.db")
	for _, want := range []string{"journal_mode(WAL)", "busy_timeout(5000)", "foreign_keys(ON)"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want attendance.Kind
	}{
		{"no rows", sql.ErrNoRows, attendance.KindNotFound},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, attendance.KindStoreConflict},
		{"pg deadlock", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"}), attendance.KindStoreConflict},
		{"pg other", &pgconn.PgError{Code: "23505"}, attendance.KindStoreUnavailable},
		{"locked text", errors.New("database is locked (5) (SQLITE_BUSY)"), attendance.KindStoreConflict},
		{"connection refused", errors.New("dial tcp: connection refused"), attendance.KindStoreUnavailable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify("op", c.err)
			if attendance.KindOf(got) != c.want {
				t.Errorf("KindOf(Classify(%v)) = %q, want %q", c.err, attendance.KindOf(got), c.want)
			}
			if !errors.Is(got, c.err) {
				t.Errorf("Classify lost the cause %v", c.err)
			}
		})
	}
}

func TestClassify_Passthrough(t *testing.T) {
	if Classify("op", nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
	if got := Classify("op", context.Canceled); got != context.Canceled {
		t.Errorf("Classify(context.Canceled) = %v", got)
	}
	ae := &attendance.Error{Kind: attendance.KindRosterMismatch}
	if got := Classify("op", ae); got != error(ae) {
		t.Errorf("Classify should pass through *attendance.Error, got %v", got)
	}
}
