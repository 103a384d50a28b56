package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"catequesis/internal/domain/attendance"
)

// Postgres SQLSTATE codes that mean "retry the transaction".
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// Classify wraps a driver error into the attendance error taxonomy:
// lock contention becomes STORE_CONFLICT, a missing row NOT_FOUND and
// anything else STORE_UNAVAILABLE. Context errors pass through unchanged
// so callers can tell cancellation apart from store failures.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var ae *attendance.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &attendance.Error{Kind: attendance.KindNotFound, Op: op, Err: err}
	}
	if IsConflict(err) {
		return &attendance.Error{Kind: attendance.KindStoreConflict, Op: op, Err: err}
	}
	return &attendance.Error{Kind: attendance.KindStoreUnavailable, Op: op, Err: err}
}

// IsConflict reports whether err is a transient lock or serialization failure.
func IsConflict(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
		return false
	}
	// Drivers that only surface text.
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
