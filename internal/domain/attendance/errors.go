package attendance

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can react without parsing messages.
type Kind string

// Error kinds surfaced by registration and statistics operations.
const (
	KindInvalidDate       Kind = "INVALID_DATE"
	KindInvalidBatch      Kind = "INVALID_BATCH"
	KindInvalidFilter     Kind = "INVALID_FILTER"
	KindRosterMismatch    Kind = "ROSTER_MISMATCH"
	KindNotFound          Kind = "NOT_FOUND"
	KindUnsupportedFormat Kind = "UNSUPPORTED_FORMAT"
	KindStoreConflict     Kind = "STORE_CONFLICT"
	KindStoreUnavailable  Kind = "STORE_UNAVAILABLE"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrStoreConflict    = &Error{Kind: KindStoreConflict}
	ErrStoreUnavailable = &Error{Kind: KindStoreUnavailable}
	ErrRosterMismatch   = &Error{Kind: KindRosterMismatch}
	ErrNotFound         = &Error{Kind: KindNotFound}
)

// Error is the structured failure returned across the attendance core.
type Error struct {
	Kind   Kind
	Op     string   // operation that failed, e.g. "attendance.RegisterBulk"
	Detail string   // human-readable context (offending date, group id, ...)
	IDs    []string // enrollment ids involved, for ROSTER_MISMATCH
	Err    error    // underlying cause
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, " (%s)", e.Detail)
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so the package sentinels
// work with errors.Is regardless of Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err was raised before any write was attempted
// because the caller's input was rejected.
func IsValidation(err error) bool {
	switch KindOf(err) {
	case KindInvalidDate, KindInvalidBatch, KindInvalidFilter, KindRosterMismatch, KindUnsupportedFormat:
		return true
	}
	return false
}

// Retryable reports whether the caller may resubmit the same request.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindStoreConflict, KindStoreUnavailable:
		return true
	}
	return false
}

// UserMessage renders the portal's user-facing wording for err. resource
// names what was being loaded or saved, e.g. "la asistencia".
func UserMessage(err error, resource string) string {
	switch KindOf(err) {
	case KindStoreUnavailable:
		return fmt.Sprintf("No se pudo cargar %s. Reintentar", resource)
	case KindStoreConflict:
		return fmt.Sprintf("No se pudo guardar %s porque otro registro estaba en curso. Reintentar", resource)
	case KindInvalidDate:
		var e *Error
		if errors.As(err, &e) && errors.Is(e.Err, ErrFutureDate) {
			return "No se permite registrar asistencia con fecha futura"
		}
		if errors.As(err, &e) && errors.Is(e.Err, ErrDateTooOld) {
			return "No se permite registrar asistencia con más de 30 días de antigüedad"
		}
		return "La fecha de la sesión no es válida"
	case KindRosterMismatch:
		return "Algunos catequizandos no pertenecen al grupo seleccionado"
	case KindNotFound:
		return fmt.Sprintf("No se encontró %s", resource)
	case KindInvalidBatch, KindInvalidFilter, KindUnsupportedFormat:
		return "La solicitud no es válida"
	}
	return fmt.Sprintf("No se pudo procesar %s. Reintentar", resource)
}
