package attendance

import (
	"errors"
	"time"
)

// MaxBackdateDays is how far in the past a session may still be registered.
const MaxBackdateDays = 30

// Reasons a session date is rejected.
var (
	ErrFutureDate = errors.New("future date not allowed")
	ErrDateTooOld = errors.New("date older than 30 days not allowed")
)

// Verdict is the outcome of checking a session date.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// DateValidator applies the registration window relative to "today".
type DateValidator struct {
	Now func() time.Time // injectable for testing; nil means time.Now
}

// Validate returns nil when date is inside [today-30, today], or an
// INVALID_DATE *Error wrapping the reason otherwise.
// PRE: none
// POST: No side effects
func (v DateValidator) Validate(date string) error {
	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}
	return ValidateSessionDate(date, now)
}

// Check is Validate expressed as a Verdict, for callers that pre-check input.
func (v DateValidator) Check(date string) Verdict {
	if err := v.Validate(date); err != nil {
		reason := err.Error()
		var e *Error
		if errors.As(err, &e) && e.Err != nil {
			reason = e.Err.Error()
		}
		return Verdict{Valid: false, Reason: reason}
	}
	return Verdict{Valid: true}
}

// ValidateSessionDate checks date against the window anchored at today's
// calendar date. Both today and today-30 are valid.
func ValidateSessionDate(date string, today time.Time) error {
	const op = "attendance.ValidateSessionDate"

	d, err := ParseDate(date)
	if err != nil {
		return &Error{Kind: KindInvalidDate, Op: op, Err: err, Detail: date}
	}
	y, m, dd := today.Date()
	anchor := time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)

	if d.After(anchor) {
		return &Error{Kind: KindInvalidDate, Op: op, Err: ErrFutureDate, Detail: date}
	}
	if d.Before(anchor.AddDate(0, 0, -MaxBackdateDays)) {
		return &Error{Kind: KindInvalidDate, Op: op, Err: ErrDateTooOld, Detail: date}
	}
	return nil
}
