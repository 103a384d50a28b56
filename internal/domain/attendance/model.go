package attendance

import (
	"errors"
	"time"
)

// DateLayout is the calendar-date format used for session dates everywhere.
const DateLayout = "2006-01-02"

// Domain errors.
var (
	ErrEmptyEnrollmentID = errors.New("enrollment_id is required")
	ErrEmptyGroupID      = errors.New("group_id is required")
	ErrMalformedDate     = errors.New("session date must be YYYY-MM-DD")
	ErrRangeInverted     = errors.New("date range start is after its end")
	ErrDuplicateEntry    = errors.New("enrollment appears more than once in the batch")
)

// Record is the stored attendance mark for one enrollment on one session date.
// (EnrollmentID, SessionDate) is unique and immutable after creation.
type Record struct {
	ID           string    `json:"id"`
	EnrollmentID string    `json:"enrollment_id"`
	SessionDate  string    `json:"session_date"` // YYYY-MM-DD
	Attended     bool      `json:"attended"`
	Notes        string    `json:"notes,omitempty"` // empty means no notes
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks if the Record has valid data.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: EnrollmentID non-empty, SessionDate is a calendar date
func (r *Record) Validate() error {
	if r.EnrollmentID == "" {
		return ErrEmptyEnrollmentID
	}
	if _, err := ParseDate(r.SessionDate); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	if r.UpdatedAt.Before(r.CreatedAt) {
		return errors.New("updated_at cannot be before created_at")
	}
	return nil
}

// SameMark reports whether two records carry the same attended/notes values.
func (r Record) SameMark(other Record) bool {
	return r.Attended == other.Attended && r.Notes == other.Notes
}

// Entry is one submitted presence mark inside a bulk registration.
type Entry struct {
	EnrollmentID string
	Attended     bool
	Notes        string
}

// DateRange is an inclusive [From, To] window of session dates.
// Either bound may be empty, meaning unbounded on that side.
type DateRange struct {
	From string
	To   string
}

// IsZero reports whether the range is unbounded on both sides.
func (r DateRange) IsZero() bool {
	return r.From == "" && r.To == ""
}

// Validate checks that both bounds parse and are ordered.
// PRE: none
// POST: Returns ErrMalformedDate or ErrRangeInverted, nil otherwise
func (r DateRange) Validate() error {
	if r.From != "" {
		if _, err := ParseDate(r.From); err != nil {
			return err
		}
	}
	if r.To != "" {
		if _, err := ParseDate(r.To); err != nil {
			return err
		}
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return ErrRangeInverted
	}
	return nil
}

// Contains reports whether date falls inside the range.
// Dates are compared lexically, which is valid for the YYYY-MM-DD layout.
func (r DateRange) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

// Filter narrows record and roster queries. Empty fields do not filter.
type Filter struct {
	GroupID      string
	Parish       string
	EnrollmentID string
	Range        DateRange
}

// ParseDate parses a YYYY-MM-DD session date into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, ErrMalformedDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrMalformedDate
	}
	return t, nil
}

// DateOf returns the calendar date of t in its own location, as YYYY-MM-DD.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}
