package attendance

import (
	"errors"
	"testing"
	"time"
)

var fixedToday = time.Date(2024, 2, 19, 15, 30, 0, 0, time.Local)

// TestValidateSessionDate_Window verifies both window boundaries are inclusive.
func TestValidateSessionDate_Window(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		wantErr error
	}{
		{"tomorrow", "2024-02-20", ErrFutureDate},
		{"today", "2024-02-19", nil},
		{"thirty days ago", "2024-01-20", nil},
		{"thirty one days ago", "2024-01-19", ErrDateTooOld},
		{"malformed", "19/02/2024", ErrMalformedDate},
		{"has time component", "2024-02-19T00:00:00", ErrMalformedDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionDate(tt.date, fixedToday)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if KindOf(err) != KindInvalidDate {
				t.Errorf("kind = %q, want %q", KindOf(err), KindInvalidDate)
			}
		})
	}
}

// TestValidateSessionDate_IgnoresClockTime verifies late-evening "now" still anchors to the same day.
func TestValidateSessionDate_IgnoresClockTime(t *testing.T) {
	lateNight := time.Date(2024, 2, 19, 23, 59, 59, 0, time.Local)
	if err := ValidateSessionDate("2024-02-19", lateNight); err != nil {
		t.Fatalf("expected today valid at 23:59, got %v", err)
	}
	if err := ValidateSessionDate("2024-02-20", lateNight); err == nil {
		t.Fatal("expected tomorrow invalid at 23:59")
	}
}

// TestDateValidator_Check verifies the verdict form exposes the reason text.
func TestDateValidator_Check(t *testing.T) {
	v := DateValidator{Now: func() time.Time { return fixedToday }}

	if got := v.Check("2024-02-19"); !got.Valid || got.Reason != "" {
		t.Errorf("Check(today) = %+v, want valid", got)
	}
	got := v.Check("2024-02-25")
	if got.Valid {
		t.Fatal("Check(future) reported valid")
	}
	if got.Reason != "future date not allowed" {
		t.Errorf("Reason = %q, want %q", got.Reason, "future date not allowed")
	}
	got = v.Check("2023-12-01")
	if got.Reason != "date older than 30 days not allowed" {
		t.Errorf("Reason = %q", got.Reason)
	}
}
