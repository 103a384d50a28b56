package web

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"catequesis/internal/domain/attendance"
)

// calendarDateTag validates a YYYY-MM-DD string.
const calendarDateTag = "calendar_date"

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation(calendarDateTag, func(fl validator.FieldLevel) bool {
		_, err := attendance.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// validationDetail flattens validator errors into "field: tag" pairs.
func validationDetail(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err.Error()
	}
	parts := make([]string, 0, len(ves))
	for _, fe := range ves {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", ns, fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", ns, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// registerRequest is the body of POST /api/groups/{groupID}/attendance.
// session_date is checked by the registration window, not here, so a bad
// date surfaces as INVALID_DATE.
type registerRequest struct {
	SessionDate string       `json:"session_date"`
	Entries     []entryInput `json:"entries" validate:"max=500,dive"`
}

type entryInput struct {
	EnrollmentID string `json:"enrollment_id" validate:"required,max=64"`
	Attended     *bool  `json:"attended" validate:"required"`
	Notes        string `json:"notes" validate:"max=500"`
}

func (r registerRequest) entries() []attendance.Entry {
	out := make([]attendance.Entry, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = attendance.Entry{EnrollmentID: e.EnrollmentID, Attended: *e.Attended, Notes: strings.TrimSpace(e.Notes)}
	}
	return out
}

// dateRangeInput is an optional inclusive window inside a JSON body.
type dateRangeInput struct {
	From string `json:"from" validate:"omitempty,calendar_date"`
	To   string `json:"to" validate:"omitempty,calendar_date"`
}

// digestRequest is the body of POST /api/attendance/at-risk/digest.
type digestRequest struct {
	To        []string       `json:"to" validate:"max=50,dive,email"`
	GroupID   string         `json:"group"`
	Parish    string         `json:"parish"`
	Range     dateRangeInput `json:"range"`
	Threshold *float64       `json:"threshold" validate:"omitempty,gt=0,lte=100"`
}

// rangeParams reads ?from=&to= into a DateRange. Validation is left to the
// projection so malformed bounds surface as INVALID_FILTER.
func rangeParams(r *http.Request) attendance.DateRange {
	q := r.URL.Query()
	return attendance.DateRange{From: q.Get("from"), To: q.Get("to")}
}

// filterParams reads the shared scope parameters group, parish, from, to.
func filterParams(r *http.Request) attendance.Filter {
	q := r.URL.Query()
	return attendance.Filter{
		GroupID: q.Get("group"),
		Parish:  q.Get("parish"),
		Range:   rangeParams(r),
	}
}

// thresholdParam reads ?threshold=; absent means the default (nil).
// NaN and infinities are rejected here since they survive ParseFloat.
func thresholdParam(r *http.Request, op string) (*float64, error) {
	raw := r.URL.Query().Get("threshold")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = errors.New("threshold must be a finite number")
	}
	if err != nil {
		return nil, &attendance.Error{Kind: attendance.KindInvalidFilter, Op: op, Err: err, Detail: "threshold " + raw}
	}
	return &v, nil
}

// invalid builds a validation *Error for a rejected request body.
func invalid(kind attendance.Kind, op string, err error) error {
	return &attendance.Error{Kind: kind, Op: op, Err: err, Detail: validationDetail(err)}
}
