package web

import (
	"log/slog"
	"net/http"

	"catequesis/internal/application/orchestrators"
	"catequesis/internal/application/statscache"
	"catequesis/internal/domain/attendance"
)

const resourceAttendance = "la asistencia"

// handleRegisterAttendance handles POST /api/groups/{groupID}/attendance.
// PRE: JSON body {session_date, entries:[{enrollment_id, attended, notes}]}
// POST: 200 with every record stored for (group, date); nothing is written on error
func (s *Server) handleRegisterAttendance(w http.ResponseWriter, r *http.Request) {
	const op = "web.RegisterAttendance"
	var req registerRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, invalid(attendance.KindInvalidBatch, op, err), resourceAttendance)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, invalid(attendance.KindInvalidBatch, op, err), resourceAttendance)
		return
	}

	result, err := orchestrators.ExecuteRegisterBulk(r.Context(), orchestrators.RegisterBulkInput{
		GroupID:     r.PathValue("groupID"),
		SessionDate: req.SessionDate,
		Entries:     req.entries(),
	}, orchestrators.RegisterBulkDeps{
		AttendanceStore: s.deps.Attendance,
		RosterStore:     s.deps.Roster,
		Locks:           s.deps.Locks,
		Caches:          s.caches(),
		Now:             s.deps.Now,
	})
	if err != nil {
		writeError(w, r, err, resourceAttendance)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// listAttendanceResponse is the body of GET /api/groups/{groupID}/attendance.
type listAttendanceResponse struct {
	GroupID     string              `json:"group_id"`
	SessionDate string              `json:"session_date"`
	Records     []attendance.Record `json:"records"`
}

// handleListAttendance handles GET /api/groups/{groupID}/attendance?date=.
// Used by the registration screen to pre-fill previously saved marks.
func (s *Server) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	const op = "web.ListAttendance"
	groupID := r.PathValue("groupID")
	date := r.URL.Query().Get("date")
	if _, err := attendance.ParseDate(date); err != nil {
		writeError(w, r, &attendance.Error{Kind: attendance.KindInvalidDate, Op: op, Err: err, Detail: date}, resourceAttendance)
		return
	}
	if _, err := s.deps.Roster.GetGroup(r.Context(), groupID); err != nil {
		writeError(w, r, err, "el grupo")
		return
	}
	records, err := s.deps.Attendance.GetByGroupAndDate(r.Context(), groupID, date)
	if err != nil {
		writeError(w, r, err, resourceAttendance)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	writeJSON(w, http.StatusOK, listAttendanceResponse{GroupID: groupID, SessionDate: date, Records: records})
}

// handleValidateDate handles GET /api/attendance/validate-date?date=.
// Always 200: the verdict carries the outcome.
func (s *Server) handleValidateDate(w http.ResponseWriter, r *http.Request) {
	v := attendance.DateValidator{Now: s.deps.Now}
	writeJSON(w, http.StatusOK, v.Check(r.URL.Query().Get("date")))
}

// handleAdminDelete handles DELETE /api/admin/attendance/{enrollmentID}/{date}.
// This is the only path that removes a record.
// POST: 204 and dependent statistics invalidated; 404 when nothing matched
func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	const op = "web.AdminDelete"
	enrollmentID := r.PathValue("enrollmentID")
	date := r.PathValue("date")
	if _, err := attendance.ParseDate(date); err != nil {
		writeError(w, r, &attendance.Error{Kind: attendance.KindInvalidDate, Op: op, Err: err, Detail: date}, resourceAttendance)
		return
	}

	if err := s.deps.Attendance.Delete(r.Context(), enrollmentID, date); err != nil {
		writeError(w, r, err, "el registro de asistencia")
		return
	}

	tags := []string{statscache.EnrollmentTag(enrollmentID), statscache.DateTag(date)}
	for _, c := range s.caches() {
		c.Invalidate(tags...)
	}
	slog.Info("attendance_event",
		"event", "record_deleted",
		"enrollment_id", enrollmentID,
		"session_date", date,
	)
	w.WriteHeader(http.StatusNoContent)
}
