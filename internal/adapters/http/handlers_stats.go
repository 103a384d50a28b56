package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"catequesis/internal/application/listutil"
	"catequesis/internal/application/orchestrators"
	"catequesis/internal/application/projections"
	"catequesis/internal/domain/attendance"
	"catequesis/internal/domain/report"
)

const resourceStatistics = "las estadísticas"

// handleGroupStatistics handles GET /api/groups/{groupID}/statistics?from=&to=.
func (s *Server) handleGroupStatistics(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetGroupStatistics(r.Context(), projections.GetGroupStatisticsQuery{
		GroupID: r.PathValue("groupID"),
		Range:   rangeParams(r),
	}, projections.GetGroupStatisticsDeps{
		AttendanceStore: s.deps.Attendance,
		RosterStore:     s.deps.Roster,
		Cache:           s.deps.GroupCache,
	})
	if err != nil {
		writeError(w, r, err, resourceStatistics)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleLearnerSummary handles GET /api/enrollments/{enrollmentID}/summary?from=&to=.
func (s *Server) handleLearnerSummary(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetLearnerSummary(r.Context(), projections.GetLearnerSummaryQuery{
		EnrollmentID: r.PathValue("enrollmentID"),
		Range:        rangeParams(r),
	}, projections.GetLearnerSummaryDeps{
		AttendanceStore: s.deps.Attendance,
		RosterStore:     s.deps.Roster,
		Cache:           s.deps.SummaryCache,
	})
	if err != nil {
		writeError(w, r, err, "el resumen de asistencia")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAtRisk handles GET /api/attendance/at-risk?threshold=&group=&parish=&from=&to=&page=&per_page=.
func (s *Server) handleAtRisk(w http.ResponseWriter, r *http.Request) {
	threshold, err := thresholdParam(r, "web.AtRisk")
	if err != nil {
		writeError(w, r, err, resourceStatistics)
		return
	}
	result, err := projections.QueryGetAtRiskLearners(r.Context(), projections.GetAtRiskLearnersQuery{
		Threshold: threshold,
		Filter:    filterParams(r),
	}, projections.GetAtRiskLearnersDeps{
		AttendanceStore: s.deps.Attendance,
		RosterStore:     s.deps.Roster,
	})
	if err != nil {
		writeError(w, r, err, resourceStatistics)
		return
	}
	resp := atRiskResponse{Threshold: result.Threshold, Learners: result.Learners}
	if p, ok := listutil.ParsePageParams(r.URL.Query()); ok {
		var info listutil.PageInfo
		resp.Learners, info = listutil.Paginate(result.Learners, p)
		resp.Page = &info
	}
	writeJSON(w, http.StatusOK, resp)
}

// atRiskResponse is the at-risk listing, paginated when ?page= or
// ?per_page= is given.
type atRiskResponse struct {
	Threshold float64            `json:"threshold"`
	Learners  []report.Row       `json:"learners"`
	Page      *listutil.PageInfo `json:"page,omitempty"`
}

// handleExport handles GET /api/attendance/export?format=&group=&parish=&from=&to=.
// The body is sent as an attachment named by the export filename convention.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryExportReport(r.Context(), projections.ExportReportQuery{
		Filter: filterParams(r),
		Format: r.URL.Query().Get("format"),
		Now:    s.deps.Now(),
	}, projections.ExportReportDeps{
		AttendanceStore: s.deps.Attendance,
		RosterStore:     s.deps.Roster,
	})
	if err != nil {
		writeError(w, r, err, "el reporte")
		return
	}
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("X-Report-Rows", fmt.Sprint(result.Rows))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Body); err != nil {
		slog.Warn("export_write_failed", "filename", result.Filename, "error", err.Error())
	}
}

// handleAtRiskDigest handles POST /api/attendance/at-risk/digest.
// PRE: JSON body {to:[...], group, parish, range:{from, to}, threshold}; an
// empty "to" falls back to the configured recipients
// POST: one message per recipient, or none when nobody is at risk
func (s *Server) handleAtRiskDigest(w http.ResponseWriter, r *http.Request) {
	const op = "web.AtRiskDigest"
	var req digestRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, invalid(attendance.KindInvalidFilter, op, err), resourceStatistics)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, invalid(attendance.KindInvalidFilter, op, err), resourceStatistics)
		return
	}
	to := req.To
	if len(to) == 0 {
		to = s.deps.DigestTo
	}
	if len(to) == 0 {
		writeError(w, r, &attendance.Error{
			Kind: attendance.KindInvalidFilter, Op: op, Err: orchestrators.ErrNoDigestRecipients, Detail: "to",
		}, resourceStatistics)
		return
	}

	filter := attendance.Filter{
		GroupID: req.GroupID,
		Parish:  req.Parish,
		Range:   attendance.DateRange{From: req.Range.From, To: req.Range.To},
	}
	atRisk, err := projections.QueryGetAtRiskLearners(r.Context(), projections.GetAtRiskLearnersQuery{
		Threshold: req.Threshold,
		Filter:    filter,
	}, projections.GetAtRiskLearnersDeps{
		AttendanceStore: s.deps.Attendance,
		RosterStore:     s.deps.Roster,
	})
	if err != nil {
		writeError(w, r, err, resourceStatistics)
		return
	}

	result, err := orchestrators.ExecuteSendAtRiskDigest(r.Context(), orchestrators.SendAtRiskDigestInput{
		To:        to,
		Scope:     s.scopeLabel(r, filter),
		Threshold: atRisk.Threshold,
		Learners:  atRisk.Learners,
	}, orchestrators.SendAtRiskDigestDeps{
		Sender: s.deps.Sender,
		From:   s.deps.MailFrom,
		Now:    s.deps.Now,
	})
	if err != nil {
		slog.Error("digest_event", "event", "at_risk_digest_failed", "recipients", len(to), "error", err.Error())
		writeJSON(w, http.StatusBadGateway, errorBody{
			Kind:    "MAIL_UNAVAILABLE",
			Message: "No se pudo enviar el resumen. Reintentar",
			Retry:   true,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// scopeLabel describes a filter for the digest intro, e.g.
// "Confirmación A (San José)". Lookup failures fall back to the raw ids.
func (s *Server) scopeLabel(r *http.Request, f attendance.Filter) string {
	var parts []string
	if f.GroupID != "" {
		label := f.GroupID
		if g, err := s.deps.Roster.GetGroup(r.Context(), f.GroupID); err == nil {
			label = g.Name + " (" + g.ParishName + ")"
		}
		parts = append(parts, label)
	} else if f.Parish != "" {
		parts = append(parts, "Parroquia "+f.Parish)
	}
	switch {
	case f.Range.From != "" && f.Range.To != "":
		parts = append(parts, "del "+f.Range.From+" al "+f.Range.To)
	case f.Range.From != "":
		parts = append(parts, "desde el "+f.Range.From)
	case f.Range.To != "":
		parts = append(parts, "hasta el "+f.Range.To)
	}
	return strings.Join(parts, ", ")
}
