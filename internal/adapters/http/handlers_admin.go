package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"

	"catequesis/internal/domain/attendance"
)

// defaultPerfWindow is how far back /api/admin/perf looks without ?since=.
const defaultPerfWindow = time.Hour

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ping(ctx); err != nil {
			slog.Warn("health_check_failed", "error", err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCSRFToken handles GET /api/csrf-token for clients that submit
// forms instead of JSON. The token is also echoed in X-CSRF-Token.
func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := csrf.Token(r)
	w.Header().Set("X-CSRF-Token", token)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handlePerf handles GET /api/admin/perf?since=15m&top=10.
func (s *Server) handlePerf(w http.ResponseWriter, r *http.Request) {
	const op = "web.Perf"
	if s.deps.Collector == nil {
		writeError(w, r, &attendance.Error{Kind: attendance.KindNotFound, Op: op, Detail: "perf collector disabled"}, "el recurso")
		return
	}
	q := r.URL.Query()

	window := defaultPerfWindow
	if raw := q.Get("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeError(w, r, &attendance.Error{Kind: attendance.KindInvalidFilter, Op: op, Err: err, Detail: "since " + raw}, "el recurso")
			return
		}
		window = d
	}
	top := 10
	if raw := q.Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, &attendance.Error{Kind: attendance.KindInvalidFilter, Op: op, Err: err, Detail: "top " + raw}, "el recurso")
			return
		}
		top = n
	}
	writeJSON(w, http.StatusOK, s.deps.Collector.Snapshot(time.Now().Add(-window), top))
}
