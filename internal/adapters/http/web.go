package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	emailAdapter "catequesis/internal/adapters/email"
	"catequesis/internal/adapters/http/middleware"
	"catequesis/internal/adapters/http/perf"
	attendanceStore "catequesis/internal/adapters/storage/attendance"
	rosterStore "catequesis/internal/adapters/storage/roster"
	"catequesis/internal/application/keylock"
	"catequesis/internal/application/orchestrators"
	"catequesis/internal/application/projections"
	"catequesis/internal/application/statscache"
)

// Deps wires the API to its stores and application services.
type Deps struct {
	Attendance   attendanceStore.Store
	Roster       rosterStore.Store
	Locks        *keylock.Map                                            // optional
	SummaryCache *statscache.Cache[projections.GetLearnerSummaryResult]   // optional
	GroupCache   *statscache.Cache[projections.GetGroupStatisticsResult] // optional
	Sender       emailAdapter.Sender
	MailFrom     string
	DigestTo     []string                    // recipients used when a digest request names none
	Collector    *perf.Collector             // optional: enables /api/admin/perf
	Ping         func(context.Context) error // optional health probe
	Now          func() time.Time            // optional: if nil, time.Now is used
}

// Options configures the middleware chain around the API.
type Options struct {
	CSRFKey        []byte // 32 bytes
	Secure         bool
	TrustedOrigins []string
	RateLimit      int // requests per minute per client; 0 disables
	SlowRequestMs  int
}

// Server holds the handlers of the attendance API.
type Server struct {
	deps     Deps
	validate *validator.Validate
}

// NewServer creates a Server. Missing optional deps get working defaults.
func NewServer(deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Locks == nil {
		deps.Locks = keylock.New()
	}
	if deps.Sender == nil {
		deps.Sender = emailAdapter.NewNoopSender()
	}
	return &Server{deps: deps, validate: newValidator()}
}

// Routes registers every API route on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			middleware.SetRoute(r, pattern)
			h(w, r)
		})
	}

	handle("GET /healthz", s.handleHealthz)
	handle("GET /api/csrf-token", s.handleCSRFToken)

	handle("POST /api/groups/{groupID}/attendance", s.handleRegisterAttendance)
	handle("GET /api/groups/{groupID}/attendance", s.handleListAttendance)
	handle("GET /api/groups/{groupID}/statistics", s.handleGroupStatistics)
	handle("GET /api/enrollments/{enrollmentID}/summary", s.handleLearnerSummary)

	handle("GET /api/attendance/validate-date", s.handleValidateDate)
	handle("GET /api/attendance/at-risk", s.handleAtRisk)
	handle("POST /api/attendance/at-risk/digest", s.handleAtRiskDigest)
	handle("GET /api/attendance/export", s.handleExport)

	handle("DELETE /api/admin/attendance/{enrollmentID}/{date}", s.handleAdminDelete)
	handle("GET /api/admin/perf", s.handlePerf)
	return mux
}

// NewMux builds the full handler: routes wrapped in the middleware chain.
// Order (outer to inner): Timing, SecurityHeaders, RateLimit, CSRF.
func NewMux(deps Deps, opts Options) http.Handler {
	s := NewServer(deps)
	return middleware.Chain(s.Routes(),
		middleware.CSRF(opts.CSRFKey, middleware.CSRFOptions{Secure: opts.Secure, TrustedOrigins: opts.TrustedOrigins}),
		middleware.RateLimit(middleware.NewRateLimiter(opts.RateLimit, time.Minute)),
		middleware.SecurityHeaders,
		middleware.Timing(deps.Collector, opts.SlowRequestMs),
	)
}

// caches lists the configured statistics caches for invalidation.
func (s *Server) caches() []orchestrators.CacheInvalidator {
	var out []orchestrators.CacheInvalidator
	if s.deps.SummaryCache != nil {
		out = append(out, s.deps.SummaryCache)
	}
	if s.deps.GroupCache != nil {
		out = append(out, s.deps.GroupCache)
	}
	return out
}
