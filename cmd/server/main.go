package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	emailAdapter "catequesis/internal/adapters/email"
	web "catequesis/internal/adapters/http"
	"catequesis/internal/adapters/http/perf"
	"catequesis/internal/adapters/storage"
	attendanceStore "catequesis/internal/adapters/storage/attendance"
	rosterStore "catequesis/internal/adapters/storage/roster"
	"catequesis/internal/application/keylock"
	"catequesis/internal/application/orchestrators"
	"catequesis/internal/application/projections"
	"catequesis/internal/application/statscache"
	"catequesis/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	setupLogging(cfg)

	db, err := openDB(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.MigrateDB(db, cfg.DBDriver); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	slog.Info("database_ready", "driver", cfg.DBDriver.String(), "schema", storage.LatestSchemaVersion())

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	attStore := attendanceStore.NewSQLStore(timedDB, cfg.DBDriver)
	rstStore := rosterStore.NewSQLStore(timedDB, cfg.DBDriver)

	if cfg.Seed {
		res, err := orchestrators.ExecuteSeedSynthetic(context.Background(), orchestrators.SyntheticSeedDeps{
			RosterStore:     rstStore,
			AttendanceStore: attStore,
		})
		if err != nil {
			log.Fatalf("failed to seed synthetic data: %v", err)
		}
		slog.Info("seed_event", "event", "synthetic_seed", "skipped", res.Skipped,
			"groups", res.Groups, "enrollments", res.Enrollments, "sessions", res.Sessions)
	}

	var sender emailAdapter.Sender
	if cfg.ResendKey != "" {
		sender = emailAdapter.NewResendSender(cfg.ResendKey, cfg.MailFrom)
		slog.Info("email_sender_configured", "provider", "resend")
	} else {
		sender = emailAdapter.NewNoopSender()
		if cfg.Production() {
			slog.Warn("email_sender_disabled", "reason", "CATEQUESIS_RESEND_KEY is not set")
		} else {
			slog.Info("email_sender_configured", "provider", "noop")
		}
	}

	handler := web.NewMux(web.Deps{
		Attendance:   attStore,
		Roster:       rstStore,
		Locks:        keylock.New(),
		SummaryCache: statscache.New[projections.GetLearnerSummaryResult](cfg.CacheTTL),
		GroupCache:   statscache.New[projections.GetGroupStatisticsResult](cfg.CacheTTL),
		Sender:       sender,
		MailFrom:     cfg.MailFrom,
		DigestTo:     cfg.DigestTo,
		Collector:    collector,
		Ping:         db.PingContext,
	}, web.Options{
		CSRFKey:        cfg.CSRFKey,
		Secure:         cfg.Production(),
		TrustedOrigins: cfg.TrustedOrigins,
		RateLimit:      cfg.RateLimit,
		SlowRequestMs:  cfg.SlowRequestMs,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err.Error())
	}
}

// setupLogging installs the default slog handler: JSON in production,
// text otherwise.
func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Production() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// openDB opens and pings the configured database.
func openDB(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.DBDriver.DriverName(), cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	// Connection pool settings; SQLite in WAL mode serializes writers itself.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
