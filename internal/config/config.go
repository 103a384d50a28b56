// Package config reads the service configuration from CATEQUESIS_*
// environment variables, optionally seeded from a .env file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"catequesis/internal/adapters/storage"
)

// EnvProduction is the CATEQUESIS_ENV value that turns on production behaviour.
const EnvProduction = "production"

// Config is the resolved process configuration.
type Config struct {
	Env            string
	Addr           string
	DBDriver       storage.Dialect
	DBDSN          string
	LogLevel       slog.Level
	CSRFKey        []byte
	TrustedOrigins []string
	RateLimit      int           // requests per minute per client; 0 disables
	CacheTTL       time.Duration // negative disables the statistics cache
	SlowQueryMs    int
	SlowRequestMs  int
	ResendKey      string
	MailFrom       string
	DigestTo       []string
	Seed           bool
}

// Production reports whether the service runs in production.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// Load reads .env (when present) and the process environment.
// Variables already set in the environment win over .env entries.
// PRE: none
// POST: Returns a validated Config or the first offending variable
func Load(dotenvPaths ...string) (Config, error) {
	if len(dotenvPaths) == 0 {
		dotenvPaths = []string{".env"}
	}
	for _, p := range dotenvPaths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				return Config{}, fmt.Errorf("config: load %s: %w", p, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: stat %s: %w", p, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, so tests need not touch
// the process environment.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	var cfg Config
	var err error
	cfg.Env = get("CATEQUESIS_ENV", "development")
	cfg.Addr = get("CATEQUESIS_ADDR", ":8080")
	cfg.ResendKey = get("CATEQUESIS_RESEND_KEY", "")
	cfg.MailFrom = get("CATEQUESIS_MAIL_FROM", "Catequesis <noreply@localhost>")
	cfg.DigestTo = splitList(get("CATEQUESIS_DIGEST_TO", ""))
	cfg.TrustedOrigins = splitList(get("CATEQUESIS_TRUSTED_ORIGINS", "localhost:8080,127.0.0.1:8080"))

	if cfg.DBDriver, err = storage.ParseDialect(get("CATEQUESIS_DB_DRIVER", "sqlite")); err != nil {
		return Config{}, fmt.Errorf("config: CATEQUESIS_DB_DRIVER: %w", err)
	}
	defaultDSN := storage.SQLiteDSN("catequesis.db")
	if cfg.DBDriver == storage.Postgres {
		defaultDSN = ""
	}
	cfg.DBDSN = get("CATEQUESIS_DB_DSN", defaultDSN)

	if err := cfg.LogLevel.UnmarshalText([]byte(get("CATEQUESIS_LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("config: CATEQUESIS_LOG_LEVEL: %w", err)
	}
	if cfg.RateLimit, err = intVar(get, "CATEQUESIS_RATE_LIMIT", 300); err != nil {
		return Config{}, err
	}
	if cfg.SlowQueryMs, err = intVar(get, "CATEQUESIS_SLOW_QUERY_MS", 100); err != nil {
		return Config{}, err
	}
	if cfg.SlowRequestMs, err = intVar(get, "CATEQUESIS_SLOW_REQUEST_MS", 200); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = time.ParseDuration(get("CATEQUESIS_CACHE_TTL", "30s")); err != nil {
		return Config{}, fmt.Errorf("config: CATEQUESIS_CACHE_TTL: %w", err)
	}
	if cfg.Seed, err = strconv.ParseBool(get("CATEQUESIS_SEED", strconv.FormatBool(!cfg.Production()))); err != nil {
		return Config{}, fmt.Errorf("config: CATEQUESIS_SEED: %w", err)
	}
	if cfg.CSRFKey, err = csrfKey(get("CATEQUESIS_CSRF_KEY", ""), cfg.Production()); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("config: CATEQUESIS_ADDR is empty"))
	}
	if c.DBDSN == "" {
		errs = append(errs, errors.New("config: CATEQUESIS_DB_DSN is required for postgres"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("config: CATEQUESIS_RATE_LIMIT must be >= 0"))
	}
	if len(c.CSRFKey) != 32 {
		errs = append(errs, errors.New("config: CSRF key must be 32 bytes"))
	}
	if c.Production() && c.Seed {
		errs = append(errs, errors.New("config: CATEQUESIS_SEED cannot be enabled in production"))
	}
	for _, addr := range c.DigestTo {
		if !strings.Contains(addr, "@") {
			errs = append(errs, fmt.Errorf("config: CATEQUESIS_DIGEST_TO: %q is not an address", addr))
		}
	}
	return errors.Join(errs...)
}

func intVar(get func(string, string) string, key string, fallback int) (int, error) {
	raw := get(key, strconv.Itoa(fallback))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

// csrfKey decodes a 64-char hex key. Outside production a missing key is
// replaced by a random one, so tokens do not survive restarts.
func csrfKey(raw string, production bool) ([]byte, error) {
	if raw == "" {
		if production {
			return nil, errors.New("config: CATEQUESIS_CSRF_KEY is required in production")
		}
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("config: generate CSRF key: %w", err)
		}
		return key, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil || len(key) != 32 {
		return nil, errors.New("config: CATEQUESIS_CSRF_KEY must be 64 hex characters")
	}
	return key, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
