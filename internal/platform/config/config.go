package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration sourced from the environment.
// FromEnv keeps main lean; defaults suit local development.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	SessionTTL    time.Duration

	// GateReadyTimeout bounds how long the authorization gate waits for both
	// auth sources to become ready before reporting an explicit failure.
	GateReadyTimeout time.Duration

	// Break-glass operator channel. The password is verified against a bcrypt
	// hash supplied by the environment; no literal secrets live in the tree.
	BreakGlassEmail        string
	BreakGlassPasswordHash string

	// MarkerPath is where the break-glass admin marker file is persisted.
	MarkerPath string

	Postgres PostgresConfig
	Redis    RedisConfig
	Audit    AuditConfig
	Email    EmailConfig

	ContentDir string
}

// PostgresConfig holds the relational store settings. An empty DSN selects
// the in-memory stores.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
}

// RedisConfig holds the session cache settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuditConfig holds the audit pipeline settings. Empty Brokers keeps audit
// in-process only.
type AuditConfig struct {
	Brokers []string
	Topic   string
}

// EmailConfig holds the verification mail settings. An empty API key selects
// the noop sender.
type EmailConfig struct {
	ResendAPIKey string
	From         string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:                   envOr("ASHRAM_ADDR", ":8080"),
		JWTSigningKey:          envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:              envOr("JWT_ISSUER", "ashram-gateway"),
		JWTAudience:            envOr("JWT_AUDIENCE", "ashram-web"),
		SessionTTL:             envDurationOr("SESSION_TTL", 24*time.Hour),
		GateReadyTimeout:       envDurationOr("GATE_READY_TIMEOUT", 5*time.Second),
		BreakGlassEmail:        os.Getenv("BREAK_GLASS_EMAIL"),
		BreakGlassPasswordHash: os.Getenv("BREAK_GLASS_PASSWORD_HASH"),
		MarkerPath:             envOr("ADMIN_MARKER_PATH", "adminAuth.json"),
		ContentDir:             os.Getenv("CONTENT_DIR"),
	}

	cfg.Postgres = PostgresConfig{
		DSN:          os.Getenv("POSTGRES_DSN"),
		MaxOpenConns: envIntOr("POSTGRES_MAX_OPEN_CONNS", 10),
	}

	cfg.Redis = RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
		MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}

	cfg.Audit = AuditConfig{
		Brokers: splitNonEmpty(os.Getenv("AUDIT_BROKERS")),
		Topic:   envOr("AUDIT_TOPIC", "ashram.audit"),
	}

	cfg.Email = EmailConfig{
		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		From:         envOr("EMAIL_FROM", "no-reply@ashram.local"),
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
