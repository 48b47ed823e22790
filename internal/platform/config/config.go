// Package config loads service configuration from the environment so
// main stays lean. Every knob has a development default; production
// deployments override via env.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "jiran/pkg/platform/strings"
)

// Config is the full runtime configuration for the portal service.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Storage  Storage
	Signup   Signup
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// Postgres captures relational store configuration. An empty URL means
// the service runs on in-memory stores (local development, tests).
type Postgres struct {
	URL string
}

// Redis captures the attempt-tracking store configuration. An empty URL
// disables Redis and falls back to in-memory tracking.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures audit event publishing configuration. No brokers means
// audit events stay on the in-process worker only.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// Storage captures object storage configuration for uploaded documents.
type Storage struct {
	// BaseDir is the root of the filesystem store. Empty selects the
	// in-memory store.
	BaseDir string
	// PublicBaseURL prefixes public document URLs.
	PublicBaseURL string
}

// Signup tunes the registration workflow.
type Signup struct {
	// ProfileWait bounds how long the orchestrator waits for the
	// out-of-band profile trigger to materialize the profile row.
	ProfileWait time.Duration
	// ProfilePollInterval is the delay between profile polls.
	ProfilePollInterval time.Duration
	// SessionTTL is how long an idle wizard session survives.
	SessionTTL time.Duration
	// UploadConcurrency bounds the document upload batch.
	UploadConcurrency int
}

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          getenv("JIRAN_ADDR", ":8080"),
			JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Postgres: Postgres{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getenvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:    pstrings.DedupeAndTrim(strings.Split(os.Getenv("KAFKA_BROKERS"), ",")),
			AuditTopic: getenv("KAFKA_AUDIT_TOPIC", "jiran.audit.events"),
		},
		Storage: Storage{
			BaseDir:       os.Getenv("STORAGE_DIR"),
			PublicBaseURL: getenv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/documents"),
		},
		Signup: Signup{
			ProfileWait:         getenvDuration("SIGNUP_PROFILE_WAIT", 2*time.Second),
			ProfilePollInterval: getenvDuration("SIGNUP_PROFILE_POLL_INTERVAL", 200*time.Millisecond),
			SessionTTL:          getenvDuration("SIGNUP_SESSION_TTL", 30*time.Minute),
			UploadConcurrency:   getenvInt("SIGNUP_UPLOAD_CONCURRENCY", 3),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.Atoi(v); err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if out, err := time.ParseDuration(v); err == nil {
			return out
		}
	}
	return def
}
