package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "crewbase/pkg/platform/strings"
)

// Server captures process-level configuration. Runtime tunables that platform
// operators adjust (inactivity window, warning countdown) live in the settings
// store instead, keyed per concern.
type Server struct {
	Addr string

	// IdentitySigningKey verifies credentials minted by the external identity
	// authority; ArtifactSigningKey signs our own session artifacts. They are
	// separate keys so rotating one does not invalidate the other.
	IdentitySigningKey string
	IdentityIssuer     string
	ArtifactSigningKey string

	// SessionTTL is the hard upper bound on artifact validity. The
	// configurable inactivity window is a soft, client-enforced bound and
	// must stay at or below this.
	SessionTTL time.Duration

	SecureCookies bool

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig

	// InviteSweepInterval drives the background pass that marks stale
	// pending invitations expired.
	InviteSweepInterval time.Duration
}

// RedisConfig holds connection settings for the optional Redis backends.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds the DSN for the optional Postgres backends.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig holds broker settings for the audit outbox relay.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:                envOr("CREWBASE_ADDR", ":8080"),
		IdentitySigningKey:  envOr("CREWBASE_IDENTITY_SIGNING_KEY", "dev-identity-key-change-in-production"),
		IdentityIssuer:      envOr("CREWBASE_IDENTITY_ISSUER", "crewbase-identity"),
		ArtifactSigningKey:  envOr("CREWBASE_ARTIFACT_SIGNING_KEY", "dev-artifact-key-change-in-production"),
		SessionTTL:          durationOr("CREWBASE_SESSION_TTL", 5*24*time.Hour),
		SecureCookies:       os.Getenv("CREWBASE_ENV") == "production",
		InviteSweepInterval: durationOr("CREWBASE_INVITE_SWEEP_INTERVAL", time.Hour),
		Redis: RedisConfig{
			URL:          os.Getenv("CREWBASE_REDIS_URL"),
			PoolSize:     intOr("CREWBASE_REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("CREWBASE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOr("CREWBASE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("CREWBASE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("CREWBASE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("CREWBASE_POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Brokers:    pkgstrings.DedupeAndTrim(strings.Split(os.Getenv("CREWBASE_KAFKA_BROKERS"), ",")),
			AuditTopic: envOr("CREWBASE_AUDIT_TOPIC", "crewbase.audit"),
		},
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
