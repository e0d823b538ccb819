package config

import (
	"os"
	"time"
)

// Config captures process-level configuration. An empty PostgresDSN selects
// the in-memory stores; an empty RedisURL disables the event lookup cache.
type Config struct {
	Addr            string
	PostgresDSN     string
	RedisURL        string
	JWTSigningKey   string
	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	jwtSigningKey := os.Getenv("BLOODLINK_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:            envOr("BLOODLINK_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("BLOODLINK_POSTGRES_DSN"),
		RedisURL:        os.Getenv("BLOODLINK_REDIS_URL"),
		JWTSigningKey:   jwtSigningKey,
		ShutdownTimeout: durationOr("BLOODLINK_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
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
