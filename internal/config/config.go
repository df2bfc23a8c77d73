package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the gateway and worker
type Config struct {
	// HTTP listener configuration
	Server ServerConfig

	// Upstream backend API
	Backend BackendConfig

	// Session cookies and the edge gate
	Session SessionConfig

	// Revocation registry storage
	Store StoreConfig

	// Redis Configuration (asynq queues, redis-backed registry)
	Redis RedisConfig

	// Worker configuration
	Worker WorkerConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ServerConfig holds gateway listener configuration
type ServerConfig struct {
	Port        string
	Env         string   // development, production
	WebRoot     string   // optional directory with the prebuilt frontend
	CORSOrigins []string // allowed browser origins
}

// BackendConfig holds upstream API configuration
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// SessionConfig holds cookie and gate configuration
type SessionConfig struct {
	ProtectedPrefixes []string
	LoginPath         string
	JWTSecret         string // optional; enables signature verification at the gate
	MaxAge            time.Duration
	SecureCookies     bool
}

// StoreConfig holds revocation registry configuration
type StoreConfig struct {
	Driver      string // sqlite, postgres, redis, memory
	DatabaseURL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	PurgeSchedule string // cron expression for revocation purges
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// IsProduction reports whether the gateway runs with production settings
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	env := getEnv("APP_ENV", "development")

	backendTimeout, err := time.ParseDuration(getEnv("BACKEND_TIMEOUT", "30s"))
	if err != nil {
		backendTimeout = 30 * time.Second
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			Env:         env,
			WebRoot:     os.Getenv("WEB_ROOT"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8080/api"), "/"),
			Timeout: backendTimeout,
		},
		Session: SessionConfig{
			ProtectedPrefixes: splitList(getEnv("PROTECTED_PREFIXES", "/products,/dashboard")),
			LoginPath:         getEnv("LOGIN_PATH", "/auth/login"),
			JWTSecret:         os.Getenv("JWT_SECRET"),
			MaxAge:            7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(getEnv("SESSION_STORE", "sqlite")),
			DatabaseURL: getEnv("DATABASE_URL", "shopfront.sqlite"),
		},
		Redis: RedisConfig{
			Address: getEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Worker: WorkerConfig{
			PurgeSchedule: getEnv("PURGE_SCHEDULE", "*/15 * * * *"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
	cfg.Session.SecureCookies = cfg.IsProduction()

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma separated list, dropping empty entries
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
