package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session storage kinds.
const (
	StoreBolt     = "bolt"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type AppConfig struct {
	// Server
	Env         string
	HTTPAddr    string
	CORSOrigins []string

	// LMS backend
	BackendURL     string
	BackendTimeout time.Duration

	// Session
	CookieName        string
	SessionStore      string
	BoltPath          string
	SealKey           string
	RevalidateOnStart bool

	// Redis
	RedisAddrs  []string
	RedisPass   string
	RedisPrefix string

	// Postgres
	PostgresURL string
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	env := strings.ToLower(getEnv("APP_ENV", "production"))

	return AppConfig{
		Env:         env,
		HTTPAddr:    getEnv("HTTP_ADDR", ":3000"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", nil),

		BackendURL:     strings.TrimRight(getEnv("LMS_BACKEND_URL", "http://localhost:8080"), "/"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 15*time.Second),

		CookieName:        getEnv("AUTH_COOKIE_NAME", CookieNameFor(env)),
		SessionStore:      strings.ToLower(getEnv("SESSION_STORE", StoreBolt)),
		BoltPath:          getEnv("SESSION_BOLT_PATH", "lms-web-session.db"),
		SealKey:           getEnv("SESSION_SEAL_KEY", ""),
		RevalidateOnStart: getEnvBool("REVALIDATE_ON_START", true),

		RedisAddrs:  getEnvSlice("REDIS_ADDR", []string{"localhost:6379"}),
		RedisPass:   getEnv("REDIS_PASS", ""),
		RedisPrefix: getEnv("REDIS_PREFIX", "{lms-web}:session:"),

		PostgresURL: getEnv("POSTGRES_URL", ""),
	}
}

// APIBaseURL is the versioned root every backend path hangs off.
func (c AppConfig) APIBaseURL() string {
	return c.BackendURL + "/api/v1"
}

// IsLocal reports whether development logging should be used.
func (c AppConfig) IsLocal() bool {
	return c.Env == "local" || c.Env == "development"
}

// Validate rejects combinations the server cannot start with.
func (c AppConfig) Validate() error {
	switch c.SessionStore {
	case StoreBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("SESSION_BOLT_PATH is required for the bolt session store")
		}
	case StoreRedis:
		if len(c.RedisAddrs) == 0 {
			return fmt.Errorf("REDIS_ADDR is required for the redis session store")
		}
	case StorePostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for the postgres session store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	return nil
}

// CookieNameFor returns the backend's auth cookie name for an environment.
func CookieNameFor(env string) string {
	switch env {
	case "uat":
		return "uat_edukita_lms"
	case "staging", "stg":
		return "stg_edukita_lms"
	default:
		return "edukita_lms"
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
