package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "HTTP_ADDR", "LMS_BACKEND_URL", "BACKEND_TIMEOUT", "AUTH_COOKIE_NAME",
		"SESSION_STORE", "SESSION_BOLT_PATH", "REDIS_ADDR", "REDIS_PREFIX",
		"REVALIDATE_ON_START", "CORS_ORIGINS",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "edukita_lms", cfg.CookieName)
	assert.Equal(t, StoreBolt, cfg.SessionStore)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.True(t, cfg.RevalidateOnStart)
	assert.Equal(t, "{lms-web}:session:", cfg.RedisPrefix)
	assert.Nil(t, cfg.CORSOrigins)
	assert.Equal(t, "http://localhost:8080/api/v1", cfg.APIBaseURL())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "UAT")
	t.Setenv("LMS_BACKEND_URL", "https://lms.example.com/")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("REDIS_ADDR", "r1:6379, r2:6379,")
	t.Setenv("REVALIDATE_ON_START", "false")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("AUTH_COOKIE_NAME", "")

	cfg := Load()
	assert.Equal(t, "uat", cfg.Env)
	assert.Equal(t, "uat_edukita_lms", cfg.CookieName)
	assert.Equal(t, "https://lms.example.com/api/v1", cfg.APIBaseURL())
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, StoreRedis, cfg.SessionStore)
	assert.Equal(t, []string{"r1:6379", "r2:6379"}, cfg.RedisAddrs)
	assert.False(t, cfg.RevalidateOnStart)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_ExplicitCookieNameWins(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("AUTH_COOKIE_NAME", "custom")
	assert.Equal(t, "custom", Load().CookieName)
}

func TestCookieNameFor(t *testing.T) {
	assert.Equal(t, "edukita_lms", CookieNameFor("production"))
	assert.Equal(t, "edukita_lms", CookieNameFor("local"))
	assert.Equal(t, "uat_edukita_lms", CookieNameFor("uat"))
	assert.Equal(t, "stg_edukita_lms", CookieNameFor("staging"))
	assert.Equal(t, "stg_edukita_lms", CookieNameFor("stg"))
}

func TestValidate(t *testing.T) {
	base := AppConfig{SessionStore: StoreMemory, BackendTimeout: time.Second}
	require.NoError(t, base.Validate())

	tests := []struct {
		name string
		edit func(c *AppConfig)
	}{
		{"unknown store", func(c *AppConfig) { c.SessionStore = "sqlite" }},
		{"postgres without url", func(c *AppConfig) { c.SessionStore = StorePostgres }},
		{"bolt without path", func(c *AppConfig) { c.SessionStore = StoreBolt }},
		{"redis without addrs", func(c *AppConfig) { c.SessionStore = StoreRedis }},
		{"zero timeout", func(c *AppConfig) { c.BackendTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.edit(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
