package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, AuthModeLocal, cfg.AuthMode)
	assert.Equal(t, 12*time.Hour, cfg.JWTExp)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, "http://localhost:5000/api", cfg.BackendAPIURL)
	assert.Same(t, cfg, AppConfig)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Remote")
	t.Setenv("BACKEND_API_URL", "https://arena.example.com/api/")
	t.Setenv("GATEWAY_TIMEOUT_SECONDS", "3")
	t.Setenv("SHUTDOWN_TIMEOUT", "1m30s")
	t.Setenv("SESSION_SWEEP_INTERVAL", "5m")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("DB_HOST", "db")

	cfg := Load()
	assert.Equal(t, StoreDriverRemote, cfg.StoreDriver)
	assert.Equal(t, "https://arena.example.com/api", cfg.BackendAPIURL)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 90*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SessionSweepInterval)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Contains(t, cfg.DBConnStr, "host=db ")
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("BAD_INT", "twelve")
	t.Setenv("BAD_DURATION", "soon")
	assert.Equal(t, 7, getEnvAsInt("BAD_INT", 7))
	assert.Equal(t, time.Minute, getEnvAsDuration("BAD_DURATION", time.Minute))
	assert.False(t, getEnvAsBool("MISSING_BOOL", false))
}
