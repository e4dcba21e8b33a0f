package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the variables that have no defaults.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TASKTRACK_DATABASE_URL", "postgres://localhost:5432/tasktrack")
	t.Setenv("TASKTRACK_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("TASKTRACK_EMAIL_SENDER", "noreply@tasktrack.example.com")
	t.Setenv("TASKTRACK_EMAIL_SENDER_NAME", "TaskTrack")
	t.Setenv("TASKTRACK_EMAIL_PUBLIC_KEY", "pub-key")
	t.Setenv("TASKTRACK_EMAIL_PRIVATE_KEY", "priv-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "https://api.mailjet.com/", cfg.Email.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Worker.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.Worker.ErrorRetryInterval)
	assert.Equal(t, 48*time.Hour, cfg.Worker.IdempotencyRetention)
	assert.Equal(t, "@hourly", cfg.Worker.PurgeSchedule)
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASKTRACK_SERVER_PORT", "3000")
	t.Setenv("TASKTRACK_SERVER_LOG_LEVEL", "debug")
	t.Setenv("TASKTRACK_WORKER_POLL_INTERVAL", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.Worker.PollInterval)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASKTRACK_DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestLoadShortJWTSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASKTRACK_AUTH_JWT_SECRET", "too-short")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TASKTRACK_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	assert.ErrorContains(t, err, "invalid configuration")
}
