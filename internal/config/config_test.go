package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"DINKUP_JWT_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.AdminsExempt)
	assert.Equal(t, "https://venmo.com/", cfg.PayLinkBaseURL)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"DINKUP_JWT_SECRET":      "s3cret",
		"DINKUP_PORT":            "9090",
		"DINKUP_STORAGE_TYPE":    "sqlite",
		"DINKUP_DATABASE_DSN":    "file:dinkup.db",
		"DINKUP_ADMINS_EXEMPT":   "false",
		"DINKUP_REMINDER_WINDOW": "6h",
		"DINKUP_TIMEZONE":        "America/Los_Angeles",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "sqlite", cfg.StorageType)
	assert.False(t, cfg.AdminsExempt)
	assert.Equal(t, 6*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, "America/Los_Angeles", cfg.Location().String())
}

func TestLoadFromRejectsUnknownTimezone(t *testing.T) {
	_, err := LoadFrom(map[string]string{"DINKUP_JWT_SECRET": "s", "DINKUP_TIMEZONE": "Mars/Olympus"})
	assert.ErrorContains(t, err, "invalid DINKUP_TIMEZONE")
}

func TestLoadFromRejectsIncompleteStorage(t *testing.T) {
	_, err := LoadFrom(map[string]string{"DINKUP_JWT_SECRET": "s", "DINKUP_STORAGE_TYPE": "redis"})
	assert.ErrorContains(t, err, "DINKUP_REDIS_URL")

	_, err = LoadFrom(map[string]string{"DINKUP_JWT_SECRET": "s", "DINKUP_STORAGE_TYPE": "postgres"})
	assert.ErrorContains(t, err, "DINKUP_DATABASE_DSN")

	_, err = LoadFrom(map[string]string{"DINKUP_JWT_SECRET": "s", "DINKUP_STORAGE_TYPE": "mongo"})
	assert.ErrorContains(t, err, "invalid DINKUP_STORAGE_TYPE")
}

func TestLoadFromRequiresSecret(t *testing.T) {
	_, err := LoadFrom(map[string]string{})
	assert.ErrorContains(t, err, "DINKUP_JWT_SECRET")
}

func TestLoadFromRejectsBadDuration(t *testing.T) {
	_, err := LoadFrom(map[string]string{"DINKUP_JWT_SECRET": "s", "DINKUP_TOKEN_TTL": "forever"})
	assert.Error(t, err)
}
