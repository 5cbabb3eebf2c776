package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.Email.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DEFAULT_CURRENCY", "kes")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com, http://localhost:3000")
	t.Setenv("RATE_LIMIT_MUTATIONS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "KES", cfg.DefaultCurrency)
	assert.Equal(t, []string{"https://admin.example.com", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 5, cfg.RateLimit.Limit)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("SMTP_HOST", "")
	_, err = Load()
	assert.Error(t, err)
}
