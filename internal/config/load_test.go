package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the settings that have no defaults.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GURUKUL_DATABASE_URL", "postgres://localhost:5432/gurukul_test")
	t.Setenv("GURUKUL_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("GURUKUL_AUTHORITY_URL", "http://localhost:9090")
	t.Setenv("GURUKUL_AUTHORITY_SHARED_SECRET", "fedcba9876543210fedcba9876543210")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.Authority.AttemptTimeout)
	assert.Equal(t, 15*time.Second, cfg.Authority.OverallDeadline)
	assert.Equal(t, 2, cfg.Authority.MaxRetries)
	assert.Equal(t, 300*time.Second, cfg.Authority.SignalTTL)
	assert.Equal(t, 60*time.Second, cfg.Authority.HighStakesTTL)
	assert.Equal(t, -100.0, cfg.Karma.DeathThreshold)
	assert.Equal(t, 0.20, cfg.Karma.MeritInheritance)
	assert.Equal(t, 0.50, cfg.Karma.DebtInheritance)
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GURUKUL_SERVER_PORT", "9999")
	t.Setenv("GURUKUL_SERVER_LOG_LEVEL", "debug")
	t.Setenv("GURUKUL_AUTHORITY_MAX_RETRIES", "5")
	t.Setenv("GURUKUL_KARMA_DEATH_THRESHOLD", "-150")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 5, cfg.Authority.MaxRetries)
	assert.Equal(t, -150.0, cfg.Karma.DeathThreshold)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing database url",
			env:  map[string]string{"GURUKUL_DATABASE_URL": ""},
		},
		{
			name: "short jwt secret",
			env:  map[string]string{"GURUKUL_AUTH_JWT_SECRET": "tooshort"},
		},
		{
			name: "invalid log level",
			env:  map[string]string{"GURUKUL_SERVER_LOG_LEVEL": "loud"},
		},
		{
			name: "positive death threshold",
			env:  map[string]string{"GURUKUL_KARMA_DEATH_THRESHOLD": "100"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
