package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "ai-interviewer:state", cfg.SnapshotKey)
	assert.Equal(t, 3, cfg.ProviderMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.ProviderRetryBaseDelay)
	assert.Equal(t, int64(10), cfg.MaxUploadMB)
	assert.False(t, cfg.ProviderEnabled())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9000")
	t.Setenv("OPENROUTER_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.ProviderEnabled())
}

func TestTestEnvShortensDelays(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.IsTest())

	attempts, delay := cfg.GetProviderRetry()
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 10*time.Millisecond, delay)

	eval, summary := cfg.GetCourtesyDelays()
	assert.Zero(t, eval)
	assert.Zero(t, summary)
}

func TestProdKeepsConfiguredDelays(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	cfg, err := Load()
	require.NoError(t, err)

	_, delay := cfg.GetProviderRetry()
	assert.Equal(t, 2*time.Second, delay)
	eval, summary := cfg.GetCourtesyDelays()
	assert.Equal(t, time.Second, eval)
	assert.Equal(t, 1500*time.Millisecond, summary)
}
