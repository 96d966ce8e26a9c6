package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 8369, cfg.Port)
		assert.Equal(t, "/tmp/docbridge", cfg.TempDir)
		assert.Equal(t, "http://localhost:8000", cfg.UnstructuredURL)
		assert.Equal(t, "http://localhost:2004", cfg.LibreOfficeURL)
		assert.Equal(t, "http://localhost:3030", cfg.PandocURL)
		assert.Equal(t, "http://localhost:3000", cfg.GotenbergURL)
		assert.Equal(t, int64(52428800), cfg.MaxFetchBytes)
		assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
		assert.Equal(t, 120*time.Second, cfg.ConvertTimeout)
		assert.Equal(t, 3, cfg.RetryMaxAttempts)
		assert.Equal(t, 500*time.Millisecond, cfg.RetryBaseDelay)
		assert.Equal(t, 30*time.Second, cfg.RetryMaxDelay)
		assert.Equal(t, 2.0, cfg.RetryBackoffFactor)
		assert.True(t, cfg.RetryJitter)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("GOTENBERG_URL", "http://gotenberg:3000")
		t.Setenv("RETRY_MAX_ATTEMPTS", "5")
		t.Setenv("FETCH_TIMEOUT", "90s")
		t.Setenv("RETRY_JITTER", "false")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Port)
		assert.Equal(t, "http://gotenberg:3000", cfg.GotenbergURL)
		assert.Equal(t, 5, cfg.RetryMaxAttempts)
		assert.Equal(t, 90*time.Second, cfg.FetchTimeout)
		assert.False(t, cfg.RetryJitter)
	})

	t.Run("builder overrides", func(t *testing.T) {
		cfg, err := LoadConfig()
		require.NoError(t, err)

		cfg = cfg.WithPort(8080).WithTempDir("/var/tmp/conv")
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "/var/tmp/conv", cfg.TempDir)
	})
}
