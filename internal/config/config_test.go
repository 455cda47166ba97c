// ABOUTME: Tests for configuration loading
// ABOUTME: Verifies required settings, defaults, and scheme normalization

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiredSettings(t *testing.T) {
	t.Setenv("POSTDECK_API_URL", "")
	t.Setenv("POSTDECK_GOOGLE_CLIENT_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTDECK_API_URL")

	t.Setenv("POSTDECK_API_URL", "https://api.example.com")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTDECK_GOOGLE_CLIENT_ID")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTDECK_API_URL", "https://api.example.com/")
	t.Setenv("POSTDECK_GOOGLE_CLIENT_ID", "client-id-1")
	t.Setenv("POSTDECK_REQUEST_TIMEOUT", "")
	t.Setenv("POSTDECK_AUTH_TIMEOUT", "")
	t.Setenv("POSTDECK_DEBUG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "client-id-1", cfg.GoogleClientID)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.AuthTimeout)
	assert.False(t, cfg.Debug)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("POSTDECK_API_URL", "api.example.com")
	t.Setenv("POSTDECK_GOOGLE_CLIENT_ID", "cid")
	t.Setenv("POSTDECK_REQUEST_TIMEOUT", "5s")
	t.Setenv("POSTDECK_AUTH_TIMEOUT", "1m")
	t.Setenv("POSTDECK_DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	// Bare host gets https.
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.AuthTimeout)
	assert.True(t, cfg.Debug)
}
