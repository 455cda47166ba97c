// ABOUTME: Configuration loader for the postdeck client
// ABOUTME: Loads settings from environment variables with optional .env file

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client settings resolved at startup.
type Config struct {
	// APIURL is the base URL of the posting service backend.
	APIURL string

	// GoogleClientID is the OAuth client ID used for Google sign-in.
	GoogleClientID string

	// RequestTimeout bounds data calls (list/create/edit/delete).
	RequestTimeout time.Duration

	// AuthTimeout bounds auth and token-exchange calls, which may involve
	// a third-party round trip on the backend side.
	AuthTimeout time.Duration

	// Debug enables file-backed debug logging in the config directory.
	Debug bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first if present. Both the API URL and the Google
// client ID are required; running half-configured is worse than failing fast.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:         ensureScheme(os.Getenv("POSTDECK_API_URL")),
		GoogleClientID: os.Getenv("POSTDECK_GOOGLE_CLIENT_ID"),
		RequestTimeout: getEnvDuration("POSTDECK_REQUEST_TIMEOUT", 10*time.Second),
		AuthTimeout:    getEnvDuration("POSTDECK_AUTH_TIMEOUT", 30*time.Second),
		Debug:          getEnvBool("POSTDECK_DEBUG", false),
	}

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("POSTDECK_API_URL is required (base URL of the posting service)")
	}
	if cfg.GoogleClientID == "" {
		return nil, fmt.Errorf("POSTDECK_GOOGLE_CLIENT_ID is required (OAuth client ID for Google sign-in)")
	}

	return cfg, nil
}

// ensureScheme prepends https:// when the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return strings.TrimRight(url, "/")
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
