// ABOUTME: Root command for the postdeck CLI
// ABOUTME: Handles global flags, configuration, and shared session wiring

package cmd

import (
	"io"
	"os"

	"github.com/lucasreis/postdeck/internal/auth"
	"github.com/lucasreis/postdeck/internal/client"
	"github.com/lucasreis/postdeck/internal/config"
	"github.com/lucasreis/postdeck/internal/logging"
	"github.com/lucasreis/postdeck/internal/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	apiURL     string
	jsonOutput bool
	debugMode  bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "postdeck",
	Short: "Terminal client for the Postdeck social feed",
	Long: `postdeck is a terminal client for a Postdeck posting backend.

It lets you browse the shared feed, publish posts, and manage your own
posts from the command line or an interactive TUI.

Environment Variables:
  POSTDECK_API_URL           Backend API URL (required)
  POSTDECK_GOOGLE_CLIENT_ID  OAuth client ID for Google sign-in (required)
  POSTDECK_REQUEST_TIMEOUT   Data request timeout (default: 10s)
  POSTDECK_AUTH_TIMEOUT      Auth request timeout (default: 30s)
  POSTDECK_DEBUG             Enable debug logging (default: false)

A .env file in the working directory is loaded before these are read.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides POSTDECK_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// loadConfig resolves configuration with flags taking priority over env
func loadConfig() (*config.Config, error) {
	if apiURL != "" {
		os.Setenv("POSTDECK_API_URL", apiURL)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if debugMode {
		cfg.Debug = true
	}
	return cfg, nil
}

// appSession bundles the wired client and controllers for a command run
type appSession struct {
	cfg    *config.Config
	client *client.Client
	auth   *auth.Controller
	logger zerolog.Logger
}

// newAppSession builds the API client and restores any persisted session
func newAppSession(logWriter io.Writer) (*appSession, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return buildSession(cfg, logging.NewConsoleLogger(logWriter, cfg.Debug)), nil
}

// buildSession wires the client and auth controller together. The token
// source and unauthorized hook are bound to the auth controller, so a 401
// anywhere drops the stored session.
func buildSession(cfg *config.Config, logger zerolog.Logger) *appSession {
	store := session.NewFileStore(session.DefaultConfigDir())

	var authCtrl *auth.Controller
	c := client.New(cfg.APIURL,
		client.WithTimeouts(cfg.RequestTimeout, cfg.AuthTimeout),
		client.WithTokenSource(func() string {
			if authCtrl == nil {
				return ""
			}
			return authCtrl.AccessToken()
		}),
		client.WithUnauthorizedHook(func() {
			if authCtrl != nil {
				authCtrl.DropSession()
			}
		}),
	)
	authCtrl = auth.New(c, store, logger)

	return &appSession{cfg: cfg, client: c, auth: authCtrl, logger: logger}
}
