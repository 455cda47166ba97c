// ABOUTME: Browse command launching the interactive TUI
// ABOUTME: Wires the feed, auth, and Google sign-in into the bubbletea app

package cmd

import (
	"fmt"
	"os"

	"github.com/lucasreis/postdeck/internal/googleauth"
	"github.com/lucasreis/postdeck/internal/logging"
	"github.com/lucasreis/postdeck/internal/session"
	"github.com/lucasreis/postdeck/internal/tui"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Open the interactive feed browser",
	Long:  `Open the full-screen terminal UI for reading, writing, and managing posts.`,
	Run: func(cmd *cobra.Command, args []string) {
		if exitCode := runBrowse(); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

// runBrowse starts the TUI and returns an exit code
func runBrowse() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	// Terminal output belongs to the TUI; logs go to a file instead
	logDir := ""
	if cfg.Debug {
		logDir = session.DefaultConfigDir()
	}
	logger, closer, err := logging.NewFileLogger(logDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug log unavailable: %v\n", err)
	}
	defer closer.Close()

	sess := buildSession(cfg, logger)
	flow := googleauth.New(cfg.GoogleClientID, "")

	if err := tui.Run(sess.client, sess.auth, flow, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
