// ABOUTME: Debug logger that writes structured events to a file in the config dir
// ABOUTME: Keeps log output away from the terminal so it never corrupts the TUI

package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Disabled returns a logger that discards everything.
func Disabled() zerolog.Logger {
	return zerolog.Nop()
}

// NewFileLogger opens (or creates) debug.log under configDir and returns a
// logger writing to it. The caller must Close the returned file. When
// configDir is empty the logger is disabled and the closer is a no-op.
func NewFileLogger(configDir string) (zerolog.Logger, io.Closer, error) {
	if configDir == "" {
		return Disabled(), nopCloser{}, nil
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Disabled(), nopCloser{}, err
	}

	logPath := filepath.Join(configDir, "debug.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return Disabled(), nopCloser{}, err
	}

	logger := zerolog.New(f).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	return logger, f, nil
}

// NewConsoleLogger returns a human-readable logger on w, for CLI commands
// that run outside the alternate screen.
func NewConsoleLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
