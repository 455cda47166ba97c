// ABOUTME: Whoami command showing the active session identity
// ABOUTME: Reports token expiry when the access token is a JWT

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lucasreis/postdeck/internal/session"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	Run: func(cmd *cobra.Command, args []string) {
		if exitCode := runWhoami(os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

// whoamiReport is the JSON output shape
type whoamiReport struct {
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	TokenExpiry string `json:"token_expiry,omitempty"`
}

// runWhoami prints the active identity and returns an exit code
func runWhoami(w io.Writer) int {
	sess, err := newAppSession(os.Stderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	id := sess.auth.Identity()
	if id == nil {
		fmt.Fprintln(w, "Not signed in.")
		return 1
	}

	expiry := tokenExpiry(sess.auth.AccessToken())

	if IsJSONOutput() {
		fmt.Fprintln(w, formatWhoamiJSON(id, expiry))
	} else {
		fmt.Fprint(w, formatWhoamiHuman(id, expiry))
	}
	return 0
}

// formatWhoamiHuman renders the identity for terminal output
func formatWhoamiHuman(id *session.Identity, expiry string) string {
	out := fmt.Sprintf("Signed in as %s\n", id.GreetingName())
	if id.Username != "" {
		out += fmt.Sprintf("  Username: %s\n", id.Username)
	}
	if id.Email != "" {
		out += fmt.Sprintf("  Email:    %s\n", id.Email)
	}
	if id.DisplayName != "" {
		out += fmt.Sprintf("  Name:     %s\n", id.DisplayName)
	}
	if expiry != "" {
		out += fmt.Sprintf("  Token expires: %s\n", expiry)
	}
	return out
}

// formatWhoamiJSON renders the identity as JSON
func formatWhoamiJSON(id *session.Identity, expiry string) string {
	data, _ := json.MarshalIndent(whoamiReport{
		Username:    id.Username,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		TokenExpiry: expiry,
	}, "", "  ")
	return string(data)
}

// tokenExpiry extracts the exp claim from a JWT access token.
// Opaque tokens have no readable expiry and yield "".
func tokenExpiry(token string) string {
	if token == "" {
		return ""
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return ""
	}
	return exp.Time.Local().Format(time.RFC1123)
}
