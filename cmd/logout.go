// ABOUTME: Logout command clearing the persisted session
// ABOUTME: Always succeeds locally, even with no active session

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		if exitCode := runLogout(os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

// runLogout clears the session and returns an exit code
func runLogout(w io.Writer) int {
	sess, err := newAppSession(os.Stderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	hadSession := sess.auth.Identity() != nil
	sess.auth.Logout()

	if hadSession {
		fmt.Fprintln(w, "Signed out.")
	} else {
		fmt.Fprintln(w, "No active session.")
	}
	return 0
}
