// ABOUTME: Login command for credential and Google sign-in
// ABOUTME: Persists the session so later commands run authenticated

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/lucasreis/postdeck/internal/apierr"
	"github.com/lucasreis/postdeck/internal/googleauth"
	"github.com/spf13/cobra"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login [username-or-email]",
	Short: "Sign in with a username or email",
	Long: `Sign in to the backend with a username or email and password.

The password is prompted interactively unless --password is given.
The session is stored under your user config directory.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		loginArg := ""
		if len(args) > 0 {
			loginArg = args[0]
		}
		if exitCode := runLogin(ctx, os.Stdout, loginArg, loginPassword); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var googleLoginIDToken string

var loginGoogleCmd = &cobra.Command{
	Use:   "google",
	Short: "Sign in with a Google account",
	Long: `Sign in via Google. A browser window opens for consent and the
resulting token is exchanged with the backend.

Use --id-token to skip the browser and supply a token directly.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runLoginGoogle(ctx, os.Stdout, googleLoginIDToken); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when omitted)")
	loginGoogleCmd.Flags().StringVar(&googleLoginIDToken, "id-token", "", "Google ID token (skips the browser flow)")
	loginCmd.AddCommand(loginGoogleCmd)
	rootCmd.AddCommand(loginCmd)
}

// runLogin signs in with credentials and returns an exit code
func runLogin(ctx context.Context, w io.Writer, loginArg, password string) int {
	sess, err := newAppSession(os.Stderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if loginArg == "" || password == "" {
		loginArg, password, err = promptCredentials(loginArg)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	id, err := sess.auth.LoginWithCredential(ctx, loginArg, password)
	if err != nil {
		fmt.Fprintf(w, "Error: %s\n", apierr.Classify(err, "sign-in failed").Message)
		return 1
	}

	fmt.Fprintf(w, "Signed in as %s\n", id.GreetingName())
	return 0
}

// runLoginGoogle signs in via Google and returns an exit code
func runLoginGoogle(ctx context.Context, w io.Writer, idToken string) int {
	sess, err := newAppSession(os.Stderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	displayName := ""
	if idToken == "" {
		flow := googleauth.New(sess.cfg.GoogleClientID, "")

		fmt.Fprintln(w, "Opening your browser for Google consent...")
		flowCtx, cancel := context.WithTimeout(ctx, 3*time.Minute)
		defer cancel()

		result, err := flow.Run(flowCtx, openConsentURL)
		if err != nil {
			fmt.Fprintf(w, "Error: %s\n", apierr.Classify(err, "google sign-in failed").Message)
			return 1
		}
		idToken = result.IDToken
		displayName = result.DisplayName
	} else {
		displayName = googleauth.NameFromIDToken(idToken)
	}

	id, err := sess.auth.LoginWithGoogle(ctx, idToken, displayName)
	if err != nil {
		fmt.Fprintf(w, "Error: %s\n", apierr.Classify(err, "google sign-in failed").Message)
		return 1
	}

	fmt.Fprintf(w, "Signed in as %s\n", id.GreetingName())
	return 0
}

// promptCredentials fills in whichever of login and password is missing
func promptCredentials(loginArg string) (string, string, error) {
	password := ""
	fields := []huh.Field{}

	if loginArg == "" {
		fields = append(fields, huh.NewInput().
			Title("Username or email").
			Value(&loginArg).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("username or email is required")
				}
				return nil
			}))
	}
	fields = append(fields, huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&password).
		Validate(func(s string) error {
			if s == "" {
				return errors.New("password is required")
			}
			return nil
		}))

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeBase())
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return loginArg, password, nil
}

// openConsentURL launches the default browser for the consent page
func openConsentURL(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
