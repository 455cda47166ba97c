// ABOUTME: Register command creating a new account
// ABOUTME: Signs the user in automatically after successful registration

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/lucasreis/postdeck/internal/apierr"
	"github.com/lucasreis/postdeck/internal/auth"
	"github.com/spf13/cobra"
)

var (
	registerUsername string
	registerEmail    string
	registerPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Long: `Create a new account and sign in with it.

Missing fields are prompted interactively.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runRegister(ctx, os.Stdout, registerUsername, registerEmail, registerPassword); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerUsername, "username", "", "Username for the new account")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email for the new account")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Password (prompted when omitted)")
	rootCmd.AddCommand(registerCmd)
}

// runRegister creates the account and returns an exit code
func runRegister(ctx context.Context, w io.Writer, username, email, password string) int {
	sess, err := newAppSession(os.Stderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if username == "" || email == "" || password == "" {
		username, email, password, err = promptRegistration(username, email, password)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	id, err := sess.auth.Register(ctx, username, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrAutoLoginFailed) {
			// The account exists; only the follow-up sign-in failed
			fmt.Fprintf(w, "%s\n", err.Error())
			fmt.Fprintln(w, "Try: postdeck login")
			return 1
		}
		fmt.Fprintf(w, "Error: %s\n", apierr.Classify(err, "registration failed").Message)
		return 1
	}

	fmt.Fprintf(w, "Account created. Signed in as %s\n", id.GreetingName())
	return 0
}

// promptRegistration fills in any missing registration fields
func promptRegistration(username, email, password string) (string, string, string, error) {
	confirm := ""
	fields := []huh.Field{}

	if username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&username).
			Validate(requireValue("username")))
	}
	if email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(&email).
			Validate(func(s string) error {
				if !auth.IsEmail(s) {
					return errors.New("enter a valid email address")
				}
				return nil
			}))
	}
	if password == "" {
		fields = append(fields,
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(requireValue("password")),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm))
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeBase())
	if err := form.Run(); err != nil {
		return "", "", "", err
	}
	if confirm != "" && confirm != password {
		return "", "", "", errors.New("passwords do not match")
	}
	return username, email, password, nil
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if s == "" {
			return errors.New(name + " is required")
		}
		return nil
	}
}
