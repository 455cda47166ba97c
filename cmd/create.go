// ABOUTME: Create command publishing a new post to the feed
// ABOUTME: Prompts for missing fields and retries transient failures

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/lucasreis/postdeck/internal/apierr"
	"github.com/lucasreis/postdeck/internal/posts"
	"github.com/spf13/cobra"
)

var (
	createTitle   string
	createContent string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a new post",
	Long: `Publish a new post under your account.

Missing fields are prompted interactively. Blank titles or content
are rejected before anything is sent.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runCreate(ctx, os.Stdout, createTitle, createContent); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	createCmd.Flags().StringVar(&createTitle, "title", "", "Post title")
	createCmd.Flags().StringVar(&createContent, "content", "", "Post content")
	rootCmd.AddCommand(createCmd)
}

// runCreate publishes the post and returns an exit code
func runCreate(ctx context.Context, w io.Writer, title, content string) int {
	sess, err := newAppSession(os.Stderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	id := sess.auth.Identity()
	if id == nil {
		fmt.Fprintln(w, "Not signed in. Run: postdeck login")
		return 1
	}

	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		title, content, err = promptPost(title, content)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	composer := posts.NewComposer(sess.client, sess.logger)
	composer.Title = title
	composer.Content = content

	var failure string
	composer.OnFailure = func(e *apierr.Error) { failure = e.Message }

	if !composer.Submit(ctx, *id) {
		if failure == "" {
			failure = "title and content cannot be blank"
		}
		fmt.Fprintf(w, "Error: %s\n", failure)
		return 1
	}

	fmt.Fprintln(w, "Post published.")
	return 0
}

// promptPost fills in whichever of title and content is blank
func promptPost(title, content string) (string, string, error) {
	fields := []huh.Field{}

	if strings.TrimSpace(title) == "" {
		fields = append(fields, huh.NewInput().
			Title("Title").
			Value(&title).
			Validate(requireNonBlank("title")))
	}
	if strings.TrimSpace(content) == "" {
		fields = append(fields, huh.NewText().
			Title("Content").
			Lines(6).
			Value(&content).
			Validate(requireNonBlank("content")))
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeBase())
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return title, content, nil
}

func requireNonBlank(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(name + " cannot be blank")
		}
		return nil
	}
}
