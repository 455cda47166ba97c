// ABOUTME: Delete command removing one of your own posts
// ABOUTME: Requires an explicit confirmation before any network call

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/lucasreis/postdeck/internal/apierr"
	"github.com/lucasreis/postdeck/internal/posts"
	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete one of your posts",
	Long: `Delete a post you authored.

You are asked to confirm unless --yes is given. Cancelling makes no
network call at all.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runDelete(ctx, os.Stdout, args[0], deleteYes); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}

// runDelete removes the post and returns an exit code
func runDelete(ctx context.Context, w io.Writer, idArg string, skipConfirm bool) int {
	postID, err := strconv.Atoi(idArg)
	if err != nil {
		fmt.Fprintf(w, "Error: invalid post id %q\n", idArg)
		return 2
	}

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

	target, err := findPost(ctx, sess.client, postID)
	if err != nil {
		fmt.Fprintf(w, "Error: %s\n", apierr.Classify(err, "failed to fetch posts").Message)
		return 1
	}

	deleter := posts.NewDeleter(sess.client, sess.logger)
	if err := deleter.Request(*id, *target); err != nil {
		if errors.Is(err, posts.ErrNotOwner) {
			fmt.Fprintf(w, "Error: %s\n", err.Error())
			return 1
		}
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}

	if !skipConfirm {
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", target.Title)).
				Description("This cannot be undone.").
				Affirmative("Delete").
				Negative("Keep it").
				Value(&confirmed),
		)).WithTheme(huh.ThemeBase())

		if err := form.Run(); err != nil || !confirmed {
			deleter.Cancel()
			fmt.Fprintln(w, "Cancelled.")
			return 0
		}
	}

	if err := deleter.Confirm(ctx); err != nil {
		fmt.Fprintf(w, "Error: %s\n", apierr.Classify(err, "failed to delete post").Message)
		return 1
	}

	fmt.Fprintf(w, "Post #%d deleted.\n", postID)
	return 0
}
