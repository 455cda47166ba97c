// ABOUTME: Edit command updating one of your own posts
// ABOUTME: Looks the post up by id and enforces ownership before sending

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/lucasreis/postdeck/internal/apierr"
	"github.com/lucasreis/postdeck/internal/client"
	"github.com/lucasreis/postdeck/internal/posts"
	"github.com/spf13/cobra"
)

var (
	editTitle   string
	editContent string
)

var editCmd = &cobra.Command{
	Use:   "edit <post-id>",
	Short: "Edit one of your posts",
	Long: `Edit the title or content of a post you authored.

Fields not given keep their current value.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runEdit(ctx, os.Stdout, args[0], editTitle, editContent); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	editCmd.Flags().StringVar(&editTitle, "title", "", "New title (keeps current when omitted)")
	editCmd.Flags().StringVar(&editContent, "content", "", "New content (keeps current when omitted)")
	rootCmd.AddCommand(editCmd)
}

// runEdit updates the post and returns an exit code
func runEdit(ctx context.Context, w io.Writer, idArg, title, content string) int {
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

	if strings.TrimSpace(title) == "" {
		title = target.Title
	}
	if strings.TrimSpace(content) == "" {
		content = target.Content
	}

	editor := posts.NewEditor(sess.client, sess.logger)
	updated, err := editor.Submit(ctx, *id, *target, title, content)
	if err != nil {
		if errors.Is(err, posts.ErrNotOwner) {
			fmt.Fprintf(w, "Error: %s\n", err.Error())
			return 1
		}
		fmt.Fprintf(w, "Error: %s\n", apierr.Classify(err, "failed to update post").Message)
		return 1
	}

	fmt.Fprintf(w, "Post #%d updated.\n", updated.ID)
	return 0
}

// findPost locates a post by id in the feed listing
func findPost(ctx context.Context, c *client.Client, postID int) (*client.Post, error) {
	listing, err := c.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range listing {
		if listing[i].ID == postID {
			return &listing[i], nil
		}
	}
	return nil, fmt.Errorf("post #%d not found", postID)
}
