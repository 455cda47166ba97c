// ABOUTME: Posts command listing the feed with search, paging, and sorting
// ABOUTME: Runs the same listing pipeline the TUI uses, one page at a time

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucasreis/postdeck/internal/client"
	"github.com/lucasreis/postdeck/internal/feed"
	"github.com/spf13/cobra"
)

var (
	postsSearch   string
	postsPage     int
	postsPageSize int
	postsSort     string
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List posts from the feed",
	Long: `List posts from the shared feed.

Search matches titles, content, and usernames (use @name to match
authors only). Pages are 1-based.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if exitCode := runPosts(ctx, os.Stdout, postsSearch, postsPage, postsPageSize, postsSort); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	postsCmd.Flags().StringVar(&postsSearch, "search", "", "Filter posts by title, content, or @username")
	postsCmd.Flags().IntVar(&postsPage, "page", 1, "Page number (1-based)")
	postsCmd.Flags().IntVar(&postsPageSize, "page-size", 10, "Posts per page")
	postsCmd.Flags().StringVar(&postsSort, "sort", "newest", "Sort order: newest or oldest")
	rootCmd.AddCommand(postsCmd)
}

// runPosts fetches and prints one page of the feed
func runPosts(ctx context.Context, w io.Writer, search string, page, pageSize int, sortOrder string) int {
	sess, err := newAppSession(os.Stderr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	order := feed.SortNewest
	switch sortOrder {
	case "newest":
	case "oldest":
		order = feed.SortOldest
	default:
		fmt.Fprintf(w, "Error: invalid sort order %q (use newest or oldest)\n", sortOrder)
		return 2
	}
	if pageSize < 1 {
		fmt.Fprintln(w, "Error: page size must be at least 1")
		return 2
	}
	if page < 1 {
		fmt.Fprintln(w, "Error: page must be at least 1")
		return 2
	}

	ctrl := feed.NewController(sess.client, pageSize, sess.logger)
	ctrl.SetSearch(search)
	ctrl.SetSort(order)

	if !fetchPage(ctx, ctrl) {
		fmt.Fprintf(w, "Error: %s\n", ctrl.ErrMessage())
		return 1
	}

	// Walk forward to the requested page; the first fetch told us the total
	for ctrl.PageIndex() < page-1 {
		if !ctrl.NextPage() {
			fmt.Fprintf(w, "Error: page %d is out of range (%d page(s))\n", page, ctrl.TotalPages())
			return 2
		}
	}
	if ctrl.PageIndex() != 0 {
		if !fetchPage(ctx, ctrl) {
			fmt.Fprintf(w, "Error: %s\n", ctrl.ErrMessage())
			return 1
		}
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatPostsJSON(ctrl))
	} else {
		fmt.Fprint(w, formatPostsHuman(ctrl))
	}
	return 0
}

// fetchPage runs one guarded fetch cycle on the controller
func fetchPage(ctx context.Context, ctrl *feed.Controller) bool {
	seq := ctrl.StartFetch()
	ctrl.Apply(ctrl.Fetch(ctx, seq))
	return ctrl.ErrMessage() == ""
}

// postsReport is the JSON output shape
type postsReport struct {
	Posts      []client.Post `json:"posts"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// formatPostsHuman renders one page of posts for terminal output
func formatPostsHuman(ctrl *feed.Controller) string {
	posts := ctrl.Posts()
	if len(posts) == 0 {
		return "No posts found.\n"
	}

	out := ""
	for _, p := range posts {
		created := ""
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.Local().Format(time.RFC822)
		}
		out += fmt.Sprintf("#%d  %s\n", p.ID, p.Title)
		out += fmt.Sprintf("    @%s  %s\n", p.Username, created)
		out += fmt.Sprintf("    %s\n\n", p.Content)
	}
	out += fmt.Sprintf("Page %d/%d  ·  %d post(s)\n", ctrl.PageIndex()+1, ctrl.TotalPages(), ctrl.TotalCount())
	return out
}

// formatPostsJSON renders the page as JSON
func formatPostsJSON(ctrl *feed.Controller) string {
	data, _ := json.MarshalIndent(postsReport{
		Posts:      ctrl.Posts(),
		TotalCount: ctrl.TotalCount(),
		Page:       ctrl.PageIndex() + 1,
		TotalPages: ctrl.TotalPages(),
	}, "", "  ")
	return string(data)
}
