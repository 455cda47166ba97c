// ABOUTME: Post listing state machine with search, sort, and pagination
// ABOUTME: Guards against out-of-order fetch completion with a sequence token

package feed

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lucasreis/postdeck/internal/client"
)

// SortOrder controls feed ordering by creation time.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// FetchErrMessage is the single message shown for any listing failure.
// Listing has no retry of its own; a stale feed is an acceptable degraded
// state and mutations carry their own retry budgets.
const FetchErrMessage = "failed to fetch posts"

// Lister is the slice of the API client the feed needs.
type Lister interface {
	ListPosts(ctx context.Context) ([]client.Post, error)
}

// Filter returns the posts matching search, case-insensitively, on title,
// content, or author (both bare and @-prefixed forms). Empty search returns
// the input unchanged, in order.
func Filter(posts []client.Post, search string) []client.Post {
	if search == "" {
		return posts
	}
	lower := strings.ToLower(search)
	var out []client.Post
	for _, p := range posts {
		username := strings.ToLower(p.Username)
		if strings.Contains(strings.ToLower(p.Title), lower) ||
			strings.Contains(strings.ToLower(p.Content), lower) ||
			strings.Contains(username, lower) ||
			strings.Contains("@"+username, lower) {
			out = append(out, p)
		}
	}
	return out
}

// Sorted returns a new list ordered by creation time. The sort is stable
// and never mutates its input.
func Sorted(posts []client.Post, order SortOrder) []client.Post {
	out := make([]client.Post, len(posts))
	copy(out, posts)
	sort.SliceStable(out, func(i, j int) bool {
		if order == SortOldest {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[j].CreatedAt.Before(out[i].CreatedAt)
	})
	return out
}

// Snapshot is the outcome of one fetch, tagged with the sequence token of
// the fetch that produced it.
type Snapshot struct {
	Posts      []client.Post
	TotalCount int
	Page       int
	Seq        uint64
	Err        error
}

// Controller owns the feed view parameters and the current page of posts.
// It is safe for use from a UI goroutine plus fetch goroutines.
type Controller struct {
	api    Lister
	logger zerolog.Logger

	mu         sync.Mutex
	search     string
	pageSize   int
	pageIndex  int
	sortOrder  SortOrder
	refresh    int
	seq        uint64
	posts      []client.Post
	totalCount int
	loading    bool
	errMsg     string
}

// NewController creates a feed controller with the given page size.
func NewController(api Lister, pageSize int, logger zerolog.Logger) *Controller {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Controller{api: api, pageSize: pageSize, sortOrder: SortNewest, logger: logger}
}

// Posts returns the current page, sorted per the active order. Sorting is
// a read-side stage; the fetched page itself is kept unsorted.
func (c *Controller) Posts() []client.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Sorted(c.posts, c.sortOrder)
}

func (c *Controller) TotalCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCount
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ErrMessage returns the current listing error, "" when none.
func (c *Controller) ErrMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Controller) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

func (c *Controller) PageIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageIndex
}

func (c *Controller) PageSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageSize
}

func (c *Controller) Sort() SortOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortOrder
}

// TotalPages derives the page count from the filtered total.
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.totalCount == 0 {
		return 0
	}
	return (c.totalCount + c.pageSize - 1) / c.pageSize
}

// SetSearch updates the filter text and resets to the first page.
func (c *Controller) SetSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.search == text {
		return
	}
	c.search = text
	c.pageIndex = 0
}

// SetPageSize changes the page size. Always resets the page index to 0 so
// the window never points past the filtered total.
func (c *Controller) SetPageSize(size int) {
	if size < 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageSize = size
	c.pageIndex = 0
}

// SetSort changes ordering. Purely a read-side change; no refetch needed.
func (c *Controller) SetSort(order SortOrder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortOrder = order
}

// NextPage advances when another page exists.
func (c *Controller) NextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if (c.pageIndex+1)*c.pageSize >= c.totalCount {
		return false
	}
	c.pageIndex++
	return true
}

// PrevPage steps back when not on the first page.
func (c *Controller) PrevPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pageIndex == 0 {
		return false
	}
	c.pageIndex--
	return true
}

// BumpRefresh marks the feed dirty after a successful mutation. The caller
// follows up with StartFetch/Fetch/Apply.
func (c *Controller) BumpRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh++
}

// RefreshCounter returns the monotonic refresh trigger value.
func (c *Controller) RefreshCounter() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh
}

// StartFetch marks the feed loading, clears any prior error, and returns
// the sequence token identifying this fetch. A later StartFetch supersedes
// every earlier one.
func (c *Controller) StartFetch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.loading = true
	c.errMsg = ""
	return c.seq
}

// Fetch retrieves the collection and computes the page window for the
// parameters current at call time. It does not mutate controller state;
// the result is applied separately so stale fetches can be discarded.
func (c *Controller) Fetch(ctx context.Context, seq uint64) Snapshot {
	c.mu.Lock()
	search, pageSize, pageIndex := c.search, c.pageSize, c.pageIndex
	c.mu.Unlock()

	all, err := c.api.ListPosts(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("post list fetch failed")
		return Snapshot{Seq: seq, Err: err}
	}

	filtered := Filter(all, search)
	total := len(filtered)

	// Clamp a page window that fell past the filtered total, which happens
	// when posts were deleted or the filter narrowed under us.
	if pageIndex*pageSize >= total && pageIndex > 0 {
		pageIndex = 0
	}

	start := pageIndex * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Snapshot{
		Posts:      filtered[start:end],
		TotalCount: total,
		Page:       pageIndex,
		Seq:        seq,
	}
}

// Apply installs a fetch result unless a newer fetch has been started
// since. Returns false when the snapshot was stale and discarded.
func (c *Controller) Apply(s Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.Seq != c.seq {
		return false
	}
	c.loading = false
	if s.Err != nil {
		c.errMsg = FetchErrMessage
		return true
	}
	c.posts = s.Posts
	c.totalCount = s.TotalCount
	c.pageIndex = s.Page
	return true
}
