// ABOUTME: Tests for the feed controller
// ABOUTME: Covers filtering, sorting, pagination windows, and stale-fetch discard

package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasreis/postdeck/internal/client"
)

var nop = zerolog.Nop()

type fakeLister struct {
	posts []client.Post
	err   error
	calls int
}

func (f *fakeLister) ListPosts(context.Context) ([]client.Post, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

func post(id int, title, content, username string, created time.Time) client.Post {
	return client.Post{ID: id, Title: title, Content: content, Username: username, CreatedAt: created}
}

func makePosts(n int) []client.Post {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	out := make([]client.Post, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, post(i+1, fmt.Sprintf("post %d", i+1), "content", "author", base.Add(time.Duration(i)*time.Minute)))
	}
	return out
}

func TestFilter_CaseInsensitiveAcrossFields(t *testing.T) {
	now := time.Now()
	posts := []client.Post{
		post(1, "Hello World", "x", "carol", now),
		post(2, "other", "the WORLD is big", "dave", now),
		post(3, "misc", "y", "worldly", now),
		post(4, "nothing", "here", "eve", now),
	}

	got := Filter(posts, "world")
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].ID, got[1].ID, got[2].ID})
}

func TestFilter_AtPrefixedUsername(t *testing.T) {
	now := time.Now()
	posts := []client.Post{
		post(1, "t", "c", "carol", now),
		post(2, "t", "c", "dave", now),
	}

	got := Filter(posts, "@carol")
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)

	got = Filter(posts, "carol")
	require.Len(t, got, 1)
}

func TestFilter_EmptySearchReturnsInputInOrder(t *testing.T) {
	posts := makePosts(3)
	got := Filter(posts, "")
	assert.Equal(t, posts, got)
}

func TestSorted_NewestAndOldest(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	posts := []client.Post{
		post(1, "a", "c", "u", base.Add(time.Minute)),
		post(2, "b", "c", "u", base.Add(3*time.Minute)),
		post(3, "c", "c", "u", base),
	}

	newest := Sorted(posts, SortNewest)
	assert.Equal(t, []int{2, 1, 3}, []int{newest[0].ID, newest[1].ID, newest[2].ID})

	oldest := Sorted(posts, SortOldest)
	assert.Equal(t, []int{3, 1, 2}, []int{oldest[0].ID, oldest[1].ID, oldest[2].ID})

	// Input untouched.
	assert.Equal(t, 1, posts[0].ID)
}

func TestSorted_StableOnTies(t *testing.T) {
	same := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	posts := []client.Post{
		post(10, "first", "c", "u", same),
		post(20, "second", "c", "u", same),
		post(30, "third", "c", "u", same),
	}

	sorted := Sorted(posts, SortNewest)
	assert.Equal(t, []int{10, 20, 30}, []int{sorted[0].ID, sorted[1].ID, sorted[2].ID})

	// Idempotent: sorting the sorted list changes nothing.
	again := Sorted(sorted, SortNewest)
	assert.Equal(t, sorted, again)
}

func TestController_PageWindow(t *testing.T) {
	// 25 posts, page size 10, page index 2: exactly the last 5.
	api := &fakeLister{posts: makePosts(25)}
	c := NewController(api, 10, nop)
	c.NextPage() // no data yet, must refuse
	assert.Equal(t, 0, c.PageIndex())

	seq := c.StartFetch()
	require.True(t, c.Apply(c.Fetch(context.Background(), seq)))
	assert.Equal(t, 25, c.TotalCount())
	assert.Equal(t, 3, c.TotalPages())

	require.True(t, c.NextPage())
	require.True(t, c.NextPage())
	seq = c.StartFetch()
	require.True(t, c.Apply(c.Fetch(context.Background(), seq)))

	page := c.Posts()
	require.Len(t, page, 5)
	assert.Equal(t, 25, c.TotalCount())
	ids := []int{page[0].ID, page[1].ID, page[2].ID, page[3].ID, page[4].ID}
	// Newest-first within the window of posts 21..25.
	assert.Equal(t, []int{25, 24, 23, 22, 21}, ids)
}

func TestController_SetPageSizeResetsPageIndex(t *testing.T) {
	api := &fakeLister{posts: makePosts(30)}
	c := NewController(api, 10, nop)
	seq := c.StartFetch()
	require.True(t, c.Apply(c.Fetch(context.Background(), seq)))
	require.True(t, c.NextPage())
	require.Equal(t, 1, c.PageIndex())

	c.SetPageSize(20)
	assert.Equal(t, 0, c.PageIndex())
	assert.Equal(t, 20, c.PageSize())
}

func TestController_SearchResetsPageAndFilters(t *testing.T) {
	now := time.Now()
	api := &fakeLister{posts: []client.Post{
		post(1, "go tips", "x", "carol", now),
		post(2, "rust tips", "y", "dave", now),
	}}
	c := NewController(api, 10, nop)
	c.SetSearch("go")

	seq := c.StartFetch()
	require.True(t, c.Apply(c.Fetch(context.Background(), seq)))
	assert.Equal(t, 1, c.TotalCount())
	require.Len(t, c.Posts(), 1)
	assert.Equal(t, 1, c.Posts()[0].ID)
}

func TestController_FetchFailureSetsGenericError(t *testing.T) {
	api := &fakeLister{err: errors.New("boom")}
	c := NewController(api, 10, nop)

	seq := c.StartFetch()
	assert.True(t, c.Loading())
	require.True(t, c.Apply(c.Fetch(context.Background(), seq)))

	assert.False(t, c.Loading())
	assert.Equal(t, FetchErrMessage, c.ErrMessage())
	// No retry baked into listing.
	assert.Equal(t, 1, api.calls)
}

func TestController_StaleFetchDiscarded(t *testing.T) {
	api := &fakeLister{posts: makePosts(5)}
	c := NewController(api, 10, nop)

	oldSeq := c.StartFetch()
	oldSnap := c.Fetch(context.Background(), oldSeq)

	// A newer fetch supersedes the first before it lands.
	newSeq := c.StartFetch()
	newSnap := c.Fetch(context.Background(), newSeq)
	require.True(t, c.Apply(newSnap))

	assert.False(t, c.Apply(oldSnap), "stale snapshot must be discarded")
	assert.Equal(t, 5, c.TotalCount())
}

func TestController_ErrorClearedOnNextFetch(t *testing.T) {
	api := &fakeLister{err: errors.New("boom")}
	c := NewController(api, 10, nop)

	seq := c.StartFetch()
	require.True(t, c.Apply(c.Fetch(context.Background(), seq)))
	require.NotEmpty(t, c.ErrMessage())

	api.err = nil
	api.posts = makePosts(2)
	seq = c.StartFetch()
	assert.Empty(t, c.ErrMessage())
	require.True(t, c.Apply(c.Fetch(context.Background(), seq)))
	assert.Empty(t, c.ErrMessage())
	assert.Equal(t, 2, c.TotalCount())
}

func TestController_PageClampWhenFilterNarrows(t *testing.T) {
	api := &fakeLister{posts: makePosts(25)}
	c := NewController(api, 10, nop)
	seq := c.StartFetch()
	require.True(t, c.Apply(c.Fetch(context.Background(), seq)))
	require.True(t, c.NextPage())
	require.True(t, c.NextPage())

	// Narrow the collection under the current window.
	api.posts = makePosts(3)
	seq = c.StartFetch()
	require.True(t, c.Apply(c.Fetch(context.Background(), seq)))

	assert.Equal(t, 0, c.PageIndex())
	assert.Len(t, c.Posts(), 3)
}

func TestController_BumpRefresh(t *testing.T) {
	c := NewController(&fakeLister{}, 10, nop)
	assert.Equal(t, 0, c.RefreshCounter())
	c.BumpRefresh()
	c.BumpRefresh()
	assert.Equal(t, 2, c.RefreshCounter())
}
