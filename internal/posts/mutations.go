// ABOUTME: Post mutation controllers for create, edit, and delete
// ABOUTME: Applies ownership checks, retry budgets, and confirm-before-delete

package posts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lucasreis/postdeck/internal/apierr"
	"github.com/lucasreis/postdeck/internal/client"
	"github.com/lucasreis/postdeck/internal/retry"
	"github.com/lucasreis/postdeck/internal/session"
)

// Content mutations get three attempts; delete is destructive and gets two.
const (
	mutateAttempts = 3
	deleteAttempts = 2
	baseDelay      = time.Second
)

// ErrNotOwner means the acting identity does not own the post.
var ErrNotOwner = errors.New("only the author can modify this post")

// ErrNothingPending means Confirm or Cancel was called with no delete
// request in flight.
var ErrNothingPending = errors.New("no delete pending confirmation")

// API is the mutation slice of the backend client.
type API interface {
	CreatePost(ctx context.Context, req client.CreatePostRequest) (*client.Post, error)
	EditPost(ctx context.Context, id int, req client.EditPostRequest) (*client.Post, error)
	DeletePost(ctx context.Context, id int) error
}

// Composer holds the create-post form state. On failure the form is left
// intact so the user can correct and resubmit; on success it is cleared
// and the success callback receives the submitted payload.
type Composer struct {
	api    API
	logger zerolog.Logger
	delay  time.Duration

	Title   string
	Content string

	OnSuccess func(client.CreatePostRequest)
	OnFailure func(*apierr.Error)
}

// NewComposer creates a create-post controller.
func NewComposer(api API, logger zerolog.Logger) *Composer {
	return &Composer{api: api, logger: logger, delay: baseDelay}
}

// CanSubmit is the client-side gate: both fields non-blank after trimming.
// It does not replace server validation.
func (f *Composer) CanSubmit() bool {
	return strings.TrimSpace(f.Title) != "" && strings.TrimSpace(f.Content) != ""
}

// Submit sends the post as the given actor. Returns false when the local
// validation gate rejects the form; no callback fires in that case, so a
// local gate and a server error can never surface together.
func (f *Composer) Submit(ctx context.Context, actor session.Identity) bool {
	if !f.CanSubmit() {
		return false
	}

	req := client.CreatePostRequest{
		Username: actor.AttributionName(),
		Title:    strings.TrimSpace(f.Title),
		Content:  strings.TrimSpace(f.Content),
	}

	_, err := retry.Do(ctx, f.logger, "create post", mutateAttempts, f.delay, func() (*client.Post, error) {
		return f.api.CreatePost(ctx, req)
	})
	if err != nil {
		if f.OnFailure != nil {
			f.OnFailure(apierr.Classify(err, "failed to create post"))
		}
		return true
	}

	f.Title = ""
	f.Content = ""
	if f.OnSuccess != nil {
		f.OnSuccess(req)
	}
	return true
}

// Editor submits partial updates to an existing post.
type Editor struct {
	api    API
	logger zerolog.Logger
	delay  time.Duration
}

// NewEditor creates an edit controller.
func NewEditor(api API, logger zerolog.Logger) *Editor {
	return &Editor{api: api, logger: logger, delay: baseDelay}
}

// Submit updates title and content. The actor must own the post; the
// comparison is case-insensitive so a backend that canonicalizes usernames
// differently does not lock authors out of their own posts.
func (e *Editor) Submit(ctx context.Context, actor session.Identity, post client.Post, title, content string) (*client.Post, error) {
	if !actor.Owns(post.Username) {
		return nil, ErrNotOwner
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return nil, errors.New("title and content must not be blank")
	}

	req := client.EditPostRequest{
		Title:   strings.TrimSpace(title),
		Content: strings.TrimSpace(content),
	}
	return retry.Do(ctx, e.logger, "edit post", mutateAttempts, e.delay, func() (*client.Post, error) {
		return e.api.EditPost(ctx, post.ID, req)
	})
}

// Deleter implements the two-step delete flow: a request arms the pending
// confirmation, and only an explicit Confirm issues the network call.
type Deleter struct {
	api     API
	logger  zerolog.Logger
	delay   time.Duration
	pending *client.Post
}

// NewDeleter creates a delete controller.
func NewDeleter(api API, logger zerolog.Logger) *Deleter {
	return &Deleter{api: api, logger: logger, delay: baseDelay}
}

// Request arms deletion of the given post after an ownership check. No
// network call happens here.
func (d *Deleter) Request(actor session.Identity, post client.Post) error {
	if !actor.Owns(post.Username) {
		return ErrNotOwner
	}
	p := post
	d.pending = &p
	return nil
}

// Pending returns the post awaiting confirmation, if any.
func (d *Deleter) Pending() (client.Post, bool) {
	if d.pending == nil {
		return client.Post{}, false
	}
	return *d.pending, true
}

// Cancel disarms the pending deletion. The list is untouched.
func (d *Deleter) Cancel() {
	d.pending = nil
}

// Confirm issues the DELETE for the pending post. The rendered item is not
// removed optimistically; callers refresh the feed on success.
func (d *Deleter) Confirm(ctx context.Context) error {
	if d.pending == nil {
		return ErrNothingPending
	}
	id := d.pending.ID
	d.pending = nil

	_, err := retry.Do(ctx, d.logger, "delete post", deleteAttempts, d.delay, func() (struct{}, error) {
		return struct{}{}, d.api.DeletePost(ctx, id)
	})
	return err
}
