// ABOUTME: Authentication session controller
// ABOUTME: Orchestrates login, registration, Google exchange, logout, and restore

package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/lucasreis/postdeck/internal/client"
	"github.com/lucasreis/postdeck/internal/retry"
	"github.com/lucasreis/postdeck/internal/session"
)

// Retry budgets. Auth gets fewer attempts than content mutations; a wrong
// password does not get better with repetition and the executor only
// retries transient classes anyway.
const (
	authAttempts = 2
	baseDelay    = time.Second
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ErrAutoLoginFailed is returned when registration succeeded but the
// follow-up sign-in did not. The account exists; no session was stored.
var ErrAutoLoginFailed = errors.New("account created, but automatic sign-in failed")

// API is the subset of the backend client the controller needs.
type API interface {
	Login(ctx context.Context, req client.LoginRequest) (*client.AuthResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) error
	GoogleLogin(ctx context.Context, idToken string) (*client.AuthResponse, error)
}

// Controller owns the in-memory Identity and funnels every session write
// through the store.
type Controller struct {
	api    API
	store  session.Store
	logger zerolog.Logger

	mu       sync.Mutex
	identity *session.Identity
	access   string
	loading  bool
}

// New builds a controller and synchronously restores any stored session.
// Restoration never touches the network; a stored token that is already
// expired is treated the same as no session at all.
func New(api API, store session.Store, logger zerolog.Logger) *Controller {
	c := &Controller{api: api, store: store, logger: logger}

	if s := store.Load(); s != nil {
		if tokenExpired(s.AccessToken) {
			logger.Debug().Msg("stored access token expired, clearing session")
			store.Clear()
		} else {
			id := s.Identity
			c.identity = &id
			c.access = s.AccessToken
		}
	}
	return c
}

// Identity returns a copy of the current identity, or nil when signed out.
func (c *Controller) Identity() *session.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

// AccessToken returns the current bearer token, "" when signed out. Wire
// this as the API client's token source.
func (c *Controller) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access
}

// IsLoading reports whether an auth operation is in flight. The UI should
// not submit a second operation while true.
func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

// IsEmail reports whether the login string looks like an email address.
func IsEmail(login string) bool {
	return emailPattern.MatchString(login)
}

// LoginWithCredential signs in with a username or email plus password. The
// login string is classified by shape; the backend accepts either field.
func (c *Controller) LoginWithCredential(ctx context.Context, login, password string) (*session.Identity, error) {
	c.setLoading(true)
	defer c.setLoading(false)

	req := client.LoginRequest{Password: password}
	if IsEmail(login) {
		req.Email = strings.TrimSpace(login)
	} else {
		req.Username = strings.TrimSpace(login)
	}

	resp, err := retry.Do(ctx, c.logger, "login", authAttempts, baseDelay, func() (*client.AuthResponse, error) {
		return c.api.Login(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	id := identityFromResponse(resp, req.Username, req.Email)
	return c.establish(resp, id)
}

// LoginWithGoogle exchanges a Google ID token for a backend session. The
// hint, when present, wins over the server-provided display name; the
// Google profile name reads better in greetings than a generated username.
func (c *Controller) LoginWithGoogle(ctx context.Context, idToken, displayNameHint string) (*session.Identity, error) {
	c.setLoading(true)
	defer c.setLoading(false)

	resp, err := retry.Do(ctx, c.logger, "google login", authAttempts, baseDelay, func() (*client.AuthResponse, error) {
		return c.api.GoogleLogin(ctx, idToken)
	})
	if err != nil {
		return nil, err
	}

	id := identityFromResponse(resp, "", "")
	if displayNameHint != "" {
		id.DisplayName = displayNameHint
	}
	id.GoogleToken = idToken
	return c.establish(resp, id)
}

// Register creates an account and signs in with the new credentials. When
// the follow-up sign-in fails the account still exists, so the caller gets
// ErrAutoLoginFailed rather than a plain failure.
func (c *Controller) Register(ctx context.Context, username, email, password string) (*session.Identity, error) {
	c.setLoading(true)

	req := client.RegisterRequest{
		Username:  strings.TrimSpace(username),
		Email:     strings.TrimSpace(email),
		Password1: password,
		Password2: password,
	}

	_, err := retry.Do(ctx, c.logger, "register", authAttempts, baseDelay, func() (struct{}, error) {
		return struct{}{}, c.api.Register(ctx, req)
	})
	c.setLoading(false)
	if err != nil {
		return nil, err
	}

	id, err := c.LoginWithCredential(ctx, req.Username, password)
	if err != nil {
		c.logger.Warn().Err(err).Msg("auto-login after registration failed")
		return nil, ErrAutoLoginFailed
	}
	return id, nil
}

// Logout clears the session unconditionally, whether or not one existed.
func (c *Controller) Logout() {
	c.mu.Lock()
	c.identity = nil
	c.access = ""
	c.mu.Unlock()
	c.store.Clear()
}

// DropSession clears stored and in-memory state without the intent of a
// user-initiated logout. Wire this as the client's unauthorized hook so a
// 401 invalidates the cached session.
func (c *Controller) DropSession() {
	c.Logout()
}

// establish persists the session and publishes the identity. The client
// has already validated that access, refresh, and user are all present.
func (c *Controller) establish(resp *client.AuthResponse, id session.Identity) (*session.Identity, error) {
	if err := c.store.Save(session.Session{
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		Identity:     id,
	}); err != nil {
		c.logger.Warn().Err(err).Msg("failed to persist session, continuing in-memory")
	}

	c.mu.Lock()
	c.identity = &id
	c.access = resp.Access
	c.mu.Unlock()

	out := id
	return &out, nil
}

// identityFromResponse builds the Identity, falling back to the submitted
// login when the server user object is sparse.
func identityFromResponse(resp *client.AuthResponse, username, email string) session.Identity {
	id := session.Identity{
		Username:    resp.User.Username,
		Email:       resp.User.Email,
		DisplayName: resp.User.Name,
	}
	if id.Username == "" {
		id.Username = username
	}
	if id.Email == "" {
		id.Email = email
	}
	return id
}

// tokenExpired reports whether the JWT's exp claim is in the past. The
// token is not verified here; the backend is the authority, this only
// avoids restoring a session we know the backend will reject.
func tokenExpired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Opaque (non-JWT) tokens pass through untouched.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
