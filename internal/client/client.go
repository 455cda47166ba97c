// ABOUTME: HTTP client for the postdeck social posting API
// ABOUTME: Handles Bearer auth, CSRF cookie flow, and response shape mapping

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lucasreis/postdeck/internal/apierr"
)

const csrfCookieName = "csrftoken"

// TokenSource supplies the current bearer token, or "" when signed out.
type TokenSource func() string

// Client is the API client for the posting service backend.
type Client struct {
	baseURL    string
	httpClient *http.Client // data calls
	authClient *http.Client // auth and token-exchange calls, longer timeout
	token      TokenSource
	onAuthFail func() // invoked once per 401 from an authenticated call
}

// Option configures a Client.
type Option func(*Client)

// WithTimeouts overrides the data and auth call timeouts.
func WithTimeouts(data, auth time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = data
		c.authClient.Timeout = auth
	}
}

// WithTokenSource sets the bearer token supplier.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithUnauthorizedHook registers a callback fired when an authenticated
// call comes back 401. Callers use it to drop the stored session.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onAuthFail = fn }
}

// New creates a new API client with the given base URL.
func New(baseURL string, opts ...Option) *Client {
	// The jar carries the csrftoken cookie between the CSRF fetch and the
	// state-mutating auth calls. cookiejar.New never fails with nil options.
	jar, _ := cookiejar.New(nil)

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second, Jar: jar},
		authClient: &http.Client{Timeout: 30 * time.Second, Jar: jar},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post is a user-authored text entry as the API returns it.
type Post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_datetime"`
}

// UnmarshalJSON maps the wire's created_datetime string onto CreatedAt,
// tolerating both RFC3339 and fractional-second forms.
func (p *Post) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID        int    `json:"id"`
		Title     string `json:"title"`
		Content   string `json:"content"`
		Username  string `json:"username"`
		CreatedAt string `json:"created_datetime"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	p.ID = wire.ID
	p.Title = wire.Title
	p.Content = wire.Content
	p.Username = wire.Username
	if wire.CreatedAt != "" {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, wire.CreatedAt); err == nil {
				p.CreatedAt = t
				break
			}
		}
	}
	return nil
}

// AuthUser is the user object returned by the auth endpoints.
type AuthUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// AuthResponse is the token bundle returned by login and token exchange.
type AuthResponse struct {
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
	User    *AuthUser `json:"user"`
}

// CreatePostRequest is the body for POST /createpost/.
type CreatePostRequest struct {
	Username string `json:"username"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// EditPostRequest is the partial update body for PATCH /editpost/{id}/.
type EditPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// LoginRequest carries either a username or an email, never both.
type LoginRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// RegisterRequest is the body for POST /auth/registration/.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

// ListPosts calls GET /listposts/ and returns the full collection. The
// backend answers either a bare array or a {results: [...]} envelope.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	body, err := c.do(ctx, c.httpClient, http.MethodGet, "/listposts/", nil, true, "")
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Results []Post `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Results != nil {
		return envelope.Results, nil
	}

	var posts []Post
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, &apierr.MalformedError{Reason: "unexpected post list shape from backend"}
	}
	return posts, nil
}

// CreatePost calls POST /createpost/.
func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	body, err := c.do(ctx, c.httpClient, http.MethodPost, "/createpost/", req, true, "")
	if err != nil {
		return nil, err
	}
	var post Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, &apierr.MalformedError{Reason: "unexpected create response from backend"}
	}
	return &post, nil
}

// EditPost calls PATCH /editpost/{id}/.
func (c *Client) EditPost(ctx context.Context, id int, req EditPostRequest) (*Post, error) {
	path := fmt.Sprintf("/editpost/%d/", id)
	body, err := c.do(ctx, c.httpClient, http.MethodPatch, path, req, true, "")
	if err != nil {
		return nil, err
	}
	var post Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, &apierr.MalformedError{Reason: "unexpected edit response from backend"}
	}
	return &post, nil
}

// DeletePost calls DELETE /deletepost/{id}/.
func (c *Client) DeletePost(ctx context.Context, id int) error {
	path := fmt.Sprintf("/deletepost/%d/", id)
	_, err := c.do(ctx, c.httpClient, http.MethodDelete, path, nil, true, "")
	return err
}

// Login calls POST /auth/login/.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	body, err := c.do(ctx, c.authClient, http.MethodPost, "/auth/login/", req, false, "")
	if err != nil {
		return nil, err
	}
	return decodeAuthResponse(body)
}

// Register calls POST /auth/registration/.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	_, err := c.do(ctx, c.authClient, http.MethodPost, "/auth/registration/", req, false, "")
	return err
}

// GoogleLogin exchanges a Google ID token for a backend session. The CSRF
// token is fetched first and echoed back in the X-CSRFToken header.
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (*AuthResponse, error) {
	csrf, err := c.FetchCSRF(ctx)
	if err != nil {
		return nil, err
	}

	req := struct {
		Token string `json:"token"`
	}{Token: idToken}

	body, err := c.do(ctx, c.authClient, http.MethodPost, "/auth/google/", req, false, csrf)
	if err != nil {
		return nil, err
	}
	return decodeAuthResponse(body)
}

// FetchCSRF calls GET /csrf/ so the backend sets its csrftoken cookie, then
// reads the token back out of the jar. The jar is queried at the /csrf/ URL
// so cookies the backend scopes to that path are still visible.
func (c *Client) FetchCSRF(ctx context.Context) (string, error) {
	if _, err := c.do(ctx, c.authClient, http.MethodGet, "/csrf/", nil, false, ""); err != nil {
		return "", err
	}

	csrfURL, err := url.Parse(c.baseURL + "/csrf/")
	if err != nil {
		return "", err
	}
	for _, cookie := range c.authClient.Jar.Cookies(csrfURL) {
		if cookie.Name == csrfCookieName {
			return cookie.Value, nil
		}
	}
	return "", &apierr.MalformedError{Reason: "backend configuration error: CSRF token not set"}
}

// decodeAuthResponse validates the token bundle shape. A response missing
// any of access/refresh/user must not produce a logged-in session.
func decodeAuthResponse(body []byte) (*AuthResponse, error) {
	var resp AuthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &apierr.MalformedError{Reason: "backend configuration error: expected JSON auth response"}
	}
	if resp.Access == "" || resp.Refresh == "" || resp.User == nil {
		return nil, &apierr.MalformedError{Reason: "incomplete auth response from backend"}
	}
	return &resp, nil
}

// do issues one request and returns the response body. Non-2xx statuses
// come back as *apierr.HTTPError; HTML where JSON is expected comes back
// as *apierr.MalformedError.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, payload interface{}, authenticated bool, csrf string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if csrf != "" {
		req.Header.Set("X-CSRFToken", csrf)
	}
	if authenticated && c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && authenticated && c.onAuthFail != nil {
		c.onAuthFail()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apierr.HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	// A proxy or misrouted backend can answer 200 with an HTML error page.
	// Retrying will not fix that, so surface it as a distinct failure.
	if method != http.MethodDelete && looksLikeHTML(resp.Header.Get("Content-Type"), body) {
		return nil, &apierr.MalformedError{Reason: "backend configuration error: received HTML where JSON was expected"}
	}

	return body, nil
}

func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return bytes.HasPrefix(trimmed, []byte("<!DOCTYPE")) || bytes.HasPrefix(trimmed, []byte("<html"))
}
