// ABOUTME: Tests for the postdeck API client
// ABOUTME: Uses httptest to mock backend responses

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lucasreis/postdeck/internal/apierr"
)

func TestListPosts_BareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/listposts/" {
			t.Errorf("expected path /listposts/, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"title":"Hello","content":"World","username":"bob","created_datetime":"2024-05-01T10:00:00Z"}]`))
	}))
	defer server.Close()

	c := New(server.URL)
	posts, err := c.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	if posts[0].Username != "bob" {
		t.Errorf("expected username bob, got %s", posts[0].Username)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	if !posts[0].CreatedAt.Equal(want) {
		t.Errorf("expected created_datetime mapped to %v, got %v", want, posts[0].CreatedAt)
	}
}

func TestListPosts_ResultsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"id":7,"title":"t","content":"c","username":"u","created_datetime":"2024-05-01T10:00:00Z"}]}`))
	}))
	defer server.Close()

	c := New(server.URL)
	posts, err := c.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != 7 {
		t.Errorf("expected post 7 from envelope, got %+v", posts)
	}
}

func TestListPosts_SendsBearerAndRequestID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("expected bearer header, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, WithTokenSource(func() string { return "tok-123" }))
	if _, err := c.ListPosts(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLogin_NoBearerHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("auth endpoints must not carry a bearer token, got %q", got)
		}
		var req LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "user@example.com" || req.Username != "" {
			t.Errorf("unexpected login body: %+v", req)
		}
		json.NewEncoder(w).Encode(AuthResponse{
			Access:  "a",
			Refresh: "r",
			User:    &AuthUser{Email: "user@example.com"},
		})
	}))
	defer server.Close()

	c := New(server.URL, WithTokenSource(func() string { return "stale" }))
	resp, err := c.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Access != "a" || resp.User.Email != "user@example.com" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestLogin_IncompleteResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Missing refresh and user: must not look like a session.
		w.Write([]byte(`{"access":"a"}`))
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.Login(context.Background(), LoginRequest{Username: "u", Password: "p"})
	var malformed *apierr.MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
}

func TestGoogleLogin_CSRFFlow(t *testing.T) {
	var csrfFetched bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/csrf/":
			csrfFetched = true
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-xyz"})
			w.Write([]byte(`{}`))
		case "/auth/google/":
			if !csrfFetched {
				t.Error("google login fired before CSRF fetch")
			}
			if got := r.Header.Get("X-CSRFToken"); got != "csrf-xyz" {
				t.Errorf("expected X-CSRFToken csrf-xyz, got %q", got)
			}
			json.NewEncoder(w).Encode(AuthResponse{Access: "a", Refresh: "r", User: &AuthUser{Name: "Alice W"}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := New(server.URL)
	resp, err := c.GoogleLogin(context.Background(), "google-id-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.User.Name != "Alice W" {
		t.Errorf("unexpected user: %+v", resp.User)
	}
}

func TestFetchCSRF_PathScopedCookie(t *testing.T) {
	// Django scopes the cookie to the endpoint path when no Path attribute
	// is sent; the token must still be readable from the jar.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "scoped-tok", Path: "/csrf"})
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(server.URL)
	tok, err := c.FetchCSRF(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "scoped-tok" {
		t.Errorf("expected scoped-tok, got %q", tok)
	}
}

func TestGoogleLogin_HTMLResponseRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/csrf/" {
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok"})
			w.Write([]byte(`{}`))
			return
		}
		// A 200 with an HTML error page instead of JSON.
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html><html><body>Server Error</body></html>`))
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.GoogleLogin(context.Background(), "token")
	var malformed *apierr.MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError for HTML response, got %v", err)
	}
}

func TestCreatePost_Payload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/createpost/" {
			t.Errorf("expected POST /createpost/, got %s %s", r.Method, r.URL.Path)
		}
		var req CreatePostRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "bob" || req.Title != "Hello" || req.Content != "World" {
			t.Errorf("unexpected payload: %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":9,"title":"Hello","content":"World","username":"bob","created_datetime":"2024-05-01T10:00:00Z"}`))
	}))
	defer server.Close()

	c := New(server.URL)
	post, err := c.CreatePost(context.Background(), CreatePostRequest{Username: "bob", Title: "Hello", Content: "World"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.ID != 9 {
		t.Errorf("expected id 9, got %d", post.ID)
	}
}

func TestEditPost_MethodAndPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/editpost/4/" {
			t.Errorf("expected PATCH /editpost/4/, got %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"id":4,"title":"new","content":"body","username":"bob","created_datetime":"2024-05-01T10:00:00Z"}`))
	}))
	defer server.Close()

	c := New(server.URL)
	post, err := c.EditPost(context.Background(), 4, EditPostRequest{Title: "new", Content: "body"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.Title != "new" {
		t.Errorf("expected updated title, got %s", post.Title)
	}
}

func TestDeletePost(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodDelete || r.URL.Path != "/deletepost/3/" {
			t.Errorf("expected DELETE /deletepost/3/, got %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := New(server.URL)
	if err := c.DeletePost(context.Background(), 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly one DELETE call, got %d", calls)
	}
}

func TestDo_HTTPErrorCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":"duplicate"}`))
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.ListPosts(context.Background())
	var httpErr *apierr.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", httpErr.StatusCode)
	}
}

func TestDo_UnauthorizedHookFires(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	var dropped bool
	c := New(server.URL,
		WithTokenSource(func() string { return "tok" }),
		WithUnauthorizedHook(func() { dropped = true }))

	if _, err := c.ListPosts(context.Background()); err == nil {
		t.Fatal("expected error for 401")
	}
	if !dropped {
		t.Error("expected unauthorized hook to fire")
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.ListPosts(ctx); err == nil {
		t.Error("expected error for canceled context, got nil")
	}
}
