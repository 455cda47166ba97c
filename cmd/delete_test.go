// ABOUTME: Tests for the delete and edit commands
// ABOUTME: Verifies ownership enforcement and backend call sequencing

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lucasreis/postdeck/internal/session"
)

// feedWithMutations serves a two-post feed and records mutation calls
func feedWithMutations(t *testing.T, deletes, edits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/listposts/":
			json.NewEncoder(w).Encode([]map[string]interface{}{
				{"id": 1, "title": "mine", "content": "hello", "username": "alice"},
				{"id": 2, "title": "theirs", "content": "world", "username": "bob"},
			})
		case r.URL.Path == "/deletepost/1/" && r.Method == http.MethodDelete:
			deletes.Add(1)
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/editpost/1/" && r.Method == http.MethodPatch:
			edits.Add(1)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id": 1, "title": "updated", "content": "hello", "username": "alice",
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func seedSession(t *testing.T, username string) {
	t.Helper()
	store := session.NewFileStore(session.DefaultConfigDir())
	if err := store.Save(session.Session{
		AccessToken:  "opaque-access",
		RefreshToken: "opaque-refresh",
		Identity:     session.Identity{Username: username},
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func TestRunDelete_OwnPost(t *testing.T) {
	var deletes, edits atomic.Int32
	server := feedWithMutations(t, &deletes, &edits)
	defer server.Close()
	setTestEnv(t, server.URL)
	apiURL = ""
	seedSession(t, "alice")

	var buf bytes.Buffer
	exitCode := runDelete(context.Background(), &buf, "1", true)

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\noutput: %s", exitCode, buf.String())
	}
	if deletes.Load() != 1 {
		t.Errorf("expected exactly one delete call, got %d", deletes.Load())
	}
}

func TestRunDelete_ForeignPost(t *testing.T) {
	var deletes, edits atomic.Int32
	server := feedWithMutations(t, &deletes, &edits)
	defer server.Close()
	setTestEnv(t, server.URL)
	apiURL = ""
	seedSession(t, "alice")

	var buf bytes.Buffer
	exitCode := runDelete(context.Background(), &buf, "2", true)

	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if deletes.Load() != 0 {
		t.Errorf("expected no delete calls for a foreign post, got %d", deletes.Load())
	}
	if !strings.Contains(buf.String(), "author") {
		t.Errorf("expected ownership error, got %q", buf.String())
	}
}

func TestRunDelete_NotSignedIn(t *testing.T) {
	setTestEnv(t, "http://backend.example.com")
	apiURL = ""

	var buf bytes.Buffer
	exitCode := runDelete(context.Background(), &buf, "1", true)

	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Not signed in") {
		t.Errorf("expected sign-in hint, got %q", buf.String())
	}
}

func TestRunDelete_InvalidID(t *testing.T) {
	setTestEnv(t, "http://backend.example.com")
	apiURL = ""

	var buf bytes.Buffer
	exitCode := runDelete(context.Background(), &buf, "abc", true)

	if exitCode != 2 {
		t.Errorf("expected exit code 2 for invalid id, got %d", exitCode)
	}
}

func TestRunEdit_OwnPost(t *testing.T) {
	var deletes, edits atomic.Int32
	server := feedWithMutations(t, &deletes, &edits)
	defer server.Close()
	setTestEnv(t, server.URL)
	apiURL = ""
	seedSession(t, "alice")

	var buf bytes.Buffer
	exitCode := runEdit(context.Background(), &buf, "1", "updated", "")

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d\noutput: %s", exitCode, buf.String())
	}
	if edits.Load() != 1 {
		t.Errorf("expected exactly one edit call, got %d", edits.Load())
	}
	if !strings.Contains(buf.String(), "Post #1 updated") {
		t.Errorf("expected update confirmation, got %q", buf.String())
	}
}

func TestRunEdit_ForeignPost(t *testing.T) {
	var deletes, edits atomic.Int32
	server := feedWithMutations(t, &deletes, &edits)
	defer server.Close()
	setTestEnv(t, server.URL)
	apiURL = ""
	seedSession(t, "alice")

	var buf bytes.Buffer
	exitCode := runEdit(context.Background(), &buf, "2", "hijack", "attempt")

	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if edits.Load() != 0 {
		t.Errorf("expected no edit calls for a foreign post, got %d", edits.Load())
	}
}

func TestRunEdit_MissingPost(t *testing.T) {
	var deletes, edits atomic.Int32
	server := feedWithMutations(t, &deletes, &edits)
	defer server.Close()
	setTestEnv(t, server.URL)
	apiURL = ""
	seedSession(t, "alice")

	var buf bytes.Buffer
	exitCode := runEdit(context.Background(), &buf, "99", "title", "content")

	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "not found") {
		t.Errorf("expected not-found error, got %q", buf.String())
	}
}
