// ABOUTME: Durable session storage for tokens and identity
// ABOUTME: File-backed store in the XDG config directory, one file per key

package session

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Storage keys. These are the only names ever written; legacy clients used
// a bare "token" key, which this store neither reads nor migrates.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyUser         = "user"
)

// Session is the persisted token pair plus identity snapshot.
type Session struct {
	AccessToken  string
	RefreshToken string
	Identity     Identity
}

// Store is the single gateway to durable session state. All reads and
// writes of session keys go through here; nothing else touches them.
type Store interface {
	// Save persists the full session. No partial-write recovery is
	// attempted; the store is a cache, not a source of truth.
	Save(s Session) error

	// Load returns the restorable session, or nil when the stored state
	// is absent or corrupt. Corrupt state is cleared on the way out.
	Load() *Session

	// Clear removes all session keys. Idempotent.
	Clear() error
}

// FileStore keeps each session key in its own file under a config
// directory, following the XDG convention.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// DefaultConfigDir returns the postdeck config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "postdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "postdeck")
}

func (fs *FileStore) path(key string) string {
	return filepath.Join(fs.dir, key)
}

func (fs *FileStore) Save(s Session) error {
	if err := os.MkdirAll(fs.dir, 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(fs.path(keyAccessToken), []byte(s.AccessToken), 0o600); err != nil {
		return err
	}
	if err := os.WriteFile(fs.path(keyRefreshToken), []byte(s.RefreshToken), 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.Identity, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fs.path(keyUser), data, 0o600)
}

func (fs *FileStore) Load() *Session {
	access, err := os.ReadFile(fs.path(keyAccessToken))
	if err != nil || len(access) == 0 {
		fs.Clear()
		return nil
	}

	userData, err := os.ReadFile(fs.path(keyUser))
	if err != nil {
		fs.Clear()
		return nil
	}

	var id Identity
	if err := json.Unmarshal(userData, &id); err != nil || !id.Valid() {
		// Self-healing: anything that does not parse as a well-formed
		// identity is treated as corrupt and discarded.
		fs.Clear()
		return nil
	}

	refresh, _ := os.ReadFile(fs.path(keyRefreshToken))

	return &Session{
		AccessToken:  string(access),
		RefreshToken: string(refresh),
		Identity:     id,
	}
}

func (fs *FileStore) Clear() error {
	var firstErr error
	for _, key := range []string{keyAccessToken, keyRefreshToken, keyUser} {
		if err := os.Remove(fs.path(key)); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// MemStore is an in-memory Store for tests and for running without a
// writable home directory.
type MemStore struct {
	session *Session
}

func NewMemStore() *MemStore { return &MemStore{} }

func (ms *MemStore) Save(s Session) error {
	copied := s
	ms.session = &copied
	return nil
}

func (ms *MemStore) Load() *Session {
	if ms.session == nil {
		return nil
	}
	if ms.session.AccessToken == "" || !ms.session.Identity.Valid() {
		ms.session = nil
		return nil
	}
	copied := *ms.session
	return &copied
}

func (ms *MemStore) Clear() error {
	ms.session = nil
	return nil
}
