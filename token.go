package positions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore supplies the bearer token. It is read once per request and
// never written by the dispatcher.
type TokenStore interface {
	// Token returns the current token and whether one is available
	Token() (string, bool)
}

// TokenFunc adapts a function to TokenStore
type TokenFunc func() (string, bool)

// Token calls f
func (f TokenFunc) Token() (string, bool) {
	return f()
}

// StaticToken is a fixed token. The empty string means no token.
type StaticToken string

// Token returns the token when non-empty
func (t StaticToken) Token() (string, bool) {
	return string(t), t != ""
}

// MemoryTokenStore keeps the token in memory and is safe for concurrent use.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func (s *MemoryTokenStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *MemoryTokenStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *MemoryTokenStore) Clear() {
	s.Set("")
}

// FileTokenStore persists the token in a file. The file is read on every
// call so tokens written by another process are picked up.
type FileTokenStore struct {
	Path string
}

// NewFileTokenStore returns a store backed by path, expanding "~/" and environment variables.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: expandPath(path)}
}

func (s *FileTokenStore) Token() (string, bool) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	return token, token != ""
}

// Save writes token to the file, creating its directory if needed.
func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token file '%s': %w", s.Path, err)
	}
	return nil
}

// Clear removes the token file. A missing file is not an error.
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file '%s': %w", s.Path, err)
	}
	return nil
}
