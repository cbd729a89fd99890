// Package creds defines the credential-provider contract consumed by the
// sync engine, plus a plain file-backed store used by the CLI.
//
// The engine never persists credentials itself; a token is embedded into
// the remote URL only for the duration of a single network operation.
// Production deployments are expected to plug in a platform secret store
// behind the Provider interface.
package creds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoCredentials is returned by Load when no credentials are stored.
// Callers must treat this as a distinct condition, not an empty value.
var ErrNoCredentials = errors.New("no credentials stored")

// Credentials is a username plus access token pair for the remote.
type Credentials struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Provider loads, saves, and deletes the single stored credential pair.
type Provider interface {
	// Load returns the stored credentials, or ErrNoCredentials if none exist.
	Load() (*Credentials, error)

	// Save stores the credentials, replacing any existing pair.
	Save(c Credentials) error

	// Delete removes the stored credentials. Deleting when nothing is
	// stored is not an error.
	Delete() error
}

// FileStore is a Provider backed by a mode-0600 JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore persisting to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Provider.Load.
func (s *FileStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	if c.Username == "" && c.Token == "" {
		return nil, ErrNoCredentials
	}

	return &c, nil
}

// Save implements Provider.Save.
func (s *FileStore) Save(c Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// Delete implements Provider.Delete.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credentials file: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory Provider for tests.
type MemoryStore struct {
	mu sync.Mutex
	c  *Credentials
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Provider.Load.
func (s *MemoryStore) Load() (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.c == nil {
		return nil, ErrNoCredentials
	}
	c := *s.c
	return &c, nil
}

// Save implements Provider.Save.
func (s *MemoryStore) Save(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = &c
	return nil
}

// Delete implements Provider.Delete.
func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c = nil
	return nil
}
