package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists credentials as a single JSON document on disk,
// keyed by user ID and provider key. Writes are atomic (temp file +
// rename) so a crash mid-write never leaves a truncated store behind.
//
// The file is re-read on every Get, so changes made by another process
// (e.g. a login helper writing freshly obtained tokens) are picked up
// without restarting.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed store at the given path. The parent
// directory is created if it does not exist.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the location of the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() (map[string]map[string]Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]map[string]Credential), nil
		}
		return nil, fmt.Errorf("failed to read credential store: %w", err)
	}

	creds := make(map[string]map[string]Credential)
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("credential store %s is malformed: %w", s.path, err)
	}
	return creds, nil
}

func (s *FileStore) save(creds map[string]map[string]Credential) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace credential store: %w", err)
	}
	return nil
}

// Get returns the stored credential for the user/provider pair, or
// (nil, nil) if absent.
func (s *FileStore) Get(_ context.Context, userID, provider string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.load()
	if err != nil {
		return nil, err
	}

	byProvider, ok := creds[userID]
	if !ok {
		return nil, nil
	}
	cred, ok := byProvider[provider]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

// Put stores the credential, replacing any prior entry for the pair.
func (s *FileStore) Put(_ context.Context, userID, provider string, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.load()
	if err != nil {
		return err
	}

	if creds[userID] == nil {
		creds[userID] = make(map[string]Credential)
	}
	creds[userID][provider] = *cred

	return s.save(creds)
}
