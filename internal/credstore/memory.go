package credstore

import (
	"context"
	"sync"
)

type credKey struct {
	UserID   string
	Provider string
}

// MemoryStore is a thread-safe in-memory credential store. It backs
// tests and short-lived processes that receive credentials at startup.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[credKey]Credential
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[credKey]Credential)}
}

// Get returns a copy of the stored credential, or (nil, nil) if absent.
func (s *MemoryStore) Get(_ context.Context, userID, provider string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[credKey{UserID: userID, Provider: provider}]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

// Put stores a copy of the credential, replacing any prior entry.
func (s *MemoryStore) Put(_ context.Context, userID, provider string, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds[credKey{UserID: userID, Provider: provider}] = *cred
	return nil
}
