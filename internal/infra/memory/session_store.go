package memory

import (
	"context"
	"sync"
)

// SessionStore is an in-memory implementation of app.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	attempts map[string]map[string][]byte
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		attempts: make(map[string]map[string][]byte),
	}
}

func (s *SessionStore) Get(_ context.Context, attemptID, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.attempts[attemptID][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *SessionStore) Set(_ context.Context, attemptID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.attempts[attemptID]
	if !ok {
		keys = make(map[string][]byte)
		s.attempts[attemptID] = keys
	}
	keys[key] = append([]byte(nil), value...)
	return nil
}

func (s *SessionStore) Clear(_ context.Context, attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptID)
	return nil
}
