package memory

import (
	"sync"

	"tech-quiz-service/internal/app"
)

// SessionRepository is an in-memory implementation of app.SessionRepository.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*app.Session),
	}
}

// GetOrCreate returns the live session or stores the one built by create.
// create runs under the repository lock so two callers never build twice.
func (r *SessionRepository) GetOrCreate(attemptID string, create func() (*app.Session, error)) (*app.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[attemptID]; ok {
		return session, nil
	}
	session, err := create()
	if err != nil {
		return nil, err
	}
	r.sessions[attemptID] = session
	return session, nil
}

func (r *SessionRepository) Get(attemptID string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[attemptID]
	return session, ok
}

func (r *SessionRepository) Delete(attemptID string) (*app.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[attemptID]
	if ok {
		delete(r.sessions, attemptID)
	}
	return session, ok
}
