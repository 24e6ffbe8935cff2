package app

import (
	"context"
	"sync"
	"time"
)

// ManualScheduler fires scheduled jobs only when Tick is called.
type ManualScheduler struct {
	mu   sync.Mutex
	next int
	jobs map[int]func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{jobs: make(map[int]func())}
}

func (m *ManualScheduler) Every(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.jobs[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.jobs, id)
		m.mu.Unlock()
	}
}

// Tick runs every active job once.
func (m *ManualScheduler) Tick() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.jobs))
	for _, fn := range m.jobs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// TickN calls Tick n times.
func (m *ManualScheduler) TickN(n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}

// Active returns the number of running jobs.
func (m *ManualScheduler) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// mapStore is a SessionStore over plain maps.
type mapStore struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string]map[string][]byte)}
}

func (s *mapStore) Get(_ context.Context, attemptID, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[attemptID][key]
	return v, ok, nil
}

func (s *mapStore) Set(_ context.Context, attemptID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[attemptID] == nil {
		s.data[attemptID] = make(map[string][]byte)
	}
	s.data[attemptID][key] = append([]byte(nil), value...)
	return nil
}

func (s *mapStore) Clear(_ context.Context, attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, attemptID)
	return nil
}

// TimerKey exposes the progress key of a question.
func TimerKey(questionID int) string {
	return timerKey(questionID)
}

// recordingScheduler remembers every job it was given, including cancelled ones.
type recordingScheduler struct {
	*ManualScheduler
	mu  sync.Mutex
	all []func()
}

func newRecordingScheduler() *recordingScheduler {
	return &recordingScheduler{ManualScheduler: NewManualScheduler()}
}

func (r *recordingScheduler) Every(interval time.Duration, fn func()) func() {
	r.mu.Lock()
	r.all = append(r.all, fn)
	r.mu.Unlock()
	return r.ManualScheduler.Every(interval, fn)
}

func (r *recordingScheduler) job(i int) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.all[i]
}
