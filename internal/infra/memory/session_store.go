package memory

import (
	"context"
	"sync"
	"time"

	"liveclass-admin/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions untouched for longer than the idle timeout expire; zero keeps them forever.
type SessionStore struct {
	mu       sync.Mutex
	idle     time.Duration
	now      func() time.Time
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	session  *app.ResultsSession
	lastSeen time.Time
}

func NewSessionStore(idle time.Duration) *SessionStore {
	return &SessionStore{
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *SessionStore) GetOrCreate(id string) *app.ResultsSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if e, ok := s.sessions[id]; ok && !s.expired(e, now) {
		e.lastSeen = now
		return e.session
	}
	e := &sessionEntry{session: app.NewResultsSession(id), lastSeen: now}
	s.sessions[id] = e
	return e.session
}

func (s *SessionStore) Get(id string) (*app.ResultsSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.expired(e, now) {
		delete(s.sessions, id)
		return nil, false
	}
	e.lastSeen = now
	return e.session, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep drops every expired session and returns how many were removed.
func (s *SessionStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, e := range s.sessions {
		if s.expired(e, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many sessions are held, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(e *sessionEntry, now time.Time) bool {
	return s.idle > 0 && now.Sub(e.lastSeen) > s.idle
}
