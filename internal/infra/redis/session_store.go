package redis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"liveclass-admin/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Selection state stays in a local map; it belongs to one interactive admin
//     and is never shared across instances.
//   - Redis carries a liveness marker per admin session, refreshed on every access.
//     A session whose marker has expired is gone locally too.
//   - When Redis cannot be reached the local session is kept.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	prefix   string
	mu       sync.Mutex
	sessions map[string]*app.ResultsSession
}

func NewSessionStore(client *redis.Client, prefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		prefix:   prefix,
		sessions: make(map[string]*app.ResultsSession),
	}
}

func (s *SessionStore) GetOrCreate(id string) *app.ResultsSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if ok && !s.touch(id) {
		ok = false
	}
	if !ok {
		session = app.NewResultsSession(id)
		s.sessions[id] = session
		if err := s.client.Set(context.Background(), s.key(id), "1", s.ttl).Err(); err != nil {
			slog.Warn("set session marker", "session", id, "error", err)
		}
	}
	return session
}

func (s *SessionStore) Get(id string) (*app.ResultsSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if !s.touch(id) {
		delete(s.sessions, id)
		return nil, false
	}
	return session, true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

// Sweep drops local sessions whose marker has expired and returns how many were removed.
func (s *SessionStore) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(s.sessions))
	pipe := s.client.Pipeline()
	checks := make([]*redis.IntCmd, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
		checks = append(checks, pipe.Exists(ctx, s.key(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	removed := 0
	for i, check := range checks {
		if check.Val() == 0 {
			delete(s.sessions, ids[i])
			removed++
		}
	}
	return removed, nil
}

// Len reports how many sessions are held locally.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// touch extends the marker and reports whether the session is still alive.
func (s *SessionStore) touch(id string) bool {
	alive, err := s.client.Expire(context.Background(), s.key(id), s.ttl).Result()
	if err != nil {
		slog.Warn("refresh session marker", "session", id, "error", err)
		return true
	}
	return alive
}

func (s *SessionStore) key(id string) string {
	return s.prefix + "admin:session:" + id
}
