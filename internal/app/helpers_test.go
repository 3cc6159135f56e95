package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"liveclass-admin/internal/domain"
	"liveclass-admin/internal/infra/memory"
)

var errBackend = errors.New("backend unavailable")

// recordingStore wraps the in-memory store, counts calls and injects failures.
type recordingStore struct {
	*memory.DocumentStore

	mu         sync.Mutex
	reads      int
	writes     int
	failAppend error
	failSet    error
	failList   error
	failDelete map[string]error

	// When listGate is set, List signals listEntered and blocks until the gate
	// closes or its context ends.
	listEntered chan struct{}
	listGate    chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{DocumentStore: memory.NewDocumentStore(), failDelete: map[string]error{}}
}

func (s *recordingStore) Get(ctx context.Context, coll, key string) (domain.Document, bool, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()
	return s.DocumentStore.Get(ctx, coll, key)
}

func (s *recordingStore) List(ctx context.Context, coll string) ([]domain.Document, error) {
	s.mu.Lock()
	s.reads++
	err := s.failList
	entered, gate := s.listEntered, s.listGate
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.DocumentStore.List(ctx, coll)
}

func (s *recordingStore) Set(ctx context.Context, coll, key string, data []byte) error {
	s.mu.Lock()
	s.writes++
	err := s.failSet
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.DocumentStore.Set(ctx, coll, key, data)
}

func (s *recordingStore) Append(ctx context.Context, coll string, data []byte) (string, error) {
	s.mu.Lock()
	s.writes++
	err := s.failAppend
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return s.DocumentStore.Append(ctx, coll, data)
}

func (s *recordingStore) Delete(ctx context.Context, coll, id string) error {
	s.mu.Lock()
	s.writes++
	err := s.failDelete[id]
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.DocumentStore.Delete(ctx, coll, id)
}

func (s *recordingStore) counts() (reads, writes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.writes
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedResult(t *testing.T, store *memory.DocumentStore, r domain.StudentResult) string {
	t.Helper()
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	id, err := store.Append(context.Background(), domain.CollectionStudentResults, data)
	if err != nil {
		t.Fatalf("seed result: %v", err)
	}
	return id
}
