package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"liveclass-admin/internal/domain"
)

// DocumentStore is an in-memory implementation of app.DocumentStore (useful for tests/demos).
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	order []string
	docs  map[string][]byte
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{collections: make(map[string]*collection)}
}

func (s *DocumentStore) Get(_ context.Context, coll, key string) (domain.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[coll]
	if !ok {
		return domain.Document{}, false, nil
	}
	data, ok := c.docs[key]
	if !ok {
		return domain.Document{}, false, nil
	}
	return domain.Document{ID: key, Data: clone(data)}, true, nil
}

func (s *DocumentStore) Set(_ context.Context, coll, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(coll, key, data)
	return nil
}

func (s *DocumentStore) Append(_ context.Context, coll string, data []byte) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(coll, id, data)
	return id, nil
}

func (s *DocumentStore) List(_ context.Context, coll string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[coll]
	if !ok {
		return nil, nil
	}
	docs := make([]domain.Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, domain.Document{ID: id, Data: clone(c.docs[id])})
	}
	return docs, nil
}

func (s *DocumentStore) Delete(_ context.Context, coll, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[coll]
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *DocumentStore) setLocked(coll, key string, data []byte) {
	c, ok := s.collections[coll]
	if !ok {
		c = &collection{docs: make(map[string][]byte)}
		s.collections[coll] = c
	}
	if _, exists := c.docs[key]; !exists {
		c.order = append(c.order, key)
	}
	c.docs[key] = clone(data)
}

func clone(data []byte) []byte {
	return append([]byte(nil), data...)
}
