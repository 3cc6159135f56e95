package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"liveclass-admin/internal/domain"
	"liveclass-admin/internal/metrics"
)

// ResultsService curates the student results collection.
type ResultsService struct {
	store             *guardedStore
	deleteConcurrency int
	metrics           *metrics.Metrics
	sf                singleflight.Group
}

func NewResultsService(store DocumentStore, cfg ServiceConfig) *ResultsService {
	cfg = cfg.withDefaults()
	return &ResultsService{
		store:             guard(store, cfg),
		deleteConcurrency: cfg.DeleteConcurrency,
		metrics:           cfg.Metrics,
	}
}

// Load reads the results collection, drops duplicate submissions and stores the
// snapshot in session. The selection is pruned to ids that are still loaded.
func (s *ResultsService) Load(ctx context.Context, session *ResultsSession) ([]domain.StudentResult, error) {
	results, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	session.replace(results)
	return session.Results(), nil
}

// fetch shares one list call between concurrent loaders. The shared call runs
// detached from any single caller's cancellation; the store guard still bounds it.
func (s *ResultsService) fetch(ctx context.Context) ([]domain.StudentResult, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(domain.CollectionStudentResults, func() (interface{}, error) {
		docs, err := s.store.List(shared, domain.CollectionStudentResults)
		if err != nil {
			return nil, err
		}
		raw := make([]domain.StudentResult, 0, len(docs))
		for _, doc := range docs {
			raw = append(raw, decodeResult(doc))
		}
		return DedupeResults(raw), nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.StudentResult), nil
	case <-ctx.Done():
		return nil, persistenceErr("list "+domain.CollectionStudentResults, ctx.Err())
	}
}

// decodeResult never drops a document: one that is not a JSON object still loads
// as a malformed record so it can be selected and deleted.
func decodeResult(doc domain.Document) domain.StudentResult {
	var r domain.StudentResult
	if err := json.Unmarshal(doc.Data, &r); err != nil {
		slog.Warn("unreadable result document", "id", doc.ID, "error", err)
		r = domain.StudentResult{Malformed: true}
	}
	r.ID = doc.ID
	return r
}

// DeleteSelected deletes every selected result concurrently. Deletes are independent:
// any subset may fail, and the returned batch records each outcome. The session
// selection is cleared whatever happens; callers reload afterwards.
func (s *ResultsService) DeleteSelected(ctx context.Context, session *ResultsSession) (domain.BatchResult, error) {
	ids := session.Selection()
	if len(ids) == 0 {
		return domain.BatchResult{}, domain.ErrEmptySelection
	}
	defer session.clearSelection()
	// A load that started before the deletes must not be shared with the reload.
	defer s.sf.Forget(domain.CollectionStudentResults)

	batch := domain.BatchResult{Outcomes: make(map[string]error, len(ids))}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(s.deleteConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			err := s.store.Delete(ctx, domain.CollectionStudentResults, id)
			s.metrics.ResultDeleted(err)
			mu.Lock()
			batch.Outcomes[id] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if failed := batch.Failed(ids); len(failed) > 0 {
		return batch, fmt.Errorf("%w: %d of %d failed", domain.ErrPartialDelete, len(failed), len(ids))
	}
	return batch, nil
}

// DedupeResults keeps the first result seen for each (name, batchTime, phoneNumber)
// triple, preserving first-seen order.
func DedupeResults(raw []domain.StudentResult) []domain.StudentResult {
	type identity struct {
		name, batchTime, phoneNumber string
	}
	seen := make(map[identity]struct{}, len(raw))
	unique := make([]domain.StudentResult, 0, len(raw))
	for _, r := range raw {
		if r.Malformed {
			unique = append(unique, r)
			continue
		}
		key := identity{name: r.Name, batchTime: r.BatchTime, phoneNumber: r.PhoneNumber}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// ResultsSession is one admin's view over the results: the loaded snapshot and
// the checkbox state. It never touches the store.
type ResultsSession struct {
	id string

	mu        sync.RWMutex
	results   []domain.StudentResult
	loaded    map[string]struct{}
	selected  map[string]struct{}
	selectAll bool
}

// NewResultsSession is exported for infrastructure layers that keep sessions.
func NewResultsSession(id string) *ResultsSession {
	return &ResultsSession{
		id:       id,
		loaded:   make(map[string]struct{}),
		selected: make(map[string]struct{}),
	}
}

func (s *ResultsSession) ID() string {
	return s.id
}

// SelectionView is a snapshot of the session for rendering.
type SelectionView struct {
	Results   []domain.StudentResult `json:"results"`
	Selected  []string               `json:"selected"`
	SelectAll bool                   `json:"selectAll"`
}

// Results returns a copy of the loaded snapshot.
func (s *ResultsSession) Results() []domain.StudentResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.StudentResult(nil), s.results...)
}

// Selection returns the selected ids in loaded order.
func (s *ResultsSession) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectionLocked()
}

func (s *ResultsSession) SelectAll() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectAll
}

func (s *ResultsSession) View() SelectionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SelectionView{
		Results:   append([]domain.StudentResult(nil), s.results...),
		Selected:  s.selectionLocked(),
		SelectAll: s.selectAll,
	}
}

// ToggleSelect flips one result in or out of the selection and reports whether it is now selected.
func (s *ResultsSession) ToggleSelect(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loaded[id]; !ok {
		return false, domain.ErrResultNotLoaded
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false, nil
	}
	s.selected[id] = struct{}{}
	return true, nil
}

// ToggleSelectAll selects every loaded result, or clears the selection if the
// flag was already on. It reports the new flag value.
func (s *ResultsSession) ToggleSelectAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectAll {
		s.selected = make(map[string]struct{})
		s.selectAll = false
		return false
	}
	s.selected = make(map[string]struct{}, len(s.results))
	for _, r := range s.results {
		s.selected[r.ID] = struct{}{}
	}
	s.selectAll = true
	return true
}

func (s *ResultsSession) replace(results []domain.StudentResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append([]domain.StudentResult(nil), results...)
	s.loaded = make(map[string]struct{}, len(results))
	for _, r := range results {
		s.loaded[r.ID] = struct{}{}
	}
	for id := range s.selected {
		if _, ok := s.loaded[id]; !ok {
			delete(s.selected, id)
		}
	}
}

func (s *ResultsSession) clearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]struct{})
	s.selectAll = false
}

func (s *ResultsSession) selectionLocked() []string {
	ids := make([]string, 0, len(s.selected))
	for _, r := range s.results {
		if _, ok := s.selected[r.ID]; ok {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
