package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"liveclass-admin/internal/domain"
	"liveclass-admin/internal/metrics"
)

// DocumentStore abstracts the managed document database (in-memory, Redis, Postgres, Mongo).
// Writes are whole-document overwrites; List returns documents in insertion order.
type DocumentStore interface {
	Get(ctx context.Context, collection, key string) (domain.Document, bool, error)
	Set(ctx context.Context, collection, key string, data []byte) error
	Append(ctx context.Context, collection string, data []byte) (string, error)
	List(ctx context.Context, collection string) ([]domain.Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// Transactor is implemented by stores that can run a read-check-write sequence atomically.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx DocumentStore) error) error
}

// ObjectStore holds uploaded binaries and hands out their public URLs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) error
	PublicURL(key string) string
}

// SessionRepository keeps per-admin results sessions (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(id string) *ResultsSession
	Get(id string) (*ResultsSession, bool)
	Delete(id string)
}

// SessionSweeper drops expired sessions and reports how many went.
type SessionSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// ServiceConfig carries the knobs shared by every service.
type ServiceConfig struct {
	// StoreTimeout bounds each individual store call; zero disables the bound.
	StoreTimeout      time.Duration
	DeleteConcurrency int
	Location          *time.Location
	Now               func() time.Time
	Metrics           *metrics.Metrics
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.DeleteConcurrency <= 0 {
		c.DeleteConcurrency = 8
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// guardedStore bounds every call with a timeout, records latency and wraps
// failures in domain.ErrPersistence.
type guardedStore struct {
	inner   DocumentStore
	timeout time.Duration
	metrics *metrics.Metrics
}

func guard(inner DocumentStore, cfg ServiceConfig) *guardedStore {
	return &guardedStore{inner: inner, timeout: cfg.StoreTimeout, metrics: cfg.Metrics}
}

func (g *guardedStore) call(ctx context.Context, op, collection string, fn func(ctx context.Context) error) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	started := time.Now()
	err := fn(ctx)
	g.metrics.ObserveStoreCall(op, started, err)
	if err != nil {
		return persistenceErr(op+" "+collection, err)
	}
	return nil
}

func (g *guardedStore) Get(ctx context.Context, collection, key string) (domain.Document, bool, error) {
	var (
		doc   domain.Document
		found bool
	)
	err := g.call(ctx, "get", collection, func(ctx context.Context) error {
		var err error
		doc, found, err = g.inner.Get(ctx, collection, key)
		return err
	})
	return doc, found, err
}

func (g *guardedStore) Set(ctx context.Context, collection, key string, data []byte) error {
	return g.call(ctx, "set", collection, func(ctx context.Context) error {
		return g.inner.Set(ctx, collection, key, data)
	})
}

func (g *guardedStore) Append(ctx context.Context, collection string, data []byte) (string, error) {
	var id string
	err := g.call(ctx, "append", collection, func(ctx context.Context) error {
		var err error
		id, err = g.inner.Append(ctx, collection, data)
		return err
	})
	return id, err
}

func (g *guardedStore) List(ctx context.Context, collection string) ([]domain.Document, error) {
	var docs []domain.Document
	err := g.call(ctx, "list", collection, func(ctx context.Context) error {
		var err error
		docs, err = g.inner.List(ctx, collection)
		return err
	})
	return docs, err
}

func (g *guardedStore) Delete(ctx context.Context, collection, id string) error {
	return g.call(ctx, "delete", collection, func(ctx context.Context) error {
		return g.inner.Delete(ctx, collection, id)
	})
}

// RunInTx runs fn inside a backend transaction when the store offers one, and
// directly against the store otherwise.
func (g *guardedStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx DocumentStore) error) error {
	tr, ok := g.inner.(Transactor)
	if !ok {
		return fn(ctx, g)
	}

	var fnErr error
	err := tr.RunInTx(ctx, func(ctx context.Context, tx DocumentStore) error {
		fnErr = fn(ctx, &guardedStore{inner: tx, timeout: g.timeout, metrics: g.metrics})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return persistenceErr("commit", err)
	}
	return nil
}

func persistenceErr(op string, err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}
