package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"liveclass-admin/internal/app"
	"liveclass-admin/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// DocumentStore keeps documents as JSONB rows in the documents table.
// seq preserves insertion order; overwrites keep it.
type DocumentStore struct {
	pool *pgxpool.Pool
	q    querier
	// forUpdate locks rows read inside a transaction.
	forUpdate bool
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool, q: pool}
}

func (s *DocumentStore) Get(ctx context.Context, collection, key string) (domain.Document, bool, error) {
	query := `SELECT data FROM documents WHERE collection=$1 AND id=$2`
	if s.forUpdate {
		query += ` FOR UPDATE`
	}
	var raw []byte
	err := s.q.QueryRow(ctx, query, collection, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Document{}, false, nil
	}
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("get document: %w", err)
	}
	return domain.Document{ID: key, Data: raw}, true, nil
}

func (s *DocumentStore) Set(ctx context.Context, collection, key string, data []byte) error {
	_, err := s.q.Exec(ctx, `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, id) DO UPDATE SET data=EXCLUDED.data`, collection, key, string(data))
	if err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

func (s *DocumentStore) Append(ctx context.Context, collection string, data []byte) (string, error) {
	id := uuid.NewString()
	_, err := s.q.Exec(ctx, `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, string(data))
	if err != nil {
		return "", fmt.Errorf("append document: %w", err)
	}
	return id, nil
}

func (s *DocumentStore) List(ctx context.Context, collection string) ([]domain.Document, error) {
	rows, err := s.q.Query(ctx, `SELECT id, data FROM documents WHERE collection=$1 ORDER BY seq`, collection)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, domain.Document{ID: id, Data: raw})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM documents WHERE collection=$1 AND id=$2`, collection, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// RunInTx runs fn in a transaction whose reads lock the rows they touch.
func (s *DocumentStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.DocumentStore) error) error {
	if s.pool == nil {
		// already inside a transaction
		return fn(ctx, s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &DocumentStore{q: tx, forUpdate: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
