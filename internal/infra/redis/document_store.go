package redis

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"liveclass-admin/internal/domain"
)

// DocumentStore keeps each document as a JSON string and each collection's
// insertion order in a sorted set:
//
//	SET  {prefix}doc:{collection}:{id} <json>
//	ZADD {prefix}idx:{collection} NX <seq> <id>   (seq from INCR {prefix}seq:{collection})
//
// Overwrites keep the original position; List walks the sorted set.
type DocumentStore struct {
	client *redis.Client
	prefix string
}

func NewDocumentStore(client *redis.Client, prefix string) *DocumentStore {
	return &DocumentStore{client: client, prefix: prefix}
}

func (s *DocumentStore) Get(ctx context.Context, collection, key string) (domain.Document, bool, error) {
	data, err := s.client.Get(ctx, s.docKey(collection, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Document{}, false, nil
	}
	if err != nil {
		return domain.Document{}, false, err
	}
	return domain.Document{ID: key, Data: data}, true, nil
}

func (s *DocumentStore) Set(ctx context.Context, collection, key string, data []byte) error {
	seq, err := s.client.Incr(ctx, s.seqKey(collection)).Result()
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(collection, key), data, 0)
		pipe.ZAddNX(ctx, s.indexKey(collection), redis.Z{Score: float64(seq), Member: key})
		return nil
	})
	return err
}

func (s *DocumentStore) Append(ctx context.Context, collection string, data []byte) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *DocumentStore) List(ctx context.Context, collection string) ([]domain.Document, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(collection, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(ids))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry whose document was removed between the two reads
			continue
		}
		docs = append(docs, domain.Document{ID: ids[i], Data: []byte(raw)})
	}
	return docs, nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(collection, id))
		pipe.ZRem(ctx, s.indexKey(collection), id)
		return nil
	})
	return err
}

func (s *DocumentStore) docKey(collection, id string) string {
	return s.prefix + "doc:" + collection + ":" + id
}

func (s *DocumentStore) indexKey(collection string) string {
	return s.prefix + "idx:" + collection
}

func (s *DocumentStore) seqKey(collection string) string {
	return s.prefix + "seq:" + collection
}
