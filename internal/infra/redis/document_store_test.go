package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestDocumentStoreRoundTripInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewDocumentStore(newClient(mr), "lc:")

	if _, found, err := store.Get(ctx, "liveStream", "currentLive"); err != nil || found {
		t.Fatalf("expected miss, found=%v err=%v", found, err)
	}

	if err := store.Set(ctx, "liveStream", "currentLive", []byte(`{"url":"u","isLive":true}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	doc, found, err := store.Get(ctx, "liveStream", "currentLive")
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if string(doc.Data) != `{"url":"u","isLive":true}` {
		t.Fatalf("unexpected body %s", doc.Data)
	}
	if !mr.Exists("lc:doc:liveStream:currentLive") {
		t.Fatalf("expected prefixed document key")
	}
}

func TestDocumentStoreListsInInsertionOrder(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewDocumentStore(newClient(mr), "")

	var ids []string
	for _, body := range []string{`{"name":"A"}`, `{"name":"B"}`, `{"name":"C"}`} {
		id, err := store.Append(ctx, "studentResults", []byte(body))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		ids = append(ids, id)
	}
	// Overwrite keeps position.
	if err := store.Set(ctx, "studentResults", ids[0], []byte(`{"name":"A2"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Delete(ctx, "studentResults", ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}

	docs, err := store.List(ctx, "studentResults")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != ids[0] || docs[1].ID != ids[2] {
		t.Fatalf("unexpected listing %+v", docs)
	}
	if string(docs[0].Data) != `{"name":"A2"}` {
		t.Fatalf("expected overwritten body, got %s", docs[0].Data)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
