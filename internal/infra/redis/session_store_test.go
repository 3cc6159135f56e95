package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, "lc:", time.Minute)

	_ = store.GetOrCreate("admin-1")
	if !mr.Exists("lc:admin:session:admin-1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("lc:admin:session:admin-1"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}

	store.Delete("admin-1")
	if mr.Exists("lc:admin:session:admin-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("admin-1"); ok {
		t.Fatalf("expected session removed")
	}
}

func TestSessionStoreExpiresWithMarker(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, "lc:", time.Minute)

	active := store.GetOrCreate("active")
	for _, id := range []string{"idle-1", "idle-2", "idle-3"} {
		store.GetOrCreate(id)
	}

	mr.FastForward(45 * time.Second)
	if got, ok := store.Get("active"); !ok || got != active {
		t.Fatalf("expected active session to survive")
	}
	if ttl := mr.TTL("lc:admin:session:active"); ttl != time.Minute {
		t.Fatalf("expected access to refresh the marker, got %v", ttl)
	}

	mr.FastForward(30 * time.Second)
	removed, err := store.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 3 || store.Len() != 1 {
		t.Fatalf("expected 3 idle sessions swept leaving 1, got %d removed %d left", removed, store.Len())
	}

	mr.FastForward(2 * time.Minute)
	if _, ok := store.Get("active"); ok {
		t.Fatalf("expected session gone once its marker expired")
	}
	if store.Len() != 0 {
		t.Fatalf("expected the local entry to be dropped, got %d", store.Len())
	}
}
