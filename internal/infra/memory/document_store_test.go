package memory

import (
	"context"
	"testing"
)

func TestDocumentStoreKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	first, err := store.Append(ctx, "studentResults", []byte(`{"name":"A"}`))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Set(ctx, "studentResults", "fixed", []byte(`{"name":"B"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	third, _ := store.Append(ctx, "studentResults", []byte(`{"name":"C"}`))

	// Overwriting keeps the original position.
	if err := store.Set(ctx, "studentResults", first, []byte(`{"name":"A2"}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	docs, err := store.List(ctx, "studentResults")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 3 || docs[0].ID != first || docs[1].ID != "fixed" || docs[2].ID != third {
		t.Fatalf("unexpected order %+v", docs)
	}
	if string(docs[0].Data) != `{"name":"A2"}` {
		t.Fatalf("expected overwritten body, got %s", docs[0].Data)
	}
}

func TestDocumentStoreGetAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	if _, found, err := store.Get(ctx, "liveStream", "currentLive"); err != nil || found {
		t.Fatalf("expected absent document, found=%v err=%v", found, err)
	}

	_ = store.Set(ctx, "liveStream", "currentLive", []byte(`{"url":"x","isLive":true}`))
	doc, found, err := store.Get(ctx, "liveStream", "currentLive")
	if err != nil || !found {
		t.Fatalf("expected document, found=%v err=%v", found, err)
	}
	if doc.ID != "currentLive" {
		t.Fatalf("unexpected id %s", doc.ID)
	}

	if err := store.Delete(ctx, "liveStream", "currentLive"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	docs, _ := store.List(ctx, "liveStream")
	if len(docs) != 0 {
		t.Fatalf("expected empty collection, got %d", len(docs))
	}
}
