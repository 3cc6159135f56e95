package objectstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalClientPutAndPublicURL(t *testing.T) {
	root := t.TempDir()
	client := NewClient(NewLocalProvider(root), "media", "http://localhost:8080/media/")

	if err := client.Put(context.Background(), "questions/abc", bytes.NewReader([]byte("png")), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "media", "questions", "abc"))
	if err != nil {
		t.Fatalf("read stored object: %v", err)
	}
	if string(data) != "png" {
		t.Fatalf("unexpected object body %q", data)
	}
	if got := client.PublicURL("questions/abc"); got != "http://localhost:8080/media/questions/abc" {
		t.Fatalf("unexpected public url %s", got)
	}

	if err := client.Delete(context.Background(), "questions/abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "media", "questions", "abc")); !os.IsNotExist(err) {
		t.Fatalf("expected object removed, stat err=%v", err)
	}
}

func TestLocalProviderRejectsEscapingKeys(t *testing.T) {
	p := NewLocalProvider(t.TempDir())
	if err := p.Put(context.Background(), "media", "../outside", bytes.NewReader(nil), ""); err == nil {
		t.Fatalf("expected escaping key to be rejected")
	}
}
