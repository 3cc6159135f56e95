package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type LocalProvider struct {
	// RootPath is the directory where buckets are simulated (e.g., "./data")
	RootPath string
}

func NewLocalProvider(root string) *LocalProvider {
	return &LocalProvider{RootPath: root}
}

func (l *LocalProvider) Put(ctx context.Context, bucket, key string, body io.ReadSeeker, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := l.path(bucket, key)
	if err != nil {
		return err
	}
	// Ensure sub-directories exist (e.g. bucket/questions/<id>)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, body)
	return err
}

func (l *LocalProvider) Delete(_ context.Context, bucket, key string) error {
	path, err := l.path(bucket, key)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Dir is the directory served for a bucket.
func (l *LocalProvider) Dir(bucket string) string {
	return filepath.Join(l.RootPath, bucket)
}

func (l *LocalProvider) path(bucket, key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", errors.New("object key escapes bucket: " + key)
	}
	return filepath.Join(l.RootPath, bucket, clean), nil
}
