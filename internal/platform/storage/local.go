package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// ImageStore persists an uploaded image and returns a stable reference string
// that handlers record on the post. Storage mechanics stay behind this
// interface.
type ImageStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// LocalImageStore writes images to a directory on disk and references them
// as "/uploads/<file>". Filenames are timestamp-prefixed and sanitized.
type LocalImageStore struct {
	dir          string
	publicPrefix string
}

func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewLocalImageStore: %w", err)
	}
	return &LocalImageStore{dir: dir, publicPrefix: "/uploads/"}, nil
}

func (s *LocalImageStore) Save(_ context.Context, originalName string, r io.Reader) (string, error) {
	safe := unsafeChars.ReplaceAllString(filepath.Base(originalName), "_")
	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safe)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("LocalImageStore.Save: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("LocalImageStore.Save: %w", err)
	}
	return s.publicPrefix + name, nil
}

// Dir exposes the backing directory so the router can serve it statically.
func (s *LocalImageStore) Dir() string {
	return s.dir
}
