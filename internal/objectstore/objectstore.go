package objectstore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store yields raw document bytes by key. The ingestion pipeline never
// assumes anything about the backing medium beyond these two calls.
type Store interface {
	// List returns all object keys under the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Get opens the object for reading together with its size.
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
}

// FSStore serves a local directory tree as an object store. Keys are
// slash-separated paths relative to the root.
type FSStore struct {
	root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents under %q: %w", s.root, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FSStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if ctx.Err() != nil {
		return nil, 0, ctx.Err()
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open document %q: %w", key, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat document %q: %w", key, err)
	}
	return f, stat.Size(), nil
}
