// Package storage persists attachment blobs on local disk. Files are
// written under opaque uuid keys; original filenames live only in the
// attachment metadata so hostile names never touch the filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobStore writes and serves attachment payloads.
type BlobStore struct {
	dir      string
	maxBytes int64
}

// NewBlobStore ensures the storage directory exists.
func NewBlobStore(dir string, maxBytes int64) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &BlobStore{dir: dir, maxBytes: maxBytes}, nil
}

// Save streams r to disk under a fresh storage key and returns the key
// and byte count. Uploads over the configured limit are rejected and
// the partial file removed.
func (s *BlobStore) Save(r io.Reader) (key string, size int64, err error) {
	key = uuid.NewString()
	path := filepath.Join(s.dir, key)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()

	limit := io.Reader(r)
	if s.maxBytes > 0 {
		limit = io.LimitReader(r, s.maxBytes+1)
	}
	size, err = io.Copy(f, limit)
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write blob: %w", err)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		os.Remove(path)
		return "", 0, fmt.Errorf("blob exceeds %d byte limit", s.maxBytes)
	}
	return key, size, nil
}

// Open returns a reader for the blob stored under key.
func (s *BlobStore) Open(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.dir, key))
}

// Remove deletes the blob stored under key.
func (s *BlobStore) Remove(key string) error {
	err := os.Remove(filepath.Join(s.dir, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
