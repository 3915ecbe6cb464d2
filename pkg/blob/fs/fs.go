package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/shelfd/pkg/blob"
)

// FSBlobStore implements blob.Store using the local filesystem.
//
// Blobs are stored under basePath with a two-level fanout derived from the
// key's first characters, keeping any single directory from accumulating
// millions of entries:
//
//	basePath/ab/cd/abcd1234-...
//
// Writes go through a temp file in the final directory followed by a rename,
// so readers never observe a partially written blob.
//
// Thread Safety:
// Filesystem operations are safe at the OS level; concurrent writes to the
// same key are last-write-wins via the rename.
type FSBlobStore struct {
	basePath string
}

// NewFSBlobStore creates a filesystem-backed blob store rooted at basePath,
// creating the directory if needed.
func NewFSBlobStore(ctx context.Context, basePath string) (*FSBlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	return &FSBlobStore{basePath: basePath}, nil
}

// blobPath returns the fanned-out path for a key.
func (s *FSBlobStore) blobPath(key string) string {
	// Keys shorter than the fanout width land in a catch-all directory.
	if len(key) < 4 {
		return filepath.Join(s.basePath, "__", key)
	}
	return filepath.Join(s.basePath, key[0:2], key[2:4], key)
}

// Write stores the blob read from r under key.
func (s *FSBlobStore) Write(ctx context.Context, key string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.blobPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create fanout directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize blob %s: %w", key, err)
	}
	return nil
}

// Read returns a reader for the blob stored under key.
func (s *FSBlobStore) Read(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.blobPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", key, blob.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	return file, nil
}

// Keys walks the fanout tree and returns every stored key.
func (s *FSBlobStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string

	err := filepath.WalkDir(s.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		// The key is the file name; the fanout directories only mirror its
		// leading characters
		keys = append(keys, d.Name())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate blobs: %w", err)
	}
	return keys, nil
}

// Remove deletes the blob stored under key. Missing blobs are not an error.
func (s *FSBlobStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.blobPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove blob %s: %w", key, err)
	}
	return nil
}
