package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no blob exists for the requested key.
// Backends wrap it with the key for context; match with errors.Is.
var ErrNotFound = errors.New("blob not found")

// ============================================================================
// Blob Store Interface
// ============================================================================

// Store holds the raw bytes behind file records.
//
// The repository core is metadata-only: a FileRecord carries a BlobKey and a
// size, and everything byte-shaped goes through this interface. Keys are
// opaque strings minted by the repository (uuid per upload); only the backend
// interprets them.
//
// Backends:
//   - fs: local filesystem with fanout directories (development, single node)
//   - memory: in-process map (tests, ephemeral servers)
//   - s3: Amazon S3 or any S3-compatible endpoint (production)
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// Concurrent writes to the same key are last-write-wins.
type Store interface {
	// Write stores the blob read from r under key, replacing any existing
	// blob with the same key.
	Write(ctx context.Context, key string, r io.Reader) error

	// Read returns a reader for the blob stored under key. The caller must
	// close it. Returns ErrNotFound if there is no such blob.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Remove deletes the blob stored under key. Removing a missing key is
	// not an error: deletes must be idempotent so a failed metadata delete
	// can be retried.
	Remove(ctx context.Context, key string) error
}

// SweepableStore is implemented by backends that can enumerate their keys.
//
// Enumeration is what the orphaned-blob sweeper needs to diff stored blobs
// against the catalog. It is optional: a backend without it simply cannot be
// swept.
type SweepableStore interface {
	Store

	// Keys returns every key currently stored. The result is a snapshot;
	// concurrent writes may or may not be included.
	Keys(ctx context.Context) ([]string, error)
}
