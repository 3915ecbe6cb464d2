package repository

import (
	"context"
	"strings"
)

// ============================================================================
// CatalogStore Interface
// ============================================================================

// CatalogStore persists the file catalog: the ordered collection of file
// records, system-seeded and user-uploaded.
//
// The store manages record metadata only; file bytes live in a separate blob
// store keyed by FileRecord.BlobKey. This separation keeps the catalog small
// and lets content storage scale independently (local disk for development,
// S3 for production).
//
// Ordering:
// The catalog is most-recent-first: Put of a new record inserts at the head,
// and Query returns records in that order, stable across updates. Updating
// an existing record does not change its position.
//
// Error Handling:
// Business errors (missing record, duplicate insert) are returned as
// *RepositoryError; infrastructure failures are wrapped driver errors.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type CatalogStore interface {
	// Put inserts a new record at the head of the catalog or, if the id is
	// already present, replaces the existing record in place (same
	// position). Records are stored by value: the store keeps its own copy.
	Put(ctx context.Context, record *FileRecord) error

	// Get returns a copy of the record with the given id.
	//
	// Returns ErrNotFound if no such record exists.
	Get(ctx context.Context, id FileID) (*FileRecord, error)

	// Delete removes the record with the given id.
	//
	// Returns ErrNotFound if no such record exists. Policy checks are the
	// caller's responsibility; reaching this method with a forbidden
	// category is a programming error upstream, not a store concern.
	Delete(ctx context.Context, id FileID) error

	// Query returns copies of all records whose category is in categories,
	// newest first. If search is non-empty, records are further filtered to
	// those whose name, category, or any tag contains search
	// case-insensitively.
	Query(ctx context.Context, categories []CategoryLabel, search string) ([]*FileRecord, error)

	// BlobKeys returns the blob keys referenced by catalog records. Records
	// without stored content are skipped. Used by the orphaned-blob sweeper
	// to diff the blob store against the catalog.
	BlobKeys(ctx context.Context) ([]string, error)

	// Len returns the number of records in the catalog.
	Len(ctx context.Context) (int, error)

	// Close releases store resources. The store must not be used afterwards.
	Close() error
}

// MatchesSearch implements the shared search predicate: case-insensitive
// substring match over name, category, and tags. Exported so every store
// backend filters identically.
func MatchesSearch(record *FileRecord, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(record.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(string(record.Category)), needle) {
		return true
	}
	for _, tag := range record.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}
