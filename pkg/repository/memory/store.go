package memory

import (
	"context"
	"sync"

	"github.com/marmos91/shelfd/pkg/repository"
)

// MemoryCatalogStore implements repository.CatalogStore using in-memory
// storage.
//
// Suitable for testing, development, and ephemeral deployments where the
// catalog does not need to survive a restart.
//
// Storage Model:
// Records live in a map keyed by id; a separate id slice holds the catalog
// order, newest first. Put of a new id prepends to the slice; Put of an
// existing id replaces the record in place so updates never reorder the
// catalog.
//
// Thread Safety:
// All operations are protected by a single read-write mutex, making the
// store safe for concurrent use by multiple goroutines.
type MemoryCatalogStore struct {
	mu sync.RWMutex

	// records maps file ids to their records
	records map[repository.FileID]*repository.FileRecord

	// order holds file ids newest first
	order []repository.FileID
}

// NewMemoryCatalogStore creates an empty in-memory catalog store.
func NewMemoryCatalogStore() *MemoryCatalogStore {
	return &MemoryCatalogStore{
		records: make(map[repository.FileID]*repository.FileRecord),
	}
}

// Put inserts a new record at the head of the catalog or replaces an
// existing one in place.
func (store *MemoryCatalogStore) Put(ctx context.Context, record *repository.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.ID == "" {
		return &repository.RepositoryError{
			Code:    repository.ErrInvalidArgument,
			Message: "record id must not be empty",
		}
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.records[record.ID]; !exists {
		store.order = append([]repository.FileID{record.ID}, store.order...)
	}
	store.records[record.ID] = record.Clone()
	return nil
}

// Get returns a copy of the record with the given id.
func (store *MemoryCatalogStore) Get(ctx context.Context, id repository.FileID) (*repository.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	record, exists := store.records[id]
	if !exists {
		return nil, &repository.RepositoryError{
			Code:    repository.ErrNotFound,
			Message: "file not found",
			Subject: string(id),
		}
	}
	return record.Clone(), nil
}

// Delete removes the record with the given id.
func (store *MemoryCatalogStore) Delete(ctx context.Context, id repository.FileID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.records[id]; !exists {
		return &repository.RepositoryError{
			Code:    repository.ErrNotFound,
			Message: "file not found",
			Subject: string(id),
		}
	}

	delete(store.records, id)
	for i, orderedID := range store.order {
		if orderedID == id {
			store.order = append(store.order[:i], store.order[i+1:]...)
			break
		}
	}
	return nil
}

// Query returns copies of all records matching the category set and search
// text, newest first.
func (store *MemoryCatalogStore) Query(ctx context.Context, categories []repository.CategoryLabel, search string) ([]*repository.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[repository.CategoryLabel]struct{}, len(categories))
	for _, category := range categories {
		wanted[category] = struct{}{}
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	var results []*repository.FileRecord
	for _, id := range store.order {
		record := store.records[id]
		if _, ok := wanted[record.Category]; !ok {
			continue
		}
		if !repository.MatchesSearch(record, search) {
			continue
		}
		results = append(results, record.Clone())
	}
	return results, nil
}

// BlobKeys returns the blob keys referenced by catalog records.
func (store *MemoryCatalogStore) BlobKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	var keys []string
	for _, record := range store.records {
		if record.BlobKey != "" {
			keys = append(keys, record.BlobKey)
		}
	}
	return keys, nil
}

// Len returns the number of records in the catalog.
func (store *MemoryCatalogStore) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.records), nil
}

// Close releases store resources. No-op for the in-memory store.
func (store *MemoryCatalogStore) Close() error {
	return nil
}
