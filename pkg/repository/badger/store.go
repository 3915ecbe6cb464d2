package badger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/shelfd/internal/logger"
	"github.com/marmos91/shelfd/pkg/repository"
)

// BadgerCatalogStore implements repository.CatalogStore using BadgerDB for
// persistence.
//
// Suitable for deployments where the catalog must survive restarts. Records
// are stored as JSON under prefixed keys (see keys.go for the schema), with
// a descending-sequence order index providing newest-first iteration.
//
// Thread Safety:
// Badger transactions provide isolation; a store-level mutex additionally
// serializes mutations so sequence assignment never races.
type BadgerCatalogStore struct {
	// mu serializes mutations; reads go straight to Badger transactions
	mu sync.Mutex

	// db is the BadgerDB database handle
	db *badger.DB

	// nextSeq is the next descending catalog sequence to assign
	nextSeq uint64
}

// Options configures the Badger catalog store.
type Options struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string

	// InMemory runs Badger without disk persistence. Used by tests.
	InMemory bool
}

// NewBadgerCatalogStore opens (or creates) a Badger-backed catalog at the
// configured path and recovers the catalog sequence from the order index.
func NewBadgerCatalogStore(ctx context.Context, opts Options) (*BadgerCatalogStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Path == "" && !opts.InMemory {
		return nil, fmt.Errorf("badger catalog store: path is required")
	}

	badgerOpts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	store := &BadgerCatalogStore{db: db, nextSeq: math.MaxUint64}
	if err := store.recoverSequence(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("Badger catalog store opened at %q", opts.Path)
	return store, nil
}

// recoverSequence finds the lowest assigned sequence (the newest record) and
// resumes counting below it.
func (store *BadgerCatalogStore) recoverSequence() error {
	return store.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(orderPrefix)})
		defer it.Close()

		// First key under "o:" has the lowest sequence
		it.Rewind()
		if !it.Valid() {
			return nil
		}

		key := string(it.Item().Key())
		var seq uint64
		if _, err := fmt.Sscanf(strings.TrimPrefix(key, orderPrefix), "%016x", &seq); err != nil {
			return fmt.Errorf("failed to recover catalog sequence from key %q: %w", key, err)
		}
		store.nextSeq = seq - 1
		return nil
	})
}

// Put inserts a new record at the head of the catalog or replaces an
// existing one, keeping its position.
func (store *BadgerCatalogStore) Put(ctx context.Context, record *repository.FileRecord) error {
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

	return store.db.Update(func(txn *badger.Txn) error {
		envelope := &recordEnvelope{Record: record}

		existing, err := txn.Get(recordKey(record.ID))
		switch {
		case err == nil:
			// Update in place: reuse the existing sequence
			if err := existing.Value(func(val []byte) error {
				prev, err := unmarshalEnvelope(val)
				if err != nil {
					return err
				}
				envelope.Seq = prev.Seq
				return nil
			}); err != nil {
				return err
			}
		case errors.Is(err, badger.ErrKeyNotFound):
			// New record: assign the next descending sequence
			envelope.Seq = store.nextSeq
			store.nextSeq--
			if err := txn.Set(orderKey(envelope.Seq, record.ID), []byte(record.ID)); err != nil {
				return fmt.Errorf("failed to write order index: %w", err)
			}
		default:
			return fmt.Errorf("failed to read record %s: %w", record.ID, err)
		}

		data, err := marshalEnvelope(envelope)
		if err != nil {
			return err
		}
		return txn.Set(recordKey(record.ID), data)
	})
}

// Get returns a copy of the record with the given id.
func (store *BadgerCatalogStore) Get(ctx context.Context, id repository.FileID) (*repository.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record *repository.FileRecord
	err := store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return &repository.RepositoryError{
					Code:    repository.ErrNotFound,
					Message: "file not found",
					Subject: string(id),
				}
			}
			return fmt.Errorf("failed to read record %s: %w", id, err)
		}
		return item.Value(func(val []byte) error {
			envelope, err := unmarshalEnvelope(val)
			if err != nil {
				return err
			}
			record = envelope.Record
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes the record with the given id along with its order index
// entry.
func (store *BadgerCatalogStore) Delete(ctx context.Context, id repository.FileID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	return store.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return &repository.RepositoryError{
					Code:    repository.ErrNotFound,
					Message: "file not found",
					Subject: string(id),
				}
			}
			return fmt.Errorf("failed to read record %s: %w", id, err)
		}

		var seq uint64
		if err := item.Value(func(val []byte) error {
			envelope, err := unmarshalEnvelope(val)
			if err != nil {
				return err
			}
			seq = envelope.Seq
			return nil
		}); err != nil {
			return err
		}

		if err := txn.Delete(orderKey(seq, id)); err != nil {
			return fmt.Errorf("failed to delete order index: %w", err)
		}
		return txn.Delete(recordKey(id))
	})
}

// Query returns copies of all records matching the category set and search
// text, newest first via the order index.
func (store *BadgerCatalogStore) Query(ctx context.Context, categories []repository.CategoryLabel, search string) ([]*repository.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[repository.CategoryLabel]struct{}, len(categories))
	for _, category := range categories {
		wanted[category] = struct{}{}
	}

	var results []*repository.FileRecord
	err := store.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(orderPrefix)})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var id repository.FileID
			if err := it.Item().Value(func(val []byte) error {
				id = repository.FileID(val)
				return nil
			}); err != nil {
				return err
			}

			item, err := txn.Get(recordKey(id))
			if err != nil {
				return fmt.Errorf("order index references missing record %s: %w", id, err)
			}
			if err := item.Value(func(val []byte) error {
				envelope, err := unmarshalEnvelope(val)
				if err != nil {
					return err
				}
				record := envelope.Record
				if _, ok := wanted[record.Category]; !ok {
					return nil
				}
				if !repository.MatchesSearch(record, search) {
					return nil
				}
				results = append(results, record)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// BlobKeys returns the blob keys referenced by catalog records by scanning
// the record prefix.
func (store *BadgerCatalogStore) BlobKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := store.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(recordPrefix)})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				envelope, err := unmarshalEnvelope(val)
				if err != nil {
					return err
				}
				if envelope.Record.BlobKey != "" {
					keys = append(keys, envelope.Record.BlobKey)
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Len returns the number of records in the catalog by scanning the order
// index (keys only, no values fetched).
func (store *BadgerCatalogStore) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := store.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix:         []byte(orderPrefix),
			PrefetchValues: false,
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Close closes the underlying Badger database.
func (store *BadgerCatalogStore) Close() error {
	return store.db.Close()
}
