package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/shelfd/pkg/repository"
	catalogtesting "github.com/marmos91/shelfd/pkg/repository/testing"
)

func newTestStore(t *testing.T) *BadgerCatalogStore {
	t.Helper()
	store, err := NewBadgerCatalogStore(context.Background(), Options{InMemory: true})
	require.NoError(t, err)
	return store
}

// TestBadgerCatalogStore runs the complete CatalogStore test suite against
// the Badger implementation.
func TestBadgerCatalogStore(t *testing.T) {
	suite := &catalogtesting.StoreTestSuite{
		NewStore: func(t *testing.T) repository.CatalogStore {
			return newTestStore(t)
		},
	}

	suite.Run(t)
}

// TestBadgerCatalogStore_SequenceRecovery verifies the catalog order
// survives a close/reopen cycle.
func TestBadgerCatalogStore_SequenceRecovery(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBadgerCatalogStore(ctx, Options{Path: dir})
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, catalogtesting.NewRecord("first", "Notes")))
	require.NoError(t, store.Put(ctx, catalogtesting.NewRecord("second", "Notes")))
	require.NoError(t, store.Close())

	// Reopen and insert another record; it must land at the head
	store, err = NewBadgerCatalogStore(ctx, Options{Path: dir})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(ctx, catalogtesting.NewRecord("third", "Notes")))

	results, err := store.Query(ctx, []repository.CategoryLabel{"Notes"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, catalogtesting.RecordIDs(results))
}
