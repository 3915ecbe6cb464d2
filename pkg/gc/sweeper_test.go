package gc

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmemory "github.com/marmos91/shelfd/pkg/blob/memory"
	"github.com/marmos91/shelfd/pkg/repository"
	"github.com/marmos91/shelfd/pkg/repository/memory"
	storetesting "github.com/marmos91/shelfd/pkg/repository/testing"
)

func newSweepFixture(t *testing.T) (*memory.MemoryCatalogStore, *blobmemory.MemoryBlobStore) {
	t.Helper()
	return memory.NewMemoryCatalogStore(), blobmemory.NewMemoryBlobStore()
}

func putBlob(t *testing.T, blobs *blobmemory.MemoryBlobStore, key string) {
	t.Helper()
	require.NoError(t, blobs.Write(context.Background(), key, strings.NewReader("content")))
}

func putRecord(t *testing.T, catalog repository.CatalogStore, id, blobKey string) {
	t.Helper()
	record := storetesting.NewRecord(id, "Notes")
	record.BlobKey = blobKey
	require.NoError(t, catalog.Put(context.Background(), record))
}

func TestSweeper_RemovesOrphans(t *testing.T) {
	catalog, blobs := newSweepFixture(t)
	ctx := context.Background()

	putRecord(t, catalog, "kept", "blob-kept")
	putBlob(t, blobs, "blob-kept")
	putBlob(t, blobs, "blob-orphan-1")
	putBlob(t, blobs, "blob-orphan-2")

	sweeper, err := NewSweeper(catalog, blobs, Config{Enabled: true})
	require.NoError(t, err)

	// First sighting only defers the candidates
	stats, err := sweeper.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ReferencedCount)
	assert.Equal(t, 3, stats.ExistingCount)
	assert.Equal(t, 2, stats.OrphanedCount)
	assert.Equal(t, 2, stats.DeferredCount)
	assert.Equal(t, 0, stats.RemovedCount)
	assert.Equal(t, 3, blobs.Len())

	// The second sighting confirms and removes them
	stats, err = sweeper.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.OrphanedCount)
	assert.Equal(t, 0, stats.DeferredCount)
	assert.Equal(t, 2, stats.RemovedCount)
	assert.Equal(t, 0, stats.FailedCount)

	// The referenced blob survives
	assert.Equal(t, 1, blobs.Len())
	reader, err := blobs.Read(ctx, "blob-kept")
	require.NoError(t, err)
	reader.Close()
}

func TestSweeper_NothingToDo(t *testing.T) {
	catalog, blobs := newSweepFixture(t)

	putRecord(t, catalog, "a", "blob-a")
	putBlob(t, blobs, "blob-a")

	sweeper, err := NewSweeper(catalog, blobs, Config{Enabled: true})
	require.NoError(t, err)

	stats, err := sweeper.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.OrphanedCount)
	assert.Equal(t, 1, blobs.Len())
}

func TestSweeper_DryRun(t *testing.T) {
	catalog, blobs := newSweepFixture(t)

	putBlob(t, blobs, "blob-orphan")

	sweeper, err := NewSweeper(catalog, blobs, Config{Enabled: true, DryRun: true})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		stats, err := sweeper.RunNow(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.OrphanedCount)
		assert.Equal(t, 0, stats.RemovedCount)
	}
	assert.Equal(t, 1, blobs.Len())
}

func TestSweeper_MetadataOnlyRecordsIgnored(t *testing.T) {
	catalog, blobs := newSweepFixture(t)

	// A record with no stored content must not pin any blob
	putRecord(t, catalog, "metadata-only", "")
	putBlob(t, blobs, "blob-orphan")

	sweeper, err := NewSweeper(catalog, blobs, Config{Enabled: true})
	require.NoError(t, err)

	_, err = sweeper.RunNow(context.Background())
	require.NoError(t, err)
	stats, err := sweeper.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ReferencedCount)
	assert.Equal(t, 1, stats.RemovedCount)
}

// TestSweeper_KeepsBlobCommittedBetweenSweeps covers the upload race: a
// blob written before a sweep's catalog snapshot whose record commits
// afterwards must survive the following sweep.
func TestSweeper_KeepsBlobCommittedBetweenSweeps(t *testing.T) {
	catalog, blobs := newSweepFixture(t)
	ctx := context.Background()

	// Blob written, record not yet committed: looks orphaned
	putBlob(t, blobs, "blob-inflight")

	sweeper, err := NewSweeper(catalog, blobs, Config{Enabled: true})
	require.NoError(t, err)

	stats, err := sweeper.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DeferredCount)
	assert.Equal(t, 0, stats.RemovedCount)

	// The upload commits before the next sweep
	putRecord(t, catalog, "inflight", "blob-inflight")

	stats, err = sweeper.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.OrphanedCount)
	assert.Equal(t, 0, stats.RemovedCount)
	assert.Equal(t, 1, blobs.Len())

	// And the candidate was forgotten, so a later delete of the record
	// restarts the two-sweep clock rather than removing immediately
	require.NoError(t, catalog.Delete(ctx, "inflight"))
	stats, err = sweeper.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DeferredCount)
	assert.Equal(t, 0, stats.RemovedCount)
}

func TestSweeper_StartStop(t *testing.T) {
	catalog, blobs := newSweepFixture(t)

	sweeper, err := NewSweeper(catalog, blobs, Config{Enabled: true, Interval: time.Hour})
	require.NoError(t, err)

	sweeper.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sweeper.Stop(ctx))
}

func TestNewSweeper_RequiresEnumeration(t *testing.T) {
	catalog, _ := newSweepFixture(t)

	_, err := NewSweeper(catalog, nonSweepable{}, Config{Enabled: true})
	assert.Error(t, err)
}

type nonSweepable struct{}

func (nonSweepable) Write(context.Context, string, io.Reader) error      { return nil }
func (nonSweepable) Read(context.Context, string) (io.ReadCloser, error) { return nil, nil }
func (nonSweepable) Remove(context.Context, string) error                { return nil }
