package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/shelfd/pkg/repository"
)

func (suite *StoreTestSuite) RunPutTests(test *testing.T) {
	test.Run("Put_InsertsAtHead", suite.TestPut_InsertsAtHead)
	test.Run("Put_UpdateKeepsPosition", suite.TestPut_UpdateKeepsPosition)
	test.Run("Put_EmptyID", suite.TestPut_EmptyID)
	test.Run("Put_StoresCopy", suite.TestPut_StoresCopy)
}

func (suite *StoreTestSuite) RunGetTests(test *testing.T) {
	test.Run("Get_Success", suite.TestGet_Success)
	test.Run("Get_NotFound", suite.TestGet_NotFound)
}

func (suite *StoreTestSuite) RunDeleteTests(test *testing.T) {
	test.Run("Delete_Success", suite.TestDelete_Success)
	test.Run("Delete_NotFound", suite.TestDelete_NotFound)
}

func (suite *StoreTestSuite) RunQueryTests(test *testing.T) {
	test.Run("Query_FiltersByCategory", suite.TestQuery_FiltersByCategory)
	test.Run("Query_NewestFirst", suite.TestQuery_NewestFirst)
	test.Run("Query_Search", suite.TestQuery_Search)
	test.Run("Query_SearchCaseInsensitive", suite.TestQuery_SearchCaseInsensitive)
	test.Run("Query_Empty", suite.TestQuery_Empty)
	test.Run("Query_BlobKeys", suite.TestBlobKeys)
}

// TestPut_InsertsAtHead verifies new records land at the head of the catalog.
func (suite *StoreTestSuite) TestPut_InsertsAtHead(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()
	ctx := context.Background()

	require.NoError(test, store.Put(ctx, NewRecord("first", "Notes")))
	require.NoError(test, store.Put(ctx, NewRecord("second", "Notes")))
	require.NoError(test, store.Put(ctx, NewRecord("third", "Notes")))

	results, err := store.Query(ctx, []repository.CategoryLabel{"Notes"}, "")
	require.NoError(test, err)
	assert.Equal(test, []string{"third", "second", "first"}, RecordIDs(results))
}

// TestPut_UpdateKeepsPosition verifies updating a record never reorders the
// catalog.
func (suite *StoreTestSuite) TestPut_UpdateKeepsPosition(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()
	ctx := context.Background()

	require.NoError(test, store.Put(ctx, NewRecord("older", "Notes")))
	require.NoError(test, store.Put(ctx, NewRecord("newer", "Notes")))

	// Update the older record
	updated := NewRecord("older", "Notes")
	updated.Name = "renamed.pdf"
	require.NoError(test, store.Put(ctx, updated))

	results, err := store.Query(ctx, []repository.CategoryLabel{"Notes"}, "")
	require.NoError(test, err)
	assert.Equal(test, []string{"newer", "older"}, RecordIDs(results))
	assert.Equal(test, "renamed.pdf", results[1].Name)

	count, err := store.Len(ctx)
	require.NoError(test, err)
	assert.Equal(test, 2, count)
}

// TestPut_EmptyID verifies records without an id are rejected.
func (suite *StoreTestSuite) TestPut_EmptyID(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()

	record := NewRecord("", "Notes")
	err := store.Put(context.Background(), record)
	assert.True(test, repository.IsInvalidArgument(err))
}

// TestPut_StoresCopy verifies mutating a record after Put does not affect
// catalog state.
func (suite *StoreTestSuite) TestPut_StoresCopy(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()
	ctx := context.Background()

	record := NewRecord("copy", "Notes")
	require.NoError(test, store.Put(ctx, record))

	record.Name = "mutated.pdf"
	record.Tags[0] = "Mutated"

	stored, err := store.Get(ctx, "copy")
	require.NoError(test, err)
	assert.Equal(test, "copy.pdf", stored.Name)
	assert.Equal(test, []string{"Uploaded"}, stored.Tags)
}

// TestGet_Success verifies a stored record round-trips intact.
func (suite *StoreTestSuite) TestGet_Success(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()
	ctx := context.Background()

	record := NewRecord("get-me", "Assignments")
	record.Origin = repository.OriginInstitution
	record.BlobKey = "blob-123"
	require.NoError(test, store.Put(ctx, record))

	stored, err := store.Get(ctx, "get-me")
	require.NoError(test, err)
	assert.Equal(test, record.ID, stored.ID)
	assert.Equal(test, record.Name, stored.Name)
	assert.Equal(test, repository.OriginInstitution, stored.Origin)
	assert.Equal(test, "blob-123", stored.BlobKey)
	require.Len(test, stored.Timeline, 1)
	assert.Equal(test, "Uploaded", stored.Timeline[0].Action)
}

// TestGet_NotFound verifies missing ids return a not-found domain error.
func (suite *StoreTestSuite) TestGet_NotFound(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()

	_, err := store.Get(context.Background(), "missing")
	assert.True(test, repository.IsNotFound(err))
}

// TestDelete_Success verifies deletion removes the record and its ordering.
func (suite *StoreTestSuite) TestDelete_Success(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()
	ctx := context.Background()

	require.NoError(test, store.Put(ctx, NewRecord("keep", "Notes")))
	require.NoError(test, store.Put(ctx, NewRecord("remove", "Notes")))

	require.NoError(test, store.Delete(ctx, "remove"))

	_, err := store.Get(ctx, "remove")
	assert.True(test, repository.IsNotFound(err))

	results, err := store.Query(ctx, []repository.CategoryLabel{"Notes"}, "")
	require.NoError(test, err)
	assert.Equal(test, []string{"keep"}, RecordIDs(results))

	count, err := store.Len(ctx)
	require.NoError(test, err)
	assert.Equal(test, 1, count)
}

// TestDelete_NotFound verifies deleting a missing record fails cleanly.
func (suite *StoreTestSuite) TestDelete_NotFound(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()

	err := store.Delete(context.Background(), "missing")
	assert.True(test, repository.IsNotFound(err))
}

// TestQuery_FiltersByCategory verifies only requested categories surface.
func (suite *StoreTestSuite) TestQuery_FiltersByCategory(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()
	ctx := context.Background()

	require.NoError(test, store.Put(ctx, NewRecord("note", "Notes")))
	require.NoError(test, store.Put(ctx, NewRecord("assignment", "Assignments")))
	require.NoError(test, store.Put(ctx, NewRecord("paper", "Question Papers")))

	results, err := store.Query(ctx, []repository.CategoryLabel{"Assignments", "Question Papers"}, "")
	require.NoError(test, err)
	assert.ElementsMatch(test, []string{"assignment", "paper"}, RecordIDs(results))
}

// TestQuery_NewestFirst verifies ordering holds across categories.
func (suite *StoreTestSuite) TestQuery_NewestFirst(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(test, store.Put(ctx, NewRecord(id, "Notes")))
	}

	results, err := store.Query(ctx, []repository.CategoryLabel{"Notes"}, "")
	require.NoError(test, err)
	assert.Equal(test, []string{"d", "c", "b", "a"}, RecordIDs(results))
}

// TestQuery_Search verifies the search predicate covers name, category, and
// tags.
func (suite *StoreTestSuite) TestQuery_Search(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()
	ctx := context.Background()

	byName := NewRecord("by-name", "Notes")
	byName.Name = "Quantum Mechanics.pdf"
	require.NoError(test, store.Put(ctx, byName))

	byTag := NewRecord("by-tag", "Notes")
	byTag.Tags = []string{"quantum", "physics"}
	require.NoError(test, store.Put(ctx, byTag))

	other := NewRecord("other", "Notes")
	other.Name = "History Essay.docx"
	require.NoError(test, store.Put(ctx, other))

	results, err := store.Query(ctx, []repository.CategoryLabel{"Notes"}, "quantum")
	require.NoError(test, err)
	assert.ElementsMatch(test, []string{"by-name", "by-tag"}, RecordIDs(results))
}

// TestQuery_SearchCaseInsensitive verifies matching ignores case on both
// sides.
func (suite *StoreTestSuite) TestQuery_SearchCaseInsensitive(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()
	ctx := context.Background()

	record := NewRecord("mixed", "Notes")
	record.Name = "QUANTUM notes.pdf"
	require.NoError(test, store.Put(ctx, record))

	results, err := store.Query(ctx, []repository.CategoryLabel{"Notes"}, "QuAnTuM")
	require.NoError(test, err)
	assert.Equal(test, []string{"mixed"}, RecordIDs(results))
}

// TestBlobKeys verifies only records with stored content surface a key.
func (suite *StoreTestSuite) TestBlobKeys(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()
	ctx := context.Background()

	withBlob := NewRecord("with-blob", "Notes")
	withBlob.BlobKey = "blob-a"
	require.NoError(test, store.Put(ctx, withBlob))

	metadataOnly := NewRecord("metadata-only", "Notes")
	require.NoError(test, store.Put(ctx, metadataOnly))

	another := NewRecord("another", "Assignments")
	another.BlobKey = "blob-b"
	require.NoError(test, store.Put(ctx, another))

	keys, err := store.BlobKeys(ctx)
	require.NoError(test, err)
	assert.ElementsMatch(test, []string{"blob-a", "blob-b"}, keys)
}

// TestQuery_Empty verifies queries against an empty catalog succeed.
func (suite *StoreTestSuite) TestQuery_Empty(test *testing.T) {
	store := suite.NewStore(test)
	defer store.Close()

	results, err := store.Query(context.Background(), []repository.CategoryLabel{"Notes"}, "")
	require.NoError(test, err)
	assert.Empty(test, results)
}
