package memory

import (
	"testing"

	"github.com/marmos91/shelfd/pkg/repository"
	catalogtesting "github.com/marmos91/shelfd/pkg/repository/testing"
)

// TestMemoryCatalogStore runs the complete CatalogStore test suite against
// the in-memory implementation.
func TestMemoryCatalogStore(t *testing.T) {
	suite := &catalogtesting.StoreTestSuite{
		NewStore: func(t *testing.T) repository.CatalogStore {
			return NewMemoryCatalogStore()
		},
	}

	suite.Run(t)
}
