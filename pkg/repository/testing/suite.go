package testing

import (
	"testing"

	"github.com/marmos91/shelfd/pkg/repository"
)

// StoreTestSuite is a test suite for CatalogStore implementations. It tests
// the interface contract, not implementation details, making it reusable
// across backends (memory, badger).
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh CatalogStore for
	// each test. This ensures test isolation.
	NewStore func(t *testing.T) repository.CatalogStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("Put", suite.RunPutTests)
	test.Run("Get", suite.RunGetTests)
	test.Run("Delete", suite.RunDeleteTests)
	test.Run("Query", suite.RunQueryTests)
}
