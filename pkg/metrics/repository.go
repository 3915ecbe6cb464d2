package metrics

import (
	"time"
)

// RepositoryMetrics provides observability for repository operations.
//
// Implementations collect metrics about folder creation, uploads, queries,
// and policy-gated file actions. The interface is optional - the noop
// implementation is returned when metrics are disabled, so callers never
// nil-check.
type RepositoryMetrics interface {
	// RecordOperation records a completed repository operation with its
	// name, duration, and outcome.
	//
	// Parameters:
	//   - operation: Operation name (e.g., "CreateFolder", "Upload", "ListFiles")
	//   - duration: Time taken to complete the operation
	//   - err: Error if the operation failed, nil if successful
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordPermissionDenial records an action rejected by the permission
	// policy for a category class.
	RecordPermissionDenial(action string)

	// SetCatalogSize updates the current number of records in the catalog.
	SetCatalogSize(count int64)

	// SetFolderCount updates the current number of folders in the tree.
	SetFolderCount(count int64)
}

// HTTPMetrics provides observability for the HTTP API server.
type HTTPMetrics interface {
	// RecordRequest records a completed HTTP request.
	//
	// Parameters:
	//   - route: Route pattern (e.g., "/v1/folders"), not the raw URL
	//   - method: HTTP method
	//   - status: Response status code
	//   - duration: Time taken to serve the request
	RecordRequest(route, method string, status int, duration time.Duration)

	// IncInFlight / DecInFlight track currently executing requests.
	IncInFlight()
	DecInFlight()

	// SetEventSubscribers updates the count of connected SSE subscribers.
	SetEventSubscribers(count int64)
}
