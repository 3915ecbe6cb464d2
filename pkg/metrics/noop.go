package metrics

import "time"

// noopRepositoryMetrics is a zero-overhead RepositoryMetrics implementation
// used when metrics collection is disabled.
type noopRepositoryMetrics struct{}

// NewNoopRepositoryMetrics returns a RepositoryMetrics that discards
// everything.
func NewNoopRepositoryMetrics() RepositoryMetrics {
	return noopRepositoryMetrics{}
}

func (noopRepositoryMetrics) RecordOperation(string, time.Duration, error) {}
func (noopRepositoryMetrics) RecordPermissionDenial(string)                {}
func (noopRepositoryMetrics) SetCatalogSize(int64)                         {}
func (noopRepositoryMetrics) SetFolderCount(int64)                         {}

// noopHTTPMetrics is a zero-overhead HTTPMetrics implementation.
type noopHTTPMetrics struct{}

// NewNoopHTTPMetrics returns an HTTPMetrics that discards everything.
func NewNoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

func (noopHTTPMetrics) RecordRequest(string, string, int, time.Duration) {}
func (noopHTTPMetrics) IncInFlight()                                     {}
func (noopHTTPMetrics) DecInFlight()                                     {}
func (noopHTTPMetrics) SetEventSubscribers(int64)                        {}
