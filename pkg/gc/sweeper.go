// Package gc sweeps orphaned blobs out of the blob store.
//
// A blob is orphaned when no catalog record references its key. Orphans
// accumulate when a delete removes the record but the blob removal fails, or
// when the server crashes between writing content and committing the record.
// The sweeper periodically diffs the blob store against the catalog and
// removes the difference.
package gc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/shelfd/internal/logger"
	"github.com/marmos91/shelfd/pkg/blob"
	"github.com/marmos91/shelfd/pkg/repository"
)

// Sweeper performs periodic orphaned-blob collection.
//
// An orphan candidate is only removed once it has been observed across two
// consecutive sweeps. An upload writes its blob before committing the
// record, so a single snapshot can misclassify an in-flight upload's blob
// as orphaned; the second sighting proves no record claimed it in between.
//
// Thread Safety: Safe for concurrent use.
type Sweeper struct {
	catalog repository.CatalogStore
	blobs   blob.SweepableStore
	config  Config
	stopCh  chan struct{}
	doneCh  chan struct{}

	// mu guards pending across RunNow and the background worker
	mu sync.Mutex

	// pending maps orphan candidates to when they were first observed
	pending map[string]time.Time
}

// Config contains configuration for the sweeper.
type Config struct {
	// Enabled controls whether sweeping is active
	Enabled bool

	// Interval is how often to sweep (default: 24h)
	Interval time.Duration

	// DryRun logs what would be removed without removing it
	DryRun bool
}

// NewSweeper creates a sweeper over the given catalog and blob store.
//
// The blob store must support key enumeration; pass a store implementing
// blob.SweepableStore or construction fails.
func NewSweeper(catalog repository.CatalogStore, blobs blob.Store, config Config) (*Sweeper, error) {
	sweepable, ok := blobs.(blob.SweepableStore)
	if !ok {
		return nil, fmt.Errorf("blob store does not support key enumeration")
	}

	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}

	return &Sweeper{
		catalog: catalog,
		blobs:   sweepable,
		config:  config,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		pending: make(map[string]time.Time),
	}, nil
}

// Start begins background sweeping. No-op when disabled.
func (s *Sweeper) Start() {
	if !s.config.Enabled {
		logger.Info("Blob sweeping disabled")
		return
	}

	logger.Info("Starting blob sweeper: interval=%s dry_run=%v", s.config.Interval, s.config.DryRun)
	go s.worker()
}

// Stop stops the sweeper and waits for any in-progress sweep, bounded by ctx.
func (s *Sweeper) Stop(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	close(s.stopCh)

	select {
	case <-s.doneCh:
		logger.Info("Blob sweeper stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Blob sweeper shutdown timeout")
		return ctx.Err()
	}
}

// RunNow triggers an immediate sweep and blocks until it completes.
func (s *Sweeper) RunNow(ctx context.Context) (*Stats, error) {
	return s.sweep(ctx)
}

// worker runs periodic sweeps until stopped.
func (s *Sweeper) worker() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			stats, err := s.sweep(ctx)
			cancel()

			if err != nil {
				logger.Error("Blob sweep failed: %v", err)
			} else {
				logger.Info("Blob sweep completed: %s", stats.Summary())
			}

		case <-s.stopCh:
			return
		}
	}
}

// sweep performs a single collection run:
//  1. Collect blob keys referenced by catalog records
//  2. Enumerate keys in the blob store
//  3. Remove every stored key no record referenced in this run or the last
func (s *Sweeper) sweep(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	referenced, err := s.catalog.BlobKeys(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to collect referenced blob keys: %w", err)
	}
	stats.ReferencedCount = len(referenced)

	referencedSet := make(map[string]struct{}, len(referenced))
	for _, key := range referenced {
		referencedSet[key] = struct{}{}
	}

	existing, err := s.blobs.Keys(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to enumerate blobs: %w", err)
	}
	stats.ExistingCount = len(existing)

	var candidates []string
	for _, key := range existing {
		if _, ok := referencedSet[key]; !ok {
			candidates = append(candidates, key)
		}
	}
	stats.OrphanedCount = len(candidates)

	// Candidates first observed this run are deferred to the next sweep so
	// an upload committing between the two snapshots keeps its blob
	orphaned := s.confirmCandidates(candidates, &stats.DeferredCount)

	if len(orphaned) == 0 {
		stats.EndTime = time.Now()
		return stats, nil
	}

	if s.config.DryRun {
		logger.Info("Sweep dry run: would remove %d orphaned blobs", len(orphaned))
		stats.EndTime = time.Now()
		return stats, nil
	}

	for _, key := range orphaned {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}
		if err := s.blobs.Remove(ctx, key); err != nil {
			logger.Debug("Failed to remove orphaned blob %s: %v", key, err)
			stats.FailedCount++
			continue
		}
		s.forget(key)
		stats.RemovedCount++
	}

	stats.EndTime = time.Now()
	logger.Info("Removed %d orphaned blobs (%d failed)", stats.RemovedCount, stats.FailedCount)
	return stats, nil
}

// confirmCandidates splits the orphan candidates: keys already pending from
// an earlier sweep are confirmed for removal, new ones are recorded and
// deferred. Pending keys not in candidates gained a reference and are
// forgotten.
func (s *Sweeper) confirmCandidates(candidates []string, deferred *int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidateSet := make(map[string]struct{}, len(candidates))
	now := time.Now()

	var confirmed []string
	for _, key := range candidates {
		candidateSet[key] = struct{}{}
		if _, seen := s.pending[key]; seen {
			confirmed = append(confirmed, key)
		} else {
			s.pending[key] = now
			*deferred++
		}
	}

	for key := range s.pending {
		if _, ok := candidateSet[key]; !ok {
			delete(s.pending, key)
		}
	}

	return confirmed
}

func (s *Sweeper) forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}

// Stats contains statistics from a sweep run.
type Stats struct {
	StartTime       time.Time
	EndTime         time.Time
	ReferencedCount int
	ExistingCount   int
	OrphanedCount   int
	DeferredCount   int
	RemovedCount    int
	FailedCount     int
}

// Duration returns the total sweep duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a one-line description of the sweep.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deferred=%d removed=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount, s.DeferredCount,
		s.RemovedCount, s.FailedCount, s.Duration())
}
