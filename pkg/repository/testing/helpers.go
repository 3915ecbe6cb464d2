package testing

import (
	"fmt"
	"time"

	"github.com/marmos91/shelfd/pkg/repository"
)

// NewRecord creates a file record with sensible defaults for testing.
//
// The created-at timestamp advances with each call so timelines built from
// several records stay ordered.
func NewRecord(id string, category repository.CategoryLabel) *repository.FileRecord {
	now := time.Now()
	return &repository.FileRecord{
		ID:        repository.FileID(id),
		Name:      fmt.Sprintf("%s.pdf", id),
		Type:      repository.FileTypePDF,
		SizeBytes: 2048,
		Size:      repository.FormatSize(2048),
		CreatedAt: now,
		Category:  category,
		Origin:    repository.OriginUser,
		Tags:      []string{"Uploaded"},
		Timeline:  []repository.TimelineEvent{{Action: "Uploaded", Timestamp: now}},
	}
}

// RecordIDs extracts the ids of a query result in order.
func RecordIDs(records []*repository.FileRecord) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, string(record.ID))
	}
	return ids
}
