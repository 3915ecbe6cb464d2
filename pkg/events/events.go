package events

import (
	"time"
)

// Event types published by the repository on mutating operations.
const (
	TypeFolderCreated = "folder_created"
	TypeFileUploaded  = "file_uploaded"
	TypeFileDeleted   = "file_deleted"
	TypeFileRenamed   = "file_renamed"
	TypeFileMoved     = "file_moved"
	TypeFileShared    = "file_shared"
)

// Event describes one repository mutation.
//
// Events feed the notification feature: the repository publishes on every
// create/upload/delete/rename/move/share, and subscribers (SSE clients, a
// future notification dispatcher) consume them outside the core's lock.
type Event struct {
	// Type is one of the Type* constants
	Type string `json:"type"`

	// FileID is set for file events, empty for folder events
	FileID string `json:"fileId,omitempty"`

	// FolderID is the folder involved (created folder, upload target)
	FolderID string `json:"folderId,omitempty"`

	// Name is the display name of the file or folder involved
	Name string `json:"name,omitempty"`

	// Timestamp is when the mutation happened
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives repository events.
//
// Publish must not block: the repository calls it while holding its write
// lock. Implementations buffer or drop rather than stall mutations.
type Sink interface {
	Publish(event Event)
}

// NopSink discards all events. Used when no notification layer is wired.
type NopSink struct{}

// Publish implements Sink.
func (NopSink) Publish(Event) {}
