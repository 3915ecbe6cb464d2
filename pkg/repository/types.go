package repository

import (
	"time"
)

// ============================================================================
// Identifiers
// ============================================================================

// FolderID uniquely identifies a folder node in the hierarchy.
//
// User-created folders mint random UUIDs; seeded system folders use fixed
// well-known ids so configuration and tests can reference them directly.
type FolderID string

// FileID uniquely identifies a file record in the catalog.
type FileID string

// CategoryLabel is the opaque label attached to a file record that determines
// which folder(s) surface it and which permission class governs it.
//
// Labels are not enumerable ahead of time: creating a folder mints a new
// label equal to the folder's name.
type CategoryLabel string

// ============================================================================
// Folder Hierarchy
// ============================================================================

// FolderNode is a node in the folder hierarchy a client navigates.
//
// Invariants (maintained by FolderTree):
//   - ID is globally unique
//   - ChildIDs reference only existing nodes, are ordered, and contain no
//     duplicates
//   - the hierarchy is a tree: no cycles, root nodes have ParentID == ""
type FolderNode struct {
	// ID is the unique identifier of this folder
	ID FolderID `json:"id"`

	// Name is the display name. Sibling names are NOT required to be unique.
	Name string `json:"name"`

	// ParentID is the parent folder id, or "" for a root folder
	ParentID FolderID `json:"parentId,omitempty"`

	// ChildIDs lists direct children in creation order
	ChildIDs []FolderID `json:"childIds,omitempty"`

	// Editable marks folders that belong to the user's own tree.
	// Uploads and folder creation are only allowed under editable folders.
	Editable bool `json:"editable"`

	// CreatedAt is the folder creation time
	CreatedAt time.Time `json:"createdAt"`
}

// FolderTreeNode is a FolderNode with its children resolved, used by tree
// listings so clients receive the full hierarchy in one response.
type FolderTreeNode struct {
	FolderNode
	Children []*FolderTreeNode `json:"children,omitempty"`
}

// ============================================================================
// File Records
// ============================================================================

// FileType classifies a file by its content kind, derived from the filename
// extension at upload time.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeDocx  FileType = "docx"
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"

	// FileTypeAIGenerated marks content produced by the AI pipeline rather
	// than uploaded by a user. Never assigned by extension classification.
	FileTypeAIGenerated FileType = "ai-generated"
)

// Origin records the provenance of a file record.
type Origin string

const (
	OriginUser        Origin = "user"
	OriginInstitution Origin = "institution"
	OriginAI          Origin = "ai"
)

// TimelineEvent is one entry in a file's append-only activity log.
//
// A record's timeline is ordered by timestamp and only ever grows; it is the
// sole form of history this system keeps.
type TimelineEvent struct {
	// Action is the human-readable action name (e.g. "Uploaded", "Renamed")
	Action string `json:"action"`

	// Timestamp is when the action happened
	Timestamp time.Time `json:"timestamp"`
}

// FileRecord is the metadata for a single file.
//
// The actual bytes live in an external blob store; the record only carries
// the blob key and the size. Records are never mutated in place except for
// renames, tag additions, and timeline appends.
type FileRecord struct {
	// ID uniquely identifies the record within the catalog
	ID FileID `json:"id"`

	// Name is the display name, usually the uploaded filename
	Name string `json:"name"`

	// Type classifies the file content
	Type FileType `json:"type"`

	// SizeBytes is the raw size; Size is the formatted human string
	SizeBytes int64  `json:"sizeBytes"`
	Size      string `json:"size"`

	// CreatedAt is the record creation time
	CreatedAt time.Time `json:"createdAt"`

	// Category determines which folder surfaces this record and which
	// permission class governs it
	Category CategoryLabel `json:"category"`

	// Origin records provenance (user upload, institutional seed, AI)
	Origin Origin `json:"origin"`

	// Tags are free-form labels matched by catalog search
	Tags []string `json:"tags,omitempty"`

	// Timeline is the append-only activity log, ordered by timestamp
	Timeline []TimelineEvent `json:"timeline"`

	// BlobKey locates the file bytes in the blob store; empty for seeded
	// records that have no backing content
	BlobKey string `json:"blobKey,omitempty"`
}

// Clone returns a deep copy of the record.
//
// Stores return clones so callers can never mutate catalog state through a
// shared pointer.
func (r *FileRecord) Clone() *FileRecord {
	clone := *r
	clone.Tags = append([]string(nil), r.Tags...)
	clone.Timeline = append([]TimelineEvent(nil), r.Timeline...)
	return &clone
}

// HasTag reports whether the record carries the given tag.
func (r *FileRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AppendEvent appends a timeline event, preserving timestamp order.
//
// Events arriving with a timestamp earlier than the last entry are clamped
// to the last entry's timestamp so the timeline stays ordered.
func (r *FileRecord) AppendEvent(action string, at time.Time) {
	if n := len(r.Timeline); n > 0 && at.Before(r.Timeline[n-1].Timestamp) {
		at = r.Timeline[n-1].Timestamp
	}
	r.Timeline = append(r.Timeline, TimelineEvent{Action: action, Timestamp: at})
}

// ============================================================================
// Permissions
// ============================================================================

// ActionSet is the set of actions a caller may perform on a file.
type ActionSet struct {
	Download bool `json:"download"`
	Rename   bool `json:"rename"`
	Move     bool `json:"move"`
	Share    bool `json:"share"`
	Delete   bool `json:"delete"`
}

// ShareTicket is the result of a successful share operation.
//
// The ticket is an opaque handle a notification or link-building layer can
// turn into a user-facing share; this core only mints and records it.
type ShareTicket struct {
	ID        string    `json:"id"`
	FileID    FileID    `json:"fileId"`
	CreatedAt time.Time `json:"createdAt"`
}
