package repository

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/shelfd/pkg/blob"
	"github.com/marmos91/shelfd/pkg/events"
	"github.com/marmos91/shelfd/pkg/metrics"
)

// ============================================================================
// Repository
// ============================================================================

// Repository owns one tenant's content repository: the folder hierarchy, the
// category registry, the permission policy, and the file catalog.
//
// It is the single mutual-exclusion boundary for the tenant. CreateFolder and
// Upload — the mutating operations — take the write lock and are linearized
// relative to each other; queries and permission checks take the read lock
// and may run concurrently with other reads.
//
// File bytes are delegated to the blob store; every mutation is published to
// the event sink so a notification layer can react outside this core.
type Repository struct {
	mu sync.RWMutex

	tree     *FolderTree
	registry *CategoryRegistry
	policy   *PermissionPolicy
	catalog  CatalogStore

	blobs   blob.Store
	sink    events.Sink
	metrics metrics.RepositoryMetrics
}

// Options configures optional repository collaborators.
type Options struct {
	// Blobs stores file bytes. May be nil for metadata-only deployments;
	// uploads then record no blob key and downloads fail.
	Blobs blob.Store

	// Sink receives an event for every mutation. Defaults to a no-op sink.
	Sink events.Sink

	// Metrics receives operation observations. Defaults to no-op.
	Metrics metrics.RepositoryMetrics
}

// New creates an empty repository backed by the given catalog store.
func New(catalog CatalogStore, opts Options) *Repository {
	if opts.Sink == nil {
		opts.Sink = events.NopSink{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopRepositoryMetrics()
	}

	return &Repository{
		tree:     NewFolderTree(),
		registry: NewCategoryRegistry(),
		policy:   NewPermissionPolicy(),
		catalog:  catalog,
		blobs:    opts.Blobs,
		sink:     opts.Sink,
		metrics:  opts.Metrics,
	}
}

// observe records an operation's duration and outcome.
func (repo *Repository) observe(operation string, start time.Time, err error) {
	repo.metrics.RecordOperation(operation, time.Since(start), err)
}

// ============================================================================
// Folder Operations
// ============================================================================

// CreateFolder creates a new folder under parentID.
//
// The folder's name becomes its category label, registered with the parent's
// policy class: a folder created inside the user's own tree is user-owned.
//
// Fails with ErrPermissionDenied if the parent is outside the user's editable
// tree; institutional folders never grow user-created children.
func (repo *Repository) CreateFolder(ctx context.Context, parentID FolderID, name string) (id FolderID, err error) {
	start := time.Now()
	defer func() { repo.observe("CreateFolder", start, err) }()

	if err = ctx.Err(); err != nil {
		return "", err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	parent, err := repo.tree.Get(parentID)
	if err != nil {
		return "", err
	}
	if !parent.Editable {
		return "", NewPermissionDeniedError("folder creation not permitted here", string(parentID))
	}

	now := time.Now()
	id, err = repo.tree.CreateFolder(parentID, name, now)
	if err != nil {
		return "", err
	}

	// The new folder mints a category label equal to its name
	label := CategoryLabel(name)
	repo.registry.RegisterFolder(id, label)
	repo.policy.Classify(label, repo.classForNewFolder(parentID))
	repo.metrics.SetFolderCount(int64(repo.tree.Len()))

	repo.sink.Publish(events.Event{
		Type:      events.TypeFolderCreated,
		FolderID:  string(id),
		Name:      name,
		Timestamp: now,
	})

	return id, nil
}

// classForNewFolder resolves the policy class a new folder's category
// inherits from its parent.
func (repo *Repository) classForNewFolder(parentID FolderID) CategoryClass {
	parentLabel, err := repo.registry.PrimaryCategory(parentID)
	if err != nil {
		return ClassUserOwned
	}
	if class, ok := repo.policy.ClassOf(parentLabel); ok {
		return class
	}
	return ClassUserOwned
}

// ListFolderTree returns the whole folder hierarchy, roots first.
func (repo *Repository) ListFolderTree(ctx context.Context) ([]*FolderTreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()
	return repo.tree.Tree(), nil
}

// ListChildren returns the direct children of a folder in creation order.
func (repo *Repository) ListChildren(ctx context.Context, folderID FolderID) ([]*FolderNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()
	return repo.tree.ListChildren(folderID)
}

// ============================================================================
// File Operations
// ============================================================================

// ListFiles returns the files surfaced by a folder, newest first, optionally
// filtered by a case-insensitive search over name, category, and tags.
func (repo *Repository) ListFiles(ctx context.Context, folderID FolderID, search string) (records []*FileRecord, err error) {
	start := time.Now()
	defer func() { repo.observe("ListFiles", start, err) }()

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if _, err = repo.tree.Get(folderID); err != nil {
		return nil, err
	}
	categories, err := repo.registry.CategoriesOf(folderID)
	if err != nil {
		return nil, err
	}

	return repo.catalog.Query(ctx, categories, search)
}

// Upload ingests a new user upload into the target folder.
//
// The filename is classified into a file type by extension, the size is
// formatted for display, and the record lands at the head of the catalog
// under the folder's primary category with a single "Uploaded" timeline
// event. If content is non-nil the bytes are written to the blob store and
// the record carries the resulting blob key.
//
// Fails with ErrNotFound if the folder doesn't exist or has no category, and
// with ErrPermissionDenied if the folder is outside the user's editable tree.
func (repo *Repository) Upload(ctx context.Context, folderID FolderID, filename string, sizeBytes int64, content io.Reader) (record *FileRecord, err error) {
	start := time.Now()
	defer func() { repo.observe("Upload", start, err) }()

	if filename == "" {
		return nil, NewInvalidArgumentError("filename must not be empty", "")
	}
	if sizeBytes < 0 {
		return nil, NewInvalidArgumentError("size must not be negative", filename)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	folder, err := repo.tree.Get(folderID)
	if err != nil {
		return nil, err
	}
	if !folder.Editable {
		return nil, NewPermissionDeniedError("folder is not upload-eligible", string(folderID))
	}

	category, err := repo.registry.PrimaryCategory(folderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record = &FileRecord{
		ID:        FileID(uuid.NewString()),
		Name:      filename,
		Type:      ClassifyFilename(filename),
		SizeBytes: sizeBytes,
		Size:      FormatSize(sizeBytes),
		CreatedAt: now,
		Category:  category,
		Origin:    OriginUser,
		Tags:      []string{"Uploaded"},
		Timeline:  []TimelineEvent{{Action: "Uploaded", Timestamp: now}},
	}

	if content != nil && repo.blobs != nil {
		key := uuid.NewString()
		if err = repo.blobs.Write(ctx, key, content); err != nil {
			return nil, fmt.Errorf("failed to store upload content: %w", err)
		}
		record.BlobKey = key
	}

	if err = repo.catalog.Put(ctx, record); err != nil {
		// Roll back the orphaned blob; metadata is the source of truth
		if record.BlobKey != "" && repo.blobs != nil {
			_ = repo.blobs.Remove(ctx, record.BlobKey)
		}
		return nil, err
	}

	repo.updateCatalogSize(ctx)
	repo.sink.Publish(events.Event{
		Type:      events.TypeFileUploaded,
		FileID:    string(record.ID),
		FolderID:  string(folderID),
		Name:      record.Name,
		Timestamp: now,
	})

	return record, nil
}

// Permissions returns the action set permitted for the file's category.
func (repo *Repository) Permissions(ctx context.Context, fileID FileID) (ActionSet, error) {
	if err := ctx.Err(); err != nil {
		return ActionSet{}, err
	}

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	record, err := repo.catalog.Get(ctx, fileID)
	if err != nil {
		return ActionSet{}, err
	}
	return repo.policy.Permissions(record.Category), nil
}

// OpenFile returns a reader over the file's bytes from the blob store.
//
// Download is permitted by every policy class, but the check runs anyway so
// a future class cannot silently bypass it.
func (repo *Repository) OpenFile(ctx context.Context, fileID FileID) (io.ReadCloser, *FileRecord, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	record, err := repo.catalog.Get(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if !repo.policy.Allows(record.Category, ActionDownload) {
		repo.metrics.RecordPermissionDenial(string(ActionDownload))
		return nil, nil, NewPermissionDeniedError("download not permitted for category", string(record.Category))
	}
	if record.BlobKey == "" || repo.blobs == nil {
		return nil, nil, NewNotFoundError("file has no stored content", string(fileID))
	}

	reader, err := repo.blobs.Read(ctx, record.BlobKey)
	if err != nil {
		return nil, nil, err
	}
	return reader, record, nil
}

// DeleteFile removes a file record and its blob.
//
// Fails with ErrPermissionDenied — leaving the catalog unchanged — if the
// file's category forbids deletion.
func (repo *Repository) DeleteFile(ctx context.Context, fileID FileID) (err error) {
	start := time.Now()
	defer func() { repo.observe("DeleteFile", start, err) }()

	repo.mu.Lock()
	defer repo.mu.Unlock()

	record, err := repo.catalog.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if !repo.policy.Allows(record.Category, ActionDelete) {
		repo.metrics.RecordPermissionDenial(string(ActionDelete))
		return NewPermissionDeniedError("delete not permitted for category", string(record.Category))
	}

	if err = repo.catalog.Delete(ctx, fileID); err != nil {
		return err
	}
	if record.BlobKey != "" && repo.blobs != nil {
		// Blob removal is idempotent; a failure here leaves an orphan for a
		// later sweep rather than failing the delete
		_ = repo.blobs.Remove(ctx, record.BlobKey)
	}

	repo.updateCatalogSize(ctx)
	repo.sink.Publish(events.Event{
		Type:      events.TypeFileDeleted,
		FileID:    string(fileID),
		Name:      record.Name,
		Timestamp: time.Now(),
	})

	return nil
}

// RenameFile changes a file's display name and appends a "Renamed" timeline
// event. Gated by the rename permission.
func (repo *Repository) RenameFile(ctx context.Context, fileID FileID, newName string) (err error) {
	start := time.Now()
	defer func() { repo.observe("RenameFile", start, err) }()

	if newName == "" {
		return NewInvalidArgumentError("file name must not be empty", "")
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	record, err := repo.catalog.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if !repo.policy.Allows(record.Category, ActionRename) {
		repo.metrics.RecordPermissionDenial(string(ActionRename))
		return NewPermissionDeniedError("rename not permitted for category", string(record.Category))
	}

	now := time.Now()
	record.Name = newName
	record.AppendEvent("Renamed", now)
	if err = repo.catalog.Put(ctx, record); err != nil {
		return err
	}

	repo.sink.Publish(events.Event{
		Type:      events.TypeFileRenamed,
		FileID:    string(fileID),
		Name:      newName,
		Timestamp: now,
	})

	return nil
}

// MoveFile moves a file to another folder by retargeting its category to the
// destination folder's primary category. Gated by the move permission.
func (repo *Repository) MoveFile(ctx context.Context, fileID FileID, targetFolderID FolderID) (err error) {
	start := time.Now()
	defer func() { repo.observe("MoveFile", start, err) }()

	repo.mu.Lock()
	defer repo.mu.Unlock()

	record, err := repo.catalog.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if !repo.policy.Allows(record.Category, ActionMove) {
		repo.metrics.RecordPermissionDenial(string(ActionMove))
		return NewPermissionDeniedError("move not permitted for category", string(record.Category))
	}

	folder, err := repo.tree.Get(targetFolderID)
	if err != nil {
		return err
	}
	if !folder.Editable {
		return NewPermissionDeniedError("destination folder is not editable", string(targetFolderID))
	}
	category, err := repo.registry.PrimaryCategory(targetFolderID)
	if err != nil {
		return err
	}

	now := time.Now()
	record.Category = category
	record.AppendEvent("Moved", now)
	if err = repo.catalog.Put(ctx, record); err != nil {
		return err
	}

	repo.sink.Publish(events.Event{
		Type:      events.TypeFileMoved,
		FileID:    string(fileID),
		FolderID:  string(targetFolderID),
		Name:      record.Name,
		Timestamp: now,
	})

	return nil
}

// ShareFile mints a share ticket for a file and appends a "Shared" timeline
// event. Gated by the share permission.
func (repo *Repository) ShareFile(ctx context.Context, fileID FileID) (ticket *ShareTicket, err error) {
	start := time.Now()
	defer func() { repo.observe("ShareFile", start, err) }()

	repo.mu.Lock()
	defer repo.mu.Unlock()

	record, err := repo.catalog.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !repo.policy.Allows(record.Category, ActionShare) {
		repo.metrics.RecordPermissionDenial(string(ActionShare))
		return nil, NewPermissionDeniedError("share not permitted for category", string(record.Category))
	}

	now := time.Now()
	record.AppendEvent("Shared", now)
	if err = repo.catalog.Put(ctx, record); err != nil {
		return nil, err
	}

	ticket = &ShareTicket{
		ID:        uuid.NewString(),
		FileID:    fileID,
		CreatedAt: now,
	}

	repo.sink.Publish(events.Event{
		Type:      events.TypeFileShared,
		FileID:    string(fileID),
		Name:      record.Name,
		Timestamp: now,
	})

	return ticket, nil
}

// updateCatalogSize refreshes the catalog size gauge; failures only cost the
// gauge accuracy.
func (repo *Repository) updateCatalogSize(ctx context.Context) {
	if count, err := repo.catalog.Len(ctx); err == nil {
		repo.metrics.SetCatalogSize(int64(count))
	}
}
