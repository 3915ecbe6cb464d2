package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Folder Tree
// ============================================================================

// FolderTree owns the folder hierarchy: ids, names, and parent/child links.
//
// It is an owned collection with explicit mutation methods so the tree
// invariants (unique ids, valid child references, no cycles) hold at every
// step; callers never rebuild its internal slices themselves.
//
// A name index is maintained alongside the nodes so resolving a folder's
// display name is a map lookup, not a tree walk.
//
// Thread Safety:
// FolderTree is NOT internally synchronized. The owning Repository serializes
// all access behind its own lock (one mutual-exclusion boundary per tenant).
type FolderTree struct {
	// nodes maps folder ids to their nodes
	nodes map[FolderID]*FolderNode

	// names maps folder ids to display names, avoiding walks on every
	// category resolution
	names map[FolderID]string

	// roots lists top-level folder ids in creation order
	roots []FolderID
}

// NewFolderTree creates an empty folder hierarchy.
func NewFolderTree() *FolderTree {
	return &FolderTree{
		nodes: make(map[FolderID]*FolderNode),
		names: make(map[FolderID]string),
	}
}

// AddRoot creates a top-level folder with the given id.
//
// Used by seeding to install system folders under fixed ids. Returns
// ErrAlreadyExists if the id is taken.
func (t *FolderTree) AddRoot(id FolderID, name string, editable bool, now time.Time) error {
	if _, exists := t.nodes[id]; exists {
		return &RepositoryError{
			Code:    ErrAlreadyExists,
			Message: "folder id already exists",
			Subject: string(id),
		}
	}

	node := &FolderNode{
		ID:        id,
		Name:      name,
		Editable:  editable,
		CreatedAt: now,
	}
	t.nodes[id] = node
	t.names[id] = name
	t.roots = append(t.roots, id)
	return nil
}

// AddChild creates a folder with the given id under an existing parent.
//
// Seeding uses this to install system folders with well-known ids;
// CreateFolder mints a fresh id and delegates here.
func (t *FolderTree) AddChild(parentID, id FolderID, name string, editable bool, now time.Time) error {
	parent, exists := t.nodes[parentID]
	if !exists {
		return &RepositoryError{
			Code:    ErrNotFound,
			Message: "parent folder not found",
			Subject: string(parentID),
		}
	}
	if _, exists := t.nodes[id]; exists {
		return &RepositoryError{
			Code:    ErrAlreadyExists,
			Message: "folder id already exists",
			Subject: string(id),
		}
	}

	node := &FolderNode{
		ID:        id,
		Name:      name,
		ParentID:  parentID,
		Editable:  editable,
		CreatedAt: now,
	}
	t.nodes[id] = node
	t.names[id] = name
	parent.ChildIDs = append(parent.ChildIDs, id)
	return nil
}

// CreateFolder creates a new folder under parentID and returns its id.
//
// Fails with ErrInvalidArgument if the name is empty or whitespace-only, and
// with ErrNotFound if the parent doesn't exist. Sibling names are not checked
// for uniqueness. The new folder inherits the parent's editability.
func (t *FolderTree) CreateFolder(parentID FolderID, name string, now time.Time) (FolderID, error) {
	if strings.TrimSpace(name) == "" {
		return "", &RepositoryError{
			Code:    ErrInvalidArgument,
			Message: "folder name must not be empty",
		}
	}

	parent, exists := t.nodes[parentID]
	if !exists {
		return "", &RepositoryError{
			Code:    ErrNotFound,
			Message: "parent folder not found",
			Subject: string(parentID),
		}
	}

	id := FolderID(uuid.NewString())
	if err := t.AddChild(parentID, id, name, parent.Editable, now); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the node for the given id.
func (t *FolderTree) Get(id FolderID) (*FolderNode, error) {
	node, exists := t.nodes[id]
	if !exists {
		return nil, &RepositoryError{
			Code:    ErrNotFound,
			Message: "folder not found",
			Subject: string(id),
		}
	}
	return node, nil
}

// NameOf resolves a folder id to its display name via the name index.
func (t *FolderTree) NameOf(id FolderID) (string, bool) {
	name, exists := t.names[id]
	return name, exists
}

// ListChildren returns the direct children of a folder in creation order.
//
// The returned nodes are copies: callers hold them past the owning lock, so
// sharing the live nodes would race with concurrent mutations.
func (t *FolderTree) ListChildren(id FolderID) ([]*FolderNode, error) {
	node, err := t.Get(id)
	if err != nil {
		return nil, err
	}

	children := make([]*FolderNode, 0, len(node.ChildIDs))
	for _, childID := range node.ChildIDs {
		// Child ids reference only existing nodes by invariant
		children = append(children, cloneNode(t.nodes[childID]))
	}
	return children, nil
}

// Roots returns copies of the top-level folders in creation order.
func (t *FolderTree) Roots() []*FolderNode {
	roots := make([]*FolderNode, 0, len(t.roots))
	for _, id := range t.roots {
		roots = append(roots, cloneNode(t.nodes[id]))
	}
	return roots
}

// cloneNode copies a node including its ChildIDs backing array.
func cloneNode(node *FolderNode) *FolderNode {
	clone := *node
	if len(node.ChildIDs) > 0 {
		clone.ChildIDs = make([]FolderID, len(node.ChildIDs))
		copy(clone.ChildIDs, node.ChildIDs)
	}
	return &clone
}

// Tree returns the whole hierarchy as nested nodes, roots first.
func (t *FolderTree) Tree() []*FolderTreeNode {
	out := make([]*FolderTreeNode, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.subtree(id))
	}
	return out
}

func (t *FolderTree) subtree(id FolderID) *FolderTreeNode {
	node := t.nodes[id]
	treeNode := &FolderTreeNode{FolderNode: *cloneNode(node)}
	for _, childID := range node.ChildIDs {
		treeNode.Children = append(treeNode.Children, t.subtree(childID))
	}
	return treeNode
}

// Len returns the number of folders in the tree.
func (t *FolderTree) Len() int {
	return len(t.nodes)
}
