package repository

// ============================================================================
// Category Registry
// ============================================================================

// CategoryRegistry maps folder identities to the file categories they
// surface, including folders created at runtime.
//
// Most folders map to exactly one category (their own name), but system
// folders may act as umbrellas over several institutional categories: the
// "Admin Files" folder surfaces "Assignments", "Question Papers",
// "Reference Materials" and "AI Generated" at once. The first label
// registered for a folder is its primary category, used when assigning a
// category to a newly uploaded file.
//
// Thread Safety:
// Like FolderTree, the registry is guarded by the owning Repository's lock.
type CategoryRegistry struct {
	// byFolder maps folder ids to their category labels, primary first
	byFolder map[FolderID][]CategoryLabel

	// byCategory is the reverse lookup used when a record's category must
	// resolve back to the folder that surfaces it
	byCategory map[CategoryLabel]FolderID
}

// NewCategoryRegistry creates an empty registry.
func NewCategoryRegistry() *CategoryRegistry {
	return &CategoryRegistry{
		byFolder:   make(map[FolderID][]CategoryLabel),
		byCategory: make(map[CategoryLabel]FolderID),
	}
}

// RegisterFolder associates a folder with one or more category labels.
//
// The first label becomes the folder's primary category. Registering the
// same label twice keeps the first folder as its owner, so umbrella folders
// cannot steal categories from the folder that minted them.
func (r *CategoryRegistry) RegisterFolder(folderID FolderID, labels ...CategoryLabel) {
	for _, label := range labels {
		r.byFolder[folderID] = append(r.byFolder[folderID], label)
		if _, taken := r.byCategory[label]; !taken {
			r.byCategory[label] = folderID
		}
	}
}

// CategoriesOf returns the categories whose files display when the folder is
// selected, primary first. The slice is a copy.
func (r *CategoryRegistry) CategoriesOf(folderID FolderID) ([]CategoryLabel, error) {
	labels, exists := r.byFolder[folderID]
	if !exists {
		return nil, &RepositoryError{
			Code:    ErrNotFound,
			Message: "folder has no registered categories",
			Subject: string(folderID),
		}
	}
	return append([]CategoryLabel(nil), labels...), nil
}

// PrimaryCategory returns the category assigned to new uploads into the
// folder.
func (r *CategoryRegistry) PrimaryCategory(folderID FolderID) (CategoryLabel, error) {
	labels, exists := r.byFolder[folderID]
	if !exists || len(labels) == 0 {
		return "", &RepositoryError{
			Code:    ErrNotFound,
			Message: "folder has no registered categories",
			Subject: string(folderID),
		}
	}
	return labels[0], nil
}

// FolderOf is the reverse lookup from a category label to the folder that
// surfaces it.
func (r *CategoryRegistry) FolderOf(category CategoryLabel) (FolderID, error) {
	folderID, exists := r.byCategory[category]
	if !exists {
		return "", &RepositoryError{
			Code:    ErrNotFound,
			Message: "no folder registered for category",
			Subject: string(category),
		}
	}
	return folderID, nil
}
