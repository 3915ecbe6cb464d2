package repository

// ============================================================================
// Permission Policy
// ============================================================================

// CategoryClass is the policy class a category belongs to.
//
// The class is assigned explicitly when the category is registered — never
// inferred from the category string — so a user naming a folder "Counseling
// Records" cannot collide their way into (or out of) a policy row.
type CategoryClass int

const (
	// ClassUserOwned covers content the user authored: their own folders and
	// anything uploaded into them. Every action is allowed.
	ClassUserOwned CategoryClass = iota

	// ClassCurated covers institutionally or AI produced content
	// (assignments, question papers, reference materials, generated
	// chapters). It can be consumed and shared but not altered or removed,
	// preserving provenance.
	ClassCurated

	// ClassRestricted covers sensitive records (counseling). Read-only and
	// non-shareable.
	ClassRestricted
)

// actionsByClass is the decision table. One row per class; the policy is
// total because classification always yields a class (see ClassOf).
var actionsByClass = map[CategoryClass]ActionSet{
	ClassUserOwned:  {Download: true, Rename: true, Move: true, Share: true, Delete: true},
	ClassCurated:    {Download: true, Rename: false, Move: false, Share: true, Delete: false},
	ClassRestricted: {Download: true, Rename: false, Move: false, Share: false, Delete: false},
}

// minimalActions is the fallback row for categories never registered with a
// class: download only, same surface as restricted records.
var minimalActions = ActionSet{Download: true}

// PermissionPolicy maps file categories to the set of permitted actions.
//
// The category→class assignment is an explicit table built at registration
// time; evaluation is a pure lookup with a deterministic fallback, so the
// policy is total over all possible category values.
//
// Thread Safety:
// Classify is only called while the owning Repository holds its write lock
// (folder creation and seeding). Permissions only reads and may run
// concurrently with other reads.
type PermissionPolicy struct {
	classes map[CategoryLabel]CategoryClass
}

// NewPermissionPolicy creates a policy with no classified categories.
// Until categories are classified, everything resolves to the minimal row.
func NewPermissionPolicy() *PermissionPolicy {
	return &PermissionPolicy{classes: make(map[CategoryLabel]CategoryClass)}
}

// Classify assigns a category to a policy class.
//
// First assignment wins: reclassifying an existing category is ignored so a
// later folder creation can never escalate an institutional category.
func (p *PermissionPolicy) Classify(category CategoryLabel, class CategoryClass) {
	if _, exists := p.classes[category]; exists {
		return
	}
	p.classes[category] = class
}

// ClassOf returns the class a category was registered with and whether it
// was registered at all.
func (p *PermissionPolicy) ClassOf(category CategoryLabel) (CategoryClass, bool) {
	class, exists := p.classes[category]
	return class, exists
}

// Permissions returns the action set permitted for a category.
//
// Pure and side-effect free. Unrecognized categories map to the minimal
// policy rather than an error, so the table can never be partial.
func (p *PermissionPolicy) Permissions(category CategoryLabel) ActionSet {
	class, exists := p.classes[category]
	if !exists {
		return minimalActions
	}
	return actionsByClass[class]
}

// Allows reports whether a single action is permitted for a category.
func (p *PermissionPolicy) Allows(category CategoryLabel, action Action) bool {
	set := p.Permissions(category)
	switch action {
	case ActionDownload:
		return set.Download
	case ActionRename:
		return set.Rename
	case ActionMove:
		return set.Move
	case ActionShare:
		return set.Share
	case ActionDelete:
		return set.Delete
	default:
		return false
	}
}

// Action names a single gated operation on a file.
type Action string

const (
	ActionDownload Action = "download"
	ActionRename   Action = "rename"
	ActionMove     Action = "move"
	ActionShare    Action = "share"
	ActionDelete   Action = "delete"
)
