package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesOf_Umbrella(t *testing.T) {
	registry := NewCategoryRegistry()
	registry.RegisterFolder(FolderAdmin,
		CategoryAssignments,
		CategoryQuestions,
		CategoryReference,
		CategoryAIGenerated,
	)

	labels, err := registry.CategoriesOf(FolderAdmin)
	require.NoError(t, err)
	assert.Equal(t, []CategoryLabel{
		CategoryAssignments,
		CategoryQuestions,
		CategoryReference,
		CategoryAIGenerated,
	}, labels)

	// Primary category is the first registered label
	primary, err := registry.PrimaryCategory(FolderAdmin)
	require.NoError(t, err)
	assert.Equal(t, CategoryAssignments, primary)
}

func TestCategoriesOf_Unregistered(t *testing.T) {
	registry := NewCategoryRegistry()

	_, err := registry.CategoriesOf("missing")
	assert.True(t, IsNotFound(err))

	_, err = registry.PrimaryCategory("missing")
	assert.True(t, IsNotFound(err))
}

func TestFolderOf_ReverseLookup(t *testing.T) {
	registry := NewCategoryRegistry()
	registry.RegisterFolder(FolderNotes, CategoryNotes)
	registry.RegisterFolder(FolderAdmin, CategoryAssignments, CategoryQuestions)

	folderID, err := registry.FolderOf(CategoryQuestions)
	require.NoError(t, err)
	assert.Equal(t, FolderAdmin, folderID)

	_, err = registry.FolderOf("Unknown")
	assert.True(t, IsNotFound(err))
}

// TestRegisterFolder_FirstOwnerWins verifies a later registration cannot
// steal a category's reverse mapping.
func TestRegisterFolder_FirstOwnerWins(t *testing.T) {
	registry := NewCategoryRegistry()
	registry.RegisterFolder(FolderNotes, CategoryNotes)
	registry.RegisterFolder("impostor", CategoryNotes)

	folderID, err := registry.FolderOf(CategoryNotes)
	require.NoError(t, err)
	assert.Equal(t, FolderNotes, folderID)
}
