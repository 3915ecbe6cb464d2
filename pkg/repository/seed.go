package repository

import (
	"context"
	"fmt"
	"time"
)

// Well-known ids for seeded system folders. Fixed so configuration, clients,
// and tests can reference them without a lookup.
const (
	FolderMyFiles    FolderID = "my-files"
	FolderNotes      FolderID = "notes"
	FolderChapters   FolderID = "chapter-studio"
	FolderAdmin      FolderID = "admin-files"
	FolderCounseling FolderID = "counseling-records"
)

// System category labels.
const (
	CategoryMyFiles       CategoryLabel = "My Files"
	CategoryNotes         CategoryLabel = "Notes"
	CategoryChapterStudio CategoryLabel = "Chapter Studio"
	CategoryAssignments   CategoryLabel = "Assignments"
	CategoryQuestions     CategoryLabel = "Question Papers"
	CategoryReference     CategoryLabel = "Reference Materials"
	CategoryAIGenerated   CategoryLabel = "AI Generated"
	CategoryCounseling    CategoryLabel = "Counseling Records"
)

// Seed installs the system folder structure and classifies the system
// categories.
//
// Folder layout:
//
//	My Files            (editable; user-owned)
//	└── Notes           (editable; user-owned)
//	Chapter Studio      (curated AI chapter output)
//	Admin Files         (umbrella over the institutional categories)
//	Counseling Records  (restricted)
//
// "Admin Files" is deliberately one-to-many: selecting it surfaces the
// assignment, question-paper, reference, and AI-generated categories at
// once, while uploads can never land there (not editable).
//
// Seed must run on a fresh repository before it serves requests.
func Seed(ctx context.Context, repo *Repository) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	now := time.Now()
	tree, registry, policy := repo.tree, repo.registry, repo.policy

	// Folder hierarchy
	if err := tree.AddRoot(FolderMyFiles, "My Files", true, now); err != nil {
		return err
	}
	if err := tree.AddChild(FolderMyFiles, FolderNotes, "Notes", true, now); err != nil {
		return err
	}
	for _, folder := range []struct {
		id   FolderID
		name string
	}{
		{FolderChapters, "Chapter Studio"},
		{FolderAdmin, "Admin Files"},
		{FolderCounseling, "Counseling Records"},
	} {
		if err := tree.AddRoot(folder.id, folder.name, false, now); err != nil {
			return err
		}
	}

	// Category registration; first label is the folder's primary category
	registry.RegisterFolder(FolderMyFiles, CategoryMyFiles)
	registry.RegisterFolder(FolderNotes, CategoryNotes)
	registry.RegisterFolder(FolderChapters, CategoryChapterStudio)
	registry.RegisterFolder(FolderAdmin,
		CategoryAssignments,
		CategoryQuestions,
		CategoryReference,
		CategoryAIGenerated,
	)
	registry.RegisterFolder(FolderCounseling, CategoryCounseling)

	// Policy classes come from this fixed table, never from label strings
	policy.Classify(CategoryMyFiles, ClassUserOwned)
	policy.Classify(CategoryNotes, ClassUserOwned)
	policy.Classify(CategoryChapterStudio, ClassCurated)
	policy.Classify(CategoryAssignments, ClassCurated)
	policy.Classify(CategoryQuestions, ClassCurated)
	policy.Classify(CategoryReference, ClassCurated)
	policy.Classify(CategoryAIGenerated, ClassCurated)
	policy.Classify(CategoryCounseling, ClassRestricted)

	repo.metrics.SetFolderCount(int64(tree.Len()))
	return nil
}

// SeedRecords inserts the initial institutional file records so a fresh
// server shows realistic content. Records are inserted oldest first, keeping
// the newest-first catalog order stable.
func SeedRecords(ctx context.Context, repo *Repository) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	base := time.Now().Add(-24 * time.Hour)
	seeds := []struct {
		name     string
		fileType FileType
		size     int64
		category CategoryLabel
		origin   Origin
		tags     []string
	}{
		{"Algebra Basics.pdf", FileTypePDF, 2411724, CategoryAssignments, OriginInstitution, []string{"Math"}},
		{"Midterm Question Paper.pdf", FileTypePDF, 874211, CategoryQuestions, OriginInstitution, []string{"Exam"}},
		{"Quantum Mechanics Primer.pdf", FileTypePDF, 5242880, CategoryReference, OriginInstitution, []string{"Physics", "Reference"}},
		{"Photosynthesis Summary.docx", FileTypeDocx, 48213, CategoryAIGenerated, OriginAI, []string{"Biology", "Summary"}},
		{"Chapter 4 - Waves.pdf", FileTypeAIGenerated, 1311313, CategoryChapterStudio, OriginAI, []string{"Generated"}},
		{"Session Notes 2026-08.pdf", FileTypePDF, 94821, CategoryCounseling, OriginInstitution, []string{"Confidential"}},
	}

	for i, seed := range seeds {
		created := base.Add(time.Duration(i) * time.Minute)
		record := &FileRecord{
			ID:        FileID(fmt.Sprintf("seed-%02d", i+1)),
			Name:      seed.name,
			Type:      seed.fileType,
			SizeBytes: seed.size,
			Size:      FormatSize(seed.size),
			CreatedAt: created,
			Category:  seed.category,
			Origin:    seed.origin,
			Tags:      seed.tags,
			Timeline:  []TimelineEvent{{Action: "Added", Timestamp: created}},
		}
		if err := repo.catalog.Put(ctx, record); err != nil {
			return err
		}
	}

	repo.updateCatalogSize(ctx)
	return nil
}
