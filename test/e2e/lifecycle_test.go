//go:build e2e

package e2e

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/shelfd/pkg/repository"
)

// TestFileLifecycle walks a file through its full life against every store
// configuration: upload, list, search, rename, move, download, share,
// delete.
func TestFileLifecycle(t *testing.T) {
	for _, cfg := range StoreConfigs() {
		t.Run(cfg.Name, func(t *testing.T) {
			tc := NewTestContext(t, cfg)

			// Upload with content through the multipart path
			var uploaded repository.FileRecord
			resp := uploadMultipart(t, tc, "my-files", "essay.pdf", "the essay body")
			decodeInto(t, resp, &uploaded)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			require.NotEmpty(t, uploaded.ID)
			assert.Equal(t, repository.FileTypePDF, uploaded.Type)
			assert.Equal(t, repository.CategoryMyFiles, uploaded.Category)

			// The new upload lists first
			var listing struct {
				Files []*repository.FileRecord `json:"files"`
			}
			resp = tc.GetJSON("/v1/folders/my-files/files", &listing)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.NotEmpty(t, listing.Files)
			assert.Equal(t, uploaded.ID, listing.Files[0].ID)

			// Search is case-insensitive
			resp = tc.GetJSON("/v1/folders/my-files/files?q=ESSAY", &listing)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Len(t, listing.Files, 1)

			// Rename
			var renamed map[string]any
			resp = tc.PostJSON(fmt.Sprintf("/v1/files/%s/rename", uploaded.ID),
				map[string]string{"name": "final-essay.pdf"}, &renamed)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			// Move into a freshly created folder
			var created map[string]string
			resp = tc.PostJSON("/v1/folders", map[string]string{
				"parentId": "my-files",
				"name":     "Drafts",
			}, &created)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			folderID := created["id"]
			require.NotEmpty(t, folderID)

			resp = tc.PostJSON(fmt.Sprintf("/v1/files/%s/move", uploaded.ID),
				map[string]string{"folderId": folderID}, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resp = tc.GetJSON("/v1/folders/"+folderID+"/files", &listing)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Len(t, listing.Files, 1)
			assert.Equal(t, "final-essay.pdf", listing.Files[0].Name)

			// Download returns the uploaded bytes
			dlResp, err := http.Get(tc.BaseURL + fmt.Sprintf("/v1/files/%s/content", uploaded.ID))
			require.NoError(t, err)
			body, err := io.ReadAll(dlResp.Body)
			dlResp.Body.Close()
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, dlResp.StatusCode)
			assert.Equal(t, "the essay body", string(body))

			// Share
			var ticket repository.ShareTicket
			resp = tc.PostJSON(fmt.Sprintf("/v1/files/%s/share", uploaded.ID), nil, &ticket)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, uploaded.ID, ticket.FileID)

			// Delete, then the record is gone
			resp = tc.Do(http.MethodDelete, fmt.Sprintf("/v1/files/%s", uploaded.ID))
			require.Equal(t, http.StatusNoContent, resp.StatusCode)

			resp = tc.GetJSON(fmt.Sprintf("/v1/files/%s/permissions", uploaded.ID), nil)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}

// TestCuratedFoldersReadOnly verifies institutional folders reject uploads
// end to end.
func TestCuratedFoldersReadOnly(t *testing.T) {
	tc := NewTestContext(t, StoreConfigs()[0])

	resp := tc.PostJSON("/v1/folders/chapter-studio/files", map[string]any{
		"filename":  "smuggled.pdf",
		"sizeBytes": 1024,
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// TestSeededRecordsVisible verifies the initial institutional records
// surface with their permissions intact.
func TestSeededRecordsVisible(t *testing.T) {
	tc := NewTestContext(t, StoreConfigs()[0])

	var tree struct {
		Roots []*repository.FolderTreeNode `json:"roots"`
	}
	resp := tc.GetJSON("/v1/folders/tree", &tree)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, tree.Roots, 4)

	var perms repository.ActionSet
	resp = tc.GetJSON("/v1/files/seed-03/permissions", &perms)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, perms.Download)
	assert.False(t, perms.Delete)
}

func uploadMultipart(t *testing.T, tc *TestContext, folderID, filename, content string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := http.Post(
		tc.BaseURL+fmt.Sprintf("/v1/folders/%s/files", folderID),
		writer.FormDataContentType(),
		&buf,
	)
	require.NoError(t, err)
	return resp
}
