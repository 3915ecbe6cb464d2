package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/shelfd/internal/ratelimiter"
	blobmemory "github.com/marmos91/shelfd/pkg/blob/memory"
	"github.com/marmos91/shelfd/pkg/events"
	"github.com/marmos91/shelfd/pkg/repository"
	"github.com/marmos91/shelfd/pkg/repository/memory"
)

// newTestServer builds a seeded repository behind an httptest server.
func newTestServer(t *testing.T) (*httptest.Server, *repository.Repository) {
	t.Helper()

	repo := repository.New(memory.NewMemoryCatalogStore(), repository.Options{
		Blobs: blobmemory.NewMemoryBlobStore(),
		Sink:  events.NewBroadcaster(),
	})
	require.NoError(t, repository.Seed(context.Background(), repo))
	require.NoError(t, repository.SeedRecords(context.Background(), repo))

	srv := New(repo, Options{
		Listen:         ":0",
		MaxUploadBytes: 1 << 20,
		Broadcaster:    events.NewBroadcaster(),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, repo
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateFolder(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/folders", map[string]string{
		"parentId": string(repository.FolderMyFiles),
		"name":     "Homework",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body["id"])
}

func TestCreateFolder_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"missing parent", map[string]string{"parentId": "nope", "name": "X"}, http.StatusNotFound},
		{"blank name", map[string]string{"parentId": string(repository.FolderMyFiles), "name": "  "}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/v1/folders", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestCreateFolder_InvalidJSON(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/folders", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFolderTree(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/folders/tree")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Roots []*repository.FolderTreeNode `json:"roots"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Roots, 4)
	assert.Equal(t, "My Files", body.Roots[0].Name)
	require.Len(t, body.Roots[0].Children, 1)
	assert.Equal(t, "Notes", body.Roots[0].Children[0].Name)
}

func TestListFiles(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/folders/admin-files/files")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Files []*repository.FileRecord `json:"files"`
	}
	decodeBody(t, resp, &body)
	// Admin Files surfaces the four institutional categories
	assert.Len(t, body.Files, 4)
}

func TestListFiles_Search(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/folders/admin-files/files?q=quantum")
	require.NoError(t, err)

	var body struct {
		Files []*repository.FileRecord `json:"files"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Files, 1)
	assert.Equal(t, "Quantum Mechanics Primer.pdf", body.Files[0].Name)
}

func TestListFiles_UnknownFolder(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/folders/nope/files")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpload_JSON(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/folders/my-files/files", map[string]any{
		"filename":  "essay.docx",
		"sizeBytes": 2048,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var record repository.FileRecord
	decodeBody(t, resp, &record)
	assert.Equal(t, "essay.docx", record.Name)
	assert.Equal(t, repository.FileTypeDocx, record.Type)
	assert.Equal(t, "2.0 KB", record.Size)
	assert.Equal(t, repository.CategoryMyFiles, record.Category)
}

func TestUpload_Multipart(t *testing.T) {
	ts, repo := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("pdf bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := http.Post(ts.URL+"/v1/folders/my-files/files", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var record repository.FileRecord
	decodeBody(t, resp, &record)
	assert.Equal(t, "report.pdf", record.Name)
	assert.NotEmpty(t, record.BlobKey)

	// Stored bytes come back through the content endpoint
	reader, _, err := repo.OpenFile(context.Background(), record.ID)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))
}

func TestUpload_IntoCuratedFolder(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/folders/chapter-studio/files", map[string]any{
		"filename":  "sneaky.pdf",
		"sizeBytes": 10,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDownload(t *testing.T) {
	ts, repo := newTestServer(t)

	record, err := repo.Upload(context.Background(), repository.FolderMyFiles,
		"notes.pdf", 9, strings.NewReader("some text"))
	require.NoError(t, err)

	resp, err := http.Get(fmt.Sprintf("%s/v1/files/%s/content", ts.URL, record.ID))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "some text", string(data))
}

func TestPermissions(t *testing.T) {
	ts, _ := newTestServer(t)

	// seed-03 is Quantum Mechanics Primer.pdf (curated reference material)
	resp, err := http.Get(ts.URL + "/v1/files/seed-03/permissions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var actions repository.ActionSet
	decodeBody(t, resp, &actions)
	assert.True(t, actions.Download)
	assert.True(t, actions.Share)
	assert.False(t, actions.Delete)
	assert.False(t, actions.Rename)
}

func TestPermissions_NotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/files/missing/permissions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteFile(t *testing.T) {
	ts, repo := newTestServer(t)

	record, err := repo.Upload(context.Background(), repository.FolderMyFiles, "scratch.pdf", 10, nil)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/files/%s", ts.URL, record.ID), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestDeleteFile_Denied(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/files/seed-01", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The record is still listed
	listResp, err := http.Get(ts.URL + "/v1/folders/admin-files/files")
	require.NoError(t, err)
	var body struct {
		Files []*repository.FileRecord `json:"files"`
	}
	decodeBody(t, listResp, &body)
	assert.Len(t, body.Files, 4)
}

func TestRenameFile(t *testing.T) {
	ts, repo := newTestServer(t)

	record, err := repo.Upload(context.Background(), repository.FolderMyFiles, "draft.pdf", 10, nil)
	require.NoError(t, err)

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/files/%s/rename", ts.URL, record.ID),
		map[string]string{"name": "final.pdf"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRenameFile_Denied(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/files/seed-01/rename",
		map[string]string{"name": "new.pdf"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMoveFile(t *testing.T) {
	ts, repo := newTestServer(t)

	record, err := repo.Upload(context.Background(), repository.FolderMyFiles, "memo.pdf", 10, nil)
	require.NoError(t, err)

	resp := doJSON(t, http.MethodPost, fmt.Sprintf("%s/v1/files/%s/move", ts.URL, record.ID),
		map[string]string{"folderId": string(repository.FolderNotes)})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	moved, err := repo.ListFiles(context.Background(), repository.FolderNotes, "")
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, record.ID, moved[0].ID)
}

func TestShareFile(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/files/seed-03/share", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ticket repository.ShareTicket
	decodeBody(t, resp, &ticket)
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, repository.FileID("seed-03"), ticket.FileID)
}

func TestShareFile_Restricted(t *testing.T) {
	ts, _ := newTestServer(t)

	// seed-06 lives in Counseling Records
	resp := doJSON(t, http.MethodPost, ts.URL+"/v1/files/seed-06/share", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpload_TooLarge(t *testing.T) {
	repo := repository.New(memory.NewMemoryCatalogStore(), repository.Options{})
	require.NoError(t, repository.Seed(context.Background(), repo))

	srv := New(repo, Options{Listen: ":0", MaxUploadBytes: 16})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := strings.NewReader(`{"filename":"big.pdf","sizeBytes":999999999}`)
	resp, err := http.Post(ts.URL+"/v1/folders/my-files/files", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	repo := repository.New(memory.NewMemoryCatalogStore(), repository.Options{})
	require.NoError(t, repository.Seed(context.Background(), repo))

	srv := New(repo, Options{
		Listen:      ":0",
		RateLimiter: ratelimiter.New(1, 2),
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// The burst of 2 admits the first two requests; the third is rejected.
	for i := 0; i < 2; i++ {
		resp, err := http.Get(ts.URL + "/v1/folders/tree")
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d should pass", i)
	}

	resp, err := http.Get(ts.URL + "/v1/folders/tree")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "rate_limited", body["code"])
}
