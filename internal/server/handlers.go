package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marmos91/shelfd/internal/logger"
	"github.com/marmos91/shelfd/pkg/repository"
)

// ============================================================================
// Health
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ============================================================================
// Folders
// ============================================================================

type createFolderRequest struct {
	ParentID string `json:"parentId"`
	Name     string `json:"name"`
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, repository.NewInvalidArgumentError("invalid request body", ""))
		return
	}

	id, err := s.repo.CreateFolder(r.Context(), repository.FolderID(req.ParentID), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": string(id)})
}

func (s *Server) handleFolderTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.repo.ListFolderTree(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"roots": tree})
}

func (s *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	folderID := repository.FolderID(r.PathValue("id"))

	children, err := s.repo.ListChildren(r.Context(), folderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"folders": children})
}

// ============================================================================
// Files
// ============================================================================

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	folderID := repository.FolderID(r.PathValue("id"))
	search := r.URL.Query().Get("q")

	files, err := s.repo.ListFiles(r.Context(), folderID, search)
	if err != nil {
		writeError(w, err)
		return
	}
	if files == nil {
		files = []*repository.FileRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

type uploadRequest struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"sizeBytes"`
}

// handleUpload ingests a file into a folder.
//
// Accepts either a multipart form with a "file" part (content stored in the
// blob store) or a JSON body with filename and size (metadata-only record).
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	folderID := repository.FolderID(r.PathValue("id"))

	if s.maxUploadBytes > 0 {
		if r.ContentLength > s.maxUploadBytes {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("upload too large: max %d bytes", s.maxUploadBytes),
			})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/") {
		s.handleMultipartUpload(w, r, folderID)
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, repository.NewInvalidArgumentError("invalid request body", ""))
		return
	}

	record, err := s.repo.Upload(r.Context(), folderID, req.Filename, req.SizeBytes, nil)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleMultipartUpload(w http.ResponseWriter, r *http.Request, folderID repository.FolderID) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, repository.NewInvalidArgumentError("multipart upload requires a file part", "file"))
		return
	}
	defer file.Close()

	record, err := s.repo.Upload(r.Context(), folderID, header.Filename, header.Size, file)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Debug("Uploaded %s (%d bytes) into folder %s", header.Filename, header.Size, folderID)
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	fileID := repository.FileID(r.PathValue("id"))

	actions, err := s.repo.Permissions(r.Context(), fileID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, actions)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	fileID := repository.FileID(r.PathValue("id"))

	reader, record, err := s.repo.OpenFile(r.Context(), fileID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer reader.Close()

	ct := mime.TypeByExtension(filepath.Ext(record.Name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.FormatInt(record.SizeBytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.Name))

	if _, err := io.Copy(w, reader); err != nil {
		logger.Warn("Content transfer error for file %s: %v", fileID, err)
	}
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID := repository.FileID(r.PathValue("id"))

	if err := s.repo.DeleteFile(r.Context(), fileID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type renameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleRenameFile(w http.ResponseWriter, r *http.Request) {
	fileID := repository.FileID(r.PathValue("id"))

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, repository.NewInvalidArgumentError("invalid request body", ""))
		return
	}

	if err := s.repo.RenameFile(r.Context(), fileID, req.Name); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":   string(fileID),
		"name": req.Name,
	})
}

type moveRequest struct {
	FolderID string `json:"folderId"`
}

func (s *Server) handleMoveFile(w http.ResponseWriter, r *http.Request) {
	fileID := repository.FileID(r.PathValue("id"))

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, repository.NewInvalidArgumentError("invalid request body", ""))
		return
	}

	if err := s.repo.MoveFile(r.Context(), fileID, repository.FolderID(req.FolderID)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":       string(fileID),
		"folderId": req.FolderID,
	})
}

func (s *Server) handleShareFile(w http.ResponseWriter, r *http.Request) {
	fileID := repository.FileID(r.PathValue("id"))

	ticket, err := s.repo.ShareFile(r.Context(), fileID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ticket)
}

// ============================================================================
// Events (SSE)
// ============================================================================

// handleEvents streams repository events to the client as server-sent events
// until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.broadcaster == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "event streaming not enabled"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.broadcaster.Subscribe()
	s.metrics.SetEventSubscribers(int64(s.broadcaster.Count()))
	defer func() {
		s.broadcaster.Unsubscribe(ch)
		s.metrics.SetEventSubscribers(int64(s.broadcaster.Count()))
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
