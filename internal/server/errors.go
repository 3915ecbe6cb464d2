package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marmos91/shelfd/internal/logger"
	"github.com/marmos91/shelfd/pkg/repository"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError translates a repository error into an HTTP status and JSON body.
//
// Mapping:
//   - ErrNotFound          -> 404
//   - ErrInvalidArgument   -> 400
//   - ErrPermissionDenied  -> 403
//   - ErrAlreadyExists     -> 409
//   - everything else      -> 500
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := ""

	var repoErr *repository.RepositoryError
	if errors.As(err, &repoErr) {
		code = repoErr.Code.String()
		switch repoErr.Code {
		case repository.ErrNotFound:
			status = http.StatusNotFound
		case repository.ErrInvalidArgument:
			status = http.StatusBadRequest
		case repository.ErrPermissionDenied:
			status = http.StatusForbidden
		case repository.ErrAlreadyExists:
			status = http.StatusConflict
		}
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logger.Debug("Error encoding response: %v", err)
		}
	}
}
