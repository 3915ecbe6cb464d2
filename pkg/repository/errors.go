package repository

import "errors"

// RepositoryError represents a domain error from repository operations.
//
// These are business logic errors (folder not found, action not permitted,
// invalid input) as opposed to infrastructure errors (disk failure, network
// error). The API layer translates RepositoryError codes into transport
// status codes; infrastructure errors are wrapped and surface as 500s.
type RepositoryError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Subject is the folder/file id or name related to the error, if any
	Subject string
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	if e.Subject != "" {
		return e.Message + ": " + e.Subject
	}
	return e.Message
}

// ErrorCode represents the category of a repository error.
type ErrorCode int

const (
	// ErrNotFound indicates the requested folder or file doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrInvalidArgument indicates invalid parameters were provided
	// Examples: blank folder name, negative size
	ErrInvalidArgument

	// ErrPermissionDenied indicates the action is not in the allowed set
	// for the file's category
	ErrPermissionDenied

	// ErrAlreadyExists indicates an id collision on insert
	ErrAlreadyExists

	// ErrIOError indicates a store failed reading or writing metadata
	ErrIOError
)

// String returns the wire name of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not_found"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrPermissionDenied:
		return "permission_denied"
	case ErrAlreadyExists:
		return "already_exists"
	case ErrIOError:
		return "io_error"
	default:
		return "unknown"
	}
}

// NewNotFoundError creates a RepositoryError with code ErrNotFound.
func NewNotFoundError(message, subject string) *RepositoryError {
	return &RepositoryError{Code: ErrNotFound, Message: message, Subject: subject}
}

// NewInvalidArgumentError creates a RepositoryError with code ErrInvalidArgument.
func NewInvalidArgumentError(message, subject string) *RepositoryError {
	return &RepositoryError{Code: ErrInvalidArgument, Message: message, Subject: subject}
}

// NewPermissionDeniedError creates a RepositoryError with code ErrPermissionDenied.
func NewPermissionDeniedError(message, subject string) *RepositoryError {
	return &RepositoryError{Code: ErrPermissionDenied, Message: message, Subject: subject}
}

// errorCodeIs reports whether err is a RepositoryError with the given code.
func errorCodeIs(err error, code ErrorCode) bool {
	var repoErr *RepositoryError
	return errors.As(err, &repoErr) && repoErr.Code == code
}

// IsNotFound reports whether err is a not-found domain error.
func IsNotFound(err error) bool { return errorCodeIs(err, ErrNotFound) }

// IsInvalidArgument reports whether err is an invalid-argument domain error.
func IsInvalidArgument(err error) bool { return errorCodeIs(err, ErrInvalidArgument) }

// IsPermissionDenied reports whether err is a permission-denied domain error.
func IsPermissionDenied(err error) bool { return errorCodeIs(err, ErrPermissionDenied) }
