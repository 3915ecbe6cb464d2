// Package server provides the HTTP API over the content repository.
//
// The server exposes folder and file operations as a JSON API under /v1/,
// streams repository events to clients over SSE, and serves a health
// endpoint. All repository semantics (permission gating, catalog ordering,
// timeline bookkeeping) live in pkg/repository; this package only translates
// between HTTP and repository calls.
package server
