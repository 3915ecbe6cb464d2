package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/shelfd/internal/logger"
	"github.com/marmos91/shelfd/internal/ratelimiter"
	"github.com/marmos91/shelfd/pkg/events"
	"github.com/marmos91/shelfd/pkg/metrics"
	"github.com/marmos91/shelfd/pkg/repository"
)

// Server is the HTTP API server.
type Server struct {
	listen         string
	repo           *repository.Repository
	broadcaster    *events.Broadcaster
	metrics        metrics.HTTPMetrics
	limiter        *ratelimiter.RateLimiter
	maxUploadBytes int64
	serveMetrics   bool

	httpServer *http.Server
}

// Options configures the server.
type Options struct {
	// Listen is the address to bind (host:port)
	Listen string

	// MaxUploadBytes caps the accepted upload body size
	MaxUploadBytes int64

	// Broadcaster feeds the SSE endpoint. May be nil; /v1/events then
	// returns 503.
	Broadcaster *events.Broadcaster

	// Metrics receives HTTP observations. Defaults to no-op.
	Metrics metrics.HTTPMetrics

	// RateLimiter throttles incoming requests. May be nil; requests are
	// then never rejected for rate.
	RateLimiter *ratelimiter.RateLimiter

	// ServeMetrics mounts the Prometheus /metrics endpoint on this listener
	ServeMetrics bool
}

// New creates an HTTP server over the given repository.
func New(repo *repository.Repository, opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopHTTPMetrics()
	}

	return &Server{
		listen:         opts.Listen,
		repo:           repo,
		broadcaster:    opts.Broadcaster,
		metrics:        opts.Metrics,
		limiter:        opts.RateLimiter,
		maxUploadBytes: opts.MaxUploadBytes,
		serveMetrics:   opts.ServeMetrics,
	}
}

// Handler returns the routed HTTP handler with metrics middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.Handle("POST /v1/folders", s.route("/v1/folders", s.handleCreateFolder))
	mux.Handle("GET /v1/folders/tree", s.route("/v1/folders/tree", s.handleFolderTree))
	mux.Handle("GET /v1/folders/{id}/children", s.route("/v1/folders/{id}/children", s.handleListChildren))
	mux.Handle("GET /v1/folders/{id}/files", s.route("/v1/folders/{id}/files", s.handleListFiles))
	mux.Handle("POST /v1/folders/{id}/files", s.route("/v1/folders/{id}/files", s.handleUpload))

	mux.Handle("GET /v1/files/{id}/permissions", s.route("/v1/files/{id}/permissions", s.handlePermissions))
	mux.Handle("GET /v1/files/{id}/content", s.route("/v1/files/{id}/content", s.handleDownload))
	mux.Handle("DELETE /v1/files/{id}", s.route("/v1/files/{id}", s.handleDeleteFile))
	mux.Handle("POST /v1/files/{id}/rename", s.route("/v1/files/{id}/rename", s.handleRenameFile))
	mux.Handle("POST /v1/files/{id}/move", s.route("/v1/files/{id}/move", s.handleMoveFile))
	mux.Handle("POST /v1/files/{id}/share", s.route("/v1/files/{id}/share", s.handleShareFile))

	mux.HandleFunc("GET /v1/events", s.handleEvents)

	if s.serveMetrics && metrics.IsEnabled() {
		mux.Handle("GET /metrics", promhttp.HandlerFor(
			metrics.GetRegistry(),
			promhttp.HandlerOpts{},
		))
	}

	return mux
}

// Serve runs the server until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Serve(ctx context.Context, shutdownTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:              s.listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening on %s", s.listen)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown failed: %v", err)
		return s.httpServer.Close()
	}
	return nil
}

// Stop closes the server immediately.
func (s *Server) Stop() error {
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}
