package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/shelfd/internal/logger"
	"github.com/marmos91/shelfd/internal/ratelimiter"
	"github.com/marmos91/shelfd/internal/server"
	"github.com/marmos91/shelfd/pkg/config"
	"github.com/marmos91/shelfd/pkg/events"
	"github.com/marmos91/shelfd/pkg/gc"
	"github.com/marmos91/shelfd/pkg/metrics"
	promMetrics "github.com/marmos91/shelfd/pkg/metrics/prometheus"
	"github.com/marmos91/shelfd/pkg/repository"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure logger
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger.SetLevel(cfg.Logging.Level)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure log output: %v", err)
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("shelfd - content repository server")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	var repoMetrics metrics.RepositoryMetrics = metrics.NewNoopRepositoryMetrics()
	var httpMetrics metrics.HTTPMetrics = metrics.NewNoopHTTPMetrics()
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		repoMetrics = promMetrics.NewRepositoryMetrics()
		httpMetrics = promMetrics.NewHTTPMetrics()
		logger.Info("Prometheus metrics enabled")
	}

	// Create stores
	catalog, err := config.CreateCatalogStore(ctx, &cfg.Catalog)
	if err != nil {
		log.Fatalf("Failed to create catalog store: %v", err)
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			logger.Warn("Error closing catalog store: %v", err)
		}
	}()

	blobs, err := config.CreateBlobStore(ctx, &cfg.Blob)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}

	broadcaster := events.NewBroadcaster()

	repo := repository.New(catalog, repository.Options{
		Blobs:   blobs,
		Sink:    broadcaster,
		Metrics: repoMetrics,
	})

	// Install the system folder structure and, on an empty catalog, the
	// initial institutional records
	if err := repository.Seed(ctx, repo); err != nil {
		log.Fatalf("Failed to seed folder structure: %v", err)
	}
	if cfg.Seed.Records {
		count, err := catalog.Len(ctx)
		if err != nil {
			log.Fatalf("Failed to inspect catalog: %v", err)
		}
		if count == 0 {
			if err := repository.SeedRecords(ctx, repo); err != nil {
				log.Fatalf("Failed to seed records: %v", err)
			}
			logger.Info("Initial records seeded")
		}
	}
	logger.Info("Folder structure ready")

	// Background orphaned-blob sweep
	if cfg.GC.Enabled {
		sweeper, err := gc.NewSweeper(catalog, blobs, gc.Config{
			Enabled:  true,
			Interval: cfg.GC.Interval,
			DryRun:   cfg.GC.DryRun,
		})
		if err != nil {
			log.Fatalf("Failed to create blob sweeper: %v", err)
		}
		sweeper.Start()
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer stopCancel()
			if err := sweeper.Stop(stopCtx); err != nil {
				logger.Warn("Error stopping blob sweeper: %v", err)
			}
		}()
	}

	// Dedicated metrics listener when one is configured; otherwise /metrics
	// is mounted on the main listener
	if cfg.Metrics.Enabled && cfg.Metrics.Listen != "" {
		go serveMetrics(cfg.Metrics.Listen)
	}

	var limiter *ratelimiter.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = ratelimiter.New(cfg.Server.RateLimit, cfg.Server.RateBurst)
		logger.Info("Rate limiting enabled: %.0f req/s", cfg.Server.RateLimit)
	}

	srv := server.New(repo, server.Options{
		Listen:         cfg.Server.Listen,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Broadcaster:    broadcaster,
		Metrics:        httpMetrics,
		RateLimiter:    limiter,
		ServeMetrics:   cfg.Metrics.Enabled && cfg.Metrics.Listen == "",
	})

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx, cfg.Server.ShutdownTimeout)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on %s. Press Ctrl+C to stop.", cfg.Server.Listen)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}
}

func serveMetrics(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	logger.Info("Metrics server listening on %s", listen)
	if err := http.ListenAndServe(listen, mux); err != nil {
		logger.Error("Metrics server error: %v", err)
	}
}
