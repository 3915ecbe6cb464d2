//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/shelfd/internal/server"
	"github.com/marmos91/shelfd/pkg/blob"
	blobfs "github.com/marmos91/shelfd/pkg/blob/fs"
	blobmemory "github.com/marmos91/shelfd/pkg/blob/memory"
	"github.com/marmos91/shelfd/pkg/events"
	"github.com/marmos91/shelfd/pkg/repository"
	badgerstore "github.com/marmos91/shelfd/pkg/repository/badger"
	"github.com/marmos91/shelfd/pkg/repository/memory"
)

// TestContext provides a complete testing environment with:
// - Seeded repository over real stores
// - Running HTTP server on a free port
// - Cleanup mechanisms
type TestContext struct {
	T       *testing.T
	Repo    *repository.Repository
	BaseURL string

	catalog repository.CatalogStore
	cancel  context.CancelFunc
	done    chan error
}

// StoreConfig names the store backends a test context runs against.
type StoreConfig struct {
	Name    string
	Catalog string // memory or badger
	Blob    string // memory or filesystem
}

// StoreConfigs lists the backend combinations covered by the suite.
func StoreConfigs() []StoreConfig {
	return []StoreConfig{
		{Name: "memory", Catalog: "memory", Blob: "memory"},
		{Name: "badger-fs", Catalog: "badger", Blob: "filesystem"},
	}
}

// NewTestContext starts a complete server stack for the given store
// configuration and waits for it to become healthy.
func NewTestContext(t *testing.T, cfg StoreConfig) *TestContext {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	tc := &TestContext{
		T:      t,
		cancel: cancel,
		done:   make(chan error, 1),
	}

	var err error
	switch cfg.Catalog {
	case "badger":
		tc.catalog, err = badgerstore.NewBadgerCatalogStore(ctx, badgerstore.Options{
			Path: filepath.Join(t.TempDir(), "catalog.db"),
		})
		if err != nil {
			t.Fatalf("Failed to create badger catalog store: %v", err)
		}
	default:
		tc.catalog = memory.NewMemoryCatalogStore()
	}

	var blobs blob.Store
	switch cfg.Blob {
	case "filesystem":
		blobs, err = blobfs.NewFSBlobStore(ctx, t.TempDir())
		if err != nil {
			t.Fatalf("Failed to create filesystem blob store: %v", err)
		}
	default:
		blobs = blobmemory.NewMemoryBlobStore()
	}

	broadcaster := events.NewBroadcaster()

	tc.Repo = repository.New(tc.catalog, repository.Options{
		Blobs: blobs,
		Sink:  broadcaster,
	})
	if err := repository.Seed(ctx, tc.Repo); err != nil {
		t.Fatalf("Failed to seed folder structure: %v", err)
	}
	if err := repository.SeedRecords(ctx, tc.Repo); err != nil {
		t.Fatalf("Failed to seed records: %v", err)
	}

	port := findFreePort(t)
	tc.BaseURL = fmt.Sprintf("http://127.0.0.1:%d", port)

	srv := server.New(tc.Repo, server.Options{
		Listen:         fmt.Sprintf("127.0.0.1:%d", port),
		MaxUploadBytes: 64 << 20,
		Broadcaster:    broadcaster,
	})
	go func() {
		tc.done <- srv.Serve(ctx, 5*time.Second)
	}()

	tc.waitForHealthy()

	t.Cleanup(tc.Close)
	return tc
}

// Close shuts the stack down and reports server errors.
func (tc *TestContext) Close() {
	tc.cancel()

	select {
	case err := <-tc.done:
		if err != nil {
			tc.T.Errorf("Server shutdown error: %v", err)
		}
	case <-time.After(10 * time.Second):
		tc.T.Error("Server did not shut down in time")
	}

	if err := tc.catalog.Close(); err != nil {
		tc.T.Errorf("Error closing catalog store: %v", err)
	}
}

// waitForHealthy polls /healthz until the server answers.
func (tc *TestContext) waitForHealthy() {
	tc.T.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(tc.BaseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	tc.T.Fatal("Server never became healthy")
}

// PostJSON sends a JSON request and decodes the JSON response into out
// when out is non-nil. It fails the test on transport errors.
func (tc *TestContext) PostJSON(path string, body any, out any) *http.Response {
	tc.T.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			tc.T.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	resp, err := http.Post(tc.BaseURL+path, "application/json", reader)
	if err != nil {
		tc.T.Fatalf("POST %s failed: %v", path, err)
	}
	decodeInto(tc.T, resp, out)
	return resp
}

// GetJSON fetches path and decodes the JSON response into out when out is
// non-nil.
func (tc *TestContext) GetJSON(path string, out any) *http.Response {
	tc.T.Helper()

	resp, err := http.Get(tc.BaseURL + path)
	if err != nil {
		tc.T.Fatalf("GET %s failed: %v", path, err)
	}
	decodeInto(tc.T, resp, out)
	return resp
}

// Do sends a bodyless request with the given method.
func (tc *TestContext) Do(method, path string) *http.Response {
	tc.T.Helper()

	req, err := http.NewRequest(method, tc.BaseURL+path, nil)
	if err != nil {
		tc.T.Fatalf("Failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		tc.T.Fatalf("%s %s failed: %v", method, path, err)
	}
	resp.Body.Close()
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

// findFreePort asks the kernel for an available TCP port.
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}
