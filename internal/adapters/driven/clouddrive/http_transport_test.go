package clouddrive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/futureproof-labs/futureproof-core/internal/core/domain"
)

// fakeGateway is an in-memory cloud drive gateway for transport tests.
type fakeGateway struct {
	mu    sync.Mutex
	blobs map[string][]byte

	failStatus int // if non-zero, every request fails with this status
}

func (g *fakeGateway) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/blobs", g.list)
	mux.HandleFunc("/blobs/", g.blob)
	return mux
}

func (g *fakeGateway) blob(w http.ResponseWriter, r *http.Request) {
	if g.failStatus != 0 {
		w.WriteHeader(g.failStatus)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/blobs/")
	g.mu.Lock()
	defer g.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		g.blobs[name] = data
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet, http.MethodHead:
		data, ok := g.blobs[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	case http.MethodDelete:
		if _, ok := g.blobs[name]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(g.blobs, name)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (g *fakeGateway) list(w http.ResponseWriter, r *http.Request) {
	if g.failStatus != 0 {
		w.WriteHeader(g.failStatus)
		return
	}

	prefix := r.URL.Query().Get("prefix")
	g.mu.Lock()
	defer g.mu.Unlock()

	archives := []*domain.ArchiveInfo{}
	for name, data := range g.blobs {
		if strings.HasPrefix(name, prefix) {
			archives = append(archives, &domain.ArchiveInfo{
				Name:       name,
				Bytes:      int64(len(data)),
				ModifiedAt: time.Now(),
			})
		}
	}
	_ = json.NewEncoder(w).Encode(archives)
}

func setupGateway(t *testing.T) (*fakeGateway, *HTTPTransport) {
	t.Helper()
	gateway := &fakeGateway{blobs: make(map[string][]byte)}
	server := httptest.NewServer(gateway.handler())
	t.Cleanup(server.Close)
	return gateway, NewHTTPTransport(server.URL, "test-token")
}

func TestHTTPTransport_SaveLoadRoundTrip(t *testing.T) {
	_, transport := setupGateway(t)

	ctx := context.Background()
	blob := []byte("sealed archive")

	if err := transport.Save(ctx, "user-1_backup", blob); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := transport.Load(ctx, "user-1_backup")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(loaded) != string(blob) {
		t.Errorf("got %q, want %q", loaded, blob)
	}

	exists, err := transport.Exists(ctx, "user-1_backup")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("expected blob to exist")
	}
}

func TestHTTPTransport_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		kind   domain.ErrorKind
	}{
		{http.StatusUnauthorized, domain.ErrorKindNotSignedIn},
		{http.StatusForbidden, domain.ErrorKindNotSignedIn},
		{http.StatusInsufficientStorage, domain.ErrorKindQuotaExceeded},
		{http.StatusRequestEntityTooLarge, domain.ErrorKindQuotaExceeded},
		{http.StatusServiceUnavailable, domain.ErrorKindContainerUnavailable},
	}

	for _, tt := range tests {
		gateway, transport := setupGateway(t)
		gateway.failStatus = tt.status

		err := transport.Save(context.Background(), "backup", []byte("x"))
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if got := domain.Classify(err).Kind; got != tt.kind {
			t.Errorf("status %d: expected %s, got %s", tt.status, tt.kind, got)
		}
	}
}

func TestHTTPTransport_LoadMissing(t *testing.T) {
	_, transport := setupGateway(t)

	_, err := transport.Load(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing blob")
	}
	if got := domain.Classify(err).Kind; got != domain.ErrorKindFileNotFound {
		t.Errorf("expected file_not_found, got %s", got)
	}
}

func TestHTTPTransport_DeleteIdempotent(t *testing.T) {
	_, transport := setupGateway(t)

	ctx := context.Background()
	if err := transport.Save(ctx, "backup", []byte("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := transport.Delete(ctx, "backup"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := transport.Delete(ctx, "backup"); err != nil {
		t.Errorf("deleting a missing blob should not error: %v", err)
	}
}

func TestHTTPTransport_List(t *testing.T) {
	_, transport := setupGateway(t)

	ctx := context.Background()
	for _, name := range []string{"user-1_a", "user-1_b", "user-2_c"} {
		if err := transport.Save(ctx, name, []byte("x")); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}

	archives, err := transport.List(ctx, "user-1_")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(archives) != 2 {
		t.Errorf("expected 2 archives, got %d", len(archives))
	}
}

func TestHTTPTransport_NetworkErrorClassifiesRetryable(t *testing.T) {
	// Point at a server that is already closed.
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	transport := NewHTTPTransport(server.URL, "")

	err := transport.Save(context.Background(), "backup", []byte("x"))
	if err == nil {
		t.Fatal("expected connection error")
	}

	cerr := domain.Classify(err)
	if cerr.Kind != domain.ErrorKindNetwork {
		t.Errorf("expected network classification, got %s", cerr.Kind)
	}
	if !cerr.Retryable {
		t.Error("network failures must be retryable")
	}
}
