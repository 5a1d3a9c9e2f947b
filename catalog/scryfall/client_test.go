package scryfall

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// newManifestServer serves a two-entry bulk-data manifest whose download
// URIs point back at the server itself.
func newManifestServer(t *testing.T, fileBody string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/bulk-data", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":[
			{"type":"oracle_cards","name":"Oracle Cards","download_uri":"%s/files/oracle-cards.json","size":100},
			{"type":"default_cards","name":"Default Cards","download_uri":"%s/files/default-cards.json","size":200}
		]}`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fileBody))
	})

	return srv
}

func TestBulkDataByType(t *testing.T) {
	srv := newManifestServer(t, `[]`)
	client := NewClient(srv.URL, t.TempDir())

	entry, err := client.BulkDataByType(context.Background(), "default_cards")
	if err != nil {
		t.Fatalf("BulkDataByType: %v", err)
	}
	if entry.Type != "default_cards" {
		t.Errorf("got type %q, want default_cards", entry.Type)
	}
	if entry.Size != 200 {
		t.Errorf("got size %d, want 200", entry.Size)
	}
}

func TestBulkDataByTypeMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, t.TempDir())

	_, err := client.BulkDataByType(context.Background(), "default_cards")
	if !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("got %v, want ErrDatasetNotFound", err)
	}
}

func TestDownloadCacheReuse(t *testing.T) {
	cacheDir := t.TempDir()

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`[{"id":"x"}]`))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, cacheDir)
	bulk := &BulkData{Type: "default_cards", DownloadURI: srv.URL + "/files/default-cards.json"}

	path, err := client.Download(context.Background(), bulk, false)
	if err != nil {
		t.Fatalf("first download: %v", err)
	}
	if want := filepath.Join(cacheDir, "default_cards.json"); path != want {
		t.Errorf("got path %q, want %q", path, want)
	}
	if hits != 1 {
		t.Fatalf("got %d upstream hits, want 1", hits)
	}

	// Second call without refresh must reuse the cached file.
	if _, err := client.Download(context.Background(), bulk, false); err != nil {
		t.Fatalf("cached download: %v", err)
	}
	if hits != 1 {
		t.Errorf("cache bypassed: got %d upstream hits, want 1", hits)
	}

	// Refresh forces a new fetch.
	if _, err := client.Download(context.Background(), bulk, true); err != nil {
		t.Fatalf("refresh download: %v", err)
	}
	if hits != 2 {
		t.Errorf("got %d upstream hits after refresh, want 2", hits)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cached file: %v", err)
	}
	if string(data) != `[{"id":"x"}]` {
		t.Errorf("unexpected cached content: %s", data)
	}
}

func TestDownloadUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, t.TempDir())
	bulk := &BulkData{Type: "default_cards", DownloadURI: srv.URL + "/files/default-cards.json"}

	if _, err := client.Download(context.Background(), bulk, false); err == nil {
		t.Fatal("expected error for upstream 503")
	}
}
