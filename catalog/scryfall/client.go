package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	manifestTimeout = 30 * time.Second
	downloadTimeout = 30 * time.Minute
)

// ErrDatasetNotFound is returned when the manifest carries no entry for the
// requested dataset type.
var ErrDatasetNotFound = errors.New("bulk dataset not found")

// Client talks to the Scryfall bulk-data API and maintains a local dataset
// cache. Cached files never expire on their own; callers opt into a fresh
// download explicitly.
type Client struct {
	baseURL  string
	cacheDir string

	manifest *http.Client
	download *http.Client
}

func NewClient(baseURL, cacheDir string) *Client {
	return &Client{
		baseURL:  baseURL,
		cacheDir: cacheDir,
		manifest: &http.Client{Timeout: manifestTimeout},
		// Bulk files run into the hundreds of megabytes.
		download: &http.Client{Timeout: downloadTimeout},
	}
}

// ListBulkData fetches the bulk-data manifest.
func (c *Client) ListBulkData(ctx context.Context) ([]BulkData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/bulk-data", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.manifest.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bulk-data manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bulk-data manifest returned status %d", resp.StatusCode)
	}

	var list bulkDataList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode bulk-data manifest: %w", err)
	}

	return list.Data, nil
}

// BulkDataByType resolves one manifest entry by its dataset type name.
func (c *Client) BulkDataByType(ctx context.Context, datasetType string) (*BulkData, error) {
	entries, err := c.ListBulkData(ctx)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.Type == datasetType {
			return &entry, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetType)
}

// Download fetches the dataset file into the cache directory and returns the
// local path. An existing cached file is reused unless refresh is set; there
// is no time-based expiry.
func (c *Client) Download(ctx context.Context, bulk *BulkData, refresh bool) (string, error) {
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache dir: %w", err)
	}

	path := filepath.Join(c.cacheDir, bulk.Type+".json")

	if !refresh {
		if info, err := os.Stat(path); err == nil {
			slog.Info("Reusing cached dataset",
				slog.String("type", "sync"),
				slog.String("dataset", bulk.Type),
				slog.String("path", path),
				slog.Int64("size", info.Size()),
			)
			return path, nil
		}
	}

	start := time.Now()
	slog.Info("Downloading dataset",
		slog.String("type", "sync"),
		slog.String("dataset", bulk.Type),
		slog.String("uri", bulk.DownloadURI),
		slog.Int64("expected_size", bulk.Size),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bulk.DownloadURI, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download dataset %s: %w", bulk.Type, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("dataset download returned status %d", resp.StatusCode)
	}

	// Write through a temp file so a partial download never replaces a
	// good cached copy.
	tmp, err := os.CreateTemp(c.cacheDir, bulk.Type+"-*.json.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move dataset into cache: %w", err)
	}

	slog.Info("Dataset downloaded",
		slog.String("type", "sync"),
		slog.String("dataset", bulk.Type),
		slog.String("path", path),
		slog.Int64("size", written),
		slog.Duration("took", time.Since(start)),
	)

	return path, nil
}
