package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/deckvault/deckvault/catalog/database/models"
	"github.com/deckvault/deckvault/catalog/scryfall"
	"github.com/gofrs/flock"
)

// memStore is an in-memory Store for pipeline tests.
type memStore struct {
	rows   map[int64]*models.CardPrinting
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int64]*models.CardPrinting), nextID: 1}
}

func (s *memStore) IdentityProjection(_ context.Context) ([]models.PrintingIdentity, error) {
	var ids []models.PrintingIdentity
	for _, row := range s.rows {
		ids = append(ids, models.PrintingIdentity{
			ID:              row.ID,
			ScryfallID:      row.ScryfallID,
			SetCode:         row.SetCode,
			CollectorNumber: row.CollectorNumber,
			CreatedAt:       row.CreatedAt,
		})
	}
	return ids, nil
}

func (s *memStore) BulkInsert(_ context.Context, printings []*models.CardPrinting) (int, error) {
	for _, p := range printings {
		for _, row := range s.rows {
			if row.ScryfallID == p.ScryfallID {
				return 0, fmt.Errorf("unique violation on scryfall_id %s", p.ScryfallID)
			}
		}
		p.ID = s.nextID
		s.nextID++
		clone := *p
		s.rows[p.ID] = &clone
	}
	return len(printings), nil
}

func (s *memStore) BulkUpdate(_ context.Context, printings []*models.CardPrinting) (int, error) {
	for _, p := range printings {
		if _, ok := s.rows[p.ID]; !ok {
			return 0, fmt.Errorf("update of unknown id %d", p.ID)
		}
		clone := *p
		s.rows[p.ID] = &clone
	}
	return len(printings), nil
}

func (s *memStore) Stats(_ context.Context) (*models.CatalogStats, error) {
	stats := &models.CatalogStats{TotalStored: len(s.rows)}
	groups := make(map[string]bool)
	for _, row := range s.rows {
		groups[row.OracleID] = true
		if row.MultiFaced() {
			stats.MultiFaced++
		}
		if len(row.Finishes) > 0 {
			stats.WithFinishes++
		}
		if row.ArenaID != nil {
			stats.ArenaLinked++
		}
		if row.MTGOID != nil {
			stats.MTGOLinked++
		}
	}
	stats.DistinctGroups = len(groups)
	return stats, nil
}

// fileDownloader serves a fixed dataset body from a local file.
type fileDownloader struct {
	dir  string
	body string
}

func (d *fileDownloader) BulkDataByType(_ context.Context, datasetType string) (*scryfall.BulkData, error) {
	if datasetType != "default_cards" {
		return nil, fmt.Errorf("%w: %s", scryfall.ErrDatasetNotFound, datasetType)
	}
	return &scryfall.BulkData{Type: datasetType}, nil
}

func (d *fileDownloader) Download(_ context.Context, bulk *scryfall.BulkData, _ bool) (string, error) {
	path := filepath.Join(d.dir, bulk.Type+".json")
	if err := os.WriteFile(path, []byte(d.body), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

const pipelineDataset = `[
	{
		"id": "scry-1", "oracle_id": "oracle-bolt", "name": "Lightning Bolt",
		"set": "lea", "collector_number": "161", "rarity": "common",
		"type_line": "Instant", "cmc": 1, "finishes": ["nonfoil"],
		"image_uris": {"normal": "https://img.example/bolt-lea.jpg"}
	},
	{
		"id": "scry-2", "oracle_id": "oracle-bolt", "name": "Lightning Bolt",
		"set": "m21", "collector_number": "139", "rarity": "common",
		"type_line": "Instant", "cmc": 1, "arena_id": 72361,
		"image_uris": {"normal": "https://img.example/bolt-m21.jpg"}
	},
	{
		"id": "scry-3", "name": "No Oracle", "set": "tst",
		"collector_number": "1", "rarity": "common",
		"image_uris": {"normal": "https://img.example/x.jpg"}
	}
]`

func newTestPipeline(t *testing.T, store Store, body string) *Pipeline {
	t.Helper()
	dir := t.TempDir()
	client := &fileDownloader{dir: dir, body: body}
	return NewPipeline(client, store, filepath.Join(dir, "sync.lock"))
}

func TestPipelineRun(t *testing.T) {
	store := newMemStore()
	p := newTestPipeline(t, store, pipelineDataset)

	invalidated := false
	p.OnComplete(func() { invalidated = true })

	report, err := p.Run(context.Background(), "default_cards", false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Parsed != 3 {
		t.Errorf("parsed = %d, want 3", report.Parsed)
	}
	if report.Inserted != 2 || report.Updated != 0 {
		t.Errorf("inserted/updated = %d/%d, want 2/0", report.Inserted, report.Updated)
	}
	if len(report.Skipped) != 1 {
		t.Errorf("skipped = %d, want 1", len(report.Skipped))
	}
	if report.Stats == nil || report.Stats.TotalStored != 2 || report.Stats.DistinctGroups != 1 {
		t.Errorf("stats = %+v", report.Stats)
	}
	if report.Stats.ArenaLinked != 1 || report.Stats.WithFinishes != 1 {
		t.Errorf("stats = %+v", report.Stats)
	}
	if !invalidated {
		t.Error("OnComplete hook not invoked")
	}
}

func TestPipelineIdempotent(t *testing.T) {
	store := newMemStore()
	p := newTestPipeline(t, store, pipelineDataset)

	if _, err := p.Run(context.Background(), "default_cards", false); err != nil {
		t.Fatalf("first run: %v", err)
	}

	report, err := p.Run(context.Background(), "default_cards", false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	// Same dataset again: every valid record matches by upstream id.
	if report.Inserted != 0 {
		t.Errorf("second run inserted %d, want 0", report.Inserted)
	}
	if report.Updated != 2 || report.MatchedByID != 2 {
		t.Errorf("updated/matched_by_id = %d/%d, want 2/2", report.Updated, report.MatchedByID)
	}
	if report.Stats.TotalStored != 2 {
		t.Errorf("total stored = %d, want 2", report.Stats.TotalStored)
	}
}

func TestPipelineIDRotation(t *testing.T) {
	store := newMemStore()
	p := newTestPipeline(t, store, pipelineDataset)

	if _, err := p.Run(context.Background(), "default_cards", false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	var leaID int64
	for id, row := range store.rows {
		if row.SetCode == "lea" {
			leaID = id
		}
	}

	rotated := `[
		{
			"id": "scry-1-rotated", "oracle_id": "oracle-bolt", "name": "Lightning Bolt",
			"set": "lea", "collector_number": "161", "rarity": "common",
			"type_line": "Instant", "cmc": 1,
			"image_uris": {"normal": "https://img.example/bolt-lea.jpg"}
		}
	]`
	p2 := NewPipeline(&fileDownloader{dir: t.TempDir(), body: rotated}, store, filepath.Join(t.TempDir(), "sync.lock"))

	report, err := p2.Run(context.Background(), "default_cards", false)
	if err != nil {
		t.Fatalf("rotated run: %v", err)
	}
	if report.Inserted != 0 || report.MatchedBySetNr != 1 {
		t.Errorf("inserted/matched_by_set = %d/%d, want 0/1", report.Inserted, report.MatchedBySetNr)
	}

	row := store.rows[leaID]
	if row == nil || row.ScryfallID != "scry-1-rotated" {
		t.Errorf("row not updated in place: %+v", row)
	}
}

func TestPipelineDuplicateWithinDataset(t *testing.T) {
	dup := `[
		{
			"id": "scry-1", "oracle_id": "o", "name": "A", "set": "tst",
			"collector_number": "1", "rarity": "common",
			"image_uris": {"normal": "u"}
		},
		{
			"id": "scry-1", "oracle_id": "o", "name": "A", "set": "tst",
			"collector_number": "1", "rarity": "common",
			"image_uris": {"normal": "u"}
		}
	]`
	store := newMemStore()
	p := newTestPipeline(t, store, dup)

	report, err := p.Run(context.Background(), "default_cards", false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Inserted != 1 || len(report.Skipped) != 1 {
		t.Errorf("inserted/skipped = %d/%d, want 1/1", report.Inserted, len(report.Skipped))
	}
}

func TestPipelineUnknownDataset(t *testing.T) {
	p := newTestPipeline(t, newMemStore(), pipelineDataset)

	_, err := p.Run(context.Background(), "unique_artwork", false)
	if !errors.Is(err, scryfall.ErrDatasetNotFound) {
		t.Fatalf("got %v, want ErrDatasetNotFound", err)
	}
}

func TestPipelineLockContention(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "sync.lock")

	held := flock.New(lockPath)
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("failed to pre-acquire lock: %v", err)
	}
	defer held.Unlock()

	p := NewPipeline(&fileDownloader{dir: dir, body: pipelineDataset}, newMemStore(), lockPath)

	if _, err := p.Run(context.Background(), "default_cards", false); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("got %v, want ErrSyncInProgress", err)
	}
}
