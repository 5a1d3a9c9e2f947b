package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/deckvault/deckvault/catalog/database/models"
	"github.com/deckvault/deckvault/catalog/scryfall"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrSyncInProgress is returned when another process already holds the run
// lock.
var ErrSyncInProgress = errors.New("a catalog sync is already in progress")

// Store is the slice of the printing repository the pipeline writes through.
type Store interface {
	IdentityProjection(ctx context.Context) ([]models.PrintingIdentity, error)
	BulkInsert(ctx context.Context, printings []*models.CardPrinting) (int, error)
	BulkUpdate(ctx context.Context, printings []*models.CardPrinting) (int, error)
	Stats(ctx context.Context) (*models.CatalogStats, error)
}

// Downloader resolves and fetches upstream bulk datasets.
type Downloader interface {
	BulkDataByType(ctx context.Context, datasetType string) (*scryfall.BulkData, error)
	Download(ctx context.Context, bulk *scryfall.BulkData, refresh bool) (string, error)
}

// RunRecorder persists the report of a finished run.
type RunRecorder interface {
	Create(ctx context.Context, run *models.SyncRun) error
}

// Mirrorer copies card artwork to external storage after a run. Mirror
// failures are internal to the mirrorer and never fail the sync.
type Mirrorer interface {
	MirrorPrintings(ctx context.Context, printings []*models.CardPrinting) (uploaded, failed int)
}

// SyncReport summarizes one pipeline run.
type SyncReport struct {
	RunID          string               `json:"run_id"`
	Dataset        string               `json:"dataset"`
	Refreshed      bool                 `json:"refreshed"`
	Parsed         int                  `json:"parsed"`
	Inserted       int                  `json:"inserted"`
	Updated        int                  `json:"updated"`
	MatchedByID    int                  `json:"matched_by_id"`
	MatchedBySetNr int                  `json:"matched_by_set_number"`
	Skipped        []SkippedRecord      `json:"skipped,omitempty"`
	Stats          *models.CatalogStats `json:"stats"`
	StartedAt      time.Time            `json:"started_at"`
	FinishedAt     time.Time            `json:"finished_at"`
}

// Pipeline runs the full ingestion sequence: resolve the manifest, fetch the
// dataset, parse, reconcile and write, then report. Fatal errors abort the
// run before any write; per-record problems only accumulate in the report.
type Pipeline struct {
	client   Downloader
	store    Store
	lockPath string

	runs       RunRecorder
	mirror     Mirrorer
	onComplete []func()
}

func NewPipeline(client Downloader, store Store, lockPath string) *Pipeline {
	return &Pipeline{
		client:   client,
		store:    store,
		lockPath: lockPath,
	}
}

// SetRunRecorder enables run-report persistence.
func (p *Pipeline) SetRunRecorder(runs RunRecorder) {
	p.runs = runs
}

// SetMirror enables artwork mirroring of the printings written by a run.
func (p *Pipeline) SetMirror(mirror Mirrorer) {
	p.mirror = mirror
}

// OnComplete registers a hook invoked after every successful run, in
// registration order. Used for cache invalidation.
func (p *Pipeline) OnComplete(fn func()) {
	p.onComplete = append(p.onComplete, fn)
}

// Run executes one sync of the given dataset. refresh forces a fresh
// dataset download even when a cached copy exists.
func (p *Pipeline) Run(ctx context.Context, dataset string, refresh bool) (*SyncReport, error) {
	if err := os.MkdirAll(filepath.Dir(p.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir: %w", err)
	}

	lock := flock.New(p.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !locked {
		return nil, ErrSyncInProgress
	}
	defer lock.Unlock()

	report := &SyncReport{
		RunID:     uuid.New().String(),
		Dataset:   dataset,
		Refreshed: refresh,
		StartedAt: time.Now(),
	}

	slog.Info("Starting catalog sync",
		slog.String("type", "sync"),
		slog.String("run_id", report.RunID),
		slog.String("dataset", dataset),
		slog.Bool("refresh", refresh),
	)

	bulk, err := p.client.BulkDataByType(ctx, dataset)
	if err != nil {
		return nil, fmt.Errorf("manifest resolution failed: %w", err)
	}

	path, err := p.client.Download(ctx, bulk, refresh)
	if err != nil {
		return nil, fmt.Errorf("dataset fetch failed: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	parsed, err := ParseRecords(file)
	if err != nil {
		return nil, fmt.Errorf("dataset parse failed: %w", err)
	}
	report.Parsed = parsed.Parsed
	report.Skipped = parsed.Skipped

	identities, err := p.store.IdentityProjection(ctx)
	if err != nil {
		return nil, err
	}

	inserts, updates := p.reconcile(parsed.Printings, identities, report)

	inserted, err := p.store.BulkInsert(ctx, inserts)
	if err != nil {
		return nil, fmt.Errorf("insert phase failed: %w", err)
	}
	report.Inserted = inserted

	updated, err := p.store.BulkUpdate(ctx, updates)
	if err != nil {
		return nil, fmt.Errorf("update phase failed: %w", err)
	}
	report.Updated = updated

	if p.mirror != nil {
		written := make([]*models.CardPrinting, 0, len(inserts)+len(updates))
		written = append(written, inserts...)
		written = append(written, updates...)
		p.mirror.MirrorPrintings(ctx, written)
	}

	stats, err := p.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	report.Stats = stats
	report.FinishedAt = time.Now()

	slog.Info("Catalog sync finished",
		slog.String("type", "sync"),
		slog.String("run_id", report.RunID),
		slog.Int("parsed", report.Parsed),
		slog.Int("inserted", report.Inserted),
		slog.Int("updated", report.Updated),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("total_stored", stats.TotalStored),
		slog.Int("distinct_groups", stats.DistinctGroups),
		slog.Int("multi_faced", stats.MultiFaced),
		slog.Int("with_finishes", stats.WithFinishes),
		slog.Int("arena_linked", stats.ArenaLinked),
		slog.Int("mtgo_linked", stats.MTGOLinked),
		slog.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)

	if p.runs != nil {
		if err := p.runs.Create(ctx, report.toSyncRun()); err != nil {
			slog.Warn("Failed to persist sync run",
				slog.String("type", "sync"),
				slog.String("run_id", report.RunID),
				slog.Any("error", err),
			)
		}
	}

	for _, fn := range p.onComplete {
		fn()
	}

	return report, nil
}

// reconcile partitions the parsed printings into inserts and updates.
// Records repeating a key already seen in this run are skipped so one
// defective dataset cannot turn into a write-stage uniqueness violation.
func (p *Pipeline) reconcile(printings []*models.CardPrinting, identities []models.PrintingIdentity, report *SyncReport) (inserts, updates []*models.CardPrinting) {
	reconciler := NewReconciler(identities)

	seenScryfallIDs := make(map[string]bool, len(printings))
	seenSetNumbers := make(map[setNumberKey]bool, len(printings))

	for _, printing := range printings {
		key := setNumberKey{printing.SetCode, printing.CollectorNumber}
		if seenScryfallIDs[printing.ScryfallID] || seenSetNumbers[key] {
			report.Skipped = append(report.Skipped, SkippedRecord{
				Name:       printing.Name,
				ScryfallID: printing.ScryfallID,
				Reason:     "duplicate identity within dataset",
			})
			continue
		}
		seenScryfallIDs[printing.ScryfallID] = true
		seenSetNumbers[key] = true

		match := reconciler.Resolve(printing)
		switch match.Kind {
		case MatchNew:
			inserts = append(inserts, printing)
		case MatchByScryfallID:
			report.MatchedByID++
			updates = append(updates, printing)
		case MatchBySetNumber:
			report.MatchedBySetNr++
			updates = append(updates, printing)
		}
	}

	return inserts, updates
}

func (r *SyncReport) toSyncRun() *models.SyncRun {
	run := &models.SyncRun{
		ID:         r.RunID,
		Dataset:    r.Dataset,
		Refreshed:  r.Refreshed,
		Parsed:     r.Parsed,
		Inserted:   r.Inserted,
		Updated:    r.Updated,
		Skipped:    len(r.Skipped),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if r.Stats != nil {
		run.TotalStored = r.Stats.TotalStored
		run.DistinctGroups = r.Stats.DistinctGroups
		run.MultiFaced = r.Stats.MultiFaced
		run.WithFinishes = r.Stats.WithFinishes
		run.ArenaLinked = r.Stats.ArenaLinked
		run.MTGOLinked = r.Stats.MTGOLinked
	}
	return run
}
