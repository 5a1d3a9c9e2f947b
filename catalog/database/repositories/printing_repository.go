package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deckvault/deckvault/catalog/config"
	"github.com/deckvault/deckvault/catalog/database/models"
	"github.com/uptrace/bun"
)

const (
	maxBatchSize = config.MaxBatchSize
)

var ErrPrintingNotFound = errors.New("printing not found")

type PrintingRepository interface {
	Create(ctx context.Context, printing *models.CardPrinting) error
	GetByID(ctx context.Context, id int64) (*models.CardPrinting, error)
	GetByScryfallID(ctx context.Context, scryfallID string) (*models.CardPrinting, error)
	IdentityProjection(ctx context.Context) ([]models.PrintingIdentity, error)
	BulkInsert(ctx context.Context, printings []*models.CardPrinting) (int, error)
	BulkUpdate(ctx context.Context, printings []*models.CardPrinting) (int, error)
	FindMatching(ctx context.Context, filters SearchFilters) ([]*models.CardPrinting, error)
	GetByOracleIDs(ctx context.Context, oracleIDs []string) ([]*models.CardPrinting, error)
	DistinctNames(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*models.CatalogStats, error)
	Count(ctx context.Context) (int64, error)
}

type printingRepository struct {
	db *bun.DB
}

func NewPrintingRepository(db *bun.DB) PrintingRepository {
	return &printingRepository{db: db}
}

func (r *printingRepository) Create(ctx context.Context, printing *models.CardPrinting) error {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	if err := printing.Validate(); err != nil {
		return err
	}

	printing.CreatedAt = time.Now()
	printing.UpdatedAt = time.Now()

	_, err := r.db.NewInsert().
		Model(printing).
		Returning("id").
		Exec(ctx)

	return err
}

func (r *printingRepository) GetByID(ctx context.Context, id int64) (*models.CardPrinting, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	printing := new(models.CardPrinting)
	err := r.db.NewSelect().
		Model(printing).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPrintingNotFound
	}
	return printing, err
}

func (r *printingRepository) GetByScryfallID(ctx context.Context, scryfallID string) (*models.CardPrinting, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	printing := new(models.CardPrinting)
	err := r.db.NewSelect().
		Model(printing).
		Where("scryfall_id = ?", scryfallID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPrintingNotFound
	}
	return printing, err
}

// IdentityProjection loads the natural keys of every stored printing in one
// pass. Reconciliation runs entirely against this projection, so it only
// selects the columns an update needs to carry over.
func (r *printingRepository) IdentityProjection(ctx context.Context) ([]models.PrintingIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	var identities []models.PrintingIdentity
	err := r.db.NewSelect().
		Model((*models.CardPrinting)(nil)).
		Column("id", "scryfall_id", "set_code", "collector_number", "created_at").
		Scan(ctx, &identities)

	if err != nil {
		return nil, fmt.Errorf("failed to load identity projection: %w", err)
	}
	return identities, nil
}

// BulkInsert writes brand-new printings in batches. The store assigns ids;
// a uniqueness violation here means reconciliation misclassified a record
// and is returned as-is so the caller can abort.
func (r *printingRepository) BulkInsert(ctx context.Context, printings []*models.CardPrinting) (int, error) {
	if len(printings) == 0 {
		return 0, nil
	}

	now := time.Now()
	totalInserted := 0

	for i := 0; i < len(printings); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(printings) {
			end = len(printings)
		}
		batch := printings[i:end]

		for _, printing := range batch {
			printing.CreatedAt = now
			printing.UpdatedAt = now
		}

		batchCtx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
		res, err := r.db.NewInsert().
			Model(&batch).
			Exec(batchCtx)
		cancel()

		if err != nil {
			return totalInserted, fmt.Errorf("insert batch %d-%d: %w", i, end, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return totalInserted, err
		}
		totalInserted += int(affected)
	}

	return totalInserted, nil
}

// BulkUpdate rewrites existing printings in batches, keyed on the stored id.
// created_at is deliberately absent from the SET list so the original
// insertion time survives every re-sync.
func (r *printingRepository) BulkUpdate(ctx context.Context, printings []*models.CardPrinting) (int, error) {
	if len(printings) == 0 {
		return 0, nil
	}

	now := time.Now()
	totalUpdated := 0

	for i := 0; i < len(printings); i += maxBatchSize {
		end := i + maxBatchSize
		if end > len(printings) {
			end = len(printings)
		}
		batch := printings[i:end]

		for _, printing := range batch {
			printing.UpdatedAt = now
		}

		batchCtx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
		res, err := r.db.NewInsert().
			Model(&batch).
			On("CONFLICT (id) DO UPDATE").
			Set("scryfall_id = EXCLUDED.scryfall_id").
			Set("oracle_id = EXCLUDED.oracle_id").
			Set("name = EXCLUDED.name").
			Set("flavor_name = EXCLUDED.flavor_name").
			Set("set_code = EXCLUDED.set_code").
			Set("collector_number = EXCLUDED.collector_number").
			Set("rarity = EXCLUDED.rarity").
			Set("mana_cost = EXCLUDED.mana_cost").
			Set("mana_value = EXCLUDED.mana_value").
			Set("type_line = EXCLUDED.type_line").
			Set("oracle_text = EXCLUDED.oracle_text").
			Set("power = EXCLUDED.power").
			Set("toughness = EXCLUDED.toughness").
			Set("colors = EXCLUDED.colors").
			Set("finishes = EXCLUDED.finishes").
			Set("legalities = EXCLUDED.legalities").
			Set("image_uris = EXCLUDED.image_uris").
			Set("faces = EXCLUDED.faces").
			Set("arena_id = EXCLUDED.arena_id").
			Set("mtgo_id = EXCLUDED.mtgo_id").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(batchCtx)
		cancel()

		if err != nil {
			return totalUpdated, fmt.Errorf("update batch %d-%d: %w", i, end, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return totalUpdated, err
		}
		totalUpdated += int(affected)
	}

	return totalUpdated, nil
}

// FindMatching returns every printing matching the filters, ordered by
// name, set code and collector number so pagination upstream is stable.
func (r *printingRepository) FindMatching(ctx context.Context, filters SearchFilters) ([]*models.CardPrinting, error) {
	ctx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
	defer cancel()

	var printings []*models.CardPrinting
	q := r.db.NewSelect().Model(&printings)

	if filters.Name != "" {
		pattern := "%" + strings.ToLower(filters.Name) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(name) LIKE ?", pattern).
				WhereOr("LOWER(flavor_name) LIKE ?", pattern)
		})
	}
	if filters.SetCode != "" {
		q = q.Where("LOWER(set_code) = LOWER(?)", filters.SetCode)
	}
	if filters.TypeLine != "" {
		q = q.Where("LOWER(type_line) LIKE ?", "%"+strings.ToLower(filters.TypeLine)+"%")
	}

	err := q.
		Order("name ASC").
		Order("set_code ASC").
		Order("collector_number ASC").
		Scan(ctx)

	return printings, err
}

// GetByOracleIDs loads all printings belonging to the given groups, in the
// same stable order FindMatching uses.
func (r *printingRepository) GetByOracleIDs(ctx context.Context, oracleIDs []string) ([]*models.CardPrinting, error) {
	if len(oracleIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
	defer cancel()

	var printings []*models.CardPrinting
	err := r.db.NewSelect().
		Model(&printings).
		Where("oracle_id IN (?)", bun.In(oracleIDs)).
		Order("name ASC").
		Order("set_code ASC").
		Order("collector_number ASC").
		Scan(ctx)

	return printings, err
}

func (r *printingRepository) DistinctNames(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.SearchTimeout)
	defer cancel()

	var names []string
	err := r.db.NewSelect().
		Model((*models.CardPrinting)(nil)).
		ColumnExpr("DISTINCT name").
		OrderExpr("name ASC").
		Scan(ctx, &names)

	return names, err
}

func (r *printingRepository) Stats(ctx context.Context) (*models.CatalogStats, error) {
	ctx, cancel := context.WithTimeout(ctx, config.StatsQueryTimeout)
	defer cancel()

	stats := new(models.CatalogStats)
	err := r.db.NewSelect().
		Model((*models.CardPrinting)(nil)).
		ColumnExpr("COUNT(*) AS total_stored").
		ColumnExpr("COUNT(DISTINCT oracle_id) AS distinct_groups").
		ColumnExpr("COUNT(*) FILTER (WHERE faces IS NOT NULL) AS multi_faced").
		ColumnExpr("COUNT(*) FILTER (WHERE finishes IS NOT NULL AND jsonb_array_length(finishes) > 0) AS with_finishes").
		ColumnExpr("COUNT(*) FILTER (WHERE arena_id IS NOT NULL) AS arena_linked").
		ColumnExpr("COUNT(*) FILTER (WHERE mtgo_id IS NOT NULL) AS mtgo_linked").
		Scan(ctx, stats)

	if err != nil {
		return nil, fmt.Errorf("failed to compute catalog stats: %w", err)
	}
	return stats, nil
}

func (r *printingRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, config.StatsQueryTimeout)
	defer cancel()

	count, err := r.db.NewSelect().
		Model((*models.CardPrinting)(nil)).
		Count(ctx)

	return int64(count), err
}
