package repositories

import (
	"context"

	"github.com/deckvault/deckvault/catalog/config"
	"github.com/deckvault/deckvault/catalog/database/models"
	"github.com/uptrace/bun"
)

type SyncRunRepository interface {
	Create(ctx context.Context, run *models.SyncRun) error
	ListRecent(ctx context.Context, limit int) ([]*models.SyncRun, error)
}

type syncRunRepository struct {
	db *bun.DB
}

func NewSyncRunRepository(db *bun.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

func (r *syncRunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(run).
		Exec(ctx)

	return err
}

func (r *syncRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.SyncRun, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DefaultQueryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	var runs []*models.SyncRun
	err := r.db.NewSelect().
		Model(&runs).
		Order("started_at DESC").
		Limit(limit).
		Scan(ctx)

	return runs, err
}
