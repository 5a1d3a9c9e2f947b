package search

import (
	"context"

	"github.com/deckvault/deckvault/catalog/database/models"
	"github.com/deckvault/deckvault/catalog/database/repositories"
)

// Repository is the slice of the printing repository the search engine
// reads through.
type Repository interface {
	FindMatching(ctx context.Context, filters repositories.SearchFilters) ([]*models.CardPrinting, error)
	GetByOracleIDs(ctx context.Context, oracleIDs []string) ([]*models.CardPrinting, error)
	DistinctNames(ctx context.Context) ([]string, error)
}
