package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/deckvault/deckvault/catalog/config"
	"github.com/sahilm/fuzzy"
)

const namesCacheKey = "##distinct_names"

// SuggestNames returns up to limit fuzzy-matched canonical card names for
// an autocomplete prompt. This is a convenience surface; it deliberately
// uses different matching rules than Search, which stays containment-based.
func (s *Service) SuggestNames(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "q", Message: "query is required"}
	}
	if limit <= 0 || limit > config.MaxSuggestions {
		limit = config.MaxSuggestions
	}

	names, err := s.distinctNames(ctx)
	if err != nil {
		return nil, err
	}

	ranked := fuzzy.Find(query, names)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	suggestions := make([]string, 0, len(ranked))
	for _, match := range ranked {
		suggestions = append(suggestions, match.Str)
	}
	return suggestions, nil
}

func (s *Service) distinctNames(ctx context.Context) ([]string, error) {
	if cached, ok := s.cache.Get(namesCacheKey); ok {
		return cached.([]string), nil
	}

	names, err := s.repo.DistinctNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load card names: %w", err)
	}

	s.cache.Add(namesCacheKey, names)
	return names, nil
}
