package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/deckvault/deckvault/catalog/config"
	"github.com/deckvault/deckvault/catalog/database/models"
	"github.com/deckvault/deckvault/catalog/database/repositories"
	lru "github.com/hashicorp/golang-lru"
)

// ValidationError rejects a malformed search request. Out-of-range values
// are never clamped into range silently.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid search request: %s: %s", e.Field, e.Message)
}

// Request is one catalog search. At least one of Name, SetCode and TypeLine
// must be set. Page is 1-based; PageSize zero means the configured default.
type Request struct {
	Name        string `json:"name"`
	SetCode     string `json:"set_code"`
	TypeLine    string `json:"type_line"`
	Deduplicate bool   `json:"deduplicate"`
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size"`
}

// Result is one printing shaped for display. The provenance fields are only
// set on deduplicated results whose group was matched through an alternate
// name rather than the canonical one.
type Result struct {
	ID              int64    `json:"id"`
	ScryfallID      string   `json:"scryfall_id"`
	OracleID        string   `json:"oracle_id"`
	Name            string   `json:"name"`
	FlavorName      string   `json:"flavor_name,omitempty"`
	SetCode         string   `json:"set_code"`
	CollectorNumber string   `json:"collector_number"`
	Rarity          string   `json:"rarity"`
	ManaCost        string   `json:"mana_cost,omitempty"`
	ManaValue       float64  `json:"mana_value"`
	TypeLine        string   `json:"type_line"`
	OracleText      string   `json:"oracle_text,omitempty"`
	Power           string   `json:"power,omitempty"`
	Toughness       string   `json:"toughness,omitempty"`
	Colors          []string `json:"colors,omitempty"`
	Finishes        []string `json:"finishes,omitempty"`
	ImageURI        string   `json:"image_uri,omitempty"`

	MatchedFlavorName string `json:"matched_flavor_name,omitempty"`
	MatchedImageURI   string `json:"matched_image_uri,omitempty"`
}

// Response is one page of search results.
type Response struct {
	Results     []Result `json:"results"`
	TotalCount  int      `json:"total_count"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	TotalPages  int      `json:"total_pages"`
	Deduplicate bool     `json:"deduplicate"`
}

// Service implements the catalog search contract over a printing
// repository: containment filtering, optional one-per-group dedup, stable
// ordering and bounded pagination, with an LRU cache over whole responses.
type Service struct {
	repo            Repository
	cache           *lru.Cache
	defaultPageSize int
	maxPageSize     int
}

func NewService(repo Repository, defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize <= 0 {
		defaultPageSize = config.DefaultPageSize
	}
	if maxPageSize <= 0 {
		maxPageSize = config.MaxPageSize
	}
	cache, _ := lru.New(config.SearchCacheSize)
	return &Service{
		repo:            repo,
		cache:           cache,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Invalidate drops every cached response. The ingestion pipeline calls this
// after each run.
func (s *Service) Invalidate() {
	s.cache.Purge()
}

func (s *Service) validate(req Request) (Request, error) {
	if strings.TrimSpace(req.Name) == "" &&
		strings.TrimSpace(req.SetCode) == "" &&
		strings.TrimSpace(req.TypeLine) == "" {
		return req, &ValidationError{Field: "filters", Message: "at least one of name, set_code or type_line is required"}
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Page < 1 {
		return req, &ValidationError{Field: "page", Message: "must be >= 1"}
	}
	if req.PageSize == 0 {
		req.PageSize = s.defaultPageSize
	}
	if req.PageSize < 1 {
		return req, &ValidationError{Field: "page_size", Message: "must be >= 1"}
	}
	if req.PageSize > s.maxPageSize {
		return req, &ValidationError{Field: "page_size", Message: fmt.Sprintf("must be <= %d", s.maxPageSize)}
	}
	return req, nil
}

func cacheKey(req Request) string {
	return fmt.Sprintf("%s|%s|%s|%t|%d|%d",
		strings.ToLower(strings.TrimSpace(req.Name)),
		strings.ToLower(strings.TrimSpace(req.SetCode)),
		strings.ToLower(strings.TrimSpace(req.TypeLine)),
		req.Deduplicate,
		req.Page,
		req.PageSize,
	)
}

// Search runs one query. Ordering is stable across identical requests: by
// name, then set code, then collector number, all ascending.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	req, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	key := cacheKey(req)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*Response).clone(), nil
	}

	matches, err := s.repo.FindMatching(ctx, repositories.SearchFilters{
		Name:     strings.TrimSpace(req.Name),
		SetCode:  strings.TrimSpace(req.SetCode),
		TypeLine: strings.TrimSpace(req.TypeLine),
	})
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}

	var results []Result
	if req.Deduplicate {
		results, err = s.deduplicate(ctx, req, matches)
		if err != nil {
			return nil, err
		}
	} else {
		results = make([]Result, 0, len(matches))
		for _, p := range matches {
			results = append(results, toResult(p))
		}
	}

	resp := paginate(results, req)
	s.cache.Add(key, resp)
	return resp.clone(), nil
}

// clone copies the response and its result slice so callers can never
// mutate the cached entry. Per-result slices (colors, finishes) stay shared.
func (r *Response) clone() *Response {
	out := *r
	out.Results = make([]Result, len(r.Results))
	copy(out.Results, r.Results)
	return &out
}

// deduplicate collapses the matches to one printing per oracle group. The
// representative is the first member without an alternate name (so promo
// renames never stand in for the whole card), falling back to the first
// member. When the representative itself does not contain the name filter,
// the alternate name and image that produced the hit are surfaced alongside.
func (s *Service) deduplicate(ctx context.Context, req Request, matches []*models.CardPrinting) ([]Result, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	var oracleIDs []string
	hitsByGroup := make(map[string][]*models.CardPrinting)
	for _, p := range matches {
		if _, seen := hitsByGroup[p.OracleID]; !seen {
			oracleIDs = append(oracleIDs, p.OracleID)
		}
		hitsByGroup[p.OracleID] = append(hitsByGroup[p.OracleID], p)
	}

	// Re-expand so representative selection considers every printing of
	// each matched group, not just the ones the filter hit.
	expanded, err := s.repo.GetByOracleIDs(ctx, oracleIDs)
	if err != nil {
		return nil, fmt.Errorf("group expansion failed: %w", err)
	}

	membersByGroup := make(map[string][]*models.CardPrinting, len(oracleIDs))
	for _, p := range expanded {
		membersByGroup[p.OracleID] = append(membersByGroup[p.OracleID], p)
	}

	nameFilter := strings.ToLower(strings.TrimSpace(req.Name))

	results := make([]Result, 0, len(oracleIDs))
	for _, oracleID := range oracleIDs {
		members := membersByGroup[oracleID]
		if len(members) == 0 {
			// Group vanished between the two queries; fall back to the hits.
			members = hitsByGroup[oracleID]
		}

		rep := members[0]
		for _, m := range members {
			if m.FlavorName == "" {
				rep = m
				break
			}
		}

		result := toResult(rep)

		if nameFilter != "" && !strings.Contains(strings.ToLower(rep.Name), nameFilter) {
			for _, hit := range hitsByGroup[oracleID] {
				if hit.FlavorName != "" && strings.Contains(strings.ToLower(hit.FlavorName), nameFilter) {
					result.MatchedFlavorName = hit.FlavorName
					result.MatchedImageURI = hit.PrimaryImage()
					break
				}
			}
		}

		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		if results[i].SetCode != results[j].SetCode {
			return results[i].SetCode < results[j].SetCode
		}
		return results[i].CollectorNumber < results[j].CollectorNumber
	})

	return results, nil
}

func paginate(results []Result, req Request) *Response {
	total := len(results)
	totalPages := (total + req.PageSize - 1) / req.PageSize

	start := (req.Page - 1) * req.PageSize
	end := start + req.PageSize
	switch {
	case start >= total:
		results = []Result{}
	case end > total:
		results = results[start:total]
	default:
		results = results[start:end]
	}

	return &Response{
		Results:     results,
		TotalCount:  total,
		Page:        req.Page,
		PageSize:    req.PageSize,
		TotalPages:  totalPages,
		Deduplicate: req.Deduplicate,
	}
}

func toResult(p *models.CardPrinting) Result {
	return Result{
		ID:              p.ID,
		ScryfallID:      p.ScryfallID,
		OracleID:        p.OracleID,
		Name:            p.Name,
		FlavorName:      p.FlavorName,
		SetCode:         p.SetCode,
		CollectorNumber: p.CollectorNumber,
		Rarity:          p.Rarity,
		ManaCost:        p.ManaCost,
		ManaValue:       p.ManaValue,
		TypeLine:        p.TypeLine,
		OracleText:      p.OracleText,
		Power:           p.Power,
		Toughness:       p.Toughness,
		Colors:          p.Colors,
		Finishes:        p.Finishes,
		ImageURI:        p.PrimaryImage(),
	}
}
