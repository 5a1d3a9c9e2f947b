package web

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/deckvault/deckvault/catalog/database/models"
	"github.com/deckvault/deckvault/catalog/database/repositories"
	"github.com/deckvault/deckvault/catalog/ingest"
	"github.com/deckvault/deckvault/catalog/scryfall"
	"github.com/deckvault/deckvault/catalog/search"
)

// PrintingGetter loads single printings for the detail endpoint.
type PrintingGetter interface {
	GetByID(ctx context.Context, id int64) (*models.CardPrinting, error)
}

// RunLister exposes recent sync run reports.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]*models.SyncRun, error)
}

// Syncer triggers a catalog ingestion run.
type Syncer interface {
	Run(ctx context.Context, dataset string, refresh bool) (*ingest.SyncReport, error)
}

// Pinger checks storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers wires the catalog services into the HTTP surface.
type Handlers struct {
	Search    *search.Service
	Printings PrintingGetter
	Runs      RunLister
	Syncer    Syncer
	DB        Pinger
	Dataset   string
	Version   string
}

// SearchCards handles GET /api/cards/search.
func (h *Handlers) SearchCards(c *fiber.Ctx) error {
	// Deduplication is the default mode; clients opt out explicitly.
	req := search.Request{
		Name:        c.Query("name"),
		SetCode:     c.Query("set_code"),
		TypeLine:    c.Query("type_line"),
		Deduplicate: c.QueryBool("deduplicate", true),
		Page:        c.QueryInt("page"),
		PageSize:    c.QueryInt("page_size"),
	}

	resp, err := h.Search.Search(c.Context(), req)
	if err != nil {
		var verr *search.ValidationError
		if errors.As(err, &verr) {
			return SendUnprocessable(c, "invalid search request", map[string]string{verr.Field: verr.Message})
		}
		slog.Error("Search failed", slog.String("type", "http"), slog.Any("error", err))
		return SendInternalError(c, "search failed")
	}

	return SendSuccess(c, resp, "")
}

// SuggestNames handles GET /api/cards/suggest.
func (h *Handlers) SuggestNames(c *fiber.Ctx) error {
	suggestions, err := h.Search.SuggestNames(c.Context(), c.Query("q"), c.QueryInt("limit"))
	if err != nil {
		var verr *search.ValidationError
		if errors.As(err, &verr) {
			return SendUnprocessable(c, "invalid suggestion request", map[string]string{verr.Field: verr.Message})
		}
		slog.Error("Suggestion lookup failed", slog.String("type", "http"), slog.Any("error", err))
		return SendInternalError(c, "suggestion lookup failed")
	}

	return SendSuccess(c, suggestions, "")
}

// GetPrinting handles GET /api/cards/:id.
func (h *Handlers) GetPrinting(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return SendBadRequest(c, "id must be a positive integer")
	}

	printing, err := h.Printings.GetByID(c.Context(), int64(id))
	if err != nil {
		if errors.Is(err, repositories.ErrPrintingNotFound) {
			return SendNotFound(c, "printing not found")
		}
		slog.Error("Printing lookup failed", slog.String("type", "http"), slog.Any("error", err))
		return SendInternalError(c, "printing lookup failed")
	}

	return SendSuccess(c, printing, "")
}

type syncRequest struct {
	Dataset string `json:"dataset"`
	Refresh bool   `json:"refresh"`
}

// TriggerSync handles POST /api/sync. The run executes synchronously; a
// concurrent run answers 409.
func (h *Handlers) TriggerSync(c *fiber.Ctx) error {
	var req syncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return SendBadRequest(c, "malformed request body")
		}
	}
	if req.Dataset == "" {
		req.Dataset = h.Dataset
	}

	report, err := h.Syncer.Run(c.Context(), req.Dataset, req.Refresh)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrSyncInProgress):
			return SendConflict(c, err.Error())
		case errors.Is(err, scryfall.ErrDatasetNotFound):
			return SendUnprocessable(c, "unknown dataset", map[string]string{"dataset": req.Dataset})
		default:
			slog.Error("Sync run failed", slog.String("type", "http"), slog.Any("error", err))
			return SendInternalError(c, "sync run failed")
		}
	}

	return SendSuccess(c, report, "catalog sync completed")
}

// ListSyncRuns handles GET /api/sync/runs.
func (h *Handlers) ListSyncRuns(c *fiber.Ctx) error {
	runs, err := h.Runs.ListRecent(c.Context(), c.QueryInt("limit", 20))
	if err != nil {
		slog.Error("Run listing failed", slog.String("type", "http"), slog.Any("error", err))
		return SendInternalError(c, "run listing failed")
	}

	return SendSuccess(c, runs, "")
}

// Health handles GET /api/health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	if err := h.DB.Ping(c.Context()); err != nil {
		return SendError(c, fiber.StatusServiceUnavailable, "unhealthy", "database unreachable", nil)
	}

	return SendSuccess(c, fiber.Map{
		"status":  "healthy",
		"version": h.Version,
	}, "")
}
