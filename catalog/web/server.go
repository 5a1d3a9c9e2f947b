package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the fiber application with middleware and routes wired.
func NewApp(h *Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "DeckVault Catalog API",
		ErrorHandler: ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(LoggingMiddleware())

	api := app.Group("/api")

	api.Get("/health", h.Health)

	cards := api.Group("/cards")
	cards.Get("/search", h.SearchCards)
	cards.Get("/suggest", h.SuggestNames)
	cards.Get("/:id", h.GetPrinting)

	api.Post("/sync", h.TriggerSync)
	api.Get("/sync/runs", h.ListSyncRuns)

	return app
}
