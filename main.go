package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/deckvault/deckvault/catalog"
	"github.com/deckvault/deckvault/catalog/database"
	"github.com/deckvault/deckvault/catalog/database/repositories"
	"github.com/deckvault/deckvault/catalog/ingest"
	"github.com/deckvault/deckvault/catalog/logger"
	"github.com/deckvault/deckvault/catalog/scryfall"
	"github.com/deckvault/deckvault/catalog/search"
	"github.com/deckvault/deckvault/catalog/services"
	"github.com/deckvault/deckvault/catalog/web"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	shouldSync := flag.Bool("sync", false, "Run a catalog sync on startup")
	shouldRefresh := flag.Bool("refresh", false, "Force a fresh dataset download for the startup sync")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := catalog.LoadConfig(*path)
	if err != nil {
		slog.SetDefault(slog.New(logger.NewHandler("DeckVault", slog.LevelInfo)))
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	customHandler := logger.NewHandler("DeckVault", cfg.Log.Level)
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting DeckVault catalog service",
		slog.String("version", version),
		slog.String("commit", commit))

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	db, err := database.New(ctx, dbConfig)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	defer db.Close()

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	printingRepo := repositories.NewPrintingRepository(db.BunDB())
	runRepo := repositories.NewSyncRunRepository(db.BunDB())

	searchService := search.NewService(printingRepo, cfg.HTTP.DefaultPageSize, cfg.HTTP.MaxPageSize)

	client := scryfall.NewClient(cfg.Scryfall.BaseURL, cfg.Scryfall.CacheDir)

	pipeline := ingest.NewPipeline(client, printingRepo, filepath.Join(cfg.Scryfall.CacheDir, "sync.lock"))
	pipeline.SetRunRecorder(runRepo)
	pipeline.OnComplete(searchService.Invalidate)

	if cfg.Mirror.Enabled {
		mirror := services.NewMirrorService(
			cfg.Mirror.Key,
			cfg.Mirror.Secret,
			cfg.Mirror.Region,
			cfg.Mirror.Bucket,
			cfg.Mirror.ArtRoot,
			cfg.Mirror.Parallelism,
		)
		pipeline.SetMirror(mirror)
		slog.Info("Artwork mirror enabled",
			slog.String("bucket", cfg.Mirror.Bucket),
			slog.String("region", cfg.Mirror.Region))
	}

	if *shouldSync {
		slog.Info("Running startup catalog sync",
			slog.String("type", "sync"),
			slog.String("dataset", cfg.Sync.Dataset),
			slog.Bool("refresh", *shouldRefresh))

		syncCtx, syncCancel := context.WithTimeout(context.Background(), 2*time.Hour)
		report, err := pipeline.Run(syncCtx, cfg.Sync.Dataset, *shouldRefresh)
		syncCancel()
		if err != nil {
			slog.Error("Startup sync failed", slog.Any("error", err))
			os.Exit(-1)
		}
		slog.Info("Startup sync complete",
			slog.String("run_id", report.RunID),
			slog.Int("inserted", report.Inserted),
			slog.Int("updated", report.Updated),
			slog.Int("skipped", len(report.Skipped)))
	}

	handlers := &web.Handlers{
		Search:    searchService,
		Printings: printingRepo,
		Runs:      runRepo,
		Syncer:    pipeline,
		DB:        db,
		Dataset:   cfg.Sync.Dataset,
		Version:   version,
	}

	app := web.NewApp(handlers)

	go func() {
		slog.Info("Starting HTTP server", slog.String("addr", cfg.HTTP.Addr))
		if err := app.Listen(cfg.HTTP.Addr); err != nil {
			slog.Error("HTTP server failed", slog.Any("error", err))
			os.Exit(-1)
		}
	}()

	slog.Info("Catalog service is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s

	slog.Info("Shutting down...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("HTTP shutdown failed", slog.Any("error", err))
	}
}
