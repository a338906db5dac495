// Package main is the entry point for the CropDesk server. It loads
// configuration, connects to optional backing services, sets up routing,
// and starts the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cropdesk/internal/cache"
	"cropdesk/internal/codec"
	"cropdesk/internal/config"
	"cropdesk/internal/database"
	"cropdesk/internal/editor"
	"cropdesk/internal/handlers"
	"cropdesk/internal/raster"
	"cropdesk/internal/router"
	"cropdesk/internal/storage"
	"cropdesk/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Crop pipeline: resampling kernel and output encoder.
	quality, err := raster.ParseQuality(cfg.Resampling)
	if err != nil {
		slog.Error("invalid resampling setting", "error", err)
		os.Exit(1)
	}
	enc, err := codec.ForName(cfg.EncoderName, cfg.JPEGQuality)
	if err != nil {
		slog.Error("invalid encoder setting", "error", err)
		os.Exit(1)
	}

	// PostgreSQL crop history (optional — empty host disables it).
	var history editor.History
	var historyStore *store.SavedCropStore
	if cfg.HistoryEnabled() {
		db, err := database.Connect(cfg.DSN())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		historyStore = store.NewSavedCropStore(db)
		history = historyStore
	} else {
		slog.Warn("postgres not configured — crop history disabled")
	}

	// Valkey preview store (optional — falls back to process memory).
	var previews editor.Previews
	if cfg.ValkeyEnabled() {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		previews = cache.NewPreviewCache(valkeyClient, cache.DefaultPreviewTTL)
	} else {
		slog.Warn("valkey not configured — previews held in process memory")
		previews = cache.NewMemoryPreviews()
	}

	// S3-compatible export storage (optional — app works without it).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"bucket", storageClient.Bucket(),
		)
	} else {
		slog.Warn("s3 storage not configured — export uploads disabled")
	}

	// A typed-nil *storage.Client must not reach the interface field.
	var archive editor.Archiver
	if storageClient != nil {
		archive = storageClient
	}

	ed := editor.New(enc, quality, previews, history, archive)
	api := handlers.NewAPI(ed, previews, storageClient, historyStore, cfg.ExportPrefix)

	// Set up the Chi router with all middleware and routes.
	r := router.New(api, cfg.APIKeyHash, cfg.UploadRateLimit)

	// Create the HTTP server with sensible timeouts. WriteTimeout must
	// accommodate large export bundles and CatmullRom rasterization.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
