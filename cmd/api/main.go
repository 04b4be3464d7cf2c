package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/ymaps2gpx/internal/adapters/elevation"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/fetcher"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/gpxenc"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/http"
	natsadapter "github.com/samirrijal/ymaps2gpx/internal/adapters/nats"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/postgres"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/valkey"
	"github.com/samirrijal/ymaps2gpx/internal/core/extract"
	"github.com/samirrijal/ymaps2gpx/internal/core/ports"
	"github.com/samirrijal/ymaps2gpx/internal/core/synth"
	"github.com/samirrijal/ymaps2gpx/internal/core/usecases"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/config"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/logging"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/metrics"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("ymaps2gpx-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{Version: version}

	// Database (optional: conversion history)
	var conversions ports.ConversionRepository
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		deps.DB = db
		conversions = postgres.NewConversionRepo(db)
	}

	// Cache (optional: shared elevation cache)
	var shared ports.CacheService
	if cfg.Valkey.Enabled {
		cache, err := valkey.New(cfg.Valkey.Addr, "ymaps2gpx:")
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer cache.Close()
			deps.Cache = cache
			shared = cache
		}
	}

	// NATS (optional: events, merge jobs, WebSocket relay)
	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			events = pub
			deps.Merges = pub
		}

		natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
			deps.NATS = natsConn
		}
	}

	// Elevation
	var elevations ports.ElevationService
	if cfg.Elevation.Enabled {
		client, err := elevation.New(elevation.Config{
			BaseURL:   cfg.Elevation.BaseURL,
			Timeout:   time.Duration(cfg.Elevation.Timeout) * time.Second,
			BatchSize: cfg.Elevation.BatchSize,
			CacheSize: cfg.Elevation.CacheSize,
			CacheTTL:  cfg.Elevation.CacheTTL,
		}, shared)
		if err != nil {
			log.Fatalf("elevation: %v", err)
		}
		elevations = client
	}

	shape, err := synth.ParseShape(cfg.Conversion.DefaultShape)
	if err != nil {
		log.Fatalf("conversion.default_shape: %v", err)
	}
	deps.DefaultShape = shape

	// Use cases
	pages := fetcher.New(fetcher.Config{
		UserAgent:    cfg.Fetcher.UserAgent,
		Timeout:      time.Duration(cfg.Fetcher.Timeout) * time.Second,
		MaxBodyBytes: cfg.Fetcher.MaxBodyMB << 20,
		MaxRedirects: cfg.Fetcher.MaxRedirects,
	})
	extractor := extract.New(
		extract.WithHelpURL(cfg.Conversion.HelpURL),
		extract.WithObserver(metrics.ObserveExtraction),
	)
	deps.Conversions = usecases.NewConversionService(
		pages,
		gpxenc.New(cfg.Conversion.Creator),
		conversions,
		events,
		extractor,
		synth.New(elevations),
		cfg.Conversion.SummaryLimit,
	)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitKB * 1024, // state documents can be several MB
		AppName:      "ymaps2gpx API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		ExposeHeaders:    "Content-Disposition, X-Conversion-ID, X-Track-Summary",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Conversions in flight get as long as a slow page download
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
