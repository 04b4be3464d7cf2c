package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/ymaps2gpx/internal/adapters/elevation"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/fetcher"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/gpxenc"
	natsadapter "github.com/samirrijal/ymaps2gpx/internal/adapters/nats"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/postgres"
	"github.com/samirrijal/ymaps2gpx/internal/adapters/valkey"
	"github.com/samirrijal/ymaps2gpx/internal/core/domain"
	"github.com/samirrijal/ymaps2gpx/internal/core/extract"
	"github.com/samirrijal/ymaps2gpx/internal/core/ports"
	"github.com/samirrijal/ymaps2gpx/internal/core/synth"
	"github.com/samirrijal/ymaps2gpx/internal/core/usecases"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/config"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/logging"
	"github.com/samirrijal/ymaps2gpx/internal/pkg/metrics"
	"github.com/samirrijal/ymaps2gpx/internal/workflows"
)

func main() {
	cfg, err := config.Load("ymaps2gpx-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
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

	// Merged files are recorded and announced like any other conversion
	var conversions ports.ConversionRepository
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		conversions = postgres.NewConversionRepo(db)
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	var shared ports.CacheService
	if cfg.Valkey.Enabled {
		cache, err := valkey.New(cfg.Valkey.Addr, "ymaps2gpx:")
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer cache.Close()
			shared = cache
		}
	}

	var elevations ports.ElevationService
	if cfg.Elevation.Enabled {
		ele, err := elevation.New(elevation.Config{
			BaseURL:   cfg.Elevation.BaseURL,
			Timeout:   time.Duration(cfg.Elevation.Timeout) * time.Second,
			BatchSize: cfg.Elevation.BatchSize,
			CacheSize: cfg.Elevation.CacheSize,
			CacheTTL:  cfg.Elevation.CacheTTL,
		}, shared)
		if err != nil {
			log.Fatalf("elevation: %v", err)
		}
		elevations = ele
	}

	svc := usecases.NewConversionService(
		fetcher.New(fetcher.Config{
			UserAgent:    cfg.Fetcher.UserAgent,
			Timeout:      time.Duration(cfg.Fetcher.Timeout) * time.Second,
			MaxBodyBytes: cfg.Fetcher.MaxBodyMB << 20,
			MaxRedirects: cfg.Fetcher.MaxRedirects,
		}),
		gpxenc.New(cfg.Conversion.Creator),
		conversions,
		pub,
		extract.New(extract.WithHelpURL(cfg.Conversion.HelpURL), extract.WithObserver(metrics.ObserveExtraction)),
		synth.New(elevations),
		cfg.Conversion.SummaryLimit,
	)

	// Connect to Temporal
	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer tc.Close()

	taskQueue := cfg.Temporal.TaskQueue
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}

	// Queued merge requests become workflow runs
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeMergeRequests(ctx, func(ctx context.Context, req domain.MergeRequest) error {
		run, err := tc.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        "merge-" + uuid.NewString(),
			TaskQueue: taskQueue,
		}, workflows.MergeWorkflow, workflows.MergeInput{
			URLs:      req.URLs,
			Shape:     req.Shape,
			Elevation: req.Elevation,
		})
		if err != nil {
			slog.Error("start merge workflow", "error", err)
			return err
		}
		slog.Info("merge workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "urls", len(req.URLs))
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe merge requests: %v", err)
	}

	w := worker.New(tc, taskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.MergeWorkflow)
	w.RegisterActivity(&workflows.MergeActivities{Conversions: svc})

	slog.Info("merge worker started", "task_queue", taskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
