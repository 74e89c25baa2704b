package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kirillkom/haiku-studio/internal/config"
	"github.com/kirillkom/haiku-studio/internal/core/ports"
	"github.com/kirillkom/haiku-studio/internal/core/usecase"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/gateway/haikustore"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/queue/nats"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/haiku-studio/internal/infrastructure/resilience"
)

// Options selects the optional backends a binary needs.
type Options struct {
	// Database opens postgres and serves the storage backend use case.
	Database bool
	// Queue connects to NATS for batch requests.
	Queue bool
	// Observer receives stage and save measurements from every pipeline.
	Observer usecase.PipelineObserver
}

type App struct {
	Config config.Config

	Executor *resilience.Executor
	Blobs    ports.ObjectStorage
	Gateway  *haikustore.Client
	Queue    *nats.Queue
	Store    *usecase.StoreUseCase
	Sessions *usecase.SessionRegistry
	Batch    *usecase.BatchUseCase

	detector    ports.LanguageDetector
	composer    ports.HaikuComposer
	illustrator ports.Illustrator
	observer    usecase.PipelineObserver

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{
		Config:   cfg,
		Executor: resilience.NewExecutor(breakerConfig(cfg)),
		observer: opts.Observer,
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init blob storage: %w", err)
	}
	app.Blobs = blobs

	providers, err := newProviders(ctx, cfg, app.Executor)
	if err != nil {
		return nil, err
	}
	app.detector = usecase.NewLanguageClassifier(providers.text)
	app.composer = usecase.NewHaikuGenerator(providers.text)
	app.illustrator = usecase.NewHaikuIllustrator(providers.image, blobs)
	app.Gateway = haikustore.New(cfg.HaikuStoreURL, cfg.SaveTimeout, blobs)

	if opts.Database {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		app.closeFns = append(app.closeFns, func() { _ = db.Close() })
		if err := ensureSchema(ctx, db); err != nil {
			app.Close()
			return nil, err
		}
		app.Store = usecase.NewStoreUseCase(postgres.NewHaikuRepository(db))
	}

	var queue ports.MessageQueue
	if opts.Queue {
		q, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: app.Executor})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.Queue = q
		app.closeFns = append(app.closeFns, q.Close)
		queue = q
	}

	app.Sessions = usecase.NewSessionRegistry(app.NewPipeline, blobs, cfg.SessionTTL)
	app.Batch = usecase.NewBatchUseCase(queue, blobs, func() ports.Pipeline { return app.NewPipeline() })

	slog.Info("bootstrap_ready",
		"text_provider", cfg.TextProvider,
		"image_provider", cfg.ImageProvider,
		"blob_backend", cfg.BlobBackend,
		"database", opts.Database,
		"queue", opts.Queue,
	)
	return app, nil
}

// NewPipeline builds an independent orchestrator sharing the app's stage
// clients and gateway.
func (a *App) NewPipeline() *usecase.PipelineOrchestrator {
	return usecase.NewPipelineOrchestrator(a.detector, a.composer, a.illustrator, a.Gateway, usecase.PipelineOptions{
		StageTimeout:     a.Config.StageTimeout,
		SaveTimeout:      a.Config.SaveTimeout,
		DiscardStaleRuns: a.Config.DiscardStaleRuns,
		Observer:         a.observer,
	})
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	if err := postgres.NewHaikuRepository(db).EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func breakerConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		Enabled:      cfg.BreakerEnabled,
		MinRequests:  uint32(max(cfg.BreakerMinRequests, 0)),
		FailureRatio: cfg.BreakerFailureRatio,
		OpenTimeout:  cfg.BreakerOpenTimeout,
	}
}
