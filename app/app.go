package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/scorecard/app/modules/round"
	roundqueue "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/queue"
	roundrouter "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/router"
	"github.com/Black-And-White-Club/scorecard/config"
	"github.com/Black-And-White-Club/scorecard/pkg/eventbus"
	"github.com/Black-And-White-Club/scorecard/pkg/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// App holds the process wide dependencies and the round module.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Router        *message.Router
	HTTPRouter    chi.Router
	RoundModule   *round.Module
	logger        *slog.Logger
}

// NewApp opens the store, builds the event bus and wires the round module.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs, err := observability.New(config.ToObsConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Logger

	db, err := OpenDB(cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := MigrateDB(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.Store.Driver == "postgres" {
		if err := roundqueue.Migrate(ctx, cfg.Store.DSN); err != nil {
			db.Close()
			return nil, err
		}
	}

	eventBus, err := eventbus.New(eventbus.Config{NATSURL: cfg.NATS.URL, NKeySeed: cfg.NATS.NKeySeed}, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	router, err := roundrouter.NewMessageRouter(logger)
	if err != nil {
		eventBus.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}

	httpRouter := chi.NewRouter()
	httpRouter.Handle("/metrics", obs.MetricsHandler())

	roundModule, err := round.NewModule(ctx, cfg, obs, db, eventBus, router, httpRouter)
	if err != nil {
		eventBus.Close()
		db.Close()
		return nil, fmt.Errorf("failed to initialize round module: %w", err)
	}

	return &App{
		Config:        cfg,
		Observability: obs,
		DB:            db,
		EventBus:      eventBus,
		Router:        router,
		HTTPRouter:    httpRouter,
		RoundModule:   roundModule,
		logger:        logger,
	}, nil
}

// Close releases everything NewApp opened.
func (app *App) Close() error {
	var firstErr error
	if err := app.RoundModule.Close(); err != nil {
		firstErr = err
	}
	if err := app.EventBus.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := app.DB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
