package round

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	roundservice "github.com/Black-And-White-Club/scorecard/app/modules/round/application"
	roundevents "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/events"
	roundapi "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/api"
	"github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/connectivity"
	roundhandlers "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/handlers"
	roundqueue "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/queue"
	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
	rounddb "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/repositories"
	roundrouter "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/router"
	roundutil "github.com/Black-And-White-Club/scorecard/app/modules/round/utils"
	"github.com/Black-And-White-Club/scorecard/config"
	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"github.com/Black-And-White-Club/scorecard/pkg/eventbus"
	"github.com/Black-And-White-Club/scorecard/pkg/jwt"
	"github.com/Black-And-White-Club/scorecard/pkg/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

// Module represents the round module.
type Module struct {
	config      *config.Config
	Service     roundservice.Service
	eventBus    eventbus.EventBus
	roundRouter *roundrouter.RoundRouter
	probe       *connectivity.Probe
	queue       *roundqueue.Service
	feed        *roundapi.Feed
	cancelFunc  context.CancelFunc
	logger      *slog.Logger
}

// NewModule wires the round engine: store, remote gateway, lifecycle
// handlers, the optional reconcile queue and the HTTP surface.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	eventBus eventbus.EventBus,
	router *message.Router,
	httpRouter chi.Router,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "Initializing round module")

	var validator jwt.Service
	if cfg.JWT.Secret != "" {
		validator = jwt.NewService(cfg.JWT.Secret, cfg.JWT.DefaultTTL)
	}

	gateway, probe, err := newRemote(cfg, validator, logger)
	if err != nil {
		return nil, err
	}
	var network connectivity.NetworkMonitor = connectivity.NewStatic(false)
	if probe != nil {
		network = probe
	}

	var clock roundutil.Clock = roundutil.RealClock{}
	if anchor, ok := cfg.Anchor(); ok {
		clock = roundutil.NewAnchorClock(anchor)
		logger.WarnContext(ctx, "Round date anchored", attr.String("date", cfg.Sync.AnchorDate))
	}
	dates := roundutil.NewDateProvider(clock, cfg.Location())
	service := roundservice.NewRoundService(
		rounddb.NewRepository(db),
		gateway,
		network,
		dates,
		eventBus,
		logger,
		obs.Metrics,
		tracer,
		db,
	)

	handlers := roundhandlers.NewRoundHandlers(service, logger, tracer)
	roundRouter := roundrouter.NewRoundRouter(logger, router, eventBus, eventBus, tracer, obs.Registry)
	if err := roundRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure round router: %w", err)
	}

	var queue *roundqueue.Service
	if cfg.Store.Driver == "postgres" {
		queue, err = roundqueue.NewService(ctx, db, logger, cfg.Store.DSN, cfg.Sync.ReconcileInterval, obs.Metrics, service)
		if err != nil {
			return nil, fmt.Errorf("failed to create reconcile queue: %w", err)
		}
	}

	feed := roundapi.NewFeed(cfg.HTTP.AllowedOrigins, logger)
	if httpRouter != nil {
		var jobs roundapi.ReconcileScheduler
		if queue != nil {
			jobs = queue
		}
		api := roundapi.NewHTTPHandlers(service, jobs, logger, tracer)
		limiter := roundapi.NewSessionRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.Burst)

		httpRouter.Group(func(r chi.Router) {
			r.Use(roundapi.CORSMiddleware(cfg.HTTP.AllowedOrigins))
			if validator != nil {
				r.Use(roundapi.BearerAuthMiddleware(validator))
			}
			r.Use(roundapi.RateLimitMiddleware(limiter))
			r.Route("/api/rounds", api.Routes)
			r.Handle("/ws/rounds", feed)
		})
	}

	return &Module{
		config:      cfg,
		Service:     service,
		eventBus:    eventBus,
		roundRouter: roundRouter,
		probe:       probe,
		queue:       queue,
		feed:        feed,
		logger:      logger,
	}, nil
}

func newRemote(cfg *config.Config, validator jwt.Service, logger *slog.Logger) (roundremote.Gateway, *connectivity.Probe, error) {
	if cfg.Remote.BaseURL == "" {
		logger.Warn("No remote base url configured; rounds stay local")
		return nil, nil, nil
	}

	var sessions roundremote.SessionProvider = roundremote.StaticSessionProvider{
		S: roundremote.Session{ClubID: cfg.Sync.ClubID, AccessToken: cfg.Remote.Token},
	}
	if validator != nil {
		sessions = roundremote.NewTokenSessionProvider(validator, cfg.Remote.Token)
	}

	client, err := roundremote.NewClient(roundremote.Config{
		BaseURL:   cfg.Remote.BaseURL,
		Timeout:   cfg.Remote.Timeout,
		RateLimit: cfg.Remote.RateLimit,
		Burst:     cfg.Remote.Burst,
	}, sessions, nil, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create remote client: %w", err)
	}

	probe, err := connectivity.NewProbe(cfg.Remote.BaseURL, 2*time.Second, 10*time.Second, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create network probe: %w", err)
	}
	return client, probe, nil
}

// Run reconciles once at startup, then keeps the queue, probe and feed going
// until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting round module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	m.Service.ReconcileActiveRound(ctx, roundservice.TriggerResume)

	if m.queue != nil {
		if err := m.queue.Start(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Failed to start reconcile queue", attr.Error(err))
		}
	}

	if m.probe != nil {
		m.probe.OnChange(func(available bool) {
			if available {
				m.publishLifecycle(ctx, roundevents.NetworkRestoredV1, "probe")
			}
		})
		go m.probe.Watch(ctx, m.config.Sync.ProbeInterval)
	}

	go func() {
		if err := m.feed.Run(ctx, m.eventBus, roundapi.FeedTopicsFor(m.config.Sync.ClubID)); err != nil {
			m.logger.ErrorContext(ctx, "Round feed stopped", attr.Error(err))
		}
	}()

	<-ctx.Done()
	m.logger.Info("Round module goroutine stopped")
}

func (m *Module) publishLifecycle(ctx context.Context, topic, reason string) {
	msg, err := eventbus.NewMessage(ctx, &roundevents.LifecyclePayloadV1{
		Reason:     reason,
		OccurredAt: time.Now().UnixMilli(),
	})
	if err != nil {
		m.logger.WarnContext(ctx, "Failed to build lifecycle event", attr.Error(err))
		return
	}
	if err := m.eventBus.Publish(topic, msg); err != nil {
		m.logger.WarnContext(ctx, "Failed to publish lifecycle event", attr.String("topic", topic), attr.Error(err))
	}
}

func (m *Module) Close() error {
	m.logger.Info("Stopping round module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.queue != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.queue.Stop(stopCtx); err != nil {
			m.logger.Error("Failed to stop reconcile queue", attr.Error(err))
		}
	}

	if m.roundRouter != nil {
		if err := m.roundRouter.Close(); err != nil {
			return fmt.Errorf("error closing round router: %w", err)
		}
	}

	m.logger.Info("Round module stopped")
	return nil
}
