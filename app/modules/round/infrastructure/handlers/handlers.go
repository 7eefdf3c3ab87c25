package roundhandlers

import (
	"context"
	"log/slog"

	roundservice "github.com/Black-And-White-Club/scorecard/app/modules/round/application"
	roundevents "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/events"
	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"github.com/Black-And-White-Club/scorecard/pkg/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// RoundHandlers implements the Handlers interface.
type RoundHandlers struct {
	service roundservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewRoundHandlers creates a new RoundHandlers.
func NewRoundHandlers(service roundservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("roundhandlers")
	}
	return &RoundHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleAppResumed reconciles the active round when the app returns to the foreground.
func (h *RoundHandlers) HandleAppResumed(ctx context.Context, payload *roundevents.LifecyclePayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "RoundHandlers.HandleAppResumed")
	defer span.End()

	return h.reconcile(ctx, roundservice.TriggerResume, payload), nil
}

// HandleNetworkRestored reconciles the active round once connectivity returns.
func (h *RoundHandlers) HandleNetworkRestored(ctx context.Context, payload *roundevents.LifecyclePayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "RoundHandlers.HandleNetworkRestored")
	defer span.End()

	return h.reconcile(ctx, roundservice.TriggerNetworkRestored, payload), nil
}

func (h *RoundHandlers) reconcile(ctx context.Context, trigger string, payload *roundevents.LifecyclePayloadV1) []handlerwrapper.Result {
	h.logger.InfoContext(ctx, "Lifecycle trigger received",
		attr.ExtractCorrelationID(ctx),
		attr.String("trigger", trigger),
		attr.String("reason", payload.Reason),
	)

	synced := 0
	if h.service.ReconcileActiveRound(ctx, trigger) {
		synced = 1
	}

	return []handlerwrapper.Result{{
		Topic: roundevents.ReconcileCompletedV1,
		Payload: &roundevents.ReconcileCompletedPayloadV1{
			Trigger: trigger,
			Synced:  synced,
		},
	}}
}
