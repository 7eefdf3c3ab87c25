package roundservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	"github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/connectivity"
	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
	rounddb "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/repositories"
	roundutil "github.com/Black-And-White-Club/scorecard/app/modules/round/utils"
	"github.com/Black-And-White-Club/scorecard/app/modules/scoring"
	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"github.com/Black-And-White-Club/scorecard/pkg/eventbus"
	"github.com/Black-And-White-Club/scorecard/pkg/observability"
	"github.com/Black-And-White-Club/scorecard/pkg/results"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "RoundService"

// RoundService implements the Service interface.
type RoundService struct {
	repo      rounddb.Repository
	gateway   roundremote.Gateway
	network   connectivity.NetworkMonitor
	dates     *roundutil.DateProvider
	preview   scoring.Calculator
	publisher message.Publisher
	logger    *slog.Logger
	metrics   observability.RoundMetrics
	tracer    trace.Tracer
	db        *bun.DB
	newID     func() string
}

var _ Service = (*RoundService)(nil)

// NewRoundService creates a new RoundService. publisher, tracer and db may be nil.
func NewRoundService(
	repo rounddb.Repository,
	gateway roundremote.Gateway,
	network connectivity.NetworkMonitor,
	dates *roundutil.DateProvider,
	publisher message.Publisher,
	logger *slog.Logger,
	metrics observability.RoundMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *RoundService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	if dates == nil {
		dates = roundutil.NewDateProvider(roundutil.RealClock{}, nil)
	}
	if network == nil {
		network = connectivity.NewStatic(true)
	}
	return &RoundService{
		repo:      repo,
		gateway:   gateway,
		network:   network,
		dates:     dates,
		preview:   scoring.NewCalculator(scoring.ModeQuickPreview),
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
		newID:     uuid.NewString,
	}
}

func (s *RoundService) now() int64 {
	return roundutil.NowMillis(s.dates.Clock())
}

// publish emits a club scoped event. Failures are logged only; the local commit already happened.
func (s *RoundService) publish(ctx context.Context, topic string, round *roundtypes.Round, payload any) {
	if s.publisher == nil {
		return
	}
	msg, err := eventbus.NewMessage(ctx, payload)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to build event", attr.String("topic", topic), attr.Error(err))
		return
	}
	if round.ClubID == "" {
		err = s.publisher.Publish(topic, msg)
	} else {
		err = eventbus.PublishWithClubScope(s.publisher, topic, round.ClubID, msg)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			attr.ExtractCorrelationID(ctx),
			attr.String("topic", topic),
			attr.RoundID(round.ID),
			attr.Error(err),
		)
	}
}

// callRemote runs one gateway call. Errors and panics are logged, counted and
// reported as false; they never leave this function.
func (s *RoundService) callRemote(ctx context.Context, operation string, round *roundtypes.Round, call func(ctx context.Context) error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Panic in remote call",
				attr.ExtractCorrelationID(ctx),
				attr.String("operation", operation),
				attr.RoundID(round.ID),
				attr.Any("panic", r),
			)
			s.metrics.RecordRemoteCall(ctx, operation, "panic")
			ok = false
		}
	}()

	if s.gateway == nil {
		s.metrics.RecordRemoteCall(ctx, operation, "disabled")
		return false
	}

	if err := call(ctx); err != nil {
		kind := roundremote.KindOf(err)
		s.logger.WarnContext(ctx, "Remote sync failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operation),
			attr.RoundID(round.ID),
			attr.String("kind", kind.String()),
			attr.Error(err),
		)
		s.metrics.RecordRemoteCall(ctx, operation, kind.String())
		return false
	}
	s.metrics.RecordRemoteCall(ctx, operation, "success")
	return true
}

// online reports connectivity and counts the skipped call when offline.
func (s *RoundService) online(ctx context.Context, operation string) bool {
	if s.network.IsNetworkAvailable(ctx) {
		return true
	}
	s.metrics.RecordRemoteCall(ctx, operation, "offline")
	return false
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *RoundService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	s.logger.DebugContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	// Infrastructure error
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	// Domain failure
	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *RoundService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {

	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}

// unwrap turns an OperationResult[S, error] into the usual (value, error) pair.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	if result.Success == nil {
		return zero, nil
	}
	return *result.Success, nil
}
