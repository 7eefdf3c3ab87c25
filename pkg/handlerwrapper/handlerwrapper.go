// Package handlerwrapper adapts typed event handlers to Watermill.
package handlerwrapper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"github.com/Black-And-White-Club/scorecard/pkg/eventbus"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Result is one outbound event produced by a handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// WrapTransformingTyped decodes the message into T, runs handler and publishes
// every Result through pub. A decode failure is logged and acked so a poison
// message cannot block the subscription; a handler error nacks it.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	pub message.Publisher,
	handler func(context.Context, *T) ([]Result, error),
) message.NoPublishHandlerFunc {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(handlerName)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(msg *message.Message) error {
		ctx := msg.Context()
		if id := msg.Metadata.Get(eventbus.CorrelationIDKey); id != "" {
			ctx = attr.WithCorrelationID(ctx, id)
		}
		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.uuid", msg.UUID),
		))
		defer span.End()

		payload, err := eventbus.Decode[T](msg)
		if err != nil {
			logger.WarnContext(ctx, "Dropping undecodable message",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.Error(err),
			)
			return nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			span.RecordError(err)
			logger.ErrorContext(ctx, "Handler failed",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.Error(err),
			)
			return fmt.Errorf("%s: %w", handlerName, err)
		}

		for _, res := range results {
			if pub == nil {
				break
			}
			out, err := eventbus.NewMessage(ctx, res.Payload)
			if err != nil {
				return fmt.Errorf("%s: %w", handlerName, err)
			}
			for k, v := range res.Metadata {
				out.Metadata.Set(k, v)
			}
			if err := pub.Publish(res.Topic, out); err != nil {
				return fmt.Errorf("%s: publish %s: %w", handlerName, res.Topic, err)
			}
		}
		return nil
	}
}
