// Package attr provides slog attribute helpers shared by every module.
package attr

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey string

// CorrelationIDKey is the context key carrying the request or message correlation id.
const CorrelationIDKey ctxKey = "correlation_id"

// WithCorrelationID stores a correlation id on the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// ExtractCorrelationID returns the correlation id attribute, or an empty attr when none is set.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if ctx == nil {
		return slog.Attr{}
	}
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok && id != "" {
		return slog.String("correlation_id", id)
	}
	return slog.Attr{}
}

func String(key, value string) slog.Attr         { return slog.String(key, value) }
func Int(key string, value int) slog.Attr         { return slog.Int(key, value) }
func Int64(key string, value int64) slog.Attr     { return slog.Int64(key, value) }
func Bool(key string, value bool) slog.Attr       { return slog.Bool(key, value) }
func Float64(key string, value float64) slog.Attr { return slog.Float64(key, value) }
func Any(key string, value any) slog.Attr         { return slog.Any(key, value) }

func Duration(key string, value time.Duration) slog.Attr {
	return slog.Duration(key, value)
}

// Error renders err under the "error" key. A nil error renders as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func RoundID(id string) slog.Attr { return slog.String("round_id", id) }
func ClubID(id string) slog.Attr  { return slog.String("club_id", id) }
func Hole(n int) slog.Attr        { return slog.Int("hole_number", n) }
