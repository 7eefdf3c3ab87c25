package roundrouter

import (
	"context"
	"log/slog"
	"testing"
	"time"

	roundevents "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/events"
	"github.com/Black-And-White-Club/scorecard/pkg/eventbus"
	"github.com/Black-And-White-Club/scorecard/pkg/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandlers struct {
	resumed chan string
}

func (f *fakeHandlers) HandleAppResumed(ctx context.Context, p *roundevents.LifecyclePayloadV1) ([]handlerwrapper.Result, error) {
	f.resumed <- p.Reason
	return []handlerwrapper.Result{{
		Topic:   roundevents.ReconcileCompletedV1,
		Payload: &roundevents.ReconcileCompletedPayloadV1{Trigger: "app_resumed", Synced: 1},
	}}, nil
}

func (f *fakeHandlers) HandleNetworkRestored(ctx context.Context, p *roundevents.LifecyclePayloadV1) ([]handlerwrapper.Result, error) {
	return nil, nil
}

func TestRoundRouterDeliversLifecycleEvents(t *testing.T) {
	t.Setenv(TestEnvironmentFlag, TestEnvironmentValue)

	logger := slog.Default()
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NewSlogLogger(logger))
	defer pubsub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	completed, err := pubsub.Subscribe(ctx, roundevents.ReconcileCompletedV1)
	require.NoError(t, err)

	wm, err := NewMessageRouter(logger)
	require.NoError(t, err)

	r := NewRoundRouter(logger, wm, pubsub, pubsub, nil, nil)
	handlers := &fakeHandlers{resumed: make(chan string, 1)}
	require.NoError(t, r.Configure(ctx, handlers))

	go func() { _ = wm.Run(ctx) }()
	<-wm.Running()
	defer r.Close()

	msg, err := eventbus.NewMessage(ctx, roundevents.LifecyclePayloadV1{Reason: "foreground"})
	require.NoError(t, err)
	require.NoError(t, pubsub.Publish(roundevents.AppResumedV1, msg))

	select {
	case reason := <-handlers.resumed:
		assert.Equal(t, "foreground", reason)
	case <-ctx.Done():
		t.Fatal("handler was not invoked")
	}

	select {
	case out := <-completed:
		out.Ack()
		payload, err := eventbus.Decode[roundevents.ReconcileCompletedPayloadV1](out)
		require.NoError(t, err)
		assert.Equal(t, 1, payload.Synced)
		assert.Equal(t, msg.Metadata.Get(eventbus.CorrelationIDKey), out.Metadata.Get(eventbus.CorrelationIDKey))
	case <-ctx.Done():
		t.Fatal("reconcile result was not published")
	}
}
