package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"github.com/nats-io/nkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ping struct {
	N int `json:"n"`
}

func TestInProcessBusRoundTrip(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	topic := FormatClubScopedTopic("round.synced.v1", "club-1")
	msgs, err := b.Subscribe(ctx, topic)
	require.NoError(t, err)

	msg, err := NewMessage(attr.WithCorrelationID(ctx, "corr-1"), ping{N: 3})
	require.NoError(t, err)
	require.NoError(t, PublishWithClubScope(b, "round.synced.v1", "club-1", msg))

	select {
	case got := <-msgs:
		got.Ack()
		decoded, err := Decode[ping](got)
		require.NoError(t, err)
		assert.Equal(t, 3, decoded.N)
		assert.Equal(t, "corr-1", got.Metadata.Get(CorrelationIDKey))
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestPublishWithClubScopeRequiresClub(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	defer b.Close()

	msg, err := NewMessage(context.Background(), ping{})
	require.NoError(t, err)
	assert.Error(t, PublishWithClubScope(b, "round.synced.v1", "", msg))
	assert.NotEmpty(t, msg.Metadata.Get(CorrelationIDKey))
}

func TestNKeyOption(t *testing.T) {
	kp, err := nkeys.CreateUser()
	require.NoError(t, err)
	seed, err := kp.Seed()
	require.NoError(t, err)

	opt, err := nkeyOption(string(seed))
	require.NoError(t, err)
	assert.NotNil(t, opt)

	_, err = nkeyOption("not-a-seed")
	assert.Error(t, err)
}
