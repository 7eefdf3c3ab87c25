// Package eventbus wraps a watermill publisher and subscriber pair. NATS is
// used when a URL is configured; otherwise an in-process channel bus.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

// CorrelationIDKey is the metadata key the router middleware reads.
const CorrelationIDKey = "correlation_id"

// EventBus publishes and subscribes watermill messages.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

// Config selects the transport.
type Config struct {
	NATSURL  string
	NKeySeed string
}

type bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	sharedConn bool
	logger     *slog.Logger
}

// New builds the bus described by cfg.
func New(cfg Config, logger *slog.Logger) (EventBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	wmLogger := watermill.NewSlogLogger(logger)

	if cfg.NATSURL == "" {
		logger.Info("Using in-process event bus")
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		return &bus{publisher: ch, subscriber: ch, sharedConn: true, logger: logger}, nil
	}

	options := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(10 * time.Second),
		nc.ReconnectWait(time.Second),
	}
	if cfg.NKeySeed != "" {
		opt, err := nkeyOption(cfg.NKeySeed)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}

	marshaler := &nats.NATSMarshaler{}
	jsConfig := nats.JetStreamConfig{Disabled: true}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:               cfg.NATSURL,
			Marshaler:         marshaler,
			NatsOptions:       options,
			JetStream:         jsConfig,
			SubjectCalculator: nats.DefaultSubjectCalculator,
		},
		wmLogger,
	)
	if err != nil {
		logger.Error("Failed to create NATS publisher", attr.Error(err))
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:               cfg.NATSURL,
			CloseTimeout:      30 * time.Second,
			AckWaitTimeout:    30 * time.Second,
			NatsOptions:       options,
			Unmarshaler:       marshaler,
			JetStream:         jsConfig,
			SubjectCalculator: nats.DefaultSubjectCalculator,
		},
		wmLogger,
	)
	if err != nil {
		_ = publisher.Close()
		logger.Error("Failed to create NATS subscriber", attr.Error(err))
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	logger.Info("Connected event bus to NATS", attr.String("url", cfg.NATSURL))
	return &bus{publisher: publisher, subscriber: subscriber, logger: logger}, nil
}

// nkeyOption authenticates the connection with a user nkey seed.
func nkeyOption(seed string) (nc.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("invalid nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
	}
	return nc.Nkey(pub, func(nonce []byte) ([]byte, error) {
		return kp.Sign(nonce)
	}), nil
}

func (b *bus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		b.logger.Debug("Publishing message",
			attr.String("topic", topic),
			attr.String("message_id", msg.UUID),
			attr.String(CorrelationIDKey, msg.Metadata.Get(CorrelationIDKey)),
		)
	}
	return b.publisher.Publish(topic, messages...)
}

func (b *bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

func (b *bus) Close() error {
	perr := b.publisher.Close()
	if b.sharedConn {
		return perr
	}
	if serr := b.subscriber.Close(); serr != nil && perr == nil {
		perr = serr
	}
	return perr
}

// NewMessage encodes payload as JSON and stamps the context correlation id.
func NewMessage(ctx context.Context, payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	if a := attr.ExtractCorrelationID(ctx); a.Key != "" {
		msg.Metadata.Set(CorrelationIDKey, a.Value.String())
	} else {
		msg.Metadata.Set(CorrelationIDKey, watermill.NewUUID())
	}
	msg.SetContext(ctx)
	return msg, nil
}

// Decode unmarshals a message body into T.
func Decode[T any](msg *message.Message) (*T, error) {
	out := new(T)
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", msg.UUID, err)
	}
	return out, nil
}
