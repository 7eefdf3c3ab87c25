package roundapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	roundevents "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/events"
	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"github.com/Black-And-White-Club/scorecard/pkg/eventbus"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
	sendBufferSize = 64
)

// FeedTopics are the round events pushed to the UI.
var FeedTopics = []string{
	roundevents.HoleScoreUpdatedV1,
	roundevents.PickupRecordedV1,
	roundevents.HoleNotPlayedV1,
	roundevents.RoundSyncedV1,
	roundevents.RoundSubmittedV1,
	roundevents.ReconcileCompletedV1,
}

// FeedTopicsFor scopes the round topics to clubID. Reconcile results are not club scoped.
func FeedTopicsFor(clubID string) []string {
	out := make([]string, 0, len(FeedTopics))
	for _, t := range FeedTopics {
		if clubID != "" && t != roundevents.ReconcileCompletedV1 {
			t = eventbus.FormatClubScopedTopic(t, clubID)
		}
		out = append(out, t)
	}
	return out
}

// FeedEvent is one frame on the websocket.
type FeedEvent struct {
	Topic         string          `json:"topic"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Feed fans bus messages out to connected websocket clients. A slow client
// loses frames rather than stalling the bus.
type Feed struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[string]*feedClient
}

func NewFeed(allowedOrigins []string, logger *slog.Logger) *Feed {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		logger:  logger,
		clients: make(map[string]*feedClient),
	}
}

// Run subscribes to each topic and broadcasts until ctx is done.
func (f *Feed) Run(ctx context.Context, sub message.Subscriber, topics []string) error {
	var wg sync.WaitGroup
	for _, topic := range topics {
		msgs, err := sub.Subscribe(ctx, topic)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func(topic string, msgs <-chan *message.Message) {
			defer wg.Done()
			for msg := range msgs {
				f.Broadcast(FeedEvent{
					Topic:         topic,
					CorrelationID: msg.Metadata.Get(eventbus.CorrelationIDKey),
					Payload:       json.RawMessage(msg.Payload),
				})
				msg.Ack()
			}
		}(topic, msgs)
	}
	wg.Wait()
	return nil
}

// Broadcast queues ev on every client.
func (f *Feed) Broadcast(ev FeedEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		f.logger.Warn("Failed to encode feed event", attr.String("topic", ev.Topic), attr.Error(err))
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, c := range f.clients {
		c.enqueue(data)
	}
}

// ClientCount is the number of connected clients.
func (f *Feed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// ServeHTTP upgrades the request and streams events until the peer goes away.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error("Websocket upgrade failed", attr.Error(err))
		return
	}

	c := &feedClient{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: f.logger,
	}
	f.register(c)
	f.logger.Info("Feed client connected", attr.String("client_id", c.id))

	go c.writePump()
	c.readPump()

	f.unregister(c)
	f.logger.Info("Feed client disconnected", attr.String("client_id", c.id))
}

func (f *Feed) register(c *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[c.id] = c
}

func (f *Feed) unregister(c *feedClient) {
	f.mu.Lock()
	delete(f.clients, c.id)
	f.mu.Unlock()
	c.close()
}

type feedClient struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func (c *feedClient) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("Feed buffer full, event dropped", attr.String("client_id", c.id))
	}
}

func (c *feedClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.conn.Close()
}

// readPump only drains control frames. The feed is server to client.
func (c *feedClient) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("Feed read error", attr.String("client_id", c.id), attr.Error(err))
			}
			return
		}
	}
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
