package listing

import (
	"context"
	"encoding/json"
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EventType for marketplace feed messages
type EventType string

const (
	EventListed EventType = "listed"
	EventSold   EventType = "sold"
)

const feedChannel = "market:events"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 32
)

var (
	feedConnectionsGauge   = expvar.NewInt("feed_connections")
	feedEventsSentTotal    = expvar.NewInt("feed_events_sent_total")
	feedEventsDroppedTotal = expvar.NewInt("feed_events_dropped_total")
)

// Event is one marketplace change pushed to subscribers.
type Event struct {
	Type    EventType       `json:"type"`
	Listing ListingResponse `json:"listing"`
}

type feedConn struct {
	conn *websocket.Conn
	send chan []byte
}

// Feed fans marketplace events out to connected WebSocket clients, with
// Redis Pub/Sub bridging instances when Redis is configured.
type Feed struct {
	connections map[*feedConn]bool
	redis       *redis.Client
	pubsub      *redis.PubSub

	mu sync.RWMutex

	register   chan *feedConn
	unregister chan *feedConn

	ctx    context.Context
	cancel context.CancelFunc
}

func NewFeed(redisClient *redis.Client) *Feed {
	ctx, cancel := context.WithCancel(context.Background())

	f := &Feed{
		connections: make(map[*feedConn]bool),
		redis:       redisClient,
		register:    make(chan *feedConn),
		unregister:  make(chan *feedConn),
		ctx:         ctx,
		cancel:      cancel,
	}

	if redisClient != nil {
		f.pubsub = redisClient.Subscribe(ctx, feedChannel)
	}

	return f
}

// Run starts the feed loop (call in goroutine)
func (f *Feed) Run() {
	if f.pubsub != nil {
		go f.runRedisSubscriber()
	}

	for {
		select {
		case <-f.ctx.Done():
			return

		case c := <-f.register:
			f.mu.Lock()
			f.connections[c] = true
			f.mu.Unlock()
			feedConnectionsGauge.Add(1)

		case c := <-f.unregister:
			f.mu.Lock()
			if _, ok := f.connections[c]; ok {
				delete(f.connections, c)
				close(c.send)
				feedConnectionsGauge.Add(-1)
			}
			f.mu.Unlock()
		}
	}
}

func (f *Feed) runRedisSubscriber() {
	ch := f.pubsub.Channel()
	for {
		select {
		case <-f.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			f.broadcastLocal([]byte(msg.Payload))
		}
	}
}

// Broadcast publishes an event to every subscriber on every instance.
func (f *Feed) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal feed event")
		return
	}

	if f.redis != nil {
		if err := f.redis.Publish(f.ctx, feedChannel, data).Err(); err != nil {
			log.Error().Err(err).Msg("Redis publish failed, falling back to local broadcast")
			f.broadcastLocal(data)
		}
		return
	}
	f.broadcastLocal(data)
}

func (f *Feed) broadcastLocal(data []byte) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for c := range f.connections {
		select {
		case c.send <- data:
			feedEventsSentTotal.Add(1)
		default:
			feedEventsDroppedTotal.Add(1)
		}
	}
}

// ConnectionCount returns the number of local subscribers.
func (f *Feed) ConnectionCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.connections)
}

// Shutdown gracefully stops the feed
func (f *Feed) Shutdown() {
	f.cancel()
	if f.pubsub != nil {
		f.pubsub.Close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS handles GET /marketplace/feed upgrades.
func (f *Feed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &feedConn{conn: conn, send: make(chan []byte, sendBufferSize)}
	f.register <- c

	go f.writePump(c)
	go f.readPump(c)
}

func (f *Feed) writePump(c *feedConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
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

// readPump discards client messages; the feed is one-way. It exists to
// process control frames and detect disconnects.
func (f *Feed) readPump(c *feedConn) {
	defer func() {
		f.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
