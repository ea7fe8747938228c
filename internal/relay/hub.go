// Package relay implements the fan-out websocket hub. It relays every frame
// it receives to all other connected clients without inspecting it; the
// envelope format is a client-side contract.
package relay

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

const (
	// sendBuffer bounds the per-client outbound queue. A client that falls
	// this far behind starts losing frames rather than stalling the hub.
	sendBuffer = 256

	writeTimeout = 10 * time.Second
	readLimit    = 1 << 20
)

// Hub tracks connected clients and rebroadcasts their frames.
type Hub struct {
	logger  *slog.Logger
	metrics *Metrics

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub. Metrics may be nil.
func NewHub(logger *slog.Logger, metrics *Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		metrics: metrics,
		clients: make(map[*client]struct{}),
	}
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Debug("websocket accept failed", "error", err)
		return
	}
	conn.SetReadLimit(readLimit)

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(c)
	if h.metrics != nil {
		h.metrics.Connections.Inc()
	}
	h.logger.Debug("client connected", "clients", h.ClientCount())

	ctx := r.Context()
	go h.writeLoop(ctx, c)
	h.readLoop(ctx, c)

	h.remove(c)
	if h.metrics != nil {
		h.metrics.Connections.Dec()
	}
	conn.Close(websocket.StatusNormalClosure, "")
	h.logger.Debug("client disconnected", "clients", h.ClientCount())
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *Hub) readLoop(ctx context.Context, c *client) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		if h.metrics != nil {
			h.metrics.FramesRelayed.Inc()
		}
		h.broadcast(c, data)
	}
}

// broadcast queues the raw frame on every other client. Full queues drop the
// frame for that client only.
func (h *Hub) broadcast(from *client, data []byte) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if c != from {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			if h.metrics != nil {
				h.metrics.FramesDropped.Inc()
			}
			h.logger.Warn("dropping frame for slow client")
		}
	}
}

func (h *Hub) writeLoop(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
