package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

const (
	socketDialTimeout  = 10 * time.Second
	socketWriteTimeout = 10 * time.Second

	maxReconnectDelay = 30 * time.Second
	baseReconnectStep = time.Second
)

// SocketState is the lifecycle of the cross-device connection.
type SocketState int

const (
	SocketClosed SocketState = iota
	SocketConnecting
	SocketOpen
)

// ReconnectDelay returns the backoff before reconnect attempt n:
// min(30s, 1s * 2^min(n, 5)).
func ReconnectDelay(attempts int) time.Duration {
	exp := attempts
	if exp > 5 {
		exp = 5
	}
	delay := baseReconnectStep * time.Duration(1<<exp)
	if delay > maxReconnectDelay {
		delay = maxReconnectDelay
	}
	return delay
}

type dialFunc func(ctx context.Context, url string) (*websocket.Conn, error)

// Socket maintains the optional websocket to the relay. Envelopes published
// while the socket is not open are queued and flushed FIFO on the next open.
// Send and receive errors never propagate; the socket reconnects with capped
// exponential backoff until closed.
type Socket struct {
	url     string
	logger  *slog.Logger
	dial    dialFunc
	onFrame func(Envelope)

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     SocketState
	conn      *websocket.Conn
	queue     []Envelope
	attempts  int
	offline   bool
	closed    bool
	reconnect *time.Timer
}

// NewSocket creates a socket for the given relay URL. onFrame receives every
// decoded inbound envelope. The socket does not connect until Connect.
func NewSocket(url string, onFrame func(Envelope), logger *slog.Logger) *Socket {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Socket{
		url:     url,
		logger:  logger,
		onFrame: onFrame,
		ctx:     ctx,
		cancel:  cancel,
		dial: func(ctx context.Context, url string) (*websocket.Conn, error) {
			conn, _, err := websocket.Dial(ctx, url, nil)
			return conn, err
		},
	}
}

// Connect starts the connection attempt in the background.
func (s *Socket) Connect() {
	go s.connectIfNeeded()
}

func (s *Socket) connectIfNeeded() {
	s.mu.Lock()
	if s.closed || s.offline || s.state != SocketClosed {
		s.mu.Unlock()
		return
	}
	s.state = SocketConnecting
	s.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(s.ctx, socketDialTimeout)
	conn, err := s.dial(dialCtx, s.url)
	cancel()

	s.mu.Lock()
	if s.closed || s.offline {
		s.state = SocketClosed
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
		}
		return
	}
	if err != nil {
		s.state = SocketClosed
		s.scheduleReconnectLocked()
		s.mu.Unlock()
		return
	}
	s.conn = conn
	s.state = SocketOpen
	s.attempts = 0
	pending := s.queue
	s.queue = nil
	s.mu.Unlock()

	s.logger.Debug("relay socket open", "url", s.url, "flushed", len(pending))
	for _, env := range pending {
		s.write(conn, env)
	}
	go s.readLoop(conn)
}

func (s *Socket) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(s.ctx)
		if err != nil {
			s.handleClose(conn)
			return
		}
		if env, ok := ParseFrame(data); ok {
			s.onFrame(env)
		}
	}
}

func (s *Socket) handleClose(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn != conn {
		// A newer connection already replaced this one.
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.state = SocketClosed
	if !s.closed && !s.offline {
		s.scheduleReconnectLocked()
	}
	s.mu.Unlock()
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Socket) scheduleReconnectLocked() {
	s.attempts++
	delay := ReconnectDelay(s.attempts)
	s.logger.Debug("relay socket reconnect scheduled", "attempt", s.attempts, "delay", delay)
	if s.reconnect != nil {
		s.reconnect.Stop()
	}
	s.reconnect = time.AfterFunc(delay, s.connectIfNeeded)
}

// Publish sends the envelope if the socket is open, otherwise queues it for
// the next flush. Send errors are swallowed.
func (s *Socket) Publish(env Envelope) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.state == SocketOpen && s.conn != nil {
		conn := s.conn
		s.mu.Unlock()
		s.write(conn, env)
		return
	}
	s.queue = append(s.queue, env)
	s.mu.Unlock()
}

func (s *Socket) write(conn *websocket.Conn, env Envelope) {
	frame, err := env.Encode()
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, socketWriteTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
		s.logger.Debug("relay socket send failed", "error", err)
	}
}

// SetOnline resets the backoff counter and reconnects immediately if the
// socket is not already open. It mirrors the platform "online" transition.
func (s *Socket) SetOnline() {
	s.mu.Lock()
	s.offline = false
	s.attempts = 0
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
	needsConnect := !s.closed && s.state == SocketClosed
	s.mu.Unlock()
	if needsConnect {
		go s.connectIfNeeded()
	}
}

// SetOffline proactively closes the connection and suppresses reconnects
// until the next SetOnline.
func (s *Socket) SetOffline() {
	s.mu.Lock()
	s.offline = true
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
	conn := s.conn
	s.conn = nil
	s.state = SocketClosed
	s.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "offline")
	}
}

// Close tears the socket down for good, cancelling any pending reconnect.
func (s *Socket) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
	conn := s.conn
	s.conn = nil
	s.state = SocketClosed
	s.mu.Unlock()
	s.cancel()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "closing")
	}
}

// State reports the current lifecycle state.
func (s *Socket) State() SocketState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// QueueLen reports how many envelopes await the next flush.
func (s *Socket) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
