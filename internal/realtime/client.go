package realtime

import (
	"log/slog"
	"sync"
)

// Options configures a Client. Bus is optional (nil disables intra-device
// delivery, useful in single-store tests); RelayURL is optional and an empty
// value silently disables cross-device delivery.
type Options struct {
	Bus      *Bus
	RelayURL string
	Logger   *slog.Logger
}

// Client is the dual-channel publisher every household store speaks through.
// Publish fans out to the intra-device bus and, when configured, the relay
// socket. Inbound envelopes from either channel are delivered to every
// subscriber exactly once per arrival; duplicates across arrivals are the
// reducer's problem.
type Client struct {
	bus    *busPort
	socket *Socket

	mu          sync.Mutex
	subscribers []func(Envelope)
}

// NewClient wires up both channels. The socket does not connect until Start.
func NewClient(opts Options) *Client {
	c := &Client{}
	if opts.Bus != nil {
		c.bus = opts.Bus.attach(c.dispatch)
	}
	if opts.RelayURL != "" {
		c.socket = NewSocket(opts.RelayURL, c.dispatch, opts.Logger)
	}
	return c
}

// Start opens the relay socket, if one is configured.
func (c *Client) Start() {
	if c.socket != nil {
		c.socket.Connect()
	}
}

// Subscribe registers fn for every inbound envelope. Dispatch is synchronous
// in arrival order per channel.
func (c *Client) Subscribe(fn func(Envelope)) {
	c.mu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.mu.Unlock()
}

// Publish sends the envelope to everyone else: always the bus, and the
// socket when a relay is configured. Neither path surfaces errors.
func (c *Client) Publish(env Envelope) {
	c.bus.publish(env)
	if c.socket != nil {
		c.socket.Publish(env)
	}
}

// SetOnline forwards the platform "online" transition to the socket.
func (c *Client) SetOnline() {
	if c.socket != nil {
		c.socket.SetOnline()
	}
}

// SetOffline forwards the platform "offline" transition to the socket.
func (c *Client) SetOffline() {
	if c.socket != nil {
		c.socket.SetOffline()
	}
}

// Close detaches from the bus and tears down the socket.
func (c *Client) Close() {
	c.bus.close()
	if c.socket != nil {
		c.socket.Close()
	}
}

func (c *Client) dispatch(env Envelope) {
	c.mu.Lock()
	subs := make([]func(Envelope), len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(env)
	}
}
