package realtime

import "sync"

// Bus is the intra-device channel: a process-local broadcast group where
// every attached client sees frames published by every other client, never
// its own. Delivery is synchronous and cannot fail.
type Bus struct {
	mu    sync.Mutex
	ports map[*busPort]struct{}
}

type busPort struct {
	bus     *Bus
	deliver func(Envelope)
}

// NewBus creates an empty broadcast group.
func NewBus() *Bus {
	return &Bus{ports: map[*busPort]struct{}{}}
}

func (b *Bus) attach(deliver func(Envelope)) *busPort {
	p := &busPort{bus: b, deliver: deliver}
	b.mu.Lock()
	b.ports[p] = struct{}{}
	b.mu.Unlock()
	return p
}

func (p *busPort) close() {
	if p == nil || p.bus == nil {
		return
	}
	p.bus.mu.Lock()
	delete(p.bus.ports, p)
	p.bus.mu.Unlock()
}

// publish delivers env to every port except the sender.
func (p *busPort) publish(env Envelope) {
	if p == nil || p.bus == nil {
		return
	}
	p.bus.mu.Lock()
	targets := make([]*busPort, 0, len(p.bus.ports))
	for other := range p.bus.ports {
		if other != p {
			targets = append(targets, other)
		}
	}
	p.bus.mu.Unlock()
	for _, t := range targets {
		t.deliver(env)
	}
}
