package household

import (
	"sync"
	"time"
)

// PresenceStatus is derived from the last heartbeat, never stored.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceOffline PresenceStatus = "offline"
)

const (
	presenceOnlineWindow = 30 * time.Second
	presenceAwayWindow   = 120 * time.Second

	// DefaultHeartbeatInterval spaces presence pings comfortably inside the
	// online window.
	DefaultHeartbeatInterval = 15 * time.Second
)

// PingPresence stamps the acting member's heartbeat and broadcasts it.
func (s *Store) PingPresence() {
	s.mu.Lock()
	memberID := s.currentMemberLocked()
	if memberID == "" {
		s.mu.Unlock()
		return
	}
	ts := s.nowMillis()
	if s.state.Presence == nil {
		s.state.Presence = make(map[string]int64)
	}
	s.state.Presence[memberID] = ts
	s.mu.Unlock()
	s.publish(KindPresencePing, PresencePingPayload{MemberID: memberID, TS: ts})
}

// SetPresenceOffline removes the acting member's presence entry and
// broadcasts the departure. Called on shutdown or when the app hides.
func (s *Store) SetPresenceOffline() {
	s.mu.Lock()
	memberID := s.currentMemberLocked()
	if memberID == "" {
		s.mu.Unlock()
		return
	}
	delete(s.state.Presence, memberID)
	s.mu.Unlock()
	s.publish(KindPresenceOffline, PresenceOfflinePayload{MemberID: memberID})
}

// PresenceOf derives a member's status at the given instant: online within
// thirty seconds of the last heartbeat, away within two minutes, offline
// otherwise or when no entry exists.
func (s *Store) PresenceOf(memberID string, now time.Time) PresenceStatus {
	s.mu.Lock()
	ts, ok := s.state.Presence[memberID]
	s.mu.Unlock()
	if !ok {
		return PresenceOffline
	}
	age := now.Sub(time.UnixMilli(ts))
	switch {
	case age < presenceOnlineWindow:
		return PresenceOnline
	case age < presenceAwayWindow:
		return PresenceAway
	default:
		return PresenceOffline
	}
}

// Heartbeat pings presence on an interval until stopped. Stop is safe to
// call more than once and always sends a final offline notice.
type Heartbeat struct {
	store    *Store
	ticker   *time.Ticker
	stopOnce sync.Once
	done     chan struct{}
}

// StartHeartbeat pings immediately, then every interval (the default when
// zero).
func (s *Store) StartHeartbeat(interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	h := &Heartbeat{
		store:  s,
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	s.PingPresence()
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	for {
		select {
		case <-h.ticker.C:
			h.store.PingPresence()
		case <-h.done:
			return
		}
	}
}

// Stop halts the ticker and marks the member offline.
func (h *Heartbeat) Stop() {
	h.stopOnce.Do(func() {
		h.ticker.Stop()
		close(h.done)
		h.store.SetPresenceOffline()
	})
}
