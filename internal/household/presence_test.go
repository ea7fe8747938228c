package household

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceDecay(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store := NewStore(Options{Now: func() time.Time { return base }})
	require.NoError(t, store.SignIn(store.Snapshot().Members[0].ID))
	memberID := store.CurrentMemberID()

	store.PingPresence()

	assert.Equal(t, PresenceOnline, store.PresenceOf(memberID, base.Add(20*time.Second)))
	assert.Equal(t, PresenceAway, store.PresenceOf(memberID, base.Add(60*time.Second)))
	assert.Equal(t, PresenceOffline, store.PresenceOf(memberID, base.Add(150*time.Second)))
}

func TestPresenceBoundaries(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store := NewStore(Options{Now: func() time.Time { return base }})
	require.NoError(t, store.SignIn(store.Snapshot().Members[0].ID))
	memberID := store.CurrentMemberID()
	store.PingPresence()

	assert.Equal(t, PresenceAway, store.PresenceOf(memberID, base.Add(30*time.Second)))
	assert.Equal(t, PresenceOffline, store.PresenceOf(memberID, base.Add(120*time.Second)))
}

func TestSetPresenceOfflinePublishes(t *testing.T) {
	pub := &capturePublisher{}
	store := newTestStore(t, pub)
	require.NoError(t, store.SignIn(store.Snapshot().Members[0].ID))
	memberID := store.CurrentMemberID()

	store.PingPresence()
	store.SetPresenceOffline()

	assert.Equal(t, []string{KindPresencePing, KindPresenceOffline}, pub.kinds())
	assert.Equal(t, PresenceOffline, store.PresenceOf(memberID, store.now()))
}

func TestPresenceUnknownMemberOffline(t *testing.T) {
	store := newTestStore(t, nil)
	assert.Equal(t, PresenceOffline, store.PresenceOf("nobody", time.Now()))
}

func TestHeartbeatPingsAndStops(t *testing.T) {
	pub := &capturePublisher{}
	store := newTestStore(t, pub)
	require.NoError(t, store.SignIn(store.Snapshot().Members[0].ID))

	h := store.StartHeartbeat(10 * time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(pub.kinds()) >= 3
	}, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop() // idempotent

	assert.Contains(t, pub.kinds(), KindPresenceOffline)
}
