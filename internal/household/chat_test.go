package household

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendChatMessage(t *testing.T) {
	pub := &capturePublisher{}
	store := newTestStore(t, pub)
	require.NoError(t, store.SignIn(store.Snapshot().Members[0].ID))
	senderID := store.CurrentMemberID()

	msg, ok := store.SendChatMessage("  hello family  ")
	require.True(t, ok)
	assert.Equal(t, "hello family", msg.Text)
	assert.Equal(t, senderID, msg.SenderID)
	// The sender never receives a delivery receipt for their own message.
	assert.Equal(t, []string{senderID}, msg.DeliveredBy)
	assert.Empty(t, msg.ReadBy)
	assert.Equal(t, []string{KindChatMessage}, pub.kinds())
}

func TestSendChatMessageRejectsBlank(t *testing.T) {
	pub := &capturePublisher{}
	store := newTestStore(t, pub)

	_, ok := store.SendChatMessage("   ")
	assert.False(t, ok)
	assert.Empty(t, pub.kinds())
	assert.Empty(t, store.Snapshot().ChatMessages)
}

func TestMarkDeliveredAndRead(t *testing.T) {
	pub := &capturePublisher{}
	store := newTestStore(t, pub)
	require.NoError(t, store.SignIn(store.Snapshot().Members[1].ID))
	selfID := store.CurrentMemberID()

	store.Apply(mustEnvelope(t, KindChatMessage, ChatMessage{
		ID: "msg-1", SenderID: "other", Text: "hi", DeliveredBy: []string{"other", selfID},
	}))

	store.MarkRead("msg-1")
	store.MarkRead("msg-1")

	msg := store.Snapshot().ChatMessages[0]
	assert.Equal(t, []string{selfID}, msg.ReadBy)
}

func TestMarkVisibleReadBoundedBatch(t *testing.T) {
	pub := &capturePublisher{}
	store := newTestStore(t, pub)
	require.NoError(t, store.SignIn(store.Snapshot().Members[0].ID))
	selfID := store.CurrentMemberID()

	for i := 0; i < 5; i++ {
		store.Apply(mustEnvelope(t, KindChatMessage, ChatMessage{
			ID: string(rune('a' + i)), SenderID: "other", Text: "msg",
			DeliveredBy: []string{"other", selfID},
		}))
	}
	own, ok := store.SendChatMessage("mine")
	require.True(t, ok)

	before := len(pub.kinds())
	marked := store.MarkVisibleRead(3)
	assert.Len(t, marked, 3)
	// Most recent foreign messages first; own message skipped.
	assert.NotContains(t, marked, own.ID)
	assert.Len(t, pub.kinds(), before+3)

	// Second sweep picks up the remaining two and then nothing.
	assert.Len(t, store.MarkVisibleRead(3), 2)
	assert.Empty(t, store.MarkVisibleRead(3))
}

func TestTypingStaleness(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store := NewStore(Options{Now: func() time.Time { return base }})
	require.NoError(t, store.SignIn(store.Snapshot().Members[0].ID))
	memberID := store.CurrentMemberID()

	store.SetTyping(true)
	assert.True(t, store.TypingActive(memberID, base.Add(time.Second)))
	assert.False(t, store.TypingActive(memberID, base.Add(3*time.Second)))

	store.SetTyping(false)
	assert.False(t, store.TypingActive(memberID, base))
}

func TestTypingMembers(t *testing.T) {
	store := newTestStore(t, nil)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	store.Apply(mustEnvelope(t, KindChatTyping, TypingPayload{MemberID: "m1", TS: now.Add(-time.Second).UnixMilli()}))
	store.Apply(mustEnvelope(t, KindChatTyping, TypingPayload{MemberID: "m2", TS: now.Add(-5 * time.Second).UnixMilli()}))
	store.Apply(mustEnvelope(t, KindChatTyping, TypingPayload{MemberID: "m3", TS: 0}))

	assert.Equal(t, []string{"m1"}, store.TypingMembers(now))
}

func TestTypingDebouncer(t *testing.T) {
	pub := &capturePublisher{}
	store := newTestStore(t, pub)
	require.NoError(t, store.SignIn(store.Snapshot().Members[0].ID))
	memberID := store.CurrentMemberID()

	d := NewTypingDebouncer(store, 20*time.Millisecond)
	d.Keystroke()
	d.Keystroke()

	// Still typing immediately after the last keystroke.
	assert.True(t, store.TypingActive(memberID, store.now()))

	// The quiet period clears it; only the latest timer fires.
	assert.Eventually(t, func() bool {
		return !store.TypingActive(memberID, store.now())
	}, time.Second, 5*time.Millisecond)

	d.Stop()
}
