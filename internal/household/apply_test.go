package household

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthapp/hearth/internal/realtime"
)

func mustEnvelope(t *testing.T, kind string, payload any) realtime.Envelope {
	t.Helper()
	env, ok := realtime.NewEnvelope(kind, payload)
	require.True(t, ok)
	return env
}

func TestApplyAddIsIdempotent(t *testing.T) {
	store := newTestStore(t, nil)
	env := mustEnvelope(t, KindTaskAdd, Task{ID: "remote-1", Title: "Water plants"})

	store.Apply(env)
	store.Apply(env)

	snap := store.Snapshot()
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "Water plants", snap.Tasks[0].Title)
}

func TestApplyToggleLastWriteWins(t *testing.T) {
	store := newTestStore(t, nil)
	store.Apply(mustEnvelope(t, KindTaskAdd, Task{ID: "remote-1", Title: "Laundry"}))

	on := mustEnvelope(t, KindTaskToggle, TaskTogglePayload{ID: "remote-1", Completed: true})
	off := mustEnvelope(t, KindTaskToggle, TaskTogglePayload{ID: "remote-1", Completed: false})

	store.Apply(on)
	store.Apply(off)
	assert.False(t, store.Snapshot().Tasks[0].Completed)

	store.Apply(off)
	store.Apply(on)
	assert.True(t, store.Snapshot().Tasks[0].Completed)
}

func TestApplyUnknownKindIgnored(t *testing.T) {
	store := newTestStore(t, nil)
	before := store.Snapshot()

	store.Apply(realtime.Envelope{Type: "future.thing", Payload: []byte(`{"id":"x"}`)})
	store.Apply(realtime.Envelope{Type: KindTaskAdd, Payload: []byte(`{garbage`)})

	after := store.Snapshot()
	assert.Equal(t, len(before.Tasks), len(after.Tasks))
	assert.Equal(t, len(before.Activity), len(after.Activity))
}

func TestApplyReceiptUnion(t *testing.T) {
	store := newTestStore(t, nil)
	// With nobody signed in the first roster member auto-delivers the
	// foreign message, so the delivered set starts at two.
	selfID := store.Snapshot().Members[0].ID
	store.Apply(mustEnvelope(t, KindChatMessage, ChatMessage{
		ID: "msg-1", SenderID: "other", Text: "hello", DeliveredBy: []string{"other"},
	}))

	receipt := mustEnvelope(t, KindChatDelivered, ReceiptPayload{MessageID: "msg-1", MemberID: "m2"})
	store.Apply(receipt)
	store.Apply(receipt)
	store.Apply(mustEnvelope(t, KindChatRead, ReceiptPayload{MessageID: "msg-1", MemberID: "m2"}))

	msg := store.Snapshot().ChatMessages[0]
	assert.ElementsMatch(t, []string{"other", selfID, "m2"}, msg.DeliveredBy)
	assert.Equal(t, []string{"m2"}, msg.ReadBy)
}

func TestApplyForeignChatMessageAutoDelivers(t *testing.T) {
	pub := &capturePublisher{}
	store := newTestStore(t, pub)
	require.NoError(t, store.SignIn(store.Snapshot().Members[1].ID))
	selfID := store.CurrentMemberID()

	store.Apply(mustEnvelope(t, KindChatMessage, ChatMessage{
		ID: "msg-1", SenderID: "sender-x", Text: "hi", DeliveredBy: []string{"sender-x"},
	}))

	msg := store.Snapshot().ChatMessages[0]
	assert.Contains(t, msg.DeliveredBy, selfID)

	env := pub.last()
	require.Equal(t, KindChatDelivered, env.Type)
	payload, ok := decodePayload[ReceiptPayload](env.Payload)
	require.True(t, ok)
	assert.Equal(t, "msg-1", payload.MessageID)
	assert.Equal(t, selfID, payload.MemberID)

	// Duplicate delivery must not emit a second receipt.
	count := len(pub.kinds())
	store.Apply(mustEnvelope(t, KindChatMessage, ChatMessage{
		ID: "msg-1", SenderID: "sender-x", Text: "hi", DeliveredBy: []string{"sender-x"},
	}))
	assert.Len(t, pub.kinds(), count)
}

func TestApplyOwnChatMessageDoesNotSelfDeliver(t *testing.T) {
	pub := &capturePublisher{}
	store := newTestStore(t, pub)
	require.NoError(t, store.SignIn(store.Snapshot().Members[0].ID))
	selfID := store.CurrentMemberID()

	store.Apply(mustEnvelope(t, KindChatMessage, ChatMessage{
		ID: "msg-own", SenderID: selfID, Text: "echo", DeliveredBy: []string{selfID},
	}))
	assert.Empty(t, pub.kinds())
}

func TestApplyMediaPrependAndPatch(t *testing.T) {
	store := newTestStore(t, nil)
	store.Apply(mustEnvelope(t, KindAlbumAdd, Album{ID: "a1", Name: "First"}))
	store.Apply(mustEnvelope(t, KindAlbumAdd, Album{ID: "a2", Name: "Second"}))

	snap := store.Snapshot()
	require.Len(t, snap.Albums, 2)
	assert.Equal(t, "a2", snap.Albums[0].ID)

	desc := "From the coast"
	store.Apply(mustEnvelope(t, KindAlbumUpdate, AlbumUpdatePayload{
		ID: "a1", Patch: AlbumPatch{Description: &desc},
	}))
	snap = store.Snapshot()
	assert.Equal(t, "From the coast", snap.Albums[1].Description)
	assert.Equal(t, "First", snap.Albums[1].Name)
}

func TestApplyPresence(t *testing.T) {
	store := newTestStore(t, nil)
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	store.Apply(mustEnvelope(t, KindPresencePing, PresencePingPayload{
		MemberID: "m1", TS: now.Add(-10 * time.Second).UnixMilli(),
	}))
	assert.Equal(t, PresenceOnline, store.PresenceOf("m1", now))

	store.Apply(mustEnvelope(t, KindPresenceOffline, PresenceOfflinePayload{MemberID: "m1"}))
	assert.Equal(t, PresenceOffline, store.PresenceOf("m1", now))
}

func TestTwoStoresConvergeOverBus(t *testing.T) {
	bus := realtime.NewBus()
	makeStore := func(prefix string) (*Store, *realtime.Client) {
		client := realtime.NewClient(realtime.Options{Bus: bus})
		var n int
		store := NewStore(Options{
			Publisher: client,
			NewID: func() string {
				n++
				return fmt.Sprintf("%s-%d", prefix, n)
			},
		})
		client.Subscribe(store.Apply)
		return store, client
	}
	storeA, clientA := makeStore("a")
	storeB, clientB := makeStore("b")
	defer clientA.Close()
	defer clientB.Close()

	require.NoError(t, storeA.SignIn(storeA.Snapshot().Members[0].ID))
	require.NoError(t, storeB.SignIn(storeB.Snapshot().Members[1].ID))

	task := storeA.AddTask(Task{Title: "Shared chore"})
	snapB := storeB.Snapshot()
	require.Len(t, snapB.Tasks, 1)
	assert.Equal(t, task.ID, snapB.Tasks[0].ID)

	storeB.ToggleTask(task.ID)
	assert.True(t, storeA.Snapshot().Tasks[0].Completed)

	msg, ok := storeA.SendChatMessage("dinner soon")
	require.True(t, ok)

	// B received the message and auto-delivered; the receipt flowed back to A.
	msgB := storeB.Snapshot().ChatMessages[0]
	assert.Contains(t, msgB.DeliveredBy, storeB.CurrentMemberID())
	msgA := storeA.Snapshot().ChatMessages[0]
	assert.Equal(t, msg.ID, msgA.ID)
	assert.Contains(t, msgA.DeliveredBy, storeB.CurrentMemberID())
}
