package household

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthapp/hearth/internal/auth"
)

func TestSnapshotRoundTrip(t *testing.T) {
	store := newTestStore(t, nil)
	store.AddTask(Task{Title: "Sweep"})
	store.AddAnnouncement("Quiet hours", false)

	data, err := EncodeSnapshot(store.Snapshot())
	require.NoError(t, err)

	st, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Len(t, st.Tasks, 1)
	assert.Len(t, st.Announcements, 1)
	assert.Len(t, st.Members, 5)
}

func TestDecodeSnapshotMigratesNilCollections(t *testing.T) {
	st, err := DecodeSnapshot([]byte(`{"members":[{"id":"m1","name":"Sheldon","role":"teen"}]}`))
	require.NoError(t, err)

	assert.NotNil(t, st.Tasks)
	assert.NotNil(t, st.Polls)
	assert.NotNil(t, st.ChatMessages)
	assert.NotNil(t, st.Documents)
	assert.NotNil(t, st.MealPlans)
	assert.NotNil(t, st.Presence)
	assert.NotNil(t, st.Typing)
}

func TestDecodeSnapshotSeedsEmptyRoster(t *testing.T) {
	st, err := DecodeSnapshot([]byte(`{"members":[]}`))
	require.NoError(t, err)
	require.Len(t, st.Members, 5)
	assert.Equal(t, "Sheldon", st.Members[0].Name)
}

func TestDecodeSnapshotMigratesLegacyCredentials(t *testing.T) {
	sum := sha256.Sum256([]byte("pw"))
	bareHex := hex.EncodeToString(sum[:])

	raw := []byte(`{"members":[
		{"id":"m1","name":"Sheldon","role":"teen","email":" Sheldon@Example.COM ","passwordHash":"` + bareHex + `"},
		{"id":"m2","name":"Smith","role":"adult","email":"smith@example.com","passwordHash":"simple:1a2b"}
	]}`)

	st, err := DecodeSnapshot(raw)
	require.NoError(t, err)

	assert.Equal(t, "sheldon@example.com", st.Members[0].Email)
	assert.Equal(t, auth.AlgoSHA256, st.Members[0].Credential.Algorithm)
	assert.Equal(t, bareHex, st.Members[0].Credential.Hash)
	assert.Empty(t, st.Members[0].LegacyPasswordHash)

	assert.Equal(t, auth.AlgoSimple, st.Members[1].Credential.Algorithm)
	assert.Equal(t, "1a2b", st.Members[1].Credential.Hash)

	// A migrated bare-hex credential still verifies the original password.
	assert.True(t, st.Members[0].Credential.Verify("pw"))
}

func TestSnapshotExcludesTransientState(t *testing.T) {
	store := newTestStore(t, nil)
	require.NoError(t, store.SignIn(store.Snapshot().Members[0].ID))
	store.PingPresence()
	store.SetTyping(true)

	data, err := EncodeSnapshot(store.Snapshot())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "presence")
	assert.NotContains(t, string(data), "typing")

	st, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Empty(t, st.Presence)
	assert.Equal(t, store.CurrentMemberID(), st.CurrentMemberID)
}

func TestRestoreReplacesState(t *testing.T) {
	store := newTestStore(t, nil)
	store.AddTask(Task{Title: "old"})

	store.Restore(State{Tasks: []Task{{ID: "t1", Title: "restored"}}})
	snap := store.Snapshot()
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "restored", snap.Tasks[0].Title)
	// Empty roster in the restored state falls back to the seed family.
	assert.Len(t, snap.Members, 5)
}
