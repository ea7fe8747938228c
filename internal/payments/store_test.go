package payments

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the shared contract against any IntentStore backend.
func exerciseStore(t *testing.T, store IntentStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, Intent{
		Reference: "ref-1",
		Kind:      KindMpesaDeposit,
		Amount:    150,
		Phone:     "254712345678",
		Status:    StatusPending,
	}))

	intent, ok, err := store.Get(ctx, "ref-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusPending, intent.Status)
	assert.Equal(t, 150.0, intent.Amount)

	// Resolve to terminal, then try to flip it; the first outcome sticks.
	require.NoError(t, store.Resolve(ctx, "ref-1", StatusSucceeded, "RCPT1", ""))
	require.NoError(t, store.Resolve(ctx, "ref-1", StatusFailed, "", "too late"))

	intent, ok, err = store.Get(ctx, "ref-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusSucceeded, intent.Status)
	assert.Equal(t, "RCPT1", intent.Receipt)
	assert.Empty(t, intent.Failure)

	// Unknown references upsert on resolve.
	require.NoError(t, store.Resolve(ctx, "ref-2", StatusFailed, "", "cancelled"))
	intent, ok, err = store.Get(ctx, "ref-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, intent.Status)
	assert.Equal(t, "cancelled", intent.Failure)

	// Absent references read as not found, not as an error.
	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreContract(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	exerciseStore(t, store)
}

func TestSQLiteStoreContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), Intent{
		Reference: "persist-1", Status: StatusPending,
	}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	intent, ok, err := reopened.Get(context.Background(), "persist-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusPending, intent.Status)
}

func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("HEARTH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("HEARTH_TEST_POSTGRES_DSN not set")
	}
	store, err := NewPostgresStore(dsn)
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
