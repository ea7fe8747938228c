package relay

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil, NewMetrics(prometheus.NewRegistry()))
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func TestHubRelaysToOtherClients(t *testing.T) {
	hub, url := startHub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := dial(t, ctx, url)
	b := dial(t, ctx, url)
	c := dial(t, ctx, url)

	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, 5*time.Second, 10*time.Millisecond)

	frame := []byte(`{"type":"task.add","payload":{"id":"t1"}}`)
	require.NoError(t, a.Write(ctx, websocket.MessageText, frame))

	for _, conn := range []*websocket.Conn{b, c} {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, string(frame), string(data))
	}

	// The sender gets nothing back; the next frame b sends is the first
	// thing a ever reads.
	reply := []byte(`{"type":"task.toggle","payload":{"id":"t1","completed":true}}`)
	require.NoError(t, b.Write(ctx, websocket.MessageText, reply))
	_, data, err := a.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(reply), string(data))
}

func TestHubPassesFramesVerbatim(t *testing.T) {
	_, url := startHub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := dial(t, ctx, url)
	b := dial(t, ctx, url)

	// The hub does not parse frames; even non-envelope text passes through
	// untouched. Receivers are the ones who drop garbage.
	frame := []byte("not even json")
	require.NoError(t, a.Write(ctx, websocket.MessageText, frame))

	_, data, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, string(frame), string(data))
}

func TestHubClientCountTracksDisconnects(t *testing.T) {
	hub, url := startHub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}
