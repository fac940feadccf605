package daemon

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cog-debug/cog-debug/internal/dispatch"
	"github.com/cog-debug/cog-debug/internal/session"
)

func newTestDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	manager := session.NewManager(nil, nil, time.Hour)
	t.Cleanup(manager.Shutdown)
	d, err := dispatch.New(manager)
	require.NoError(t, err)
	return d
}

func TestServerRoundTripsAToolCall(t *testing.T) {
	t.Parallel()
	sockPath := filepath.Join(t.TempDir(), "cog-debug.sock")
	srv := &Server{SocketPath: sockPath, Dispatcher: newTestDispatcher(t)}

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		c, err := Dial(sockPath)
		if err != nil {
			return false
		}
		c.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	client, err := Dial(sockPath)
	require.NoError(t, err)
	defer client.Close()

	res, err := client.Call("poll_events", map[string]any{})
	require.NoError(t, err)
	assert.True(t, res.OK)

	cancel()
	select {
	case err := <-serveErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}

func TestServerClosesConnectionOnMalformedRequest(t *testing.T) {
	t.Parallel()
	sockPath := filepath.Join(t.TempDir(), "cog-debug.sock")
	srv := &Server{SocketPath: sockPath, Dispatcher: newTestDispatcher(t)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		c, err := Dial(sockPath)
		if err != nil {
			return false
		}
		c.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	client, err := Dial(sockPath)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.conn.Write([]byte("not json\n"))
	require.NoError(t, err)

	require.True(t, client.dec.Scan())
	var res ClientResult
	require.NoError(t, json.Unmarshal(client.dec.Bytes(), &res))
	assert.False(t, res.OK)
	assert.Equal(t, dispatch.CodeParseError, res.Error.Code)
}
