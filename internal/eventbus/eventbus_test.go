package eventbus

import (
	"bufio"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitIsANoopWithoutADashboardPath(t *testing.T) {
	t.Parallel()
	s := New("", nil)
	assert.NotPanics(t, func() { s.Emit("activity", map[string]any{"x": 1}) })
}

func TestEmitDeliversToAListeningObserver(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dashboard.sock")
	lis, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer lis.Close()

	lineCh := make(chan string, 1)
	go func() {
		conn, err := lis.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		if scanner.Scan() {
			lineCh <- scanner.Text()
		}
	}()

	s := New(path, nil)
	defer s.Close()
	s.Emit("run", map[string]any{"session_id": "sess-1"})

	select {
	case line := <-lineCh:
		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &body))
		assert.Equal(t, "run", body["type"])
		assert.Equal(t, "sess-1", body["session_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("observer never received the emitted event")
	}
}

func TestEmitNeverBlocksWhenNoObserverIsListening(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "missing.sock")
	s := New(path, nil)
	done := make(chan struct{})
	go func() {
		s.Emit("activity", map[string]any{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked with no dashboard listening")
	}
}
