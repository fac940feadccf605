package daemon

import (
	"bufio"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialFailsWithNoListener(t *testing.T) {
	t.Parallel()
	_, err := Dial(filepath.Join(t.TempDir(), "nothing.sock"))
	assert.Error(t, err)
}

func TestClientCallSendsOneLineAndDecodesTheReply(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "fake.sock")
	lis, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer lis.Close()

	go func() {
		conn, err := lis.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		if scanner.Scan() {
			_, _ = conn.Write([]byte(`{"ok":true,"result":{"echo":true}}` + "\n"))
		}
	}()

	client, err := Dial(path)
	require.NoError(t, err)
	defer client.Close()

	res, err := client.Call("sessions", map[string]any{})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.JSONEq(t, `{"echo":true}`, string(res.Result))
}
