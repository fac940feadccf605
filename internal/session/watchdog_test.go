package session

import (
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cog-debug/cog-debug/internal/drivers/native"
	"github.com/cog-debug/cog-debug/internal/types"
)

func TestClientAliveDistinguishesLiveFromDeadPID(t *testing.T) {
	t.Parallel()
	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid
	require.NoError(t, cmd.Wait())

	assert.False(t, clientAlive(pid), "a reaped child pid must read as dead")
	assert.True(t, clientAlive(os.Getpid()), "the test process's own pid must read as alive")
}

func TestWatchdogReapsSessionWhoseClientDied(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, nil, 20*time.Millisecond)
	defer m.Shutdown()

	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid
	require.NoError(t, cmd.Wait())

	sess := m.Create(native.New(0), pid, types.OrphanTerminate, nil, nil)

	require.Eventually(t, func() bool {
		_, ok := m.Lookup(sess.ID)
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "orphaned session must be reaped")
}

func TestKillDebuggeeIsNoopWithoutAKnownPID(t *testing.T) {
	t.Parallel()
	sess := &Session{Driver: native.New(0)}
	assert.NoError(t, sess.KillDebuggee())
}

func TestKillDebuggeeSignalsTheRecordedPID(t *testing.T) {
	t.Parallel()
	cmd := exec.Command("sleep", "5")
	require.NoError(t, cmd.Start())

	sess := &Session{Driver: native.New(cmd.Process.Pid)}
	require.NoError(t, sess.KillDebuggee())

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sleep process was not killed")
	}
}
