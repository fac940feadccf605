package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRemovePIDFileRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cog-debug.pid")

	require.NoError(t, WritePIDFile(path))

	pid, alive, err := ReadPIDFile(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, alive)

	require.NoError(t, RemovePIDFile(path))
	assert.NoError(t, RemovePIDFile(path), "removing an already-absent pid file must be a no-op")
}

func TestReadPIDFileReportsADeadProcessAsNotAlive(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cog-debug.pid")
	// PID 1 is always init/PID namespace root and alive in any container;
	// use a PID well past any plausible live process instead.
	const improbablePID = 1 << 30
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(improbablePID)+"\n"), 0o600))

	_, alive, err := ReadPIDFile(path)
	require.NoError(t, err)
	assert.False(t, alive)
}
