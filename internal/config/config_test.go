package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaultsSocketPathsUnderRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/tmp/cogdebugtest")
	t.Setenv("COG_DEBUG_SOCKET", "")
	t.Setenv("COG_DEBUG_DASHBOARD_SOCKET", "")
	t.Setenv("COG_DEBUG_PID_FILE", "")

	cfg := Load()
	assert.Contains(t, cfg.SocketPath, "/tmp/cogdebugtest/cog-debug-")
	assert.Contains(t, cfg.DashboardSocketPath, "-dashboard.sock")
	assert.Contains(t, cfg.PIDFile, ".pid")
}

func TestLoadHonorsExplicitOverrides(t *testing.T) {
	t.Setenv("COG_DEBUG_SOCKET", "/custom/path.sock")
	t.Setenv("COG_DEBUG_ADAPTER_TIMEOUT", "30s")

	cfg := Load()
	assert.Equal(t, "/custom/path.sock", cfg.SocketPath)
	assert.Equal(t, 30*time.Second, cfg.AdapterRequestTimeout)
}

func TestEnvDurationOrFallsBackOnAGarbageValue(t *testing.T) {
	t.Setenv("COG_DEBUG_ORPHAN_INTERVAL", "not-a-duration")
	cfg := Load()
	assert.Equal(t, 2*time.Second, cfg.OrphanWatchdogInterval)
}
