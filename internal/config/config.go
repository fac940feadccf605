// Package config loads daemon configuration from the environment,
// grounded on the teacher's env-var configuration style
// (registry/cmd/registry/main.go): small envOr/envIntOr/envDurationOr
// helpers, no config file parser.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the daemon's full runtime configuration.
type Config struct {
	// SocketPath is the client transport socket, per spec.md §6.
	SocketPath string
	// DashboardSocketPath is the optional observer socket, per spec.md §6.
	DashboardSocketPath string
	// PIDFile sits alongside SocketPath.
	PIDFile string

	// AdapterRequestTimeout bounds a single adapter request, per
	// spec.md §4.2.
	AdapterRequestTimeout time.Duration
	// OrphanWatchdogInterval is the period of the client-pid liveness
	// sweep, per spec.md §4.4.
	OrphanWatchdogInterval time.Duration
	// AutostartPollTimeout bounds how long a client waits for an
	// autostarted daemon's socket to appear, per spec.md §4.7.
	AutostartPollTimeout time.Duration
}

// Load builds a Config from the environment, defaulting the socket
// paths to ${XDG_RUNTIME_DIR or /tmp}/cog-debug-${uid}.sock per
// spec.md §6.
func Load() Config {
	runtimeDir := envOr("XDG_RUNTIME_DIR", "/tmp")
	uid := currentUID()
	defaultSocket := filepath.Join(runtimeDir, fmt.Sprintf("cog-debug-%s.sock", uid))
	defaultDashboard := filepath.Join(runtimeDir, fmt.Sprintf("cog-debug-%s-dashboard.sock", uid))
	defaultPIDFile := filepath.Join(runtimeDir, fmt.Sprintf("cog-debug-%s.pid", uid))

	return Config{
		SocketPath:             envOr("COG_DEBUG_SOCKET", defaultSocket),
		DashboardSocketPath:    envOr("COG_DEBUG_DASHBOARD_SOCKET", defaultDashboard),
		PIDFile:                envOr("COG_DEBUG_PID_FILE", defaultPIDFile),
		AdapterRequestTimeout:  envDurationOr("COG_DEBUG_ADAPTER_TIMEOUT", 10*time.Second),
		OrphanWatchdogInterval: envDurationOr("COG_DEBUG_ORPHAN_INTERVAL", 2*time.Second),
		AutostartPollTimeout:   envDurationOr("COG_DEBUG_AUTOSTART_TIMEOUT", 2*time.Second),
	}
}

func currentUID() string {
	u, err := user.Current()
	if err != nil {
		return strconv.Itoa(os.Getuid())
	}
	return u.Uid
}

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOr(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDurationOr(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
