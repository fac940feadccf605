package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// WritePIDFile records the current process PID at path, per spec.md
// §4.7. It is a best-effort record, not a lock: spec.md §9 leaves
// first-instance-wins concurrency unspecified, so a second daemon
// racing the same socket path simply loses the bind in Server.Run
// rather than being blocked here.
func WritePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600)
}

// RemovePIDFile removes the PID file written by WritePIDFile.
func RemovePIDFile(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ReadPIDFile returns the PID recorded at path, and whether that
// process still looks alive (per the same zero-signal liveness probe
// the orphan watchdog uses).
func ReadPIDFile(path string) (pid int, alive bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false, err
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false, fmt.Errorf("parse pid file %s: %w", path, err)
	}
	sigErr := unix.Kill(pid, 0)
	alive = sigErr == nil || sigErr != unix.ESRCH
	return pid, alive, nil
}
