package session

import (
	"context"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cog-debug/cog-debug/internal/types"
)

// watchdogLoop periodically checks every session's recorded client PID
// for liveness (spec.md §4.4 "periodic check ... detects the client's
// death"). A zero-signal kill (unix.Kill(pid, 0)) is the portable way to
// probe a PID without actually signaling it: it fails with ESRCH once
// the process is gone.
func (m *Manager) watchdogLoop() {
	defer close(m.watchdogDone)
	ticker := time.NewTicker(m.watchdogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopWatchdog:
			return
		case <-ticker.C:
			m.sweepOrphans()
		}
	}
}

func (m *Manager) sweepOrphans() {
	for _, sess := range m.List() {
		pid, ok := sess.ClientPID()
		if !ok {
			continue
		}
		if sess.Status() == types.StatusTerminated {
			continue
		}
		if clientAlive(pid) {
			continue
		}
		m.reapOrphan(sess)
	}
}

// clientAlive reports whether pid still exists, using a zero-signal
// liveness probe.
func clientAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err != unix.ESRCH
}

// KillDebuggee delivers SIGKILL directly to the session's debuggee PID,
// per spec.md §4.3 step 4: "stop while a worker is in flight must
// unblock the worker without racing on the debuggee's waitpid/IO ...
// send SIGKILL directly to the debuggee PID". It is a no-op if the
// driver has no known PID (e.g. the debuggee has already exited).
func (s *Session) KillDebuggee() error {
	pid, ok := s.Driver.GetPID()
	if !ok {
		return nil
	}
	return unix.Kill(pid, unix.SIGKILL)
}

func (m *Manager) reapOrphan(sess *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m.logger.Warn(ctx, "client process died, reaping orphaned session",
		"session_id", sess.ID, "policy", string(sess.OrphanPolicy()))
	m.metrics.IncCounter("sessions_orphaned_total", 1)

	switch sess.OrphanPolicy() {
	case types.OrphanDetach:
		_ = sess.Driver.Detach(ctx)
	default:
		_ = sess.Driver.Terminate(ctx)
	}
	_ = m.Destroy(ctx, sess.ID)
}
