// Package eventbus implements the Event Bus & Dashboard Sink (spec.md
// §4.6): a fire-and-forget stream of structured event records to an
// optional observer socket, lazily connected and reconnected with
// capped backoff. Delivery failure is never surfaced to the caller,
// mirroring the teacher's stream.Sink contract (Send errors are the
// only thing that propagates; here there is no caller to propagate to,
// so failures are swallowed and logged instead) adapted to a
// one-way, no-reply, newline-delimited-JSON wire shape instead of
// stream.Event's richer typed payloads.
package eventbus

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cog-debug/cog-debug/internal/telemetry"
)

// reconnectBackoff is the fixed retry interval once the dashboard
// socket is found unavailable, per spec.md §4.6 "back off retries to
// once every 5 seconds when unavailable".
const reconnectBackoff = 5 * time.Second

// Sink is a fire-and-forget dashboard observer sink. It is safe for
// concurrent use; all sends are serialized internally.
type Sink struct {
	path   string
	logger telemetry.Logger

	mu         sync.Mutex
	conn       net.Conn
	lastFailAt time.Time
}

// New constructs a Sink bound to a dashboard socket path. The socket is
// not dialed until the first Emit call.
func New(path string, logger telemetry.Logger) *Sink {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Sink{path: path, logger: logger}
}

// Emit publishes one structured event record. kind is one of launch,
// breakpoint, run, stop, inspect, activity, error, session_end per
// spec.md §4.6; fields is marshaled alongside it as the event body.
// Emit makes at most one dial attempt (one-second timeout) and one
// write per call, and never returns an error: the
// dashboard is a pure observer, never load-bearing for a tool call.
func (s *Sink) Emit(kind string, fields map[string]any) {
	if s.path == "" {
		return
	}
	body := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		body[k] = v
	}
	body["type"] = kind

	payload, err := json.Marshal(body)
	if err != nil {
		s.logger.Warn(context.Background(), "eventbus: marshal event failed", "kind", kind, "error", err.Error())
		return
	}
	payload = append(payload, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ensureConnectedLocked() {
		return
	}
	if _, err := s.conn.Write(payload); err != nil {
		s.logger.Warn(context.Background(), "eventbus: write failed, closing dashboard socket", "error", err.Error())
		s.closeLocked()
	}
}

// ensureConnectedLocked lazily dials the dashboard socket, proactively
// probing an existing connection for a dead peer (HUP) before reusing
// it, per spec.md §4.6 "detect dead peers proactively via poll before
// each send". Must be called with s.mu held.
func (s *Sink) ensureConnectedLocked() bool {
	if s.conn != nil {
		if peerHungUp(s.conn) {
			s.closeLocked()
		} else {
			return true
		}
	}

	if !s.lastFailAt.IsZero() && time.Since(s.lastFailAt) < reconnectBackoff {
		return false
	}

	conn, err := net.DialTimeout("unix", s.path, time.Second)
	if err != nil {
		s.lastFailAt = time.Now()
		return false
	}
	s.conn = conn
	s.lastFailAt = time.Time{}
	return true
}

func (s *Sink) closeLocked() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.lastFailAt = time.Now()
}

// Close releases the sink's connection, if any.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	s.lastFailAt = time.Time{}
}

// peerHungUp polls the connection's underlying file descriptor for
// POLLHUP without blocking, the portable way to detect a dead Unix
// peer before attempting a write that would otherwise surface the
// failure only after the fact.
func peerHungUp(conn net.Conn) bool {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return false
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return false
	}
	var hup bool
	_ = raw.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLHUP}}
		n, _ := unix.Poll(fds, 0)
		if n > 0 && fds[0].Revents&unix.POLLHUP != 0 {
			hup = true
		}
	})
	return hup
}
