// Package session implements the Session & SessionManager component
// (spec.md §4.4): a registry binding each debug session to exactly one
// driver instance, a small status state machine, an optional client-pid
// orphan watchdog, and the per-session async execution controller.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cog-debug/cog-debug/internal/async"
	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/drivers"
	"github.com/cog-debug/cog-debug/internal/telemetry"
	"github.com/cog-debug/cog-debug/internal/types"
)

// Session is the durable in-memory record for one bound debugger
// instance. Its driver handle is never replaced after creation.
type Session struct {
	ID     string
	Driver drivers.Driver
	Async  *async.Controller

	mu           sync.Mutex
	status       types.SessionStatus
	clientPID    int
	orphanPolicy types.OrphanPolicy
	createdAt    time.Time
}

// Status returns the session's current lifecycle state.
func (s *Session) Status() types.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetStatus transitions the session's status. Once the session is
// terminated the status never changes again (later calls are ignored);
// any other transition is applied as requested.
func (s *Session) SetStatus(status types.SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == types.StatusTerminated {
		return
	}
	s.status = status
}

// ClientPID returns the session's owning client PID, if any.
func (s *Session) ClientPID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientPID, s.clientPID != 0
}

// OrphanPolicy returns the policy to apply if the client process dies.
func (s *Session) OrphanPolicy() types.OrphanPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orphanPolicy
}

// CreatedAt returns the session's creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// generateSessionID returns a short, collision-checked opaque session
// identifier: a "sess-" prefix plus a short hex suffix drawn from a v4
// UUID, matching the teacher's generateRunID prefix-plus-uuid shape
// while keeping the visible ID short per spec.md §4.4 "short hex
// suffix".
func generateSessionID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("sess-%s", raw[:12])
}

// Manager owns the keyed table of live sessions plus the orphan
// watchdog. A single mutex guards the table; individual sessions carry
// their own execution locks, per spec.md §4.4 "Concurrency".
type Manager struct {
	logger  telemetry.Logger
	metrics telemetry.Metrics

	mu       sync.Mutex
	sessions map[string]*Session

	watchdogInterval time.Duration
	stopWatchdog     chan struct{}
	watchdogDone     chan struct{}
}

// NewManager constructs a Manager and starts its orphan watchdog loop.
func NewManager(logger telemetry.Logger, metrics telemetry.Metrics, watchdogInterval time.Duration) *Manager {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if watchdogInterval <= 0 {
		watchdogInterval = 2 * time.Second
	}
	m := &Manager{
		logger:           logger,
		metrics:          metrics,
		sessions:         make(map[string]*Session),
		watchdogInterval: watchdogInterval,
		stopWatchdog:     make(chan struct{}),
		watchdogDone:     make(chan struct{}),
	}
	go m.watchdogLoop()
	return m
}

// Create registers a new session bound to driver, optionally tied to a
// client PID with the given orphan policy. Uniqueness is checked against
// the live registry per spec.md §4.4.
func (m *Manager) Create(driver drivers.Driver, clientPID int, policy types.OrphanPolicy, logger telemetry.Logger, metrics telemetry.Metrics) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	var id string
	for {
		id = generateSessionID()
		if _, exists := m.sessions[id]; !exists {
			break
		}
	}
	sess := &Session{
		ID:           id,
		Driver:       driver,
		Async:        async.NewController(driver, logger, metrics),
		status:       types.StatusCreated,
		clientPID:    clientPID,
		orphanPolicy: policy,
		createdAt:    time.Now(),
	}
	m.sessions[id] = sess
	m.metrics.IncCounter("sessions_created_total", 1)
	return sess
}

// Lookup returns the session for id, if it exists.
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// List returns every live session. The returned slice is a snapshot;
// mutating it does not affect the registry.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	return out
}

// Destroy tears down the session: cancels any pending run, calls driver
// teardown, and frees the registry key.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return drivererr.Errorf(drivererr.InvalidArgs, "unknown session %q", id)
	}

	if sess.Async.HasPending() {
		sess.Async.CancelBlocked()
	}
	sess.SetStatus(types.StatusTerminated)
	err := sess.Driver.Stop(ctx)
	m.metrics.IncCounter("sessions_destroyed_total", 1)
	return err
}

// Shutdown stops the orphan watchdog loop. It does not destroy any
// session; callers that want a clean process exit should Destroy every
// session first.
func (m *Manager) Shutdown() {
	close(m.stopWatchdog)
	<-m.watchdogDone
}
