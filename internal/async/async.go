// Package async implements the Async Execution Controller: the mechanism
// that turns a blocking driver Run call into an immediately-returning
// request with a pollable completion (spec.md §4.3). A PendingRun is a
// per-session single slot; at most one worker may be in flight per
// session at a time.
//
// The specification's "atomic completion tag written with release
// ordering, read with acquire ordering" maps directly onto sync/atomic's
// Int32 load/store, which already carry those semantics on every
// platform Go supports; no separate memory fence is needed.
package async

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/drivers"
	"github.com/cog-debug/cog-debug/internal/telemetry"
	"github.com/cog-debug/cog-debug/internal/types"
)

// completion tag values, per spec.md §3 PendingRun.
const (
	tagRunning int32 = 0
	tagOK      int32 = 1
	tagError   int32 = 2
)

// PendingRun is the owned worker-thread handle plus atomic completion tag
// for one in-flight run on one session.
type PendingRun struct {
	sessionID string
	action    string

	tag atomic.Int32

	mu       sync.Mutex
	stop     *types.StopState
	errToken string

	done   chan struct{}
	cancel context.CancelFunc
}

// Controller drives a single session's PendingRun lifecycle: spawning the
// worker, transparently resuming through log-points, and exposing the
// poll/cancel operations the dispatcher needs.
type Controller struct {
	driver  drivers.Driver
	logger  telemetry.Logger
	metrics telemetry.Metrics

	mu      sync.Mutex
	pending *PendingRun
}

// NewController binds a Controller to the driver instance it drives.
func NewController(driver drivers.Driver, logger telemetry.Logger, metrics telemetry.Metrics) *Controller {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Controller{driver: driver, logger: logger, metrics: metrics}
}

// HasPending reports whether a run is currently in flight, per spec.md
// §4.3 step 1's "rejects run if ... has a pending slot" guard.
func (c *Controller) HasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Start spawns the worker goroutine for action/opts and returns
// immediately; the dispatcher is expected to report {status:"running"}
// to its caller without waiting on the result.
func (c *Controller) Start(sessionID, action string, runAction types.RunAction, opts types.RunOptions) error {
	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return drivererr.New(drivererr.Denied, "session already has a run in flight")
	}
	workerCtx, cancel := context.WithCancel(context.Background())
	pr := &PendingRun{
		sessionID: sessionID,
		action:    action,
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	c.pending = pr
	c.mu.Unlock()

	go c.work(workerCtx, pr, runAction, opts)
	return nil
}

// work is the worker goroutine body: it invokes the driver's blocking
// Run, transparently resumes through log-point stops without publishing
// them, and deposits exactly one terminal outcome.
func (c *Controller) work(ctx context.Context, pr *PendingRun, action types.RunAction, opts types.RunOptions) {
	defer close(pr.done)

	stop, err := c.driver.Run(ctx, action, opts)
	for err == nil && stop != nil && stop.ShouldResume {
		accumulated := stop.LogMessages
		stop, err = c.driver.Run(ctx, types.RunContinue, types.RunOptions{ThreadID: opts.ThreadID})
		if err == nil && stop != nil {
			stop.LogMessages = append(accumulated, stop.LogMessages...)
		}
	}

	if err != nil {
		pr.mu.Lock()
		pr.errToken = err.Error()
		pr.mu.Unlock()
		pr.tag.Store(tagError)
		c.metrics.IncCounter("async_run_total", 1, "outcome", "error")
		c.logger.Error(ctx, "run failed", "session_id", pr.sessionID, "error", err.Error())
		return
	}
	pr.mu.Lock()
	pr.stop = stop
	pr.mu.Unlock()
	pr.tag.Store(tagOK)
	c.metrics.IncCounter("async_run_total", 1, "outcome", "ok")
}

// Outcome is the result of promoting a completed PendingRun, returned by
// Poll.
type Outcome struct {
	Stop      *types.StopState
	ErrToken  string
	Failed    bool
	Completed bool
}

// Poll performs one acquire-ordered load of the pending slot's
// completion tag. If the run is still in flight it returns
// Completed=false. Otherwise it joins the worker, frees the slot, and
// returns the terminal outcome — the caller (dispatcher) is responsible
// for updating session status and emitting the synthesized event.
func (c *Controller) Poll() Outcome {
	c.mu.Lock()
	pr := c.pending
	c.mu.Unlock()
	if pr == nil {
		return Outcome{Completed: false}
	}

	switch pr.tag.Load() {
	case tagRunning:
		return Outcome{Completed: false}
	case tagOK:
		<-pr.done
		pr.mu.Lock()
		stop := pr.stop
		pr.mu.Unlock()
		c.clear(pr)
		return Outcome{Completed: true, Stop: stop}
	default: // tagError
		<-pr.done
		pr.mu.Lock()
		token := pr.errToken
		pr.mu.Unlock()
		c.clear(pr)
		return Outcome{Completed: true, Failed: true, ErrToken: token}
	}
}

func (c *Controller) clear(pr *PendingRun) {
	c.mu.Lock()
	if c.pending == pr {
		c.pending = nil
	}
	c.mu.Unlock()
}

// CancelBlocked implements spec.md §4.3 step 4: unblocking a worker
// stuck in a blocking driver.Run call without racing the debuggee's own
// teardown. The caller is expected to have already sent SIGKILL to the
// debuggee PID (internal/session owns that, since it is the one holding
// the PID and the orphan-watchdog machinery); CancelBlocked's job is
// purely to cancel the worker's context and wait for it to unwind.
func (c *Controller) CancelBlocked() {
	c.mu.Lock()
	pr := c.pending
	c.mu.Unlock()
	if pr == nil {
		return
	}
	pr.cancel()
	<-pr.done
	c.clear(pr)
}
