// Package dispatch implements the Tool Dispatcher (spec.md §4.5): the
// single call_tool(name, args) entry point that validates arguments,
// looks up or mutates a session, invokes driver operations, and maps
// outcomes (including errors) onto the JSON-RPC-compatible wire
// contract of spec.md §6.
package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/drivers"
	"github.com/cog-debug/cog-debug/internal/drivers/adapter"
	"github.com/cog-debug/cog-debug/internal/drivers/native"
	"github.com/cog-debug/cog-debug/internal/session"
	"github.com/cog-debug/cog-debug/internal/telemetry"
	"github.com/cog-debug/cog-debug/internal/types"
)

// EventSink is the subset of the Event Bus's surface the dispatcher
// depends on, so internal/dispatch can be built and tested without
// importing internal/eventbus directly. Every emit is best-effort: the
// dispatcher never lets a sink failure affect a tool's result, per
// spec.md §4.6.
type EventSink interface {
	Emit(kind string, fields map[string]any)
}

type noopSink struct{}

func (noopSink) Emit(string, map[string]any) {}

// Result is the outcome of a call_tool invocation, ready to be
// marshaled as the client transport's response envelope.
type Result struct {
	OK     bool           `json:"ok"`
	Result any            `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithLogger(l telemetry.Logger) Option   { return func(d *Dispatcher) { d.logger = l } }
func WithMetrics(m telemetry.Metrics) Option { return func(d *Dispatcher) { d.metrics = m } }
func WithTracer(t telemetry.Tracer) Option   { return func(d *Dispatcher) { d.tracer = t } }
func WithEventSink(s EventSink) Option       { return func(d *Dispatcher) { d.events = s } }
func WithAdapterTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.adapterTimeout = t }
}

// statusBypassTools never get the running-session guard applied, per
// spec.md §4.5 "Tools that bypass status checks".
var statusBypassTools = map[string]bool{
	"stop":         true,
	"cancel":       true,
	"poll_events":  true,
	"sessions":     true,
	"launch":       true,
	"attach":       true,
	"load_core":    true,
}

// inspectionTools are rejected outright while a session is running,
// without consulting the driver, per spec.md §4.5 step 2.
var inspectionTools = map[string]bool{
	"threads":             true,
	"stack_trace":         true,
	"scopes":              true,
	"inspect":             true,
	"set_variable":        true,
	"set_expression":      true,
	"step_in_targets":     true,
	"goto_targets":        true,
	"completions":         true,
	"exception_info":      true,
	"source":              true,
	"modules":             true,
	"loaded_sources":      true,
	"find_symbol":         true,
	"variable_location":   true,
	"expand_macro":        true,
	"read_memory":         true,
	"write_memory":        true,
	"disassemble":         true,
	"registers":           true,
	"write_register":      true,
	"breakpoint_locations": true,
	"data_breakpoint_info": true,
}

// Dispatcher implements call_tool. It is safe for concurrent use by
// multiple transport connections; state mutation is delegated to
// session.Manager (its own mutex) and to each session's own driver and
// async controller.
type Dispatcher struct {
	manager *session.Manager
	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
	events  EventSink

	adapterTimeout time.Duration

	mu       sync.Mutex
	schemas  map[string]*toolSchema
	handlers map[string]toolHandler
}

type toolHandler func(ctx context.Context, d *Dispatcher, args map[string]any) (any, error)

// New constructs a Dispatcher bound to manager and registers every tool
// in the vocabulary.
func New(manager *session.Manager, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		manager:        manager,
		logger:         telemetry.NewNoopLogger(),
		metrics:        telemetry.NewNoopMetrics(),
		tracer:         telemetry.NewNoopTracer(),
		events:         noopSink{},
		adapterTimeout: 10 * time.Second,
		schemas:        make(map[string]*toolSchema),
		handlers:       make(map[string]toolHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.registerTools(); err != nil {
		return nil, err
	}
	return d, nil
}

// CallTool is the single entry point, per spec.md §4.5.
func (d *Dispatcher) CallTool(ctx context.Context, name string, rawArgs json.RawMessage) Result {
	ctx, span := d.tracer.Start(ctx, "dispatch.call_tool")
	defer span.End()
	span.AddEvent("tool", "name", name)

	d.mu.Lock()
	schema, hasSchema := d.schemas[name]
	handler, hasHandler := d.handlers[name]
	d.mu.Unlock()
	if !hasHandler {
		return Result{OK: false, Error: newRPCError(CodeMethodNotFound, "unknown tool "+name)}
	}

	args, err := map[string]any{}, error(nil)
	if hasSchema {
		args, err = schema.validate(rawArgs)
	} else if len(rawArgs) > 0 {
		err = json.Unmarshal(rawArgs, &args)
	}
	if err != nil {
		d.metrics.IncCounter("dispatch_calls_total", 1, "tool", name, "outcome", "invalid_params")
		return Result{OK: false, Error: mapError(err)}
	}

	if err := d.guardRunning(name, args); err != nil {
		d.metrics.IncCounter("dispatch_calls_total", 1, "tool", name, "outcome", "running_guard")
		return Result{OK: false, Error: mapError(err)}
	}

	result, err := handler(ctx, d, args)
	if err != nil {
		d.logger.Error(ctx, "tool call failed", "tool", name, "error", err.Error())
		d.metrics.IncCounter("dispatch_calls_total", 1, "tool", name, "outcome", "error")
		return Result{OK: false, Error: mapError(err)}
	}
	d.metrics.IncCounter("dispatch_calls_total", 1, "tool", name, "outcome", "ok")
	return Result{OK: true, Result: result}
}

// guardRunning enforces spec.md §4.5 step 2: inspection tools reject
// outright on a running session, without consulting the driver.
func (d *Dispatcher) guardRunning(name string, args map[string]any) error {
	if statusBypassTools[name] || !inspectionTools[name] {
		return nil
	}
	sessionID := optionalString(args, "session_id")
	if sessionID == "" {
		return nil
	}
	sess, ok := d.manager.Lookup(sessionID)
	if !ok {
		return drivererr.Errorf(drivererr.InvalidArgs, "unknown session %q", sessionID)
	}
	if sess.Status() == types.StatusRunning {
		return errRunningSession
	}
	return nil
}

// lookupSession resolves session_id out of args, mapping a miss to the
// client-fault taxonomy of spec.md §7.
func (d *Dispatcher) lookupSession(args map[string]any) (*session.Session, error) {
	id, err := requiredString(args, "session_id")
	if err != nil {
		return nil, err
	}
	sess, ok := d.manager.Lookup(id)
	if !ok {
		return nil, drivererr.Errorf(drivererr.InvalidArgs, "unknown session %q", id)
	}
	return sess, nil
}

// driverFor constructs the concrete driver for a launch/attach request.
// backend selects between the Adapter Proxy and the Native Engine stub;
// an empty backend defaults to the adapter proxy, the common case for
// external-language debuggees.
func (d *Dispatcher) driverFor(ctx context.Context, backend, program string, pid int) (drivers.Driver, error) {
	if backend == "native" {
		return native.New(pid), nil
	}
	return adapter.New(ctx, program, nil, adapter.Config{
		RequestTimeout: d.adapterTimeout,
		Logger:         d.logger,
	})
}
