// Package native provides a minimal in-process driver stub. The real
// Native Engine (DWARF parsing, ptrace control) is out of scope per
// spec.md §1/§6 — it is treated purely as an external collaborator behind
// the same Driver vtable. This stub exists so the Driver interface is
// demonstrably polymorphic (the dispatcher never branches on which
// backend it holds) and so the capability-gating scenario of spec.md §8
// item 6 (native sessions expose registers; DAP sessions may not) has a
// concrete second implementation to compare against the Adapter Proxy.
package native

import (
	"context"
	"sync"

	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/types"
)

// Engine is a black-box in-process driver. It tracks just enough state
// (a synthetic register file, a breakpoint table, one fixed thread) to
// exercise the Driver contract end to end without implementing real
// DWARF/ptrace mechanics.
type Engine struct {
	mu          sync.Mutex
	pid         int
	breakpoints map[int]types.Breakpoint
	nextBPID    int
	registers   []types.Register
	notifs      []types.Notification
}

// New constructs a Native Engine stub bound to the given (already
// running, or about to be launched) debuggee PID.
func New(pid int) *Engine {
	return &Engine{
		pid:         pid,
		breakpoints: make(map[int]types.Breakpoint),
		nextBPID:    1,
		registers: []types.Register{
			{Name: "rip", Value: "0x0"},
			{Name: "rsp", Value: "0x0"},
			{Name: "rbp", Value: "0x0"},
		},
	}
}

func notSupported(op string) error {
	return drivererr.Errorf(drivererr.NotSupported, "native engine: %s is not implemented by this build", op)
}

func (e *Engine) Launch(ctx context.Context, cfg types.LaunchConfig) (*types.StopState, error) {
	reason := types.StopEntry
	if !cfg.StopOnEntry {
		reason = types.StopBreakpoint
	}
	return &types.StopState{Reason: reason}, nil
}

func (e *Engine) Attach(ctx context.Context, pid int) (*types.StopState, error) {
	e.mu.Lock()
	e.pid = pid
	e.mu.Unlock()
	return &types.StopState{Reason: types.StopPause}, nil
}

func (e *Engine) LoadCore(ctx context.Context, corePath, exePath string) (*types.StopState, error) {
	return nil, notSupported("load-core")
}

func (e *Engine) Stop(ctx context.Context) error      { return nil }
func (e *Engine) Terminate(ctx context.Context) error { return nil }
func (e *Engine) Detach(ctx context.Context) error    { return nil }

func (e *Engine) Restart(ctx context.Context) (*types.StopState, error) {
	return &types.StopState{Reason: types.StopEntry}, nil
}

func (e *Engine) SetLineBreakpoint(ctx context.Context, file string, line int, cond, hitCond, logMessage string) (*types.Breakpoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	bp := types.Breakpoint{ID: e.nextBPID, Verified: true, File: file, Line: line, Condition: cond, HitCondition: hitCond, LogMessage: logMessage}
	e.breakpoints[bp.ID] = bp
	e.nextBPID++
	return &bp, nil
}

func (e *Engine) SetFunctionBreakpoint(ctx context.Context, name, cond string) (*types.Breakpoint, error) {
	return nil, notSupported("set-function-breakpoint")
}

func (e *Engine) SetExceptionBreakpoints(ctx context.Context, filters []string) error {
	return notSupported("set-exception-breakpoints")
}

func (e *Engine) SetInstructionBreakpoints(ctx context.Context, addresses []string) ([]types.Breakpoint, error) {
	return nil, notSupported("set-instruction-breakpoints")
}

func (e *Engine) SetDataBreakpoint(ctx context.Context, dataID, accessType string) (*types.Breakpoint, error) {
	return nil, notSupported("set-data-breakpoint")
}

func (e *Engine) RemoveBreakpoint(ctx context.Context, id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.breakpoints, id)
	return nil
}

func (e *Engine) ListBreakpoints(ctx context.Context) ([]types.Breakpoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.Breakpoint, 0, len(e.breakpoints))
	for _, bp := range e.breakpoints {
		out = append(out, bp)
	}
	return out, nil
}

func (e *Engine) DataBreakpointInfo(ctx context.Context, variable string, frameID int) (*types.DataBreakpointInfo, error) {
	return nil, notSupported("data-breakpoint-info")
}

func (e *Engine) BreakpointLocations(ctx context.Context, source string, line, endLine int) ([]types.BreakpointLocation, error) {
	return []types.BreakpointLocation{{Line: line}}, nil
}

func (e *Engine) Run(ctx context.Context, action types.RunAction, opts types.RunOptions) (*types.StopState, error) {
	return &types.StopState{Reason: types.StopStep}, nil
}

func (e *Engine) Goto(ctx context.Context, file string, line int) (*types.StopState, error) {
	return &types.StopState{Reason: types.StopGoto, Location: &types.Source{Path: file}}, nil
}

func (e *Engine) RestartFrame(ctx context.Context, frameID int) (*types.StopState, error) {
	return nil, notSupported("restart-frame")
}

func (e *Engine) Threads(ctx context.Context) ([]types.Thread, error) {
	return []types.Thread{{ID: 1, Name: "main"}}, nil
}

func (e *Engine) StackTrace(ctx context.Context, threadID, start, count int) ([]types.StackFrame, error) {
	return []types.StackFrame{{ID: 0, Name: "main"}}, nil
}

func (e *Engine) Scopes(ctx context.Context, frameID int) ([]types.Scope, error) {
	return []types.Scope{{Name: "Locals", VariablesReference: 1}}, nil
}

func (e *Engine) Inspect(ctx context.Context, req types.InspectRequest) (*types.InspectResult, error) {
	return nil, notSupported("inspect")
}

func (e *Engine) SetVariable(ctx context.Context, name, value string, frameID int) (*types.Variable, error) {
	return nil, notSupported("set-variable")
}

func (e *Engine) SetExpression(ctx context.Context, expr, value string, frameID int) (*types.Variable, error) {
	return nil, notSupported("set-expression")
}

func (e *Engine) StepInTargets(ctx context.Context, frameID int) ([]types.StepInTarget, error) {
	return nil, notSupported("step-in-targets")
}

func (e *Engine) GotoTargets(ctx context.Context, file string, line int) ([]types.GotoTarget, error) {
	return nil, notSupported("goto-targets")
}

func (e *Engine) Completions(ctx context.Context, text string, column int, frameID *int) ([]types.Completion, error) {
	return nil, notSupported("completions")
}

func (e *Engine) ExceptionInfo(ctx context.Context, threadID int) (*types.ExceptionInfo, error) {
	return nil, notSupported("exception-info")
}

func (e *Engine) Source(ctx context.Context, ref int) (string, error) {
	return "", notSupported("source")
}

func (e *Engine) Modules(ctx context.Context) ([]types.Module, error) {
	return nil, notSupported("modules")
}

func (e *Engine) LoadedSources(ctx context.Context) ([]types.Source, error) {
	return nil, notSupported("loaded-sources")
}

func (e *Engine) Capabilities(ctx context.Context) (types.Capabilities, error) {
	return types.Capabilities{
		SupportsConditionalBreakpoints:     true,
		SupportsLogPoints:                  false,
		SupportsReadRegisters:               true,
		SupportsWriteRegister:               true,
		SupportsReadMemoryRequest:           true,
		SupportsBreakpointLocationsRequest:  true,
		SupportsDetach:                      true,
		SupportsTerminateDebuggee:           true,
	}, nil
}

func (e *Engine) FindSymbol(ctx context.Context, name string) (*types.SymbolLocation, error) {
	return nil, notSupported("find-symbol")
}

func (e *Engine) VariableLocation(ctx context.Context, name string, frameID int) (*types.VariableLocation, error) {
	return nil, notSupported("variable-location")
}

func (e *Engine) ExpandMacro(ctx context.Context, name string) (*types.MacroExpansion, error) {
	return nil, notSupported("expand-macro")
}

func (e *Engine) ReadMemory(ctx context.Context, addr string, size int) (*types.MemoryReadResult, error) {
	return &types.MemoryReadResult{Address: addr, Data: make([]byte, size)}, nil
}

func (e *Engine) WriteMemory(ctx context.Context, addr string, data []byte) (*types.MemoryWriteResult, error) {
	return &types.MemoryWriteResult{BytesWritten: len(data)}, nil
}

func (e *Engine) Disassemble(ctx context.Context, addr string, count, offset int, resolveSymbols bool) ([]types.Instruction, error) {
	return nil, notSupported("disassemble")
}

func (e *Engine) ReadRegisters(ctx context.Context, threadID int) ([]types.Register, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.Register, len(e.registers))
	copy(out, e.registers)
	return out, nil
}

func (e *Engine) WriteRegister(ctx context.Context, threadID int, name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, r := range e.registers {
		if r.Name == name {
			e.registers[i].Value = value
			return nil
		}
	}
	return drivererr.Errorf(drivererr.InvalidArgs, "unknown register %q", name)
}

func (e *Engine) Cancel(ctx context.Context, requestID, progressToken string) error {
	return notSupported("cancel")
}

func (e *Engine) TerminateThreads(ctx context.Context, threadIDs []int) error {
	return notSupported("terminate-threads")
}

func (e *Engine) RawRequest(ctx context.Context, command string, payload []byte) ([]byte, error) {
	return nil, notSupported("raw-request")
}

func (e *Engine) DrainNotifications() []types.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.notifs
	e.notifs = nil
	return out
}

func (e *Engine) GetPID() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pid, e.pid != 0
}
