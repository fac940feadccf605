// Package drivers defines the polymorphic Driver interface: a fixed
// operation vocabulary (spec.md §4.1) implemented by concrete backends
// (the Adapter Proxy in internal/drivers/adapter, and the in-process
// Native Engine stub in internal/drivers/native). The dispatcher and
// session manager only ever see this interface; they never branch on the
// concrete backend.
//
// Every operation returns either a fully-owned result or a
// *drivererr.Error. Operations that mutate debuggee state are invalid
// while a session's status is running; that guard is the dispatcher's
// job (internal/dispatch), not the Driver's.
package drivers

import (
	"context"

	"github.com/cog-debug/cog-debug/internal/types"
)

// Driver is the fixed vtable-shaped operation set every backend exposes.
// Go's standard interface dispatch (a function pointer per method, an
// implicit receiver for the type-erased context) plays the role the
// specification's "per-call allocator context" and "type-erased context
// pointer" play in a systems-language port: results are allocated and
// owned by the Go garbage collector rather than an explicit arena, which
// is the one deliberate simplification this port takes against a
// C/Rust-style rendition of §4.1's contracts.
type Driver interface {
	// Lifecycle

	Launch(ctx context.Context, cfg types.LaunchConfig) (*types.StopState, error)
	Attach(ctx context.Context, pid int) (*types.StopState, error)
	LoadCore(ctx context.Context, corePath, exePath string) (*types.StopState, error)
	Stop(ctx context.Context) error
	Terminate(ctx context.Context) error
	Detach(ctx context.Context) error
	Restart(ctx context.Context) (*types.StopState, error)

	// Breakpoints

	SetLineBreakpoint(ctx context.Context, file string, line int, cond, hitCond, logMessage string) (*types.Breakpoint, error)
	SetFunctionBreakpoint(ctx context.Context, name, cond string) (*types.Breakpoint, error)
	SetExceptionBreakpoints(ctx context.Context, filters []string) error
	SetInstructionBreakpoints(ctx context.Context, addresses []string) ([]types.Breakpoint, error)
	SetDataBreakpoint(ctx context.Context, dataID, accessType string) (*types.Breakpoint, error)
	RemoveBreakpoint(ctx context.Context, id int) error
	ListBreakpoints(ctx context.Context) ([]types.Breakpoint, error)
	DataBreakpointInfo(ctx context.Context, variable string, frameID int) (*types.DataBreakpointInfo, error)
	BreakpointLocations(ctx context.Context, source string, line int, endLine int) ([]types.BreakpointLocation, error)

	// Execution

	Run(ctx context.Context, action types.RunAction, opts types.RunOptions) (*types.StopState, error)
	Goto(ctx context.Context, file string, line int) (*types.StopState, error)
	RestartFrame(ctx context.Context, frameID int) (*types.StopState, error)

	// Inspection

	Threads(ctx context.Context) ([]types.Thread, error)
	StackTrace(ctx context.Context, threadID, start, count int) ([]types.StackFrame, error)
	Scopes(ctx context.Context, frameID int) ([]types.Scope, error)
	Inspect(ctx context.Context, req types.InspectRequest) (*types.InspectResult, error)
	SetVariable(ctx context.Context, name, value string, frameID int) (*types.Variable, error)
	SetExpression(ctx context.Context, expr, value string, frameID int) (*types.Variable, error)
	StepInTargets(ctx context.Context, frameID int) ([]types.StepInTarget, error)
	GotoTargets(ctx context.Context, file string, line int) ([]types.GotoTarget, error)
	Completions(ctx context.Context, text string, column int, frameID *int) ([]types.Completion, error)
	ExceptionInfo(ctx context.Context, threadID int) (*types.ExceptionInfo, error)
	Source(ctx context.Context, ref int) (string, error)

	// Introspection

	Modules(ctx context.Context) ([]types.Module, error)
	LoadedSources(ctx context.Context) ([]types.Source, error)
	Capabilities(ctx context.Context) (types.Capabilities, error)
	FindSymbol(ctx context.Context, name string) (*types.SymbolLocation, error)
	VariableLocation(ctx context.Context, name string, frameID int) (*types.VariableLocation, error)
	ExpandMacro(ctx context.Context, name string) (*types.MacroExpansion, error)

	// Low-level

	ReadMemory(ctx context.Context, addr string, size int) (*types.MemoryReadResult, error)
	WriteMemory(ctx context.Context, addr string, data []byte) (*types.MemoryWriteResult, error)
	Disassemble(ctx context.Context, addr string, count, offset int, resolveSymbols bool) ([]types.Instruction, error)
	ReadRegisters(ctx context.Context, threadID int) ([]types.Register, error)
	WriteRegister(ctx context.Context, threadID int, name, value string) error

	// Meta

	Cancel(ctx context.Context, requestID, progressToken string) error
	TerminateThreads(ctx context.Context, threadIDs []int) error
	RawRequest(ctx context.Context, command string, payload []byte) ([]byte, error)
	DrainNotifications() []types.Notification
	GetPID() (int, bool)
}
