// Package types defines the domain value objects shared across the
// driver, session, async, and dispatch layers: stack frames, variables,
// scopes, breakpoint records, stop state, launch configuration, run
// actions, stepping granularity, capability flags, and notification
// envelopes. These are pure data; parsing and serialization only, no
// behavior.
package types

import "encoding/json"

// RunAction identifies the execution-control verb requested of a driver's
// Run operation.
type RunAction string

const (
	RunContinue RunAction = "continue"
	RunNext     RunAction = "next"
	RunStepIn   RunAction = "step_in"
	RunStepOut  RunAction = "step_out"
	RunPause    RunAction = "pause"
	RunRestart  RunAction = "restart"
)

// SteppingGranularity controls how far a step action advances (statement,
// line, or instruction), mirroring the common debug-adapter vocabulary.
type SteppingGranularity string

const (
	GranularityStatement  SteppingGranularity = "statement"
	GranularityLine       SteppingGranularity = "line"
	GranularityInstruction SteppingGranularity = "instruction"
)

// StopReason is the wire-stable reason a debuggee came to rest. Values
// match spec.md §6 exactly.
type StopReason string

const (
	StopBreakpoint           StopReason = "breakpoint"
	StopStep                 StopReason = "step"
	StopException            StopReason = "exception"
	StopEntry                StopReason = "entry"
	StopPause                StopReason = "pause"
	StopGoto                 StopReason = "goto"
	StopFunctionBreakpoint   StopReason = "function breakpoint"
	StopDataBreakpoint       StopReason = "data breakpoint"
	StopInstructionBreakpoint StopReason = "instruction breakpoint"
	StopExited               StopReason = "exited"
)

// SessionStatus is the session lifecycle state machine of spec.md §3:
// running <-> stopped, with a one-way terminal edge to terminated.
type SessionStatus string

const (
	StatusCreated    SessionStatus = "created"
	StatusRunning    SessionStatus = "running"
	StatusStopped    SessionStatus = "stopped"
	StatusTerminated SessionStatus = "terminated"
)

// OrphanPolicy controls what happens to a session whose owning client
// process has died.
type OrphanPolicy string

const (
	OrphanTerminate OrphanPolicy = "terminate"
	OrphanDetach    OrphanPolicy = "detach"
)

type (
	// Source identifies a source file, optionally with an adapter
	// reference number used to fetch synthesized/disassembled content.
	Source struct {
		Path           string `json:"path,omitempty"`
		Ref            int    `json:"ref,omitempty"`
		PresentationHint string `json:"presentation_hint,omitempty"`
	}

	// StackFrame is one entry of a thread's call stack.
	StackFrame struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Source Source `json:"source,omitempty"`
		Line   int    `json:"line"`
		Column int    `json:"column,omitempty"`
	}

	// Scope names a group of variables visible at a given frame (locals,
	// arguments, registers, ...).
	Scope struct {
		Name               string `json:"name"`
		VariablesReference int    `json:"variables_reference"`
		Expensive          bool   `json:"expensive,omitempty"`
	}

	// Variable is a single named value, possibly itself structured
	// (VariablesReference > 0 means children can be fetched).
	Variable struct {
		Name               string `json:"name"`
		Value              string `json:"value"`
		Type               string `json:"type,omitempty"`
		VariablesReference int    `json:"variables_reference,omitempty"`
		MemoryReference    string `json:"memory_reference,omitempty"`
	}

	// ExceptionInfo describes an exception that stopped the debuggee.
	ExceptionInfo struct {
		ExceptionID string `json:"exception_id"`
		Description string `json:"description,omitempty"`
		StackTrace  string `json:"stack_trace,omitempty"`
	}

	// OutputEntry is one captured line of debuggee stdio or adapter log
	// output, accumulated into the current stop's ring per spec.md §4.2.
	OutputEntry struct {
		Category string `json:"category"`
		Text     string `json:"text"`
	}

	// StopState is the publishable snapshot of a debuggee at rest: see
	// spec.md §3.
	StopState struct {
		Reason           StopReason      `json:"stop_reason"`
		ThreadID         int             `json:"thread_id,omitempty"`
		Location         *Source         `json:"location,omitempty"`
		Frames           []StackFrame    `json:"frames,omitempty"`
		Locals           []Variable      `json:"locals,omitempty"`
		Exception        *ExceptionInfo  `json:"exception,omitempty"`
		ExitCode         *int            `json:"exit_code,omitempty"`
		LogMessages      []string        `json:"log_messages,omitempty"`
		Output           []OutputEntry   `json:"output,omitempty"`
		HitBreakpointIDs []int           `json:"hit_breakpoint_ids,omitempty"`

		// ShouldResume is internal-only (never serialized): it drives
		// transparent log-point continuation in the async controller and
		// must never surface to a client.
		ShouldResume bool `json:"-"`
	}

	// Breakpoint is a server-assigned breakpoint record; see spec.md §3.
	Breakpoint struct {
		ID           int    `json:"id"`
		Verified     bool   `json:"verified"`
		File         string `json:"file"`
		Line         int    `json:"line"`
		ResolvedLine *int   `json:"resolved_line,omitempty"`
		Condition    string `json:"condition,omitempty"`
		HitCondition string `json:"hit_condition,omitempty"`
		LogMessage   string `json:"log_message,omitempty"`
	}

	// LaunchConfig configures Driver.Launch.
	LaunchConfig struct {
		Program     string            `json:"program"`
		Args        []string          `json:"args,omitempty"`
		Cwd         string            `json:"cwd,omitempty"`
		Env         map[string]string `json:"env,omitempty"`
		StopOnEntry bool              `json:"stop_on_entry,omitempty"`
	}

	// RunOptions parameterizes Driver.Run beyond the bare action (e.g.
	// stepping granularity, target thread).
	RunOptions struct {
		ThreadID    int                 `json:"thread_id,omitempty"`
		Granularity SteppingGranularity `json:"granularity,omitempty"`
	}

	// Capabilities is the 32-flag feature set a driver reports. Only
	// true flags are meant to surface to clients (see MarshalJSON).
	Capabilities struct {
		SupportsConditionalBreakpoints    bool
		SupportsHitConditionalBreakpoints bool
		SupportsFunctionBreakpoints       bool
		SupportsExceptionOptions         bool
		SupportsInstructionBreakpoints   bool
		SupportsDataBreakpoints          bool
		SupportsLogPoints                bool
		SupportsStepBack                 bool
		SupportsStepInTargetsRequest     bool
		SupportsGotoTargetsRequest       bool
		SupportsCompletionsRequest       bool
		SupportsModulesRequest           bool
		SupportsRestartRequest           bool
		SupportsRestartFrame             bool
		SupportsTerminateThreadsRequest  bool
		SupportsReadMemoryRequest        bool
		SupportsWriteMemoryRequest       bool
		SupportsDisassembleRequest       bool
		SupportsReadRegisters            bool
		SupportsWriteRegister            bool
		SupportsCancelRequest            bool
		SupportsSetVariable              bool
		SupportsSetExpression            bool
		SupportsValueFormattingOptions   bool
		SupportsBreakpointLocationsRequest bool
		SupportsLoadedSourcesRequest     bool
		SupportsFindSymbol               bool
		SupportsVariableLocation         bool
		SupportsExpandMacro              bool
		SupportsRawRequest                bool
		SupportsDetach                   bool
		SupportsTerminateDebuggee         bool
	}

	// Notification is a driver event queued for the client's poll stream:
	// a method name plus a pre-serialized, opaque params payload. The
	// dispatcher embeds RawParams verbatim into the outer response
	// envelope (spec.md §9 "raw-JSON passthrough").
	Notification struct {
		Method    string          `json:"method"`
		RawParams json.RawMessage `json:"params"`
	}
)

// MarshalJSON presents Capabilities as an opaque object where only true
// flags surface, per spec.md §3.
func (c Capabilities) MarshalJSON() ([]byte, error) {
	out := map[string]bool{}
	v := map[string]bool{
		"conditionalBreakpoints":    c.SupportsConditionalBreakpoints,
		"hitConditionalBreakpoints": c.SupportsHitConditionalBreakpoints,
		"functionBreakpoints":       c.SupportsFunctionBreakpoints,
		"exceptionOptions":          c.SupportsExceptionOptions,
		"instructionBreakpoints":    c.SupportsInstructionBreakpoints,
		"dataBreakpoints":           c.SupportsDataBreakpoints,
		"logPoints":                 c.SupportsLogPoints,
		"stepBack":                  c.SupportsStepBack,
		"stepInTargetsRequest":      c.SupportsStepInTargetsRequest,
		"gotoTargetsRequest":        c.SupportsGotoTargetsRequest,
		"completionsRequest":        c.SupportsCompletionsRequest,
		"modulesRequest":            c.SupportsModulesRequest,
		"restartRequest":            c.SupportsRestartRequest,
		"restartFrame":              c.SupportsRestartFrame,
		"terminateThreadsRequest":   c.SupportsTerminateThreadsRequest,
		"readMemoryRequest":         c.SupportsReadMemoryRequest,
		"writeMemoryRequest":        c.SupportsWriteMemoryRequest,
		"disassembleRequest":        c.SupportsDisassembleRequest,
		"readRegisters":             c.SupportsReadRegisters,
		"writeRegister":             c.SupportsWriteRegister,
		"cancelRequest":             c.SupportsCancelRequest,
		"setVariable":               c.SupportsSetVariable,
		"setExpression":             c.SupportsSetExpression,
		"valueFormattingOptions":    c.SupportsValueFormattingOptions,
		"breakpointLocationsRequest": c.SupportsBreakpointLocationsRequest,
		"loadedSourcesRequest":      c.SupportsLoadedSourcesRequest,
		"findSymbol":                c.SupportsFindSymbol,
		"variableLocation":          c.SupportsVariableLocation,
		"expandMacro":               c.SupportsExpandMacro,
		"rawRequest":                c.SupportsRawRequest,
		"detach":                    c.SupportsDetach,
		"terminateDebuggee":         c.SupportsTerminateDebuggee,
	}
	for k, ok := range v {
		if ok {
			out[k] = true
		}
	}
	return json.Marshal(out)
}
