package types

// This file defines the request/result shapes for the Driver operations
// of spec.md §4.1 that don't fit naturally into the core StopState /
// Breakpoint / Capabilities vocabulary in types.go.

type (
	// Thread is one execution thread of the debuggee.
	Thread struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	// Module describes a loaded binary image.
	Module struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Path    string `json:"path,omitempty"`
		Symbols bool   `json:"symbols_loaded,omitempty"`
	}

	// DataBreakpointInfo is the result of Driver.DataBreakpointInfo: the
	// opaque data-breakpoint id for a variable/expression plus the
	// access types the backend supports for it.
	DataBreakpointInfo struct {
		DataID      string   `json:"data_id,omitempty"`
		Description string   `json:"description"`
		AccessTypes []string `json:"access_types,omitempty"`
	}

	// BreakpointLocation is one candidate line/column a breakpoint could
	// bind to within a source range.
	BreakpointLocation struct {
		Line      int `json:"line"`
		Column    int `json:"column,omitempty"`
		EndLine   int `json:"end_line,omitempty"`
		EndColumn int `json:"end_column,omitempty"`
	}

	// StepInTarget is one candidate callee Driver.StepInTargets offers
	// for a step-in at the given frame.
	StepInTarget struct {
		ID    int    `json:"id"`
		Label string `json:"label"`
	}

	// GotoTarget is one candidate location Driver.GotoTargets offers for
	// a goto at the given source position.
	GotoTarget struct {
		ID     int `json:"id"`
		Line   int `json:"line"`
		Column int `json:"column,omitempty"`
	}

	// Completion is one candidate completion Driver.Completions offers.
	Completion struct {
		Label string `json:"label"`
		Text  string `json:"text,omitempty"`
		Type  string `json:"type,omitempty"`
	}

	// MemoryReadResult is the result of Driver.ReadMemory.
	MemoryReadResult struct {
		Address       string `json:"address"`
		Data          []byte `json:"data"`
		UnreadableBytes int  `json:"unreadable_bytes,omitempty"`
	}

	// MemoryWriteResult is the result of Driver.WriteMemory.
	MemoryWriteResult struct {
		BytesWritten int `json:"bytes_written"`
	}

	// Instruction is one disassembled instruction.
	Instruction struct {
		Address          string `json:"address"`
		Instruction      string `json:"instruction"`
		InstructionBytes string `json:"instruction_bytes,omitempty"`
		Symbol           string `json:"symbol,omitempty"`
		Line             int    `json:"line,omitempty"`
	}

	// Register is one named register value.
	Register struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}

	// InspectRequest parameterizes Driver.Inspect: either a bare
	// expression evaluated at a frame, or a request for the children of
	// a previously returned VariablesReference.
	InspectRequest struct {
		Expression         string `json:"expression,omitempty"`
		FrameID            int    `json:"frame_id,omitempty"`
		VariablesReference int    `json:"variables_reference,omitempty"`
		Context            string `json:"context,omitempty"`
	}

	// InspectResult is the result of Driver.Inspect.
	InspectResult struct {
		Value              string `json:"value"`
		Type               string `json:"type,omitempty"`
		VariablesReference int    `json:"variables_reference,omitempty"`
	}

	// SymbolLocation is the result of Driver.FindSymbol.
	SymbolLocation struct {
		Name     string `json:"name"`
		Address  string `json:"address,omitempty"`
		Source   Source `json:"source,omitempty"`
		Line     int    `json:"line,omitempty"`
	}

	// VariableLocation is the result of Driver.VariableLocation.
	VariableLocation struct {
		Address string `json:"address,omitempty"`
		Source  Source `json:"source,omitempty"`
		Line    int    `json:"line,omitempty"`
	}

	// MacroExpansion is the result of Driver.ExpandMacro.
	MacroExpansion struct {
		Expansion string `json:"expansion"`
	}
)
