package dispatch

// registerTools builds the full 34+ tool vocabulary of spec.md §6: one
// JSON Schema plus one handler per tool, installed into the dispatcher's
// lookup tables. Schemas only describe required-field presence; field
// types, non-empty strings and the breakpoint action enum are checked in
// the handlers themselves via the requiredXxx helpers, and addresses are
// passed to the driver after a non-empty check only, matching the
// teacher's validatePayloadJSONAgainstSchema (schema for shape, Go code
// for domain rules).
func (d *Dispatcher) registerTools() error {
	for name, def := range toolDefs {
		schema, err := compileSchema(name, def.schema)
		if err != nil {
			return err
		}
		d.schemas[name] = schema
		d.handlers[name] = def.handler
	}
	return nil
}

type toolDef struct {
	schema  map[string]any
	handler toolHandler
}

func objectSchema(required ...string) map[string]any {
	return map[string]any{
		"type":     "object",
		"required": required,
	}
}

var toolDefs = map[string]toolDef{
	// Lifecycle
	"launch":    {schema: objectSchema("program"), handler: handleLaunch},
	"attach":    {schema: objectSchema("pid"), handler: handleAttach},
	"load_core": {schema: objectSchema("session_id", "core_path", "exe_path"), handler: handleLoadCore},
	"stop":      {schema: objectSchema("session_id"), handler: handleStop},
	"terminate": {schema: objectSchema("session_id"), handler: handleTerminate},
	"detach":    {schema: objectSchema("session_id"), handler: handleDetach},
	"restart":   {schema: objectSchema("session_id"), handler: handleRestart},

	// Breakpoints
	"breakpoint":            {schema: objectSchema("session_id", "action"), handler: handleBreakpoint},
	"set_exception_breakpoints": {schema: objectSchema("session_id"), handler: handleSetExceptionBreakpoints},
	"set_instruction_breakpoints": {schema: objectSchema("session_id", "addresses"), handler: handleSetInstructionBreakpoints},
	"set_data_breakpoint":   {schema: objectSchema("session_id", "data_id", "access_type"), handler: handleSetDataBreakpoint},
	"breakpoint_locations":  {schema: objectSchema("session_id", "source", "line"), handler: handleBreakpointLocations},
	"data_breakpoint_info":  {schema: objectSchema("session_id", "variable"), handler: handleDataBreakpointInfo},

	// Execution
	"run":           {schema: objectSchema("session_id", "action"), handler: handleRun},
	"goto":          {schema: objectSchema("session_id", "file", "line"), handler: handleGoto},
	"restart_frame": {schema: objectSchema("session_id", "frame_id"), handler: handleRestartFrame},

	// Inspection
	"threads":        {schema: objectSchema("session_id"), handler: handleThreads},
	"stack_trace":    {schema: objectSchema("session_id", "thread_id"), handler: handleStackTrace},
	"scopes":         {schema: objectSchema("session_id", "frame_id"), handler: handleScopes},
	"inspect":        {schema: objectSchema("session_id"), handler: handleInspect},
	"set_variable":   {schema: objectSchema("session_id", "name", "value", "frame_id"), handler: handleSetVariable},
	"set_expression": {schema: objectSchema("session_id", "expression", "value", "frame_id"), handler: handleSetExpression},
	"step_in_targets": {schema: objectSchema("session_id", "frame_id"), handler: handleStepInTargets},
	"goto_targets":   {schema: objectSchema("session_id", "file", "line"), handler: handleGotoTargets},
	"completions":    {schema: objectSchema("session_id", "text", "column"), handler: handleCompletions},
	"exception_info": {schema: objectSchema("session_id", "thread_id"), handler: handleExceptionInfo},
	"source":         {schema: objectSchema("session_id", "ref"), handler: handleSource},

	// Introspection
	"modules":           {schema: objectSchema("session_id"), handler: handleModules},
	"loaded_sources":    {schema: objectSchema("session_id"), handler: handleLoadedSources},
	"capabilities":      {schema: objectSchema("session_id"), handler: handleCapabilities},
	"find_symbol":       {schema: objectSchema("session_id", "name"), handler: handleFindSymbol},
	"variable_location": {schema: objectSchema("session_id", "name", "frame_id"), handler: handleVariableLocation},
	"expand_macro":      {schema: objectSchema("session_id", "name"), handler: handleExpandMacro},

	// Low-level
	"read_memory":    {schema: objectSchema("session_id", "address", "size"), handler: handleReadMemory},
	"write_memory":   {schema: objectSchema("session_id", "address", "data"), handler: handleWriteMemory},
	"disassemble":    {schema: objectSchema("session_id", "address", "count"), handler: handleDisassemble},
	"registers":      {schema: objectSchema("session_id", "thread_id"), handler: handleReadRegisters},
	"write_register": {schema: objectSchema("session_id", "thread_id", "name", "value"), handler: handleWriteRegister},

	// Meta
	"cancel":            {schema: objectSchema("session_id"), handler: handleCancel},
	"terminate_threads": {schema: objectSchema("session_id", "thread_ids"), handler: handleTerminateThreads},
	"raw_request":       {schema: objectSchema("session_id", "command"), handler: handleRawRequest},
	"poll_events":       {schema: objectSchema(), handler: handlePollEvents},
	"sessions":          {schema: objectSchema(), handler: handleSessions},
}
