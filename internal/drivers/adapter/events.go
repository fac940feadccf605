package adapter

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/cog-debug/cog-debug/internal/types"
)

// wireCapabilities mirrors the subset of the adapter's initialize-response
// capability bitset this proxy understands. Field names follow the
// widely-used Debug Adapter Protocol's camelCase convention; translation
// to the daemon's internal Capabilities happens once, at ingress, per
// spec.md §9 "Optional, typed stop reasons on the wire".
type wireCapabilities struct {
	SupportsConditionalBreakpoints     bool `json:"supportsConditionalBreakpoints"`
	SupportsHitConditionalBreakpoints  bool `json:"supportsHitConditionalBreakpoints"`
	SupportsFunctionBreakpoints        bool `json:"supportsFunctionBreakpoints"`
	SupportsExceptionOptions           bool `json:"supportsExceptionOptions"`
	SupportsInstructionBreakpoints     bool `json:"supportsInstructionBreakpoints"`
	SupportsDataBreakpoints            bool `json:"supportsDataBreakpoints"`
	SupportsLogPoints                  bool `json:"supportsLogPoints"`
	SupportsStepBack                   bool `json:"supportsStepBack"`
	SupportsStepInTargetsRequest       bool `json:"supportsStepInTargetsRequest"`
	SupportsGotoTargetsRequest         bool `json:"supportsGotoTargetsRequest"`
	SupportsCompletionsRequest         bool `json:"supportsCompletionsRequest"`
	SupportsModulesRequest             bool `json:"supportsModulesRequest"`
	SupportsRestartRequest             bool `json:"supportsRestartRequest"`
	SupportsRestartFrame               bool `json:"supportsRestartFrame"`
	SupportsTerminateThreadsRequest    bool `json:"supportsTerminateThreadsRequest"`
	SupportsReadMemoryRequest          bool `json:"supportsReadMemoryRequest"`
	SupportsWriteMemoryRequest         bool `json:"supportsWriteMemoryRequest"`
	SupportsDisassembleRequest         bool `json:"supportsDisassembleRequest"`
	SupportsCancelRequest              bool `json:"supportsCancelRequest"`
	SupportsSetVariable                bool `json:"supportsSetVariable"`
	SupportsSetExpression              bool `json:"supportsSetExpression"`
	SupportsValueFormattingOptions     bool `json:"supportsValueFormattingOptions"`
	SupportsBreakpointLocationsRequest bool `json:"supportsBreakpointLocationsRequest"`
	SupportsLoadedSourcesRequest       bool `json:"supportsLoadedSourcesRequest"`
	SupportTerminateDebuggee           bool `json:"supportTerminateDebuggee"`
	SupportsTerminateDebuggee          bool `json:"supportsTerminateDebuggee"`
}

func capabilitiesFromWire(body json.RawMessage) types.Capabilities {
	var wc wireCapabilities
	if len(body) > 0 {
		_ = json.Unmarshal(body, &wc)
	}
	return types.Capabilities{
		SupportsConditionalBreakpoints:     wc.SupportsConditionalBreakpoints,
		SupportsHitConditionalBreakpoints:  wc.SupportsHitConditionalBreakpoints,
		SupportsFunctionBreakpoints:        wc.SupportsFunctionBreakpoints,
		SupportsExceptionOptions:           wc.SupportsExceptionOptions,
		SupportsInstructionBreakpoints:     wc.SupportsInstructionBreakpoints,
		SupportsDataBreakpoints:            wc.SupportsDataBreakpoints,
		SupportsLogPoints:                  wc.SupportsLogPoints,
		SupportsStepBack:                   wc.SupportsStepBack,
		SupportsStepInTargetsRequest:       wc.SupportsStepInTargetsRequest,
		SupportsGotoTargetsRequest:         wc.SupportsGotoTargetsRequest,
		SupportsCompletionsRequest:         wc.SupportsCompletionsRequest,
		SupportsModulesRequest:             wc.SupportsModulesRequest,
		SupportsRestartRequest:             wc.SupportsRestartRequest,
		SupportsRestartFrame:               wc.SupportsRestartFrame,
		SupportsTerminateThreadsRequest:    wc.SupportsTerminateThreadsRequest,
		SupportsReadMemoryRequest:          wc.SupportsReadMemoryRequest,
		SupportsWriteMemoryRequest:         wc.SupportsWriteMemoryRequest,
		SupportsDisassembleRequest:         wc.SupportsDisassembleRequest,
		SupportsCancelRequest:              wc.SupportsCancelRequest,
		SupportsSetVariable:                wc.SupportsSetVariable,
		SupportsSetExpression:              wc.SupportsSetExpression,
		SupportsValueFormattingOptions:     wc.SupportsValueFormattingOptions,
		SupportsBreakpointLocationsRequest: wc.SupportsBreakpointLocationsRequest,
		SupportsLoadedSourcesRequest:       wc.SupportsLoadedSourcesRequest,
		SupportsTerminateDebuggee:          wc.SupportsTerminateDebuggee || wc.SupportTerminateDebuggee,
		// Registers, raw-request, detach, find-symbol, variable-location
		// and macro-expansion have no DAP-standard capability flag; the
		// proxy leaves their flags false (the operations are still sent
		// as custom commands and succeed only if the adapter answers
		// them) except RawRequest and Detach, which every adapter that
		// implements the protocol must accept.
		SupportsRawRequest: true,
		SupportsDetach:     true,
	}
}

var stopReasonWireToInternal = map[string]types.StopReason{
	"breakpoint":          types.StopBreakpoint,
	"step":                types.StopStep,
	"exception":           types.StopException,
	"entry":               types.StopEntry,
	"pause":               types.StopPause,
	"goto":                types.StopGoto,
	"function breakpoint": types.StopFunctionBreakpoint,
	"data breakpoint":     types.StopDataBreakpoint,
	"instruction breakpoint": types.StopInstructionBreakpoint,
}

func stopReasonFromWire(reason string) types.StopReason {
	if r, ok := stopReasonWireToInternal[reason]; ok {
		return r
	}
	return types.StopReason(reason)
}

type stoppedEventBody struct {
	Reason           string `json:"reason"`
	ThreadID         int    `json:"threadId"`
	HitBreakpointIDs []int  `json:"hitBreakpointIds"`
	Text             string `json:"text"`
}

type outputEventBody struct {
	Category string `json:"category"`
	Output   string `json:"output"`
}

type exitedEventBody struct {
	ExitCode int `json:"exitCode"`
}

type breakpointEventBody struct {
	Reason     string `json:"reason"`
	Breakpoint struct {
		ID       int    `json:"id"`
		Verified bool   `json:"verified"`
		Line     int    `json:"line"`
		Message  string `json:"message"`
	} `json:"breakpoint"`
}

// handleEvent demultiplexes one adapter event, per spec.md §4.2. Every
// event is additionally duplicated verbatim into the notification queue
// for the client's poll stream before any proxy-internal handling runs.
func (p *Proxy) handleEvent(m message) {
	p.mu.Lock()
	p.notifs = append(p.notifs, types.Notification{Method: m.Event, RawParams: m.Body})
	p.mu.Unlock()

	switch m.Event {
	case "stopped":
		p.onStopped(m.Body)
	case "exited":
		body, _ := decodeBody[exitedEventBody](m.Body)
		code := body.ExitCode
		p.publishStop(&types.StopState{Reason: types.StopExited, ExitCode: &code})
	case "terminated":
		p.mu.Lock()
		p.pid = 0
		p.mu.Unlock()
		p.publishStop(&types.StopState{Reason: types.StopExited})
	case "output":
		body, _ := decodeBody[outputEventBody](m.Body)
		p.mu.Lock()
		p.pendingOutput = append(p.pendingOutput, types.OutputEntry{Category: body.Category, Text: body.Output})
		p.mu.Unlock()
	case "breakpoint":
		body, _ := decodeBody[breakpointEventBody](m.Body)
		p.mu.Lock()
		if bp, ok := p.breakpoints[body.Breakpoint.ID]; ok {
			bp.Verified = body.Breakpoint.Verified
			if body.Breakpoint.Line != 0 {
				line := body.Breakpoint.Line
				bp.ResolvedLine = &line
			}
			p.breakpoints[body.Breakpoint.ID] = bp
		}
		p.mu.Unlock()
	case "capabilities":
		var wrapped struct {
			Capabilities json.RawMessage `json:"capabilities"`
		}
		_ = json.Unmarshal(m.Body, &wrapped)
		p.mu.Lock()
		p.capabilities = capabilitiesFromWire(wrapped.Capabilities)
		p.mu.Unlock()
	case "continued", "thread", "module", "loadedSource":
		// No proxy-internal state change beyond the notification above.
	}
}

// onStopped materializes a StopState from a "stopped" event by issuing
// follow-up requests (stack, scopes, top-frame locals) at publication
// time rather than on every event, per spec.md §4.2.
func (p *Proxy) onStopped(body json.RawMessage) {
	se, _ := decodeBody[stoppedEventBody](body)
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.RequestTimeout)
	defer cancel()

	stop := &types.StopState{
		Reason:           stopReasonFromWire(se.Reason),
		ThreadID:         se.ThreadID,
		HitBreakpointIDs: se.HitBreakpointIDs,
	}

	frames, frameID := p.fetchFrames(ctx, se.ThreadID)
	stop.Frames = frames
	if len(frames) > 0 {
		stop.Location = &frames[0].Source
	}

	if se.Reason == "exception" {
		resp, err := p.request(ctx, "exceptionInfo", map[string]any{"threadId": se.ThreadID})
		if err == nil {
			var info struct {
				ExceptionID string `json:"exceptionId"`
				Description string `json:"description"`
				Details     struct {
					StackTrace string `json:"stackTrace"`
				} `json:"details"`
			}
			if json.Unmarshal(resp.Body, &info) == nil {
				stop.Exception = &types.ExceptionInfo{
					ExceptionID: info.ExceptionID,
					Description: info.Description,
					StackTrace:  info.Details.StackTrace,
				}
			}
		}
	}

	if logTemplate, isLogPoint := p.logPointTemplate(se.HitBreakpointIDs); isLogPoint {
		rendered := p.evaluateLogTemplate(ctx, frameID, logTemplate)
		stop.LogMessages = append(stop.LogMessages, rendered)
		stop.ShouldResume = true
	} else {
		stop.Locals = p.fetchTopLocals(ctx, frameID)
	}

	p.mu.Lock()
	stop.Output = p.pendingOutput
	p.pendingOutput = nil
	p.mu.Unlock()

	p.publishStop(stop)
}

func (p *Proxy) fetchFrames(ctx context.Context, threadID int) ([]types.StackFrame, int) {
	resp, err := p.request(ctx, "stackTrace", map[string]any{"threadId": threadID, "startFrame": 0, "levels": 20})
	if err != nil {
		return nil, 0
	}
	var body struct {
		StackFrames []struct {
			ID     int    `json:"id"`
			Name   string `json:"name"`
			Line   int    `json:"line"`
			Column int    `json:"column"`
			Source struct {
				Path string `json:"path"`
			} `json:"source"`
		} `json:"stackFrames"`
	}
	if json.Unmarshal(resp.Body, &body) != nil || len(body.StackFrames) == 0 {
		return nil, 0
	}
	frames := make([]types.StackFrame, len(body.StackFrames))
	for i, f := range body.StackFrames {
		frames[i] = types.StackFrame{
			ID:     f.ID,
			Name:   f.Name,
			Line:   f.Line,
			Column: f.Column,
			Source: types.Source{Path: f.Source.Path},
		}
	}
	return frames, frames[0].ID
}

func (p *Proxy) fetchTopLocals(ctx context.Context, frameID int) []types.Variable {
	if frameID == 0 {
		return nil
	}
	resp, err := p.request(ctx, "scopes", map[string]any{"frameId": frameID})
	if err != nil {
		return nil
	}
	var scopesBody struct {
		Scopes []struct {
			Name               string `json:"name"`
			VariablesReference int    `json:"variablesReference"`
		} `json:"scopes"`
	}
	if json.Unmarshal(resp.Body, &scopesBody) != nil || len(scopesBody.Scopes) == 0 {
		return nil
	}
	resp, err = p.request(ctx, "variables", map[string]any{"variablesReference": scopesBody.Scopes[0].VariablesReference})
	if err != nil {
		return nil
	}
	var varsBody struct {
		Variables []struct {
			Name               string `json:"name"`
			Value              string `json:"value"`
			Type               string `json:"type"`
			VariablesReference int    `json:"variablesReference"`
		} `json:"variables"`
	}
	if json.Unmarshal(resp.Body, &varsBody) != nil {
		return nil
	}
	out := make([]types.Variable, len(varsBody.Variables))
	for i, v := range varsBody.Variables {
		out[i] = types.Variable{Name: v.Name, Value: v.Value, Type: v.Type, VariablesReference: v.VariablesReference}
	}
	return out
}

// logPointTemplate returns the log-message template of the first hit
// breakpoint (if any) that was registered as a log-point, per spec.md
// §4.2 "Log-points".
func (p *Proxy) logPointTemplate(hitIDs []int) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range hitIDs {
		if t, ok := p.logTemplates[id]; ok && t != "" {
			return t, true
		}
	}
	return "", false
}

var logExprPattern = regexp.MustCompile(`\{([^}]*)\}`)

// evaluateLogTemplate interpolates `{expr}` occurrences in template via
// an evaluate request at the stopped frame, per spec.md §4.2.
func (p *Proxy) evaluateLogTemplate(ctx context.Context, frameID int, template string) string {
	return logExprPattern.ReplaceAllStringFunc(template, func(match string) string {
		expr := match[1 : len(match)-1]
		resp, err := p.request(ctx, "evaluate", map[string]any{
			"expression": expr,
			"frameId":    frameID,
			"context":    "log-message",
		})
		if err != nil {
			return "<error>"
		}
		var body struct {
			Result string `json:"result"`
		}
		_ = json.Unmarshal(resp.Body, &body)
		return body.Result
	})
}

// publishStop resolves the pending Run() waiter, if any. A stop arriving
// with no pending waiter (e.g. a spontaneous pause from outside the
// daemon) is still duplicated in the notification queue by handleEvent
// but has no Run() call to unblock.
func (p *Proxy) publishStop(stop *types.StopState) {
	p.mu.Lock()
	ch := p.awaitStop
	p.awaitStop = nil
	p.mu.Unlock()
	if ch != nil {
		ch <- stop
	}
}
