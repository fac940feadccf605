package adapter

import (
	"context"
	"encoding/json"

	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/types"
)

// setBreakpointsResult is the subset of the "setBreakpoints" request/
// response pair this proxy relies on.
type setBreakpointsResult struct {
	Breakpoints []struct {
		ID       int  `json:"id"`
		Verified bool `json:"verified"`
		Line     int  `json:"line"`
	} `json:"breakpoints"`
}

func (p *Proxy) SetLineBreakpoint(ctx context.Context, file string, line int, cond, hitCond, logMessage string) (*types.Breakpoint, error) {
	p.mu.Lock()
	id := p.nextBPID
	p.nextBPID++
	p.mu.Unlock()

	resp, err := p.request(ctx, "setBreakpoints", map[string]any{
		"source": map[string]any{"path": file},
		"breakpoints": []map[string]any{{
			"line":         line,
			"condition":    cond,
			"hitCondition": hitCond,
			"logMessage":   logMessage,
		}},
	})
	if err != nil {
		return nil, err
	}
	var result setBreakpointsResult
	if json.Unmarshal(resp.Body, &result) != nil || len(result.Breakpoints) == 0 {
		return nil, drivererr.New(drivererr.Protocol, "adapter returned no breakpoints for setBreakpoints")
	}
	wireBP := result.Breakpoints[0]
	bp := types.Breakpoint{
		ID:           id,
		Verified:     wireBP.Verified,
		File:         file,
		Line:         line,
		Condition:    cond,
		HitCondition: hitCond,
		LogMessage:   logMessage,
	}
	if wireBP.Line != 0 && wireBP.Line != line {
		resolved := wireBP.Line
		bp.ResolvedLine = &resolved
	}

	p.mu.Lock()
	p.breakpoints[id] = bp
	if logMessage != "" {
		p.logTemplates[id] = logMessage
	}
	p.mu.Unlock()
	return &bp, nil
}

func (p *Proxy) SetFunctionBreakpoint(ctx context.Context, name, cond string) (*types.Breakpoint, error) {
	p.mu.Lock()
	id := p.nextBPID
	p.nextBPID++
	p.mu.Unlock()

	resp, err := p.request(ctx, "setFunctionBreakpoints", map[string]any{
		"breakpoints": []map[string]any{{"name": name, "condition": cond}},
	})
	if err != nil {
		return nil, err
	}
	var result setBreakpointsResult
	verified := false
	if json.Unmarshal(resp.Body, &result) == nil && len(result.Breakpoints) > 0 {
		verified = result.Breakpoints[0].Verified
	}
	bp := types.Breakpoint{ID: id, Verified: verified, File: name, Condition: cond}
	p.mu.Lock()
	p.breakpoints[id] = bp
	p.mu.Unlock()
	return &bp, nil
}

func (p *Proxy) SetExceptionBreakpoints(ctx context.Context, filters []string) error {
	_, err := p.request(ctx, "setExceptionBreakpoints", map[string]any{"filters": filters})
	return err
}

func (p *Proxy) SetInstructionBreakpoints(ctx context.Context, addresses []string) ([]types.Breakpoint, error) {
	breakpoints := make([]map[string]any, len(addresses))
	for i, a := range addresses {
		breakpoints[i] = map[string]any{"instructionReference": a}
	}
	resp, err := p.request(ctx, "setInstructionBreakpoints", map[string]any{"breakpoints": breakpoints})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support instruction breakpoints", err)
	}
	var result setBreakpointsResult
	_ = json.Unmarshal(resp.Body, &result)
	out := make([]types.Breakpoint, 0, len(result.Breakpoints))
	p.mu.Lock()
	for i, wireBP := range result.Breakpoints {
		id := p.nextBPID
		p.nextBPID++
		addr := ""
		if i < len(addresses) {
			addr = addresses[i]
		}
		bp := types.Breakpoint{ID: id, Verified: wireBP.Verified, File: addr, Line: wireBP.Line}
		p.breakpoints[id] = bp
		out = append(out, bp)
	}
	p.mu.Unlock()
	return out, nil
}

func (p *Proxy) SetDataBreakpoint(ctx context.Context, dataID, accessType string) (*types.Breakpoint, error) {
	resp, err := p.request(ctx, "setDataBreakpoints", map[string]any{
		"breakpoints": []map[string]any{{"dataId": dataID, "accessType": accessType}},
	})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support data breakpoints", err)
	}
	var result setBreakpointsResult
	verified := false
	if json.Unmarshal(resp.Body, &result) == nil && len(result.Breakpoints) > 0 {
		verified = result.Breakpoints[0].Verified
	}
	p.mu.Lock()
	id := p.nextBPID
	p.nextBPID++
	bp := types.Breakpoint{ID: id, Verified: verified, File: dataID}
	p.breakpoints[id] = bp
	p.mu.Unlock()
	return &bp, nil
}

func (p *Proxy) RemoveBreakpoint(ctx context.Context, id int) error {
	p.mu.Lock()
	bp, ok := p.breakpoints[id]
	delete(p.breakpoints, id)
	delete(p.logTemplates, id)
	p.mu.Unlock()
	if !ok {
		return drivererr.Errorf(drivererr.InvalidArgs, "unknown breakpoint id %d", id)
	}
	// Re-issue setBreakpoints for the same file without this breakpoint's
	// line so the adapter's per-file breakpoint set (the protocol
	// replaces, rather than incrementally edits, that set) stays in sync.
	remaining := p.breakpointsForFile(bp.File, id)
	lines := make([]map[string]any, len(remaining))
	for i, b := range remaining {
		lines[i] = map[string]any{"line": b.Line, "condition": b.Condition, "hitCondition": b.HitCondition, "logMessage": b.LogMessage}
	}
	_, err := p.request(ctx, "setBreakpoints", map[string]any{
		"source":      map[string]any{"path": bp.File},
		"breakpoints": lines,
	})
	return err
}

func (p *Proxy) breakpointsForFile(file string, excludeID int) []types.Breakpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []types.Breakpoint
	for id, bp := range p.breakpoints {
		if bp.File == file && id != excludeID {
			out = append(out, bp)
		}
	}
	return out
}

func (p *Proxy) ListBreakpoints(ctx context.Context) ([]types.Breakpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.Breakpoint, 0, len(p.breakpoints))
	for _, bp := range p.breakpoints {
		out = append(out, bp)
	}
	return out, nil
}

func (p *Proxy) DataBreakpointInfo(ctx context.Context, variable string, frameID int) (*types.DataBreakpointInfo, error) {
	resp, err := p.request(ctx, "dataBreakpointInfo", map[string]any{"name": variable, "frameId": frameID})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support data breakpoint info", err)
	}
	var body struct {
		DataID      string   `json:"dataId"`
		Description string   `json:"description"`
		AccessTypes []string `json:"accessTypes"`
	}
	_ = json.Unmarshal(resp.Body, &body)
	return &types.DataBreakpointInfo{DataID: body.DataID, Description: body.Description, AccessTypes: body.AccessTypes}, nil
}

func (p *Proxy) BreakpointLocations(ctx context.Context, source string, line, endLine int) ([]types.BreakpointLocation, error) {
	resp, err := p.request(ctx, "breakpointLocations", map[string]any{
		"source":  map[string]any{"path": source},
		"line":    line,
		"endLine": endLine,
	})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support breakpoint-locations", err)
	}
	var body struct {
		Breakpoints []types.BreakpointLocation `json:"breakpoints"`
	}
	_ = json.Unmarshal(resp.Body, &body)
	return body.Breakpoints, nil
}
