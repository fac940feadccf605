package adapter

import (
	"context"

	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/types"
)

func (p *Proxy) Threads(ctx context.Context) ([]types.Thread, error) {
	resp, err := p.request(ctx, "threads", nil)
	if err != nil {
		return nil, err
	}
	body, err := decodeBody[struct {
		Threads []types.Thread `json:"threads"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	return body.Threads, nil
}

func (p *Proxy) StackTrace(ctx context.Context, threadID, start, count int) ([]types.StackFrame, error) {
	resp, err := p.request(ctx, "stackTrace", map[string]any{
		"threadId":   threadID,
		"startFrame": start,
		"levels":     count,
	})
	if err != nil {
		return nil, err
	}
	body, err := decodeBody[struct {
		StackFrames []struct {
			ID     int    `json:"id"`
			Name   string `json:"name"`
			Line   int    `json:"line"`
			Column int    `json:"column"`
			Source *struct {
				Path string `json:"path"`
				Ref  int    `json:"sourceReference"`
			} `json:"source"`
		} `json:"stackFrames"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	out := make([]types.StackFrame, len(body.StackFrames))
	for i, f := range body.StackFrames {
		frame := types.StackFrame{ID: f.ID, Name: f.Name, Line: f.Line, Column: f.Column}
		if f.Source != nil {
			frame.Source = types.Source{Path: f.Source.Path, Ref: f.Source.Ref}
		}
		out[i] = frame
	}
	return out, nil
}

func (p *Proxy) Scopes(ctx context.Context, frameID int) ([]types.Scope, error) {
	resp, err := p.request(ctx, "scopes", map[string]any{"frameId": frameID})
	if err != nil {
		return nil, err
	}
	body, err := decodeBody[struct {
		Scopes []struct {
			Name               string `json:"name"`
			VariablesReference int    `json:"variablesReference"`
			Expensive          bool   `json:"expensive"`
		} `json:"scopes"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	out := make([]types.Scope, len(body.Scopes))
	for i, s := range body.Scopes {
		out[i] = types.Scope{Name: s.Name, VariablesReference: s.VariablesReference, Expensive: s.Expensive}
	}
	return out, nil
}

func (p *Proxy) Inspect(ctx context.Context, req types.InspectRequest) (*types.InspectResult, error) {
	if req.VariablesReference != 0 {
		resp, err := p.request(ctx, "variables", map[string]any{"variablesReference": req.VariablesReference})
		if err != nil {
			return nil, err
		}
		body, err := decodeBody[struct {
			Variables []struct {
				Name               string `json:"name"`
				Value              string `json:"value"`
				Type               string `json:"type"`
				VariablesReference int    `json:"variablesReference"`
			} `json:"variables"`
		}](resp.Body)
		if err != nil {
			return nil, err
		}
		if len(body.Variables) == 0 {
			return &types.InspectResult{}, nil
		}
		v := body.Variables[0]
		return &types.InspectResult{Value: v.Value, Type: v.Type, VariablesReference: v.VariablesReference}, nil
	}

	evalContext := req.Context
	if evalContext == "" {
		evalContext = "repl"
	}
	resp, err := p.request(ctx, "evaluate", map[string]any{
		"expression": req.Expression,
		"frameId":    req.FrameID,
		"context":    evalContext,
	})
	if err != nil {
		return nil, err
	}
	body, err := decodeBody[struct {
		Result             string `json:"result"`
		Type               string `json:"type"`
		VariablesReference int    `json:"variablesReference"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	return &types.InspectResult{Value: body.Result, Type: body.Type, VariablesReference: body.VariablesReference}, nil
}

func (p *Proxy) SetVariable(ctx context.Context, name, value string, frameID int) (*types.Variable, error) {
	scopes, err := p.Scopes(ctx, frameID)
	if err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		return nil, drivererr.Errorf(drivererr.InvalidArgs, "frame %d has no scopes", frameID)
	}
	resp, err := p.request(ctx, "setVariable", map[string]any{
		"variablesReference": scopes[0].VariablesReference,
		"name":                name,
		"value":               value,
	})
	if err != nil {
		return nil, err
	}
	body, err := decodeBody[struct {
		Value              string `json:"value"`
		Type               string `json:"type"`
		VariablesReference int    `json:"variablesReference"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	return &types.Variable{Name: name, Value: body.Value, Type: body.Type, VariablesReference: body.VariablesReference}, nil
}

func (p *Proxy) SetExpression(ctx context.Context, expr, value string, frameID int) (*types.Variable, error) {
	resp, err := p.request(ctx, "setExpression", map[string]any{
		"expression": expr,
		"value":      value,
		"frameId":    frameID,
	})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support set-expression", err)
	}
	body, err := decodeBody[struct {
		Value string `json:"value"`
		Type  string `json:"type"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	return &types.Variable{Name: expr, Value: body.Value, Type: body.Type}, nil
}

func (p *Proxy) StepInTargets(ctx context.Context, frameID int) ([]types.StepInTarget, error) {
	resp, err := p.request(ctx, "stepInTargets", map[string]any{"frameId": frameID})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support step-in targets", err)
	}
	body, err := decodeBody[struct {
		Targets []types.StepInTarget `json:"targets"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	return body.Targets, nil
}

func (p *Proxy) GotoTargets(ctx context.Context, file string, line int) ([]types.GotoTarget, error) {
	resp, err := p.request(ctx, "gotoTargets", map[string]any{
		"source": map[string]any{"path": file},
		"line":   line,
	})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support goto targets", err)
	}
	body, err := decodeBody[struct {
		Targets []types.GotoTarget `json:"targets"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	return body.Targets, nil
}

func (p *Proxy) Completions(ctx context.Context, text string, column int, frameID *int) ([]types.Completion, error) {
	args := map[string]any{"text": text, "column": column}
	if frameID != nil {
		args["frameId"] = *frameID
	}
	resp, err := p.request(ctx, "completions", args)
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support completions", err)
	}
	body, err := decodeBody[struct {
		Targets []struct {
			Label string `json:"label"`
			Text  string `json:"text"`
			Type  string `json:"type"`
		} `json:"targets"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	out := make([]types.Completion, len(body.Targets))
	for i, t := range body.Targets {
		out[i] = types.Completion{Label: t.Label, Text: t.Text, Type: t.Type}
	}
	return out, nil
}

func (p *Proxy) ExceptionInfo(ctx context.Context, threadID int) (*types.ExceptionInfo, error) {
	resp, err := p.request(ctx, "exceptionInfo", map[string]any{"threadId": threadID})
	if err != nil {
		return nil, err
	}
	body, err := decodeBody[struct {
		ExceptionID string `json:"exceptionId"`
		Description string `json:"description"`
		Details     struct {
			StackTrace string `json:"stackTrace"`
		} `json:"details"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	return &types.ExceptionInfo{
		ExceptionID: body.ExceptionID,
		Description: body.Description,
		StackTrace:  body.Details.StackTrace,
	}, nil
}

func (p *Proxy) Source(ctx context.Context, ref int) (string, error) {
	resp, err := p.request(ctx, "source", map[string]any{"sourceReference": ref})
	if err != nil {
		return "", err
	}
	body, err := decodeBody[struct {
		Content string `json:"content"`
	}](resp.Body)
	if err != nil {
		return "", err
	}
	return body.Content, nil
}
