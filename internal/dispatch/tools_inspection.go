package dispatch

import (
	"context"

	"github.com/cog-debug/cog-debug/internal/types"
)

func handleThreads(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	threads, err := sess.Driver.Threads(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"threads": threads}, nil
}

func handleStackTrace(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	threadID, err := requiredInt(args, "thread_id")
	if err != nil {
		return nil, err
	}
	start := optionalInt(args, "start", 0)
	count := optionalInt(args, "count", 20)
	frames, err := sess.Driver.StackTrace(ctx, threadID, start, count)
	if err != nil {
		return nil, err
	}
	return map[string]any{"frames": frames}, nil
}

func handleScopes(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	frameID, err := requiredInt(args, "frame_id")
	if err != nil {
		return nil, err
	}
	scopes, err := sess.Driver.Scopes(ctx, frameID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"scopes": scopes}, nil
}

func handleInspect(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	req := types.InspectRequest{
		Expression:         optionalString(args, "expression"),
		FrameID:            optionalInt(args, "frame_id", 0),
		VariablesReference: optionalInt(args, "variables_reference", 0),
		Context:            optionalString(args, "context"),
	}
	result, err := sess.Driver.Inspect(ctx, req)
	if err != nil {
		return nil, err
	}
	d.events.Emit("inspect", map[string]any{"session_id": sess.ID, "expression": req.Expression})
	return result, nil
}

func handleSetVariable(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	value, err := requiredString(args, "value")
	if err != nil {
		return nil, err
	}
	frameID, err := requiredInt(args, "frame_id")
	if err != nil {
		return nil, err
	}
	v, err := sess.Driver.SetVariable(ctx, name, value, frameID)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func handleSetExpression(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	expr, err := requiredString(args, "expression")
	if err != nil {
		return nil, err
	}
	value, err := requiredString(args, "value")
	if err != nil {
		return nil, err
	}
	frameID, err := requiredInt(args, "frame_id")
	if err != nil {
		return nil, err
	}
	v, err := sess.Driver.SetExpression(ctx, expr, value, frameID)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func handleStepInTargets(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	frameID, err := requiredInt(args, "frame_id")
	if err != nil {
		return nil, err
	}
	targets, err := sess.Driver.StepInTargets(ctx, frameID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"targets": targets}, nil
}

func handleGotoTargets(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	file, err := requiredString(args, "file")
	if err != nil {
		return nil, err
	}
	line, err := requiredInt(args, "line")
	if err != nil {
		return nil, err
	}
	targets, err := sess.Driver.GotoTargets(ctx, file, line)
	if err != nil {
		return nil, err
	}
	return map[string]any{"targets": targets}, nil
}

func handleCompletions(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	text, err := requiredString(args, "text")
	if err != nil {
		return nil, err
	}
	column, err := requiredInt(args, "column")
	if err != nil {
		return nil, err
	}
	var frameID *int
	if v, ok := args["frame_id"]; ok {
		if n, ok := v.(float64); ok {
			id := int(n)
			frameID = &id
		}
	}
	completions, err := sess.Driver.Completions(ctx, text, column, frameID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"completions": completions}, nil
}

func handleExceptionInfo(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	threadID, err := requiredInt(args, "thread_id")
	if err != nil {
		return nil, err
	}
	info, err := sess.Driver.ExceptionInfo(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func handleSource(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	ref, err := requiredInt(args, "ref")
	if err != nil {
		return nil, err
	}
	content, err := sess.Driver.Source(ctx, ref)
	if err != nil {
		return nil, err
	}
	return map[string]any{"content": content}, nil
}
