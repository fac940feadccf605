package dispatch

import (
	"context"

	"github.com/cog-debug/cog-debug/internal/drivererr"
)

// handleBreakpoint implements the single "breakpoint" tool, which
// multiplexes the set/remove/list actions onto the underlying
// SetLineBreakpoint / SetFunctionBreakpoint / RemoveBreakpoint /
// ListBreakpoints driver operations, per spec.md §6's representative
// surface table.
func handleBreakpoint(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	action, err := requiredString(args, "action")
	if err != nil {
		return nil, err
	}

	switch action {
	case "set":
		if name := optionalString(args, "function"); name != "" {
			bp, err := sess.Driver.SetFunctionBreakpoint(ctx, name, optionalString(args, "condition"))
			if err != nil {
				return nil, err
			}
			d.events.Emit("breakpoint", map[string]any{"session_id": sess.ID, "action": "set", "function": name})
			return map[string]any{"breakpoints": []any{bp}}, nil
		}
		file, err := requiredString(args, "file")
		if err != nil {
			return nil, err
		}
		line, err := requiredInt(args, "line")
		if err != nil {
			return nil, err
		}
		bp, err := sess.Driver.SetLineBreakpoint(ctx, file, line,
			optionalString(args, "condition"), optionalString(args, "hit_condition"), optionalString(args, "log_message"))
		if err != nil {
			return nil, err
		}
		d.events.Emit("breakpoint", map[string]any{"session_id": sess.ID, "action": "set", "file": file, "line": line})
		return map[string]any{"breakpoints": []any{bp}}, nil

	case "remove":
		id, err := requiredInt(args, "id")
		if err != nil {
			return nil, err
		}
		if err := sess.Driver.RemoveBreakpoint(ctx, id); err != nil {
			return nil, err
		}
		d.events.Emit("breakpoint", map[string]any{"session_id": sess.ID, "action": "remove", "id": id})
		return map[string]any{"removed": id}, nil

	case "list":
		bps, err := sess.Driver.ListBreakpoints(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"breakpoints": bps}, nil

	default:
		return nil, drivererr.Errorf(drivererr.InvalidArgs, "unknown breakpoint action %q", action)
	}
}

func handleSetExceptionBreakpoints(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	filters := optionalStringSlice(args, "filters")
	if err := sess.Driver.SetExceptionBreakpoints(ctx, filters); err != nil {
		return nil, err
	}
	return map[string]any{"filters": filters}, nil
}

func handleSetInstructionBreakpoints(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	addresses := optionalStringSlice(args, "addresses")
	bps, err := sess.Driver.SetInstructionBreakpoints(ctx, addresses)
	if err != nil {
		return nil, err
	}
	return map[string]any{"breakpoints": bps}, nil
}

func handleSetDataBreakpoint(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	dataID, err := requiredString(args, "data_id")
	if err != nil {
		return nil, err
	}
	accessType, err := requiredString(args, "access_type")
	if err != nil {
		return nil, err
	}
	bp, err := sess.Driver.SetDataBreakpoint(ctx, dataID, accessType)
	if err != nil {
		return nil, err
	}
	return map[string]any{"breakpoint": bp}, nil
}

func handleBreakpointLocations(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	source, err := requiredString(args, "source")
	if err != nil {
		return nil, err
	}
	line, err := requiredInt(args, "line")
	if err != nil {
		return nil, err
	}
	endLine := optionalInt(args, "end_line", 0)
	locations, err := sess.Driver.BreakpointLocations(ctx, source, line, endLine)
	if err != nil {
		return nil, err
	}
	return map[string]any{"locations": locations}, nil
}

func handleDataBreakpointInfo(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	variable, err := requiredString(args, "variable")
	if err != nil {
		return nil, err
	}
	frameID := optionalInt(args, "frame_id", 0)
	info, err := sess.Driver.DataBreakpointInfo(ctx, variable, frameID)
	if err != nil {
		return nil, err
	}
	return info, nil
}
