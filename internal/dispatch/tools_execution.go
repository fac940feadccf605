package dispatch

import (
	"context"

	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/types"
)

// synchronousRunActions are the run actions that return the full
// StopState directly rather than an immediately polled "running"
// status: pause and restart resolve fast enough (they interrupt or
// reposition an already-stopped/blocked debuggee) that spec.md §6's
// representative table gives them a synchronous result. Goto is not a
// run action; its own tool (handleGoto) is synchronous as well.
// continue/next/step_in/step_out go through the async controller.
var synchronousRunActions = map[types.RunAction]bool{
	types.RunPause:   true,
	types.RunRestart: true,
}

// handleRun implements spec.md §4.3 step 1: reject if already running
// or pending, else fire the async worker and return immediately.
func handleRun(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	actionStr, err := requiredString(args, "action")
	if err != nil {
		return nil, err
	}
	action := types.RunAction(actionStr)

	if sess.Status() == types.StatusRunning || sess.Async.HasPending() {
		return nil, drivererr.New(drivererr.Denied, "session already running or has a pending run")
	}

	opts := types.RunOptions{
		ThreadID:    optionalInt(args, "thread_id", 0),
		Granularity: types.SteppingGranularity(optionalString(args, "granularity")),
	}

	if synchronousRunActions[action] {
		stop, err := sess.Driver.Run(ctx, action, opts)
		if err != nil {
			return nil, err
		}
		sess.SetStatus(stopStatus(stop))
		d.events.Emit("run", map[string]any{"session_id": sess.ID, "action": actionStr})
		d.events.Emit("stop", map[string]any{"session_id": sess.ID, "stop": stop})
		return stop, nil
	}

	sess.SetStatus(types.StatusRunning)
	if err := sess.Async.Start(sess.ID, actionStr, action, opts); err != nil {
		sess.SetStatus(types.StatusStopped)
		return nil, err
	}
	d.events.Emit("run", map[string]any{"session_id": sess.ID, "action": actionStr})
	return map[string]any{"status": "running", "session_id": sess.ID}, nil
}

func handleGoto(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
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
	stop, err := sess.Driver.Goto(ctx, file, line)
	if err != nil {
		return nil, err
	}
	sess.SetStatus(stopStatus(stop))
	d.events.Emit("stop", map[string]any{"session_id": sess.ID, "stop": stop})
	return stop, nil
}

func handleRestartFrame(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	frameID, err := requiredInt(args, "frame_id")
	if err != nil {
		return nil, err
	}
	stop, err := sess.Driver.RestartFrame(ctx, frameID)
	if err != nil {
		return nil, err
	}
	sess.SetStatus(stopStatus(stop))
	return stop, nil
}
