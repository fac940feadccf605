package dispatch

import (
	"context"

	"github.com/cog-debug/cog-debug/internal/types"
)

func stopStatus(stop *types.StopState) types.SessionStatus {
	if stop != nil && stop.ExitCode != nil {
		return types.StatusTerminated
	}
	return types.StatusStopped
}

func launchResult(sessionID string, stop *types.StopState) map[string]any {
	status := stopStatus(stop)
	return map[string]any{
		"session_id": sessionID,
		"status":     string(status),
		"stop":       stop,
	}
}

func handleLaunch(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	program, err := requiredString(args, "program")
	if err != nil {
		return nil, err
	}
	backend := optionalString(args, "backend")
	clientPID := optionalInt(args, "client_pid", 0)
	policy := types.OrphanPolicy(optionalString(args, "orphan_policy"))
	if policy == "" {
		policy = types.OrphanTerminate
	}

	driver, err := d.driverFor(ctx, backend, program, 0)
	if err != nil {
		return nil, err
	}
	sess := d.manager.Create(driver, clientPID, policy, d.logger, d.metrics)

	cfg := types.LaunchConfig{
		Program:     program,
		Args:        toStringSlice(args["args"]),
		Cwd:         optionalString(args, "cwd"),
		Env:         toStringMap(requiredObject(args, "env")),
		StopOnEntry: optionalBool(args, "stop_on_entry"),
	}
	stop, err := driver.Launch(ctx, cfg)
	if err != nil {
		_ = d.manager.Destroy(ctx, sess.ID)
		return nil, err
	}
	sess.SetStatus(stopStatus(stop))
	d.events.Emit("launch", map[string]any{"session_id": sess.ID, "program": program})
	return launchResult(sess.ID, stop), nil
}

func handleAttach(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	pid, err := requiredInt(args, "pid")
	if err != nil {
		return nil, err
	}
	backend := optionalString(args, "backend")
	clientPID := optionalInt(args, "client_pid", 0)
	policy := types.OrphanPolicy(optionalString(args, "orphan_policy"))
	if policy == "" {
		policy = types.OrphanTerminate
	}

	driver, err := d.driverFor(ctx, backend, optionalString(args, "program"), pid)
	if err != nil {
		return nil, err
	}
	sess := d.manager.Create(driver, clientPID, policy, d.logger, d.metrics)

	stop, err := driver.Attach(ctx, pid)
	if err != nil {
		_ = d.manager.Destroy(ctx, sess.ID)
		return nil, err
	}
	sess.SetStatus(stopStatus(stop))
	d.events.Emit("launch", map[string]any{"session_id": sess.ID, "attached_pid": pid})
	return launchResult(sess.ID, stop), nil
}

func handleLoadCore(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	corePath, err := requiredString(args, "core_path")
	if err != nil {
		return nil, err
	}
	exePath, err := requiredString(args, "exe_path")
	if err != nil {
		return nil, err
	}
	stop, err := sess.Driver.LoadCore(ctx, corePath, exePath)
	if err != nil {
		return nil, err
	}
	sess.SetStatus(stopStatus(stop))
	return launchResult(sess.ID, stop), nil
}

func handleStop(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	// spec.md §4.3 step 4: if a worker is in flight, do not call the
	// driver's stop path. Kill the debuggee directly and let the worker
	// unwind with an error, then destroy the session.
	if sess.Async.HasPending() {
		_ = sess.KillDebuggee()
		sess.Async.CancelBlocked()
	}
	if err := d.manager.Destroy(ctx, sess.ID); err != nil {
		return nil, err
	}
	d.events.Emit("session_end", map[string]any{"session_id": sess.ID, "reason": "stop"})
	return map[string]any{"stopped": true}, nil
}

func handleTerminate(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	if err := sess.Driver.Terminate(ctx); err != nil {
		return nil, err
	}
	sess.SetStatus(types.StatusTerminated)
	d.events.Emit("session_end", map[string]any{"session_id": sess.ID, "reason": "terminate"})
	return map[string]any{"stopped": true}, nil
}

func handleDetach(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	if err := sess.Driver.Detach(ctx); err != nil {
		return nil, err
	}
	sess.SetStatus(types.StatusTerminated)
	d.events.Emit("session_end", map[string]any{"session_id": sess.ID, "reason": "detach"})
	return map[string]any{"stopped": true}, nil
}

func handleRestart(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	stop, err := sess.Driver.Restart(ctx)
	if err != nil {
		return nil, err
	}
	sess.SetStatus(stopStatus(stop))
	return map[string]any{"session_id": sess.ID, "stop": stop}, nil
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toStringMap(m map[string]any) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
