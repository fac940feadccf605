package adapter

import (
	"context"
	"encoding/json"

	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/types"
)

// Launch sends the adapter's launch request and waits for the initial
// stop (entry or first breakpoint), materializing it the same way
// onStopped does for any other stop.
func (p *Proxy) Launch(ctx context.Context, cfg types.LaunchConfig) (*types.StopState, error) {
	waitC := p.armAwaitStop()
	_, err := p.request(ctx, "launch", map[string]any{
		"program":     cfg.Program,
		"args":        cfg.Args,
		"cwd":         cfg.Cwd,
		"env":         cfg.Env,
		"stopOnEntry": cfg.StopOnEntry,
	})
	if err != nil {
		p.disarmAwaitStop()
		return nil, err
	}
	if _, err := p.request(ctx, "configurationDone", nil); err != nil {
		p.disarmAwaitStop()
		return nil, err
	}
	return p.waitForStop(ctx, waitC)
}

// Attach sends the adapter's attach request for an already-running
// process.
func (p *Proxy) Attach(ctx context.Context, pid int) (*types.StopState, error) {
	p.mu.Lock()
	p.pid = pid
	p.mu.Unlock()
	waitC := p.armAwaitStop()
	if _, err := p.request(ctx, "attach", map[string]any{"pid": pid}); err != nil {
		p.disarmAwaitStop()
		return nil, err
	}
	if _, err := p.request(ctx, "configurationDone", nil); err != nil {
		p.disarmAwaitStop()
		return nil, err
	}
	return p.waitForStop(ctx, waitC)
}

// LoadCore is not part of the widely-used adapter protocol's standard
// request set (core-file analysis is an out-of-protocol extension some
// adapters add under a custom command); send it as a custom "loadCore"
// request so an adapter that supports it can still honor it.
func (p *Proxy) LoadCore(ctx context.Context, corePath, exePath string) (*types.StopState, error) {
	waitC := p.armAwaitStop()
	_, err := p.request(ctx, "loadCore", map[string]any{"core": corePath, "exe": exePath})
	if err != nil {
		p.disarmAwaitStop()
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support core-file loading", err)
	}
	return p.waitForStop(ctx, waitC)
}

// Stop sends a disconnect request. Unless the session was marked for
// detach, terminateDebuggee is set so the debuggee is killed along with
// the session, per spec.md §4.2 "Shutdown".
func (p *Proxy) Stop(ctx context.Context) error {
	p.mu.Lock()
	terminateDebuggee := !p.detach
	p.mu.Unlock()
	_, err := p.request(ctx, "disconnect", map[string]any{"terminateDebuggee": terminateDebuggee})
	p.shutdown()
	if err != nil {
		return err
	}
	return nil
}

// Terminate sends a terminate-only request (no disconnect semantics).
func (p *Proxy) Terminate(ctx context.Context) error {
	_, err := p.request(ctx, "terminate", nil)
	p.shutdown()
	return err
}

// Detach marks the session for a non-destructive disconnect and performs
// it immediately.
func (p *Proxy) Detach(ctx context.Context) error {
	p.mu.Lock()
	p.detach = true
	p.mu.Unlock()
	return p.Stop(ctx)
}

func (p *Proxy) Restart(ctx context.Context) (*types.StopState, error) {
	waitC := p.armAwaitStop()
	if _, err := p.request(ctx, "restart", nil); err != nil {
		p.disarmAwaitStop()
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support restart", err)
	}
	return p.waitForStop(ctx, waitC)
}

// shutdown cancels outstanding requests, closes the adapter's stdin,
// waits for the reader goroutine to exit, and reaps the subprocess, per
// spec.md §4.2 "Shutdown". Writes happen on the calling goroutine under
// writeMu, so there is no writer goroutine to join.
func (p *Proxy) shutdown() {
	p.corr.cancelAll()
	_ = p.stdin.Close()
	<-p.readerDone
	_ = p.cmd.Wait()
}

// armAwaitStop installs a fresh single-slot channel that publishStop will
// deliver to. Only one Run-family call may be outstanding per proxy at a
// time (enforced at the session level by internal/async), so a single
// slot suffices, per spec.md §3 PendingRun invariant.
func (p *Proxy) armAwaitStop() chan *types.StopState {
	ch := make(chan *types.StopState, 1)
	p.mu.Lock()
	p.awaitStop = ch
	p.mu.Unlock()
	return ch
}

func (p *Proxy) disarmAwaitStop() {
	p.mu.Lock()
	p.awaitStop = nil
	p.mu.Unlock()
}

func (p *Proxy) waitForStop(ctx context.Context, waitC chan *types.StopState) (*types.StopState, error) {
	select {
	case stop := <-waitC:
		return stop, nil
	case <-ctx.Done():
		p.disarmAwaitStop()
		return nil, drivererr.Wrap(drivererr.Other, "wait for stop canceled", ctx.Err())
	case <-p.readerDone:
		return nil, drivererr.New(drivererr.Gone, "adapter connection closed while waiting for stop")
	}
}

// Run issues the requested execution-control verb and blocks until the
// adapter reports the resulting stop, per spec.md §4.1 "run and goto
// return a StopState". Making this call non-blocking for daemon clients
// is internal/async's job, not this driver's.
func (p *Proxy) Run(ctx context.Context, action types.RunAction, opts types.RunOptions) (*types.StopState, error) {
	waitC := p.armAwaitStop()
	var err error
	switch action {
	case types.RunContinue:
		_, err = p.request(ctx, "continue", map[string]any{"threadId": opts.ThreadID})
	case types.RunNext:
		_, err = p.request(ctx, "next", map[string]any{"threadId": opts.ThreadID, "granularity": string(opts.Granularity)})
	case types.RunStepIn:
		_, err = p.request(ctx, "stepIn", map[string]any{"threadId": opts.ThreadID, "granularity": string(opts.Granularity)})
	case types.RunStepOut:
		_, err = p.request(ctx, "stepOut", map[string]any{"threadId": opts.ThreadID, "granularity": string(opts.Granularity)})
	case types.RunPause:
		_, err = p.request(ctx, "pause", map[string]any{"threadId": opts.ThreadID})
	case types.RunRestart:
		p.disarmAwaitStop()
		return p.Restart(ctx)
	default:
		p.disarmAwaitStop()
		return nil, drivererr.Errorf(drivererr.InvalidArgs, "unknown run action %q", action)
	}
	if err != nil {
		p.disarmAwaitStop()
		return nil, err
	}
	return p.waitForStop(ctx, waitC)
}

func (p *Proxy) Goto(ctx context.Context, file string, line int) (*types.StopState, error) {
	targets, err := p.GotoTargets(ctx, file, line)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, drivererr.Errorf(drivererr.InvalidArgs, "no goto target at %s:%d", file, line)
	}
	waitC := p.armAwaitStop()
	if _, err := p.request(ctx, "goto", map[string]any{"targetId": targets[0].ID}); err != nil {
		p.disarmAwaitStop()
		return nil, err
	}
	return p.waitForStop(ctx, waitC)
}

func (p *Proxy) RestartFrame(ctx context.Context, frameID int) (*types.StopState, error) {
	waitC := p.armAwaitStop()
	if _, err := p.request(ctx, "restartFrame", map[string]any{"frameId": frameID}); err != nil {
		p.disarmAwaitStop()
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support restart-frame", err)
	}
	return p.waitForStop(ctx, waitC)
}

func (p *Proxy) GetPID() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid, p.pid != 0
}

func (p *Proxy) DrainNotifications() []types.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.notifs
	p.notifs = nil
	return out
}

func (p *Proxy) Capabilities(ctx context.Context) (types.Capabilities, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capabilities, nil
}

func (p *Proxy) RawRequest(ctx context.Context, command string, payload []byte) ([]byte, error) {
	var args any
	if len(payload) > 0 {
		args = json.RawMessage(payload)
	}
	resp, err := p.request(ctx, command, args)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
