package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/types"
)

// fakeDriver implements the subset of drivers.Driver that Controller
// touches; only Run is ever exercised here.
type fakeDriver struct {
	runFunc func(ctx context.Context, action types.RunAction, opts types.RunOptions) (*types.StopState, error)
}

func (f *fakeDriver) Run(ctx context.Context, action types.RunAction, opts types.RunOptions) (*types.StopState, error) {
	return f.runFunc(ctx, action, opts)
}

func (f *fakeDriver) Launch(context.Context, types.LaunchConfig) (*types.StopState, error) { return nil, nil }
func (f *fakeDriver) Attach(context.Context, int) (*types.StopState, error)                { return nil, nil }
func (f *fakeDriver) LoadCore(context.Context, string, string) (*types.StopState, error)   { return nil, nil }
func (f *fakeDriver) Stop(context.Context) error                                           { return nil }
func (f *fakeDriver) Terminate(context.Context) error                                      { return nil }
func (f *fakeDriver) Detach(context.Context) error                                         { return nil }
func (f *fakeDriver) Restart(context.Context) (*types.StopState, error)                    { return nil, nil }
func (f *fakeDriver) SetLineBreakpoint(context.Context, string, int, string, string, string) (*types.Breakpoint, error) {
	return nil, nil
}
func (f *fakeDriver) SetFunctionBreakpoint(context.Context, string, string) (*types.Breakpoint, error) {
	return nil, nil
}
func (f *fakeDriver) SetExceptionBreakpoints(context.Context, []string) error { return nil }
func (f *fakeDriver) SetInstructionBreakpoints(context.Context, []string) ([]types.Breakpoint, error) {
	return nil, nil
}
func (f *fakeDriver) SetDataBreakpoint(context.Context, string, string) (*types.Breakpoint, error) {
	return nil, nil
}
func (f *fakeDriver) RemoveBreakpoint(context.Context, int) error                   { return nil }
func (f *fakeDriver) ListBreakpoints(context.Context) ([]types.Breakpoint, error)   { return nil, nil }
func (f *fakeDriver) DataBreakpointInfo(context.Context, string, int) (*types.DataBreakpointInfo, error) {
	return nil, nil
}
func (f *fakeDriver) BreakpointLocations(context.Context, string, int, int) ([]types.BreakpointLocation, error) {
	return nil, nil
}
func (f *fakeDriver) Goto(context.Context, string, int) (*types.StopState, error)   { return nil, nil }
func (f *fakeDriver) RestartFrame(context.Context, int) (*types.StopState, error)   { return nil, nil }
func (f *fakeDriver) Threads(context.Context) ([]types.Thread, error)               { return nil, nil }
func (f *fakeDriver) StackTrace(context.Context, int, int, int) ([]types.StackFrame, error) {
	return nil, nil
}
func (f *fakeDriver) Scopes(context.Context, int) ([]types.Scope, error) { return nil, nil }
func (f *fakeDriver) Inspect(context.Context, types.InspectRequest) (*types.InspectResult, error) {
	return nil, nil
}
func (f *fakeDriver) SetVariable(context.Context, string, string, int) (*types.Variable, error) {
	return nil, nil
}
func (f *fakeDriver) SetExpression(context.Context, string, string, int) (*types.Variable, error) {
	return nil, nil
}
func (f *fakeDriver) StepInTargets(context.Context, int) ([]types.StepInTarget, error) { return nil, nil }
func (f *fakeDriver) GotoTargets(context.Context, string, int) ([]types.GotoTarget, error) {
	return nil, nil
}
func (f *fakeDriver) Completions(context.Context, string, int, *int) ([]types.Completion, error) {
	return nil, nil
}
func (f *fakeDriver) ExceptionInfo(context.Context, int) (*types.ExceptionInfo, error) { return nil, nil }
func (f *fakeDriver) Source(context.Context, int) (string, error)                     { return "", nil }
func (f *fakeDriver) Modules(context.Context) ([]types.Module, error)                 { return nil, nil }
func (f *fakeDriver) LoadedSources(context.Context) ([]types.Source, error)           { return nil, nil }
func (f *fakeDriver) Capabilities(context.Context) (types.Capabilities, error)         { return types.Capabilities{}, nil }
func (f *fakeDriver) FindSymbol(context.Context, string) (*types.SymbolLocation, error) { return nil, nil }
func (f *fakeDriver) VariableLocation(context.Context, string, int) (*types.VariableLocation, error) {
	return nil, nil
}
func (f *fakeDriver) ExpandMacro(context.Context, string) (*types.MacroExpansion, error) { return nil, nil }
func (f *fakeDriver) ReadMemory(context.Context, string, int) (*types.MemoryReadResult, error) {
	return nil, nil
}
func (f *fakeDriver) WriteMemory(context.Context, string, []byte) (*types.MemoryWriteResult, error) {
	return nil, nil
}
func (f *fakeDriver) Disassemble(context.Context, string, int, int, bool) ([]types.Instruction, error) {
	return nil, nil
}
func (f *fakeDriver) ReadRegisters(context.Context, int) ([]types.Register, error) { return nil, nil }
func (f *fakeDriver) WriteRegister(context.Context, int, string, string) error     { return nil }
func (f *fakeDriver) Cancel(context.Context, string, string) error                 { return nil }
func (f *fakeDriver) TerminateThreads(context.Context, []int) error                 { return nil }
func (f *fakeDriver) RawRequest(context.Context, string, []byte) ([]byte, error)    { return nil, nil }
func (f *fakeDriver) DrainNotifications() []types.Notification                      { return nil }
func (f *fakeDriver) GetPID() (int, bool)                                           { return 0, false }

func TestStartRejectsSecondPendingRun(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	driver := &fakeDriver{runFunc: func(ctx context.Context, action types.RunAction, opts types.RunOptions) (*types.StopState, error) {
		<-release
		return &types.StopState{Reason: types.StopStep}, nil
	}}
	c := NewController(driver, nil, nil)

	require.NoError(t, c.Start("sess-1", "continue", types.RunContinue, types.RunOptions{}))
	assert.True(t, c.HasPending())

	err := c.Start("sess-1", "continue", types.RunContinue, types.RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, drivererr.New(drivererr.Denied, ""))

	close(release)
	waitForCompletion(t, c)
}

func TestPollJoinsAndClearsSlotExactlyOnce(t *testing.T) {
	t.Parallel()
	driver := &fakeDriver{runFunc: func(ctx context.Context, action types.RunAction, opts types.RunOptions) (*types.StopState, error) {
		return &types.StopState{Reason: types.StopBreakpoint}, nil
	}}
	c := NewController(driver, nil, nil)
	require.NoError(t, c.Start("sess-1", "continue", types.RunContinue, types.RunOptions{}))

	outcome := waitForCompletion(t, c)
	require.True(t, outcome.Completed)
	assert.False(t, outcome.Failed)
	assert.Equal(t, types.StopBreakpoint, outcome.Stop.Reason)

	assert.False(t, c.HasPending())
	assert.False(t, c.Poll().Completed, "a second poll on an idle controller must report nothing new")
}

func TestWorkerTransparentlyResumesThroughLogPoints(t *testing.T) {
	t.Parallel()
	var calls int
	driver := &fakeDriver{runFunc: func(ctx context.Context, action types.RunAction, opts types.RunOptions) (*types.StopState, error) {
		calls++
		if calls == 1 {
			return &types.StopState{Reason: types.StopBreakpoint, ShouldResume: true, LogMessages: []string{"first"}}, nil
		}
		return &types.StopState{Reason: types.StopBreakpoint, LogMessages: []string{"second"}}, nil
	}}
	c := NewController(driver, nil, nil)
	require.NoError(t, c.Start("sess-1", "continue", types.RunContinue, types.RunOptions{}))

	outcome := waitForCompletion(t, c)
	require.True(t, outcome.Completed)
	require.NotNil(t, outcome.Stop)
	assert.Equal(t, 2, calls, "the log-point stop must never be published on its own")
	assert.Equal(t, []string{"first", "second"}, outcome.Stop.LogMessages)
}

func TestWorkerFailurePopulatesErrToken(t *testing.T) {
	t.Parallel()
	driver := &fakeDriver{runFunc: func(ctx context.Context, action types.RunAction, opts types.RunOptions) (*types.StopState, error) {
		return nil, drivererr.New(drivererr.IO, "debuggee pipe closed")
	}}
	c := NewController(driver, nil, nil)
	require.NoError(t, c.Start("sess-1", "continue", types.RunContinue, types.RunOptions{}))

	outcome := waitForCompletion(t, c)
	require.True(t, outcome.Completed)
	assert.True(t, outcome.Failed)
	assert.Equal(t, "debuggee pipe closed", outcome.ErrToken)
}

func TestCancelBlockedUnblocksAWorkerStuckInRun(t *testing.T) {
	t.Parallel()
	var wg sync.WaitGroup
	wg.Add(1)
	driver := &fakeDriver{runFunc: func(ctx context.Context, action types.RunAction, opts types.RunOptions) (*types.StopState, error) {
		wg.Done()
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c := NewController(driver, nil, nil)
	require.NoError(t, c.Start("sess-1", "continue", types.RunContinue, types.RunOptions{}))
	wg.Wait()

	done := make(chan struct{})
	go func() {
		c.CancelBlocked()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("CancelBlocked did not return")
	}
	assert.False(t, c.HasPending())
}

func waitForCompletion(t *testing.T, c *Controller) Outcome {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if outcome := c.Poll(); outcome.Completed {
			return outcome
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("run did not complete in time")
	return Outcome{}
}
