package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cog-debug/cog-debug/internal/types"
)

func TestRunContinueGoesAsyncAndSurfacesThroughPollEvents(t *testing.T) {
	t.Parallel()
	d, manager := newTestDispatcher(t)
	id := launchNativeSession(t, d)

	res := d.CallTool(context.Background(), "run", rawArgs(t, map[string]any{
		"session_id": id,
		"action":     string(types.RunContinue),
	}))
	require.True(t, res.OK, "%+v", res.Error)
	assert.Equal(t, "running", res.Result.(map[string]any)["status"])

	sess, ok := manager.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, types.StatusRunning, sess.Status())

	require.Eventually(t, func() bool {
		poll := d.CallTool(context.Background(), "poll_events", rawArgs(t, map[string]any{"session_id": id}))
		if !poll.OK {
			return false
		}
		events := poll.Result.(map[string]any)["events"].([]map[string]any)
		for _, e := range events {
			if e["method"] == "stopped" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "the terminal stop must surface through poll_events")
}

func TestRunRejectsASecondRunWhileOneIsInFlight(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher(t)
	id := launchNativeSession(t, d)

	first := d.CallTool(context.Background(), "run", rawArgs(t, map[string]any{
		"session_id": id,
		"action":     string(types.RunContinue),
	}))
	require.True(t, first.OK, "%+v", first.Error)

	second := d.CallTool(context.Background(), "run", rawArgs(t, map[string]any{
		"session_id": id,
		"action":     string(types.RunContinue),
	}))
	require.False(t, second.OK)
	assert.Equal(t, CodeInternalError, second.Error.Code)
}

func TestCapabilitiesOfANativeSessionAdvertiseRegisters(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher(t)
	id := launchNativeSession(t, d)

	res := d.CallTool(context.Background(), "capabilities", rawArgs(t, map[string]any{"session_id": id}))
	require.True(t, res.OK, "%+v", res.Error)
	caps := res.Result.(types.Capabilities)
	assert.True(t, caps.SupportsReadRegisters, "the native engine advertises register access")
}
