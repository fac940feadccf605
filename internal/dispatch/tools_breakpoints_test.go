package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakpointSetListRemoveRoundTrip(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher(t)
	id := launchNativeSession(t, d)

	setRes := d.CallTool(context.Background(), "breakpoint", rawArgs(t, map[string]any{
		"session_id": id,
		"action":     "set",
		"file":       "main.go",
		"line":       float64(42),
	}))
	require.True(t, setRes.OK, "%+v", setRes.Error)
	bps := setRes.Result.(map[string]any)["breakpoints"].([]any)
	require.Len(t, bps, 1)

	listRes := d.CallTool(context.Background(), "breakpoint", rawArgs(t, map[string]any{
		"session_id": id,
		"action":     "list",
	}))
	require.True(t, listRes.OK, "%+v", listRes.Error)

	removeRes := d.CallTool(context.Background(), "breakpoint", rawArgs(t, map[string]any{
		"session_id": id,
		"action":     "remove",
		"id":         float64(1),
	}))
	require.True(t, removeRes.OK, "%+v", removeRes.Error)
	assert.Equal(t, 1, removeRes.Result.(map[string]any)["removed"])
}

func TestBreakpointUnknownActionIsInvalidParams(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher(t)
	id := launchNativeSession(t, d)

	res := d.CallTool(context.Background(), "breakpoint", rawArgs(t, map[string]any{
		"session_id": id,
		"action":     "bogus",
	}))
	require.False(t, res.OK)
	assert.Equal(t, CodeInvalidParams, res.Error.Code)
}
