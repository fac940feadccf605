package dispatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cog-debug/cog-debug/internal/session"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *session.Manager) {
	t.Helper()
	manager := session.NewManager(nil, nil, time.Hour)
	t.Cleanup(manager.Shutdown)
	d, err := New(manager)
	require.NoError(t, err)
	return d, manager
}

func rawArgs(t *testing.T, v map[string]any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func launchNativeSession(t *testing.T, d *Dispatcher) string {
	t.Helper()
	res := d.CallTool(context.Background(), "launch", rawArgs(t, map[string]any{
		"program": "/bin/fixture",
		"backend": "native",
	}))
	require.True(t, res.OK, "%+v", res.Error)
	m, ok := res.Result.(map[string]any)
	require.True(t, ok)
	id, ok := m["session_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	return id
}

func TestCallToolUnknownNameIsMethodNotFound(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher(t)
	res := d.CallTool(context.Background(), "no_such_tool", nil)
	require.False(t, res.OK)
	assert.Equal(t, CodeMethodNotFound, res.Error.Code)
}

func TestCallToolMissingRequiredFieldIsInvalidParams(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher(t)
	res := d.CallTool(context.Background(), "launch", rawArgs(t, map[string]any{}))
	require.False(t, res.OK)
	assert.Equal(t, CodeInvalidParams, res.Error.Code)
}

func TestLaunchThenStopRemovesTheSession(t *testing.T) {
	t.Parallel()
	d, manager := newTestDispatcher(t)
	id := launchNativeSession(t, d)

	_, ok := manager.Lookup(id)
	require.True(t, ok)

	res := d.CallTool(context.Background(), "stop", rawArgs(t, map[string]any{"session_id": id}))
	require.True(t, res.OK, "%+v", res.Error)

	_, ok = manager.Lookup(id)
	assert.False(t, ok)
}

func TestInspectionToolRejectedWhileRunning(t *testing.T) {
	t.Parallel()
	d, manager := newTestDispatcher(t)
	id := launchNativeSession(t, d)
	sess, ok := manager.Lookup(id)
	require.True(t, ok)
	sess.SetStatus("running")

	res := d.CallTool(context.Background(), "threads", rawArgs(t, map[string]any{"session_id": id}))
	require.False(t, res.OK)
	assert.Equal(t, CodeInternalError, res.Error.Code)
	assert.Contains(t, res.Error.Message, "running")
}

func TestPollEventsIsIdempotentOnAnIdleSession(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher(t)
	id := launchNativeSession(t, d)

	first := d.CallTool(context.Background(), "poll_events", rawArgs(t, map[string]any{"session_id": id}))
	require.True(t, first.OK)
	second := d.CallTool(context.Background(), "poll_events", rawArgs(t, map[string]any{"session_id": id}))
	require.True(t, second.OK)

	firstEvents := first.Result.(map[string]any)["events"].([]map[string]any)
	secondEvents := second.Result.(map[string]any)["events"].([]map[string]any)
	assert.Empty(t, firstEvents)
	assert.Empty(t, secondEvents, "poll-events called twice on an idle session must return an empty list both times")
}

func TestPollEventsNeverReturnsANilEventsField(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher(t)
	res := d.CallTool(context.Background(), "poll_events", rawArgs(t, map[string]any{}))
	require.True(t, res.OK)
	m := res.Result.(map[string]any)
	assert.NotNil(t, m["events"])
}

func TestUnknownSessionIDIsInvalidParams(t *testing.T) {
	t.Parallel()
	d, _ := newTestDispatcher(t)
	res := d.CallTool(context.Background(), "threads", rawArgs(t, map[string]any{"session_id": "sess-does-not-exist"}))
	require.False(t, res.OK)
	assert.Equal(t, CodeInvalidParams, res.Error.Code)
}
