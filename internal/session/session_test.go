package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cog-debug/cog-debug/internal/drivers/native"
	"github.com/cog-debug/cog-debug/internal/types"
)

func TestCreateAssignsUniqueShortIDs(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, nil, time.Hour)
	defer m.Shutdown()

	a := m.Create(native.New(0), 0, types.OrphanTerminate, nil, nil)
	b := m.Create(native.New(0), 0, types.OrphanTerminate, nil, nil)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Regexp(t, `^sess-[0-9a-f]{12}$`, a.ID)
	assert.Equal(t, types.StatusCreated, a.Status())
}

func TestSetStatusNeverLeavesTerminated(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, nil, time.Hour)
	defer m.Shutdown()

	sess := m.Create(native.New(0), 0, types.OrphanTerminate, nil, nil)
	sess.SetStatus(types.StatusTerminated)
	sess.SetStatus(types.StatusRunning)
	assert.Equal(t, types.StatusTerminated, sess.Status(), "terminated must be a one-way edge")
}

func TestDestroyCancelsPendingRunAndFreesID(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, nil, time.Hour)
	defer m.Shutdown()

	eng := native.New(1234)
	sess := m.Create(eng, 0, types.OrphanTerminate, nil, nil)
	require.NoError(t, sess.Async.Start(sess.ID, "continue", types.RunContinue, types.RunOptions{}))

	require.NoError(t, m.Destroy(context.Background(), sess.ID))

	_, ok := m.Lookup(sess.ID)
	assert.False(t, ok)
}

func TestLookupMissingSessionFails(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, nil, time.Hour)
	defer m.Shutdown()

	_, ok := m.Lookup("sess-does-not-exist")
	assert.False(t, ok)
}

func TestListReturnsASnapshot(t *testing.T) {
	t.Parallel()
	m := NewManager(nil, nil, time.Hour)
	defer m.Shutdown()

	m.Create(native.New(0), 0, types.OrphanTerminate, nil, nil)
	m.Create(native.New(0), 0, types.OrphanTerminate, nil, nil)

	list := m.List()
	assert.Len(t, list, 2)
}
