package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cog-debug/cog-debug/internal/drivererr"
)

func TestCorrelatorAllocatesIncreasingSequenceNumbers(t *testing.T) {
	t.Parallel()
	c := newCorrelator()
	a := c.register()
	b := c.register()
	assert.NotEqual(t, a.seq, b.seq)
	assert.Greater(t, b.seq, a.seq)
}

func TestCorrelatorResolveDeliversToTheMatchingEntry(t *testing.T) {
	t.Parallel()
	c := newCorrelator()
	entry := c.register()

	c.resolve(entry.seq, message{Type: typeResponse, Success: true, RequestSeq: entry.seq})

	select {
	case reply := <-entry.replyC:
		require.Nil(t, reply.err)
		assert.True(t, reply.msg.Success)
	case <-time.After(time.Second):
		t.Fatal("resolve did not deliver to the pending entry")
	}
}

func TestCorrelatorResolveIgnoresUnknownSequence(t *testing.T) {
	t.Parallel()
	c := newCorrelator()
	entry := c.register()
	c.resolve(entry.seq+1000, message{Type: typeResponse, Success: true})

	select {
	case <-entry.replyC:
		t.Fatal("resolve must not deliver a response for a different sequence number")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCorrelatorRetireDiscardsALateResponse(t *testing.T) {
	t.Parallel()
	c := newCorrelator()
	entry := c.register()
	c.retire(entry.seq)

	c.resolve(entry.seq, message{Type: typeResponse, Success: true})

	select {
	case <-entry.replyC:
		t.Fatal("a retired entry must not receive a late response")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCorrelatorCancelAllDeliversGoneToEveryOutstandingEntry(t *testing.T) {
	t.Parallel()
	c := newCorrelator()
	a := c.register()
	b := c.register()

	c.cancelAll()

	for _, e := range []*pendingEntry{a, b} {
		select {
		case reply := <-e.replyC:
			require.NotNil(t, reply.err)
			assert.ErrorIs(t, reply.err, drivererr.New(drivererr.Gone, ""))
		case <-time.After(time.Second):
			t.Fatal("cancelAll did not deliver to every outstanding entry")
		}
	}
}
