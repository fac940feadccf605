package adapter

import (
	"sync"

	"github.com/cog-debug/cog-debug/internal/drivererr"
)

// pendingEntry is the correlation-key entry of spec.md §3: "owner
// condition-variable + mailbox for the completed response". Go's
// idiomatic equivalent of a condition variable guarding a one-shot
// mailbox is a buffered channel of size 1: the reader goroutine sends the
// response (or a terminal error) exactly once and the waiter receives it,
// which is both simpler and race-free compared to a raw sync.Cond.
type pendingEntry struct {
	seq    int
	replyC chan pendingReply
}

type pendingReply struct {
	msg message
	err *drivererr.Error
}

// correlator tracks in-flight adapter requests by sequence number.
// Sequence numbers are allocated by the correlator itself, guaranteeing
// uniqueness for the lifetime of the owning proxy session (spec.md §8).
type correlator struct {
	mu      sync.Mutex
	nextSeq int
	pending map[int]*pendingEntry
}

func newCorrelator() *correlator {
	return &correlator{nextSeq: 1, pending: make(map[int]*pendingEntry)}
}

// register allocates the next sequence number and a pending entry for it.
func (c *correlator) register() *pendingEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.nextSeq
	c.nextSeq++
	e := &pendingEntry{seq: seq, replyC: make(chan pendingReply, 1)}
	c.pending[seq] = e
	return e
}

// resolve delivers a response to the pending entry matching requestSeq,
// if one is still outstanding. Responses for unknown or already-retired
// sequence numbers (e.g. arriving after a timeout) are discarded.
func (c *correlator) resolve(requestSeq int, m message) {
	c.mu.Lock()
	e, ok := c.pending[requestSeq]
	if ok {
		delete(c.pending, requestSeq)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	e.replyC <- pendingReply{msg: m}
}

// retire removes a pending entry without a response (used on timeout, so
// a later arriving response for the same seq is discarded by resolve's
// ok check above).
func (c *correlator) retire(seq int) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}

// cancelAll retires every outstanding entry with a Gone error, used on
// session teardown (spec.md §4.2 "Shutdown").
func (c *correlator) cancelAll() {
	c.mu.Lock()
	entries := make([]*pendingEntry, 0, len(c.pending))
	for seq, e := range c.pending {
		entries = append(entries, e)
		delete(c.pending, seq)
	}
	c.mu.Unlock()
	for _, e := range entries {
		e.replyC <- pendingReply{err: drivererr.New(drivererr.Gone, "session shut down while request was in flight")}
	}
}
