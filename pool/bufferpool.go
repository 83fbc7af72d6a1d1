// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// BufferPool cycles the arena's region indices through an externally
// bounded MPSC queue. Capacity equals the region count, so returns (the
// producer side) can never exceed the bound: an index is either in the
// queue, inside a live Token, or loaned out to an in-flight read.
//
// Token is the single ownership handle. For any region index at most one
// live armed Token exists; Release hands the raw index to an asynchronous
// operation and disarms the token, Reacquire wraps a completed index back
// into a fresh one. Double release and reacquiring an index that is not
// checked out are contract violations, diagnosed only under the fiodebug
// build tag.

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-fio/core/concurrency"
	"github.com/momentics/hioload-fio/internal/debug"
)

// BufferPool hands out exclusive tokens over the arena's regions.
type BufferPool struct {
	arena *Arena
	queue *concurrency.BoundedQueue[uint32]

	// Serializes the consumer side so several completion-draining threads
	// still present one logical consumer to the queue.
	popMu sync.Mutex

	// checkedOut[i] is set while index i is outside the queue. Only
	// consulted by assertions.
	checkedOut []atomic.Bool

	closed atomic.Bool
}

// NewBufferPool allocates an arena of numBuffers regions and seeds the
// queue with every index.
func NewBufferPool(numBuffers, bufferSize, align int) (*BufferPool, error) {
	arena, err := NewArena(numBuffers, bufferSize, align)
	if err != nil {
		return nil, err
	}
	p := &BufferPool{
		arena:      arena,
		queue:      concurrency.NewBoundedQueue[uint32](numBuffers),
		checkedOut: make([]atomic.Bool, numBuffers),
	}
	for i := 0; i < numBuffers; i++ {
		p.queue.Push(uint32(i))
	}
	return p, nil
}

// Get pops the next free region, blocking until one is available. Safe to
// call from any completion-draining thread; calls are serialized into a
// single logical consumer.
func (p *BufferPool) Get() *Token {
	p.popMu.Lock()
	idx := p.queue.Pop()
	p.popMu.Unlock()
	p.checkedOut[idx].Store(true)
	return &Token{idx: idx, pool: p}
}

// TryGet pops a free region if one is ready.
func (p *BufferPool) TryGet() (*Token, bool) {
	p.popMu.Lock()
	idx, ok := p.queue.TryPop()
	p.popMu.Unlock()
	if !ok {
		return nil, false
	}
	p.checkedOut[idx].Store(true)
	return &Token{idx: idx, pool: p}, true
}

// Reacquire wraps a raw index obtained from a completion back into a
// managed token, restoring the single-owner invariant. The index must be
// currently checked out.
func (p *BufferPool) Reacquire(idx uint32) *Token {
	debug.Assert(p.checkedOut[idx].Load(), "reacquire of index not checked out")
	return &Token{idx: idx, pool: p}
}

// Region returns the byte window for a checked-out index. The caller must
// hold ownership of idx through a token or a loan.
func (p *BufferPool) Region(idx uint32) []byte { return p.arena.Region(idx) }

// Arena exposes the backing arena for capability registration.
func (p *BufferPool) Arena() *Arena { return p.arena }

// Free reports how many regions are currently in the queue.
func (p *BufferPool) Free() int { return p.queue.Len() }

// Close releases the arena. All tokens must have returned; a close with
// regions still loaned out is asserted under fiodebug and otherwise frees
// the memory regardless, as the session is over either way.
func (p *BufferPool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	debug.Assert(p.queue.Len() == p.arena.Regions(), "pool closed with regions outstanding")
	return p.arena.Close()
}

// Token is the move-only ownership handle over one region.
type Token struct {
	idx  uint32
	pool *BufferPool // nil once released or returned
}

// Bytes returns the owned region.
func (t *Token) Bytes() []byte {
	debug.Assert(t.pool != nil, "bytes on dead token")
	return t.pool.Region(t.idx)
}

// Index returns the region index without transferring ownership.
func (t *Token) Index() uint32 { return t.idx }

// Release transfers ownership out of the token and disarms auto-return.
// Used when the region passes into an in-flight read outside the pool's
// control; the completion side calls Reacquire with the same index.
func (t *Token) Release() uint32 {
	debug.Assert(t.pool != nil, "double release")
	t.pool = nil
	return t.idx
}

// Close returns the region to the pool unless ownership was released.
// Safe on every exit path; a second Close is a no-op.
func (t *Token) Close() {
	p := t.pool
	if p == nil {
		return
	}
	t.pool = nil
	p.checkedOut[t.idx].Store(false)
	p.queue.Push(t.idx)
}
