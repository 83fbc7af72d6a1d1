// File: core/concurrency/bounded_queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// BoundedQueue is a multi-producer/single-consumer queue over a
// power-of-two ring of Slots. It is correct only under an externally
// enforced capacity invariant: callers guarantee tail-head never exceeds
// the requested capacity. Given that, Push never blocks and never fails.
//
// The ring is sized nextPow2(capacity+1): the spare slot disambiguates
// empty from full with nothing but the two monotonic counters. Producers
// reserve a unique index with an atomic tail increment; head is a plain
// integer owned by the single consumer. Values dequeue in reservation
// order: a producer that reserved an earlier index stalls the consumer
// even if later producers finish their slot writes sooner.
//
// Exceeding the capacity invariant overwrites a live slot silently.

package concurrency

import (
	"sync"
	"sync/atomic"
)

const cacheLinePad = 64

// BoundedQueue is an externally-bounded MPSC queue.
type BoundedQueue[T any] struct {
	tail atomic.Uint64
	_    [cacheLinePad]byte
	head uint64
	_    [cacheLinePad]byte
	mask uint64
	ring []Slot[T]

	// Parks the consumer while head == tail. Producers touch it only on
	// the notify side of Push.
	tailMu   sync.Mutex
	tailCond *sync.Cond
}

// NewBoundedQueue creates a queue for at most capacity outstanding items.
func NewBoundedQueue[T any](capacity int) *BoundedQueue[T] {
	if capacity < 1 {
		capacity = 1
	}
	size := nextPow2(uint64(capacity) + 1)
	q := &BoundedQueue[T]{
		mask: size - 1,
		ring: make([]Slot[T], size),
	}
	for i := range q.ring {
		q.ring[i].init()
	}
	q.tailCond = sync.NewCond(&q.tailMu)
	return q
}

// Push reserves the next slot index and publishes v into it. Never blocks
// and never fails while the caller protocol keeps outstanding items within
// capacity. Safe for concurrent producers.
func (q *BoundedQueue[T]) Push(v T) {
	t := q.tail.Add(1) - 1
	q.ring[t&q.mask].Put(v)
	q.tailMu.Lock()
	q.tailCond.Broadcast()
	q.tailMu.Unlock()
}

// Pop returns the next value in reservation order, blocking while the
// queue is empty or while the owning producer of the next slot has
// reserved but not yet written it. Single consumer only.
func (q *BoundedQueue[T]) Pop() T {
	if q.tail.Load() == q.head {
		q.tailMu.Lock()
		for q.tail.Load() == q.head {
			q.tailCond.Wait()
		}
		q.tailMu.Unlock()
	}
	v := q.ring[q.head&q.mask].Take()
	// Plain reads of head stay consumer-private; the store is atomic only
	// so Len can observe it from other goroutines.
	atomic.StoreUint64(&q.head, q.head+1)
	return v
}

// TryPop returns the next value if one is reserved and fully written.
func (q *BoundedQueue[T]) TryPop() (T, bool) {
	if q.tail.Load() == q.head {
		var zero T
		return zero, false
	}
	v, ok := q.ring[q.head&q.mask].TryTake()
	if ok {
		atomic.StoreUint64(&q.head, q.head+1)
	}
	return v, ok
}

// Len reports reserved-but-unconsumed items. Exact for the consumer,
// a snapshot for anyone else.
func (q *BoundedQueue[T]) Len() int {
	return int(q.tail.Load() - atomic.LoadUint64(&q.head))
}

// Cap returns the ring size, at least capacity+1.
func (q *BoundedQueue[T]) Cap() int { return len(q.ring) }

func nextPow2(v uint64) uint64 {
	if v < 2 {
		return 2
	}
	n := v - 1
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
