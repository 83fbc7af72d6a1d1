// File: core/concurrency/slot.go
// Package concurrency provides the lock-free primitives under the buffer pool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Slot is an atomic presence cell holding zero or one value. Exactly one
// writer transitions it empty->full and exactly one reader transitions it
// full->empty per cycle. The presence flag is published with an atomic
// store after the value write, so any reader that observes full also
// observes the value. Blocking takes park on a condition variable instead
// of spinning; the atomic flag remains the fast path.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-fio/internal/debug"
)

// Slot is an atomic presence cell. The zero value is not ready for use;
// slots are initialized by their enclosing ring via init.
type Slot[T any] struct {
	full  atomic.Uint32
	value T
	mu    sync.Mutex
	cond  *sync.Cond
}

func (s *Slot[T]) init() {
	s.cond = sync.NewCond(&s.mu)
}

// Put moves v into the slot and marks presence.
//
// Precondition: the slot is empty. Violations silently overwrite in
// release builds; asserted under the fiodebug tag.
func (s *Slot[T]) Put(v T) {
	debug.Assert(s.full.Load() == 0, "slot put on full slot")
	s.value = v
	s.full.Store(1)
	// Bracketing the broadcast with the waiter's mutex closes the window
	// between a waiter's flag check and its park.
	s.mu.Lock()
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Take blocks until a value is present, then moves it out and resets the
// slot to empty for the next writer. Single reader only; each Put is
// observed by exactly one Take.
func (s *Slot[T]) Take() T {
	if s.full.Load() == 0 {
		s.mu.Lock()
		for s.full.Load() == 0 {
			s.cond.Wait()
		}
		s.mu.Unlock()
	}
	return s.steal()
}

// TryTake moves the value out if one is present.
func (s *Slot[T]) TryTake() (T, bool) {
	if s.full.Load() == 0 {
		var zero T
		return zero, false
	}
	return s.steal(), true
}

// steal assumes presence was observed. The value is cleared before the
// flag store so the slot is never read after reset.
func (s *Slot[T]) steal() T {
	v := s.value
	var zero T
	s.value = zero
	s.full.Store(0)
	return v
}
