// File: scan/ordered.go
// Package scan reassembles completed byte ranges into an ordered record
// stream.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Completions reach the sink in arrival order, which is not offset order.
// Ordered holds out-of-order chunks aside and forwards them once their
// predecessors land. Held chunks are copied: the pooled buffer behind a
// delivery is reused as soon as OnChunk returns. At most numBuffers-1
// chunks can be outstanding, so the held set stays small.

package scan

import (
	"sync"

	"github.com/momentics/hioload-fio/api"
)

// Ordered is a sink adapter delivering chunks to inner in offset order.
type Ordered struct {
	inner api.Sink

	mu   sync.Mutex
	next int64
	held map[int64][]byte
}

// NewOrdered wraps inner so it observes a strictly sequential stream.
func NewOrdered(inner api.Sink) *Ordered {
	return &Ordered{inner: inner, held: make(map[int64][]byte)}
}

func (o *Ordered) OnChunk(p []byte, offset int64, total int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if offset != o.next {
		o.held[offset] = append([]byte(nil), p...)
		return nil
	}

	if err := o.inner.OnChunk(p, offset, total); err != nil {
		return err
	}
	o.next = offset + int64(len(p))

	for {
		buf, ok := o.held[o.next]
		if !ok {
			return nil
		}
		delete(o.held, o.next)
		if err := o.inner.OnChunk(buf, o.next, total); err != nil {
			return err
		}
		o.next += int64(len(buf))
	}
}
