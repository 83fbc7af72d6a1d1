// File: api/sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Sink receives completed byte ranges from the scheduler.
//
// p is a window into a pooled buffer and is valid only for the duration of
// the call; retain by copying. Chunks arrive in completion order, which is
// not offset order; any byte-range reconstruction must key on offset.
// A non-nil error aborts the session; delivered chunks are not rolled back.
type Sink interface {
	OnChunk(p []byte, offset int64, total int64) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(p []byte, offset int64, total int64) error

func (f SinkFunc) OnChunk(p []byte, offset int64, total int64) error {
	return f(p, offset, total)
}
