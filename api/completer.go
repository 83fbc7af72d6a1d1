// File: api/completer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Completion-based I/O capability consumed by the read scheduler.
// Backends live in internal/iouring; the scheduler never touches a
// platform API directly.

package api

import "os"

// Status classifies a single completion.
type Status int

const (
	// StatusOK carries N valid bytes, possibly fewer than requested.
	StatusOK Status = iota
	// StatusEOF reports a read at or beyond end of file. Benign: the
	// scheduler filters it and keeps draining.
	StatusEOF
	// StatusError carries a fatal native status in Err.
	StatusError
)

// ReadRequest describes one positional read. Token is the destination
// buffer's pool index, used as the opaque correlation token: it comes back
// unchanged on the matching Completion. Length may exceed the bytes left in
// the file; the completion then reports the short count.
type ReadRequest struct {
	Token  uint32
	Offset int64
	Length int
}

// Completion is the result of one ReadRequest. Offset is not echoed back;
// callers correlate through Token.
type Completion struct {
	Token  uint32
	N      int
	Status Status
	Err    error
}

// Completer abstracts a completion-based read capability.
//
// Register pins the file handle and the backing arena for the session.
// Submit queues one read; dst must stay valid until the matching completion
// is retrieved. Wait blocks for the next completion with no timeout and no
// ordering guarantee relative to submission order. After Close, Wait
// returns ErrClosed.
type Completer interface {
	Register(f *os.File, arena []byte) error
	Submit(req ReadRequest, dst []byte) error
	Wait() (Completion, error)
	Close() error
}
