// File: fake/sink.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"errors"
	"sync"
)

// ErrSinkReject is returned by a RecordingSink configured to fail.
var ErrSinkReject = errors.New("sink rejected")

// Chunk is one recorded delivery.
type Chunk struct {
	Offset int64
	Data   []byte
}

// RecordingSink copies every delivered chunk. Safe under parallel drains.
type RecordingSink struct {
	// RejectAt fails the n-th delivery (1-based) with ErrSinkReject.
	RejectAt int

	mu     sync.Mutex
	chunks []Chunk
	total  int64
}

func (s *RecordingSink) OnChunk(p []byte, offset int64, total int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, Chunk{Offset: offset, Data: append([]byte(nil), p...)})
	s.total = total
	if s.RejectAt != 0 && len(s.chunks) == s.RejectAt {
		return ErrSinkReject
	}
	return nil
}

// Chunks returns the recorded deliveries in arrival order.
func (s *RecordingSink) Chunks() []Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Chunk(nil), s.chunks...)
}

// Reassemble rebuilds the byte stream by offset, the only valid ordering.
func (s *RecordingSink) Reassemble() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var size int64
	for _, c := range s.chunks {
		if end := c.Offset + int64(len(c.Data)); end > size {
			size = end
		}
	}
	out := make([]byte, size)
	for _, c := range s.chunks {
		copy(out[c.Offset:], c.Data)
	}
	return out
}
