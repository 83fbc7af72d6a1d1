// File: pool/arena.go
// Package pool manages the fixed set of aligned read buffers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Arena is one contiguous allocation sliced into equal aligned regions.
// The arena is the sole authority mapping region index -> sub-slice; no
// pointer arithmetic leaks past it. Allocated once per session, released
// once every region is back home.

package pool

import (
	"fmt"

	"github.com/momentics/hioload-fio/api"
)

// Arena owns the backing memory for a buffer pool.
type Arena struct {
	buf        []byte // aligned window into raw
	raw        []byte // full allocation, kept for release
	regionSize int
	regions    int
	align      int
	mapped     bool
	closed     bool
}

// NewArena allocates regions sub-buffers of regionSize bytes each, with
// the first region aligned to align and regionSize a multiple of align so
// every region start is aligned. align must be a power of two.
func NewArena(regions, regionSize, align int) (*Arena, error) {
	if regions < 1 || regionSize < 1 {
		return nil, api.ErrInvalidArgument
	}
	if align < 1 || align&(align-1) != 0 {
		return nil, fmt.Errorf("arena alignment %d: %w", align, api.ErrInvalidArgument)
	}
	if regionSize%align != 0 {
		return nil, fmt.Errorf("region size %d not a multiple of alignment %d: %w",
			regionSize, align, api.ErrInvalidArgument)
	}
	return allocArena(regions, regionSize, align)
}

// Region returns the byte window for a region index.
func (a *Arena) Region(idx uint32) []byte {
	off := int(idx) * a.regionSize
	return a.buf[off : off+a.regionSize : off+a.regionSize]
}

// Bytes returns the whole aligned arena, for registration with the I/O
// capability.
func (a *Arena) Bytes() []byte { return a.buf }

// Regions returns the number of fixed regions.
func (a *Arena) Regions() int { return a.regions }

// RegionSize returns the size of each region in bytes.
func (a *Arena) RegionSize() int { return a.regionSize }

// Close releases the backing memory. The caller must ensure no region is
// referenced afterwards.
func (a *Arena) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	return releaseArena(a)
}
