//go:build !linux

// File: pool/arena_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Heap-backed arena for platforms without the mmap path: over-allocate by
// one alignment unit and offset the window onto the boundary.

package pool

import "unsafe"

func allocArena(regions, regionSize, align int) (*Arena, error) {
	total := regions * regionSize
	raw := make([]byte, total+align)
	off := alignOffset(raw, align)
	return &Arena{
		buf:        raw[off : off+total : off+total],
		raw:        raw,
		regionSize: regionSize,
		regions:    regions,
		align:      align,
	}, nil
}

func releaseArena(a *Arena) error {
	a.buf = nil
	a.raw = nil
	return nil
}

func alignOffset(b []byte, align int) int {
	addr := uintptr(unsafe.Pointer(&b[0]))
	return int((uintptr(align) - addr%uintptr(align)) % uintptr(align))
}
