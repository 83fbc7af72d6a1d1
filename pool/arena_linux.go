//go:build linux

// File: pool/arena_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// mmap-backed arena. An anonymous private mapping is page-aligned already;
// for stricter alignment the mapping is padded and the window offset into
// it. The mapping stays resident and fixed-address for the session, which
// is what buffer registration requires.

package pool

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func allocArena(regions, regionSize, align int) (*Arena, error) {
	total := regions * regionSize
	pad := 0
	if align > unix.Getpagesize() {
		pad = align
	}
	raw, err := unix.Mmap(-1, 0, total+pad,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	buf := raw[alignOffset(raw, align):]
	return &Arena{
		buf:        buf[:total:total],
		raw:        raw,
		regionSize: regionSize,
		regions:    regions,
		align:      align,
		mapped:     true,
	}, nil
}

func releaseArena(a *Arena) error {
	a.buf = nil
	raw := a.raw
	a.raw = nil
	return unix.Munmap(raw)
}

func alignOffset(b []byte, align int) int {
	addr := uintptr(unsafe.Pointer(&b[0]))
	return int((uintptr(align) - addr%uintptr(align)) % uintptr(align))
}
