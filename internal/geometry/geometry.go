// File: internal/geometry/geometry.go
// Package geometry derives alignment and size constraints for unbuffered
// device access.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Unbuffered reads require both transfer length and buffer address to be
// multiples of the device's minimal transfer unit. ReadSize is derived
// from lcm(chunkSize, sectorSize) so every read stays sector-aligned
// while respecting the caller's logical record granularity; records that
// span a read boundary are the consumer's to reassemble.

package geometry

// DeviceGeometry is computed once at open time and immutable thereafter.
type DeviceGeometry struct {
	SectorSize         int64
	MinReadGranularity int64 // lcm(chunkSize, sectorSize)
	BufferAlignment    int64 // lcm(sectorSize, nextPow2(sectorSize))
	ReadSize           int64 // roundUp(minBufferSize, MinReadGranularity)
	BufferSize         int64 // roundUp(ReadSize, BufferAlignment)
}

// Derive computes the geometry for a known sector size.
func Derive(sectorSize, chunkSize, minBufferSize int64) DeviceGeometry {
	g := DeviceGeometry{SectorSize: sectorSize}
	g.MinReadGranularity = Lcm(chunkSize, sectorSize)
	g.BufferAlignment = Lcm(sectorSize, int64(NextPow2(uint64(sectorSize))))
	g.ReadSize = RoundUp(minBufferSize, g.MinReadGranularity)
	g.BufferSize = RoundUp(g.ReadSize, g.BufferAlignment)
	return g
}

// NextPow2 returns the smallest power of two >= v.
func NextPow2(v uint64) uint64 {
	if v < 2 {
		return 1
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

// Gcd returns the greatest common divisor of a and b.
func Gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Lcm returns the least common multiple of a and b.
func Lcm(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	return a / Gcd(a, b) * b
}

// RoundUp rounds v up to the next multiple of m.
func RoundUp(v, m int64) int64 {
	return (v + m - 1) / m * m
}
