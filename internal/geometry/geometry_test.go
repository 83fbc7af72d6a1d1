package geometry

import "testing"

func TestDerive_MinReadGranularity(t *testing.T) {
	if g := Derive(512, 1, 1); g.MinReadGranularity != 512 {
		t.Errorf("sector 512, chunk 1: granularity = %d, want 512", g.MinReadGranularity)
	}
	if g := Derive(4096, 8, 1); g.MinReadGranularity != 4096 {
		t.Errorf("sector 4096, chunk 8: granularity = %d, want 4096", g.MinReadGranularity)
	}
	// Non-divisor chunk: lcm(512, 96) = 1536.
	if g := Derive(512, 96, 1); g.MinReadGranularity != 1536 {
		t.Errorf("sector 512, chunk 96: granularity = %d, want 1536", g.MinReadGranularity)
	}
}

func TestDerive_Invariants(t *testing.T) {
	sectors := []int64{512, 520, 4096}
	chunks := []int64{1, 8, 96, 4096}
	minBufs := []int64{1, 4096, 1 << 20, 1<<20 + 1}

	for _, ss := range sectors {
		for _, cs := range chunks {
			for _, mb := range minBufs {
				g := Derive(ss, cs, mb)
				if g.BufferAlignment%g.SectorSize != 0 {
					t.Errorf("Derive(%d,%d,%d): alignment %d not a multiple of sector %d",
						ss, cs, mb, g.BufferAlignment, g.SectorSize)
				}
				if g.BufferSize%g.BufferAlignment != 0 {
					t.Errorf("Derive(%d,%d,%d): buffer size %d not a multiple of alignment %d",
						ss, cs, mb, g.BufferSize, g.BufferAlignment)
				}
				if g.ReadSize < mb || g.ReadSize%g.MinReadGranularity != 0 {
					t.Errorf("Derive(%d,%d,%d): read size %d violates granularity %d / min %d",
						ss, cs, mb, g.ReadSize, g.MinReadGranularity, mb)
				}
				if g.BufferSize < g.ReadSize {
					t.Errorf("Derive(%d,%d,%d): buffer %d smaller than read %d",
						ss, cs, mb, g.BufferSize, g.ReadSize)
				}
			}
		}
	}
}

func TestDerive_TypicalSession(t *testing.T) {
	// 512-byte sectors, byte-granular records, 2 MiB min buffer.
	g := Derive(512, 1, 2<<20)
	if g.ReadSize != 2<<20 {
		t.Errorf("read size = %d, want %d", g.ReadSize, 2<<20)
	}
	if g.BufferSize != 2<<20 {
		t.Errorf("buffer size = %d, want %d", g.BufferSize, 2<<20)
	}
	if g.BufferAlignment != 512 {
		t.Errorf("alignment = %d, want 512", g.BufferAlignment)
	}
}

func TestMathHelpers(t *testing.T) {
	if got := NextPow2(513); got != 1024 {
		t.Errorf("NextPow2(513) = %d", got)
	}
	if got := NextPow2(512); got != 512 {
		t.Errorf("NextPow2(512) = %d", got)
	}
	if got := Lcm(512, 96); got != 1536 {
		t.Errorf("Lcm(512, 96) = %d", got)
	}
	if got := Lcm(520, 512); got != 33280 {
		t.Errorf("Lcm(520, 512) = %d", got)
	}
	if got := RoundUp(1, 512); got != 512 {
		t.Errorf("RoundUp(1, 512) = %d", got)
	}
	if got := RoundUp(1024, 512); got != 1024 {
		t.Errorf("RoundUp(1024, 512) = %d", got)
	}
}

func TestProbe_RejectsBadParams(t *testing.T) {
	if _, err := Probe("geometry_test.go", 0, 1); err == nil {
		t.Error("Probe accepted chunk size 0")
	}
	if _, err := Probe("geometry_test.go", 1, 0); err == nil {
		t.Error("Probe accepted min buffer size 0")
	}
	if _, err := Probe("does-not-exist-anywhere", 1, 1); err == nil {
		t.Error("Probe accepted missing path")
	}
}

func TestProbe_RealFile(t *testing.T) {
	g, err := Probe("geometry_test.go", 1, 1<<20)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if g.SectorSize < 1 || g.BufferSize%g.BufferAlignment != 0 {
		t.Fatalf("implausible geometry: %+v", g)
	}
}
