// File: reader/progress.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reader

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/momentics/hioload-fio/api"
)

// NewProgress returns the reference sink: it only reports the percentage
// of the file delivered so far. Correct under parallel draining.
func NewProgress(w io.Writer) api.Sink {
	p := &progressSink{w: w}
	p.lastPct.Store(-1)
	return p
}

type progressSink struct {
	w       io.Writer
	done    atomic.Int64
	lastPct atomic.Int64
}

func (p *progressSink) OnChunk(b []byte, _ int64, total int64) error {
	done := p.done.Add(int64(len(b)))
	if total <= 0 {
		return nil
	}
	pct := done * 100 / total
	if prev := p.lastPct.Load(); pct != prev && p.lastPct.CompareAndSwap(prev, pct) {
		fmt.Fprintf(p.w, "\r%3d%%", pct)
		if pct >= 100 {
			fmt.Fprintln(p.w)
		}
	}
	return nil
}
