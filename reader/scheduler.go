// File: reader/scheduler.go
// Package reader drives bounded asynchronous reads over a fixed buffer
// pool and delivers completed byte ranges to a sink.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A session walks Idle -> Opened -> Streaming -> Draining -> Closed.
// Streaming issues an initial wave of NumBuffers-1 reads at successive
// offsets, then loops: flush pending submissions, block for one
// completion, recycle its buffer, forward the bytes, reissue at the next
// unclaimed offset. One buffer is deliberately never in flight, matching
// the pool's externally enforced capacity. End-of-file completions are
// filtered; any other non-success status aborts the session. Completions
// arrive in any order, so sinks must key on the offset delivered with
// each chunk, never on arrival order.

package reader

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-fio/api"
	"github.com/momentics/hioload-fio/control"
	"github.com/momentics/hioload-fio/internal/geometry"
	"github.com/momentics/hioload-fio/internal/iouring"
	"github.com/momentics/hioload-fio/pool"
)

// State of a read session.
type State int32

const (
	StateIdle State = iota
	StateOpened
	StateStreaming
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpened:
		return "opened"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Stats is a snapshot of session counters.
type Stats struct {
	ReadsQueued    int64
	ReadsSubmitted int64
	ReadsCompleted int64
	EOFFiltered    int64
	BytesRead      int64
	FileSize       int64
}

// Reader is the asynchronous read scheduler for one file session.
type Reader struct {
	cfg  Config
	file *os.File
	size int64
	geo  geometry.DeviceGeometry
	comp api.Completer
	pool *pool.BufferPool

	state      atomic.Int32
	readOffset atomic.Int64
	bytesRead  atomic.Int64

	// inflightOff maps a correlation token to the offset it was issued
	// at. Written before submit, read after the matching completion.
	inflightOff []int64

	pendingMu sync.Mutex
	pending   *queue.Queue // of api.ReadRequest

	readsQueued    atomic.Int64
	readsSubmitted atomic.Int64
	readsCompleted atomic.Int64
	eofFiltered    atomic.Int64

	closeOnce sync.Once
	closeErr  error
}

// Open resolves the file and its device geometry and prepares the
// completion capability. The session is left in StateOpened.
func Open(path string, cfg Config) (*Reader, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	f, err := iouring.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, api.NewError(api.ErrCodeOpen, "stat "+path, err)
	}
	geo, err := geometry.Probe(path, cfg.ChunkSize, cfg.MinBufferSize)
	if err != nil {
		f.Close()
		return nil, err
	}
	comp, err := iouring.New(iouring.Config{Entries: cfg.Entries})
	if err != nil {
		f.Close()
		return nil, err
	}
	r := newReader(f, st.Size(), geo, comp, cfg)
	return r, nil
}

// newReader wires a session over an explicit capability and geometry.
func newReader(f *os.File, size int64, geo geometry.DeviceGeometry, comp api.Completer, cfg Config) *Reader {
	r := &Reader{
		cfg:     cfg,
		file:    f,
		size:    size,
		geo:     geo,
		comp:    comp,
		pending: queue.New(),
	}
	r.state.Store(int32(StateOpened))
	return r
}

// Geometry returns the derived device geometry.
func (r *Reader) Geometry() geometry.DeviceGeometry { return r.geo }

// Size returns the file size in bytes.
func (r *Reader) Size() int64 { return r.size }

// BytesRead returns the bytes delivered so far.
func (r *Reader) BytesRead() int64 { return r.bytesRead.Load() }

// State returns the current session state.
func (r *Reader) State() State { return State(r.state.Load()) }

// Stats returns a snapshot of the session counters.
func (r *Reader) Stats() Stats {
	return Stats{
		ReadsQueued:    r.readsQueued.Load(),
		ReadsSubmitted: r.readsSubmitted.Load(),
		ReadsCompleted: r.readsCompleted.Load(),
		EOFFiltered:    r.eofFiltered.Load(),
		BytesRead:      r.bytesRead.Load(),
		FileSize:       r.size,
	}
}

// RegisterProbes exposes live session state on a debug registry.
func (r *Reader) RegisterProbes(dp *control.DebugProbes) {
	dp.RegisterProbe("reader.state", func() any { return r.State().String() })
	dp.RegisterProbe("reader.stats", func() any { return r.Stats() })
}

// Stream runs the whole session with a single draining thread and blocks
// until the file is fully delivered or a fatal error aborts it. The
// Reader is closed either way.
func (r *Reader) Stream(sink api.Sink) error {
	return r.stream(sink, 1)
}

// StreamParallel drains completions from workers threads. Chunk delivery
// order becomes even less predictable; the pool still sees one logical
// consumer.
func (r *Reader) StreamParallel(sink api.Sink, workers int) error {
	if workers < 1 {
		workers = 1
	}
	return r.stream(sink, workers)
}

func (r *Reader) stream(sink api.Sink, workers int) error {
	if !r.state.CompareAndSwap(int32(StateOpened), int32(StateStreaming)) {
		return api.ErrInvalidState
	}

	p, err := pool.NewBufferPool(r.cfg.NumBuffers, int(r.geo.BufferSize), int(r.geo.BufferAlignment))
	if err != nil {
		return r.finish(err)
	}
	r.pool = p
	r.inflightOff = make([]int64, r.cfg.NumBuffers)

	if err := r.comp.Register(r.file, p.Arena().Bytes()); err != nil {
		return r.finish(err)
	}

	// Initial wave: successive offsets, one buffer held back.
	for i := 0; i < r.cfg.NumBuffers-1; i++ {
		if !r.issueNext() {
			break
		}
	}
	if err := r.flushPending(); err != nil {
		return r.finish(err)
	}

	if r.size == 0 {
		return r.finish(nil)
	}

	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			errs[slot] = r.drain(sink)
			if errs[slot] != nil {
				// Wake siblings parked in Wait; Close is idempotent.
				r.comp.Close()
			}
		}(i)
	}
	wg.Wait()

	// Siblings woken by an abort report ErrClosed; the root cause wins.
	var fatal error
	for _, e := range errs {
		if e != nil && !errors.Is(e, api.ErrClosed) {
			fatal = e
			break
		}
	}
	if fatal == nil {
		for _, e := range errs {
			if e != nil {
				fatal = e
				break
			}
		}
	}
	return r.finish(fatal)
}

// issueNext claims the next unclaimed read offset; if data remains there,
// it pops a buffer and queues a full-sized read at it. Reports whether a
// read was queued.
func (r *Reader) issueNext() bool {
	off := r.readOffset.Add(r.geo.ReadSize) - r.geo.ReadSize
	if off >= r.size {
		return false
	}
	tok := r.pool.Get()
	idx := tok.Release()
	r.inflightOff[idx] = off
	req := api.ReadRequest{Token: idx, Offset: off, Length: int(r.geo.ReadSize)}
	r.pendingMu.Lock()
	r.pending.Add(req)
	r.pendingMu.Unlock()
	r.readsQueued.Add(1)
	return true
}

// flushPending submits every queued request in FIFO order.
func (r *Reader) flushPending() error {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	for r.pending.Length() > 0 {
		req := r.pending.Peek().(api.ReadRequest)
		if err := r.comp.Submit(req, r.pool.Region(req.Token)); err != nil {
			return err
		}
		r.pending.Remove()
		r.readsSubmitted.Add(1)
	}
	return nil
}

// drain is the completion loop. Several copies may run concurrently; the
// shared counters are atomic and the pool serializes its consumer side.
func (r *Reader) drain(sink api.Sink) error {
	for r.bytesRead.Load() < r.size {
		if err := r.flushPending(); err != nil {
			return err
		}
		comp, err := r.comp.Wait()
		if err != nil {
			if errors.Is(err, api.ErrClosed) && r.bytesRead.Load() >= r.size {
				return nil
			}
			return err
		}

		switch comp.Status {
		case api.StatusEOF:
			// Benign: ignore it and keep draining. The buffer stays
			// loaned; an end-of-file read carries no data to recycle.
			r.eofFiltered.Add(1)
			continue
		case api.StatusError:
			return comp.Err
		}

		tok := r.pool.Reacquire(comp.Token)
		off := r.inflightOff[comp.Token]
		total := r.bytesRead.Add(int64(comp.N))
		r.readsCompleted.Add(1)

		sinkErr := sink.OnChunk(tok.Bytes()[:comp.N], off, r.size)
		tok.Close()
		if sinkErr != nil {
			return api.NewError(api.ErrCodeSink, "sink rejected chunk", sinkErr)
		}

		if total >= r.size {
			// Last byte delivered: wake siblings parked in Wait.
			r.state.CompareAndSwap(int32(StateStreaming), int32(StateDraining))
			r.comp.Close()
			return nil
		}
		r.issueNext()
	}
	return nil
}

// finish tears the session down: deregister by closing the capability,
// release the arena, close the file. Idempotent; the first caller's error
// wins.
func (r *Reader) finish(errIn error) error {
	r.closeOnce.Do(func() {
		r.state.Store(int32(StateDraining))
		cerr := r.comp.Close()
		var perr error
		if r.pool != nil {
			perr = r.pool.Close()
		}
		var ferr error
		if r.file != nil {
			ferr = r.file.Close()
		}
		r.state.Store(int32(StateClosed))
		r.publishMetrics()
		for _, e := range []error{errIn, cerr, perr, ferr} {
			if e != nil {
				r.closeErr = e
				break
			}
		}
	})
	if errIn != nil {
		return errIn
	}
	return r.closeErr
}

// Close aborts or finalizes the session. Safe to call at any state.
func (r *Reader) Close() error {
	return r.finish(nil)
}

func (r *Reader) publishMetrics() {
	mr := r.cfg.Metrics
	if mr == nil {
		return
	}
	s := r.Stats()
	mr.Set("reader.reads_queued", s.ReadsQueued)
	mr.Set("reader.reads_submitted", s.ReadsSubmitted)
	mr.Set("reader.reads_completed", s.ReadsCompleted)
	mr.Set("reader.eof_filtered", s.EOFFiltered)
	mr.Set("reader.bytes_read", s.BytesRead)
	mr.Set("reader.file_size", s.FileSize)
}
