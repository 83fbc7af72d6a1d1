// File: internal/iouring/completer_portable.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Positional-read worker backend. Two workers keep reads genuinely
// concurrent, so completion order diverges from submission order exactly
// as it does on the ring backend.

package iouring

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-fio/api"
)

const portableWorkers = 2

type submission struct {
	req api.ReadRequest
	dst []byte
}

type portableCompleter struct {
	file  atomic.Pointer[os.File]
	subs  chan submission
	comps chan api.Completion
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

func newPortable(entries uint32) *portableCompleter {
	c := &portableCompleter{
		subs:  make(chan submission, entries),
		comps: make(chan api.Completion, entries),
		quit:  make(chan struct{}),
	}
	for i := 0; i < portableWorkers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c
}

func (c *portableCompleter) Register(f *os.File, arena []byte) error {
	if f == nil {
		return api.NewError(api.ErrCodeRegister, "nil file handle", api.ErrInvalidArgument)
	}
	_ = arena // resident by construction; nothing to pin here
	c.file.Store(f)
	return nil
}

func (c *portableCompleter) Submit(req api.ReadRequest, dst []byte) error {
	if c.file.Load() == nil {
		return api.NewError(api.ErrCodeSubmit, "submit before register", api.ErrInvalidState)
	}
	if req.Length > len(dst) {
		return api.NewError(api.ErrCodeSubmit, "destination shorter than request", api.ErrInvalidArgument)
	}
	select {
	case c.subs <- submission{req: req, dst: dst}:
		return nil
	case <-c.quit:
		return api.ErrClosed
	}
}

func (c *portableCompleter) Wait() (api.Completion, error) {
	select {
	case comp := <-c.comps:
		return comp, nil
	case <-c.quit:
		// Completions already queued still drain after close.
		select {
		case comp := <-c.comps:
			return comp, nil
		default:
			return api.Completion{}, api.ErrClosed
		}
	}
}

func (c *portableCompleter) Close() error {
	c.once.Do(func() {
		close(c.quit)
		c.wg.Wait()
	})
	return nil
}

func (c *portableCompleter) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.quit:
			return
		case s := <-c.subs:
			comp := c.read(s)
			select {
			case c.comps <- comp:
			case <-c.quit:
				return
			}
		}
	}
}

func (c *portableCompleter) read(s submission) api.Completion {
	n, err := c.file.Load().ReadAt(s.dst[:s.req.Length], s.req.Offset)
	comp := api.Completion{Token: s.req.Token, N: n}
	switch {
	case err == nil:
		comp.Status = api.StatusOK
	case errors.Is(err, io.EOF) && n > 0:
		// Short final read: valid bytes up to end of file.
		comp.Status = api.StatusOK
	case errors.Is(err, io.EOF):
		comp.Status = api.StatusEOF
	default:
		comp.Status = api.StatusError
		comp.Err = api.NewError(api.ErrCodeComplete, "read", err)
	}
	return comp
}
