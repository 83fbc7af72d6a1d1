// File: fake/completer.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Scripted completion capability for scheduler tests. Serves reads from
// an in-memory byte slice, records submission pressure, and can reorder
// completions or inject failure and end-of-file statuses.

package fake

import (
	"errors"
	"os"
	"sync"

	"github.com/momentics/hioload-fio/api"
)

// ErrInjected is the native status carried by injected failures.
var ErrInjected = errors.New("injected device failure")

// Completer is a deterministic in-memory api.Completer.
type Completer struct {
	// Content backs every read; reads beyond it complete with StatusEOF.
	Content []byte

	// LIFO delivers completions newest-first, exercising out-of-order
	// arrival.
	LIFO bool

	// ErrAt fails the n-th submission (1-based) with ErrInjected.
	ErrAt int

	// SpuriousEOF delivers one EOF completion for the first submission
	// before its real completion, modeling a device-race EOF.
	SpuriousEOF bool

	mu          sync.Mutex
	cond        *sync.Cond
	ready       []api.Completion
	closed      bool
	registered  bool
	arenaLen    int
	submitted   int
	delivered   int
	maxInFlight int
}

// NewCompleter creates a fake over content.
func NewCompleter(content []byte) *Completer {
	c := &Completer{Content: content}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Completer) Register(f *os.File, arena []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registered = true
	c.arenaLen = len(arena)
	return nil
}

func (c *Completer) Submit(req api.ReadRequest, dst []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return api.ErrClosed
	}
	if !c.registered {
		return api.NewError(api.ErrCodeSubmit, "submit before register", api.ErrInvalidState)
	}
	c.submitted++
	if inFlight := c.submitted - c.delivered; inFlight > c.maxInFlight {
		c.maxInFlight = inFlight
	}

	comp := api.Completion{Token: req.Token}
	switch {
	case c.submitted == c.ErrAt:
		comp.Status = api.StatusError
		comp.Err = api.NewError(api.ErrCodeComplete, "read", ErrInjected)
	case req.Offset >= int64(len(c.Content)):
		comp.Status = api.StatusEOF
	default:
		comp.Status = api.StatusOK
		comp.N = copy(dst[:req.Length], c.Content[req.Offset:])
	}

	if c.SpuriousEOF && c.submitted == 1 {
		c.ready = append(c.ready, api.Completion{Token: req.Token, Status: api.StatusEOF})
	}
	c.ready = append(c.ready, comp)
	c.cond.Broadcast()
	return nil
}

func (c *Completer) Wait() (api.Completion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.ready) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.ready) == 0 {
		return api.Completion{}, api.ErrClosed
	}
	var comp api.Completion
	if c.LIFO {
		comp = c.ready[len(c.ready)-1]
		c.ready = c.ready[:len(c.ready)-1]
	} else {
		comp = c.ready[0]
		c.ready = c.ready[1:]
	}
	c.delivered++
	return comp, nil
}

func (c *Completer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cond.Broadcast()
	return nil
}

// Submitted reports how many reads were submitted.
func (c *Completer) Submitted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}

// MaxInFlight reports the highest number of submitted-but-undelivered
// reads observed.
func (c *Completer) MaxInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxInFlight
}

// Registered reports whether Register ran, and the arena length it saw.
func (c *Completer) Registered() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registered, c.arenaLen
}
