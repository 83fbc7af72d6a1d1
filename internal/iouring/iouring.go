// File: internal/iouring/iouring.go
// Package iouring selects the platform backend for the completion-based
// read capability consumed by the scheduler.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux uses an io_uring ring; everywhere else, and on kernels without
// io_uring, positional-read workers provide the same contract: submit
// many, block for one completion, completions in any order.

package iouring

// Config for the capability backend.
type Config struct {
	// Entries bounds in-flight submissions; must be at least the
	// scheduler's numBuffers-1. Defaults to 64.
	Entries uint32
}

// DefaultConfig returns the default backend configuration.
func DefaultConfig() Config {
	return Config{Entries: 64}
}

func (c *Config) normalize() {
	if c.Entries == 0 {
		c.Entries = 64
	}
}
