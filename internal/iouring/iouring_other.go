//go:build !linux

// File: internal/iouring/iouring_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package iouring

import (
	"os"

	"github.com/momentics/hioload-fio/api"
)

// New creates the positional-read worker backend.
func New(cfg Config) (api.Completer, error) {
	cfg.normalize()
	return newPortable(cfg.Entries), nil
}

// Open opens path for reading. Unbuffered access is a Linux concern; other
// platforms read through the cache.
func Open(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, api.NewError(api.ErrCodeOpen, path, err)
	}
	return f, nil
}
