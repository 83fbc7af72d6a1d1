// File: reader/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reader

import (
	"strconv"

	"github.com/momentics/hioload-fio/api"
	"github.com/momentics/hioload-fio/control"
)

// Config tunes one read session.
type Config struct {
	// NumBuffers is the fixed pool size; at least 2. The scheduler keeps
	// NumBuffers-1 reads in flight and one buffer in reserve.
	NumBuffers int

	// ChunkSize is the caller's logical record granularity in bytes.
	// Reads are sized to a common multiple of ChunkSize and the device
	// sector size.
	ChunkSize int64

	// MinBufferSize is the smallest acceptable read size before alignment
	// rounding.
	MinBufferSize int64

	// Entries bounds backend submissions. Raised to NumBuffers when lower.
	Entries uint32

	// Metrics, when set, receives session counters at close.
	Metrics *control.MetricsRegistry
}

// DefaultConfig returns the defaults: 4 buffers, byte-granular records,
// 2 MiB reads.
func DefaultConfig() Config {
	return Config{
		NumBuffers:    4,
		ChunkSize:     1,
		MinBufferSize: 2 << 20,
	}
}

// ConfigFromStore builds a Config from a control store seeded with
// NUM_BUFFERS, CHUNK_SIZE and MIN_BUFFER_SIZE keys. Unset or malformed
// keys keep their defaults.
func ConfigFromStore(cs *control.ConfigStore) Config {
	cfg := DefaultConfig()
	if v, ok := cs.Get("NUM_BUFFERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NumBuffers = n
		}
	}
	if v, ok := cs.Get("CHUNK_SIZE"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.ChunkSize = n
		}
	}
	if v, ok := cs.Get("MIN_BUFFER_SIZE"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MinBufferSize = n
		}
	}
	return cfg
}

func (c *Config) normalize() error {
	if c.NumBuffers == 0 {
		c.NumBuffers = 4
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 1
	}
	if c.MinBufferSize == 0 {
		c.MinBufferSize = 2 << 20
	}
	if c.NumBuffers < 2 || c.ChunkSize < 0 || c.MinBufferSize < 0 {
		return api.ErrInvalidArgument
	}
	if c.Entries < uint32(c.NumBuffers) {
		c.Entries = uint32(c.NumBuffers)
	}
	return nil
}
