// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with environment seeding and reload
// propagation.

package control

import (
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// ConfigStore is a dynamic key/value map with atomic snapshot and listener
// support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]string
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config: make(map[string]string),
	}
}

// SeedFromEnv loads optional dotenv files into the process environment and
// copies every variable carrying prefix into the store, with the prefix
// stripped. Missing dotenv files are not an error.
func (cs *ConfigStore) SeedFromEnv(prefix string, dotenvFiles ...string) {
	for _, f := range dotenvFiles {
		_ = godotenv.Load(f)
	}
	vals := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		vals[strings.TrimPrefix(k, prefix)] = v
	}
	cs.SetConfig(vals)
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]string, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// Get returns one value and whether it is set.
func (cs *ConfigStore) Get(key string) (string, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	v, ok := cs.config[key]
	return v, ok
}

// SetConfig merges new values and dispatches reload listeners.
func (cs *ConfigStore) SetConfig(newCfg map[string]string) {
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	listeners := append([]func(){}, cs.listeners...)
	cs.mu.Unlock()
	for _, fn := range listeners {
		go fn()
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
