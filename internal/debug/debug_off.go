//go:build !fiodebug

// File: internal/debug/debug_off.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package debug

// Enabled reports whether contract assertions are compiled in.
const Enabled = false
