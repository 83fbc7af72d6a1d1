// File: internal/debug/debug.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Contract-violation assertions. Compiled out unless the fiodebug build
// tag is set; misuse of queue capacity or token ownership is undefined
// behavior in release builds, per the pool and queue preconditions.

package debug

// Assert panics with msg when the fiodebug build tag is set and cond is
// false. A no-op otherwise.
func Assert(cond bool, msg string) {
	if Enabled && !cond {
		panic("contract violation: " + msg)
	}
}
