// Package monitoring carries the library's diagnostic logging hook.
// rangekit is an embedded library, so it never configures the process
// logger itself; hosts that want the diagnostics routed elsewhere (or
// silenced) replace the hook at startup.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced via SetLogger. Tests and embedding hosts can redirect or
// mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that prepends prefix to every message before
// forwarding to the current Logf. Subsystems use it to tag their output
// without owning a logger of their own.
func Prefixed(prefix string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf(prefix+": "+format, v...)
	}
}
