// Package monitoring holds the swappable diagnostic loggers shared by the
// indexing packages and commands.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var debug atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug turns per-pattern debug logging on or off.
func SetDebug(on bool) { debug.Store(on) }

// DebugEnabled reports whether Debugf forwards to Logf.
func DebugEnabled() bool { return debug.Load() }

// Debugf logs through Logf with a "[debug] " prefix when debug logging is on.
func Debugf(format string, v ...interface{}) {
	if !debug.Load() {
		return
	}
	Logf("[debug] "+format, v...)
}
