package ai

import "sync/atomic"

// debugLoggingEnabled gates the per-tick debug logs of agents: intention
// changes, finished legs and scan summaries. It is the only debug gate of
// the module; the pathfinder itself logs at debug level only on request
// (Pathfinder.DebugNodes).
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging turns agent debug logging on or off.
// Called once from main after the log level is known.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled reports whether agent debug logging is on. Check it
// before building log attributes on the tick path:
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("leg finished", "agent", id, "cursor", cursor)
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
