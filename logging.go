// logging.go - Structured Logging Interface for the fiberio runtime.
//
// Package-level configuration for structured logging, built on the
// logiface facade with the stumpy JSON event backend. This design
// allows external integration with other logiface-compatible sinks
// (zerolog, logrus, slog) while giving the runtime a ready-to-use
// default.
//
// Design Decision: a package-level default logger is used because the
// runtime's fatal resolver assertion (spec.md §7) and the atomic cell's
// platform-unsupported sentinel path can both fire before any [Runtime]
// exists to own a logger instance.

package fiberio

import (
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logging interface used throughout the
// runtime. It is satisfied by *logiface.Logger[*stumpy.Event], the
// default produced by [NewDefaultLogger], as well as any other
// logiface.Logger instantiated against the stumpy event type.
type Logger = *logiface.Logger[*stumpy.Event]

var (
	// globalLogger is the package-level fallback, used by call sites
	// that run before a Runtime-scoped logger is available.
	globalLogger struct {
		sync.RWMutex
		logger Logger
	}

	// resolverFailed latches once Poll's passthrough resolver fails, so
	// the fatal record is only logged/asserted a single time.
	resolverFailed atomic.Bool
)

func init() {
	globalLogger.logger = NewNoOpLogger()
}

// SetStructuredLogger sets the global fallback structured logger.
func SetStructuredLogger(logger Logger) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	if logger == nil {
		logger = NewNoOpLogger()
	}
	globalLogger.logger = logger
}

// getGlobalLogger safely retrieves the global fallback logger.
func getGlobalLogger() Logger {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}

// NewDefaultLogger creates a Logger writing newline-delimited JSON to
// os.Stderr via stumpy, at the given minimum logiface.Level.
func NewDefaultLogger(level logiface.Level) Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(),
		stumpy.L.WithLevel(level),
	)
}

// NewNoOpLogger returns a Logger with logging disabled entirely. It is
// the default used when no logger is configured via [WithLogger].
func NewNoOpLogger() Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(),
		stumpy.L.WithLevel(logiface.LevelDisabled),
	)
}

// logCancellation emits the informational record required by spec.md
// §4.5 when a fiber is observed killed while suspended in Poll.
func logCancellation(logger Logger, fiberID uint64) {
	if logger == nil {
		logger = getGlobalLogger()
	}
	logger.Info().
		Uint64(`fiber`, fiberID).
		Log(`fiber killed while polling, returning -1`)
}

// logAtomicUnsupported emits the non-fatal record required by spec.md
// §4.1 / §7 when an Atomic Cell operation is attempted on a platform
// lacking the underlying primitive.
func logAtomicUnsupported(op string) {
	getGlobalLogger().Err().
		Str(`op`, op).
		Log(`atomic cell operation not supported on this platform`)
}

// logResolveFailure emits the fatal assertion record required by
// spec.md §7 when the passthrough kernel poll(2) entry point cannot be
// resolved. The runtime cannot function afterward; callers of [Poll]
// still observe this via a panic, this record exists for diagnosis.
func logResolveFailure(err error) {
	if resolverFailed.CompareAndSwap(false, true) {
		getGlobalLogger().Fatal().
			Err(err).
			Log(`failed to resolve underlying poll syscall`)
	}
}
