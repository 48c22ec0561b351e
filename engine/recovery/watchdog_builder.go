package recovery

import (
	"time"

	"go.uber.org/zap"
)

// WatchdogBuilderOption is a functional option for configuring a Watchdog.
// Use the With* functions to create options.
type WatchdogBuilderOption func(w *watchdog)

// WithBootDeadline overrides the mount deadline.
//
// Parameters:
//   - deadline: how long the renderer has to mount
//
// Returns:
//   - WatchdogBuilderOption: option function to apply
func WithBootDeadline(deadline time.Duration) WatchdogBuilderOption {
	return func(w *watchdog) {
		if deadline > 0 {
			w.deadline = deadline
		}
	}
}

// WithOnFatal sets the hook invoked when the deadline expires, used to drive
// the terminal error presentation.
//
// Parameters:
//   - fn: the fatal transition hook
//
// Returns:
//   - WatchdogBuilderOption: option function to apply
func WithOnFatal(fn func()) WatchdogBuilderOption {
	return func(w *watchdog) {
		if fn != nil {
			w.onFatal = fn
		}
	}
}

// WithWatchdogLogger sets the structured logger used by the watchdog.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - WatchdogBuilderOption: option function to apply
func WithWatchdogLogger(logger *zap.Logger) WatchdogBuilderOption {
	return func(w *watchdog) {
		if logger != nil {
			w.logger = logger
		}
	}
}
