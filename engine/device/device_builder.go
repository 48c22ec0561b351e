package device

import "go.uber.org/zap"

// ProfilerBuilderOption is a functional option applied to a profiler during construction via NewProfiler.
type ProfilerBuilderOption func(*profiler)

// WithProber sets the graphics prober used for the desktop backend probes.
// Without a prober every backend probe reports unsupported, so a desktop
// environment classifies as TierDesktopGL via the graceful default.
//
// Parameters:
//   - prober: the GraphicsProber to probe backends with
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the prober option to a profiler
func WithProber(prober GraphicsProber) ProfilerBuilderOption {
	return func(p *profiler) {
		p.prober = prober
	}
}

// WithLogger sets the structured logger used by the profiler.
// Defaults to a no-op logger.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the logger option to a profiler
func WithLogger(logger *zap.Logger) ProfilerBuilderOption {
	return func(p *profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}
