package governor

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// GovernorBuilderOption is a functional option for configuring a Governor.
// Use the With* functions to create options.
type GovernorBuilderOption func(g *governor)

// WithCeilings overrides the draw-call and triangle budget ceilings.
//
// Parameters:
//   - drawCalls: the draw-call ceiling per frame
//   - triangles: the triangle ceiling per frame
//
// Returns:
//   - GovernorBuilderOption: option function to apply
func WithCeilings(drawCalls, triangles int) GovernorBuilderOption {
	return func(g *governor) {
		if drawCalls > 0 {
			g.drawCallCeiling = drawCalls
		}
		if triangles > 0 {
			g.triangleCeiling = triangles
		}
	}
}

// WithLowFPSThreshold overrides the rolling-average FPS floor below which a
// low-FPS signal is emitted.
//
// Parameters:
//   - fps: the minimum acceptable rolling-average frame rate
//
// Returns:
//   - GovernorBuilderOption: option function to apply
func WithLowFPSThreshold(fps float64) GovernorBuilderOption {
	return func(g *governor) {
		if fps > 0 {
			g.lowFPSThreshold = fps
		}
	}
}

// WithRegisterer sets the Prometheus registerer the governor's metrics are
// registered with. Defaults to a private registry so constructing a governor
// never collides with process-global metric names.
//
// Parameters:
//   - reg: the Prometheus registerer to use
//
// Returns:
//   - GovernorBuilderOption: option function to apply
func WithRegisterer(reg prometheus.Registerer) GovernorBuilderOption {
	return func(g *governor) {
		if reg != nil {
			g.metrics = newGovernorMetrics(reg)
		}
	}
}

// WithLogger sets the structured logger used by the governor.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - GovernorBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) GovernorBuilderOption {
	return func(g *governor) {
		if logger != nil {
			g.logger = logger
		}
	}
}
