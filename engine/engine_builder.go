package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/lumispace/campusview/engine/catalog"
	"github.com/lumispace/campusview/engine/device"
	"github.com/lumispace/campusview/engine/renderer"
	"github.com/lumispace/campusview/engine/window"
)

// ViewerBuilderOption is a functional option for configuring a Viewer.
// Use the With* functions to create options that are applied directly to the viewer instance.
type ViewerBuilderOption func(*viewer)

// WithWindow sets a pre-configured window for the viewer to use.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithWindow(w window.Window) ViewerBuilderOption {
	return func(v *viewer) {
		v.window = w
	}
}

// WithCatalog sets the asset catalog the viewer loads from.
//
// Parameters:
//   - cat: the closed-world asset catalog
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithCatalog(cat *catalog.Catalog) ViewerBuilderOption {
	return func(v *viewer) {
		v.catalog = cat
	}
}

// WithAssetRoot sets the directory model files are read from.
//
// Parameters:
//   - root: the asset directory root
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithAssetRoot(root string) ViewerBuilderOption {
	return func(v *viewer) {
		v.assetRoot = root
	}
}

// WithEnvironment sets the host device descriptor consumed by tier detection.
//
// Parameters:
//   - env: the device environment snapshot
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithEnvironment(env device.Environment) ViewerBuilderOption {
	return func(v *viewer) {
		v.environment = env
	}
}

// WithProber sets the graphics prober used during tier detection.
//
// Parameters:
//   - prober: the backend capability prober
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithProber(prober device.GraphicsProber) ViewerBuilderOption {
	return func(v *viewer) {
		v.prober = prober
	}
}

// WithBackendFactory overrides the renderer backend factory, used to run the
// viewer against a fake backend in tests.
//
// Parameters:
//   - factory: the backend factory to boot the renderer with
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithBackendFactory(factory renderer.BackendFactory) ViewerBuilderOption {
	return func(v *viewer) {
		v.backend = factory
	}
}

// WithTickRate sets the viewer tick rate in ticks per second.
// Values <= 0 are treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithTickRate(fps float64) ViewerBuilderOption {
	return func(v *viewer) {
		if fps <= 0 {
			fps = 60.0
		}
		v.tickRate = time.Second / time.Duration(fps)
	}
}

// WithBootDeadline overrides the watchdog's renderer mount deadline.
//
// Parameters:
//   - deadline: how long boot may take before the session is declared fatal
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithBootDeadline(deadline time.Duration) ViewerBuilderOption {
	return func(v *viewer) {
		if deadline > 0 {
			v.bootDeadline = deadline
		}
	}
}

// WithLogger sets the structured logger used across the viewer's components.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - ViewerBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) ViewerBuilderOption {
	return func(v *viewer) {
		if logger != nil {
			v.logger = logger
		}
	}
}
