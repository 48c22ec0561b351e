package loader

import (
	"time"

	"go.uber.org/zap"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFetcher sets the asset fetcher used to load and decode catalog assets.
//
// Parameters:
//   - fetcher: the AssetFetcher to use
//
// Returns:
//   - LoaderBuilderOption: a function that applies the fetcher option to a loader
func WithFetcher(fetcher AssetFetcher) LoaderBuilderOption {
	return func(l *loader) {
		l.fetcher = fetcher
	}
}

// WithLogger sets the structured logger used by the loader.
// Defaults to a no-op logger.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithModelSink sets the callback receiving every successfully loaded model.
// The scene registry registers models with the renderer from this sink.
//
// Parameters:
//   - sink: the callback invoked with each decoded model
//
// Returns:
//   - LoaderBuilderOption: a function that applies the sink option to a loader
func WithModelSink(sink func(*Model)) LoaderBuilderOption {
	return func(l *loader) {
		l.sink = sink
	}
}

// WithGatingCeilings overrides the mobile on-demand admission ceilings.
// The defaults (10 important, 5 optional) were tuned in the field; treat
// these as configuration, not load-bearing constants.
//
// Parameters:
//   - important: the loaded-count ceiling for important-bucket assets
//   - optional: the loaded-count ceiling for optional-bucket assets
//
// Returns:
//   - LoaderBuilderOption: a function that applies the ceilings option to a loader
func WithGatingCeilings(important, optional int) LoaderBuilderOption {
	return func(l *loader) {
		if important > 0 {
			l.importantCeiling = important
		}
		if optional > 0 {
			l.optionalCeiling = optional
		}
	}
}

// WithMemoryPressureMax overrides the used/limit heap ratio above which
// optional-bucket assets are refused. Defaults to 0.3.
//
// Parameters:
//   - ratio: the maximum heap usage ratio admitting optional loads
//
// Returns:
//   - LoaderBuilderOption: a function that applies the pressure option to a loader
func WithMemoryPressureMax(ratio float64) LoaderBuilderOption {
	return func(l *loader) {
		if ratio > 0 {
			l.memoryPressureMax = ratio
		}
	}
}

// WithMemoryProbe overrides the heap usage probe. Tests inject synthetic
// pressure readings through this.
//
// Parameters:
//   - probe: the MemoryProbe to use
//
// Returns:
//   - LoaderBuilderOption: a function that applies the probe option to a loader
func WithMemoryProbe(probe MemoryProbe) LoaderBuilderOption {
	return func(l *loader) {
		if probe != nil {
			l.memProbe = probe
		}
	}
}

// WithStepYield overrides the pause between sequential environment loads.
// Defaults to 10ms, enough for a frame to render between steps.
//
// Parameters:
//   - d: the yield duration
//
// Returns:
//   - LoaderBuilderOption: a function that applies the yield option to a loader
func WithStepYield(d time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		if d >= 0 {
			l.stepYield = d
		}
	}
}

// WithWorkers sets the worker pool size for on-demand unit loads.
// Defaults to 2.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - LoaderBuilderOption: a function that applies the workers option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}
