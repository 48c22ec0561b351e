package scene

import (
	"go.uber.org/zap"

	"github.com/lumispace/campusview/engine/renderer/material"
)

// RegistryBuilderOption is a functional option for configuring a Registry.
// Use the With* functions to create options.
type RegistryBuilderOption func(r *registry)

// WithHighlights injects the shared highlight material set. When omitted the
// registry creates its own set; injecting one lets the render tick pulse the
// same filtered material the registry binds.
//
// Parameters:
//   - set: the shared highlight materials
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithHighlights(set *material.HighlightSet) RegistryBuilderOption {
	return func(r *registry) {
		r.highlights = set
	}
}

// WithFadeDuration overrides the highlight fade in/out duration.
//
// Parameters:
//   - seconds: the full fade duration in seconds
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithFadeDuration(seconds float32) RegistryBuilderOption {
	return func(r *registry) {
		if seconds > 0 {
			r.fadeDuration = seconds
		}
	}
}

// WithLogger sets the structured logger used by the registry.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) RegistryBuilderOption {
	return func(r *registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}
