package recovery

import (
	"time"

	"go.uber.org/zap"

	"github.com/lumispace/campusview/engine/device"
)

// ManagerBuilderOption is a functional option for configuring a Manager.
// Use the With* functions to create options.
type ManagerBuilderOption func(m *manager)

// WithLossCeiling overrides the number of context losses that escalates to a
// full reload.
//
// Parameters:
//   - ceiling: the loss count that triggers escalation
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithLossCeiling(ceiling int) ManagerBuilderOption {
	return func(m *manager) {
		if ceiling > 0 {
			m.lossCeiling = ceiling
		}
	}
}

// WithStabilizationDelay overrides the quiet period after a restore before
// asset loading resumes.
//
// Parameters:
//   - delay: the stabilization duration
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithStabilizationDelay(delay time.Duration) ManagerBuilderOption {
	return func(m *manager) {
		if delay > 0 {
			m.stabilizationDelay = delay
		}
	}
}

// WithPollInterval overrides the passive error poll period.
//
// Parameters:
//   - interval: the poll period
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithPollInterval(interval time.Duration) ManagerBuilderOption {
	return func(m *manager) {
		if interval > 0 {
			m.pollInterval = interval
		}
	}
}

// WithReload sets the host escalation hook invoked (after a short delay) once
// the loss ceiling is reached.
//
// Parameters:
//   - reload: the full-restart hook
//   - delay: how long after the fatal transition the hook fires
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithReload(reload func(), delay time.Duration) ManagerBuilderOption {
	return func(m *manager) {
		if reload != nil {
			m.reload = reload
		}
		if delay > 0 {
			m.reloadDelay = delay
		}
	}
}

// WithConservativeBudgets wires the persistent conservative mode: once the
// session has lost its context twice, apply receives a downgraded copy of the
// base flags and the session never returns to its full budgets.
//
// Parameters:
//   - base: the session's original capability flags
//   - apply: the sink that installs downgraded flags, e.g. Renderer.ApplyCapabilities
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithConservativeBudgets(base device.CapabilityFlags, apply func(device.CapabilityFlags) error) ManagerBuilderOption {
	return func(m *manager) {
		m.baseFlags = base
		m.applyConservative = apply
	}
}

// WithLogger sets the structured logger used by the manager.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) ManagerBuilderOption {
	return func(m *manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}
