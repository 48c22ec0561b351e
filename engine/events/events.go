package events

// LoadingProgress reports progressive-loader advancement to the progress UI.
type LoadingProgress struct {
	// Phase names the loading phase, e.g. "environment" or "units".
	Phase string
	// LoadedCount is the number of catalog assets resolved so far
	// (successes and failures both count as resolved).
	LoadedCount int
	// TotalCount is the catalog size for the phase.
	TotalCount int
}

// DegradeKind distinguishes the two advisory quality signals.
type DegradeKind int

const (
	// DegradeDropLevel asks the quality policy to drop one quality level
	// because draw-call or triangle budgets were exceeded.
	DegradeDropLevel DegradeKind = iota

	// DegradeLowFPS reports a sustained low rolling-average frame rate.
	DegradeLowFPS
)

// String returns the signal kind label used in logs and metrics.
func (k DegradeKind) String() string {
	if k == DegradeLowFPS {
		return "lowFps"
	}
	return "dropLevel"
}

// Degrade is the advisory quality signal emitted by the performance governor.
// The governor never changes budgets itself; a quality-settings collaborator
// decides whether and how to act.
type Degrade struct {
	Kind DegradeKind
	// FPS is the rolling average frame rate at emission time (0 for
	// budget-breach signals emitted before enough samples exist).
	FPS float64
	// DrawCalls and Triangles are the renderer counters sampled in the
	// window that triggered the signal.
	DrawCalls int
	Triangles int
}

// ContextState is the graphics context health reported to the error
// presentation layer.
type ContextState int

const (
	// ContextLost means the GPU context was lost and recovery is underway.
	ContextLost ContextState = iota

	// ContextRestored means the context came back and loading may resume
	// after the stabilization delay.
	ContextRestored

	// ContextFatal means the loss ceiling was reached; only a full reload
	// can recover the session.
	ContextFatal
)

// String returns the state label used in logs.
func (s ContextState) String() string {
	switch s {
	case ContextLost:
		return "lost"
	case ContextRestored:
		return "restored"
	default:
		return "fatal"
	}
}

// ContextHealth is emitted by the recovery manager on every context health
// transition.
type ContextHealth struct {
	State ContextState
	// LossCount is the number of context losses seen this session.
	LossCount int
}
