package recovery

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lumispace/campusview/engine/device"
	"github.com/lumispace/campusview/engine/events"
)

// Recovery timing defaults.
const (
	DefaultLossCeiling        = 3
	DefaultStabilizationDelay = 2 * time.Second
	DefaultPollInterval       = 5 * time.Second
	DefaultReloadDelay        = 500 * time.Millisecond

	conservativeLossCount = 2
)

// Phase is the context health state machine position.
type Phase int

const (
	PhaseHealthy Phase = iota
	PhaseLost
	PhaseRecovering
	PhaseFatal
)

// String returns the phase label used in logs.
//
// Returns:
//   - string: the phase name
func (p Phase) String() string {
	switch p {
	case PhaseLost:
		return "lost"
	case PhaseRecovering:
		return "recovering"
	case PhaseFatal:
		return "fatal"
	default:
		return "healthy"
	}
}

// GraphicsTarget is the slice of the renderer the recovery manager drives.
type GraphicsTarget interface {
	// DisposeMesh releases one mesh's GPU buffers.
	DisposeMesh(meshID string)
	// PollErrorFlag returns and clears the renderer's sticky error.
	PollErrorFlag() error
	// NotifyContextRestored rearms the renderer's context-lost detection.
	NotifyContextRestored()
}

// AssetLoader is the slice of the progressive loader the recovery manager drives.
type AssetLoader interface {
	// UnloadOptional removes optional assets from the loaded set and
	// returns their ids.
	UnloadOptional() []string
	// Suspend pauses new asset admission.
	Suspend()
	// Resume lifts a Suspend.
	Resume()
}

// SceneRegistry is the slice of the scene registry the recovery manager drives.
type SceneRegistry interface {
	// Clear removes all entries, returning their mesh handles.
	Clear() []string
}

// Manager coordinates graphics context loss recovery: defensive cleanup on
// loss, stabilization before loading resumes, a loss-count ceiling that
// escalates to a full reload, a persistent conservative mode after repeated
// losses, and a periodic passive error poll between loss events.
type Manager interface {
	// OnContextLost handles a context-lost signal: suspend loading, clean
	// up GPU-resident scene resources, shrink the working set, and count
	// the loss. Reaching the loss ceiling schedules a full reload.
	OnContextLost()

	// OnContextRestored handles a context-restored signal. Loading resumes
	// only after the stabilization delay elapses without a new loss; a new
	// loss during the delay always wins and restarts it.
	OnContextRestored()

	// Phase returns the current health state.
	//
	// Returns:
	//   - Phase: the state machine position
	Phase() Phase

	// LossCount returns the number of context losses seen this session.
	//
	// Returns:
	//   - int: the session loss count
	LossCount() int

	// ConservativeMode reports whether the session has been pinned to
	// reduced budgets after repeated losses. Once entered it persists for
	// the rest of the session.
	//
	// Returns:
	//   - bool: true once the session runs conservatively
	ConservativeMode() bool

	// Health returns the bus carrying context health transitions.
	//
	// Returns:
	//   - *events.Bus[events.ContextHealth]: the health event bus
	Health() *events.Bus[events.ContextHealth]

	// Start launches the periodic passive error poll.
	Start()

	// Stop halts the poll loop and cancels any pending timers. Idempotent.
	Stop()
}

type manager struct {
	mu sync.Mutex

	graphics GraphicsTarget
	assets   AssetLoader
	scene    SceneRegistry

	phase        Phase
	lossCount    int
	conservative bool

	lossCeiling        int
	stabilizationDelay time.Duration
	pollInterval       time.Duration
	reloadDelay        time.Duration

	stabilizeTimer *time.Timer
	reloadTimer    *time.Timer

	// reload is the host escalation hook, e.g. a full page/session restart.
	reload func()
	// applyConservative installs reduced budgets for the rest of the session.
	applyConservative func(device.CapabilityFlags) error
	baseFlags         device.CapabilityFlags

	health *events.Bus[events.ContextHealth]
	logger *zap.Logger

	quitChannel chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
	started     bool
}

var _ Manager = &manager{}

// NewManager creates a context recovery Manager for the given collaborators.
//
// Parameters:
//   - graphics: the renderer slice used for disposal and error polling
//   - assets: the progressive loader slice used for suspension and unload
//   - scene: the scene registry slice used for defensive cleanup
//   - options: functional options to further configure the manager
//
// Returns:
//   - Manager: the newly created manager
func NewManager(graphics GraphicsTarget, assets AssetLoader, scene SceneRegistry, options ...ManagerBuilderOption) Manager {
	m := &manager{
		graphics:           graphics,
		assets:             assets,
		scene:              scene,
		phase:              PhaseHealthy,
		lossCeiling:        DefaultLossCeiling,
		stabilizationDelay: DefaultStabilizationDelay,
		pollInterval:       DefaultPollInterval,
		reloadDelay:        DefaultReloadDelay,
		reload:             func() {},
		health:             events.NewBus[events.ContextHealth](),
		logger:             zap.NewNop(),
		quitChannel:        make(chan struct{}),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *manager) OnContextLost() {
	m.mu.Lock()
	if m.phase == PhaseFatal {
		m.mu.Unlock()
		return
	}
	m.lossCount++
	m.phase = PhaseLost
	lossCount := m.lossCount

	// A loss during stabilization wins over the pending resume.
	if m.stabilizeTimer != nil {
		m.stabilizeTimer.Stop()
		m.stabilizeTimer = nil
	}

	m.assets.Suspend()
	m.defensiveCleanupLocked()

	fatal := lossCount >= m.lossCeiling
	if fatal {
		m.phase = PhaseFatal
		m.reloadTimer = time.AfterFunc(m.reloadDelay, m.reload)
	}
	m.mu.Unlock()

	m.logger.Warn("graphics context lost", zap.Int("lossCount", lossCount))
	m.health.Publish(events.ContextHealth{State: events.ContextLost, LossCount: lossCount})
	if fatal {
		m.logger.Error("context loss ceiling reached, scheduling reload",
			zap.Int("lossCount", lossCount),
		)
		m.health.Publish(events.ContextHealth{State: events.ContextFatal, LossCount: lossCount})
	}
}

func (m *manager) OnContextRestored() {
	m.mu.Lock()
	if m.phase == PhaseFatal {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseRecovering
	lossCount := m.lossCount

	enterConservative := lossCount >= conservativeLossCount && !m.conservative
	if enterConservative {
		m.conservative = true
	}

	m.graphics.NotifyContextRestored()

	if m.stabilizeTimer != nil {
		m.stabilizeTimer.Stop()
	}
	m.stabilizeTimer = time.AfterFunc(m.stabilizationDelay, m.stabilize)
	m.mu.Unlock()

	m.logger.Info("graphics context restored", zap.Int("lossCount", lossCount))
	if enterConservative && m.applyConservative != nil {
		if err := m.applyConservative(m.baseFlags.Conservative()); err != nil {
			m.logger.Error("failed to apply conservative budgets", zap.Error(err))
		}
	}
	m.health.Publish(events.ContextHealth{State: events.ContextRestored, LossCount: lossCount})
}

// stabilize runs once the stabilization delay elapses without a new loss.
func (m *manager) stabilize() {
	m.mu.Lock()
	if m.phase != PhaseRecovering {
		m.mu.Unlock()
		return
	}
	m.phase = PhaseHealthy
	m.stabilizeTimer = nil
	m.mu.Unlock()

	m.assets.Resume()
	m.logger.Info("context stabilized, loading resumed")
}

// defensiveCleanupLocked disposes every GPU-resident scene resource and
// shrinks the loaded working set. Meshes are disposed only after their
// registry entries are removed, so no live entry ever references a disposed
// resource. Caller must hold m.mu.
func (m *manager) defensiveCleanupLocked() {
	for _, id := range m.scene.Clear() {
		m.graphics.DisposeMesh(id)
	}
	m.assets.UnloadOptional()
}

// softCleanup is the response to a passively detected renderer error: the
// same defensive cleanup a full loss performs, minus the loss counter.
func (m *manager) softCleanup(pollErr error) {
	m.logger.Warn("renderer error detected by passive poll", zap.Error(pollErr))

	m.mu.Lock()
	m.defensiveCleanupLocked()
	m.mu.Unlock()
}

func (m *manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *manager) LossCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lossCount
}

func (m *manager) ConservativeMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conservative
}

func (m *manager) Health() *events.Bus[events.ContextHealth] {
	return m.health
}

func (m *manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.pollLoop()
}

func (m *manager) pollLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.quitChannel:
			return
		case <-ticker.C:
			if m.Phase() != PhaseHealthy {
				continue
			}
			if err := m.graphics.PollErrorFlag(); err != nil {
				m.softCleanup(err)
			}
		}
	}
}

func (m *manager) Stop() {
	m.closeOnce.Do(func() {
		close(m.quitChannel)
	})
	m.wg.Wait()

	m.mu.Lock()
	if m.stabilizeTimer != nil {
		m.stabilizeTimer.Stop()
		m.stabilizeTimer = nil
	}
	if m.reloadTimer != nil {
		m.reloadTimer.Stop()
		m.reloadTimer = nil
	}
	m.mu.Unlock()
}
