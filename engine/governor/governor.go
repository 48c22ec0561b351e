package governor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/lumispace/campusview/engine/device"
	"github.com/lumispace/campusview/engine/events"
	"github.com/lumispace/campusview/engine/renderer"
)

// Budget ceilings for mobile rendering. Exceeding either scene-complexity
// ceiling, or holding a low average frame rate, produces an advisory degrade
// signal; the governor itself never changes capability flags.
const (
	DefaultDrawCallCeiling = 250
	DefaultTriangleCeiling = 500_000
	DefaultLowFPSThreshold = 50.0

	windowMillis  = 1000.0
	historySize   = 10
	minFPSSamples = 5
)

// StatsSource supplies the renderer counters the governor samples once per
// window.
type StatsSource interface {
	// Stats returns the most recently completed frame's draw counters.
	Stats() renderer.FrameStats
}

// Governor samples frame rate and renderer complexity counters in one-second
// windows and emits advisory degrade signals when mobile budgets are
// exceeded. On desktop tiers it is inert: desktop budgets are generous
// enough that live governance is not needed.
type Governor interface {
	// Update advances the governor by one rendered frame. Call once per
	// frame from the render tick.
	//
	// Parameters:
	//   - deltaMillis: elapsed time since the previous frame in milliseconds
	Update(deltaMillis float64)

	// Signals returns the bus carrying emitted degrade signals.
	//
	// Returns:
	//   - *events.Bus[events.Degrade]: the degrade signal bus
	Signals() *events.Bus[events.Degrade]

	// AverageFPS reports the rolling average frame rate over the sample
	// history.
	//
	// Returns:
	//   - float64: the average FPS across collected samples
	//   - bool: false until at least one window has completed
	AverageFPS() (float64, bool)
}

type governor struct {
	mu sync.Mutex

	tier  device.Tier
	stats StatsSource

	frames  int
	elapsed float64
	history []float64

	drawCallCeiling int
	triangleCeiling int
	lowFPSThreshold float64

	signals *events.Bus[events.Degrade]
	logger  *zap.Logger
	metrics *governorMetrics
}

var _ Governor = &governor{}

type governorMetrics struct {
	fps            prometheus.Gauge
	drawCalls      prometheus.Gauge
	triangles      prometheus.Gauge
	degradeSignals *prometheus.CounterVec
}

func newGovernorMetrics(reg prometheus.Registerer) *governorMetrics {
	factory := promauto.With(reg)
	return &governorMetrics{
		fps: factory.NewGauge(prometheus.GaugeOpts{
			Name: "campusview_governor_fps",
			Help: "Frame rate of the most recent one-second sampling window.",
		}),
		drawCalls: factory.NewGauge(prometheus.GaugeOpts{
			Name: "campusview_governor_draw_calls",
			Help: "Draw calls in the frame sampled at the last window boundary.",
		}),
		triangles: factory.NewGauge(prometheus.GaugeOpts{
			Name: "campusview_governor_triangles",
			Help: "Triangles in the frame sampled at the last window boundary.",
		}),
		degradeSignals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campusview_governor_degrade_signals_total",
			Help: "Advisory degrade signals emitted, by kind.",
		}, []string{"kind"}),
	}
}

// NewGovernor creates a performance Governor for the given tier, sampling the
// provided renderer counters.
//
// Parameters:
//   - tier: the session's device tier; desktop tiers make the governor inert
//   - stats: the renderer counter source sampled each window
//   - options: functional options to further configure the governor
//
// Returns:
//   - Governor: the newly created governor
func NewGovernor(tier device.Tier, stats StatsSource, options ...GovernorBuilderOption) Governor {
	g := &governor{
		tier:            tier,
		stats:           stats,
		history:         make([]float64, 0, historySize),
		drawCallCeiling: DefaultDrawCallCeiling,
		triangleCeiling: DefaultTriangleCeiling,
		lowFPSThreshold: DefaultLowFPSThreshold,
		signals:         events.NewBus[events.Degrade](),
		logger:          zap.NewNop(),
	}
	for _, option := range options {
		option(g)
	}
	if g.metrics == nil {
		g.metrics = newGovernorMetrics(prometheus.NewRegistry())
	}
	return g
}

func (g *governor) Update(deltaMillis float64) {
	if !g.tier.IsMobile() {
		return
	}

	g.mu.Lock()
	g.frames++
	g.elapsed += deltaMillis
	if g.elapsed < windowMillis {
		g.mu.Unlock()
		return
	}

	fps := float64(g.frames) * 1000 / g.elapsed
	g.history = append(g.history, fps)
	if len(g.history) > historySize {
		g.history = g.history[1:]
	}
	g.frames = 0
	g.elapsed = 0

	frame := g.stats.Stats()
	avg, haveAvg := g.averageLocked()
	g.mu.Unlock()

	g.metrics.fps.Set(fps)
	g.metrics.drawCalls.Set(float64(frame.DrawCalls))
	g.metrics.triangles.Set(float64(frame.Triangles))

	if frame.DrawCalls > g.drawCallCeiling || frame.Triangles > g.triangleCeiling {
		g.emit(events.Degrade{
			Kind:      events.DegradeDropLevel,
			FPS:       fps,
			DrawCalls: frame.DrawCalls,
			Triangles: frame.Triangles,
		})
	}
	if haveAvg && avg < g.lowFPSThreshold {
		g.emit(events.Degrade{
			Kind:      events.DegradeLowFPS,
			FPS:       avg,
			DrawCalls: frame.DrawCalls,
			Triangles: frame.Triangles,
		})
	}
}

func (g *governor) emit(signal events.Degrade) {
	g.metrics.degradeSignals.WithLabelValues(signal.Kind.String()).Inc()
	g.logger.Warn("render budget exceeded",
		zap.String("kind", signal.Kind.String()),
		zap.Float64("fps", signal.FPS),
		zap.Int("drawCalls", signal.DrawCalls),
		zap.Int("triangles", signal.Triangles),
	)
	g.signals.Publish(signal)
}

func (g *governor) Signals() *events.Bus[events.Degrade] {
	return g.signals
}

func (g *governor) AverageFPS() (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.history) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range g.history {
		sum += v
	}
	return sum / float64(len(g.history)), true
}

// averageLocked reports the rolling average once enough samples exist for it
// to be meaningful. Caller must hold g.mu.
func (g *governor) averageLocked() (float64, bool) {
	if len(g.history) < minFPSSamples {
		return 0, false
	}
	sum := 0.0
	for _, v := range g.history {
		sum += v
	}
	return sum / float64(len(g.history)), true
}
