package device

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Tier is the coarse device/graphics classification every rendering budget is
// derived from. It is computed once per session and never changes afterwards.
type Tier int

const (
	// TierMobileLow is the hard floor for any device with a mobile signature.
	// Mobile never attempts a higher tier: higher budgets caused memory
	// exhaustion and context loss on mobile GPUs in the field.
	TierMobileLow Tier = iota

	// TierMobileHigh is a reserved intermediate tier. The profiler never
	// returns it, but the capability table defines budgets for it so an
	// operator override can opt a known-good tablet into it.
	TierMobileHigh

	// TierDesktopGL is a desktop device with a modern GL class context.
	TierDesktopGL

	// TierDesktopWebGPU is a desktop device with a WebGPU class backend.
	TierDesktopWebGPU
)

// String returns the canonical tier name used in logs and metrics labels.
func (t Tier) String() string {
	switch t {
	case TierMobileLow:
		return "mobile-low"
	case TierMobileHigh:
		return "mobile-high"
	case TierDesktopGL:
		return "desktop-webgl2"
	case TierDesktopWebGPU:
		return "desktop-webgpu"
	default:
		return "unknown"
	}
}

// IsMobile reports whether the tier is one of the mobile tiers.
//
// Returns:
//   - bool: true for TierMobileLow and TierMobileHigh
func (t Tier) IsMobile() bool {
	return t == TierMobileLow || t == TierMobileHigh
}

// Environment is the raw host/device descriptor the profiler classifies.
// It is gathered once by the host layer and treated as immutable.
type Environment struct {
	// UserAgent is the host's user-agent or platform descriptor string.
	UserAgent string
	// TouchCapable reports whether the primary pointer is a touch surface.
	TouchCapable bool
	// ViewportWidth and ViewportHeight are the initial drawing surface
	// dimensions in pixels.
	ViewportWidth, ViewportHeight int
	// DeviceMemoryGB is the host's reported memory hint in gigabytes.
	// Zero means the hint is unavailable.
	DeviceMemoryGB float64
}

// GraphicsProber probes the host for graphics backend availability. Probes may
// create and immediately discard a throwaway context; they must have no other
// side effects. A probe that panics is treated as "unsupported".
type GraphicsProber interface {
	// ProbeWebGPU reports whether a WebGPU class adapter can be acquired.
	//
	// Returns:
	//   - bool: true if a WebGPU backend is available
	ProbeWebGPU() bool

	// ProbeGL reports whether a modern GL class context can be created.
	//
	// Returns:
	//   - bool: true if a GL backend is available
	ProbeGL() bool
}

// profiler is the implementation of the Profiler interface.
type profiler struct {
	env    Environment
	prober GraphicsProber
	logger *zap.Logger

	once sync.Once
	tier Tier
}

// Profiler classifies the runtime device into a Tier exactly once per session.
// Repeated DetectTier calls return the cached classification, so the result is
// deterministic for a fixed Environment.
type Profiler interface {
	// DetectTier classifies the device. The first call performs the
	// classification (including any graphics probes); later calls return the
	// cached Tier. It never fails: probe errors fall through to the next
	// candidate and the worst case is TierMobileLow.
	//
	// Returns:
	//   - Tier: the device tier for this session
	DetectTier() Tier
}

var _ Profiler = &profiler{}

// NewProfiler creates a new Profiler for the given environment snapshot.
//
// Parameters:
//   - env: the host device descriptor to classify
//   - options: functional options for profiler configuration (prober, logging)
//
// Returns:
//   - Profiler: the newly created profiler
func NewProfiler(env Environment, options ...ProfilerBuilderOption) Profiler {
	p := &profiler{
		env:    env,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *profiler) DetectTier() Tier {
	p.once.Do(func() {
		p.tier = p.classify()
		p.logger.Info("device tier detected",
			zap.String("tier", p.tier.String()),
			zap.Int("viewport_width", p.env.ViewportWidth),
			zap.Int("viewport_height", p.env.ViewportHeight),
			zap.Bool("touch", p.env.TouchCapable),
		)
	})
	return p.tier
}

// classify runs the ordered classification rules. The mobile check is a hard
// floor: a mobile signature short-circuits before any backend probe runs.
func (p *profiler) classify() Tier {
	if p.isMobileSignature() {
		return TierMobileLow
	}
	if p.safeProbe(func() bool { return p.prober != nil && p.prober.ProbeWebGPU() }) {
		return TierDesktopWebGPU
	}
	if p.safeProbe(func() bool { return p.prober != nil && p.prober.ProbeGL() }) {
		return TierDesktopGL
	}
	// Graceful default: tier detection itself never fails.
	return TierDesktopGL
}

// mobileAgentMarkers are user-agent fragments identifying phone/tablet OS
// families. Matching is case-insensitive.
var mobileAgentMarkers = []string{
	"android", "iphone", "ipad", "ipod", "mobile", "webos", "blackberry", "windows phone",
}

const (
	// narrowViewportPx is the width below which a touch device is treated as
	// a phone/tablet regardless of its user agent.
	narrowViewportPx = 820

	// simulatorViewportPx flags an abnormally small surface that suggests a
	// device simulator rather than a real desktop window.
	simulatorViewportPx = 320

	// lowMemoryHintGB is the device-memory hint at or below which the device
	// is classified as mobile-class hardware.
	lowMemoryHintGB = 4.0
)

func (p *profiler) isMobileSignature() bool {
	agent := strings.ToLower(p.env.UserAgent)
	for _, marker := range mobileAgentMarkers {
		if strings.Contains(agent, marker) {
			return true
		}
	}
	if p.env.TouchCapable && p.env.ViewportWidth > 0 && p.env.ViewportWidth < narrowViewportPx {
		return true
	}
	if p.env.DeviceMemoryGB > 0 && p.env.DeviceMemoryGB <= lowMemoryHintGB {
		return true
	}
	if p.env.ViewportWidth > 0 && p.env.ViewportHeight > 0 &&
		(p.env.ViewportWidth < simulatorViewportPx || p.env.ViewportHeight < simulatorViewportPx) {
		return true
	}
	return false
}

// safeProbe runs a backend probe, converting a panic into "unsupported" so a
// misbehaving driver layer can never break tier detection.
func (p *profiler) safeProbe(probe func() bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("graphics probe panicked, treating as unsupported", zap.Any("panic", r))
			ok = false
		}
	}()
	return probe()
}
