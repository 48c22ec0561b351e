package renderer

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/lumispace/campusview/common"
	"github.com/lumispace/campusview/engine/device"
)

// ErrBackendUnavailable is returned when backend creation fails on both the
// rich and the reduced configuration. It is a fatal boot condition: the
// watchdog surfaces it as the terminal presentation state.
var ErrBackendUnavailable = errors.New("renderer: backend creation failed after reduced-config retry")

// BackendFactory creates a Backend from a creation configuration. The default
// factory builds the WebGPU backend; tests inject fakes.
type BackendFactory func(cfg BackendConfig) (Backend, error)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu sync.Mutex

	backend Backend
	logger  *zap.Logger

	flags       device.CapabilityFlags
	pixelRatio  float32
	presentMode PresentMode

	// layoutWidth and layoutHeight are the last host layout dimensions seen
	// by Resize, kept so a present-mode change can reconfigure the surface.
	layoutWidth, layoutHeight int

	// meshTriangles records triangle counts per registered mesh so frame
	// statistics can be accumulated without GPU readback.
	meshTriangles map[string]int

	inFrame   bool
	current   FrameStats
	lastFrame FrameStats

	onLost      func(error)
	pendingLost func(error)
	lostFailed  int
}

// Renderer owns the graphics backend for the viewer session: it applies
// per-tier capability budgets, guards resizing, tracks per-frame draw
// statistics for the performance governor, and converts surface acquisition
// failures into a context-lost notification.
type Renderer interface {
	// ApplyCapabilities configures the backend from a capability table:
	// antialiasing, shadow map size, pixel ratio clamp. Called once at boot
	// and again whenever the recovery manager swaps in a downgraded table.
	//
	// Parameters:
	//   - flags: the capability table to apply
	//
	// Returns:
	//   - error: error if shadow map reconfiguration fails
	ApplyCapabilities(flags device.CapabilityFlags) error

	// Resize recomputes the drawing buffer size from the host layout box.
	// Zero or negative dimensions are clamped to one pixel: a zero-sized
	// buffer is a known context-loss trigger.
	//
	// Parameters:
	//   - width: the layout width in pixels
	//   - height: the layout height in pixels
	Resize(width, height int)

	// SetPresentMode switches frame delivery and reconfigures the surface
	// so the change takes effect immediately.
	//
	// Parameters:
	//   - mode: the PresentMode to switch to
	SetPresentMode(mode PresentMode)

	// RegisterMesh uploads mesh buffers to the GPU under a stable id.
	//
	// Parameters:
	//   - meshID: the stable mesh identity
	//   - vertexData: raw vertex bytes
	//   - indexData: raw uint32 index bytes
	//   - indexCount: the number of indices
	//
	// Returns:
	//   - error: error if buffer creation fails
	RegisterMesh(meshID string, vertexData, indexData []byte, indexCount int) error

	// DisposeMesh releases the GPU buffers for a mesh. Unknown ids are
	// ignored, so defensive cleanup can dispose freely.
	//
	// Parameters:
	//   - meshID: the mesh to release
	DisposeMesh(meshID string)

	// BeginFrame starts a frame and resets the frame counters.
	//
	// Returns:
	//   - error: error if the surface could not be acquired
	BeginFrame() error

	// Draw encodes one instanced draw and accumulates frame statistics.
	//
	// Parameters:
	//   - meshID: the registered mesh to draw
	//   - instanceCount: the number of instances
	//   - uniforms: per-draw uniform bytes (view-projection + tint)
	//
	// Returns:
	//   - error: error if the mesh is unknown or no frame is open
	Draw(meshID string, instanceCount uint32, uniforms []byte) error

	// EndFrame ends the pass, submits, presents, and snapshots the frame
	// counters for Stats.
	EndFrame()

	// Stats returns the counters of the last completed frame.
	//
	// Returns:
	//   - FrameStats: the last frame's draw-call and triangle counts
	Stats() FrameStats

	// PollErrorFlag returns and clears the backend's sticky error flag,
	// used by the recovery manager's periodic passive health check.
	//
	// Returns:
	//   - error: the recorded backend error, or nil
	PollErrorFlag() error

	// SetContextLostCallback registers the function invoked when the
	// renderer concludes the graphics context is lost. The callback fires
	// at most once per loss episode; NotifyContextRestored rearms it.
	//
	// Parameters:
	//   - fn: the callback receiving the triggering error
	SetContextLostCallback(fn func(error))

	// NotifyContextRestored rearms loss detection after the recovery
	// manager has brought the context back.
	NotifyContextRestored()

	// Release disposes all GPU resources. The renderer is unusable
	// afterwards.
	Release()
}

var _ Renderer = &renderer{}

// consecutive surface acquisition failures before the renderer declares the
// context lost rather than a transient swapchain hiccup.
const lostFailureThreshold = 3

// NewRenderer creates a Renderer by attempting backend creation with the rich
// configuration derived from the capability table, then exactly once more
// with the reduced configuration. A second failure is fatal and surfaces as
// ErrBackendUnavailable. The retry is explicit and linear: open-ended retry
// loops on context creation risk infinite failure loops on genuinely
// unsupported hardware.
//
// Parameters:
//   - factory: the backend factory (WebGPU in production, fakes in tests)
//   - flags: the session capability table
//   - width, height: the initial drawing buffer size in pixels
//   - options: functional options for renderer configuration
//
// Returns:
//   - Renderer: the configured renderer
//   - error: ErrBackendUnavailable (wrapped) if both attempts fail
func NewRenderer(factory BackendFactory, flags device.CapabilityFlags, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		logger:        zap.NewNop(),
		meshTriangles: make(map[string]int),
		pixelRatio:    flags.PixelRatioMax,
	}
	for _, opt := range options {
		opt(r)
	}

	toneMapping := ToneMappingNone
	if flags.PostProcessingEnabled {
		toneMapping = ToneMappingACES
	}
	rich := BackendConfig{
		Width:                 max(width, 1),
		Height:                max(height, 1),
		Antialiasing:          flags.Antialiasing,
		PreserveDrawingBuffer: true,
		AlphaChannel:          true,
		PresentMode:           r.presentMode,
		ToneMapping:           toneMapping,
	}

	backend, err := factory(rich)
	if err != nil {
		r.logger.Warn("rich backend configuration failed, retrying reduced", zap.Error(err))
		backend, err = factory(rich.Reduced())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
	}
	r.backend = backend

	if err := r.ApplyCapabilities(flags); err != nil {
		backend.Release()
		return nil, err
	}
	r.Resize(width, height)
	return r, nil
}

func (r *renderer) ApplyCapabilities(flags device.CapabilityFlags) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flags = flags
	r.pixelRatio = common.Clamp(r.pixelRatio, 0.5, flags.PixelRatioMax)

	shadowSize := 0
	if flags.ShadowsEnabled {
		shadowSize = flags.ShadowMapSize
	}
	if err := r.backend.ConfigureShadowMap(shadowSize); err != nil {
		return fmt.Errorf("failed to configure shadow map: %w", err)
	}

	toneMapping := ToneMappingNone
	if flags.PostProcessingEnabled {
		toneMapping = ToneMappingACES
	}
	if err := r.backend.SetToneMapping(toneMapping); err != nil {
		return fmt.Errorf("failed to set tone mapping: %w", err)
	}

	r.logger.Info("capabilities applied",
		zap.Bool("shadows", flags.ShadowsEnabled),
		zap.Int("shadow_map_size", shadowSize),
		zap.Bool("antialiasing", flags.Antialiasing),
		zap.Bool("aces_tone_mapping", toneMapping == ToneMappingACES),
		zap.Float32("pixel_ratio_max", flags.PixelRatioMax),
	)
	return nil
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Clamp before scaling: a zero-sized drawing buffer is a known
	// context-loss trigger on some drivers.
	width = max(width, 1)
	height = max(height, 1)
	r.layoutWidth = width
	r.layoutHeight = height

	ratio := common.Clamp(r.pixelRatio, 0.5, r.flags.PixelRatioMax)
	bw := max(int(float32(width)*ratio), 1)
	bh := max(int(float32(height)*ratio), 1)
	r.backend.ConfigureSurface(bw, bh)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	r.presentMode = mode
	r.backend.SetPresentMode(mode)
	width, height := r.layoutWidth, r.layoutHeight
	r.mu.Unlock()
	r.Resize(width, height)
}

func (r *renderer) RegisterMesh(meshID string, vertexData, indexData []byte, indexCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.backend.InitMeshBuffers(meshID, vertexData, indexData, indexCount); err != nil {
		return fmt.Errorf("failed to register mesh %q: %w", meshID, err)
	}
	r.meshTriangles[meshID] = indexCount / 3
	return nil
}

func (r *renderer) DisposeMesh(meshID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.DisposeMesh(meshID)
	delete(r.meshTriangles, meshID)
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	if err := r.backend.BeginFrame(); err != nil {
		r.lostFailed++
		var cb func(error)
		if r.lostFailed >= lostFailureThreshold && r.onLost != nil {
			cb = r.onLost
			r.onLost = nil // rearmed by NotifyContextRestored
		}
		r.mu.Unlock()
		if cb != nil {
			cb(err)
		}
		return err
	}
	r.lostFailed = 0
	r.inFrame = true
	r.current = FrameStats{}
	r.mu.Unlock()
	return nil
}

func (r *renderer) Draw(meshID string, instanceCount uint32, uniforms []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return errors.New("draw outside of frame")
	}
	if err := r.backend.DrawMesh(meshID, instanceCount, uniforms); err != nil {
		return err
	}
	r.current.DrawCalls++
	r.current.Triangles += r.meshTriangles[meshID] * int(instanceCount)
	return nil
}

func (r *renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.inFrame {
		return
	}
	r.backend.EndFrame()
	r.backend.Present()
	r.lastFrame = r.current
	r.inFrame = false
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFrame
}

func (r *renderer) PollErrorFlag() error {
	return r.backend.PopError()
}

func (r *renderer) SetContextLostCallback(fn func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLost = fn
	r.pendingLost = fn
}

func (r *renderer) NotifyContextRestored() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lostFailed = 0
	r.onLost = r.pendingLost
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
	r.meshTriangles = make(map[string]int)
}
