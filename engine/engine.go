package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lumispace/campusview/common"
	"github.com/lumispace/campusview/engine/catalog"
	"github.com/lumispace/campusview/engine/device"
	"github.com/lumispace/campusview/engine/governor"
	"github.com/lumispace/campusview/engine/loader"
	"github.com/lumispace/campusview/engine/recovery"
	"github.com/lumispace/campusview/engine/renderer"
	"github.com/lumispace/campusview/engine/renderer/material"
	"github.com/lumispace/campusview/engine/scene"
	"github.com/lumispace/campusview/engine/window"
)

// viewer implements the Viewer interface.
// Coordinates boot, tick, render, and window threads.
type viewer struct {
	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window window.Window

	environment device.Environment
	prober      device.GraphicsProber
	tier        device.Tier
	flags       device.CapabilityFlags

	catalog      *catalog.Catalog
	assetRoot    string
	rendererInst renderer.Renderer
	backend      renderer.BackendFactory
	loaderInst   loader.Loader
	registry     scene.Registry
	highlights   *material.HighlightSet
	governorInst governor.Governor
	recoveryMgr  recovery.Manager
	watchdogInst recovery.Watchdog

	bootDeadline time.Duration
	tickRate     time.Duration

	tickMu       sync.Mutex
	tickCallback func(deltaTime float32)

	// paused mirrors window visibility; the render loop idles while set.
	paused atomic.Bool
	fatal  atomic.Bool

	// viewProj is the camera matrix supplied by the external camera
	// collaborator; identity until set.
	viewProjMu sync.RWMutex
	viewProj   [16]float32

	// envMeshes are environment meshes registered so far, drawn in arrival
	// order so the campus reveals progressively.
	envMu     sync.Mutex
	envMeshes []string

	envMaterial material.Material

	// elapsed drives the shared filtered-highlight pulse clock. Owned by the
	// render goroutine.
	elapsed float32

	loadCancel context.CancelFunc

	logger *zap.Logger
}

// Viewer is the main entry point for the campus viewer runtime.
// It boots the tiered rendering pipeline and orchestrates the tick loop,
// render loop, progressive loading, performance governance, and context
// recovery.
type Viewer interface {
	// Boot detects the device tier, derives capability flags, and creates
	// the renderer under the boot watchdog. Must be called before Run.
	//
	// Returns:
	//   - error: error if renderer creation fails after the reduced-config retry
	Boot() error

	// Run starts the tick, render, and recovery loops and blocks in the
	// window message loop until the window closes.
	Run()

	// Quit signals all viewer goroutines to stop and shuts the viewer down.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Tier returns the detected device tier.
	//
	// Returns:
	//   - device.Tier: the session tier
	Tier() device.Tier

	// Flags returns the session's derived capability flags.
	//
	// Returns:
	//   - device.CapabilityFlags: the derived budgets
	Flags() device.CapabilityFlags

	// Renderer returns the booted renderer, or nil before Boot.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// Loader returns the progressive asset loader.
	//
	// Returns:
	//   - loader.Loader: the loader instance
	Loader() loader.Loader

	// Registry returns the scene asset registry.
	//
	// Returns:
	//   - scene.Registry: the registry instance
	Registry() scene.Registry

	// Governor returns the performance governor.
	//
	// Returns:
	//   - governor.Governor: the governor instance
	Governor() governor.Governor

	// Recovery returns the context recovery manager.
	//
	// Returns:
	//   - recovery.Manager: the recovery manager instance
	Recovery() recovery.Manager

	// SetSelection pushes the latest externally-owned selection, hover, and
	// filter state into the scene registry.
	//
	// Parameters:
	//   - sel: the selection state read on the next registry tick
	SetSelection(sel common.SelectionState)

	// SetViewProjection sets the camera view-projection matrix used for
	// subsequent frames.
	//
	// Parameters:
	//   - matrix: the column-major 4x4 view-projection matrix
	SetViewProjection(matrix [16]float32)

	// SetTickCallback registers the function called each viewer tick, for
	// camera movement and other per-tick host logic.
	//
	// Parameters:
	//   - callback: function to call at the tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// Fatal reports whether the session reached a terminal failure state
	// (boot watchdog expiry or the context loss ceiling).
	//
	// Returns:
	//   - bool: true if only a full restart can recover the session
	Fatal() bool
}

var _ Viewer = &viewer{}

// identityMatrix is the column-major 4x4 identity.
var identityMatrix = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// NewViewer creates a new Viewer instance with the provided options.
// The window and catalog are required; everything else has defaults.
//
// Parameters:
//   - options: functional options for viewer configuration
//
// Returns:
//   - Viewer: the newly created viewer
func NewViewer(options ...ViewerBuilderOption) Viewer {
	v := &viewer{
		quitChannel:  make(chan struct{}),
		bootDeadline: recovery.DefaultBootDeadline,
		tickRate:     time.Second / 60,
		viewProj:     identityMatrix,
		highlights:   material.NewHighlightSet(),
		envMaterial: material.NewMaterial(
			material.WithName("campus-environment"),
			material.WithBaseColor([4]float32{0.82, 0.81, 0.78, 1}),
		),
		logger: zap.NewNop(),
	}

	for _, opt := range options {
		opt(v)
	}

	return v
}

func (v *viewer) Boot() error {
	v.watchdogInst = recovery.NewWatchdog(
		recovery.WithBootDeadline(v.bootDeadline),
		recovery.WithOnFatal(func() {
			v.fatal.Store(true)
			v.signalQuit()
		}),
		recovery.WithWatchdogLogger(v.logger),
	)
	v.watchdogInst.Arm()

	profiler := device.NewProfiler(v.environment,
		device.WithProber(v.prober),
		device.WithLogger(v.logger),
	)
	v.tier = profiler.DetectTier()
	v.flags = device.DeriveFlags(v.tier)
	v.logger.Info("device tier detected",
		zap.String("tier", v.tier.String()),
		zap.Bool("shadows", v.flags.ShadowsEnabled),
	)

	factory := v.backend
	if factory == nil {
		factory = renderer.NewBackendFactory(renderer.BackendTypeWGPU, v.window.SurfaceDescriptor())
	}
	r, err := renderer.NewRenderer(factory, v.flags, v.window.Width(), v.window.Height(),
		renderer.WithLogger(v.logger),
	)
	if err != nil {
		v.fatal.Store(true)
		return fmt.Errorf("viewer boot failed: %w", err)
	}
	v.rendererInst = r
	v.watchdogInst.MarkMounted()

	v.registry = scene.NewRegistry(
		scene.WithHighlights(v.highlights),
		scene.WithLogger(v.logger),
	)

	v.loaderInst = loader.NewLoader(v.catalog, v.tier,
		loader.WithFetcher(loader.FileFetcher{Root: v.assetRoot}),
		loader.WithLogger(v.logger),
		loader.WithModelSink(v.attachModel),
	)

	v.governorInst = governor.NewGovernor(v.tier, r,
		governor.WithLogger(v.logger),
	)

	v.recoveryMgr = recovery.NewManager(r, v.loaderInst, v.registry,
		recovery.WithConservativeBudgets(v.flags, r.ApplyCapabilities),
		recovery.WithReload(func() {
			v.fatal.Store(true)
			v.signalQuit()
		}, recovery.DefaultReloadDelay),
		recovery.WithLogger(v.logger),
	)
	r.SetContextLostCallback(func(error) {
		v.recoveryMgr.OnContextLost()
	})

	v.window.SetResizeCallback(func(width, height int) {
		r.Resize(width, height)
	})
	v.window.SetVisibilityCallback(func(visible bool) {
		v.paused.Store(!visible)
		if visible {
			v.logger.Debug("window visible, rendering resumed")
		} else {
			v.logger.Debug("window hidden, rendering paused")
		}
	})

	return nil
}

// attachModel is the loader's delivery sink: register the mesh with the
// renderer and, for unit assets, enter it into the scene registry.
func (v *viewer) attachModel(m *loader.Model) {
	if v.rendererInst == nil {
		return
	}
	if err := v.rendererInst.RegisterMesh(m.ID, m.VertexData, m.IndexData, m.IndexCount); err != nil {
		v.logger.Error("failed to register mesh", zap.String("asset", m.ID), zap.Error(err))
		return
	}

	if unitKey, err := common.ParseUnitKey(m.ID); err == nil && v.catalog.Unit(m.ID) != nil {
		if err := v.registry.RegisterObject(unitKey, m.ID, v.envMaterial); err != nil {
			v.logger.Warn("unit registration skipped", zap.String("asset", m.ID), zap.Error(err))
		}
		return
	}

	v.envMu.Lock()
	v.envMeshes = append(v.envMeshes, m.ID)
	v.envMu.Unlock()
}

func (v *viewer) Run() {
	if v.rendererInst == nil {
		panic("viewer: Run called before Boot")
	}
	v.running = true
	v.recoveryMgr.Start()

	loadCtx, cancel := context.WithCancel(context.Background())
	v.loadCancel = cancel

	v.wg.Add(4)
	go v.handleLoading(loadCtx)
	go v.handleTick()
	go v.handleRender()
	go v.handleQuit()

	v.window.ProcessMessages()
	v.Quit()
	v.wg.Wait()
	v.recoveryMgr.Stop()
	v.rendererInst.Release()
}

// Quit signals all viewer goroutines to stop and shuts down the viewer.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (v *viewer) Quit() {
	v.signalQuit()
}

func (v *viewer) signalQuit() {
	v.quitOnce.Do(func() {
		v.running = false
		if v.loadCancel != nil {
			v.loadCancel()
		}
		close(v.quitChannel)
	})
}

// handleLoading drives the sequential environment pass on its own goroutine.
// Unit loads are dispatched on demand through the loader's worker pool.
func (v *viewer) handleLoading(ctx context.Context) {
	defer v.wg.Done()
	if err := v.loaderInst.LoadAll(ctx); err != nil {
		v.logger.Warn("environment loading interrupted", zap.Error(err))
	}
}

// handleTick runs the fixed-rate tick loop in its own goroutine.
// Fires the host tick callback at the configured rate. Exits when the quit
// channel is closed.
func (v *viewer) handleTick() {
	defer v.wg.Done()

	ticker := time.NewTicker(v.tickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-v.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			v.tickMu.Lock()
			callback := v.tickCallback
			v.tickMu.Unlock()
			if callback != nil {
				callback(dt)
			}
		}
	}
}

// handleRender runs the render loop in its own goroutine: frame lifecycle,
// highlight fades, the shared filtered pulse, and governor sampling all run
// from this single call site. Recovers from panics to avoid crashing the
// process and signals quit on recovery.
func (v *viewer) handleRender() {
	defer v.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("render goroutine recovered from panic", zap.Any("panic", r))
			v.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-v.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if v.paused.Load() {
				time.Sleep(50 * time.Millisecond)
				continue
			}

			v.elapsed += dt
			v.registry.Tick(dt)
			v.highlights.Pulse(v.elapsed)

			v.renderFrame()

			v.governorInst.Update(float64(dt) * 1000)
		}
	}
}

// renderFrame draws one frame: environment meshes in arrival order, then
// registered units with their currently bound materials. A frame acquisition
// failure is the context-loss signal path; a success while the recovery
// manager still reports loss is the restore signal.
func (v *viewer) renderFrame() {
	r := v.rendererInst
	if err := r.BeginFrame(); err != nil {
		return
	}
	if v.recoveryMgr.Phase() == recovery.PhaseLost {
		v.recoveryMgr.OnContextRestored()
	}

	v.viewProjMu.RLock()
	viewProj := v.viewProj
	v.viewProjMu.RUnlock()

	envTint := v.envMaterial.Tint()
	v.envMu.Lock()
	envMeshes := make([]string, len(v.envMeshes))
	copy(envMeshes, v.envMeshes)
	v.envMu.Unlock()

	for _, meshID := range envMeshes {
		_ = r.Draw(meshID, 1, frameUniforms(viewProj, envTint))
	}
	for _, entry := range v.registry.Entries() {
		_ = r.Draw(entry.MeshID, 1, frameUniforms(viewProj, entry.Material.Tint()))
	}

	r.EndFrame()
}

// frameUniforms packs the per-draw uniform block: view-projection matrix
// followed by the RGBA tint.
func frameUniforms(viewProj [16]float32, tint [4]float32) []byte {
	data := make([]float32, 0, 20)
	data = append(data, viewProj[:]...)
	data = append(data, tint[:]...)
	return common.SliceToBytes(data)
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (v *viewer) handleQuit() {
	defer v.wg.Done()
	<-v.quitChannel
}

func (v *viewer) Window() window.Window {
	return v.window
}

func (v *viewer) Tier() device.Tier {
	return v.tier
}

func (v *viewer) Flags() device.CapabilityFlags {
	return v.flags
}

func (v *viewer) Renderer() renderer.Renderer {
	return v.rendererInst
}

func (v *viewer) Loader() loader.Loader {
	return v.loaderInst
}

func (v *viewer) Registry() scene.Registry {
	return v.registry
}

func (v *viewer) Governor() governor.Governor {
	return v.governorInst
}

func (v *viewer) Recovery() recovery.Manager {
	return v.recoveryMgr
}

func (v *viewer) SetSelection(sel common.SelectionState) {
	if v.registry != nil {
		v.registry.SetSelection(sel)
	}
}

func (v *viewer) SetViewProjection(matrix [16]float32) {
	v.viewProjMu.Lock()
	v.viewProj = matrix
	v.viewProjMu.Unlock()
}

func (v *viewer) SetTickCallback(callback func(deltaTime float32)) {
	v.tickMu.Lock()
	v.tickCallback = callback
	v.tickMu.Unlock()
}

func (v *viewer) Fatal() bool {
	return v.fatal.Load()
}
