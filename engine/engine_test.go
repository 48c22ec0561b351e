package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumispace/campusview/common"
	"github.com/lumispace/campusview/engine/catalog"
	"github.com/lumispace/campusview/engine/device"
	"github.com/lumispace/campusview/engine/loader"
	"github.com/lumispace/campusview/engine/renderer"
	"github.com/lumispace/campusview/engine/window"
)

// fakeWindow satisfies window.Window without a display server. A non-nil
// hold channel keeps ProcessMessages blocked until it closes, simulating a
// live message loop.
type fakeWindow struct {
	width, height int
	onResize      func(int, int)
	onVisibility  func(bool)
	hold          chan struct{}
}

func (f *fakeWindow) SetUpdateCallback(func())                   {}
func (f *fakeWindow) SetResizeCallback(cb func(int, int))        { f.onResize = cb }
func (f *fakeWindow) SetVisibilityCallback(cb func(bool))        { f.onVisibility = cb }
func (f *fakeWindow) SetPointerMoveCallback(func(x, y int32))    {}
func (f *fakeWindow) SetPointerClickCallback(func(x, y int32))   {}
func (f *fakeWindow) SetScrollCallback(func(delta float32))      {}
func (f *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (f *fakeWindow) Visible() bool                              { return true }
func (f *fakeWindow) IsRunning() bool                            { return false }
func (f *fakeWindow) Close() error                               { return nil }
func (f *fakeWindow) ProcessMessages() {
	if f.hold != nil {
		<-f.hold
	}
}
func (f *fakeWindow) Width() int  { return f.width }
func (f *fakeWindow) Height() int { return f.height }

var _ window.Window = &fakeWindow{}

// fakeEngineBackend is a minimal no-op renderer backend.
type fakeEngineBackend struct{}

func (f *fakeEngineBackend) ConfigureSurface(width, height int)        {}
func (f *fakeEngineBackend) SetPresentMode(renderer.PresentMode)       {}
func (f *fakeEngineBackend) SetToneMapping(renderer.ToneMapping) error { return nil }
func (f *fakeEngineBackend) InitMeshBuffers(meshID string, vertexData, indexData []byte, indexCount int) error {
	return nil
}
func (f *fakeEngineBackend) DisposeMesh(meshID string) {}
func (f *fakeEngineBackend) BeginFrame() error         { return nil }
func (f *fakeEngineBackend) DrawMesh(meshID string, instanceCount uint32, uniforms []byte) error {
	return nil
}
func (f *fakeEngineBackend) EndFrame()                         {}
func (f *fakeEngineBackend) Present()                          {}
func (f *fakeEngineBackend) ConfigureShadowMap(size int) error { return nil }
func (f *fakeEngineBackend) PopError() error                   { return nil }
func (f *fakeEngineBackend) Release()                          {}

var _ renderer.Backend = &fakeEngineBackend{}

func viewerCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		[]catalog.Asset{{ID: "env/terrain", Path: "terrain.glb", Priority: 1}},
		[]catalog.Asset{{ID: "T/2/210", Path: "t-210.glb", Bucket: catalog.BucketEssential}},
	)
	require.NoError(t, err)
	return cat
}

func desktopViewer(t *testing.T) *viewer {
	t.Helper()
	v := NewViewer(
		WithWindow(&fakeWindow{width: 1280, height: 720}),
		WithCatalog(viewerCatalog(t)),
		WithEnvironment(device.Environment{
			UserAgent:     "Mozilla/5.0 (X11; Linux x86_64)",
			ViewportWidth: 1920, ViewportHeight: 1080,
		}),
		WithBackendFactory(func(renderer.BackendConfig) (renderer.Backend, error) {
			return &fakeEngineBackend{}, nil
		}),
	)
	require.NoError(t, v.(*viewer).Boot())
	return v.(*viewer)
}

func TestBootDetectsTierAndMountsRenderer(t *testing.T) {
	v := desktopViewer(t)

	assert.Equal(t, device.TierDesktopGL, v.Tier())
	assert.True(t, v.Flags().ShadowsEnabled)
	assert.NotNil(t, v.Renderer())
	assert.NotNil(t, v.Loader())
	assert.NotNil(t, v.Registry())
	assert.False(t, v.Fatal())
	assert.False(t, v.watchdogInst.Fatal())
}

func TestBootMobileEnvironmentDerivesMobileBudgets(t *testing.T) {
	v := NewViewer(
		WithWindow(&fakeWindow{width: 390, height: 844}),
		WithCatalog(viewerCatalog(t)),
		WithEnvironment(device.Environment{
			UserAgent:     "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
			TouchCapable:  true,
			ViewportWidth: 390, ViewportHeight: 844,
		}),
		WithBackendFactory(func(renderer.BackendConfig) (renderer.Backend, error) {
			return &fakeEngineBackend{}, nil
		}),
	)
	require.NoError(t, v.(*viewer).Boot())

	assert.Equal(t, device.TierMobileLow, v.Tier())
	assert.False(t, v.Flags().ShadowsEnabled)
	assert.Equal(t, 1024, v.Flags().TextureSizeMax)
}

func TestBootFailureIsFatal(t *testing.T) {
	v := NewViewer(
		WithWindow(&fakeWindow{width: 1280, height: 720}),
		WithCatalog(viewerCatalog(t)),
		WithBackendFactory(func(renderer.BackendConfig) (renderer.Backend, error) {
			return nil, errors.New("no adapter")
		}),
		WithBootDeadline(time.Minute),
	)

	err := v.(*viewer).Boot()
	require.Error(t, err)
	assert.ErrorIs(t, err, renderer.ErrBackendUnavailable)
	assert.True(t, v.Fatal())
}

func TestAttachModelRoutesUnitsToRegistry(t *testing.T) {
	v := desktopViewer(t)

	v.attachModel(&loader.Model{ID: "T/2/210", VertexData: []byte{0}, IndexData: []byte{0, 0, 0, 0}, IndexCount: 3})
	v.attachModel(&loader.Model{ID: "env/terrain", VertexData: []byte{0}, IndexData: []byte{0, 0, 0, 0}, IndexCount: 3})

	assert.Equal(t, 1, v.Registry().Len())
	_, ok := v.Registry().Entry(common.UnitKey{Building: "T", Floor: 2, Unit: "210"})
	assert.True(t, ok)

	v.envMu.Lock()
	defer v.envMu.Unlock()
	assert.Equal(t, []string{"env/terrain"}, v.envMeshes)
}

func TestVisibilityCallbackPausesRendering(t *testing.T) {
	v := desktopViewer(t)
	w := v.Window().(*fakeWindow)

	require.NotNil(t, w.onVisibility)
	w.onVisibility(false)
	assert.True(t, v.paused.Load())
	w.onVisibility(true)
	assert.False(t, v.paused.Load())
}

func TestFrameUniformsLayout(t *testing.T) {
	data := frameUniforms(identityMatrix, [4]float32{1, 0, 0, 1})
	// 16 matrix floats plus 4 tint floats, 4 bytes each.
	assert.Len(t, data, 80)
}

func TestRunWithClosedWindowShutsDownCleanly(t *testing.T) {
	v := desktopViewer(t)

	done := make(chan struct{})
	go func() {
		v.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("viewer did not shut down after the window closed")
	}
	assert.False(t, v.running)
}

func TestSetTickCallbackWhileRunning(t *testing.T) {
	win := &fakeWindow{width: 1280, height: 720, hold: make(chan struct{})}
	v := NewViewer(
		WithWindow(win),
		WithCatalog(viewerCatalog(t)),
		WithEnvironment(device.Environment{
			UserAgent:     "Mozilla/5.0 (X11; Linux x86_64)",
			ViewportWidth: 1920, ViewportHeight: 1080,
		}),
		WithBackendFactory(func(renderer.BackendConfig) (renderer.Backend, error) {
			return &fakeEngineBackend{}, nil
		}),
		WithTickRate(200),
	)
	require.NoError(t, v.(*viewer).Boot())

	done := make(chan struct{})
	go func() {
		v.Run()
		close(done)
	}()

	// Installing the callback while the tick loop is already running must
	// be safe and must take effect on a subsequent tick.
	fired := make(chan struct{})
	var once sync.Once
	v.SetTickCallback(func(deltaTime float32) {
		once.Do(func() { close(fired) })
	})

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("tick callback installed mid-run never fired")
	}

	close(win.hold)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("viewer did not shut down")
	}
}
