package renderer

// BackendType identifies the GPU backend implementation used by the Renderer.
type BackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU BackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	PresentModeUncapped
)

// ToneMapping selects the tone-mapping curve applied in the fragment stage.
type ToneMapping int

const (
	// ToneMappingNone passes linear color through unchanged.
	ToneMappingNone ToneMapping = iota

	// ToneMappingACES applies the filmic ACES approximation. Used on tiers
	// with post-processing enabled.
	ToneMappingACES
)

// BackendConfig is the context-creation configuration a backend is built
// with. The factory first attempts the rich configuration derived from the
// device tier; if creation fails it retries exactly once with Reduced().
type BackendConfig struct {
	// Width and Height are the initial drawing buffer dimensions in pixels.
	Width, Height int
	// Antialiasing enables MSAA on the main render pass.
	Antialiasing bool
	// PreserveDrawingBuffer keeps the previous frame on acquisition failure
	// instead of flashing a cleared buffer.
	PreserveDrawingBuffer bool
	// AlphaChannel requests an alpha-capable surface. Off in the reduced
	// configuration.
	AlphaChannel bool
	// ForceFallbackAdapter requests a software adapter. Only set by the
	// reduced configuration, as a last resort before failing boot.
	ForceFallbackAdapter bool
	// PresentMode controls frame delivery.
	PresentMode PresentMode
	// ToneMapping selects the fragment tone-mapping curve. ACES on tiers
	// with post-processing, None otherwise.
	ToneMapping ToneMapping
}

// Reduced derives the simplest-options retry configuration: alpha disabled,
// no MSAA, software adapter permitted.
//
// Returns:
//   - BackendConfig: the reduced configuration
func (c BackendConfig) Reduced() BackendConfig {
	out := c
	out.Antialiasing = false
	out.AlphaChannel = false
	out.PreserveDrawingBuffer = false
	out.ForceFallbackAdapter = true
	out.ToneMapping = ToneMappingNone
	return out
}

// FrameStats is the per-frame counter snapshot the performance governor
// samples. Counters reset at BeginFrame.
type FrameStats struct {
	// DrawCalls is the number of draw commands encoded in the frame.
	DrawCalls int
	// Triangles is the total triangle count across all draw calls,
	// instancing included.
	Triangles int
}

// Backend is the GPU backend interface the Renderer drives. The production
// implementation wraps WebGPU; tests substitute a fake so the orchestration
// logic runs without a GPU.
type Backend interface {
	// ConfigureSurface (re)configures the drawing surface for a new size.
	// Implementations must tolerate being called repeatedly.
	//
	// Parameters:
	//   - width: the new surface width in pixels (always >= 1)
	//   - height: the new surface height in pixels (always >= 1)
	ConfigureSurface(width, height int)

	// SetPresentMode sets how frames are delivered to the display. Takes
	// effect the next time the surface is configured.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SetToneMapping switches the fragment tone-mapping curve, rebuilding
	// the render pipeline if the curve changed. Must not be called while a
	// frame is open.
	//
	// Parameters:
	//   - mode: the ToneMapping curve to use
	//
	// Returns:
	//   - error: error if pipeline recreation fails
	SetToneMapping(mode ToneMapping) error

	// InitMeshBuffers uploads vertex and index data for a mesh and registers
	// it under the given id for later draw calls.
	//
	// Parameters:
	//   - meshID: the stable mesh identity
	//   - vertexData: raw vertex bytes
	//   - indexData: raw uint32 index bytes
	//   - indexCount: the number of indices, used for draw calls
	//
	// Returns:
	//   - error: error if buffer creation fails
	InitMeshBuffers(meshID string, vertexData, indexData []byte, indexCount int) error

	// DisposeMesh releases the GPU buffers registered under meshID.
	// Unknown ids are ignored.
	//
	// Parameters:
	//   - meshID: the mesh to release
	DisposeMesh(meshID string)

	// BeginFrame acquires the swapchain texture and begins the main render
	// pass. A surface acquisition failure is how context loss first becomes
	// visible to the renderer.
	//
	// Returns:
	//   - error: error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawMesh encodes one instanced draw of a registered mesh with the
	// given uniform data.
	//
	// Parameters:
	//   - meshID: the mesh to draw
	//   - instanceCount: the number of instances
	//   - uniforms: the per-draw uniform bytes (view-projection + tint)
	//
	// Returns:
	//   - error: error if the mesh id is not registered
	DrawMesh(meshID string, instanceCount uint32, uniforms []byte) error

	// EndFrame ends the render pass and submits the command buffer.
	EndFrame()

	// Present presents the surface and releases the swapchain texture.
	Present()

	// ConfigureShadowMap creates (or recreates) the shadow depth texture at
	// the given edge length. Size 0 disposes the texture and disables the
	// shadow pass.
	//
	// Parameters:
	//   - size: the shadow map edge length in texels, or 0 to disable
	//
	// Returns:
	//   - error: error if texture creation fails
	ConfigureShadowMap(size int) error

	// PopError returns and clears the backend's sticky error flag. The
	// recovery manager polls this outside of loss events.
	//
	// Returns:
	//   - error: the recorded error, or nil if none occurred since last poll
	PopError() error

	// Release disposes every GPU resource the backend owns. The backend is
	// unusable afterwards.
	Release()
}
