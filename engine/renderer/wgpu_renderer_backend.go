package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// viewerShaderSource is the fixed WGSL program the viewer renders with: one
// uniform block carrying the view-projection matrix and the highlight tint.
// Bind group layouts are declared by hand; the viewer ships a fixed shader
// set, so no runtime shader reflection is needed.
const viewerShaderSource = `
struct FrameUniforms {
    view_proj: mat4x4<f32>,
    tint: vec4<f32>,
};

@group(0) @binding(0) var<uniform> frame: FrameUniforms;

struct VertexOut {
    @builtin(position) position: vec4<f32>,
};

@vertex
fn vs_main(@location(0) position: vec3<f32>) -> VertexOut {
    var out: VertexOut;
    out.position = frame.view_proj * vec4<f32>(position, 1.0);
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    return frame.tint;
}

// ACES filmic approximation (Narkowicz 2015).
fn aces(x: vec3<f32>) -> vec3<f32> {
    let a = 2.51;
    let b = 0.03;
    let c = 2.43;
    let d = 0.59;
    let e = 0.14;
    return clamp((x * (a * x + b)) / (x * (c * x + d) + e), vec3<f32>(0.0), vec3<f32>(1.0));
}

@fragment
fn fs_main_aces(in: VertexOut) -> @location(0) vec4<f32> {
    return vec4<f32>(aces(frame.tint.rgb), frame.tint.a);
}
`

// frameUniformSize is the byte size of the FrameUniforms block:
// mat4x4<f32> (64) + vec4<f32> (16).
const frameUniformSize = 80

// meshBuffers holds the GPU-side buffers for one registered mesh, plus the
// mesh's dynamic offset into the shared uniform buffer.
type meshBuffers struct {
	vertexBuffer  *wgpu.Buffer
	indexBuffer   *wgpu.Buffer
	indexCount    int
	uniformOffset uint32
}

type wgpuBackend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat        *wgpu.TextureFormat
	msaaTextureView      *wgpu.TextureView
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	shaderModule  *wgpu.ShaderModule
	uniformLayout *wgpu.BindGroupLayout
	pipeline      *wgpu.RenderPipeline
	uniformBuffer *wgpu.Buffer
	bindGroup     *wgpu.BindGroup

	// arena assigns each mesh its own slot in the uniform buffer. Every
	// draw binds the shared bind group at the mesh's dynamic offset, so
	// uniforms written during pass encoding never clobber earlier draws.
	arena *uniformArena

	// retiredBuffers and friends hold resources replaced mid-frame (arena
	// growth, tone-mapping switch). The open pass may still reference them,
	// so they are released only after the frame's command buffer submits.
	retiredBuffers    []*wgpu.Buffer
	retiredBindGroups []*wgpu.BindGroup
	retiredPipelines  []*wgpu.RenderPipeline

	shadowTexture *wgpu.Texture
	shadowView    *wgpu.TextureView

	meshes map[string]*meshBuffers

	presentMode wgpu.PresentMode
	toneMapping ToneMapping
	sampleCount uint32
	width       int
	height      int

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	// lastError is the sticky error flag the recovery manager polls. Set on
	// any GPU call failure outside the return path, cleared by PopError.
	lastError error
}

var _ Backend = &wgpuBackend{}

// NewWGPUBackendFactory returns a BackendFactory producing WebGPU backends
// over the given platform surface descriptor. The descriptor is typically
// obtained from the window layer's SurfaceDescriptor.
//
// Parameters:
//   - surfaceDescriptor: the platform-specific WebGPU surface descriptor
//
// Returns:
//   - BackendFactory: a factory creating wgpu backends with the given surface
func NewWGPUBackendFactory(surfaceDescriptor *wgpu.SurfaceDescriptor) BackendFactory {
	return func(cfg BackendConfig) (Backend, error) {
		return newWGPUBackend(surfaceDescriptor, cfg)
	}
}

// NewBackendFactory returns the factory for the requested backend type.
// WebGPU is the only production backend.
//
// Parameters:
//   - backendType: the BackendType to construct
//   - surfaceDescriptor: the platform-specific WebGPU surface descriptor
//
// Returns:
//   - BackendFactory: the factory for the requested type
func NewBackendFactory(backendType BackendType, surfaceDescriptor *wgpu.SurfaceDescriptor) BackendFactory {
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		return NewWGPUBackendFactory(surfaceDescriptor)
	}
}

func newWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, cfg BackendConfig) (Backend, error) {
	runtime.LockOSThread()

	b := &wgpuBackend{
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		toneMapping: cfg.ToneMapping,
		sampleCount: 1,
		arena:       newUniformArena(initialUniformSlots),
		meshes:      make(map[string]*meshBuffers),
	}
	if cfg.PresentMode == PresentModeUncapped {
		b.presentMode = wgpu.PresentModeImmediate
	}
	if cfg.Antialiasing {
		b.sampleCount = 4
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.ForceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Viewer Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	b.ConfigureSurface(cfg.Width, cfg.Height)

	if err := b.initPipeline(); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// initPipeline builds the shader module, the dynamic-offset uniform arena
// resources, and the render pipeline for the configured tone mapping.
func (b *wgpuBackend) initPipeline() error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "Viewer Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: viewerShaderSource,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create shader module: %w", err)
	}
	b.shaderModule = module

	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Frame Uniforms Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   frameUniformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bind group layout: %w", err)
	}
	b.uniformLayout = layout

	buffer, bindGroup, err := b.createUniformResources(b.arena.Capacity())
	if err != nil {
		return err
	}
	b.uniformBuffer = buffer
	b.bindGroup = bindGroup

	pipeline, err := b.buildPipeline(b.toneMapping)
	if err != nil {
		return err
	}
	b.pipeline = pipeline
	return nil
}

// createUniformResources creates the uniform buffer sized for the given slot
// count and its bind group. The bind group exposes a single frameUniformSize
// window; each draw positions it with a dynamic offset.
func (b *wgpuBackend) createUniformResources(slots int) (*wgpu.Buffer, *wgpu.BindGroup, error) {
	buffer, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Frame Uniform Buffer",
		Size:  arenaByteSize(slots),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create uniform buffer: %w", err)
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Frame Uniforms",
		Layout: b.uniformLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  buffer,
				Offset:  0,
				Size:    frameUniformSize,
			},
		},
	})
	if err != nil {
		buffer.Release()
		return nil, nil, fmt.Errorf("failed to create bind group: %w", err)
	}
	return buffer, bindGroup, nil
}

// buildPipeline creates the render pipeline with the fragment entry point for
// the given tone-mapping curve.
func (b *wgpuBackend) buildPipeline(toneMapping ToneMapping) (*wgpu.RenderPipeline, error) {
	fragmentEntry := "fs_main"
	if toneMapping == ToneMappingACES {
		fragmentEntry = "fs_main_aces"
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Viewer Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.uniformLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	pipeline, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Viewer Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     b.shaderModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 12, // position: vec3<f32>
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     b.shaderModule,
			EntryPoint: fragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: b.sampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline: %w", err)
	}
	return pipeline, nil
}

func (b *wgpuBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width = width
	b.height = height

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	msaaEnabled := b.sampleCount > 1
	if msaaEnabled {
		// The render pass draws into the MSAA texture; the resolved result
		// is written to the swapchain view as the ResolveTarget.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   b.sampleCount,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			b.lastError = err
			return
		}
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			b.lastError = err
			return
		}
	} else {
		b.msaaTextureView = nil
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   b.sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		b.lastError = err
		return
	}
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		b.lastError = err
		return
	}

	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard // MSAA data is resolved, not stored
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          b.msaaTextureView, // nil when MSAA is off; set in BeginFrame
				ResolveTarget: nil,               // set per-frame when MSAA is on
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue: wgpu.Color{
					R: 0.09, G: 0.1, B: 0.12, A: 1.0,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuBackend) SetToneMapping(mode ToneMapping) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if mode == b.toneMapping && b.pipeline != nil {
		return nil
	}
	if b.framePass != nil {
		return fmt.Errorf("tone mapping cannot change while a frame is open")
	}

	pipeline, err := b.buildPipeline(mode)
	if err != nil {
		return err
	}
	if b.pipeline != nil {
		b.retiredPipelines = append(b.retiredPipelines, b.pipeline)
	}
	b.pipeline = pipeline
	b.toneMapping = mode
	return nil
}

func (b *wgpuBackend) InitMeshBuffers(meshID string, vertexData, indexData []byte, indexCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	offset, err := b.allocUniformSlot()
	if err != nil {
		return err
	}
	mesh := &meshBuffers{indexCount: indexCount, uniformOffset: offset}

	if len(vertexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: meshID + " Vertex Buffer",
			Size:  uint64(len(vertexData)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			b.arena.Free(offset)
			return err
		}
		b.queue.WriteBuffer(buf, 0, vertexData)
		mesh.vertexBuffer = buf
	}

	if len(indexData) > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: meshID + " Index Buffer",
			Size:  uint64(len(indexData)),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			if mesh.vertexBuffer != nil {
				mesh.vertexBuffer.Release()
			}
			b.arena.Free(offset)
			return err
		}
		b.queue.WriteBuffer(buf, 0, indexData)
		mesh.indexBuffer = buf
	}

	if old, ok := b.meshes[meshID]; ok {
		old.release()
		b.arena.Free(old.uniformOffset)
	}
	b.meshes[meshID] = mesh
	return nil
}

// allocUniformSlot hands the next uniform slot out, doubling the arena when
// it fills. Growth replaces the uniform buffer and bind group; the old pair
// is retired until the in-flight frame, if any, has submitted. Slot offsets
// survive growth unchanged. Caller holds the mutex.
func (b *wgpuBackend) allocUniformSlot() (uint32, error) {
	if offset, ok := b.arena.Alloc(); ok {
		return offset, nil
	}

	grown := b.arena.Capacity() * 2
	buffer, bindGroup, err := b.createUniformResources(grown)
	if err != nil {
		return 0, err
	}
	b.retiredBuffers = append(b.retiredBuffers, b.uniformBuffer)
	b.retiredBindGroups = append(b.retiredBindGroups, b.bindGroup)
	b.uniformBuffer = buffer
	b.bindGroup = bindGroup
	b.arena.Grow(grown)

	offset, ok := b.arena.Alloc()
	if !ok {
		return 0, fmt.Errorf("uniform arena full after growth")
	}
	return offset, nil
}

func (b *wgpuBackend) DisposeMesh(meshID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if mesh, ok := b.meshes[meshID]; ok {
		mesh.release()
		b.arena.Free(mesh.uniformOffset)
		delete(b.meshes, meshID)
	}
}

func (m *meshBuffers) release() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}

func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Defensive: if a previous frame's surface texture is still held, avoid
	// attempting to acquire another one.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		b.lastError = err
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		b.lastError = err
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		b.lastError = err
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)
	pass.SetPipeline(b.pipeline)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuBackend) DrawMesh(meshID string, instanceCount uint32, uniforms []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	mesh, ok := b.meshes[meshID]
	if !ok {
		return fmt.Errorf("mesh %q is not registered", meshID)
	}
	if b.framePass == nil {
		return fmt.Errorf("no render pass open")
	}

	// Each mesh writes into its own uniform slot and binds it with a
	// dynamic offset. All WriteBuffer calls land before the frame's command
	// buffer submits, so draws sharing one slot would all sample the last
	// write; separate slots keep every draw's tint intact.
	if len(uniforms) > 0 {
		b.queue.WriteBuffer(b.uniformBuffer, uint64(mesh.uniformOffset), uniforms)
	}
	b.framePass.SetBindGroup(0, b.bindGroup, []uint32{mesh.uniformOffset})
	b.framePass.SetVertexBuffer(0, mesh.vertexBuffer, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(mesh.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(mesh.indexCount), instanceCount, 0, 0, 0)
	return nil
}

func (b *wgpuBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.lastError = err
		b.releaseFrame()
		return
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil

	// The submitted frame no longer references replaced resources.
	b.releaseRetired()
}

// releaseRetired frees resources replaced by arena growth or a tone-mapping
// switch. Caller holds the mutex; never call with a frame still encoding.
func (b *wgpuBackend) releaseRetired() {
	for _, bg := range b.retiredBindGroups {
		bg.Release()
	}
	b.retiredBindGroups = nil
	for _, buf := range b.retiredBuffers {
		buf.Release()
	}
	b.retiredBuffers = nil
	for _, p := range b.retiredPipelines {
		p.Release()
	}
	b.retiredPipelines = nil
}

func (b *wgpuBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.releaseFrame()
}

// releaseFrame drops frame-local references. Caller holds the mutex.
func (b *wgpuBackend) releaseFrame() {
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	b.framePass = nil
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuBackend) ConfigureShadowMap(size int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.shadowView != nil {
		b.shadowView.Release()
		b.shadowView = nil
	}
	if b.shadowTexture != nil {
		b.shadowTexture.Release()
		b.shadowTexture = nil
	}
	if size <= 0 {
		return nil
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Shadow Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(size),
			Height:             uint32(size),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow depth texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("failed to create shadow depth texture view: %w", err)
	}
	b.shadowTexture = tex
	b.shadowView = view
	return nil
}

func (b *wgpuBackend) PopError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.lastError
	b.lastError = nil
	return err
}

func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrame()
	b.releaseRetired()
	for id, mesh := range b.meshes {
		mesh.release()
		delete(b.meshes, id)
	}
	if b.shadowView != nil {
		b.shadowView.Release()
		b.shadowView = nil
	}
	if b.shadowTexture != nil {
		b.shadowTexture.Release()
		b.shadowTexture = nil
	}
	if b.bindGroup != nil {
		b.bindGroup.Release()
		b.bindGroup = nil
	}
	if b.uniformBuffer != nil {
		b.uniformBuffer.Release()
		b.uniformBuffer = nil
	}
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.uniformLayout != nil {
		b.uniformLayout.Release()
		b.uniformLayout = nil
	}
	if b.shaderModule != nil {
		b.shaderModule.Release()
		b.shaderModule = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
}
