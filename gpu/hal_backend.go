package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/mesh"
)

// HALBackend renders into an offscreen texture on a wgpu/hal device.
// Pipelines are created lazily, one per vertex layout and topology, with
// a WGSL shader generated for the layout and compiled to SPIR-V by naga.
//
// Every Draw is encoded into its own render pass and submitted
// immediately. Transient index buffers live until EndFrame.
type HALBackend struct {
	device hal.Device
	queue  hal.Queue
	opts   halOptions

	// instance is set when the backend opened the device itself.
	instance hal.Instance

	target     hal.Texture
	targetView hal.TextureView

	uniformLayout hal.BindGroupLayout
	uniformBuf    hal.Buffer
	bindGroup     hal.BindGroup
	pipeLayout    hal.PipelineLayout

	pipelines map[pipelineKey]*layoutPipeline
	textures  map[string]hal.Texture
	transient []hal.Buffer

	uniforms      Uniforms
	uniformsDirty bool
	cleared       bool
}

type pipelineKey struct {
	layout   string
	topology gputypes.PrimitiveTopology
	strip    gputypes.IndexFormat
}

type layoutPipeline struct {
	shader   hal.ShaderModule
	pipeline hal.RenderPipeline
}

var _ Backend = (*HALBackend)(nil)

// NewHALBackend creates a backend on an existing device and queue. The
// caller keeps ownership of the device.
func NewHALBackend(device hal.Device, queue hal.Queue, opts ...HALOption) (*HALBackend, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("gpu: nil device or queue: %w", mesh.ErrArgument)
	}
	o := defaultHALOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b := &HALBackend{
		device:        device,
		queue:         queue,
		opts:          o,
		pipelines:     make(map[pipelineKey]*layoutPipeline),
		textures:      make(map[string]hal.Texture),
		uniforms:      DefaultUniforms(),
		uniformsDirty: true,
	}
	if err := b.createSharedResources(); err != nil {
		b.Destroy()
		return nil, err
	}
	mesh.Logger().Info("gpu: backend ready",
		"width", o.width, "height", o.height, "format", o.format)
	return b, nil
}

// NewHALBackendFromProvider creates a backend on the device shared by a
// gpucontext.DeviceProvider. The provider must also expose the HAL
// objects through HalDevice() any and HalQueue() any.
func NewHALBackendFromProvider(provider gpucontext.DeviceProvider, opts ...HALOption) (*HALBackend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider does not expose HAL types: %w", mesh.ErrArgument)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device: %w", mesh.ErrArgument)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue: %w", mesh.ErrArgument)
	}
	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		opts = append([]HALOption{WithTargetFormat(f)}, opts...)
	}
	return NewHALBackend(device, queue, opts...)
}

// OpenHALBackend opens a device on the registered HAL backend variant,
// preferring discrete and integrated GPUs, and creates a backend that owns
// it. Backends register themselves when their package is imported, e.g.
// github.com/gogpu/wgpu/hal/noop for headless use.
func OpenHALBackend(variant gputypes.Backend, opts ...HALOption) (*HALBackend, error) {
	api, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("gpu: %v backend not available: %w", variant, mesh.ErrArgument)
	}
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: no %v adapters found", variant)
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}
	mesh.Logger().Info("gpu: adapter selected", "name", selected.Info.Name, "backend", variant)

	b, err := NewHALBackend(openDev.Device, openDev.Queue, opts...)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	b.instance = instance
	return b, nil
}

// Device returns the underlying HAL device.
func (b *HALBackend) Device() hal.Device { return b.device }

// Target returns the offscreen render target.
func (b *HALBackend) Target() hal.Texture { return b.target }

// Size returns the render target size.
func (b *HALBackend) Size() (width, height uint32) { return b.opts.width, b.opts.height }

func (b *HALBackend) label(s string) string { return b.opts.label + "_" + s }

// createSharedResources creates the render target and the uniform binding
// shared by every pipeline.
func (b *HALBackend) createSharedResources() error {
	target, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         b.label("target"),
		Size:          hal.Extent3D{Width: b.opts.width, Height: b.opts.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        b.opts.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create render target: %w", err)
	}
	b.target = target

	view, err := b.device.CreateTextureView(target, &hal.TextureViewDescriptor{
		Label: b.label("target_view"),
	})
	if err != nil {
		return fmt.Errorf("gpu: create render target view: %w", err)
	}
	b.targetView = view

	uniformLayout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: b.label("uniform_layout"),
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create uniform layout: %w", err)
	}
	b.uniformLayout = uniformLayout

	uniformBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.label("uniforms"),
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create uniform buffer: %w", err)
	}
	b.uniformBuf = uniformBuf

	bindGroup, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  b.label("uniform_bind"),
		Layout: b.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create uniform bind group: %w", err)
	}
	b.bindGroup = bindGroup

	pipeLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            b.label("pipe_layout"),
		BindGroupLayouts: []hal.BindGroupLayout{b.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	b.pipeLayout = pipeLayout
	return nil
}

// ensurePipeline returns the pipeline for layout and topology, creating it
// on first use.
func (b *HALBackend) ensurePipeline(layout VertexLayout, cmd DrawCommand) (*layoutPipeline, error) {
	key := pipelineKey{layout: layout.key(), topology: cmd.Topology}
	var strip *gputypes.IndexFormat
	if cmd.Indices != nil && (cmd.Topology == gputypes.PrimitiveTopologyLineStrip ||
		cmd.Topology == gputypes.PrimitiveTopologyTriangleStrip) {
		f := cmd.Indices.Format
		strip = &f
		key.strip = f
	}
	if p, ok := b.pipelines[key]; ok {
		return p, nil
	}

	source, err := GenerateWGSL(layout)
	if err != nil {
		return nil, err
	}
	spirv, err := CompileShaderToSPIRV(source)
	if err != nil {
		return nil, fmt.Errorf("gpu: %w", err)
	}
	shader, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  b.label("shader"),
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create shader module: %w", err)
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  b.label("pipeline"),
		Layout: b.pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    []gputypes.VertexBufferLayout{layout.bufferLayout()},
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    b.opts.format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:         cmd.Topology,
			StripIndexFormat: strip,
			CullMode:         gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		b.device.DestroyShaderModule(shader)
		return nil, fmt.Errorf("gpu: create render pipeline: %w", err)
	}

	p := &layoutPipeline{shader: shader, pipeline: pipeline}
	b.pipelines[key] = p
	mesh.Logger().Debug("gpu: pipeline created", "layout", key.layout, "topology", cmd.Topology)
	return p, nil
}

// halVertices is vertex data resident in a HAL buffer.
type halVertices struct {
	owner  *HALBackend
	buf    hal.Buffer
	layout VertexLayout
	count  int
}

func (v *halVertices) Layout() VertexLayout { return v.layout }
func (v *halVertices) Count() int           { return v.count }

func (v *halVertices) Release() {
	if v.buf == nil {
		return
	}
	v.owner.device.DestroyBuffer(v.buf)
	v.buf = nil
}

// UploadVertices creates a vertex buffer and writes data into it.
func (b *HALBackend) UploadVertices(label string, layout VertexLayout, data []byte) (Vertices, error) {
	for _, a := range layout.Attributes {
		if shaderComponents(a.Format) == 0 {
			return nil, fmt.Errorf("%w: %q is %v", ErrUnsupportedFormat, a.Name, a.Format)
		}
	}
	buf, err := b.createBuffer(label, gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst, data)
	if err != nil {
		return nil, err
	}
	count := 0
	if layout.Stride > 0 {
		count = len(data) / int(layout.Stride)
	}
	mesh.Logger().Debug("gpu: vertex upload", "label", label, "bytes", len(data), "vertices", count)
	return &halVertices{owner: b, buf: buf, layout: layout, count: count}, nil
}

// createBuffer creates a buffer padded to a 4-byte multiple and writes
// data into it.
func (b *HALBackend) createBuffer(label string, usage gputypes.BufferUsage, data []byte) (hal.Buffer, error) {
	size := (uint64(len(data)) + 3) &^ 3
	if size == 0 {
		size = 4
	}
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: b.label(label),
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create buffer %q: %w", label, err)
	}
	padded := data
	if uint64(len(data)) != size {
		padded = make([]byte, size)
		copy(padded, data)
	}
	if err := b.queue.WriteBuffer(buf, 0, padded); err != nil {
		b.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("gpu: write buffer %q: %w", label, err)
	}
	return buf, nil
}

// SetUniforms sets the constants for subsequent draws.
func (b *HALBackend) SetUniforms(u Uniforms) {
	b.uniforms = u
	b.uniformsDirty = true
}

// Draw encodes and submits one render pass drawing cmd over v.
func (b *HALBackend) Draw(v Vertices, cmd DrawCommand) error {
	hv, ok := v.(*halVertices)
	if !ok || hv.owner != b {
		return ErrForeignVertices
	}
	if hv.buf == nil {
		return ErrReleased
	}
	if err := checkTopology(cmd.Topology); err != nil {
		return err
	}
	pipeline, err := b.ensurePipeline(hv.layout, cmd)
	if err != nil {
		return err
	}

	if b.uniformsDirty {
		if err := b.queue.WriteBuffer(b.uniformBuf, 0, uniformBytes(b.uniforms)); err != nil {
			return fmt.Errorf("gpu: write uniforms: %w", err)
		}
		b.uniformsDirty = false
	}

	var indexBuf hal.Buffer
	if cmd.Indices != nil {
		indexBuf, err = b.createBuffer("indices", gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst, cmd.Indices.Data)
		if err != nil {
			return err
		}
		b.transient = append(b.transient, indexBuf)
	}

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: b.label("encoder"),
	})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(b.label("draw")); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	loadOp := gputypes.LoadOpLoad
	if !b.cleared {
		loadOp = gputypes.LoadOpClear
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: b.label("pass"),
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       b.targetView,
				LoadOp:     loadOp,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: b.opts.clear,
			},
		},
	})
	rp.SetPipeline(pipeline.pipeline)
	rp.SetBindGroup(0, b.bindGroup, nil)
	rp.SetVertexBuffer(0, hv.buf, 0)
	if indexBuf != nil {
		rp.SetIndexBuffer(indexBuf, cmd.Indices.Format, 0)
		rp.DrawIndexed(cmd.Count, 1, cmd.First, 0, 0)
	} else {
		rp.Draw(cmd.Count, 1, cmd.First, 0)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	if _, err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	b.cleared = true
	mesh.Logger().Debug("gpu: draw", "topology", cmd.Topology, "first", cmd.First,
		"count", cmd.Count, "indexed", indexBuf != nil)
	return nil
}

// UploadTexture creates or replaces the RGBA texture named label.
func (b *HALBackend) UploadTexture(label string, width, height int, rgba []byte) error {
	if width <= 0 || height <= 0 || len(rgba) < width*height*4 {
		return fmt.Errorf("gpu: texture %q: %d bytes for %dx%d: %w", label, len(rgba), width, height, mesh.ErrValidation)
	}
	if old, ok := b.textures[label]; ok {
		b.device.DestroyTexture(old)
		delete(b.textures, label)
	}
	size := hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         b.label(label),
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create texture %q: %w", label, err)
	}
	err = b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0, Aspect: gputypes.TextureAspectAll},
		rgba[:width*height*4],
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(width * 4), RowsPerImage: uint32(height)},
		&size,
	)
	if err != nil {
		b.device.DestroyTexture(tex)
		return fmt.Errorf("gpu: write texture %q: %w", label, err)
	}
	b.textures[label] = tex
	return nil
}

// Texture returns the texture uploaded under label.
func (b *HALBackend) Texture(label string) (hal.Texture, bool) {
	t, ok := b.textures[label]
	return t, ok
}

// EndFrame waits for submitted work, frees transient buffers and makes the
// next draw clear the target again.
func (b *HALBackend) EndFrame() error {
	if err := b.device.WaitIdle(); err != nil {
		return fmt.Errorf("gpu: wait idle: %w", err)
	}
	for _, buf := range b.transient {
		b.device.DestroyBuffer(buf)
	}
	b.transient = b.transient[:0]
	b.cleared = false
	return nil
}

// Destroy releases all GPU resources held by the backend, and the device
// itself when the backend opened it. Safe to call multiple times.
func (b *HALBackend) Destroy() {
	if b.device == nil {
		return
	}
	if err := b.device.WaitIdle(); err != nil {
		mesh.Logger().Warn("gpu: wait idle on destroy", "err", err)
	}
	for _, buf := range b.transient {
		b.device.DestroyBuffer(buf)
	}
	b.transient = nil
	for label, t := range b.textures {
		b.device.DestroyTexture(t)
		delete(b.textures, label)
	}
	for key, p := range b.pipelines {
		b.device.DestroyRenderPipeline(p.pipeline)
		b.device.DestroyShaderModule(p.shader)
		delete(b.pipelines, key)
	}
	if b.pipeLayout != nil {
		b.device.DestroyPipelineLayout(b.pipeLayout)
		b.pipeLayout = nil
	}
	if b.bindGroup != nil {
		b.device.DestroyBindGroup(b.bindGroup)
		b.bindGroup = nil
	}
	if b.uniformBuf != nil {
		b.device.DestroyBuffer(b.uniformBuf)
		b.uniformBuf = nil
	}
	if b.uniformLayout != nil {
		b.device.DestroyBindGroupLayout(b.uniformLayout)
		b.uniformLayout = nil
	}
	if b.targetView != nil {
		b.device.DestroyTextureView(b.targetView)
		b.targetView = nil
	}
	if b.target != nil {
		b.device.DestroyTexture(b.target)
		b.target = nil
	}
	if b.instance != nil {
		b.device.Destroy()
		b.instance.Destroy()
		b.instance = nil
	}
	b.device = nil
}
