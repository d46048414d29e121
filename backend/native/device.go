// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/yuv"
	"github.com/gogpu/yuv/gpucore"
)

// Name is the device identifier reported in Capabilities.
const Name = "native"

// Device implements [gpucore.Device] with gogpu/wgpu HAL compute.
//
// Devices are not safe for concurrent use.
type Device struct {
	opts options

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
	adapter  string

	maxTextureSize int

	surface surface

	programs     map[gpucore.ProgramID]*program
	buffers      map[gpucore.BufferID][]gpucore.Vec2
	textures     map[gpucore.TextureID]*texture
	framebuffers map[gpucore.FramebufferID]gpucore.TextureID

	nextID    uint64
	destroyed bool
}

var _ gpucore.Device = (*Device)(nil)

// surface is the visible render target.
type surface struct {
	buf           hal.Buffer
	width, height int
}

// program is a compute pipeline and the names it was linked with.
type program struct {
	label      string
	attributes map[string]int
	samplers   map[string]int

	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// texture is a storage buffer of RGBA words.
type texture struct {
	label string
	desc  gpucore.TextureDescriptor
	buf   hal.Buffer
}

func (t *texture) size() uint64 {
	return uint64(t.desc.Width) * uint64(t.desc.Height) * 4 //nolint:gosec // validated positive
}

// New opens the first discrete or integrated Vulkan adapter.
func New(opts ...Option) (*Device, error) {
	d := newDevice(opts)

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	d.instance = instance
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.adapter = selected.Info.Name
	d.maxTextureSize = int(limits.MaxTextureDimension2D)
	if err := d.ResizeSurface(d.opts.width, d.opts.height); err != nil {
		d.Destroy()
		return nil, err
	}
	yuv.Logger().Info("native: device opened", "adapter", d.adapter)
	return d, nil
}

// NewFromProvider uses a GPU device shared by a host such as a gogpu
// window. The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue. The shared device is not destroyed
// with this one.
func NewFromProvider(provider any, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoProvider)
	}

	d := newDevice(opts)
	d.device = device
	d.queue = queue
	d.external = true
	d.adapter = "shared"
	d.maxTextureSize = int(gputypes.DefaultLimits().MaxTextureDimension2D)
	if err := d.ResizeSurface(d.opts.width, d.opts.height); err != nil {
		d.Destroy()
		return nil, err
	}
	yuv.Logger().Info("native: using shared device")
	return d, nil
}

func newDevice(opts []Option) *Device {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Device{
		opts:         o,
		programs:     make(map[gpucore.ProgramID]*program),
		buffers:      make(map[gpucore.BufferID][]gpucore.Vec2),
		textures:     make(map[gpucore.TextureID]*texture),
		framebuffers: make(map[gpucore.FramebufferID]gpucore.TextureID),
	}
}

func (d *Device) allocID() uint64 {
	d.nextID++
	return d.nextID
}

// === Capabilities ===

// Capabilities returns the device limits.
func (d *Device) Capabilities() gpucore.Capabilities {
	return gpucore.Capabilities{
		Name:                    Name,
		ShaderFormat:            gpucore.ShaderFormatSPIRV,
		MaxTextureSize:          d.maxTextureSize,
		SlowSingleChannelUpload: d.opts.slowSingleChannel,
	}
}

// === Surface ===

// SurfaceSize returns the size of the visible surface.
func (d *Device) SurfaceSize() (width, height int) {
	return d.surface.width, d.surface.height
}

// ResizeSurface reallocates the surface buffer.
func (d *Device) ResizeSurface(width, height int) error {
	if d.destroyed {
		return ErrDestroyed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: surface %dx%d", ErrInvalidSize, width, height)
	}
	if d.surface.buf != nil && width == d.surface.width && height == d.surface.height {
		return nil
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "yuv_surface",
		Size:  uint64(width) * uint64(height) * 4, //nolint:gosec // validated positive
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create surface buffer: %w", err)
	}
	if d.surface.buf != nil {
		d.device.DestroyBuffer(d.surface.buf)
	}
	d.surface = surface{buf: buf, width: width, height: height}
	return nil
}

// === Programs ===

// CreateProgram builds a compute pipeline from the program's SPIR-V kernel.
//
// Binding 0 is the parameter block, bindings 1..N the samplers in location
// order and binding N+1 the render target.
func (d *Device) CreateProgram(desc *gpucore.ProgramDescriptor) (gpucore.ProgramID, error) {
	if d.destroyed {
		return gpucore.InvalidID, ErrDestroyed
	}
	if len(desc.SPIRV) == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: %s", ErrNoSPIRV, desc.Label)
	}
	if len(desc.Attributes)-1 > maxVaryings || len(desc.Samplers) > maxSamplers {
		return gpucore.InvalidID, fmt.Errorf("%w: %s has %d attributes and %d samplers",
			ErrTooManyBindings, desc.Label, len(desc.Attributes), len(desc.Samplers))
	}

	p := &program{
		label:      desc.Label,
		attributes: make(map[string]int, len(desc.Attributes)),
		samplers:   make(map[string]int, len(desc.Samplers)),
	}
	for i, name := range desc.Attributes {
		p.attributes[name] = i
	}
	for i, name := range desc.Samplers {
		p.samplers[name] = i
	}

	var err error
	p.module, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{SPIRV: desc.SPIRV},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create %s shader module: %w", desc.Label, err)
	}

	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(desc.Samplers)+2)
	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding: 0, Visibility: gputypes.ShaderStageCompute,
		Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	})
	for i := range desc.Samplers {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding: uint32(i + 1), Visibility: gputypes.ShaderStageCompute, //nolint:gosec // at most maxSamplers
			Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		})
	}
	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding: uint32(len(desc.Samplers) + 1), Visibility: gputypes.ShaderStageCompute, //nolint:gosec // at most maxSamplers+1
		Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
	})

	p.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: desc.Label + "_bind_layout", Entries: entries,
	})
	if err != nil {
		d.destroyProgram(p)
		return gpucore.InvalidID, fmt.Errorf("native: create %s bind group layout: %w", desc.Label, err)
	}
	p.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: desc.Label + "_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		d.destroyProgram(p)
		return gpucore.InvalidID, fmt.Errorf("native: create %s pipeline layout: %w", desc.Label, err)
	}
	p.pipeline, err = d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: desc.Label + "_pipeline", Layout: p.pipeLayout,
		Compute: hal.ComputeState{Module: p.module, EntryPoint: "main"},
	})
	if err != nil {
		d.destroyProgram(p)
		return gpucore.InvalidID, fmt.Errorf("native: create %s compute pipeline: %w", desc.Label, err)
	}

	id := gpucore.ProgramID(d.allocID())
	d.programs[id] = p
	return id, nil
}

// AttribLocation returns the location of a vertex attribute, or -1.
func (d *Device) AttribLocation(id gpucore.ProgramID, name string) int {
	p, ok := d.programs[id]
	if !ok {
		return -1
	}
	if loc, ok := p.attributes[name]; ok {
		return loc
	}
	return -1
}

// SamplerLocation returns the location of a sampler, or -1.
func (d *Device) SamplerLocation(id gpucore.ProgramID, name string) int {
	p, ok := d.programs[id]
	if !ok {
		return -1
	}
	if loc, ok := p.samplers[name]; ok {
		return loc
	}
	return -1
}

// DestroyProgram releases a program.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	if p, ok := d.programs[id]; ok {
		delete(d.programs, id)
		d.destroyProgram(p)
	}
}

func (d *Device) destroyProgram(p *program) {
	if p.pipeline != nil {
		d.device.DestroyComputePipeline(p.pipeline)
	}
	if p.pipeLayout != nil {
		d.device.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		d.device.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.module != nil {
		d.device.DestroyShaderModule(p.module)
	}
}

// === Buffers ===

// CreateBuffer creates an empty vertex buffer. Vertex data stays on the
// host: draws reduce it to the affine varyings of the parameter block.
func (d *Device) CreateBuffer(_ string) (gpucore.BufferID, error) {
	if d.destroyed {
		return gpucore.InvalidID, ErrDestroyed
	}
	id := gpucore.BufferID(d.allocID())
	d.buffers[id] = nil
	return id, nil
}

// WriteBuffer replaces the buffer contents.
func (d *Device) WriteBuffer(id gpucore.BufferID, data []gpucore.Vec2) error {
	if _, ok := d.buffers[id]; !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	d.buffers[id] = append(d.buffers[id][:0], data...)
	return nil
}

// DestroyBuffer releases a vertex buffer.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	delete(d.buffers, id)
}

// === Textures ===

// CreateTexture creates a texture handle without storage.
func (d *Device) CreateTexture(label string) (gpucore.TextureID, error) {
	if d.destroyed {
		return gpucore.InvalidID, ErrDestroyed
	}
	id := gpucore.TextureID(d.allocID())
	d.textures[id] = &texture{label: label}
	return id, nil
}

// TexImage (re)specifies the texture storage. The storage buffer is
// reallocated only when its size changes.
func (d *Device) TexImage(id gpucore.TextureID, desc *gpucore.TextureDescriptor, data []byte) error {
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", ErrUnknownResource, id)
	}
	if err := d.validateDescriptor(desc); err != nil {
		return err
	}
	if data != nil && len(data) < desc.DataSize() {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortData, t.label, desc.DataSize(), len(data))
	}

	oldSize := t.size()
	t.desc = *desc
	if t.buf == nil || oldSize != t.size() {
		buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: t.label,
			Size:  t.size(),
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			t.desc = gpucore.TextureDescriptor{}
			return fmt.Errorf("native: create %s storage: %w", t.label, err)
		}
		if t.buf != nil {
			d.device.DestroyBuffer(t.buf)
		}
		t.buf = buf
	}

	texels := desc.Width * desc.Height
	if data == nil {
		d.queue.WriteBuffer(t.buf, 0, make([]byte, texels*4))
		return nil
	}
	d.queue.WriteBuffer(t.buf, 0, packTexels(data, texels, gpucore.BytesPerTexel(desc.Format)))
	return nil
}

// TexSubImage replaces the full contents of the texture storage.
func (d *Device) TexSubImage(id gpucore.TextureID, data []byte) error {
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", ErrUnknownResource, id)
	}
	if t.buf == nil {
		return fmt.Errorf("%w: %s", ErrNotSpecified, t.label)
	}
	if len(data) < t.desc.DataSize() {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortData, t.label, t.desc.DataSize(), len(data))
	}
	texels := t.desc.Width * t.desc.Height
	d.queue.WriteBuffer(t.buf, 0, packTexels(data, texels, gpucore.BytesPerTexel(t.desc.Format)))
	return nil
}

// DestroyTexture releases a texture.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	if t, ok := d.textures[id]; ok {
		delete(d.textures, id)
		if t.buf != nil {
			d.device.DestroyBuffer(t.buf)
		}
	}
}

func (d *Device) validateDescriptor(desc *gpucore.TextureDescriptor) error {
	switch desc.Format {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatRGBA8Unorm:
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, desc.Format)
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return fmt.Errorf("%w: texture %dx%d", ErrInvalidSize, desc.Width, desc.Height)
	}
	if m := d.maxTextureSize; m > 0 && (desc.Width > m || desc.Height > m) {
		return fmt.Errorf("%w: texture %dx%d exceeds %d", ErrInvalidSize, desc.Width, desc.Height, m)
	}
	return nil
}

// === Framebuffers ===

// CreateFramebuffer creates a render target backed by an RGBA texture.
// The texture's storage is resolved at draw time, so respecifying it keeps
// the framebuffer valid.
func (d *Device) CreateFramebuffer(_ string, color gpucore.TextureID) (gpucore.FramebufferID, error) {
	if d.destroyed {
		return gpucore.InvalidID, ErrDestroyed
	}
	if _, ok := d.textures[color]; !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: texture %d", ErrUnknownResource, color)
	}
	id := gpucore.FramebufferID(d.allocID())
	d.framebuffers[id] = color
	return id, nil
}

// DestroyFramebuffer releases a framebuffer.
func (d *Device) DestroyFramebuffer(id gpucore.FramebufferID) {
	delete(d.framebuffers, id)
}

// target resolves a framebuffer to its storage buffer and size.
func (d *Device) target(id gpucore.FramebufferID) (hal.Buffer, int, int, error) {
	if id == gpucore.DefaultFramebuffer {
		return d.surface.buf, d.surface.width, d.surface.height, nil
	}
	texID, ok := d.framebuffers[id]
	if !ok {
		return nil, 0, 0, fmt.Errorf("%w: framebuffer %d", ErrUnknownResource, id)
	}
	t, ok := d.textures[texID]
	if !ok {
		return nil, 0, 0, fmt.Errorf("%w: framebuffer %d texture %d", ErrUnknownResource, id, texID)
	}
	if t.buf == nil {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrNotSpecified, t.label)
	}
	if t.desc.Format != gputypes.TextureFormatRGBA8Unorm {
		return nil, 0, 0, fmt.Errorf("%w: render target %s", ErrUnsupportedFormat, t.label)
	}
	return t.buf, t.desc.Width, t.desc.Height, nil
}

// === Rendering ===

// Clear fills the whole target with a color.
func (d *Device) Clear(target gpucore.FramebufferID, c gpucore.Color) error {
	if d.destroyed {
		return ErrDestroyed
	}
	buf, w, h, err := d.target(target)
	if err != nil {
		return err
	}
	d.queue.WriteBuffer(buf, 0, fillWords(c, w*h))
	return nil
}

// Draw dispatches the program's kernel over the viewport and waits for it.
func (d *Device) Draw(cmd *gpucore.DrawCommand) error {
	if d.destroyed {
		return ErrDestroyed
	}
	p, ok := d.programs[cmd.Program]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrUnknownResource, cmd.Program)
	}
	targetBuf, tw, th, err := d.target(cmd.Target)
	if err != nil {
		return err
	}
	vp := cmd.Viewport
	if vp.Width <= 0 || vp.Height <= 0 {
		return nil
	}

	params, err := d.drawParams(p, cmd, tw, th)
	if err != nil {
		return err
	}
	samplers, err := d.samplerBuffers(p, cmd, &params)
	if err != nil {
		return err
	}

	paramBytes := params.bytes()
	ub, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: p.label + "_params", Size: drawParamsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create uniform buffer: %w", err)
	}
	defer d.device.DestroyBuffer(ub)
	d.queue.WriteBuffer(ub, 0, paramBytes)

	entries := make([]gputypes.BindGroupEntry, 0, len(samplers)+2)
	entries = append(entries, gputypes.BindGroupEntry{
		Binding: 0, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: drawParamsSize},
	})
	for i, t := range samplers {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i + 1), //nolint:gosec // at most maxSamplers
			Resource: gputypes.BufferBinding{Buffer: t.buf.NativeHandle(), Offset: 0, Size: t.size()},
		})
	}
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  uint32(len(samplers) + 1), //nolint:gosec // at most maxSamplers+1
		Resource: gputypes.BufferBinding{Buffer: targetBuf.NativeHandle(), Offset: 0, Size: uint64(tw) * uint64(th) * 4}, //nolint:gosec // validated positive
	})
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: p.label + "_bind", Layout: p.bindLayout, Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("native: create bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bg)

	return d.submit(p.label, func(encoder hal.CommandEncoder) {
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: p.label + "_pass"})
		pass.SetPipeline(p.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch((uint32(vp.Width)+7)/8, (uint32(vp.Height)+7)/8, 1) //nolint:gosec // validated positive
		pass.End()
	})
}

// drawParams solves the varyings of a draw.
func (d *Device) drawParams(p *program, cmd *gpucore.DrawCommand, tw, th int) (drawParams, error) {
	params := drawParams{targetWidth: tw, targetHeight: th, viewport: cmd.Viewport}

	var positions []gpucore.Vec2
	varyings := make(map[int][]gpucore.Vec2, len(cmd.Attributes))
	for _, a := range cmd.Attributes {
		data, ok := d.buffers[a.Buffer]
		if !ok {
			return params, fmt.Errorf("%w: buffer %d", ErrUnknownResource, a.Buffer)
		}
		if len(data) < cmd.VertexCount {
			return params, fmt.Errorf("%w: buffer %d has %d vertices, draw needs %d",
				ErrShortData, a.Buffer, len(data), cmd.VertexCount)
		}
		if a.Location == 0 {
			positions = data
			continue
		}
		varyings[a.Location] = data
	}
	if cmd.VertexCount < 6 || !coversViewport(positions) {
		return params, fmt.Errorf("%w: %s", ErrUnsupportedDraw, p.label)
	}

	pos := [3]gpucore.Vec2{positions[0], positions[1], positions[2]}
	for loc, data := range varyings {
		if loc < 1 || loc > maxVaryings {
			return params, fmt.Errorf("%w: attribute location %d", ErrTooManyBindings, loc)
		}
		v, ok := solveAffine(pos, [3]gpucore.Vec2{data[0], data[1], data[2]})
		if !ok {
			return params, fmt.Errorf("%w: degenerate triangle", ErrUnsupportedDraw)
		}
		params.varyings[loc-1] = v
	}
	return params, nil
}

// samplerBuffers orders the bound textures by sampler location and records
// their sizes in the parameter block.
func (d *Device) samplerBuffers(p *program, cmd *gpucore.DrawCommand, params *drawParams) ([]*texture, error) {
	samplers := make([]*texture, len(p.samplers))
	for _, b := range cmd.Textures {
		if b.Location < 0 || b.Location >= len(samplers) {
			return nil, fmt.Errorf("%w: sampler location %d", ErrTooManyBindings, b.Location)
		}
		t, ok := d.textures[b.Texture]
		if !ok {
			return nil, fmt.Errorf("%w: texture %d", ErrUnknownResource, b.Texture)
		}
		if t.buf == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotSpecified, t.label)
		}
		samplers[b.Location] = t
		params.textures[b.Location] = textureInfo{width: t.desc.Width, height: t.desc.Height, filter: t.desc.Filter}
	}
	for i, t := range samplers {
		if t == nil {
			return nil, fmt.Errorf("%w: %s sampler %d unbound", ErrNotSpecified, p.label, i)
		}
	}
	return samplers, nil
}

// submit records one command buffer, submits it and waits on a fence.
func (d *Device) submit(label string, record func(hal.CommandEncoder)) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}
	record(encoder)
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("native: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	fenceOK, err := d.device.Wait(fence, 1, d.opts.fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("native: wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// ReadPixels copies an RGBA rectangle of the surface, rows bottom-up.
func (d *Device) ReadPixels(x, y, width, height int, dst []byte) error {
	if d.destroyed {
		return ErrDestroyed
	}
	sw, sh := d.surface.width, d.surface.height
	if x < 0 || y < 0 || width <= 0 || height <= 0 || x+width > sw || y+height > sh {
		return fmt.Errorf("%w: read %dx%d at (%d,%d) from %dx%d surface",
			ErrInvalidSize, width, height, x, y, sw, sh)
	}
	if len(dst) < width*height*4 {
		return fmt.Errorf("%w: read buffer needs %d bytes, got %d", ErrShortData, width*height*4, len(dst))
	}

	// Copy the covered rows, then pick the columns on the host.
	rowBytes := uint64(sw) * 4        //nolint:gosec // validated positive
	size := rowBytes * uint64(height) //nolint:gosec // validated positive
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "yuv_staging", Size: size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	err = d.submit("yuv_readback", func(encoder hal.CommandEncoder) {
		encoder.CopyBufferToBuffer(d.surface.buf, staging, []hal.BufferCopy{
			{SrcOffset: uint64(y) * rowBytes, DstOffset: 0, Size: size}, //nolint:gosec // validated positive
		})
	})
	if err != nil {
		return err
	}
	rows := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, rows); err != nil {
		return fmt.Errorf("native: readback: %w", err)
	}
	out := width * 4
	for r := 0; r < height; r++ {
		src := r*sw*4 + x*4
		copy(dst[r*out:(r+1)*out], rows[src:src+out])
	}
	return nil
}

// === Lifecycle ===

// Destroy releases every resource. A shared device is left to its owner.
func (d *Device) Destroy() {
	if d.destroyed {
		return
	}
	for id := range d.programs {
		d.DestroyProgram(id)
	}
	for id := range d.textures {
		d.DestroyTexture(id)
	}
	clear(d.framebuffers)
	clear(d.buffers)
	if d.surface.buf != nil {
		d.device.DestroyBuffer(d.surface.buf)
		d.surface.buf = nil
	}
	if !d.external && d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
	d.destroyed = true
}
