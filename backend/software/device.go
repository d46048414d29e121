package software

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/yuv/gpucore"
	"github.com/gogpu/yuv/internal/parallel"
)

// Device errors.
var (
	// ErrDestroyed is returned when operating on a destroyed device.
	ErrDestroyed = errors.New("software: device has been destroyed")

	// ErrUnknownResource is returned for IDs the device did not create.
	ErrUnknownResource = errors.New("software: unknown resource")

	// ErrUnsupportedFormat is returned for texture formats other than R8 and RGBA8.
	ErrUnsupportedFormat = errors.New("software: unsupported texture format")

	// ErrInvalidSize is returned for non-positive or oversized dimensions.
	ErrInvalidSize = errors.New("software: invalid size")

	// ErrShortData is returned when an upload carries fewer bytes than the storage needs.
	ErrShortData = errors.New("software: upload data too short")

	// ErrNotSpecified is returned when a texture is used before TexImage.
	ErrNotSpecified = errors.New("software: texture storage not specified")

	// ErrNoFragment is returned when a program has no Go fragment stage.
	ErrNoFragment = errors.New("software: program has no fragment stage")
)

// Name is the device identifier reported in Capabilities.
const Name = "software"

// Device is a CPU implementation of [gpucore.Device].
//
// It rasterizes triangles with pixel-center sampling and runs each
// program's Go fragment stage. Results match a GL implementation with
// clamp-to-edge sampling and round-to-nearest 8-bit output.
type Device struct {
	opts options

	surface *pixbuf

	programs     map[gpucore.ProgramID]*program
	buffers      map[gpucore.BufferID][]gpucore.Vec2
	textures     map[gpucore.TextureID]*texture
	framebuffers map[gpucore.FramebufferID]gpucore.TextureID

	// pool shades row bands of large draws. Created on first use.
	pool *parallel.Pool

	nextID    uint64
	destroyed bool
}

var _ gpucore.Device = (*Device)(nil)

// program is a linked program.
type program struct {
	label      string
	attributes map[string]int
	samplers   map[string]int
	fragment   gpucore.FragmentFunc
}

// New creates a software device with a 1×1 surface unless
// [WithSurfaceSize] says otherwise.
func New(opts ...Option) *Device {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Device{
		opts:         o,
		surface:      newPixbuf(o.width, o.height),
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

// Capabilities returns the device limits.
func (d *Device) Capabilities() gpucore.Capabilities {
	return gpucore.Capabilities{
		Name:                    Name,
		ShaderFormat:            gpucore.ShaderFormatNone,
		MaxTextureSize:          d.opts.maxTextureSize,
		SlowSingleChannelUpload: d.opts.slowSingleChannel,
	}
}

// SurfaceSize returns the size of the visible surface.
func (d *Device) SurfaceSize() (width, height int) {
	return d.surface.width, d.surface.height
}

// ResizeSurface reallocates the visible surface.
func (d *Device) ResizeSurface(width, height int) error {
	if d.destroyed {
		return ErrDestroyed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: surface %dx%d", ErrInvalidSize, width, height)
	}
	if width != d.surface.width || height != d.surface.height {
		d.surface = newPixbuf(width, height)
	}
	return nil
}

// CreateProgram links a program from its Go fragment stage.
func (d *Device) CreateProgram(desc *gpucore.ProgramDescriptor) (gpucore.ProgramID, error) {
	if d.destroyed {
		return gpucore.InvalidID, ErrDestroyed
	}
	if desc.Fragment == nil {
		return gpucore.InvalidID, fmt.Errorf("%w: %s", ErrNoFragment, desc.Label)
	}
	p := &program{
		label:      desc.Label,
		attributes: make(map[string]int, len(desc.Attributes)),
		samplers:   make(map[string]int, len(desc.Samplers)),
		fragment:   desc.Fragment,
	}
	for i, name := range desc.Attributes {
		p.attributes[name] = i
	}
	for i, name := range desc.Samplers {
		p.samplers[name] = i
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
	loc, ok := p.attributes[name]
	if !ok {
		return -1
	}
	return loc
}

// SamplerLocation returns the location of a sampler, or -1.
func (d *Device) SamplerLocation(id gpucore.ProgramID, name string) int {
	p, ok := d.programs[id]
	if !ok {
		return -1
	}
	loc, ok := p.samplers[name]
	if !ok {
		return -1
	}
	return loc
}

// DestroyProgram releases a program.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	delete(d.programs, id)
}

// CreateBuffer creates an empty vertex buffer.
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

// CreateTexture creates a texture handle without storage.
func (d *Device) CreateTexture(label string) (gpucore.TextureID, error) {
	if d.destroyed {
		return gpucore.InvalidID, ErrDestroyed
	}
	id := gpucore.TextureID(d.allocID())
	d.textures[id] = &texture{label: label}
	return id, nil
}

// TexImage (re)specifies the texture storage.
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
	t.specify(desc)
	if data != nil {
		t.upload(data)
	}
	return nil
}

// TexSubImage replaces the full contents of the texture storage.
func (d *Device) TexSubImage(id gpucore.TextureID, data []byte) error {
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", ErrUnknownResource, id)
	}
	if t.img == nil {
		return fmt.Errorf("%w: %s", ErrNotSpecified, t.label)
	}
	if len(data) < t.desc.DataSize() {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortData, t.label, t.desc.DataSize(), len(data))
	}
	t.upload(data)
	return nil
}

// DestroyTexture releases a texture.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	delete(d.textures, id)
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
	if m := d.opts.maxTextureSize; m > 0 && (desc.Width > m || desc.Height > m) {
		return fmt.Errorf("%w: texture %dx%d exceeds %d", ErrInvalidSize, desc.Width, desc.Height, m)
	}
	return nil
}

// CreateFramebuffer creates a render target backed by an RGBA texture.
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

// renderTarget resolves a framebuffer to the image it renders into.
func (d *Device) renderTarget(id gpucore.FramebufferID) (*pixbuf, error) {
	if id == gpucore.DefaultFramebuffer {
		return d.surface, nil
	}
	texID, ok := d.framebuffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: framebuffer %d", ErrUnknownResource, id)
	}
	t, ok := d.textures[texID]
	if !ok {
		return nil, fmt.Errorf("%w: framebuffer %d texture %d", ErrUnknownResource, id, texID)
	}
	if t.img == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotSpecified, t.label)
	}
	if t.desc.Format != gputypes.TextureFormatRGBA8Unorm {
		return nil, fmt.Errorf("%w: render target %s", ErrUnsupportedFormat, t.label)
	}
	return t.img, nil
}

// Clear fills the whole target with a color.
func (d *Device) Clear(target gpucore.FramebufferID, c gpucore.Color) error {
	if d.destroyed {
		return ErrDestroyed
	}
	img, err := d.renderTarget(target)
	if err != nil {
		return err
	}
	img.fill(c)
	return nil
}

// ReadPixels copies an RGBA rectangle of the surface, rows bottom-up.
func (d *Device) ReadPixels(x, y, width, height int, dst []byte) error {
	if d.destroyed {
		return ErrDestroyed
	}
	s := d.surface
	if x < 0 || y < 0 || width <= 0 || height <= 0 || x+width > s.width || y+height > s.height {
		return fmt.Errorf("%w: read %dx%d at (%d,%d) from %dx%d surface",
			ErrInvalidSize, width, height, x, y, s.width, s.height)
	}
	if len(dst) < width*height*4 {
		return fmt.Errorf("%w: read buffer needs %d bytes, got %d", ErrShortData, width*height*4, len(dst))
	}
	rowBytes := width * 4
	for row := 0; row < height; row++ {
		src := ((y+row)*s.width + x) * 4
		copy(dst[row*rowBytes:(row+1)*rowBytes], s.pix[src:src+rowBytes])
	}
	return nil
}

// Destroy releases every resource.
func (d *Device) Destroy() {
	d.programs = make(map[gpucore.ProgramID]*program)
	d.buffers = make(map[gpucore.BufferID][]gpucore.Vec2)
	d.textures = make(map[gpucore.TextureID]*texture)
	d.framebuffers = make(map[gpucore.FramebufferID]gpucore.TextureID)
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
	d.destroyed = true
}

// ResourceCount returns the number of live programs, buffers, textures
// and framebuffers.
func (d *Device) ResourceCount() int {
	return len(d.programs) + len(d.buffers) + len(d.textures) + len(d.framebuffers)
}
