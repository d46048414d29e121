package yuv

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/gogpu/yuv/gpucore"
)

// FrameSink renders planar YUV 4:2:0 frames onto a device surface.
//
// GPU objects are created on the first frame and reused for every following
// frame with the same output size. A size change resizes the surface,
// notifies the owner and discards all cached textures and framebuffers.
//
// A FrameSink is not safe for concurrent use. Every call completes its GPU
// work before returning and never retains the frame's plane buffers.
type FrameSink struct {
	id     string
	device gpucore.Device
	notify ResizeFunc
	stripe bool

	programs *ProgramCache
	textures *TextureCache
	masks    *StripeMaskGenerator

	convert *Program
	unpack  *Program

	quad         gpucore.BufferID
	unpackCoords gpucore.BufferID
	lumaCoords   gpucore.BufferID
	chromaCoords gpucore.BufferID

	width, height int
	layout        frameLayout
	frames        uint64

	// scratch holds rows repacked to an aligned stride, per plane.
	scratch [3][]byte

	initialized bool
	broken      error
	closed      bool
}

// NewFrameSink creates a sink drawing to the device surface and clears it.
// The device stays owned by the caller.
func NewFrameSink(device gpucore.Device, opts ...Option) (*FrameSink, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	stripe := ProbeStripeWorkaround(device)
	if o.stripe != nil {
		stripe = *o.stripe
	}

	s := &FrameSink{
		id:       uuid.NewString(),
		device:   device,
		notify:   o.notify,
		stripe:   stripe,
		programs: NewProgramCache(device, o.compiler),
		textures: NewTextureCache(device),
		masks:    NewStripeMaskGenerator(),
	}
	if err := s.Clear(); err != nil {
		return nil, err
	}

	Logger().Info("yuv: frame sink created",
		"sink", s.id, "device", device.Capabilities().Name, "stripe", stripe)
	return s, nil
}

// ID returns the sink instance identifier used in log records.
func (s *FrameSink) ID() string { return s.id }

// StripeWorkaround reports whether the packed upload path is active.
func (s *FrameSink) StripeWorkaround() bool { return s.stripe }

// Size returns the output size of the last drawn frame, or zeros.
func (s *FrameSink) Size() (width, height int) { return s.width, s.height }

// Frames returns the number of frames drawn.
func (s *FrameSink) Frames() uint64 { return s.frames }

// TextureStats returns the texture cache counters.
func (s *FrameSink) TextureStats() TextureStats { return s.textures.Stats() }

func (s *FrameSink) usable() error {
	if s.closed {
		return ErrSinkClosed
	}
	if s.broken != nil {
		return fmt.Errorf("%w: %w", ErrSinkBroken, s.broken)
	}
	return nil
}

// init links the programs and creates the static geometry.
func (s *FrameSink) init() error {
	var err error
	if s.convert, err = s.programs.Get(colorConversionProgram); err != nil {
		return err
	}
	if s.stripe {
		if s.unpack, err = s.programs.Get(stripeUnpackProgram); err != nil {
			return err
		}
	}

	buffers := []struct {
		id   *gpucore.BufferID
		name string
		data []gpucore.Vec2
	}{
		{&s.quad, "quad", quadVertices},
		{&s.unpackCoords, "unpack_texcoord", unpackTexCoords},
		{&s.lumaCoords, "luma_texcoord", nil},
		{&s.chromaCoords, "chroma_texcoord", nil},
	}
	for _, b := range buffers {
		id, err := s.device.CreateBuffer(b.name)
		if err != nil {
			return fmt.Errorf("yuv: create %s buffer: %w", b.name, err)
		}
		*b.id = id
		if b.data != nil {
			if err := s.device.WriteBuffer(id, b.data); err != nil {
				return fmt.Errorf("yuv: write %s buffer: %w", b.name, err)
			}
		}
	}

	s.initialized = true
	return nil
}

// DrawFrame uploads the frame's planes and draws the converted picture.
//
// Frames with inconsistent geometry fail with ErrInvalidFrameGeometry before
// any GPU work. If a program fails to build, the sink is unusable and this
// and every later call return ErrSinkBroken.
func (s *FrameSink) DrawFrame(f *Frame) error {
	if err := s.usable(); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}

	if !s.initialized {
		if err := s.init(); err != nil {
			s.broken = err
			Logger().Warn("yuv: sink unusable", "sink", s.id, "err", err)
			return fmt.Errorf("%w: %w", ErrSinkBroken, err)
		}
	}

	if f.Width != s.width || f.Height != s.height {
		if err := s.changeGeometry(f.Width, f.Height); err != nil {
			return err
		}
	}
	if layout := layoutOf(f, s.rowAlign()); layout != s.layout {
		if err := s.writeTexCoords(layout); err != nil {
			return err
		}
	}

	planes := s.planes(f)
	for i := range planes {
		if err := s.upload(&planes[i]); err != nil {
			return err
		}
	}
	if s.stripe {
		// Unpack after all uploads so the transfers are queued together.
		for i := range planes {
			if err := s.unpackPlane(&planes[i]); err != nil {
				return err
			}
		}
	}
	if err := s.draw(planes); err != nil {
		return err
	}
	s.frames++
	return nil
}

// changeGeometry resizes the surface, notifies the owner and drops every
// texture built for the previous geometry.
func (s *FrameSink) changeGeometry(width, height int) error {
	if err := s.device.ResizeSurface(width, height); err != nil {
		return fmt.Errorf("yuv: resize surface to %dx%d: %w", width, height, err)
	}
	Logger().Info("yuv: geometry changed", "sink", s.id,
		"from", fmt.Sprintf("%dx%d", s.width, s.height),
		"to", fmt.Sprintf("%dx%d", width, height))

	s.textures.Invalidate()
	s.layout = frameLayout{}

	if s.notify != nil {
		s.notify(width, height)
	}
	// The size is recorded only once the surface is clear, so a failed
	// clear is retried by the next frame.
	if err := s.Clear(); err != nil {
		s.width, s.height = 0, 0
		return err
	}
	s.width, s.height = width, height
	return nil
}

func (s *FrameSink) writeTexCoords(layout frameLayout) error {
	if err := s.device.WriteBuffer(s.lumaCoords, layout.lumaRect().vertices()); err != nil {
		return fmt.Errorf("yuv: write luma texcoords: %w", err)
	}
	if err := s.device.WriteBuffer(s.chromaCoords, layout.chromaRect().vertices()); err != nil {
		return fmt.Errorf("yuv: write chroma texcoords: %w", err)
	}
	s.layout = layout
	return nil
}

// planeUpload is one plane on its way to the GPU. stride is the texture
// row width, which may exceed the frame's stride in packed mode.
type planeUpload struct {
	name    string
	sampler string
	data    []byte
	stride  int
	rows    int
	texture gpucore.TextureID
}

// rowAlign returns the texel row alignment of the upload path. Packed rows
// must fill whole RGBA texels.
func (s *FrameSink) rowAlign() int {
	if s.stripe {
		return 4
	}
	return 1
}

func (p *planeUpload) packedName() string { return p.name + "_packed" }
func (p *planeUpload) stripeName() string { return p.name + "_stripe" }

func (s *FrameSink) planes(f *Frame) [3]planeUpload {
	chromaRows := f.ChromaHeight()
	align := s.rowAlign()
	planes := [3]planeUpload{
		{name: "y", sampler: samplerY},
		{name: "cb", sampler: samplerCb},
		{name: "cr", sampler: samplerCr},
	}
	sources := [3]struct {
		plane Plane
		rows  int
	}{{f.Y, f.Height}, {f.U, chromaRows}, {f.V, chromaRows}}

	for i, src := range sources {
		p := &planes[i]
		p.rows = src.rows
		p.stride = alignUp(src.plane.Stride, align)
		if p.stride == src.plane.Stride {
			p.data = src.plane.Bytes[:p.stride*p.rows]
			continue
		}
		s.scratch[i] = repackRows(s.scratch[i], src.plane.Bytes, src.plane.Stride, p.stride, p.rows)
		p.data = s.scratch[i]
	}
	return planes
}

func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}

// repackRows copies rows to a wider stride, repeating each row's last byte
// into the padding so filtering at the edge matches clamp-to-edge.
func repackRows(dst, src []byte, srcStride, dstStride, rows int) []byte {
	need := dstStride * rows
	if cap(dst) < need {
		dst = make([]byte, need)
	}
	dst = dst[:need]
	for r := 0; r < rows; r++ {
		row := dst[r*dstStride : (r+1)*dstStride]
		n := copy(row, src[r*srcStride:(r+1)*srcStride])
		last := row[n-1]
		for i := n; i < dstStride; i++ {
			row[i] = last
		}
	}
	return dst
}

func (s *FrameSink) upload(p *planeUpload) error {
	data := p.data
	if !s.stripe {
		id, err := s.textures.Upload(p.name, gpucore.TextureDescriptor{
			Width:  p.stride,
			Height: p.rows,
			Format: gputypes.TextureFormatR8Unorm,
			Filter: gpucore.FilterLinear,
		}, data)
		if err != nil {
			return fmt.Errorf("yuv: upload %s plane: %w", p.name, err)
		}
		p.texture = id
		return nil
	}

	if _, err := s.textures.Upload(p.packedName(), gpucore.TextureDescriptor{
		Width:  p.stride / 4,
		Height: p.rows,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Filter: gpucore.FilterNearest,
	}, data); err != nil {
		return fmt.Errorf("yuv: upload packed %s plane: %w", p.name, err)
	}
	if _, err := s.textures.UploadOnce(p.stripeName(), gpucore.TextureDescriptor{
		Width:  p.stride,
		Height: 1,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Filter: gpucore.FilterNearest,
	}, s.masks.Mask(p.stride)); err != nil {
		return fmt.Errorf("yuv: upload %s stripe mask: %w", p.name, err)
	}
	return nil
}

// unpackPlane expands the packed plane into a full-width texture through
// an offscreen framebuffer.
func (s *FrameSink) unpackPlane(p *planeUpload) error {
	out, err := s.textures.Allocate(p.name, gpucore.TextureDescriptor{
		Width:  p.stride,
		Height: p.rows,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Filter: gpucore.FilterLinear,
	})
	if err != nil {
		return fmt.Errorf("yuv: unpack %s plane: %w", p.name, err)
	}
	fb, err := s.textures.Framebuffer(p.name)
	if err != nil {
		return fmt.Errorf("yuv: unpack %s plane: %w", p.name, err)
	}
	packed, _ := s.textures.Texture(p.packedName())
	stripe, _ := s.textures.Texture(p.stripeName())

	err = s.device.Draw(&gpucore.DrawCommand{
		Program:  s.unpack.ID,
		Target:   fb,
		Viewport: gpucore.Viewport{Width: p.stride, Height: p.rows},
		Attributes: []gpucore.VertexAttribute{
			{Location: s.unpack.Attrib(attribPosition), Buffer: s.quad},
			{Location: s.unpack.Attrib(attribTexCoord), Buffer: s.unpackCoords},
		},
		Textures: []gpucore.TextureBinding{
			{Location: s.unpack.Sampler(samplerPacked), Texture: packed},
			{Location: s.unpack.Sampler(samplerStripe), Texture: stripe},
		},
		VertexCount: quadVertexCount,
	})
	if err != nil {
		return fmt.Errorf("yuv: unpack %s plane: %w", p.name, err)
	}
	p.texture = out
	return nil
}

// draw runs the color conversion over the whole surface.
func (s *FrameSink) draw(planes [3]planeUpload) error {
	width, height := s.device.SurfaceSize()
	textures := make([]gpucore.TextureBinding, len(planes))
	for i := range planes {
		textures[i] = gpucore.TextureBinding{
			Location: s.convert.Sampler(planes[i].sampler),
			Texture:  planes[i].texture,
		}
	}
	err := s.device.Draw(&gpucore.DrawCommand{
		Program:  s.convert.ID,
		Target:   gpucore.DefaultFramebuffer,
		Viewport: gpucore.Viewport{Width: width, Height: height},
		Attributes: []gpucore.VertexAttribute{
			{Location: s.convert.Attrib(attribPosition), Buffer: s.quad},
			{Location: s.convert.Attrib(attribLumaTexCoord), Buffer: s.lumaCoords},
			{Location: s.convert.Attrib(attribChromaTexCoord), Buffer: s.chromaCoords},
		},
		Textures:    textures,
		VertexCount: quadVertexCount,
	})
	if err != nil {
		return fmt.Errorf("yuv: draw frame: %w", err)
	}
	return nil
}

// Clear fills the surface with transparent black.
func (s *FrameSink) Clear() error {
	if err := s.usable(); err != nil {
		return err
	}
	if err := s.device.Clear(gpucore.DefaultFramebuffer, gpucore.Color{}); err != nil {
		return fmt.Errorf("yuv: clear: %w", err)
	}
	return nil
}

// CropImage reads back a rectangle of the rendered picture, given in
// top-left output coordinates, as a tightly packed RGBA image. When target
// is non-nil the crop is also drawn into it, scaled to its bounds.
func (s *FrameSink) CropImage(target draw.Image, rect image.Rectangle) (*image.RGBA, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	sw, sh := s.device.SurfaceSize()
	if rect.Empty() || !rect.In(image.Rect(0, 0, sw, sh)) {
		return nil, fmt.Errorf("%w: %v outside %dx%d", ErrInvalidCropRect, rect, sw, sh)
	}

	w, h := rect.Dx(), rect.Dy()
	buf := make([]byte, w*h*4)
	// Device rows run bottom-up.
	if err := s.device.ReadPixels(rect.Min.X, sh-rect.Max.Y, w, h, buf); err != nil {
		return nil, fmt.Errorf("yuv: read pixels: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rowBytes := w * 4
	for row := 0; row < h; row++ {
		src := buf[(h-1-row)*rowBytes : (h-row)*rowBytes]
		copy(img.Pix[row*img.Stride:row*img.Stride+rowBytes], src)
	}

	if target != nil {
		tb := target.Bounds()
		if tb.Dx() == w && tb.Dy() == h {
			draw.Copy(target, tb.Min, img, img.Bounds(), draw.Src, nil)
		} else {
			draw.ApproxBiLinear.Scale(target, tb, img, img.Bounds(), draw.Src, nil)
		}
	}
	return img, nil
}

// Snapshot reads back the whole surface.
func (s *FrameSink) Snapshot() (*image.RGBA, error) {
	w, h := s.device.SurfaceSize()
	return s.CropImage(nil, image.Rect(0, 0, w, h))
}

// Close releases every GPU resource the sink created. The device itself is
// left to its owner. Close is idempotent.
func (s *FrameSink) Close() error {
	if s.closed {
		return nil
	}
	s.textures.Invalidate()
	for _, id := range []gpucore.BufferID{s.quad, s.unpackCoords, s.lumaCoords, s.chromaCoords} {
		if id != gpucore.InvalidID {
			s.device.DestroyBuffer(id)
		}
	}
	s.programs.Destroy()
	s.closed = true
	Logger().Info("yuv: frame sink closed", "sink", s.id, "frames", s.frames)
	return nil
}
