package software

import (
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/yuv/gpucore"
)

// pixbuf is RGBA8 storage with row 0 at the bottom (surface) or at t = 0
// (texture).
type pixbuf struct {
	width  int
	height int
	pix    []byte
}

func newPixbuf(width, height int) *pixbuf {
	return &pixbuf{
		width:  width,
		height: height,
		pix:    make([]byte, width*height*4),
	}
}

func (p *pixbuf) fill(c gpucore.Color) {
	r, g, b, a := quantize(c.R), quantize(c.G), quantize(c.B), quantize(c.A)
	for i := 0; i < len(p.pix); i += 4 {
		p.pix[i+0] = r
		p.pix[i+1] = g
		p.pix[i+2] = b
		p.pix[i+3] = a
	}
}

func (p *pixbuf) set(x, y int, c gpucore.Color) {
	i := (y*p.width + x) * 4
	p.pix[i+0] = quantize(c.R)
	p.pix[i+1] = quantize(c.G)
	p.pix[i+2] = quantize(c.B)
	p.pix[i+3] = quantize(c.A)
}

// texel returns the texel at (x, y) with clamp-to-edge addressing.
func (p *pixbuf) texel(x, y int) gpucore.Color {
	x = clampInt(x, 0, p.width-1)
	y = clampInt(y, 0, p.height-1)
	i := (y*p.width + x) * 4
	return gpucore.Color{
		R: float32(p.pix[i+0]) / 255,
		G: float32(p.pix[i+1]) / 255,
		B: float32(p.pix[i+2]) / 255,
		A: float32(p.pix[i+3]) / 255,
	}
}

// texture is a texture handle and its storage. Single-channel textures are
// stored expanded to (L, L, L, 1), the way luminance textures sample.
type texture struct {
	label string
	desc  gpucore.TextureDescriptor
	img   *pixbuf
}

func (t *texture) specify(desc *gpucore.TextureDescriptor) {
	t.desc = *desc
	if t.img == nil || t.img.width != desc.Width || t.img.height != desc.Height {
		t.img = newPixbuf(desc.Width, desc.Height)
	} else {
		clear(t.img.pix)
	}
	if desc.Format == gputypes.TextureFormatR8Unorm {
		for i := 3; i < len(t.img.pix); i += 4 {
			t.img.pix[i] = 0xff
		}
	}
}

func (t *texture) upload(data []byte) {
	if t.desc.Format == gputypes.TextureFormatR8Unorm {
		n := t.desc.Width * t.desc.Height
		for i := 0; i < n; i++ {
			l := data[i]
			t.img.pix[i*4+0] = l
			t.img.pix[i*4+1] = l
			t.img.pix[i*4+2] = l
			t.img.pix[i*4+3] = 0xff
		}
		return
	}
	copy(t.img.pix, data[:t.desc.DataSize()])
}

// Sample implements gpucore.Sampler.
func (t *texture) Sample(s, tc float32) gpucore.Color {
	img := t.img
	u := float64(s) * float64(img.width)
	v := float64(tc) * float64(img.height)
	if t.desc.Filter == gpucore.FilterNearest {
		return img.texel(int(math.Floor(u)), int(math.Floor(v)))
	}

	u -= 0.5
	v -= 0.5
	x0 := math.Floor(u)
	y0 := math.Floor(v)
	fx := float32(u - x0)
	fy := float32(v - y0)
	ix, iy := int(x0), int(y0)

	c00 := img.texel(ix, iy)
	c10 := img.texel(ix+1, iy)
	c01 := img.texel(ix, iy+1)
	c11 := img.texel(ix+1, iy+1)
	return lerpColor(lerpColor(c00, c10, fx), lerpColor(c01, c11, fx), fy)
}

func lerpColor(a, b gpucore.Color, t float32) gpucore.Color {
	return gpucore.Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}

// quantize converts a normalized channel to 8 bits, rounding to nearest.
func quantize(v float32) uint8 {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*255 + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
