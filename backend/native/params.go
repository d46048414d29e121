// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/yuv/gpucore"
)

// Kernel parameter block limits.
const (
	maxVaryings = 2
	maxSamplers = 3

	// drawParamsSize is the size of DrawParams in the kernels:
	// dest, viewport, two varyings with their t gradient, three texture infos.
	drawParamsSize = 9 * 16
)

// affineVarying is an attribute expressed over the viewport:
// value(s, t) = origin + ds*s + dt*t with (s, t) in [0, 1].
type affineVarying struct {
	origin, ds, dt gpucore.Vec2
}

// solveAffine fits value = A + B*x + C*y through three clip-space vertices
// and re-expresses it over the unit viewport square. ok is false for a
// degenerate triangle.
func solveAffine(pos, val [3]gpucore.Vec2) (v affineVarying, ok bool) {
	x1 := float64(pos[1][0] - pos[0][0])
	y1 := float64(pos[1][1] - pos[0][1])
	x2 := float64(pos[2][0] - pos[0][0])
	y2 := float64(pos[2][1] - pos[0][1])
	det := x1*y2 - x2*y1
	if det == 0 {
		return affineVarying{}, false
	}
	for c := 0; c < 2; c++ {
		a0 := float64(val[0][c])
		a1 := float64(val[1][c]) - a0
		a2 := float64(val[2][c]) - a0
		b := (a1*y2 - a2*y1) / det
		cc := (x1*a2 - x2*a1) / det
		a := a0 - b*float64(pos[0][0]) - cc*float64(pos[0][1])

		// x = 2s - 1, y = 2t - 1.
		v.origin[c] = float32(a - b - cc)
		v.ds[c] = float32(2 * b)
		v.dt[c] = float32(2 * cc)
	}
	return v, true
}

// at evaluates the varying at viewport coordinates (s, t).
func (v affineVarying) at(s, t float32) gpucore.Vec2 {
	return gpucore.Vec2{
		v.origin[0] + v.ds[0]*s + v.dt[0]*t,
		v.origin[1] + v.ds[1]*s + v.dt[1]*t,
	}
}

// coversViewport reports whether the first two triangles form the quad
// spanning clip space, which is the only geometry the kernels rasterize.
func coversViewport(pos []gpucore.Vec2) bool {
	if len(pos) < 6 {
		return false
	}
	var minX, minY, maxX, maxY float32 = 1, 1, -1, -1
	for _, p := range pos[:6] {
		minX = min(minX, p[0])
		maxX = max(maxX, p[0])
		minY = min(minY, p[1])
		maxY = max(maxY, p[1])
	}
	return minX == -1 && minY == -1 && maxX == 1 && maxY == 1
}

// textureInfo is the per-sampler part of the parameter block.
type textureInfo struct {
	width, height int
	filter        gpucore.FilterMode
}

// drawParams mirrors DrawParams in the kernels.
type drawParams struct {
	targetWidth, targetHeight int
	viewport                  gpucore.Viewport
	varyings                  [maxVaryings]affineVarying
	textures                  [maxSamplers]textureInfo
}

// bytes encodes the parameter block for the uniform buffer.
func (p *drawParams) bytes() []byte {
	out := make([]byte, drawParamsSize)
	u32 := func(off int, v int) {
		binary.LittleEndian.PutUint32(out[off:], uint32(v)) //nolint:gosec // sizes are validated positive
	}
	f32 := func(off int, v float32) {
		binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v))
	}

	u32(0, p.targetWidth)
	u32(4, p.targetHeight)
	u32(8, p.viewport.X)
	u32(12, p.viewport.Y)
	u32(16, p.viewport.Width)
	u32(20, p.viewport.Height)

	for i, v := range p.varyings {
		base := 32 + i*32
		f32(base, v.origin[0])
		f32(base+4, v.origin[1])
		f32(base+8, v.ds[0])
		f32(base+12, v.ds[1])
		f32(base+16, v.dt[0])
		f32(base+20, v.dt[1])
	}
	for i, t := range p.textures {
		base := 96 + i*16
		u32(base, t.width)
		u32(base+4, t.height)
		u32(base+8, int(t.filter))
	}
	return out
}

// packTexels converts upload bytes to the RGBA words stored in texture
// buffers. Single-channel data is stored as luminance (L, L, L, 255).
func packTexels(data []byte, texels, bytesPerTexel int) []byte {
	out := make([]byte, texels*4)
	if bytesPerTexel == 4 {
		copy(out, data[:texels*4])
		return out
	}
	for i := 0; i < texels; i++ {
		l := data[i]
		out[i*4+0] = l
		out[i*4+1] = l
		out[i*4+2] = l
		out[i*4+3] = 0xff
	}
	return out
}

// packColor quantizes a color to the stored RGBA word bytes.
func packColor(c gpucore.Color) [4]byte {
	q := func(v float32) byte {
		switch {
		case v <= 0:
			return 0
		case v >= 1:
			return 255
		}
		return byte(v*255 + 0.5)
	}
	return [4]byte{q(c.R), q(c.G), q(c.B), q(c.A)}
}

// fillWords returns n copies of the color word.
func fillWords(c gpucore.Color, n int) []byte {
	px := packColor(c)
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		copy(out[i*4:], px[:])
	}
	return out
}
