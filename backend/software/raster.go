package software

import (
	"fmt"
	"math"

	"github.com/gogpu/yuv/gpucore"
	"github.com/gogpu/yuv/internal/parallel"
)

// insideEpsilon keeps pixel centers on a shared triangle edge inside both
// triangles, so a quad split along its diagonal has no holes.
const insideEpsilon = 1e-9

// bandRows is the height of the row bands shaded in parallel. Draws shorter
// than two bands run serially.
const bandRows = 32

// vertex is a vertex after the viewport transform.
type vertex struct {
	x, y     float64
	varyings []gpucore.Vec2
}

// Draw rasterizes a triangle list and runs the program's fragment stage for
// every covered pixel center.
func (d *Device) Draw(cmd *gpucore.DrawCommand) error {
	if d.destroyed {
		return ErrDestroyed
	}
	p, ok := d.programs[cmd.Program]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrUnknownResource, cmd.Program)
	}
	dst, err := d.renderTarget(cmd.Target)
	if err != nil {
		return err
	}
	if cmd.VertexCount%3 != 0 {
		return fmt.Errorf("software: vertex count %d is not a multiple of 3", cmd.VertexCount)
	}

	attribs, err := d.bindAttributes(p, cmd)
	if err != nil {
		return err
	}
	samplers, err := d.bindSamplers(p, cmd)
	if err != nil {
		return err
	}

	vp := cmd.Viewport
	verts := make([]vertex, cmd.VertexCount)
	for i := range verts {
		pos := attribs[0][i]
		verts[i] = vertex{
			x: float64(vp.X) + (float64(pos[0])+1)*0.5*float64(vp.Width),
			y: float64(vp.Y) + (float64(pos[1])+1)*0.5*float64(vp.Height),
		}
		verts[i].varyings = make([]gpucore.Vec2, len(attribs)-1)
		for a := 1; a < len(attribs); a++ {
			if attribs[a] != nil {
				verts[i].varyings[a-1] = attribs[a][i]
			}
		}
	}

	// Scissor to the viewport and the target.
	clip := rect{
		minX: max(vp.X, 0),
		minY: max(vp.Y, 0),
		maxX: min(vp.X+vp.Width, dst.width),
		maxY: min(vp.Y+vp.Height, dst.height),
	}
	bands := d.bands(clip)
	tasks := make([]func(), len(bands))
	for b, band := range bands {
		tasks[b] = func() {
			for i := 0; i+2 < len(verts); i += 3 {
				rasterizeTriangle(dst, band, &verts[i], &verts[i+1], &verts[i+2], p.fragment, samplers)
			}
		}
	}
	if len(tasks) == 1 {
		tasks[0]()
		return nil
	}
	d.workerPool().Run(tasks)
	return nil
}

// bands splits clip into horizontal bands. Each band writes only its own
// rows, so bands can be shaded concurrently.
func (d *Device) bands(clip rect) []rect {
	rows := clip.maxY - clip.minY
	if d.opts.workers == 1 || rows < 2*bandRows {
		return []rect{clip}
	}
	bands := make([]rect, 0, (rows+bandRows-1)/bandRows)
	for y := clip.minY; y < clip.maxY; y += bandRows {
		band := clip
		band.minY = y
		band.maxY = min(y+bandRows, clip.maxY)
		bands = append(bands, band)
	}
	return bands
}

func (d *Device) workerPool() *parallel.Pool {
	if d.pool == nil {
		d.pool = parallel.NewPool(d.opts.workers)
	}
	return d.pool
}

// bindAttributes returns vertex data indexed by attribute location.
// Location 0 (position) is required.
func (d *Device) bindAttributes(p *program, cmd *gpucore.DrawCommand) ([][]gpucore.Vec2, error) {
	attribs := make([][]gpucore.Vec2, max(len(p.attributes), 1))
	for _, a := range cmd.Attributes {
		if a.Location < 0 || a.Location >= len(attribs) {
			return nil, fmt.Errorf("software: %s: attribute location %d out of range", p.label, a.Location)
		}
		data, ok := d.buffers[a.Buffer]
		if !ok {
			return nil, fmt.Errorf("%w: buffer %d", ErrUnknownResource, a.Buffer)
		}
		if len(data) < cmd.VertexCount {
			return nil, fmt.Errorf("%w: %s: attribute %d has %d vertices, draw needs %d",
				ErrShortData, p.label, a.Location, len(data), cmd.VertexCount)
		}
		attribs[a.Location] = data
	}
	if attribs[0] == nil && cmd.VertexCount > 0 {
		return nil, fmt.Errorf("software: %s: position attribute not bound", p.label)
	}
	return attribs, nil
}

// bindSamplers returns samplers indexed by sampler location.
func (d *Device) bindSamplers(p *program, cmd *gpucore.DrawCommand) ([]gpucore.Sampler, error) {
	samplers := make([]gpucore.Sampler, len(p.samplers))
	for _, b := range cmd.Textures {
		if b.Location < 0 || b.Location >= len(samplers) {
			return nil, fmt.Errorf("software: %s: sampler location %d out of range", p.label, b.Location)
		}
		t, ok := d.textures[b.Texture]
		if !ok {
			return nil, fmt.Errorf("%w: texture %d", ErrUnknownResource, b.Texture)
		}
		if t.img == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotSpecified, t.label)
		}
		samplers[b.Location] = t
	}
	for i, s := range samplers {
		if s == nil {
			return nil, fmt.Errorf("software: %s: sampler %d not bound", p.label, i)
		}
	}
	return samplers, nil
}

type rect struct {
	minX, minY, maxX, maxY int
}

func edge(ax, ay, bx, by, cx, cy float64) float64 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

func rasterizeTriangle(dst *pixbuf, clip rect, v0, v1, v2 *vertex, frag gpucore.FragmentFunc, samplers []gpucore.Sampler) {
	area := edge(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area == 0 {
		return
	}

	minX := max(int(math.Floor(min(v0.x, v1.x, v2.x))), clip.minX)
	minY := max(int(math.Floor(min(v0.y, v1.y, v2.y))), clip.minY)
	maxX := min(int(math.Ceil(max(v0.x, v1.x, v2.x))), clip.maxX)
	maxY := min(int(math.Ceil(max(v0.y, v1.y, v2.y))), clip.maxY)

	varyings := make([]gpucore.Vec2, len(v0.varyings))
	for py := minY; py < maxY; py++ {
		cy := float64(py) + 0.5
		for px := minX; px < maxX; px++ {
			cx := float64(px) + 0.5
			w0 := edge(v1.x, v1.y, v2.x, v2.y, cx, cy) / area
			w1 := edge(v2.x, v2.y, v0.x, v0.y, cx, cy) / area
			w2 := 1 - w0 - w1
			if w0 < -insideEpsilon || w1 < -insideEpsilon || w2 < -insideEpsilon {
				continue
			}
			for i := range varyings {
				for c := 0; c < 2; c++ {
					varyings[i][c] = float32(w0*float64(v0.varyings[i][c]) +
						w1*float64(v1.varyings[i][c]) +
						w2*float64(v2.varyings[i][c]))
				}
			}
			dst.set(px, py, frag(varyings, samplers))
		}
	}
}
