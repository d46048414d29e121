package yuv

import "github.com/gogpu/yuv/gpucore"

// quadVertices is the full-screen quad as two triangles.
var quadVertices = []gpucore.Vec2{
	{-1, -1}, {1, -1}, {-1, 1},
	{-1, 1}, {1, -1}, {1, 1},
}

// quadVertexCount is the number of vertices drawn per pass.
const quadVertexCount = 6

// unpackTexCoords maps the quad onto a whole texture.
var unpackTexCoords = texRect{x0: 0, y0: 0, x1: 1, y1: 1}.vertices()

// texRect is a rectangle in normalized texture coordinates. (x0, y0) is
// mapped to the bottom-left corner of the quad.
type texRect struct {
	x0, y0, x1, y1 float32
}

// cropTexRect returns the texture rectangle that shows the crop of a plane
// whose rows are texWidth luma pixels wide. The vertical bounds are
// normalized by the frame height, which holds for the half-height chroma
// planes as well.
func cropTexRect(c Crop, texWidth, height int) texRect {
	w := float32(texWidth)
	h := float32(height)
	return texRect{
		x0: float32(c.Left) / w,
		x1: float32(c.Left+c.Width) / w,
		y0: float32(c.Top+c.Height) / h,
		y1: float32(c.Top) / h,
	}
}

// vertices returns the texture coordinates for quadVertices.
func (r texRect) vertices() []gpucore.Vec2 {
	return []gpucore.Vec2{
		{r.x0, r.y0}, {r.x1, r.y0}, {r.x0, r.y1},
		{r.x0, r.y1}, {r.x1, r.y0}, {r.x1, r.y1},
	}
}

// frameLayout is everything the texture coordinates depend on.
type frameLayout struct {
	crop         Crop
	lumaStride   int
	chromaStride int
	height       int
}

// layoutOf returns the frame's layout with strides rounded up to the
// texture row alignment.
func layoutOf(f *Frame, align int) frameLayout {
	return frameLayout{
		crop:         f.Crop,
		lumaStride:   alignUp(f.Y.Stride, align),
		chromaStride: alignUp(f.U.Stride, align),
		height:       f.Height,
	}
}

// lumaRect returns the luma texture rectangle.
func (l frameLayout) lumaRect() texRect {
	return cropTexRect(l.crop, l.lumaStride, l.height)
}

// chromaRect returns the chroma texture rectangle. Chroma rows hold
// Stride*2 luma pixels.
func (l frameLayout) chromaRect() texRect {
	return cropTexRect(l.crop, l.chromaStride*2, l.height)
}
