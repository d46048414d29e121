package yuv

import (
	"fmt"
	"image"
	"math"
)

// Plane is one 8-bit image plane. Bytes is borrowed: the sink reads it only
// during the call it is passed to.
type Plane struct {
	// Bytes holds Stride bytes per row, first row first.
	Bytes []byte

	// Stride is the row pitch in bytes. It may exceed the visible width.
	Stride int
}

// Crop is the visible rectangle in luma pixel coordinates.
type Crop struct {
	Left, Top     int
	Width, Height int
}

// Frame is a decoded planar 4:2:0 picture.
//
// Y is full resolution; U (Cb) and V (Cr) have half the width and
// ceil(Height/2) rows. Width and Height are the output dimensions and also
// the number of luma rows.
type Frame struct {
	Width, Height int
	Crop          Crop
	Y, U, V       Plane
}

// ChromaHeight returns the number of rows in the U and V planes.
func (f *Frame) ChromaHeight() int {
	return (f.Height + 1) / 2
}

// Validate checks that the frame geometry is self-consistent.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidFrameGeometry)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidFrameGeometry, f.Width, f.Height)
	}
	c := f.Crop
	if c.Left < 0 || c.Top < 0 || c.Width <= 0 || c.Height <= 0 ||
		c.Top > f.Height-c.Height || c.Left > math.MaxInt-c.Width {
		return fmt.Errorf("%w: crop %+v outside %dx%d", ErrInvalidFrameGeometry, c, f.Width, f.Height)
	}

	right := c.Left + c.Width
	if f.Y.Stride < right {
		return fmt.Errorf("%w: luma stride %d < %d", ErrInvalidFrameGeometry, f.Y.Stride, right)
	}
	if chroma := (right + 1) / 2; f.U.Stride < chroma {
		return fmt.Errorf("%w: chroma stride %d < %d", ErrInvalidFrameGeometry, f.U.Stride, chroma)
	}
	if f.U.Stride != f.V.Stride {
		return fmt.Errorf("%w: Cb stride %d != Cr stride %d", ErrInvalidFrameGeometry, f.U.Stride, f.V.Stride)
	}

	planes := []struct {
		name  string
		plane Plane
		rows  int
	}{
		{"Y", f.Y, f.Height},
		{"Cb", f.U, f.ChromaHeight()},
		{"Cr", f.V, f.ChromaHeight()},
	}
	for _, p := range planes {
		// Stride > len/rows is stride*rows > len without the overflow.
		if p.plane.Stride > len(p.plane.Bytes)/p.rows {
			return fmt.Errorf("%w: %s plane has %d bytes, need %d rows of %d",
				ErrInvalidFrameGeometry, p.name, len(p.plane.Bytes), p.rows, p.plane.Stride)
		}
	}
	return nil
}

// FrameFromYCbCr wraps a 4:2:0 image without copying unless a plane is
// shorter than its stride times its rows (sub-images). The crop covers the
// whole image.
func FrameFromYCbCr(img *image.YCbCr) (*Frame, error) {
	if img.SubsampleRatio != image.YCbCrSubsampleRatio420 {
		return nil, fmt.Errorf("%w: subsample ratio %v, want 4:2:0", ErrInvalidFrameGeometry, img.SubsampleRatio)
	}
	r := img.Rect
	if r.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidFrameGeometry)
	}
	if r.Min.X%2 != 0 || r.Min.Y%2 != 0 {
		return nil, fmt.Errorf("%w: image origin %v not chroma aligned", ErrInvalidFrameGeometry, r.Min)
	}

	w, h := r.Dx(), r.Dy()
	f := &Frame{
		Width:  w,
		Height: h,
		Crop:   Crop{Width: w, Height: h},
	}
	chromaRows := f.ChromaHeight()
	f.Y = Plane{Bytes: planeBytes(img.Y[img.YOffset(r.Min.X, r.Min.Y):], img.YStride, h), Stride: img.YStride}
	coff := img.COffset(r.Min.X, r.Min.Y)
	f.U = Plane{Bytes: planeBytes(img.Cb[coff:], img.CStride, chromaRows), Stride: img.CStride}
	f.V = Plane{Bytes: planeBytes(img.Cr[coff:], img.CStride, chromaRows), Stride: img.CStride}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// planeBytes returns b, padded with a copy when it is shorter than stride*rows.
func planeBytes(b []byte, stride, rows int) []byte {
	need := stride * rows
	if len(b) >= need {
		return b[:need]
	}
	padded := make([]byte, need)
	copy(padded, b)
	return padded
}
