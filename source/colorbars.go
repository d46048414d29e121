package source

import (
	"fmt"
	"image"
	"sync"

	"github.com/pion/mediadevices/pkg/io/video"
)

// ycc is one limited-range BT.601 sample.
type ycc struct{ y, cb, cr uint8 }

// Bars holds the 75% color bars left to right.
var Bars = [7]struct {
	Name  string
	Value ycc
}{
	{"white", ycc{180, 128, 128}},
	{"yellow", ycc{162, 44, 142}},
	{"cyan", ycc{131, 156, 44}},
	{"green", ycc{112, 72, 58}},
	{"magenta", ycc{84, 184, 198}},
	{"red", ycc{65, 100, 212}},
	{"blue", ycc{35, 212, 114}},
}

var (
	black  = ycc{16, 128, 128}
	marker = ycc{235, 128, 128}
)

// ColorBars is a synthetic, frame-indexed source. The top three quarters
// show the bars. The bottom strip is black with a white marker that moves
// one chroma pair per frame, so consecutive frames differ.
//
// ColorBars is safe for concurrent use.
type ColorBars struct {
	width, height int

	mu    sync.Mutex
	index int
}

// NewColorBars creates a color bar source of the given size.
func NewColorBars(width, height int) (*ColorBars, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &ColorBars{width: width, height: height}, nil
}

// Size returns the frame dimensions.
func (c *ColorBars) Size() (width, height int) {
	return c.width, c.height
}

// Index returns the index of the next frame Read will produce.
func (c *ColorBars) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Seek moves to frame index. Negative indices clamp to zero.
func (c *ColorBars) Seek(index int) {
	c.mu.Lock()
	c.index = max(index, 0)
	c.mu.Unlock()
}

// Reader returns a reader that renders the current frame and advances.
// It never returns an error.
func (c *ColorBars) Reader() video.Reader {
	return video.ReaderFunc(func() (image.Image, func(), error) {
		c.mu.Lock()
		index := c.index
		c.index++
		c.mu.Unlock()
		return c.Render(index), func() {}, nil
	})
}

// Render draws frame index into a new 4:2:0 image.
func (c *ColorBars) Render(index int) *image.YCbCr {
	img := image.NewYCbCr(image.Rect(0, 0, c.width, c.height), image.YCbCrSubsampleRatio420)
	barRows := c.height * 3 / 4
	if barRows == 0 {
		barRows = c.height
	}

	cw := (c.width + 1) / 2
	markerX := -1
	if cw > 0 {
		markerX = index % cw
	}

	for y := 0; y < c.height; y++ {
		row := img.Y[y*img.YStride:]
		for x := 0; x < c.width; x++ {
			row[x] = c.sample(x/2, y, barRows, markerX).y
		}
	}
	for cy := 0; cy < (c.height+1)/2; cy++ {
		off := cy * img.CStride
		for cx := 0; cx < cw; cx++ {
			s := c.sample(cx, cy*2, barRows, markerX)
			img.Cb[off+cx] = s.cb
			img.Cr[off+cx] = s.cr
		}
	}
	return img
}

// sample returns the value at chroma column cx and luma row y. Whole chroma
// pairs share a value so subsampling never blends neighbors.
func (c *ColorBars) sample(cx, y, barRows, markerX int) ycc {
	if y >= barRows {
		if cx == markerX {
			return marker
		}
		return black
	}
	cw := (c.width + 1) / 2
	return Bars[cx*len(Bars)/cw].Value
}
