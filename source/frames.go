package source

import (
	"fmt"
	"image"

	"github.com/pion/mediadevices/pkg/io/video"

	"github.com/gogpu/yuv"
)

// Frames adapts a video reader to sink frames.
type Frames struct {
	r     video.Reader
	count int
}

// NewFrames wraps r.
func NewFrames(r video.Reader) *Frames {
	return &Frames{r: r}
}

// Count returns the number of frames returned so far.
func (f *Frames) Count() int { return f.count }

// Next reads one image and wraps it as a frame without copying. The frame
// borrows the image's planes: call release once the sink has drawn it.
// Reader errors, including io.EOF, are returned unwrapped.
func (f *Frames) Next() (*yuv.Frame, func(), error) {
	img, release, err := f.r.Read()
	if release == nil {
		release = func() {}
	}
	if err != nil {
		return nil, release, err
	}

	ycbcr, ok := img.(*image.YCbCr)
	if !ok {
		release()
		return nil, func() {}, fmt.Errorf("%w: %T", ErrUnsupportedImage, img)
	}
	fr, err := yuv.FrameFromYCbCr(ycbcr)
	if err != nil {
		release()
		return nil, func() {}, err
	}
	f.count++
	return fr, release, nil
}
