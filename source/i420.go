package source

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/io/video"

	"github.com/gogpu/yuv"
)

// I420FrameSize returns the byte length of one packed I420 frame.
func I420FrameSize(width, height int) int {
	return width*height + 2*(width/2)*(height/2)
}

// NewI420Reader returns a reader that decodes consecutive packed I420
// frames from r. Width and height must be even. Read returns io.EOF at a
// frame boundary and ErrShortFrame when the stream ends inside a frame.
func NewI420Reader(r io.Reader, width, height int) (video.Reader, error) {
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return nil, fmt.Errorf("%w: I420 needs positive even dimensions, got %dx%d", ErrInvalidSize, width, height)
	}
	decoder, err := frame.NewDecoder(frame.FormatI420)
	if err != nil {
		return nil, fmt.Errorf("source: I420 decoder: %w", err)
	}

	size := I420FrameSize(width, height)
	index := 0
	return video.ReaderFunc(func() (image.Image, func(), error) {
		buf := make([]byte, size)
		n, err := io.ReadFull(r, buf)
		switch {
		case errors.Is(err, io.EOF):
			yuv.Logger().Debug("source: I420 stream ended", "frames", index)
			return nil, func() {}, io.EOF
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, func() {}, fmt.Errorf("%w: frame %d has %d of %d bytes", ErrShortFrame, index, n, size)
		case err != nil:
			return nil, func() {}, fmt.Errorf("source: read frame %d: %w", index, err)
		}

		img, release, err := decoder.Decode(buf, width, height)
		if err != nil {
			return nil, func() {}, fmt.Errorf("source: decode frame %d: %w", index, err)
		}
		if release == nil {
			release = func() {}
		}
		index++
		return img, release, nil
	}), nil
}
