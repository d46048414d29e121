package source

import "errors"

var (
	// ErrInvalidSize is returned for non-positive dimensions, or odd
	// dimensions where the stream layout needs even ones.
	ErrInvalidSize = errors.New("source: invalid frame size")

	// ErrShortFrame is returned when a stream ends in the middle of a frame.
	ErrShortFrame = errors.New("source: truncated frame")

	// ErrUnsupportedImage is returned when a reader yields an image that is
	// not planar YCbCr.
	ErrUnsupportedImage = errors.New("source: unsupported image type")
)
