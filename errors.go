package yuv

import "errors"

// Frame sink errors.
var (
	// ErrNoDevice is returned when a sink is created without a device.
	ErrNoDevice = errors.New("yuv: no rendering device")

	// ErrInvalidFrameGeometry is returned for frames whose dimensions,
	// crop rectangle, strides or plane sizes are inconsistent.
	ErrInvalidFrameGeometry = errors.New("yuv: invalid frame geometry")

	// ErrInvalidCropRect is returned when a crop rectangle is empty or
	// extends beyond the rendered surface.
	ErrInvalidCropRect = errors.New("yuv: invalid crop rectangle")

	// ErrShaderCompile is returned when a program's kernel fails to compile.
	ErrShaderCompile = errors.New("yuv: shader compilation failed")

	// ErrProgramLink is returned when the device rejects a program.
	ErrProgramLink = errors.New("yuv: program link failed")

	// ErrSinkBroken is returned by every call after a fatal program failure.
	ErrSinkBroken = errors.New("yuv: sink is unusable after a fatal error")

	// ErrSinkClosed is returned when operating on a closed sink.
	ErrSinkClosed = errors.New("yuv: sink is closed")
)
