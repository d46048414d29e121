package yuv

import (
	_ "embed"
)

// WGSL kernels for devices that execute compiled shaders. Each has a Go
// counterpart in programs.go with identical arithmetic.

//go:embed shaders/yuv_convert.wgsl
var yuvConvertKernel string

//go:embed shaders/stripe_unpack.wgsl
var stripeUnpackKernel string
