// Package yuv renders decoded planar YUV 4:2:0 video frames on a GPU.
//
// # Overview
//
// A [FrameSink] takes successive frames (three byte planes with strides and
// a crop rectangle), uploads the planes as textures and converts them to RGB
// in a fragment program using the BT.601 limited-range matrix. GPU objects
// are created once and reused for every frame of the same size.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/yuv"
//	    "github.com/gogpu/yuv/backend"
//	)
//
//	dev := backend.MustDefault()
//	defer dev.Destroy()
//
//	sink, err := yuv.NewFrameSink(dev)
//	if err != nil {
//	    return err
//	}
//	defer sink.Close()
//
//	for f := range frames {
//	    if err := sink.DrawFrame(f); err != nil {
//	        return err
//	    }
//	}
//	img, err := sink.Snapshot()
//
// # Devices
//
// The sink draws through [gpucore.Device]. backend/software rasterizes on
// the CPU and is always available; backend/native runs compute kernels
// through gogpu/wgpu. The backend package picks the best registered one.
//
// # Frames
//
// [FrameFromYCbCr] wraps a standard library 4:2:0 image without copying.
// The source package yields frames from synthetic color bars or a raw I420
// stream, and cmd/yuvplay plays them in a window or headless.
//
// # Stripe Workaround
//
// Some drivers stall on single-channel texture uploads. With the stripe
// workaround each plane is uploaded as RGBA texels, four bytes per texel,
// and expanded on the GPU by a second program that selects one channel per
// output column with a precomputed mask. [ProbeStripeWorkaround] decides
// from the device capabilities; [WithStripeWorkaround] overrides it.
//
// # Coordinate System
//
// Devices follow GL conventions with the origin at the bottom-left.
// [FrameSink.CropImage] takes rectangles in top-left output coordinates and
// returns images with the first row at the top.
//
// # Logging
//
// The package is silent by default. Call [SetLogger] to receive lifecycle
// and per-frame diagnostics.
package yuv

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
