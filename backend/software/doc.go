// Package software provides a CPU implementation of gpucore.Device.
//
// The device rasterizes triangle lists with pixel-center sampling, runs each
// program's Go fragment stage and stores every texture as RGBA8. It is always
// available and is the reference the native device is tested against.
//
//	dev := software.New(software.WithSurfaceSize(640, 360))
//	sink, err := yuv.NewFrameSink(dev)
package software
