//go:build !nogpu

package yuvcanvas

import (
	"github.com/gogpu/yuv/backend/native"
	"github.com/gogpu/yuv/gpucore"
)

// sharedDevice opens a native device on the window's GPU.
func sharedDevice(provider any) (gpucore.Device, error) {
	return native.NewFromProvider(provider)
}
