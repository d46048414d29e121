//go:build !nogpu

package backend

import (
	"github.com/gogpu/yuv/backend/native"
	"github.com/gogpu/yuv/gpucore"
)

// init registers the native GPU device on package import.
func init() {
	Register(BackendNative, func() (gpucore.Device, error) {
		return native.New()
	})
}
