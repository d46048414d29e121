package backend

import (
	"github.com/gogpu/yuv/backend/software"
	"github.com/gogpu/yuv/gpucore"
)

// init registers the software device on package import.
func init() {
	Register(BackendSoftware, func() (gpucore.Device, error) {
		return software.New(), nil
	})
}
