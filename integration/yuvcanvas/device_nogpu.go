//go:build nogpu

package yuvcanvas

import (
	"errors"

	"github.com/gogpu/yuv/gpucore"
)

func sharedDevice(any) (gpucore.Device, error) {
	return nil, errors.New("built without GPU support")
}
