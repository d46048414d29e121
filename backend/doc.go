// Package backend selects the rendering device for the yuv frame sink.
//
// # Backend Registration
//
// Devices are registered via init() functions and selected at runtime.
// Importing this package registers the software device and, unless built
// with the nogpu tag, the native GPU device:
//
//	import "github.com/gogpu/yuv/backend"
//
// # Backend Selection
//
// Use Default() to get a device from the best available backend, or Get()
// to request a specific backend by name:
//
//	// Best available: native if a GPU opens, software otherwise
//	dev, err := backend.Default()
//
//	// Or request a specific backend
//	dev, err := backend.Get(backend.BackendSoftware)
//
// The caller owns the returned device and must call Destroy.
//
// # Available Backends
//
//   - "software": CPU rasterizer (always available)
//   - "native": gogpu/wgpu HAL compute on Vulkan
package backend
