// Package gpucore provides the device abstraction used by the yuv frame sink.
//
// This package defines the [Device] interface, which abstracts over different
// rendering implementations, allowing the same upload and draw sequence to
// work with:
//   - backend/software (CPU rasterizer, always available)
//   - backend/native (gogpu/wgpu HAL compute, Vulkan)
//
// # Architecture
//
//	               +-----------------+
//	               |  yuv.FrameSink  |
//	               |  (upload, draw) |
//	               +--------+--------+
//	                        |
//	                 gpucore.Device
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/software|          |  backend/native |
//	| (rasterizer)    |          |  (hal.Device)   |
//	+-----------------+          +-----------------+
//
// # Programs
//
// A program carries two renditions of its fragment stage: a WGSL compute
// kernel (compiled to SPIR-V by naga) and an equivalent Go [FragmentFunc].
// A device executes whichever its [Capabilities.ShaderFormat] asks for.
// The vertex stage is always a passthrough of attribute 0.
//
// # Resource Management
//
// GPU resources are managed via opaque IDs ([BufferID], [TextureID],
// [FramebufferID], [ProgramID]). Devices are responsible for tracking the
// mapping between IDs and actual backend resources.
//
// # Coordinate Conventions
//
// The surface origin is the bottom-left corner. [Device.ReadPixels] returns
// rows bottom-up; callers presenting images flip them.
package gpucore
