package gpucore

import "github.com/gogpu/gputypes"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a vertex attribute buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// FramebufferID is an opaque handle to an offscreen render target.
type FramebufferID uint64

// ProgramID is an opaque handle to a linked GPU program.
type ProgramID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// DefaultFramebuffer targets the visible surface.
const DefaultFramebuffer FramebufferID = InvalidID

// FilterMode selects how a texture is sampled between texel centers.
type FilterMode uint32

// Filter modes. Sampling always clamps to the edge texel.
const (
	// FilterNearest returns the texel containing the sample point.
	FilterNearest FilterMode = iota

	// FilterLinear blends the four nearest texels.
	FilterLinear
)

// String returns the filter name.
func (f FilterMode) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// ShaderFormat is the compiled shader representation a device consumes.
type ShaderFormat uint32

// Shader formats.
const (
	// ShaderFormatNone means the device executes the Go fragment stage
	// and needs no compiled kernel.
	ShaderFormatNone ShaderFormat = iota

	// ShaderFormatSPIRV means the device runs compute kernels compiled
	// to SPIR-V.
	ShaderFormatSPIRV
)

// Capabilities describes what a device supports and which workarounds it needs.
type Capabilities struct {
	// Name is the device identifier (e.g., "software", "native").
	Name string

	// ShaderFormat is the program representation the device executes.
	ShaderFormat ShaderFormat

	// MaxTextureSize is the largest texture dimension accepted.
	// Zero means unlimited.
	MaxTextureSize int

	// SlowSingleChannelUpload reports that single-channel texture uploads
	// stall on this device and should be packed into RGBA texels instead.
	SlowSingleChannelUpload bool
}

// TextureDescriptor describes texture storage.
//
// Supported formats are [gputypes.TextureFormatR8Unorm] (single channel,
// sampled as luminance) and [gputypes.TextureFormatRGBA8Unorm].
type TextureDescriptor struct {
	// Width is the texture width in texels.
	Width int

	// Height is the texture height in texels.
	Height int

	// Format is the texel format.
	Format gputypes.TextureFormat

	// Filter is the sampling filter.
	Filter FilterMode
}

// BytesPerTexel returns the upload size of one texel for the format,
// or 0 for unsupported formats.
func BytesPerTexel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	default:
		return 0
	}
}

// DataSize returns the number of bytes a full upload must carry.
func (d *TextureDescriptor) DataSize() int {
	return d.Width * d.Height * BytesPerTexel(d.Format)
}

// Vec2 is a two-component float vector (vertex position or texture coordinate).
type Vec2 [2]float32

// Color is a normalized RGBA color.
type Color struct {
	R, G, B, A float32
}

// Sampler reads a bound texture at normalized texture coordinates.
// Texture row 0 is at t = 0.
type Sampler interface {
	Sample(s, t float32) Color
}

// FragmentFunc computes one fragment from the interpolated varyings and the
// bound samplers. varyings[i] is the value of vertex attribute i+1
// (attribute 0 is the clip-space position); samplers are indexed by
// sampler location.
type FragmentFunc func(varyings []Vec2, samplers []Sampler) Color

// ProgramDescriptor describes a GPU program.
//
// Every program uses a passthrough vertex stage: attribute location 0 is the
// clip-space position and all other attributes are interpolated unchanged.
type ProgramDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Attributes lists vertex attribute names; the location is the index.
	Attributes []string

	// Samplers lists sampler names; the location is the index.
	Samplers []string

	// Kernel is the WGSL compute source of the fragment stage.
	Kernel string

	// SPIRV is Kernel compiled to SPIR-V words. Required when the device
	// reports ShaderFormatSPIRV.
	SPIRV []uint32

	// Fragment is the Go fragment stage. Required when the device reports
	// ShaderFormatNone.
	Fragment FragmentFunc
}

// Viewport maps clip space to a window rectangle. The origin is the
// bottom-left corner of the target.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// VertexAttribute binds a buffer of Vec2 values to an attribute location.
type VertexAttribute struct {
	Location int
	Buffer   BufferID
}

// TextureBinding binds a texture to a sampler location.
type TextureBinding struct {
	Location int
	Texture  TextureID
}

// DrawCommand describes a non-indexed triangle-list draw.
type DrawCommand struct {
	// Program is the linked program to execute.
	Program ProgramID

	// Target is the framebuffer to render into; DefaultFramebuffer is the surface.
	Target FramebufferID

	// Viewport is the destination rectangle within the target.
	Viewport Viewport

	// Attributes are the vertex buffers.
	Attributes []VertexAttribute

	// Textures are the sampler bindings.
	Textures []TextureBinding

	// VertexCount is the number of vertices (a multiple of 3).
	VertexCount int
}
