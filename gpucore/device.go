package gpucore

// Device abstracts over a GL-style rendering context.
//
// This interface lets the frame sink drive different implementations (the
// CPU rasterizer in backend/software, gogpu/wgpu HAL compute in
// backend/native) with the same upload and draw sequence.
//
// Conventions follow GL: the surface and every framebuffer have their origin
// at the bottom-left, texture row 0 is the first uploaded row, and clip space
// spans [-1, 1] on both axes.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - IDs become invalid after destruction and are never reused
//
// Devices are not safe for concurrent use.
type Device interface {
	// === Capabilities ===

	// Capabilities returns the device limits and required workarounds.
	Capabilities() Capabilities

	// === Surface ===

	// SurfaceSize returns the size of the visible surface in pixels.
	SurfaceSize() (width, height int)

	// ResizeSurface resizes the visible surface. Contents are undefined
	// until the next Clear.
	ResizeSurface(width, height int) error

	// === Programs ===

	// CreateProgram compiles and links a program.
	CreateProgram(desc *ProgramDescriptor) (ProgramID, error)

	// AttribLocation returns the location of a vertex attribute, or -1.
	AttribLocation(id ProgramID, name string) int

	// SamplerLocation returns the location of a sampler, or -1.
	SamplerLocation(id ProgramID, name string) int

	// DestroyProgram releases a program.
	DestroyProgram(id ProgramID)

	// === Buffers ===

	// CreateBuffer creates an empty vertex buffer.
	CreateBuffer(label string) (BufferID, error)

	// WriteBuffer replaces the buffer contents.
	WriteBuffer(id BufferID, data []Vec2) error

	// DestroyBuffer releases a vertex buffer.
	DestroyBuffer(id BufferID)

	// === Textures ===

	// CreateTexture creates a texture handle without storage.
	CreateTexture(label string) (TextureID, error)

	// TexImage (re)specifies the texture storage and uploads data.
	// A nil data slice allocates zeroed storage. The ID stays valid and
	// framebuffers attached to it keep rendering into the new storage.
	TexImage(id TextureID, desc *TextureDescriptor, data []byte) error

	// TexSubImage replaces the full contents of already specified storage.
	TexSubImage(id TextureID, data []byte) error

	// DestroyTexture releases a texture.
	DestroyTexture(id TextureID)

	// === Framebuffers ===

	// CreateFramebuffer creates a render target backed by the texture.
	CreateFramebuffer(label string, color TextureID) (FramebufferID, error)

	// DestroyFramebuffer releases a framebuffer. The texture is not affected.
	DestroyFramebuffer(id FramebufferID)

	// === Rendering ===

	// Clear fills the whole target with a color.
	Clear(target FramebufferID, c Color) error

	// Draw executes a draw command and waits for it to complete.
	Draw(cmd *DrawCommand) error

	// ReadPixels copies an RGBA rectangle of the surface into dst.
	// (x, y) is the bottom-left corner and rows are written bottom-up.
	ReadPixels(x, y, width, height int, dst []byte) error

	// === Lifecycle ===

	// Destroy releases the device and every resource it owns.
	Destroy()
}
