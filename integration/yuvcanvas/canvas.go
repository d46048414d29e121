// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package yuvcanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/yuv"
	"github.com/gogpu/yuv/backend/software"
	"github.com/gogpu/yuv/gpucore"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("yuvcanvas: canvas is closed")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("yuvcanvas: nil DeviceProvider")

	// ErrNoFrame is returned when rendering before any frame was drawn.
	ErrNoFrame = errors.New("yuvcanvas: no frame drawn yet")
)

// textureDestroyer is the interface for destroying textures.
// This matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// Option configures a Canvas.
type Option func(*options)

type options struct {
	device   gpucore.Device
	notify   yuv.ResizeFunc
	sinkOpts []yuv.Option
}

// WithDevice renders with the given device instead of choosing one. The
// device stays owned by the caller.
func WithDevice(device gpucore.Device) Option {
	return func(o *options) {
		o.device = device
	}
}

// WithResizeNotifier sets a function told about video size changes, after
// the canvas has scheduled its texture for recreation.
func WithResizeNotifier(fn yuv.ResizeFunc) Option {
	return func(o *options) {
		o.notify = fn
	}
}

// WithSinkOptions passes options to the underlying frame sink.
func WithSinkOptions(opts ...yuv.Option) Option {
	return func(o *options) {
		o.sinkOpts = append(o.sinkOpts, opts...)
	}
}

// Canvas draws video frames with a yuv.FrameSink and presents them as a
// window texture.
type Canvas struct {
	provider   gpucontext.DeviceProvider
	device     gpucore.Device
	ownsDevice bool
	sink       *yuv.FrameSink
	notify     yuv.ResizeFunc

	texture     any  // Lazy-created texture (gpucontext.Texture)
	oldTexture  any  // Previous texture awaiting deferred destruction
	dirty       bool // Needs GPU upload
	sizeChanged bool // Resize pending, texture must be recreated
	width       int
	height      int
	closed      bool
}

// New creates a Canvas for a gogpu window.
// The provider should come from gogpu.App.GPUContextProvider().
func New(provider gpucontext.DeviceProvider, opts ...Option) (*Canvas, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Canvas{provider: provider, notify: o.notify, device: o.device}
	if c.device == nil {
		dev, err := sharedDevice(provider)
		if err != nil {
			// Non-fatal: the provider may not expose HAL types.
			yuv.Logger().Info("yuvcanvas: using software device", "reason", err)
			dev = software.New()
		}
		c.device = dev
		c.ownsDevice = true
	}

	sinkOpts := append([]yuv.Option{yuv.WithResizeNotifier(c.resized)}, o.sinkOpts...)
	sink, err := yuv.NewFrameSink(c.device, sinkOpts...)
	if err != nil {
		c.releaseDevice()
		return nil, fmt.Errorf("yuvcanvas: %w", err)
	}
	c.sink = sink
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(provider gpucontext.DeviceProvider, opts ...Option) *Canvas {
	c, err := New(provider, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// resized is the sink's resize notifier.
func (c *Canvas) resized(width, height int) {
	c.width = width
	c.height = height
	c.sizeChanged = true
	if c.notify != nil {
		c.notify(width, height)
	}
}

// Sink returns the frame sink, or nil if the canvas is closed.
func (c *Canvas) Sink() *yuv.FrameSink {
	if c.closed {
		return nil
	}
	return c.sink
}

// Size returns the current video size, zero before the first frame.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// IsDirty returns true if a frame was drawn since the last upload.
func (c *Canvas) IsDirty() bool {
	return c.dirty
}

// DrawFrame renders a frame and marks the canvas for upload.
func (c *Canvas) DrawFrame(f *yuv.Frame) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if err := c.sink.DrawFrame(f); err != nil {
		return err
	}
	c.dirty = true
	return nil
}

// Flush uploads the rendered frame to the window texture if dirty.
// Returns the texture for manual drawing if needed.
//
// The texture is created lazily; until RenderTo runs it is a placeholder.
func (c *Canvas) Flush() (any, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}

	// The old texture may still be referenced by in-flight command buffers.
	// Keep it until the replacement has been written.
	if c.sizeChanged {
		if c.texture != nil {
			destroyTexture(c.oldTexture)
			c.oldTexture = c.texture
			c.texture = nil
		}
		c.sizeChanged = false
	}

	if !c.dirty && c.texture != nil {
		return c.texture, nil
	}
	if c.width == 0 {
		return nil, ErrNoFrame
	}

	img, err := c.sink.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("yuvcanvas: read back frame: %w", err)
	}

	if c.texture == nil {
		c.texture = &pendingTexture{width: c.width, height: c.height, data: img.Pix}
		c.dirty = false
		return c.texture, nil
	}

	switch tex := c.texture.(type) {
	case *pendingTexture:
		tex.data = img.Pix
	case gpucontext.TextureUpdater:
		if err := tex.UpdateData(img.Pix); err != nil {
			return nil, fmt.Errorf("yuvcanvas: texture update failed: %w", err)
		}
	}
	c.dirty = false
	return c.texture, nil
}

// Texture returns the current GPU texture without flushing.
func (c *Canvas) Texture() any {
	return c.texture
}

// Close releases the sink, the textures and the device if the canvas chose it.
// Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	destroyTexture(c.oldTexture)
	c.oldTexture = nil
	destroyTexture(c.texture)
	c.texture = nil

	err := c.sink.Close()
	c.releaseDevice()
	c.provider = nil
	return err
}

func (c *Canvas) releaseDevice() {
	if c.ownsDevice && c.device != nil {
		c.device.Destroy()
	}
	c.device = nil
}

func destroyTexture(tex any) {
	if destroyer, ok := tex.(textureDestroyer); ok {
		destroyer.Destroy()
	}
}

// pendingTexture holds pixel data until RenderTo has a texture creator.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}

// Provider returns the DeviceProvider associated with this canvas.
// Returns nil if the canvas is closed.
func (c *Canvas) Provider() gpucontext.DeviceProvider {
	if c.closed {
		return nil
	}
	return c.provider
}
