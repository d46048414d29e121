// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package yuvcanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
)

// Rendering errors.
var (
	// ErrInvalidDrawContext is returned when the texture cannot be drawn by
	// the gpucontext.TextureDrawer.
	ErrInvalidDrawContext = errors.New("yuvcanvas: texture is not a gpucontext.Texture")

	// ErrInvalidRenderer is returned when the draw context has no
	// gpucontext.TextureCreator.
	ErrInvalidRenderer = errors.New("yuvcanvas: draw context has no texture creator")
)

// RenderTo draws the latest frame at (0, 0).
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.RenderToPosition(dc, 0, 0)
}

// RenderToPosition draws the latest frame with its top-left corner at (x, y).
func (c *Canvas) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	if c.closed {
		return ErrCanvasClosed
	}

	tex, err := c.Flush()
	if err != nil {
		return err
	}

	if pending, isPending := tex.(*pendingTexture); isPending {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrInvalidRenderer
		}
		realTex, err := creator.NewTextureFromRGBA(pending.width, pending.height, pending.data)
		if err != nil {
			return fmt.Errorf("yuvcanvas: NewTextureFromRGBA failed: %w", err)
		}
		c.texture = realTex
		tex = realTex

		// The creator waits for the GPU, so the old texture is idle now.
		destroyTexture(c.oldTexture)
		c.oldTexture = nil
	}

	gpuTex, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidDrawContext
	}
	return dc.DrawTexture(gpuTex, x, y)
}
