// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package yuvcanvas presents yuv frame sink output in gogpu GPU-accelerated
// windows.
//
// The data flow is:
//
//	yuv.Frame -> FrameSink (device) -> RGBA read-back -> GPU Texture -> Window
//
// # Usage
//
//	canvas, err := yuvcanvas.New(app.GPUContextProvider())
//	if err != nil {
//	    return err
//	}
//	defer canvas.Close()
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    if f, ok := decoder.Next(); ok {
//	        canvas.DrawFrame(f)
//	    }
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
//
// When the video size changes the sink reports it before drawing the first
// frame of the new size; the canvas then recreates its window texture and
// forwards the size to [WithResizeNotifier].
//
// # Device Selection
//
// Without [WithDevice] the canvas shares the window's GPU device through
// backend/native when the provider exposes HAL types, and falls back to the
// software device otherwise.
//
// # Thread Safety
//
// Canvas is NOT safe for concurrent use.
package yuvcanvas
