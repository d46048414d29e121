// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native provides a GPU device for the yuv frame sink built on
// gogpu/wgpu HAL compute pipelines.
//
// Each program is a WGSL compute kernel compiled to SPIR-V. Textures live
// in storage buffers as packed RGBA words, one word per texel, and draws
// run one invocation per viewport pixel. Draws must be a quad covering the
// viewport; varyings are solved to affine functions of the pixel center
// and passed in a uniform block.
//
// The device opens its own Vulkan adapter with [New], or shares a host's
// device through [NewFromProvider]. Build with the nogpu tag to leave it out.
package native
