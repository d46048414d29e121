// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "errors"

// Package errors for the native device.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNoProvider is returned when a device provider does not expose HAL types.
	ErrNoProvider = errors.New("native: provider does not expose HAL types")

	// ErrDestroyed is returned when operating on a destroyed device.
	ErrDestroyed = errors.New("native: device has been destroyed")

	// ErrUnknownResource is returned for IDs the device did not create.
	ErrUnknownResource = errors.New("native: unknown resource")

	// ErrNoSPIRV is returned for programs without a compiled kernel.
	ErrNoSPIRV = errors.New("native: program has no SPIR-V kernel")

	// ErrTooManyBindings is returned for programs exceeding the varying or
	// sampler limits of the kernel parameter block.
	ErrTooManyBindings = errors.New("native: too many varyings or samplers")

	// ErrUnsupportedDraw is returned for draws that are not a viewport-filling quad.
	ErrUnsupportedDraw = errors.New("native: draw is not a viewport-filling quad")

	// ErrUnsupportedFormat is returned for texture formats other than R8 and RGBA8.
	ErrUnsupportedFormat = errors.New("native: unsupported texture format")

	// ErrInvalidSize is returned for non-positive or oversized dimensions.
	ErrInvalidSize = errors.New("native: invalid size")

	// ErrShortData is returned when an upload carries fewer bytes than the storage needs.
	ErrShortData = errors.New("native: upload data too short")

	// ErrNotSpecified is returned when a texture is used before TexImage.
	ErrNotSpecified = errors.New("native: texture storage not specified")
)
