// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "time"

// Option configures a Device during creation.
type Option func(*options)

type options struct {
	width, height     int
	slowSingleChannel bool
	fenceTimeout      time.Duration
}

func defaultOptions() options {
	return options{
		width:        1,
		height:       1,
		fenceTimeout: 5 * time.Second,
	}
}

// WithSurfaceSize sets the initial surface size.
func WithSurfaceSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width, o.height = width, height
		}
	}
}

// WithSlowSingleChannelUpload makes the device report that single-channel
// uploads should be avoided. Luminance textures are expanded to RGBA words
// on the host, so packed uploads move a quarter of the bytes.
func WithSlowSingleChannelUpload(slow bool) Option {
	return func(o *options) {
		o.slowSingleChannel = slow
	}
}

// WithFenceTimeout sets how long a draw or read-back waits for the GPU.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.fenceTimeout = d
		}
	}
}
