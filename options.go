package yuv

import "github.com/gogpu/yuv/gpucore"

// ResizeFunc is called when the output geometry changes, before any pixel
// of the new geometry is drawn.
type ResizeFunc func(width, height int)

// Option configures a FrameSink during creation.
//
// Example:
//
//	// Follow the video size with the host window
//	sink, err := yuv.NewFrameSink(dev, yuv.WithResizeNotifier(func(w, h int) {
//	    window.SetSize(w, h)
//	}))
type Option func(*options)

// options holds optional configuration for FrameSink creation.
type options struct {
	notify   ResizeFunc
	stripe   *bool
	compiler ShaderCompiler
}

// defaultOptions returns the default sink options.
func defaultOptions() options {
	return options{
		notify:   nil, // No owner to notify
		stripe:   nil, // Decided by ProbeStripeWorkaround
		compiler: CompileWGSL,
	}
}

// WithResizeNotifier sets the function told about output geometry changes.
func WithResizeNotifier(fn ResizeFunc) Option {
	return func(o *options) {
		o.notify = fn
	}
}

// WithStripeWorkaround forces the packed upload path on or off instead of
// probing the device.
//
// The packed path uploads each byte plane as RGBA texels, four bytes per
// texel, and expands it on the GPU. It avoids drivers where single-channel
// uploads stall.
func WithStripeWorkaround(enabled bool) Option {
	return func(o *options) {
		o.stripe = &enabled
	}
}

// WithShaderCompiler replaces the WGSL compiler used for devices that
// execute SPIR-V.
func WithShaderCompiler(fn ShaderCompiler) Option {
	return func(o *options) {
		if fn != nil {
			o.compiler = fn
		}
	}
}

// ProbeStripeWorkaround reports whether the packed upload path should be
// used on the device.
func ProbeStripeWorkaround(device gpucore.Device) bool {
	return device.Capabilities().SlowSingleChannelUpload
}
