package software

// Option configures a Device during creation.
//
// Example:
//
//	// Emulate a driver with slow single-channel uploads
//	dev := software.New(software.WithSlowSingleChannelUpload(true))
type Option func(*options)

// options holds optional configuration for Device creation.
type options struct {
	width             int
	height            int
	maxTextureSize    int
	slowSingleChannel bool
	workers           int
}

// defaultOptions returns the default device options.
func defaultOptions() options {
	return options{
		width:  1,
		height: 1,
	}
}

// WithSurfaceSize sets the initial surface size.
func WithSurfaceSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width = width
			o.height = height
		}
	}
}

// WithMaxTextureSize limits texture dimensions. Zero means unlimited.
func WithMaxTextureSize(n int) Option {
	return func(o *options) {
		o.maxTextureSize = n
	}
}

// WithSlowSingleChannelUpload makes the device report that single-channel
// uploads are slow, so frame sinks probing it enable the packed upload path.
func WithSlowSingleChannelUpload(enabled bool) Option {
	return func(o *options) {
		o.slowSingleChannel = enabled
	}
}

// WithWorkers sets how many goroutines shade large draws. Zero means
// GOMAXPROCS; 1 keeps every draw on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.workers = n
		}
	}
}
