package dxinterop

import "github.com/gogpu/dxinterop/hal"

// Option configures a Session during creation.
//
// Example:
//
//	s, err := dxinterop.NewSession(hwnd,
//	    dxinterop.WithSwapInterval(0),
//	    dxinterop.WithMaxFrameLatency(1),
//	)
type Option func(*options)

type options struct {
	platform        hal.Platform
	context         ContextConfig
	debug           bool
	swapInterval    uint32
	maxFrameLatency uint32
	devices         *Devices
}

func defaultOptions() options {
	return options{
		context:      DefaultContextConfig(),
		swapInterval: 1,
	}
}

// WithPlatform sets the driver platform. The default is the native platform
// of the running OS, if there is one.
func WithPlatform(p hal.Platform) Option {
	return func(o *options) {
		o.platform = p
	}
}

// WithContextConfig sets the version and profile of the rendering context.
func WithContextConfig(cfg ContextConfig) Option {
	return func(o *options) {
		o.context = cfg
	}
}

// WithDebugLayer enables the presentation device's debug layer.
func WithDebugLayer(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
	}
}

// WithSwapInterval sets the interval used by Session.PresentDefault.
// 0 presents immediately with tearing allowed.
func WithSwapInterval(n uint32) Option {
	return func(o *options) {
		o.swapInterval = n
	}
}

// WithMaxFrameLatency creates the swap chain with a frame latency waitable
// object and limits queued frames to n. 0 disables the waitable object.
func WithMaxFrameLatency(n uint32) Option {
	return func(o *options) {
		o.maxFrameLatency = n
	}
}

// WithDevices sets the table that tracks live interop devices. Sessions that
// share a table can be told apart by LockTextures and UnlockTextures.
// The default is a table private to the session.
func WithDevices(d *Devices) Option {
	return func(o *options) {
		o.devices = d
	}
}
