package dxinterop

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/dxinterop/hal"
)

// DeviceProvider exposes the session's presentation device to gpucontext
// consumers. Queue and Adapter are nil because the presentation device has
// no WebGPU queue or adapter.
//
// gpucontext.Device is a type token. Consumers type-assert the value
// returned by Device to *PresentationDevice:
//
//	dev := s.DeviceProvider().Device().(*dxinterop.PresentationDevice)
//	dev.Flush()
func (s *Session) DeviceProvider() gpucontext.DeviceProvider {
	return sessionProvider{dev: &PresentationDevice{s: s}}
}

type sessionProvider struct {
	dev *PresentationDevice
}

func (p sessionProvider) Device() gpucontext.Device { return p.dev }

func (sessionProvider) Queue() gpucontext.Queue { return nil }

func (sessionProvider) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo names the presentation API. The adapter type is not queried.
func (sessionProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "Direct3D 11", Type: gpucontext.AdapterTypeUnknown}
}

func (sessionProvider) SurfaceFormat() gputypes.TextureFormat { return SurfaceFormat }

// PresentationDevice is the gpucontext.Device of a session. The session
// keeps ownership of the underlying device; once the session is closed
// Device returns nil and Flush does nothing.
type PresentationDevice struct {
	s *Session
}

// Device returns the presentation device, or nil after the session closed.
func (d *PresentationDevice) Device() hal.Device {
	if d.s.closed {
		return nil
	}
	return d.s.device
}

// Flush submits queued commands on the immediate context.
func (d *PresentationDevice) Flush() {
	if d.s.closed || d.s.dctx == nil {
		return
	}
	d.s.dctx.Flush()
}

var (
	_ gpucontext.DeviceProvider = sessionProvider{}
	_ gpucontext.Device         = (*PresentationDevice)(nil)
)
