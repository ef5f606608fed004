package dxinterop

import (
	"fmt"

	"github.com/gogpu/dxinterop/hal"
	"github.com/gogpu/dxinterop/internal/arena"
)

// Devices tracks live interop devices. Shared textures refer to their device
// through it, so a texture whose device has been closed reports
// ErrStaleContext instead of touching a dead channel.
//
// Thread-safe.
type Devices struct {
	arena *arena.Arena[*InteropDevice]
}

// NewDevices returns an empty device table.
func NewDevices() *Devices {
	return &Devices{arena: arena.New[*InteropDevice]()}
}

// Len returns the number of open interop devices.
func (d *Devices) Len() int { return d.arena.Len() }

func (d *Devices) lookup(r arena.Ref) (*InteropDevice, bool) {
	return d.arena.Get(r)
}

// InteropDevice is an open interop channel between a rendering context and
// a presentation device.
//
// The presentation device and its immediate context are borrowed: closing
// the InteropDevice does not release them.
type InteropDevice struct {
	devices *Devices
	ref     arena.Ref
	interop hal.Interop
	device  hal.Device
	ctx     hal.DeviceContext
	channel hal.InteropDevice

	registered int
	closed     bool
}

// OpenInteropDevice opens an interop channel for device on rc. rc must be
// current on the calling thread.
func OpenInteropDevice(devices *Devices, rc *RenderingContext, device hal.Device, ctx hal.DeviceContext) (*InteropDevice, error) {
	const op = "OpenInteropDevice"

	ip, err := rc.Interop()
	if err != nil {
		return nil, err
	}
	h, err := ip.OpenDevice(device)
	if err != nil {
		return nil, setupError(op, fmt.Errorf("open device: %w", err))
	}
	if !h.IsValid() {
		return nil, setupError(op, fmt.Errorf("open device: %w", ErrInvalidHandle))
	}

	d := &InteropDevice{
		devices: devices,
		interop: ip,
		device:  device,
		ctx:     ctx,
		channel: h,
	}
	d.ref = devices.arena.Insert(d)
	Logger().Debug("dxinterop: interop device opened", "handle", uintptr(h))
	return d, nil
}

// Handle returns the interop channel handle.
func (d *InteropDevice) Handle() hal.InteropDevice { return d.channel }

// Device returns the presentation device.
func (d *InteropDevice) Device() hal.Device { return d.device }

// Context returns the immediate context of the presentation device.
func (d *InteropDevice) Context() hal.DeviceContext { return d.ctx }

// Close closes the interop channel. Every shared texture registered on the
// device must have been destroyed first. After Close, textures that still
// refer to the device fail with ErrStaleContext.
func (d *InteropDevice) Close() error {
	const op = "InteropDevice.Close"
	if d.closed {
		return nil
	}
	if d.registered > 0 {
		return contractError(op, fmt.Errorf("%w: %d", ErrTexturesRegistered, d.registered))
	}
	if err := d.interop.CloseDevice(d.channel); err != nil {
		return deviceError(op, err)
	}
	d.closed = true
	d.devices.arena.Remove(d.ref)
	Logger().Debug("dxinterop: interop device closed", "handle", uintptr(d.channel))
	return nil
}
