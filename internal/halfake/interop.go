// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package halfake

import (
	"fmt"

	"github.com/gogpu/dxinterop/hal"
)

type interop struct {
	p     *Platform
	table hal.InteropTable
}

// enter logs the call and checks the preconditions every interop entry point
// shares. Must be called with p.mu held.
func (i *interop) enter(name string, addr uintptr) error {
	p := i.p
	if err := p.record(name); err != nil {
		return err
	}
	if addr == 0 {
		p.violate("%s called through an unresolved entry point", name)
		return ErrInvalidHandle
	}
	if p.current == 0 {
		p.violate("%s called without a current rendering context", name)
		return ErrNoCurrentContext
	}
	return nil
}

func (i *interop) OpenDevice(dev hal.Device) (hal.InteropDevice, error) {
	p := i.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := i.enter("interop.OpenDevice", i.table.OpenDevice); err != nil {
		return 0, err
	}
	d, ok := dev.(*Device)
	if !ok || d.refs <= 0 {
		return 0, ErrInvalidHandle
	}
	h := hal.InteropDevice(p.handle())
	p.channels[h] = &channel{device: d, objects: make(map[hal.InteropObject]*object)}
	return h, nil
}

func (i *interop) RegisterObject(h hal.InteropDevice, res hal.Texture, name uint32, typ uint32, access hal.Access) (hal.InteropObject, error) {
	p := i.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := i.enter("interop.RegisterObject", i.table.RegisterObject); err != nil {
		return 0, err
	}
	ch, ok := p.channels[h]
	if !ok {
		p.violate("RegisterObject on closed interop device")
		return 0, ErrInvalidHandle
	}
	tex, ok := res.(*Texture)
	if !ok || tex.refs <= 0 || tex.device != ch.device {
		return 0, ErrInvalidHandle
	}
	if typ != hal.GLTexture2D && typ != hal.GLRenderbuffer {
		return 0, fmt.Errorf("halfake: unsupported GL object type %#x", typ)
	}
	for _, o := range ch.objects {
		if o.name == name {
			p.violate("GL name %d registered twice", name)
		}
	}
	obj := &object{
		handle:  hal.InteropObject(p.handle()),
		texture: tex,
		name:    name,
		access:  access,
	}
	tex.object = obj
	ch.objects[obj.handle] = obj
	p.objects[obj.handle] = obj
	return obj.handle, nil
}

func (i *interop) transition(name string, addr uintptr, h hal.InteropDevice, objs []hal.InteropObject, lock bool) error {
	p := i.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := i.enter(name, addr); err != nil {
		return err
	}
	ch, ok := p.channels[h]
	if !ok {
		p.violate("%s on closed interop device", name)
		return ErrInvalidHandle
	}
	if len(objs) == 0 {
		return fmt.Errorf("halfake: %s with no objects", name)
	}
	// All or nothing, like the driver.
	for _, oh := range objs {
		o, ok := ch.objects[oh]
		if !ok {
			return ErrInvalidHandle
		}
		if lock && o.locked {
			p.violate("%s on object %d already locked", name, o.name)
			return ErrObjectLocked
		}
		if !lock && !o.locked {
			p.violate("%s on object %d not locked", name, o.name)
			return ErrObjectUnlocked
		}
	}
	for _, oh := range objs {
		ch.objects[oh].locked = lock
	}
	return nil
}

func (i *interop) LockObjects(h hal.InteropDevice, objs []hal.InteropObject) error {
	return i.transition("interop.LockObjects", i.table.LockObjects, h, objs, true)
}

func (i *interop) UnlockObjects(h hal.InteropDevice, objs []hal.InteropObject) error {
	return i.transition("interop.UnlockObjects", i.table.UnlockObjects, h, objs, false)
}

func (i *interop) UnregisterObject(h hal.InteropDevice, oh hal.InteropObject) error {
	p := i.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := i.enter("interop.UnregisterObject", i.table.UnregisterObject); err != nil {
		return err
	}
	ch, ok := p.channels[h]
	if !ok {
		p.violate("UnregisterObject on closed interop device")
		return ErrInvalidHandle
	}
	o, ok := ch.objects[oh]
	if !ok {
		return ErrInvalidHandle
	}
	if o.locked {
		p.violate("object %d unregistered while locked", o.name)
		return ErrObjectLocked
	}
	o.texture.object = nil
	delete(ch.objects, oh)
	delete(p.objects, oh)
	return nil
}

func (i *interop) CloseDevice(h hal.InteropDevice) error {
	p := i.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := i.enter("interop.CloseDevice", i.table.CloseDevice); err != nil {
		return err
	}
	ch, ok := p.channels[h]
	if !ok {
		return ErrInvalidHandle
	}
	if len(ch.objects) > 0 {
		p.violate("interop device closed with %d objects registered", len(ch.objects))
		return ErrStillRegistered
	}
	if ch.device.refs <= 0 {
		p.violate("interop device closed after its D3D device was released")
	}
	delete(p.channels, h)
	return nil
}
