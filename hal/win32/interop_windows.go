// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package win32

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/gogpu/dxinterop/hal"
)

var errUnresolved = errors.New("win32: interop entry point not resolved")

// interop binds the WGL_NV_DX_interop entry points to typed Go functions.
// A nil function means its address was zero.
type interop struct {
	openDevice       func(dxDevice uintptr) uintptr
	closeDevice      func(h uintptr) int32
	registerObject   func(h, dxObject uintptr, name, typ, access uint32) uintptr
	unregisterObject func(h, obj uintptr) int32
	lockObjects      func(h uintptr, count int32, objs unsafe.Pointer) int32
	unlockObjects    func(h uintptr, count int32, objs unsafe.Pointer) int32
}

func bind(fptr any, addr uintptr) {
	if addr != 0 {
		purego.RegisterFunc(fptr, addr)
	}
}

func newInterop(t hal.InteropTable) *interop {
	i := &interop{}
	bind(&i.openDevice, t.OpenDevice)
	bind(&i.closeDevice, t.CloseDevice)
	bind(&i.registerObject, t.RegisterObject)
	bind(&i.unregisterObject, t.UnregisterObject)
	bind(&i.lockObjects, t.LockObjects)
	bind(&i.unlockObjects, t.UnlockObjects)
	return i
}

func (i *interop) OpenDevice(dev hal.Device) (hal.InteropDevice, error) {
	if i.openDevice == nil {
		return 0, errUnresolved
	}
	p := raw(dev)
	if p == 0 {
		return 0, fmt.Errorf("win32: %s: not a Direct3D device", hal.ProcDXOpenDevice)
	}
	h := i.openDevice(p)
	if h == 0 {
		return 0, fmt.Errorf("win32: %s failed", hal.ProcDXOpenDevice)
	}
	return hal.InteropDevice(h), nil
}

func (i *interop) RegisterObject(h hal.InteropDevice, res hal.Texture, name uint32, typ uint32, access hal.Access) (hal.InteropObject, error) {
	if i.registerObject == nil {
		return 0, errUnresolved
	}
	p := raw(res)
	if p == 0 {
		return 0, fmt.Errorf("win32: %s: not a Direct3D texture", hal.ProcDXRegisterObject)
	}
	obj := i.registerObject(uintptr(h), p, name, typ, uint32(access))
	if obj == 0 {
		return 0, fmt.Errorf("win32: %s failed for GL name %d", hal.ProcDXRegisterObject, name)
	}
	return hal.InteropObject(obj), nil
}

func (i *interop) LockObjects(h hal.InteropDevice, objs []hal.InteropObject) error {
	return transition(hal.ProcDXLockObjects, i.lockObjects, h, objs)
}

func (i *interop) UnlockObjects(h hal.InteropDevice, objs []hal.InteropObject) error {
	return transition(hal.ProcDXUnlockObjects, i.unlockObjects, h, objs)
}

func transition(name string, fn func(uintptr, int32, unsafe.Pointer) int32, h hal.InteropDevice, objs []hal.InteropObject) error {
	if fn == nil {
		return errUnresolved
	}
	if len(objs) == 0 {
		return nil
	}
	if fn(uintptr(h), int32(len(objs)), unsafe.Pointer(&objs[0])) == 0 {
		return fmt.Errorf("win32: %s failed for %d objects", name, len(objs))
	}
	return nil
}

func (i *interop) UnregisterObject(h hal.InteropDevice, obj hal.InteropObject) error {
	if i.unregisterObject == nil {
		return errUnresolved
	}
	if i.unregisterObject(uintptr(h), uintptr(obj)) == 0 {
		return fmt.Errorf("win32: %s failed", hal.ProcDXUnregisterObject)
	}
	return nil
}

func (i *interop) CloseDevice(h hal.InteropDevice) error {
	if i.closeDevice == nil {
		return errUnresolved
	}
	if i.closeDevice(uintptr(h)) == 0 {
		return fmt.Errorf("win32: %s failed", hal.ProcDXCloseDevice)
	}
	return nil
}
