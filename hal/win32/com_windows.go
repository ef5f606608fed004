// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package win32

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

// Interface IDs used by QueryInterface and friends.
var (
	iidIDXGIFactory2   = windows.GUID{Data1: 0x50c83a1c, Data2: 0xe072, Data3: 0x4c48, Data4: [8]byte{0x87, 0xb0, 0x36, 0x30, 0xfa, 0x36, 0xa6, 0xd0}}
	iidID3D11Texture2D = windows.GUID{Data1: 0x6f15aaf2, Data2: 0xd208, Data3: 0x4e89, Data4: [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
	iidIDXGISwapChain2 = windows.GUID{Data1: 0xa8be2ac4, Data2: 0x199f, Data3: 0x4946, Data4: [8]byte{0xb3, 0x31, 0x79, 0x59, 0x9f, 0xb9, 0x8d, 0xe7}}
)

// IUnknown vtable slots.
const (
	vtblQueryInterface = 0
	vtblAddRef         = 1
	vtblRelease        = 2
)

// HRESULT codes the session reacts to.
const (
	dxgiErrorDeviceRemoved       uint32 = 0x887A0005
	dxgiErrorDeviceHung          uint32 = 0x887A0006
	dxgiErrorDeviceReset         uint32 = 0x887A0007
	dxgiErrorSDKComponentMissing uint32 = 0x887A002D
)

// HRESULTError is a failed COM call.
type HRESULTError struct {
	Op   string
	Code uint32
}

func (e *HRESULTError) Error() string {
	return fmt.Sprintf("win32: %s failed: HRESULT %#08x", e.Op, e.Code)
}

// DeviceRemoved reports whether the error means the device is gone and
// everything created from it has to be recreated.
func (e *HRESULTError) DeviceRemoved() bool {
	switch e.Code {
	case dxgiErrorDeviceRemoved, dxgiErrorDeviceHung, dxgiErrorDeviceReset:
		return true
	}
	return false
}

func hresult(op string, hr uintptr) error {
	if int32(hr) >= 0 {
		return nil
	}
	return &HRESULTError{Op: op, Code: uint32(hr)}
}

// com is a raw COM interface pointer.
type com uintptr

// method returns the function pointer in vtable slot idx.
func (c com) method(idx int) uintptr {
	vtbl := *(*uintptr)(unsafe.Pointer(c))
	return *(*uintptr)(unsafe.Pointer(vtbl + uintptr(idx)*unsafe.Sizeof(uintptr(0))))
}

// call invokes vtable slot idx with c as the receiver.
func (c com) call(idx int, args ...uintptr) uintptr {
	r, _, _ := purego.SyscallN(c.method(idx), append([]uintptr{uintptr(c)}, args...)...)
	return r
}

// hr invokes vtable slot idx and converts the HRESULT.
func (c com) hr(op string, idx int, args ...uintptr) error {
	return hresult(op, c.call(idx, args...))
}

func (c com) queryInterface(iid *windows.GUID) (com, error) {
	var out com
	err := c.hr("QueryInterface", vtblQueryInterface, uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&out)))
	return out, err
}

func (c com) release() {
	if c != 0 {
		c.call(vtblRelease)
	}
}

// object is the common wrapper of views, shaders and states.
type object struct {
	ptr com
}

func (o *object) Release() {
	if o == nil {
		return
	}
	o.ptr.release()
	o.ptr = 0
}

func (o *object) raw() com {
	if o == nil {
		return 0
	}
	return o.ptr
}

// rawer is implemented by every wrapper that can be handed back to a COM call.
type rawer interface {
	raw() com
}

// raw extracts the interface pointer of v, or zero for nil and foreign types.
func raw(v any) uintptr {
	if r, ok := v.(rawer); ok {
		return uintptr(r.raw())
	}
	return 0
}
