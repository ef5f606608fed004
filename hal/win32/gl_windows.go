// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package win32

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"

	"github.com/gogpu/dxinterop/hal"
)

const (
	wsPopup = 0x80000000

	pfdDoubleBuffer   = 0x00000001
	pfdDrawToWindow   = 0x00000004
	pfdSupportOpenGL  = 0x00000020
	pfdTypeRGBA       = 0
	pfdMainPlane      = 0
	pixelFormatDescSz = uint16(unsafe.Sizeof(pixelFormatDescriptor{}))
)

// pixelFormatDescriptor is PIXELFORMATDESCRIPTOR.
type pixelFormatDescriptor struct {
	Size           uint16
	Version        uint16
	Flags          uint32
	PixelType      uint8
	ColorBits      uint8
	RedBits        uint8
	RedShift       uint8
	GreenBits      uint8
	GreenShift     uint8
	BlueBits       uint8
	BlueShift      uint8
	AlphaBits      uint8
	AlphaShift     uint8
	AccumBits      uint8
	AccumRedBits   uint8
	AccumGreenBits uint8
	AccumBlueBits  uint8
	AccumAlphaBits uint8
	DepthBits      uint8
	StencilBits    uint8
	AuxBuffers     uint8
	LayerType      uint8
	Reserved       uint8
	LayerMask      uint32
	VisibleMask    uint32
	DamageMask     uint32
}

type gl struct{}

var staticClass = windows.StringToUTF16Ptr("STATIC")

func (gl) CreateSurfaceWindow() (hal.Window, error) {
	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(staticClass)),
		0,
		wsPopup,
		0, 0, 1, 1,
		0, 0, 0, 0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("win32: CreateWindowExW: %w", err)
	}
	return hal.Window(hwnd), nil
}

func (gl) DestroyWindow(w hal.Window) error {
	if r, _, err := procDestroyWindow.Call(uintptr(w)); r == 0 {
		return fmt.Errorf("win32: DestroyWindow: %w", err)
	}
	return nil
}

func (gl) GetDC(w hal.Window) (hal.DC, error) {
	dc, _, _ := procGetDC.Call(uintptr(w))
	if dc == 0 {
		return 0, fmt.Errorf("win32: GetDC failed for window %#x", uintptr(w))
	}
	return hal.DC(dc), nil
}

func (gl) ReleaseDC(w hal.Window, dc hal.DC) error {
	if r, _, _ := procReleaseDC.Call(uintptr(w), uintptr(dc)); r == 0 {
		return fmt.Errorf("win32: ReleaseDC failed for window %#x", uintptr(w))
	}
	return nil
}

func (gl) SetPixelFormat(dc hal.DC, pf hal.PixelFormat) error {
	want := pixelFormatDescriptor{
		Size:        pixelFormatDescSz,
		Version:     1,
		Flags:       pfdDrawToWindow | pfdSupportOpenGL,
		PixelType:   pfdTypeRGBA,
		ColorBits:   pf.ColorBits,
		DepthBits:   pf.DepthBits,
		StencilBits: pf.StencilBits,
		LayerType:   pfdMainPlane,
	}
	if pf.DoubleBuffer {
		want.Flags |= pfdDoubleBuffer
	}
	format, _, err := procChoosePixelFormat.Call(uintptr(dc), uintptr(unsafe.Pointer(&want)))
	if format == 0 {
		return fmt.Errorf("win32: ChoosePixelFormat: %w", err)
	}
	var got pixelFormatDescriptor
	if r, _, err := procDescribePixelFormat.Call(uintptr(dc), format, uintptr(pixelFormatDescSz), uintptr(unsafe.Pointer(&got))); r == 0 {
		return fmt.Errorf("win32: DescribePixelFormat: %w", err)
	}
	if r, _, err := procSetPixelFormat.Call(uintptr(dc), format, uintptr(unsafe.Pointer(&got))); r == 0 {
		return fmt.Errorf("win32: SetPixelFormat: %w", err)
	}
	return nil
}

func (gl) CreateLegacyContext(dc hal.DC) (hal.GLRC, error) {
	rc, _, err := procWglCreateContext.Call(uintptr(dc))
	if rc == 0 {
		return 0, fmt.Errorf("win32: wglCreateContext: %w", err)
	}
	return hal.GLRC(rc), nil
}

func (gl) CreateContextAttribs(proc uintptr, dc hal.DC, share hal.GLRC, attribs []int32) (hal.GLRC, error) {
	if proc == 0 || len(attribs) == 0 {
		return 0, fmt.Errorf("win32: %s not available", hal.ProcCreateContextAttribs)
	}
	rc, _, errno := purego.SyscallN(proc, uintptr(dc), uintptr(share), uintptr(unsafe.Pointer(&attribs[0])))
	if rc == 0 {
		return 0, fmt.Errorf("win32: %s: %w", hal.ProcCreateContextAttribs, windows.Errno(errno))
	}
	return hal.GLRC(rc), nil
}

func (gl) MakeCurrent(dc hal.DC, rc hal.GLRC) error {
	if r, _, err := procWglMakeCurrent.Call(uintptr(dc), uintptr(rc)); r == 0 {
		return fmt.Errorf("win32: wglMakeCurrent: %w", err)
	}
	return nil
}

func (gl) DeleteContext(rc hal.GLRC) error {
	if r, _, err := procWglDeleteContext.Call(uintptr(rc)); r == 0 {
		return fmt.Errorf("win32: wglDeleteContext: %w", err)
	}
	return nil
}

func (gl) SwapBuffers(dc hal.DC) error {
	if r, _, err := procSwapBuffers.Call(uintptr(dc)); r == 0 {
		return fmt.Errorf("win32: SwapBuffers: %w", err)
	}
	return nil
}

func (gl) ProcAddress(name string) uintptr {
	cname, err := windows.BytePtrFromString(name)
	if err != nil {
		return 0
	}
	addr, _, _ := procWglGetProcAddress.Call(uintptr(unsafe.Pointer(cname)))
	// Some drivers return small sentinel values instead of NULL.
	switch addr {
	case 1, 2, 3, ^uintptr(0):
		return 0
	}
	return addr
}

func (gl) Interop(table hal.InteropTable) hal.Interop {
	return newInterop(table)
}

func (gl) ClientSize(w hal.Window) (int, int, error) {
	var rc windows.Rect
	if r, _, err := procGetClientRect.Call(uintptr(w), uintptr(unsafe.Pointer(&rc))); r == 0 {
		return 0, 0, fmt.Errorf("win32: GetClientRect: %w", err)
	}
	return int(rc.Right - rc.Left), int(rc.Bottom - rc.Top), nil
}
