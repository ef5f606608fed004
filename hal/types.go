// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hal

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Window is a native window handle (HWND).
type Window uintptr

// IsValid reports whether the handle is non-null.
func (h Window) IsValid() bool { return h != 0 }

// DC is a device context handle (HDC).
type DC uintptr

// IsValid reports whether the handle is non-null.
func (h DC) IsValid() bool { return h != 0 }

// GLRC is a rendering context handle (HGLRC).
type GLRC uintptr

// IsValid reports whether the handle is non-null.
func (h GLRC) IsValid() bool { return h != 0 }

// InteropDevice is the handle returned by the interop open-device call.
type InteropDevice uintptr

// IsValid reports whether the handle is non-null.
func (h InteropDevice) IsValid() bool { return h != 0 }

// InteropObject is the handle returned by the interop register-object call.
type InteropObject uintptr

// IsValid reports whether the handle is non-null.
func (h InteropObject) IsValid() bool { return h != 0 }

// PixelFormat describes the surface format requested for a rendering context.
type PixelFormat struct {
	DoubleBuffer bool
	ColorBits    uint8
	DepthBits    uint8
	StencilBits  uint8
}

// DefaultPixelFormat is a double-buffered 32-bit RGBA format with a
// 24/8 depth-stencil buffer.
var DefaultPixelFormat = PixelFormat{
	DoubleBuffer: true,
	ColorBits:    32,
	DepthBits:    24,
	StencilBits:  8,
}

// WGL_ARB_create_context attribute names and values.
const (
	ContextMajorVersion            int32 = 0x2091
	ContextMinorVersion            int32 = 0x2092
	ContextFlags                   int32 = 0x2094
	ContextProfileMask             int32 = 0x9126
	ContextCoreProfileBit          int32 = 0x0001
	ContextCompatibilityProfileBit int32 = 0x0002
	ContextForwardCompatibleBit    int32 = 0x0002
)

// GL object types accepted by the interop register-object call.
const (
	GLTexture2D    uint32 = 0x0DE1
	GLRenderbuffer uint32 = 0x8D41
)

// Access is the WGL_NV_DX_interop access hint for a registered object.
type Access uint32

// Access hints.
const (
	AccessReadOnly     Access = 0x0000
	AccessReadWrite    Access = 0x0001
	AccessWriteDiscard Access = 0x0002
)

// String returns the extension's name for the access hint.
func (a Access) String() string {
	switch a {
	case AccessReadOnly:
		return "READ_ONLY"
	case AccessReadWrite:
		return "READ_WRITE"
	case AccessWriteDiscard:
		return "WRITE_DISCARD"
	default:
		return fmt.Sprintf("Access(%d)", uint32(a))
	}
}

// Entry point names of WGL_ARB_create_context and WGL_NV_DX_interop.
const (
	ProcCreateContextAttribs = "wglCreateContextAttribsARB"
	ProcDXOpenDevice         = "wglDXOpenDeviceNV"
	ProcDXRegisterObject     = "wglDXRegisterObjectNV"
	ProcDXLockObjects        = "wglDXLockObjectsNV"
	ProcDXUnlockObjects      = "wglDXUnlockObjectsNV"
	ProcDXUnregisterObject   = "wglDXUnregisterObjectNV"
	ProcDXCloseDevice        = "wglDXCloseDeviceNV"
)

// InteropTable holds the resolved addresses of the interop entry points.
type InteropTable struct {
	OpenDevice       uintptr
	RegisterObject   uintptr
	LockObjects      uintptr
	UnlockObjects    uintptr
	UnregisterObject uintptr
	CloseDevice      uintptr
}

// DeviceFlags control presentation device creation.
type DeviceFlags uint32

// Device creation flags.
const (
	DeviceBGRASupport DeviceFlags = 1 << iota
	DeviceDebug
)

// TextureDesc describes a 2D texture on the presentation device.
type TextureDesc struct {
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
}

// SwapEffect selects the presentation model of a swap chain.
type SwapEffect uint32

// Swap effects. Only flip-discard is used by dxinterop.
const (
	SwapEffectDiscard     SwapEffect = 0
	SwapEffectFlipDiscard SwapEffect = 4
)

// SwapChainFlags are creation and resize flags of a swap chain.
type SwapChainFlags uint32

// Swap chain flags.
const (
	SwapChainFrameLatencyWaitable SwapChainFlags = 64
	SwapChainAllowTearing         SwapChainFlags = 2048
)

// SwapChainDesc describes a swap chain. Zero width and height mean "size of
// the window".
type SwapChainDesc struct {
	Width       uint32
	Height      uint32
	Format      gputypes.TextureFormat
	BufferCount uint32
	SwapEffect  SwapEffect
	Flags       SwapChainFlags
}

// PresentFlags modify a single present call.
type PresentFlags uint32

// Present flags.
const (
	PresentAllowTearing PresentFlags = 0x200
)

// RasterizerDesc describes the fixed rasterizer state.
type RasterizerDesc struct {
	CullMode        gputypes.CullMode
	DepthClipEnable bool
}

// SamplerDesc describes a sampler state.
type SamplerDesc struct {
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	MipmapFilter gputypes.MipmapFilterMode
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
	AddressModeW gputypes.AddressMode
}

// Viewport is a render viewport in pixels.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// WaitResult is the outcome of waiting on a WaitHandle.
type WaitResult int

// Wait results.
const (
	WaitSignaled WaitResult = iota
	WaitTimeout
	WaitAbandoned
)

// String returns a short name for the result.
func (r WaitResult) String() string {
	switch r {
	case WaitSignaled:
		return "signaled"
	case WaitTimeout:
		return "timeout"
	case WaitAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("WaitResult(%d)", int(r))
	}
}
