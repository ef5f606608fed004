// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hal

import (
	"time"

	"github.com/gogpu/gputypes"
)

// Platform bundles both sides of the driver boundary.
type Platform interface {
	GL() GL
	D3D() D3D
}

// GL is the rendering API platform layer.
//
// Binding a context with MakeCurrent affects the calling OS thread only.
// ProcAddress resolves against whatever context is current on that thread.
type GL interface {
	// CreateSurfaceWindow creates a hidden 1x1 popup window that exists only
	// to carry a pixel format for a rendering context.
	CreateSurfaceWindow() (Window, error)
	DestroyWindow(w Window) error

	GetDC(w Window) (DC, error)
	ReleaseDC(w Window, dc DC) error

	// SetPixelFormat chooses, describes and sets the closest matching pixel
	// format on dc.
	SetPixelFormat(dc DC, pf PixelFormat) error

	CreateLegacyContext(dc DC) (GLRC, error)
	CreateContextAttribs(proc uintptr, dc DC, share GLRC, attribs []int32) (GLRC, error)
	// MakeCurrent binds rc to dc on the calling thread. A zero rc unbinds.
	MakeCurrent(dc DC, rc GLRC) error
	DeleteContext(rc GLRC) error
	SwapBuffers(dc DC) error

	// ProcAddress returns the address of an extension entry point, or zero.
	ProcAddress(name string) uintptr

	// Interop binds the resolved interop entry points.
	Interop(table InteropTable) Interop

	// ClientSize returns the client area size of w in pixels.
	ClientSize(w Window) (width, height int, err error)
}

// Interop is the WGL_NV_DX_interop entry point set.
type Interop interface {
	OpenDevice(dev Device) (InteropDevice, error)
	RegisterObject(h InteropDevice, res Texture, name uint32, typ uint32, access Access) (InteropObject, error)
	LockObjects(h InteropDevice, objs []InteropObject) error
	UnlockObjects(h InteropDevice, objs []InteropObject) error
	UnregisterObject(h InteropDevice, obj InteropObject) error
	CloseDevice(h InteropDevice) error
}

// D3D is the presentation API platform layer.
type D3D interface {
	CreateDevice(flags DeviceFlags) (Device, DeviceContext, error)
	CreateSwapChain(dev Device, w Window, desc SwapChainDesc) (SwapChain, error)
	// CompileShader compiles HLSL source for the given entry point and target
	// profile (e.g. "vs_5_0") and returns the bytecode.
	CompileShader(src []byte, name, entry, target string) ([]byte, error)
}

// Object is a reference-counted driver object.
type Object interface {
	Release()
}

// Texture is a 2D texture resource.
type Texture interface {
	Object
	Desc() TextureDesc
}

// ShaderResourceView is a shader-visible view of a texture.
type ShaderResourceView interface {
	Object
}

// RenderTargetView is a render-target view of a texture.
type RenderTargetView interface {
	Object
}

// VertexShader is a compiled vertex shader.
type VertexShader interface {
	Object
}

// PixelShader is a compiled pixel shader.
type PixelShader interface {
	Object
}

// RasterizerState is an immutable rasterizer state object.
type RasterizerState interface {
	Object
}

// SamplerState is an immutable sampler state object.
type SamplerState interface {
	Object
}

// Device is the presentation device.
type Device interface {
	Object
	CreateTexture2D(desc TextureDesc) (Texture, error)
	CreateShaderResourceView(tex Texture) (ShaderResourceView, error)
	CreateRenderTargetView(tex Texture) (RenderTargetView, error)
	CreateVertexShader(bytecode []byte) (VertexShader, error)
	CreatePixelShader(bytecode []byte) (PixelShader, error)
	CreateRasterizerState(desc RasterizerDesc) (RasterizerState, error)
	CreateSamplerState(desc SamplerDesc) (SamplerState, error)
}

// DeviceContext is the immediate command context of a Device.
//
// Passing nil to a Set method unbinds the slot.
type DeviceContext interface {
	Object
	IASetTriangleList()
	VSSetShader(vs VertexShader)
	PSSetShader(ps PixelShader)
	RSSetState(rs RasterizerState)
	RSSetViewport(vp Viewport)
	PSSetSampler(slot uint32, s SamplerState)
	PSSetShaderResource(slot uint32, srv ShaderResourceView)
	OMSetRenderTarget(rtv RenderTargetView)
	Draw(vertexCount, startVertex uint32)
	ClearState()
	Flush()
}

// SwapChain is a DXGI swap chain bound to a window.
type SwapChain interface {
	Object
	Present(interval uint32, flags PresentFlags) error
	// Buffer returns a new reference to back buffer i.
	Buffer(i uint32) (Texture, error)
	Desc() (SwapChainDesc, error)
	// ResizeBuffers resizes all buffers. A zero count keeps the buffer count;
	// gputypes.TextureFormatUndefined keeps the format. It fails while any
	// buffer is still referenced.
	ResizeBuffers(count, width, height uint32, format gputypes.TextureFormat, flags SwapChainFlags) error
	SetMaximumFrameLatency(n uint32) error
	FrameLatencyWaitable() (WaitHandle, error)
}

// WaitHandle is a waitable OS object.
type WaitHandle interface {
	Wait(timeout time.Duration) (WaitResult, error)
	Close() error
}
