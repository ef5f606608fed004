// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package win32

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/dxinterop/hal"
)

const (
	d3d11SDKVersion        = 7
	d3dDriverTypeHardware  = 1
	d3d11CreateDeviceBGRA  = 0x20
	d3d11CreateDeviceDebug = 0x2

	d3d11BindShaderResource = 0x8
	d3d11BindRenderTarget   = 0x20
	d3d11UsageDefault       = 0

	d3d11FillSolid = 3
	d3d11CullNone  = 1
	d3d11CullBack  = 3

	d3d11AddressWrap  = 1
	d3d11AddressClamp = 3

	d3d11ComparisonNever = 1
	d3d11Float32Max      = 3.402823466e+38

	d3d11PrimitiveTopologyTriangleList = 4

	dxgiFormatUnknown       = 0
	dxgiFormatR8G8B8A8Unorm = 28
	dxgiFormatB8G8R8A8Unorm = 87

	dxgiUsageRenderTargetOutput = 0x20
	dxgiScalingNone             = 1
	dxgiAlphaModeUnspecified    = 0

	d3dCompileOptimizationLevel3 = 1 << 15
)

// texture2DDesc is D3D11_TEXTURE2D_DESC.
type texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

// swapChainDesc1 is DXGI_SWAP_CHAIN_DESC1.
type swapChainDesc1 struct {
	Width         uint32
	Height        uint32
	Format        uint32
	Stereo        int32
	SampleCount   uint32
	SampleQuality uint32
	BufferUsage   uint32
	BufferCount   uint32
	Scaling       uint32
	SwapEffect    uint32
	AlphaMode     uint32
	Flags         uint32
}

// rasterizerDesc is D3D11_RASTERIZER_DESC.
type rasterizerDesc struct {
	FillMode              uint32
	CullMode              uint32
	FrontCounterClockwise int32
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
	DepthClipEnable       int32
	ScissorEnable         int32
	MultisampleEnable     int32
	AntialiasedLineEnable int32
}

// samplerDesc is D3D11_SAMPLER_DESC.
type samplerDesc struct {
	Filter         uint32
	AddressU       uint32
	AddressV       uint32
	AddressW       uint32
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc uint32
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

// viewport is D3D11_VIEWPORT.
type viewport struct {
	TopLeftX float32
	TopLeftY float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

func dxgiFormat(f gputypes.TextureFormat) uint32 {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return dxgiFormatR8G8B8A8Unorm
	case gputypes.TextureFormatBGRA8Unorm:
		return dxgiFormatB8G8R8A8Unorm
	default:
		return dxgiFormatUnknown
	}
}

func textureFormat(f uint32) gputypes.TextureFormat {
	switch f {
	case dxgiFormatR8G8B8A8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	case dxgiFormatB8G8R8A8Unorm:
		return gputypes.TextureFormatBGRA8Unorm
	default:
		return gputypes.TextureFormatUndefined
	}
}

func bindFlags(u gputypes.TextureUsage) uint32 {
	var f uint32
	if u&gputypes.TextureUsageTextureBinding != 0 {
		f |= d3d11BindShaderResource
	}
	if u&gputypes.TextureUsageRenderAttachment != 0 {
		f |= d3d11BindRenderTarget
	}
	return f
}

func textureUsage(bind uint32) gputypes.TextureUsage {
	var u gputypes.TextureUsage
	if bind&d3d11BindShaderResource != 0 {
		u |= gputypes.TextureUsageTextureBinding
	}
	if bind&d3d11BindRenderTarget != 0 {
		u |= gputypes.TextureUsageRenderAttachment
	}
	return u
}

func cullMode(m gputypes.CullMode) uint32 {
	if m == gputypes.CullModeNone {
		return d3d11CullNone
	}
	return d3d11CullBack
}

// filter packs min/mag/mip filter modes into a D3D11_FILTER value.
func filter(d hal.SamplerDesc) uint32 {
	var f uint32
	if d.MinFilter == gputypes.FilterModeLinear {
		f |= 0x10
	}
	if d.MagFilter == gputypes.FilterModeLinear {
		f |= 0x04
	}
	if d.MipmapFilter == gputypes.MipmapFilterModeLinear {
		f |= 0x01
	}
	return f
}

func addressMode(m gputypes.AddressMode) uint32 {
	if m == gputypes.AddressModeRepeat {
		return d3d11AddressWrap
	}
	return d3d11AddressClamp
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
