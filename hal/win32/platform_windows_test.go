// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package win32

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"

	"github.com/gogpu/dxinterop/hal"
)

func TestPixelFormatDescriptorSize(t *testing.T) {
	assert.Equal(t, uint16(40), pixelFormatDescSz)
}

func TestFormatRoundTrip(t *testing.T) {
	for _, f := range []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm} {
		assert.Equal(t, f, textureFormat(dxgiFormat(f)))
	}
	assert.Equal(t, uint32(dxgiFormatUnknown), dxgiFormat(gputypes.TextureFormatUndefined))
}

func TestBindFlags(t *testing.T) {
	u := gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding
	assert.Equal(t, uint32(0x28), bindFlags(u))
	assert.Equal(t, u, textureUsage(bindFlags(u)))
}

func TestPointWrapSampler(t *testing.T) {
	d := hal.SamplerDesc{
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.MipmapFilterModeNearest,
		AddressModeU: gputypes.AddressModeRepeat,
	}
	assert.Equal(t, uint32(0), filter(d))
	assert.Equal(t, uint32(d3d11AddressWrap), addressMode(d.AddressModeU))
	assert.Equal(t, uint32(d3d11CullNone), cullMode(gputypes.CullModeNone))
}

func TestHRESULT(t *testing.T) {
	assert.NoError(t, hresult("Present", 0))
	assert.NoError(t, hresult("Present", 0x087A0001))

	err := hresult("Present", uintptr(dxgiErrorDeviceRemoved))
	var herr *HRESULTError
	if assert.ErrorAs(t, err, &herr) {
		assert.True(t, herr.DeviceRemoved())
		assert.Contains(t, herr.Error(), "Present")
	}
}

func TestRawNil(t *testing.T) {
	assert.Zero(t, raw(nil))
	var o *object
	assert.Zero(t, raw(o))
}
