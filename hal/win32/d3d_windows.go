// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package win32

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/gogpu/dxinterop/hal"
)

// ID3D11Device vtable slots.
const (
	deviceCreateTexture2D          = 5
	deviceCreateShaderResourceView = 7
	deviceCreateRenderTargetView   = 9
	deviceCreateVertexShader       = 12
	deviceCreatePixelShader        = 15
	deviceCreateRasterizerState    = 22
	deviceCreateSamplerState       = 23
)

// ID3D11DeviceContext vtable slots.
const (
	contextPSSetShaderResources   = 8
	contextPSSetShader            = 9
	contextPSSetSamplers          = 10
	contextVSSetShader            = 11
	contextDraw                   = 13
	contextIASetPrimitiveTopology = 24
	contextOMSetRenderTargets     = 33
	contextRSSetState             = 43
	contextRSSetViewports         = 44
	contextClearState             = 110
	contextFlush                  = 111
)

// Other vtable slots.
const (
	texture2DGetDesc              = 10
	blobGetBufferPointer          = 3
	blobGetBufferSize             = 4
	factoryCreateSwapChainForHwnd = 15
)

type d3d struct{}

func (d3d) CreateDevice(flags hal.DeviceFlags) (hal.Device, hal.DeviceContext, error) {
	var f uintptr
	if flags&hal.DeviceBGRASupport != 0 {
		f |= d3d11CreateDeviceBGRA
	}
	if flags&hal.DeviceDebug != 0 {
		f |= d3d11CreateDeviceDebug
	}
	dev, ctx, err := createDevice(f)
	var herr *HRESULTError
	if errors.As(err, &herr) && herr.Code == dxgiErrorSDKComponentMissing && f&d3d11CreateDeviceDebug != 0 {
		// The debug layer is an optional Windows feature.
		dev, ctx, err = createDevice(f &^ d3d11CreateDeviceDebug)
	}
	if err != nil {
		return nil, nil, err
	}
	return &device{ptr: dev}, &deviceContext{ptr: ctx}, nil
}

func createDevice(flags uintptr) (com, com, error) {
	var dev, ctx com
	hr, _, _ := procD3D11CreateDevice.Call(
		0,
		d3dDriverTypeHardware,
		0,
		flags,
		0, 0,
		d3d11SDKVersion,
		uintptr(unsafe.Pointer(&dev)),
		0,
		uintptr(unsafe.Pointer(&ctx)),
	)
	if err := hresult("D3D11CreateDevice", hr); err != nil {
		return 0, 0, err
	}
	return dev, ctx, nil
}

func (d3d) CreateSwapChain(dev hal.Device, w hal.Window, desc hal.SwapChainDesc) (hal.SwapChain, error) {
	dp := raw(dev)
	if dp == 0 {
		return nil, errors.New("win32: CreateSwapChain: not a Direct3D device")
	}
	var factory com
	hr, _, _ := procCreateDXGIFactory1.Call(uintptr(unsafe.Pointer(&iidIDXGIFactory2)), uintptr(unsafe.Pointer(&factory)))
	if err := hresult("CreateDXGIFactory1", hr); err != nil {
		return nil, err
	}
	defer factory.release()

	scd := swapChainDesc1{
		Width:       desc.Width,
		Height:      desc.Height,
		Format:      dxgiFormat(desc.Format),
		SampleCount: 1,
		BufferUsage: dxgiUsageRenderTargetOutput,
		BufferCount: desc.BufferCount,
		Scaling:     dxgiScalingNone,
		SwapEffect:  uint32(desc.SwapEffect),
		AlphaMode:   dxgiAlphaModeUnspecified,
		Flags:       uint32(desc.Flags),
	}
	var sc1 com
	if err := factory.hr("CreateSwapChainForHwnd", factoryCreateSwapChainForHwnd,
		dp, uintptr(w), uintptr(unsafe.Pointer(&scd)), 0, 0, uintptr(unsafe.Pointer(&sc1))); err != nil {
		return nil, err
	}
	sc := &swapChain{ptr: sc1}
	if desc.Flags&hal.SwapChainFrameLatencyWaitable != 0 {
		sc2, err := sc1.queryInterface(&iidIDXGISwapChain2)
		if err != nil {
			sc1.release()
			return nil, err
		}
		sc.ptr2 = sc2
	}
	return sc, nil
}

func (d3d) CompileShader(src []byte, name, entry, target string) ([]byte, error) {
	if len(src) == 0 {
		return nil, errors.New("win32: CompileShader: empty source")
	}
	cname, err := windows.BytePtrFromString(name)
	if err != nil {
		return nil, err
	}
	centry, err := windows.BytePtrFromString(entry)
	if err != nil {
		return nil, err
	}
	ctarget, err := windows.BytePtrFromString(target)
	if err != nil {
		return nil, err
	}
	var code, errs com
	hr, _, _ := procD3DCompile.Call(
		uintptr(unsafe.Pointer(&src[0])),
		uintptr(len(src)),
		uintptr(unsafe.Pointer(cname)),
		0, 0,
		uintptr(unsafe.Pointer(centry)),
		uintptr(unsafe.Pointer(ctarget)),
		d3dCompileOptimizationLevel3,
		0,
		uintptr(unsafe.Pointer(&code)),
		uintptr(unsafe.Pointer(&errs)),
	)
	defer errs.release()
	defer code.release()
	if err := hresult("D3DCompile", hr); err != nil {
		if msg := blobBytes(errs); len(msg) > 0 {
			return nil, fmt.Errorf("%w: %s: %s", err, name, trimNull(msg))
		}
		return nil, err
	}
	return blobBytes(code), nil
}

// blobBytes copies the contents of an ID3DBlob.
func blobBytes(b com) []byte {
	if b == 0 {
		return nil
	}
	p := b.call(blobGetBufferPointer)
	n := b.call(blobGetBufferSize)
	if p == 0 || n == 0 {
		return nil
	}
	return append([]byte(nil), unsafe.Slice((*byte)(unsafe.Pointer(p)), n)...)
}

func trimNull(b []byte) string {
	for len(b) > 0 && (b[len(b)-1] == 0 || b[len(b)-1] == '\n') {
		b = b[:len(b)-1]
	}
	return string(b)
}

type device struct {
	ptr com
}

func (d *device) raw() com { return d.ptr }

func (d *device) Release() {
	d.ptr.release()
	d.ptr = 0
}

func (d *device) CreateTexture2D(desc hal.TextureDesc) (hal.Texture, error) {
	td := texture2DDesc{
		Width:       desc.Width,
		Height:      desc.Height,
		MipLevels:   1,
		ArraySize:   1,
		Format:      dxgiFormat(desc.Format),
		SampleCount: 1,
		Usage:       d3d11UsageDefault,
		BindFlags:   bindFlags(desc.Usage),
	}
	var t com
	if err := d.ptr.hr("CreateTexture2D", deviceCreateTexture2D,
		uintptr(unsafe.Pointer(&td)), 0, uintptr(unsafe.Pointer(&t))); err != nil {
		return nil, err
	}
	return &texture{ptr: t}, nil
}

func (d *device) CreateShaderResourceView(tex hal.Texture) (hal.ShaderResourceView, error) {
	return d.createObject("CreateShaderResourceView", deviceCreateShaderResourceView, raw(tex), 0)
}

func (d *device) CreateRenderTargetView(tex hal.Texture) (hal.RenderTargetView, error) {
	return d.createObject("CreateRenderTargetView", deviceCreateRenderTargetView, raw(tex), 0)
}

func (d *device) CreateVertexShader(bytecode []byte) (hal.VertexShader, error) {
	if len(bytecode) == 0 {
		return nil, errors.New("win32: CreateVertexShader: empty bytecode")
	}
	return d.createObject("CreateVertexShader", deviceCreateVertexShader,
		uintptr(unsafe.Pointer(&bytecode[0])), uintptr(len(bytecode)), 0)
}

func (d *device) CreatePixelShader(bytecode []byte) (hal.PixelShader, error) {
	if len(bytecode) == 0 {
		return nil, errors.New("win32: CreatePixelShader: empty bytecode")
	}
	return d.createObject("CreatePixelShader", deviceCreatePixelShader,
		uintptr(unsafe.Pointer(&bytecode[0])), uintptr(len(bytecode)), 0)
}

func (d *device) CreateRasterizerState(desc hal.RasterizerDesc) (hal.RasterizerState, error) {
	rd := rasterizerDesc{
		FillMode:        d3d11FillSolid,
		CullMode:        cullMode(desc.CullMode),
		DepthClipEnable: boolInt(desc.DepthClipEnable),
	}
	return d.createObject("CreateRasterizerState", deviceCreateRasterizerState, uintptr(unsafe.Pointer(&rd)))
}

func (d *device) CreateSamplerState(desc hal.SamplerDesc) (hal.SamplerState, error) {
	sd := samplerDesc{
		Filter:         filter(desc),
		AddressU:       addressMode(desc.AddressModeU),
		AddressV:       addressMode(desc.AddressModeV),
		AddressW:       addressMode(desc.AddressModeW),
		MaxAnisotropy:  1,
		ComparisonFunc: d3d11ComparisonNever,
		MaxLOD:         d3d11Float32Max,
	}
	return d.createObject("CreateSamplerState", deviceCreateSamplerState, uintptr(unsafe.Pointer(&sd)))
}

// createObject calls a Create* method whose last parameter is the out
// pointer.
func (d *device) createObject(op string, idx int, args ...uintptr) (*object, error) {
	var out com
	if err := d.ptr.hr(op, idx, append(args, uintptr(unsafe.Pointer(&out)))...); err != nil {
		return nil, err
	}
	return &object{ptr: out}, nil
}

type texture struct {
	ptr com
}

func (t *texture) raw() com { return t.ptr }

func (t *texture) Release() {
	t.ptr.release()
	t.ptr = 0
}

func (t *texture) Desc() hal.TextureDesc {
	var td texture2DDesc
	t.ptr.call(texture2DGetDesc, uintptr(unsafe.Pointer(&td)))
	return hal.TextureDesc{
		Width:  td.Width,
		Height: td.Height,
		Format: textureFormat(td.Format),
		Usage:  textureUsage(td.BindFlags),
	}
}

type deviceContext struct {
	ptr com
}

func (c *deviceContext) Release() {
	c.ptr.release()
	c.ptr = 0
}

func (c *deviceContext) IASetTriangleList() {
	c.ptr.call(contextIASetPrimitiveTopology, d3d11PrimitiveTopologyTriangleList)
}

func (c *deviceContext) VSSetShader(vs hal.VertexShader) {
	c.ptr.call(contextVSSetShader, raw(vs), 0, 0)
}

func (c *deviceContext) PSSetShader(ps hal.PixelShader) {
	c.ptr.call(contextPSSetShader, raw(ps), 0, 0)
}

func (c *deviceContext) RSSetState(rs hal.RasterizerState) {
	c.ptr.call(contextRSSetState, raw(rs))
}

func (c *deviceContext) RSSetViewport(vp hal.Viewport) {
	v := viewport{
		TopLeftX: vp.X,
		TopLeftY: vp.Y,
		Width:    vp.Width,
		Height:   vp.Height,
		MinDepth: vp.MinDepth,
		MaxDepth: vp.MaxDepth,
	}
	c.ptr.call(contextRSSetViewports, 1, uintptr(unsafe.Pointer(&v)))
}

func (c *deviceContext) PSSetSampler(slot uint32, s hal.SamplerState) {
	p := raw(s)
	c.ptr.call(contextPSSetSamplers, uintptr(slot), 1, uintptr(unsafe.Pointer(&p)))
}

func (c *deviceContext) PSSetShaderResource(slot uint32, srv hal.ShaderResourceView) {
	p := raw(srv)
	c.ptr.call(contextPSSetShaderResources, uintptr(slot), 1, uintptr(unsafe.Pointer(&p)))
}

func (c *deviceContext) OMSetRenderTarget(rtv hal.RenderTargetView) {
	p := raw(rtv)
	if p == 0 {
		c.ptr.call(contextOMSetRenderTargets, 0, 0, 0)
		return
	}
	c.ptr.call(contextOMSetRenderTargets, 1, uintptr(unsafe.Pointer(&p)), 0)
}

func (c *deviceContext) Draw(vertexCount, startVertex uint32) {
	c.ptr.call(contextDraw, uintptr(vertexCount), uintptr(startVertex))
}

func (c *deviceContext) ClearState() {
	c.ptr.call(contextClearState)
}

func (c *deviceContext) Flush() {
	c.ptr.call(contextFlush)
}
