// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package halfake

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/dxinterop/hal"
)

// maxTextureSize is the D3D11 feature level 11 limit.
const maxTextureSize = 16384

// DrawCall is one recorded Draw on a device context.
type DrawCall struct {
	VertexCount uint32
	Viewport    hal.Viewport
	Target      *RenderTargetView
	Source      *Texture
}

// PresentCall is one recorded swap chain present.
type PresentCall struct {
	Interval uint32
	Flags    hal.PresentFlags
}

// resource is the reference count shared by all presentation-side objects.
type resource struct {
	p     *Platform
	kind  string
	refs  int
	owned bool // owned by a swap chain, not counted as live
}

func (p *Platform) newResource(kind string) resource {
	p.live++
	return resource{p: p, kind: kind, refs: 1}
}

// release drops one reference. Must be called with p.mu held.
func (r *resource) release() bool {
	r.p.record(r.kind + ".Release")
	if r.refs <= 0 {
		r.p.violate("%s released too many times", r.kind)
		return false
	}
	r.refs--
	if r.refs == 0 {
		if !r.owned {
			r.p.live--
		}
		return true
	}
	return false
}

type d3d Platform

func (d *d3d) p() *Platform { return (*Platform)(d) }

func (d *d3d) CreateDevice(flags hal.DeviceFlags) (hal.Device, hal.DeviceContext, error) {
	p := d.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("d3d.CreateDevice"); err != nil {
		return nil, nil, err
	}
	dev := &Device{resource: p.newResource("device"), flags: flags}
	ctx := &DeviceContext{resource: p.newResource("context"), device: dev}
	return dev, ctx, nil
}

func (d *d3d) CreateSwapChain(dev hal.Device, w hal.Window, desc hal.SwapChainDesc) (hal.SwapChain, error) {
	p := d.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("d3d.CreateSwapChain"); err != nil {
		return nil, err
	}
	fd, ok := dev.(*Device)
	if !ok || fd.refs <= 0 {
		return nil, ErrInvalidHandle
	}
	win, ok := p.windows[w]
	if !ok {
		return nil, ErrInvalidHandle
	}
	if desc.BufferCount < 2 && desc.SwapEffect == hal.SwapEffectFlipDiscard {
		return nil, fmt.Errorf("halfake: flip model needs at least 2 buffers")
	}
	if desc.Width == 0 || desc.Height == 0 {
		desc.Width, desc.Height = uint32(win.width), uint32(win.height)
	}
	sc := &SwapChain{
		resource: p.newResource("swapchain"),
		device:   fd,
		window:   w,
		desc:     desc,
	}
	sc.back = sc.newBackBuffer()
	p.swapChains = append(p.swapChains, sc)
	return sc, nil
}

func (d *d3d) CompileShader(src []byte, name, entry, target string) ([]byte, error) {
	p := d.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("d3d.CompileShader"); err != nil {
		return nil, err
	}
	if entry == "" || !bytes.Contains(src, []byte(entry)) {
		return nil, fmt.Errorf("halfake: %s: entry point %q not found", name, entry)
	}
	return []byte(entry + ":" + target), nil
}

// Device is a fake presentation device.
type Device struct {
	resource
	flags hal.DeviceFlags
}

// Flags returns the creation flags.
func (d *Device) Flags() hal.DeviceFlags {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()
	return d.flags
}

func (d *Device) Release() {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()
	if d.release() {
		for _, ch := range d.p.channels {
			if ch.device == d {
				d.p.violate("D3D device released while its interop device is open")
			}
		}
	}
}

func (d *Device) alive(name string) error {
	if err := d.p.record(name); err != nil {
		return err
	}
	if d.refs <= 0 {
		d.p.violate("%s on released device", name)
		return ErrInvalidHandle
	}
	return nil
}

func (d *Device) CreateTexture2D(desc hal.TextureDesc) (hal.Texture, error) {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()
	if err := d.alive("device.CreateTexture2D"); err != nil {
		return nil, err
	}
	if desc.Width == 0 || desc.Height == 0 || desc.Width > maxTextureSize || desc.Height > maxTextureSize {
		return nil, fmt.Errorf("halfake: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	return &Texture{resource: d.p.newResource("texture"), device: d, desc: desc}, nil
}

func (d *Device) CreateShaderResourceView(tex hal.Texture) (hal.ShaderResourceView, error) {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()
	if err := d.alive("device.CreateShaderResourceView"); err != nil {
		return nil, err
	}
	t, ok := tex.(*Texture)
	if !ok || t.refs <= 0 {
		return nil, ErrInvalidHandle
	}
	if t.desc.Usage&gputypes.TextureUsageTextureBinding == 0 {
		return nil, fmt.Errorf("halfake: texture not bindable as shader resource")
	}
	t.refs++
	return &ShaderResourceView{resource: d.p.newResource("srv"), texture: t}, nil
}

func (d *Device) CreateRenderTargetView(tex hal.Texture) (hal.RenderTargetView, error) {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()
	if err := d.alive("device.CreateRenderTargetView"); err != nil {
		return nil, err
	}
	t, ok := tex.(*Texture)
	if !ok || t.refs <= 0 {
		return nil, ErrInvalidHandle
	}
	if t.desc.Usage&gputypes.TextureUsageRenderAttachment == 0 {
		return nil, fmt.Errorf("halfake: texture not bindable as render target")
	}
	t.refs++
	return &RenderTargetView{resource: d.p.newResource("rtv"), texture: t, desc: t.desc}, nil
}

func (d *Device) CreateVertexShader(bytecode []byte) (hal.VertexShader, error) {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()
	if err := d.alive("device.CreateVertexShader"); err != nil {
		return nil, err
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("halfake: empty bytecode")
	}
	return &Shader{resource: d.p.newResource("vs"), Bytecode: string(bytecode)}, nil
}

func (d *Device) CreatePixelShader(bytecode []byte) (hal.PixelShader, error) {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()
	if err := d.alive("device.CreatePixelShader"); err != nil {
		return nil, err
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("halfake: empty bytecode")
	}
	return &Shader{resource: d.p.newResource("ps"), Bytecode: string(bytecode)}, nil
}

func (d *Device) CreateRasterizerState(desc hal.RasterizerDesc) (hal.RasterizerState, error) {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()
	if err := d.alive("device.CreateRasterizerState"); err != nil {
		return nil, err
	}
	return &State{resource: d.p.newResource("rasterizer"), Rasterizer: desc}, nil
}

func (d *Device) CreateSamplerState(desc hal.SamplerDesc) (hal.SamplerState, error) {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()
	if err := d.alive("device.CreateSamplerState"); err != nil {
		return nil, err
	}
	return &State{resource: d.p.newResource("sampler"), Sampler: desc}, nil
}

// Texture is a fake 2D texture.
type Texture struct {
	resource
	device *Device
	desc   hal.TextureDesc
	object *object
}

func (t *Texture) Release() {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	t.release()
}

func (t *Texture) Desc() hal.TextureDesc { return t.desc }

// ShaderResourceView is a fake shader resource view.
type ShaderResourceView struct {
	resource
	texture *Texture
}

func (v *ShaderResourceView) Release() {
	v.p.mu.Lock()
	defer v.p.mu.Unlock()
	if v.release() {
		v.texture.release()
	}
}

// RenderTargetView is a fake render target view.
type RenderTargetView struct {
	resource
	texture *Texture
	desc    hal.TextureDesc
}

// Desc returns the description of the texture the view targets.
func (v *RenderTargetView) Desc() hal.TextureDesc { return v.desc }

func (v *RenderTargetView) Release() {
	v.p.mu.Lock()
	defer v.p.mu.Unlock()
	if v.release() {
		v.texture.release()
	}
}

// Shader is a fake vertex or pixel shader.
type Shader struct {
	resource
	Bytecode string
}

func (s *Shader) Release() {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.release()
}

// State is a fake rasterizer or sampler state.
type State struct {
	resource
	Rasterizer hal.RasterizerDesc
	Sampler    hal.SamplerDesc
}

func (s *State) Release() {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.release()
}

// DeviceContext is a fake immediate context that tracks its bindings.
type DeviceContext struct {
	resource
	device *Device

	triangles bool
	vs, ps    hal.Object
	rs        hal.RasterizerState
	sampler   hal.SamplerState
	srv       *ShaderResourceView
	rtv       *RenderTargetView
	viewport  hal.Viewport
}

func (c *DeviceContext) Release() {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.release()
}

func (c *DeviceContext) IASetTriangleList() {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.record("context.IASetTriangleList")
	c.triangles = true
}

func (c *DeviceContext) VSSetShader(vs hal.VertexShader) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.record("context.VSSetShader")
	c.vs = vs
}

func (c *DeviceContext) PSSetShader(ps hal.PixelShader) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.record("context.PSSetShader")
	c.ps = ps
}

func (c *DeviceContext) RSSetState(rs hal.RasterizerState) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.record("context.RSSetState")
	c.rs = rs
}

func (c *DeviceContext) RSSetViewport(vp hal.Viewport) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.record("context.RSSetViewport")
	c.viewport = vp
}

func (c *DeviceContext) PSSetSampler(slot uint32, s hal.SamplerState) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.record("context.PSSetSampler")
	if slot == 0 {
		c.sampler = s
	}
}

func (c *DeviceContext) PSSetShaderResource(slot uint32, srv hal.ShaderResourceView) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.record("context.PSSetShaderResource")
	if slot != 0 {
		return
	}
	c.srv, _ = srv.(*ShaderResourceView)
}

func (c *DeviceContext) OMSetRenderTarget(rtv hal.RenderTargetView) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.record("context.OMSetRenderTarget")
	c.rtv, _ = rtv.(*RenderTargetView)
}

func (c *DeviceContext) Draw(vertexCount, startVertex uint32) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.record("context.Draw")
	switch {
	case !c.triangles || c.vs == nil || c.ps == nil || c.rs == nil || c.sampler == nil:
		c.p.violate("draw with incomplete pipeline state")
	case c.rtv == nil || c.rtv.refs <= 0:
		c.p.violate("draw without a live render target")
	case c.srv == nil || c.srv.refs <= 0:
		c.p.violate("draw without a live shader resource")
	}
	var src *Texture
	if c.srv != nil {
		src = c.srv.texture
		if src.object != nil && src.object.locked {
			c.p.violate("texture %d sampled while locked by the rendering side", src.object.name)
		}
	}
	c.p.draws = append(c.p.draws, DrawCall{
		VertexCount: vertexCount,
		Viewport:    c.viewport,
		Target:      c.rtv,
		Source:      src,
	})
}

func (c *DeviceContext) ClearState() {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.record("context.ClearState")
	c.triangles = false
	c.vs, c.ps, c.rs, c.sampler = nil, nil, nil, nil
	c.srv, c.rtv = nil, nil
	c.viewport = hal.Viewport{}
}

func (c *DeviceContext) Flush() {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.record("context.Flush")
}

// SwapChain is a fake flip-model swap chain.
type SwapChain struct {
	resource
	device   *Device
	window   hal.Window
	desc     hal.SwapChainDesc
	back     *Texture
	presents []PresentCall
	latency  uint32
}

func (s *SwapChain) newBackBuffer() *Texture {
	t := &Texture{
		resource: resource{p: s.p, kind: "backbuffer", owned: true},
		device:   s.device,
		desc: hal.TextureDesc{
			Width:  s.desc.Width,
			Height: s.desc.Height,
			Format: s.desc.Format,
			Usage:  gputypes.TextureUsageRenderAttachment,
		},
	}
	return t
}

// Device returns the device the swap chain was created on.
func (s *SwapChain) Device() *Device { return s.device }

// Presents returns the recorded present calls.
func (s *SwapChain) Presents() []PresentCall {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	return append([]PresentCall(nil), s.presents...)
}

// MaximumFrameLatency returns the configured frame latency, 0 if unset.
func (s *SwapChain) MaximumFrameLatency() uint32 {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	return s.latency
}

// BufferRefs returns the outstanding references to the back buffer.
func (s *SwapChain) BufferRefs() int {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	return s.back.refs
}

func (s *SwapChain) Release() {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.release()
}

func (s *SwapChain) Present(interval uint32, flags hal.PresentFlags) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if err := s.p.record("swapchain.Present"); err != nil {
		return err
	}
	if interval > 4 {
		return fmt.Errorf("halfake: invalid sync interval %d", interval)
	}
	if flags&hal.PresentAllowTearing != 0 && (interval != 0 || s.desc.Flags&hal.SwapChainAllowTearing == 0) {
		return fmt.Errorf("halfake: tearing requested with interval %d and flags %#x", interval, s.desc.Flags)
	}
	s.presents = append(s.presents, PresentCall{Interval: interval, Flags: flags})
	return nil
}

func (s *SwapChain) Buffer(i uint32) (hal.Texture, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if err := s.p.record("swapchain.Buffer"); err != nil {
		return nil, err
	}
	if i >= s.desc.BufferCount {
		return nil, ErrInvalidHandle
	}
	s.back.refs++
	return s.back, nil
}

func (s *SwapChain) Desc() (hal.SwapChainDesc, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if err := s.p.record("swapchain.Desc"); err != nil {
		return hal.SwapChainDesc{}, err
	}
	return s.desc, nil
}

func (s *SwapChain) ResizeBuffers(count, width, height uint32, format gputypes.TextureFormat, flags hal.SwapChainFlags) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if err := s.p.record("swapchain.ResizeBuffers"); err != nil {
		return err
	}
	if s.back.refs > 0 {
		s.p.violate("ResizeBuffers with %d back buffer references outstanding", s.back.refs)
		return ErrBuffersReferenced
	}
	if flags != s.desc.Flags {
		return fmt.Errorf("halfake: resize flags %#x differ from creation flags %#x", flags, s.desc.Flags)
	}
	if count != 0 {
		s.desc.BufferCount = count
	}
	if format != gputypes.TextureFormatUndefined {
		s.desc.Format = format
	}
	if width == 0 || height == 0 {
		win := s.p.windows[s.window]
		if win != nil {
			width, height = uint32(win.width), uint32(win.height)
		}
	}
	s.desc.Width, s.desc.Height = width, height
	s.back = s.newBackBuffer()
	return nil
}

func (s *SwapChain) SetMaximumFrameLatency(n uint32) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if err := s.p.record("swapchain.SetMaximumFrameLatency"); err != nil {
		return err
	}
	if s.desc.Flags&hal.SwapChainFrameLatencyWaitable == 0 || n == 0 || n > 16 {
		return fmt.Errorf("halfake: invalid frame latency %d", n)
	}
	s.latency = n
	return nil
}

func (s *SwapChain) FrameLatencyWaitable() (hal.WaitHandle, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	if err := s.p.record("swapchain.FrameLatencyWaitable"); err != nil {
		return nil, err
	}
	if s.desc.Flags&hal.SwapChainFrameLatencyWaitable == 0 {
		return nil, fmt.Errorf("halfake: swap chain not created with a waitable object")
	}
	s.p.live++
	return &waitHandle{p: s.p}, nil
}

type waitHandle struct {
	p      *Platform
	closed bool
}

func (w *waitHandle) Wait(timeout time.Duration) (hal.WaitResult, error) {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	if err := w.p.record("waitable.Wait"); err != nil {
		return 0, err
	}
	if w.closed {
		return 0, ErrInvalidHandle
	}
	return w.p.waitResult, nil
}

func (w *waitHandle) Close() error {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	if err := w.p.record("waitable.Close"); err != nil {
		return err
	}
	if w.closed {
		return ErrInvalidHandle
	}
	w.closed = true
	w.p.live--
	return nil
}
