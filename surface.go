package dxinterop

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/dxinterop/hal"
)

// Swap chain parameters.
const (
	SurfaceFormat = gputypes.TextureFormatBGRA8Unorm
	bufferCount   = 2
)

// PresentationSurface is a flip-model swap chain on the presentation device.
type PresentationSurface struct {
	device    hal.Device
	swapChain hal.SwapChain
	flags     hal.SwapChainFlags

	// rtv is created on first use and dropped before every resize.
	rtv      hal.RenderTargetView
	waitable hal.WaitHandle
}

// NewPresentationSurface creates a swap chain for window sized to its client
// area. A non-zero maxFrameLatency also creates a frame latency waitable
// object and caps the number of queued frames.
func NewPresentationSurface(d3d hal.D3D, device hal.Device, window hal.Window, maxFrameLatency uint32) (*PresentationSurface, error) {
	const op = "NewPresentationSurface"

	flags := hal.SwapChainAllowTearing
	if maxFrameLatency > 0 {
		flags |= hal.SwapChainFrameLatencyWaitable
	}
	sc, err := d3d.CreateSwapChain(device, window, hal.SwapChainDesc{
		Format:      SurfaceFormat,
		BufferCount: bufferCount,
		SwapEffect:  hal.SwapEffectFlipDiscard,
		Flags:       flags,
	})
	if err != nil {
		return nil, setupError(op, fmt.Errorf("create swap chain: %w", err))
	}
	s := &PresentationSurface{device: device, swapChain: sc, flags: flags}

	if maxFrameLatency > 0 {
		if err := sc.SetMaximumFrameLatency(maxFrameLatency); err != nil {
			s.Release()
			return nil, setupError(op, fmt.Errorf("set maximum frame latency: %w", err))
		}
		if s.waitable, err = sc.FrameLatencyWaitable(); err != nil {
			s.Release()
			return nil, setupError(op, fmt.Errorf("frame latency waitable: %w", err))
		}
	}
	return s, nil
}

// SwapChain returns the underlying swap chain.
func (s *PresentationSurface) SwapChain() hal.SwapChain { return s.swapChain }

// RenderTarget returns a render target view of the current back buffer and a
// viewport covering it. The view is cached until the next Resize.
func (s *PresentationSurface) RenderTarget() (hal.RenderTargetView, hal.Viewport, error) {
	if s.rtv == nil {
		buf, err := s.swapChain.Buffer(0)
		if err != nil {
			return nil, hal.Viewport{}, fmt.Errorf("get back buffer: %w", err)
		}
		rtv, err := s.device.CreateRenderTargetView(buf)
		buf.Release()
		if err != nil {
			return nil, hal.Viewport{}, fmt.Errorf("create render target view: %w", err)
		}
		s.rtv = rtv
		Logger().Debug("dxinterop: back buffer render target created")
	}

	w, h, err := s.Size()
	if err != nil {
		return nil, hal.Viewport{}, err
	}
	return s.rtv, hal.Viewport{Width: float32(w), Height: float32(h), MaxDepth: 1}, nil
}

// Size returns the current buffer size.
func (s *PresentationSurface) Size() (width, height uint32, err error) {
	desc, err := s.swapChain.Desc()
	if err != nil {
		return 0, 0, fmt.Errorf("get swap chain desc: %w", err)
	}
	return desc.Width, desc.Height, nil
}

// Present queues the back buffer. An interval of 0 presents immediately with
// tearing allowed; otherwise the present waits for interval vertical blanks.
func (s *PresentationSurface) Present(interval uint32) error {
	var flags hal.PresentFlags
	if interval == 0 {
		flags = hal.PresentAllowTearing
	}
	return s.swapChain.Present(interval, flags)
}

// Resize drops the cached render target and resizes the buffers, keeping
// their count and format. Zero width and height take the window's size.
func (s *PresentationSurface) Resize(width, height uint32) error {
	s.dropRenderTarget()
	return s.swapChain.ResizeBuffers(0, width, height, gputypes.TextureFormatUndefined, s.flags)
}

// Wait blocks until the swap chain can accept a new frame or timeout
// elapses. Without a waitable object it returns WaitSignaled at once.
func (s *PresentationSurface) Wait(timeout time.Duration) (hal.WaitResult, error) {
	if s.waitable == nil {
		return hal.WaitSignaled, nil
	}
	return s.waitable.Wait(timeout)
}

func (s *PresentationSurface) dropRenderTarget() {
	if s.rtv != nil {
		s.rtv.Release()
		s.rtv = nil
	}
}

// Release drops the render target, the waitable object and the swap chain.
func (s *PresentationSurface) Release() {
	s.dropRenderTarget()
	if s.waitable != nil {
		if err := s.waitable.Close(); err != nil {
			Logger().Warn("dxinterop: close frame latency waitable", "err", err)
		}
		s.waitable = nil
	}
	if s.swapChain != nil {
		s.swapChain.Release()
		s.swapChain = nil
	}
}
