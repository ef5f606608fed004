package dxinterop

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/gogpu/dxinterop/hal"
)

// MaxSwapInterval is the largest swap interval Present accepts.
const MaxSwapInterval = 4

// DefaultFrameTimeout is how long WaitForFrame waits when given zero.
const DefaultFrameTimeout = time.Second

// Session presents textures drawn by a rendering context through a swap
// chain on a separate presentation device.
//
// A shared texture cycles through
//
//	unlocked -> Lock -> (rendering side draws) -> BlitToBackBuffer -> locked
//
// where BlitToBackBuffer unlocks the texture, samples it into the back
// buffer and locks it again.
//
// A Session is not safe for concurrent use. Its rendering context must be
// current on the calling thread for every texture operation.
type Session struct {
	platform hal.Platform
	window   hal.Window
	devices  *Devices

	ctx      *RenderingContext
	device   hal.Device
	dctx     hal.DeviceContext
	surface  *PresentationSurface
	interop  *InteropDevice
	pipeline *blitPipeline

	textures     map[uint32]*SharedTexture
	swapInterval uint32

	lost   error
	closed bool
}

// NewSession creates a rendering context, a presentation device with a swap
// chain for window, the interop channel between them and the blit pipeline.
// On return the rendering context is current on the calling thread.
//
// On failure everything created so far is released in reverse order.
func NewSession(window hal.Window, opts ...Option) (_ *Session, err error) {
	const op = "NewSession"

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.platform == nil {
		o.platform = defaultPlatform()
	}
	if o.platform == nil {
		return nil, setupError(op, ErrNoPlatform)
	}
	if !window.IsValid() {
		return nil, setupError(op, fmt.Errorf("%w: window", ErrInvalidHandle))
	}
	if o.swapInterval > MaxSwapInterval {
		return nil, contractError(op, fmt.Errorf("%w: %d", ErrSwapInterval, o.swapInterval))
	}
	if o.devices == nil {
		o.devices = NewDevices()
	}

	s := &Session{
		platform:     o.platform,
		window:       window,
		devices:      o.devices,
		textures:     make(map[uint32]*SharedTexture),
		swapInterval: o.swapInterval,
	}
	defer func() {
		if err != nil {
			s.teardown()
		}
	}()

	if s.ctx, err = NewRenderingContext(o.platform.GL(), o.context); err != nil {
		return nil, err
	}

	d3d := o.platform.D3D()
	flags := hal.DeviceBGRASupport
	if o.debug {
		flags |= hal.DeviceDebug
	}
	if s.device, s.dctx, err = d3d.CreateDevice(flags); err != nil {
		return nil, setupError(op, fmt.Errorf("create device: %w", err))
	}

	if s.surface, err = NewPresentationSurface(d3d, s.device, window, o.maxFrameLatency); err != nil {
		return nil, err
	}

	if err = s.ctx.MakeCurrent(); err != nil {
		return nil, setupError(op, err)
	}
	if s.interop, err = OpenInteropDevice(s.devices, s.ctx, s.device, s.dctx); err != nil {
		return nil, err
	}

	if s.pipeline, err = newBlitPipeline(d3d, s.device); err != nil {
		return nil, setupError(op, err)
	}
	s.pipeline.bind(s.dctx)

	w, h, _ := s.surface.Size()
	Logger().Info("dxinterop: session created",
		"window", uintptr(window),
		"width", w,
		"height", h,
		"debug", o.debug,
		"maxFrameLatency", o.maxFrameLatency,
	)
	return s, nil
}

// check returns the error every operation fails with once the session is
// closed or lost.
func (s *Session) check(op string) error {
	if s.closed {
		return contractError(op, ErrSessionClosed)
	}
	return s.lost
}

// fail records device errors as session loss.
func (s *Session) fail(err error) error {
	if KindOf(err) == KindDevice && s.lost == nil {
		s.lost = err
		Logger().Warn("dxinterop: session lost", "window", uintptr(s.window), "err", err)
	}
	return err
}

// Lost returns the device error that made the session unusable, or nil.
func (s *Session) Lost() error { return s.lost }

// Window returns the window the swap chain presents to.
func (s *Session) Window() hal.Window { return s.window }

// RenderingContext returns the session's rendering context.
func (s *Session) RenderingContext() *RenderingContext { return s.ctx }

// InteropDevice returns the session's interop channel.
func (s *Session) InteropDevice() *InteropDevice { return s.interop }

// Surface returns the session's presentation surface.
func (s *Session) Surface() *PresentationSurface { return s.surface }

// MakeCurrent binds the rendering context to the calling OS thread.
func (s *Session) MakeCurrent() error {
	if err := s.check("MakeCurrent"); err != nil {
		return err
	}
	return s.fail(s.ctx.MakeCurrent())
}

// CreateTexture registers a new shared texture under the rendering API's
// texture name id.
func (s *Session) CreateTexture(id, width, height uint32) (*SharedTexture, error) {
	const op = "CreateTexture"
	if err := s.check(op); err != nil {
		return nil, err
	}
	if _, ok := s.textures[id]; ok {
		return nil, contractError(op, fmt.Errorf("%w: %d", ErrDuplicateTexture, id))
	}
	t, err := RegisterSharedTexture(s.interop, id, width, height, hal.AccessWriteDiscard)
	if err != nil {
		return nil, s.fail(err)
	}
	s.textures[id] = t
	return t, nil
}

// Texture returns the shared texture registered under id.
func (s *Session) Texture(id uint32) (*SharedTexture, error) {
	const op = "Texture"
	if err := s.check(op); err != nil {
		return nil, err
	}
	t, ok := s.textures[id]
	if !ok {
		return nil, contractError(op, fmt.Errorf("%w: %d", ErrTextureNotFound, id))
	}
	return t, nil
}

// TextureIDs returns the ids of all live shared textures in ascending order.
func (s *Session) TextureIDs() []uint32 {
	return slices.Sorted(maps.Keys(s.textures))
}

// DeleteTexture destroys the shared texture registered under id.
func (s *Session) DeleteTexture(id uint32) error {
	const op = "DeleteTexture"
	if err := s.check(op); err != nil {
		return err
	}
	t, ok := s.textures[id]
	if !ok {
		return contractError(op, fmt.Errorf("%w: %d", ErrTextureNotFound, id))
	}
	if err := t.Destroy(); err != nil {
		return s.fail(err)
	}
	delete(s.textures, id)
	return nil
}

// BlitToBackBuffer draws texture id over the whole back buffer. The texture
// must be locked by the rendering side; it is unlocked for the draw and
// locked again before BlitToBackBuffer returns.
func (s *Session) BlitToBackBuffer(id uint32) error {
	const op = "BlitToBackBuffer"
	t, err := s.Texture(id)
	if err != nil {
		return err
	}
	if !t.Locked() {
		return contractError(op, fmt.Errorf("%w: %d is not held by the rendering side", ErrAlreadyUnlocked, id))
	}

	if err := UnlockTextures(t); err != nil {
		return s.fail(err)
	}
	rtv, vp, err := s.surface.RenderTarget()
	if err != nil {
		return s.fail(deviceError(op, err))
	}
	s.pipeline.draw(s.dctx, t.view, rtv, vp)
	return s.fail(LockTextures(t))
}

// Present presents the back buffer. An interval of 0 presents immediately
// with tearing allowed.
func (s *Session) Present(interval uint32) error {
	const op = "Present"
	if err := s.check(op); err != nil {
		return err
	}
	if interval > MaxSwapInterval {
		return contractError(op, fmt.Errorf("%w: %d", ErrSwapInterval, interval))
	}
	if err := s.surface.Present(interval); err != nil {
		return s.fail(deviceError(op, err))
	}
	return nil
}

// PresentDefault presents with the session's swap interval.
func (s *Session) PresentDefault() error {
	return s.Present(s.swapInterval)
}

// SwapInterval returns the interval PresentDefault uses.
func (s *Session) SwapInterval() uint32 { return s.swapInterval }

// SetSwapInterval sets the interval PresentDefault uses.
func (s *Session) SetSwapInterval(n uint32) error {
	if n > MaxSwapInterval {
		return contractError("SetSwapInterval", fmt.Errorf("%w: %d", ErrSwapInterval, n))
	}
	s.swapInterval = n
	return nil
}

// WaitForFrame blocks until the swap chain can take another frame. It
// returns at once if the session has no frame latency waitable object.
// A timeout is logged, not returned.
func (s *Session) WaitForFrame(timeout time.Duration) error {
	const op = "WaitForFrame"
	if err := s.check(op); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = DefaultFrameTimeout
	}
	res, err := s.surface.Wait(timeout)
	if err != nil {
		return s.fail(deviceError(op, err))
	}
	if res != hal.WaitSignaled {
		Logger().Warn("dxinterop: frame wait did not complete", "result", res, "timeout", timeout)
	}
	return nil
}

// Resize resizes the swap chain buffers. The cached back buffer render
// target is dropped first; the next blit creates a new one.
func (s *Session) Resize(width, height uint32) error {
	const op = "Resize"
	if err := s.check(op); err != nil {
		return err
	}
	s.dctx.OMSetRenderTarget(nil)
	if err := s.surface.Resize(width, height); err != nil {
		return s.fail(deviceError(op, err))
	}
	Logger().Info("dxinterop: swap chain resized", "width", width, "height", height)
	return nil
}

// ClientSize returns the current client area size of the session's window.
func (s *Session) ClientSize() (width, height int, err error) {
	if err := s.check("ClientSize"); err != nil {
		return 0, 0, err
	}
	return s.platform.GL().ClientSize(s.window)
}

// Close tears the session down in this order: make the rendering context
// current, clear the presentation device's bindings, unlock and destroy
// every shared texture, close the interop channel, release the swap chain,
// pipeline and device, and destroy the rendering context.
//
// Close runs to the end on a lost session and returns the errors it met.
// Safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	err := s.teardown()
	Logger().Info("dxinterop: session closed", "window", uintptr(s.window))
	return err
}

func (s *Session) teardown() error {
	s.closed = true
	var errs []error

	if s.ctx != nil && !s.ctx.destroyed {
		if err := s.ctx.MakeCurrent(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.dctx != nil {
		s.dctx.ClearState()
	}

	ids := s.TextureIDs()
	var locked []*SharedTexture
	for _, id := range ids {
		if t := s.textures[id]; t.Locked() {
			locked = append(locked, t)
		}
	}
	for batch := range slices.Chunk(locked, MaxBatch) {
		if err := UnlockTextures(batch...); err != nil {
			errs = append(errs, err)
		}
	}
	for _, id := range ids {
		if err := s.textures[id].Destroy(); err != nil {
			errs = append(errs, err)
		}
		delete(s.textures, id)
	}

	if s.surface != nil {
		s.surface.dropRenderTarget()
	}
	channelOpen := false
	if s.interop != nil {
		if err := s.interop.Close(); err != nil {
			errs = append(errs, err)
			channelOpen = true
		}
		s.interop = nil
	}
	if s.surface != nil {
		s.surface.Release()
		s.surface = nil
	}
	if s.pipeline != nil {
		s.pipeline.Release()
		s.pipeline = nil
	}
	if channelOpen {
		// The driver still holds the device through the interop channel.
		Logger().Warn("dxinterop: interop device left open, presentation device not released",
			"window", uintptr(s.window))
	} else {
		if s.dctx != nil {
			s.dctx.Release()
		}
		if s.device != nil {
			s.device.Release()
		}
	}
	s.dctx = nil
	s.device = nil
	if s.ctx != nil {
		s.ctx.Destroy()
	}

	for _, err := range errs {
		Logger().Warn("dxinterop: teardown", "err", err)
	}
	return errors.Join(errs...)
}
