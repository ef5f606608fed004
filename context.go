package dxinterop

import (
	"fmt"

	"github.com/gogpu/dxinterop/hal"
)

// ContextConfig selects the version and profile of a rendering context.
type ContextConfig struct {
	Major             int  `toml:"major"`
	Minor             int  `toml:"minor"`
	Core              bool `toml:"core"`
	ForwardCompatible bool `toml:"forward_compatible"`

	// Surface, if valid, is an existing window to render through instead of
	// a hidden one created for the context. It is not destroyed with the
	// context.
	Surface hal.Window `toml:"-"`
}

// DefaultContextConfig requests a 4.6 core, forward-compatible context.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{Major: 4, Minor: 6, Core: true, ForwardCompatible: true}
}

// attribs returns the zero-terminated attribute list for
// wglCreateContextAttribsARB.
func (c ContextConfig) attribs() []int32 {
	profile := hal.ContextCompatibilityProfileBit
	if c.Core {
		profile = hal.ContextCoreProfileBit
	}
	var flags int32
	if c.ForwardCompatible {
		flags |= hal.ContextForwardCompatibleBit
	}
	return []int32{
		hal.ContextMajorVersion, int32(c.Major),
		hal.ContextMinorVersion, int32(c.Minor),
		hal.ContextProfileMask, profile,
		hal.ContextFlags, flags,
		0,
	}
}

// RenderingContext owns a rendering context and the surface it is bound to.
//
// A RenderingContext is current on at most one OS thread at a time. Callers
// that bind it must pin their goroutine with runtime.LockOSThread.
type RenderingContext struct {
	gl         hal.GL
	window     hal.Window
	ownsWindow bool
	dc         hal.DC
	rc         hal.GLRC

	table   hal.InteropTable
	missing string
	interop hal.Interop

	destroyed bool
}

// NewRenderingContext creates a rendering context.
//
// A temporary legacy context is created to reach wglCreateContextAttribsARB
// and is always deleted before NewRenderingContext returns. On return no
// context is current on the calling thread.
func NewRenderingContext(gl hal.GL, cfg ContextConfig) (rc *RenderingContext, err error) {
	const op = "NewRenderingContext"

	c := &RenderingContext{gl: gl, window: cfg.Surface}
	defer func() {
		if err != nil {
			c.Destroy()
		}
	}()

	if !c.window.IsValid() {
		w, err := gl.CreateSurfaceWindow()
		if err != nil {
			return nil, setupError(op, fmt.Errorf("create surface window: %w", err))
		}
		c.window, c.ownsWindow = w, true
	}

	dc, err := gl.GetDC(c.window)
	if err != nil {
		return nil, setupError(op, fmt.Errorf("get device context: %w", err))
	}
	c.dc = dc

	if err := gl.SetPixelFormat(dc, hal.DefaultPixelFormat); err != nil {
		return nil, setupError(op, fmt.Errorf("set pixel format: %w", err))
	}

	if c.rc, err = c.createContext(cfg); err != nil {
		return nil, setupError(op, err)
	}

	if err := gl.MakeCurrent(dc, c.rc); err != nil {
		return nil, setupError(op, fmt.Errorf("make current: %w", err))
	}
	c.resolveInterop()
	if err := gl.MakeCurrent(dc, 0); err != nil {
		return nil, setupError(op, fmt.Errorf("unbind: %w", err))
	}

	Logger().Debug("dxinterop: rendering context created",
		"version", fmt.Sprintf("%d.%d", cfg.Major, cfg.Minor),
		"core", cfg.Core,
		"interop", c.missing == "",
	)
	return c, nil
}

// createContext goes through a legacy context to create the real one.
func (c *RenderingContext) createContext(cfg ContextConfig) (hal.GLRC, error) {
	legacy, err := c.gl.CreateLegacyContext(c.dc)
	if err != nil {
		return 0, fmt.Errorf("create legacy context: %w", err)
	}
	defer func() {
		if err := c.gl.MakeCurrent(c.dc, 0); err != nil {
			Logger().Warn("dxinterop: unbind legacy context", "err", err)
		}
		if err := c.gl.DeleteContext(legacy); err != nil {
			Logger().Warn("dxinterop: delete legacy context", "err", err)
		}
	}()

	if err := c.gl.MakeCurrent(c.dc, legacy); err != nil {
		return 0, fmt.Errorf("make legacy context current: %w", err)
	}
	proc := c.gl.ProcAddress(hal.ProcCreateContextAttribs)
	if proc == 0 {
		return 0, fmt.Errorf("%w: %s", ErrMissingEntryPoint, hal.ProcCreateContextAttribs)
	}
	rc, err := c.gl.CreateContextAttribs(proc, c.dc, 0, cfg.attribs())
	if err != nil {
		return 0, fmt.Errorf("create context %d.%d: %w", cfg.Major, cfg.Minor, err)
	}
	if !rc.IsValid() {
		return 0, fmt.Errorf("create context %d.%d: %w", cfg.Major, cfg.Minor, ErrInvalidHandle)
	}
	return rc, nil
}

// resolveInterop looks up the interop entry points. The context must be
// current.
func (c *RenderingContext) resolveInterop() {
	procs := []struct {
		name string
		addr *uintptr
	}{
		{hal.ProcDXOpenDevice, &c.table.OpenDevice},
		{hal.ProcDXRegisterObject, &c.table.RegisterObject},
		{hal.ProcDXLockObjects, &c.table.LockObjects},
		{hal.ProcDXUnlockObjects, &c.table.UnlockObjects},
		{hal.ProcDXUnregisterObject, &c.table.UnregisterObject},
		{hal.ProcDXCloseDevice, &c.table.CloseDevice},
	}
	for _, p := range procs {
		*p.addr = c.gl.ProcAddress(p.name)
		if *p.addr == 0 && c.missing == "" {
			c.missing = p.name
		}
	}
	if c.missing == "" {
		c.interop = c.gl.Interop(c.table)
	}
}

// Interop returns the interop entry points resolved when the context was
// created.
func (c *RenderingContext) Interop() (hal.Interop, error) {
	if c.destroyed {
		return nil, contractError("Interop", ErrSessionClosed)
	}
	if c.missing != "" {
		return nil, setupError("Interop", fmt.Errorf("%w: %s", ErrMissingEntryPoint, c.missing))
	}
	return c.interop, nil
}

// Window returns the surface window.
func (c *RenderingContext) Window() hal.Window { return c.window }

// MakeCurrent binds the context to the calling OS thread.
func (c *RenderingContext) MakeCurrent() error {
	if c.destroyed {
		return contractError("MakeCurrent", ErrSessionClosed)
	}
	if err := c.gl.MakeCurrent(c.dc, c.rc); err != nil {
		return deviceError("MakeCurrent", err)
	}
	return nil
}

// SwapBuffers presents the context's own buffer chain.
func (c *RenderingContext) SwapBuffers() error {
	if c.destroyed {
		return contractError("SwapBuffers", ErrSessionClosed)
	}
	if err := c.gl.SwapBuffers(c.dc); err != nil {
		return deviceError("SwapBuffers", err)
	}
	return nil
}

// Destroy unbinds and deletes the context, releases the device context and
// destroys the surface window if the context created it. Safe to call more
// than once.
func (c *RenderingContext) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true

	if c.rc.IsValid() {
		if err := c.gl.MakeCurrent(c.dc, 0); err != nil {
			Logger().Warn("dxinterop: unbind context", "err", err)
		}
		if err := c.gl.DeleteContext(c.rc); err != nil {
			Logger().Warn("dxinterop: delete context", "err", err)
		}
		c.rc = 0
	}
	if c.dc.IsValid() {
		if err := c.gl.ReleaseDC(c.window, c.dc); err != nil {
			Logger().Warn("dxinterop: release device context", "err", err)
		}
		c.dc = 0
	}
	if c.ownsWindow {
		if err := c.gl.DestroyWindow(c.window); err != nil {
			Logger().Warn("dxinterop: destroy surface window", "err", err)
		}
		c.ownsWindow = false
	}
	c.interop = nil
}
