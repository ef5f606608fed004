// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package halfake

import (
	"fmt"

	"github.com/gogpu/dxinterop/hal"
)

// procBase is the first synthetic entry point address.
const procBase = 0x7f000000

var procNames = []string{
	hal.ProcCreateContextAttribs,
	hal.ProcDXOpenDevice,
	hal.ProcDXRegisterObject,
	hal.ProcDXLockObjects,
	hal.ProcDXUnlockObjects,
	hal.ProcDXUnregisterObject,
	hal.ProcDXCloseDevice,
}

type gl Platform

func (g *gl) p() *Platform { return (*Platform)(g) }

func (g *gl) CreateSurfaceWindow() (hal.Window, error) {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("gl.CreateSurfaceWindow"); err != nil {
		return 0, err
	}
	h := hal.Window(p.handle())
	p.windows[h] = &window{width: 1, height: 1, surface: true}
	return h, nil
}

func (g *gl) DestroyWindow(w hal.Window) error {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("gl.DestroyWindow"); err != nil {
		return err
	}
	win, ok := p.windows[w]
	if !ok {
		return ErrInvalidHandle
	}
	if win.dcs > 0 {
		p.violate("window destroyed with %d device contexts outstanding", win.dcs)
	}
	delete(p.windows, w)
	return nil
}

func (g *gl) GetDC(w hal.Window) (hal.DC, error) {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("gl.GetDC"); err != nil {
		return 0, err
	}
	win, ok := p.windows[w]
	if !ok {
		return 0, ErrInvalidHandle
	}
	win.dcs++
	return hal.DC(w), nil
}

func (g *gl) ReleaseDC(w hal.Window, dc hal.DC) error {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("gl.ReleaseDC"); err != nil {
		return err
	}
	win, ok := p.windows[w]
	if !ok || hal.DC(w) != dc || win.dcs == 0 {
		return ErrInvalidHandle
	}
	win.dcs--
	return nil
}

func (g *gl) SetPixelFormat(dc hal.DC, pf hal.PixelFormat) error {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("gl.SetPixelFormat"); err != nil {
		return err
	}
	if _, ok := p.windows[hal.Window(dc)]; !ok {
		return ErrInvalidHandle
	}
	if !pf.DoubleBuffer || pf.ColorBits == 0 {
		return fmt.Errorf("halfake: unsupported pixel format %+v", pf)
	}
	return nil
}

func (g *gl) CreateLegacyContext(dc hal.DC) (hal.GLRC, error) {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("gl.CreateLegacyContext"); err != nil {
		return 0, err
	}
	if _, ok := p.windows[hal.Window(dc)]; !ok {
		return 0, ErrInvalidHandle
	}
	rc := hal.GLRC(p.handle())
	p.legacy[rc] = true
	return rc, nil
}

func (g *gl) CreateContextAttribs(proc uintptr, dc hal.DC, share hal.GLRC, attribs []int32) (hal.GLRC, error) {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("gl.CreateContextAttribs"); err != nil {
		return 0, err
	}
	if proc == 0 {
		return 0, ErrInvalidHandle
	}
	if !p.legacy[p.current] {
		p.violate("CreateContextAttribs without a current legacy context")
		return 0, ErrNoCurrentContext
	}
	if len(attribs) == 0 || attribs[len(attribs)-1] != 0 {
		return 0, fmt.Errorf("halfake: attribute list not zero-terminated")
	}
	rc := hal.GLRC(p.handle())
	p.contexts[rc] = true
	return rc, nil
}

func (g *gl) MakeCurrent(dc hal.DC, rc hal.GLRC) error {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("gl.MakeCurrent"); err != nil {
		return err
	}
	if rc == 0 {
		p.current = 0
		return nil
	}
	if _, ok := p.windows[hal.Window(dc)]; !ok {
		return ErrInvalidHandle
	}
	if !p.contexts[rc] && !p.legacy[rc] {
		return ErrInvalidHandle
	}
	p.current = rc
	return nil
}

func (g *gl) DeleteContext(rc hal.GLRC) error {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("gl.DeleteContext"); err != nil {
		return err
	}
	switch {
	case p.legacy[rc]:
		delete(p.legacy, rc)
	case p.contexts[rc]:
		delete(p.contexts, rc)
	default:
		return ErrInvalidHandle
	}
	if p.current == rc {
		p.violate("context deleted while current")
		p.current = 0
	}
	return nil
}

func (g *gl) SwapBuffers(dc hal.DC) error {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("gl.SwapBuffers"); err != nil {
		return err
	}
	if _, ok := p.windows[hal.Window(dc)]; !ok {
		return ErrInvalidHandle
	}
	return nil
}

func (g *gl) ProcAddress(name string) uintptr {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("gl.ProcAddress")
	if p.current == 0 || p.missing[name] {
		return 0
	}
	for i, n := range procNames {
		if n == name {
			return procBase + uintptr(i)*8
		}
	}
	return 0
}

func (g *gl) Interop(table hal.InteropTable) hal.Interop {
	return &interop{p: g.p(), table: table}
}

func (g *gl) ClientSize(w hal.Window) (int, int, error) {
	p := g.p()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("gl.ClientSize"); err != nil {
		return 0, 0, err
	}
	win, ok := p.windows[w]
	if !ok {
		return 0, 0, ErrInvalidHandle
	}
	return win.width, win.height, nil
}
