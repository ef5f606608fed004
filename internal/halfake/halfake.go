// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package halfake is an in-memory hal.Platform that records every driver call
// and models the driver-side state the interop protocol depends on: which
// context is current, which interop objects are registered and locked, and
// which swap chain buffers are still referenced.
//
// Misuse that a real driver would answer with undefined behavior is reported
// as an error from the call and also recorded in Violations, so tests can
// assert that none happened.
package halfake

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/dxinterop/hal"
)

// Driver-side errors.
var (
	ErrInjected          = errors.New("halfake: injected failure")
	ErrInvalidHandle     = errors.New("halfake: invalid handle")
	ErrNoCurrentContext  = errors.New("halfake: no current rendering context")
	ErrObjectLocked      = errors.New("halfake: object is locked")
	ErrObjectUnlocked    = errors.New("halfake: object is not locked")
	ErrBuffersReferenced = errors.New("halfake: swap chain buffers still referenced")
	ErrStillRegistered   = errors.New("halfake: objects still registered")
)

// Platform is a recording fake of both driver sides.
type Platform struct {
	mu sync.Mutex

	calls      []string
	violations []string
	failures   map[string]error
	missing    map[string]bool
	nextHandle uintptr

	windows  map[hal.Window]*window
	contexts map[hal.GLRC]bool
	current  hal.GLRC
	legacy   map[hal.GLRC]bool

	channels map[hal.InteropDevice]*channel
	objects  map[hal.InteropObject]*object

	swapChains []*SwapChain
	draws      []DrawCall
	live       int

	waitResult hal.WaitResult
}

type window struct {
	width, height int
	surface       bool
	dcs           int
}

type channel struct {
	device  *Device
	objects map[hal.InteropObject]*object
}

type object struct {
	handle  hal.InteropObject
	texture *Texture
	name    uint32
	access  hal.Access
	locked  bool
}

// New returns an empty fake platform.
func New() *Platform {
	return &Platform{
		failures:   make(map[string]error),
		missing:    make(map[string]bool),
		nextHandle: 0x100,
		windows:    make(map[hal.Window]*window),
		contexts:   make(map[hal.GLRC]bool),
		legacy:     make(map[hal.GLRC]bool),
		channels:   make(map[hal.InteropDevice]*channel),
		objects:    make(map[hal.InteropObject]*object),
	}
}

// GL returns the rendering side.
func (p *Platform) GL() hal.GL { return (*gl)(p) }

// D3D returns the presentation side.
func (p *Platform) D3D() hal.D3D { return (*d3d)(p) }

// NewWindow creates an application window with the given client size.
func (p *Platform) NewWindow(width, height int) hal.Window {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := hal.Window(p.handle())
	p.windows[h] = &window{width: width, height: height}
	return h
}

// SetClientSize changes the client size of w.
func (p *Platform) SetClientSize(w hal.Window, width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if win, ok := p.windows[w]; ok {
		win.width, win.height = width, height
	}
}

// Fail makes every subsequent call named name return err. A nil err uses
// ErrInjected. Names are the ones recorded in Calls, e.g. "swapchain.Present".
func (p *Platform) Fail(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	p.failures[name] = err
}

// ClearFailures removes all injected failures.
func (p *Platform) ClearFailures() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = make(map[string]error)
}

// RemoveProc makes ProcAddress return zero for the named entry point.
func (p *Platform) RemoveProc(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.missing[name] = true
}

// SetWaitResult sets what frame latency waits return.
func (p *Platform) SetWaitResult(r hal.WaitResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waitResult = r
}

// Calls returns a copy of the call log.
func (p *Platform) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// CallsWithPrefix returns the logged calls starting with prefix.
func (p *Platform) CallsWithPrefix(prefix string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times name was called.
func (p *Platform) Count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c == name {
			n++
		}
	}
	return n
}

// Index returns the position of the first call named name, or -1.
func (p *Platform) Index(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, c := range p.calls {
		if c == name {
			return i
		}
	}
	return -1
}

// LastIndex returns the position of the last call whose name has the given
// prefix, or -1.
func (p *Platform) LastIndex(prefix string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.calls) - 1; i >= 0; i-- {
		if strings.HasPrefix(p.calls[i], prefix) {
			return i
		}
	}
	return -1
}

// ResetCalls clears the call log.
func (p *Platform) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

// Violations returns protocol violations the fake observed.
func (p *Platform) Violations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.violations...)
}

// Draws returns the recorded draw calls.
func (p *Platform) Draws() []DrawCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]DrawCall(nil), p.draws...)
}

// SwapChains returns every swap chain created so far.
func (p *Platform) SwapChains() []*SwapChain {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*SwapChain(nil), p.swapChains...)
}

// RegisteredObjects returns the number of registered interop objects.
func (p *Platform) RegisteredObjects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.objects)
}

// LockedObjects returns the number of registered interop objects currently
// locked by the rendering side.
func (p *Platform) LockedObjects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, o := range p.objects {
		if o.locked {
			n++
		}
	}
	return n
}

// OpenChannels returns the number of open interop devices.
func (p *Platform) OpenChannels() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.channels)
}

// LiveContexts returns the number of rendering contexts not yet deleted.
func (p *Platform) LiveContexts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.contexts) + len(p.legacy)
}

// LiveWindows returns the number of surface windows the fake created and
// that are not yet destroyed.
func (p *Platform) LiveWindows() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, w := range p.windows {
		if w.surface {
			n++
		}
	}
	return n
}

// LiveObjects returns the number of presentation-side objects with a
// non-zero reference count.
func (p *Platform) LiveObjects() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Current returns the rendering context bound on the (single) fake thread.
func (p *Platform) Current() hal.GLRC {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// record logs a call and returns its injected failure, if any.
// Must be called with p.mu held.
func (p *Platform) record(name string) error {
	p.calls = append(p.calls, name)
	return p.failures[name]
}

func (p *Platform) violate(format string, args ...any) {
	p.violations = append(p.violations, fmt.Sprintf(format, args...))
}

func (p *Platform) handle() uintptr {
	p.nextHandle += 0x10
	return p.nextHandle
}

// call is a helper for methods that only need logging and failure injection.
func (p *Platform) call(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record(name)
}
