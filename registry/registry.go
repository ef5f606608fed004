// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package registry maps application windows to dxinterop sessions and
// exposes the status-code boundary a host rendering API calls into.
//
// Texture calls carry no window. They act on the session most recently made
// current on the calling OS thread, the way the rendering API's own texture
// names are scoped to its current context.
package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/dxinterop"
	"github.com/gogpu/dxinterop/hal"
)

// WindowID is the host's opaque window identifier.
type WindowID uintptr

// Status is the result code of a boundary call. StatusOK is zero.
type Status int32

// Status codes.
const (
	StatusOK Status = iota
	StatusSetupFailed
	StatusDeviceLost
	StatusContractViolation
	StatusUnknownWindow
	StatusNoCurrentWindow
)

// String returns a short name for the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSetupFailed:
		return "setup failed"
	case StatusDeviceLost:
		return "device lost"
	case StatusContractViolation:
		return "contract violation"
	case StatusUnknownWindow:
		return "unknown window"
	case StatusNoCurrentWindow:
		return "no current window"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// StatusOf maps a dxinterop error to a status code.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	switch dxinterop.KindOf(err) {
	case dxinterop.KindSetup:
		return StatusSetupFailed
	case dxinterop.KindContract:
		return StatusContractViolation
	default:
		return StatusDeviceLost
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithSessionOptions sets the options every session is created with.
func WithSessionOptions(opts ...dxinterop.Option) Option {
	return func(r *Registry) {
		r.options = append(r.options, opts...)
	}
}

// WithThreadID replaces the function that identifies the calling OS thread.
func WithThreadID(fn func() uint32) Option {
	return func(r *Registry) {
		r.threadID = fn
	}
}

// Registry holds one session per window.
//
// The mutex only guards the maps; it is never held across a driver call.
// Operations on one session from several threads at once are not
// serialized.
type Registry struct {
	mu       sync.Mutex
	sessions map[WindowID]*dxinterop.Session
	creating map[WindowID]bool
	current  map[uint32]WindowID

	threadID func() uint32
	options  []dxinterop.Option
	devices  *dxinterop.Devices
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[WindowID]*dxinterop.Session),
		creating: make(map[WindowID]bool),
		current:  make(map[uint32]WindowID),
		threadID: currentThreadID,
		devices:  dxinterop.NewDevices(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Session returns the session of win.
func (r *Registry) Session(win WindowID) (*dxinterop.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[win]
	return s, ok
}

// Current returns the window made current on the calling thread.
func (r *Registry) Current() (WindowID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	win, ok := r.current[r.threadID()]
	return win, ok
}

func (r *Registry) report(op string, win WindowID, st Status, err error) Status {
	if st != StatusOK {
		dxinterop.Logger().Warn("registry: call failed",
			"op", op, "window", uintptr(win), "status", st.String(), "err", err)
	}
	return st
}

// Create creates the session for win, presenting to hwnd. The window id is
// reserved while the session is built, so a concurrent Create for the same
// window fails without touching the driver.
func (r *Registry) Create(win WindowID, hwnd hal.Window) Status {
	const op = "Create"
	r.mu.Lock()
	if _, ok := r.sessions[win]; ok || r.creating[win] {
		r.mu.Unlock()
		return r.report(op, win, StatusContractViolation, fmt.Errorf("window %d already has a session", win))
	}
	r.creating[win] = true
	r.mu.Unlock()

	opts := append(slices.Clone(r.options), dxinterop.WithDevices(r.devices))
	s, err := dxinterop.NewSession(hwnd, opts...)

	r.mu.Lock()
	delete(r.creating, win)
	if err == nil {
		r.sessions[win] = s
	}
	r.mu.Unlock()
	return r.report(op, win, StatusOf(err), err)
}

// MakeCurrent binds the session of win to the calling thread and makes it
// the target of texture calls from this thread.
func (r *Registry) MakeCurrent(win WindowID) Status {
	const op = "MakeCurrent"
	s, ok := r.Session(win)
	if !ok {
		return r.report(op, win, StatusUnknownWindow, nil)
	}
	if err := s.MakeCurrent(); err != nil {
		return r.report(op, win, StatusOf(err), err)
	}
	r.mu.Lock()
	r.current[r.threadID()] = win
	r.mu.Unlock()
	return StatusOK
}

// SwapBuffers presents the back buffer of win with its swap interval.
func (r *Registry) SwapBuffers(win WindowID) Status {
	return r.withSession("SwapBuffers", win, (*dxinterop.Session).PresentDefault)
}

// SetSwapInterval sets the interval SwapBuffers presents with.
func (r *Registry) SetSwapInterval(win WindowID, interval int32) Status {
	if interval < 0 {
		return r.report("SetSwapInterval", win, StatusContractViolation, dxinterop.ErrSwapInterval)
	}
	return r.withSession("SetSwapInterval", win, func(s *dxinterop.Session) error {
		return s.SetSwapInterval(uint32(interval))
	})
}

// Resize resizes the swap chain of win.
func (r *Registry) Resize(win WindowID, width, height int32) Status {
	if width < 0 || height < 0 {
		return r.report("Resize", win, StatusContractViolation, dxinterop.ErrInvalidDimensions)
	}
	return r.withSession("Resize", win, func(s *dxinterop.Session) error {
		return s.Resize(uint32(width), uint32(height))
	})
}

// WaitForFrame waits until the swap chain of win can take another frame.
func (r *Registry) WaitForFrame(win WindowID) Status {
	return r.withSession("WaitForFrame", win, func(s *dxinterop.Session) error {
		return s.WaitForFrame(dxinterop.DefaultFrameTimeout)
	})
}

func (r *Registry) withSession(op string, win WindowID, fn func(*dxinterop.Session) error) Status {
	s, ok := r.Session(win)
	if !ok {
		return r.report(op, win, StatusUnknownWindow, nil)
	}
	err := fn(s)
	return r.report(op, win, StatusOf(err), err)
}

// CreateSharedTexture creates texture id in the current session and hands
// it to the rendering side.
func (r *Registry) CreateSharedTexture(id uint32, width, height int32) Status {
	return r.withCurrent("CreateSharedTexture", func(win WindowID) Status {
		return r.CreateSharedTextureFor(win, id, width, height)
	})
}

// CreateSharedTextureFor is CreateSharedTexture on the session of win.
func (r *Registry) CreateSharedTextureFor(win WindowID, id uint32, width, height int32) Status {
	if width <= 0 || height <= 0 {
		return r.report("CreateSharedTexture", win, StatusContractViolation, dxinterop.ErrInvalidDimensions)
	}
	return r.withSession("CreateSharedTexture", win, func(s *dxinterop.Session) error {
		t, err := s.CreateTexture(id, uint32(width), uint32(height))
		if err != nil {
			return err
		}
		return t.Lock()
	})
}

// DeleteSharedTexture destroys texture id in the current session.
func (r *Registry) DeleteSharedTexture(id uint32) Status {
	return r.withCurrent("DeleteSharedTexture", func(win WindowID) Status {
		return r.DeleteSharedTextureFor(win, id)
	})
}

// DeleteSharedTextureFor is DeleteSharedTexture on the session of win.
func (r *Registry) DeleteSharedTextureFor(win WindowID, id uint32) Status {
	return r.withSession("DeleteSharedTexture", win, func(s *dxinterop.Session) error {
		return s.DeleteTexture(id)
	})
}

// BlitSharedTextureToScreen draws texture id of the current session into
// its back buffer.
func (r *Registry) BlitSharedTextureToScreen(id uint32) Status {
	return r.withCurrent("BlitSharedTextureToScreen", func(win WindowID) Status {
		return r.BlitSharedTextureToScreenFor(win, id)
	})
}

// BlitSharedTextureToScreenFor is BlitSharedTextureToScreen on the session
// of win.
func (r *Registry) BlitSharedTextureToScreenFor(win WindowID, id uint32) Status {
	return r.withSession("BlitSharedTextureToScreen", win, func(s *dxinterop.Session) error {
		return s.BlitToBackBuffer(id)
	})
}

// withCurrent resolves the window made current on the calling thread.
func (r *Registry) withCurrent(op string, fn func(WindowID) Status) Status {
	win, ok := r.Current()
	if !ok {
		return r.report(op, 0, StatusNoCurrentWindow, nil)
	}
	return fn(win)
}

// Destroy closes the session of win and forgets it on every thread.
func (r *Registry) Destroy(win WindowID) Status {
	const op = "Destroy"
	r.mu.Lock()
	s, ok := r.sessions[win]
	delete(r.sessions, win)
	for tid, w := range r.current {
		if w == win {
			delete(r.current, tid)
		}
	}
	r.mu.Unlock()

	if !ok {
		return r.report(op, win, StatusUnknownWindow, nil)
	}
	err := s.Close()
	return r.report(op, win, StatusOf(err), err)
}

// Close destroys every session.
func (r *Registry) Close() {
	r.mu.Lock()
	wins := make([]WindowID, 0, len(r.sessions))
	for win := range r.sessions {
		wins = append(wins, win)
	}
	r.mu.Unlock()

	slices.Sort(wins)
	for _, win := range wins {
		r.Destroy(win)
	}
}
