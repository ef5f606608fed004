// Package dxinterop presents frames drawn by an OpenGL context through a
// Direct3D 11 flip-model swap chain, sharing textures between the two APIs
// with WGL_NV_DX_interop instead of copying pixels through the CPU.
//
// # Overview
//
// A [Session] owns both sides: a [RenderingContext] on a hidden window, a
// presentation device with a [PresentationSurface] for the application
// window, and the [InteropDevice] that links them. Textures are allocated on
// the presentation device and registered with the interop channel as
// [SharedTexture] values the OpenGL side can render into.
//
// # Frame Loop
//
//	s, err := dxinterop.NewSession(hwnd)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	tex, _ := s.CreateTexture(glName, 1280, 720)
//	_ = tex.Lock() // OpenGL owns the texture
//	for running {
//	    drawWithOpenGL(glName)
//	    _ = s.BlitToBackBuffer(glName) // unlock, sample into back buffer, lock
//	    _ = s.Present(1)
//	}
//
// # Threads
//
// The rendering context is current on one OS thread at a time. Pin the
// goroutine that drives a session with runtime.LockOSThread. A Session is
// not safe for concurrent use; the registry package multiplexes sessions
// across windows and threads.
//
// # Errors
//
// Every error is an [*Error] whose Kind tells setup failures, device loss and
// caller mistakes apart:
//
//	if errors.Is(err, dxinterop.ErrContract) { ... }
//
// After a device error the session is lost and every later call returns the
// same error. Close still releases everything.
//
// # Logging
//
// dxinterop is silent by default. See [SetLogger].
package dxinterop
