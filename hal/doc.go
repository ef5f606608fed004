// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package hal defines the driver boundary used by dxinterop.
//
// Two graphics APIs meet here:
//
//   - GL is the rendering side: a WGL-style platform that owns windows, device
//     contexts and rendering contexts, and exposes extension entry points
//     through ProcAddress.
//   - D3D is the presentation side: a Direct3D 11 device, its immediate
//     context and a DXGI swap chain.
//
// The interop channel between them (WGL_NV_DX_interop) is reached through
// Interop, which GL binds from a table of entry point addresses resolved by
// the caller.
//
// Raw platform handles are represented by distinct named types. They are
// opaque: the only thing a caller can ask of them is whether they are valid.
//
// The Windows implementation lives in hal/win32. Tests use an in-memory
// recording driver.
package hal
