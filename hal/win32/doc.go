// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package win32 implements hal.Platform on Windows: WGL through opengl32.dll
// and gdi32.dll, Direct3D 11 and DXGI through their COM interfaces, and
// WGL_NV_DX_interop through extension entry points resolved at runtime.
//
// COM methods are called by vtable index. Every type here wraps a raw
// interface pointer and owns one reference to it.
package win32
