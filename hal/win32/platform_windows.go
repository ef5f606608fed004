// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package win32

import "github.com/gogpu/dxinterop/hal"

// Platform is the Windows driver. It holds no state: every handle it returns
// is owned by the caller.
type Platform struct{}

// New returns the Windows platform.
func New() *Platform {
	return &Platform{}
}

// GL returns the WGL rendering side.
func (*Platform) GL() hal.GL { return gl{} }

// D3D returns the Direct3D 11 presentation side.
func (*Platform) D3D() hal.D3D { return d3d{} }

var _ hal.Platform = (*Platform)(nil)
