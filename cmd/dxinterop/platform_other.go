// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !windows

package main

import (
	"github.com/gogpu/dxinterop"
	"github.com/gogpu/dxinterop/hal"
)

func newPlatform() (hal.Platform, error) {
	return nil, dxinterop.ErrNoPlatform
}
