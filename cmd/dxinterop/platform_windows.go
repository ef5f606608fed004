// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package main

import (
	"github.com/gogpu/dxinterop/hal"
	"github.com/gogpu/dxinterop/hal/win32"
)

func newPlatform() (hal.Platform, error) {
	return win32.New(), nil
}
