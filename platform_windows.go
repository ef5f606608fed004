//go:build windows

package dxinterop

import (
	"github.com/gogpu/dxinterop/hal"
	"github.com/gogpu/dxinterop/hal/win32"
)

func defaultPlatform() hal.Platform {
	return win32.New()
}
