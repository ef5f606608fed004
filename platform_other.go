//go:build !windows

package dxinterop

import "github.com/gogpu/dxinterop/hal"

// defaultPlatform returns nil: the interop extension only exists on Windows.
func defaultPlatform() hal.Platform { return nil }
