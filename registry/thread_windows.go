//go:build windows

package registry

import "golang.org/x/sys/windows"

func currentThreadID() uint32 { return windows.GetCurrentThreadId() }
