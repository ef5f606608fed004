//go:build linux

package registry

import "golang.org/x/sys/unix"

func currentThreadID() uint32 { return uint32(unix.Gettid()) }
