//go:build !windows && !linux

package registry

// currentThreadID treats the process as a single thread.
func currentThreadID() uint32 { return 0 }
