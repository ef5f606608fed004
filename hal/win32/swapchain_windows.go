// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package win32

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"golang.org/x/sys/windows"

	"github.com/gogpu/dxinterop/hal"
)

// IDXGISwapChain, IDXGISwapChain1 and IDXGISwapChain2 vtable slots.
const (
	swapChainPresent                       = 8
	swapChainGetBuffer                     = 9
	swapChainResizeBuffers                 = 13
	swapChainGetDesc1                      = 18
	swapChainSetMaximumFrameLatency        = 31
	swapChainGetFrameLatencyWaitableObject = 33
)

type swapChain struct {
	ptr  com // IDXGISwapChain1
	ptr2 com // IDXGISwapChain2, only for waitable swap chains
}

func (s *swapChain) Release() {
	s.ptr2.release()
	s.ptr.release()
	s.ptr, s.ptr2 = 0, 0
}

func (s *swapChain) Present(interval uint32, flags hal.PresentFlags) error {
	return s.ptr.hr("Present", swapChainPresent, uintptr(interval), uintptr(flags))
}

func (s *swapChain) Buffer(i uint32) (hal.Texture, error) {
	var t com
	if err := s.ptr.hr("GetBuffer", swapChainGetBuffer,
		uintptr(i), uintptr(unsafe.Pointer(&iidID3D11Texture2D)), uintptr(unsafe.Pointer(&t))); err != nil {
		return nil, err
	}
	return &texture{ptr: t}, nil
}

func (s *swapChain) Desc() (hal.SwapChainDesc, error) {
	var d swapChainDesc1
	if err := s.ptr.hr("GetDesc1", swapChainGetDesc1, uintptr(unsafe.Pointer(&d))); err != nil {
		return hal.SwapChainDesc{}, err
	}
	return hal.SwapChainDesc{
		Width:       d.Width,
		Height:      d.Height,
		Format:      textureFormat(d.Format),
		BufferCount: d.BufferCount,
		SwapEffect:  hal.SwapEffect(d.SwapEffect),
		Flags:       hal.SwapChainFlags(d.Flags),
	}, nil
}

func (s *swapChain) ResizeBuffers(count, width, height uint32, format gputypes.TextureFormat, flags hal.SwapChainFlags) error {
	return s.ptr.hr("ResizeBuffers", swapChainResizeBuffers,
		uintptr(count), uintptr(width), uintptr(height), uintptr(dxgiFormat(format)), uintptr(flags))
}

func (s *swapChain) SetMaximumFrameLatency(n uint32) error {
	if s.ptr2 == 0 {
		return errors.New("win32: SetMaximumFrameLatency: swap chain is not waitable")
	}
	return s.ptr2.hr("SetMaximumFrameLatency", swapChainSetMaximumFrameLatency, uintptr(n))
}

func (s *swapChain) FrameLatencyWaitable() (hal.WaitHandle, error) {
	if s.ptr2 == 0 {
		return nil, errors.New("win32: FrameLatencyWaitable: swap chain is not waitable")
	}
	h := s.ptr2.call(swapChainGetFrameLatencyWaitableObject)
	if h == 0 {
		return nil, errors.New("win32: GetFrameLatencyWaitableObject returned no handle")
	}
	return waitHandle(h), nil
}

// waitHandle is an event handle owned by the caller.
type waitHandle windows.Handle

func (w waitHandle) Wait(timeout time.Duration) (hal.WaitResult, error) {
	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout.Milliseconds())
	}
	ev, err := windows.WaitForSingleObject(windows.Handle(w), ms)
	switch ev {
	case windows.WAIT_OBJECT_0:
		return hal.WaitSignaled, nil
	case uint32(windows.WAIT_TIMEOUT):
		return hal.WaitTimeout, nil
	case windows.WAIT_ABANDONED:
		return hal.WaitAbandoned, nil
	}
	if err == nil {
		err = fmt.Errorf("win32: WaitForSingleObject returned %#x", ev)
	}
	return 0, err
}

func (w waitHandle) Close() error {
	return windows.CloseHandle(windows.Handle(w))
}
