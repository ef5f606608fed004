// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package win32

import "golang.org/x/sys/windows"

var (
	user32      = windows.NewLazySystemDLL("user32.dll")
	gdi32       = windows.NewLazySystemDLL("gdi32.dll")
	opengl32    = windows.NewLazySystemDLL("opengl32.dll")
	d3d11       = windows.NewLazySystemDLL("d3d11.dll")
	dxgi        = windows.NewLazySystemDLL("dxgi.dll")
	d3dcompiler = windows.NewLazySystemDLL("d3dcompiler_47.dll")

	procCreateWindowExW = user32.NewProc("CreateWindowExW")
	procDestroyWindow   = user32.NewProc("DestroyWindow")
	procGetDC           = user32.NewProc("GetDC")
	procReleaseDC       = user32.NewProc("ReleaseDC")
	procGetClientRect   = user32.NewProc("GetClientRect")

	procChoosePixelFormat   = gdi32.NewProc("ChoosePixelFormat")
	procDescribePixelFormat = gdi32.NewProc("DescribePixelFormat")
	procSetPixelFormat      = gdi32.NewProc("SetPixelFormat")
	procSwapBuffers         = gdi32.NewProc("SwapBuffers")

	procWglCreateContext  = opengl32.NewProc("wglCreateContext")
	procWglDeleteContext  = opengl32.NewProc("wglDeleteContext")
	procWglMakeCurrent    = opengl32.NewProc("wglMakeCurrent")
	procWglGetProcAddress = opengl32.NewProc("wglGetProcAddress")

	procD3D11CreateDevice  = d3d11.NewProc("D3D11CreateDevice")
	procCreateDXGIFactory1 = dxgi.NewProc("CreateDXGIFactory1")
	procD3DCompile         = d3dcompiler.NewProc("D3DCompile")
)
