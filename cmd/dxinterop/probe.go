// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/gogpu/dxinterop"
	"github.com/gogpu/dxinterop/hal"
	"github.com/gogpu/dxinterop/registry"
)

const (
	probeWindow  registry.WindowID = 1
	probeTexture uint32            = 1
)

type probeOptions struct {
	Width, Height int32
	Frames        int
}

type probeStep struct {
	Name   string
	Status registry.Status
	Took   time.Duration
}

func probe(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	p, err := newPlatform()
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}

	// WGL binds contexts to the OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	opts := probeOptions{
		Width:  int32(ctx.Int("width")),
		Height: int32(ctx.Int("height")),
		Frames: ctx.Int("frames"),
	}
	if err := runProbe(p, cfg, opts, os.Stdout); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}

// runProbe drives one session through the registry and writes a step table
// to out. It stops at the first failing step.
func runProbe(p hal.Platform, cfg dxinterop.Config, opts probeOptions, out io.Writer) error {
	hwnd, err := p.GL().CreateSurfaceWindow()
	if err != nil {
		return fmt.Errorf("probe: create window: %w", err)
	}
	defer func() {
		if err := p.GL().DestroyWindow(hwnd); err != nil {
			dxinterop.Logger().Warn("probe: destroy window", "err", err)
		}
	}()

	reg := registry.New(registry.WithSessionOptions(append(cfg.Options(), dxinterop.WithPlatform(p))...))
	defer reg.Close()

	var steps []probeStep
	run := func(name string, fn func() registry.Status) bool {
		start := time.Now()
		st := fn()
		steps = append(steps, probeStep{Name: name, Status: st, Took: time.Since(start)})
		return st == registry.StatusOK
	}

	ok := run("create session", func() registry.Status { return reg.Create(probeWindow, hwnd) }) &&
		run("make current", func() registry.Status { return reg.MakeCurrent(probeWindow) }) &&
		run("create shared texture", func() registry.Status {
			return reg.CreateSharedTexture(probeTexture, opts.Width, opts.Height)
		})
	for i := 0; ok && i < opts.Frames; i++ {
		ok = run(fmt.Sprintf("frame %d: wait", i), func() registry.Status { return reg.WaitForFrame(probeWindow) }) &&
			run(fmt.Sprintf("frame %d: blit", i), func() registry.Status { return reg.BlitSharedTextureToScreen(probeTexture) }) &&
			run(fmt.Sprintf("frame %d: present", i), func() registry.Status { return reg.SwapBuffers(probeWindow) })
	}
	ok = ok &&
		run("resize to window", func() registry.Status { return reg.Resize(probeWindow, 0, 0) }) &&
		run("delete shared texture", func() registry.Status { return reg.DeleteSharedTexture(probeTexture) }) &&
		run("destroy session", func() registry.Status { return reg.Destroy(probeWindow) })

	writeSteps(out, steps)

	if !ok {
		last := steps[len(steps)-1]
		return fmt.Errorf("probe: %s: %s", last.Name, last.Status)
	}
	return nil
}

func writeSteps(out io.Writer, steps []probeStep) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Step", "Status", "Time"})
	var total time.Duration
	for _, s := range steps {
		table.Append([]string{s.Name, s.Status.String(), s.Took.String()})
		total += s.Took
	}
	table.SetFooter([]string{"", "TOTAL", total.String()})
	table.Render()
	fmt.Fprint(out, buf.String())
}
