// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command dxinterop checks that a machine can share textures between WGL and
// Direct3D 11 and prints the effective interop configuration.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "dxinterop"
	app.Usage = "probe and configure WGL/Direct3D 11 texture sharing"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load interop settings from a TOML file",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx)
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:  "probe",
			Usage: "create a session on a hidden window and run a few frames through it",
			Description: `
Create a rendering context, a Direct3D 11 device and a flip-model swap chain on a
hidden 1x1 window, open the interop channel, then share one texture and blit it
to the back buffer for the requested number of frames.

Every step is timed and its status code is reported.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 256,
					Usage: "shared texture width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 256,
					Usage: "shared texture height",
				},
				cli.IntFlag{
					Name:  "frames",
					Value: 3,
					Usage: "number of frames to blit and present",
				},
			},
			Action: probe,
		},
		{
			Name:   "config",
			Usage:  "print the effective configuration as TOML",
			Action: printConfig,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
