// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli"

	"github.com/gogpu/dxinterop"
)

// loadConfig returns the configuration named by the global --config flag,
// or the defaults.
func loadConfig(ctx *cli.Context) (dxinterop.Config, error) {
	path := ctx.GlobalString("config")
	if path == "" {
		return dxinterop.DefaultConfig(), nil
	}
	return dxinterop.LoadConfig(path)
}

func printConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	return writeConfig(os.Stdout, cfg)
}

func writeConfig(w io.Writer, cfg dxinterop.Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}
