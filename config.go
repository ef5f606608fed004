package dxinterop

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the file form of the session options.
//
//	debug = false
//	swap_interval = 1
//	max_frame_latency = 1
//
//	[context]
//	major = 4
//	minor = 6
//	core = true
//	forward_compatible = true
type Config struct {
	Debug           bool          `toml:"debug"`
	SwapInterval    uint32        `toml:"swap_interval"`
	MaxFrameLatency uint32        `toml:"max_frame_latency"`
	Context         ContextConfig `toml:"context"`
}

// DefaultConfig returns the configuration NewSession uses without options.
func DefaultConfig() Config {
	o := defaultOptions()
	return Config{
		Debug:           o.debug,
		SwapInterval:    o.swapInterval,
		MaxFrameLatency: o.maxFrameLatency,
		Context:         o.context,
	}
}

// LoadConfig reads a TOML file. Keys missing from the file keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("dxinterop: load config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("dxinterop: load config: unknown key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.SwapInterval > 4 {
		return fmt.Errorf("dxinterop: swap_interval %d out of range 0..4", c.SwapInterval)
	}
	if c.MaxFrameLatency > 16 {
		return fmt.Errorf("dxinterop: max_frame_latency %d out of range 0..16", c.MaxFrameLatency)
	}
	if c.Context.Major < 1 || c.Context.Minor < 0 {
		return fmt.Errorf("dxinterop: invalid context version %d.%d", c.Context.Major, c.Context.Minor)
	}
	return nil
}

// Options converts c into session options.
func (c Config) Options() []Option {
	return []Option{
		WithDebugLayer(c.Debug),
		WithSwapInterval(c.SwapInterval),
		WithMaxFrameLatency(c.MaxFrameLatency),
		WithContextConfig(c.Context),
	}
}
