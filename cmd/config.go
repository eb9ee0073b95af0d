package cmd

import (
	"fmt"

	"github.com/urfave/cli"
	"gopkg.in/gcfg.v1"
)

// Settings shared by the render and bench commands. Command line flags
// override the config file.
type config struct {
	Frame struct {
		Width  int
		Height int
	}

	Tracer struct {
		// Leaf kernel strategy ("vec4" or "scalar"); empty picks the
		// hardware default.
		Kernel string

		// Reject backfacing triangles.
		Culling bool
	}

	Bench struct {
		// Numbers of frames traced per query granularity.
		Frames int
	}
}

func loadConfig(ctx *cli.Context) (*config, error) {
	var cfg config
	cfg.Frame.Width = 512
	cfg.Frame.Height = 512
	cfg.Bench.Frames = 8

	if path := ctx.String("config"); path != "" {
		if err := gcfg.ReadFileInto(&cfg, path); err != nil {
			return nil, fmt.Errorf("config: %v", err)
		}
	}

	if ctx.IsSet("width") {
		cfg.Frame.Width = ctx.Int("width")
	}
	if ctx.IsSet("height") {
		cfg.Frame.Height = ctx.Int("height")
	}
	if ctx.IsSet("kernel") {
		cfg.Tracer.Kernel = ctx.String("kernel")
	}
	if ctx.Bool("culling") {
		cfg.Tracer.Culling = true
	}

	if cfg.Frame.Width <= 0 || cfg.Frame.Height <= 0 {
		return nil, fmt.Errorf("config: invalid frame size %dx%d", cfg.Frame.Width, cfg.Frame.Height)
	}
	return &cfg, nil
}
