package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/Mike-Leo-Smith/embree/cmd"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "embree"
	app.Usage = "trace rays against 4-wide bounding-volume hierarchies"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}

	sharedFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "frame height",
		},
		cli.StringFlag{
			Name:  "kernel",
			Usage: "leaf kernel strategy (vec4 or scalar); default is picked per machine",
		},
		cli.BoolFlag{
			Name:  "culling",
			Usage: "reject backfacing triangles",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "settings file; command line flags override it",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "trace one primary ray per pixel and write a shaded png",
			Description: `
Parse a scene definition from a wavefront obj file, build the traversal
hierarchy and trace a single frame of primary rays, shading hits by their
geometric normal. Intended for eyeballing the intersection core; there is no
light transport here.`,
			ArgsUsage: "scene_file.obj",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			}, sharedFlags...),
			Action: cmd.RenderFrame,
		},
		{
			Name:      "bench",
			Usage:     "measure ray throughput per query granularity",
			ArgsUsage: "[scene_file.obj]",
			Flags:     sharedFlags,
			Action:    cmd.Bench,
		},
		{
			Name:      "info",
			Usage:     "print the detected kernel strategy and scene statistics",
			ArgsUsage: "[scene_file.obj]",
			Action:    cmd.Info,
		},
	}

	app.Run(os.Args)
}
