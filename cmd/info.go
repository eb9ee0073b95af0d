package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"

	"github.com/Mike-Leo-Smith/embree/tracer"
)

// Info prints the kernel strategy picked for this machine and, when a scene
// file is given, its hierarchy statistics.
func Info(ctx *cli.Context) error {
	setupLogging(ctx)

	fmt.Printf("arch:        %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("leaf kernel: %s\n", tracer.DetectKernel())
	fmt.Printf("packet size: %d rays\n", tracer.PacketSize)

	if ctx.NArg() == 1 {
		sc, _, err := loadScene(ctx.Args().First())
		if err != nil {
			return err
		}
		fmt.Printf("\n%s", sc.Stats())
	}
	return nil
}
