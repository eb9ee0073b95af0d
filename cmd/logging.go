package cmd

import (
	"github.com/urfave/cli"

	"github.com/Mike-Leo-Smith/embree/log"
)

var logger = log.New("embree")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
