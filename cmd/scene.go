package cmd

import (
	"time"

	"github.com/Mike-Leo-Smith/embree/builder"
	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/scene/reader"
	"github.com/Mike-Leo-Smith/embree/tracer"
)

// loadScene parses a wavefront file and builds the traversal hierarchy.
func loadScene(path string) (*scene.Scene, *scene.Camera, error) {
	parsed, err := reader.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	sc, err := builder.Build(parsed.Quads, parsed.Curves, builder.Options{})
	if err != nil {
		return nil, nil, err
	}
	logger.Noticef("built hierarchy for %s in %d ms\n", path, time.Since(start).Nanoseconds()/1e6)

	return sc, parsed.Camera, nil
}

func tracerOptions(cfg *config) []tracer.Option {
	var opts []tracer.Option
	if cfg.Tracer.Kernel != "" {
		opts = append(opts, tracer.WithKernel(cfg.Tracer.Kernel))
	}
	if cfg.Tracer.Culling {
		opts = append(opts, tracer.WithBackfaceCulling())
	}
	return opts
}
