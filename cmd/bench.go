package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/chewxy/math32"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/Mike-Leo-Smith/embree/builder"
	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/tracer"
	"github.com/Mike-Leo-Smith/embree/types"
)

// Bench measures ray throughput for every query granularity against a scene
// file, or against a built-in procedural scene when no file is given.
func Bench(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	var sc *scene.Scene
	var camera *scene.Camera
	if ctx.NArg() == 1 {
		if sc, camera, err = loadScene(ctx.Args().First()); err != nil {
			return err
		}
	} else {
		if sc, camera, err = proceduralScene(); err != nil {
			return err
		}
		logger.Notice("no scene file given; using the procedural sphere scene")
	}
	logger.Noticef("scene stats:\n%s", sc.Stats())

	width, height := cfg.Frame.Width, cfg.Frame.Height
	camera.SetupProjection(float32(width) / float32(height))
	tr := tracer.New(sc, tracerOptions(cfg)...)

	rays := make([]tracer.Ray, width*height)
	fill := func() {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				org, dir := camera.PrimaryRay(x, y, width, height)
				rays[y*width+x] = tracer.NewRay(org, dir)
			}
		}
	}

	frames := cfg.Bench.Frames
	occluded := make([]bool, len(rays))
	runs := []struct {
		name  string
		query func()
	}{
		{"intersect/single", func() {
			for i := range rays {
				tr.Intersect(&rays[i])
			}
		}},
		{"intersect/packet", func() {
			var p tracer.RayPacket
			for i := 0; i+tracer.PacketSize <= len(rays); i += tracer.PacketSize {
				for k := 0; k < tracer.PacketSize; k++ {
					p.SetRay(k, rays[i+k])
				}
				tr.IntersectPacket(&p)
			}
		}},
		{"intersect/stream", func() { tr.IntersectStream(rays) }},
		{"occluded/single", func() {
			for i := range rays {
				occluded[i] = tr.Occluded(&rays[i])
			}
		}},
		{"occluded/stream", func() { tr.OccludedStream(rays, occluded) }},
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Query", "Time/frame", "Mrays/s"})

	for _, run := range runs {
		var elapsed time.Duration
		for f := 0; f < frames; f++ {
			fill()
			start := time.Now()
			run.query()
			elapsed += time.Since(start)
		}

		perFrame := elapsed / time.Duration(frames)
		mrays := float64(len(rays)) / perFrame.Seconds() / 1e6
		table.Append([]string{run.name, perFrame.String(), fmt.Sprintf("%.2f", mrays)})
	}

	table.Render()
	return nil
}

// proceduralScene builds a quad sphere with a tuft of hair on top, enough
// geometry to exercise both node kinds without any input file.
func proceduralScene() (*scene.Scene, *scene.Camera, error) {
	const stacks, slices = 32, 64

	point := func(i, j int) types.Vec3 {
		theta := math32.Pi * float32(i) / stacks
		phi := 2 * math32.Pi * float32(j) / slices
		return types.Vec3{
			math32.Sin(theta) * math32.Cos(phi),
			math32.Cos(theta),
			math32.Sin(theta) * math32.Sin(phi),
		}
	}

	var quads []builder.Quad
	prim := uint32(0)
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			quads = append(quads, builder.Quad{
				V0: point(i, j), V1: point(i+1, j), V2: point(i+1, j+1), V3: point(i, j+1),
				GeomID: 0, PrimID: prim,
			})
			prim++
		}
	}

	var curves []scene.CurveSegment
	for j := 0; j < 64; j++ {
		p := point(2, j*(slices/64))
		tip := p.Mul(1.4)
		curves = append(curves, scene.CurveSegment{
			P0:     p.Vec4(0.004),
			P1:     p.Mul(1.15).Vec4(0.003),
			P2:     p.Mul(1.3).Vec4(0.002),
			P3:     tip.Vec4(0.001),
			GeomID: 1,
			PrimID: uint32(j),
		})
	}

	sc, err := builder.Build(quads, curves, builder.Options{})
	if err != nil {
		return nil, nil, err
	}

	camera := scene.NewCamera(45)
	camera.Position = types.Vec3{0, 0.4, -3}
	camera.LookAt = types.Vec3{0, 0, 0}
	return sc, camera, nil
}
