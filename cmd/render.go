package cmd

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/urfave/cli"

	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/tracer"
)

// RenderFrame traces one primary ray per pixel and writes a shaded PNG. It
// is a debugging visualization of the intersection core, not a light
// transport simulation: hits are shaded by their geometric normal against a
// headlight at the camera.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	sc, camera, err := loadScene(ctx.Args().First())
	if err != nil {
		return err
	}
	logger.Noticef("scene stats:\n%s", sc.Stats())

	width, height := cfg.Frame.Width, cfg.Frame.Height
	camera.SetupProjection(float32(width) / float32(height))
	tr := tracer.New(sc, tracerOptions(cfg)...)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	start := time.Now()

	// Rows are independent; split them across the CPUs.
	var wg sync.WaitGroup
	rowChan := make(chan int, height)
	for w := 0; w < runtime.NumCPU(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rays := make([]tracer.Ray, width)
			for y := range rowChan {
				for x := 0; x < width; x++ {
					org, dir := camera.PrimaryRay(x, y, width, height)
					rays[x] = tracer.NewRay(org, dir)
				}
				tr.IntersectStream(rays)
				for x := 0; x < width; x++ {
					img.SetRGBA(x, y, shade(&rays[x]))
				}
			}
		}()
	}
	for y := 0; y < height; y++ {
		rowChan <- y
	}
	close(rowChan)
	wg.Wait()

	logger.Noticef("rendered %dx%d frame in %d ms\n", width, height, time.Since(start).Nanoseconds()/1e6)

	out := ctx.String("out")
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err = png.Encode(f, img); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s\n", out)
	return nil
}

// shade maps a traced ray to a headlight-lit gray, or the background
// gradient when nothing was hit.
func shade(ray *tracer.Ray) color.RGBA {
	if ray.GeomID == scene.InvalidID {
		g := uint8(32 + 64*(ray.Dir[1]+1)/2)
		return color.RGBA{R: g, G: g, B: g + 16, A: 255}
	}

	n := ray.Ng.Normalize()
	lit := math32.Abs(n.Dot(ray.Dir.Normalize()))
	g := uint8(255 * lit)
	return color.RGBA{R: g, G: g, B: g, A: 255}
}
