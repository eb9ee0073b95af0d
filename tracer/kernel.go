package tracer

import (
	"runtime"

	"github.com/Mike-Leo-Smith/embree/log"
	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/simd"
)

var logger = log.New("tracer")

// Per-geometry traversal state supplied by the scene layer: a visibility
// mask and an optional acceptance filter.
type Geometry struct {
	Mask   uint32
	Filter Filter
}

// A leafKernel is one interchangeable implementation of the leaf-level quad
// tests. The strategy is picked once when the Traverser is built, never per
// call.
type leafKernel interface {
	name() string

	intersectQuads(tr *Traverser, ray *Ray, q *scene.QuadBundle) bool
	occludedQuads(tr *Traverser, ray *Ray, q *scene.QuadBundle) bool

	intersectQuadsPacket(tr *Traverser, p *RayPacket, valid simd.Bool4, q *scene.QuadBundle)
	occludedQuadsPacket(tr *Traverser, p *RayPacket, valid *simd.Bool4, q *scene.QuadBundle)
}

// A Traverser answers intersect/occluded queries against one immutable
// scene. It holds no mutable state of its own, so a single Traverser may be
// shared by any number of goroutines issuing queries on their own rays.
type Traverser struct {
	sc    *scene.Scene
	geoms map[uint32]Geometry

	hasFilters bool
	cull       bool
	leaf       leafKernel
}

type Option func(*Traverser)

// WithBackfaceCulling rejects triangles whose denominator is non-positive,
// i.e. geometry facing away from the ray.
func WithBackfaceCulling() Option {
	return func(tr *Traverser) {
		tr.cull = true
	}
}

// WithGeometry registers the visibility mask and acceptance filter for a
// geometry id.
func WithGeometry(geomID uint32, g Geometry) Option {
	return func(tr *Traverser) {
		tr.geoms[geomID] = g
	}
}

// WithKernel forces a leaf kernel strategy by name ("vec4" or "scalar").
// Unknown names keep the detected default.
func WithKernel(name string) Option {
	return func(tr *Traverser) {
		if k := kernelByName(name); k != nil {
			tr.leaf = k
		}
	}
}

// DetectKernel names the leaf kernel strategy picked for the current
// hardware.
func DetectKernel() string {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return "vec4"
	default:
		return "scalar"
	}
}

func kernelByName(name string) leafKernel {
	switch name {
	case "vec4":
		return vec4Kernel{}
	case "scalar":
		return scalarKernel{}
	}
	return nil
}

// New binds a traverser to an immutable scene.
func New(sc *scene.Scene, opts ...Option) *Traverser {
	tr := &Traverser{
		sc:    sc,
		geoms: make(map[uint32]Geometry),
		leaf:  kernelByName(DetectKernel()),
	}
	for _, opt := range opts {
		opt(tr)
	}
	for _, g := range tr.geoms {
		if g.Filter != nil {
			tr.hasFilters = true
		}
	}
	logger.Debugf("using %s leaf kernel, backface culling: %v\n", tr.leaf.name(), tr.cull)
	return tr
}

// The default strategy: bundle-wide tests across all lanes.
type vec4Kernel struct{}

func (vec4Kernel) name() string { return "vec4" }

func (vec4Kernel) intersectQuads(tr *Traverser, ray *Ray, q *scene.QuadBundle) bool {
	return tr.intersectQuadBundle(ray, q)
}

func (vec4Kernel) occludedQuads(tr *Traverser, ray *Ray, q *scene.QuadBundle) bool {
	return tr.occludedQuadBundle(ray, q)
}

func (vec4Kernel) intersectQuadsPacket(tr *Traverser, p *RayPacket, valid simd.Bool4, q *scene.QuadBundle) {
	tr.intersectQuadBundlePacket(p, valid, q)
}

func (vec4Kernel) occludedQuadsPacket(tr *Traverser, p *RayPacket, valid *simd.Bool4, q *scene.QuadBundle) {
	tr.occludedQuadBundlePacket(p, valid, q)
}
