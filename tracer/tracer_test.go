package tracer

import (
	"math/rand"
	"testing"

	"github.com/Mike-Leo-Smith/embree/builder"
	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/types"
)

func buildScene(t *testing.T, quads []builder.Quad, curves []scene.CurveSegment) *scene.Scene {
	t.Helper()
	sc, err := builder.Build(quads, curves, builder.Options{})
	if err != nil {
		t.Fatalf("scene build failed: %v", err)
	}
	return sc
}

func singleTriangleScene(t *testing.T) *scene.Scene {
	return buildScene(t, []builder.Quad{
		builder.Triangle(
			types.Vec3{-1, -1, 0},
			types.Vec3{1, -1, 0},
			types.Vec3{0, 1, 0},
			1, 7,
		),
	}, nil)
}

func TestIntersectTriangle(t *testing.T) {
	tr := New(singleTriangleScene(t))

	ray := NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	tr.Intersect(&ray)

	if !ray.HasHit() {
		t.Fatal("expected a hit")
	}
	if ray.TFar != 5.0 {
		t.Fatalf("TFar = %v, want 5.0", ray.TFar)
	}
	if ray.GeomID != 1 || ray.PrimID != 7 {
		t.Fatalf("hit ids = (%d, %d), want (1, 7)", ray.GeomID, ray.PrimID)
	}
	if ray.Ng[0] != 0 || ray.Ng[1] != 0 || ray.Ng[2] == 0 {
		t.Fatalf("Ng = %v, want a z-aligned normal", ray.Ng)
	}

	shadow := NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	if !tr.Occluded(&shadow) {
		t.Fatal("expected occlusion")
	}
}

func TestMiss(t *testing.T) {
	tr := New(singleTriangleScene(t))

	ray := NewRay(types.Vec3{5, 5, -5}, types.Vec3{0, 0, 1})
	tr.Intersect(&ray)

	if ray.HasHit() {
		t.Fatalf("unexpected hit: %+v", ray)
	}
	if tr.Occluded(&ray) {
		t.Fatal("unexpected occlusion")
	}
}

func TestEmptyScene(t *testing.T) {
	tr := New(&scene.Scene{Root: scene.EmptyRef})

	ray := NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	before := ray
	tr.Intersect(&ray)

	if ray != before {
		t.Fatalf("empty scene modified the ray: %+v", ray)
	}
	if tr.Occluded(&ray) {
		t.Fatal("empty scene reported occlusion")
	}
}

func TestNearestHitWins(t *testing.T) {
	sc := buildScene(t, []builder.Quad{
		builder.Triangle(types.Vec3{-1, -1, 7}, types.Vec3{1, -1, 7}, types.Vec3{0, 1, 7}, 1, 0),
		builder.Triangle(types.Vec3{-1, -1, 3}, types.Vec3{1, -1, 3}, types.Vec3{0, 1, 3}, 1, 1),
	}, nil)
	tr := New(sc)

	ray := NewRay(types.Vec3{0, 0, 0}, types.Vec3{0, 0, 1})
	tr.Intersect(&ray)

	if ray.TFar != 3.0 || ray.PrimID != 1 {
		t.Fatalf("got t=%v prim=%d, want the nearer triangle at t=3", ray.TFar, ray.PrimID)
	}

	shadow := NewRay(types.Vec3{0, 0, 0}, types.Vec3{0, 0, 1})
	if !tr.Occluded(&shadow) {
		t.Fatal("expected occlusion")
	}
}

func TestRayInterval(t *testing.T) {
	tr := New(singleTriangleScene(t))

	// Hit lies at t=5; an interval that excludes it must miss.
	ray := NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	ray.TNear = 6
	tr.Intersect(&ray)
	if ray.HasHit() {
		t.Fatal("hit before TNear committed")
	}

	ray = NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	ray.TFar = 4
	tr.Intersect(&ray)
	if ray.HasHit() {
		t.Fatal("hit beyond TFar committed")
	}
	if tr.Occluded(&ray) {
		t.Fatal("occlusion beyond TFar")
	}
}

func TestBackfaceCulling(t *testing.T) {
	sc := singleTriangleScene(t)

	ray := NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	New(sc).Intersect(&ray)
	if !ray.HasHit() {
		t.Fatal("expected a hit without culling")
	}

	// The triangle winds counter-clockwise in xy, so a ray along +z sees
	// its back side.
	culled := NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	New(sc, WithBackfaceCulling()).Intersect(&culled)
	if culled.HasHit() {
		t.Fatal("backfacing hit committed with culling enabled")
	}

	// From the other side the same triangle is front-facing.
	front := NewRay(types.Vec3{0, 0, 5}, types.Vec3{0, 0, -1})
	New(sc, WithBackfaceCulling()).Intersect(&front)
	if !front.HasHit() {
		t.Fatal("frontfacing hit lost with culling enabled")
	}
}

func unitQuadScene(t *testing.T) *scene.Scene {
	return buildScene(t, []builder.Quad{{
		V0:     types.Vec3{0, 0, 0},
		V1:     types.Vec3{1, 0, 0},
		V2:     types.Vec3{1, 1, 0},
		V3:     types.Vec3{0, 1, 0},
		GeomID: 2, PrimID: 0,
	}}, nil)
}

func TestQuadUV(t *testing.T) {
	tr := New(unitQuadScene(t))

	// For this unit quad the UV parametrization coincides with the xy hit
	// coordinates, in both triangle halves.
	for _, p := range []types.Vec3{{0.25, 0.25, 0}, {0.75, 0.75, 0}, {0.1, 0.8, 0}, {0.9, 0.3, 0}} {
		ray := NewRay(types.Vec3{p[0], p[1], -5}, types.Vec3{0, 0, 1})
		tr.Intersect(&ray)
		if !ray.HasHit() {
			t.Fatalf("quad missed at %v", p)
		}
		if !near(ray.U, p[0]) || !near(ray.V, p[1]) {
			t.Fatalf("uv at %v = (%v, %v), want (%v, %v)", p, ray.U, ray.V, p[0], p[1])
		}
	}
}

func TestQuadSharedDiagonal(t *testing.T) {
	tr := New(unitQuadScene(t))

	// Rays crossing the shared diagonal must hit exactly one half, with a
	// consistent depth and normal orientation on both sides.
	for i := 0; i <= 16; i++ {
		f := float32(i) / 16
		ray := NewRay(types.Vec3{f, 1 - f, -5}, types.Vec3{0, 0, 1})
		tr.Intersect(&ray)
		if !ray.HasHit() {
			t.Fatalf("diagonal point %v missed", f)
		}
		if ray.TFar != 5.0 {
			t.Fatalf("diagonal point %v hit at t=%v, want 5.0", f, ray.TFar)
		}
		if ray.Ng[2] == 0 {
			t.Fatalf("degenerate normal on the diagonal: %v", ray.Ng)
		}
	}
}

func TestVisibilityMask(t *testing.T) {
	sc := singleTriangleScene(t)
	tr := New(sc, WithGeometry(1, Geometry{Mask: 0x2}))

	ray := NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	ray.Mask = 0x1
	tr.Intersect(&ray)
	if ray.HasHit() {
		t.Fatal("masked-out geometry was hit")
	}
	if tr.Occluded(&ray) {
		t.Fatal("masked-out geometry occluded")
	}

	ray = NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	ray.Mask = 0x3
	tr.Intersect(&ray)
	if !ray.HasHit() {
		t.Fatal("visible geometry was missed")
	}
}

// A zero ray mask hides even unregistered geometry, and every query form
// must agree on that.
func TestZeroMaskHidesUnregisteredGeometry(t *testing.T) {
	sc := singleTriangleScene(t)

	for _, kernel := range []string{"vec4", "scalar"} {
		tr := New(sc, WithKernel(kernel))

		ray := NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
		ray.Mask = 0
		shadow := ray

		tr.Intersect(&ray)
		if ray.HasHit() {
			t.Fatalf("%s: zero-mask ray hit geometry", kernel)
		}
		if tr.Occluded(&shadow) {
			t.Fatalf("%s: zero-mask ray was occluded", kernel)
		}
	}
}

func TestFilterRetriesNextHit(t *testing.T) {
	sc := buildScene(t, []builder.Quad{
		builder.Triangle(types.Vec3{-1, -1, 3}, types.Vec3{1, -1, 3}, types.Vec3{0, 1, 3}, 1, 0),
		builder.Triangle(types.Vec3{-1, -1, 7}, types.Vec3{1, -1, 7}, types.Vec3{0, 1, 7}, 2, 0),
	}, nil)

	// Reject everything on geometry 1; the query must fall through to the
	// farther triangle.
	tr := New(sc, WithGeometry(1, Geometry{
		Mask:   ^uint32(0),
		Filter: func(ray *Ray, hit *Hit) bool { return false },
	}))

	ray := NewRay(types.Vec3{0, 0, 0}, types.Vec3{0, 0, 1})
	tr.Intersect(&ray)
	if !ray.HasHit() || ray.GeomID != 2 || ray.TFar != 7.0 {
		t.Fatalf("got geom=%d t=%v, want geom=2 t=7", ray.GeomID, ray.TFar)
	}
}

func TestOcclusionFilter(t *testing.T) {
	sc := singleTriangleScene(t)
	rejected := 0
	tr := New(sc, WithGeometry(1, Geometry{
		Mask: ^uint32(0),
		Filter: func(ray *Ray, hit *Hit) bool {
			rejected++
			return false
		},
	}))

	ray := NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	if tr.Occluded(&ray) {
		t.Fatal("occlusion reported although the filter rejected every hit")
	}
	if rejected == 0 {
		t.Fatal("filter was never consulted")
	}
}

func TestFilterSeesCandidate(t *testing.T) {
	sc := singleTriangleScene(t)
	var seen Hit
	tr := New(sc, WithGeometry(1, Geometry{
		Mask: ^uint32(0),
		Filter: func(ray *Ray, hit *Hit) bool {
			seen = *hit
			return true
		},
	}))

	ray := NewRay(types.Vec3{0, 0, -5}, types.Vec3{0, 0, 1})
	ray.Time = 0.5
	tr.Intersect(&ray)

	if seen.T != 5.0 || seen.GeomID != 1 || seen.PrimID != 7 {
		t.Fatalf("filter saw %+v", seen)
	}
	if ray.Time != 0.5 {
		t.Fatal("ray time clobbered by the query")
	}
}

// A plane of quads plus a hair tuft, enough geometry for the builder to
// produce interior nodes of both kinds.
func mixedScene(t *testing.T) *scene.Scene {
	var quads []builder.Quad
	prim := uint32(0)
	for y := -2; y < 2; y++ {
		for x := -2; x < 2; x++ {
			fx, fy := float32(x), float32(y)
			quads = append(quads, builder.Quad{
				V0:     types.Vec3{fx, fy, 0},
				V1:     types.Vec3{fx + 1, fy, 0},
				V2:     types.Vec3{fx + 1, fy + 1, 0},
				V3:     types.Vec3{fx, fy + 1, 0},
				GeomID: 1, PrimID: prim,
			})
			prim++
		}
	}

	var curves []scene.CurveSegment
	for i := 0; i < 8; i++ {
		x := -1.8 + 0.5*float32(i)
		curves = append(curves, scene.CurveSegment{
			P0:     types.Vec4{x, -2, -1, 0.05},
			P1:     types.Vec4{x, -0.7, -1, 0.05},
			P2:     types.Vec4{x, 0.7, -1, 0.05},
			P3:     types.Vec4{x, 2, -1, 0.05},
			GeomID: 3,
			PrimID: uint32(i),
		})
	}
	return buildScene(t, quads, curves)
}

func TestOccludedAgreesWithIntersect(t *testing.T) {
	tr := New(mixedScene(t))
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		org := types.Vec3{rng.Float32()*8 - 4, rng.Float32()*8 - 4, -5}
		ray := NewRay(org, types.Vec3{0, 0, 1})
		shadow := ray

		tr.Intersect(&ray)
		if got := tr.Occluded(&shadow); got != ray.HasHit() {
			t.Fatalf("ray %d at %v: occluded=%v but hasHit=%v", i, org, got, ray.HasHit())
		}
	}
}

func TestKernelAgreement(t *testing.T) {
	sc := mixedScene(t)
	vec := New(sc, WithKernel("vec4"))
	sca := New(sc, WithKernel("scalar"))
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 500; i++ {
		org := types.Vec3{rng.Float32()*8 - 4, rng.Float32()*8 - 4, -5}
		dir := types.Vec3{rng.Float32()*0.4 - 0.2, rng.Float32()*0.4 - 0.2, 1}

		a := NewRay(org, dir)
		b := NewRay(org, dir)
		vec.Intersect(&a)
		sca.Intersect(&b)

		if a.HasHit() != b.HasHit() {
			t.Fatalf("ray %d: kernels disagree on hit existence", i)
		}
		if !a.HasHit() {
			continue
		}
		if a.GeomID != b.GeomID || a.PrimID != b.PrimID || !near(a.TFar, b.TFar) {
			t.Fatalf("ray %d: vec4 (%d,%d,%v) vs scalar (%d,%d,%v)",
				i, a.GeomID, a.PrimID, a.TFar, b.GeomID, b.PrimID, b.TFar)
		}
	}
}

func TestHairIntersect(t *testing.T) {
	curve := scene.CurveSegment{
		P0:     types.Vec4{-1, 0, 0, 0.1},
		P1:     types.Vec4{-0.3, 0, 0, 0.1},
		P2:     types.Vec4{0.3, 0, 0, 0.1},
		P3:     types.Vec4{1, 0, 0, 0.1},
		GeomID: 5,
		PrimID: 9,
	}
	tr := New(buildScene(t, nil, []scene.CurveSegment{curve}))

	ray := NewRay(types.Vec3{0.5, 0, -5}, types.Vec3{0, 0, 1})
	tr.Intersect(&ray)
	if !ray.HasHit() {
		t.Fatal("ray through the hair missed")
	}
	if ray.GeomID != 5 || ray.PrimID != 9 {
		t.Fatalf("hit ids = (%d, %d), want (5, 9)", ray.GeomID, ray.PrimID)
	}
	if ray.TFar < 4.5 || ray.TFar > 5.5 {
		t.Fatalf("hair hit at t=%v, want about 5", ray.TFar)
	}
	if ray.U < 0 || ray.U > 1 {
		t.Fatalf("curve parameter out of range: %v", ray.U)
	}
	if ray.V < -1 || ray.V > 1 {
		t.Fatalf("ribbon coordinate out of range: %v", ray.V)
	}
	// Ng carries the tangent, which runs along x for this curve.
	if ray.Ng[0] == 0 {
		t.Fatalf("tangent missing from Ng: %v", ray.Ng)
	}

	shadow := NewRay(types.Vec3{0.5, 0, -5}, types.Vec3{0, 0, 1})
	if !tr.Occluded(&shadow) {
		t.Fatal("hair does not occlude")
	}

	miss := NewRay(types.Vec3{0.5, 1, -5}, types.Vec3{0, 0, 1})
	tr.Intersect(&miss)
	if miss.HasHit() {
		t.Fatal("ray far from the hair hit it")
	}
}

func near(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-4
}
