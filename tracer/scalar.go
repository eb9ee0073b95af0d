package tracer

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/simd"
	"github.com/Mike-Leo-Smith/embree/types"
)

// The scalar kernel runs the same algebra as the vec4 kernel one primitive
// at a time. It is the reference strategy: slower, trivially auditable, and
// used by the tests to cross-check the lane-parallel path.
type scalarKernel struct{}

func (scalarKernel) name() string { return "scalar" }

// scalarTriHit mirrors quadHit for a single triangle.
type scalarTriHit struct {
	t, u, v float32
	ng      types.Vec3
}

func intersectTri1(ray *Ray, v0, v1, v2 types.Vec3, second, cull bool) (scalarTriHit, bool) {
	e1 := v0.Sub(v1)
	e2 := v2.Sub(v0)
	ng := e1.Cross(e2)

	c := v0.Sub(ray.Org)
	r := ray.Dir.Cross(c)
	den := ng.Dot(ray.Dir)
	absDen := math32.Abs(den)
	sgnDen := math.Float32bits(den) & 0x80000000

	xorSign := func(x float32) float32 {
		return math.Float32frombits(math.Float32bits(x) ^ sgnDen)
	}

	u := xorSign(r.Dot(e2))
	v := xorSign(r.Dot(e1))
	if cull {
		if den <= 0 {
			return scalarTriHit{}, false
		}
	} else if den == 0 {
		return scalarTriHit{}, false
	}
	if u < 0 || v < 0 || u+v > absDen {
		return scalarTriHit{}, false
	}

	t := xorSign(ng.Dot(c))
	if !(t > absDen*ray.TNear && t < absDen*ray.TFar) {
		return scalarTriHit{}, false
	}

	rcpAbsDen := 1 / absDen
	hit := scalarTriHit{t: t * rcpAbsDen, u: u * rcpAbsDen, v: v * rcpAbsDen, ng: ng}
	if second {
		hit.u = 1 - hit.u
		hit.v = 1 - hit.v
	}
	return hit, true
}

func (scalarKernel) intersectQuads(tr *Traverser, ray *Ray, q *scene.QuadBundle) bool {
	found := false
	for i := 0; i < scene.BundleSize; i++ {
		v0, v1, v2, v3 := q.V0.Lane(i), q.V1.Lane(i), q.V2.Lane(i), q.V3.Lane(i)
		for half := 0; half < 2; half++ {
			var th scalarTriHit
			var ok bool
			if half == 0 {
				th, ok = intersectTri1(ray, v0, v1, v3, false, tr.cull)
			} else {
				th, ok = intersectTri1(ray, v2, v3, v1, true, tr.cull)
			}
			if !ok {
				continue
			}
			hit := Hit{T: th.t, U: th.u, V: th.v, Ng: th.ng, GeomID: q.GeomIDs[i], PrimID: q.PrimIDs[i]}
			if !tr.accept(ray, &hit) {
				continue
			}
			ray.TFar = hit.T
			ray.Ng = hit.Ng
			ray.U = hit.U
			ray.V = hit.V
			ray.GeomID = hit.GeomID
			ray.PrimID = hit.PrimID
			found = true
		}
	}
	return found
}

func (scalarKernel) occludedQuads(tr *Traverser, ray *Ray, q *scene.QuadBundle) bool {
	for i := 0; i < scene.BundleSize; i++ {
		v0, v1, v2, v3 := q.V0.Lane(i), q.V1.Lane(i), q.V2.Lane(i), q.V3.Lane(i)
		for half := 0; half < 2; half++ {
			var th scalarTriHit
			var ok bool
			if half == 0 {
				th, ok = intersectTri1(ray, v0, v1, v3, false, tr.cull)
			} else {
				th, ok = intersectTri1(ray, v2, v3, v1, true, tr.cull)
			}
			if !ok {
				continue
			}
			hit := Hit{T: th.t, U: th.u, V: th.v, Ng: th.ng, GeomID: q.GeomIDs[i], PrimID: q.PrimIDs[i]}
			if tr.accept(ray, &hit) {
				return true
			}
		}
	}
	return false
}

func (k scalarKernel) intersectQuadsPacket(tr *Traverser, p *RayPacket, valid simd.Bool4, q *scene.QuadBundle) {
	for i := 0; i < PacketSize; i++ {
		if !valid[i] {
			continue
		}
		rv := p.Ray(i)
		if k.intersectQuads(tr, &rv, q) {
			p.SetRay(i, rv)
		}
	}
}

func (k scalarKernel) occludedQuadsPacket(tr *Traverser, p *RayPacket, valid *simd.Bool4, q *scene.QuadBundle) {
	for i := 0; i < PacketSize; i++ {
		if !valid[i] {
			continue
		}
		rv := p.Ray(i)
		if k.occludedQuads(tr, &rv, q) {
			valid.Clear(i)
		}
	}
}
