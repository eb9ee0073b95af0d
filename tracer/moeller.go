package tracer

import (
	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/simd"
)

// This file implements the modified Moeller-Trumbore test. All numerators
// (U, V, T) carry the sign of the denominator transferred onto them, so the
// edge and depth tests run on undivided values scaled by |den|; the single
// reciprocal is deferred to quadHit.finalize and only paid for batches with
// at least one surviving lane.

// quadHit is the ephemeral result of one bundle test. It lives only until
// the epilogue consumes it.
type quadHit struct {
	u, v, t simd.Float4
	absDen  simd.Float4
	ng      simd.Vec3x4

	// Set for the second triangle of each quad pair; finalize remaps its
	// barycentrics into quad UV space.
	second bool
}

// finalize recovers true distances and quad UVs for the surviving lanes.
func (h *quadHit) finalize() (t, u, v simd.Float4) {
	rcpAbsDen := h.absDen.Rcp()
	t = h.t.Mul(rcpAbsDen)
	u = h.u.Mul(rcpAbsDen)
	v = h.v.Mul(rcpAbsDen)
	if h.second {
		one := simd.SplatF(1)
		u = one.Sub(u)
		v = one.Sub(v)
	}
	return t, u, v
}

// intersectTriM runs the test between one ray and the M triangles spread
// across the lanes of v0/v1/v2. Returns the surviving lane mask; ok is false
// when every lane failed before the division point.
func intersectTriM(ray *Ray, v0, v1, v2 simd.Vec3x4, second, cull bool) (simd.Bool4, quadHit, bool) {
	o := simd.SplatV(ray.Org)
	d := simd.SplatV(ray.Dir)

	e1 := v0.Sub(v1)
	e2 := v2.Sub(v0)
	ng := e1.Cross(e2)

	c := v0.Sub(o)
	r := d.Cross(c)
	den := ng.Dot(d)
	absDen := den.Abs()
	sgnDen := den.SignMask()

	u := r.Dot(e2).XorSign(sgnDen)
	v := r.Dot(e1).XorSign(sgnDen)

	zero := simd.Float4{}
	var valid simd.Bool4
	if cull {
		valid = den.Gt(zero)
	} else {
		valid = den.Ne(zero)
	}
	valid = valid.And(u.Ge(zero)).And(v.Ge(zero)).And(u.Add(v).Le(absDen))
	if valid.None() {
		return valid, quadHit{}, false
	}

	t := ng.Dot(c).XorSign(sgnDen)
	valid = valid.And(t.Gt(absDen.Scale(ray.TNear))).And(t.Lt(absDen.Scale(ray.TFar)))
	if valid.None() {
		return valid, quadHit{}, false
	}

	return valid, quadHit{u: u, v: v, t: t, absDen: absDen, ng: ng, second: second}, true
}

// intersectQuadBundle tests both triangle halves of every quad in the bundle
// and feeds survivors to the intersect epilogue. Reports whether any hit was
// committed.
func (tr *Traverser) intersectQuadBundle(ray *Ray, q *scene.QuadBundle) bool {
	found := false
	if valid, hit, ok := intersectTriM(ray, q.V0, q.V1, q.V3, false, tr.cull); ok {
		found = tr.commitNearest(ray, valid, &hit, q)
	}
	if valid, hit, ok := intersectTriM(ray, q.V2, q.V3, q.V1, true, tr.cull); ok {
		found = tr.commitNearest(ray, valid, &hit, q) || found
	}
	return found
}

// occludedQuadBundle stops at the first accepted hit in the bundle.
func (tr *Traverser) occludedQuadBundle(ray *Ray, q *scene.QuadBundle) bool {
	if valid, hit, ok := intersectTriM(ray, q.V0, q.V1, q.V3, false, tr.cull); ok {
		if tr.anyAccepted(ray, valid, &hit, q) {
			return true
		}
	}
	if valid, hit, ok := intersectTriM(ray, q.V2, q.V3, q.V1, true, tr.cull); ok {
		if tr.anyAccepted(ray, valid, &hit, q) {
			return true
		}
	}
	return false
}
