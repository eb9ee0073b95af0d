package tracer

import (
	"github.com/chewxy/math32"

	"github.com/Mike-Leo-Smith/embree/scene"
)

// Number of line segments each hair curve is flattened into for the
// closest-approach test.
const hairSegments = 8

// curveCandidate is one potential hit along the flattened curve.
type curveCandidate struct {
	t, u, v float32
	ok      bool
}

// gatherCurveCandidates transforms the curve into the ray-local frame (the
// ray runs along +Z there) and reduces the test to a 2D distance-from-axis
// comparison against the locally interpolated radius. The frame transform
// is applied per candidate curve; unlike the aligned path there is no shared
// precomputation across siblings, which is what makes hair leaves more
// expensive.
func gatherCurveCandidates(tray *travRay, ray *Ray, c *scene.CurveSegment, out *[hairSegments]curveCandidate) bool {
	local := scene.CurveSegment{
		P0: tray.space.XfmVec(c.P0.Vec3().Sub(ray.Org)).Vec4(c.P0[3]),
		P1: tray.space.XfmVec(c.P1.Vec3().Sub(ray.Org)).Vec4(c.P1[3]),
		P2: tray.space.XfmVec(c.P2.Vec3().Sub(ray.Org)).Vec4(c.P2[3]),
		P3: tray.space.XfmVec(c.P3.Vec3().Sub(ray.Org)).Vec4(c.P3[3]),
	}

	var px, py, pz, pr [hairSegments + 1]float32
	for i := 0; i <= hairSegments; i++ {
		p, r := local.Eval(float32(i) / hairSegments)
		px[i], py[i], pz[i], pr[i] = p[0], p[1], p[2], r
	}

	any := false
	for i := 0; i < hairSegments; i++ {
		out[i].ok = false

		dx, dy, dz := px[i+1]-px[i], py[i+1]-py[i], pz[i+1]-pz[i]
		dd := dx*dx + dy*dy
		if dd == 0 {
			continue
		}

		// Parameter of the closest approach of the segment to the Z axis,
		// clamped into the segment's domain.
		s := -(px[i]*dx + py[i]*dy) / dd
		if s < 0 {
			s = 0
		} else if s > 1 {
			s = 1
		}

		cx := px[i] + s*dx
		cy := py[i] + s*dy
		d2 := cx*cx + cy*cy
		r := pr[i] + s*(pr[i+1]-pr[i])
		if d2 > r*r {
			continue
		}

		t := (pz[i] + s*dz) * tray.depthScale
		if !(t > ray.TNear && t < ray.TFar) {
			continue
		}

		// Signed ribbon coordinate: which side of the curve the ray passes.
		v := math32.Sqrt(d2) / r
		if dx*cy-dy*cx < 0 {
			v = -v
		}

		out[i] = curveCandidate{t: t, u: (float32(i) + s) / hairSegments, v: v, ok: true}
		any = true
	}
	return any
}

// curveHit finalizes a candidate. Ng carries the curve tangent at the hit;
// shading derives the facing normal from it.
func curveHit(cand *curveCandidate, c *scene.CurveSegment) Hit {
	return Hit{
		T:      cand.t,
		U:      cand.u,
		V:      cand.v,
		Ng:     c.EvalDeriv(cand.u),
		GeomID: c.GeomID,
		PrimID: c.PrimID,
	}
}

// intersectCurve commits the nearest accepted candidate along the curve.
func (tr *Traverser) intersectCurve(tray *travRay, ray *Ray, c *scene.CurveSegment) bool {
	var cands [hairSegments]curveCandidate
	if !gatherCurveCandidates(tray, ray, c, &cands) {
		return false
	}

	for {
		best := -1
		bestT := math32.Inf(1)
		for i := range cands {
			if cands[i].ok && cands[i].t < bestT {
				bestT = cands[i].t
				best = i
			}
		}
		if best < 0 {
			return false
		}

		hit := curveHit(&cands[best], c)
		if !tr.accept(ray, &hit) {
			cands[best].ok = false
			continue
		}

		ray.TFar = hit.T
		ray.Ng = hit.Ng
		ray.U = hit.U
		ray.V = hit.V
		ray.GeomID = hit.GeomID
		ray.PrimID = hit.PrimID
		return true
	}
}

// occludedCurve stops at the first accepted candidate, in no particular
// order along the curve.
func (tr *Traverser) occludedCurve(tray *travRay, ray *Ray, c *scene.CurveSegment) bool {
	var cands [hairSegments]curveCandidate
	if !gatherCurveCandidates(tray, ray, c, &cands) {
		return false
	}
	for i := range cands {
		if !cands[i].ok {
			continue
		}
		hit := curveHit(&cands[i], c)
		if tr.accept(ray, &hit) {
			return true
		}
	}
	return false
}
