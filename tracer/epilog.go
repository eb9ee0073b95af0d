package tracer

import (
	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/simd"
)

// The epilogues take the validity mask and raw hit parameters produced by an
// intersection test, finalize the user-visible attributes, run the
// per-geometry visibility mask and acceptance filter, and commit into the
// ray.

// commitNearest commits the globally nearest accepted lane and narrows
// ray.TFar. Filter-rejected lanes are cleared and the next nearest lane is
// tried.
func (tr *Traverser) commitNearest(ray *Ray, valid simd.Bool4, h *quadHit, q *scene.QuadBundle) bool {
	t, u, v := h.finalize()
	for {
		lane, ok := simd.SelectMin(valid, t)
		if !ok {
			return false
		}

		hit := Hit{
			T:      t[lane],
			U:      u[lane],
			V:      v[lane],
			Ng:     h.ng.Lane(lane),
			GeomID: q.GeomIDs[lane],
			PrimID: q.PrimIDs[lane],
		}
		if !tr.accept(ray, &hit) {
			valid.Clear(lane)
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

// anyAccepted reports whether any valid lane passes the mask and filter.
// Which of several simultaneously valid lanes is examined first is
// unspecified; occlusion only needs existence.
func (tr *Traverser) anyAccepted(ray *Ray, valid simd.Bool4, h *quadHit, q *scene.QuadBundle) bool {
	// Without filters the mask test is the only thing that can reject.
	if !tr.hasFilters {
		for i := 0; i < simd.Width; i++ {
			if valid[i] && tr.geomMask(q.GeomIDs[i])&ray.Mask != 0 {
				return true
			}
		}
		return false
	}

	t, u, v := h.finalize()
	for i := 0; i < simd.Width; i++ {
		if !valid[i] {
			continue
		}
		hit := Hit{
			T:      t[i],
			U:      u[i],
			V:      v[i],
			Ng:     h.ng.Lane(i),
			GeomID: q.GeomIDs[i],
			PrimID: q.PrimIDs[i],
		}
		if tr.accept(ray, &hit) {
			return true
		}
	}
	return false
}

// accept applies the visibility mask and the optional per-geometry filter.
// Unregistered geometries carry the fully visible default mask.
func (tr *Traverser) accept(ray *Ray, hit *Hit) bool {
	g, ok := tr.geoms[hit.GeomID]
	if !ok {
		g.Mask = ^uint32(0)
	}
	if g.Mask&ray.Mask == 0 {
		return false
	}
	if g.Filter != nil && !g.Filter(ray, hit) {
		return false
	}
	return true
}

// geomMask returns the visibility mask registered for a geometry, defaulting
// to fully visible.
func (tr *Traverser) geomMask(geomID uint32) uint32 {
	if g, ok := tr.geoms[geomID]; ok {
		return g.Mask
	}
	return ^uint32(0)
}
