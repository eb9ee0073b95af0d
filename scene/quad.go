package scene

import (
	"github.com/Mike-Leo-Smith/embree/simd"
	"github.com/Mike-Leo-Smith/embree/types"
)

// Number of quads stored per bundle.
const BundleSize = simd.Width

// A QuadBundle packs up to BundleSize quads with their vertices spread
// across lanes, so the intersection test runs against all of them at once.
// A quad covers the two triangles (V0,V1,V3) and (V2,V3,V1) sharing the
// V1-V3 diagonal. Triangles are stored as quads with the last vertex
// repeated; the degenerate second half has zero area and never produces a
// valid hit.
//
// Builders pad unused slots with a copy of the last quad, so every lane of a
// bundle carries real geometry and no per-lane validity test is needed on
// the hot path.
type QuadBundle struct {
	V0, V1, V2, V3 simd.Vec3x4

	GeomIDs [BundleSize]uint32
	PrimIDs [BundleSize]uint32
}

// Set stores a quad into slot i.
func (q *QuadBundle) Set(i int, v0, v1, v2, v3 types.Vec3, geomID, primID uint32) {
	q.V0.SetLane(i, v0)
	q.V1.SetLane(i, v1)
	q.V2.SetLane(i, v2)
	q.V3.SetLane(i, v3)
	q.GeomIDs[i] = geomID
	q.PrimIDs[i] = primID
}

// SetTriangle stores a triangle into slot i by repeating its last vertex.
func (q *QuadBundle) SetTriangle(i int, v0, v1, v2 types.Vec3, geomID, primID uint32) {
	q.Set(i, v0, v1, v2, v2, geomID, primID)
}

// Pad fills slots from onward with copies of the slot before it.
func (q *QuadBundle) Pad(from int) {
	if from == 0 {
		return
	}
	for i := from; i < BundleSize; i++ {
		q.Set(i, q.V0.Lane(from-1), q.V1.Lane(from-1), q.V2.Lane(from-1), q.V3.Lane(from-1),
			q.GeomIDs[from-1], q.PrimIDs[from-1])
	}
}

// Bounds returns the world bounds of every quad in the bundle.
func (q *QuadBundle) Bounds() (min, max types.Vec3) {
	min = q.V0.Lane(0)
	max = min
	for i := 0; i < BundleSize; i++ {
		for _, v := range [4]types.Vec3{q.V0.Lane(i), q.V1.Lane(i), q.V2.Lane(i), q.V3.Lane(i)} {
			min = types.MinVec3(min, v)
			max = types.MaxVec3(max, v)
		}
	}
	return min, max
}
