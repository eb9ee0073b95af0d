// Package tracer implements the traversal and intersection core: nearest-hit
// and occlusion queries for single rays, four-wide ray packets and ray
// streams against the scene package's bounding-volume hierarchy.
package tracer

import (
	"github.com/chewxy/math32"

	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/simd"
	"github.com/Mike-Leo-Smith/embree/types"
)

// A Ray carries the query interval and receives the hit record. Queries only
// ever narrow TFar and overwrite the hit fields; the caller owns the value.
// TNear <= TFar must hold on entry. GeomID == scene.InvalidID marks "no hit".
type Ray struct {
	Org types.Vec3
	Dir types.Vec3

	TNear float32
	TFar  float32

	// Motion blur sample time, forwarded to filters. The hierarchy itself
	// is static.
	Time float32

	// Visibility mask; a geometry is visible when the AND of the two masks
	// is non-zero.
	Mask uint32

	// Hit record.
	Ng     types.Vec3
	U, V   float32
	GeomID uint32
	PrimID uint32
}

// NewRay builds an unbounded ray with an empty hit record.
func NewRay(org, dir types.Vec3) Ray {
	return Ray{
		Org:    org,
		Dir:    dir,
		TFar:   math32.Inf(1),
		Mask:   ^uint32(0),
		GeomID: scene.InvalidID,
		PrimID: scene.InvalidID,
	}
}

// HasHit reports whether a hit has been committed.
func (r *Ray) HasHit() bool {
	return r.GeomID != scene.InvalidID
}

// A Hit is the candidate handed to acceptance filters before it is committed
// into the ray.
type Hit struct {
	T    float32
	U, V float32
	Ng   types.Vec3

	GeomID uint32
	PrimID uint32
}

// A Filter decides whether a candidate hit counts. Returning false discards
// the candidate and the query keeps looking. The ray still holds the
// previously committed hit when the filter runs.
type Filter func(ray *Ray, hit *Hit) bool

// Number of rays in a packet.
const PacketSize = simd.Width

// A RayPacket is a fixed-size ordered collection of independent ray states
// stored lane-per-ray, plus one shared active-lane mask. Lanes never alias
// each other's state; the mask only exists to skip work for rays that are
// done.
type RayPacket struct {
	OrgX, OrgY, OrgZ simd.Float4
	DirX, DirY, DirZ simd.Float4

	TNear simd.Float4
	TFar  simd.Float4
	Time  simd.Float4
	Mask  [PacketSize]uint32

	NgX, NgY, NgZ simd.Float4
	U, V          simd.Float4
	GeomID        [PacketSize]uint32
	PrimID        [PacketSize]uint32

	// Lanes eligible for traversal.
	Active simd.Bool4
}

// SetRay scatters r into lane i and activates it.
func (p *RayPacket) SetRay(i int, r Ray) {
	p.OrgX[i], p.OrgY[i], p.OrgZ[i] = r.Org[0], r.Org[1], r.Org[2]
	p.DirX[i], p.DirY[i], p.DirZ[i] = r.Dir[0], r.Dir[1], r.Dir[2]
	p.TNear[i] = r.TNear
	p.TFar[i] = r.TFar
	p.Time[i] = r.Time
	p.Mask[i] = r.Mask
	p.NgX[i], p.NgY[i], p.NgZ[i] = r.Ng[0], r.Ng[1], r.Ng[2]
	p.U[i], p.V[i] = r.U, r.V
	p.GeomID[i] = r.GeomID
	p.PrimID[i] = r.PrimID
	p.Active[i] = true
}

// Ray gathers lane i back into a Ray value.
func (p *RayPacket) Ray(i int) Ray {
	return Ray{
		Org:    types.Vec3{p.OrgX[i], p.OrgY[i], p.OrgZ[i]},
		Dir:    types.Vec3{p.DirX[i], p.DirY[i], p.DirZ[i]},
		TNear:  p.TNear[i],
		TFar:   p.TFar[i],
		Time:   p.Time[i],
		Mask:   p.Mask[i],
		Ng:     types.Vec3{p.NgX[i], p.NgY[i], p.NgZ[i]},
		U:      p.U[i],
		V:      p.V[i],
		GeomID: p.GeomID[i],
		PrimID: p.PrimID[i],
	}
}

// maxActiveTFar returns the largest far bound among active lanes; node
// visits whose near distance exceed it cannot improve any lane.
func (p *RayPacket) maxActiveTFar() float32 {
	out := math32.Inf(-1)
	for i := 0; i < PacketSize; i++ {
		if p.Active[i] && p.TFar[i] > out {
			out = p.TFar[i]
		}
	}
	return out
}
