package tracer

import (
	"github.com/chewxy/math32"

	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/simd"
	"github.com/Mike-Leo-Smith/embree/types"
)

// travRay caches the per-query values the node tests need: the reciprocal
// direction for slab tests and the ray-local orthonormal frame used by the
// hair intersector. Built once per traversal call.
type travRay struct {
	org, dir types.Vec3
	rdir     types.Vec3

	// Slab plane selection per axis: true picks the max plane as the near
	// plane (negative direction component).
	negDir [3]bool

	// Rows transform a world vector into ray space; the ray direction maps
	// to +Z scaled by 1/depthScale.
	space      types.LinSpace3
	depthScale float32
}

func newTravRay(org, dir types.Vec3) travRay {
	t := travRay{
		org:  org,
		dir:  dir,
		rdir: types.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]},
	}
	t.negDir[0] = dir[0] < 0
	t.negDir[1] = dir[1] < 0
	t.negDir[2] = dir[2] < 0

	dirLen := dir.Len()
	if dirLen > 0 {
		t.depthScale = 1 / dirLen
		t.space = types.FrameFromUnitZ(dir.Mul(t.depthScale))
	} else {
		t.depthScale = 0
		t.space = types.LinSpaceIdent()
	}
	return t
}

// intersectAligned tests the ray against the four child boxes of an aligned
// node at once. The near/far plane per axis is picked from the direction
// sign, so unpopulated children (inverted bounds) can never report a hit.
func (t *travRay) intersectAligned(n *scene.AlignedNode, tnear, tfar float32) (simd.Bool4, simd.Float4, simd.Float4) {
	nearX, farX := n.MinX, n.MaxX
	if t.negDir[0] {
		nearX, farX = farX, nearX
	}
	nearY, farY := n.MinY, n.MaxY
	if t.negDir[1] {
		nearY, farY = farY, nearY
	}
	nearZ, farZ := n.MinZ, n.MaxZ
	if t.negDir[2] {
		nearZ, farZ = farZ, nearZ
	}

	tNearX := nearX.Sub(simd.SplatF(t.org[0])).Scale(t.rdir[0])
	tNearY := nearY.Sub(simd.SplatF(t.org[1])).Scale(t.rdir[1])
	tNearZ := nearZ.Sub(simd.SplatF(t.org[2])).Scale(t.rdir[2])
	tFarX := farX.Sub(simd.SplatF(t.org[0])).Scale(t.rdir[0])
	tFarY := farY.Sub(simd.SplatF(t.org[1])).Scale(t.rdir[1])
	tFarZ := farZ.Sub(simd.SplatF(t.org[2])).Scale(t.rdir[2])

	tN := tNearX.Max(tNearY).Max(tNearZ).Max(simd.SplatF(tnear))
	tF := tFarX.Min(tFarY).Min(tFarZ).Min(simd.SplatF(tfar))
	return tN.Le(tF), tN, tF
}

// intersectUnaligned transforms the ray into each child's local frame and
// slabs it against the unit box. The four transforms are applied in one pass
// across lanes.
func (t *travRay) intersectUnaligned(n *scene.UnalignedNode, tnear, tfar float32) (simd.Bool4, simd.Float4, simd.Float4) {
	ox, oy, oz := simd.SplatF(t.org[0]), simd.SplatF(t.org[1]), simd.SplatF(t.org[2])
	dx, dy, dz := simd.SplatF(t.dir[0]), simd.SplatF(t.dir[1]), simd.SplatF(t.dir[2])

	lorgX := n.RxX.Mul(ox).Add(n.RxY.Mul(oy)).Add(n.RxZ.Mul(oz)).Add(n.TX)
	lorgY := n.RyX.Mul(ox).Add(n.RyY.Mul(oy)).Add(n.RyZ.Mul(oz)).Add(n.TY)
	lorgZ := n.RzX.Mul(ox).Add(n.RzY.Mul(oy)).Add(n.RzZ.Mul(oz)).Add(n.TZ)
	ldirX := n.RxX.Mul(dx).Add(n.RxY.Mul(dy)).Add(n.RxZ.Mul(dz))
	ldirY := n.RyX.Mul(dx).Add(n.RyY.Mul(dy)).Add(n.RyZ.Mul(dz))
	ldirZ := n.RzX.Mul(dx).Add(n.RzY.Mul(dy)).Add(n.RzZ.Mul(dz))

	rdirX, rdirY, rdirZ := ldirX.Rcp(), ldirY.Rcp(), ldirZ.Rcp()

	zero := simd.Float4{}
	one := simd.SplatF(1)
	loX := zero.Sub(lorgX).Mul(rdirX)
	hiX := one.Sub(lorgX).Mul(rdirX)
	loY := zero.Sub(lorgY).Mul(rdirY)
	hiY := one.Sub(lorgY).Mul(rdirY)
	loZ := zero.Sub(lorgZ).Mul(rdirZ)
	hiZ := one.Sub(lorgZ).Mul(rdirZ)

	tN := loX.Min(hiX).Max(loY.Min(hiY)).Max(loZ.Min(hiZ)).Max(simd.SplatF(tnear))
	tF := loX.Max(hiX).Min(loY.Max(hiY)).Min(loZ.Max(hiZ)).Min(simd.SplatF(tfar))
	return tN.Le(tF), tN, tF
}

// packetRay caches the packet-wide reciprocal directions.
type packetRay struct {
	rdirX, rdirY, rdirZ simd.Float4
}

func newPacketRay(p *RayPacket) packetRay {
	return packetRay{
		rdirX: p.DirX.Rcp(),
		rdirY: p.DirY.Rcp(),
		rdirZ: p.DirZ.Rcp(),
	}
}

// intersectAlignedChild tests all packet lanes against one child box of an
// aligned node. Returns the lane mask and per-lane entry distance.
func (pr *packetRay) intersectAlignedChild(p *RayPacket, n *scene.AlignedNode, c int, active simd.Bool4) (simd.Bool4, simd.Float4) {
	loX := simd.SplatF(n.MinX[c]).Sub(p.OrgX).Mul(pr.rdirX)
	hiX := simd.SplatF(n.MaxX[c]).Sub(p.OrgX).Mul(pr.rdirX)
	loY := simd.SplatF(n.MinY[c]).Sub(p.OrgY).Mul(pr.rdirY)
	hiY := simd.SplatF(n.MaxY[c]).Sub(p.OrgY).Mul(pr.rdirY)
	loZ := simd.SplatF(n.MinZ[c]).Sub(p.OrgZ).Mul(pr.rdirZ)
	hiZ := simd.SplatF(n.MaxZ[c]).Sub(p.OrgZ).Mul(pr.rdirZ)

	tN := loX.Min(hiX).Max(loY.Min(hiY)).Max(loZ.Min(hiZ)).Max(p.TNear)
	tF := loX.Max(hiX).Min(loY.Max(hiY)).Min(loZ.Max(hiZ)).Min(p.TFar)
	return active.And(tN.Le(tF)), tN
}

// intersectUnalignedChild tests all packet lanes against one child of an
// oriented node by broadcasting that child's transform across the lanes.
func intersectUnalignedChild(p *RayPacket, n *scene.UnalignedNode, c int, active simd.Bool4) (simd.Bool4, simd.Float4) {
	rx := types.Vec3{n.RxX[c], n.RxY[c], n.RxZ[c]}
	ry := types.Vec3{n.RyX[c], n.RyY[c], n.RyZ[c]}
	rz := types.Vec3{n.RzX[c], n.RzY[c], n.RzZ[c]}

	lorgX := p.OrgX.Scale(rx[0]).Add(p.OrgY.Scale(rx[1])).Add(p.OrgZ.Scale(rx[2])).Add(simd.SplatF(n.TX[c]))
	lorgY := p.OrgX.Scale(ry[0]).Add(p.OrgY.Scale(ry[1])).Add(p.OrgZ.Scale(ry[2])).Add(simd.SplatF(n.TY[c]))
	lorgZ := p.OrgX.Scale(rz[0]).Add(p.OrgY.Scale(rz[1])).Add(p.OrgZ.Scale(rz[2])).Add(simd.SplatF(n.TZ[c]))
	ldirX := p.DirX.Scale(rx[0]).Add(p.DirY.Scale(rx[1])).Add(p.DirZ.Scale(rx[2]))
	ldirY := p.DirX.Scale(ry[0]).Add(p.DirY.Scale(ry[1])).Add(p.DirZ.Scale(ry[2]))
	ldirZ := p.DirX.Scale(rz[0]).Add(p.DirY.Scale(rz[1])).Add(p.DirZ.Scale(rz[2]))

	rdirX, rdirY, rdirZ := ldirX.Rcp(), ldirY.Rcp(), ldirZ.Rcp()

	zero := simd.Float4{}
	one := simd.SplatF(1)
	loX := zero.Sub(lorgX).Mul(rdirX)
	hiX := one.Sub(lorgX).Mul(rdirX)
	loY := zero.Sub(lorgY).Mul(rdirY)
	hiY := one.Sub(lorgY).Mul(rdirY)
	loZ := zero.Sub(lorgZ).Mul(rdirZ)
	hiZ := one.Sub(lorgZ).Mul(rdirZ)

	tN := loX.Min(hiX).Max(loY.Min(hiY)).Max(loZ.Min(hiZ)).Max(p.TNear)
	tF := loX.Max(hiX).Min(loY.Max(hiY)).Min(loZ.Max(hiZ)).Min(p.TFar)
	return active.And(tN.Le(tF)), tN
}

// minActive returns the smallest value among set lanes.
func minActive(m simd.Bool4, t simd.Float4) float32 {
	out := math32.Inf(1)
	for i := 0; i < simd.Width; i++ {
		if m[i] && t[i] < out {
			out = t[i]
		}
	}
	return out
}
