package tracer

import (
	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/simd"
)

// Packet traversal shares node visits across the lanes: every node box is
// tested against all rays of the packet in one pass, and a subtree is
// entered while any lane can still reach it. Each lane keeps its own TFar
// and hit record; the only cross-lane coupling is skipping work for lanes
// that are done.

// intersectTriK tests one triangle against every packet lane at once.
func intersectTriK(p *RayPacket, valid0 simd.Bool4, v0, v1, v2 simd.Vec3x4, second, cull bool) (simd.Bool4, quadHit, bool) {
	org := simd.Vec3x4{X: p.OrgX, Y: p.OrgY, Z: p.OrgZ}
	dir := simd.Vec3x4{X: p.DirX, Y: p.DirY, Z: p.DirZ}

	e1 := v0.Sub(v1)
	e2 := v2.Sub(v0)
	ng := e1.Cross(e2)

	c := v0.Sub(org)
	r := dir.Cross(c)
	den := ng.Dot(dir)
	absDen := den.Abs()
	sgnDen := den.SignMask()

	zero := simd.Float4{}
	valid := valid0

	u := r.Dot(e2).XorSign(sgnDen)
	valid = valid.And(u.Ge(zero))
	if valid.None() {
		return valid, quadHit{}, false
	}

	v := r.Dot(e1).XorSign(sgnDen)
	valid = valid.And(v.Ge(zero))
	if valid.None() {
		return valid, quadHit{}, false
	}

	w := absDen.Sub(u).Sub(v)
	valid = valid.And(w.Ge(zero))
	if valid.None() {
		return valid, quadHit{}, false
	}

	t := ng.Dot(c).XorSign(sgnDen)
	valid = valid.And(t.Ge(absDen.Mul(p.TNear))).And(absDen.Mul(p.TFar).Ge(t))
	if valid.None() {
		return valid, quadHit{}, false
	}

	if cull {
		valid = valid.And(den.Gt(zero))
	} else {
		valid = valid.And(den.Ne(zero))
	}
	if valid.None() {
		return valid, quadHit{}, false
	}

	return valid, quadHit{u: u, v: v, t: t, absDen: absDen, ng: ng, second: second}, true
}

// intersectQuadBundlePacket tests every quad of the bundle against the
// packet, committing per-lane nearest hits.
func (tr *Traverser) intersectQuadBundlePacket(p *RayPacket, valid simd.Bool4, q *scene.QuadBundle) {
	for slot := 0; slot < scene.BundleSize; slot++ {
		v0 := simd.SplatV(q.V0.Lane(slot))
		v1 := simd.SplatV(q.V1.Lane(slot))
		v2 := simd.SplatV(q.V2.Lane(slot))
		v3 := simd.SplatV(q.V3.Lane(slot))

		if m, hit, ok := intersectTriK(p, valid, v0, v1, v3, false, tr.cull); ok {
			tr.commitPacketLanes(p, m, &hit, q.GeomIDs[slot], q.PrimIDs[slot])
		}
		if m, hit, ok := intersectTriK(p, valid, v2, v3, v1, true, tr.cull); ok {
			tr.commitPacketLanes(p, m, &hit, q.GeomIDs[slot], q.PrimIDs[slot])
		}
	}
}

// commitPacketLanes updates each valid lane whose candidate beats its
// current TFar.
func (tr *Traverser) commitPacketLanes(p *RayPacket, valid simd.Bool4, h *quadHit, geomID, primID uint32) {
	t, u, v := h.finalize()
	for i := 0; i < PacketSize; i++ {
		if !valid[i] || t[i] >= p.TFar[i] {
			continue
		}
		hit := Hit{T: t[i], U: u[i], V: v[i], Ng: h.ng.Lane(i), GeomID: geomID, PrimID: primID}
		rv := p.Ray(i)
		if !tr.accept(&rv, &hit) {
			continue
		}
		p.TFar[i] = hit.T
		p.NgX[i], p.NgY[i], p.NgZ[i] = hit.Ng[0], hit.Ng[1], hit.Ng[2]
		p.U[i], p.V[i] = hit.U, hit.V
		p.GeomID[i] = hit.GeomID
		p.PrimID[i] = hit.PrimID
	}
}

// occludedQuadBundlePacket clears lanes that are proven occluded from valid.
func (tr *Traverser) occludedQuadBundlePacket(p *RayPacket, valid *simd.Bool4, q *scene.QuadBundle) {
	for slot := 0; slot < scene.BundleSize; slot++ {
		v0 := simd.SplatV(q.V0.Lane(slot))
		v1 := simd.SplatV(q.V1.Lane(slot))
		v2 := simd.SplatV(q.V2.Lane(slot))
		v3 := simd.SplatV(q.V3.Lane(slot))

		if m, hit, ok := intersectTriK(p, *valid, v0, v1, v3, false, tr.cull); ok {
			tr.occludePacketLanes(p, valid, m, &hit, q.GeomIDs[slot], q.PrimIDs[slot])
		}
		if valid.None() {
			return
		}
		if m, hit, ok := intersectTriK(p, *valid, v2, v3, v1, true, tr.cull); ok {
			tr.occludePacketLanes(p, valid, m, &hit, q.GeomIDs[slot], q.PrimIDs[slot])
		}
		if valid.None() {
			return
		}
	}
}

func (tr *Traverser) occludePacketLanes(p *RayPacket, valid *simd.Bool4, m simd.Bool4, h *quadHit, geomID, primID uint32) {
	if !tr.hasFilters {
		for i := 0; i < PacketSize; i++ {
			if m[i] && tr.geomMask(geomID)&p.Mask[i] != 0 {
				valid.Clear(i)
			}
		}
		return
	}

	t, u, v := h.finalize()
	for i := 0; i < PacketSize; i++ {
		if !m[i] {
			continue
		}
		hit := Hit{T: t[i], U: u[i], V: v[i], Ng: h.ng.Lane(i), GeomID: geomID, PrimID: primID}
		rv := p.Ray(i)
		if tr.accept(&rv, &hit) {
			valid.Clear(i)
		}
	}
}

// IntersectPacket updates every active lane of the packet with its nearest
// accepted hit.
func (tr *Traverser) IntersectPacket(p *RayPacket) {
	if p.Active.None() {
		return
	}
	pr := newPacketRay(p)

	var stack [stackSize]stackItem
	stack[0] = stackItem{ref: tr.sc.Root, tNear: minActive(p.Active, p.TNear)}
	sp := 1

pop:
	for sp > 0 {
		sp--
		if stack[sp].tNear > p.maxActiveTFar() {
			continue
		}
		ref := stack[sp].ref

		for !ref.IsLeaf() {
			unaligned := ref.IsUnaligned()
			var alignedNode *scene.AlignedNode
			var unalignedNode *scene.UnalignedNode
			var children *[scene.BranchFactor]scene.NodeRef
			if unaligned {
				unalignedNode = &tr.sc.UnalignedNodes[ref.NodeIndex()]
				children = &unalignedNode.Children
			} else {
				alignedNode = &tr.sc.AlignedNodes[ref.NodeIndex()]
				children = &alignedNode.Children
			}

			base := sp
			for c := 0; c < scene.BranchFactor; c++ {
				if children[c] == scene.EmptyRef {
					continue
				}
				var m simd.Bool4
				var tN simd.Float4
				if unaligned {
					m, tN = intersectUnalignedChild(p, unalignedNode, c, p.Active)
				} else {
					m, tN = pr.intersectAlignedChild(p, alignedNode, c, p.Active)
				}
				if m.None() {
					continue
				}
				stack[sp] = stackItem{ref: children[c], tNear: minActive(m, tN)}
				sp++
			}

			switch sp - base {
			case 0:
				continue pop
			case 1:
			default:
				sortTop(stack[:], sp, sp-base)
			}
			sp--
			ref = stack[sp].ref
		}

		offset, count := ref.LeafRange()
		if ref.IsCurveLeaf() {
			for i := uint32(0); i < count; i++ {
				tr.intersectCurvePacket(p, &tr.sc.Curves[offset+i])
			}
		} else {
			for i := uint32(0); i < count; i++ {
				tr.leaf.intersectQuadsPacket(tr, p, p.Active, &tr.sc.Quads[offset+i])
			}
		}
	}
}

// intersectCurvePacket runs the scalar hair test lane by lane; curves have
// no batched form.
func (tr *Traverser) intersectCurvePacket(p *RayPacket, c *scene.CurveSegment) {
	for i := 0; i < PacketSize; i++ {
		if !p.Active[i] {
			continue
		}
		rv := p.Ray(i)
		tray := newTravRay(rv.Org, rv.Dir)
		if tr.intersectCurve(&tray, &rv, c) {
			p.SetRay(i, rv)
		}
	}
}

// OccludedPacket reports, per lane, whether any accepted hit exists. Lanes
// proven occluded stop participating in further node visits.
func (tr *Traverser) OccludedPacket(p *RayPacket) simd.Bool4 {
	var occluded simd.Bool4
	valid := p.Active
	if valid.None() {
		return occluded
	}
	pr := newPacketRay(p)

	var stack [stackSize]stackItem
	stack[0] = stackItem{ref: tr.sc.Root, tNear: minActive(valid, p.TNear)}
	sp := 1

pop:
	for sp > 0 {
		sp--
		if stack[sp].tNear > maxActive(valid, p.TFar) {
			continue
		}
		ref := stack[sp].ref

		for !ref.IsLeaf() {
			unaligned := ref.IsUnaligned()
			var alignedNode *scene.AlignedNode
			var unalignedNode *scene.UnalignedNode
			var children *[scene.BranchFactor]scene.NodeRef
			if unaligned {
				unalignedNode = &tr.sc.UnalignedNodes[ref.NodeIndex()]
				children = &unalignedNode.Children
			} else {
				alignedNode = &tr.sc.AlignedNodes[ref.NodeIndex()]
				children = &alignedNode.Children
			}

			base := sp
			for c := 0; c < scene.BranchFactor; c++ {
				if children[c] == scene.EmptyRef {
					continue
				}
				var m simd.Bool4
				var tN simd.Float4
				if unaligned {
					m, tN = intersectUnalignedChild(p, unalignedNode, c, valid)
				} else {
					m, tN = pr.intersectAlignedChild(p, alignedNode, c, valid)
				}
				if m.None() {
					continue
				}
				stack[sp] = stackItem{ref: children[c], tNear: minActive(m, tN)}
				sp++
			}

			switch sp - base {
			case 0:
				continue pop
			case 1:
			default:
				sortTop(stack[:], sp, sp-base)
			}
			sp--
			ref = stack[sp].ref
		}

		offset, count := ref.LeafRange()
		if ref.IsCurveLeaf() {
			for i := uint32(0); i < count; i++ {
				tr.occludedCurvePacket(p, &valid, &tr.sc.Curves[offset+i])
				if valid.None() {
					break
				}
			}
		} else {
			for i := uint32(0); i < count; i++ {
				tr.leaf.occludedQuadsPacket(tr, p, &valid, &tr.sc.Quads[offset+i])
				if valid.None() {
					break
				}
			}
		}
		if valid.None() {
			break
		}
	}

	occluded = p.Active.AndNot(valid)
	return occluded
}

func (tr *Traverser) occludedCurvePacket(p *RayPacket, valid *simd.Bool4, c *scene.CurveSegment) {
	for i := 0; i < PacketSize; i++ {
		if !valid[i] {
			continue
		}
		rv := p.Ray(i)
		tray := newTravRay(rv.Org, rv.Dir)
		if tr.occludedCurve(&tray, &rv, c) {
			valid.Clear(i)
		}
	}
}

// maxActive returns the largest value among set lanes.
func maxActive(m simd.Bool4, t simd.Float4) float32 {
	out := float32(0)
	first := true
	for i := 0; i < simd.Width; i++ {
		if m[i] && (first || t[i] > out) {
			out = t[i]
			first = false
		}
	}
	if first {
		return -1
	}
	return out
}
