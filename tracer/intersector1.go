package tracer

import (
	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/simd"
)

// Intersect finds the nearest accepted hit and commits it into ray. The
// walk is nearest-first: of the children entered at each node the closest is
// descended into immediately and the rest are pushed sorted by entry
// distance, so every committed hit retroactively prunes the pending farther
// subtrees through the tNear check on pop.
func (tr *Traverser) Intersect(ray *Ray) {
	tray := newTravRay(ray.Org, ray.Dir)

	var stack [stackSize]stackItem
	stack[0] = stackItem{ref: tr.sc.Root, tNear: ray.TNear}
	sp := 1

pop:
	for sp > 0 {
		sp--
		if stack[sp].tNear > ray.TFar {
			continue
		}
		ref := stack[sp].ref

		for !ref.IsLeaf() {
			var hit simd.Bool4
			var tN simd.Float4
			var children *[scene.BranchFactor]scene.NodeRef

			if ref.IsUnaligned() {
				n := &tr.sc.UnalignedNodes[ref.NodeIndex()]
				hit, tN, _ = tray.intersectUnaligned(n, ray.TNear, ray.TFar)
				children = &n.Children
			} else {
				n := &tr.sc.AlignedNodes[ref.NodeIndex()]
				hit, tN, _ = tray.intersectAligned(n, ray.TNear, ray.TFar)
				children = &n.Children
			}

			base := sp
			for c := 0; c < scene.BranchFactor; c++ {
				if !hit[c] || children[c] == scene.EmptyRef {
					continue
				}
				stack[sp] = stackItem{ref: children[c], tNear: tN[c]}
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
				tr.intersectCurve(&tray, ray, &tr.sc.Curves[offset+i])
			}
		} else {
			for i := uint32(0); i < count; i++ {
				tr.leaf.intersectQuads(tr, ray, &tr.sc.Quads[offset+i])
			}
		}
	}
}

// Occluded reports whether any accepted hit exists within [TNear, TFar]. It
// returns on the first accepted hit without looking for the nearest one, so
// the visit order of equally valid hits is unspecified. The ray's hit record
// is left alone.
func (tr *Traverser) Occluded(ray *Ray) bool {
	tray := newTravRay(ray.Org, ray.Dir)

	var stack [stackSize]stackItem
	stack[0] = stackItem{ref: tr.sc.Root, tNear: ray.TNear}
	sp := 1

pop:
	for sp > 0 {
		sp--
		if stack[sp].tNear > ray.TFar {
			continue
		}
		ref := stack[sp].ref

		for !ref.IsLeaf() {
			var hit simd.Bool4
			var tN simd.Float4
			var children *[scene.BranchFactor]scene.NodeRef

			if ref.IsUnaligned() {
				n := &tr.sc.UnalignedNodes[ref.NodeIndex()]
				hit, tN, _ = tray.intersectUnaligned(n, ray.TNear, ray.TFar)
				children = &n.Children
			} else {
				n := &tr.sc.AlignedNodes[ref.NodeIndex()]
				hit, tN, _ = tray.intersectAligned(n, ray.TNear, ray.TFar)
				children = &n.Children
			}

			base := sp
			for c := 0; c < scene.BranchFactor; c++ {
				if !hit[c] || children[c] == scene.EmptyRef {
					continue
				}
				stack[sp] = stackItem{ref: children[c], tNear: tN[c]}
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
				if tr.occludedCurve(&tray, ray, &tr.sc.Curves[offset+i]) {
					return true
				}
			}
		} else {
			for i := uint32(0); i < count; i++ {
				if tr.leaf.occludedQuads(tr, ray, &tr.sc.Quads[offset+i]) {
					return true
				}
			}
		}
	}
	return false
}
