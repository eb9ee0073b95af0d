package builder

import (
	"math"

	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/types"
)

// Oriented bounds hug hair clusters much tighter than axis-aligned boxes,
// so every internal node of the curve subtree is emitted as an unaligned
// node with a per-child frame derived from the cluster's dominant tangent.

const minFrameExtent float32 = 1e-6

// clusterDirection averages the chord directions of the segments under a
// subtree.
func (b *builder) clusterDirection(n *binNode) types.Vec3 {
	var sum types.Vec3
	for _, it := range n.items {
		seg := &b.curves[it.index]
		d := types.Vec3{
			seg.P3[0] - seg.P0[0],
			seg.P3[1] - seg.P0[1],
			seg.P3[2] - seg.P0[2],
		}
		if l := d.Len(); l > 0 {
			sum = sum.Add(d.Mul(1 / l))
		}
	}
	if sum.Len() < minFrameExtent {
		return types.Vec3{0, 0, 1}
	}
	return sum.Normalize()
}

// clusterFrame builds the world-to-unit-box transform for a child cluster:
// rotate into the tangent frame, then translate/scale the rotated bounds
// onto [0,1] per axis.
func (b *builder) clusterFrame(n *binNode) (space types.LinSpace3, translate types.Vec3) {
	rot := types.FrameFromUnitZ(b.clusterDirection(n))

	lo := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, it := range n.items {
		seg := &b.curves[it.index]
		for _, p := range [4]types.Vec4{seg.P0, seg.P1, seg.P2, seg.P3} {
			local := rot.XfmVec(types.Vec3{p[0], p[1], p[2]})
			r := types.Vec3{p[3], p[3], p[3]}
			lo = types.MinVec3(lo, local.Sub(r))
			hi = types.MaxVec3(hi, local.Add(r))
		}
	}

	extent := hi.Sub(lo)
	inv := types.Vec3{}
	for i := 0; i < 3; i++ {
		if extent[i] < minFrameExtent {
			extent[i] = minFrameExtent
		}
		inv[i] = 1 / extent[i]
	}

	space = rot.ScaleRows(inv)
	translate = types.Vec3{-lo[0] * inv[0], -lo[1] * inv[1], -lo[2] * inv[2]}
	return space, translate
}

// emitUnaligned lowers a binary subtree of curves into the unaligned node
// pool and returns its reference.
func (b *builder) emitUnaligned(n *binNode) (scene.NodeRef, error) {
	if n.leaf {
		return b.emitCurveLeaf(n.items)
	}

	children := collapse4(n)
	idx := len(b.out.UnalignedNodes)
	b.out.UnalignedNodes = append(b.out.UnalignedNodes, scene.UnalignedNode{})
	for c := 0; c < scene.BranchFactor; c++ {
		b.out.UnalignedNodes[idx].SetEmpty(c)
	}
	b.stats.nodes++

	for c, child := range children {
		ref, err := b.emitUnaligned(child)
		if err != nil {
			return scene.EmptyRef, err
		}
		space, translate := b.clusterFrame(child)
		b.out.UnalignedNodes[idx].SetTransform(c, space, translate)
		b.out.UnalignedNodes[idx].Children[c] = ref
	}
	return scene.MakeUnalignedRef(uint32(idx)), nil
}

// emitCurveLeaf copies a run of segments into the curve pool.
func (b *builder) emitCurveLeaf(items []item) (scene.NodeRef, error) {
	if len(items) == 0 {
		return scene.EmptyRef, nil
	}

	offset := len(b.out.Curves)
	for _, it := range items {
		b.out.Curves = append(b.out.Curves, b.curves[it.index])
	}
	return scene.MakeCurveLeafRef(uint32(offset), uint32(len(items))), nil
}
