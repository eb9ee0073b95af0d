package scene

import (
	"github.com/Mike-Leo-Smith/embree/simd"
	"github.com/Mike-Leo-Smith/embree/types"
)

// Sentinel geometry/primitive id marking "no hit yet".
const InvalidID = ^uint32(0)

// Number of children per node.
const BranchFactor = 4

// Maximum tree depth accepted from the builder. Together with the branch
// factor this bounds the traversal stack: each popped node can push at most
// BranchFactor-1 extra siblings.
const MaxDepth = 64

// A NodeRef packs a reference to either an interior node or a leaf range
// into a single uint32. The two low bits select the target pool and the
// remaining bits carry the node index, or the primitive offset and count
// for leaves.
//
//   - aligned node:   index into Scene.AlignedNodes
//   - unaligned node: index into Scene.UnalignedNodes
//   - quad leaf:      offset|count into Scene.Quads (count in bundles)
//   - curve leaf:     offset|count into Scene.Curves (count in segments)
type NodeRef uint32

const (
	refAlignedNode uint32 = iota
	refUnalignedNode
	refQuadLeaf
	refCurveLeaf

	refKindBits          = 2
	refKindMask          = 1<<refKindBits - 1
	leafCountBits uint32 = 4
	leafCountMask uint32 = 1<<leafCountBits - 1

	// Largest primitive range a single leaf can address.
	MaxLeafCount = int(leafCountMask)
)

// A leaf that references no primitives. Used for unpopulated child slots.
const EmptyRef = NodeRef(refQuadLeaf)

// Reference an aligned interior node.
func MakeAlignedRef(index uint32) NodeRef {
	return NodeRef(index<<refKindBits | refAlignedNode)
}

// Reference an unaligned interior node.
func MakeUnalignedRef(index uint32) NodeRef {
	return NodeRef(index<<refKindBits | refUnalignedNode)
}

// Reference a run of count quad bundles starting at offset.
func MakeQuadLeafRef(offset, count uint32) NodeRef {
	return NodeRef((offset<<leafCountBits|count&leafCountMask)<<refKindBits | refQuadLeaf)
}

// Reference a run of count curve segments starting at offset.
func MakeCurveLeafRef(offset, count uint32) NodeRef {
	return NodeRef((offset<<leafCountBits|count&leafCountMask)<<refKindBits | refCurveLeaf)
}

func (r NodeRef) kind() uint32 {
	return uint32(r) & refKindMask
}

// IsLeaf reports whether the reference targets a primitive range.
func (r NodeRef) IsLeaf() bool {
	return r.kind() >= refQuadLeaf
}

// IsUnaligned reports whether the reference targets an oriented node.
func (r NodeRef) IsUnaligned() bool {
	return r.kind() == refUnalignedNode
}

// IsCurveLeaf reports whether the leaf references curve segments.
func (r NodeRef) IsCurveLeaf() bool {
	return r.kind() == refCurveLeaf
}

// NodeIndex returns the pool index for interior references.
func (r NodeRef) NodeIndex() uint32 {
	return uint32(r) >> refKindBits
}

// LeafRange returns the primitive offset and count for leaf references.
func (r NodeRef) LeafRange() (offset, count uint32) {
	payload := uint32(r) >> refKindBits
	return payload >> leafCountBits, payload & leafCountMask
}

// An AlignedNode holds the world-space bounding boxes of up to four children
// with each axis stored across lanes, so a ray tests all four boxes in one
// pass.
type AlignedNode struct {
	MinX, MaxX simd.Float4
	MinY, MaxY simd.Float4
	MinZ, MaxZ simd.Float4

	Children [BranchFactor]NodeRef
}

// SetBounds stores the bounding box for child slot i.
func (n *AlignedNode) SetBounds(i int, min, max types.Vec3) {
	n.MinX[i], n.MinY[i], n.MinZ[i] = min[0], min[1], min[2]
	n.MaxX[i], n.MaxY[i], n.MaxZ[i] = max[0], max[1], max[2]
}

// SetEmpty marks child slot i unpopulated. The inverted bounds can never be
// entered by a ray.
func (n *AlignedNode) SetEmpty(i int) {
	const inf = float32(1e30)
	n.SetBounds(i, types.Vec3{inf, inf, inf}, types.Vec3{-inf, -inf, -inf})
	n.Children[i] = EmptyRef
}

// Bounds returns the bounding box of child slot i.
func (n *AlignedNode) Bounds(i int) (min, max types.Vec3) {
	return types.Vec3{n.MinX[i], n.MinY[i], n.MinZ[i]},
		types.Vec3{n.MaxX[i], n.MaxY[i], n.MaxZ[i]}
}

// An UnalignedNode stores, per child, an affine transform mapping world
// space into the child's unit box: a point is inside the child volume iff
// its transformed coordinates land in [0,1]^3. Rows of the 3x3 part and the
// translation are stored across lanes like the aligned bounds.
type UnalignedNode struct {
	RxX, RxY, RxZ simd.Float4
	RyX, RyY, RyZ simd.Float4
	RzX, RzY, RzZ simd.Float4
	TX, TY, TZ    simd.Float4

	Children [BranchFactor]NodeRef
}

// SetTransform stores the world-to-unit-box transform for child slot i.
func (n *UnalignedNode) SetTransform(i int, l types.LinSpace3, t types.Vec3) {
	n.RxX[i], n.RxY[i], n.RxZ[i] = l.Rx[0], l.Rx[1], l.Rx[2]
	n.RyX[i], n.RyY[i], n.RyZ[i] = l.Ry[0], l.Ry[1], l.Ry[2]
	n.RzX[i], n.RzY[i], n.RzZ[i] = l.Rz[0], l.Rz[1], l.Rz[2]
	n.TX[i], n.TY[i], n.TZ[i] = t[0], t[1], t[2]
}

// SetEmpty marks child slot i unpopulated. The degenerate transform places
// every point far outside the unit box at negative ray distances, which the
// tnear clamp rejects.
func (n *UnalignedNode) SetEmpty(i int) {
	n.SetTransform(i, types.LinSpaceIdent(), types.Vec3{1e30, 1e30, 1e30})
	n.Children[i] = EmptyRef
}
