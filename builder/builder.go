// Package builder constructs the four-wide bounding-volume hierarchy the
// tracer consumes. Quads and hair curves are partitioned into separate
// subtrees (curves get oriented nodes, quads axis-aligned ones) that are
// joined under a common root.
package builder

import (
	"fmt"
	"math"
	"time"

	"github.com/Mike-Leo-Smith/embree/log"
	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis

	// The builder will not attempt to calculate split candidates if the
	// node bbox along an axis is less than this threshold.
	minSideLength float32 = 1e-4

	// Number of SAH split candidates evaluated per axis.
	splitCandidates = 16
)

// A Quad is one input primitive: four vertices spanning the two triangles
// (V0,V1,V3) and (V2,V3,V1). Use Triangle for three-sided input.
type Quad struct {
	V0, V1, V2, V3 types.Vec3
	GeomID, PrimID uint32
}

// Triangle builds a degenerate quad whose second half can never be hit.
func Triangle(v0, v1, v2 types.Vec3, geomID, primID uint32) Quad {
	return Quad{V0: v0, V1: v1, V2: v2, V3: v2, GeomID: geomID, PrimID: primID}
}

// Build options.
type Options struct {
	// Item counts below which a subtree becomes a leaf.
	MinLeafQuads  int
	MinLeafCurves int
}

func (o *Options) setDefaults() {
	if o.MinLeafQuads == 0 {
		o.MinLeafQuads = 2 * scene.BundleSize
	}
	if o.MinLeafCurves == 0 {
		o.MinLeafCurves = 4
	}
}

// Largest leaf the node encoding can address.
const maxLeafQuads = scene.MaxLeafCount * scene.BundleSize

type item struct {
	min, max types.Vec3
	center   types.Vec3
	index    int
}

type splitScore struct {
	axis       Axis
	splitPoint float32

	leftCount, rightCount int
	score                 float32
}

type stats struct {
	nodes    int
	leafs    int
	maxDepth int
}

type binNode struct {
	min, max    types.Vec3
	left, right *binNode
	items       []item
	leaf        bool
}

type builder struct {
	logger log.Logger

	out       *scene.Scene
	quads     []Quad
	curves    []scene.CurveSegment
	scoreChan chan splitScore

	stats stats
}

// Build constructs a scene from quads and hair curves.
func Build(quads []Quad, curves []scene.CurveSegment, opts Options) (*scene.Scene, error) {
	opts.setDefaults()

	b := &builder{
		logger:    log.New("builder"),
		out:       &scene.Scene{Root: scene.EmptyRef},
		quads:     quads,
		curves:    curves,
		scoreChan: make(chan splitScore),
	}

	start := time.Now()

	var quadRoot, curveRoot *binNode
	if len(quads) > 0 {
		items := make([]item, len(quads))
		for i, q := range quads {
			min := types.MinVec3(types.MinVec3(q.V0, q.V1), types.MinVec3(q.V2, q.V3))
			max := types.MaxVec3(types.MaxVec3(q.V0, q.V1), types.MaxVec3(q.V2, q.V3))
			items[i] = item{min: min, max: max, center: min.Add(max).Mul(0.5), index: i}
		}
		quadRoot = b.partition(items, opts.MinLeafQuads, maxLeafQuads, 0)
	}
	if len(curves) > 0 {
		items := make([]item, len(curves))
		for i := range curves {
			min, max := curves[i].Bounds()
			items[i] = item{min: min, max: max, center: min.Add(max).Mul(0.5), index: i}
		}
		curveRoot = b.partition(items, opts.MinLeafCurves, scene.MaxLeafCount, 0)
	}

	if b.stats.maxDepth > scene.MaxDepth-2 {
		return nil, fmt.Errorf("builder: tree depth %d exceeds the supported maximum %d", b.stats.maxDepth, scene.MaxDepth)
	}

	var err error
	var quadRef, curveRef scene.NodeRef = scene.EmptyRef, scene.EmptyRef
	if quadRoot != nil {
		if quadRef, err = b.emitAligned(quadRoot); err != nil {
			return nil, err
		}
	}
	if curveRoot != nil {
		if curveRef, err = b.emitUnaligned(curveRoot); err != nil {
			return nil, err
		}
	}

	switch {
	case quadRoot != nil && curveRoot != nil:
		// Join the two subtrees under a fresh aligned root.
		idx := len(b.out.AlignedNodes)
		b.out.AlignedNodes = append(b.out.AlignedNodes, scene.AlignedNode{})
		root := &b.out.AlignedNodes[idx]
		for c := 0; c < scene.BranchFactor; c++ {
			root.SetEmpty(c)
		}
		root.SetBounds(0, quadRoot.min, quadRoot.max)
		root.Children[0] = quadRef
		root.SetBounds(1, curveRoot.min, curveRoot.max)
		root.Children[1] = curveRef
		b.out.Root = scene.MakeAlignedRef(uint32(idx))
		b.stats.nodes++
	case quadRoot != nil:
		b.out.Root = quadRef
	case curveRoot != nil:
		b.out.Root = curveRef
	}

	b.logger.Debugf(
		"BVH build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d\n",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)
	return b.out, nil
}

// Partition worklist into a binary tree; 4-wide nodes are formed later by
// collapsing two binary levels at a time.
func (b *builder) partition(workList []item, minLeafItems, maxLeafItems, depth int) *binNode {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	node := &binNode{
		min:   types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		max:   types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
		items: workList,
	}
	for _, it := range workList {
		node.min = types.MinVec3(node.min, it.min)
		node.max = types.MaxVec3(node.max, it.max)
	}

	// Do we have enough items for partitioning? If not create a leaf.
	if len(workList) <= minLeafItems {
		node.leaf = true
		b.stats.leafs++
		return node
	}

	// Try partitioning along each axis and select the split with best
	// score. Scoring runs in parallel, one goroutine per candidate.
	bestScore := scorePartition(workList)
	var bestSplit *splitScore

	pendingScores := 0
	side := node.max.Sub(node.min)
	for axis := XAxis; axis <= ZAxis; axis++ {
		if side[axis] < minSideLength {
			continue
		}

		splitStep := side[axis] / splitCandidates
		for i := 1; i < splitCandidates; i++ {
			pendingScores++
			go func(axis Axis, splitPoint float32) {
				lCount, rCount, score := scoreSplit(workList, axis, splitPoint)
				b.scoreChan <- splitScore{
					axis:       axis,
					splitPoint: splitPoint,

					leftCount:  lCount,
					rightCount: rCount,
					score:      score,
				}
			}(axis, node.min[axis]+float32(i)*splitStep)
		}
	}

	for ; pendingScores > 0; pendingScores-- {
		candidate := <-b.scoreChan
		if candidate.score < bestScore {
			bestScore = candidate.score
			c := candidate
			bestSplit = &c
		}
	}

	// No split improves on the current node; create a leaf unless the node
	// encoding cannot address it, in which case fall back to a median
	// split.
	if bestSplit == nil {
		if len(workList) <= maxLeafItems {
			node.leaf = true
			b.stats.leafs++
			return node
		}
		bestSplit = medianSplit(workList, node)
	}

	leftWorkList := make([]item, 0, bestSplit.leftCount)
	rightWorkList := make([]item, 0, bestSplit.rightCount)
	for _, it := range workList {
		if it.center[bestSplit.axis] < bestSplit.splitPoint {
			leftWorkList = append(leftWorkList, it)
		} else {
			rightWorkList = append(rightWorkList, it)
		}
	}
	if len(leftWorkList) == 0 || len(rightWorkList) == 0 {
		// All centers coincide; halve by index so forced splits always
		// make progress.
		half := len(workList) / 2
		leftWorkList = workList[:half]
		rightWorkList = workList[half:]
	}

	node.left = b.partition(leftWorkList, minLeafItems, maxLeafItems, depth+1)
	node.right = b.partition(rightWorkList, minLeafItems, maxLeafItems, depth+1)
	return node
}

// medianSplit is the forced fallback for oversized leaves: split at the
// median of item centers along the longest axis.
func medianSplit(workList []item, node *binNode) *splitScore {
	axis := XAxis
	side := node.max.Sub(node.min)
	if side[1] > side[0] {
		axis = YAxis
	}
	if side[2] > side[axis] {
		axis = ZAxis
	}

	centers := make([]float32, len(workList))
	for i, it := range workList {
		centers[i] = it.center[axis]
	}
	// Average of centers; with equal centers the caller still makes
	// progress because strictly-less partitioning puts ties on one side.
	var sum float32
	for _, c := range centers {
		sum += c
	}
	split := sum / float32(len(centers))

	left, right := 0, 0
	for _, it := range workList {
		if it.center[axis] < split {
			left++
		} else {
			right++
		}
	}
	if left == 0 || right == 0 {
		// Degenerate cluster: halve arbitrarily by index.
		return &splitScore{axis: axis, splitPoint: split, leftCount: len(workList) / 2, rightCount: len(workList) - len(workList)/2}
	}
	return &splitScore{axis: axis, splitPoint: split, leftCount: left, rightCount: right}
}

// Score a split based on the surface area heuristic:
// left count * left bbox area + right count * right bbox area.
// Splits that generate empty partitions get the worst possible score.
func scoreSplit(workList []item, axis Axis, splitPoint float32) (leftCount, rightCount int, score float32) {
	lmin := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	rmin := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	lmax := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	rmax := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}

	for _, it := range workList {
		if it.center[axis] < splitPoint {
			leftCount++
			lmin = types.MinVec3(lmin, it.min)
			lmax = types.MaxVec3(lmax, it.max)
		} else {
			rightCount++
			rmin = types.MinVec3(rmin, it.min)
			rmax = types.MaxVec3(rmax, it.max)
		}
	}

	if leftCount == 0 || rightCount == 0 {
		return leftCount, rightCount, math.MaxFloat32
	}

	lside := lmax.Sub(lmin)
	rside := rmax.Sub(rmin)
	score = (float32(leftCount) * (lside[0]*lside[1] + lside[1]*lside[2] + lside[0]*lside[2])) +
		(float32(rightCount) * (rside[0]*rside[1] + rside[1]*rside[2] + rside[0]*rside[2]))

	return leftCount, rightCount, score
}

// Calculate the score for an unsplit work list: count * bbox area.
func scorePartition(workList []item) float32 {
	if len(workList) == 0 {
		return math.MaxFloat32
	}

	min := types.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max := types.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, it := range workList {
		min = types.MinVec3(min, it.min)
		max = types.MaxVec3(max, it.max)
	}

	side := max.Sub(min)
	return float32(len(workList)) * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}

// collapse4 gathers up to four grandchildren of a binary node, repeatedly
// expanding the widest internal candidate.
func collapse4(n *binNode) []*binNode {
	children := []*binNode{n.left, n.right}
	for len(children) < scene.BranchFactor {
		expand := -1
		var expandArea float32 = -1
		for i, c := range children {
			if c.leaf {
				continue
			}
			side := c.max.Sub(c.min)
			area := side[0]*side[1] + side[1]*side[2] + side[0]*side[2]
			if area > expandArea {
				expandArea = area
				expand = i
			}
		}
		if expand < 0 {
			break
		}
		c := children[expand]
		children = append(children[:expand], children[expand+1:]...)
		children = append(children, c.left, c.right)
	}
	return children
}

// emitAligned lowers a binary subtree of quads into the aligned node pool
// and returns its reference.
func (b *builder) emitAligned(n *binNode) (scene.NodeRef, error) {
	if n.leaf {
		return b.emitQuadLeaf(n.items)
	}

	children := collapse4(n)
	idx := len(b.out.AlignedNodes)
	b.out.AlignedNodes = append(b.out.AlignedNodes, scene.AlignedNode{})
	for c := 0; c < scene.BranchFactor; c++ {
		b.out.AlignedNodes[idx].SetEmpty(c)
	}
	b.stats.nodes++

	for c, child := range children {
		ref, err := b.emitAligned(child)
		if err != nil {
			return scene.EmptyRef, err
		}
		b.out.AlignedNodes[idx].SetBounds(c, child.min, child.max)
		b.out.AlignedNodes[idx].Children[c] = ref
	}
	return scene.MakeAlignedRef(uint32(idx)), nil
}

// emitQuadLeaf packs a run of quads into bundles, padding the tail bundle
// with a copy of its last slot.
func (b *builder) emitQuadLeaf(items []item) (scene.NodeRef, error) {
	if len(items) == 0 {
		return scene.EmptyRef, nil
	}

	offset := len(b.out.Quads)
	var bundle scene.QuadBundle
	slot := 0
	for _, it := range items {
		q := b.quads[it.index]
		bundle.Set(slot, q.V0, q.V1, q.V2, q.V3, q.GeomID, q.PrimID)
		slot++
		if slot == scene.BundleSize {
			b.out.Quads = append(b.out.Quads, bundle)
			slot = 0
		}
	}
	if slot > 0 {
		bundle.Pad(slot)
		b.out.Quads = append(b.out.Quads, bundle)
	}

	count := len(b.out.Quads) - offset
	if count > scene.MaxLeafCount {
		return scene.EmptyRef, fmt.Errorf("builder: quad leaf of %d bundles exceeds the %d the node encoding can address", count, scene.MaxLeafCount)
	}
	return scene.MakeQuadLeafRef(uint32(offset), uint32(count)), nil
}
