package builder

import (
	"math/rand"
	"testing"

	"github.com/Mike-Leo-Smith/embree/scene"
	"github.com/Mike-Leo-Smith/embree/types"
)

func TestBuildEmpty(t *testing.T) {
	sc, err := Build(nil, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if sc.Root != scene.EmptyRef {
		t.Fatalf("empty build root = %#v, want EmptyRef", sc.Root)
	}
}

func TestBuildSingleTriangle(t *testing.T) {
	sc, err := Build([]Quad{
		Triangle(types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, types.Vec3{0, 1, 0}, 1, 2),
	}, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if !sc.Root.IsLeaf() || sc.Root.IsCurveLeaf() {
		t.Fatalf("one triangle should build into a bare quad leaf, got %#v", sc.Root)
	}
	offset, count := sc.Root.LeafRange()
	if offset != 0 || count != 1 {
		t.Fatalf("leaf range (%d, %d), want (0, 1)", offset, count)
	}

	q := &sc.Quads[0]
	if q.GeomIDs[0] != 1 || q.PrimIDs[0] != 2 {
		t.Fatalf("stored ids (%d, %d)", q.GeomIDs[0], q.PrimIDs[0])
	}
	// Unused slots are padded with the last real quad.
	for i := 1; i < scene.BundleSize; i++ {
		if q.PrimIDs[i] != 2 {
			t.Fatalf("slot %d not padded", i)
		}
	}
}

func randomQuads(n int, seed int64) []Quad {
	rng := rand.New(rand.NewSource(seed))
	quads := make([]Quad, n)
	for i := range quads {
		base := types.Vec3{rng.Float32() * 20, rng.Float32() * 20, rng.Float32() * 20}
		quads[i] = Quad{
			V0:     base,
			V1:     base.Add(types.Vec3{1, 0, 0}),
			V2:     base.Add(types.Vec3{1, 1, 0}),
			V3:     base.Add(types.Vec3{0, 1, 0}),
			GeomID: 1,
			PrimID: uint32(i),
		}
	}
	return quads
}

// Walk the aligned tree checking that every child's stored bounds contain
// the geometry referenced below it, and collect the primitives seen.
func walkAligned(t *testing.T, sc *scene.Scene, ref scene.NodeRef, seen map[uint32]bool) (min, max types.Vec3) {
	t.Helper()

	if ref.IsLeaf() {
		if ref.IsCurveLeaf() {
			t.Fatal("curve leaf inside a quad subtree")
		}
		offset, count := ref.LeafRange()
		min = types.Vec3{1e30, 1e30, 1e30}
		max = types.Vec3{-1e30, -1e30, -1e30}
		for i := uint32(0); i < count; i++ {
			b := &sc.Quads[offset+i]
			bmin, bmax := b.Bounds()
			min = types.MinVec3(min, bmin)
			max = types.MaxVec3(max, bmax)
			for s := 0; s < scene.BundleSize; s++ {
				seen[b.PrimIDs[s]] = true
			}
		}
		return min, max
	}

	if ref.IsUnaligned() {
		t.Fatal("unaligned node inside a quad subtree")
	}
	n := &sc.AlignedNodes[ref.NodeIndex()]
	min = types.Vec3{1e30, 1e30, 1e30}
	max = types.Vec3{-1e30, -1e30, -1e30}
	for c := 0; c < scene.BranchFactor; c++ {
		if n.Children[c] == scene.EmptyRef {
			continue
		}
		cmin, cmax := walkAligned(t, sc, n.Children[c], seen)
		bmin, bmax := n.Bounds(c)
		for k := 0; k < 3; k++ {
			if cmin[k] < bmin[k]-1e-4 || cmax[k] > bmax[k]+1e-4 {
				t.Fatalf("child %d bounds [%v, %v] leak out of stored [%v, %v]", c, cmin, cmax, bmin, bmax)
			}
		}
		min = types.MinVec3(min, cmin)
		max = types.MaxVec3(max, cmax)
	}
	return min, max
}

func TestBuildTreeInvariants(t *testing.T) {
	quads := randomQuads(500, 3)
	sc, err := Build(quads, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[uint32]bool)
	walkAligned(t, sc, sc.Root, seen)

	for i := range quads {
		if !seen[uint32(i)] {
			t.Fatalf("primitive %d not referenced by any leaf", i)
		}
	}
	if len(seen) != len(quads) {
		t.Fatalf("leafs reference %d distinct primitives, input has %d", len(seen), len(quads))
	}
}

func TestBuildCurves(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	curves := make([]scene.CurveSegment, 40)
	for i := range curves {
		base := types.Vec3{rng.Float32() * 10, rng.Float32() * 10, rng.Float32() * 10}
		curves[i] = scene.CurveSegment{
			P0:     base.Vec4(0.05),
			P1:     base.Add(types.Vec3{0.3, 0.1, 0}).Vec4(0.05),
			P2:     base.Add(types.Vec3{0.6, 0.2, 0}).Vec4(0.05),
			P3:     base.Add(types.Vec3{1, 0.3, 0}).Vec4(0.05),
			GeomID: 2,
			PrimID: uint32(i),
		}
	}

	sc, err := Build(nil, curves, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if sc.Root.IsLeaf() && !sc.Root.IsCurveLeaf() {
		t.Fatalf("curve-only build produced a quad root: %#v", sc.Root)
	}
	if len(sc.Curves) != len(curves) {
		t.Fatalf("curve pool holds %d segments, want %d", len(sc.Curves), len(curves))
	}

	// Every segment must be referenced exactly once across the leaves.
	seen := make(map[uint32]int)
	var walk func(ref scene.NodeRef)
	walk = func(ref scene.NodeRef) {
		if ref.IsLeaf() {
			offset, count := ref.LeafRange()
			for i := uint32(0); i < count; i++ {
				seen[sc.Curves[offset+i].PrimID]++
			}
			return
		}
		n := &sc.UnalignedNodes[ref.NodeIndex()]
		for c := 0; c < scene.BranchFactor; c++ {
			if n.Children[c] != scene.EmptyRef {
				walk(n.Children[c])
			}
		}
	}
	walk(sc.Root)

	for i := range curves {
		if seen[uint32(i)] != 1 {
			t.Fatalf("segment %d referenced %d times", i, seen[uint32(i)])
		}
	}
}

func TestBuildMixed(t *testing.T) {
	quads := randomQuads(64, 9)
	curves := []scene.CurveSegment{{
		P0: types.Vec4{0, 0, 0, 0.1},
		P1: types.Vec4{1, 0, 0, 0.1},
		P2: types.Vec4{2, 0, 0, 0.1},
		P3: types.Vec4{3, 0, 0, 0.1},
	}}

	sc, err := Build(quads, curves, Options{})
	if err != nil {
		t.Fatal(err)
	}

	// Mixed input joins both subtrees under an aligned root.
	if sc.Root.IsLeaf() || sc.Root.IsUnaligned() {
		t.Fatalf("mixed build root = %#v, want an aligned node", sc.Root)
	}
	root := &sc.AlignedNodes[sc.Root.NodeIndex()]
	if root.Children[0] == scene.EmptyRef || root.Children[1] == scene.EmptyRef {
		t.Fatal("joined root missing a subtree")
	}
	if root.Children[2] != scene.EmptyRef || root.Children[3] != scene.EmptyRef {
		t.Fatal("joined root should only populate two slots")
	}
}

func TestForcedSplitOfCoincidentQuads(t *testing.T) {
	// More identical quads than a single leaf can address; the builder must
	// split by index instead of giving up.
	quads := make([]Quad, maxLeafQuads+8)
	for i := range quads {
		quads[i] = Quad{
			V0:     types.Vec3{0, 0, 0},
			V1:     types.Vec3{1, 0, 0},
			V2:     types.Vec3{1, 1, 0},
			V3:     types.Vec3{0, 1, 0},
			GeomID: 1,
			PrimID: uint32(i),
		}
	}

	sc, err := Build(quads, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[uint32]bool)
	walkAligned(t, sc, sc.Root, seen)
	if len(seen) != len(quads) {
		t.Fatalf("forced split lost primitives: %d of %d referenced", len(seen), len(quads))
	}
}
