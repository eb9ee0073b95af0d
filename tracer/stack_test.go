package tracer

import (
	"testing"

	"github.com/Mike-Leo-Smith/embree/scene"
)

func TestSortTopOrdersNearestFirst(t *testing.T) {
	perms := [][]float32{
		{1, 2}, {2, 1},
		{1, 2, 3}, {3, 2, 1}, {2, 3, 1}, {1, 3, 2}, {3, 1, 2}, {2, 1, 3},
		{1, 2, 3, 4}, {4, 3, 2, 1}, {2, 4, 1, 3}, {3, 1, 4, 2}, {4, 1, 2, 3}, {1, 4, 3, 2},
	}

	for _, perm := range perms {
		var stack [stackSize]stackItem
		sp := 0
		for i, tn := range perm {
			stack[sp] = stackItem{ref: scene.MakeAlignedRef(uint32(i)), tNear: tn}
			sp++
		}
		sortTop(stack[:], sp, len(perm))

		// stack[sp-1] is the top; distances must grow from the top down.
		for i := 1; i < len(perm); i++ {
			if stack[sp-i].tNear > stack[sp-i-1].tNear {
				t.Fatalf("perm %v: item %d nearer than item %d after sort", perm, i, i-1)
			}
		}
	}
}

func TestSortTopStableOnTies(t *testing.T) {
	var stack [stackSize]stackItem
	for i := 0; i < 4; i++ {
		stack[i] = stackItem{ref: scene.MakeAlignedRef(uint32(i)), tNear: 1}
	}
	sortTop(stack[:], 4, 4)

	for i := 0; i < 4; i++ {
		if stack[i].ref.NodeIndex() != uint32(i) {
			t.Fatalf("tied items reordered: slot %d holds node %d", i, stack[i].ref.NodeIndex())
		}
	}
}

func TestStackSizeCoversWorstCase(t *testing.T) {
	// Each level of descent can leave BranchFactor-1 siblings behind.
	want := 1 + (scene.BranchFactor-1)*scene.MaxDepth
	if stackSize != want {
		t.Fatalf("stackSize = %d, want %d", stackSize, want)
	}
}
