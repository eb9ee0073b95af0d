package tracer

import "github.com/Mike-Leo-Smith/embree/scene"

// A stackItem is a pending subtree ordered by its near distance estimate.
type stackItem struct {
	ref   scene.NodeRef
	tNear float32
}

// Worst case stack occupancy: each popped node pushes at most
// BranchFactor-1 extra siblings per level.
const stackSize = 1 + (scene.BranchFactor-1)*scene.MaxDepth

// The sortNearN helpers are fixed comparator networks over the topmost stack
// entries. s1 is the top of the stack; after sorting, the nearest item is on
// top so it is expanded first. Ties keep their push order, which makes the
// visit order deterministic per query.

func sortNear2(s1, s2 *stackItem) {
	if s2.tNear < s1.tNear {
		*s1, *s2 = *s2, *s1
	}
}

func sortNear3(s1, s2, s3 *stackItem) {
	sortNear2(s1, s2)
	sortNear2(s2, s3)
	sortNear2(s1, s2)
}

func sortNear4(s1, s2, s3, s4 *stackItem) {
	sortNear2(s1, s2)
	sortNear2(s3, s4)
	sortNear2(s1, s3)
	sortNear2(s2, s4)
	sortNear2(s2, s3)
}

// sortTop orders the n items just pushed onto the stack so stack[sp-1] holds
// the smallest near distance.
func sortTop(stack []stackItem, sp, n int) {
	switch n {
	case 2:
		sortNear2(&stack[sp-1], &stack[sp-2])
	case 3:
		sortNear3(&stack[sp-1], &stack[sp-2], &stack[sp-3])
	case 4:
		sortNear4(&stack[sp-1], &stack[sp-2], &stack[sp-3], &stack[sp-4])
	}
}
