package traversal

import (
	"math"
)

// Collide runs a full collision traversal from the two roots, calling Preprocess and Postprocess around
// it. It returns a lower bound on the squared distance between the two objects.
func Collide[N CollisionNode](node N, root1, root2 int) float64 {
	node.Preprocess()
	sqrDistLowerBound := CollisionRecurse(node, root1, root2)
	node.Postprocess()
	return sqrDistLowerBound
}

// CollisionRecurse visits the pair (b1, b2) and everything below it, returning a lower bound on the
// squared distance between the two subtrees. Once the node asks to stop the bound is reported as zero.
func CollisionRecurse[N CollisionNode](node N, b1, b2 int) float64 {
	if node.CanStop() {
		return 0
	}

	l1 := node.IsFirstNodeLeaf(b1)
	l2 := node.IsSecondNodeLeaf(b2)
	if l1 && l2 {
		return node.LeafTesting(b1, b2)
	}

	if disjoint, sqrDistLowerBound := bvTest(node, b1, b2); disjoint {
		return sqrDistLowerBound
	}

	a1, a2, c1, c2 := childPairs(node, b1, b2, l1, l2)
	sqrDistLowerBound1 := CollisionRecurse(node, a1, a2)
	sqrDistLowerBound2 := CollisionRecurse(node, c1, c2)
	return minLowerBound(sqrDistLowerBound1, sqrDistLowerBound2)
}

type nodePair struct {
	b1, b2 int
}

// CollideStack is CollisionRecurse driven by an explicit work stack instead of the call stack. Pairs
// are visited in the same order and the same bound is returned, so it can replace the recursion for
// hierarchies whose depth is not bounded by construction.
func CollideStack[N CollisionNode](node N, root1, root2 int) float64 {
	node.Preprocess()
	defer node.Postprocess()

	sqrDistLowerBound := math.Inf(1)
	stack := []nodePair{{root1, root2}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.CanStop() {
			return 0
		}

		l1 := node.IsFirstNodeLeaf(p.b1)
		l2 := node.IsSecondNodeLeaf(p.b2)
		if l1 && l2 {
			sqrDistLowerBound = minLowerBound(sqrDistLowerBound, node.LeafTesting(p.b1, p.b2))
			continue
		}

		if disjoint, bound := bvTest(node, p.b1, p.b2); disjoint {
			sqrDistLowerBound = minLowerBound(sqrDistLowerBound, bound)
			continue
		}

		a1, a2, c1, c2 := childPairs(node, p.b1, p.b2, l1, l2)
		stack = append(stack, nodePair{c1, c2}, nodePair{a1, a2})
	}
	return sqrDistLowerBound
}

func bvTest[N CollisionNode](node N, b1, b2 int) (bool, float64) {
	if node.DistanceLowerBoundEnabled() {
		return node.BVTestingLowerBound(b1, b2)
	}
	// Without a computed bound, zero is the only bound known to hold.
	return node.BVTesting(b1, b2), 0
}

// childPairs returns the two pairs to visit below (b1, b2), in visiting order. A leaf is never descended.
func childPairs[N Node](node N, b1, b2 int, l1, l2 bool) (int, int, int, int) {
	if l2 || (!l1 && node.FirstOverSecond(b1, b2)) {
		return node.FirstLeftChild(b1), b2, node.FirstRightChild(b1), b2
	}
	return b1, node.SecondLeftChild(b2), b1, node.SecondRightChild(b2)
}

// minLowerBound is min that treats NaN as an unknown bound, which is zero.
func minLowerBound(a, b float64) float64 {
	if math.IsNaN(a) {
		a = 0
	}
	if math.IsNaN(b) {
		b = 0
	}
	return math.Min(a, b)
}
