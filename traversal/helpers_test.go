package traversal

import (
	"math"
	"math/rand"
	"sort"

	"github.com/golang/geo/r3"

	"github.com/lmontaut/coal/query"
)

// lineTree is a hierarchy over points on a line. Every node bounds the interval of its points.
type lineTree struct {
	points      []float64
	lo, hi      []float64
	left, right []int
	leaf        []int
}

func newLineTree(points []float64) *lineTree {
	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return points[idx[a]] < points[idx[b]] })
	t := &lineTree{points: points}
	t.build(idx)
	return t
}

func (t *lineTree) build(idx []int) int {
	i := len(t.lo)
	t.lo = append(t.lo, t.points[idx[0]])
	t.hi = append(t.hi, t.points[idx[len(idx)-1]])
	t.left = append(t.left, -1)
	t.right = append(t.right, -1)
	t.leaf = append(t.leaf, -1)
	if len(idx) == 1 {
		t.leaf[i] = idx[0]
		return i
	}
	mid := len(idx) / 2
	l := t.build(idx[:mid])
	r := t.build(idx[mid:])
	t.left[i], t.right[i] = l, r
	return i
}

func (t *lineTree) isLeaf(b int) bool {
	return t.left[b] < 0
}

func (t *lineTree) width(b int) float64 {
	return t.hi[b] - t.lo[b]
}

func (t *lineTree) pointsUnder(b int) []int {
	if t.isLeaf(b) {
		return []int{t.leaf[b]}
	}
	return append(t.pointsUnder(t.left[b]), t.pointsUnder(t.right[b])...)
}

func intervalGap(lo1, hi1, lo2, hi2 float64) float64 {
	return math.Max(0, math.Max(lo2-hi1, lo1-hi2))
}

func randomPoints(rng *rand.Rand, n int, lo, hi float64) []float64 {
	pts := make([]float64, n)
	for i := range pts {
		pts[i] = lo + rng.Float64()*(hi-lo)
	}
	return pts
}

func bruteForceContacts(p1, p2 []float64, tol float64) [][2]int {
	var out [][2]int
	for i, x := range p1 {
		for j, y := range p2 {
			if math.Abs(x-y) <= tol {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}

func bruteForceDistance(p1, p2 []float64, under1, under2 []int) float64 {
	best := math.Inf(1)
	for _, i := range under1 {
		for _, j := range under2 {
			best = math.Min(best, math.Abs(p1[i]-p2[j]))
		}
	}
	return best
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func sortPairs(pairs [][2]int) [][2]int {
	out := append([][2]int(nil), pairs...)
	sort.Slice(out, func(a, b int) bool {
		if out[a][0] != out[b][0] {
			return out[a][0] < out[b][0]
		}
		return out[a][1] < out[b][1]
	})
	return out
}

type lineNodeBase struct {
	t1, t2 *lineTree
}

func (n *lineNodeBase) IsFirstNodeLeaf(b int) bool  { return n.t1.isLeaf(b) }
func (n *lineNodeBase) IsSecondNodeLeaf(b int) bool { return n.t2.isLeaf(b) }
func (n *lineNodeBase) FirstLeftChild(b int) int    { return n.t1.left[b] }
func (n *lineNodeBase) FirstRightChild(b int) int   { return n.t1.right[b] }
func (n *lineNodeBase) SecondLeftChild(b int) int   { return n.t2.left[b] }
func (n *lineNodeBase) SecondRightChild(b int) int  { return n.t2.right[b] }

func (n *lineNodeBase) FirstOverSecond(b1, b2 int) bool {
	return n.t1.width(b1) >= n.t2.width(b2)
}

func (n *lineNodeBase) gap(b1, b2 int) float64 {
	return intervalGap(n.t1.lo[b1], n.t1.hi[b1], n.t2.lo[b2], n.t2.hi[b2])
}

// lineCollisionNode reports contacts between points closer than tol, and records how it was driven.
type lineCollisionNode struct {
	CollisionNodeBase
	lineNodeBase

	tol         float64
	maxContacts int
	nanBounds   bool
	noPrune     bool
	deadline    *Deadline

	contacts           [][2]int
	visits             []nodePair
	bvTestsAfterStop   int
	prunedButColliding int
	preprocessed       int
	postprocessed      int
}

func newLineCollisionNode(p1, p2 []float64, tol float64) *lineCollisionNode {
	return &lineCollisionNode{
		lineNodeBase: lineNodeBase{t1: newLineTree(p1), t2: newLineTree(p2)},
		tol:          tol,
	}
}

func (n *lineCollisionNode) Preprocess()  { n.preprocessed++ }
func (n *lineCollisionNode) Postprocess() { n.postprocessed++ }

func (n *lineCollisionNode) CanStop() bool {
	if n.deadline.Expired() {
		return true
	}
	return n.maxContacts > 0 && len(n.contacts) >= n.maxContacts
}

func (n *lineCollisionNode) BVTesting(b1, b2 int) bool {
	disjoint, _ := n.BVTestingLowerBound(b1, b2)
	return disjoint
}

func (n *lineCollisionNode) BVTestingLowerBound(b1, b2 int) (bool, float64) {
	n.CountBVTest()
	if n.CanStop() {
		n.bvTestsAfterStop++
	}
	n.visits = append(n.visits, nodePair{b1, b2})

	g := n.gap(b1, b2)
	if n.nanBounds {
		g = math.NaN()
	}
	disjoint := !n.noPrune && g > n.tol
	if disjoint {
		found := bruteForceContacts(pick(n.t1.points, n.t1.pointsUnder(b1)), pick(n.t2.points, n.t2.pointsUnder(b2)), n.tol)
		n.prunedButColliding += len(found)
	}
	return disjoint, g * g
}

func (n *lineCollisionNode) LeafTesting(b1, b2 int) float64 {
	n.CountLeafTest()
	n.visits = append(n.visits, nodePair{b1, b2})
	i, j := n.t1.leaf[b1], n.t2.leaf[b2]
	d := math.Abs(n.t1.points[i] - n.t2.points[j])
	if d <= n.tol {
		n.contacts = append(n.contacts, [2]int{i, j})
		return 0
	}
	return d * d
}

func pick(points []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = points[i]
	}
	return out
}

// lineDistanceNode finds the closest pair of points, using the default stop rule of DistanceNodeBase.
type lineDistanceNode struct {
	DistanceNodeBase
	lineNodeBase

	nanBounds bool

	history   []float64
	badBounds int
}

func newLineDistanceNode(p1, p2 []float64) *lineDistanceNode {
	n := &lineDistanceNode{lineNodeBase: lineNodeBase{t1: newLineTree(p1), t2: newLineTree(p2)}}
	n.Result = query.NewDistanceResult()
	return n
}

func (n *lineDistanceNode) BVTesting(b1, b2 int) float64 {
	n.CountBVTest()
	g := n.gap(b1, b2)
	if g > bruteForceDistance(n.t1.points, n.t2.points, n.t1.pointsUnder(b1), n.t2.pointsUnder(b2)) {
		n.badBounds++
	}
	if n.nanBounds {
		return math.NaN()
	}
	return g
}

func (n *lineDistanceNode) LeafTesting(b1, b2 int) {
	n.CountLeafTest()
	i, j := n.t1.leaf[b1], n.t2.leaf[b2]
	x, y := n.t1.points[i], n.t2.points[j]
	n.Result.Update(math.Abs(x-y), i, j, r3.Vector{X: x}, r3.Vector{X: y})
	n.history = append(n.history, n.Result.MinDistance)
}
