// Package bvh builds bounding volume hierarchies over geometric primitives.
//
// A Model stores its nodes in a flat arena addressed by integer index. The root is always node 0, and a
// node is either a leaf referencing a small contiguous range of primitives or an internal node with exactly
// two children.
package bvh

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/lmontaut/coal/spatialmath"
)

// ErrEmptyModel is returned when a hierarchy is built over zero primitives.
var ErrEmptyModel = errors.New("cannot build a bounding volume hierarchy over zero primitives")

// DefaultMaxLeafSize is the largest number of primitives stored in one leaf unless overridden.
const DefaultMaxLeafSize = 4

// Primitive is any geometry that can be stored in the leaves of a hierarchy.
type Primitive interface {
	AABB() spatialmath.AABB
	Centroid() r3.Vector
}

// Node is one entry of the hierarchy arena.
type Node struct {
	BV spatialmath.AABB
	// Left and Right are -1 for leaves.
	Left  int
	Right int
	// First and Count describe the primitive range of a leaf.
	First int
	Count int
}

// Model is a bounding volume hierarchy over primitives of type P, expressed in the object's own frame.
type Model[P Primitive] struct {
	nodes []Node
	prims []P
	ids   []int
}

type buildOptions struct {
	maxLeafSize int
}

// BuildOption configures how a Model is built.
type BuildOption func(*buildOptions)

// WithMaxLeafSize sets the largest number of primitives a leaf may hold. Values below 1 are treated as 1.
func WithMaxLeafSize(n int) BuildOption {
	return func(o *buildOptions) {
		if n < 1 {
			n = 1
		}
		o.maxLeafSize = n
	}
}

// NewModel builds a hierarchy over the given primitives by recursive median split along the axis of
// largest centroid spread. The input slice is not modified.
func NewModel[P Primitive](prims []P, opts ...BuildOption) (*Model[P], error) {
	if len(prims) == 0 {
		return nil, ErrEmptyModel
	}
	options := buildOptions{maxLeafSize: DefaultMaxLeafSize}
	for _, opt := range opts {
		opt(&options)
	}

	m := &Model[P]{
		nodes: make([]Node, 0, 2*len(prims)),
		prims: make([]P, len(prims)),
		ids:   make([]int, len(prims)),
	}
	copy(m.prims, prims)
	for i := range m.ids {
		m.ids[i] = i
	}
	centroids := make([]r3.Vector, len(prims))
	for i, p := range prims {
		centroids[i] = p.Centroid()
	}
	m.build(0, len(prims), centroids, options.maxLeafSize)
	return m, nil
}

// build appends the subtree over primitives [first, first+count) and returns the index of its root.
func (m *Model[P]) build(first, count int, centroids []r3.Vector, maxLeafSize int) int {
	bv := m.prims[first].AABB()
	for i := first + 1; i < first+count; i++ {
		bv = bv.Union(m.prims[i].AABB())
	}

	idx := len(m.nodes)
	m.nodes = append(m.nodes, Node{BV: bv, Left: -1, Right: -1, First: first, Count: count})
	if count <= maxLeafSize {
		return idx
	}

	// Find the axis with largest extent of the primitive centroids.
	centroidBox := spatialmath.NewAABBFromPoints(centroids[first : first+count]...)
	extent := centroidBox.Max.Sub(centroidBox.Min)
	axis := 0
	if extent.Y > extent.X && extent.Y >= extent.Z {
		axis = 1
	} else if extent.Z > extent.X && extent.Z > extent.Y {
		axis = 2
	}

	sort.Stable(&rangeSorter[P]{m: m, first: first, count: count, centroids: centroids, axis: axis})

	mid := count / 2
	left := m.build(first, mid, centroids, maxLeafSize)
	right := m.build(first+mid, count-mid, centroids, maxLeafSize)
	m.nodes[idx].Left = left
	m.nodes[idx].Right = right
	m.nodes[idx].First = -1
	m.nodes[idx].Count = 0
	return idx
}

// rangeSorter orders a primitive range by centroid along one axis, keeping ids and centroids aligned.
type rangeSorter[P Primitive] struct {
	m         *Model[P]
	first     int
	count     int
	centroids []r3.Vector
	axis      int
}

func (s *rangeSorter[P]) Len() int { return s.count }

func (s *rangeSorter[P]) Less(i, j int) bool {
	return component(s.centroids[s.first+i], s.axis) < component(s.centroids[s.first+j], s.axis)
}

func (s *rangeSorter[P]) Swap(i, j int) {
	i, j = s.first+i, s.first+j
	s.m.prims[i], s.m.prims[j] = s.m.prims[j], s.m.prims[i]
	s.m.ids[i], s.m.ids[j] = s.m.ids[j], s.m.ids[i]
	s.centroids[i], s.centroids[j] = s.centroids[j], s.centroids[i]
}

func component(v r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Root returns the index of the root node.
func (m *Model[P]) Root() int {
	return 0
}

// NumNodes returns the number of nodes in the arena.
func (m *Model[P]) NumNodes() int {
	return len(m.nodes)
}

// NumPrimitives returns the number of primitives stored in the hierarchy.
func (m *Model[P]) NumPrimitives() int {
	return len(m.prims)
}

// Node returns the node at index i.
func (m *Model[P]) Node(i int) Node {
	return m.nodes[i]
}

// IsLeaf reports whether node i has no children.
func (m *Model[P]) IsLeaf(i int) bool {
	return m.nodes[i].Left < 0
}

// Left returns the index of the first child of node i.
func (m *Model[P]) Left(i int) int {
	return m.nodes[i].Left
}

// Right returns the index of the second child of node i.
func (m *Model[P]) Right(i int) int {
	return m.nodes[i].Right
}

// BV returns the bounding box of node i in the model frame.
func (m *Model[P]) BV(i int) spatialmath.AABB {
	return m.nodes[i].BV
}

// Primitives returns the primitives of leaf i. It is empty for internal nodes.
func (m *Model[P]) Primitives(i int) []P {
	n := m.nodes[i]
	if n.Count == 0 {
		return nil
	}
	return m.prims[n.First : n.First+n.Count]
}

// ArenaPrimitive returns the k'th primitive in leaf order. Leaf i holds positions Node(i).First through
// Node(i).First+Node(i).Count-1.
func (m *Model[P]) ArenaPrimitive(k int) P {
	return m.prims[k]
}

// PrimitiveIDs returns, for each primitive of leaf i, its index in the slice the model was built from.
func (m *Model[P]) PrimitiveIDs(i int) []int {
	n := m.nodes[i]
	if n.Count == 0 {
		return nil
	}
	return m.ids[n.First : n.First+n.Count]
}

// Depth returns the number of nodes on the longest root to leaf path.
func (m *Model[P]) Depth() int {
	var depth func(i int) int
	depth = func(i int) int {
		if m.IsLeaf(i) {
			return 1
		}
		return 1 + max(depth(m.Left(i)), depth(m.Right(i)))
	}
	return depth(m.Root())
}
