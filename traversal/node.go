// Package traversal implements dual tree traversal over a pair of bounding volume hierarchies.
//
// The algorithms in this package are written once, generic over the node contracts below, and know
// nothing about the bounding volumes or primitives being tested. A concrete node answers leaf and child
// queries for both trees, tests pairs of bounding volumes, tests pairs of leaves and decides when the
// search may stop. The algorithms decide when each of these is asked and how results are combined.
//
// A node is built for a single query and is not safe for concurrent use. The hierarchies it refers to
// are only read, so independent queries over the same hierarchies may run in parallel, each with its
// own node and result.
package traversal

import (
	"github.com/lmontaut/coal/query"
	"github.com/lmontaut/coal/spatialmath"
)

// Node is the capability set shared by every traversal node.
type Node interface {
	// IsFirstNodeLeaf and IsSecondNodeLeaf report whether b is a leaf of tree 1 or tree 2.
	IsFirstNodeLeaf(b int) bool
	IsSecondNodeLeaf(b int) bool
	// FirstOverSecond reports whether tree 1 should be descended before tree 2 when both nodes are
	// internal.
	FirstOverSecond(b1, b2 int) bool
	// Child accessors are only called on internal nodes.
	FirstLeftChild(b int) int
	FirstRightChild(b int) int
	SecondLeftChild(b int) int
	SecondRightChild(b int) int
	EnableStatistics(enable bool)
	// Preprocess and Postprocess are called exactly once before and after a traversal.
	Preprocess()
	Postprocess()
}

// CollisionNode is a Node answering overlap queries.
type CollisionNode interface {
	Node
	// BVTesting reports whether the bounding volumes of b1 and b2 are disjoint, in which case the pair
	// is pruned.
	BVTesting(b1, b2 int) bool
	// BVTestingLowerBound is BVTesting that also reports a lower bound on the squared distance between
	// the volumes. It is used instead of BVTesting when DistanceLowerBoundEnabled is true.
	BVTestingLowerBound(b1, b2 int) (bool, float64)
	// LeafTesting runs the exact test between the primitives of two leaves, records any contact in the
	// node's result, and returns a lower bound on the squared distance between the leaves.
	LeafTesting(b1, b2 int) float64
	// CanStop reports whether the whole traversal may end now.
	CanStop() bool
	DistanceLowerBoundEnabled() bool
}

// DistanceNode is a Node answering minimum distance queries.
type DistanceNode interface {
	Node
	// BVTesting returns a lower bound on the distance between the bounding volumes of b1 and b2.
	BVTesting(b1, b2 int) float64
	// LeafTesting computes the exact distance between the primitives of two leaves and records it in the
	// node's result if it improves on the running minimum.
	LeafTesting(b1, b2 int)
	// CanStop reports whether a pair whose lower bound is c can be pruned.
	CanStop(c float64) bool
}

// Stats counts the tests performed during one traversal.
type Stats struct {
	NumBVTests   int
	NumLeafTests int
}

// NodeBase carries the state and default behavior shared by all nodes. Embed it and provide the child
// accessors and tests.
type NodeBase struct {
	// Tf1 and Tf2 place each object's hierarchy in the common frame. They do not change during a traversal.
	Tf1 spatialmath.Pose
	Tf2 spatialmath.Pose

	enableStatistics bool
	stats            Stats
}

// NewNodeBase returns a base with both transforms set.
func NewNodeBase(tf1, tf2 spatialmath.Pose) NodeBase {
	return NodeBase{Tf1: tf1, Tf2: tf2}
}

// IsFirstNodeLeaf returns false, treating every node as internal.
func (n *NodeBase) IsFirstNodeLeaf(b int) bool {
	return false
}

// IsSecondNodeLeaf returns false, treating every node as internal.
func (n *NodeBase) IsSecondNodeLeaf(b int) bool {
	return false
}

// FirstOverSecond always descends tree 1 first.
func (n *NodeBase) FirstOverSecond(b1, b2 int) bool {
	return true
}

// EnableStatistics turns test counting on or off.
func (n *NodeBase) EnableStatistics(enable bool) {
	n.enableStatistics = enable
}

// StatisticsEnabled reports whether tests are being counted.
func (n *NodeBase) StatisticsEnabled() bool {
	return n.enableStatistics
}

// Preprocess does nothing.
func (n *NodeBase) Preprocess() {}

// Postprocess does nothing.
func (n *NodeBase) Postprocess() {}

// Stats returns the counts gathered so far.
func (n *NodeBase) Stats() Stats {
	return n.stats
}

// CountBVTest records one bounding volume test when statistics are enabled.
func (n *NodeBase) CountBVTest() {
	if n.enableStatistics {
		n.stats.NumBVTests++
	}
}

// CountLeafTest records one leaf test when statistics are enabled.
func (n *NodeBase) CountLeafTest() {
	if n.enableStatistics {
		n.stats.NumLeafTests++
	}
}

// CollisionNodeBase adds the collision request and result to NodeBase. It deliberately has no
// LeafTesting: a collision node must supply its own.
type CollisionNodeBase struct {
	NodeBase
	Request query.CollisionRequest
	// Result is owned by the caller and must outlive the traversal.
	Result *query.CollisionResult
}

// CanStop returns false, searching exhaustively.
func (n *CollisionNodeBase) CanStop() bool {
	return false
}

// DistanceLowerBoundEnabled reports whether the request asked for a distance lower bound.
func (n *CollisionNodeBase) DistanceLowerBoundEnabled() bool {
	return n.Request.EnableDistanceLowerBound
}

// DistanceNodeBase adds the distance request and result to NodeBase.
type DistanceNodeBase struct {
	NodeBase
	Request query.DistanceRequest
	// Result is owned by the caller and must outlive the traversal.
	Result *query.DistanceResult
}

// CanStop prunes a pair whose lower bound cannot improve on the running minimum beyond the request's
// tolerances.
func (n *DistanceNodeBase) CanStop(c float64) bool {
	return n.Request.CanStop(c, n.Result.MinDistance)
}
