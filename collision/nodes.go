package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/lmontaut/coal/bvh"
	"github.com/lmontaut/coal/logging"
	"github.com/lmontaut/coal/query"
	"github.com/lmontaut/coal/spatialmath"
	"github.com/lmontaut/coal/traversal"
)

// modelPair answers the structural queries of a traversal node over two placed hierarchies.
type modelPair[P Primitive[P]] struct {
	first  *placedModel[P]
	second *placedModel[P]
	bvType BVType
}

func newModelPair[P Primitive[P]](m1 *bvh.Model[P], tf1 spatialmath.Pose, m2 *bvh.Model[P], tf2 spatialmath.Pose, t BVType,
) *modelPair[P] {
	return &modelPair[P]{
		first:  newPlacedModel(m1, tf1, t),
		second: newPlacedModel(m2, tf2, t),
		bvType: t,
	}
}

func (p *modelPair[P]) IsFirstNodeLeaf(b int) bool  { return p.first.model.IsLeaf(b) }
func (p *modelPair[P]) IsSecondNodeLeaf(b int) bool { return p.second.model.IsLeaf(b) }
func (p *modelPair[P]) FirstLeftChild(b int) int    { return p.first.model.Left(b) }
func (p *modelPair[P]) FirstRightChild(b int) int   { return p.first.model.Right(b) }
func (p *modelPair[P]) SecondLeftChild(b int) int   { return p.second.model.Left(b) }
func (p *modelPair[P]) SecondRightChild(b int) int  { return p.second.model.Right(b) }

// FirstOverSecond descends the larger of the two volumes, tree 1 on ties. A leaf is never chosen.
func (p *modelPair[P]) FirstOverSecond(b1, b2 int) bool {
	if p.second.model.IsLeaf(b2) {
		return true
	}
	if p.first.model.IsLeaf(b1) {
		return false
	}
	return p.first.model.BV(b1).Size() >= p.second.model.BV(b2).Size()
}

func (p *modelPair[P]) bvDistance(b1, b2 int) float64 {
	return volumeDistance(p.bvType, p.first.volume(b1), p.second.volume(b2))
}

// forEachPrimitivePair calls fn on every pair of placed primitives of leaves b1 and b2 until it returns
// false.
func (p *modelPair[P]) forEachPrimitivePair(b1, b2 int, fn func(p1, p2 P, id1, id2 int) bool) {
	n1 := p.first.model.Node(b1).Count
	n2 := p.second.model.Node(b2).Count
	for i := 0; i < n1; i++ {
		p1, id1 := p.first.primitive(b1, i)
		for j := 0; j < n2; j++ {
			p2, id2 := p.second.primitive(b2, j)
			if !fn(p1, p2, id1, id2) {
				return
			}
		}
	}
}

// MeshCollisionNode finds contacts between two hierarchies of primitives.
type MeshCollisionNode[P Primitive[P]] struct {
	traversal.CollisionNodeBase
	*modelPair[P]

	deadline *traversal.Deadline
	logger   logging.Logger
}

// NewMeshCollisionNode returns a node colliding m1 placed at tf1 with m2 placed at tf2. Contacts are added
// to res.
func NewMeshCollisionNode[P Primitive[P]](
	m1 *bvh.Model[P], tf1 spatialmath.Pose,
	m2 *bvh.Model[P], tf2 spatialmath.Pose,
	req query.CollisionRequest, res *query.CollisionResult,
	opts ...Option,
) *MeshCollisionNode[P] {
	o := newOptions(opts)
	n := &MeshCollisionNode[P]{
		CollisionNodeBase: traversal.CollisionNodeBase{
			NodeBase: traversal.NewNodeBase(tf1, tf2),
			Request:  req,
			Result:   res,
		},
		modelPair: newModelPair(m1, tf1, m2, tf2, o.bvType),
		deadline:  o.deadline,
		logger:    o.logger,
	}
	n.EnableStatistics(o.stats != nil)
	return n
}

// pruneDistance is the volume gap beyond which no pair of primitives can collide. A negative margin only
// shrinks the objects, so it never tightens pruning.
func (n *MeshCollisionNode[P]) pruneDistance() float64 {
	return math.Max(n.Request.SecurityMargin, 0) + n.Request.CollisionDistanceThreshold
}

// BVTesting reports whether the placed volumes are too far apart to hold a contact.
func (n *MeshCollisionNode[P]) BVTesting(b1, b2 int) bool {
	n.CountBVTest()
	return n.bvDistance(b1, b2) > n.pruneDistance()
}

// BVTestingLowerBound keeps volumes within the break distance so that their leaves tighten the bound.
func (n *MeshCollisionNode[P]) BVTestingLowerBound(b1, b2 int) (bool, float64) {
	n.CountBVTest()
	d := n.bvDistance(b1, b2)
	return d > n.pruneDistance()+n.Request.BreakDistance, d * d
}

// LeafTesting tests every primitive pair of the two leaves, recording contacts until the request is
// satisfied.
func (n *MeshCollisionNode[P]) LeafTesting(b1, b2 int) float64 {
	n.CountLeafTest()
	closest := math.Inf(1)
	n.forEachPrimitivePair(b1, b2, func(p1, p2 P, id1, id2 int) bool {
		d, w1, w2, normal := p1.SignedDistance(p2)
		// A NaN distance fails this comparison and is recorded as a contact.
		if d-n.Request.SecurityMargin > n.Request.CollisionDistanceThreshold {
			// Under a negative margin, overlapping pairs land here with d < 0. The bound is squared, so
			// clamp it to keep it below the true distance.
			closest = math.Min(closest, math.Max(d, 0))
			return true
		}
		closest = 0
		if n.Result.NumContacts() < n.Request.NumMaxContacts {
			c := query.Contact{B1: id1, B2: id2}
			if n.Request.EnableContact {
				c.Normal = normal
				c.Pos = w1.Add(w2).Mul(0.5)
				c.PenetrationDepth = n.Request.SecurityMargin - d
				c.NearestPoints = [2]r3.Vector{w1, w2}
			}
			n.Result.AddContact(c)
		}
		return !n.Request.IsSatisfied(n.Result)
	})
	return closest * closest
}

// CanStop ends the traversal once enough contacts are found or the deadline passes.
func (n *MeshCollisionNode[P]) CanStop() bool {
	return n.deadline.Expired() || n.Request.IsSatisfied(n.Result)
}

// Postprocess logs test counts when statistics are enabled.
func (n *MeshCollisionNode[P]) Postprocess() {
	if !n.StatisticsEnabled() {
		return
	}
	stats := n.Stats()
	n.logger.Debugw("collision traversal done",
		"bv", n.bvType, "bv_tests", stats.NumBVTests, "leaf_tests", stats.NumLeafTests, "contacts", n.Result.NumContacts())
}

// MeshDistanceNode finds the closest pair of primitives between two hierarchies.
type MeshDistanceNode[P Primitive[P]] struct {
	traversal.DistanceNodeBase
	*modelPair[P]

	deadline *traversal.Deadline
	logger   logging.Logger
}

// NewMeshDistanceNode returns a node measuring m1 placed at tf1 against m2 placed at tf2. The running
// minimum is kept in res.
func NewMeshDistanceNode[P Primitive[P]](
	m1 *bvh.Model[P], tf1 spatialmath.Pose,
	m2 *bvh.Model[P], tf2 spatialmath.Pose,
	req query.DistanceRequest, res *query.DistanceResult,
	opts ...Option,
) *MeshDistanceNode[P] {
	o := newOptions(opts)
	n := &MeshDistanceNode[P]{
		DistanceNodeBase: traversal.DistanceNodeBase{
			NodeBase: traversal.NewNodeBase(tf1, tf2),
			Request:  req,
			Result:   res,
		},
		modelPair: newModelPair(m1, tf1, m2, tf2, o.bvType),
		deadline:  o.deadline,
		logger:    o.logger,
	}
	n.EnableStatistics(o.stats != nil)
	return n
}

// BVTesting returns a lower bound on the distance between the placed volumes.
func (n *MeshDistanceNode[P]) BVTesting(b1, b2 int) float64 {
	n.CountBVTest()
	return n.bvDistance(b1, b2)
}

// LeafTesting measures every primitive pair of the two leaves.
func (n *MeshDistanceNode[P]) LeafTesting(b1, b2 int) {
	n.CountLeafTest()
	n.forEachPrimitivePair(b1, b2, func(p1, p2 P, id1, id2 int) bool {
		d, w1, w2, _ := p1.SignedDistance(p2)
		if !n.Request.EnableNearestPoints {
			w1, w2 = r3.Vector{}, r3.Vector{}
		}
		n.Result.Update(d, id1, id2, w1, w2)
		return true
	})
}

// CanStop prunes by the request tolerances, and everything once the deadline passes.
func (n *MeshDistanceNode[P]) CanStop(c float64) bool {
	return n.deadline.Expired() || n.DistanceNodeBase.CanStop(c)
}

// Postprocess logs test counts when statistics are enabled.
func (n *MeshDistanceNode[P]) Postprocess() {
	if !n.StatisticsEnabled() {
		return
	}
	stats := n.Stats()
	n.logger.Debugw("distance traversal done",
		"bv", n.bvType, "bv_tests", stats.NumBVTests, "leaf_tests", stats.NumLeafTests, "min_distance", n.Result.MinDistance)
}
