package collision

import (
	"github.com/pkg/errors"

	"github.com/lmontaut/coal/bvh"
	"github.com/lmontaut/coal/logging"
	"github.com/lmontaut/coal/query"
	"github.com/lmontaut/coal/spatialmath"
	"github.com/lmontaut/coal/traversal"
)

// MeshConservativeAdvancementNode is a distance node that, alongside the distance, computes how far in
// time both objects can advance along their motions before they could possibly touch.
//
// It relies on traversal.DistanceRecurse pairing every BVTesting with a later CanStop on the same bound,
// and must not be driven by the queue traversal.
type MeshConservativeAdvancementNode[P Primitive[P]] struct {
	traversal.DistanceNodeBase
	*modelPair[P]

	motion1 Motion
	motion2 Motion
	stack   traversal.ConservativeAdvancementStack

	// DeltaT is the largest safe time step found so far, starting at 1.
	DeltaT float64
	// W scales the stop test, values below 1 prune more aggressively.
	W float64

	deadline *traversal.Deadline
	logger   logging.Logger
}

// NewMeshConservativeAdvancementNode returns a node for m1 and m2 at the given poses, moving along the
// given motions.
func NewMeshConservativeAdvancementNode[P Primitive[P]](
	m1 *bvh.Model[P], tf1 spatialmath.Pose, motion1 Motion,
	m2 *bvh.Model[P], tf2 spatialmath.Pose, motion2 Motion,
	req query.DistanceRequest, res *query.DistanceResult,
	opts ...Option,
) *MeshConservativeAdvancementNode[P] {
	o := newOptions(opts)
	n := &MeshConservativeAdvancementNode[P]{
		DistanceNodeBase: traversal.DistanceNodeBase{
			NodeBase: traversal.NewNodeBase(tf1, tf2),
			Request:  req,
			Result:   res,
		},
		modelPair: newModelPair(m1, tf1, m2, tf2, o.bvType),
		motion1:   motion1,
		motion2:   motion2,
		DeltaT:    1,
		W:         1,
		deadline:  o.deadline,
		logger:    o.logger,
	}
	n.EnableStatistics(o.stats != nil)
	return n
}

// Preprocess resets the time step and the frame stack.
func (n *MeshConservativeAdvancementNode[P]) Preprocess() {
	n.DeltaT = 1
	n.stack.Reset()
}

// BVTesting returns the exact distance between the placed volumes and records it with its witnesses.
func (n *MeshConservativeAdvancementNode[P]) BVTesting(b1, b2 int) float64 {
	n.CountBVTest()
	d, p1, p2 := volumeWitness(n.bvType, n.first.volume(b1), n.second.volume(b2))
	n.stack.Push(traversal.ConservativeAdvancementStackData{P1: p1, P2: p2, C1: b1, C2: b2, D: d})
	return d
}

// LeafTesting measures every primitive pair of the two leaves and shortens the time step by how fast
// each pair can close its gap.
func (n *MeshConservativeAdvancementNode[P]) LeafTesting(b1, b2 int) {
	n.CountLeafTest()
	// The leaf volumes, in each object's frame, contain every primitive of the leaf.
	corners1 := n.first.model.BV(b1).Corners()
	corners2 := n.second.model.BV(b2).Corners()
	n.forEachPrimitivePair(b1, b2, func(p1, p2 P, id1, id2 int) bool {
		d, w1, w2, normal := p1.SignedDistance(p2)
		n.Result.Update(d, id1, id2, w1, w2)
		bound := n.motion1.MotionBound(corners1[:], normal) + n.motion2.MotionBound(corners2[:], normal.Mul(-1))
		n.advance(d, bound)
		return true
	})
}

// CanStop pops the frame recorded for c. When the pair is pruned its volumes still bound the time step.
func (n *MeshConservativeAdvancementNode[P]) CanStop(c float64) bool {
	frame := n.stack.Pop()
	if n.deadline.Expired() {
		return true
	}

	minDistance := n.Result.MinDistance
	if !(c >= n.W*(minDistance-n.Request.AbsErr) && c*(1+n.Request.RelErr) >= n.W*minDistance) {
		return false
	}

	normal := frame.P2.Sub(frame.P1)
	if normal.Norm2() > 0 {
		normal = normal.Normalize()
	}
	corners1 := n.first.model.BV(frame.C1).Corners()
	corners2 := n.second.model.BV(frame.C2).Corners()
	bound := n.motion1.MotionBound(corners1[:], normal) + n.motion2.MotionBound(corners2[:], normal.Mul(-1))
	n.advance(c, bound)
	return true
}

func (n *MeshConservativeAdvancementNode[P]) advance(d, bound float64) {
	step := 1.
	if bound > d {
		step = d / bound
	}
	if step < n.DeltaT {
		n.DeltaT = step
	}
}

// ContinuousCollide sweeps m1 along motion1 and m2 along motion2 over the unit time interval and reports
// the first time they touch, to within req.TOIErr. Each step measures the distance between the objects
// and advances time by that distance over the fastest the objects can approach each other, so the objects
// never pass through each other between steps.
func ContinuousCollide[P Primitive[P]](
	m1 *bvh.Model[P], motion1 Motion,
	m2 *bvh.Model[P], motion2 Motion,
	req query.ContinuousCollisionRequest,
	opts ...Option,
) (*query.ContinuousCollisionResult, error) {
	if m1 == nil || m2 == nil || motion1 == nil || motion2 == nil {
		return nil, ErrNilModel
	}
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid continuous collision request")
	}
	o := newOptions(opts)

	tf1, tf2 := motion1.PoseAt(0), motion2.PoseAt(0)
	result := &query.ContinuousCollisionResult{ContactTf1: tf1, ContactTf2: tf2}

	start := query.NewCollisionResult()
	startReq := query.NewCollisionRequest()
	startReq.EnableContact = false
	if err := Collide(m1, tf1, m2, tf2, startReq, start, opts...); err != nil {
		return nil, err
	}
	if start.IsCollision() {
		result.IsCollide = true
		return result, nil
	}

	var stats traversal.Stats
	toc := 0.
	for {
		if result.Iterations >= req.MaxIterations {
			o.logger.Warnw("conservative advancement hit the iteration limit, reporting contact at the last safe time",
				"iterations", result.Iterations, "time", toc)
			break
		}
		result.Iterations++

		node := NewMeshConservativeAdvancementNode(m1, tf1, motion1, m2, tf2, motion2,
			req.Distance, query.NewDistanceResult(), opts...)
		traversal.Distance(node, m1.Root(), m2.Root(), 0)
		stats.NumBVTests += node.Stats().NumBVTests
		stats.NumLeafTests += node.Stats().NumLeafTests
		if o.deadline.Expired() {
			return nil, ErrDeadlineExceeded
		}

		if node.DeltaT <= req.TOIErr {
			break
		}
		toc += node.DeltaT
		if toc >= 1 {
			toc = 1
			break
		}
		tf1, tf2 = motion1.PoseAt(toc), motion2.PoseAt(toc)
	}
	if o.stats != nil {
		*o.stats = stats
	}

	result.IsCollide = toc < 1
	result.TimeOfContact = toc
	result.ContactTf1 = motion1.PoseAt(toc)
	result.ContactTf2 = motion2.PoseAt(toc)
	return result, nil
}
