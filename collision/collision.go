// Package collision runs collision, distance and continuous collision queries between two bounding
// volume hierarchies placed in the world.
//
// Each query builds a traversal node for the pair of models and hands it to the generic algorithms of
// the traversal package. Models are only read, so a model may take part in any number of concurrent
// queries; results are owned by the caller and must not be shared between concurrent queries.
package collision

import (
	"math"

	"github.com/pkg/errors"

	"github.com/lmontaut/coal/bvh"
	"github.com/lmontaut/coal/logging"
	"github.com/lmontaut/coal/query"
	"github.com/lmontaut/coal/spatialmath"
	"github.com/lmontaut/coal/traversal"
)

var (
	// ErrNilModel is returned when a query is given a nil model or result.
	ErrNilModel = errors.New("collision query needs two models and a result")
	// ErrDeadlineExceeded is returned when a query stopped at its deadline. The result holds what was found
	// up to that point.
	ErrDeadlineExceeded = errors.New("query deadline exceeded")
)

type options struct {
	bvType        BVType
	logger        logging.Logger
	deadline      *traversal.Deadline
	stats         *traversal.Stats
	explicitStack bool
}

// Option configures a query.
type Option func(*options)

// WithBVType selects how hierarchy volumes are compared. The default is AABBType.
func WithBVType(t BVType) Option {
	return func(o *options) {
		o.bvType = t
	}
}

// WithLogger sets the logger used for traversal summaries.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDeadline stops the query once d expires.
func WithDeadline(d *traversal.Deadline) Option {
	return func(o *options) {
		o.deadline = d
	}
}

// WithStatistics counts the tests a query performs into stats, and logs them at debug level.
func WithStatistics(stats *traversal.Stats) Option {
	return func(o *options) {
		o.stats = stats
	}
}

// WithExplicitStack makes collision queries use a heap allocated work stack instead of recursion.
func WithExplicitStack() Option {
	return func(o *options) {
		o.explicitStack = true
	}
}

func newOptions(opts []Option) options {
	o := options{bvType: AABBType, logger: logging.Global()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Collide checks m1 placed at tf1 against m2 placed at tf2 and adds what it finds to res.
func Collide[P Primitive[P]](
	m1 *bvh.Model[P], tf1 spatialmath.Pose,
	m2 *bvh.Model[P], tf2 spatialmath.Pose,
	req query.CollisionRequest, res *query.CollisionResult,
	opts ...Option,
) error {
	if m1 == nil || m2 == nil || res == nil {
		return ErrNilModel
	}
	if err := req.Validate(); err != nil {
		return errors.Wrap(err, "invalid collision request")
	}
	o := newOptions(opts)

	node := NewMeshCollisionNode(m1, tf1, m2, tf2, req, res, opts...)
	var sqrDistLowerBound float64
	if o.explicitStack {
		sqrDistLowerBound = traversal.CollideStack(node, m1.Root(), m2.Root())
	} else {
		sqrDistLowerBound = traversal.Collide(node, m1.Root(), m2.Root())
	}
	if o.stats != nil {
		*o.stats = node.Stats()
	}

	if req.EnableDistanceLowerBound {
		res.UpdateDistanceLowerBound(math.Sqrt(sqrDistLowerBound))
	}
	if res.IsCollision() {
		res.UpdateDistanceLowerBound(0)
	}
	if o.deadline.Expired() && !req.IsSatisfied(res) {
		return ErrDeadlineExceeded
	}
	return nil
}

// Distance measures m1 placed at tf1 against m2 placed at tf2, keeping the closest pair in res.
// Penetrating primitives report a negative distance.
func Distance[P Primitive[P]](
	m1 *bvh.Model[P], tf1 spatialmath.Pose,
	m2 *bvh.Model[P], tf2 spatialmath.Pose,
	req query.DistanceRequest, res *query.DistanceResult,
	opts ...Option,
) error {
	if m1 == nil || m2 == nil || res == nil {
		return ErrNilModel
	}
	if err := req.Validate(); err != nil {
		return errors.Wrap(err, "invalid distance request")
	}
	o := newOptions(opts)

	node := NewMeshDistanceNode(m1, tf1, m2, tf2, req, res, opts...)
	traversal.Distance(node, m1.Root(), m2.Root(), req.QueueSize)
	if o.stats != nil {
		*o.stats = node.Stats()
	}
	if o.deadline.Expired() {
		return ErrDeadlineExceeded
	}
	return nil
}
