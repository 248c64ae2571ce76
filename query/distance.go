package query

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DistanceRequest configures a distance query.
type DistanceRequest struct {
	EnableNearestPoints bool
	// RelErr and AbsErr allow pruning branches that cannot improve the answer by more than the tolerance.
	RelErr float64
	AbsErr float64
	// QueueSize selects best first traversal with a priority queue of that capacity when greater than two.
	QueueSize int
}

// NewDistanceRequest returns an exact, depth first distance request.
func NewDistanceRequest() DistanceRequest {
	return DistanceRequest{EnableNearestPoints: true}
}

// Validate checks the request for values the traversal cannot honor.
func (r DistanceRequest) Validate() error {
	var errs error
	if !(r.RelErr >= 0) || math.IsInf(r.RelErr, 1) {
		errs = multierr.Append(errs, errors.Errorf("relative error must be finite and non-negative, got %v", r.RelErr))
	}
	if !(r.AbsErr >= 0) || math.IsInf(r.AbsErr, 1) {
		errs = multierr.Append(errs, errors.Errorf("absolute error must be finite and non-negative, got %v", r.AbsErr))
	}
	if r.QueueSize < 0 {
		errs = multierr.Append(errs, errors.Errorf("queue size must be non-negative, got %d", r.QueueSize))
	}
	return errs
}

// CanStop reports whether a branch whose lower bound is c cannot improve on the current minimum by more
// than the tolerance. A NaN bound never stops.
func (r DistanceRequest) CanStop(c, minDistance float64) bool {
	return c >= minDistance-r.AbsErr && c*(1+r.RelErr) >= minDistance
}

// DistanceResult accumulates the outcome of a distance query.
type DistanceResult struct {
	MinDistance float64
	// Primitive1 and Primitive2 identify the closest pair, -1 until one is found.
	Primitive1    int
	Primitive2    int
	NearestPoints [2]r3.Vector
}

// NewDistanceResult returns an empty result.
func NewDistanceResult() *DistanceResult {
	return &DistanceResult{MinDistance: math.Inf(1), Primitive1: -1, Primitive2: -1}
}

// Update records the pair if d is smaller than the current minimum. MinDistance never increases.
func (r *DistanceResult) Update(d float64, b1, b2 int, p1, p2 r3.Vector) {
	if d < r.MinDistance {
		r.MinDistance = d
		r.Primitive1 = b1
		r.Primitive2 = b2
		r.NearestPoints = [2]r3.Vector{p1, p2}
	}
}

// Clear resets the result so it can be reused for another query.
func (r *DistanceResult) Clear() {
	*r = *NewDistanceResult()
}
