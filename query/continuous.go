package query

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/lmontaut/coal/spatialmath"
)

// ContinuousCollisionRequest configures a conservative advancement query over the unit time interval.
type ContinuousCollisionRequest struct {
	// TOIErr is the time step below which the objects are declared in contact.
	TOIErr float64
	// MaxIterations bounds the number of advancement steps.
	MaxIterations int
	Distance      DistanceRequest
}

// NewContinuousCollisionRequest returns a request with the default tolerances.
func NewContinuousCollisionRequest() ContinuousCollisionRequest {
	return ContinuousCollisionRequest{
		TOIErr:        DefaultTOIErr,
		MaxIterations: DefaultMaxIterations,
		Distance:      NewDistanceRequest(),
	}
}

// Validate checks the request for values the traversal cannot honor.
func (r ContinuousCollisionRequest) Validate() error {
	var errs error
	if !(r.TOIErr > 0) || math.IsInf(r.TOIErr, 1) {
		errs = multierr.Append(errs, errors.Errorf("toi tolerance must be finite and positive, got %v", r.TOIErr))
	}
	if r.MaxIterations < 1 {
		errs = multierr.Append(errs, errors.Errorf("max iterations must be at least 1, got %d", r.MaxIterations))
	}
	return multierr.Append(errs, r.Distance.Validate())
}

// ContinuousCollisionResult is the outcome of a conservative advancement query.
type ContinuousCollisionResult struct {
	IsCollide bool
	// TimeOfContact is in [0, 1]. It is 1 when no collision happens over the interval.
	TimeOfContact float64
	Iterations    int
	// ContactTf1 and ContactTf2 are the object poses at TimeOfContact.
	ContactTf1 spatialmath.Pose
	ContactTf2 spatialmath.Pose
}
