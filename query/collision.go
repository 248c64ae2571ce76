// Package query holds the request and result types shared by traversal nodes and the public query
// entry points. Requests are plain values validated once per query; results are borrowed mutably by a
// single traversal and are not safe for concurrent use.
package query

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Default request values.
const (
	DefaultBreakDistance              = 1e-3
	DefaultCollisionDistanceThreshold = 1e-12
	DefaultTOIErr                     = 1e-4
	DefaultMaxIterations              = 100
)

// Contact describes one pair of touching or overlapping primitives.
//
// Normal points from object 1 toward object 2 in the world frame. PenetrationDepth is positive when the
// primitives overlap. Pos is the midpoint of the two witness points.
type Contact struct {
	// B1 and B2 are the primitive indices, in the order the models were built from.
	B1               int
	B2               int
	Normal           r3.Vector
	Pos              r3.Vector
	PenetrationDepth float64
	NearestPoints    [2]r3.Vector
}

// CollisionRequest configures a discrete collision query.
type CollisionRequest struct {
	// NumMaxContacts is how many contacts to gather before the query stops.
	NumMaxContacts int
	// EnableContact requests normals, positions and depths for each contact.
	EnableContact bool
	// EnableDistanceLowerBound keeps traversing non-colliding branches to tighten DistanceLowerBound.
	EnableDistanceLowerBound bool
	// SecurityMargin inflates both objects. It may be negative.
	SecurityMargin float64
	// BreakDistance is the bounding volume gap below which a lower bound is still tracked.
	BreakDistance float64
	// CollisionDistanceThreshold is the separation at or below which primitives count as colliding.
	CollisionDistanceThreshold float64
}

// NewCollisionRequest returns a request gathering a single contact.
func NewCollisionRequest() CollisionRequest {
	return CollisionRequest{
		NumMaxContacts:             1,
		EnableContact:              true,
		BreakDistance:              DefaultBreakDistance,
		CollisionDistanceThreshold: DefaultCollisionDistanceThreshold,
	}
}

// Validate checks the request for values the traversal cannot honor.
func (r CollisionRequest) Validate() error {
	var errs error
	if r.NumMaxContacts < 1 {
		errs = multierr.Append(errs, errors.Errorf("num max contacts must be at least 1, got %d", r.NumMaxContacts))
	}
	if math.IsNaN(r.SecurityMargin) || math.IsInf(r.SecurityMargin, 0) {
		errs = multierr.Append(errs, errors.Errorf("security margin must be finite, got %v", r.SecurityMargin))
	}
	if !(r.BreakDistance >= 0) {
		errs = multierr.Append(errs, errors.Errorf("break distance must be non-negative, got %v", r.BreakDistance))
	}
	if !(r.CollisionDistanceThreshold >= 0) {
		errs = multierr.Append(errs, errors.Errorf("collision distance threshold must be non-negative, got %v",
			r.CollisionDistanceThreshold))
	}
	return errs
}

// IsSatisfied reports whether the result already holds everything the request asked for.
func (r CollisionRequest) IsSatisfied(result *CollisionResult) bool {
	return result.IsCollision() && r.NumMaxContacts <= result.NumContacts()
}

// CollisionResult accumulates the outcome of a collision query.
type CollisionResult struct {
	contacts []Contact
	// DistanceLowerBound never exceeds the true distance between the objects. It is zero once a
	// collision is found and +Inf until a bound is known.
	DistanceLowerBound float64
}

// NewCollisionResult returns an empty result.
func NewCollisionResult() *CollisionResult {
	return &CollisionResult{DistanceLowerBound: math.Inf(1)}
}

// AddContact appends a contact.
func (r *CollisionResult) AddContact(c Contact) {
	r.contacts = append(r.contacts, c)
}

// UpdateDistanceLowerBound lowers the recorded bound to d if d is smaller.
func (r *CollisionResult) UpdateDistanceLowerBound(d float64) {
	if d < r.DistanceLowerBound {
		r.DistanceLowerBound = d
	}
}

// IsCollision reports whether any contact was found.
func (r *CollisionResult) IsCollision() bool {
	return len(r.contacts) > 0
}

// NumContacts returns the number of contacts found.
func (r *CollisionResult) NumContacts() int {
	return len(r.contacts)
}

// Contact returns the i'th contact.
func (r *CollisionResult) Contact(i int) (Contact, error) {
	if i < 0 || i >= len(r.contacts) {
		return Contact{}, errors.Errorf("contact index %d out of range [0, %d)", i, len(r.contacts))
	}
	return r.contacts[i], nil
}

// Contacts returns a copy of all contacts in the order they were found.
func (r *CollisionResult) Contacts() []Contact {
	return append([]Contact(nil), r.contacts...)
}

// Clear resets the result so it can be reused for another query.
func (r *CollisionResult) Clear() {
	r.contacts = r.contacts[:0]
	r.DistanceLowerBound = math.Inf(1)
}
