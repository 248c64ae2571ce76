package collision

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/lmontaut/coal/spatialmath"
)

// Motion is a rigid motion of an object over the unit time interval.
type Motion interface {
	// PoseAt returns the object's pose at time t in [0, 1].
	PoseAt(t float64) spatialmath.Pose
	// MotionBound returns an upper bound on the speed, per unit of time, at which any of pts moves along
	// the world direction n. The points are given in the object's frame.
	MotionBound(pts []r3.Vector, n r3.Vector) float64
}

// TranslationMotion moves an object by a constant velocity without rotating it.
type TranslationMotion struct {
	start spatialmath.Pose
	delta r3.Vector
}

// NewTranslationMotion returns a motion starting at start and translating by delta over the interval.
func NewTranslationMotion(start spatialmath.Pose, delta r3.Vector) *TranslationMotion {
	return &TranslationMotion{start: start, delta: delta}
}

// PoseAt returns the start pose moved by t times the translation.
func (m *TranslationMotion) PoseAt(t float64) spatialmath.Pose {
	return spatialmath.NewPose(m.start.Point().Add(m.delta.Mul(t)), m.start.Orientation())
}

// MotionBound is exact for a translation: every point moves at delta.
func (m *TranslationMotion) MotionBound(pts []r3.Vector, n r3.Vector) float64 {
	return m.delta.Dot(n)
}

// InterpMotion moves an object from one pose to another, interpolating its origin linearly and its
// orientation along the shorter great arc, both at constant rate.
type InterpMotion struct {
	start   spatialmath.Pose
	end     spatialmath.Pose
	linear  r3.Vector
	angular float64
}

// NewInterpMotion returns the motion from start to end.
func NewInterpMotion(start, end spatialmath.Pose) *InterpMotion {
	rel := quat.Mul(end.Orientation().Quaternion(), quat.Conj(start.Orientation().Quaternion()))
	return &InterpMotion{
		start:   start,
		end:     end,
		linear:  end.Point().Sub(start.Point()),
		angular: spatialmath.QuatAngle(rel),
	}
}

// PoseAt interpolates between the two end poses.
func (m *InterpMotion) PoseAt(t float64) spatialmath.Pose {
	return spatialmath.Interpolate(m.start, m.end, t)
}

// MotionBound adds the translation along n to the largest speed a point can get from the rotation about
// the object's origin.
func (m *InterpMotion) MotionBound(pts []r3.Vector, n r3.Vector) float64 {
	var radius float64
	for _, p := range pts {
		radius = math.Max(radius, p.Norm())
	}
	return m.linear.Dot(n) + m.angular*radius
}
