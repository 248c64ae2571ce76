package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) and Orientation() returns the rotation.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type distalPose struct {
	point r3.Vector
	rot   quat.Number
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return &distalPose{rot: quat.Number{Real: 1}}
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return &distalPose{point: p, rot: NewOrientationFromQuaternion(o.Quaternion()).Quaternion()}
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a pose with no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &distalPose{point: point, rot: quat.Number{Real: 1}}
}

// NewPoseFromOrientation takes in an orientation and stores it as a pose at the origin.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

func (p *distalPose) Point() r3.Vector {
	return p.point
}

func (p *distalPose) Orientation() Orientation {
	q := quaternion(p.rot)
	return &q
}

func (p *distalPose) String() string {
	aa := QuatToR4AA(p.rot)
	return fmt.Sprintf("{X:%.3f Y:%.3f Z:%.3f TH:%.3f RX:%.3f RY:%.3f RZ:%.3f}",
		p.point.X, p.point.Y, p.point.Z, aa.Theta, aa.RX, aa.RY, aa.RZ)
}

// Compose takes two poses and chains them such that
// the second pose is expressed in the frame of the first.
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	return &distalPose{
		point: a.Point().Add(rotate(qa, b.Point())),
		rot:   quat.Mul(qa, b.Orientation().Quaternion()),
	}
}

// PoseInverse returns the inverse of a pose.
func PoseInverse(p Pose) Pose {
	inv := quat.Conj(p.Orientation().Quaternion())
	return &distalPose{point: rotate(inv, p.Point()).Mul(-1), rot: inv}
}

// PoseBetween returns the difference between two poses, i.e. the pose that composed onto a gives b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// TransformPoint maps a point expressed in the pose's frame into the parent frame.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return p.Point().Add(rotate(p.Orientation().Quaternion(), pt))
}

// RotatePoint applies only the rotational part of a pose to a point.
func RotatePoint(p Pose, pt r3.Vector) r3.Vector {
	return rotate(p.Orientation().Quaternion(), pt)
}

// Interpolate will return a new Pose that has been interpolated the set amount between two poses.
// Translation is interpolated linearly and rotation along the shorter great arc.
func Interpolate(p1, p2 Pose, by float64) Pose {
	pt := p1.Point().Mul(1 - by).Add(p2.Point().Mul(by))
	return &distalPose{
		point: pt,
		rot:   Slerp(p1.Orientation().Quaternion(), p2.Orientation().Quaternion(), by),
	}
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), epsilon)
}

func rotate(q quat.Number, v r3.Vector) r3.Vector {
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}
