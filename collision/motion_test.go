package collision

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/lmontaut/coal/spatialmath"
)

func TestTranslationMotion(t *testing.T) {
	start := spatialmath.NewPose(r3.Vector{1, 0, 0}, &spatialmath.R4AA{Theta: 0.3, RZ: 1})
	m := NewTranslationMotion(start, r3.Vector{1, 2, 3})

	mid := m.PoseAt(0.25)
	test.That(t, spatialmath.R3VectorAlmostEqual(mid.Point(), r3.Vector{1.25, 0.5, 0.75}, 1e-12), test.ShouldBeTrue)
	test.That(t, spatialmath.OrientationAlmostEqual(mid.Orientation(), start.Orientation()), test.ShouldBeTrue)

	test.That(t, m.MotionBound([]r3.Vector{{100, 0, 0}}, r3.Vector{0, 1, 0}), test.ShouldEqual, 2)
	test.That(t, m.MotionBound(nil, r3.Vector{0, 0, -1}), test.ShouldEqual, -3)
}

func TestInterpMotion(t *testing.T) {
	end := spatialmath.NewPose(r3.Vector{2, 0, 0}, &spatialmath.R4AA{Theta: math.Pi / 2, RZ: 1})
	m := NewInterpMotion(spatialmath.NewZeroPose(), end)

	mid := m.PoseAt(0.5)
	test.That(t, spatialmath.R3VectorAlmostEqual(mid.Point(), r3.Vector{1, 0, 0}, 1e-12), test.ShouldBeTrue)
	test.That(t, spatialmath.OrientationAlmostEqual(mid.Orientation(), &spatialmath.R4AA{Theta: math.Pi / 4, RZ: 1}), test.ShouldBeTrue)
	test.That(t, spatialmath.PoseAlmostEqual(m.PoseAt(1), end), test.ShouldBeTrue)

	pts := []r3.Vector{{1, 0, 0}, {0, 3, 4}}
	test.That(t, m.MotionBound(pts, r3.Vector{1, 0, 0}), test.ShouldAlmostEqual, 2+math.Pi/2*5)
	test.That(t, m.MotionBound(pts, r3.Vector{-1, 0, 0}), test.ShouldAlmostEqual, -2+math.Pi/2*5)

	still := NewInterpMotion(end, end)
	test.That(t, still.MotionBound(pts, r3.Vector{0, 1, 0}), test.ShouldAlmostEqual, 0)
}
