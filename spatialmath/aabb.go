package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// AABB is an axis aligned bounding box described by its minimum and maximum corners.
type AABB struct {
	Min r3.Vector
	Max r3.Vector
}

// NewAABBFromPoints returns the smallest box containing every given point.
func NewAABBFromPoints(pts ...r3.Vector) AABB {
	box := AABB{
		Min: r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, pt := range pts {
		box.Min = r3.Vector{X: math.Min(box.Min.X, pt.X), Y: math.Min(box.Min.Y, pt.Y), Z: math.Min(box.Min.Z, pt.Z)}
		box.Max = r3.Vector{X: math.Max(box.Max.X, pt.X), Y: math.Max(box.Max.Y, pt.Y), Z: math.Max(box.Max.Z, pt.Z)}
	}
	return box
}

// ComputeTrianglesAABB returns the box bounding every vertex of the triangles.
func ComputeTrianglesAABB(triangles []*Triangle) AABB {
	pts := make([]r3.Vector, 0, 3*len(triangles))
	for _, tri := range triangles {
		pts = append(pts, tri.p0, tri.p1, tri.p2)
	}
	return NewAABBFromPoints(pts...)
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(other AABB) AABB {
	return NewAABBFromPoints(b.Min, b.Max, other.Min, other.Max)
}

// Center returns the midpoint of the box.
func (b AABB) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// HalfSize returns half of the box's extent along each axis.
func (b AABB) HalfSize() r3.Vector {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Size returns the squared length of the box diagonal, used to compare how large two boxes are.
func (b AABB) Size() float64 {
	return b.Max.Sub(b.Min).Norm2()
}

// Volume returns the volume enclosed by the box.
func (b AABB) Volume() float64 {
	d := b.Max.Sub(b.Min)
	return d.X * d.Y * d.Z
}

// Inflate grows the box by margin in every direction.
func (b AABB) Inflate(margin float64) AABB {
	m := r3.Vector{X: margin, Y: margin, Z: margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Contains reports whether the point lies in the closed box.
func (b AABB) Contains(pt r3.Vector) bool {
	return pt.X >= b.Min.X && pt.X <= b.Max.X &&
		pt.Y >= b.Min.Y && pt.Y <= b.Max.Y &&
		pt.Z >= b.Min.Z && pt.Z <= b.Max.Z
}

// Corners returns the eight vertices of the box.
func (b AABB) Corners() [8]r3.Vector {
	var corners [8]r3.Vector
	for i := range corners {
		corners[i] = r3.Vector{
			X: pick(i&1 == 0, b.Min.X, b.Max.X),
			Y: pick(i&2 == 0, b.Min.Y, b.Max.Y),
			Z: pick(i&4 == 0, b.Min.Z, b.Max.Z),
		}
	}
	return corners
}

// Overlaps reports whether two boxes intersect. Touching faces count as overlapping.
func (b AABB) Overlaps(other AABB) bool {
	return b.Min.X <= other.Max.X && b.Max.X >= other.Min.X &&
		b.Min.Y <= other.Max.Y && b.Max.Y >= other.Min.Y &&
		b.Min.Z <= other.Max.Z && b.Max.Z >= other.Min.Z
}

// Distance returns the euclidean distance between the closest points of two boxes, zero if they overlap.
func (b AABB) Distance(other AABB) float64 {
	return math.Sqrt(b.SquaredDistance(other))
}

// SquaredDistance returns the squared euclidean distance between two boxes.
func (b AABB) SquaredDistance(other AABB) float64 {
	dx := axisGap(b.Min.X, b.Max.X, other.Min.X, other.Max.X)
	dy := axisGap(b.Min.Y, b.Max.Y, other.Min.Y, other.Max.Y)
	dz := axisGap(b.Min.Z, b.Max.Z, other.Min.Z, other.Max.Z)
	return dx*dx + dy*dy + dz*dz
}

// ClosestPoints returns a pair of points, one in each box, realizing the distance between them.
// Along axes where the boxes overlap both points sit at the middle of the shared interval.
func (b AABB) ClosestPoints(other AABB) (r3.Vector, r3.Vector) {
	x1, x2 := axisWitness(b.Min.X, b.Max.X, other.Min.X, other.Max.X)
	y1, y2 := axisWitness(b.Min.Y, b.Max.Y, other.Min.Y, other.Max.Y)
	z1, z2 := axisWitness(b.Min.Z, b.Max.Z, other.Min.Z, other.Max.Z)
	return r3.Vector{X: x1, Y: y1, Z: z1}, r3.Vector{X: x2, Y: y2, Z: z2}
}

// Transform returns the axis aligned box in the parent frame that encloses this box moved by the pose.
// The result is conservative: rotated boxes are bounded by the box around their transformed corners.
func (b AABB) Transform(pose Pose) AABB {
	rm := pose.Orientation().RotationMatrix()
	center := TransformPoint(pose, b.Center())
	half := b.HalfSize()
	var extent r3.Vector
	for i := 0; i < 3; i++ {
		row := rm.Row(i)
		e := math.Abs(row.X)*half.X + math.Abs(row.Y)*half.Y + math.Abs(row.Z)*half.Z
		switch i {
		case 0:
			extent.X = e
		case 1:
			extent.Y = e
		default:
			extent.Z = e
		}
	}
	return AABB{Min: center.Sub(extent), Max: center.Add(extent)}
}

func axisGap(min1, max1, min2, max2 float64) float64 {
	switch {
	case max1 < min2:
		return min2 - max1
	case max2 < min1:
		return min1 - max2
	default:
		return 0
	}
}

func axisWitness(min1, max1, min2, max2 float64) (float64, float64) {
	switch {
	case max1 < min2:
		return max1, min2
	case max2 < min1:
		return min1, max2
	default:
		mid := (math.Max(min1, min2) + math.Min(max1, max2)) / 2
		return mid, mid
	}
}

func pick(first bool, a, b float64) float64 {
	if first {
		return a
	}
	return b
}
