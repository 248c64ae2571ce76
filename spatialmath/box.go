package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Ordered list of box vertices.
var boxVertices = [8]r3.Vector{
	{1, 1, 1},
	{1, 1, -1},
	{1, -1, 1},
	{1, -1, -1},
	{-1, 1, 1},
	{-1, 1, -1},
	{-1, -1, 1},
	{-1, -1, -1},
}

// The sets of indices of the box vertices that tile the box exterior.
var boxTriangles = [12][3]int{
	{0, 1, 3},
	{0, 2, 3},
	{0, 1, 5},
	{0, 4, 5},
	{0, 2, 6},
	{0, 4, 6},
	{7, 1, 3},
	{7, 2, 3},
	{7, 1, 5},
	{7, 4, 5},
	{7, 2, 6},
	{7, 4, 6},
}

// The 12 edges of a box, as pairs of vertex indices (vertices differing in exactly one coordinate).
var boxEdgeIndices = [12][2]int{
	{0, 1}, {0, 2}, {0, 4},
	{1, 3}, {1, 5},
	{2, 3}, {2, 6},
	{3, 7},
	{4, 5}, {4, 6},
	{5, 7},
	{6, 7},
}

// Box is a 3D rectangular prism primitive, fully defined by the pose of its center and its half size.
type Box struct {
	center    Pose
	centerPt  r3.Vector
	halfSize  [3]float64
	rotMatrix *RotationMatrix
}

// NewBox instantiates a new box from the pose of its center and its full dimensions.
func NewBox(pose Pose, dims r3.Vector) (*Box, error) {
	// Negative dimensions not allowed. Zero dimensions are allowed for bounding boxes, etc.
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, newBadGeometryDimensionsError("box", dims)
	}
	halfSize := dims.Mul(0.5)
	return &Box{
		center:    pose,
		centerPt:  pose.Point(),
		halfSize:  [3]float64{halfSize.X, halfSize.Y, halfSize.Z},
		rotMatrix: pose.Orientation().RotationMatrix(),
	}, nil
}

// NewBoxFromAABB returns the oriented box obtained by placing an axis aligned box with the given pose.
func NewBoxFromAABB(aabb AABB, pose Pose) *Box {
	half := aabb.HalfSize()
	center := Compose(pose, NewPoseFromPoint(aabb.Center()))
	return &Box{
		center:    center,
		centerPt:  center.Point(),
		halfSize:  [3]float64{half.X, half.Y, half.Z},
		rotMatrix: center.Orientation().RotationMatrix(),
	}
}

// String returns a human readable string that represents the box.
func (b *Box) String() string {
	return fmt.Sprintf("Type: Box | Position: X:%.2f, Y:%.2f, Z:%.2f | Dims: X:%.2f, Y:%.2f, Z:%.2f",
		b.centerPt.X, b.centerPt.Y, b.centerPt.Z, 2*b.halfSize[0], 2*b.halfSize[1], 2*b.halfSize[2])
}

// Pose returns the pose of the box center.
func (b *Box) Pose() Pose {
	return b.center
}

// HalfSize returns the half extents of the box along its own axes.
func (b *Box) HalfSize() r3.Vector {
	return r3.Vector{X: b.halfSize[0], Y: b.halfSize[1], Z: b.halfSize[2]}
}

// Centroid returns the center point of the box.
func (b *Box) Centroid() r3.Vector {
	return b.centerPt
}

// AABB returns the axis aligned box bounding this box in its parent frame.
func (b *Box) AABB() AABB {
	half := b.HalfSize()
	return AABB{Min: half.Mul(-1), Max: half}.Transform(b.center)
}

// Transform premultiplies the box pose with a transform, allowing the box to be moved in space.
func (b *Box) Transform(toPremultiply Pose) *Box {
	p := Compose(toPremultiply, b.center)
	return &Box{
		center:    p,
		centerPt:  p.Point(),
		halfSize:  b.halfSize,
		rotMatrix: p.Orientation().RotationMatrix(),
	}
}

// Axis returns the i'th axis of the box in its parent frame.
func (b *Box) Axis(i int) r3.Vector {
	return b.rotMatrix.Col(i)
}

// Vertices returns the vertices defining the box.
func (b *Box) Vertices() []r3.Vector {
	verts := make([]r3.Vector, 0, 8)
	for _, vert := range boxVertices {
		local := r3.Vector{X: vert.X * b.halfSize[0], Y: vert.Y * b.halfSize[1], Z: vert.Z * b.halfSize[2]}
		verts = append(verts, b.centerPt.Add(b.rotMatrix.Mul(local)))
	}
	return verts
}

// Triangles tiles the box surface with 12 triangles, two per face.
func (b *Box) Triangles() []*Triangle {
	verts := b.Vertices()
	triangles := make([]*Triangle, 0, len(boxTriangles))
	for _, tri := range boxTriangles {
		triangles = append(triangles, NewTriangle(verts[tri[0]], verts[tri[1]], verts[tri[2]]))
	}
	return triangles
}

// ClosestPoint returns the point of the box closest to pt. Points inside the box are returned unchanged.
func (b *Box) ClosestPoint(pt r3.Vector) r3.Vector {
	result := b.centerPt
	direction := pt.Sub(result)
	for i := 0; i < 3; i++ {
		axis := b.Axis(i)
		distance := direction.Dot(axis)
		if distance > b.halfSize[i] {
			distance = b.halfSize[i]
		} else if distance < -b.halfSize[i] {
			distance = -b.halfSize[i]
		}
		result = result.Add(axis.Mul(distance))
	}
	return result
}

// Support returns the vertex of the box farthest along d.
func (b *Box) Support(d r3.Vector) r3.Vector {
	result := b.centerPt
	for i := 0; i < 3; i++ {
		axis := b.Axis(i)
		if d.Dot(axis) >= 0 {
			result = result.Add(axis.Mul(b.halfSize[i]))
		} else {
			result = result.Sub(axis.Mul(b.halfSize[i]))
		}
	}
	return result
}

// deepestPoint is Support with axes orthogonal to d left at the center, so that face contacts
// report the middle of the face rather than one of its corners.
func (b *Box) deepestPoint(d r3.Vector) r3.Vector {
	result := b.centerPt
	for i := 0; i < 3; i++ {
		axis := b.Axis(i)
		switch dot := d.Dot(axis); {
		case dot > floatEpsilon:
			result = result.Add(axis.Mul(b.halfSize[i]))
		case dot < -floatEpsilon:
			result = result.Sub(axis.Mul(b.halfSize[i]))
		}
	}
	return result
}

// BoxSeparation returns the largest gap between the projections of the two boxes over the 15 candidate
// separating axes, together with that axis oriented from a toward b. A positive gap is a lower bound
// on the distance between the boxes; a negative gap is the penetration depth along the returned axis.
// Ties keep the first axis in the order: a's faces, b's faces, edge cross products.
func BoxSeparation(a, b *Box) (float64, r3.Vector) {
	centerDist := b.centerPt.Sub(a.centerPt)

	best := math.Inf(-1)
	var bestAxis r3.Vector
	try := func(axis r3.Vector) {
		gap := separatingAxisTest(centerDist, axis, a.halfSize, b.halfSize, a.rotMatrix, b.rotMatrix)
		if gap > best {
			best = gap
			if axis.Dot(centerDist) < 0 {
				axis = axis.Mul(-1)
			}
			bestAxis = axis
		}
	}

	for i := 0; i < 3; i++ {
		try(a.Axis(i))
	}
	for i := 0; i < 3; i++ {
		try(b.Axis(i))
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			crossProductPlane := a.Axis(i).Cross(b.Axis(j))

			// if edges are parallel, this check is already accounted for by one of the face projections, so skip this case
			if !Float64AlmostEqual(crossProductPlane.Norm(), 0, floatEpsilon) {
				try(crossProductPlane.Normalize())
			}
		}
	}
	return best, bestAxis
}

// BoxDistance returns the signed distance between two boxes with a witness point on each.
// Separated boxes report their exact euclidean distance and closest points. Overlapping boxes report
// the negated penetration depth along the minimum separating axis, with the deepest point of each box
// along that axis as witnesses. The returned normal always points from a toward b.
func BoxDistance(a, b *Box) (float64, r3.Vector, r3.Vector, r3.Vector) {
	gap, axis := BoxSeparation(a, b)
	if gap <= 0 {
		return gap, a.deepestPoint(axis), b.deepestPoint(axis.Mul(-1)), axis
	}

	dist, p1, p2 := boxVsBoxSeparationDist(a, b)
	normal := p2.Sub(p1)
	if normal.Norm2() > 0 {
		normal = normal.Normalize()
	} else {
		normal = axis
	}
	return dist, p1, p2, normal
}

// boxVsBoxSeparationDist computes the exact Euclidean distance between two non-colliding boxes
// by checking all vertex-to-box and edge-to-edge feature pairs.
func boxVsBoxSeparationDist(a, b *Box) (float64, r3.Vector, r3.Vector) {
	vertsA := a.Vertices()
	vertsB := b.Vertices()

	minDist := math.Inf(1)
	var w1, w2 r3.Vector

	// Check each vertex of A against closest point on B, and vice versa.
	for i := range vertsA {
		onB := b.ClosestPoint(vertsA[i])
		if d := vertsA[i].Sub(onB).Norm(); d < minDist {
			minDist, w1, w2 = d, vertsA[i], onB
		}
	}
	for i := range vertsB {
		onA := a.ClosestPoint(vertsB[i])
		if d := vertsB[i].Sub(onA).Norm(); d < minDist {
			minDist, w1, w2 = d, onA, vertsB[i]
		}
	}

	// Check all edge-edge pairs for edge-to-edge closest distance.
	for _, ea := range boxEdgeIndices {
		for _, eb := range boxEdgeIndices {
			onA, onB := ClosestPointsSegmentSegment(vertsA[ea[0]], vertsA[ea[1]], vertsB[eb[0]], vertsB[eb[1]])
			if d := onA.Sub(onB).Norm(); d < minDist {
				minDist, w1, w2 = d, onA, onB
			}
		}
	}

	return minDist, w1, w2
}

// separatingAxisTest projects both boxes onto the plane normal and returns the gap between the projections.
// references: https://gamedev.stackexchange.com/questions/25397/obb-vs-obb-collision-detection
//
//	https://gamedev.stackexchange.com/questions/112883/simple-3d-obb-collision-directx9-c
func separatingAxisTest(positionDelta, plane r3.Vector, halfSizeA, halfSizeB [3]float64, rmA, rmB *RotationMatrix) float64 {
	sum := math.Abs(positionDelta.Dot(plane))
	for i := 0; i < 3; i++ {
		sum -= math.Abs(rmA.Col(i).Mul(halfSizeA[i]).Dot(plane))
		sum -= math.Abs(rmB.Col(i).Mul(halfSizeB[i]).Dot(plane))
	}
	return sum
}

// SignedDistance is BoxDistance with b as the first box.
func (b *Box) SignedDistance(other *Box) (float64, r3.Vector, r3.Vector, r3.Vector) {
	return BoxDistance(b, other)
}
