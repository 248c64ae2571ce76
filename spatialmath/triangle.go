package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Triangle is three points and a normal vector.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a Triangle from three points. The normal follows the right hand rule.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the three vertices of the triangle.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal of the triangle, or the zero vector if it is degenerate.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Centroid returns the average of the triangle's vertices.
func (t *Triangle) Centroid() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2).Mul(1. / 3)
}

// AABB returns the axis aligned box bounding the triangle in its own frame.
func (t *Triangle) AABB() AABB {
	return NewAABBFromPoints(t.p0, t.p1, t.p2)
}

// Transform returns a copy of the triangle with its vertices mapped through the pose.
func (t *Triangle) Transform(p Pose) *Triangle {
	return NewTriangle(TransformPoint(p, t.p0), TransformPoint(p, t.p1), TransformPoint(p, t.p2))
}

// ClosestPointToCoplanarPoint takes a point, and returns the closest point on the triangle to the given point.
// The given point *MUST* be coplanar with the triangle. If it is known ahead of time that the point is coplanar, this is faster.
func (t *Triangle) ClosestPointToCoplanarPoint(pt r3.Vector) r3.Vector {
	// Determine whether point is inside all triangle edges:
	c0 := pt.Sub(t.p0).Cross(t.p1.Sub(t.p0))
	c1 := pt.Sub(t.p1).Cross(t.p2.Sub(t.p1))
	c2 := pt.Sub(t.p2).Cross(t.p0.Sub(t.p2))
	inside := c0.Dot(t.normal) <= 0 && c1.Dot(t.normal) <= 0 && c2.Dot(t.normal) <= 0

	if inside {
		return pt
	}
	return t.closestEdgePoint(pt)
}

// ClosestPointToPoint takes a point, and returns the closest point on the triangle to the given point.
// This is slower than ClosestPointToCoplanarPoint.
func (t *Triangle) ClosestPointToPoint(point r3.Vector) r3.Vector {
	closestPtInside, inside := t.ClosestInsidePoint(point)
	if inside {
		return closestPtInside
	}

	// If the closest point is outside the triangle, it must be on an edge, so we
	// check each triangle edge for a closest point to the point pt.
	return t.closestEdgePoint(point)
}

func (t *Triangle) closestEdgePoint(point r3.Vector) r3.Vector {
	closestPt := ClosestPointSegmentPoint(t.p0, t.p1, point)
	bestDist := point.Sub(closestPt).Norm2()

	newPt := ClosestPointSegmentPoint(t.p1, t.p2, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		closestPt = newPt
		bestDist = newDist
	}

	newPt = ClosestPointSegmentPoint(t.p2, t.p0, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		return newPt
	}
	return closestPt
}

// ClosestInsidePoint returns the closest point on a triangle IF AND ONLY IF the query point's projection overlaps the triangle.
// Otherwise it will return the query point.
// To visualize this- if one draws a tetrahedron using the triangle and the query point, all angles from the triangle to the query point
// must be <= 90 degrees.
func (t *Triangle) ClosestInsidePoint(point r3.Vector) (r3.Vector, bool) {
	eps := 1e-6

	// Parametrize the triangle s.t. a point inside the triangle is
	// Q = p0 + u * e0 + v * e1, when 0 <= u <= 1, 0 <= v <= 1, and
	// 0 <= u + v <= 1. Let e0 = (p1 - p0) and e1 = (p2 - p0).
	// We analytically minimize the distance between the point pt and Q.
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	a := e0.Norm2()
	b := e0.Dot(e1)
	c := e1.Norm2()
	d := point.Sub(t.p0)
	// The determinant is 0 only if the angle between e1 and e0 is 0
	// (i.e. the triangle has overlapping lines).
	det := (a*c - b*b)
	if det == 0 {
		return point, false
	}
	u := (c*e0.Dot(d) - b*e1.Dot(d)) / det
	v := (-b*e0.Dot(d) + a*e1.Dot(d)) / det
	inside := (0 <= u+eps) && (u <= 1+eps) && (0 <= v+eps) && (v <= 1+eps) && (u+v <= 1+eps)
	return t.p0.Add(e0.Mul(u)).Add(e1.Mul(v)), inside
}

// SegmentIntersection returns the point at which the segment crosses the triangle's interior, if it does.
// Segments lying in the triangle's plane are reported as not crossing; their contact is found by edge tests.
func (t *Triangle) SegmentIntersection(segStart, segEnd r3.Vector) (r3.Vector, bool) {
	d0 := t.normal.Dot(segStart.Sub(t.p0))
	d1 := t.normal.Dot(segEnd.Sub(t.p0))
	if d0*d1 > 0 || d0 == d1 {
		return r3.Vector{}, false
	}
	pt := segStart.Add(segEnd.Sub(segStart).Mul(d0 / (d0 - d1)))
	if _, inside := t.ClosestInsidePoint(pt); !inside {
		return r3.Vector{}, false
	}
	return pt, true
}

// closestPointsSegment returns the closest pair of points between a segment and the triangle,
// the first on the segment and the second on the triangle.
func (t *Triangle) closestPointsSegment(segStart, segEnd r3.Vector) (r3.Vector, r3.Vector) {
	if pt, ok := t.SegmentIntersection(segStart, segEnd); ok {
		return pt, pt
	}

	bestSeg := segStart
	bestTri := t.ClosestPointToPoint(segStart)
	bestDist := bestSeg.Sub(bestTri).Norm2()

	if onTri := t.ClosestPointToPoint(segEnd); segEnd.Sub(onTri).Norm2() < bestDist {
		bestSeg, bestTri = segEnd, onTri
		bestDist = segEnd.Sub(onTri).Norm2()
	}

	pts := t.Points()
	for i := 0; i < 3; i++ {
		onSeg, onEdge := ClosestPointsSegmentSegment(segStart, segEnd, pts[i], pts[(i+1)%3])
		if d := onSeg.Sub(onEdge).Norm2(); d < bestDist {
			bestSeg, bestTri = onSeg, onEdge
			bestDist = d
		}
	}
	return bestSeg, bestTri
}

// TriangleDistance returns the minimum distance between two triangles together with the witness points
// realizing it, the first on t1 and the second on t2. Intersecting triangles have a distance of zero.
func TriangleDistance(t1, t2 *Triangle) (float64, r3.Vector, r3.Vector) {
	best := math.Inf(1)
	var w1, w2 r3.Vector

	pts1 := t1.Points()
	for i := 0; i < 3; i++ {
		onT1, onT2 := t2.closestPointsSegment(pts1[i], pts1[(i+1)%3])
		if d := onT1.Sub(onT2).Norm(); d < best {
			best, w1, w2 = d, onT1, onT2
		}
	}
	pts2 := t2.Points()
	for i := 0; i < 3; i++ {
		onT2, onT1 := t1.closestPointsSegment(pts2[i], pts2[(i+1)%3])
		if d := onT1.Sub(onT2).Norm(); d < best {
			best, w1, w2 = d, onT1, onT2
		}
	}
	return best, w1, w2
}

// SignedDistance returns the distance to other, a witness point on each triangle, and the unit direction
// from t toward other. Triangles never report a negative distance. When they touch or intersect the
// direction falls back to t's normal, oriented toward other.
func (t *Triangle) SignedDistance(other *Triangle) (float64, r3.Vector, r3.Vector, r3.Vector) {
	d, w1, w2 := TriangleDistance(t, other)
	if d > floatEpsilon {
		return d, w1, w2, w2.Sub(w1).Normalize()
	}
	n := t.normal
	if n.Dot(other.Centroid().Sub(t.Centroid())) < 0 {
		n = n.Mul(-1)
	}
	return d, w1, w2, n
}
