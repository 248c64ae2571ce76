package collision

import (
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/lmontaut/coal/bvh"
	"github.com/lmontaut/coal/spatialmath"
)

// Primitive is a leaf shape the narrow phase can place in the world and measure against another shape of
// the same kind.
type Primitive[P any] interface {
	bvh.Primitive
	Transform(spatialmath.Pose) P
	// SignedDistance returns the distance to other, negative when penetrating, with a witness point on
	// each shape and the unit direction from the receiver toward other.
	SignedDistance(other P) (float64, r3.Vector, r3.Vector, r3.Vector)
}

// BVType selects how hierarchy boxes are compared once both objects are placed in the world.
type BVType int

const (
	// AABBType re-bounds each placed box with a world axis aligned box. Cheap, but loose under rotation.
	AABBType BVType = iota
	// OBBType keeps each placed box oriented and compares them with the separating axis test.
	OBBType
)

func (t BVType) String() string {
	switch t {
	case AABBType:
		return "aabb"
	case OBBType:
		return "obb"
	default:
		return "unknown"
	}
}

// ParseBVType converts "aabb" or "obb", in any case, to a BVType. The empty string is AABBType.
func ParseBVType(s string) (BVType, error) {
	switch strings.ToLower(s) {
	case "", "aabb":
		return AABBType, nil
	case "obb":
		return OBBType, nil
	default:
		return AABBType, errors.Errorf("unknown bounding volume type %q", s)
	}
}

// volume is one hierarchy box placed in the world.
type volume struct {
	aabb spatialmath.AABB
	box  *spatialmath.Box
}

func placeVolume(t BVType, bv spatialmath.AABB, tf spatialmath.Pose) volume {
	if t == OBBType {
		return volume{box: spatialmath.NewBoxFromAABB(bv, tf)}
	}
	return volume{aabb: bv.Transform(tf)}
}

// volumeDistance returns a lower bound on the distance between two placed volumes, zero if they may touch.
func volumeDistance(t BVType, v1, v2 volume) float64 {
	if t == OBBType {
		gap, _ := spatialmath.BoxSeparation(v1.box, v2.box)
		if gap < 0 {
			return 0
		}
		return gap
	}
	return v1.aabb.Distance(v2.aabb)
}

// volumeWitness is volumeDistance with a point on each volume. The points are exact closest points, so
// the bound is exact for the volumes themselves.
func volumeWitness(t BVType, v1, v2 volume) (float64, r3.Vector, r3.Vector) {
	if t == OBBType {
		d, p1, p2, _ := spatialmath.BoxDistance(v1.box, v2.box)
		return math.Max(d, 0), p1, p2
	}
	p1, p2 := v1.aabb.ClosestPoints(v2.aabb)
	return p2.Sub(p1).Norm(), p1, p2
}

// placed lazily maps items of a model into the world, so queries that stop early only pay for what they
// touch.
type placed[T any] struct {
	items []T
	done  []bool
	place func(int) T
}

func newPlaced[T any](n int, place func(int) T) *placed[T] {
	return &placed[T]{items: make([]T, n), done: make([]bool, n), place: place}
}

func (p *placed[T]) get(i int) T {
	if !p.done[i] {
		p.items[i] = p.place(i)
		p.done[i] = true
	}
	return p.items[i]
}

// placedModel is a model together with the pose it is queried at.
type placedModel[P Primitive[P]] struct {
	model   *bvh.Model[P]
	pose    spatialmath.Pose
	volumes *placed[volume]
	// prims is indexed by position in the model arena.
	prims *placed[P]
}

func newPlacedModel[P Primitive[P]](m *bvh.Model[P], pose spatialmath.Pose, t BVType) *placedModel[P] {
	pm := &placedModel[P]{model: m, pose: pose}
	pm.volumes = newPlaced(m.NumNodes(), func(i int) volume {
		return placeVolume(t, m.BV(i), pose)
	})
	pm.prims = newPlaced(m.NumPrimitives(), func(k int) P {
		return m.ArenaPrimitive(k).Transform(pose)
	})
	return pm
}

// primitive returns the j'th primitive of leaf b, placed in the world, with its original index.
func (pm *placedModel[P]) primitive(b, j int) (P, int) {
	n := pm.model.Node(b)
	return pm.prims.get(n.First + j), pm.model.PrimitiveIDs(b)[j]
}

func (pm *placedModel[P]) volume(b int) volume {
	return pm.volumes.get(b)
}
