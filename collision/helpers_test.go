package collision

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/lmontaut/coal/bvh"
	"github.com/lmontaut/coal/spatialmath"
)

func boxModel(t *testing.T, min, max r3.Vector) *bvh.BoxModel {
	t.Helper()
	box := spatialmath.NewBoxFromAABB(spatialmath.AABB{Min: min, Max: max}, spatialmath.NewZeroPose())
	m, err := bvh.NewModel([]*spatialmath.Box{box})
	test.That(t, err, test.ShouldBeNil)
	return m
}

func centeredBoxModel(t *testing.T, dims r3.Vector) *bvh.BoxModel {
	t.Helper()
	box, err := spatialmath.NewBox(spatialmath.NewZeroPose(), dims)
	test.That(t, err, test.ShouldBeNil)
	m, err := bvh.NewModel([]*spatialmath.Box{box})
	test.That(t, err, test.ShouldBeNil)
	return m
}

// gridTriangles is an n by n height field over [0, size]^2, two triangles per cell.
func gridTriangles(n int, size float64, height func(x, y float64) float64) []*spatialmath.Triangle {
	step := size / float64(n)
	vertex := func(i, j int) r3.Vector {
		x, y := float64(i)*step, float64(j)*step
		return r3.Vector{X: x, Y: y, Z: height(x, y)}
	}
	tris := make([]*spatialmath.Triangle, 0, 2*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a, b, c, d := vertex(i, j), vertex(i+1, j), vertex(i+1, j+1), vertex(i, j+1)
			tris = append(tris, spatialmath.NewTriangle(a, b, c), spatialmath.NewTriangle(a, c, d))
		}
	}
	return tris
}

func wavy(x, y float64) float64 {
	return 0.2 * math.Sin(x) * math.Cos(y)
}

func gridModel(t *testing.T) (*bvh.MeshModel, []*spatialmath.Triangle) {
	t.Helper()
	tris := gridTriangles(8, 4, wavy)
	m, err := bvh.NewMeshModel(tris)
	test.That(t, err, test.ShouldBeNil)
	return m, tris
}

// crossingPose stands a grid upright across the middle of another.
func crossingPose() spatialmath.Pose {
	return spatialmath.NewPose(r3.Vector{X: 0.3, Y: 2.1, Z: -2}, &spatialmath.R4AA{Theta: math.Pi / 2, RX: 1})
}

// abovePose places a grid over another, slightly tilted, without touching it.
func abovePose() spatialmath.Pose {
	return spatialmath.NewPose(r3.Vector{X: 0.5, Y: -0.3, Z: 1.5}, &spatialmath.R4AA{Theta: 0.2, RX: 1, RY: 1})
}

type primitivePair struct {
	id1, id2 int
}

func bruteForceCollisions(tris1 []*spatialmath.Triangle, tf1 spatialmath.Pose, tris2 []*spatialmath.Triangle, tf2 spatialmath.Pose,
	threshold float64,
) map[primitivePair]bool {
	out := map[primitivePair]bool{}
	for i, a := range tris1 {
		for j, b := range tris2 {
			if d, _, _, _ := a.Transform(tf1).SignedDistance(b.Transform(tf2)); d <= threshold {
				out[primitivePair{i, j}] = true
			}
		}
	}
	return out
}

func bruteForceDistance(tris1 []*spatialmath.Triangle, tf1 spatialmath.Pose, tris2 []*spatialmath.Triangle, tf2 spatialmath.Pose,
) float64 {
	best := math.Inf(1)
	for _, a := range tris1 {
		for _, b := range tris2 {
			d, _, _, _ := a.Transform(tf1).SignedDistance(b.Transform(tf2))
			best = math.Min(best, d)
		}
	}
	return best
}
