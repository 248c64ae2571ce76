package traversal

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"
)

func distancePoints() ([]float64, []float64) {
	rng := rand.New(rand.NewSource(7))
	return randomPoints(rng, 50, 0, 10), randomPoints(rng, 40, 10.5, 20)
}

var queueSizes = []int{0, 2, 3, 5, 32}

func TestDistanceMatchesBruteForce(t *testing.T) {
	interleaved := func() ([]float64, []float64) {
		rng := rand.New(rand.NewSource(11))
		return randomPoints(rng, 30, 0, 10), randomPoints(rng, 30, 0, 10)
	}

	for name, points := range map[string]func() ([]float64, []float64){
		"separated":   distancePoints,
		"interleaved": interleaved,
	} {
		p1, p2 := points()
		expected := bruteForceDistance(p1, p2, allIndices(len(p1)), allIndices(len(p2)))
		for _, qs := range queueSizes {
			t.Run(fmt.Sprintf("%s queue %d", name, qs), func(t *testing.T) {
				node := newLineDistanceNode(p1, p2)
				node.EnableStatistics(true)
				Distance(node, 0, 0, qs)

				res := node.Result
				test.That(t, res.MinDistance, test.ShouldEqual, expected)
				test.That(t, math.Abs(p1[res.Primitive1]-p2[res.Primitive2]), test.ShouldEqual, expected)
				test.That(t, res.NearestPoints[0].X, test.ShouldEqual, p1[res.Primitive1])
				test.That(t, node.badBounds, test.ShouldEqual, 0)
				test.That(t, node.Stats().NumLeafTests, test.ShouldBeLessThan, len(p1)*len(p2))
			})
		}
	}
}

func TestDistanceMonotone(t *testing.T) {
	p1, p2 := distancePoints()
	for _, qs := range queueSizes {
		node := newLineDistanceNode(p1, p2)
		Distance(node, 0, 0, qs)
		test.That(t, node.history, test.ShouldNotBeEmpty)
		for i := 1; i < len(node.history); i++ {
			test.That(t, node.history[i], test.ShouldBeLessThanOrEqualTo, node.history[i-1])
		}
	}
}

func TestDistanceTolerances(t *testing.T) {
	p1, p2 := distancePoints()
	trueMin := bruteForceDistance(p1, p2, allIndices(len(p1)), allIndices(len(p2)))

	exact := newLineDistanceNode(p1, p2)
	exact.EnableStatistics(true)
	Distance(exact, 0, 0, 0)

	t.Run("relative", func(t *testing.T) {
		node := newLineDistanceNode(p1, p2)
		node.Request.RelErr = 0.5
		Distance(node, 0, 0, 0)
		test.That(t, node.Result.MinDistance, test.ShouldBeGreaterThanOrEqualTo, trueMin)
		test.That(t, node.Result.MinDistance, test.ShouldBeLessThanOrEqualTo, 1.5*trueMin)
	})

	t.Run("absolute", func(t *testing.T) {
		node := newLineDistanceNode(p1, p2)
		node.Request.AbsErr = 0.25
		Distance(node, 0, 0, 8)
		test.That(t, node.Result.MinDistance, test.ShouldBeGreaterThanOrEqualTo, trueMin)
		test.That(t, node.Result.MinDistance, test.ShouldBeLessThanOrEqualTo, trueMin+0.25)
	})
}

func TestDistanceNaNBounds(t *testing.T) {
	p1, p2 := distancePoints()
	expected := bruteForceDistance(p1, p2, allIndices(len(p1)), allIndices(len(p2)))
	for _, qs := range queueSizes {
		t.Run(fmt.Sprintf("queue %d", qs), func(t *testing.T) {
			node := newLineDistanceNode(p1, p2)
			node.nanBounds = true
			node.EnableStatistics(true)
			Distance(node, 0, 0, qs)
			test.That(t, node.Result.MinDistance, test.ShouldEqual, expected)
			test.That(t, node.Stats().NumLeafTests, test.ShouldEqual, len(p1)*len(p2))
		})
	}
}

func TestDistanceIdempotent(t *testing.T) {
	p1, p2 := distancePoints()
	for _, qs := range queueSizes {
		first := newLineDistanceNode(p1, p2)
		Distance(first, 0, 0, qs)
		second := newLineDistanceNode(p1, p2)
		Distance(second, 0, 0, qs)
		test.That(t, cmp.Equal(*first.Result, *second.Result), test.ShouldBeTrue)
		test.That(t, cmp.Equal(first.history, second.history), test.ShouldBeTrue)
	}
}

func TestDistanceLeafRoots(t *testing.T) {
	node := newLineDistanceNode([]float64{1}, []float64{3.5})
	node.EnableStatistics(true)
	Distance(node, 0, 0, 0)
	test.That(t, node.Result.MinDistance, test.ShouldEqual, 2.5)
	test.That(t, node.Result.Primitive1, test.ShouldEqual, 0)
	test.That(t, node.Result.Primitive2, test.ShouldEqual, 0)
	test.That(t, node.Stats().NumBVTests, test.ShouldEqual, 0)
}
