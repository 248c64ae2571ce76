package traversal

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"
)

const contactTol = 0.05

func collisionPoints() ([]float64, []float64) {
	rng := rand.New(rand.NewSource(42))
	p1 := randomPoints(rng, 40, 0, 10)
	p2 := randomPoints(rng, 30, 0, 10)
	p2 = append(p2, p1[3]+0.01, p1[17])
	return p1, p2
}

func shifted(points []float64, by float64) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p + by
	}
	return out
}

func TestCollideMatchesBruteForce(t *testing.T) {
	p1, p2 := collisionPoints()
	expected := bruteForceContacts(p1, p2, contactTol)
	test.That(t, len(expected), test.ShouldBeGreaterThanOrEqualTo, 2)

	for _, lowerBound := range []bool{false, true} {
		t.Run(fmt.Sprintf("lower bound %v", lowerBound), func(t *testing.T) {
			node := newLineCollisionNode(p1, p2, contactTol)
			node.Request.EnableDistanceLowerBound = lowerBound
			bound := Collide(node, 0, 0)

			test.That(t, cmp.Equal(sortPairs(node.contacts), sortPairs(expected)), test.ShouldBeTrue)
			test.That(t, node.prunedButColliding, test.ShouldEqual, 0)
			test.That(t, bound, test.ShouldEqual, 0)
			test.That(t, node.preprocessed, test.ShouldEqual, 1)
			test.That(t, node.postprocessed, test.ShouldEqual, 1)
		})
	}
}

func TestCollidePruning(t *testing.T) {
	p1, p2 := collisionPoints()

	pruned := newLineCollisionNode(p1, p2, contactTol)
	pruned.EnableStatistics(true)
	Collide(pruned, 0, 0)

	exhaustive := newLineCollisionNode(p1, p2, contactTol)
	exhaustive.EnableStatistics(true)
	exhaustive.noPrune = true
	Collide(exhaustive, 0, 0)

	test.That(t, cmp.Equal(sortPairs(pruned.contacts), sortPairs(exhaustive.contacts)), test.ShouldBeTrue)
	test.That(t, exhaustive.Stats().NumLeafTests, test.ShouldEqual, len(p1)*len(p2))
	test.That(t, pruned.Stats().NumLeafTests, test.ShouldBeLessThan, len(p1)*len(p2))
	test.That(t, pruned.Stats().NumBVTests, test.ShouldBeGreaterThan, 0)

	t.Run("statistics are off by default", func(t *testing.T) {
		node := newLineCollisionNode(p1, p2, contactTol)
		Collide(node, 0, 0)
		test.That(t, node.Stats().NumBVTests, test.ShouldEqual, 0)
		test.That(t, node.Stats().NumLeafTests, test.ShouldEqual, 0)
	})
}

func TestCollideEarlyTermination(t *testing.T) {
	p1, p2 := collisionPoints()

	for name, run := range map[string]func(*lineCollisionNode) float64{
		"recursive": func(n *lineCollisionNode) float64 { return Collide(n, 0, 0) },
		"stack":     func(n *lineCollisionNode) float64 { return CollideStack(n, 0, 0) },
	} {
		t.Run(name, func(t *testing.T) {
			node := newLineCollisionNode(p1, p2, contactTol)
			node.maxContacts = 1
			bound := run(node)
			test.That(t, node.contacts, test.ShouldHaveLength, 1)
			test.That(t, node.bvTestsAfterStop, test.ShouldEqual, 0)
			test.That(t, bound, test.ShouldEqual, 0)
		})
	}
}

func TestCollideStackMatchesRecursion(t *testing.T) {
	p1, p2 := collisionPoints()
	far := shifted(p2, 20)

	for _, tc := range []struct {
		name        string
		p2          []float64
		maxContacts int
		lowerBound  bool
	}{
		{"exhaustive", p2, 0, false},
		{"first contact", p2, 1, false},
		{"lower bound", p2, 0, true},
		{"disjoint with lower bound", far, 0, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := newLineCollisionNode(p1, tc.p2, contactTol)
			rec.maxContacts = tc.maxContacts
			rec.Request.EnableDistanceLowerBound = tc.lowerBound
			recBound := Collide(rec, 0, 0)

			stk := newLineCollisionNode(p1, tc.p2, contactTol)
			stk.maxContacts = tc.maxContacts
			stk.Request.EnableDistanceLowerBound = tc.lowerBound
			stkBound := CollideStack(stk, 0, 0)

			test.That(t, stkBound, test.ShouldEqual, recBound)
			test.That(t, cmp.Equal(stk.visits, rec.visits, cmp.AllowUnexported(nodePair{})), test.ShouldBeTrue)
			test.That(t, cmp.Equal(stk.contacts, rec.contacts), test.ShouldBeTrue)
			test.That(t, stk.preprocessed, test.ShouldEqual, 1)
			test.That(t, stk.postprocessed, test.ShouldEqual, 1)
		})
	}
}

func TestCollideDistanceLowerBound(t *testing.T) {
	p1, p2 := collisionPoints()
	far := shifted(p2, 20)
	trueMin := bruteForceDistance(p1, far, allIndices(len(p1)), allIndices(len(far)))

	t.Run("enabled", func(t *testing.T) {
		node := newLineCollisionNode(p1, far, contactTol)
		node.Request.EnableDistanceLowerBound = true
		bound := Collide(node, 0, 0)
		test.That(t, node.contacts, test.ShouldBeEmpty)
		test.That(t, bound, test.ShouldBeGreaterThan, 0)
		test.That(t, math.Sqrt(bound), test.ShouldBeLessThanOrEqualTo, trueMin+1e-12)
	})

	t.Run("disabled", func(t *testing.T) {
		node := newLineCollisionNode(p1, far, contactTol)
		bound := Collide(node, 0, 0)
		test.That(t, node.contacts, test.ShouldBeEmpty)
		test.That(t, bound, test.ShouldEqual, 0)
	})
}

func TestCollideLeafRoots(t *testing.T) {
	node := newLineCollisionNode([]float64{1}, []float64{1.01}, contactTol)
	node.EnableStatistics(true)
	Collide(node, 0, 0)
	test.That(t, node.Stats().NumLeafTests, test.ShouldEqual, 1)
	test.That(t, node.Stats().NumBVTests, test.ShouldEqual, 0)
	test.That(t, node.contacts, test.ShouldHaveLength, 1)

	t.Run("leaf against a tree descends only the tree", func(t *testing.T) {
		node := newLineCollisionNode([]float64{1}, []float64{0, 1.01, 2, 3}, contactTol)
		Collide(node, 0, 0)
		test.That(t, cmp.Equal(node.contacts, [][2]int{{0, 1}}), test.ShouldBeTrue)
	})
}

func TestCollideNaNBounds(t *testing.T) {
	p1, p2 := collisionPoints()

	node := newLineCollisionNode(p1, p2, contactTol)
	node.nanBounds = true
	node.Request.EnableDistanceLowerBound = true
	node.EnableStatistics(true)
	bound := Collide(node, 0, 0)
	test.That(t, cmp.Equal(sortPairs(node.contacts), sortPairs(bruteForceContacts(p1, p2, contactTol))), test.ShouldBeTrue)
	test.That(t, node.Stats().NumLeafTests, test.ShouldEqual, len(p1)*len(p2))
	test.That(t, bound, test.ShouldEqual, 0)

	t.Run("bound stays a number without contacts", func(t *testing.T) {
		node := newLineCollisionNode(p1, shifted(p2, 20), contactTol)
		node.nanBounds = true
		node.Request.EnableDistanceLowerBound = true
		bound := CollideStack(node, 0, 0)
		test.That(t, math.IsNaN(bound), test.ShouldBeFalse)
		test.That(t, node.contacts, test.ShouldBeEmpty)
	})
}

func TestCollideIdempotent(t *testing.T) {
	p1, p2 := collisionPoints()
	first := newLineCollisionNode(p1, p2, contactTol)
	firstBound := Collide(first, 0, 0)
	second := newLineCollisionNode(p1, p2, contactTol)
	secondBound := Collide(second, 0, 0)

	test.That(t, secondBound, test.ShouldEqual, firstBound)
	test.That(t, cmp.Equal(first.contacts, second.contacts), test.ShouldBeTrue)
	test.That(t, cmp.Equal(first.visits, second.visits, cmp.AllowUnexported(nodePair{})), test.ShouldBeTrue)
}

func TestCollideDeadline(t *testing.T) {
	p1, p2 := collisionPoints()
	mock := clock.NewMock()

	node := newLineCollisionNode(p1, p2, contactTol)
	node.deadline = NewDeadline(mock, time.Second)
	Collide(node, 0, 0)
	test.That(t, node.contacts, test.ShouldNotBeEmpty)

	mock.Add(time.Second)
	expired := newLineCollisionNode(p1, p2, contactTol)
	expired.deadline = node.deadline
	test.That(t, Collide(expired, 0, 0), test.ShouldEqual, 0)
	test.That(t, expired.visits, test.ShouldBeEmpty)
	test.That(t, expired.postprocessed, test.ShouldEqual, 1)
}
