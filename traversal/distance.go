package traversal

import (
	"container/heap"
	"math"
)

// Distance runs a full distance traversal from the two roots, calling Preprocess and Postprocess around
// it. A queueSize greater than two selects the best-first traversal of DistanceQueue.
func Distance[N DistanceNode](node N, root1, root2, queueSize int) {
	node.Preprocess()
	DistanceQueue(node, root1, root2, queueSize)
	node.Postprocess()
}

// DistanceRecurse visits the pair (b1, b2) depth first. Of the two child pairs, the one with the smaller
// bound is visited first, and each is skipped when the node says its bound cannot improve the result.
// The pair itself is not bounding volume tested.
func DistanceRecurse[N DistanceNode](node N, b1, b2 int) {
	l1 := node.IsFirstNodeLeaf(b1)
	l2 := node.IsSecondNodeLeaf(b2)
	if l1 && l2 {
		node.LeafTesting(b1, b2)
		return
	}

	a1, a2, c1, c2 := childPairs(node, b1, b2, l1, l2)
	d1 := node.BVTesting(a1, a2)
	d2 := node.BVTesting(c1, c2)

	if d2 < d1 {
		if !node.CanStop(d2) {
			DistanceRecurse(node, c1, c2)
		}
		if !node.CanStop(d1) {
			DistanceRecurse(node, a1, a2)
		}
		return
	}
	if !node.CanStop(d1) {
		DistanceRecurse(node, a1, a2)
	}
	if !node.CanStop(d2) {
		DistanceRecurse(node, c1, c2)
	}
}

// DistanceQueue visits pairs in increasing order of their bound using a priority queue holding at most
// queueSize pairs. When the queue cannot take two more pairs the front pair is expanded by a nested
// traversal with a fresh queue. The search ends at the first popped pair that the node can stop on,
// since no pair left in the queue has a smaller bound. A queueSize of two or less falls back to
// DistanceRecurse.
func DistanceQueue[N DistanceNode](node N, b1, b2, queueSize int) {
	if queueSize <= 2 {
		DistanceRecurse(node, b1, b2)
		return
	}

	q := &pairQueue{}
	current := queuedPair{b1: b1, b2: b2}
	for {
		l1 := node.IsFirstNodeLeaf(current.b1)
		l2 := node.IsSecondNodeLeaf(current.b2)
		switch {
		case l1 && l2:
			node.LeafTesting(current.b1, current.b2)
		case q.Len()+1 >= queueSize:
			DistanceQueue(node, current.b1, current.b2, queueSize)
		default:
			a1, a2, c1, c2 := childPairs(node, current.b1, current.b2, l1, l2)
			q.push(a1, a2, node.BVTesting(a1, a2))
			q.push(c1, c2, node.BVTesting(c1, c2))
		}

		if q.Len() == 0 {
			return
		}
		current = heap.Pop(q).(queuedPair)
		if node.CanStop(current.d) {
			return
		}
	}
}

type queuedPair struct {
	b1, b2 int
	d      float64
	// key orders the queue. An unknown bound sorts first so it is never dropped by an early stop.
	key float64
	seq int
}

// pairQueue is a min-heap on key, ties broken by insertion order.
type pairQueue struct {
	items []queuedPair
	seq   int
}

func (q *pairQueue) push(b1, b2 int, d float64) {
	key := d
	if math.IsNaN(key) {
		key = math.Inf(-1)
	}
	heap.Push(q, queuedPair{b1: b1, b2: b2, d: d, key: key, seq: q.seq})
	q.seq++
}

func (q *pairQueue) Len() int { return len(q.items) }

func (q *pairQueue) Less(i, j int) bool {
	if q.items[i].key != q.items[j].key {
		return q.items[i].key < q.items[j].key
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *pairQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *pairQueue) Push(x interface{}) {
	q.items = append(q.items, x.(queuedPair))
}

func (q *pairQueue) Pop() interface{} {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	return item
}
