package traversal

import (
	"github.com/golang/geo/r3"
)

// ConservativeAdvancementStackData is the record a conservative advancement node keeps for one bounding
// volume test, so that when the traversal later decides to prune the pair the motion bound can be
// computed from the volumes and the direction between their closest points.
type ConservativeAdvancementStackData struct {
	P1 r3.Vector
	P2 r3.Vector
	C1 int
	C2 int
	D  float64

	// sibling is set on the second record of a pair while the first is still below it.
	sibling bool
}

// ConservativeAdvancementStack pairs the records pushed by BVTesting with the CanStop calls that
// DistanceRecurse makes on the same bounds.
//
// DistanceRecurse always tests two child pairs back to back and then asks CanStop once for each,
// smaller bound first with ties going to the first pair, fully exploring a pair before asking about the
// next. Push must therefore be called exactly once per BVTesting and Pop exactly once per CanStop.
// Any other traversal order breaks the pairing.
type ConservativeAdvancementStack struct {
	frames []ConservativeAdvancementStackData
	pushes int
}

// Push records the result of one bounding volume test.
func (s *ConservativeAdvancementStack) Push(data ConservativeAdvancementStackData) {
	data.sibling = s.pushes%2 == 1
	s.pushes++
	s.frames = append(s.frames, data)
}

// Pop removes and returns the record the next CanStop call refers to.
func (s *ConservativeAdvancementStack) Pop() ConservativeAdvancementStackData {
	n := len(s.frames)
	back := s.frames[n-1]
	s.frames = s.frames[:n-1]
	if !back.sibling {
		return back
	}

	first := s.frames[n-2]
	if back.D < first.D {
		back.sibling = false
		return back
	}
	back.sibling = false
	s.frames[n-2] = back
	first.sibling = false
	return first
}

// Len returns the number of records not yet popped.
func (s *ConservativeAdvancementStack) Len() int {
	return len(s.frames)
}

// Reset empties the stack.
func (s *ConservativeAdvancementStack) Reset() {
	s.frames = s.frames[:0]
	s.pushes = 0
}
