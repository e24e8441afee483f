package geom

// SegmentSet holds segments with set semantics under undirected equality.
// Iteration follows insertion order, so passes over a set are reproducible.
// The zero value is not usable; call NewSegmentSet.
type SegmentSet struct {
	index map[LineSegment]int
	items []LineSegment
}

// NewSegmentSet returns a set holding segs, skipping duplicates.
func NewSegmentSet(segs ...LineSegment) *SegmentSet {
	s := &SegmentSet{index: make(map[LineSegment]int, len(segs))}
	for _, seg := range segs {
		s.Add(seg)
	}
	return s
}

// Add inserts seg and reports whether it was not already present. A segment
// equal to a member, in either direction, is not added.
func (s *SegmentSet) Add(seg LineSegment) bool {
	k := seg.Key()
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.items)
	s.items = append(s.items, seg)
	return true
}

// Contains reports whether seg or its reversal is in the set.
func (s *SegmentSet) Contains(seg LineSegment) bool {
	_, ok := s.index[seg.Key()]
	return ok
}

// Remove deletes seg and reports whether it was present.
func (s *SegmentSet) Remove(seg LineSegment) bool {
	k := seg.Key()
	i, ok := s.index[k]
	if !ok {
		return false
	}
	delete(s.index, k)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].Key()] = j
	}
	return true
}

// Len returns the number of segments.
func (s *SegmentSet) Len() int {
	return len(s.items)
}

// Segments returns a copy of the members in insertion order.
func (s *SegmentSet) Segments() []LineSegment {
	out := make([]LineSegment, len(s.items))
	copy(out, s.items)
	return out
}
