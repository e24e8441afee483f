package geom

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// LineSegment is the bounded part of a line between two endpoints.
//
// Equality is undirected: a segment equals its reversal. Use Equal or Key, not
// ==, when direction should not matter.
type LineSegment struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

// Segment is shorthand for LineSegment{P1: p1, P2: p2}.
func Segment(p1, p2 Point) LineSegment {
	return LineSegment{P1: p1, P2: p2}
}

// Degenerate reports whether both endpoints coincide.
func (s LineSegment) Degenerate() bool {
	return s.P1 == s.P2
}

// Length returns the distance between the endpoints.
func (s LineSegment) Length() float64 {
	return s.P1.DistanceTo(s.P2)
}

// LineVector returns the direction of the underlying line, P1 - P2.
func (s LineSegment) LineVector() Vector {
	return VectorBetween(s.P2, s.P1)
}

// Line returns the infinite line through the segment.
func (s LineSegment) Line() (Line, error) {
	return LineThrough(s.P1, s.P2)
}

// Reversed returns the segment with its endpoints swapped.
func (s LineSegment) Reversed() LineSegment {
	return LineSegment{P1: s.P2, P2: s.P1}
}

// Equal reports undirected equality.
func (s LineSegment) Equal(o LineSegment) bool {
	return (s.P1 == o.P1 && s.P2 == o.P2) || (s.P1 == o.P2 && s.P2 == o.P1)
}

// Key returns the segment with its endpoints in lexicographic order. Two
// segments are Equal exactly when their keys are ==, so Key is usable as a
// map key.
func (s LineSegment) Key() LineSegment {
	if s.P2.less(s.P1) {
		return s.Reversed()
	}
	return s
}

// Hash is symmetric under endpoint swap.
func (s LineSegment) Hash() uint64 {
	h1, h2 := s.P1.Hash(), s.P2.Hash()
	if h2 < h1 {
		h1, h2 = h2, h1
	}
	h := fnv.New64a()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], h1)
	binary.LittleEndian.PutUint64(buf[8:], h2)
	h.Write(buf[:])
	return h.Sum64()
}

// DistanceToPoint returns the distance from p to the nearest point of the
// segment.
func (s LineSegment) DistanceToPoint(p Point) (float64, error) {
	end, clamped, err := s.clamp(p)
	if err != nil {
		return 0, err
	}
	if clamped {
		return end.DistanceTo(p), nil
	}
	l, err := s.Line()
	if err != nil {
		return 0, err
	}
	return l.DistanceToPoint(p)
}

// DistanceCast returns the point of the segment nearest to p: an endpoint when
// p lies outside the segment's span, else the perpendicular projection.
func (s LineSegment) DistanceCast(p Point) (Point, error) {
	end, clamped, err := s.clamp(p)
	if err != nil {
		return Point{}, err
	}
	if clamped {
		return end, nil
	}
	l, err := s.Line()
	if err != nil {
		return Point{}, err
	}
	return l.PerpendicularCast(p)
}

// clamp picks the endpoint nearest to p when p lies outside the span. The
// angle at P1 between P1->P2 and P1->p exceeds a right angle exactly when
// their dot product is negative; likewise at P2. A p that coincides with an
// endpoint is clamped to it.
func (s LineSegment) clamp(p Point) (Point, bool, error) {
	p1p2 := VectorBetween(s.P1, s.P2)
	if p1p2.IsZero() {
		return Point{}, false, fmt.Errorf("segment %v: %w", s, ErrDegenerateVector)
	}
	p1p := VectorBetween(s.P1, p)
	p2p := VectorBetween(s.P2, p)

	switch {
	case p1p.IsZero(), p1p2.Dot(p1p) < 0:
		return s.P1, true, nil
	case p2p.IsZero(), p1p2.Invert().Dot(p2p) < 0:
		return s.P2, true, nil
	}
	return Point{}, false, nil
}

func (s LineSegment) String() string {
	return fmt.Sprintf("LineSegment[%v, %v]", s.P1, s.P2)
}
