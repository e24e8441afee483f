package geom

import (
	"fmt"
	"math"
)

// Line is an infinite line through Anchor along Direction.
type Line struct {
	Anchor    Point  `json:"anchor"`
	Direction Vector `json:"direction"`
}

// NewLine builds a line and rejects a zero direction.
func NewLine(anchor Point, direction Vector) (Line, error) {
	l := Line{Anchor: anchor, Direction: direction}
	if err := l.check(); err != nil {
		return Line{}, err
	}
	return l, nil
}

// LineThrough returns the line through p1 and p2, anchored at p1 with
// direction p1 - p2.
func LineThrough(p1, p2 Point) (Line, error) {
	return NewLine(p1, VectorBetween(p2, p1))
}

func (l Line) check() error {
	if l.Direction.IsZero() {
		return fmt.Errorf("line through %v: zero direction: %w", l.Anchor, ErrDegenerateVector)
	}
	return nil
}

// DistanceToPoint returns the perpendicular distance from p to the line.
func (l Line) DistanceToPoint(p Point) (float64, error) {
	if err := l.check(); err != nil {
		return 0, err
	}
	ap := VectorBetween(l.Anchor, p)
	return ap.Cross(l.Direction).Length() / l.Direction.Length(), nil
}

// PerpendicularCast returns the orthogonal projection of p onto the line.
func (l Line) PerpendicularCast(p Point) (Point, error) {
	if err := l.check(); err != nil {
		return Point{}, err
	}
	ap := VectorBetween(l.Anchor, p)
	coeff := ap.Dot(l.Direction) / l.Direction.Dot(l.Direction)
	return l.Anchor.Translate(l.Direction.Scale(coeff)), nil
}

// DistanceToLine returns the minimum distance between l and o using the scalar
// triple product. Parallel lines have no common normal and yield
// ErrParallelLines; use DistanceToParallelLine for them.
func (l Line) DistanceToLine(o Line) (float64, error) {
	if err := l.check(); err != nil {
		return 0, err
	}
	if err := o.check(); err != nil {
		return 0, err
	}
	w := l.Direction.Cross(o.Direction)
	if w.IsZero() {
		return 0, fmt.Errorf("distance between %v and %v: %w", l, o, ErrParallelLines)
	}
	return math.Abs(w.Dot(VectorBetween(l.Anchor, o.Anchor))) / w.Length(), nil
}

// DistanceToParallelLine returns the separation of two parallel lines as the
// distance from o's anchor to l.
func (l Line) DistanceToParallelLine(o Line) (float64, error) {
	if err := o.check(); err != nil {
		return 0, err
	}
	return l.DistanceToPoint(o.Anchor)
}

func (l Line) String() string {
	return fmt.Sprintf("Line[%v, %v]", l.Anchor, l.Direction)
}
