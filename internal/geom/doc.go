// Package geom provides the 3D point, vector and line algebra used to
// consolidate detected segments and to synthesize the repulsion field.
//
// # Value Semantics
//
// Vector, Point and LineSegment are plain value types. Arithmetic returns new
// values; nothing in this package mutates a receiver. Point and LineSegment are
// comparable with exact floating-point equality and carry a stable Hash:
//   - Point equality is exact coordinate equality, with no epsilon
//   - LineSegment equality is undirected, so (a, b) equals (b, a)
//   - Tolerances belong to the consolidator, not to equality
//
// # Degenerate Input
//
// Operations that would divide by a zero length return ErrDegenerateVector
// instead of producing NaN or Inf:
//   - Unit on a zero vector or one with an infinite or NaN component
//   - AngleTo when either operand is rejected by Unit
//   - Any Line method on a line with a zero direction
//   - DistanceToLine for parallel lines (ErrParallelLines)
//
// The zero value of Line is constructible, so every Line method checks its
// direction rather than trusting the constructor.
//
// # Numeric Stability
//
// Unit divides by the largest component before normalizing, so finite
// vectors near the float64 limits keep their direction. AngleTo works on unit
// vectors and clamps the cosine to [-1, 1] before calling math.Acos, so
// rounding on (anti)parallel vectors never yields NaN.
package geom
