package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector is a 3D displacement.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// VectorBetween returns the vector from a to b (b - a).
func VectorBetween(a, b Point) Vector {
	return Vector(r3.Sub(r3.Vec(b), r3.Vec(a)))
}

func (v Vector) vec() r3.Vec { return r3.Vec(v) }

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector(r3.Add(v.vec(), o.vec()))
}

// Sub returns v - o, computed as v plus the inverse of o.
func (v Vector) Sub(o Vector) Vector {
	return v.Add(o.Invert())
}

// Scale returns v multiplied by k.
func (v Vector) Scale(k float64) Vector {
	return Vector(r3.Scale(k, v.vec()))
}

// Invert returns -v.
func (v Vector) Invert() Vector {
	return v.Scale(-1)
}

// Dot returns the scalar product.
func (v Vector) Dot(o Vector) float64 {
	return r3.Dot(v.vec(), o.vec())
}

// Cross returns the right-handed vector product v × o.
func (v Vector) Cross(o Vector) Vector {
	return Vector(r3.Cross(v.vec(), o.vec()))
}

// Length returns the Euclidean norm.
func (v Vector) Length() float64 {
	return r3.Norm(v.vec())
}

// LengthSquared returns the squared norm without a square root.
func (v Vector) LengthSquared() float64 {
	return r3.Norm2(v.vec())
}

// IsZero reports whether all components are zero.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Unit returns v / |v|. A zero vector has no direction and yields
// ErrDegenerateVector, as does one with an infinite or NaN component.
//
// v is divided by its largest component first, so the norm neither
// overflows nor underflows for any finite v.
func (v Vector) Unit() (Vector, error) {
	m := math.Max(math.Abs(v.X), math.Max(math.Abs(v.Y), math.Abs(v.Z)))
	if m == 0 || math.IsInf(m, 0) || math.IsNaN(m) {
		return Vector{}, fmt.Errorf("unit of %v: %w", v, ErrDegenerateVector)
	}
	w := Vector{v.X / m, v.Y / m, v.Z / m}
	return w.Scale(1 / w.Length()), nil
}

// AngleTo returns the angle between v and o in radians, in [0, π].
//
// The cosine is clamped to [-1, 1] so rounding on nearly (anti)parallel
// vectors cannot push math.Acos out of its domain.
func (v Vector) AngleTo(o Vector) (float64, error) {
	uv, err := v.Unit()
	if err != nil {
		return 0, fmt.Errorf("angle between %v and %v: %w", v, o, ErrDegenerateVector)
	}
	uo, err := o.Unit()
	if err != nil {
		return 0, fmt.Errorf("angle between %v and %v: %w", v, o, ErrDegenerateVector)
	}
	cos := uv.Dot(uo)
	return math.Acos(math.Max(-1, math.Min(1, cos))), nil
}

// ToPoint returns the point reached by translating the origin by v.
func (v Vector) ToPoint() Point {
	return Point{}.Translate(v)
}

func (v Vector) String() string {
	return fmt.Sprintf("Vector[%g, %g, %g]", v.X, v.Y, v.Z)
}
