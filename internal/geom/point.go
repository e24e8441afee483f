package geom

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
)

// Point is a position in 3D space. Two points are equal only when every
// coordinate is exactly equal.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DistanceTo returns the Euclidean distance between p and o.
func (p Point) DistanceTo(o Point) float64 {
	return p.Vector().Sub(o.Vector()).Length()
}

// Translate returns p moved by v.
func (p Point) Translate(v Vector) Point {
	return Point(p.Vector().Add(v))
}

// Vector returns the position vector of p.
func (p Point) Vector() Vector {
	return Vector(p)
}

// Hash returns a stable hash of the coordinate triple, consistent with ==.
func (p Point) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, c := range [3]float64{p.X, p.Y, p.Z} {
		// -0 == +0 must hash the same.
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c+0))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// less orders points lexicographically by X, then Y, then Z.
func (p Point) less(o Point) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	if p.Y != o.Y {
		return p.Y < o.Y
	}
	return p.Z < o.Z
}

func (p Point) String() string {
	return fmt.Sprintf("Point[%g, %g, %g]", p.X, p.Y, p.Z)
}
