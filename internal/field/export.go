package field

import (
	"iter"

	"github.com/ironsheep/linefield-mcp/internal/geom"
)

// Columns holds samples as parallel arrays, the layout cone-field plots take:
// positions in X, Y, Z and vector components in U, V, W.
type Columns struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
	Z []float64 `json:"z"`
	U []float64 `json:"u"`
	V []float64 `json:"v"`
	W []float64 `json:"w"`
}

// Len returns the number of samples.
func (c *Columns) Len() int {
	return len(c.X)
}

// Append adds one sample to every column.
func (c *Columns) Append(s Sample) {
	c.X = append(c.X, s.Position.X)
	c.Y = append(c.Y, s.Position.Y)
	c.Z = append(c.Z, s.Position.Z)
	c.U = append(c.U, s.Vector.X)
	c.V = append(c.V, s.Vector.Y)
	c.W = append(c.W, s.Vector.Z)
}

// Sample returns the i-th sample.
func (c *Columns) Sample(i int) Sample {
	return Sample{
		Position: geom.Point{X: c.X[i], Y: c.Y[i], Z: c.Z[i]},
		Vector:   geom.Vector{X: c.U[i], Y: c.V[i], Z: c.W[i]},
	}
}

// All iterates the samples in order.
func (c *Columns) All() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for i := range c.X {
			if !yield(c.Sample(i)) {
				return
			}
		}
	}
}

// NewColumns returns empty, non-nil columns so they encode as [] rather than
// null.
func NewColumns() *Columns {
	return &Columns{
		X: []float64{}, Y: []float64{}, Z: []float64{},
		U: []float64{}, V: []float64{}, W: []float64{},
	}
}

// ColumnsOf drains seq into column form.
func ColumnsOf(seq iter.Seq[Sample]) *Columns {
	c := NewColumns()
	for s := range seq {
		c.Append(s)
	}
	return c
}

// Trace is a segment as a pair of endpoint coordinate arrays, one line trace
// per segment.
type Trace struct {
	X [2]float64 `json:"x"`
	Y [2]float64 `json:"y"`
	Z [2]float64 `json:"z"`
}

// SegmentTraces converts segments to line traces.
func SegmentTraces(segs []geom.LineSegment) []Trace {
	out := make([]Trace, len(segs))
	for i, s := range segs {
		out[i] = Trace{
			X: [2]float64{s.P1.X, s.P2.X},
			Y: [2]float64{s.P1.Y, s.P2.Y},
			Z: [2]float64{s.P1.Z, s.P2.Z},
		}
	}
	return out
}
