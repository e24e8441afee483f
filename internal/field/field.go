// Package field synthesizes the repulsion vector field of a segment set.
//
// The field is sampled on a regular grid spanning the segments' bounding
// volume. Every segment contributes a term perpendicular both to its own
// direction and to the offset from the segment to the sample point, scaled by
// the inverse square of that offset. This is the same shape as the magnetic
// field around a current-carrying wire. Points inside any segment's zone of
// exclusion are rejected and produce no sample.
package field

import (
	"context"
	"fmt"
	"iter"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/linefield-mcp/internal/geom"
)

// Resolution is the number of grid samples along each axis.
type Resolution struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// MaxPoints caps the number of candidate grid points in one synthesis.
const MaxPoints = 1 << 22

// cancelCheckInterval is how many grid points are visited between context
// checks.
const cancelCheckInterval = 1024

// Points returns the number of candidate grid points. Only meaningful for a
// resolution that passes Validate.
func (r Resolution) Points() int {
	return r.X * r.Y * r.Z
}

// Validate rejects empty axes and grids of more than MaxPoints points.
func (r Resolution) Validate() error {
	if r.X < 1 || r.Y < 1 || r.Z < 1 {
		return fmt.Errorf("invalid resolution %dx%dx%d: every axis needs at least one sample", r.X, r.Y, r.Z)
	}
	// Dividing keeps the product check free of overflow.
	if r.Y > MaxPoints/r.Z || r.X > MaxPoints/(r.Y*r.Z) {
		return fmt.Errorf("invalid resolution %dx%dx%d: more than %d grid points", r.X, r.Y, r.Z, MaxPoints)
	}
	return nil
}

// Options controls sampling.
type Options struct {
	// Resolution defaults to 41×41×21.
	Resolution Resolution `json:"resolution"`

	// ExclusionRadius is the zone of exclusion around every segment. Grid
	// points closer than this to any segment are rejected. Default 10.
	ExclusionRadius float64 `json:"exclusion_radius"`
}

// DefaultOptions returns the standard grid and exclusion radius.
func DefaultOptions() Options {
	return Options{
		Resolution:      Resolution{X: 41, Y: 41, Z: 21},
		ExclusionRadius: 10,
	}
}

// Validate rejects empty or oversized grids and invalid radii.
func (o Options) Validate() error {
	if err := o.Resolution.Validate(); err != nil {
		return err
	}
	return validateRadius(o.ExclusionRadius)
}

func validateRadius(radius float64) error {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return fmt.Errorf("invalid exclusion radius: %v", radius)
	}
	return nil
}

// Sample is one accepted grid point and its field vector.
type Sample struct {
	Position geom.Point  `json:"position"`
	Vector   geom.Vector `json:"vector"`
}

// Bounds is the sampled volume.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
	MinZ float64 `json:"min_z"`
	MaxZ float64 `json:"max_z"`
}

// BoundsOf returns the volume spanned by the segment endpoints in x and y. The
// z range is symmetric about zero, with half-height one tenth of the largest
// absolute x or y extent. It reports false when there are no segments.
func BoundsOf(segs []geom.LineSegment) (Bounds, bool) {
	if len(segs) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
	}
	for _, s := range segs {
		for _, p := range [2]geom.Point{s.P1, s.P2} {
			b.MinX = math.Min(b.MinX, p.X)
			b.MaxX = math.Max(b.MaxX, p.X)
			b.MinY = math.Min(b.MinY, p.Y)
			b.MaxY = math.Max(b.MaxY, p.Y)
		}
	}
	extent := math.Max(math.Max(math.Abs(b.MaxX), math.Abs(b.MinX)), math.Max(math.Abs(b.MaxY), math.Abs(b.MinY)))
	b.MaxZ = extent / 10
	b.MinZ = -b.MaxZ
	return b, true
}

// Generate derives the bounds from segs and synthesizes the field over them.
// No segments means no volume to sample, so the sequence is empty.
func Generate(segs []geom.LineSegment, opts Options) (iter.Seq[Sample], Bounds, error) {
	return GenerateContext(context.Background(), segs, opts)
}

// GenerateContext is Generate with a sequence that ends early once ctx is
// done. Callers check ctx.Err() after ranging to tell a cut-short sequence
// from a complete one.
func GenerateContext(ctx context.Context, segs []geom.LineSegment, opts Options) (iter.Seq[Sample], Bounds, error) {
	b, ok := BoundsOf(segs)
	if !ok {
		if err := opts.Validate(); err != nil {
			return nil, Bounds{}, err
		}
		return func(func(Sample) bool) {}, Bounds{}, nil
	}
	seq, err := SynthesizeContext(ctx, segs, b, opts)
	if err != nil {
		return nil, Bounds{}, err
	}
	return seq, b, nil
}

// Synthesize returns the lazy sequence of field samples over b, in x-major,
// z-minor grid order. Every range over the sequence recomputes it.
//
// Segments are checked up front, so the sequence itself cannot fail: a
// degenerate segment is reported here as geom.ErrDegenerateVector.
func Synthesize(segs []geom.LineSegment, b Bounds, opts Options) (iter.Seq[Sample], error) {
	return SynthesizeContext(context.Background(), segs, b, opts)
}

// SynthesizeContext is Synthesize with a sequence that stops once ctx is done.
// The context is checked every 1024 grid points, rejected ones included.
func SynthesizeContext(ctx context.Context, segs []geom.LineSegment, b Bounds, opts Options) (iter.Seq[Sample], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	sources, err := newSources(segs)
	if err != nil {
		return nil, err
	}

	xs := axis(b.MinX, b.MaxX, opts.Resolution.X)
	ys := axis(b.MinY, b.MaxY, opts.Resolution.Y)
	zs := axis(b.MinZ, b.MaxZ, opts.Resolution.Z)
	radius := opts.ExclusionRadius

	return func(yield func(Sample) bool) {
		visited := 0
		for _, x := range xs {
			for _, y := range ys {
				for _, z := range zs {
					if visited%cancelCheckInterval == 0 && ctx.Err() != nil {
						return
					}
					visited++
					p := geom.Point{X: x, Y: y, Z: z}
					v, ok := fieldAt(sources, p, radius)
					if !ok {
						continue
					}
					if !yield(Sample{Position: p, Vector: v}) {
						return
					}
				}
			}
		}
	}, nil
}

// At evaluates the field at a single point. It reports false when p lies in
// the zone of exclusion of any segment.
func At(segs []geom.LineSegment, p geom.Point, radius float64) (geom.Vector, bool, error) {
	if err := validateRadius(radius); err != nil {
		return geom.Vector{}, false, err
	}
	sources, err := newSources(segs)
	if err != nil {
		return geom.Vector{}, false, err
	}
	v, ok := fieldAt(sources, p, radius)
	return v, ok, nil
}

// source is a segment with its precomputed unit direction.
type source struct {
	seg geom.LineSegment
	dir geom.Vector
}

func newSources(segs []geom.LineSegment) ([]source, error) {
	sources := make([]source, len(segs))
	for i, s := range segs {
		u, err := s.LineVector().Unit()
		if err != nil {
			return nil, fmt.Errorf("segment %d %v: %w", i, s, err)
		}
		sources[i] = source{seg: s, dir: u}
	}
	return sources, nil
}

// fieldAt accumulates the contribution of every source at p. It reports false
// as soon as p falls inside a zone of exclusion.
func fieldAt(sources []source, p geom.Point, radius float64) (geom.Vector, bool) {
	var acc geom.Vector
	for _, src := range sources {
		// newSources rejected degenerate segments, so the cast cannot fail.
		c, _ := src.seg.DistanceCast(p)
		r := geom.VectorBetween(c, p)
		d := r.Length()
		// A point on the segment itself is singular whatever the radius.
		if d < radius || d == 0 {
			return geom.Vector{}, false
		}
		acc = acc.Add(src.dir.Cross(r).Scale(1 / (d * d)))
	}
	return acc, true
}

// axis returns n evenly spaced values from lo to hi inclusive.
func axis(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Collect drains seq into a slice.
func Collect(seq iter.Seq[Sample]) []Sample {
	var out []Sample
	for s := range seq {
		out = append(out, s)
	}
	return out
}
