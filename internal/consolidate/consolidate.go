// Package consolidate turns raw detected segments into a canonical set by
// removing near-duplicates and snapping near-coincident endpoints together.
//
// # Algorithm
//
// Consolidation runs two passes over the segments in set order:
//
//  1. Duplicate elimination: for every ordered pair (A, B) of live segments,
//     B is marked removed when the undirected angle between them is below
//     AngleTolerance and both endpoints of B lie within DistanceTolerance of
//     A. Removed segments are skipped as both A and B, and are dropped only
//     after the pass completes.
//  2. Endpoint snapping: for every ordered pair (A, B), self-pairs included,
//     each endpoint of A that lies within SnapTolerance of an endpoint of B
//     is overwritten with B's endpoint. Writes happen in place and later
//     comparisons see them, so the result depends on traversal order.
//
// Segments that snapping collapses to a single point are dropped, and segments
// that become equal are merged by the output set.
package consolidate

import (
	"fmt"
	"math"

	"github.com/ironsheep/linefield-mcp/internal/geom"
)

// Options holds the consolidation tolerances. Lengths are in the units of the
// input coordinates, typically pixels.
type Options struct {
	// AngleTolerance is the largest undirected angle, in radians, at which two
	// segments still count as parallel. Default π/45 (4°).
	AngleTolerance float64 `json:"angle_tolerance"`

	// DistanceTolerance bounds how far both endpoints of a duplicate may lie
	// from the segment it duplicates. Default 10.
	DistanceTolerance float64 `json:"distance_tolerance"`

	// SnapTolerance is the endpoint distance below which endpoints are merged.
	// Default 10.
	SnapTolerance float64 `json:"snap_tolerance"`
}

// DefaultOptions returns the standard tolerances.
func DefaultOptions() Options {
	return Options{
		AngleTolerance:    math.Pi / 45,
		DistanceTolerance: 10,
		SnapTolerance:     10,
	}
}

// Validate rejects negative, NaN or infinite tolerances.
func (o Options) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"angle tolerance", o.AngleTolerance},
		{"distance tolerance", o.DistanceTolerance},
		{"snap tolerance", o.SnapTolerance},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("invalid %s: %v", f.name, f.value)
		}
	}
	return nil
}

// Report summarizes what a consolidation pass did.
type Report struct {
	Input      int `json:"input"`
	Degenerate int `json:"degenerate"`
	Duplicates int `json:"duplicates"`
	Snapped    int `json:"snapped"`
	Collapsed  int `json:"collapsed"`
	Output     int `json:"output"`
}

// Consolidate returns the canonical segment set for in. The input set is not
// modified.
func Consolidate(in *geom.SegmentSet, opts Options) (*geom.SegmentSet, Report, error) {
	var rep Report
	if err := opts.Validate(); err != nil {
		return nil, rep, err
	}

	raw := in.Segments()
	rep.Input = len(raw)

	segs := make([]geom.LineSegment, 0, len(raw))
	for _, s := range raw {
		if s.Degenerate() {
			rep.Degenerate++
			continue
		}
		segs = append(segs, s)
	}

	live, err := removeDuplicates(segs, opts)
	if err != nil {
		return nil, rep, err
	}
	rep.Duplicates = len(segs) - len(live)

	rep.Snapped = snapEndpoints(live, opts.SnapTolerance)

	out := geom.NewSegmentSet()
	for _, s := range live {
		if s.Degenerate() {
			rep.Collapsed++
			continue
		}
		out.Add(s)
	}
	rep.Output = out.Len()
	return out, rep, nil
}

// removeDuplicates marks and then drops segments that duplicate an earlier
// live segment.
func removeDuplicates(segs []geom.LineSegment, opts Options) ([]geom.LineSegment, error) {
	removed := make([]bool, len(segs))
	for i, a := range segs {
		if removed[i] {
			continue
		}
		for j, b := range segs {
			if removed[j] || i == j {
				continue
			}
			dup, err := duplicates(a, b, opts)
			if err != nil {
				return nil, err
			}
			if dup {
				removed[j] = true
			}
		}
	}

	live := make([]geom.LineSegment, 0, len(segs))
	for i, s := range segs {
		if !removed[i] {
			live = append(live, s)
		}
	}
	return live, nil
}

// duplicates reports whether b is a near-copy of a.
func duplicates(a, b geom.LineSegment, opts Options) (bool, error) {
	av, bv := a.LineVector(), b.LineVector()
	along, err := av.AngleTo(bv)
	if err != nil {
		return false, err
	}
	against, err := av.Invert().AngleTo(bv)
	if err != nil {
		return false, err
	}
	alpha := math.Min(along, against)

	d1, err := a.DistanceToPoint(b.P1)
	if err != nil {
		return false, err
	}
	d2, err := a.DistanceToPoint(b.P2)
	if err != nil {
		return false, err
	}

	return alpha < opts.AngleTolerance && math.Max(d1, d2) < opts.DistanceTolerance, nil
}

// snapEndpoints rewrites endpoints in place and returns how many writes
// changed a coordinate.
func snapEndpoints(segs []geom.LineSegment, tolerance float64) int {
	changed := 0
	snap := func(dst *geom.Point, src geom.Point) {
		if dst.DistanceTo(src) < tolerance {
			if *dst != src {
				changed++
			}
			*dst = src
		}
	}

	for i := range segs {
		a := &segs[i]
		for j := range segs {
			b := &segs[j]
			snap(&a.P1, b.P1)
			snap(&a.P1, b.P2)
			snap(&a.P2, b.P1)
			snap(&a.P2, b.P2)
		}
	}
	return changed
}
