package consolidate

import (
	"math"
	"testing"

	"github.com/ironsheep/linefield-mcp/internal/geom"
)

func seg(x1, y1, x2, y2 float64) geom.LineSegment {
	return geom.Segment(geom.Point{X: x1, Y: y1}, geom.Point{X: x2, Y: y2})
}

func run(t *testing.T, opts Options, segs ...geom.LineSegment) ([]geom.LineSegment, Report) {
	t.Helper()
	out, rep, err := Consolidate(geom.NewSegmentSet(segs...), opts)
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	return out.Segments(), rep
}

func TestConsolidate_Empty(t *testing.T) {
	out, rep := run(t, DefaultOptions())
	if len(out) != 0 {
		t.Errorf("expected empty output, got %v", out)
	}
	if rep != (Report{}) {
		t.Errorf("expected zero report, got %+v", rep)
	}
}

func TestConsolidate_RemovesNearParallelDuplicate(t *testing.T) {
	a := seg(0, 0, 10, 0)
	b := seg(0, 1, 10, 1)

	out, rep := run(t, DefaultOptions(), a, b)
	if len(out) != 1 {
		t.Fatalf("expected 1 segment, got %d: %v", len(out), out)
	}
	if !out[0].Equal(a) {
		t.Errorf("expected the first segment to survive, got %v", out[0])
	}
	if rep.Duplicates != 1 {
		t.Errorf("Duplicates: got %d, want 1", rep.Duplicates)
	}
}

func TestConsolidate_ReversedDuplicate(t *testing.T) {
	// Direction reversal must not hide a duplicate.
	out, _ := run(t, DefaultOptions(), seg(0, 0, 100, 0), seg(100, 2, 0, 2))
	if len(out) != 1 {
		t.Fatalf("expected 1 segment, got %d: %v", len(out), out)
	}
}

func TestConsolidate_KeepsDistinctSegments(t *testing.T) {
	tests := []struct {
		name string
		a, b geom.LineSegment
	}{
		{"parallel but far", seg(0, 0, 100, 0), seg(0, 50, 100, 50)},
		{"close but perpendicular", seg(0, 0, 100, 0), seg(50, 20, 50, 120)},
		{"angle just above tolerance", seg(0, 0, 100, 0), seg(0, 0, 100, 100*math.Tan(5*math.Pi/180))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rep := run(t, DefaultOptions(), tt.a, tt.b)
			if rep.Duplicates != 0 {
				t.Errorf("expected no duplicates, got %d", rep.Duplicates)
			}
		})
	}
}

func TestConsolidate_RemovedSegmentsDoNotRemoveOthers(t *testing.T) {
	// b duplicates a, c duplicates b but not a. Once b is removed it is no
	// longer compared, so c survives.
	a := seg(0, 0, 100, 0)
	b := seg(0, 6, 100, 6)
	c := seg(0, 12, 100, 12)

	out, rep := run(t, Options{AngleTolerance: math.Pi / 45, DistanceTolerance: 10, SnapTolerance: 0}, a, b, c)
	if rep.Duplicates != 1 {
		t.Fatalf("Duplicates: got %d, want 1", rep.Duplicates)
	}
	if len(out) != 2 || !out[0].Equal(a) || !out[1].Equal(c) {
		t.Errorf("expected [a c], got %v", out)
	}
}

func TestConsolidate_SnapsNearEndpoints(t *testing.T) {
	a := seg(0, 0, 100, 0)
	b := seg(100.5, 0, 200, 0)

	out, rep := run(t, DefaultOptions(), a, b)
	if len(out) != 2 {
		t.Fatalf("expected 2 segments, got %d: %v", len(out), out)
	}
	if out[0].P2 != out[1].P1 {
		t.Errorf("near endpoints not shared: %v and %v", out[0].P2, out[1].P1)
	}
	if out[0].P2 != (geom.Point{X: 100.5}) {
		t.Errorf("expected snap onto the later segment's endpoint, got %v", out[0].P2)
	}
	if rep.Snapped == 0 {
		t.Error("expected Snapped > 0")
	}
}

func TestConsolidate_SnapsWithTighterTolerance(t *testing.T) {
	opts := DefaultOptions()
	opts.SnapTolerance = 1

	out, _ := run(t, opts, seg(0, 0, 10, 0), seg(10.5, 0, 20, 0))
	if len(out) != 2 {
		t.Fatalf("expected 2 segments, got %d: %v", len(out), out)
	}
	if out[0].P2 != out[1].P1 {
		t.Errorf("near endpoints not shared: %v and %v", out[0].P2, out[1].P1)
	}
}

func TestConsolidate_ShortSegmentsChainSnap(t *testing.T) {
	// Snapping is greedy and sequential. With segments about as long as the
	// tolerance, the first segment's end hops across the second one, which then
	// collapses.
	out, rep := run(t, DefaultOptions(), seg(0, 0, 10, 0), seg(10.5, 0, 20, 0))
	if len(out) != 1 {
		t.Fatalf("expected 1 segment, got %d: %v", len(out), out)
	}
	if !out[0].Equal(seg(0, 0, 20, 0)) {
		t.Errorf("got %v, want (0,0)-(20,0)", out[0])
	}
	if rep.Collapsed != 1 {
		t.Errorf("Collapsed: got %d, want 1", rep.Collapsed)
	}
}

func TestConsolidate_FiltersDegenerateInput(t *testing.T) {
	out, rep := run(t, DefaultOptions(), seg(5, 5, 5, 5), seg(0, 0, 100, 0))
	if len(out) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(out))
	}
	if rep.Degenerate != 1 {
		t.Errorf("Degenerate: got %d, want 1", rep.Degenerate)
	}
	if rep.Input != 2 || rep.Output != 1 {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestConsolidate_DoesNotMutateInput(t *testing.T) {
	a := seg(0, 0, 100, 0)
	b := seg(100.5, 0, 200, 0)
	in := geom.NewSegmentSet(a, b)

	if _, _, err := Consolidate(in, DefaultOptions()); err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	got := in.Segments()
	if got[0] != a || got[1] != b {
		t.Errorf("input mutated: %v", got)
	}
}

func TestConsolidate_Idempotent(t *testing.T) {
	segs := []geom.LineSegment{
		seg(0, 0, 100, 0),
		seg(2, 3, 98, 3),
		seg(104, 2, 104, 150),
		seg(0, 4, 0, 160),
		seg(3, 158, 100, 158),
	}
	first, rep, err := Consolidate(geom.NewSegmentSet(segs...), DefaultOptions())
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	second, _, err := Consolidate(first, DefaultOptions())
	if err != nil {
		t.Fatalf("Consolidate failed: %v", err)
	}
	if first.Len() != second.Len() {
		t.Fatalf("second pass changed size: %d -> %d (%+v)", first.Len(), second.Len(), rep)
	}
	for _, s := range first.Segments() {
		if !second.Contains(s) {
			t.Errorf("second pass changed %v", s)
		}
	}
}

func TestOptions_Validate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}

	bad := []Options{
		{AngleTolerance: -1, DistanceTolerance: 10, SnapTolerance: 10},
		{AngleTolerance: 0.1, DistanceTolerance: math.NaN(), SnapTolerance: 10},
		{AngleTolerance: 0.1, DistanceTolerance: 10, SnapTolerance: math.Inf(1)},
	}
	for _, o := range bad {
		if err := o.Validate(); err == nil {
			t.Errorf("expected error for %+v", o)
		}
		if _, _, err := Consolidate(geom.NewSegmentSet(), o); err == nil {
			t.Errorf("Consolidate accepted %+v", o)
		}
	}
}
