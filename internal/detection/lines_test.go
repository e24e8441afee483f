package detection

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/linefield-mcp/internal/geom"
)

// createTestImage creates an in-memory image filled with a single color
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createHorizontalLineImage creates an image with a horizontal line
func createHorizontalLineImage(width, height, y, thickness int) *image.RGBA {
	img := createTestImage(width, height, color.White)

	for t := 0; t < thickness; t++ {
		for x := 0; x < width; x++ {
			if y+t >= 0 && y+t < height {
				img.Set(x, y+t, color.Black)
			}
		}
	}

	return img
}

// createVerticalLineImage creates an image with a vertical line
func createVerticalLineImage(width, height, x, thickness int) *image.RGBA {
	img := createTestImage(width, height, color.White)

	for t := 0; t < thickness; t++ {
		for y := 0; y < height; y++ {
			if x+t >= 0 && x+t < width {
				img.Set(x+t, y, color.Black)
			}
		}
	}

	return img
}

// createDiagonalLineImage creates an image with a diagonal line
func createDiagonalLineImage(width, height int) *image.RGBA {
	img := createTestImage(width, height, color.White)

	// Draw diagonal from (0,0) to (width-1, height-1)
	for i := 0; i < min(width, height); i++ {
		img.Set(i, i, color.Black)
	}

	return img
}

func TestDetectLines_Horizontal(t *testing.T) {
	img := createHorizontalLineImage(100, 100, 50, 1)

	result, err := DetectLines(img, DefaultOptions())
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected 1 line, got %d: %+v", result.Count, result.Lines)
	}

	line := result.Lines[0]
	if line.Start.Y != 50 || line.End.Y != 50 {
		t.Errorf("expected both endpoints on row 50, got %+v", line)
	}
	if math.Abs(line.Length-99) > 0.5 {
		t.Errorf("Length: got %.1f, want 99", line.Length)
	}
	if line.Votes != 100 {
		t.Errorf("Votes: got %d, want 100", line.Votes)
	}
	if line.Color != "#000000" {
		t.Errorf("Color: got %s, want #000000", line.Color)
	}
	if line.ThicknessApprox != 1 {
		t.Errorf("ThicknessApprox: got %d, want 1", line.ThicknessApprox)
	}
}

func TestDetectLines_Vertical(t *testing.T) {
	img := createVerticalLineImage(100, 100, 50, 1)

	result, err := DetectLines(img, DefaultOptions())
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected 1 line, got %d", result.Count)
	}

	line := result.Lines[0]
	if line.Start.X != 50 || line.End.X != 50 {
		t.Errorf("expected both endpoints on column 50, got %+v", line)
	}
	if math.Abs(math.Abs(line.AngleDegrees)-90) > 0.5 {
		t.Errorf("vertical line angle: got %.1f, want ±90", line.AngleDegrees)
	}
}

func TestDetectLines_Diagonal(t *testing.T) {
	img := createDiagonalLineImage(100, 100)

	result, err := DetectLines(img, DefaultOptions())
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected 1 line, got %d", result.Count)
	}

	a := math.Abs(result.Lines[0].AngleDegrees)
	if math.Abs(a-45) > 1 && math.Abs(a-135) > 1 {
		t.Errorf("diagonal line angle: got %.1f", result.Lines[0].AngleDegrees)
	}
	if math.Abs(result.Lines[0].Length-99*math.Sqrt2) > 1 {
		t.Errorf("diagonal length: got %.1f", result.Lines[0].Length)
	}
}

func TestDetectLines_ThickStroke(t *testing.T) {
	img := createHorizontalLineImage(100, 100, 49, 3)

	result, err := DetectLines(img, DefaultOptions())
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count < 1 {
		t.Fatal("expected the thick stroke to be detected")
	}
	for _, line := range result.Lines {
		if line.Start.Y < 48 || line.Start.Y > 52 || line.End.Y < 48 || line.End.Y > 52 {
			t.Errorf("line strays from the stroke: %+v", line)
		}
	}
}

func TestDetectLines_MinLength(t *testing.T) {
	img := createTestImage(100, 100, color.White)
	for x := 45; x <= 55; x++ {
		img.Set(x, 50, color.Black)
	}

	opts := DefaultOptions()
	opts.Threshold = 5
	opts.MinLength = 20

	result, err := DetectLines(img, opts)
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count != 0 {
		t.Errorf("~10px line should be filtered with minLength=20, got %d lines", result.Count)
	}

	opts.MinLength = 5
	result, err = DetectLines(img, opts)
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count != 1 {
		t.Errorf("expected 1 line with minLength=5, got %d", result.Count)
	}
}

func TestDetectLines_GapSplitting(t *testing.T) {
	img := createHorizontalLineImage(100, 100, 50, 1)
	for x := 40; x < 60; x++ {
		img.Set(x, 50, color.White)
	}

	result, err := DetectLines(img, DefaultOptions())
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("expected the gap to split the line in 2, got %d", result.Count)
	}
	for _, line := range result.Lines {
		if math.Abs(line.Length-39) > 0.5 {
			t.Errorf("expected run length 39, got %.1f", line.Length)
		}
	}

	opts := DefaultOptions()
	opts.MaxGap = 30
	result, err = DetectLines(img, opts)
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected max gap 30 to bridge the gap, got %d lines", result.Count)
	}
	if math.Abs(result.Lines[0].Length-99) > 0.5 {
		t.Errorf("bridged length: got %.1f, want 99", result.Lines[0].Length)
	}
}

func TestDetectLines_Region(t *testing.T) {
	img := createHorizontalLineImage(100, 100, 50, 1)

	opts := DefaultOptions()
	opts.Region = &Bounds{X1: 10, Y1: 40, X2: 90, Y2: 60}

	result, err := DetectLines(img, opts)
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected 1 line, got %d", result.Count)
	}

	line := result.Lines[0]
	lo, hi := min(line.Start.X, line.End.X), max(line.Start.X, line.End.X)
	if lo != 10 || hi != 89 || line.Start.Y != 50 {
		t.Errorf("expected full-image coordinates (10..89, 50), got %+v", line)
	}

	opts.Region = &Bounds{X1: 50, Y1: 50, X2: 150, Y2: 60}
	if _, err := DetectLines(img, opts); err == nil {
		t.Error("expected error for region outside the image")
	}
}

func TestDetectLines_EmptyImage(t *testing.T) {
	img := createTestImage(100, 100, color.White)

	result, err := DetectLines(img, DefaultOptions())
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}

	if result.Count != 0 || len(result.Lines) != 0 {
		t.Errorf("Expected 0 lines in empty image, got %d", result.Count)
	}
	if result.Lines == nil {
		t.Error("Lines should be empty, not nil")
	}
}

func TestDetectLines_MaxLines(t *testing.T) {
	// Create image with many lines
	img := createTestImage(500, 500, color.White)
	for i := 0; i < 100; i++ {
		y := i * 5
		for x := 0; x < 500; x++ {
			img.Set(x, y, color.Black)
		}
	}

	opts := DefaultOptions()
	opts.MaxLines = 10

	result, err := DetectLines(img, opts)
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}

	if result.Count != 10 {
		t.Errorf("Expected exactly 10 lines, got %d", result.Count)
	}
}

func TestDetectLines_Canny(t *testing.T) {
	img := createTestImage(100, 100, color.White)
	for y := 30; y < 70; y++ {
		for x := 20; x < 80; x++ {
			img.Set(x, y, color.Black)
		}
	}

	opts := DefaultOptions()
	opts.Preprocess = PreprocessCanny
	opts.Threshold = 30

	result, err := DetectLines(img, opts)
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count == 0 {
		t.Error("expected the rectangle outline to produce lines")
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"zero threshold", func(o *Options) { o.Threshold = 0 }},
		{"negative min length", func(o *Options) { o.MinLength = -1 }},
		{"NaN min length", func(o *Options) { o.MinLength = math.NaN() }},
		{"infinite max gap", func(o *Options) { o.MaxGap = math.Inf(1) }},
		{"zero max lines", func(o *Options) { o.MaxLines = 0 }},
		{"unknown preprocess", func(o *Options) { o.Preprocess = "sobel" }},
		{"inverted canny thresholds", func(o *Options) {
			o.Preprocess = PreprocessCanny
			o.CannyLow, o.CannyHigh = 200, 100
		}},
	}

	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}

	img := createTestImage(10, 10, color.White)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			if err := opts.Validate(); err == nil {
				t.Error("expected validation error")
			}
			if _, err := DetectSegments(img, opts); err == nil {
				t.Error("DetectSegments accepted invalid options")
			}
		})
	}
}

func TestDetectSegments(t *testing.T) {
	img := createVerticalLineImage(100, 100, 30, 1)

	segs, err := DetectSegments(img, DefaultOptions())
	if err != nil {
		t.Fatalf("DetectSegments failed: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}

	want := geom.Segment(geom.Point{X: 30, Y: 0}, geom.Point{X: 30, Y: 99})
	if !segs[0].Equal(want) {
		t.Errorf("got %v, want %v", segs[0], want)
	}
	if segs[0].P1.Z != 0 || segs[0].P2.Z != 0 {
		t.Error("detected segments must lie in the z = 0 plane")
	}
}

func TestLinesResult_SegmentsDropsDegenerate(t *testing.T) {
	r := &LinesResult{Lines: []Line{
		{Start: Point{X: 1, Y: 1}, End: Point{X: 1, Y: 1}},
		{Start: Point{X: 0, Y: 0}, End: Point{X: 5, Y: 0}},
	}}
	segs := r.Segments()
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Length() != 5 {
		t.Errorf("unexpected segment %v", segs[0])
	}
}

func TestFindPeaks_Plateau(t *testing.T) {
	numRho := 5
	acc := make([]int, numRho*numAngles)
	// Three equal cells next to each other in rho.
	acc[1*numAngles+90] = 10
	acc[2*numAngles+90] = 10
	acc[3*numAngles+90] = 10
	// A separate, weaker peak.
	acc[2*numAngles+10] = 7

	peaks := findPeaks(acc, numRho, 5)
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d: %+v", len(peaks), peaks)
	}
	if peaks[0] != (peak{rho: 1, theta: 90, votes: 10}) && peaks[1] != (peak{rho: 1, theta: 90, votes: 10}) {
		t.Errorf("expected the plateau to resolve to its first cell, got %+v", peaks)
	}
}

func TestEstimateLineThickness(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 48; y <= 52; y++ {
		for x := 0; x < 100; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	if got := estimateLineThickness(mask, 10, 50, 90, 50); got != 5 {
		t.Errorf("thickness: got %d, want 5", got)
	}
	if got := estimateLineThickness(mask, 10, 50, 10, 50); got != 1 {
		t.Errorf("zero-length thickness: got %d, want 1", got)
	}
}

func TestSampleColorHex(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(5, 5, color.RGBA{255, 128, 64, 255})

	hex := sampleColorHex(img, 5, 5)
	if hex != "#FF8040" {
		t.Errorf("sampleColorHex: got %s, want #FF8040", hex)
	}
}
