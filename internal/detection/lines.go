package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/linefield-mcp/internal/geom"
	"github.com/ironsheep/linefield-mcp/internal/imaging"
)

// Preprocess selects how a drawing is reduced to a binary mask before voting.
type Preprocess string

const (
	// PreprocessThreshold keeps the dark ink itself: grayscale, invert,
	// threshold at Options.Level.
	PreprocessThreshold Preprocess = "threshold"

	// PreprocessCanny keeps the outline of the ink via Canny edge detection.
	PreprocessCanny Preprocess = "canny"
)

// Default detector parameters.
const (
	DefaultThreshold = 50
	DefaultMinLength = 10.0
	DefaultMaxGap    = 2.0
	DefaultMaxLines  = 100
	DefaultLevel     = 128
	DefaultCannyLow  = 50
	DefaultCannyHigh = 150
)

const (
	numAngles = 180

	// lineTolerance is the maximum perpendicular distance, in pixels, of a
	// mask pixel from a Hough line for it to belong to that line.
	lineTolerance = 1.0
)

// Bounds represents a rectangular region in pixel coordinates.
//
// (X1, Y1) is the top-left corner (inclusive) and (X2, Y2) the bottom-right
// corner (exclusive).
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Options controls line detection.
type Options struct {
	// Threshold is the minimum number of Hough votes for a candidate line.
	Threshold int

	// MinLength is the minimum length in pixels of an emitted segment.
	MinLength float64

	// MaxGap is the largest run of missing pixels bridged within one segment.
	MaxGap float64

	// MaxLines caps the number of emitted segments.
	MaxLines int

	// Preprocess selects the mask reduction. Empty means PreprocessThreshold.
	Preprocess Preprocess

	// Level is the foreground threshold (0-255) after inversion.
	Level uint8

	// CannyLow and CannyHigh are the hysteresis thresholds for PreprocessCanny.
	CannyLow, CannyHigh int

	// Region restricts detection to part of the image. Coordinates of the
	// result are still in full-image pixels.
	Region *Bounds
}

// DefaultOptions returns the detector defaults: a vote threshold of 50 and
// one-degree angle bins.
func DefaultOptions() Options {
	return Options{
		Threshold:  DefaultThreshold,
		MinLength:  DefaultMinLength,
		MaxGap:     DefaultMaxGap,
		MaxLines:   DefaultMaxLines,
		Preprocess: PreprocessThreshold,
		Level:      DefaultLevel,
		CannyLow:   DefaultCannyLow,
		CannyHigh:  DefaultCannyHigh,
	}
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	switch {
	case o.Threshold < 1:
		return fmt.Errorf("vote threshold must be at least 1, got %d", o.Threshold)
	case !(o.MinLength >= 0) || math.IsInf(o.MinLength, 0):
		return fmt.Errorf("min length must be a finite non-negative number, got %v", o.MinLength)
	case !(o.MaxGap >= 0) || math.IsInf(o.MaxGap, 0):
		return fmt.Errorf("max gap must be a finite non-negative number, got %v", o.MaxGap)
	case o.MaxLines < 1:
		return fmt.Errorf("max lines must be at least 1, got %d", o.MaxLines)
	}
	switch o.Preprocess {
	case "", PreprocessThreshold:
	case PreprocessCanny:
		if o.CannyLow < 0 || o.CannyHigh > 255 || o.CannyLow > o.CannyHigh {
			return fmt.Errorf("invalid canny thresholds %d/%d", o.CannyLow, o.CannyHigh)
		}
	default:
		return fmt.Errorf("unknown preprocess mode %q", o.Preprocess)
	}
	return nil
}

// Line represents a detected line segment
type Line struct {
	Start           Point   `json:"start"`
	End             Point   `json:"end"`
	Length          float64 `json:"length"`
	AngleDegrees    float64 `json:"angle_degrees"`
	Votes           int     `json:"votes"`
	Color           string  `json:"color"`
	ThicknessApprox int     `json:"thickness_approx"`
}

// Segment returns the line as a segment in the z = 0 plane.
func (l Line) Segment() geom.LineSegment {
	return geom.Segment(
		geom.Point{X: float64(l.Start.X), Y: float64(l.Start.Y)},
		geom.Point{X: float64(l.End.X), Y: float64(l.End.Y)},
	)
}

// LinesResult contains detected lines
type LinesResult struct {
	Lines []Line `json:"lines"`
	Count int    `json:"count"`
}

// Segments converts the detected lines to segments, dropping any whose
// endpoints coincide.
func (r *LinesResult) Segments() []geom.LineSegment {
	segs := make([]geom.LineSegment, 0, len(r.Lines))
	for _, l := range r.Lines {
		s := l.Segment()
		if s.Degenerate() {
			continue
		}
		segs = append(segs, s)
	}
	return segs
}

// DetectSegments finds straight strokes in img and returns them as segments
// in pixel coordinates with z = 0.
func DetectSegments(img image.Image, opts Options) ([]geom.LineSegment, error) {
	result, err := DetectLines(img, opts)
	if err != nil {
		return nil, err
	}
	return result.Segments(), nil
}

type peak struct {
	rho   int
	theta int
	votes int
}

// DetectLines finds line segments in an image using a probabilistic-style
// Hough transform.
//
// The image is reduced to a binary mask, every mask pixel votes for the
// (rho, theta) lines through it, and local maxima above opts.Threshold become
// candidates, strongest first. Each candidate collects the unclaimed mask
// pixels lying on it, splits them into runs wherever more than opts.MaxGap
// pixels are missing, and emits every run at least opts.MinLength long.
// Pixels of an emitted run are claimed so weaker candidates do not report
// the same stroke again.
func DetectLines(img image.Image, opts Options) (*LinesResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	src := img
	offset := img.Bounds().Min
	if r := opts.Region; r != nil {
		cropped, err := imaging.CropRegion(img, r.X1, r.Y1, r.X2, r.Y2)
		if err != nil {
			return nil, fmt.Errorf("failed to crop detection region: %w", err)
		}
		src = cropped
		offset = image.Pt(r.X1, r.Y1)
	}

	var mask *image.Gray
	if opts.Preprocess == PreprocessCanny {
		mask = imaging.EdgeMap(src, opts.CannyLow, opts.CannyHigh)
	} else {
		mask = imaging.Foreground(src, opts.Level)
	}
	width := mask.Bounds().Dx()
	height := mask.Bounds().Dy()

	pixels := make([]Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask.Pix[y*mask.Stride+x] != 0 {
				pixels = append(pixels, Point{X: x, Y: y})
			}
		}
	}

	lines := make([]Line, 0)
	if len(pixels) == 0 {
		return &LinesResult{Lines: lines}, nil
	}

	cosT := make([]float64, numAngles)
	sinT := make([]float64, numAngles)
	for theta := 0; theta < numAngles; theta++ {
		angle := float64(theta) * math.Pi / 180.0
		cosT[theta] = math.Cos(angle)
		sinT[theta] = math.Sin(angle)
	}

	// Vote in Hough space
	maxDist := int(math.Ceil(math.Hypot(float64(width), float64(height)))) + 1
	numRho := 2*maxDist + 1
	accumulator := make([]int, numRho*numAngles)
	for _, p := range pixels {
		for theta := 0; theta < numAngles; theta++ {
			rho := int(math.Round(float64(p.X)*cosT[theta]+float64(p.Y)*sinT[theta])) + maxDist
			accumulator[rho*numAngles+theta]++
		}
	}

	peaks := findPeaks(accumulator, numRho, opts.Threshold)
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})

	claimed := make([]bool, width*height)
	for _, pk := range peaks {
		if len(lines) >= opts.MaxLines {
			break
		}

		rho := float64(pk.rho - maxDist)
		cosA, sinA := cosT[pk.theta], sinT[pk.theta]

		// Position along the line for every unclaimed pixel on it.
		type onLine struct {
			p Point
			t float64
		}
		members := make([]onLine, 0)
		for _, p := range pixels {
			if claimed[p.Y*width+p.X] {
				continue
			}
			if math.Abs(float64(p.X)*cosA+float64(p.Y)*sinA-rho) <= lineTolerance {
				members = append(members, onLine{p: p, t: -float64(p.X)*sinA + float64(p.Y)*cosA})
			}
		}
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].t < members[j].t
		})

		// Adjacent pixels along the line are at most sqrt(2) apart.
		maxStep := opts.MaxGap + math.Sqrt2
		for start := 0; start < len(members) && len(lines) < opts.MaxLines; {
			end := start + 1
			for end < len(members) && members[end].t-members[end-1].t <= maxStep {
				end++
			}
			run := members[start:end]
			start = end

			// Endpoints are the feet of the extreme pixels on the Hough line.
			t0, t1 := run[0].t, run[len(run)-1].t
			a := Point{
				X: int(math.Round(rho*cosA - t0*sinA)),
				Y: int(math.Round(rho*sinA + t0*cosA)),
			}
			b := Point{
				X: int(math.Round(rho*cosA - t1*sinA)),
				Y: int(math.Round(rho*sinA + t1*cosA)),
			}
			dx := float64(b.X - a.X)
			dy := float64(b.Y - a.Y)
			length := math.Sqrt(dx*dx + dy*dy)
			if length == 0 || length < opts.MinLength {
				continue
			}

			for _, m := range run {
				claimed[m.p.Y*width+m.p.X] = true
			}

			mid := run[len(run)/2].p
			lines = append(lines, Line{
				Start:           Point{X: a.X + offset.X, Y: a.Y + offset.Y},
				End:             Point{X: b.X + offset.X, Y: b.Y + offset.Y},
				Length:          math.Round(length*10) / 10,
				AngleDegrees:    math.Round(math.Atan2(dy, dx)*180/math.Pi*10) / 10,
				Votes:           pk.votes,
				Color:           sampleColorHex(src, mid.X+src.Bounds().Min.X, mid.Y+src.Bounds().Min.Y),
				ThicknessApprox: estimateLineThickness(mask, a.X, a.Y, b.X, b.Y),
			})
		}
	}

	return &LinesResult{
		Lines: lines,
		Count: len(lines),
	}, nil
}

// findPeaks returns accumulator cells with at least threshold votes that are
// maximal within a 5x5 neighborhood. Ties go to the cell with the lower index
// so a plateau yields a single peak. Theta wraps around.
func findPeaks(accumulator []int, numRho, threshold int) []peak {
	peaks := make([]peak, 0)
	for rhoIdx := 0; rhoIdx < numRho; rhoIdx++ {
		for theta := 0; theta < numAngles; theta++ {
			idx := rhoIdx*numAngles + theta
			votes := accumulator[idx]
			if votes < threshold {
				continue
			}
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr := rhoIdx + dr
					if nr < 0 || nr >= numRho {
						continue
					}
					nIdx := nr*numAngles + (theta+dt+numAngles)%numAngles
					n := accumulator[nIdx]
					if n > votes || (n == votes && nIdx < idx) {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{rho: rhoIdx, theta: theta, votes: votes})
			}
		}
	}
	return peaks
}

// estimateLineThickness estimates stroke thickness by counting mask pixels on
// the perpendicular through the segment's midpoint.
func estimateLineThickness(mask *image.Gray, x1, y1, x2, y2 int) int {
	dx := float64(x2 - x1)
	dy := float64(y2 - y1)
	length := math.Sqrt(dx*dx + dy*dy)
	if length == 0 {
		return 1
	}

	// Perpendicular direction
	perpX := -dy / length
	perpY := dx / length

	midX := float64(x1+x2) / 2
	midY := float64(y1+y2) / 2

	bounds := mask.Bounds()
	thickness := 0
	for d := -10; d <= 10; d++ {
		px := int(math.Round(midX + float64(d)*perpX))
		py := int(math.Round(midY + float64(d)*perpY))
		if image.Pt(px, py).In(bounds) && mask.GrayAt(px, py).Y != 0 {
			thickness++
		}
	}

	if thickness < 1 {
		thickness = 1
	}
	return thickness
}

// sampleColorHex returns the hex color (#RRGGBB) of a pixel.
// No bounds checking is performed; caller must ensure coordinates are valid.
func sampleColorHex(img image.Image, x, y int) string {
	r, g, b, _ := img.At(x, y).RGBA()
	return fmt.Sprintf("#%02X%02X%02X", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
