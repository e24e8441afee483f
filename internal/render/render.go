// Package render draws a raster preview of a segment set and its field.
//
// The preview is a top-down view of the x/y plane in the same orientation as
// the source drawing: segments are dark lines and every grid column that has
// samples gets a short arrow along the in-plane field direction seen from
// above (z > 0), colored from blue to red by the logarithm of the column's mean
// field magnitude. A caption strip at the bottom reports the counts.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"iter"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/linefield-mcp/internal/field"
	"github.com/ironsheep/linefield-mcp/internal/geom"
)

const (
	// minCanvas is the minimum length in pixels of the longer canvas side
	// before fitting.
	minCanvas = 256

	captionHeight = 20
	captionSize   = 12
)

var (
	background  = color.NRGBA{255, 255, 255, 255}
	segmentInk  = color.NRGBA{30, 30, 30, 255}
	captionInk  = color.NRGBA{60, 60, 60, 255}
	weakField   = colorful.Hcl(250, 0.6, 0.5)
	strongField = colorful.Hcl(20, 0.8, 0.55)
)

// Options controls the preview.
type Options struct {
	// MaxSize bounds both sides of the final image. Larger previews are
	// scaled down to fit.
	MaxSize int

	// Margin is the blank border, in canvas pixels, around the drawing.
	Margin int

	// ArrowLength is the glyph length in canvas pixels.
	ArrowLength float64

	// Caption enables the bottom caption strip.
	Caption bool
}

// DefaultOptions returns an 800 pixel preview with captions.
func DefaultOptions() Options {
	return Options{
		MaxSize:     800,
		Margin:      24,
		ArrowLength: 10,
		Caption:     true,
	}
}

// Validate rejects unusable sizes.
func (o Options) Validate() error {
	if o.MaxSize < 1 {
		return fmt.Errorf("preview size must be positive, got %d", o.MaxSize)
	}
	if o.Margin < 0 {
		return fmt.Errorf("preview margin must not be negative, got %d", o.Margin)
	}
	if !(o.ArrowLength >= 0) || math.IsInf(o.ArrowLength, 0) {
		return fmt.Errorf("invalid arrow length %v", o.ArrowLength)
	}
	return nil
}

// column accumulates the samples of one (x, y) grid column.
type column struct {
	x, y    float64
	up      geom.Vector // in-plane sum over z > 0
	all     geom.Vector // in-plane sum over every sample
	upCount int
	magSum  float64
	count   int
}

func (c *column) direction() (float64, float64) {
	v := c.all
	if c.upCount > 0 {
		v = c.up
	}
	n := math.Hypot(v.X, v.Y)
	if n == 0 {
		return 0, 0
	}
	return v.X / n, v.Y / n
}

// Preview renders segments and samples over bounds.
//
// Samples are grouped by their (x, y) position. Bounds are normally the
// ones the samples were generated for; anything outside them is clipped.
func Preview(segs []geom.LineSegment, samples iter.Seq[field.Sample], b field.Bounds, opts Options) (*image.NRGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for _, v := range []float64{b.MinX, b.MaxX, b.MinY, b.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid preview bounds %+v", b)
		}
	}
	if b.MaxX < b.MinX || b.MaxY < b.MinY {
		return nil, fmt.Errorf("invalid preview bounds %+v", b)
	}

	// The canvas never exceeds MaxSize before the caption strip, whatever
	// the drawing's coordinates.
	limit := max(opts.MaxSize, 2*opts.Margin+1)
	extent := math.Max(b.MaxX-b.MinX, b.MaxY-b.MinY)
	scale := 1.0
	if extent > 0 {
		if extent < minCanvas {
			scale = minCanvas / extent
		}
		fit := float64(max(opts.MaxSize-2*opts.Margin, 1)) / extent
		scale = math.Min(scale, fit)
	}
	margin := float64(opts.Margin)
	width := int(math.Ceil((b.MaxX-b.MinX)*scale + 2*margin))
	height := int(math.Ceil((b.MaxY-b.MinY)*scale + 2*margin))
	width = min(max(width, 1), limit)
	height = min(max(height, 1), limit)
	drawHeight := height
	if opts.Caption {
		height += captionHeight
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	toCanvas := func(x, y float64) (float64, float64) {
		return margin + (x-b.MinX)*scale, margin + (y-b.MinY)*scale
	}

	clip := image.Rect(0, 0, width, drawHeight)
	columns, sampleCount := groupColumns(samples)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range columns {
		if m := c.magSum / float64(c.count); m > 0 {
			lo = math.Min(lo, math.Log(m))
			hi = math.Max(hi, math.Log(m))
		}
	}
	for _, c := range columns {
		t := 0.0
		if m := c.magSum / float64(c.count); m > 0 && hi > lo {
			t = (math.Log(m) - lo) / (hi - lo)
		}
		ink := weakField.BlendHcl(strongField, t).Clamped()
		cx, cy := toCanvas(c.x, c.y)
		ux, uy := c.direction()
		drawArrow(canvas, clip, cx, cy, ux, uy, opts.ArrowLength, ink)
	}

	// Segments go on top of the glyphs.
	for _, s := range segs {
		x0, y0 := toCanvas(s.P1.X, s.P1.Y)
		x1, y1 := toCanvas(s.P2.X, s.P2.Y)
		drawLine(canvas, clip, x0, y0, x1, y1, segmentInk)
	}

	if opts.Caption {
		caption := fmt.Sprintf("%d segments, %d samples", len(segs), sampleCount)
		drawText(canvas, opts.Margin, height-6, caption, captionInk)
	}

	if width > opts.MaxSize || height > opts.MaxSize {
		return imaging.Fit(canvas, opts.MaxSize, opts.MaxSize, imaging.Lanczos), nil
	}
	return canvas, nil
}

// groupColumns collects samples into columns in first-seen order.
func groupColumns(samples iter.Seq[field.Sample]) ([]*column, int) {
	if samples == nil {
		return nil, 0
	}
	index := make(map[[2]float64]*column)
	var columns []*column
	n := 0
	for s := range samples {
		n++
		key := [2]float64{s.Position.X, s.Position.Y}
		c, ok := index[key]
		if !ok {
			c = &column{x: s.Position.X, y: s.Position.Y}
			index[key] = c
			columns = append(columns, c)
		}
		inPlane := geom.Vector{X: s.Vector.X, Y: s.Vector.Y}
		c.all = c.all.Add(inPlane)
		if s.Position.Z > 0 {
			c.up = c.up.Add(inPlane)
			c.upCount++
		}
		c.magSum += s.Vector.Length()
		c.count++
	}
	return columns, n
}

// drawArrow draws a glyph of the given length centered on (cx, cy) and
// pointing along (ux, uy). A zero direction draws a dot.
func drawArrow(img *image.NRGBA, clip image.Rectangle, cx, cy, ux, uy, length float64, c color.Color) {
	if ux == 0 && uy == 0 || length == 0 {
		for dy := 0; dy <= 1; dy++ {
			for dx := 0; dx <= 1; dx++ {
				setClipped(img, clip, int(math.Round(cx))+dx, int(math.Round(cy))+dy, c)
			}
		}
		return
	}

	half := length / 2
	tx, ty := cx+ux*half, cy+uy*half
	drawLine(img, clip, cx-ux*half, cy-uy*half, tx, ty, c)

	// Head wings at ±150° from the shaft.
	wing := length / 3
	for _, a := range []float64{5 * math.Pi / 6, -5 * math.Pi / 6} {
		sin, cos := math.Sincos(a)
		wx := ux*cos - uy*sin
		wy := ux*sin + uy*cos
		drawLine(img, clip, tx, ty, tx+wx*wing, ty+wy*wing, c)
	}
}

// drawLine rasterizes a line by stepping one pixel along its major axis.
func drawLine(img *image.NRGBA, clip image.Rectangle, x0, y0, x1, y1 float64, c color.Color) {
	x0, y0, x1, y1, ok := clipLine(clip, x0, y0, x1, y1)
	if !ok {
		return
	}
	dx := x1 - x0
	dy := y1 - y0
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		setClipped(img, clip, int(math.Round(x0)), int(math.Round(y0)), c)
		return
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		setClipped(img, clip, int(math.Round(x0+dx*f)), int(math.Round(y0+dy*f)), c)
	}
}

// clipLine trims the line to clip, widened by one pixel for rounding, using
// Liang-Barsky. It reports false when nothing of the line is inside.
func clipLine(clip image.Rectangle, x0, y0, x1, y1 float64) (float64, float64, float64, float64, bool) {
	for _, v := range []float64{x0, y0, x1, y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, 0, false
		}
	}
	xmin, ymin := float64(clip.Min.X-1), float64(clip.Min.Y-1)
	xmax, ymax := float64(clip.Max.X), float64(clip.Max.Y)
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{x0 - xmin, xmax - x0, y0 - ymin, ymax - y0}
	for i := range p {
		if p[i] == 0 {
			if q[i] < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q[i] / p[i]
		if p[i] < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return x0 + dx*t0, y0 + dy*t0, x0 + dx*t1, y0 + dy*t1, true
}

func setClipped(img *image.NRGBA, clip image.Rectangle, x, y int, c color.Color) {
	if image.Pt(x, y).In(clip) {
		img.Set(x, y, c)
	}
}

var (
	captionFontOnce sync.Once
	captionFont     *truetype.Font
)

// captionFace returns a Go Regular face, or basicfont when the embedded font
// cannot be parsed. Faces cache glyphs and are not shared between calls.
func captionFace() font.Face {
	captionFontOnce.Do(func() {
		f, err := freetype.ParseFont(goregular.TTF)
		if err == nil {
			captionFont = f
		}
	})
	if captionFont == nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(captionFont, &truetype.Options{
		Size:    captionSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// drawText draws text on an image with y as the baseline.
func drawText(img draw.Image, x, y int, text string, col color.Color) {
	face := captionFace()
	defer face.Close()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
