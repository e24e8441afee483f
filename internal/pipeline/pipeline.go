// Package pipeline chains line detection, segment consolidation and field
// synthesis into one run over a drawing.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"

	"github.com/ironsheep/linefield-mcp/internal/config"
	"github.com/ironsheep/linefield-mcp/internal/consolidate"
	"github.com/ironsheep/linefield-mcp/internal/detection"
	"github.com/ironsheep/linefield-mcp/internal/field"
	"github.com/ironsheep/linefield-mcp/internal/geom"
	"github.com/ironsheep/linefield-mcp/internal/render"
)

// Result holds every stage's output.
type Result struct {
	// Raw is the detector output, before consolidation.
	Raw []geom.LineSegment `json:"raw"`

	// Segments is the canonical segment set.
	Segments []geom.LineSegment `json:"segments"`

	Report  consolidate.Report `json:"report"`
	Bounds  field.Bounds       `json:"bounds"`
	Columns *field.Columns     `json:"field"`
}

// Run detects the segments of img, consolidates them and samples their field.
//
// logger receives one line per stage; nil discards them.
func Run(ctx context.Context, img image.Image, cfg *config.Config, logger *log.Logger) (*Result, error) {
	logger = orDiscard(logger)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := detection.DetectSegments(img, cfg.Detection)
	if err != nil {
		return nil, fmt.Errorf("failed to detect segments: %w", err)
	}
	logger.Printf("detected %d raw segments", len(raw))

	return RunSegments(ctx, raw, cfg, logger)
}

// RunSegments consolidates raw and samples the field of the result.
func RunSegments(ctx context.Context, raw []geom.LineSegment, cfg *config.Config, logger *log.Logger) (*Result, error) {
	logger = orDiscard(logger)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set, rep, err := consolidate.Consolidate(geom.NewSegmentSet(raw...), cfg.Consolidate)
	if err != nil {
		return nil, fmt.Errorf("failed to consolidate segments: %w", err)
	}
	logger.Printf("consolidated %d segments into %d (degenerate %d, duplicates %d, snapped %d, collapsed %d)",
		rep.Input, rep.Output, rep.Degenerate, rep.Duplicates, rep.Snapped, rep.Collapsed)

	segs := set.Segments()
	seq, bounds, err := field.GenerateContext(ctx, segs, cfg.Field)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize field: %w", err)
	}

	columns := field.NewColumns()
	for s := range seq {
		columns.Append(s)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Printf("sampled %d of %d grid points", columns.Len(), gridPoints(segs, cfg.Field))

	if raw == nil {
		raw = []geom.LineSegment{}
	}
	return &Result{
		Raw:      raw,
		Segments: segs,
		Report:   rep,
		Bounds:   bounds,
		Columns:  columns,
	}, nil
}

// Preview renders the result's segments and field.
func (r *Result) Preview(opts render.Options) (*image.NRGBA, error) {
	img, err := render.Preview(r.Segments, r.Columns.All(), r.Bounds, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to render preview: %w", err)
	}
	return img, nil
}

func gridPoints(segs []geom.LineSegment, opts field.Options) int {
	if len(segs) == 0 {
		return 0
	}
	return opts.Resolution.Points()
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return logger
}
