package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/linefield-mcp/internal/config"
	"github.com/ironsheep/linefield-mcp/internal/consolidate"
	"github.com/ironsheep/linefield-mcp/internal/detection"
	"github.com/ironsheep/linefield-mcp/internal/field"
	"github.com/ironsheep/linefield-mcp/internal/geom"
	"github.com/ironsheep/linefield-mcp/internal/imaging"
	"github.com/ironsheep/linefield-mcp/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "lines_detect", "field_render").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return resultResponse(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": mustMarshalJSON(result),
			},
		},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each handler unmarshals its arguments, overlays them on the server
// configuration and runs the matching stage of the pipeline.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "lines_detect":
		return s.handleLinesDetect(args)
	case "lines_consolidate":
		return s.handleLinesConsolidate(args)
	case "field_synthesize":
		return s.handleFieldSynthesize(ctx, args)
	case "field_render":
		return s.handleFieldRender(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse builds a JSON-RPC error. An empty data string is omitted.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Argument overlays ===

type detectArgs struct {
	Path       string            `json:"path"`
	Threshold  int               `json:"threshold"`
	MinLength  *float64          `json:"min_length"`
	MaxGap     *float64          `json:"max_gap"`
	MaxLines   int               `json:"max_lines"`
	Preprocess string            `json:"preprocess"`
	Region     *detection.Bounds `json:"region"`
}

func (a detectArgs) apply(opts *detection.Options) {
	if a.Threshold != 0 {
		opts.Threshold = a.Threshold
	}
	if a.MinLength != nil {
		opts.MinLength = *a.MinLength
	}
	if a.MaxGap != nil {
		opts.MaxGap = *a.MaxGap
	}
	if a.MaxLines != 0 {
		opts.MaxLines = a.MaxLines
	}
	if a.Preprocess != "" {
		opts.Preprocess = detection.Preprocess(a.Preprocess)
	}
	if a.Region != nil {
		r := *a.Region
		opts.Region = &r
	}
}

type consolidateArgs struct {
	AngleToleranceDeg *float64 `json:"angle_tolerance_deg"`
	DistanceTolerance *float64 `json:"distance_tolerance"`
	SnapTolerance     *float64 `json:"snap_tolerance"`
}

func (a consolidateArgs) apply(opts *consolidate.Options) {
	if a.AngleToleranceDeg != nil {
		opts.AngleTolerance = *a.AngleToleranceDeg * math.Pi / 180
	}
	if a.DistanceTolerance != nil {
		opts.DistanceTolerance = *a.DistanceTolerance
	}
	if a.SnapTolerance != nil {
		opts.SnapTolerance = *a.SnapTolerance
	}
}

type fieldArgs struct {
	detectArgs
	consolidateArgs

	// Segments, when present, replace detection on Path.
	Segments        []geom.LineSegment `json:"segments"`
	ExclusionRadius *float64           `json:"exclusion_radius"`
	Resolution      *field.Resolution  `json:"resolution"`
}

// config overlays the arguments on a copy of base.
func (a fieldArgs) config(base *config.Config) *config.Config {
	cfg := *base
	a.detectArgs.apply(&cfg.Detection)
	a.consolidateArgs.apply(&cfg.Consolidate)
	if a.ExclusionRadius != nil {
		cfg.Field.ExclusionRadius = *a.ExclusionRadius
	}
	if a.Resolution != nil {
		cfg.Field.Resolution = *a.Resolution
	}
	return &cfg
}

// run consolidates the given segments, or detects them in the drawing at
// Path first, and samples their field.
func (s *Server) run(ctx context.Context, a fieldArgs, cfg *config.Config) (*pipeline.Result, error) {
	if a.Segments != nil {
		return pipeline.RunSegments(ctx, a.Segments, cfg, s.logger)
	}
	if a.Path == "" {
		return nil, errors.New("either path or segments is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(ctx, img, cfg, s.logger)
}

// === Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Segment Handlers ===

func (s *Server) handleLinesDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts := s.cfg.Detection
	a.apply(&opts)
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return detection.DetectLines(img, opts)
}

type linesConsolidateArgs struct {
	consolidateArgs
	Segments []geom.LineSegment `json:"segments"`
}

type linesConsolidateResult struct {
	Segments []geom.LineSegment `json:"segments"`
	Report   consolidate.Report `json:"report"`
}

func (s *Server) handleLinesConsolidate(args json.RawMessage) (interface{}, error) {
	var a linesConsolidateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Segments == nil {
		return nil, errors.New("segments is required")
	}
	opts := s.cfg.Consolidate
	a.apply(&opts)

	set, rep, err := consolidate.Consolidate(geom.NewSegmentSet(a.Segments...), opts)
	if err != nil {
		return nil, err
	}
	return &linesConsolidateResult{Segments: set.Segments(), Report: rep}, nil
}

// === Field Handlers ===

type fieldSynthesizeArgs struct {
	fieldArgs
	IncludeTraces bool `json:"include_traces"`
}

type fieldSynthesizeResult struct {
	*pipeline.Result
	Traces []field.Trace `json:"traces,omitempty"`
}

func (s *Server) handleFieldSynthesize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a fieldSynthesizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	res, err := s.run(ctx, a.fieldArgs, a.config(s.cfg))
	if err != nil {
		return nil, err
	}
	out := &fieldSynthesizeResult{Result: res}
	if a.IncludeTraces {
		out.Traces = field.SegmentTraces(res.Segments)
	}
	return out, nil
}

type fieldRenderArgs struct {
	fieldArgs
	MaxSize int   `json:"max_size"`
	Caption *bool `json:"caption"`
}

type fieldRenderResult struct {
	ImageBase64 string             `json:"image_base64"`
	MimeType    string             `json:"mime_type"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Segments    int                `json:"segment_count"`
	Samples     int                `json:"sample_count"`
	Report      consolidate.Report `json:"report"`
}

func (s *Server) handleFieldRender(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a fieldRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg := a.config(s.cfg)
	if a.MaxSize != 0 {
		cfg.Preview.MaxSize = a.MaxSize
	}
	if a.Caption != nil {
		cfg.Preview.Caption = *a.Caption
	}

	res, err := s.run(ctx, a.fieldArgs, cfg)
	if err != nil {
		return nil, err
	}
	img, err := res.Preview(cfg.Preview)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNGBase64(img)
	if err != nil {
		return nil, err
	}

	return &fieldRenderResult{
		ImageBase64: encoded,
		MimeType:    "image/png",
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		Segments:    len(res.Segments),
		Samples:     res.Columns.Len(),
		Report:      res.Report,
	}, nil
}
