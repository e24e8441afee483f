package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pointSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number"},
			"y": map[string]interface{}{"type": "number"},
			"z": map[string]interface{}{"type": "number", "default": 0},
		},
		"required": []string{"x", "y"},
	}
}

func segmentsSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Line segments as endpoint pairs",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"p1": pointSchema(),
				"p2": pointSchema(),
			},
			"required": []string{"p1", "p2"},
		},
	}
}

func pathSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the drawing",
	}
}

func detectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathSchema(),
		"threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Minimum Hough votes for a candidate line",
			"default":     50,
		},
		"min_length": map[string]interface{}{
			"type":        "number",
			"description": "Minimum segment length in pixels",
			"default":     10,
		},
		"max_gap": map[string]interface{}{
			"type":        "number",
			"description": "Largest gap in pixels bridged within one segment",
			"default":     2,
		},
		"max_lines": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum number of segments returned",
			"default":     100,
		},
		"preprocess": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"threshold", "canny"},
			"description": "Foreground threshold for ink drawings, canny for photographs",
			"default":     "threshold",
		},
	}
}

func consolidationProperties(props map[string]interface{}) map[string]interface{} {
	props["angle_tolerance_deg"] = map[string]interface{}{
		"type":        "number",
		"description": "Maximum angle in degrees between duplicate segments",
		"default":     4,
	}
	props["distance_tolerance"] = map[string]interface{}{
		"type":        "number",
		"description": "Maximum distance between duplicate segments",
		"default":     10,
	}
	props["snap_tolerance"] = map[string]interface{}{
		"type":        "number",
		"description": "Endpoints closer than this are merged",
		"default":     10,
	}
	return props
}

func fieldProperties() map[string]interface{} {
	props := consolidationProperties(detectionProperties())
	props["path"] = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the drawing. Ignored when segments are given",
	}
	props["segments"] = segmentsSchema()
	props["exclusion_radius"] = map[string]interface{}{
		"type":        "number",
		"description": "Grid points closer than this to any segment are skipped",
		"default":     10,
	}
	props["resolution"] = map[string]interface{}{
		"type":        "object",
		"description": "Grid points per axis",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "integer", "default": 41},
			"y": map[string]interface{}{"type": "integer", "default": 41},
			"z": map[string]interface{}{"type": "integer", "default": 21},
		},
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	synthesize := fieldProperties()
	synthesize["include_traces"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Also return each segment as an endpoint-pair trace",
		"default":     false,
	}

	render := fieldProperties()
	render["max_size"] = map[string]interface{}{
		"type":        "integer",
		"description": "Maximum width and height of the preview in pixels",
		"default":     800,
	}
	render["caption"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Draw the segment and sample counts under the preview",
		"default":     true,
	}

	detect := detectionProperties()
	detect["region"] = map[string]interface{}{
		"type":        "object",
		"description": "Restrict detection to a rectangle; coordinates stay in full-image pixels",
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer"},
			"y1": map[string]interface{}{"type": "integer"},
			"x2": map[string]interface{}{"type": "integer"},
			"y2": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}

	return []Tool{
		{
			Name:        "image_load",
			Description: "Load a drawing and return its dimensions and format. The image stays cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathSchema(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "lines_detect",
			Description: "Detect straight line segments in a drawing with a probabilistic Hough transform. Returns raw segments in pixel coordinates, before consolidation.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detect,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "lines_consolidate",
			Description: "Remove near-duplicate segments and snap nearby endpoints together. Returns the canonical segments and a count of what changed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": consolidationProperties(map[string]interface{}{
					"segments": segmentsSchema(),
				}),
				"required": []string{"segments"},
			},
		},
		{
			Name:        "field_synthesize",
			Description: "Consolidate segments (given directly or detected in a drawing) and sample the sum of their inverse-square fields on a 3D grid. Returns column arrays x, y, z, u, v, w.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": synthesize,
			},
		},
		{
			Name:        "field_render",
			Description: "Render a top-down PNG preview of the canonical segments and their field as base64.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": render,
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return resultResponse(req.ID, map[string]interface{}{
		"tools": GetToolDefinitions(),
	})
}
