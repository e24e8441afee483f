// Package server implements the MCP (Model Context Protocol) server for line
// drawings and their synthesized fields.
//
// The server speaks JSON-RPC 2.0 over stdio:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load a drawing and get its metadata
//   - lines_detect: Detect raw line segments with a Hough transform
//   - lines_consolidate: Remove duplicate segments and snap endpoints
//   - field_synthesize: Sample the field of the canonical segments on a grid
//   - field_render: Render a PNG preview of segments and field
//
// Tool arguments override the server's configuration for that call only;
// omitted arguments fall back to the LINEFIELD_* environment settings.
//
// # Image Caching
//
// Drawings are cached by path and reused across tool calls for the lifetime
// of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(cfg, nil)
//	if err := srv.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package server
