package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ironsheep/linefield-mcp/internal/config"
)

func TestNew(t *testing.T) {
	s := New(nil, nil)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cache == nil {
		t.Fatal("New() did not initialize cache")
	}
	if s.cfg == nil || s.logger == nil {
		t.Fatal("New() did not apply defaults")
	}

	cfg := config.Default()
	cfg.Field.ExclusionRadius = 3
	if got := New(cfg, nil).cfg.Field.ExclusionRadius; got != 3 {
		t.Errorf("exclusion radius: got %v, want 3", got)
	}
}

func TestMCPRequest_WithParams(t *testing.T) {
	jsonStr := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"lines_detect","arguments":{"path":"/drawing.png"}}}`

	var req MCPRequest
	if err := json.Unmarshal([]byte(jsonStr), &req); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		t.Fatalf("Failed to unmarshal params: %v", err)
	}

	if params.Name != "lines_detect" {
		t.Errorf("params.Name: got %v, want lines_detect", params.Name)
	}
	if !strings.Contains(string(params.Arguments), "/drawing.png") {
		t.Errorf("params.Arguments: got %s", params.Arguments)
	}
}

func TestMCPResponse_WithError(t *testing.T) {
	resp := MCPResponse{
		JSONRPC: "2.0",
		ID:      1,
		Error: &MCPError{
			Code:    -32601,
			Message: "Method not found",
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if strings.Contains(string(data), `"result"`) {
		t.Errorf("error response should omit result: %s", data)
	}

	var decoded MCPResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if decoded.Error == nil {
		t.Fatal("Error should not be nil")
	}
	if decoded.Error.Code != -32601 {
		t.Errorf("Error.Code: got %d, want -32601", decoded.Error.Code)
	}
}

func TestHandleRequest(t *testing.T) {
	tests := []struct {
		method   string
		id       interface{}
		wantNil  bool
		wantCode int
	}{
		{"initialize", 1, false, 0},
		{"ping", "ping-1", false, 0},
		{"tools/list", 2.0, false, 0},
		{"notifications/initialized", nil, true, 0},
		{"nonexistent/method", 3, false, codeMethodNotFound},
		{"tools/call", 4, false, codeInvalidParams},
	}

	s := New(nil, nil)
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: tt.id, Method: tt.method})
			if tt.wantNil {
				if resp != nil {
					t.Errorf("expected no response, got %+v", resp)
				}
				return
			}
			if resp == nil {
				t.Fatal("handleRequest returned nil")
			}
			if resp.ID != tt.id || resp.JSONRPC != "2.0" {
				t.Errorf("envelope: got id %v jsonrpc %q", resp.ID, resp.JSONRPC)
			}
			switch {
			case tt.wantCode == 0 && resp.Error != nil:
				t.Errorf("unexpected error %+v", resp.Error)
			case tt.wantCode != 0 && (resp.Error == nil || resp.Error.Code != tt.wantCode):
				t.Errorf("expected error code %d, got %+v", tt.wantCode, resp.Error)
			}
		})
	}
}

func TestHandleInitialize(t *testing.T) {
	resp := New(nil, nil).handleInitialize(&MCPRequest{JSONRPC: "2.0", ID: "init-1"})

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}

	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("serverInfo should be a map")
	}
	if serverInfo["name"] != "linefield-mcp" || serverInfo["version"] != Version {
		t.Errorf("serverInfo: got %v", serverInfo)
	}
}

func TestErrorResponse_OmitsEmptyData(t *testing.T) {
	s := New(nil, nil)

	data, _ := json.Marshal(s.errorResponse(1, codeMethodNotFound, "Method not found: x", ""))
	if strings.Contains(string(data), `"data"`) {
		t.Errorf("empty data should be omitted: %s", data)
	}
	data, _ = json.Marshal(s.errorResponse(1, codeToolFailed, "Tool execution failed", "boom"))
	if !strings.Contains(string(data), `"data":"boom"`) {
		t.Errorf("data missing: %s", data)
	}
}

func TestServe(t *testing.T) {
	s := New(nil, nil)
	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"lines_consolidate","arguments":{"segments":[{"p1":{"x":0,"y":0},"p2":{"x":100,"y":0}},{"p1":{"x":0,"y":1},"p2":{"x":100,"y":1}}]}}}`,
	}, "\n")

	var out bytes.Buffer
	if err := s.Serve(context.Background(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	// One response per request; the notification, blank line and garbage
	// produce none.
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 responses, got %d:\n%s", len(lines), out.String())
	}

	var resp struct {
		ID     float64 `json:"id"`
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
		Error *MCPError `json:"error"`
	}
	if err := json.Unmarshal([]byte(lines[2]), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.ID != 3 || resp.Error != nil || len(resp.Result.Content) != 1 {
		t.Fatalf("unexpected tools/call response: %s", lines[2])
	}

	var result linesConsolidateResult
	if err := json.Unmarshal([]byte(resp.Result.Content[0].Text), &result); err != nil {
		t.Fatalf("Failed to decode tool result: %v", err)
	}
	if len(result.Segments) != 1 || result.Report.Duplicates != 1 {
		t.Errorf("expected one duplicate removed, got %+v", result)
	}
}

func TestServe_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := New(nil, nil).Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %s", out.String())
	}
}
