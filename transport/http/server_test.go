package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/slighter12/godot-agent-tools/config"
	"github.com/slighter12/godot-agent-tools/scene"
	"github.com/slighter12/godot-agent-tools/tools"
	"github.com/slighter12/godot-agent-tools/tools/types"
	"github.com/slighter12/godot-agent-tools/trace"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	tree := scene.NewTree()
	tree.SetRoot(scene.NewNode("Node2D", "Main"))
	env := &types.Env{
		Tree:        tree,
		Loader:      scene.NewFileResourceLoader(t.TempDir()),
		Traces:      trace.NewManager(trace.Limits{}),
		ProjectRoot: t.TempDir(),
	}
	manager := tools.NewManager()
	manager.RegisterDefaultTools(env)
	return NewServer(config.NewConfig(), manager)
}

func doJSON(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestHealthz(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestInfoEndpoint(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["execute_endpoint"] != "/tools/execute" {
		t.Errorf("body = %v", body)
	}
}

func TestToolListEndpoint(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodGet, "/tools", "")
	body := decodeBody(t, rec)
	list, _ := body["tools"].([]any)
	if len(list) != 4 {
		t.Errorf("tools = %v", body["tools"])
	}
}

func TestExecuteSuccess(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodPost, "/tools/execute",
		`{"tool":"node_manager","operation":"create","args":{"node_type":"Sprite2D","node_name":"Icon"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("body = %v", body)
	}
	if body["node_path"] != "Icon" {
		t.Errorf("node_path = %v", body["node_path"])
	}
}

func TestExecuteToolFailureIsStillHTTP200(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodPost, "/tools/execute",
		`{"tool":"node_manager","operation":"delete","args":{"node_path":"Ghost"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, tool failures ride HTTP 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false {
		t.Errorf("body = %v", body)
	}
	if body["error_code"] != types.CodeNodeNotFound {
		t.Errorf("error_code = %v", body["error_code"])
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodPost, "/tools/execute",
		`{"tool":"phantom","operation":"x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false || body["message"] != "Unknown tool: phantom" {
		t.Errorf("body = %v", body)
	}
}

func TestExecuteOperationInsideArgs(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodPost, "/tools/execute",
		`{"tool":"scene_manager","args":{"operation":"get_info"}}`)
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestExecuteMalformedBody(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodPost, "/tools/execute", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestExecuteMissingToolName(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodPost, "/tools/execute", `{"operation":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestExecuteOversizedBody(t *testing.T) {
	huge := `{"tool":"node_manager","operation":"create","args":{"padding":"` +
		strings.Repeat("x", maxRequestBodyBytes+1024) + `"}}`
	rec := doJSON(t, newTestServer(t), http.MethodPost, "/tools/execute", huge)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}
