package tools

import (
	"sort"
	"testing"

	"github.com/slighter12/godot-agent-tools/scene"
	"github.com/slighter12/godot-agent-tools/tools/types"
	"github.com/slighter12/godot-agent-tools/trace"
)

type stubTool struct {
	name   string
	result types.ResultBundle
}

func (s *stubTool) Name() string         { return s.name }
func (s *stubTool) Description() string  { return "stub" }
func (s *stubTool) Operations() []string { return []string{"noop"} }
func (s *stubTool) Execute(operation string, args types.ArgumentBundle) types.ResultBundle {
	return s.result
}

func newTestEnv(t *testing.T) *types.Env {
	t.Helper()
	tree := scene.NewTree()
	tree.SetRoot(scene.NewNode("Node2D", "Main"))
	return &types.Env{
		Tree:        tree,
		Loader:      scene.NewFileResourceLoader(t.TempDir()),
		Traces:      trace.NewManager(trace.Limits{}),
		ProjectRoot: t.TempDir(),
	}
}

func TestRegisterAndGetTool(t *testing.T) {
	m := NewManager()
	if err := m.RegisterTool(&stubTool{name: "stub"}); err != nil {
		t.Fatalf("RegisterTool: %v", err)
	}
	if _, ok := m.GetTool("stub"); !ok {
		t.Error("registered tool not found")
	}
	if _, ok := m.GetTool("other"); ok {
		t.Error("unknown tool reported as found")
	}
}

func TestRegisterToolValidation(t *testing.T) {
	m := NewManager()
	if err := m.RegisterTool(nil); err == nil {
		t.Error("nil tool accepted")
	}
	if err := m.RegisterTool(&stubTool{name: ""}); err == nil {
		t.Error("empty name accepted")
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	m := NewManager()
	result := m.Dispatch("phantom", "anything", nil)
	if result.OK() {
		t.Fatal("unknown tool must fail")
	}
	if result.ErrorCode() != types.CodeUnknownOperation {
		t.Errorf("error_code = %q", result.ErrorCode())
	}
	if result.Message() != "Unknown tool: phantom" {
		t.Errorf("message = %q", result.Message())
	}
}

func TestDispatchNilArgsAndNilResult(t *testing.T) {
	m := NewManager()
	m.RegisterTool(&stubTool{name: "ok", result: types.Success(nil)})
	m.RegisterTool(&stubTool{name: "broken", result: nil})

	if result := m.Dispatch("ok", "noop", nil); !result.OK() {
		t.Errorf("nil args dispatch = %v", result)
	}
	if result := m.Dispatch("broken", "noop", nil); result.OK() {
		t.Error("nil result must become a failure bundle")
	}
}

func TestRegisterDefaultTools(t *testing.T) {
	m := NewManager()
	m.RegisterDefaultTools(newTestEnv(t))

	var names []string
	for _, tool := range m.ListTools() {
		names = append(names, tool.Name())
	}
	sort.Strings(names)
	want := []string{"debug_manager", "file_manager", "node_manager", "scene_manager"}
	if len(names) != len(want) {
		t.Fatalf("tools = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("tools[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestDispatchRoutesToOperation(t *testing.T) {
	m := NewManager()
	m.RegisterDefaultTools(newTestEnv(t))

	result := m.Dispatch("node_manager", "create", types.ArgumentBundle{
		"node_type": "Sprite2D",
		"node_name": "Icon",
	})
	if !result.OK() {
		t.Fatalf("create via dispatch failed: %v", result)
	}

	// Unknown operation on a known tool is a coded failure, not an error.
	result = m.Dispatch("node_manager", "fly", nil)
	if result.OK() || result.ErrorCode() != types.CodeUnknownOperation {
		t.Errorf("unknown operation = %v", result)
	}
}

func TestInventory(t *testing.T) {
	m := NewManager()
	m.RegisterDefaultTools(newTestEnv(t))

	inventory := m.Inventory()
	if len(inventory) != 4 {
		t.Fatalf("inventory size = %d", len(inventory))
	}
	for _, entry := range inventory {
		if entry["name"] == "" || entry["description"] == "" {
			t.Errorf("incomplete entry: %v", entry)
		}
		ops, _ := entry["operations"].([]string)
		if len(ops) == 0 {
			t.Errorf("no operations for %v", entry["name"])
		}
	}
}
