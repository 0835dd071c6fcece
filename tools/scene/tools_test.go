package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	scenegraph "github.com/slighter12/godot-agent-tools/scene"
	tooltypes "github.com/slighter12/godot-agent-tools/tools/types"
)

func newTestEnv(t *testing.T) *tooltypes.Env {
	t.Helper()
	root := scenegraph.NewNode("Node2D", "Main")
	root.AddChild(scenegraph.NewNode("CharacterBody2D", "Player"))
	root.AddChild(scenegraph.NewNode("Sprite2D", "Background"))

	tree := scenegraph.NewTree()
	tree.SetRoot(root)

	projectRoot := t.TempDir()
	return &tooltypes.Env{
		Tree:        tree,
		Loader:      scenegraph.NewFileResourceLoader(projectRoot),
		ProjectRoot: projectRoot,
	}
}

func TestSaveWithoutPathSuggestsSaveAs(t *testing.T) {
	tool := New(newTestEnv(t))
	result := tool.Execute("save", nil)
	if result.OK() {
		t.Fatal("save without a path must fail")
	}
	if !strings.Contains(result.Message(), "save_as") {
		t.Errorf("message = %q", result.Message())
	}
}

func TestSaveAsThenSave(t *testing.T) {
	env := newTestEnv(t)
	tool := New(env)

	result := tool.Execute("save_as", tooltypes.ArgumentBundle{"path": "scenes/main.tscn"})
	if !result.OK() {
		t.Fatalf("save_as failed: %v", result)
	}
	if result["path"] != "res://scenes/main.tscn" {
		t.Errorf("path = %v", result["path"])
	}
	if _, err := os.Stat(filepath.Join(env.ProjectRoot, "scenes", "main.tscn")); err != nil {
		t.Fatalf("scene not written: %v", err)
	}

	// With the path attached, plain save now works.
	if result := tool.Execute("save", nil); !result.OK() {
		t.Fatalf("save failed: %v", result)
	}
}

func TestSaveAsRejectsNonSceneExtension(t *testing.T) {
	tool := New(newTestEnv(t))
	result := tool.Execute("save_as", tooltypes.ArgumentBundle{"path": "scenes/main.gd"})
	if result.OK() || result.ErrorCode() != tooltypes.CodeFileError {
		t.Errorf("extension gate: %v", result)
	}
}

func TestGetInfo(t *testing.T) {
	env := newTestEnv(t)
	env.Tree.Select(env.Tree.Root().GetNodeOrNil("Player"))
	tool := New(env)

	result := tool.Execute("get_info", nil)
	if !result.OK() {
		t.Fatalf("get_info failed: %v", result)
	}
	if result["node_count"] != 3 {
		t.Errorf("node_count = %v", result["node_count"])
	}
	counts, _ := result["type_counts"].(map[string]int)
	if counts["Sprite2D"] != 1 || counts["Node2D"] != 1 {
		t.Errorf("type_counts = %v", counts)
	}
	selection, _ := result["selection"].([]string)
	if len(selection) != 1 || selection[0] != "Player" {
		t.Errorf("selection = %v", selection)
	}
}

func TestCreateNew(t *testing.T) {
	env := newTestEnv(t)
	tool := New(env)

	result := tool.Execute("create_new", tooltypes.ArgumentBundle{
		"root_type": "Control",
		"root_name": "Menu",
	})
	if !result.OK() {
		t.Fatalf("create_new failed: %v", result)
	}
	if env.Tree.Root().Name() != "Menu" || env.Tree.Root().Class() != "Control" {
		t.Errorf("root = %s (%s)", env.Tree.Root().Name(), env.Tree.Root().Class())
	}
	if env.Tree.ResPath() != "" {
		t.Errorf("new scene should be unsaved, got %q", env.Tree.ResPath())
	}
}

func TestCreateNewWithPathSavesImmediately(t *testing.T) {
	env := newTestEnv(t)
	tool := New(env)

	result := tool.Execute("create_new", tooltypes.ArgumentBundle{"path": "fresh.tscn"})
	if !result.OK() {
		t.Fatalf("create_new failed: %v", result)
	}
	if result["path"] != "res://fresh.tscn" {
		t.Errorf("path = %v", result["path"])
	}
	if _, err := os.Stat(filepath.Join(env.ProjectRoot, "fresh.tscn")); err != nil {
		t.Errorf("scene not written: %v", err)
	}
}

func TestCreateNewDefaults(t *testing.T) {
	env := newTestEnv(t)
	tool := New(env)

	if result := tool.Execute("create_new", nil); !result.OK() {
		t.Fatalf("create_new failed: %v", result)
	}
	if env.Tree.Root().Class() != "Node2D" || env.Tree.Root().Name() != "Main" {
		t.Errorf("defaults = %s (%s)", env.Tree.Root().Name(), env.Tree.Root().Class())
	}
}

func TestOpenRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	tool := New(env)

	if result := tool.Execute("save_as", tooltypes.ArgumentBundle{"path": "level.tscn"}); !result.OK() {
		t.Fatalf("save_as failed: %v", result)
	}

	// Replace the tree, then open the saved scene back.
	if result := tool.Execute("create_new", tooltypes.ArgumentBundle{"root_type": "Control"}); !result.OK() {
		t.Fatal("create_new failed")
	}

	result := tool.Execute("open", tooltypes.ArgumentBundle{"path": "level.tscn"})
	if !result.OK() {
		t.Fatalf("open failed: %v", result)
	}
	if result["root_name"] != "Main" {
		t.Errorf("root_name = %v", result["root_name"])
	}
	if env.Tree.Root().GetNodeOrNil("Player") == nil {
		t.Error("loaded scene missing Player")
	}
}

func TestOpenMissingScene(t *testing.T) {
	tool := New(newTestEnv(t))
	result := tool.Execute("open", tooltypes.ArgumentBundle{"path": "ghost.tscn"})
	if result.OK() || result.ErrorCode() != tooltypes.CodeFileError {
		t.Errorf("missing scene: %v", result)
	}
}
