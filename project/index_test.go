package project

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func seedProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"project.godot",
		"scenes/main.tscn",
		"scenes/ui/hud.tscn",
		"scripts/player.gd",
		"scripts/enemy.gd",
		"assets/theme.tres",
		"assets/icon.png",
		"README.md",
	}
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestIndex(t *testing.T, root string) *Index {
	t.Helper()
	idx, err := NewIndex(root, nil)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestFilesListsIndexedExtensionsSorted(t *testing.T) {
	idx := newTestIndex(t, seedProject(t))

	got := idx.Files("", "")
	want := []string{
		"res://assets/theme.tres",
		"res://scenes/main.tscn",
		"res://scenes/ui/hud.tscn",
		"res://scripts/enemy.gd",
		"res://scripts/player.gd",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Files() = %v, want %v", got, want)
	}
}

func TestFilesFilterByExtension(t *testing.T) {
	idx := newTestIndex(t, seedProject(t))

	got := idx.Files("", "gd")
	want := []string{"res://scripts/enemy.gd", "res://scripts/player.gd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Files(\"\", \"gd\") = %v, want %v", got, want)
	}

	// Dotted form is equivalent.
	if dotted := idx.Files("", ".gd"); !reflect.DeepEqual(dotted, want) {
		t.Errorf("Files(\"\", \".gd\") = %v, want %v", dotted, want)
	}
}

func TestFilesFilterByDirectory(t *testing.T) {
	idx := newTestIndex(t, seedProject(t))

	got := idx.Files("scenes", "")
	want := []string{"res://scenes/main.tscn", "res://scenes/ui/hud.tscn"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Files(\"scenes\", \"\") = %v, want %v", got, want)
	}

	// res:// prefixed directory is accepted too.
	if prefixed := idx.Files("res://scenes/ui", ""); !reflect.DeepEqual(prefixed, []string{"res://scenes/ui/hud.tscn"}) {
		t.Errorf("Files(\"res://scenes/ui\", \"\") = %v", prefixed)
	}
}

func TestContains(t *testing.T) {
	idx := newTestIndex(t, seedProject(t))

	if !idx.Contains("res://scripts/player.gd") {
		t.Error("player.gd should be indexed")
	}
	if idx.Contains("res://assets/icon.png") {
		t.Error("png must not be indexed")
	}
	if idx.Contains("res://scripts/ghost.gd") {
		t.Error("missing file reported as indexed")
	}
}

func TestCustomExtensions(t *testing.T) {
	root := seedProject(t)
	idx, err := NewIndex(root, []string{"png"})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	defer idx.Close()

	got := idx.Files("", "")
	if !reflect.DeepEqual(got, []string{"res://assets/icon.png"}) {
		t.Errorf("Files() = %v", got)
	}
}

func TestRefreshPicksUpNewFiles(t *testing.T) {
	root := seedProject(t)
	idx := newTestIndex(t, root)

	path := filepath.Join(root, "scripts", "boss.gd")
	if err := os.WriteFile(path, []byte("extends Node\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := idx.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !idx.Contains("res://scripts/boss.gd") {
		t.Error("explicit refresh missed new file")
	}
}

func TestHiddenDirectoriesSkipped(t *testing.T) {
	root := seedProject(t)
	hidden := filepath.Join(root, ".godot", "cache")
	if err := os.MkdirAll(hidden, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(hidden, "tmp.gd"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	idx := newTestIndex(t, root)
	if idx.Contains("res://.godot/cache/tmp.gd") {
		t.Error("hidden directory contents must not be indexed")
	}
}
