package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	diskPath := filepath.Join(tempDir, "main.tscn")

	tree := NewTree()
	root := NewNode("Node2D", "Main")
	tree.SetRoot(root)

	player := NewNode("CharacterBody2D", "Player")
	player.Set("position", Vector2{X: 10, Y: 20})
	root.AddChild(player)
	player.SetOwner(root)

	sprite := NewNode("Sprite2D", "Sprite2D")
	player.AddChild(sprite)
	sprite.SetOwner(root)
	sprite.SetScript("res://player_sprite.gd")

	label := NewNode("Label", "Title")
	label.Set("modulate", Color{R: 1, G: 0, B: 0, A: 1})
	root.AddChild(label)
	label.SetOwner(root)

	tree.SetPaths("res://main.tscn", diskPath)
	if err := tree.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := NewTree()
	if err := loaded.LoadInto("res://main.tscn", diskPath); err != nil {
		t.Fatalf("LoadInto failed: %v", err)
	}

	if loaded.Root().Name() != "Main" || loaded.Root().Class() != "Node2D" {
		t.Fatalf("Root mismatch: %s/%s", loaded.Root().Name(), loaded.Root().Class())
	}

	loadedPlayer := loaded.Root().GetNodeOrNil("Player")
	if loadedPlayer == nil {
		t.Fatal("Player missing after reload")
	}
	pos, _ := loadedPlayer.Get("position")
	if v, ok := pos.(Vector2); !ok || v.X != 10 || v.Y != 20 {
		t.Errorf("Expected position (10, 20), got %v", pos)
	}

	loadedSprite := loaded.Root().GetNodeOrNil("Player/Sprite2D")
	if loadedSprite == nil {
		t.Fatal("Nested sprite missing after reload")
	}
	if loadedSprite.Script() != "res://player_sprite.gd" {
		t.Errorf("Expected script to survive, got %q", loadedSprite.Script())
	}

	loadedLabel := loaded.Root().GetNodeOrNil("Title")
	mod, _ := loadedLabel.Get("modulate")
	if c, ok := mod.(Color); !ok || c.R != 1 || c.G != 0 {
		t.Errorf("Expected red modulate, got %v", mod)
	}
}

func TestSaveSkipsDefaultProperties(t *testing.T) {
	tempDir := t.TempDir()
	diskPath := filepath.Join(tempDir, "plain.tscn")

	tree := NewTree()
	tree.SetRoot(NewNode("Node2D", "Main"))
	if err := tree.SaveTo(diskPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	data, err := os.ReadFile(diskPath)
	if err != nil {
		t.Fatalf("read scene: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "visible") || strings.Contains(content, "position") {
		t.Errorf("Expected untouched defaults to be omitted, got:\n%s", content)
	}
	if !strings.Contains(content, `[node name="Main" type="Node2D"]`) {
		t.Errorf("Expected root section header, got:\n%s", content)
	}
}

func TestSaveIfOnDiskNoPathIsNoop(t *testing.T) {
	tree := NewTree()
	tree.SetRoot(NewNode("Node2D", "Main"))

	saved, err := tree.SaveIfOnDisk()
	if err != nil {
		t.Fatalf("SaveIfOnDisk failed: %v", err)
	}
	if saved {
		t.Error("Expected no autosave without a disk path")
	}
}

func TestSaveWithoutPathFails(t *testing.T) {
	tree := NewTree()
	tree.SetRoot(NewNode("Node2D", "Main"))
	if err := tree.Save(); err == nil {
		t.Error("Expected Save to fail without a path")
	}
}

func TestLoadIntoRejectsMalformed(t *testing.T) {
	tempDir := t.TempDir()

	cases := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"property outside section", "position = Vector2(1, 2)\n"},
		{"unknown parent", "[node name=\"Main\" type=\"Node2D\"]\n\n[node name=\"X\" type=\"Node2D\" parent=\"Missing\"]\n"},
		{"bad literal", "[node name=\"Main\" type=\"Node2D\"]\nposition = Banana(1)\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			diskPath := filepath.Join(tempDir, strings.ReplaceAll(tc.name, " ", "_")+".tscn")
			if err := os.WriteFile(diskPath, []byte(tc.content), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			tree := NewTree()
			if err := tree.LoadInto("res://bad.tscn", diskPath); err == nil {
				t.Errorf("Expected load error for %s", tc.name)
			}
		})
	}
}

func TestSelection(t *testing.T) {
	tree := NewTree()
	root := NewNode("Node2D", "Main")
	tree.SetRoot(root)
	child := NewNode("Label", "Label")
	root.AddChild(child)

	tree.Select(child)
	sel := tree.Selection()
	if len(sel) != 1 || sel[0] != child {
		t.Fatalf("Expected selection [Label], got %v", sel)
	}

	// SetRoot clears stale selection.
	tree.SetRoot(NewNode("Node2D", "Other"))
	if len(tree.Selection()) != 0 {
		t.Error("Expected selection cleared after root replacement")
	}
}
