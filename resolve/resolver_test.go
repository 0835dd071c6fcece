package resolve

import (
	"errors"
	"testing"

	"github.com/slighter12/godot-agent-tools/scene"
)

// Main
// ├── Player (CharacterBody2D)
// │   └── Sprite2D (Sprite2D)
// ├── Enemy (Area2D)
// │   └── Sprite2D (Sprite2D)
// └── HUD (CanvasLayer)
//     └── ScoreLabel (Label)
func buildTree(t *testing.T) *scene.Node {
	t.Helper()
	root := scene.NewNode("Node2D", "Main")

	player := scene.NewNode("CharacterBody2D", "Player")
	player.AddChild(scene.NewNode("Sprite2D", "Sprite2D"))
	root.AddChild(player)

	enemy := scene.NewNode("Area2D", "Enemy")
	enemy.AddChild(scene.NewNode("Sprite2D", "Sprite2D"))
	root.AddChild(enemy)

	hud := scene.NewNode("CanvasLayer", "HUD")
	hud.AddChild(scene.NewNode("Label", "ScoreLabel"))
	root.AddChild(hud)

	return root
}

func TestResolveRootEquivalents(t *testing.T) {
	root := buildTree(t)
	for _, path := range []string{"", ".", "Main", "main", "/Main", "/"} {
		node, err := Resolve(path, root)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", path, err)
			continue
		}
		if node != root {
			t.Errorf("Resolve(%q) = %s, expected root", path, node.Name())
		}
	}
}

func TestResolveExactPaths(t *testing.T) {
	root := buildTree(t)

	tests := []struct {
		path string
		want string
	}{
		{"Player", "Player"},
		{"Player/Sprite2D", "Sprite2D"},
		{"./Player/Sprite2D", "Sprite2D"},
		{"/Main/Player", "Player"},
		{"HUD/ScoreLabel", "ScoreLabel"},
	}
	for _, tc := range tests {
		node, err := Resolve(tc.path, root)
		if err != nil {
			t.Errorf("Resolve(%q) failed: %v", tc.path, err)
			continue
		}
		if node.Name() != tc.want {
			t.Errorf("Resolve(%q) = %s, expected %s", tc.path, node.Name(), tc.want)
		}
	}
}

func TestResolveNameSearchFallback(t *testing.T) {
	root := buildTree(t)

	// Single segment, not a direct child: falls back to subtree search.
	node, err := Resolve("ScoreLabel", root)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if node.Name() != "ScoreLabel" {
		t.Errorf("Expected ScoreLabel, got %s", node.Name())
	}

	// Case-insensitive.
	node, err = Resolve("scorelabel", root)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if node.Name() != "ScoreLabel" {
		t.Errorf("Expected ScoreLabel, got %s", node.Name())
	}
}

// First match in depth-first sibling order wins when names collide.
func TestResolveAmbiguousNameFirstMatch(t *testing.T) {
	root := buildTree(t)
	node, err := Resolve("Sprite2D", root)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if root.PathTo(node) != "Player/Sprite2D" {
		t.Errorf("Expected Player/Sprite2D (first in traversal order), got %s", root.PathTo(node))
	}
}

func TestResolveClassSegmentFallback(t *testing.T) {
	root := buildTree(t)

	// "CharacterBody2D" is a class, not a name, in the second segment.
	node, err := Resolve("Main/CharacterBody2D/Sprite2D", root)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if root.PathTo(node) != "Player/Sprite2D" {
		t.Errorf("Expected Player/Sprite2D via class segment, got %s", root.PathTo(node))
	}
}

func TestResolveInstanceTagSegment(t *testing.T) {
	root := buildTree(t)

	node, err := Resolve("Main/@Area2D@12345/Sprite2D", root)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if root.PathTo(node) != "Enemy/Sprite2D" {
		t.Errorf("Expected Enemy/Sprite2D via instance tag, got %s", root.PathTo(node))
	}
}

func TestResolveNotFound(t *testing.T) {
	root := buildTree(t)

	for _, path := range []string{"Ghost", "Player/Ghost", "HUD/Ghost/Deeper"} {
		_, err := Resolve(path, root)
		if err == nil {
			t.Errorf("Resolve(%q) expected error", path)
			continue
		}
		var notFound *NotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("Resolve(%q) expected NotFoundError, got %T", path, err)
		}
	}
}

func TestResolveNilRoot(t *testing.T) {
	if _, err := Resolve("anything", nil); err == nil {
		t.Error("Expected error resolving against nil root")
	}
}
