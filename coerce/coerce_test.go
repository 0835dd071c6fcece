package coerce

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/slighter12/godot-agent-tools/scene"
)

func TestVectorCoercionForms(t *testing.T) {
	want := scene.Vector2{X: 3, Y: 4}

	inputs := []any{
		[]any{3.0, 4.0},
		[]any{3, 4},
		map[string]any{"x": 3.0, "y": 4.0},
		map[string]any{"X": 3.0, "Y": 4.0},
		"3,4",
		"3 4",
		"(3, 4)",
		scene.Vector2{X: 3, Y: 4},
	}
	for _, input := range inputs {
		got := Value("position", input, nil)
		v, ok := got.(scene.Vector2)
		if !ok {
			t.Errorf("Value(position, %v) = %T, expected Vector2", input, got)
			continue
		}
		if v != want {
			t.Errorf("Value(position, %v) = %v, expected %v", input, v, want)
		}
	}
}

func TestVectorCoercionOnlyForVectorProperties(t *testing.T) {
	got := Value("text", []any{3.0, 4.0}, nil)
	if _, isVec := got.(scene.Vector2); isVec {
		t.Error("Expected non-vector property to pass the value through")
	}
}

func TestColorCoercionForms(t *testing.T) {
	for _, input := range []string{"red", "#FF0000", "(1,0,0,1)"} {
		got := Value("modulate", input, nil)
		c, ok := got.(scene.Color)
		if !ok {
			t.Fatalf("Value(modulate, %q) = %T, expected Color", input, got)
		}
		if c.R != 1 || c.G != 0 || c.B != 0 || c.A != 1 {
			t.Errorf("Value(modulate, %q) = %v, expected red", input, c)
		}
	}
}

// Unparseable color strings degrade to opaque white.
func TestColorFallbackToWhite(t *testing.T) {
	got := Value("color", "definitely-not-a-color", nil)
	c, ok := got.(scene.Color)
	if !ok {
		t.Fatalf("Expected Color fallback, got %T", got)
	}
	if c != scene.White {
		t.Errorf("Expected white fallback, got %v", c)
	}
}

func TestResourcePathCoercion(t *testing.T) {
	tempDir := t.TempDir()
	texturePath := filepath.Join(tempDir, "player.png")
	if err := os.WriteFile(texturePath, []byte{0x89, 'P', 'N', 'G'}, 0644); err != nil {
		t.Fatalf("write texture: %v", err)
	}
	loader := scene.NewFileResourceLoader(tempDir)

	got := Value("texture", "res://player.png", loader)
	res, ok := got.(*scene.Resource)
	if !ok {
		t.Fatalf("Expected *Resource, got %T (%v)", got, got)
	}
	if res.Path != "res://player.png" {
		t.Errorf("Expected res://player.png, got %q", res.Path)
	}
	if res.Kind != "texture" {
		t.Errorf("Expected texture kind, got %q", res.Kind)
	}
}

// A missing resource keeps the raw string so the caller sees what failed.
func TestResourceLoadFailureKeepsRawString(t *testing.T) {
	loader := scene.NewFileResourceLoader(t.TempDir())
	got := Value("texture", "res://missing.png", loader)
	if got != "res://missing.png" {
		t.Errorf("Expected raw string passthrough, got %v", got)
	}
}

func TestPassThrough(t *testing.T) {
	if got := Value("z_index", 5, nil); got != 5 {
		t.Errorf("Expected int passthrough, got %v", got)
	}
	if got := Value("visible", true, nil); got != true {
		t.Errorf("Expected bool passthrough, got %v", got)
	}
	if got := Value("text", "hello", nil); got != "hello" {
		t.Errorf("Expected string passthrough, got %v", got)
	}
}
