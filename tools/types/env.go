package types

import (
	"github.com/slighter12/godot-agent-tools/editpipe"
	"github.com/slighter12/godot-agent-tools/gdscript"
	"github.com/slighter12/godot-agent-tools/project"
	"github.com/slighter12/godot-agent-tools/scene"
	"github.com/slighter12/godot-agent-tools/trace"
)

// Env bundles the collaborators tool entry points execute against. It is
// built once at startup and injected into every tool constructor.
type Env struct {
	Tree        *scene.Tree
	Loader      scene.ResourceLoader
	Pipeline    *editpipe.Pipeline
	Verifier    *gdscript.Verifier
	Traces      *trace.Manager
	Index       *project.Index
	ProjectRoot string
}

// EncodeValue converts engine values into JSON-friendly shapes for result
// payloads.
func EncodeValue(value any) any {
	switch v := value.(type) {
	case scene.Vector2:
		return map[string]any{"x": v.X, "y": v.Y}
	case scene.Color:
		return map[string]any{"r": v.R, "g": v.G, "b": v.B, "a": v.A}
	case *scene.Resource:
		if v == nil {
			return nil
		}
		return v.Path
	default:
		return value
	}
}

// EncodeProperties encodes a node's full property set.
func EncodeProperties(node *scene.Node) map[string]any {
	out := make(map[string]any)
	for _, name := range node.PropertyNames() {
		if value, ok := node.Get(name); ok {
			out[name] = EncodeValue(value)
		}
	}
	return out
}
