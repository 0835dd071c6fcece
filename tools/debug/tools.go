// Package debug implements the debug_manager entry point: scene
// introspection, signal tracing and property watching.
package debug

import (
	"errors"
	"fmt"
	"sort"

	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/resolve"
	"github.com/slighter12/godot-agent-tools/scene"
	tooltypes "github.com/slighter12/godot-agent-tools/tools/types"
)

type handler func(args tooltypes.ArgumentBundle) tooltypes.ResultBundle

// Tool is the debug_manager entry point.
type Tool struct {
	env      *tooltypes.Env
	handlers map[string]handler

	// run_scene requests are recorded for the host play bar to pick up.
	runRequests []string
}

func New(env *tooltypes.Env) *Tool {
	t := &Tool{env: env}
	t.handlers = map[string]handler{
		"get_hierarchy":        t.getHierarchy,
		"inspect_physics":      t.inspectPhysics,
		"get_camera_info":      t.getCameraInfo,
		"check_node":           t.checkNode,
		"inspect_animation":    t.inspectAnimation,
		"get_layers":           t.getLayers,
		"run_scene":            t.runScene,
		"start_signal_trace":   t.startSignalTrace,
		"poll_signal_trace":    t.pollSignalTrace,
		"stop_signal_trace":    t.stopSignalTrace,
		"start_property_watch": t.startPropertyWatch,
		"poll_property_watch":  t.pollPropertyWatch,
		"stop_property_watch":  t.stopPropertyWatch,
	}
	return t
}

func (t *Tool) Name() string { return "debug_manager" }
func (t *Tool) Description() string {
	return "Inspects the running scene and manages signal trace and property watch sessions"
}

func (t *Tool) Operations() []string {
	ops := make([]string, 0, len(t.handlers))
	for op := range t.handlers {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

func (t *Tool) Execute(operation string, args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	h, ok := t.handlers[operation]
	if !ok {
		return tooltypes.FailureCode(tooltypes.CodeUnknownOperation,
			fmt.Sprintf("Unknown debug_manager operation: %s", operation))
	}
	return h(args)
}

func (t *Tool) resolveNode(path string) (*scene.Node, error) {
	node, err := resolve.Resolve(path, t.env.Tree.Root())
	if err != nil {
		var notFound *resolve.NotFoundError
		if errors.As(err, &notFound) {
			return nil, tooltypes.NewNodeNotFoundError(path, notFound.RootName)
		}
		return nil, tooltypes.NewNodeNotFoundError(path, "")
	}
	return node, nil
}

func (t *Tool) getHierarchy(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	root := t.env.Tree.Root()
	if root == nil {
		return tooltypes.Failure("No scene is open")
	}
	includeProperties := args.BoolOr("include_properties", false)
	return tooltypes.Success(map[string]any{
		"scene": t.env.Tree.ResPath(),
		"root":  describeSubtree(root, includeProperties),
	})
}

func describeSubtree(node *scene.Node, includeProperties bool) map[string]any {
	info := map[string]any{
		"name": node.Name(),
		"type": node.Class(),
	}
	if script := node.Script(); script != "" {
		info["script"] = script
	}
	if includeProperties {
		info["properties"] = tooltypes.EncodeProperties(node)
	}
	if node.ChildCount() > 0 {
		children := make([]map[string]any, 0, node.ChildCount())
		for _, child := range node.Children() {
			children = append(children, describeSubtree(child, includeProperties))
		}
		info["children"] = children
	}
	return info
}

var physicsProperties = []string{
	"position", "global_position", "mass", "gravity_scale",
	"linear_velocity", "angular_velocity", "velocity", "disabled", "shape",
}

func (t *Tool) inspectPhysics(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	root := t.env.Tree.Root()
	if root == nil {
		return tooltypes.Failure("No scene is open")
	}
	var bodies []map[string]any
	walk(root, func(n *scene.Node) {
		if !n.IsClass("CollisionObject2D") {
			return
		}
		entry := map[string]any{
			"path": root.PathTo(n),
			"type": n.Class(),
		}
		for _, prop := range physicsProperties {
			if value, ok := n.Get(prop); ok {
				entry[prop] = tooltypes.EncodeValue(value)
			}
		}
		var shapes []map[string]any
		for _, child := range n.Children() {
			if child.IsClass("CollisionShape2D") {
				shape := map[string]any{"path": root.PathTo(child)}
				if value, ok := child.Get("shape"); ok {
					shape["shape"] = tooltypes.EncodeValue(value)
				}
				if value, ok := child.Get("disabled"); ok {
					shape["disabled"] = value
				}
				shapes = append(shapes, shape)
			}
		}
		if len(shapes) > 0 {
			entry["collision_shapes"] = shapes
		}
		bodies = append(bodies, entry)
	})
	return tooltypes.Success(map[string]any{
		"bodies": bodies,
		"count":  len(bodies),
	})
}

func (t *Tool) getCameraInfo(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	root := t.env.Tree.Root()
	if root == nil {
		return tooltypes.Failure("No scene is open")
	}
	var cameras []map[string]any
	walk(root, func(n *scene.Node) {
		if !n.IsClass("Camera2D") {
			return
		}
		entry := map[string]any{
			"path": root.PathTo(n),
		}
		for _, prop := range n.PropertyNames() {
			if value, ok := n.Get(prop); ok {
				entry[prop] = tooltypes.EncodeValue(value)
			}
		}
		cameras = append(cameras, entry)
	})
	if len(cameras) == 0 {
		return tooltypes.Success(map[string]any{
			"cameras": cameras,
			"count":   0,
			"message": "No Camera2D in the scene",
		})
	}
	return tooltypes.Success(map[string]any{
		"cameras": cameras,
		"count":   len(cameras),
	})
}

func (t *Tool) checkNode(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	node, resolveErr := resolve.Resolve(path, t.env.Tree.Root())
	if resolveErr != nil {
		return tooltypes.Success(map[string]any{
			"exists": false,
			"path":   path,
		})
	}
	info := map[string]any{
		"exists":   true,
		"path":     t.env.Tree.Root().PathTo(node),
		"type":     node.Class(),
		"in_tree":  node.IsInsideTree(),
		"children": node.ChildCount(),
		"signals":  node.SignalNames(),
		"groups":   node.Groups(),
	}
	if script := node.Script(); script != "" {
		info["script"] = script
	}
	return tooltypes.Success(info)
}

func (t *Tool) inspectAnimation(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	root := t.env.Tree.Root()
	if root == nil {
		return tooltypes.Failure("No scene is open")
	}
	var players []map[string]any
	walk(root, func(n *scene.Node) {
		if !n.IsClass("AnimationPlayer") && !n.IsClass("AnimatedSprite2D") {
			return
		}
		entry := map[string]any{
			"path": root.PathTo(n),
			"type": n.Class(),
		}
		if n.HasMethod("is_playing") {
			if playing, err := n.Call("is_playing"); err == nil {
				entry["playing"] = playing
			}
		}
		if n.HasMethod("get_animation_list") {
			if list, err := n.Call("get_animation_list"); err == nil {
				entry["animations"] = list
			}
		}
		players = append(players, entry)
	})
	return tooltypes.Success(map[string]any{
		"players": players,
		"count":   len(players),
	})
}

// getLayers reports the z-index and canvas-layer ordering of everything
// that renders.
func (t *Tool) getLayers(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	root := t.env.Tree.Root()
	if root == nil {
		return tooltypes.Failure("No scene is open")
	}
	var items []map[string]any
	walk(root, func(n *scene.Node) {
		entry := map[string]any{
			"path": root.PathTo(n),
			"type": n.Class(),
		}
		visual := false
		if value, ok := n.Get("z_index"); ok {
			entry["z_index"] = value
			visual = true
		}
		if value, ok := n.Get("layer"); ok {
			entry["layer"] = value
			visual = true
		}
		if value, ok := n.Get("visible"); ok {
			entry["visible"] = value
		}
		if visual {
			items = append(items, entry)
		}
	})
	return tooltypes.Success(map[string]any{
		"layers": items,
		"count":  len(items),
	})
}

// runScene records a play request. Actually launching the scene is the
// host editor's play bar concern.
func (t *Tool) runScene(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	scenePath := args.StringOr("path", t.env.Tree.ResPath())
	if scenePath == "" {
		return tooltypes.Failure("No scene to run: open or save a scene first")
	}
	t.runRequests = append(t.runRequests, scenePath)
	logger.Info("Scene run requested", "scene", scenePath)
	return tooltypes.Success(map[string]any{
		"scene":   scenePath,
		"message": fmt.Sprintf("Run requested for %s", scenePath),
	})
}

// PendingRunRequests drains recorded run requests, oldest first.
func (t *Tool) PendingRunRequests() []string {
	out := t.runRequests
	t.runRequests = nil
	return out
}

func walk(node *scene.Node, visit func(*scene.Node)) {
	if node == nil {
		return
	}
	visit(node)
	for _, child := range node.Children() {
		walk(child, visit)
	}
}
