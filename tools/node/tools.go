// Package node implements the node_manager entry point: creation,
// deletion, movement, property mutation and inspection of scene nodes.
package node

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/slighter12/godot-agent-tools/coerce"
	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/resolve"
	"github.com/slighter12/godot-agent-tools/scene"
	tooltypes "github.com/slighter12/godot-agent-tools/tools/types"
)

type handler func(args tooltypes.ArgumentBundle) tooltypes.ResultBundle

// Tool is the node_manager entry point.
type Tool struct {
	env      *tooltypes.Env
	handlers map[string]handler
}

func New(env *tooltypes.Env) *Tool {
	t := &Tool{env: env}
	t.handlers = map[string]handler{
		"create":         t.create,
		"delete":         t.delete,
		"move":           t.move,
		"set_property":   t.setProperty,
		"get_properties": t.getProperties,
		"get_info":       t.getInfo,
		"search":         t.search,
		"select":         t.selectNodes,
		"call_method":    t.callMethod,
		"get_script":     t.getScript,
		"attach_script":  t.attachScript,
		"add_collision":  t.addCollision,
		"edit":           t.edit,
		"check_in_tree":  t.checkInTree,
	}
	return t
}

func (t *Tool) Name() string { return "node_manager" }
func (t *Tool) Description() string {
	return "Creates, deletes, moves and inspects scene nodes and their properties"
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
			fmt.Sprintf("Unknown node_manager operation: %s", operation))
	}
	return h(args)
}

// resolveNode turns a loosely specified path into a node or a coded
// failure.
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

// autosave persists the open scene after a mutation when it has a disk
// path. An unsaved scene keeps its edits in memory only.
func (t *Tool) autosave() {
	saved, err := t.env.Tree.SaveIfOnDisk()
	if err != nil {
		logger.Warn("Autosave failed", "scene", t.env.Tree.ResPath(), "error", err)
		return
	}
	if saved {
		logger.Debug("Scene autosaved", "scene", t.env.Tree.ResPath())
	}
}

func (t *Tool) create(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	nodeType, err := args.RequireString("node_type")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	name := args.StringOr("node_name", args.StringOr("name", nodeType))

	if !scene.Classes().CanInstantiate(nodeType) {
		return tooltypes.Failure(fmt.Sprintf("Cannot instantiate node type: %s", nodeType))
	}

	parentPath := args.StringOr("parent_path", ".")
	parent, err := t.resolveNode(parentPath)
	if err != nil {
		return tooltypes.FailureFromError(err)
	}

	node := scene.Classes().Instantiate(nodeType, name)
	parent.AddChild(node)
	node.SetOwner(t.env.Tree.Root())
	t.autosave()

	path := t.env.Tree.Root().PathTo(node)
	logger.Info("Node created", "path", path, "type", nodeType)
	return tooltypes.Success(map[string]any{
		"node_path": path,
		"node_type": nodeType,
		"message":   fmt.Sprintf("Created %s node at %s", nodeType, path),
	})
}

func (t *Tool) delete(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	node, err := t.resolveNode(path)
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	if node == t.env.Tree.Root() {
		return tooltypes.Failure("Cannot delete the scene root")
	}

	deletedPath := t.env.Tree.Root().PathTo(node)
	node.Free()
	t.autosave()

	logger.Info("Node deleted", "path", deletedPath)
	return tooltypes.Success(map[string]any{
		"message": fmt.Sprintf("Deleted node %s", deletedPath),
	})
}

func (t *Tool) move(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	newParentPath, err := args.RequireString("new_parent_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}

	node, err := t.resolveNode(path)
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	if node == t.env.Tree.Root() {
		return tooltypes.Failure("Cannot move the scene root")
	}
	newParent, err := t.resolveNode(newParentPath)
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	if node == newParent || node.IsAncestorOf(newParent) {
		return tooltypes.Failure("Cannot move a node into its own subtree")
	}

	if parent := node.Parent(); parent != nil {
		parent.RemoveChild(node)
	}
	newParent.AddChild(node)
	node.SetOwner(t.env.Tree.Root())
	t.autosave()

	newPath := t.env.Tree.Root().PathTo(node)
	return tooltypes.Success(map[string]any{
		"node_path": newPath,
		"message":   fmt.Sprintf("Moved node to %s", newPath),
	})
}

// setNodeProperty coerces and assigns one property. Shared by
// set_property and the batch edit operation.
func (t *Tool) setNodeProperty(node *scene.Node, property string, raw any) error {
	value := coerce.Value(property, raw, t.env.Loader)
	if !node.Set(property, value) {
		return tooltypes.NewOperationError(tooltypes.CodePropertyInvalid,
			fmt.Sprintf("Property %q is unknown or read-only on %s", property, node.Class()),
			map[string]any{"property": property, "node_type": node.Class()})
	}
	return nil
}

func (t *Tool) setProperty(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	property, err := args.RequireString("property")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	raw, ok := args["value"]
	if !ok {
		return tooltypes.FailureFromError(tooltypes.NewOperationError(
			tooltypes.CodeMissingArgument, "Missing required argument: value", nil))
	}

	node, err := t.resolveNode(path)
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	if err := t.setNodeProperty(node, property, raw); err != nil {
		return tooltypes.FailureFromError(err)
	}
	t.autosave()

	value, _ := node.Get(property)
	return tooltypes.Success(map[string]any{
		"node_path": t.env.Tree.Root().PathTo(node),
		"property":  property,
		"value":     tooltypes.EncodeValue(value),
	})
}

func (t *Tool) getProperties(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	node, err := t.resolveNode(path)
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	return tooltypes.Success(map[string]any{
		"node_path":  t.env.Tree.Root().PathTo(node),
		"node_type":  node.Class(),
		"properties": tooltypes.EncodeProperties(node),
	})
}

func (t *Tool) getInfo(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	root := t.env.Tree.Root()
	if root == nil {
		return tooltypes.Failure("No scene is open")
	}
	var nodes []map[string]any
	walk(root, func(n *scene.Node) {
		nodes = append(nodes, map[string]any{
			"path":     root.PathTo(n),
			"name":     n.Name(),
			"type":     n.Class(),
			"children": n.ChildCount(),
		})
	})
	return tooltypes.Success(map[string]any{
		"scene": t.env.Tree.ResPath(),
		"nodes": nodes,
	})
}

func (t *Tool) search(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	nodeType, err := args.RequireString("node_type")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	root := t.env.Tree.Root()
	var paths []string
	walk(root, func(n *scene.Node) {
		if n.IsClass(nodeType) {
			paths = append(paths, root.PathTo(n))
		}
	})
	return tooltypes.Success(map[string]any{
		"node_type": nodeType,
		"nodes":     paths,
		"count":     len(paths),
	})
}

func (t *Tool) selectNodes(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	paths, err := args.RequireStringList("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	var selected []*scene.Node
	var selectedPaths []string
	for _, path := range paths {
		node, err := t.resolveNode(path)
		if err != nil {
			return tooltypes.FailureFromError(err)
		}
		selected = append(selected, node)
		selectedPaths = append(selectedPaths, t.env.Tree.Root().PathTo(node))
	}
	t.env.Tree.Select(selected...)
	return tooltypes.Success(map[string]any{
		"selected": selectedPaths,
	})
}

func (t *Tool) callMethod(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	method, err := args.RequireString("method")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	node, err := t.resolveNode(path)
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	if !node.HasMethod(method) {
		return tooltypes.Failure(fmt.Sprintf("Node %s has no method %q", node.Class(), method))
	}

	callArgs, _ := args.List("args")
	result, callErr := node.Call(method, callArgs...)
	if callErr != nil {
		return tooltypes.Failure(callErr.Error())
	}
	return tooltypes.Success(map[string]any{
		"method": method,
		"result": tooltypes.EncodeValue(result),
	})
}

func (t *Tool) getScript(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	node, err := t.resolveNode(path)
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	script := node.Script()
	return tooltypes.Success(map[string]any{
		"node_path":  t.env.Tree.Root().PathTo(node),
		"has_script": script != "",
		"script":     script,
	})
}

func (t *Tool) attachScript(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	scriptPath, err := args.RequireString("script_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	if !strings.HasSuffix(scriptPath, ".gd") {
		return tooltypes.Failure(fmt.Sprintf("Not a script path: %s", scriptPath))
	}
	node, err := t.resolveNode(path)
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	if !strings.HasPrefix(scriptPath, "res://") {
		scriptPath = "res://" + strings.TrimPrefix(scriptPath, "./")
	}
	node.SetScript(scriptPath)
	t.autosave()
	return tooltypes.Success(map[string]any{
		"node_path": t.env.Tree.Root().PathTo(node),
		"script":    scriptPath,
	})
}

func (t *Tool) addCollision(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	node, err := t.resolveNode(path)
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	if !node.IsClass("CollisionObject2D") {
		return tooltypes.Failure(fmt.Sprintf(
			"Node type %s cannot carry a collision shape", node.Class()))
	}

	shape := args.StringOr("shape", "rectangle")
	collision := scene.Classes().Instantiate("CollisionShape2D", "CollisionShape2D")
	collision.Set("shape", shape)
	node.AddChild(collision)
	collision.SetOwner(t.env.Tree.Root())
	t.autosave()

	return tooltypes.Success(map[string]any{
		"node_path": t.env.Tree.Root().PathTo(collision),
		"shape":     shape,
	})
}

func (t *Tool) checkInTree(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	node, resolveErr := resolve.Resolve(path, t.env.Tree.Root())
	if resolveErr != nil {
		return tooltypes.Success(map[string]any{
			"exists":  false,
			"in_tree": false,
		})
	}
	return tooltypes.Success(map[string]any{
		"exists":    true,
		"in_tree":   node.IsInsideTree(),
		"node_path": t.env.Tree.Root().PathTo(node),
		"node_type": node.Class(),
	})
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
