// Package scene implements the scene_manager entry point: opening,
// saving and describing the active scene.
package scene

import (
	"fmt"
	"sort"
	"strings"

	"github.com/slighter12/godot-agent-tools/logger"
	scenegraph "github.com/slighter12/godot-agent-tools/scene"
	tooltypes "github.com/slighter12/godot-agent-tools/tools/types"
)

type handler func(args tooltypes.ArgumentBundle) tooltypes.ResultBundle

// Tool is the scene_manager entry point.
type Tool struct {
	env      *tooltypes.Env
	handlers map[string]handler
}

func New(env *tooltypes.Env) *Tool {
	t := &Tool{env: env}
	t.handlers = map[string]handler{
		"save":       t.save,
		"save_as":    t.saveAs,
		"get_info":   t.getInfo,
		"create_new": t.createNew,
		"open":       t.open,
	}
	return t
}

func (t *Tool) Name() string { return "scene_manager" }
func (t *Tool) Description() string {
	return "Opens, saves and describes the active scene"
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
			fmt.Sprintf("Unknown scene_manager operation: %s", operation))
	}
	return h(args)
}

func (t *Tool) save(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	if t.env.Tree.Root() == nil {
		return tooltypes.Failure("No scene is open")
	}
	if t.env.Tree.ResPath() == "" {
		return tooltypes.Failure("Scene has no path yet: use save_as")
	}
	if err := t.env.Tree.Save(); err != nil {
		return tooltypes.FailureCode(tooltypes.CodeFileError, err.Error())
	}
	logger.Info("Scene saved", "scene", t.env.Tree.ResPath())
	return tooltypes.Success(map[string]any{
		"path":    t.env.Tree.ResPath(),
		"message": fmt.Sprintf("Saved scene %s", t.env.Tree.ResPath()),
	})
}

func (t *Tool) saveAs(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	if t.env.Tree.Root() == nil {
		return tooltypes.Failure("No scene is open")
	}
	path, err := args.RequireString("path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	diskPath, resPath, pathErr := tooltypes.ResolveProjectFilePath(t.env.ProjectRoot, path, []string{".tscn"})
	if pathErr != nil {
		return tooltypes.FailureCode(tooltypes.CodeFileError, pathErr.Error())
	}

	t.env.Tree.SetPaths(resPath, diskPath)
	if saveErr := t.env.Tree.Save(); saveErr != nil {
		return tooltypes.FailureCode(tooltypes.CodeFileError, saveErr.Error())
	}
	logger.Info("Scene saved", "scene", resPath)
	return tooltypes.Success(map[string]any{
		"path":    resPath,
		"message": fmt.Sprintf("Saved scene as %s", resPath),
	})
}

func (t *Tool) getInfo(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	root := t.env.Tree.Root()
	if root == nil {
		return tooltypes.Failure("No scene is open")
	}

	nodeCount := 0
	typeCounts := make(map[string]int)
	countNodes(root, &nodeCount, typeCounts)

	var selection []string
	for _, node := range t.env.Tree.Selection() {
		selection = append(selection, root.PathTo(node))
	}

	return tooltypes.Success(map[string]any{
		"path":        t.env.Tree.ResPath(),
		"root_name":   root.Name(),
		"root_type":   root.Class(),
		"node_count":  nodeCount,
		"type_counts": typeCounts,
		"selection":   selection,
	})
}

func (t *Tool) createNew(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	rootType := args.StringOr("root_type", "Node2D")
	rootName := args.StringOr("root_name", "Main")
	if !scenegraph.Classes().CanInstantiate(rootType) {
		return tooltypes.Failure(fmt.Sprintf("Cannot instantiate node type: %s", rootType))
	}

	root := scenegraph.Classes().Instantiate(rootType, rootName)
	t.env.Tree.SetRoot(root)
	t.env.Tree.SetPaths("", "")

	if path, ok := args.String("path"); ok && strings.TrimSpace(path) != "" {
		diskPath, resPath, pathErr := tooltypes.ResolveProjectFilePath(t.env.ProjectRoot, path, []string{".tscn"})
		if pathErr != nil {
			return tooltypes.FailureCode(tooltypes.CodeFileError, pathErr.Error())
		}
		t.env.Tree.SetPaths(resPath, diskPath)
		if saveErr := t.env.Tree.Save(); saveErr != nil {
			return tooltypes.FailureCode(tooltypes.CodeFileError, saveErr.Error())
		}
	}

	logger.Info("New scene created", "root", rootName, "type", rootType)
	return tooltypes.Success(map[string]any{
		"path":      t.env.Tree.ResPath(),
		"root_name": rootName,
		"root_type": rootType,
	})
}

func (t *Tool) open(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	diskPath, resPath, pathErr := tooltypes.ResolveProjectFilePath(t.env.ProjectRoot, path, []string{".tscn"})
	if pathErr != nil {
		return tooltypes.FailureCode(tooltypes.CodeFileError, pathErr.Error())
	}
	if loadErr := t.env.Tree.LoadInto(resPath, diskPath); loadErr != nil {
		return tooltypes.FailureCode(tooltypes.CodeFileError,
			fmt.Sprintf("Cannot open %s: %v", resPath, loadErr))
	}
	logger.Info("Scene opened", "scene", resPath)
	return tooltypes.Success(map[string]any{
		"path":      resPath,
		"root_name": t.env.Tree.Root().Name(),
		"root_type": t.env.Tree.Root().Class(),
	})
}

func countNodes(node *scenegraph.Node, count *int, typeCounts map[string]int) {
	*count++
	typeCounts[node.Class()]++
	for _, child := range node.Children() {
		countNodes(child, count, typeCounts)
	}
}
