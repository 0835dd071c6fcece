// Package file implements the file_manager entry point: project file
// reads, listings, AI edit previews and static compilation checks.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/slighter12/godot-agent-tools/editpipe"
	"github.com/slighter12/godot-agent-tools/gdscript"
	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/scene"
	tooltypes "github.com/slighter12/godot-agent-tools/tools/types"
)

var readableExtensions = []string{".gd", ".tscn", ".tres", ".cfg", ".godot", ".txt", ".md", ".json"}

type handler func(args tooltypes.ArgumentBundle) tooltypes.ResultBundle

// Tool is the file_manager entry point.
type Tool struct {
	env      *tooltypes.Env
	handlers map[string]handler
}

func New(env *tooltypes.Env) *Tool {
	t := &Tool{env: env}
	t.handlers = map[string]handler{
		"read":              t.read,
		"list":              t.list,
		"apply_ai_edit":     t.applyAIEdit,
		"check_compilation": t.checkCompilation,
		"get_classes":       t.getClasses,
	}
	return t
}

func (t *Tool) Name() string { return "file_manager" }
func (t *Tool) Description() string {
	return "Reads and lists project files, previews AI edits and runs static script checks"
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
			fmt.Sprintf("Unknown file_manager operation: %s", operation))
	}
	return h(args)
}

// read returns whole-file content, or a line window when start_line and
// end_line are given (1-based, inclusive).
func (t *Tool) read(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	data, resPath, readErr := tooltypes.ReadProjectFile(t.env.ProjectRoot, path, readableExtensions)
	if readErr != nil {
		return tooltypes.FailureCode(tooltypes.CodeFileError, readErr.Error())
	}

	content := string(data)
	lines := strings.Split(content, "\n")
	totalLines := len(lines)

	start, hasStart := args.Int("start_line")
	end, hasEnd := args.Int("end_line")
	if hasStart || hasEnd {
		if !hasStart || start < 1 {
			start = 1
		}
		if !hasEnd || end > totalLines {
			end = totalLines
		}
		if start > end {
			return tooltypes.Failure(fmt.Sprintf(
				"Invalid line range: %d-%d (file has %d lines)", start, end, totalLines))
		}
		content = strings.Join(lines[start-1:end], "\n")
	}

	return tooltypes.Success(map[string]any{
		"path":        resPath,
		"content":     content,
		"total_lines": totalLines,
	})
}

func (t *Tool) list(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	dir := args.StringOr("dir", "")
	ext := args.StringOr("extension", "")

	if t.env.Index == nil {
		return tooltypes.Failure("Project index is unavailable")
	}
	files := t.env.Index.Files(dir, ext)
	return tooltypes.Success(map[string]any{
		"files": files,
		"count": len(files),
	})
}

// applyAIEdit runs the edit pipeline and returns the preview bundle. The
// caller persists the cleaned content with a follow-up write; nothing
// touches disk here.
func (t *Tool) applyAIEdit(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	diskPath, resPath, pathErr := tooltypes.ResolveProjectFilePath(t.env.ProjectRoot, path, []string{".gd"})
	if pathErr != nil {
		return tooltypes.FailureCode(tooltypes.CodeFileError, pathErr.Error())
	}

	var preview *editpipe.Preview
	var pipeErr error
	if content, ok := args.String("content"); ok {
		preview, pipeErr = t.env.Pipeline.ApplyContent(diskPath, resPath, content)
	} else {
		prompt, promptErr := args.RequireString("prompt")
		if promptErr != nil {
			return tooltypes.FailureFromError(promptErr)
		}
		preview, pipeErr = t.env.Pipeline.ApplyPrompt(context.Background(), diskPath, resPath, prompt)
	}
	if pipeErr != nil {
		logger.Warn("Edit pipeline failed", "path", resPath, "error", pipeErr)
		return tooltypes.Failure(pipeErr.Error())
	}

	return tooltypes.Success(map[string]any{
		"path":               preview.Path,
		"will_create":        preview.WillCreate,
		"edited_content":     preview.Cleaned,
		"diff":               preview.Diff,
		"compilation_errors": preview.Diagnostics,
		"has_errors":         preview.HasErrors,
	})
}

func (t *Tool) checkCompilation(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}

	var diags []gdscript.Diagnostic
	resPath := path
	if content, ok := args.String("content"); ok {
		diags = t.env.Verifier.Check(path, content)
	} else {
		diskPath, canonical, pathErr := tooltypes.ResolveProjectFilePath(t.env.ProjectRoot, path, nil)
		if pathErr != nil {
			return tooltypes.FailureCode(tooltypes.CodeFileError, pathErr.Error())
		}
		resPath = canonical
		data, readErr := os.ReadFile(diskPath)
		if readErr != nil {
			return tooltypes.FailureCode(tooltypes.CodeFileError,
				fmt.Sprintf("Cannot read %s: %v", canonical, readErr))
		}
		diags = t.env.Verifier.Check(filepath.Base(diskPath), string(data))
	}

	return tooltypes.Success(map[string]any{
		"path":               resPath,
		"compilation_errors": diags,
		"has_errors":         gdscript.HasErrors(diags),
	})
}

func (t *Tool) getClasses(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	classes := scene.Classes().InstantiableNodeClasses()
	sort.Strings(classes)
	return tooltypes.Success(map[string]any{
		"classes": classes,
		"count":   len(classes),
	})
}
