package node

import (
	"fmt"
	"strings"

	"github.com/slighter12/godot-agent-tools/logger"
	tooltypes "github.com/slighter12/godot-agent-tools/tools/types"
)

// parseNodePathList accepts a JSON array, a bracketed list string like
// "[Player, Enemy/Sprite2D]", or a single path.
func parseNodePathList(args tooltypes.ArgumentBundle) []string {
	if list, ok := args.StringList("node_paths"); ok {
		return expandBracketed(list)
	}
	if single, ok := args.String("node_path"); ok {
		return expandBracketed([]string{single})
	}
	return nil
}

func expandBracketed(raw []string) []string {
	var out []string
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if strings.HasPrefix(entry, "[") && strings.HasSuffix(entry, "]") {
			inner := strings.TrimSuffix(strings.TrimPrefix(entry, "["), "]")
			for _, part := range strings.Split(inner, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			continue
		}
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

// edit is the batch general node editor: it applies a texture and/or a
// property map to every listed node. One target's failure does not abort
// the rest; the bundle aggregates per-item outcomes.
func (t *Tool) edit(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	paths := parseNodePathList(args)
	if len(paths) == 0 {
		return tooltypes.FailureCode(tooltypes.CodeMissingArgument,
			"Missing required argument: node_paths")
	}

	properties, _ := args.Map("properties")
	texturePath, hasTexture := args.String("texture_path")
	if texturePath == "" {
		// An explicitly empty path means no texture change.
		hasTexture = false
	}
	if len(properties) == 0 && !hasTexture {
		return tooltypes.Failure("Nothing to edit: provide properties and/or texture_path")
	}

	var results []map[string]any
	successCount, failureCount := 0, 0

	for _, path := range paths {
		item := map[string]any{"node_path": path}
		err := t.editOne(path, texturePath, hasTexture, properties, item)
		if err != nil {
			failureCount++
			item["success"] = false
			item["message"] = err.Error()
			if opErr, ok := tooltypes.AsOperationError(err); ok {
				item["error_code"] = opErr.Code
			}
		} else {
			successCount++
			item["success"] = true
		}
		results = append(results, item)
	}

	if successCount > 0 {
		t.autosave()
	}

	logger.Info("Batch node edit finished",
		"targets", len(paths), "success", successCount, "failure", failureCount)

	payload := map[string]any{
		"success_count": successCount,
		"failure_count": failureCount,
		"results":       results,
	}
	switch {
	case successCount == 0:
		result := tooltypes.Failure(fmt.Sprintf("Batch edit failed for all %d nodes", len(paths)))
		for k, v := range payload {
			result[k] = v
		}
		return result
	case failureCount > 0:
		payload["message"] = fmt.Sprintf(
			"Batch edit partially succeeded: %d of %d nodes updated", successCount, len(paths))
		return tooltypes.Success(payload)
	default:
		payload["message"] = fmt.Sprintf("Batch edit updated %d nodes", successCount)
		return tooltypes.Success(payload)
	}
}

func (t *Tool) editOne(path, texturePath string, hasTexture bool, properties map[string]any, item map[string]any) error {
	node, err := t.resolveNode(path)
	if err != nil {
		return err
	}
	item["resolved_path"] = t.env.Tree.Root().PathTo(node)

	if hasTexture {
		if err := t.setNodeProperty(node, "texture", texturePath); err != nil {
			return err
		}
	}
	for property, raw := range properties {
		if err := t.setNodeProperty(node, property, raw); err != nil {
			return err
		}
	}
	return nil
}
