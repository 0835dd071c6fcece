// Package resolve turns loosely specified node path strings into exact
// scene graph references. Agent-produced paths are frequently stale,
// differently rooted or wrongly cased; the resolver trades strictness for
// usability and always picks the first candidate in traversal order.
package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/slighter12/godot-agent-tools/scene"
)

// NotFoundError reports a path no fallback strategy could resolve.
type NotFoundError struct {
	Path     string
	RootName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node not found at path %q (searched from root %q)", e.Path, e.RootName)
}

var instanceTagPattern = regexp.MustCompile(`^@([A-Za-z0-9_]+)@\d+$`)

// Resolve locates a node under root. Strategies are tried in order and the
// first hit wins:
//  1. empty, "." or the root's own name (case-insensitive) -> root
//  2. absolute-looking paths lose their leading slash and an optional
//     leading root-name segment
//  3. exact relative traversal
//  4. "./"-prefix variants of the same path
//  5. single-segment paths fall back to a case-insensitive depth-first
//     name search over the whole subtree
//  6. multi-segment paths are walked level by level with name, class-name
//     and @Class@N instance-tag matching per segment
func Resolve(path string, root *scene.Node) (*scene.Node, error) {
	if root == nil {
		return nil, &NotFoundError{Path: path, RootName: ""}
	}

	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "." || strings.EqualFold(trimmed, root.Name()) {
		return root, nil
	}

	if strings.HasPrefix(trimmed, "/") {
		trimmed = strings.TrimPrefix(trimmed, "/")
		if first, rest, found := strings.Cut(trimmed, "/"); found && strings.EqualFold(first, root.Name()) {
			trimmed = rest
		} else if !found && strings.EqualFold(trimmed, root.Name()) {
			return root, nil
		}
	}

	if node := root.GetNodeOrNil(trimmed); node != nil {
		return node, nil
	}

	// Agents are sloppy about relative notation; retry both ways.
	if !strings.HasPrefix(trimmed, ".") {
		if node := root.GetNodeOrNil("./" + trimmed); node != nil {
			return node, nil
		}
	} else if stripped := strings.TrimPrefix(trimmed, "./"); stripped != trimmed {
		if node := root.GetNodeOrNil(stripped); node != nil {
			return node, nil
		}
	}

	if !strings.Contains(trimmed, "/") {
		if node := findByNameInsensitive(root, trimmed); node != nil {
			return node, nil
		}
		return nil, &NotFoundError{Path: path, RootName: root.Name()}
	}

	if node := walkSegments(root, trimmed); node != nil {
		return node, nil
	}
	return nil, &NotFoundError{Path: path, RootName: root.Name()}
}

// findByNameInsensitive searches the subtree depth-first in sibling index
// order and returns the first case-insensitive name match.
func findByNameInsensitive(node *scene.Node, name string) *scene.Node {
	if strings.EqualFold(node.Name(), name) {
		return node
	}
	for _, child := range node.Children() {
		if found := findByNameInsensitive(child, name); found != nil {
			return found
		}
	}
	return nil
}

func walkSegments(root *scene.Node, path string) *scene.Node {
	segments := strings.Split(path, "/")
	if len(segments) > 0 && strings.EqualFold(segments[0], root.Name()) {
		segments = segments[1:]
	}

	current := root
	for _, segment := range segments {
		if segment == "" || segment == "." {
			continue
		}
		next := matchChild(current, segment)
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

// matchChild resolves one path segment against the direct children of a
// node, in decreasing order of strictness.
func matchChild(parent *scene.Node, segment string) *scene.Node {
	for _, child := range parent.Children() {
		if child.Name() == segment {
			return child
		}
	}
	for _, child := range parent.Children() {
		if strings.EqualFold(child.Name(), segment) {
			return child
		}
	}
	for _, child := range parent.Children() {
		if strings.EqualFold(child.Class(), segment) {
			return child
		}
	}
	if m := instanceTagPattern.FindStringSubmatch(segment); m != nil {
		for _, child := range parent.Children() {
			if strings.EqualFold(child.Class(), m[1]) {
				return child
			}
		}
	}
	return nil
}
