package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Tree holds the edited scene document: its root node, backing file
// location and the editor selection. All mutation happens on the
// dispatcher goroutine.
type Tree struct {
	root      *Node
	resPath   string
	diskPath  string
	selection []*Node
}

func NewTree() *Tree {
	return &Tree{}
}

func (t *Tree) Root() *Node { return t.root }

// SetRoot installs a new edited scene root. The root owns itself so
// IsInsideTree holds for it.
func (t *Tree) SetRoot(root *Node) {
	t.root = root
	t.selection = nil
	if root != nil {
		root.SetOwner(root)
	}
}

// ResPath returns the scene's res:// path, empty for unsaved scenes.
func (t *Tree) ResPath() string { return t.resPath }

func (t *Tree) SetPaths(resPath, diskPath string) {
	t.resPath = resPath
	t.diskPath = diskPath
}

func (t *Tree) Selection() []*Node {
	return append([]*Node(nil), t.selection...)
}

func (t *Tree) Select(nodes ...*Node) {
	t.selection = append([]*Node(nil), nodes...)
}

// Save writes the scene to its known disk location.
func (t *Tree) Save() error {
	if t.root == nil {
		return fmt.Errorf("no scene is currently being edited")
	}
	if t.diskPath == "" {
		return fmt.Errorf("scene has no file path")
	}
	return t.SaveTo(t.diskPath)
}

// SaveIfOnDisk autosaves after a mutation when the scene already has a
// storage location. A missing location is a defined no-op.
func (t *Tree) SaveIfOnDisk() (bool, error) {
	if t.root == nil || t.diskPath == "" {
		return false, nil
	}
	if err := t.SaveTo(t.diskPath); err != nil {
		return false, err
	}
	return true, nil
}

// SaveTo serializes the scene to the given disk path in the text scene
// format understood by LoadInto.
func (t *Tree) SaveTo(diskPath string) error {
	if t.root == nil {
		return fmt.Errorf("no scene is currently being edited")
	}
	if err := os.MkdirAll(filepath.Dir(diskPath), 0755); err != nil {
		return fmt.Errorf("create scene directory: %w", err)
	}

	var sb strings.Builder
	writeNodeSection(&sb, t.root, t.root)
	return os.WriteFile(diskPath, []byte(sb.String()), 0644)
}

func writeNodeSection(sb *strings.Builder, root, node *Node) {
	if node == root {
		fmt.Fprintf(sb, "[node name=%q type=%q]\n", node.Name(), node.Class())
	} else {
		parentPath := "."
		if node.Parent() != root {
			parentPath = root.PathTo(node.Parent())
		}
		fmt.Fprintf(sb, "[node name=%q type=%q parent=%q]\n", node.Name(), node.Class(), parentPath)
	}
	if node.Script() != "" {
		fmt.Fprintf(sb, "script = %q\n", node.Script())
	}

	defaults := map[string]any{}
	if info := Classes().lookup(node.Class()); info != nil {
		defaults = info.defaults()
	}
	names := node.PropertyNames()
	sort.Strings(names)
	for _, name := range names {
		value, ok := node.Get(name)
		if !ok || value == nil {
			continue
		}
		if def, has := defaults[name]; has && fmt.Sprint(def) == fmt.Sprint(value) {
			continue
		}
		fmt.Fprintf(sb, "%s = %s\n", name, encodeSceneValue(value))
	}
	sb.WriteString("\n")

	for _, child := range node.Children() {
		writeNodeSection(sb, root, child)
	}
}

func encodeSceneValue(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case Vector2:
		return fmt.Sprintf("Vector2(%g, %g)", v.X, v.Y)
	case Color:
		return fmt.Sprintf("Color(%g, %g, %g, %g)", v.R, v.G, v.B, v.A)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return strconv.Quote(fmt.Sprint(v))
	}
}

// LoadInto reads a text scene file and replaces the tree's contents.
func (t *Tree) LoadInto(resPath, diskPath string) error {
	f, err := os.Open(diskPath)
	if err != nil {
		return fmt.Errorf("open scene file: %w", err)
	}
	defer f.Close()

	var root *Node
	var current *Node
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[node ") && strings.HasSuffix(line, "]") {
			attrs := parseSectionAttrs(line[len("[node ") : len(line)-1])
			name := attrs["name"]
			class := attrs["type"]
			if class == "" {
				class = "Node"
			}
			node := NewNode(class, name)
			if root == nil {
				root = node
			} else {
				parent := root.GetNodeOrNil(attrs["parent"])
				if parent == nil {
					return fmt.Errorf("line %d: parent %q not found for node %q", lineNo, attrs["parent"], name)
				}
				parent.AddChild(node)
				node.SetOwner(root)
			}
			current = node
			continue
		}
		if current == nil {
			return fmt.Errorf("line %d: property outside node section", lineNo)
		}
		key, rawValue, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("line %d: malformed property line %q", lineNo, line)
		}
		key = strings.TrimSpace(key)
		value, err := decodeSceneValue(strings.TrimSpace(rawValue))
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if key == "script" {
			if s, ok := value.(string); ok {
				current.SetScript(s)
			}
			continue
		}
		current.properties[key] = value
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read scene file: %w", err)
	}
	if root == nil {
		return fmt.Errorf("scene file %s contains no nodes", resPath)
	}

	t.SetRoot(root)
	t.SetPaths(resPath, diskPath)
	return nil
}

func parseSectionAttrs(s string) map[string]string {
	attrs := map[string]string{}
	for len(s) > 0 {
		s = strings.TrimSpace(s)
		eq := strings.Index(s, "=")
		if eq < 0 {
			break
		}
		key := strings.TrimSpace(s[:eq])
		rest := strings.TrimSpace(s[eq+1:])
		if !strings.HasPrefix(rest, `"`) {
			break
		}
		value, remainder, err := cutQuoted(rest)
		if err != nil {
			break
		}
		attrs[key] = value
		s = remainder
	}
	return attrs
}

func cutQuoted(s string) (string, string, error) {
	end := 1
	for end < len(s) {
		if s[end] == '\\' {
			end += 2
			continue
		}
		if s[end] == '"' {
			value, err := strconv.Unquote(s[:end+1])
			return value, s[end+1:], err
		}
		end++
	}
	return "", "", fmt.Errorf("unterminated quoted value")
}

func decodeSceneValue(raw string) (any, error) {
	switch {
	case raw == "true":
		return true, nil
	case raw == "false":
		return false, nil
	case strings.HasPrefix(raw, `"`):
		return strconv.Unquote(raw)
	case strings.HasPrefix(raw, "Vector2(") && strings.HasSuffix(raw, ")"):
		parts := splitNumbers(raw[len("Vector2(") : len(raw)-1])
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed Vector2 literal %q", raw)
		}
		return Vector2{X: parts[0], Y: parts[1]}, nil
	case strings.HasPrefix(raw, "Color(") && strings.HasSuffix(raw, ")"):
		parts := splitNumbers(raw[len("Color(") : len(raw)-1])
		if len(parts) != 4 {
			return nil, fmt.Errorf("malformed Color literal %q", raw)
		}
		return Color{R: parts[0], G: parts[1], B: parts[2], A: parts[3]}, nil
	default:
		if i, err := strconv.Atoi(raw); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, nil
		}
		return nil, fmt.Errorf("unrecognized value literal %q", raw)
	}
}

func splitNumbers(s string) []float64 {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil
		}
		out = append(out, f)
	}
	return out
}
