package editpipe

import (
	"strings"
)

// fencePrefixes are the code-fence openers backends are known to wrap
// replacement content in. Checked in order; first match wins.
var fencePrefixes = []string{
	"```javascript\n",
	"```gdscript\n",
	"```\n",
	"```js\n",
	"```gd\n",
}

// Clean normalizes AI-produced replacement content: strips code fences,
// converts stray JavaScript-style syntax to GDScript, repairs unterminated
// function blocks and trims surrounding whitespace.
func Clean(content string) string {
	for _, prefix := range fencePrefixes {
		if strings.HasPrefix(content, prefix) {
			content = content[len(prefix):]
			break
		}
	}
	if strings.HasSuffix(content, "\n```") {
		content = content[:len(content)-4]
	} else if strings.HasSuffix(content, "```") {
		content = content[:len(content)-3]
	}

	content = convertForeignSyntax(content)
	content = fixUnterminatedBlocks(content)
	return strings.TrimSpace(content)
}

// convertForeignSyntax rewrites JavaScript constructs that models sometimes
// emit into GDScript equivalents. Best effort, line by line.
func convertForeignSyntax(content string) string {
	lines := strings.Split(content, "\n")
	converted := make([]string, 0, len(lines))

	for _, line := range lines {
		out := line

		trimmed := strings.TrimSpace(out)
		if strings.HasPrefix(trimmed, "function ") {
			out = convertFunctionHeader(out, trimmed)
		}

		out = strings.ReplaceAll(out, "console.log(", "print(")

		// Brace-only lines have no GDScript equivalent; drop them.
		t := strings.TrimSpace(out)
		if t == "{" || t == "}" {
			continue
		}

		out = strings.ReplaceAll(out, "let ", "var ")
		out = strings.ReplaceAll(out, "const ", "var ")

		converted = append(converted, out)
	}

	return strings.Join(converted, "\n")
}

// convertFunctionHeader turns "function name(args) {" into
// "func name(args):" while preserving indentation.
func convertFunctionHeader(line, trimmed string) string {
	rest := strings.TrimPrefix(trimmed, "function ")
	parenPos := strings.Index(rest, "(")
	if parenPos <= 0 {
		return line
	}
	name := rest[:parenPos]
	params := rest[parenPos:]
	params = strings.TrimSuffix(params, " {")
	params = strings.TrimSuffix(params, "{")
	params = strings.TrimRight(params, " ")

	indent := line[:len(line)-len(strings.TrimLeft(line, "\t "))]
	return indent + "func " + name + params + ":"
}

// fixUnterminatedBlocks tracks indentation transitions across function
// declarations and inserts a pass statement into bodies that ended before
// they began. Inserted lines use the script's own indentation unit so a
// space-indented script stays space-indented.
func fixUnterminatedBlocks(content string) string {
	lines := strings.Split(content, "\n")
	unit := indentUnit(lines)
	fixed := make([]string, 0, len(lines)+4)

	for i, line := range lines {
		fixed = append(fixed, line)
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "func ") || !strings.HasSuffix(trimmed, ":") {
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, "\t "))]
		next := nextNonBlank(lines, i+1)
		if next == "" || indentWidth(next) <= len(indent) {
			fixed = append(fixed, indent+unit+"pass")
		}
	}

	return strings.Join(fixed, "\n")
}

// indentUnit returns the leading whitespace of the first indented line, or
// a tab when nothing in the content is indented yet.
func indentUnit(lines []string) string {
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		trimmed := strings.TrimLeft(line, "\t ")
		if prefix := line[:len(line)-len(trimmed)]; prefix != "" {
			return prefix
		}
	}
	return "\t"
}

func nextNonBlank(lines []string, from int) string {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, "\t "))
}
