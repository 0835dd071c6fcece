package gdscript

import (
	"fmt"
)

// builtinNames are global identifiers a script should not shadow with its
// own declarations.
var builtinNames = map[string]bool{
	"print": true, "range": true, "len": true, "str": true,
	"int": true, "float": true, "bool": true, "abs": true,
	"load": true, "preload": true, "assert": true,
}

// scriptBaseClasses are valid extends targets that are not node classes.
var scriptBaseClasses = map[string]bool{
	"Object": true, "RefCounted": true, "Resource": true, "Node": true,
}

// classKnown decides whether an extends target names something resolvable:
// a registered node class, a known script base, or a script path.
type classKnown func(name string) bool

// analyze runs semantic checks over a clean parse. Diagnostics that repeat
// a parser finding by (line, message) are dropped by the caller.
func analyze(res *parseResult, known classKnown) []Diagnostic {
	var diags []Diagnostic
	add := func(line int, msg string) {
		diags = append(diags, Diagnostic{Type: AnalyzerError, Line: line, Column: 1, Message: msg})
	}

	if res.extends != "" && known != nil && !known(res.extends) {
		add(res.extendsLine, fmt.Sprintf("Could not resolve base class %q.", res.extends))
	}

	// Duplicate declarations are scoped by indentation level: two
	// same-named members at the same indent collide.
	type declKey struct {
		kind   string
		name   string
		indent int
	}
	seen := map[declKey]int{}
	for _, d := range res.decls {
		if d.kind == "class_name" {
			continue
		}
		kind := d.kind
		if kind == "const" {
			kind = "var" // vars and consts share a namespace
		}
		key := declKey{kind: kind, name: d.name, indent: d.indent}
		if firstLine, dup := seen[key]; dup {
			add(d.line, fmt.Sprintf("%s %q is already declared at line %d.", declKindLabel(d.kind), d.name, firstLine))
			continue
		}
		seen[key] = d.line

		if d.indent == 0 && builtinNames[d.name] {
			add(d.line, fmt.Sprintf("Declaration %q shadows a global builtin.", d.name))
		}
	}

	// return is only meaningful inside a function body.
	funcRanges := funcBodyRanges(res)
	for _, line := range res.lines {
		trimmed := firstWord(trimLeft(line.code))
		if trimmed != "return" {
			continue
		}
		if !insideAnyRange(line.number, funcRanges) {
			add(line.number, "\"return\" used outside of a function.")
		}
	}

	return diags
}

func declKindLabel(kind string) string {
	switch kind {
	case "func":
		return "Function"
	case "signal":
		return "Signal"
	default:
		return "Member"
	}
}

type lineRange struct{ start, end int }

// funcBodyRanges computes, per function declaration, the line span of its
// body: from its header to the next line at the same or lower indent.
func funcBodyRanges(res *parseResult) []lineRange {
	var ranges []lineRange
	for _, d := range res.decls {
		if d.kind != "func" {
			continue
		}
		end := len(res.lines)
		for i := d.line; i < len(res.lines); i++ {
			line := res.lines[i]
			if isBlankCode(line.code) {
				continue
			}
			if line.indent <= d.indent {
				end = line.number - 1
				break
			}
		}
		ranges = append(ranges, lineRange{start: d.line, end: end})
	}
	return ranges
}

func insideAnyRange(line int, ranges []lineRange) bool {
	for _, r := range ranges {
		if line >= r.start && line <= r.end {
			return true
		}
	}
	return false
}

func isBlankCode(code string) bool {
	return trimLeft(code) == ""
}

func trimLeft(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	// also trim trailing space so firstWord sees the statement
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
