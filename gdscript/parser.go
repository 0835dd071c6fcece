package gdscript

import (
	"fmt"
	"regexp"
	"strings"
)

// declaration is one named top-level or nested declaration found while
// parsing. The analyzer and compiler work from these instead of a full AST.
type declaration struct {
	kind   string // "func", "var", "const", "signal", "class_name"
	name   string
	line   int
	indent int
}

// parseResult carries everything later stages need: the raw lines, the
// declarations, and the inheritance target.
type parseResult struct {
	lines       []parsedLine
	decls       []declaration
	extends     string
	extendsLine int
	errors      []Diagnostic
}

// parsedLine is one source line with its string/comment content stripped.
type parsedLine struct {
	number int
	raw    string
	code   string // raw minus strings and comments
	indent int    // leading indentation width
	blank  bool
}

var (
	identPattern     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)
	funcNamePattern  = regexp.MustCompile(`^func\s+([A-Za-z_][A-Za-z0-9_]*)`)
	classNamePattern = regexp.MustCompile(`^class_name\s+([A-Za-z_][A-Za-z0-9_]*)`)
	extendsPattern   = regexp.MustCompile(`^extends\s+("?)([A-Za-z_][A-Za-z0-9_/.]*)`)
)

// blockHeaders are keywords that open an indented suite and therefore
// require a trailing colon.
var blockHeaders = map[string]bool{
	"func": true, "if": true, "elif": true, "else": true,
	"for": true, "while": true, "match": true, "class": true,
}

// parse runs the surface-level syntax pass. It never stops at the first
// problem; all parser diagnostics for the content are collected.
func parse(content string) *parseResult {
	res := &parseResult{}
	indentStyle := byte(0) // first indentation character wins

	bracketDepth := 0
	for i, raw := range strings.Split(content, "\n") {
		lineNo := i + 1
		code, unterminated := stripStringsAndComments(raw)
		indent, mixed := measureIndent(raw)
		blank := strings.TrimSpace(code) == "" && strings.TrimSpace(raw) == ""

		line := parsedLine{number: lineNo, raw: raw, code: code, indent: indent, blank: blank}
		res.lines = append(res.lines, line)

		if unterminated {
			res.addError(lineNo, columnOf(raw, `"`), "Unterminated string literal.")
		}

		if !blank && indent > 0 {
			first := indentChar(raw)
			if indentStyle == 0 {
				indentStyle = first
			} else if first != 0 && first != indentStyle && !mixed {
				res.addError(lineNo, 1, indentMismatchMessage(indentStyle))
			}
			if mixed {
				res.addError(lineNo, 1, "Mixed tabs and spaces in indentation.")
			}
		}

		startDepth := bracketDepth
		bracketDepth += scanBrackets(code)
		if bracketDepth < 0 {
			res.addError(lineNo, 1, "Closing bracket without a matching opening bracket.")
			bracketDepth = 0
		}

		// Statement-level checks only apply outside multiline expressions.
		if startDepth == 0 {
			res.checkStatement(line)
		}
	}

	if bracketDepth > 0 {
		res.addError(len(res.lines), 1, "Unclosed bracket at end of file.")
	}

	res.checkBlockBodies()
	res.checkPassTermination()
	return res
}

func (p *parseResult) addError(line, column int, message string) {
	p.errors = append(p.errors, Diagnostic{Type: ParserError, Line: line, Column: column, Message: message})
}

func (p *parseResult) checkStatement(line parsedLine) {
	trimmed := strings.TrimSpace(line.code)
	if trimmed == "" {
		return
	}

	if trimmed == "{" || trimmed == "}" {
		p.addError(line.number, line.indent+1, "Stray brace; GDScript blocks are defined by indentation.")
		return
	}

	word := firstWord(trimmed)
	switch {
	case word == "extends":
		if m := extendsPattern.FindStringSubmatch(strings.TrimSpace(line.raw)); m != nil {
			p.extends = m[2]
			p.extendsLine = line.number
		} else {
			p.addError(line.number, 1, "Expected class name or script path after \"extends\".")
		}
	case word == "class_name":
		if m := classNamePattern.FindStringSubmatch(trimmed); m != nil {
			p.decls = append(p.decls, declaration{kind: "class_name", name: m[1], line: line.number, indent: line.indent})
		} else {
			p.addError(line.number, 1, "Expected identifier after \"class_name\".")
		}
	case word == "func":
		p.parseFuncHeader(line, trimmed)
	case word == "var" || word == "const":
		p.parseVarHeader(line, trimmed, word)
	case word == "signal":
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "signal"))
		name := identPattern.FindString(rest)
		if name == "" {
			p.addError(line.number, 1, "Expected signal name after \"signal\".")
			return
		}
		p.decls = append(p.decls, declaration{kind: "signal", name: name, line: line.number, indent: line.indent})
	case blockHeaders[word]:
		if !hasBlockColon(trimmed) {
			p.addError(line.number, len(line.raw), fmt.Sprintf("Expected \":\" after %q condition.", word))
		}
	}
}

func (p *parseResult) parseFuncHeader(line parsedLine, trimmed string) {
	m := funcNamePattern.FindStringSubmatch(trimmed)
	if m == nil {
		p.addError(line.number, 1, "Expected function name after \"func\".")
		return
	}
	name := m[1]
	if !strings.Contains(trimmed, "(") || !strings.Contains(trimmed, ")") {
		p.addError(line.number, 1, fmt.Sprintf("Expected parameter list after function name %q.", name))
		return
	}
	if !hasBlockColon(trimmed) {
		p.addError(line.number, len(line.raw), fmt.Sprintf("Expected \":\" after function declaration %q.", name))
		return
	}
	p.decls = append(p.decls, declaration{kind: "func", name: name, line: line.number, indent: line.indent})
}

func (p *parseResult) parseVarHeader(line parsedLine, trimmed, kind string) {
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, kind))
	name := identPattern.FindString(rest)
	if name == "" {
		p.addError(line.number, 1, fmt.Sprintf("Expected variable name after %q.", kind))
		return
	}
	p.decls = append(p.decls, declaration{kind: kind, name: name, line: line.number, indent: line.indent})
}

// checkBlockBodies flags block headers with no indented suite. One-liner
// suites ("if x: return") are fine.
func (p *parseResult) checkBlockBodies() {
	for i, line := range p.lines {
		trimmed := strings.TrimSpace(line.code)
		word := firstWord(trimmed)
		if !blockHeaders[word] || !hasBlockColon(trimmed) {
			continue
		}
		if inlineSuite(line.code) {
			continue
		}
		next := nextCodeLine(p.lines, i+1)
		if next == nil || next.indent <= line.indent {
			p.addError(line.number, 1, fmt.Sprintf("Expected indented block after %q declaration.", word))
		}
	}
}

// checkPassTermination flags statements that follow a bare "pass" at the
// same indentation. "pass" stands in for an empty suite; a dedent ends the
// block, but another statement alongside it never runs.
func (p *parseResult) checkPassTermination() {
	for i, line := range p.lines {
		if line.indent == 0 || strings.TrimSpace(line.code) != "pass" {
			continue
		}
		next := nextCodeLine(p.lines, i+1)
		if next != nil && next.indent == line.indent {
			p.addError(next.number, next.indent+1, "Statement found after \"pass\" in the same block.")
		}
	}
}

func nextCodeLine(lines []parsedLine, from int) *parsedLine {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i].code) != "" {
			return &lines[i]
		}
	}
	return nil
}

// inlineSuite reports whether a block header carries its body on the same
// line after the colon.
func inlineSuite(code string) bool {
	idx := strings.LastIndex(code, ":")
	if idx < 0 {
		return false
	}
	return strings.TrimSpace(code[idx+1:]) != ""
}

func hasBlockColon(code string) bool {
	return strings.Contains(code, ":")
}

func firstWord(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_') {
			return s[:i]
		}
	}
	return s
}

// stripStringsAndComments blanks out string literal contents and removes
// comments so bracket and keyword scans cannot be fooled. The bool result
// reports an unterminated string literal.
func stripStringsAndComments(raw string) (string, bool) {
	var b strings.Builder
	inString := false
	var quote byte
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			if c == '\\' {
				i++
				b.WriteString("  ")
				continue
			}
			if c == quote {
				inString = false
				b.WriteByte(c)
			} else {
				b.WriteByte(' ')
			}
			continue
		}
		switch c {
		case '#':
			return b.String(), false
		case '"', '\'':
			inString = true
			quote = c
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), inString
}

func scanBrackets(code string) int {
	depth := 0
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth
}

// measureIndent returns the indentation width in characters and whether
// tabs and spaces are mixed within the same prefix.
func measureIndent(raw string) (int, bool) {
	sawTab, sawSpace := false, false
	n := 0
	for ; n < len(raw); n++ {
		switch raw[n] {
		case '\t':
			sawTab = true
		case ' ':
			sawSpace = true
		default:
			return n, sawTab && sawSpace
		}
	}
	return n, sawTab && sawSpace
}

func indentChar(raw string) byte {
	if len(raw) > 0 && (raw[0] == '\t' || raw[0] == ' ') {
		return raw[0]
	}
	return 0
}

func indentMismatchMessage(style byte) string {
	if style == '\t' {
		return "Used space character for indentation instead of tab as used before in the file."
	}
	return "Used tab character for indentation instead of space as used before in the file."
}

func columnOf(raw, needle string) int {
	if idx := strings.Index(raw, needle); idx >= 0 {
		return idx + 1
	}
	return 1
}
