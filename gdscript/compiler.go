package gdscript

import (
	"fmt"
)

// compiledUnit is the throwaway artifact of a compile pass. It exists so
// compilation exercises the whole script; nothing retains it.
type compiledUnit struct {
	functions map[string]int // name -> statement count
}

// compile lowers every function body into the throwaway unit. The first
// failure aborts and is reported as exactly one diagnostic.
func compile(res *parseResult) (*compiledUnit, *Diagnostic) {
	unit := &compiledUnit{functions: map[string]int{}}

	for _, d := range res.decls {
		if d.kind != "func" {
			continue
		}
		count, diag := compileFunction(res, d)
		if diag != nil {
			return nil, diag
		}
		unit.functions[d.name] = count
	}
	return unit, nil
}

// compileFunction walks one function body, tracking enclosing loop
// headers by indentation so break/continue placement can be validated.
func compileFunction(res *parseResult, fn declaration) (int, *Diagnostic) {
	type frame struct {
		indent int
		isLoop bool
	}
	var stack []frame
	statements := 0

	header := res.lines[fn.line-1]
	if inlineSuite(header.code) {
		return 1, nil
	}

	for i := fn.line; i < len(res.lines); i++ {
		line := res.lines[i]
		code := trimLeft(line.code)
		if code == "" {
			continue
		}
		if line.indent <= fn.indent {
			break
		}

		for len(stack) > 0 && line.indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}

		word := firstWord(code)
		switch word {
		case "break", "continue":
			inLoop := false
			for _, f := range stack {
				if f.isLoop {
					inLoop = true
					break
				}
			}
			if !inLoop {
				return 0, &Diagnostic{
					Type:    CompilerError,
					Line:    line.number,
					Column:  line.indent + 1,
					Message: fmt.Sprintf("%q used outside of a loop in function %q.", word, fn.name),
				}
			}
		case "for", "while":
			stack = append(stack, frame{indent: line.indent, isLoop: true})
		case "if", "elif", "else", "match":
			stack = append(stack, frame{indent: line.indent, isLoop: false})
		}
		statements++
	}

	return statements, nil
}
