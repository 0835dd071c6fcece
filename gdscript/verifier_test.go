package gdscript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func checkScript(t *testing.T, content string) []Diagnostic {
	t.Helper()
	return NewVerifier().Check("res://scripts/test.gd", content)
}

func requireNoDiagnostics(t *testing.T, content string) {
	t.Helper()
	diags := checkScript(t, content)
	if len(diags) != 0 {
		t.Fatalf("expected clean script, got %d diagnostics: %+v", len(diags), diags)
	}
}

func findMessage(diags []Diagnostic, substr string) *Diagnostic {
	for i, d := range diags {
		if strings.Contains(d.Message, substr) {
			return &diags[i]
		}
	}
	return nil
}

func TestCheckCleanScript(t *testing.T) {
	requireNoDiagnostics(t, strings.Join([]string{
		"extends Node2D",
		"",
		"var speed = 100.0",
		"const MAX_HEALTH = 5",
		"signal died",
		"",
		"func _ready():",
		"\tprint(\"ready\")",
		"",
		"func move(delta):",
		"\tfor i in range(3):",
		"\t\tif i > 1:",
		"\t\t\tbreak",
		"\treturn speed * delta",
	}, "\n"))
}

func TestParserMissingColonAfterFunc(t *testing.T) {
	diags := checkScript(t, "func ready()\n\tpass\n")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", diags)
	}
	d := diags[0]
	if d.Type != ParserError {
		t.Errorf("Type = %q, want parser_error", d.Type)
	}
	if d.Line != 1 {
		t.Errorf("Line = %d, want 1", d.Line)
	}
	if !strings.Contains(d.Message, "\"ready\"") {
		t.Errorf("message should name the function: %q", d.Message)
	}
}

func TestParserMissingColonAfterCondition(t *testing.T) {
	diags := checkScript(t, "func f():\n\tif true\n\t\tpass\n")
	d := findMessage(diags, "Expected \":\" after \"if\" condition.")
	if d == nil {
		t.Fatalf("missing colon diagnostic not found in %+v", diags)
	}
	if d.Line != 2 {
		t.Errorf("Line = %d, want 2", d.Line)
	}
}

func TestParserUnterminatedString(t *testing.T) {
	diags := checkScript(t, "var name = \"unclosed\n")
	d := findMessage(diags, "Unterminated string literal.")
	if d == nil {
		t.Fatalf("unterminated string diagnostic not found in %+v", diags)
	}
	if d.Line != 1 {
		t.Errorf("Line = %d, want 1", d.Line)
	}
}

func TestParserMixedIndentation(t *testing.T) {
	diags := checkScript(t, "func f():\n\t pass\n")
	if findMessage(diags, "Mixed tabs and spaces in indentation.") == nil {
		t.Fatalf("mixed indentation diagnostic not found in %+v", diags)
	}
}

func TestParserIndentStyleSwitch(t *testing.T) {
	content := strings.Join([]string{
		"func f():",
		"\tpass",
		"func g():",
		"    pass",
	}, "\n")
	diags := checkScript(t, content)
	d := findMessage(diags, "Used space character for indentation instead of tab")
	if d == nil {
		t.Fatalf("indent style diagnostic not found in %+v", diags)
	}
	if d.Line != 4 {
		t.Errorf("Line = %d, want 4", d.Line)
	}
}

func TestParserStrayBrace(t *testing.T) {
	diags := checkScript(t, "func f():\n\tpass\n}\n")
	if findMessage(diags, "Stray brace") == nil {
		t.Fatalf("stray brace diagnostic not found in %+v", diags)
	}
}

func TestParserUnbalancedBrackets(t *testing.T) {
	diags := checkScript(t, "var x = max(1, 2))\n")
	if findMessage(diags, "Closing bracket without a matching opening bracket.") == nil {
		t.Fatalf("closing bracket diagnostic not found in %+v", diags)
	}

	diags = checkScript(t, "var x = max(1,\n\t2\n")
	d := findMessage(diags, "Unclosed bracket at end of file.")
	if d == nil {
		t.Fatalf("unclosed bracket diagnostic not found in %+v", diags)
	}
}

func TestParserBracketsInsideStringsIgnored(t *testing.T) {
	requireNoDiagnostics(t, "var s = \"has (unbalanced [brackets\"\nvar c = 1 # also unbalanced (\n")
}

func TestParserEmptyBlock(t *testing.T) {
	diags := checkScript(t, "func f():\n\nvar x = 1\n")
	d := findMessage(diags, "Expected indented block after \"func\" declaration.")
	if d == nil {
		t.Fatalf("empty block diagnostic not found in %+v", diags)
	}
	if d.Line != 1 {
		t.Errorf("Line = %d, want 1", d.Line)
	}
}

func TestParserInlineSuiteIsNotEmptyBlock(t *testing.T) {
	requireNoDiagnostics(t, "func f():\n\tif true: return\n")
}

func TestParserMultilineExpressionSkipsStatementChecks(t *testing.T) {
	// Continuation lines inside an open bracket skip statement checks.
	requireNoDiagnostics(t, strings.Join([]string{
		"var table = [",
		"\t1,",
		"\t2,",
		"]",
	}, "\n"))
}

func TestParserStatementAfterPass(t *testing.T) {
	content := strings.Join([]string{
		"func f():",
		"\tpass",
		"\tprint(\"dead\")",
	}, "\n")
	diags := checkScript(t, content)
	d := findMessage(diags, "Statement found after \"pass\" in the same block.")
	if d == nil {
		t.Fatalf("pass diagnostic not found in %+v", diags)
	}
	if d.Line != 3 {
		t.Errorf("Line = %d, want 3", d.Line)
	}
}

func TestParserDedentAfterPassIsFine(t *testing.T) {
	requireNoDiagnostics(t, strings.Join([]string{
		"func f():",
		"\tif true:",
		"\t\tpass",
		"\tprint(\"next\")",
	}, "\n"))
}

func TestAnalyzerDuplicateDeclaration(t *testing.T) {
	diags := checkScript(t, "var health = 1\nvar health = 2\n")
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %+v", diags)
	}
	d := diags[0]
	if d.Type != AnalyzerError {
		t.Errorf("Type = %q, want analyzer_error", d.Type)
	}
	if d.Line != 2 {
		t.Errorf("Line = %d, want 2", d.Line)
	}
	if !strings.Contains(d.Message, "already declared at line 1") {
		t.Errorf("message should reference first declaration: %q", d.Message)
	}
}

func TestAnalyzerVarAndConstShareNamespace(t *testing.T) {
	diags := checkScript(t, "const LIMIT = 1\nvar LIMIT = 2\n")
	if findMessage(diags, "already declared at line 1") == nil {
		t.Fatalf("expected duplicate across var/const, got %+v", diags)
	}
}

func TestAnalyzerDuplicatesScopedByIndent(t *testing.T) {
	// Same name at different indent levels is two scopes, not a collision.
	requireNoDiagnostics(t, strings.Join([]string{
		"var value = 1",
		"func f():",
		"\tvar value = 2",
		"\treturn value",
	}, "\n"))
}

func TestAnalyzerBuiltinShadowing(t *testing.T) {
	diags := checkScript(t, "var print = 1\n")
	d := findMessage(diags, "shadows a global builtin")
	if d == nil {
		t.Fatalf("shadowing diagnostic not found in %+v", diags)
	}
	if d.Type != AnalyzerError {
		t.Errorf("Type = %q, want analyzer_error", d.Type)
	}
}

func TestAnalyzerReturnOutsideFunction(t *testing.T) {
	diags := checkScript(t, "var x = 1\nreturn x\n")
	d := findMessage(diags, "\"return\" used outside of a function.")
	if d == nil {
		t.Fatalf("return diagnostic not found in %+v", diags)
	}
	if d.Line != 2 {
		t.Errorf("Line = %d, want 2", d.Line)
	}
}

func TestAnalyzerUnknownExtends(t *testing.T) {
	diags := checkScript(t, "extends FlyingSaucer\n")
	if findMessage(diags, "Could not resolve base class \"FlyingSaucer\".") == nil {
		t.Fatalf("extends diagnostic not found in %+v", diags)
	}
}

func TestAnalyzerExtendsScriptBaseAndPath(t *testing.T) {
	requireNoDiagnostics(t, "extends RefCounted\n")
	requireNoDiagnostics(t, "extends \"scripts/base.gd\"\n")
}

func TestCompilerBreakOutsideLoop(t *testing.T) {
	content := strings.Join([]string{
		"func f():",
		"\tif true:",
		"\t\tbreak",
	}, "\n")
	diags := checkScript(t, content)
	if len(diags) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %+v", diags)
	}
	d := diags[0]
	if d.Type != CompilerError {
		t.Errorf("Type = %q, want compiler_error", d.Type)
	}
	if d.Line != 3 {
		t.Errorf("Line = %d, want 3", d.Line)
	}
	if !strings.Contains(d.Message, "\"break\"") || !strings.Contains(d.Message, "\"f\"") {
		t.Errorf("message should name statement and function: %q", d.Message)
	}
}

func TestCompilerContinueInsideWhileIsFine(t *testing.T) {
	requireNoDiagnostics(t, strings.Join([]string{
		"func f():",
		"\twhile true:",
		"\t\tcontinue",
	}, "\n"))
}

func TestCompilerFirstFailureWins(t *testing.T) {
	content := strings.Join([]string{
		"func a():",
		"\tbreak",
		"",
		"func b():",
		"\tcontinue",
	}, "\n")
	diags := checkScript(t, content)
	if len(diags) != 1 {
		t.Fatalf("compile should abort at the first failure, got %+v", diags)
	}
}

func TestCompilerLoopScopeEndsWithIndent(t *testing.T) {
	// The break sits after the loop body has dedented back out.
	content := strings.Join([]string{
		"func f():",
		"\tfor i in range(3):",
		"\t\tpass",
		"\tbreak",
	}, "\n")
	diags := checkScript(t, content)
	if len(diags) != 1 || diags[0].Type != CompilerError {
		t.Fatalf("expected compiler error after dedent, got %+v", diags)
	}
}

func TestCheckStopsAfterParseStage(t *testing.T) {
	// Parser error plus would-be analyzer errors: only parser output returned.
	content := strings.Join([]string{
		"func broken()",
		"\tpass",
		"var print = 1",
		"return 2",
	}, "\n")
	diags := checkScript(t, content)
	if len(diags) == 0 {
		t.Fatal("expected diagnostics")
	}
	for _, d := range diags {
		if d.Type != ParserError {
			t.Errorf("stage ordering violated: got %q diagnostic %q", d.Type, d.Message)
		}
	}
}

func TestCheckNonScriptFile(t *testing.T) {
	diags := NewVerifier().Check("res://scenes/main.tscn", "[gd_scene]\n")
	if len(diags) != 1 {
		t.Fatalf("expected single info diagnostic, got %+v", diags)
	}
	if diags[0].Type != Info {
		t.Errorf("Type = %q, want info", diags[0].Type)
	}
	if diags[0].Message != "No static check available for this file type." {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
	if HasErrors(diags) {
		t.Error("info diagnostics must not count as errors")
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "player.gd")
	if err := os.WriteFile(path, []byte("extends Node2D\n\nfunc _ready():\n\tpass\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if diags := NewVerifier().CheckFile(path); len(diags) != 0 {
		t.Errorf("expected clean file, got %+v", diags)
	}

	diags := NewVerifier().CheckFile(filepath.Join(dir, "missing.gd"))
	if len(diags) != 1 || diags[0].Type != FileError {
		t.Fatalf("expected file_error for missing file, got %+v", diags)
	}
}

func TestHasErrors(t *testing.T) {
	if HasErrors(nil) {
		t.Error("nil diagnostics should report no errors")
	}
	if HasErrors([]Diagnostic{{Type: Info}}) {
		t.Error("info-only diagnostics should report no errors")
	}
	if !HasErrors([]Diagnostic{{Type: Info}, {Type: ParserError}}) {
		t.Error("parser error should count")
	}
}
