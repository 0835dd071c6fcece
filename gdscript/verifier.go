// Package gdscript statically verifies GDScript content without executing
// it. Verification runs parse, analyze and compile stages in strict order;
// a stage only runs when the previous one reported no errors.
package gdscript

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/scene"
)

// Verifier drives the parse/analyze/compile toolchain and normalizes its
// diagnostics.
type Verifier struct {
	known classKnown
}

// NewVerifier builds a verifier that resolves extends targets against the
// scene class registry plus the script base classes.
func NewVerifier() *Verifier {
	return &Verifier{
		known: func(name string) bool {
			if scriptBaseClasses[name] {
				return true
			}
			if strings.Contains(name, "/") || strings.HasSuffix(name, ".gd") {
				return true // script path targets resolve at load time
			}
			return scene.Classes().CanInstantiate(name)
		},
	}
}

// Check verifies content as the script at path. Only recognized script
// extensions are analyzed; anything else yields a single info diagnostic.
func (v *Verifier) Check(path, content string) []Diagnostic {
	if strings.ToLower(filepath.Ext(path)) != ".gd" {
		return []Diagnostic{{
			Type:    Info,
			Line:    0,
			Column:  0,
			Message: "No static check available for this file type.",
		}}
	}

	res := parse(content)
	diags := append([]Diagnostic(nil), res.errors...)
	if len(diags) > 0 {
		logger.Debug("Static check stopped after parse stage", "path", path, "errors", len(diags))
		return diags
	}

	for _, d := range analyze(res, v.known) {
		if duplicatesExisting(diags, d) {
			continue
		}
		diags = append(diags, d)
	}
	if len(diags) > 0 {
		logger.Debug("Static check stopped after analyze stage", "path", path, "errors", len(diags))
		return diags
	}

	if _, diag := compile(res); diag != nil {
		diags = append(diags, *diag)
	}
	return diags
}

// CheckFile reads and verifies a script from disk. Read failures become a
// file_error diagnostic rather than a hard error.
func (v *Verifier) CheckFile(path string) []Diagnostic {
	data, err := os.ReadFile(path)
	if err != nil {
		return []Diagnostic{{
			Type:    FileError,
			Line:    0,
			Column:  0,
			Message: "Failed to read file: " + path,
		}}
	}
	return v.Check(path, string(data))
}

// HasErrors reports whether any diagnostic is an actual error rather than
// an informational note.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Type != Info {
			return true
		}
	}
	return false
}

// duplicatesExisting applies the (line, message) dedup rule between stages.
func duplicatesExisting(existing []Diagnostic, candidate Diagnostic) bool {
	for _, d := range existing {
		if d.Line == candidate.Line && d.Message == candidate.Message {
			return true
		}
	}
	return false
}
