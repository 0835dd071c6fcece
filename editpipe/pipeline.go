// Package editpipe applies externally generated text rewrites to project
// script files: it cleans the replacement content, computes a line-level
// diff against the original and statically verifies the result. The
// pipeline never writes to disk; accepting or rejecting a preview is the
// caller's decision.
package editpipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/slighter12/godot-agent-tools/gdscript"
	"github.com/slighter12/godot-agent-tools/logger"
)

// Predictor is the external text-generation collaborator. It receives the
// current file content plus an instruction prompt and returns the full
// replacement content.
type Predictor interface {
	PredictEdit(ctx context.Context, fileContent, prompt string) (string, error)
}

// HTTPPredictor posts {file_content, prompt} to a backend endpoint and
// decodes {edited_content}.
type HTTPPredictor struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPPredictor(endpoint string) *HTTPPredictor {
	return &HTTPPredictor{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *HTTPPredictor) PredictEdit(ctx context.Context, fileContent, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"file_content": fileContent,
		"prompt":       prompt,
	})
	if err != nil {
		return "", fmt.Errorf("encode predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read prediction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("prediction server returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var decoded struct {
		EditedContent string `json:"edited_content"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("parse prediction response: %w", err)
	}
	return decoded.EditedContent, nil
}

// Preview is the result bundle of one edit pipeline run.
type Preview struct {
	Path        string                `json:"path"`
	WillCreate  bool                  `json:"will_create"`
	Original    string                `json:"original_content"`
	Cleaned     string                `json:"edited_content"`
	Diff        string                `json:"diff"`
	Diagnostics []gdscript.Diagnostic `json:"compilation_errors"`
	HasErrors   bool                  `json:"has_errors"`
}

// Pipeline wires the predictor, the cleaner, the differ and the verifier.
type Pipeline struct {
	predictor Predictor
	verifier  *gdscript.Verifier
	diffOpts  DiffOptions
}

func NewPipeline(predictor Predictor, verifier *gdscript.Verifier, diffOpts DiffOptions) *Pipeline {
	return &Pipeline{
		predictor: predictor,
		verifier:  verifier,
		diffOpts:  diffOpts,
	}
}

// ApplyPrompt runs the full pipeline: obtain replacement content from the
// predictor for the file at diskPath, then clean, diff and verify it.
// resPath is the project-facing path used in diff headers and diagnostics.
func (p *Pipeline) ApplyPrompt(ctx context.Context, diskPath, resPath, prompt string) (*Preview, error) {
	if p.predictor == nil {
		return nil, fmt.Errorf("no prediction backend configured")
	}

	original, willCreate, err := readOriginal(diskPath)
	if err != nil {
		return nil, err
	}

	edited, err := p.predictor.PredictEdit(ctx, original, prompt)
	if err != nil {
		return nil, err
	}

	return p.buildPreview(resPath, original, willCreate, edited), nil
}

// ApplyContent runs the pipeline with caller-supplied replacement content,
// bypassing the predictor.
func (p *Pipeline) ApplyContent(diskPath, resPath, content string) (*Preview, error) {
	original, willCreate, err := readOriginal(diskPath)
	if err != nil {
		return nil, err
	}
	return p.buildPreview(resPath, original, willCreate, content), nil
}

func (p *Pipeline) buildPreview(resPath, original string, willCreate bool, edited string) *Preview {
	cleaned := Clean(edited)
	diff := UnifiedDiff(original, cleaned, resPath, p.diffOpts)

	var diags []gdscript.Diagnostic
	if p.verifier != nil {
		diags = p.verifier.Check(resPath, cleaned)
	}

	preview := &Preview{
		Path:        resPath,
		WillCreate:  willCreate,
		Original:    original,
		Cleaned:     cleaned,
		Diff:        diff,
		Diagnostics: diags,
		HasErrors:   gdscript.HasErrors(diags),
	}

	added, removed := DiffStats(diff)
	logger.Info("Edit preview generated",
		"path", resPath, "added", added, "removed", removed,
		"diagnostics", len(diags), "will_create", willCreate)
	return preview
}

// readOriginal loads current file content; a missing file is empty content
// with a will-create flag, not a failure.
func readOriginal(diskPath string) (string, bool, error) {
	data, err := os.ReadFile(diskPath)
	if os.IsNotExist(err) {
		return "", true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read file: %w", err)
	}
	return string(data), false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
