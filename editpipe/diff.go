package editpipe

import (
	"fmt"
	"strings"
)

const (
	defaultContextLines = 3
	resyncLookahead     = 3

	// DefaultDiffMaxBytes guards against pathological inputs; beyond it the
	// diff is replaced with a summary placeholder instead of risking a hang.
	DefaultDiffMaxBytes = 100000
)

// DiffOptions tunes hunk generation.
type DiffOptions struct {
	ContextLines int
	MaxBytes     int
}

func (o DiffOptions) withDefaults() DiffOptions {
	if o.ContextLines <= 0 {
		o.ContextLines = defaultContextLines
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultDiffMaxBytes
	}
	return o
}

// UnifiedDiff produces a unified-diff-style text between original and
// modified content. Inputs larger than MaxBytes are summarized instead of
// diffed. Identical inputs produce headers only — zero changed lines.
func UnifiedDiff(original, modified, path string, opts DiffOptions) string {
	opts = opts.withDefaults()

	if len(original) > opts.MaxBytes || len(modified) > opts.MaxBytes {
		return fmt.Sprintf(
			"Diff skipped - file too large (original: %d chars, new: %d chars)",
			len(original), len(modified),
		)
	}

	origLines := strings.Split(original, "\n")
	modLines := strings.Split(modified, "\n")

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s (original)\n", path)
	fmt.Fprintf(&sb, "+++ %s (modified)\n", path)

	origAt, modAt := 0, 0
	prevEndOrig := 0
	for origAt < len(origLines) || modAt < len(modLines) {
		// Skip the matching prefix.
		for origAt < len(origLines) && modAt < len(modLines) && origLines[origAt] == modLines[modAt] {
			origAt++
			modAt++
		}
		if origAt >= len(origLines) && modAt >= len(modLines) {
			break
		}

		changeStartOrig := origAt
		changeStartMod := modAt

		// Extend the change window until a short lookahead finds both
		// sides matching again at the same offset. The window grows by at
		// least one line per step so the scan always terminates.
		changeEndOrig := origAt
		changeEndMod := modAt
		for changeEndOrig < len(origLines) || changeEndMod < len(modLines) {
			if changeEndOrig < len(origLines) {
				changeEndOrig++
			}
			if changeEndMod < len(modLines) {
				changeEndMod++
			}
			if resyncFound(origLines, modLines, changeEndOrig, changeEndMod) {
				break
			}
		}

		// Context is only taken from regions where both sides are known
		// to match: never further back than the previous change window
		// and never past the next divergence, so hunk lengths always
		// describe lines common to both sides.
		leading := min(opts.ContextLines, changeStartOrig-prevEndOrig)
		ctxStartOrig := changeStartOrig - leading
		ctxStartMod := changeStartMod - leading

		ctxEndOrig := changeEndOrig
		for ctxEndOrig-changeEndOrig < opts.ContextLines && ctxEndOrig < len(origLines) {
			modIdx := changeEndMod + (ctxEndOrig - changeEndOrig)
			if modIdx >= len(modLines) || modLines[modIdx] != origLines[ctxEndOrig] {
				break
			}
			ctxEndOrig++
		}
		trailing := ctxEndOrig - changeEndOrig

		hunkOrigLen := ctxEndOrig - ctxStartOrig
		hunkModLen := changeEndMod + trailing - ctxStartMod

		fmt.Fprintf(&sb, "@@ -%d,%d +%d,%d @@\n", ctxStartOrig+1, hunkOrigLen, ctxStartMod+1, hunkModLen)

		for i := ctxStartOrig; i < changeStartOrig; i++ {
			sb.WriteString(" " + origLines[i] + "\n")
		}
		for i := changeStartOrig; i < changeEndOrig && i < len(origLines); i++ {
			sb.WriteString("-" + origLines[i] + "\n")
		}
		for i := changeStartMod; i < changeEndMod && i < len(modLines); i++ {
			sb.WriteString("+" + modLines[i] + "\n")
		}
		for i := changeEndOrig; i < ctxEndOrig; i++ {
			sb.WriteString(" " + origLines[i] + "\n")
		}

		origAt = changeEndOrig
		modAt = changeEndMod
		prevEndOrig = changeEndOrig
	}

	return sb.String()
}

// resyncFound reports whether both sides line up again: every pair within
// the lookahead window must match, with end-of-input treated as agreement
// only when both sides ran out.
func resyncFound(origLines, modLines []string, origAt, modAt int) bool {
	for i := 0; i < resyncLookahead; i++ {
		origIn := origAt+i < len(origLines)
		modIn := modAt+i < len(modLines)
		if !origIn && !modIn {
			return true
		}
		if origIn != modIn {
			return false
		}
		if origLines[origAt+i] != modLines[modAt+i] {
			return false
		}
	}
	return true
}

// DiffStats counts changed lines in a generated diff without reparsing
// hunk structure.
func DiffStats(diff string) (added, removed int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return added, removed
}
