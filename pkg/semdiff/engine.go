// Package semdiff computes categorized diffs between prompt blobs.
// The pipeline is: line-level alignment (LCS via diffmatchpatch), span
// classification through an ordered rule table, then per-category
// aggregation with token-fraction magnitudes. Everything is pure and
// deterministic: identical inputs always produce identical diffs.
package semdiff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/itisrmk/pit/pkg/core"
)

// Engine is the built-in core.DiffEngine. Stateless and safe for
// concurrent use.
type Engine struct{}

// New creates a diff engine.
func New() *Engine { return &Engine{} }

// span is one contiguous inserted or deleted run of lines.
type span struct {
	text    string
	removed bool
}

// Categorize computes the semantic diff between two blobs. Equal blobs
// yield an empty diff, never an error.
func (e *Engine) Categorize(a, b []byte) core.SemanticDiff {
	if bytes.Equal(a, b) {
		return core.SemanticDiff{}
	}

	spans := align(string(a), string(b))
	if len(spans) == 0 {
		return core.SemanticDiff{}
	}

	type bucket struct {
		added      []string
		removed    []string
		tokenCount int
	}
	buckets := make(map[core.Category]*bucket)
	totalTokens := 0

	for _, sp := range spans {
		cat := classify(sp.text)
		bk := buckets[cat]
		if bk == nil {
			bk = &bucket{}
			buckets[cat] = bk
		}
		tokens := len(strings.Fields(sp.text))
		if tokens == 0 {
			tokens = 1 // whitespace-only spans still count as a change
		}
		bk.tokenCount += tokens
		totalTokens += tokens
		if sp.removed {
			bk.removed = append(bk.removed, sp.text)
		} else {
			bk.added = append(bk.added, sp.text)
		}
	}

	var diff core.SemanticDiff
	// Iterate in fixed category order so output is deterministic.
	for _, cat := range core.Categories() {
		bk, ok := buckets[cat]
		if !ok {
			continue
		}
		diff.Entries = append(diff.Entries, core.DiffEntry{
			Category:    cat,
			Description: describe(cat, bk.added, bk.removed),
			Magnitude:   float64(bk.tokenCount) / float64(totalTokens),
			Added:       bk.added,
			Removed:     bk.removed,
		})
	}
	return diff
}

// align runs a line-level LCS diff and returns the changed spans.
func align(a, b string) []span {
	dmp := diffmatchpatch.New()
	// The default DiffTimeout lets DiffMain abandon the refined diff
	// when the wall clock runs out and return a coarser split, so the
	// same input pair could align differently under load. Zero
	// disables the deadline.
	dmp.DiffTimeout = 0
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var spans []span
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			spans = append(spans, splitSpans(d.Text, false)...)
		case diffmatchpatch.DiffDelete:
			spans = append(spans, splitSpans(d.Text, true)...)
		}
	}
	return spans
}

// splitSpans breaks a diff hunk into per-line spans, dropping empty
// lines. A change made of only blank lines still yields one span so it
// is never silently lost.
func splitSpans(text string, removed bool) []span {
	var out []span
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, span{text: line, removed: removed})
	}
	if out == nil && text != "" {
		out = append(out, span{text: text, removed: removed})
	}
	return out
}

func describe(cat core.Category, added, removed []string) string {
	switch {
	case len(removed) == 0:
		return fmt.Sprintf("added %s (%d span(s))", cat, len(added))
	case len(added) == 0:
		return fmt.Sprintf("removed %s (%d span(s))", cat, len(removed))
	default:
		return fmt.Sprintf("modified %s (+%d/-%d span(s))", cat, len(added), len(removed))
	}
}

var _ core.DiffEngine = (*Engine)(nil)
