package semdiff

import (
	"regexp"

	"github.com/itisrmk/pit/pkg/core"
)

// rule pairs a span predicate with the category it assigns. Rules are
// evaluated in order, first match wins, so classification stays
// auditable: to understand why a span landed in a category, read the
// table top to bottom.
type rule struct {
	category core.Category
	match    func(span string) bool
}

var (
	// Imperative instructions with negation or limit keywords.
	constraintRe = regexp.MustCompile(`(?i)\b(must( not)?|never|always|only|do not|don't|cannot|can't|at (most|least)|no more than|limit(ed)?|maximum|minimum|exactly|required|prohibited|strictly|forbidden)\b`)

	// Delimited example blocks or input/output pairs.
	exampleRe = regexp.MustCompile("(?i)(```|\\b(example|examples|e\\.g\\.|for instance|such as|sample)\\b|^\\s*(input|output)\\s*:|->|→)")

	// Enumerated-list or heading markers at line start, or explicit
	// output-format keywords.
	structureRe = regexp.MustCompile(`(?im)(^\s*(#{1,6}\s|[-*+]\s|\d+[.)]\s)|\b(format|json|yaml|xml|markdown|bullet|numbered list|table|section|heading)\b)`)

	// Template variable occurrences.
	variableRe = regexp.MustCompile(`\{\{\s*[A-Za-z_][A-Za-z0-9_]*\s*\}\}`)

	// Register-shifting adjectives or direct-address phrasing.
	toneRe = regexp.MustCompile(`(?i)\b(friendly|professional|casual|formal|polite|warm|empathetic|enthusiastic|respectful|courteous|clinical|conversational|playful|serious|tone|voice|personality|style)\b|(?i)^\s*(please|you are|you're)\b`)
)

// classifierRules is the ordered table from most to least specific;
// context is the catch-all and never appears here.
var classifierRules = []rule{
	{core.CategoryConstraints, constraintRe.MatchString},
	{core.CategoryExamples, exampleRe.MatchString},
	{core.CategoryStructure, structureRe.MatchString},
	{core.CategoryVariables, variableRe.MatchString},
	{core.CategoryTone, toneRe.MatchString},
}

// classify assigns a changed span to exactly one category.
func classify(span string) core.Category {
	for _, r := range classifierRules {
		if r.match(span) {
			return r.category
		}
	}
	return core.CategoryContext
}
