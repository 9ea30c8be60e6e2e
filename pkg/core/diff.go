package core

// Category classifies a textual change semantically.
type Category string

const (
	CategoryTone        Category = "tone"
	CategoryConstraints Category = "constraints"
	CategoryExamples    Category = "examples"
	CategoryStructure   Category = "structure"
	CategoryVariables   Category = "variables"
	CategoryContext     Category = "context"
)

// Categories lists every category in reporting order.
func Categories() []Category {
	return []Category{
		CategoryTone,
		CategoryConstraints,
		CategoryExamples,
		CategoryStructure,
		CategoryVariables,
		CategoryContext,
	}
}

// DiffEntry aggregates all changed spans of one category between two
// blobs. Added and Removed keep the raw span texts so a merge resolver
// can tell pure additions apart from rewrites.
type DiffEntry struct {
	Category    Category
	Description string
	// Magnitude is the fraction of changed tokens attributable to this
	// category, normalized to [0,1] across the whole diff.
	Magnitude float64
	Added     []string
	Removed   []string
}

// PureAddition reports whether this entry only added text.
func (e DiffEntry) PureAddition() bool {
	return len(e.Removed) == 0 && len(e.Added) > 0
}

// SemanticDiff is the categorized difference between two blobs.
// Derived data: recomputed on demand, never the source of truth.
// An empty diff (no entries) means the blobs are equivalent.
type SemanticDiff struct {
	Entries []DiffEntry
}

// Empty reports whether no semantic change was detected.
func (d SemanticDiff) Empty() bool { return len(d.Entries) == 0 }

// Entry returns the entry for a category, if the category was touched.
func (d SemanticDiff) Entry(c Category) (DiffEntry, bool) {
	for _, e := range d.Entries {
		if e.Category == c {
			return e, true
		}
	}
	return DiffEntry{}, false
}

// DiffEngine computes a categorized diff between two blobs. The default
// implementation lives in pkg/semdiff; a richer external categorizer
// may be plugged in as long as it stays deterministic for a given
// input pair.
type DiffEngine interface {
	Categorize(a, b []byte) SemanticDiff
}
