// Package merge decides which categorized changes from two diverging
// edits of a common ancestor combine cleanly. It reconciles two
// semantic diffs, not two histories: artifact history stays linear.
package merge

import (
	"sort"

	"github.com/itisrmk/pit/pkg/core"
)

// Result partitions every category touched by either side into exactly
// one of AutoMerged or Conflicts.
type Result struct {
	AutoMerged []core.Category
	Conflicts  []core.Category
	// Additions holds, for categories auto-merged because both sides
	// only added text, the concatenated additions (ours then theirs).
	Additions map[core.Category][]string
}

// Clean reports whether the merge produced no conflicts.
func (r Result) Clean() bool { return len(r.Conflicts) == 0 }

// Resolve applies the category rules to two diffs taken against a
// common ancestor:
//
//   - a category touched by only one side auto-merges;
//   - a category touched by both sides conflicts, unless both sides
//     are pure additions, in which case the additions concatenate;
//   - an addition on one side and a removal on the other within the
//     same category always conflicts.
func Resolve(ours, theirs core.SemanticDiff) Result {
	res := Result{Additions: make(map[core.Category][]string)}

	touched := make(map[core.Category]bool)
	for _, e := range ours.Entries {
		touched[e.Category] = true
	}
	for _, e := range theirs.Entries {
		touched[e.Category] = true
	}

	for cat := range touched {
		o, inOurs := ours.Entry(cat)
		t, inTheirs := theirs.Entry(cat)

		switch {
		case inOurs && inTheirs:
			if o.PureAddition() && t.PureAddition() {
				res.AutoMerged = append(res.AutoMerged, cat)
				res.Additions[cat] = append(append([]string(nil), o.Added...), t.Added...)
			} else {
				res.Conflicts = append(res.Conflicts, cat)
			}
		case inOurs:
			res.AutoMerged = append(res.AutoMerged, cat)
		default:
			res.AutoMerged = append(res.AutoMerged, cat)
		}
	}

	sortCategories(res.AutoMerged)
	sortCategories(res.Conflicts)
	return res
}

// sortCategories orders by the fixed reporting order in core.
func sortCategories(cats []core.Category) {
	rank := make(map[core.Category]int, len(core.Categories()))
	for i, c := range core.Categories() {
		rank[c] = i
	}
	sort.Slice(cats, func(i, j int) bool { return rank[cats[i]] < rank[cats[j]] })
}
