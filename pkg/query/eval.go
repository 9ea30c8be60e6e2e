package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/itisrmk/pit/pkg/core"
)

// ContentFunc lazily loads a version's decoded blob text. It is only
// invoked when the expression actually references the content field,
// so metadata-only queries never touch the content store.
type ContentFunc func() (string, error)

// Eval evaluates an expression against a version. Evaluation is total:
// ill-typed comparisons (contains on a number, ordering on a missing
// metric) are false rather than errors, so boolean combinators can
// still short-circuit around a malformed sub-term.
func Eval(e Expr, v core.Version, content ContentFunc) bool {
	return eval(e, v, content, nil)
}

// Explain evaluates like Eval and additionally reports every
// comparison on the evaluated path that degraded to false for type
// reasons. Short-circuited sub-terms are not inspected. Useful when a
// filter silently matches nothing.
func Explain(e Expr, v core.Version, content ContentFunc) (bool, []core.QueryTypeError) {
	var errs []core.QueryTypeError
	ok := eval(e, v, content, &errs)
	return ok, errs
}

func eval(e Expr, v core.Version, content ContentFunc, errs *[]core.QueryTypeError) bool {
	switch n := e.(type) {
	case *Not:
		return !eval(n.X, v, content, errs)
	case *And:
		return eval(n.L, v, content, errs) && eval(n.R, v, content, errs)
	case *Or:
		return eval(n.L, v, content, errs) || eval(n.R, v, content, errs)
	case *Comparison:
		ok, reason := evalComparison(n, v, content)
		if reason != "" && errs != nil {
			*errs = append(*errs, core.QueryTypeError{
				Field:  n.Field,
				Op:     string(n.Op),
				Reason: reason,
			})
		}
		return ok
	default:
		return false
	}
}

// evalComparison returns the match result and, when the comparison
// degraded to false because the operand types do not line up, a
// human-readable reason. A missing metric or an unloadable blob is
// absence, not a type error, and reports nothing.
func evalComparison(c *Comparison, v core.Version, content ContentFunc) (bool, string) {
	switch c.Field {
	case FieldVersion:
		return compareNumber(float64(v.Sequence), c.Op, c.Value)
	case FieldMessage:
		return compareString(v.Message, c.Op, c.Value)
	case FieldAuthor:
		return compareString(v.Author, c.Op, c.Value)
	case FieldCreatedAt:
		return compareTime(v.CreatedAt, c.Op, c.Value)
	case FieldTags:
		return compareTags(v.Tags, c.Op, c.Value)
	case FieldContent:
		if content == nil {
			return false, ""
		}
		text, err := content()
		if err != nil {
			return false, ""
		}
		return compareContent(text, c.Op, c.Value)
	default:
		// Any other identifier is a metric lookup. A missing metric
		// never matches, regardless of operator.
		val, ok := v.Metric(c.Field)
		if !ok {
			return false, ""
		}
		return compareNumber(val, c.Op, c.Value)
	}
}

func compareNumber(have float64, op Op, want Value) (bool, string) {
	if want.Kind != ValueNumber {
		return false, "numeric field compared against a non-numeric value"
	}
	switch op {
	case OpEq:
		return have == want.Num, ""
	case OpNe:
		return have != want.Num, ""
	case OpGt:
		return have > want.Num, ""
	case OpLt:
		return have < want.Num, ""
	case OpGe:
		return have >= want.Num, ""
	case OpLe:
		return have <= want.Num, ""
	default:
		return false, "contains on a numeric field"
	}
}

func compareString(have string, op Op, want Value) (bool, string) {
	if want.Kind == ValueNumber {
		return false, "string field compared against a number"
	}
	switch op {
	case OpEq:
		return have == want.Str, ""
	case OpNe:
		return have != want.Str, ""
	case OpContains:
		return strings.Contains(have, want.Str), ""
	default:
		return false, "ordering on a free-form string"
	}
}

// compareContent is the case-sensitive substring search over the
// decoded blob text.
func compareContent(text string, op Op, want Value) (bool, string) {
	if want.Kind == ValueNumber {
		return false, "content compared against a number"
	}
	switch op {
	case OpContains:
		return strings.Contains(text, want.Str), ""
	case OpEq:
		return text == want.Str, ""
	case OpNe:
		return text != want.Str, ""
	default:
		return false, "ordering on content"
	}
}

// compareTags treats contains as set membership and = / != as
// whole-set membership tests on a single label.
func compareTags(tags []string, op Op, want Value) (bool, string) {
	if want.Kind == ValueNumber {
		return false, "tags compared against a number"
	}
	member := false
	for _, t := range tags {
		if t == want.Str {
			member = true
			break
		}
	}
	switch op {
	case OpContains, OpEq:
		return member, ""
	case OpNe:
		return !member, ""
	default:
		return false, "ordering on tags"
	}
}

func compareTime(have time.Time, op Op, want Value) (bool, string) {
	if want.Kind == ValueNumber {
		return false, "time field compared against a number"
	}
	parsed, ok := parseTimeValue(want.Str)
	if !ok {
		return false, fmt.Sprintf("unparseable time literal %q", want.Str)
	}
	switch op {
	case OpEq:
		return have.Equal(parsed), ""
	case OpNe:
		return !have.Equal(parsed), ""
	case OpGt:
		return have.After(parsed), ""
	case OpLt:
		return have.Before(parsed), ""
	case OpGe:
		return !have.Before(parsed), ""
	case OpLe:
		return !have.After(parsed), ""
	default:
		return false, "contains on a time field"
	}
}

func parseTimeValue(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
