// Package query implements the boolean filter language evaluated
// against version records: comparisons over version fields, metrics
// and blob content, combined with NOT/AND/OR (NOT binds tightest, AND
// tighter than OR, left-associative). Parse failures carry the
// offending token and offset; evaluation is total — an ill-typed
// comparison is false, never an abort.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator.
type Op string

const (
	OpEq       Op = "="
	OpNe       Op = "!="
	OpGt       Op = ">"
	OpLt       Op = "<"
	OpGe       Op = ">="
	OpLe       Op = "<="
	OpContains Op = "contains"
)

// ValueKind discriminates parsed literal values.
type ValueKind int

const (
	ValueString ValueKind = iota // quoted string
	ValueNumber                  // numeric literal
	ValueIdent                   // bare identifier, treated as a string
)

// Value is a literal operand.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
}

func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueIdent:
		return v.Str
	default:
		// The lexer has no escape sequences, so quote with whichever
		// delimiter the value does not contain. No single string token
		// can hold both quote kinds.
		if strings.Contains(v.Str, "'") {
			return `"` + v.Str + `"`
		}
		return "'" + v.Str + "'"
	}
}

// Expr is a parsed query expression. Immutable once parsed; String
// pretty-prints a form that re-parses to an equivalent expression.
type Expr interface {
	String() string
	// prec reports binding strength for minimal parenthesization.
	prec() int
}

const (
	precOr = iota + 1
	precAnd
	precNot
	precCmp
)

// Comparison is a single field-operator-value test.
type Comparison struct {
	Field string
	Op    Op
	Value Value
}

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, c.Value)
}

func (c *Comparison) prec() int { return precCmp }

// Not negates its operand.
type Not struct {
	X Expr
}

func (n *Not) String() string {
	return "NOT " + wrap(n.X, precNot)
}

func (n *Not) prec() int { return precNot }

// And is a conjunction.
type And struct {
	L, R Expr
}

func (a *And) String() string {
	return wrap(a.L, precAnd) + " AND " + wrap(a.R, precAnd)
}

func (a *And) prec() int { return precAnd }

// Or is a disjunction.
type Or struct {
	L, R Expr
}

func (o *Or) String() string {
	return wrap(o.L, precOr) + " OR " + wrap(o.R, precOr)
}

func (o *Or) prec() int { return precOr }

// wrap parenthesizes children that bind looser than their parent.
// AND and OR are associative, so equal-precedence chains reprint
// without parens and still evaluate identically.
func wrap(e Expr, min int) string {
	if e.prec() < min {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// Fields recognized as declared version attributes; any other
// identifier resolves as a metric name at evaluation time.
const (
	FieldVersion   = "version"
	FieldMessage   = "message"
	FieldAuthor    = "author"
	FieldCreatedAt = "created_at"
	FieldTags      = "tags"
	FieldContent   = "content"
)

// normalizeField folds field names to lower case; field matching is
// case-insensitive like the keywords.
func normalizeField(name string) string { return strings.ToLower(name) }
