package query

import (
	"strings"
	"unicode"

	"github.com/itisrmk/pit/pkg/core"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokOp     // > < >= <= = !=
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokNot
	tokContains
)

type token struct {
	kind tokenKind
	text string
	pos  int // byte offset in the input
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return t.text
}

// lexer produces tokens from a query string. Keywords are recognized
// case-insensitively; everything else is case-preserving.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer { return &lexer{input: input} }

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case c == '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case c == '\'' || c == '"':
		return l.lexString(c)
	case c == '>' || c == '<':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
		}
		return token{kind: tokOp, text: l.input[start:l.pos], pos: start}, nil
	case c == '=':
		l.pos++
		return token{kind: tokOp, text: "=", pos: start}, nil
	case c == '!':
		l.pos++
		if l.pos >= len(l.input) || l.input[l.pos] != '=' {
			return token{}, &core.SyntaxError{Token: "!", Pos: start, Msg: "expected != operator"}
		}
		l.pos++
		return token{kind: tokOp, text: "!=", pos: start}, nil
	case c == '-' || (c >= '0' && c <= '9'):
		return l.lexNumber()
	case isIdentStart(c):
		return l.lexIdent()
	default:
		return token{}, &core.SyntaxError{Token: string(c), Pos: start, Msg: "unexpected character"}
	}
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.input) && l.input[l.pos] != quote {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{}, &core.SyntaxError{Token: l.input[start:], Pos: start, Msg: "unterminated string"}
	}
	text := l.input[start+1 : l.pos]
	l.pos++ // closing quote
	return token{kind: tokString, text: text, pos: start}, nil
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	digits := 0
	for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
		l.pos++
		digits++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
			l.pos++
			digits++
		}
	}
	if digits == 0 {
		return token{}, &core.SyntaxError{Token: l.input[start:l.pos], Pos: start, Msg: "malformed number"}
	}
	return token{kind: tokNumber, text: l.input[start:l.pos], pos: start}, nil
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	text := l.input[start:l.pos]

	switch strings.ToUpper(text) {
	case "AND":
		return token{kind: tokAnd, text: text, pos: start}, nil
	case "OR":
		return token{kind: tokOr, text: text, pos: start}, nil
	case "NOT":
		return token{kind: tokNot, text: text, pos: start}, nil
	case "CONTAINS":
		return token{kind: tokContains, text: text, pos: start}, nil
	}
	return token{kind: tokIdent, text: text, pos: start}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// tokenize is a test helper that drains the lexer.
func tokenize(input string) ([]token, error) {
	l := newLexer(input)
	var out []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if t.kind == tokEOF {
			return out, nil
		}
	}
}
