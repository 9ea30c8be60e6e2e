package query

import (
	"strconv"

	"github.com/itisrmk/pit/pkg/core"
)

// Parse turns a query string into an expression tree. The grammar:
//
//	expr       := and ("OR" and)*
//	and        := unary ("AND" unary)*
//	unary      := "NOT" unary | primary
//	primary    := "(" expr ")" | comparison
//	comparison := field op value
//	op         := ">" | "<" | ">=" | "<=" | "=" | "!=" | "contains"
//	value      := quoted string | number | bare identifier
//
// Keywords are case-insensitive. Failures return *core.SyntaxError.
func Parse(input string) (Expr, error) {
	p := &parser{lex: newLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, p.errorf("expected AND, OR or end of query")
	}
	return expr, nil
}

type parser struct {
	lex *lexer
	cur token
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) errorf(msg string) error {
	return &core.SyntaxError{Token: p.cur.String(), Pos: p.cur.pos, Msg: msg}
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &And{L: left, R: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur.kind == tokNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur.kind {
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, p.errorf("expected closing parenthesis")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr, nil
	case tokIdent:
		return p.parseComparison()
	default:
		return nil, p.errorf("expected field name or parenthesized expression")
	}
}

func (p *parser) parseComparison() (Expr, error) {
	field := normalizeField(p.cur.text)
	if err := p.advance(); err != nil {
		return nil, err
	}

	var op Op
	switch p.cur.kind {
	case tokOp:
		op = Op(p.cur.text)
	case tokContains:
		op = OpContains
	default:
		return nil, p.errorf("expected comparison operator")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	val, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &Comparison{Field: field, Op: op, Value: val}, nil
}

func (p *parser) parseValue() (Value, error) {
	var val Value
	switch p.cur.kind {
	case tokString:
		val = Value{Kind: ValueString, Str: p.cur.text}
	case tokNumber:
		n, err := strconv.ParseFloat(p.cur.text, 64)
		if err != nil {
			return Value{}, p.errorf("malformed number")
		}
		val = Value{Kind: ValueNumber, Num: n}
	case tokIdent:
		val = Value{Kind: ValueIdent, Str: p.cur.text}
	default:
		return Value{}, p.errorf("expected value")
	}
	if err := p.advance(); err != nil {
		return Value{}, err
	}
	return val, nil
}
