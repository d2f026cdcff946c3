// Package cfg parses and evaluates conditional compilation predicates such as
// all(unix, feature = "serde") against a feature set and a target.
package cfg

import (
	"fmt"
	"strings"
	"unicode"
)

// Expr is a parsed cfg predicate.
type Expr interface {
	Eval(env *Env) bool
	String() string
}

// Option is a bare predicate (`unix`) or a key-value pair (`feature = "x"`).
type Option struct {
	Key   string
	Value string
	Pair  bool
}

// Eval reports whether the option is set in env.
func (o Option) Eval(env *Env) bool {
	if o.Pair {
		return env.hasPair(o.Key, o.Value)
	}
	return env.hasFlag(o.Key)
}

func (o Option) String() string {
	if o.Pair {
		return fmt.Sprintf("%s = %q", o.Key, o.Value)
	}
	return o.Key
}

// All is all(...); it is true when empty.
type All []Expr

func (a All) Eval(env *Env) bool {
	for _, e := range a {
		if !e.Eval(env) {
			return false
		}
	}
	return true
}

func (a All) String() string { return "all(" + join(a) + ")" }

// Any is any(...); it is false when empty.
type Any []Expr

func (a Any) Eval(env *Env) bool {
	for _, e := range a {
		if e.Eval(env) {
			return true
		}
	}
	return false
}

func (a Any) String() string { return "any(" + join(a) + ")" }

// Not is not(...).
type Not struct{ Expr Expr }

func (n Not) Eval(env *Env) bool { return !n.Expr.Eval(env) }

func (n Not) String() string { return "not(" + n.Expr.String() + ")" }

func join(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// SyntaxError reports a malformed cfg predicate.
type SyntaxError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid cfg %q at offset %d: %s", e.Input, e.Offset, e.Msg)
}

// Parse parses the text inside cfg( ).
func Parse(input string) (Expr, error) {
	p := &parser{input: input}
	p.skipSpace()
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, p.errorf("unexpected %q", p.input[p.pos:])
	}
	return e, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Input: p.input, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *parser) consume(b byte) bool {
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || p.pos > start && c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *parser) str() (string, error) {
	if !p.consume('"') {
		return "", p.errorf("expected string literal")
	}
	end := strings.IndexByte(p.input[p.pos:], '"')
	if end < 0 {
		return "", p.errorf("unterminated string literal")
	}
	s := p.input[p.pos : p.pos+end]
	p.pos += end + 1
	return s, nil
}

func (p *parser) expr() (Expr, error) {
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected predicate")
	}

	if p.consume('=') {
		v, err := p.str()
		if err != nil {
			return nil, err
		}
		return Option{Key: name, Value: v, Pair: true}, nil
	}

	if !p.consume('(') {
		return Option{Key: name}, nil
	}

	var list []Expr
	for !p.consume(')') {
		if p.pos >= len(p.input) {
			return nil, p.errorf("unclosed %q", name+"(")
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if !p.consume(',') {
			if !p.consume(')') {
				return nil, p.errorf("expected \",\" or \")\"")
			}
			break
		}
	}

	switch name {
	case "all":
		return All(list), nil
	case "any":
		return Any(list), nil
	case "not":
		if len(list) != 1 {
			return nil, p.errorf("not() takes exactly one predicate")
		}
		return Not{Expr: list[0]}, nil
	}
	return nil, p.errorf("unknown operator %q", name)
}
