package focus

import (
	"fmt"
	"unicode"
)

type tokKind uint8

const (
	tokIdent tokKind = iota
	tokPathSep
	tokLBrace
	tokRBrace
	tokComma
	tokStar
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func tokenize(expr string) ([]token, error) {
	var toks []token
	runes := []rune(expr)
	offset := func(i int) int { return len(string(runes[:i])) }

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == ':':
			if i+1 >= len(runes) || runes[i+1] != ':' {
				return nil, &SyntaxError{Expr: expr, Offset: offset(i), Msg: "expected \"::\""}
			}
			toks = append(toks, token{kind: tokPathSep, text: "::", pos: offset(i)})
			i += 2
		case r == '{':
			toks = append(toks, token{kind: tokLBrace, text: "{", pos: offset(i)})
			i++
		case r == '}':
			toks = append(toks, token{kind: tokRBrace, text: "}", pos: offset(i)})
			i++
		case r == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: offset(i)})
			i++
		case r == '*':
			toks = append(toks, token{kind: tokStar, text: "*", pos: offset(i)})
			i++
		case isIdentRune(r):
			start := i
			for i < len(runes) && isIdentRune(runes[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[start:i]), pos: offset(start)})
		default:
			return nil, &SyntaxError{Expr: expr, Offset: offset(i), Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	return toks, nil
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type parser struct {
	expr string
	toks []token
	pos  int
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token {
	if p.done() {
		return token{kind: tokComma, text: "end of input", pos: len(p.expr)}
	}
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Expr: p.expr, Offset: p.peek().pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) tree(top bool) (*Tree, error) {
	if p.done() {
		return nil, p.errorf("expected path")
	}
	switch tok := p.peek(); {
	case tok.kind == tokStar:
		p.next()
		return &Tree{Tail: TailGlob}, nil
	case tok.kind == tokLBrace:
		group, err := p.group()
		if err != nil {
			return nil, err
		}
		return &Tree{Tail: TailGroup, Group: group}, nil
	case tok.kind == tokIdent && tok.text == "self" && !top:
		p.next()
		return &Tree{Tail: TailSelf}, nil
	case tok.kind != tokIdent:
		return nil, p.errorf("expected path, found %q", tok.text)
	}

	t := &Tree{}
	if err := p.segment(t); err != nil {
		return nil, err
	}
	for !p.done() && p.peek().kind == tokPathSep {
		p.next()
		switch tok := p.peek(); {
		case tok.kind == tokStar:
			p.next()
			t.Tail = TailGlob
			return t, nil
		case tok.kind == tokLBrace:
			group, err := p.group()
			if err != nil {
				return nil, err
			}
			t.Tail = TailGroup
			t.Group = group
			return t, nil
		case tok.kind == tokIdent && tok.text == "self":
			p.next()
			t.Tail = TailSelf
			return t, nil
		case tok.kind == tokIdent:
			if err := p.segment(t); err != nil {
				return nil, err
			}
		default:
			return nil, p.errorf("expected path segment, found %q", tok.text)
		}
	}
	return t, nil
}

func (p *parser) segment(t *Tree) error {
	tok := p.next()
	switch tok.text {
	case "super", "self", "crate", "$crate":
		return &RejectedFocusError{Expr: p.expr, Keyword: tok.text}
	}
	t.Prefix = append(t.Prefix, tok.text)
	return nil
}

func (p *parser) group() ([]Tree, error) {
	p.next() // '{'
	var group []Tree
	for {
		if p.done() {
			return nil, p.errorf("unclosed \"{\"")
		}
		if p.peek().kind == tokRBrace {
			p.next()
			return group, nil
		}
		sub, err := p.tree(false)
		if err != nil {
			return nil, err
		}
		group = append(group, *sub)

		switch p.peek().kind {
		case tokComma:
			if p.done() {
				return nil, p.errorf("unclosed \"{\"")
			}
			p.next()
		case tokRBrace:
		default:
			return nil, p.errorf("expected \",\" or \"}\", found %q", p.peek().text)
		}
	}
}
