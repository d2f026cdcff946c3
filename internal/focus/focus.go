// Package focus parses use-tree shaped focus expressions and matches item
// paths against them.
//
// A focus expression looks like the argument of a `use` declaration:
//
//	crate::a
//	crate::a::*
//	crate::{a::b, a::c::*}
//	crate::a::{self, b}
package focus

import (
	"fmt"
	"strings"

	"github.com/phobologic/crateview/internal/model"
)

// Tail is what follows the path prefix of a Tree.
type Tail uint8

const (
	TailNone  Tail = iota // plain path
	TailGlob              // prefix::*
	TailGroup             // prefix::{...}
	TailSelf              // prefix::self, or bare `self` inside a group
)

// Tree is a parsed focus expression.
type Tree struct {
	Prefix []string
	Tail   Tail
	Group  []Tree
}

// RejectedFocusError is returned for expressions that start with a relative
// keyword, which has no meaning outside of a module.
type RejectedFocusError struct {
	Expr    string
	Keyword string
}

func (e *RejectedFocusError) Error() string {
	return fmt.Sprintf("focus %q: relative path keyword %q is not supported, use an absolute path", e.Expr, e.Keyword)
}

// SyntaxError is returned for malformed expressions.
type SyntaxError struct {
	Expr   string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("focus %q: %s at offset %d", e.Expr, e.Msg, e.Offset)
}

// Parse parses expr. A leading `::` is dropped and a leading `crate` is
// replaced by crateName.
func Parse(expr, crateName string) (*Tree, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	if len(toks) > 0 && toks[0].kind == tokPathSep {
		toks = toks[1:]
	}
	if len(toks) == 0 {
		return nil, &SyntaxError{Expr: expr, Offset: len(expr), Msg: "empty expression"}
	}
	if toks[0].kind == tokIdent {
		switch toks[0].text {
		case "crate":
			toks[0].text = crateName
		case "super", "self", "$crate":
			return nil, &RejectedFocusError{Expr: expr, Keyword: toks[0].text}
		}
	}

	p := &parser{expr: expr, toks: toks}
	t, err := p.tree(true)
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return t, nil
}

// Matches reports whether the "::"-joined itemPath belongs to the focus set.
func (t *Tree) Matches(itemPath string) bool {
	if itemPath == "" {
		return false
	}
	return t.MatchesSegments(model.SplitPath(itemPath))
}

// MatchesSegments is Matches for an already split path.
func (t *Tree) MatchesSegments(path []string) bool {
	if len(path) == 0 {
		return false
	}
	return t.match(path)
}

func (t *Tree) match(path []string) bool {
	if len(path) < len(t.Prefix) {
		return false
	}
	for i, seg := range t.Prefix {
		if path[i] != seg {
			return false
		}
	}
	suffix := path[len(t.Prefix):]

	if len(suffix) == 0 {
		switch t.Tail {
		case TailNone, TailSelf:
			return true
		case TailGroup:
			for i := range t.Group {
				if t.Group[i].isBareSelf() {
					return true
				}
			}
		}
		return false
	}

	switch t.Tail {
	case TailGlob:
		return len(suffix) == 1
	case TailGroup:
		for i := range t.Group {
			if t.Group[i].match(suffix) {
				return true
			}
		}
	}
	return false
}

func (t *Tree) isBareSelf() bool {
	return t.Tail == TailSelf && len(t.Prefix) == 0
}

// String renders the tree back in use-tree notation.
func (t *Tree) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Tree) write(b *strings.Builder) {
	b.WriteString(strings.Join(t.Prefix, "::"))
	sep := func() {
		if len(t.Prefix) > 0 {
			b.WriteString("::")
		}
	}
	switch t.Tail {
	case TailGlob:
		sep()
		b.WriteString("*")
	case TailSelf:
		sep()
		b.WriteString("self")
	case TailGroup:
		sep()
		b.WriteString("{")
		for i := range t.Group {
			if i > 0 {
				b.WriteString(", ")
			}
			t.Group[i].write(b)
		}
		b.WriteString("}")
	}
}
