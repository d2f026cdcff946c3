// Package lang wraps the tree-sitter Rust grammar and the embedded query that
// captures name references inside item bodies.
package lang

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// SourceExt is the file extension of Rust source files.
const SourceExt = ".rs"

//go:embed queries/rust.scm
var rustReferences []byte

// Grammar is a tree-sitter language and its reference query. The query is
// compiled on first use and shared; parsers are not.
type Grammar struct {
	name  string
	lang  *sitter.Language
	refs  []byte
	once  sync.Once
	query *sitter.Query
	err   error
}

// Rust is the grammar of every file crateview reads.
var Rust = &Grammar{name: "rust", lang: rust.GetLanguage(), refs: rustReferences}

// Language returns the tree-sitter language.
func (g *Grammar) Language() *sitter.Language { return g.lang }

// NewParser returns a parser for the grammar. A parser must not be shared
// between goroutines.
func (g *Grammar) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(g.lang)
	return p
}

// ReferenceQuery returns the compiled reference query.
func (g *Grammar) ReferenceQuery() (*sitter.Query, error) {
	g.once.Do(func() {
		q, err := sitter.NewQuery(g.refs, g.lang)
		if err != nil {
			g.err = fmt.Errorf("compiling %s reference query: %w", g.name, err)
			return
		}
		g.query = q
	})
	return g.query, g.err
}

// IsSourceFile reports whether name has the Rust source extension.
func IsSourceFile(name string) bool {
	return strings.HasSuffix(name, SourceExt)
}

// NodeText returns the source text of a node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
