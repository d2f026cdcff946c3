package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/crateview/internal/lang"
	"github.com/phobologic/crateview/internal/model"
)

// attribute parses an attribute item from its text. The grammar's internal
// shape for attributes varies between versions; the text form does not.
func (e *extractor) attribute(node *sitter.Node, open string) (Attr, bool) {
	text := strings.TrimSpace(e.text(node))
	if !strings.HasPrefix(text, open) || !strings.HasSuffix(text, "]") {
		return Attr{}, false
	}
	return ParseAttr(text[len(open) : len(text)-1])
}

// ParseAttr parses the content of an attribute, without the surrounding #[ ].
func ParseAttr(content string) (Attr, bool) {
	content = lang.CollapseWhitespace(content)
	if content == "" {
		return Attr{}, false
	}

	end := strings.IndexAny(content, "(=")
	if end < 0 {
		return Attr{Name: strings.TrimSpace(content)}, true
	}

	a := Attr{Name: strings.TrimSpace(content[:end])}
	rest := strings.TrimSpace(content[end:])
	if rest[0] == '=' {
		a.Value = unquote(strings.TrimSpace(rest[1:]))
		return a, true
	}
	if close := strings.LastIndexByte(rest, ')'); close > 0 {
		a.Args = strings.TrimSpace(rest[1:close])
	}
	return a, true
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// visibility reads the visibility_modifier child of a declaration.
func (e *extractor) visibility(node *sitter.Node) Vis {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "visibility_modifier" {
			return ParseVis(e.text(child))
		}
	}
	return Vis{Kind: model.Private}
}

// ParseVis parses the text of a visibility modifier.
func ParseVis(text string) Vis {
	s := strings.Join(strings.Fields(text), "")
	switch s {
	case "pub":
		return Vis{Kind: model.Public}
	case "pub(crate)", "crate":
		return Vis{Kind: model.Crate}
	case "pub(super)":
		return Vis{Kind: model.Super}
	case "pub(self)", "":
		return Vis{Kind: model.Private}
	}
	if strings.HasPrefix(s, "pub(in") && strings.HasSuffix(s, ")") {
		path := strings.TrimPrefix(s[len("pub(in"):len(s)-1], "::")
		return Vis{Kind: model.InModule, Path: strings.Split(path, "::")}
	}
	return Vis{Kind: model.Public}
}
