// Package parse extracts declarations and name references from Rust source
// files using tree-sitter.
package parse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/crateview/internal/lang"
	"github.com/phobologic/crateview/internal/model"
)

// DeclKind is the syntactic kind of a declaration.
type DeclKind uint8

const (
	DeclMod DeclKind = iota
	DeclFn
	DeclStruct
	DeclUnion
	DeclEnum
	DeclTrait
	DeclTypeAlias
	DeclConst
	DeclStatic
	DeclMacro
	DeclImpl
	DeclUse
	DeclExternCrate
)

// ItemKind maps a declaration kind to the item kind it produces. Impls, uses
// and extern crates produce no item.
func (k DeclKind) ItemKind() (model.Kind, bool) {
	switch k {
	case DeclMod:
		return model.Module, true
	case DeclFn:
		return model.Function, true
	case DeclStruct:
		return model.Struct, true
	case DeclUnion:
		return model.Union, true
	case DeclEnum:
		return model.Enum, true
	case DeclTrait:
		return model.Trait, true
	case DeclTypeAlias:
		return model.TypeAlias, true
	case DeclConst:
		return model.Const, true
	case DeclStatic:
		return model.Static, true
	case DeclMacro:
		return model.Macro, true
	}
	return 0, false
}

// Attr is one outer or inner attribute, e.g. #[cfg(test)] or #[path = "x.rs"].
type Attr struct {
	Name  string // "cfg", "path", "test", ...
	Args  string // text inside the parentheses, whitespace collapsed
	Value string // unquoted value of `name = "value"`
}

// Vis is a visibility as written. Path is only set for pub(in path) and is
// not yet resolved against the declaring module.
type Vis struct {
	Kind model.VisibilityKind
	Path []string
}

// UsePath is one leaf of a flattened use tree.
type UsePath struct {
	Segments []string
	Alias    string // `as` alias, "_" for anonymous imports
	Glob     bool
}

// Name returns the name the import binds in its module.
func (u UsePath) Name() string {
	if u.Alias != "" {
		return u.Alias
	}
	if len(u.Segments) == 0 {
		return ""
	}
	return u.Segments[len(u.Segments)-1]
}

// RefKind tells which syntax a reference came from.
type RefKind uint8

const (
	RefPath RefKind = iota
	RefType
	RefCall
	RefMacro
)

// Ref is a name reference found inside a declaration.
type Ref struct {
	Segments []string
	Kind     RefKind
	Line     int
}

// Decl is one declaration of a module, impl block or inline module body.
type Decl struct {
	Kind       DeclKind
	Name       string
	Vis        Vis
	Attrs      []Attr
	Qualifiers model.Qualifiers
	Line       int

	// Modules.
	Inline     bool
	InnerAttrs []Attr
	Body       []*Decl

	// Impl blocks.
	SelfType []string
	Trait    []string
	Members  []*Decl

	// Use declarations and extern crates.
	Uses  []UsePath
	Alias string

	Refs []Ref
}

// File is the extracted content of one source file.
type File struct {
	Path       string
	InnerAttrs []Attr
	Decls      []*Decl
	Refs       []Ref // references outside of any declaration, e.g. item-level macro calls
}

type nodeKey struct {
	start, end uint32
	typ        string
}

type extractor struct {
	source []byte
	decls  map[nodeKey]*Decl
}

// ExtractFile parses a source file and returns its declarations.
// The parser must be created for Rust; the query must be the Rust reference query.
// filePath is used only for File.Path.
func ExtractFile(parser *sitter.Parser, query *sitter.Query, source []byte, filePath string) (*File, error) {
	f := &File{Path: filePath}
	if len(source) == 0 {
		return f, nil
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer tree.Close()

	e := &extractor{source: source, decls: make(map[nodeKey]*Decl)}
	root := tree.RootNode()
	f.Decls, f.InnerAttrs = e.declarations(root)

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)
		for _, c := range match.Captures {
			ref, ok := e.reference(query.CaptureNameForId(c.Index), c.Node)
			if !ok {
				continue
			}
			if d := e.owner(c.Node); d != nil {
				d.Refs = append(d.Refs, ref)
			} else {
				f.Refs = append(f.Refs, ref)
			}
		}
	}

	return f, nil
}

func (e *extractor) text(node *sitter.Node) string {
	return lang.NodeText(node, e.source)
}

func (e *extractor) remember(node *sitter.Node, d *Decl) {
	e.decls[nodeKey{node.StartByte(), node.EndByte(), node.Type()}] = d
}

// owner returns the innermost declaration containing node.
func (e *extractor) owner(node *sitter.Node) *Decl {
	for n := node.Parent(); n != nil; n = n.Parent() {
		if d, ok := e.decls[nodeKey{n.StartByte(), n.EndByte(), n.Type()}]; ok {
			return d
		}
	}
	return nil
}

// declarations walks the children of a source_file or declaration_list.
func (e *extractor) declarations(list *sitter.Node) ([]*Decl, []Attr) {
	var (
		decls   []*Decl
		inner   []Attr
		pending []Attr
	)

	for i := 0; i < int(list.NamedChildCount()); i++ {
		child := list.NamedChild(i)
		switch child.Type() {
		case "attribute_item":
			if a, ok := e.attribute(child, "#["); ok {
				pending = append(pending, a)
			}
			continue
		case "inner_attribute_item":
			if a, ok := e.attribute(child, "#!["); ok {
				inner = append(inner, a)
			}
			continue
		case "line_comment", "block_comment":
			continue
		case "foreign_mod_item":
			if body := child.ChildByFieldName("body"); body != nil {
				items, _ := e.declarations(body)
				for _, d := range items {
					if d.Kind == DeclFn {
						d.Qualifiers.Unsafe = true
					}
					d.Attrs = append(append([]Attr(nil), pending...), d.Attrs...)
				}
				decls = append(decls, items...)
			}
		default:
			if d := e.declaration(child); d != nil {
				d.Attrs = pending
				decls = append(decls, d)
			}
		}
		pending = nil
	}
	return decls, inner
}

func (e *extractor) declaration(node *sitter.Node) *Decl {
	d := &Decl{Line: int(node.StartPoint().Row) + 1}

	switch node.Type() {
	case "mod_item":
		d.Kind = DeclMod
		if body := node.ChildByFieldName("body"); body != nil {
			d.Inline = true
			d.Body, d.InnerAttrs = e.declarations(body)
		}
	case "function_item", "function_signature_item":
		d.Kind = DeclFn
		d.Qualifiers = e.functionQualifiers(node)
	case "struct_item":
		d.Kind = DeclStruct
	case "union_item":
		d.Kind = DeclUnion
	case "enum_item":
		d.Kind = DeclEnum
	case "trait_item":
		d.Kind = DeclTrait
		d.Qualifiers.Unsafe = hasChildType(node, "unsafe")
	case "type_item":
		d.Kind = DeclTypeAlias
	case "const_item":
		d.Kind = DeclConst
	case "static_item":
		d.Kind = DeclStatic
	case "macro_definition":
		d.Kind = DeclMacro
	case "impl_item":
		d.Kind = DeclImpl
		if t := node.ChildByFieldName("type"); t != nil {
			d.SelfType = e.typePath(t)
		}
		if t := node.ChildByFieldName("trait"); t != nil {
			d.Trait = e.typePath(t)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			members, _ := e.declarations(body)
			for _, m := range members {
				switch m.Kind {
				case DeclFn, DeclConst, DeclTypeAlias:
					d.Members = append(d.Members, m)
				}
			}
		}
	case "use_declaration":
		d.Kind = DeclUse
		if arg := node.ChildByFieldName("argument"); arg != nil {
			d.Uses = e.useTree(arg, nil)
		}
	case "extern_crate_declaration":
		d.Kind = DeclExternCrate
		if alias := node.ChildByFieldName("alias"); alias != nil {
			d.Alias = e.text(alias)
		}
	default:
		return nil
	}

	if name := node.ChildByFieldName("name"); name != nil {
		d.Name = e.text(name)
	}
	d.Vis = e.visibility(node)
	e.remember(node, d)
	return d
}

func (e *extractor) functionQualifiers(node *sitter.Node) model.Qualifiers {
	var q model.Qualifiers
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "function_modifiers" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			switch child.Child(j).Type() {
			case "const":
				q.Const = true
			case "async":
				q.Async = true
			case "unsafe":
				q.Unsafe = true
			}
		}
	}
	return q
}

func hasChildType(node *sitter.Node, typ string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == typ {
			return true
		}
	}
	return false
}
