package parse

import (
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// useTree flattens a use tree into its leaves.
func (e *extractor) useTree(node *sitter.Node, prefix []string) []UsePath {
	switch node.Type() {
	case "use_list":
		var out []UsePath
		for i := 0; i < int(node.NamedChildCount()); i++ {
			out = append(out, e.useTree(node.NamedChild(i), prefix)...)
		}
		return out

	case "scoped_use_list":
		next := prefix
		if path := node.ChildByFieldName("path"); path != nil {
			segs, ok := e.scopedPath(path)
			if !ok {
				return nil
			}
			next = concat(prefix, segs)
		}
		if list := node.ChildByFieldName("list"); list != nil {
			return e.useTree(list, next)
		}
		return nil

	case "use_as_clause":
		path := node.ChildByFieldName("path")
		alias := node.ChildByFieldName("alias")
		if path == nil {
			return nil
		}
		leaves := e.useTree(path, prefix)
		if alias != nil && len(leaves) == 1 {
			leaves[0].Alias = e.text(alias)
		}
		return leaves

	case "use_wildcard":
		segs := prefix
		for i := 0; i < int(node.NamedChildCount()); i++ {
			p, ok := e.scopedPath(node.NamedChild(i))
			if !ok {
				return nil
			}
			segs = concat(prefix, p)
		}
		return []UsePath{{Segments: segs, Glob: true}}

	case "self":
		// `use a::{self}` imports the module a itself.
		if len(prefix) > 0 {
			return []UsePath{{Segments: slices.Clone(prefix)}}
		}
		return []UsePath{{Segments: []string{"self"}}}
	}

	segs, ok := e.scopedPath(node)
	if !ok || len(segs) == 0 {
		return nil
	}
	return []UsePath{{Segments: concat(prefix, segs)}}
}

// scopedPath returns the segments of a path expression. Qualified paths
// such as <T as Trait>::f cannot be resolved syntactically and report false.
func (e *extractor) scopedPath(node *sitter.Node) ([]string, bool) {
	switch node.Type() {
	case "identifier", "type_identifier", "field_identifier", "primitive_type",
		"crate", "self", "super", "metavariable":
		return []string{e.text(node)}, true

	case "scoped_identifier", "scoped_type_identifier":
		var segs []string
		if path := node.ChildByFieldName("path"); path != nil {
			p, ok := e.scopedPath(path)
			if !ok {
				return nil, false
			}
			segs = p
		}
		name := node.ChildByFieldName("name")
		if name == nil {
			return nil, false
		}
		return append(segs, e.text(name)), true

	case "generic_type", "generic_type_with_turbofish":
		if t := node.ChildByFieldName("type"); t != nil {
			return e.scopedPath(t)
		}
	}
	return nil, false
}

// typePath returns the path of the type named in an impl header, with
// generic arguments and references stripped.
func (e *extractor) typePath(node *sitter.Node) []string {
	switch node.Type() {
	case "reference_type", "pointer_type":
		if t := node.ChildByFieldName("type"); t != nil {
			return e.typePath(t)
		}
		return nil
	}
	segs, ok := e.scopedPath(node)
	if !ok {
		return nil
	}
	return segs
}

// reference converts a query capture into a Ref, reporting false for captures
// that are part of a larger path, a definition name or an attribute.
func (e *extractor) reference(capture string, node *sitter.Node) (Ref, bool) {
	if skipReference(node) {
		return Ref{}, false
	}

	var kind RefKind
	switch capture {
	case "reference.path":
		kind = RefPath
	case "reference.type":
		kind = RefType
	case "reference.call":
		kind = RefCall
	case "reference.macro":
		kind = RefMacro
	default:
		return Ref{}, false
	}

	segs, ok := e.scopedPath(node)
	if !ok || len(segs) == 0 {
		return Ref{}, false
	}
	return Ref{Segments: segs, Kind: kind, Line: int(node.StartPoint().Row) + 1}, true
}

// nameParents are node types whose "name" child is a definition, not a use.
var nameParents = map[string]bool{
	"struct_item":             true,
	"enum_item":               true,
	"union_item":              true,
	"trait_item":              true,
	"type_item":               true,
	"associated_type":         true,
	"mod_item":                true,
	"function_item":           true,
	"function_signature_item": true,
	"const_item":              true,
	"static_item":             true,
	"macro_definition":        true,
	"enum_variant":            true,
}

func skipReference(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}

	switch parent.Type() {
	case "scoped_identifier", "scoped_type_identifier", "scoped_use_list",
		"use_as_clause", "use_list", "use_wildcard",
		"type_parameters", "type_parameter", "lifetime":
		return true
	case "constrained_type_parameter", "optional_type_parameter":
		if left := parent.ChildByFieldName("left"); left != nil && sameNode(left, node) {
			return true
		}
		if name := parent.ChildByFieldName("name"); name != nil && sameNode(name, node) {
			return true
		}
	}
	if nameParents[parent.Type()] {
		if name := parent.ChildByFieldName("name"); name != nil && sameNode(name, node) {
			return true
		}
	}

	for n := parent; n != nil; n = n.Parent() {
		switch n.Type() {
		case "use_declaration", "attribute_item", "inner_attribute_item", "macro_definition":
			return true
		}
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// String renders the path as written.
func (r Ref) String() string {
	return strings.Join(r.Segments, "::")
}
