// Package model defines core data structures for crateview.
package model

import (
	"strings"
)

// Anonymous is shown in place of an item path that could not be determined.
const Anonymous = "<anonymous>"

// Kind indicates the syntactic kind of an item.
type Kind uint8

const (
	Module Kind = iota
	Function
	Struct
	Union
	Enum
	Variant
	Const
	Static
	Trait
	TraitAlias
	TypeAlias
	BuiltinType
	Macro
)

var kindNames = [...]string{
	Module:      "mod",
	Function:    "fn",
	Struct:      "struct",
	Union:       "union",
	Enum:        "enum",
	Variant:     "variant",
	Const:       "const",
	Static:      "static",
	Trait:       "trait",
	TraitAlias:  "trait alias",
	TypeAlias:   "type",
	BuiltinType: "builtin",
	Macro:       "macro",
}

// String returns the keyword-like name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsAdt reports whether the kind is an algebraic data type that impls attach to.
func (k Kind) IsAdt() bool {
	return k == Struct || k == Enum || k == Union
}

// IsType reports whether the kind is selected by the "types" toggle.
func (k Kind) IsType() bool {
	switch k {
	case Struct, Union, Enum, Variant, TypeAlias, BuiltinType:
		return true
	}
	return false
}

// IsTrait reports whether the kind is selected by the "traits" toggle.
func (k Kind) IsTrait() bool {
	return k == Trait || k == TraitAlias
}

// Qualifiers holds the kind-specific flags of an item.
// CrateRoot applies to modules, Const/Async/Unsafe to functions
// and Unsafe to traits.
type Qualifiers struct {
	CrateRoot bool
	Const     bool
	Async     bool
	Unsafe    bool
}

// Attrs holds the attributes of an item that the views care about.
type Attrs struct {
	Cfgs []string // cfg predicates, as written inside #[cfg(...)]
	Test bool     // carries a #[test] marker

	// TestOnly is derived: the item is a test, is enabled only by cfg(test),
	// or is nested inside such an item.
	TestOnly bool
}

// IsEmpty reports whether there is nothing to print for the attributes.
func (a Attrs) IsEmpty() bool {
	return len(a.Cfgs) == 0 && !a.Test
}

// Strings returns the attributes in source notation.
func (a Attrs) Strings() []string {
	out := make([]string, 0, len(a.Cfgs)+1)
	for _, c := range a.Cfgs {
		out = append(out, "#[cfg("+c+")]")
	}
	if a.Test {
		out = append(out, "#[test]")
	}
	return out
}

// Item is one resolved item of a crate.
type Item struct {
	Kind       Kind
	Qualifiers Qualifiers
	Path       []string
	Visibility Visibility
	Attrs      Attrs
	FilePath   string // set only for file-backed modules
	Extern     bool   // defined in another crate
	Sysroot    bool   // defined in a crate of the standard distribution
}

// IsCrateRoot reports whether the item is the crate's root module.
func (it *Item) IsCrateRoot() bool {
	return it.Kind == Module && it.Qualifiers.CrateRoot
}

// IsFileModule reports whether the item is a module backed by its own file.
func (it *Item) IsFileModule() bool {
	return it.Kind == Module && it.FilePath != ""
}

// PathString joins the path with "::".
func (it *Item) PathString() string {
	if len(it.Path) == 0 {
		return Anonymous
	}
	return strings.Join(it.Path, "::")
}

// Name returns the last path segment.
func (it *Item) Name() string {
	if len(it.Path) == 0 {
		return Anonymous
	}
	return it.Path[len(it.Path)-1]
}

// KindString returns the display name of the item's kind, including qualifiers.
func (it *Item) KindString() string {
	switch it.Kind {
	case Module:
		if it.Qualifiers.CrateRoot {
			return "crate"
		}
	case Function:
		var b strings.Builder
		if it.Qualifiers.Const {
			b.WriteString("const ")
		}
		if it.Qualifiers.Async {
			b.WriteString("async ")
		}
		if it.Qualifiers.Unsafe {
			b.WriteString("unsafe ")
		}
		b.WriteString("fn")
		return b.String()
	case Trait:
		if it.Qualifiers.Unsafe {
			return "unsafe trait"
		}
	}
	return it.Kind.String()
}

// JoinPath joins path segments with "::".
func JoinPath(segments []string) string {
	return strings.Join(segments, "::")
}

// SplitPath splits a "::"-joined path. An empty string yields nil.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "::")
}

// NormalizeCrateName replaces hyphens with underscores.
func NormalizeCrateName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
