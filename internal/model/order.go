package model

import (
	"cmp"
	"slices"
)

// kindRank gives the total display order of kinds.
var kindRank = [...]int{
	Module:      0,
	Trait:       1,
	TraitAlias:  1,
	TypeAlias:   2,
	Struct:      3,
	Enum:        4,
	Variant:     5,
	Union:       6,
	BuiltinType: 7,
	Function:    8,
	Const:       9,
	Static:      10,
	Macro:       11,
}

// CompareKind orders items by kind: Module < Trait/TraitAlias < TypeAlias <
// Struct < Enum < Variant < Union < BuiltinType < Function < Const < Static < Macro.
// Modules put the crate root first; functions prefer const, then async, then
// unsafe; traits prefer safe ones.
func CompareKind(a, b *Item) int {
	ra, rb := kindRank[a.Kind], kindRank[b.Kind]
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	if a.Kind != b.Kind {
		// Trait and TraitAlias share a rank.
		return cmp.Compare(int(a.Kind), int(b.Kind))
	}
	switch a.Kind {
	case Module:
		return preferTrue(a.Qualifiers.CrateRoot, b.Qualifiers.CrateRoot)
	case Function:
		if c := preferTrue(a.Qualifiers.Const, b.Qualifiers.Const); c != 0 {
			return c
		}
		if c := preferTrue(a.Qualifiers.Async, b.Qualifiers.Async); c != 0 {
			return c
		}
		return preferTrue(a.Qualifiers.Unsafe, b.Qualifiers.Unsafe)
	case Trait:
		return preferTrue(!a.Qualifiers.Unsafe, !b.Qualifiers.Unsafe)
	}
	return 0
}

// CompareName orders items by their last path segment.
func CompareName(a, b *Item) int {
	return cmp.Compare(a.Name(), b.Name())
}

// ComparePath orders items by their full path, segment-wise.
func ComparePath(a, b *Item) int {
	return slices.Compare(a.Path, b.Path)
}

func preferTrue(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}
