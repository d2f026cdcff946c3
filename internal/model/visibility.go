package model

import (
	"slices"
	"strings"
)

// VisibilityKind is the scope class of a visibility.
type VisibilityKind uint8

const (
	Public VisibilityKind = iota
	Crate
	InModule
	Super
	Private
)

// Visibility describes who can see an item. Path is only set for InModule and
// holds the absolute path of the module whose members can see the item.
type Visibility struct {
	Kind VisibilityKind
	Path []string
}

// Shorthand constructors.
var (
	VisPublic  = Visibility{Kind: Public}
	VisCrate   = Visibility{Kind: Crate}
	VisSuper   = Visibility{Kind: Super}
	VisPrivate = Visibility{Kind: Private}
)

// VisModule returns a pub(in path) visibility.
func VisModule(path []string) Visibility {
	return Visibility{Kind: InModule, Path: slices.Clone(path)}
}

// String renders the visibility in source notation.
func (v Visibility) String() string {
	switch v.Kind {
	case Public:
		return "pub"
	case Crate:
		return "pub(crate)"
	case InModule:
		return "pub(in " + strings.Join(v.Path, "::") + ")"
	case Super:
		return "pub(super)"
	default:
		return "pub(self)"
	}
}

// CompareVisibility orders visibilities from widest to narrowest:
// Public < Crate < InModule < Super < Private. InModule ties compare paths.
func CompareVisibility(a, b Visibility) int {
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	if a.Kind == InModule {
		return slices.Compare(a.Path, b.Path)
	}
	return 0
}
