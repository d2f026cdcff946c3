// Package crate defines the resolved item model that the views consume.
//
// A Crate is a read-only capability set over one analyzed crate: its module
// tree, impl blocks, attributes, visibilities, canonical paths and resolved
// references. Snapshot is the in-memory implementation produced by the
// analyzer and by Builder in tests.
package crate

import (
	"slices"

	"github.com/phobologic/crateview/internal/model"
)

// ItemID identifies an item within one snapshot.
type ItemID int

// NoItem is the zero value for "no such item".
const NoItem ItemID = -1

// Impl is one inherent or trait impl block of an Adt.
type Impl struct {
	Trait   string   // trait path as written, "" for inherent impls
	Members []ItemID // associated functions, consts and type aliases
}

// Crate is the capability set the views need from an analyzer.
type Crate interface {
	// Name returns the normalized crate name.
	Name() string
	// Root returns the crate-root module.
	Root() ItemID
	// Items returns every item, crate-local and extern, in creation order.
	Items() []ItemID
	// Item returns the full item description.
	Item(id ItemID) *model.Item
	// Declarations returns the items declared directly in a module.
	Declarations(module ItemID) []ItemID
	// ImplsFor returns the impl blocks whose self type is adt.
	ImplsFor(adt ItemID) []Impl
	// Attrs returns the attributes of an item.
	Attrs(id ItemID) model.Attrs
	// Visibility returns the visibility of an item.
	Visibility(id ItemID) model.Visibility
	// CanonicalPath returns the item path, or false if it has none.
	CanonicalPath(id ItemID) ([]string, bool)
	// References returns the items an item refers to by name.
	References(id ItemID) []ItemID
	// DeclaredSubmodules returns the names of all `mod` declarations of a
	// module, including ones disabled by cfg.
	DeclaredSubmodules(module ItemID) []string
}

// Snapshot is an immutable in-memory Crate.
type Snapshot struct {
	name         string
	root         ItemID
	items        []model.Item
	declarations map[ItemID][]ItemID
	impls        map[ItemID][]Impl
	references   map[ItemID][]ItemID
	declaredMods map[ItemID][]string
}

var _ Crate = (*Snapshot)(nil)

// Name implements Crate.
func (s *Snapshot) Name() string { return s.name }

// Root implements Crate.
func (s *Snapshot) Root() ItemID { return s.root }

// Items implements Crate.
func (s *Snapshot) Items() []ItemID {
	ids := make([]ItemID, len(s.items))
	for i := range s.items {
		ids[i] = ItemID(i)
	}
	return ids
}

// Len returns the number of items.
func (s *Snapshot) Len() int { return len(s.items) }

// Item implements Crate.
func (s *Snapshot) Item(id ItemID) *model.Item {
	if id < 0 || int(id) >= len(s.items) {
		return nil
	}
	return &s.items[id]
}

// Declarations implements Crate.
func (s *Snapshot) Declarations(module ItemID) []ItemID {
	return s.declarations[module]
}

// ImplsFor implements Crate.
func (s *Snapshot) ImplsFor(adt ItemID) []Impl {
	return s.impls[adt]
}

// Attrs implements Crate.
func (s *Snapshot) Attrs(id ItemID) model.Attrs {
	if it := s.Item(id); it != nil {
		return it.Attrs
	}
	return model.Attrs{}
}

// Visibility implements Crate.
func (s *Snapshot) Visibility(id ItemID) model.Visibility {
	if it := s.Item(id); it != nil {
		return it.Visibility
	}
	return model.VisPrivate
}

// CanonicalPath implements Crate.
func (s *Snapshot) CanonicalPath(id ItemID) ([]string, bool) {
	it := s.Item(id)
	if it == nil || len(it.Path) == 0 {
		return nil, false
	}
	return slices.Clone(it.Path), true
}

// References implements Crate.
func (s *Snapshot) References(id ItemID) []ItemID {
	return s.references[id]
}

// DeclaredSubmodules implements Crate.
func (s *Snapshot) DeclaredSubmodules(module ItemID) []string {
	return s.declaredMods[module]
}
