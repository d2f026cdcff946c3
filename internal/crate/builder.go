package crate

import (
	"slices"

	"github.com/phobologic/crateview/internal/model"
)

// Builder assembles a Snapshot. It is used by the analyzer and by tests that
// need a hand-written crate.
type Builder struct {
	s       *Snapshot
	externs map[string]ItemID
	refSeen map[[2]ItemID]struct{}
}

// NewBuilder starts a snapshot whose root module is named after the crate.
func NewBuilder(crateName string) *Builder {
	name := model.NormalizeCrateName(crateName)
	b := &Builder{
		s: &Snapshot{
			name:         name,
			declarations: make(map[ItemID][]ItemID),
			impls:        make(map[ItemID][]Impl),
			references:   make(map[ItemID][]ItemID),
			declaredMods: make(map[ItemID][]string),
		},
		externs: make(map[string]ItemID),
		refSeen: make(map[[2]ItemID]struct{}),
	}
	b.s.root = b.add(model.Item{
		Kind:       model.Module,
		Qualifiers: model.Qualifiers{CrateRoot: true},
		Path:       []string{name},
		Visibility: model.VisPublic,
	})
	return b
}

// Root returns the crate-root module.
func (b *Builder) Root() ItemID { return b.s.root }

// Item returns a mutable pointer to an item under construction.
func (b *Builder) Item(id ItemID) *model.Item { return b.s.Item(id) }

func (b *Builder) add(it model.Item) ItemID {
	id := ItemID(len(b.s.items))
	b.s.items = append(b.s.items, it)
	return id
}

// Declare adds an item named name to module and returns it. The item path is
// the module path extended by name.
func (b *Builder) Declare(module ItemID, kind model.Kind, name string, vis model.Visibility) ItemID {
	return b.DeclareItem(module, model.Item{Kind: kind, Visibility: vis, Path: []string{name}})
}

// DeclareItem adds it to module. it.Path holds the item's own name, which is
// prefixed with the module path.
func (b *Builder) DeclareItem(module ItemID, it model.Item) ItemID {
	parent := b.s.Item(module)
	it.Path = append(slices.Clone(parent.Path), it.Path...)
	id := b.add(it)
	b.s.declarations[module] = append(b.s.declarations[module], id)
	if it.Kind == model.Module {
		b.DeclareSubmodule(module, it.Name())
	}
	return id
}

// DeclareSubmodule records a `mod name` declaration of module without adding
// an item, as happens for declarations disabled by cfg.
func (b *Builder) DeclareSubmodule(module ItemID, name string) {
	if !slices.Contains(b.s.declaredMods[module], name) {
		b.s.declaredMods[module] = append(b.s.declaredMods[module], name)
	}
}

// Impl adds an impl block for adt. Member paths hold the member name only and
// are prefixed with the Adt path.
func (b *Builder) Impl(adt ItemID, trait string, members ...model.Item) []ItemID {
	parent := b.s.Item(adt)
	ids := make([]ItemID, 0, len(members))
	for _, m := range members {
		m.Path = append(slices.Clone(parent.Path), m.Path...)
		ids = append(ids, b.add(m))
	}
	b.s.impls[adt] = append(b.s.impls[adt], Impl{Trait: trait, Members: ids})
	return ids
}

// Extern returns the extern item with the given path and kind, adding it on
// first use.
func (b *Builder) Extern(path []string, kind model.Kind, sysroot bool) ItemID {
	key := kind.String() + " " + model.JoinPath(path)
	if id, ok := b.externs[key]; ok {
		return id
	}
	id := b.add(model.Item{
		Kind:       kind,
		Path:       slices.Clone(path),
		Visibility: model.VisPublic,
		Extern:     true,
		Sysroot:    sysroot,
	})
	b.externs[key] = id
	return id
}

// Reference records that from refers to to. Duplicates are ignored.
func (b *Builder) Reference(from, to ItemID) {
	key := [2]ItemID{from, to}
	if _, dup := b.refSeen[key]; dup {
		return
	}
	b.refSeen[key] = struct{}{}
	b.s.references[from] = append(b.s.references[from], to)
}

// Snapshot finishes construction. The builder must not be used afterwards.
func (b *Builder) Snapshot() *Snapshot {
	s := b.s
	b.s = nil
	return s
}
