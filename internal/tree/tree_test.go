package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/crateview/internal/crate"
	"github.com/phobologic/crateview/internal/model"
)

func paths(t *Tree) []string {
	var out []string
	t.Walk(func(n *Node, _ int) bool {
		out = append(out, n.Item.PathString())
		return true
	})
	return out
}

func TestBuildModulesAndLeaves(t *testing.T) {
	t.Parallel()

	b := crate.NewBuilder("demo")
	a := b.Declare(b.Root(), model.Module, "a", model.VisPublic)
	b.Declare(a, model.Function, "run", model.VisPublic)
	b.Declare(a, model.Trait, "Shape", model.VisPublic)
	b.Declare(a, model.Const, "LIMIT", model.VisPrivate)
	b.Declare(a, model.Macro, "mac", model.VisPrivate)
	b.Declare(b.Root(), model.Static, "COUNTER", model.VisCrate)
	s := b.Snapshot()

	tr := Build(s)
	require.NotNil(t, tr.Root)
	assert.True(t, tr.Root.Item.IsCrateRoot())
	assert.Equal(t, []string{
		"demo",
		"demo::a",
		"demo::a::run",
		"demo::a::Shape",
		"demo::COUNTER",
	}, paths(tr))
	assert.Equal(t, 5, tr.Len())
}

func TestBuildAdtMembers(t *testing.T) {
	t.Parallel()

	b := crate.NewBuilder("demo")
	foo := b.Declare(b.Root(), model.Struct, "Foo", model.VisPublic)
	b.Impl(foo, "",
		model.Item{Kind: model.Function, Path: []string{"new"}, Visibility: model.VisPublic},
		model.Item{Kind: model.Const, Path: []string{"MAX"}, Visibility: model.VisPublic},
	)
	b.Impl(foo, "Iterator",
		model.Item{Kind: model.TypeAlias, Path: []string{"Item"}, Visibility: model.VisPublic},
		model.Item{Kind: model.Function, Path: []string{"next"}, Visibility: model.VisPublic},
	)
	e := b.Declare(b.Root(), model.Enum, "Color", model.VisPublic)
	b.Declare(e, model.Variant, "Red", model.VisPublic)
	s := b.Snapshot()

	tr := Build(s)
	require.Len(t, tr.Root.Children, 2)
	fooNode := tr.Root.Children[0]
	assert.Equal(t, foo, fooNode.ID)
	var names []string
	for _, c := range fooNode.Children {
		names = append(names, c.Item.Name())
	}
	assert.Equal(t, []string{"new", "MAX", "Item", "next"}, names)

	assert.Empty(t, tr.Root.Children[1].Children, "enum variants are not emitted")
}

func TestWalkSkipsChildren(t *testing.T) {
	t.Parallel()

	b := crate.NewBuilder("demo")
	a := b.Declare(b.Root(), model.Module, "a", model.VisPublic)
	b.Declare(a, model.Function, "f", model.VisPublic)
	tr := Build(b.Snapshot())

	var seen []string
	tr.Walk(func(n *Node, depth int) bool {
		seen = append(seen, n.Item.Name())
		return depth < 1 && n.Item.Name() != "a"
	})
	assert.Equal(t, []string{"demo", "a"}, seen)
}
