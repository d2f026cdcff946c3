package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/crateview/internal/crate"
	"github.com/phobologic/crateview/internal/model"
)

// edgeStrings renders edges as "src -kind-> dst".
func edgeStrings(g *Graph) []string {
	out := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		out[i] = g.Path(e.Source) + " -" + e.Kind.String() + "-> " + g.Path(e.Target)
	}
	return out
}

func nodePaths(g *Graph) []string {
	out := make([]string, len(g.Nodes))
	for i := range g.Nodes {
		out[i] = g.Path(i)
	}
	return out
}

func sampleCrate() *crate.Snapshot {
	b := crate.NewBuilder("demo")
	a := b.Declare(b.Root(), model.Module, "a", model.VisPublic)
	foo := b.Declare(a, model.Struct, "Foo", model.VisPublic)
	newFn := b.Impl(foo, "", model.Item{Kind: model.Function, Path: []string{"new"}, Visibility: model.VisPublic})[0]
	color := b.Declare(a, model.Enum, "Color", model.VisPublic)
	b.Declare(color, model.Variant, "Red", model.VisPublic)
	run := b.Declare(b.Root(), model.Function, "run", model.VisPrivate)
	vec := b.Extern([]string{"std", "vec", "Vec"}, model.Struct, true)
	b.Extern([]string{"serde", "Serialize"}, model.Trait, false)

	b.Reference(run, foo)
	b.Reference(run, newFn)
	b.Reference(newFn, vec)
	b.Reference(newFn, foo)
	return b.Snapshot()
}

func TestBuild(t *testing.T) {
	t.Parallel()

	g, err := Build(sampleCrate())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"demo",
		"demo::a",
		"demo::a::Color",
		"demo::a::Foo",
		"demo::a::Foo::new",
		"demo::run",
		"std::vec::Vec",
	}, nodePaths(g), "variants and unreferenced externs are left out")
	assert.Equal(t, 0, g.Root)

	assert.Equal(t, []string{
		"demo -owns-> demo::a",
		"demo -owns-> demo::run",
		"demo::a -owns-> demo::a::Color",
		"demo::a -owns-> demo::a::Foo",
		"demo::a::Foo -owns-> demo::a::Foo::new",
		"demo::a::Foo::new -uses-> demo::a::Foo",
		"demo::a::Foo::new -uses-> std::vec::Vec",
		"demo::run -uses-> demo::a::Foo",
		"demo::run -uses-> demo::a::Foo::new",
	}, edgeStrings(g))
}

func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	first, err := Build(sampleCrate())
	require.NoError(t, err)
	for range 5 {
		again, err := Build(sampleCrate())
		require.NoError(t, err)
		assert.Equal(t, edgeStrings(first), edgeStrings(again))
		assert.Equal(t, nodePaths(first), nodePaths(again))
	}
}

func TestLookupAfterSort(t *testing.T) {
	t.Parallel()

	s := sampleCrate()
	g, err := Build(s)
	require.NoError(t, err)
	for i, n := range g.Nodes {
		got, ok := g.Lookup(n.ID)
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
	_, ok := g.Lookup(crate.NoItem)
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	root := &model.Item{Kind: model.Module, Qualifiers: model.Qualifiers{CrateRoot: true}, Path: []string{"r"}}
	item := func(path ...string) *model.Item {
		return &model.Item{Kind: model.Function, Path: append([]string{"r"}, path...)}
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		g := New(Node{ID: 0, Item: root})
		a := g.AddNode(Node{ID: 1, Item: item("a")})
		g.AddEdge(g.Root, a, Owns)
		g.AddEdge(a, g.Root, Uses)
		assert.NoError(t, g.Validate())
	})

	t.Run("orphan node", func(t *testing.T) {
		t.Parallel()
		g := New(Node{ID: 0, Item: root})
		g.AddNode(Node{ID: 1, Item: item("a")})
		var ie *InvariantError
		require.True(t, errors.As(g.Validate(), &ie))
		assert.Equal(t, "single-owner", ie.Rule)
		assert.Equal(t, "r::a", ie.Node)
	})

	t.Run("two owners", func(t *testing.T) {
		t.Parallel()
		g := New(Node{ID: 0, Item: root})
		a := g.AddNode(Node{ID: 1, Item: item("a")})
		b := g.AddNode(Node{ID: 2, Item: item("b")})
		g.AddEdge(g.Root, a, Owns)
		g.AddEdge(g.Root, b, Owns)
		g.AddEdge(a, b, Owns)
		var ie *InvariantError
		require.True(t, errors.As(g.Validate(), &ie))
		assert.Equal(t, "single-owner", ie.Rule)
	})

	t.Run("owns cycle", func(t *testing.T) {
		t.Parallel()
		g := New(Node{ID: 0, Item: root})
		a := g.AddNode(Node{ID: 1, Item: item("a")})
		b := g.AddNode(Node{ID: 2, Item: item("b")})
		g.AddEdge(a, b, Owns)
		g.AddEdge(b, a, Owns)
		var ie *InvariantError
		require.True(t, errors.As(g.Validate(), &ie))
		assert.Equal(t, "owns-tree", ie.Rule)
	})

	t.Run("owned extern", func(t *testing.T) {
		t.Parallel()
		g := New(Node{ID: 0, Item: root})
		ext := g.AddNode(Node{ID: 1, Item: &model.Item{Kind: model.Struct, Path: []string{"std", "X"}, Extern: true}})
		g.AddEdge(g.Root, ext, Owns)
		assert.Error(t, g.Validate())
	})

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()
		g := New(Node{ID: 0, Item: item("x")})
		var ie *InvariantError
		require.True(t, errors.As(g.Validate(), &ie))
		assert.Equal(t, "root", ie.Rule)
	})
}

func TestSubgraph(t *testing.T) {
	t.Parallel()

	g, err := Build(sampleCrate())
	require.NoError(t, err)
	keep := make([]bool, len(g.Nodes))
	for i := range keep {
		keep[i] = g.Path(i) != "demo::a::Foo::new"
	}
	sub := g.Subgraph(keep, g.Edges)
	assert.Len(t, sub.Nodes, len(g.Nodes)-1)
	for _, e := range edgeStrings(sub) {
		assert.NotContains(t, e, "Foo::new")
	}
	require.NoError(t, sub.Validate())
}
