// Package graph builds the item dependency graph of a crate and detects
// cycles in it.
//
// A Graph is a directed multigraph held as parallel arrays: Nodes is indexed
// by node number and every Edge refers to its endpoints by that number. Owns
// edges describe structural containment and form a tree rooted at the crate
// root; Uses edges are resolved name references and may be cyclic.
package graph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/phobologic/crateview/internal/crate"
	"github.com/phobologic/crateview/internal/model"
)

// EdgeKind distinguishes containment from references.
type EdgeKind uint8

const (
	Owns EdgeKind = iota
	Uses
)

func (k EdgeKind) String() string {
	if k == Owns {
		return "owns"
	}
	return "uses"
}

// Node is one item of the graph.
type Node struct {
	ID   crate.ItemID
	Item *model.Item
}

// Edge connects two node numbers.
type Edge struct {
	Source int
	Target int
	Kind   EdgeKind
}

// Graph is a directed multigraph over crate items.
type Graph struct {
	Nodes []Node
	Edges []Edge
	Root  int

	index map[crate.ItemID]int
}

// New returns a graph holding only root.
func New(root Node) *Graph {
	g := &Graph{index: make(map[crate.ItemID]int)}
	g.Root = g.AddNode(root)
	return g
}

// AddNode adds n unless a node with the same ID exists, and returns its number.
func (g *Graph) AddNode(n Node) int {
	if i, ok := g.index[n.ID]; ok {
		return i
	}
	i := len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	g.index[n.ID] = i
	return i
}

// AddEdge appends an edge.
func (g *Graph) AddEdge(src, dst int, kind EdgeKind) {
	g.Edges = append(g.Edges, Edge{Source: src, Target: dst, Kind: kind})
}

// Lookup returns the node number of an item.
func (g *Graph) Lookup(id crate.ItemID) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Path returns the display path of node i.
func (g *Graph) Path(i int) string {
	return g.Nodes[i].Item.PathString()
}

// Successors returns the targets of the outgoing edges of every node,
// indexed by node number, in edge order.
func (g *Graph) Successors() [][]int {
	adj := make([][]int, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}

// OwnerOf returns, for every node, the source of its incoming Owns edge or -1.
func (g *Graph) OwnerOf() []int {
	owner := make([]int, len(g.Nodes))
	for i := range owner {
		owner[i] = -1
	}
	for _, e := range g.Edges {
		if e.Kind == Owns {
			owner[e.Target] = e.Source
		}
	}
	return owner
}

// Subgraph returns a copy holding the nodes for which keep is true and the
// edges between them. The root must be kept.
func (g *Graph) Subgraph(keep []bool, edges []Edge) *Graph {
	out := &Graph{index: make(map[crate.ItemID]int)}
	renum := make([]int, len(g.Nodes))
	for i, n := range g.Nodes {
		renum[i] = -1
		if keep[i] {
			renum[i] = out.AddNode(n)
		}
	}
	out.Root = renum[g.Root]
	for _, e := range edges {
		s, t := renum[e.Source], renum[e.Target]
		if s < 0 || t < 0 {
			continue
		}
		out.AddEdge(s, t, e.Kind)
	}
	return out
}

// Build creates the graph of c: one node per item reachable through module
// declarations and impls (variants excluded), an Owns edge from every item's
// structural parent, and a Uses edge for every resolved reference. Extern
// items are added when referenced and have no owner.
func Build(c crate.Crate) (*Graph, error) {
	g := New(Node{ID: c.Root(), Item: c.Item(c.Root())})
	g.addModule(c, g.Root)

	// References of local items only; externs are leaves.
	local := len(g.Nodes)
	for src := 0; src < local; src++ {
		for _, ref := range c.References(g.Nodes[src].ID) {
			dst, ok := g.index[ref]
			if !ok {
				it := c.Item(ref)
				if it == nil || !it.Extern {
					continue
				}
				dst = g.AddNode(Node{ID: ref, Item: it})
			}
			g.AddEdge(src, dst, Uses)
		}
	}

	g.Sort()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) addModule(c crate.Crate, parent int) {
	for _, id := range c.Declarations(g.Nodes[parent].ID) {
		it := c.Item(id)
		if it == nil || it.Kind == model.Variant {
			continue
		}
		n := g.AddNode(Node{ID: id, Item: it})
		g.AddEdge(parent, n, Owns)
		switch {
		case it.Kind == model.Module:
			g.addModule(c, n)
		case it.Kind.IsAdt():
			for _, impl := range c.ImplsFor(id) {
				for _, m := range impl.Members {
					mi := c.Item(m)
					if mi == nil {
						continue
					}
					g.AddEdge(n, g.AddNode(Node{ID: m, Item: mi}), Owns)
				}
			}
		}
	}
}

// compareNodes orders by path, then by kind.
func compareNodes(a, b Node) int {
	if c := model.ComparePath(a.Item, b.Item); c != 0 {
		return c
	}
	if c := model.CompareKind(a.Item, b.Item); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort renumbers nodes by (path, kind) and orders edges by
// (source path, target path, kind).
func (g *Graph) Sort() {
	order := make([]int, len(g.Nodes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return compareNodes(g.Nodes[a], g.Nodes[b])
	})

	renum := make([]int, len(g.Nodes))
	nodes := make([]Node, len(g.Nodes))
	for newIdx, oldIdx := range order {
		renum[oldIdx] = newIdx
		nodes[newIdx] = g.Nodes[oldIdx]
		g.index[nodes[newIdx].ID] = newIdx
	}
	g.Nodes = nodes
	g.Root = renum[g.Root]
	for i := range g.Edges {
		g.Edges[i].Source = renum[g.Edges[i].Source]
		g.Edges[i].Target = renum[g.Edges[i].Target]
	}

	// Node numbers follow path order, so comparing numbers compares paths.
	slices.SortStableFunc(g.Edges, func(a, b Edge) int {
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Target, b.Target); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
}

// InvariantError reports a corrupted graph.
type InvariantError struct {
	Rule string
	Node string
	Msg  string
}

func (e *InvariantError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("graph invariant %s violated: %s", e.Rule, e.Msg)
	}
	return fmt.Sprintf("graph invariant %s violated at %s: %s", e.Rule, e.Node, e.Msg)
}

// CheckRoot verifies that the root is present.
func (g *Graph) CheckRoot() error {
	if g.Root < 0 || g.Root >= len(g.Nodes) || !g.Nodes[g.Root].Item.IsCrateRoot() {
		return &InvariantError{Rule: "root", Msg: "crate root missing"}
	}
	return nil
}

// Validate checks that the root is present, that every local non-root node
// has exactly one owner while externs and the root have none, and that the
// Owns edges form a tree rooted at the root.
func (g *Graph) Validate() error {
	if err := g.CheckRoot(); err != nil {
		return err
	}

	owners := make([]int, len(g.Nodes))
	owner := make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		if e.Kind == Owns {
			owners[e.Target]++
			owner[e.Target] = e.Source
		}
	}
	for i, n := range g.Nodes {
		want := 1
		if i == g.Root || n.Item.Extern {
			want = 0
		}
		if owners[i] != want {
			return &InvariantError{
				Rule: "single-owner",
				Node: g.Path(i),
				Msg:  fmt.Sprintf("%d incoming owns edges, want %d", owners[i], want),
			}
		}
	}

	// With one owner each, the Owns edges form a tree iff every owner chain
	// reaches the root.
	reaches := make([]int8, len(g.Nodes)) // 0 unknown, 1 yes, -1 in progress
	reaches[g.Root] = 1
	for i, n := range g.Nodes {
		if n.Item.Extern {
			continue
		}
		var chain []int
		j := i
		for reaches[j] == 0 {
			if g.Nodes[j].Item.Extern {
				return &InvariantError{Rule: "owns-tree", Node: g.Path(i), Msg: "owned by an extern item"}
			}
			reaches[j] = -1
			chain = append(chain, j)
			j = owner[j]
		}
		if reaches[j] == -1 {
			return &InvariantError{Rule: "owns-tree", Node: g.Path(i), Msg: "owner chain is cyclic"}
		}
		for _, k := range chain {
			reaches[k] = 1
		}
	}
	return nil
}
