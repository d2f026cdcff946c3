package filter

import (
	"fmt"
	"slices"

	"github.com/phobologic/crateview/internal/graph"
)

// edgeRec is a mutable edge of the working copy.
type edgeRec struct {
	graph.Edge
	dead bool
}

// working is the mutable state of one graph filter run.
type working struct {
	g     *graph.Graph
	edges []edgeRec
	out   [][]int // edge numbers by source
	in    [][]int // edge numbers by target
	owner []int   // current Owns source, -1 if none
	gone  []bool
}

func newWorking(g *graph.Graph) *working {
	w := &working{
		g:     g,
		out:   make([][]int, len(g.Nodes)),
		in:    make([][]int, len(g.Nodes)),
		owner: g.OwnerOf(),
		gone:  make([]bool, len(g.Nodes)),
	}
	for _, e := range g.Edges {
		w.add(e)
	}
	return w
}

func (w *working) add(e graph.Edge) {
	i := len(w.edges)
	w.edges = append(w.edges, edgeRec{Edge: e})
	w.out[e.Source] = append(w.out[e.Source], i)
	w.in[e.Target] = append(w.in[e.Target], i)
	if e.Kind == graph.Owns {
		w.owner[e.Target] = e.Source
	}
}

// Graph filters g. The input graph is not modified.
func Graph(g *graph.Graph, crateName string, opts Options) (*graph.Graph, error) {
	tr, err := opts.focusTree(crateName)
	if err != nil {
		return nil, err
	}

	n := len(g.Nodes)
	isFocus := make([]bool, n)
	var focused []int
	for i, node := range g.Nodes {
		if tr.MatchesSegments(node.Item.Path) {
			isFocus[i] = true
			focused = append(focused, i)
		}
	}
	if len(focused) == 0 {
		return nil, noMatch(opts)
	}

	w := newWorking(g)
	inScope := w.scope(focused, opts.MaxDepth)
	inScope[g.Root] = true
	for i := range inScope {
		if !inScope[i] {
			w.drop(i)
		}
	}

	removed := func(i int) bool {
		if i == g.Root || isFocus[i] {
			return false
		}
		return !opts.Selects(g.Nodes[i].Item)
	}

	order := w.bfs()
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		if removed(i) {
			w.collapse(i, removed)
		}
	}

	for i := range w.edges {
		e := &w.edges[i]
		if !opts.Uses && e.Kind == graph.Uses {
			e.dead = true
		}
	}

	type key struct {
		s, t int
		k    graph.EdgeKind
	}
	seen := make(map[key]bool)
	for i := range w.edges {
		e := &w.edges[i]
		if e.dead {
			continue
		}
		k := key{e.Source, e.Target, e.Kind}
		if seen[k] {
			e.dead = true
			continue
		}
		seen[k] = true
	}

	keep := make([]bool, n)
	for _, i := range w.bfs() {
		keep[i] = true
	}
	if !keep[g.Root] {
		return nil, &graph.InvariantError{Rule: "root", Msg: "crate root dropped by filter"}
	}
	for i := range w.edges {
		e := &w.edges[i]
		if !keep[e.Source] || !keep[e.Target] {
			e.dead = true
		}
	}

	out := g.Subgraph(keep, w.alive())
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("filtering graph: %w", err)
	}

	if !opts.Owns {
		out = dropOwns(out)
		if err := out.CheckRoot(); err != nil {
			return nil, fmt.Errorf("filtering graph: %w", err)
		}
	}
	out.Sort()
	return out, nil
}

// scope returns the nodes within maxDepth hops of a focus node along
// outgoing edges, together with every Owns ancestor of those nodes so that
// the kept nodes still hang off the root.
func (w *working) scope(focused []int, maxDepth int) []bool {
	in := make([]bool, len(w.g.Nodes))
	depth := make([]int, len(w.g.Nodes))
	queue := make([]int, 0, len(focused))
	for _, f := range focused {
		in[f] = true
		queue = append(queue, f)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if maxDepth >= 0 && depth[cur] >= maxDepth {
			continue
		}
		for _, ei := range w.out[cur] {
			t := w.edges[ei].Target
			if !in[t] {
				in[t] = true
				depth[t] = depth[cur] + 1
				queue = append(queue, t)
			}
		}
	}

	for i := range in {
		if !in[i] {
			continue
		}
		for p := w.owner[i]; p >= 0 && !in[p]; p = w.owner[p] {
			in[p] = true
		}
	}
	return in
}

// drop deletes node i together with every edge that touches it.
func (w *working) drop(i int) {
	for _, ei := range w.out[i] {
		w.edges[ei].dead = true
	}
	for _, ei := range w.in[i] {
		w.edges[ei].dead = true
	}
	w.out[i], w.in[i] = nil, nil
	w.gone[i] = true
}

// bfs returns the live nodes reachable from the root over live edges, in
// breadth-first order.
func (w *working) bfs() []int {
	seen := make([]bool, len(w.g.Nodes))
	seen[w.g.Root] = true
	order := []int{w.g.Root}
	for k := 0; k < len(order); k++ {
		for _, ei := range w.out[order[k]] {
			e := w.edges[ei]
			if e.dead || seen[e.Target] || w.gone[e.Target] {
				continue
			}
			seen[e.Target] = true
			order = append(order, e.Target)
		}
	}
	return order
}

// keptOwner walks up the current owner chain of i to the first node that is
// not removed. It returns -1 for nodes without an owner.
func (w *working) keptOwner(i int, removed func(int) bool) int {
	p := w.owner[i]
	for hops := 0; p >= 0 && removed(p); hops++ {
		if hops >= maxOwnerHops {
			panic(fmt.Sprintf("filter: owner chain of %s exceeds %d hops", w.g.Path(i), maxOwnerHops))
		}
		p = w.owner[p]
	}
	return p
}

// collapse deletes node i, moving its outgoing edges and its incoming
// non-Owns edges to its nearest kept owner.
func (w *working) collapse(i int, removed func(int) bool) {
	p := w.keptOwner(i, removed)

	for _, ei := range slices.Clone(w.out[i]) {
		e := &w.edges[ei]
		if e.dead {
			continue
		}
		e.dead = true
		if p >= 0 && p != e.Target {
			w.add(graph.Edge{Source: p, Target: e.Target, Kind: e.Kind})
		} else if e.Kind == graph.Owns && w.owner[e.Target] == i {
			w.owner[e.Target] = -1
		}
	}
	for _, ei := range slices.Clone(w.in[i]) {
		e := &w.edges[ei]
		if e.dead {
			continue
		}
		e.dead = true
		if e.Kind != graph.Owns && p >= 0 && e.Source != p {
			w.add(graph.Edge{Source: e.Source, Target: p, Kind: e.Kind})
		}
	}
	w.out[i], w.in[i] = nil, nil
	w.gone[i] = true
}

func (w *working) alive() []graph.Edge {
	var out []graph.Edge
	for _, e := range w.edges {
		if !e.dead {
			out = append(out, e.Edge)
		}
	}
	return out
}

// dropOwns removes every Owns edge and the non-root nodes left without edges.
func dropOwns(g *graph.Graph) *graph.Graph {
	var edges []graph.Edge
	degree := make([]int, len(g.Nodes))
	for _, e := range g.Edges {
		if e.Kind == graph.Owns {
			continue
		}
		edges = append(edges, e)
		degree[e.Source]++
		degree[e.Target]++
	}
	keep := make([]bool, len(g.Nodes))
	for i := range keep {
		keep[i] = i == g.Root || degree[i] > 0
	}
	return g.Subgraph(keep, edges)
}
