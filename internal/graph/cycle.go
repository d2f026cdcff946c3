package graph

import (
	"fmt"
	"strings"
)

// IgnoreFunc reports whether the edge from src to dst should not be followed.
type IgnoreFunc func(src, dst int) bool

// CycleError reports a dependency cycle by node path.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	if len(e.Nodes) == 0 {
		return "cycle detected"
	}
	return fmt.Sprintf("cycle detected: %s -> %s", strings.Join(e.Nodes, " -> "), e.Nodes[0])
}

type color uint8

const (
	unseen color = iota
	visited
	settled
)

type event struct {
	node    int
	becomes color
}

// FindCycle returns the nodes of one directed cycle reachable from start, in
// edge order, or nil if there is none. Self edges are not cycles.
func FindCycle(g *Graph, start int, ignore IgnoreFunc) []int {
	colors := make([]color, len(g.Nodes))
	return findFrom(g.Successors(), start, colors, ignore)
}

// FindAnyCycle runs FindCycle from every node in order, sharing colors, and
// returns the first cycle found.
func FindAnyCycle(g *Graph, ignore IgnoreFunc) []int {
	adj := g.Successors()
	colors := make([]color, len(g.Nodes))
	for i := range g.Nodes {
		if colors[i] != unseen {
			continue
		}
		if cycle := findFrom(adj, i, colors, ignore); cycle != nil {
			return cycle
		}
	}
	return nil
}

// UsesOnly ignores every pair of nodes not joined by a Uses edge.
func UsesOnly(g *Graph) IgnoreFunc {
	uses := make(map[[2]int]bool)
	for _, e := range g.Edges {
		if e.Kind == Uses {
			uses[[2]int{e.Source, e.Target}] = true
		}
	}
	return func(src, dst int) bool { return !uses[[2]int{src, dst}] }
}

// CycleErrorFor converts a cycle to an error naming its node paths.
func CycleErrorFor(g *Graph, cycle []int) *CycleError {
	names := make([]string, len(cycle))
	for i, n := range cycle {
		names[i] = g.Path(n)
	}
	return &CycleError{Nodes: names}
}

// findFrom is an iterative tri-color DFS. The Settled events left on the
// stack are exactly the nodes of the current DFS path.
func findFrom(adj [][]int, start int, colors []color, ignore IgnoreFunc) []int {
	stack := []event{{node: start, becomes: visited}}
	for len(stack) > 0 {
		ev := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if ev.becomes == settled {
			colors[ev.node] = settled
			continue
		}
		switch colors[ev.node] {
		case visited:
			return pathFrom(stack, ev.node)
		case settled:
			continue
		}

		colors[ev.node] = visited
		stack = append(stack, event{node: ev.node, becomes: settled})
		for _, succ := range adj[ev.node] {
			if succ == ev.node {
				continue
			}
			if ignore != nil && ignore(ev.node, succ) {
				continue
			}
			stack = append(stack, event{node: succ, becomes: visited})
		}
	}
	return nil
}

func pathFrom(stack []event, node int) []int {
	var path []int
	for _, ev := range stack {
		if ev.becomes == settled {
			path = append(path, ev.node)
		}
	}
	for i, n := range path {
		if n == node {
			return path[i:]
		}
	}
	return nil
}
