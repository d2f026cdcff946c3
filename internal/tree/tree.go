// Package tree builds the structural outline of a crate: modules, the items
// they declare, and the associated items of every Adt.
package tree

import (
	"github.com/phobologic/crateview/internal/crate"
	"github.com/phobologic/crateview/internal/model"
)

// Node is one item of the outline.
type Node struct {
	ID       crate.ItemID
	Item     *model.Item
	Children []*Node
}

// Tree is the outline of one crate.
type Tree struct {
	Root *Node
}

// Build walks the module tree of c from its root.
func Build(c crate.Crate) *Tree {
	return &Tree{Root: module(c, c.Root())}
}

func module(c crate.Crate, id crate.ItemID) *Node {
	n := &Node{ID: id, Item: c.Item(id)}
	for _, child := range c.Declarations(id) {
		it := c.Item(child)
		if it == nil {
			continue
		}
		switch {
		case it.Kind == model.Module:
			n.Children = append(n.Children, module(c, child))
		case it.Kind.IsAdt():
			n.Children = append(n.Children, adt(c, child))
		case it.Kind == model.Variant, it.Kind == model.Const, it.Kind == model.Macro:
			// Folded into their owner.
		default:
			n.Children = append(n.Children, &Node{ID: child, Item: it})
		}
	}
	return n
}

func adt(c crate.Crate, id crate.ItemID) *Node {
	n := &Node{ID: id, Item: c.Item(id)}
	for _, impl := range c.ImplsFor(id) {
		for _, m := range impl.Members {
			it := c.Item(m)
			if it == nil {
				continue
			}
			switch it.Kind {
			case model.Function, model.Const, model.TypeAlias:
				n.Children = append(n.Children, &Node{ID: m, Item: it})
			}
		}
	}
	return n
}

// Walk visits every node in pre-order. Returning false from fn skips the
// node's children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	if t == nil || t.Root == nil {
		return
	}
	walk(t.Root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	count := 0
	t.Walk(func(*Node, int) bool {
		count++
		return true
	})
	return count
}
