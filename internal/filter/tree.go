package filter

import (
	"github.com/phobologic/crateview/internal/focus"
	"github.com/phobologic/crateview/internal/tree"
)

// Tree filters t. A node survives when it matches the focus, when it owns a
// match, or when it lies within MaxDepth of its nearest matching ancestor
// and passes the selectors. The input tree is not modified.
func Tree(t *tree.Tree, crateName string, opts Options) (*tree.Tree, error) {
	tr, err := opts.focusTree(crateName)
	if err != nil {
		return nil, err
	}
	root, matched := filterNode(t.Root, -1, tr, opts)
	if !matched {
		return nil, noMatch(opts)
	}
	return &tree.Tree{Root: root}, nil
}

// filterNode returns the filtered copy of n, or nil, and whether n or one of
// its descendants matches the focus. depth is the distance from the nearest
// matching ancestor, -1 when there is none.
func filterNode(n *tree.Node, depth int, tr *focus.Tree, opts Options) (*tree.Node, bool) {
	if n.Item.Extern {
		return nil, false
	}
	isMatch := tr.MatchesSegments(n.Item.Path)
	switch {
	case isMatch:
		depth = 0
	case depth >= 0:
		depth++
	}

	var children []*tree.Node
	below := false
	for _, c := range n.Children {
		kept, m := filterNode(c, depth, tr, opts)
		below = below || m
		if kept != nil {
			children = append(children, kept)
		}
	}

	inRange := depth >= 0 && opts.withinDepth(depth) && opts.Selects(n.Item)
	if !isMatch && !below && !inRange {
		return nil, false
	}
	return &tree.Node{ID: n.ID, Item: n.Item, Children: children}, isMatch || below
}
