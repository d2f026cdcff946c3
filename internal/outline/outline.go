// Package outline prints a structure tree as indented text.
package outline

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/phobologic/crateview/internal/model"
	"github.com/phobologic/crateview/internal/theme"
	"github.com/phobologic/crateview/internal/tree"
)

// Sort keys.
const (
	SortByName       = "name"
	SortByVisibility = "visibility"
	SortByKind       = "kind"
)

// SortKeys lists the accepted sort keys.
var SortKeys = []string{SortByName, SortByVisibility, SortByKind}

const (
	pipe   = "│   "
	space  = "    "
	branch = "├── "
	last   = "└── "
)

// Options controls the outline.
type Options struct {
	SortBy       string
	SortReversed bool
	Palette      *theme.Palette
}

// Write prints t in pre-order.
func Write(w io.Writer, t *tree.Tree, opts Options) error {
	bw := bufio.NewWriter(w)
	p := &printer{w: bw, opts: opts}
	p.node(t.Root, nil, true)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing outline: %w", err)
	}
	return nil
}

type printer struct {
	w    *bufio.Writer
	opts Options
}

// node prints n and its children. lastFlags holds, for every ancestor below
// the root, whether it was the last of its siblings.
func (p *printer) node(n *tree.Node, lastFlags []bool, isLast bool) {
	pal := p.opts.Palette
	var b strings.Builder
	if lastFlags != nil {
		for _, l := range lastFlags[1:] {
			if l {
				b.WriteString(space)
			} else {
				b.WriteString(pal.Dim(pipe))
			}
		}
		if isLast {
			b.WriteString(pal.Dim(last))
		} else {
			b.WriteString(pal.Dim(branch))
		}
	}
	b.WriteString(Line(n.Item, pal))
	b.WriteByte('\n')
	_, _ = p.w.WriteString(b.String())

	children := p.sorted(n.Children)
	flags := append(slices.Clone(lastFlags), isLast)
	for i, c := range children {
		p.node(c, flags, i == len(children)-1)
	}
}

// Line renders one outline entry without tree guides.
func Line(it *model.Item, pal *theme.Palette) string {
	if it.IsCrateRoot() {
		return pal.Kind("crate") + " " + pal.Name(it.Name())
	}
	var b strings.Builder
	b.WriteString(pal.Kind(it.KindString()))
	b.WriteByte(' ')
	b.WriteString(pal.Name(it.Name()))
	b.WriteString(": ")
	b.WriteString(pal.Visibility(it.Visibility))
	for _, a := range it.Attrs.Strings() {
		b.WriteByte(' ')
		b.WriteString(pal.Attr(a))
	}
	return b.String()
}

func (p *printer) sorted(nodes []*tree.Node) []*tree.Node {
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b *tree.Node) int {
		return model.CompareName(a.Item, b.Item)
	})
	switch p.opts.SortBy {
	case SortByVisibility:
		slices.SortStableFunc(out, func(a, b *tree.Node) int {
			return model.CompareVisibility(a.Item.Visibility, b.Item.Visibility)
		})
	case SortByKind:
		slices.SortStableFunc(out, func(a, b *tree.Node) int {
			return model.CompareKind(a.Item, b.Item)
		})
	}
	if p.opts.SortReversed {
		slices.Reverse(out)
	}
	return out
}
