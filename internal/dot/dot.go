// Package dot prints a dependency graph as a Graphviz DOT document.
package dot

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/phobologic/crateview/internal/graph"
	"github.com/phobologic/crateview/internal/model"
	"github.com/phobologic/crateview/internal/theme"
)

// Layouts lists the accepted layout engines; LayoutNone omits the attribute.
var Layouts = []string{LayoutNone, "dot", "neato", "twopi", "circo", "fdp", "sfdp"}

// Splines lists the accepted edge styles.
var Splines = []string{"none", "line", "spline", "ortho"}

// Defaults.
const (
	LayoutNone     = "none"
	DefaultLayout  = "neato"
	DefaultSplines = "line"
)

// Options controls the document attributes.
type Options struct {
	Title   string // graph label, usually the crate name
	Layout  string
	Splines string
}

// attr is one key="value" pair. Attribute lists are slices so that their
// order is fixed.
type attr struct {
	key   string
	value string
	raw   bool // value is written without quotes
}

type attrs []attr

func (a attrs) String() string {
	parts := make([]string, len(a))
	for i, kv := range a {
		if kv.raw {
			parts[i] = kv.key + "=" + kv.value
		} else {
			parts[i] = kv.key + "=" + quote(kv.value)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Write prints g. Nodes and edges are emitted in graph order, which Build and
// the filters keep sorted.
func Write(w io.Writer, g *graph.Graph, opts Options) error {
	bw := bufio.NewWriter(w)
	ids := nodeIDs(g)

	graphAttrs := attrs{
		{key: "label", value: opts.Title},
		{key: "labelloc", value: "t", raw: true},
		{key: "pad", value: "0.4", raw: true},
	}
	if opts.Layout != "" && opts.Layout != LayoutNone {
		graphAttrs = append(graphAttrs, attr{key: "layout", value: opts.Layout, raw: true})
	}
	splines := opts.Splines
	if splines == "" {
		splines = DefaultSplines
	}
	graphAttrs = append(graphAttrs,
		attr{key: "overlap", value: "false", raw: true},
		attr{key: "splines", value: splines},
		attr{key: "rankdir", value: "LR", raw: true},
		attr{key: "fontname", value: "Helvetica"},
		attr{key: "fontsize", value: "36"},
	)
	nodeAttrs := attrs{
		{key: "fontname", value: "monospace"},
		{key: "fontsize", value: "10"},
		{key: "shape", value: "record"},
		{key: "style", value: "filled"},
	}
	edgeAttrs := attrs{
		{key: "fontname", value: "monospace"},
		{key: "fontsize", value: "10"},
	}

	fmt.Fprintln(bw, "digraph {")
	fmt.Fprintf(bw, "    graph %s;\n", graphAttrs)
	fmt.Fprintf(bw, "    node %s;\n", nodeAttrs)
	fmt.Fprintf(bw, "    edge %s;\n", edgeAttrs)

	if len(g.Nodes) > 0 {
		bw.WriteByte('\n')
	}
	for i := range g.Nodes {
		it := g.Nodes[i].Item
		fmt.Fprintf(bw, "    %s %s;\n", quote(ids[i]), attrs{
			{key: "label", value: recordLabel(Header(it), it.PathString()), raw: true},
			{key: "fillcolor", value: theme.FillColor(it)},
		})
	}

	if len(g.Edges) > 0 {
		bw.WriteByte('\n')
	}
	for _, e := range g.Edges {
		fmt.Fprintf(bw, "    %s -> %s %s;\n", quote(ids[e.Source]), quote(ids[e.Target]), edgeStyle(e.Kind))
	}
	fmt.Fprintln(bw, "}")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing dot: %w", err)
	}
	return nil
}

// Header is the first record field of a node: "crate" for the root, the
// kind for extern items, and "<visibility> <kind>" otherwise.
func Header(it *model.Item) string {
	switch {
	case it.IsCrateRoot():
		return "crate"
	case it.Extern:
		return it.KindString()
	}
	return it.Visibility.String() + " " + it.KindString()
}

func edgeStyle(k graph.EdgeKind) attrs {
	if k == graph.Owns {
		return attrs{
			{key: "label", value: "owns"},
			{key: "color", value: "#000000"},
			{key: "style", value: "solid"},
			{key: "constraint", value: "true", raw: true},
		}
	}
	return attrs{
		{key: "label", value: "uses"},
		{key: "color", value: "#7f7f7f"},
		{key: "style", value: "dashed"},
		{key: "constraint", value: "false", raw: true},
	}
}

// nodeIDs returns a unique DOT identifier per node: its path, suffixed with
// the kind when two nodes share a path.
func nodeIDs(g *graph.Graph) []string {
	count := make(map[string]int, len(g.Nodes))
	for i := range g.Nodes {
		count[g.Path(i)]++
	}
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = g.Path(i)
		if count[ids[i]] > 1 {
			ids[i] += " (" + n.Item.KindString() + ")"
		}
	}
	return ids
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return `"` + s + `"`
}

// recordLabel returns the quoted label of a record node with the given
// fields. Characters that structure record labels are escaped.
func recordLabel(fields ...string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('|')
		}
		for _, r := range f {
			switch r {
			case '{', '}', '|', '<', '>', '"', '\\':
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
