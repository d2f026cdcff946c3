package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/phobologic/crateview/internal/dot"
	"github.com/phobologic/crateview/internal/filter"
	"github.com/phobologic/crateview/internal/graph"
)

func newDependenciesCmd(a *app) *cobra.Command {
	var (
		proj      projectFlags
		sel       selectorFlags
		acyclic   bool
		layout    string
		splines   string
		noExterns bool
		noModules bool
		noOwns    bool
		noSysroot bool
		noUses    bool
	)

	cmd := &cobra.Command{
		Use:   "dependencies",
		Short: "Print the item dependency graph of a crate as Graphviz DOT",
		Long: `Print a Graphviz DOT graph of the crate's items. Solid "owns" edges follow
the module tree; dashed "uses" edges point from an item to the items it
refers to. Pipe the output into dot, e.g.

  crateview dependencies | dot -Tsvg > crate.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(proj.manifestPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("layout") {
				layout = cfg.Dependencies.Layout
			}
			if !cmd.Flags().Changed("splines") {
				splines = cfg.Dependencies.Splines
			}
			if !slices.Contains(dot.Layouts, layout) {
				return fmt.Errorf("invalid --layout %q: must be one of %v", layout, dot.Layouts)
			}
			if !slices.Contains(dot.Splines, splines) {
				return fmt.Errorf("invalid --splines %q: must be one of %v", splines, dot.Splines)
			}

			p, err := proj.load(cmd.Context(), a)
			if err != nil {
				return err
			}

			g, err := graph.Build(p.crate)
			if err != nil {
				return err
			}
			a.log.WithField("nodes", len(g.Nodes)).
				WithField("edges", len(g.Edges)).
				Debug("graph built")

			if acyclic {
				if cycle := graph.FindAnyCycle(g, graph.UsesOnly(g)); cycle != nil {
					return graph.CycleErrorFor(g, cycle)
				}
			}

			opts := sel.options()
			opts.Externs = !noExterns
			opts.Modules = !noModules
			opts.Owns = !noOwns
			opts.Sysroot = !noSysroot
			opts.Uses = !noUses

			filtered, err := filter.Graph(g, p.Name(), opts)
			if err != nil {
				return err
			}
			a.log.WithField("nodes", len(filtered.Nodes)).
				WithField("edges", len(filtered.Edges)).
				Debug("graph filtered")

			return dot.Write(a.stdout, filtered, dot.Options{
				Title:   p.Name(),
				Layout:  layout,
				Splines: splines,
			})
		},
	}

	proj.register(cmd)
	fs := cmd.Flags()
	sel.register(fs)
	fs.BoolVar(&acyclic, "acyclic", false, "fail with exit code 2 if the uses edges form a cycle")
	fs.StringVar(&layout, "layout", dot.DefaultLayout, "graphviz layout engine: none, dot, neato, twopi, circo, fdp or sfdp")
	fs.StringVar(&splines, "splines", dot.DefaultSplines, "edge style: none, line, spline or ortho")
	fs.BoolVar(&noExterns, "no-externs", false, "exclude items of other crates")
	fs.BoolVar(&noModules, "no-modules", false, "exclude modules")
	fs.BoolVar(&noOwns, "no-owns", false, "exclude owns edges")
	fs.BoolVar(&noSysroot, "no-sysroot", false, "exclude items of std, core and alloc")
	fs.BoolVar(&noUses, "no-uses", false, "exclude uses edges")
	cmd.MarkFlagsMutuallyExclusive("acyclic", "focus-on")
	return cmd
}
