package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phobologic/crateview/internal/filter"
	"github.com/phobologic/crateview/internal/outline"
	"github.com/phobologic/crateview/internal/tree"
)

// selectorFlags are the focus, depth and kind flags shared by structure and
// dependencies.
type selectorFlags struct {
	focusOn   string
	maxDepth  int
	cfgTest   bool
	noFns     bool
	noTraits  bool
	noTypes   bool
	noPrivate bool
}

func (s *selectorFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&s.focusOn, "focus-on", "", "focus on the items matched by a use-tree expression, e.g. 'crate::a::{b, c::*}'")
	fs.IntVar(&s.maxDepth, "max-depth", filter.Unbounded, "maximum distance from a focused item (-1 for no limit)")
	fs.BoolVar(&s.cfgTest, "cfg-test", false, "include items only compiled for tests")
	fs.BoolVar(&s.noFns, "no-fns", false, "exclude functions")
	fs.BoolVar(&s.noTraits, "no-traits", false, "exclude traits")
	fs.BoolVar(&s.noTypes, "no-types", false, "exclude types")
	fs.BoolVar(&s.noPrivate, "no-private", false, "exclude private items")
}

func (s *selectorFlags) options() filter.Options {
	opts := filter.DefaultOptions()
	opts.Focus = s.focusOn
	opts.MaxDepth = s.maxDepth
	opts.Tests = s.cfgTest
	opts.Fns = !s.noFns
	opts.Traits = !s.noTraits
	opts.Types = !s.noTypes
	opts.Privates = !s.noPrivate
	return opts
}

func newStructureCmd(a *app) *cobra.Command {
	var (
		proj         projectFlags
		sel          selectorFlags
		sortBy       string
		sortReversed bool
	)

	cmd := &cobra.Command{
		Use:   "structure",
		Short: "Print the module tree of a crate",
		Long: `Print the crate's module tree with the items each module declares. Methods
and associated items appear under the type they are implemented for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(proj.manifestPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("sort-by") {
				sortBy = cfg.Structure.SortBy
			}
			if !cmd.Flags().Changed("sort-reversed") {
				sortReversed = cfg.Structure.SortReversed
			}
			if !slices.Contains(outline.SortKeys, sortBy) {
				return fmt.Errorf("invalid --sort-by %q: must be one of %v", sortBy, outline.SortKeys)
			}

			p, err := proj.load(cmd.Context(), a)
			if err != nil {
				return err
			}

			t, err := filter.Tree(tree.Build(p.crate), p.Name(), sel.options())
			if err != nil {
				return err
			}
			a.log.WithField("items", t.Len()).Debug("structure filtered")

			return outline.Write(a.stdout, t, outline.Options{
				SortBy:       sortBy,
				SortReversed: sortReversed,
				Palette:      a.palette(cfg),
			})
		},
	}

	proj.register(cmd)
	sel.register(cmd.Flags())
	cmd.Flags().StringVar(&sortBy, "sort-by", outline.SortByName, "sort siblings by name, visibility or kind")
	cmd.Flags().BoolVar(&sortReversed, "sort-reversed", false, "reverse the sort order")
	return cmd
}
