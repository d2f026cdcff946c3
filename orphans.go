package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/phobologic/crateview/internal/discover"
	"github.com/phobologic/crateview/internal/orphans"
)

func newOrphansCmd(a *app) *cobra.Command {
	var (
		proj    projectFlags
		deny    bool
		cfgTest bool
		ignores []string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Report source files that no module declares",
		Long: `Report .rs files that sit where a submodule of the crate would be loaded from
but that no mod item declares. Files git ignores are skipped, as are paths
matching --ignore patterns or the orphans.ignore setting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(proj.manifestPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = cfg.Orphans.Format
			}
			if !slices.Contains(orphans.Formats, format) {
				return fmt.Errorf("invalid --format %q: must be one of %v", format, orphans.Formats)
			}

			p, err := proj.load(cmd.Context(), a)
			if err != nil {
				return err
			}

			patterns := append(append([]string(nil), cfg.Orphans.Ignore...), ignores...)
			found := orphans.Scan(p.crate, discover.NewIgnore(p.pkg.Dir, patterns), a.log)
			if !cfgTest {
				found = withoutTestModules(p, found)
			}

			if format == orphans.FormatYAML {
				err = orphans.WriteYAML(a.stdout, p.Name(), p.pkg.Dir, found)
			} else {
				err = orphans.WriteText(a.stdout, p.Name(), p.pkg.Dir, found, a.palette(cfg))
			}
			if err != nil {
				return err
			}

			if deny && len(found) > 0 {
				return fmt.Errorf("%w: %d in crate %s", errOrphansFound, len(found), p.Name())
			}
			return nil
		},
	}

	proj.register(cmd)
	fs := cmd.Flags()
	fs.BoolVar(&deny, "deny", false, "exit with code 1 if any orphan is found")
	fs.BoolVar(&cfgTest, "cfg-test", false, "also scan modules only compiled for tests")
	fs.StringArrayVar(&ignores, "ignore", nil, "gitignore-style pattern of paths to skip (repeatable)")
	fs.StringVar(&format, "format", orphans.FormatText, "report format: text or yaml")
	return cmd
}

// withoutTestModules drops orphans whose parent module is only compiled for
// tests.
func withoutTestModules(p *project, found []orphans.Orphan) []orphans.Orphan {
	testOnly := make(map[string]bool)
	for _, id := range p.crate.Items() {
		if it := p.crate.Item(id); it != nil && it.IsFileModule() && it.Attrs.TestOnly {
			testOnly[it.PathString()] = true
		}
	}
	if len(testOnly) == 0 {
		return found
	}
	out := found[:0:0]
	for _, o := range found {
		if !testOnly[o.ParentModulePath] {
			out = append(out, o)
		}
	}
	return out
}
