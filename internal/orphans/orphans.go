// Package orphans finds Rust source files that sit where a submodule would
// be loaded from but are not declared by any `mod` item.
package orphans

import (
	"cmp"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/phobologic/crateview/internal/crate"
	"github.com/phobologic/crateview/internal/discover"
	"github.com/phobologic/crateview/internal/model"
)

// Orphan is a source file that no module declares.
type Orphan struct {
	Name             string `yaml:"name"`
	FilePath         string `yaml:"file"`
	ParentModulePath string `yaml:"parent_module"`
	ParentFilePath   string `yaml:"parent_file"`
}

// Scan checks the directory of every file-backed module of c for candidate
// submodule files whose name the module does not declare. Declarations
// disabled by cfg still count as declared. Results are sorted by parent
// module path, then name.
func Scan(c crate.Crate, ign *discover.Ignore, log logrus.FieldLogger) []Orphan {
	var out []Orphan
	for _, id := range c.Items() {
		it := c.Item(id)
		if it == nil || it.Extern || !it.IsFileModule() {
			continue
		}
		declared := make(map[string]bool)
		for _, name := range c.DeclaredSubmodules(id) {
			declared[name] = true
		}

		dir := discover.ModuleDir(it.FilePath)
		for _, cand := range discover.Candidates(dir, ign, log) {
			if declared[cand.Name] {
				continue
			}
			out = append(out, Orphan{
				Name:             cand.Name,
				FilePath:         cand.Path,
				ParentModulePath: it.PathString(),
				ParentFilePath:   it.FilePath,
			})
		}
	}

	slices.SortFunc(out, func(a, b Orphan) int {
		if c := slices.Compare(model.SplitPath(a.ParentModulePath), model.SplitPath(b.ParentModulePath)); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	log.WithField("orphans", len(out)).Debug("orphan scan finished")
	return out
}
