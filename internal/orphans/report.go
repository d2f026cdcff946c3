package orphans

import (
	"fmt"
	"io"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/crateview/internal/theme"
)

// Report formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Formats lists the accepted report formats.
var Formats = []string{FormatText, FormatYAML}

// yamlReport is the document written by WriteYAML.
type yamlReport struct {
	Crate   string   `yaml:"crate"`
	Count   int      `yaml:"count"`
	Orphans []Orphan `yaml:"orphans"`
}

// WriteText prints one warning per orphan with a suggested declaration.
// File paths are shown relative to base when possible.
func WriteText(w io.Writer, crateName, base string, orphans []Orphan, p *theme.Palette) error {
	if len(orphans) == 0 {
		_, err := fmt.Fprintf(w, "No orphans found in crate '%s'.\n", crateName)
		return err
	}
	for _, o := range orphans {
		_, err := fmt.Fprintf(w, "%s orphaned module `%s` at %s\n  %s %s\n  %s consider declaring it in `%s`:\n\n      mod %s;\n\n",
			p.Warn("warning:"),
			p.Name(o.Name),
			p.Path(relative(base, o.FilePath)),
			p.Dim("-->"),
			p.Path(relative(base, o.ParentFilePath)),
			p.Dim("= help:"),
			o.ParentModulePath,
			o.Name,
		)
		if err != nil {
			return err
		}
	}
	noun := "orphans"
	if len(orphans) == 1 {
		noun = "orphan"
	}
	_, err := fmt.Fprintf(w, "Found %d %s in crate '%s'.\n", len(orphans), noun, crateName)
	return err
}

// WriteYAML writes the orphans as a YAML document with paths relative to base.
func WriteYAML(w io.Writer, crateName, base string, orphans []Orphan) error {
	doc := yamlReport{Crate: crateName, Count: len(orphans), Orphans: make([]Orphan, len(orphans))}
	for i, o := range orphans {
		o.FilePath = filepath.ToSlash(relative(base, o.FilePath))
		o.ParentFilePath = filepath.ToSlash(relative(base, o.ParentFilePath))
		doc.Orphans[i] = o
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding orphan report: %w", err)
	}
	return enc.Close()
}

func relative(base, path string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
