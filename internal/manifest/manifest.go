// Package manifest loads Cargo.toml files and selects the package and target
// to analyze.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/phobologic/crateview/internal/model"
)

// FileName is the manifest file name.
const FileName = "Cargo.toml"

// ErrNoPackages is returned when a manifest declares neither a package nor
// any workspace member.
var ErrNoPackages = errors.New("no packages found")

type rawManifest struct {
	Package           *rawPackage         `toml:"package"`
	Lib               *rawTarget          `toml:"lib"`
	Bin               []rawTarget         `toml:"bin"`
	Features          map[string][]string `toml:"features"`
	Dependencies      map[string]any      `toml:"dependencies"`
	DevDependencies   map[string]any      `toml:"dev-dependencies"`
	BuildDependencies map[string]any      `toml:"build-dependencies"`
	Workspace         *rawWorkspace       `toml:"workspace"`
}

type rawPackage struct {
	Name     string `toml:"name"`
	Version  any    `toml:"version"`
	Edition  any    `toml:"edition"`
	Autobins *bool  `toml:"autobins"`
	Autolib  *bool  `toml:"autolib"`
}

type rawTarget struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

type rawWorkspace struct {
	Members []string `toml:"members"`
	Exclude []string `toml:"exclude"`
}

// TargetKind distinguishes library and binary targets.
type TargetKind uint8

const (
	Lib TargetKind = iota
	Bin
)

func (k TargetKind) String() string {
	if k == Lib {
		return "lib"
	}
	return "bin"
}

// Target is one compilable crate of a package.
type Target struct {
	Name string
	Kind TargetKind
	Root string // absolute path of the crate root file
}

// CrateName returns the name the target's crate is known by in paths.
func (t Target) CrateName() string {
	return model.NormalizeCrateName(t.Name)
}

func (t Target) String() string {
	return t.Kind.String() + " " + t.Name
}

// Dependency is a crate the package can refer to by name.
type Dependency struct {
	Name     string // name as written in code, hyphens normalized
	Optional bool
	Dev      bool
}

// Package is a loaded Cargo package.
type Package struct {
	Name         string
	Dir          string
	ManifestPath string
	Targets      []Target
	Features     map[string][]string
	Dependencies []Dependency
}

// Lib returns the package's library target, if any.
func (p *Package) Lib() (Target, bool) {
	for _, t := range p.Targets {
		if t.Kind == Lib {
			return t, true
		}
	}
	return Target{}, false
}

// Workspace is the set of packages reachable from a manifest.
type Workspace struct {
	Root     string
	Packages []*Package
}

// Load reads the manifest at path, which may be a Cargo.toml file or the
// directory containing one. Workspace members are loaded too.
func Load(path string) (*Workspace, error) {
	manifestPath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	raw, err := readManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(manifestPath)
	ws := &Workspace{Root: dir}

	if raw.Package != nil {
		pkg, err := newPackage(manifestPath, raw)
		if err != nil {
			return nil, err
		}
		ws.Packages = append(ws.Packages, pkg)
	}

	if raw.Workspace != nil {
		members, err := expandMembers(dir, raw.Workspace)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			mp := filepath.Join(m, FileName)
			if mp == manifestPath {
				continue
			}
			mraw, err := readManifest(mp)
			if err != nil {
				return nil, err
			}
			if mraw.Package == nil {
				continue
			}
			pkg, err := newPackage(mp, mraw)
			if err != nil {
				return nil, err
			}
			ws.Packages = append(ws.Packages, pkg)
		}
	}

	if len(ws.Packages) == 0 {
		return nil, fmt.Errorf("%s: %w", manifestPath, ErrNoPackages)
	}
	sort.SliceStable(ws.Packages, func(i, j int) bool {
		return ws.Packages[i].Name < ws.Packages[j].Name
	})
	return ws, nil
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("reading manifest: %w", err)
	}
	if info.IsDir() {
		abs = filepath.Join(abs, FileName)
	}
	return abs, nil
}

func readManifest(path string) (*rawManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var raw rawManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &raw, nil
}

func expandMembers(root string, ws *rawWorkspace) ([]string, error) {
	excluded := make(map[string]bool, len(ws.Exclude))
	for _, e := range ws.Exclude {
		excluded[filepath.Join(root, e)] = true
	}

	var dirs []string
	for _, pattern := range ws.Members {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("workspace member %q: %w", pattern, err)
		}
		for _, m := range matches {
			if excluded[m] || slices.Contains(dirs, m) {
				continue
			}
			if _, err := os.Stat(filepath.Join(m, FileName)); err != nil {
				continue
			}
			dirs = append(dirs, m)
		}
	}
	return dirs, nil
}

func newPackage(manifestPath string, raw *rawManifest) (*Package, error) {
	if raw.Package.Name == "" {
		return nil, fmt.Errorf("%s: package has no name", manifestPath)
	}
	dir := filepath.Dir(manifestPath)
	pkg := &Package{
		Name:         raw.Package.Name,
		Dir:          dir,
		ManifestPath: manifestPath,
		Features:     raw.Features,
	}
	if pkg.Features == nil {
		pkg.Features = map[string][]string{}
	}

	pkg.Dependencies = append(pkg.Dependencies, dependencies(raw.Dependencies, false)...)
	pkg.Dependencies = append(pkg.Dependencies, dependencies(raw.DevDependencies, true)...)
	pkg.Targets = discoverTargets(dir, raw)
	return pkg, nil
}

func dependencies(table map[string]any, dev bool) []Dependency {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make([]Dependency, 0, len(names))
	for _, name := range names {
		d := Dependency{Name: model.NormalizeCrateName(name), Dev: dev}
		if spec, ok := table[name].(map[string]any); ok {
			if opt, ok := spec["optional"].(bool); ok {
				d.Optional = opt
			}
		}
		deps = append(deps, d)
	}
	return deps
}

func discoverTargets(dir string, raw *rawManifest) []Target {
	var targets []Target

	autolib := raw.Package.Autolib == nil || *raw.Package.Autolib
	switch {
	case raw.Lib != nil:
		name := raw.Lib.Name
		if name == "" {
			name = raw.Package.Name
		}
		path := raw.Lib.Path
		if path == "" {
			path = filepath.Join("src", "lib.rs")
		}
		targets = append(targets, Target{Name: model.NormalizeCrateName(name), Kind: Lib, Root: filepath.Join(dir, path)})
	case autolib && exists(filepath.Join(dir, "src", "lib.rs")):
		targets = append(targets, Target{Name: model.NormalizeCrateName(raw.Package.Name), Kind: Lib, Root: filepath.Join(dir, "src", "lib.rs")})
	}

	bins := make(map[string]string)
	var order []string
	add := func(name, path string) {
		if _, ok := bins[name]; !ok {
			order = append(order, name)
		}
		bins[name] = path
	}

	if raw.Package.Autobins == nil || *raw.Package.Autobins {
		if p := filepath.Join(dir, "src", "main.rs"); exists(p) {
			add(raw.Package.Name, p)
		}
		if entries, err := os.ReadDir(filepath.Join(dir, "src", "bin")); err == nil {
			for _, e := range entries {
				switch {
				case !e.IsDir() && strings.HasSuffix(e.Name(), ".rs"):
					add(strings.TrimSuffix(e.Name(), ".rs"), filepath.Join(dir, "src", "bin", e.Name()))
				case e.IsDir() && exists(filepath.Join(dir, "src", "bin", e.Name(), "main.rs")):
					add(e.Name(), filepath.Join(dir, "src", "bin", e.Name(), "main.rs"))
				}
			}
		}
	}

	for _, b := range raw.Bin {
		if b.Name == "" {
			continue
		}
		path := b.Path
		if path == "" {
			path = defaultBinPath(dir, b.Name, raw.Package.Name)
		} else {
			path = filepath.Join(dir, path)
		}
		add(b.Name, path)
	}

	for _, name := range order {
		targets = append(targets, Target{Name: name, Kind: Bin, Root: bins[name]})
	}
	return targets
}

func defaultBinPath(dir, name, pkgName string) string {
	candidates := []string{
		filepath.Join(dir, "src", "bin", name+".rs"),
		filepath.Join(dir, "src", "bin", name, "main.rs"),
	}
	if name == pkgName {
		candidates = append([]string{filepath.Join(dir, "src", "main.rs")}, candidates...)
	}
	for _, c := range candidates {
		if exists(c) {
			return c
		}
	}
	return candidates[0]
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
