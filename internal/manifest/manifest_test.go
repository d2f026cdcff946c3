package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadSinglePackage(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "Cargo.toml"), `
[package]
name = "my-crate"
version = "0.1.0"
edition = "2021"

[features]
default = ["json"]
json = ["dep:serde_json"]
full = ["json", "yaml"]
yaml = []

[dependencies]
serde = "1"
serde_json = { version = "1", optional = true }
some-dep = { path = "../some-dep" }

[dev-dependencies]
pretty_assertions = "1"
`)
	writeFile(t, filepath.Join(dir, "src", "lib.rs"), "")
	writeFile(t, filepath.Join(dir, "src", "main.rs"), "fn main() {}\n")
	writeFile(t, filepath.Join(dir, "src", "bin", "tool.rs"), "fn main() {}\n")
	writeFile(t, filepath.Join(dir, "src", "bin", "multi", "main.rs"), "fn main() {}\n")

	ws, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, ws.Packages, 1)

	pkg := ws.Packages[0]
	assert.Equal(t, "my-crate", pkg.Name)
	assert.Equal(t, filepath.Join(dir, "Cargo.toml"), pkg.ManifestPath)

	var names []string
	for _, tgt := range pkg.Targets {
		names = append(names, tgt.String())
	}
	assert.Equal(t, []string{"lib my_crate", "bin my-crate", "bin multi", "bin tool"}, names)
	assert.Equal(t, filepath.Join(dir, "src", "lib.rs"), pkg.Targets[0].Root)

	assert.Equal(t, []Dependency{
		{Name: "serde"},
		{Name: "serde_json", Optional: true},
		{Name: "some_dep"},
		{Name: "pretty_assertions", Dev: true},
	}, pkg.Dependencies)
}

func TestLoadManifestFilePath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), "[package]\nname = \"x\"\n\n[lib]\npath = \"lib/root.rs\"\n")

	ws, err := Load(filepath.Join(dir, "Cargo.toml"))
	require.NoError(t, err)
	require.Len(t, ws.Packages[0].Targets, 1)
	assert.Equal(t, filepath.Join(dir, "lib", "root.rs"), ws.Packages[0].Targets[0].Root)
}

func TestLoadWorkspace(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), `
[workspace]
members = ["crates/*"]
exclude = ["crates/skipped"]
`)
	writeFile(t, filepath.Join(dir, "crates", "beta", "Cargo.toml"), "[package]\nname = \"beta\"\n")
	writeFile(t, filepath.Join(dir, "crates", "beta", "src", "lib.rs"), "")
	writeFile(t, filepath.Join(dir, "crates", "alpha", "Cargo.toml"), "[package]\nname = \"alpha\"\n")
	writeFile(t, filepath.Join(dir, "crates", "alpha", "src", "main.rs"), "")
	writeFile(t, filepath.Join(dir, "crates", "skipped", "Cargo.toml"), "[package]\nname = \"skipped\"\n")

	ws, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, ws.Packages, 2)
	assert.Equal(t, "alpha", ws.Packages[0].Name)
	assert.Equal(t, "beta", ws.Packages[1].Name)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), "[workspace]\nmembers = []\n")
	_, err = Load(dir)
	assert.True(t, errors.Is(err, ErrNoPackages))

	bad := t.TempDir()
	writeFile(t, filepath.Join(bad, "Cargo.toml"), "[package\nname=")
	_, err = Load(bad)
	assert.Error(t, err)
}

func newWorkspace(pkgs ...*Package) *Workspace {
	return &Workspace{Packages: pkgs}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	lib := Target{Name: "app", Kind: Lib}
	bin := Target{Name: "app", Kind: Bin}
	tool := Target{Name: "tool", Kind: Bin}
	app := &Package{Name: "app", Targets: []Target{lib, bin, tool}}
	other := &Package{Name: "other-pkg", Targets: []Target{{Name: "other_pkg", Kind: Lib}}}

	t.Run("ambiguous package", func(t *testing.T) {
		t.Parallel()
		_, _, err := Select(newWorkspace(app, other), Selection{})
		var amb *AmbiguousSelectionError
		require.True(t, errors.As(err, &amb))
		assert.Equal(t, "package", amb.What)
		assert.Equal(t, []string{"app", "other-pkg"}, amb.Candidates)
	})

	t.Run("missing package", func(t *testing.T) {
		t.Parallel()
		_, _, err := Select(newWorkspace(app), Selection{Package: "nope"})
		var missing *MissingSelectionError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "nope", missing.Name)
	})

	t.Run("normalized package name", func(t *testing.T) {
		t.Parallel()
		pkg, tgt, err := Select(newWorkspace(app, other), Selection{Package: "other_pkg"})
		require.NoError(t, err)
		assert.Equal(t, other, pkg)
		assert.Equal(t, Lib, tgt.Kind)
	})

	t.Run("ambiguous target", func(t *testing.T) {
		t.Parallel()
		_, _, err := Select(newWorkspace(app), Selection{})
		var amb *AmbiguousSelectionError
		require.True(t, errors.As(err, &amb))
		assert.Equal(t, []string{"lib app", "bin app", "bin tool"}, amb.Candidates)
	})

	t.Run("lib", func(t *testing.T) {
		t.Parallel()
		_, tgt, err := Select(newWorkspace(app), Selection{Lib: true})
		require.NoError(t, err)
		assert.Equal(t, lib, tgt)
	})

	t.Run("bin", func(t *testing.T) {
		t.Parallel()
		_, tgt, err := Select(newWorkspace(app), Selection{Bin: "tool"})
		require.NoError(t, err)
		assert.Equal(t, tool, tgt)
	})

	t.Run("missing bin", func(t *testing.T) {
		t.Parallel()
		_, _, err := Select(newWorkspace(app), Selection{Bin: "gone"})
		var missing *MissingSelectionError
		require.True(t, errors.As(err, &missing))
	})

	t.Run("missing lib", func(t *testing.T) {
		t.Parallel()
		binOnly := &Package{Name: "b", Targets: []Target{bin}}
		_, _, err := Select(newWorkspace(binOnly), Selection{Lib: true})
		var missing *MissingSelectionError
		require.True(t, errors.As(err, &missing))
	})

	t.Run("lib and bin", func(t *testing.T) {
		t.Parallel()
		_, _, err := Select(newWorkspace(app), Selection{Lib: true, Bin: "tool"})
		assert.ErrorIs(t, err, ErrConflictingTargets)
	})
}

func TestResolveFeatures(t *testing.T) {
	t.Parallel()

	pkg := &Package{
		Features: map[string][]string{
			"default": {"json"},
			"json":    {"dep:serde_json"},
			"full":    {"json", "yaml", "tokio/rt"},
			"yaml":    {},
			"extra":   {"serde?/std"},
		},
		Dependencies: []Dependency{
			{Name: "serde_json", Optional: true},
			{Name: "tokio", Optional: true},
			{Name: "serde"},
		},
	}

	tests := []struct {
		name string
		opts FeatureOptions
		want []string
	}{
		{"defaults", FeatureOptions{}, []string{"default", "json"}},
		{"no defaults", FeatureOptions{NoDefaultFeatures: true}, []string{}},
		{"explicit", FeatureOptions{Features: []string{"full"}, NoDefaultFeatures: true}, []string{"full", "json", "tokio", "yaml"}},
		{"all", FeatureOptions{AllFeatures: true}, []string{"default", "extra", "full", "json", "serde_json", "tokio", "yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pkg.ResolveFeatures(tt.opts))
		})
	}
}

func TestSplitFeatures(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b", "c"}, SplitFeatures("a,b c"))
	assert.Empty(t, SplitFeatures(""))
}
