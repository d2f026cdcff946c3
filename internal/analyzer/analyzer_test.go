package analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/crateview/internal/cfg"
	"github.com/phobologic/crateview/internal/crate"
	"github.com/phobologic/crateview/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func analyze(t *testing.T, dir string, features ...string) *crate.Snapshot {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	snap, err := Analyze(context.Background(), Options{
		CrateName:    "demo-crate",
		RootFile:     filepath.Join(dir, "src", "lib.rs"),
		Env:          cfg.NewEnv("x86_64-unknown-linux-gnu", features),
		Dependencies: []string{"serde"},
		Log:          log,
		Jobs:         2,
	})
	require.NoError(t, err)
	return snap
}

// byPath indexes items by "kind path".
func byPath(snap *crate.Snapshot) map[string]crate.ItemID {
	out := make(map[string]crate.ItemID)
	for _, id := range snap.Items() {
		it := snap.Item(id)
		out[it.Kind.String()+" "+it.PathString()] = id
	}
	return out
}

func refPaths(snap *crate.Snapshot, id crate.ItemID) []string {
	var out []string
	for _, to := range snap.References(id) {
		out = append(out, snap.Item(to).PathString())
	}
	return out
}

func TestAnalyzeModuleTree(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeFile(t, dir, "src/lib.rs", `
pub mod a;
mod b;
#[path = "elsewhere/c_impl.rs"]
mod c;
mod inline {
    pub fn f() {}
    pub mod deeper;
}
#[cfg(windows)]
mod win;
mod missing;
`)
	writeFile(t, dir, "src/a.rs", "pub mod nested;\npub struct A;\n")
	writeFile(t, dir, "src/a/nested.rs", "pub fn leaf() {}\n")
	writeFile(t, dir, "src/b/mod.rs", "pub(crate) fn helper() {}\n")
	writeFile(t, dir, "src/elsewhere/c_impl.rs", "pub const C: u8 = 1;\n")
	writeFile(t, dir, "src/inline/deeper.rs", "pub fn deep() {}\n")
	writeFile(t, dir, "src/win.rs", "pub fn windows_only() {}\n")

	snap := analyze(t, dir)
	assert.Equal(t, "demo_crate", snap.Name())

	items := byPath(snap)
	for _, want := range []string{
		"mod demo_crate",
		"mod demo_crate::a",
		"mod demo_crate::a::nested",
		"fn demo_crate::a::nested::leaf",
		"struct demo_crate::a::A",
		"mod demo_crate::b",
		"fn demo_crate::b::helper",
		"mod demo_crate::c",
		"const demo_crate::c::C",
		"mod demo_crate::inline",
		"fn demo_crate::inline::f",
		"mod demo_crate::inline::deeper",
		"fn demo_crate::inline::deeper::deep",
		"mod demo_crate::missing",
	} {
		assert.Contains(t, items, want)
	}
	assert.NotContains(t, items, "mod demo_crate::win")
	assert.NotContains(t, items, "fn demo_crate::win::windows_only")

	root := snap.Root()
	assert.True(t, snap.Item(root).IsCrateRoot())
	assert.Equal(t, filepath.Join(dir, "src", "lib.rs"), snap.Item(root).FilePath)
	assert.ElementsMatch(t, []string{"a", "b", "c", "inline", "win", "missing"}, snap.DeclaredSubmodules(root))

	a := items["mod demo_crate::a"]
	assert.Equal(t, filepath.Join(dir, "src", "a.rs"), snap.Item(a).FilePath)
	assert.Equal(t, model.VisPublic, snap.Visibility(a))
	assert.Equal(t, model.VisPrivate, snap.Visibility(items["mod demo_crate::b"]))
	assert.Equal(t, model.VisCrate, snap.Visibility(items["fn demo_crate::b::helper"]))
	assert.Equal(t, filepath.Join(dir, "src", "elsewhere", "c_impl.rs"), snap.Item(items["mod demo_crate::c"]).FilePath)
	assert.Empty(t, snap.Item(items["mod demo_crate::inline"]).FilePath)
}

func TestAnalyzeImplsAndReferences(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeFile(t, dir, "src/lib.rs", `
mod shapes;
use shapes::Circle;

pub fn area(c: &Circle) -> f64 {
    c.radius()
}

pub fn make() -> Circle {
    Circle::new(1.0)
}
`)
	writeFile(t, dir, "src/shapes.rs", `
use std::fmt;

pub struct Circle { r: f64 }

impl Circle {
    pub fn new(r: f64) -> Self { Self { r } }
    pub fn radius(&self) -> f64 { self.r }
}

impl fmt::Display for Circle {
    fn fmt(&self, f: &mut fmt::Formatter<'_>) -> fmt::Result { Ok(()) }
}

impl Default for Circle {
    fn default() -> Self { Circle::new(0.0) }
}

pub enum Kind { Round, Square }

pub fn classify() -> Kind { Kind::Round }
`)

	snap := analyze(t, dir)
	items := byPath(snap)

	circle := items["struct demo_crate::shapes::Circle"]
	require.NotZero(t, circle)
	impls := snap.ImplsFor(circle)
	require.Len(t, impls, 3)
	assert.Equal(t, "", impls[0].Trait)
	assert.Equal(t, "fmt::Display", impls[1].Trait)
	assert.Equal(t, "Default", impls[2].Trait)

	newFn := items["fn demo_crate::shapes::Circle::new"]
	require.NotZero(t, newFn)
	assert.Equal(t, model.VisPublic, snap.Visibility(newFn))
	assert.Contains(t, items, "fn demo_crate::shapes::Circle::fmt")
	assert.Contains(t, items, "fn demo_crate::shapes::Circle::default")

	assert.Contains(t, refPaths(snap, items["fn demo_crate::area"]), "demo_crate::shapes::Circle")
	assert.Contains(t, refPaths(snap, items["fn demo_crate::area"]), "f64")
	assert.Contains(t, refPaths(snap, items["fn demo_crate::make"]), "demo_crate::shapes::Circle::new")
	assert.Contains(t, refPaths(snap, items["fn demo_crate::shapes::Circle::default"]), "demo_crate::shapes::Circle::new")

	// Variants collapse to their enum.
	assert.Contains(t, refPaths(snap, items["fn demo_crate::shapes::classify"]), "demo_crate::shapes::Kind")

	// The `use` in the root module is a reference of the root module.
	assert.Contains(t, refPaths(snap, snap.Root()), "demo_crate::shapes::Circle")

	fmtRefs := refPaths(snap, items["fn demo_crate::shapes::Circle::fmt"])
	assert.Contains(t, fmtRefs, "std::fmt::Formatter")
	assert.Contains(t, fmtRefs, "std::fmt::Result")

	formatter := items["struct std::fmt::Formatter"]
	require.NotZero(t, formatter)
	assert.True(t, snap.Item(formatter).Extern)
	assert.True(t, snap.Item(formatter).Sysroot)
	assert.True(t, snap.Item(items["builtin f64"]).Sysroot)
}

func TestAnalyzeExternCrates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeFile(t, dir, "src/lib.rs", `
use serde::Serialize;

pub struct Data;

pub fn encode(d: &Data) -> impl Serialize { unknown::thing() }
`)

	snap := analyze(t, dir)
	items := byPath(snap)

	ser := items["struct serde::Serialize"]
	require.NotZero(t, ser)
	assert.True(t, snap.Item(ser).Extern)
	assert.False(t, snap.Item(ser).Sysroot)
	assert.Contains(t, refPaths(snap, items["fn demo_crate::encode"]), "serde::Serialize")
	assert.NotContains(t, refPaths(snap, items["fn demo_crate::encode"]), "unknown::thing")
}

func TestAnalyzeTestsAndCfg(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeFile(t, dir, "src/lib.rs", `
#[cfg(feature = "extra")]
pub fn extra() {}

#[cfg(not(feature = "extra"))]
pub fn basic() {}

pub fn lib_fn() {}

#[cfg(test)]
mod tests {
    use super::*;

    #[test]
    fn works() { lib_fn(); }

    fn helper() {}
}
`)

	snap := analyze(t, dir)
	items := byPath(snap)
	assert.NotContains(t, items, "fn demo_crate::extra")
	assert.Contains(t, items, "fn demo_crate::basic")

	tests := items["mod demo_crate::tests"]
	require.NotZero(t, tests)
	assert.True(t, snap.Attrs(tests).TestOnly)
	assert.Equal(t, []string{"test"}, snap.Attrs(tests).Cfgs)
	assert.False(t, snap.Attrs(tests).Test)

	works := items["fn demo_crate::tests::works"]
	assert.True(t, snap.Attrs(works).Test)
	assert.True(t, snap.Attrs(works).TestOnly)
	assert.True(t, snap.Attrs(items["fn demo_crate::tests::helper"]).TestOnly)
	assert.False(t, snap.Attrs(items["fn demo_crate::lib_fn"]).TestOnly)

	// Glob import of the parent module.
	assert.Contains(t, refPaths(snap, works), "demo_crate::lib_fn")

	withExtra := byPath(analyze(t, dir, "extra"))
	assert.Contains(t, withExtra, "fn demo_crate::extra")
	assert.NotContains(t, withExtra, "fn demo_crate::basic")
}

func TestAnalyzeMacros(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeFile(t, dir, "src/lib.rs", `
mod util;

pub fn run() {
    square!(2);
    println!("done");
}
`)
	writeFile(t, dir, "src/util.rs", `
#[macro_export]
macro_rules! square { ($x:expr) => { $x * $x }; }
`)

	snap := analyze(t, dir)
	items := byPath(snap)

	sq := items["macro demo_crate::util::square"]
	require.NotZero(t, sq)
	assert.Equal(t, model.VisPublic, snap.Visibility(sq))

	refs := refPaths(snap, items["fn demo_crate::run"])
	assert.Contains(t, refs, "demo_crate::util::square")
	assert.Contains(t, refs, "std::println")
}

func TestAnalyzeVisibilityInPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeFile(t, dir, "src/lib.rs", "pub mod a {\n    pub mod b {\n        pub(in crate::a) fn f() {}\n        pub(super) fn g() {}\n    }\n}\n")

	snap := analyze(t, dir)
	items := byPath(snap)
	assert.Equal(t, model.VisModule([]string{"demo_crate", "a"}), snap.Visibility(items["fn demo_crate::a::b::f"]))
	assert.Equal(t, model.VisSuper, snap.Visibility(items["fn demo_crate::a::b::g"]))
}

func TestAnalyzeCyclicImports(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	writeFile(t, dir, "src/lib.rs", `
mod a { pub use super::b::X; }
mod b { pub use super::a::X; }
pub fn f() -> a::X { todo!() }
`)

	snap := analyze(t, dir)
	items := byPath(snap)
	assert.Contains(t, items, "fn demo_crate::f")
}

func TestAnalyzeMissingRoot(t *testing.T) {
	t.Parallel()

	log, _ := logtest.NewNullLogger()
	_, err := Analyze(context.Background(), Options{
		CrateName: "x",
		RootFile:  filepath.Join(t.TempDir(), "src", "lib.rs"),
		Log:       log,
	})
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
}

func TestGuessKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.Module, guessKind([]string{"serde"}, 0, false))
	assert.Equal(t, model.Struct, guessKind([]string{"serde", "Serialize"}, 0, false))
	assert.Equal(t, model.Const, guessKind([]string{"std", "u8", "MAX"}, 0, false))
	assert.Equal(t, model.Module, guessKind([]string{"std", "fs"}, 0, true))
	assert.Equal(t, model.Function, guessKind([]string{"std", "mem", "swap"}, 0, false))
}
