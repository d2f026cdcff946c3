package orphans

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/crateview/internal/crate"
	"github.com/phobologic/crateview/internal/discover"
	"github.com/phobologic/crateview/internal/model"
	"github.com/phobologic/crateview/internal/theme"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fixture lays out:
//
//	src/lib.rs       mod m;
//	src/m.rs
//	src/m/x.rs
//	src/m/mod.rs
//	src/m/Y.rs
//	src/m/z/mod.rs
//	src/stray.rs
func fixture(t *testing.T) (string, *crate.Builder, crate.ItemID) {
	t.Helper()
	root := t.TempDir()
	for _, f := range []string{"src/lib.rs", "src/m.rs", "src/m/x.rs", "src/m/mod.rs", "src/m/Y.rs", "src/m/z/mod.rs", "src/stray.rs"} {
		writeFile(t, root, f, "")
	}

	b := crate.NewBuilder("demo")
	b.Item(b.Root()).FilePath = filepath.Join(root, "src", "lib.rs")
	m := b.Declare(b.Root(), model.Module, "m", model.VisPrivate)
	b.Item(m).FilePath = filepath.Join(root, "src", "m.rs")
	return root, b, m
}

func names(orphans []Orphan) []string {
	out := make([]string, len(orphans))
	for i, o := range orphans {
		out[i] = o.ParentModulePath + "::" + o.Name
	}
	return out
}

func TestScan(t *testing.T) {
	t.Parallel()

	root, b, _ := fixture(t)
	log, _ := logtest.NewNullLogger()
	got := Scan(b.Snapshot(), nil, log)

	assert.Equal(t, []string{"demo::stray", "demo::m::x", "demo::m::z"}, names(got))
	require.Len(t, got, 3)
	assert.Equal(t, Orphan{
		Name:             "x",
		FilePath:         filepath.Join(root, "src", "m", "x.rs"),
		ParentModulePath: "demo::m",
		ParentFilePath:   filepath.Join(root, "src", "m.rs"),
	}, got[1])
	assert.Equal(t, filepath.Join(root, "src", "m", "z", "mod.rs"), got[2].FilePath)
}

func TestScanDisabledDeclarationCounts(t *testing.T) {
	t.Parallel()

	_, b, m := fixture(t)
	b.DeclareSubmodule(m, "x")
	b.DeclareSubmodule(b.Root(), "stray")
	log, _ := logtest.NewNullLogger()
	assert.Equal(t, []string{"demo::m::z"}, names(Scan(b.Snapshot(), nil, log)))
}

func TestScanSkipsInlineModules(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "src/lib.rs", "")
	writeFile(t, root, "src/inner/x.rs", "")

	b := crate.NewBuilder("demo")
	b.Item(b.Root()).FilePath = filepath.Join(root, "src", "lib.rs")
	b.Declare(b.Root(), model.Module, "inner", model.VisPrivate)

	log, _ := logtest.NewNullLogger()
	assert.Empty(t, Scan(b.Snapshot(), nil, log), "inline modules have no directory of their own to scan")
}

func TestScanIgnore(t *testing.T) {
	t.Parallel()

	root, b, _ := fixture(t)
	log, _ := logtest.NewNullLogger()
	ign := discover.NewIgnore(root, []string{"stray.rs", "src/m/z/"})
	assert.Equal(t, []string{"demo::m::x"}, names(Scan(b.Snapshot(), ign, log)))
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	orphans := []Orphan{{
		Name:             "x",
		FilePath:         "/p/src/m/x.rs",
		ParentModulePath: "demo::m",
		ParentFilePath:   "/p/src/m.rs",
	}}
	p := theme.New(theme.Never, &buf, os.Getenv)
	require.NoError(t, WriteText(&buf, "demo", "/p", orphans, p))

	want := "warning: orphaned module `x` at src/m/x.rs\n" +
		"  --> src/m.rs\n" +
		"  = help: consider declaring it in `demo::m`:\n\n" +
		"      mod x;\n\n" +
		"Found 1 orphan in crate 'demo'.\n"
	assert.Equal(t, filepath.FromSlash(want), buf.String())
}

func TestWriteTextNone(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, "demo", "", nil, nil))
	assert.Equal(t, "No orphans found in crate 'demo'.\n", buf.String())
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	orphans := []Orphan{{
		Name:             "x",
		FilePath:         filepath.FromSlash("/p/src/m/x.rs"),
		ParentModulePath: "demo::m",
		ParentFilePath:   filepath.FromSlash("/p/src/m.rs"),
	}}
	require.NoError(t, WriteYAML(&buf, "demo", filepath.FromSlash("/p"), orphans))

	var doc yamlReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "demo", doc.Crate)
	assert.Equal(t, 1, doc.Count)
	require.Len(t, doc.Orphans, 1)
	assert.Equal(t, "src/m/x.rs", doc.Orphans[0].FilePath)
	assert.Equal(t, "src/m.rs", doc.Orphans[0].ParentFilePath)
	assert.Contains(t, buf.String(), "parent_module: demo::m")
}
