// Package analyzer builds a resolved crate snapshot from Rust sources.
//
// Loading happens in two phases. The module tree is read level by level:
// all files of one level are parsed concurrently, then their `mod`
// declarations are resolved to the files of the next level. Items are then
// created in module order and name references are resolved against module
// scopes, imports and the extern prelude.
package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/crateview/internal/cfg"
	"github.com/phobologic/crateview/internal/crate"
	"github.com/phobologic/crateview/internal/discover"
	"github.com/phobologic/crateview/internal/lang"
	"github.com/phobologic/crateview/internal/parse"
)

// Options configures one analysis.
type Options struct {
	CrateName    string   // crate name, hyphens allowed
	RootFile     string   // absolute path of the crate root file
	Env          *cfg.Env // enabled features and target
	Dependencies []string // crate names reachable through the extern prelude
	Log          logrus.FieldLogger
	Jobs         int // parse concurrency, GOMAXPROCS when zero
}

// LoadError reports that the crate could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading crate from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// module is a module of the tree under construction.
type module struct {
	name     string
	path     []string // absolute path, crate name first
	file     string   // set for file-backed modules
	dir      string   // directory holding the files of child modules
	decl     *parse.Decl
	decls    []*parse.Decl
	inner    []parse.Attr
	refs     []parse.Ref
	parent   *module
	children map[*parse.Decl]*module
	inline   bool
	disabled bool // excluded by cfg
	missing  bool // declared with `mod x;` but no file was found
}

type fileJob struct {
	mod  *module
	file string
}

// Analyze loads and resolves the crate rooted at opts.RootFile.
func Analyze(ctx context.Context, opts Options) (*crate.Snapshot, error) {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Env == nil {
		opts.Env = cfg.NewEnv(cfg.HostTriple(), nil)
	}

	if _, err := os.Stat(opts.RootFile); err != nil {
		return nil, &LoadError{Path: opts.RootFile, Err: err}
	}

	root := &module{
		path: []string{strings.ReplaceAll(opts.CrateName, "-", "_")},
		file: opts.RootFile,
		dir:  filepath.Dir(opts.RootFile),
	}
	root.name = root.path[0]

	l := &loader{opts: opts}
	if err := l.loadTree(ctx, root); err != nil {
		return nil, err
	}

	r := newResolver(opts, root)
	return r.build(), nil
}

type loader struct {
	opts Options
}

// loadTree parses the root file and then every level of file-backed
// submodules, each level concurrently.
func (l *loader) loadTree(ctx context.Context, root *module) error {
	query, err := lang.Rust.ReferenceQuery()
	if err != nil {
		return &LoadError{Path: root.file, Err: err}
	}

	jobs := []fileJob{{mod: root, file: root.file}}
	seen := map[string]bool{root.file: true}

	for depth := 0; len(jobs) > 0; depth++ {
		files, err := l.parseLevel(ctx, query, jobs)
		if err != nil {
			return err
		}
		l.opts.Log.WithField("depth", depth).WithField("files", len(jobs)).Debug("parsed module files")

		var next []fileJob
		for i, job := range jobs {
			f := files[i]
			job.mod.decls = f.Decls
			job.mod.inner = f.InnerAttrs
			job.mod.refs = f.Refs
			for _, child := range l.submodules(job.mod, job.mod.decls) {
				if seen[child.file] {
					l.opts.Log.WithField("file", child.file).Warn("module file included twice, skipping")
					continue
				}
				seen[child.file] = true
				next = append(next, child)
			}
		}
		jobs = next
	}
	return nil
}

func (l *loader) parseLevel(ctx context.Context, query *sitter.Query, jobs []fileJob) ([]*parse.File, error) {
	files := make([]*parse.File, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	limit := l.opts.Jobs
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			source, err := os.ReadFile(job.file)
			if err != nil {
				return &LoadError{Path: job.file, Err: err}
			}
			parser := lang.Rust.NewParser()
			defer parser.Close()
			f, err := parse.ExtractFile(parser, query, source, job.file)
			if err != nil {
				return &LoadError{Path: job.file, Err: err}
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// submodules creates the child modules declared in decls. Inline modules
// are expanded in place; file-backed ones are returned as jobs for the next
// level. Modules disabled by cfg are still created so that their names are
// known as declared; the resolver skips them.
func (l *loader) submodules(parent *module, decls []*parse.Decl) []fileJob {
	var jobs []fileJob
	for _, d := range decls {
		if d.Kind != parse.DeclMod || d.Name == "" {
			continue
		}
		child := &module{
			name:   d.Name,
			path:   append(append([]string(nil), parent.path...), d.Name),
			decl:   d,
			parent: parent,
		}
		if parent.children == nil {
			parent.children = make(map[*parse.Decl]*module)
		}
		parent.children[d] = child
		if parent.disabled || !l.opts.Env.Enabled(cfgArgs(d.Attrs)) {
			child.disabled = true
		}

		if d.Inline {
			child.inline = true
			child.dir = filepath.Join(parent.dir, d.Name)
			if p := attrValue(d.Attrs, "path"); p != "" {
				child.dir = filepath.Join(parent.dir, p)
			}
			child.decls = d.Body
			child.inner = d.InnerAttrs
			jobs = append(jobs, l.submodules(child, child.decls)...)
			continue
		}

		if child.disabled {
			continue
		}

		file, ok := l.moduleFile(parent, d)
		if !ok {
			child.missing = true
			l.opts.Log.WithField("module", strings.Join(child.path, "::")).Warn("no source file found for module")
			continue
		}
		child.file = file
		child.dir = discover.ModuleDir(file)
		if attrValue(d.Attrs, "path") != "" {
			child.dir = filepath.Dir(file)
		}
		jobs = append(jobs, fileJob{mod: child, file: file})
	}
	return jobs
}

// moduleFile locates the file backing `mod name;` declared in parent.
func (l *loader) moduleFile(parent *module, d *parse.Decl) (string, bool) {
	if p := attrValue(d.Attrs, "path"); p != "" {
		base := parent.dir
		if !parent.inline && parent.file != "" {
			base = filepath.Dir(parent.file)
		}
		file := filepath.Join(base, filepath.FromSlash(p))
		return file, fileExists(file)
	}

	for _, candidate := range []string{
		filepath.Join(parent.dir, d.Name+lang.SourceExt),
		filepath.Join(parent.dir, d.Name, "mod"+lang.SourceExt),
	} {
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func attrValue(attrs []parse.Attr, name string) string {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}

func cfgArgs(attrs []parse.Attr) []string {
	var out []string
	for _, a := range attrs {
		if a.Name == "cfg" && a.Args != "" {
			out = append(out, a.Args)
		}
	}
	return out
}
