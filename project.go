package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/crateview/internal/analyzer"
	"github.com/phobologic/crateview/internal/cfg"
	"github.com/phobologic/crateview/internal/crate"
	"github.com/phobologic/crateview/internal/manifest"
)

// projectFlags are the project-selection flags shared by every command that
// reads a crate.
type projectFlags struct {
	manifestPath      string
	pkg               string
	lib               bool
	bin               string
	features          []string
	allFeatures       bool
	noDefaultFeatures bool
	target            string
}

func (p *projectFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&p.manifestPath, "manifest-path", ".", "path to Cargo.toml or the directory containing it")
	fs.StringVarP(&p.pkg, "package", "p", "", "package to analyze")
	fs.BoolVar(&p.lib, "lib", false, "analyze the package's library target")
	fs.StringVar(&p.bin, "bin", "", "analyze the named binary target")
	fs.StringSliceVarP(&p.features, "features", "F", nil, "features to activate, comma or space separated")
	fs.BoolVar(&p.allFeatures, "all-features", false, "activate all available features")
	fs.BoolVar(&p.noDefaultFeatures, "no-default-features", false, "do not activate the default feature")
	fs.StringVar(&p.target, "target", "", "target triple for cfg evaluation (default: host)")
	cmd.MarkFlagsMutuallyExclusive("lib", "bin")
}

// project is a loaded and analyzed crate.
type project struct {
	pkg    *manifest.Package
	target manifest.Target
	crate  *crate.Snapshot
}

// Name returns the normalized crate name.
func (p *project) Name() string { return p.crate.Name() }

// load selects the package and target, resolves features and analyzes the
// target's crate.
func (p *projectFlags) load(ctx context.Context, a *app) (*project, error) {
	ws, err := manifest.Load(p.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	pkg, target, err := manifest.Select(ws, manifest.Selection{Package: p.pkg, Lib: p.lib, Bin: p.bin})
	if err != nil {
		return nil, err
	}

	var requested []string
	for _, f := range p.features {
		requested = append(requested, manifest.SplitFeatures(f)...)
	}
	features := pkg.ResolveFeatures(manifest.FeatureOptions{
		Features:          requested,
		AllFeatures:       p.allFeatures,
		NoDefaultFeatures: p.noDefaultFeatures,
	})

	triple := p.target
	if triple == "" {
		triple = cfg.HostTriple()
	}

	deps := make([]string, 0, len(pkg.Dependencies))
	for _, d := range pkg.Dependencies {
		deps = append(deps, d.Name)
	}
	// A binary can use its own package's library.
	if lib, ok := pkg.Lib(); ok && target.Kind == manifest.Bin {
		deps = append(deps, lib.CrateName())
	}

	a.log.WithField("package", pkg.Name).
		WithField("target", target.String()).
		WithField("features", features).
		WithField("triple", triple).
		Debug("analyzing crate")

	snap, err := analyzer.Analyze(ctx, analyzer.Options{
		CrateName:    target.CrateName(),
		RootFile:     target.Root,
		Env:          cfg.NewEnv(triple, features),
		Dependencies: deps,
		Log:          a.log,
	})
	if err != nil {
		return nil, err
	}
	return &project{pkg: pkg, target: target, crate: snap}, nil
}

// projectDir returns the directory of a --manifest-path value.
func projectDir(manifestPath string) string {
	if manifestPath == "" {
		return "."
	}
	if info, err := os.Stat(manifestPath); err == nil && !info.IsDir() {
		return filepath.Dir(manifestPath)
	}
	return manifestPath
}
