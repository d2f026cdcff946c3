// crateview inspects the module tree of a Rust crate: it prints an outline of
// the crate's items, a Graphviz dependency graph between them, or a report of
// source files that no module declares.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phobologic/crateview/internal/config"
	"github.com/phobologic/crateview/internal/graph"
	"github.com/phobologic/crateview/internal/theme"
)

var version = "dev"

// Exit codes.
const (
	exitFailure = 1
	exitCycle   = 2
	exitOrphans = 1
)

// errOrphansFound is returned by `orphans --deny` when the report is not empty.
var errOrphansFound = errors.New("orphaned modules found")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var cycle *graph.CycleError
	switch {
	case errors.As(err, &cycle):
		return exitCycle
	case errors.Is(err, errOrphansFound):
		return exitOrphans
	}
	return exitFailure
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.Execute()
}

// app is the state shared by all commands of one invocation.
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	verbose    bool
	configPath string
	color      string
	log        *logrus.Logger
	getenv     func(string) string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, getenv: os.Getenv}

	root := &cobra.Command{
		Use:   "crateview",
		Short: "Inspect the structure and internal dependencies of a Rust crate",
		Long: `crateview reads a crate's Cargo.toml and source tree and shows how the crate
is put together.

  structure      print the module tree and the items it declares
  dependencies   print a Graphviz DOT graph of items and their references
  orphans        report .rs files that no module declares
  init           write a default ` + config.FileName + ` settings file`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.log = logrus.New()
			a.log.SetOutput(a.stderr)
			a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
			if a.verbose {
				a.log.SetLevel(logrus.DebugLevel)
			} else {
				a.log.SetLevel(logrus.WarnLevel)
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("crateview {{.Version}}\n")

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "settings file (default: "+config.FileName+" in the manifest directory or above)")
	root.PersistentFlags().StringVar(&a.color, "color", "", "colorize output: auto, always or never")

	root.AddCommand(
		newStructureCmd(a),
		newDependenciesCmd(a),
		newOrphansCmd(a),
		newInitCmd(a),
	)
	return root
}

// loadConfig reads the settings for a project at manifestPath. An explicit
// --config must exist.
func (a *app) loadConfig(manifestPath string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		if _, statErr := os.Stat(a.configPath); statErr != nil {
			return nil, fmt.Errorf("config file: %w", statErr)
		}
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load(projectDir(manifestPath))
	}
	if err != nil {
		return nil, err
	}
	if a.color != "" {
		cfg.Color = a.color
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	a.log.WithField("color", cfg.Color).Debug("settings loaded")
	return cfg, nil
}

func (a *app) palette(cfg *config.Config) *theme.Palette {
	return theme.New(cfg.Color, a.stdout, a.getenv)
}
