package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/crateview/internal/config"
)

// errConfigExists is returned by init when the settings file is already
// there and --force was not given.
var errConfigExists = errors.New("settings file already exists (use --force to overwrite)")

const configHeader = `# crateview settings. Command-line flags take precedence over these values.
#
#   structure.sort_by       name, visibility or kind
#   dependencies.layout     none, dot, neato, twopi, circo, fdp or sfdp
#   dependencies.splines    none, line, spline or ortho
#   orphans.ignore          gitignore-style patterns skipped by the orphan scan
#   orphans.format          text or yaml
#   color                   auto, always or never
`

func newInitCmd(a *app) *cobra.Command {
	var (
		dryRun bool
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default " + config.FileName + " settings file",
		Long: `Write a settings file holding the built-in defaults to the given directory,
the current directory by default. An existing file is left alone unless
--force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := generateConfig()
			if err != nil {
				return err
			}

			if dryRun {
				_, err := fmt.Fprint(a.stdout, content)
				return err
			}

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.FileName)
			return writeConfig(path, content, force, a)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without creating the file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing settings file")
	return cmd
}

// generateConfig returns the default settings as a commented YAML document.
func generateConfig() (string, error) {
	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("encoding settings: %w", err)
	}
	return configHeader + "\n" + string(data), nil
}

func writeConfig(path, content string, force bool, a *app) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s: %w", path, errConfigExists)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	a.log.WithField("path", path).Debug("settings written")
	_, _ = fmt.Fprintf(a.stderr, "wrote %s\n", path)
	return nil
}
