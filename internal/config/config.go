// Package config loads the optional .crateview.yaml settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/crateview/internal/dot"
	"github.com/phobologic/crateview/internal/orphans"
	"github.com/phobologic/crateview/internal/outline"
	"github.com/phobologic/crateview/internal/theme"
)

// FileName is the name of the settings file.
const FileName = ".crateview.yaml"

// Config holds every setting that can come from the file.
type Config struct {
	Structure    StructureConfig    `yaml:"structure"`
	Dependencies DependenciesConfig `yaml:"dependencies"`
	Orphans      OrphansConfig      `yaml:"orphans"`
	Color        string             `yaml:"color"`
}

// StructureConfig holds defaults for the structure command.
type StructureConfig struct {
	SortBy       string `yaml:"sort_by"`
	SortReversed bool   `yaml:"sort_reversed"`
}

// DependenciesConfig holds defaults for the dependencies command.
type DependenciesConfig struct {
	Layout  string `yaml:"layout"`
	Splines string `yaml:"splines"`
}

// OrphansConfig holds defaults for the orphans command.
type OrphansConfig struct {
	Ignore []string `yaml:"ignore"`
	Format string   `yaml:"format"`
}

// ErrConfigNotFound is returned when no settings file can be found.
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Structure:    StructureConfig{SortBy: outline.SortByName},
		Dependencies: DependenciesConfig{Layout: dot.DefaultLayout, Splines: dot.DefaultSplines},
		Orphans:      OrphansConfig{Format: orphans.FormatText},
		Color:        theme.Auto,
	}
}

// Load looks for the settings file from workDir upwards. Without one the
// defaults are returned.
func Load(workDir string) (*Config, error) {
	path, err := FindConfigFile(workDir)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the settings file at path, merges it over the defaults
// and validates the result. A missing file yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	merged := Merge(loaded, DefaultConfig())
	if err := Validate(merged); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return merged, nil
}

// FindConfigFile walks up from startDir to the first directory holding the
// settings file.
func FindConfigFile(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		candidate := filepath.Join(currentDir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// Merge fills the zero fields of loaded from defaults.
func Merge(loaded, defaults *Config) *Config {
	out := *loaded
	if out.Structure.SortBy == "" {
		out.Structure.SortBy = defaults.Structure.SortBy
	}
	if out.Dependencies.Layout == "" {
		out.Dependencies.Layout = defaults.Dependencies.Layout
	}
	if out.Dependencies.Splines == "" {
		out.Dependencies.Splines = defaults.Dependencies.Splines
	}
	if out.Orphans.Format == "" {
		out.Orphans.Format = defaults.Orphans.Format
	}
	if out.Orphans.Ignore == nil {
		out.Orphans.Ignore = slices.Clone(defaults.Orphans.Ignore)
	}
	if out.Color == "" {
		out.Color = defaults.Color
	}
	return &out
}

// Validate checks that every enumerated setting holds an accepted value.
func Validate(cfg *Config) error {
	checks := []struct {
		name  string
		value string
		valid []string
	}{
		{"structure.sort_by", cfg.Structure.SortBy, outline.SortKeys},
		{"dependencies.layout", cfg.Dependencies.Layout, dot.Layouts},
		{"dependencies.splines", cfg.Dependencies.Splines, dot.Splines},
		{"orphans.format", cfg.Orphans.Format, orphans.Formats},
		{"color", cfg.Color, theme.Modes},
	}
	for _, c := range checks {
		if !slices.Contains(c.valid, c.value) {
			return fmt.Errorf("%w: %s must be one of %v, got %q", ErrInvalidConfig, c.name, c.valid, c.value)
		}
	}
	return nil
}
