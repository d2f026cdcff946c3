package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/crateview/internal/config"
)

// TestGenerateConfigLoads verifies that the generated file loads back to the
// built-in defaults.
func TestGenerateConfigLoads(t *testing.T) {
	t.Parallel()
	content, err := generateConfig()
	if err != nil {
		t.Fatalf("generateConfig: %v", err)
	}
	if !strings.HasPrefix(content, "# crateview settings.") {
		t.Errorf("missing header comment:\n%s", content)
	}

	path := filepath.Join(t.TempDir(), config.FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	def := config.DefaultConfig()
	if cfg.Structure != def.Structure || cfg.Dependencies != def.Dependencies || cfg.Color != def.Color {
		t.Errorf("loaded %+v, want %+v", cfg, def)
	}
}

// TestInitCreatesFile verifies that init writes the settings file into the
// given directory.
func TestInitCreatesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if !strings.Contains(string(data), "sort_by: name") {
		t.Errorf("unexpected content:\n%s", data)
	}
	if !strings.Contains(stderr.String(), "wrote ") {
		t.Errorf("stderr: %q", stderr.String())
	}
}

// TestInitDryRun verifies that --dry-run prints the file and writes nothing.
func TestInitDryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"init", "--dry-run", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		t.Error("--dry-run should not create the file")
	}
	if !strings.Contains(stdout.String(), "layout: neato") {
		t.Errorf("dry-run output:\n%s", stdout.String())
	}
}

// TestInitRefusesOverwrite verifies that an existing file is kept unless
// --force is given.
func TestInitRefusesOverwrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	existing := "color: never\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := run([]string{"init", dir}, &stdout, &stderr)
	if !errors.Is(err, errConfigExists) {
		t.Fatalf("expected errConfigExists, got %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) != existing {
		t.Error("existing file was modified")
	}

	if err := run([]string{"init", "--force", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run --force: %v", err)
	}
	if data, _ := os.ReadFile(path); string(data) == existing {
		t.Error("--force did not overwrite the file")
	}
}

// TestInitIdempotent verifies that forced runs produce identical files.
func TestInitIdempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)

	var buf bytes.Buffer
	if err := run([]string{"init", dir}, &buf, &buf); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := run([]string{"init", "--force", dir}, &buf, &buf); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("init is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}
