// Package discover finds the source files a module could declare as
// submodules.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sirupsen/logrus"

	"github.com/phobologic/crateview/internal/lang"
)

// Candidate is a source file that could back a submodule.
type Candidate struct {
	Name string // submodule name
	Path string // absolute path of the file
}

// ModuleDir returns the directory in which the submodules of the module
// backed by file live: the file's own directory for lib.rs, main.rs and
// mod.rs, otherwise a sibling directory named after the file stem.
func ModuleDir(file string) string {
	parent := filepath.Dir(file)
	switch stem := FileStem(file); stem {
	case "lib", "main", "mod":
		return parent
	default:
		return filepath.Join(parent, stem)
	}
}

// FileStem returns the base name of path without its extension.
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsPossibleIdentifier reports whether name could be a module name:
// lowercase ASCII letters, digits and underscores, not starting with a digit.
func IsPossibleIdentifier(name string) bool {
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

// Candidates lists the files in dir that could back a submodule: x.rs for any
// possible identifier x other than lib, main and mod, and x/mod.rs. A name
// that exists in both forms is reported once, as the file form.
// Unreadable directories yield no candidates and are logged at debug level.
func Candidates(dir string, ign *Ignore, log logrus.FieldLogger) []Candidate {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).WithField("dir", dir).Debug("skipping unreadable directory")
		}
		return nil
	}

	byName := make(map[string]Candidate)
	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(dir, name)

		switch {
		case e.Type().IsRegular() && lang.IsSourceFile(name):
			stem := strings.TrimSuffix(name, lang.SourceExt)
			switch stem {
			case "lib", "main", "mod":
				continue
			}
			if !IsPossibleIdentifier(stem) || ign.Matches(path, false) {
				continue
			}
			byName[stem] = Candidate{Name: stem, Path: path}

		case e.IsDir():
			if !IsPossibleIdentifier(name) || ign.Matches(path, true) {
				continue
			}
			if _, ok := byName[name]; ok {
				continue
			}
			modFile := filepath.Join(path, "mod"+lang.SourceExt)
			info, err := os.Stat(modFile)
			if err != nil {
				if !os.IsNotExist(err) {
					log.WithError(err).WithField("file", modFile).Debug("skipping unreadable entry")
				}
				continue
			}
			if !info.Mode().IsRegular() || ign.Matches(modFile, false) {
				continue
			}
			byName[name] = Candidate{Name: name, Path: modFile}
		}
	}

	out := make([]Candidate, 0, len(byName))
	for _, c := range byName {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Ignore decides which candidate paths are excluded from orphan reports.
// Inside a git repository, files git does not know about or ignores are
// excluded; otherwise the root's .gitignore applies. Extra patterns use
// gitignore syntax and are matched relative to root.
type Ignore struct {
	root     string
	gitFiles map[string]struct{}
	gi       *ignore.GitIgnore
	extra    *ignore.GitIgnore
}

// NewIgnore builds the ignore rules for a package rooted at root.
func NewIgnore(root string, patterns []string) *Ignore {
	ig := &Ignore{root: root}
	ig.gitFiles = gitLsFiles(root)
	if ig.gitFiles == nil {
		ig.gi = loadGitignore(root)
	}
	if len(patterns) > 0 {
		ig.extra = ignore.CompileIgnoreLines(patterns...)
	}
	return ig
}

// Matches reports whether path is excluded. A nil Ignore excludes nothing.
func (ig *Ignore) Matches(path string, isDir bool) bool {
	if ig == nil {
		return false
	}
	rel, err := filepath.Rel(ig.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)

	if ig.extra != nil && (ig.extra.MatchesPath(rel) || isDir && ig.extra.MatchesPath(rel+"/")) {
		return true
	}
	if ig.gitFiles != nil {
		if isDir {
			return false
		}
		_, ok := ig.gitFiles[rel]
		return !ok
	}
	return ig.gi != nil && (ig.gi.MatchesPath(rel) || isDir && ig.gi.MatchesPath(rel+"/"))
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
