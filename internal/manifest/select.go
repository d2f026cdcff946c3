package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/crateview/internal/model"
)

// ErrConflictingTargets is returned when both --lib and --bin are given.
var ErrConflictingTargets = errors.New("--lib and --bin are mutually exclusive")

// AmbiguousSelectionError is returned when several packages or targets are
// candidates and no disambiguator was given.
type AmbiguousSelectionError struct {
	What       string
	Candidates []string
}

func (e *AmbiguousSelectionError) Error() string {
	return fmt.Sprintf("multiple %ss found, specify one of: %s", e.What, strings.Join(e.Candidates, ", "))
}

// MissingSelectionError is returned when a named package or target does not exist.
type MissingSelectionError struct {
	What string
	Name string
}

func (e *MissingSelectionError) Error() string {
	return fmt.Sprintf("no %s named %q", e.What, e.Name)
}

// Selection holds the project-selection flags.
type Selection struct {
	Package string
	Lib     bool
	Bin     string
}

// Select picks one package and one of its targets.
func Select(ws *Workspace, sel Selection) (*Package, Target, error) {
	if sel.Lib && sel.Bin != "" {
		return nil, Target{}, ErrConflictingTargets
	}

	pkg, err := selectPackage(ws, sel.Package)
	if err != nil {
		return nil, Target{}, err
	}
	target, err := selectTarget(pkg, sel)
	if err != nil {
		return nil, Target{}, err
	}
	return pkg, target, nil
}

func selectPackage(ws *Workspace, name string) (*Package, error) {
	if name != "" {
		for _, p := range ws.Packages {
			if p.Name == name || model.NormalizeCrateName(p.Name) == model.NormalizeCrateName(name) {
				return p, nil
			}
		}
		return nil, &MissingSelectionError{What: "package", Name: name}
	}

	switch len(ws.Packages) {
	case 0:
		return nil, ErrNoPackages
	case 1:
		return ws.Packages[0], nil
	}
	names := make([]string, len(ws.Packages))
	for i, p := range ws.Packages {
		names[i] = p.Name
	}
	return nil, &AmbiguousSelectionError{What: "package", Candidates: names}
}

func selectTarget(pkg *Package, sel Selection) (Target, error) {
	switch {
	case sel.Lib:
		if t, ok := pkg.Lib(); ok {
			return t, nil
		}
		return Target{}, &MissingSelectionError{What: "lib target in package", Name: pkg.Name}
	case sel.Bin != "":
		for _, t := range pkg.Targets {
			if t.Kind == Bin && t.Name == sel.Bin {
				return t, nil
			}
		}
		return Target{}, &MissingSelectionError{What: "bin target", Name: sel.Bin}
	}

	switch len(pkg.Targets) {
	case 0:
		return Target{}, fmt.Errorf("package %s has no lib or bin targets", pkg.Name)
	case 1:
		return pkg.Targets[0], nil
	}
	names := make([]string, len(pkg.Targets))
	for i, t := range pkg.Targets {
		names[i] = t.String()
	}
	return Target{}, &AmbiguousSelectionError{What: "target", Candidates: names}
}
