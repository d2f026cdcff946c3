// Package filter narrows a dependency graph or a structure tree to a focus
// expression, a depth limit and a set of kind selectors.
package filter

import (
	"errors"
	"fmt"

	"github.com/phobologic/crateview/internal/focus"
	"github.com/phobologic/crateview/internal/model"
)

// ErrNoFocusMatch is returned when the focus expression matches no item.
var ErrNoFocusMatch = errors.New("focus expression matched no items")

// Unbounded disables the depth limit.
const Unbounded = -1

// maxOwnerHops bounds the walk to the nearest kept owner.
const maxOwnerHops = 32

// Options selects what survives filtering. A false selector drops the
// matching items; the crate root and focus matches are never dropped.
type Options struct {
	Focus    string // use-tree expression, the crate root when empty
	MaxDepth int    // Unbounded or the number of hops from a focus match

	Externs  bool // items of other crates
	Sysroot  bool // items of std, core, alloc, proc_macro and test
	Types    bool // structs, unions, enums, variants, type aliases and builtins
	Traits   bool // traits and trait aliases
	Fns      bool // functions
	Modules  bool // modules other than the crate root
	Uses     bool // Uses edges
	Owns     bool // Owns edges
	Tests    bool // items only compiled for tests
	Privates bool // items with private visibility
}

// DefaultOptions keeps everything except test-only items.
func DefaultOptions() Options {
	return Options{
		MaxDepth: Unbounded,
		Externs:  true,
		Sysroot:  true,
		Types:    true,
		Traits:   true,
		Fns:      true,
		Modules:  true,
		Uses:     true,
		Owns:     true,
		Privates: true,
	}
}

// Selects reports whether it passes the kind, origin and visibility selectors.
func (o Options) Selects(it *model.Item) bool {
	if it.IsCrateRoot() {
		return true
	}
	switch {
	case it.Extern && !o.Externs:
		return false
	case it.Sysroot && !o.Sysroot:
		return false
	case it.Kind.IsType() && !o.Types:
		return false
	case it.Kind.IsTrait() && !o.Traits:
		return false
	case it.Kind == model.Function && !o.Fns:
		return false
	case it.Kind == model.Module && !o.Modules:
		return false
	case it.Attrs.TestOnly && !o.Tests:
		return false
	case it.Visibility.Kind == model.Private && !it.Extern && !o.Privates:
		return false
	}
	return true
}

func (o Options) withinDepth(d int) bool {
	return o.MaxDepth < 0 || d <= o.MaxDepth
}

// focusTree parses the focus expression, defaulting to the crate root.
func (o Options) focusTree(crateName string) (*focus.Tree, error) {
	expr := o.Focus
	if expr == "" {
		expr = "crate"
	}
	t, err := focus.Parse(expr, crateName)
	if err != nil {
		return nil, fmt.Errorf("parsing focus: %w", err)
	}
	return t, nil
}

func noMatch(o Options) error {
	expr := o.Focus
	if expr == "" {
		expr = "crate"
	}
	return fmt.Errorf("%w: %q", ErrNoFocusMatch, expr)
}
