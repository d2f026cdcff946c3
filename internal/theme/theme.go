// Package theme holds the colors of the terminal outline, the orphan report
// and the DOT node fills.
package theme

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/phobologic/crateview/internal/model"
)

// Color modes accepted by New.
const (
	Auto   = "auto"
	Always = "always"
	Never  = "never"
)

// Modes lists the accepted color modes.
var Modes = []string{Auto, Always, Never}

// rgb is a 24-bit color with its closest xterm-256 index.
type rgb struct {
	r, g, b int
	ansi    int
}

var (
	green  = rgb{129, 193, 105, 113}
	yellow = rgb{248, 192, 76, 221}
	orange = rgb{254, 148, 84, 209}
	olive  = rgb{194, 207, 92, 185}
	red    = rgb{220, 87, 87, 167}
	blue   = rgb{110, 143, 183, 67}
	gray   = rgb{128, 128, 128, 244}
	cyan   = rgb{86, 182, 194, 73}
)

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

// Palette renders colored terminal text. The zero value prints plain text.
type Palette struct {
	enabled   bool
	trueColor bool
}

// New picks a palette for output written to w. In Auto mode color is used
// when w is a terminal and NO_COLOR is unset; COLORTERM=truecolor or 24bit
// selects 24-bit escapes, anything else the 256-color fallback.
func New(mode string, w io.Writer, getenv func(string) string) *Palette {
	p := &Palette{}
	switch mode {
	case Always:
		p.enabled = true
	case Never:
		p.enabled = false
	default:
		p.enabled = getenv("NO_COLOR") == "" && isTerminal(w)
	}
	if ct := getenv("COLORTERM"); ct == "truecolor" || ct == "24bit" {
		p.trueColor = true
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Enabled reports whether escapes are emitted.
func (p *Palette) Enabled() bool { return p != nil && p.enabled }

func (p *Palette) paint(c rgb, s string, attrs ...color.Attribute) string {
	if !p.Enabled() {
		return s
	}
	var fg []color.Attribute
	if p.trueColor {
		fg = []color.Attribute{38, 2, color.Attribute(c.r), color.Attribute(c.g), color.Attribute(c.b)}
	} else {
		fg = []color.Attribute{38, 5, color.Attribute(c.ansi)}
	}
	out := color.New(append(fg, attrs...)...)
	out.EnableColor()
	return out.Sprint(s)
}

// Kind colors an item kind keyword.
func (p *Palette) Kind(s string) string { return p.paint(blue, s) }

// Name colors an item name.
func (p *Palette) Name(s string) string {
	if !p.Enabled() {
		return s
	}
	c := color.New(color.Bold)
	c.EnableColor()
	return c.Sprint(s)
}

// Visibility colors a visibility by its scope.
func (p *Palette) Visibility(v model.Visibility) string {
	return p.paint(visibilityColor(v), v.String())
}

// Attr colors an attribute.
func (p *Palette) Attr(s string) string { return p.paint(cyan, s) }

// Dim colors tree guides and secondary text.
func (p *Palette) Dim(s string) string { return p.paint(gray, s) }

// Warn colors a warning headline.
func (p *Palette) Warn(s string) string { return p.paint(yellow, s, color.Bold) }

// Path colors a file path.
func (p *Palette) Path(s string) string { return p.paint(olive, s) }

func visibilityColor(v model.Visibility) rgb {
	switch v.Kind {
	case model.Public:
		return green
	case model.Crate:
		return yellow
	case model.InModule:
		return orange
	case model.Super:
		return olive
	default:
		return red
	}
}

// FillColor returns the DOT fill color of an item node.
func FillColor(it *model.Item) string {
	switch {
	case it.IsCrateRoot():
		return blue.hex()
	case it.Extern:
		return gray.hex()
	}
	return visibilityColor(it.Visibility).hex()
}
