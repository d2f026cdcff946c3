package manifest

import (
	"sort"
	"strings"
)

// FeatureOptions holds the feature-selection flags.
type FeatureOptions struct {
	Features          []string
	AllFeatures       bool
	NoDefaultFeatures bool
}

// SplitFeatures splits a --features value on commas and whitespace.
func SplitFeatures(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// ResolveFeatures returns the sorted set of enabled features, expanding
// feature dependencies transitively.
func (p *Package) ResolveFeatures(opts FeatureOptions) []string {
	enabled := make(map[string]bool)
	var queue []string
	enable := func(f string) {
		if f == "" || enabled[f] {
			return
		}
		enabled[f] = true
		queue = append(queue, f)
	}

	for _, f := range opts.Features {
		enable(f)
	}
	if !opts.NoDefaultFeatures {
		if _, ok := p.Features["default"]; ok {
			enable("default")
		}
	}
	if opts.AllFeatures {
		for f := range p.Features {
			enable(f)
		}
		for _, d := range p.Dependencies {
			if d.Optional {
				enable(d.Name)
			}
		}
	}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		for _, v := range p.Features[f] {
			switch {
			case strings.HasPrefix(v, "dep:"):
			case strings.Contains(v, "?/"):
			case strings.Contains(v, "/"):
				dep := v[:strings.IndexByte(v, '/')]
				if p.isOptional(dep) {
					enable(dep)
				}
			default:
				enable(v)
			}
		}
	}

	out := make([]string, 0, len(enabled))
	for f := range enabled {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (p *Package) isOptional(name string) bool {
	for _, d := range p.Dependencies {
		if d.Optional && d.Name == strings.ReplaceAll(name, "-", "_") {
			return true
		}
	}
	return false
}
