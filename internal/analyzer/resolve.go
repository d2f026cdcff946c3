package analyzer

import (
	"slices"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/phobologic/crateview/internal/crate"
	"github.com/phobologic/crateview/internal/model"
	"github.com/phobologic/crateview/internal/parse"
)

// maxResolveDepth bounds import chains, which may be cyclic in broken code.
const maxResolveDepth = 16

// scope holds the names visible in one module.
type scope struct {
	id      crate.ItemID
	mod     *module
	parent  *scope
	names   map[string][]crate.ItemID
	imports map[string][]*importEntry
	globs   []*importEntry
}

type importEntry struct {
	path []string
}

type pendingRefs struct {
	from  crate.ItemID
	scope *scope
	self  crate.ItemID
	refs  []parse.Ref
}

type pendingUse struct {
	from  crate.ItemID
	scope *scope
	path  []string
}

type pendingImpl struct {
	scope *scope
	decl  *parse.Decl
	test  bool
}

// target is a resolution result: a local item or a path into another crate.
type target struct {
	id      crate.ItemID
	ext     []string
	sysroot bool
	kind    model.Kind
	known   bool // kind comes from the prelude table
	final   bool // further segments are members of the item and are dropped
}

func (t target) ok() bool { return t.id != crate.NoItem || len(t.ext) > 0 }

var noTarget = target{id: crate.NoItem}

type resolver struct {
	opts      Options
	log       logrus.FieldLogger
	b         *crate.Builder
	root      *module
	rootScope *scope
	scopes    map[crate.ItemID]*scope
	members   map[crate.ItemID]map[string][]crate.ItemID
	externs   map[string]string // name in code -> crate name
	active    map[*importEntry]bool

	refs  []pendingRefs
	uses  []pendingUse
	impls []pendingImpl
}

func newResolver(opts Options, root *module) *resolver {
	r := &resolver{
		opts:    opts,
		log:     opts.Log,
		b:       crate.NewBuilder(opts.CrateName),
		root:    root,
		scopes:  make(map[crate.ItemID]*scope),
		members: make(map[crate.ItemID]map[string][]crate.ItemID),
		externs: make(map[string]string),
		active:  make(map[*importEntry]bool),
	}
	for name := range sysrootCrates {
		r.externs[name] = name
	}
	for _, dep := range opts.Dependencies {
		name := model.NormalizeCrateName(dep)
		r.externs[name] = name
	}
	return r
}

func (r *resolver) build() *crate.Snapshot {
	rootID := r.b.Root()
	r.b.Item(rootID).FilePath = r.root.file
	r.declareModule(r.root, rootID, nil, false)

	for _, pi := range r.impls {
		r.declareImpl(pi)
	}

	for _, p := range r.refs {
		for _, ref := range p.refs {
			t := r.resolve(p.scope, ref.Segments, ref.Kind, p.self)
			r.reference(p.from, t, ref.Kind, false)
		}
	}
	for _, u := range r.uses {
		t := r.resolve(u.scope, u.path, parse.RefPath, crate.NoItem)
		r.reference(u.from, t, parse.RefPath, true)
	}

	return r.b.Snapshot()
}

func (r *resolver) reference(from crate.ItemID, t target, kind parse.RefKind, fromUse bool) {
	if !t.ok() {
		return
	}
	to := t.id
	if to == crate.NoItem {
		to = r.externItem(t, kind, fromUse)
	}
	if to != from {
		r.b.Reference(from, to)
	}
}

// declareModule creates the items declared in m, whose own item is id.
func (r *resolver) declareModule(m *module, id crate.ItemID, parent *scope, test bool) *scope {
	s := &scope{
		id:      id,
		mod:     m,
		parent:  parent,
		names:   make(map[string][]crate.ItemID),
		imports: make(map[string][]*importEntry),
	}
	r.scopes[id] = s
	if parent == nil {
		r.rootScope = s
	}

	if len(m.refs) > 0 {
		r.refs = append(r.refs, pendingRefs{from: id, scope: s, self: crate.NoItem, refs: m.refs})
	}

	for _, d := range m.decls {
		enabled := r.opts.Env.Enabled(cfgArgs(d.Attrs))
		itemTest := test || isTestAttr(d.Attrs) || r.testOnlyCfg(d.Attrs)

		switch d.Kind {
		case parse.DeclMod:
			child := m.children[d]
			if child == nil {
				continue
			}
			if child.disabled || !enabled || !r.opts.Env.Enabled(cfgArgs(child.inner)) {
				r.b.DeclareSubmodule(id, d.Name)
				continue
			}
			itemTest = itemTest || r.testOnlyCfg(child.inner)
			cid := r.b.DeclareItem(id, model.Item{
				Kind:       model.Module,
				Path:       []string{d.Name},
				Visibility: r.visibility(d.Vis, m),
				Attrs:      r.attrs(append(slices.Clone(d.Attrs), child.inner...), itemTest),
				FilePath:   child.file,
			})
			s.names[d.Name] = append(s.names[d.Name], cid)
			if len(d.Refs) > 0 {
				r.refs = append(r.refs, pendingRefs{from: cid, scope: s, self: crate.NoItem, refs: d.Refs})
			}
			r.declareModule(child, cid, s, itemTest)
			continue
		}

		if !enabled {
			continue
		}

		switch d.Kind {
		case parse.DeclUse:
			for _, u := range d.Uses {
				if len(u.Segments) == 0 {
					continue
				}
				entry := &importEntry{path: u.Segments}
				if u.Glob {
					s.globs = append(s.globs, entry)
				} else if name := u.Name(); name != "_" && name != "self" {
					s.imports[name] = append(s.imports[name], entry)
				}
				r.uses = append(r.uses, pendingUse{from: id, scope: s, path: u.Segments})
			}

		case parse.DeclExternCrate:
			alias := d.Alias
			if alias == "" {
				alias = d.Name
			}
			if d.Name != "self" && alias != "_" {
				r.externs[alias] = model.NormalizeCrateName(d.Name)
			}

		case parse.DeclImpl:
			r.impls = append(r.impls, pendingImpl{scope: s, decl: d, test: itemTest})

		default:
			kind, ok := d.Kind.ItemKind()
			if !ok || d.Name == "" {
				continue
			}
			vis := r.visibility(d.Vis, m)
			exported := kind == model.Macro && hasAttr(d.Attrs, "macro_export")
			if exported {
				vis = model.VisPublic
			}
			iid := r.b.DeclareItem(id, model.Item{
				Kind:       kind,
				Qualifiers: d.Qualifiers,
				Path:       []string{d.Name},
				Visibility: vis,
				Attrs:      r.attrs(d.Attrs, itemTest),
			})
			s.names[d.Name] = append(s.names[d.Name], iid)
			if exported && s != r.rootScope {
				r.rootScope.names[d.Name] = append(r.rootScope.names[d.Name], iid)
			}

			self := crate.NoItem
			if kind.IsAdt() {
				self = iid
			}
			if len(d.Refs) > 0 {
				r.refs = append(r.refs, pendingRefs{from: iid, scope: s, self: self, refs: d.Refs})
			}
		}
	}
	return s
}

// declareImpl attaches the members of an impl block to its local Adt.
// Impls of types from other crates are dropped.
func (r *resolver) declareImpl(pi pendingImpl) {
	d := pi.decl
	if len(d.SelfType) == 0 {
		return
	}
	t := r.resolve(pi.scope, d.SelfType, parse.RefType, crate.NoItem)
	if t.id == crate.NoItem || !r.b.Item(t.id).Kind.IsAdt() {
		r.log.WithField("type", strings.Join(d.SelfType, "::")).Debug("skipping impl of non-local type")
		return
	}
	adt := t.id
	adtTest := r.b.Item(adt).Attrs.TestOnly

	var (
		items []model.Item
		decls []*parse.Decl
	)
	for _, m := range d.Members {
		if m.Name == "" || !r.opts.Env.Enabled(cfgArgs(m.Attrs)) {
			continue
		}
		kind, ok := m.Kind.ItemKind()
		if !ok {
			continue
		}
		vis := r.visibility(m.Vis, pi.scope.mod)
		if len(d.Trait) > 0 {
			vis = model.VisPublic
		}
		test := pi.test || adtTest || isTestAttr(m.Attrs) || r.testOnlyCfg(m.Attrs)
		items = append(items, model.Item{
			Kind:       kind,
			Qualifiers: m.Qualifiers,
			Path:       []string{m.Name},
			Visibility: vis,
			Attrs:      r.attrs(m.Attrs, test),
		})
		decls = append(decls, m)
	}

	ids := r.b.Impl(adt, strings.Join(d.Trait, "::"), items...)
	if r.members[adt] == nil {
		r.members[adt] = make(map[string][]crate.ItemID)
	}
	for i, id := range ids {
		name := decls[i].Name
		r.members[adt][name] = append(r.members[adt][name], id)
		if len(decls[i].Refs) > 0 {
			r.refs = append(r.refs, pendingRefs{from: id, scope: pi.scope, self: adt, refs: decls[i].Refs})
		}
	}
	if len(d.Refs) > 0 {
		r.refs = append(r.refs, pendingRefs{from: adt, scope: pi.scope, self: adt, refs: d.Refs})
	}
}

func (r *resolver) attrs(attrs []parse.Attr, testOnly bool) model.Attrs {
	return model.Attrs{
		Cfgs:     cfgArgs(attrs),
		Test:     isTestAttr(attrs),
		TestOnly: testOnly,
	}
}

func (r *resolver) testOnlyCfg(attrs []parse.Attr) bool {
	for _, c := range cfgArgs(attrs) {
		if r.opts.Env.IsTestOnly(c) {
			return true
		}
	}
	return false
}

func isTestAttr(attrs []parse.Attr) bool {
	for _, a := range attrs {
		if a.Name == "test" || strings.HasSuffix(a.Name, "::test") {
			return true
		}
	}
	return false
}

func hasAttr(attrs []parse.Attr, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// visibility resolves a written visibility in module m.
func (r *resolver) visibility(v parse.Vis, m *module) model.Visibility {
	switch v.Kind {
	case model.Public:
		return model.VisPublic
	case model.Crate:
		return model.VisCrate
	case model.Super:
		return model.VisSuper
	case model.InModule:
		return model.VisModule(r.absoluteModulePath(v.Path, m))
	}
	return model.VisPrivate
}

func (r *resolver) absoluteModulePath(segs []string, m *module) []string {
	if len(segs) == 0 {
		return slices.Clone(m.path)
	}
	switch segs[0] {
	case "crate":
		return append([]string{r.root.path[0]}, segs[1:]...)
	case "self":
		return append(slices.Clone(m.path), segs[1:]...)
	case "super":
		cur := m
		i := 0
		for ; i < len(segs) && segs[i] == "super"; i++ {
			if cur.parent != nil {
				cur = cur.parent
			}
		}
		return append(slices.Clone(cur.path), segs[i:]...)
	}
	return append([]string{r.root.path[0]}, segs...)
}

// resolve resolves a path as seen from scope s. self is the Adt that Self
// refers to, if any.
func (r *resolver) resolve(s *scope, segs []string, kind parse.RefKind, self crate.ItemID) target {
	return r.resolveDepth(s, segs, kind, self, 0)
}

func (r *resolver) resolveDepth(s *scope, segs []string, kind parse.RefKind, self crate.ItemID, depth int) target {
	if len(segs) == 0 || depth > maxResolveDepth {
		return noTarget
	}
	if kind == parse.RefMacro && len(segs) == 1 {
		return r.resolveMacro(s, segs[0], depth)
	}

	first, rest := segs[0], segs[1:]
	var cur target
	switch first {
	case "crate", "$crate":
		cur = target{id: r.b.Root()}
	case "self":
		cur = target{id: s.id}
	case "super":
		up := s
		for {
			if up.parent != nil {
				up = up.parent
			}
			if len(rest) == 0 || rest[0] != "super" {
				break
			}
			rest = rest[1:]
		}
		cur = target{id: up.id}
	case "Self":
		if self == crate.NoItem {
			return noTarget
		}
		cur = target{id: self}
	default:
		cur = r.lookupFirst(s, first, kind, len(rest) > 0, depth)
	}

	for i, seg := range rest {
		if !cur.ok() || cur.final {
			break
		}
		last := i == len(rest)-1
		cur = r.step(cur, seg, kind, last, depth)
	}
	return cur
}

// lookupFirst resolves the first segment of a relative path.
func (r *resolver) lookupFirst(s *scope, name string, kind parse.RefKind, hasMore bool, depth int) target {
	if t := r.lookupIn(s, name, kind, hasMore, depth); t.ok() {
		return t
	}

	if crateName, ok := r.externs[name]; ok {
		return target{id: crate.NoItem, ext: []string{crateName}, sysroot: sysrootCrates[crateName], kind: model.Module, known: true}
	}
	if primitives[name] {
		return target{id: crate.NoItem, ext: []string{name}, sysroot: true, kind: model.BuiltinType, known: true, final: true}
	}
	if p, ok := prelude[name]; ok {
		return target{id: crate.NoItem, ext: p.path, sysroot: true, kind: p.kind, known: true, final: true}
	}

	// A name from a glob import of another crate.
	var extGlob *target
	for _, g := range s.globs {
		if r.active[g] {
			continue
		}
		r.active[g] = true
		gt := r.resolveDepth(s, g.path, parse.RefPath, crate.NoItem, depth+1)
		delete(r.active, g)
		if gt.id == crate.NoItem && len(gt.ext) > 0 && !gt.final {
			if extGlob != nil {
				return noTarget
			}
			t := target{id: crate.NoItem, ext: append(slices.Clone(gt.ext), name), sysroot: gt.sysroot}
			extGlob = &t
		}
	}
	if extGlob != nil {
		return *extGlob
	}
	return noTarget
}

// lookupIn finds name among the declarations, imports and globs of s.
func (r *resolver) lookupIn(s *scope, name string, kind parse.RefKind, hasMore bool, depth int) target {
	if depth > maxResolveDepth {
		return noTarget
	}
	if id := pick(r.b, s.names[name], kind, hasMore); id != crate.NoItem {
		return target{id: id}
	}

	for _, e := range s.imports[name] {
		if r.active[e] {
			continue
		}
		r.active[e] = true
		t := r.resolveDepth(s, e.path, kind, crate.NoItem, depth+1)
		delete(r.active, e)
		if t.ok() {
			return t
		}
	}

	for _, g := range s.globs {
		if r.active[g] {
			continue
		}
		r.active[g] = true
		gt := r.resolveDepth(s, g.path, parse.RefPath, crate.NoItem, depth+1)
		var t target
		if gt.id != crate.NoItem {
			if gs, ok := r.scopes[gt.id]; ok {
				t = r.lookupIn(gs, name, kind, hasMore, depth+1)
			}
		}
		delete(r.active, g)
		if t.ok() {
			return t
		}
	}
	return noTarget
}

// step resolves one more path segment below cur.
func (r *resolver) step(cur target, seg string, kind parse.RefKind, last bool, depth int) target {
	if cur.id == crate.NoItem {
		next := target{id: crate.NoItem, ext: append(slices.Clone(cur.ext), seg), sysroot: cur.sysroot}
		if isTypeName(seg) {
			next.final = true
		}
		return next
	}

	it := r.b.Item(cur.id)
	switch {
	case it.Kind == model.Module:
		s, ok := r.scopes[cur.id]
		if !ok {
			return markFinal(cur)
		}
		if t := r.lookupIn(s, seg, kind, !last, depth+1); t.ok() {
			return t
		}
	case it.Kind.IsAdt() || it.Kind == model.TypeAlias:
		if ids := r.members[cur.id][seg]; len(ids) > 0 {
			return target{id: ids[0], final: true}
		}
	}
	// Variants, trait items and unresolvable tails collapse to the deepest
	// item found.
	return markFinal(cur)
}

func markFinal(t target) target {
	t.final = true
	return t
}

// resolveMacro resolves a single-segment macro name. macro_rules macros are
// textually scoped, so enclosing modules are searched too.
func (r *resolver) resolveMacro(s *scope, name string, depth int) target {
	for sc := s; sc != nil; sc = sc.parent {
		if id := pick(r.b, sc.names[name], parse.RefMacro, false); id != crate.NoItem {
			return target{id: id}
		}
	}
	if id := pick(r.b, r.rootScope.names[name], parse.RefMacro, false); id != crate.NoItem {
		return target{id: id}
	}
	for _, e := range s.imports[name] {
		if r.active[e] {
			continue
		}
		r.active[e] = true
		t := r.resolveDepth(s, e.path, parse.RefPath, crate.NoItem, depth+1)
		delete(r.active, e)
		if t.ok() {
			return t
		}
	}
	if stdMacros[name] {
		return target{id: crate.NoItem, ext: []string{"std", name}, sysroot: true, kind: model.Macro, known: true, final: true}
	}
	return noTarget
}

// pick chooses among same-named items by the namespace the reference needs.
func pick(b *crate.Builder, ids []crate.ItemID, kind parse.RefKind, hasMore bool) crate.ItemID {
	if len(ids) == 0 {
		return crate.NoItem
	}

	var prefer func(model.Kind) bool
	switch {
	case kind == parse.RefMacro:
		for _, id := range ids {
			if b.Item(id).Kind == model.Macro {
				return id
			}
		}
		return crate.NoItem
	case hasMore:
		prefer = func(k model.Kind) bool { return k == model.Module || k.IsAdt() || k.IsTrait() || k == model.TypeAlias }
	case kind == parse.RefType:
		prefer = func(k model.Kind) bool { return k.IsType() || k.IsTrait() }
	case kind == parse.RefCall:
		prefer = func(k model.Kind) bool { return k == model.Function || k == model.Struct }
	default:
		prefer = func(k model.Kind) bool { return k != model.Macro }
	}

	for _, id := range ids {
		if prefer(b.Item(id).Kind) {
			return id
		}
	}
	for _, id := range ids {
		if b.Item(id).Kind != model.Macro {
			return id
		}
	}
	return crate.NoItem
}

// externItem materializes a path into another crate as an extern item.
func (r *resolver) externItem(t target, kind parse.RefKind, fromUse bool) crate.ItemID {
	k := t.kind
	if !t.known {
		k = guessKind(t.ext, kind, fromUse)
	}
	return r.b.Extern(t.ext, k, t.sysroot)
}

// guessKind infers the kind of an item from another crate by its name.
func guessKind(path []string, kind parse.RefKind, fromUse bool) model.Kind {
	if kind == parse.RefMacro {
		return model.Macro
	}
	if len(path) == 1 {
		return model.Module
	}
	name := path[len(path)-1]
	switch {
	case isConstName(name):
		return model.Const
	case isTypeName(name):
		return model.Struct
	case fromUse:
		return model.Module
	}
	return model.Function
}

func isTypeName(name string) bool {
	if name == "" || !unicode.IsUpper(rune(name[0])) {
		return false
	}
	return strings.IndexFunc(name, unicode.IsLower) >= 0
}

func isConstName(name string) bool {
	if len(name) < 2 || !unicode.IsUpper(rune(name[0])) {
		return false
	}
	return strings.IndexFunc(name, unicode.IsLower) < 0
}
