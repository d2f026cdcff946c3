package model

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		item Item
		want string
	}{
		{Item{Kind: Module, Qualifiers: Qualifiers{CrateRoot: true}}, "crate"},
		{Item{Kind: Module}, "mod"},
		{Item{Kind: Function}, "fn"},
		{Item{Kind: Function, Qualifiers: Qualifiers{Const: true}}, "const fn"},
		{Item{Kind: Function, Qualifiers: Qualifiers{Async: true, Unsafe: true}}, "async unsafe fn"},
		{Item{Kind: Trait, Qualifiers: Qualifiers{Unsafe: true}}, "unsafe trait"},
		{Item{Kind: TraitAlias}, "trait alias"},
		{Item{Kind: TypeAlias}, "type"},
		{Item{Kind: BuiltinType}, "builtin"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.item.KindString())
		})
	}
}

func TestVisibilityString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pub", VisPublic.String())
	assert.Equal(t, "pub(crate)", VisCrate.String())
	assert.Equal(t, "pub(in demo::a)", VisModule([]string{"demo", "a"}).String())
	assert.Equal(t, "pub(super)", VisSuper.String())
	assert.Equal(t, "pub(self)", VisPrivate.String())
}

func TestCompareVisibility(t *testing.T) {
	t.Parallel()

	ordered := []Visibility{
		VisPublic,
		VisCrate,
		VisModule([]string{"demo", "a"}),
		VisModule([]string{"demo", "b"}),
		VisSuper,
		VisPrivate,
	}
	shuffled := []Visibility{ordered[4], ordered[1], ordered[5], ordered[3], ordered[0], ordered[2]}
	slices.SortStableFunc(shuffled, CompareVisibility)

	for i := range ordered {
		assert.Equal(t, ordered[i].String(), shuffled[i].String(), "position %d", i)
	}
}

func TestCompareKind(t *testing.T) {
	t.Parallel()

	ordered := []Item{
		{Kind: Module, Qualifiers: Qualifiers{CrateRoot: true}},
		{Kind: Module},
		{Kind: Trait},
		{Kind: Trait, Qualifiers: Qualifiers{Unsafe: true}},
		{Kind: TypeAlias},
		{Kind: Struct},
		{Kind: Enum},
		{Kind: Variant},
		{Kind: Union},
		{Kind: BuiltinType},
		{Kind: Function, Qualifiers: Qualifiers{Const: true}},
		{Kind: Function, Qualifiers: Qualifiers{Async: true}},
		{Kind: Function, Qualifiers: Qualifiers{Unsafe: true}},
		{Kind: Function},
		{Kind: Const},
		{Kind: Static},
		{Kind: Macro},
	}

	for i := 0; i < len(ordered)-1; i++ {
		a, b := &ordered[i], &ordered[i+1]
		assert.Equal(t, -1, CompareKind(a, b), "%s should sort before %s", a.KindString(), b.KindString())
		assert.Equal(t, 1, CompareKind(b, a), "%s should sort after %s", b.KindString(), a.KindString())
	}
	assert.Equal(t, 0, CompareKind(&ordered[3], &ordered[3]))
}

func TestAnonymousPath(t *testing.T) {
	t.Parallel()

	var it Item
	assert.Equal(t, Anonymous, it.PathString())
	assert.Equal(t, Anonymous, it.Name())

	it.Path = []string{"demo", "a", "b"}
	assert.Equal(t, "demo::a::b", it.PathString())
	assert.Equal(t, "b", it.Name())
}

func TestAttrsStrings(t *testing.T) {
	t.Parallel()

	a := Attrs{Cfgs: []string{"test", `feature = "x"`}, Test: true}
	assert.Equal(t, []string{"#[cfg(test)]", `#[cfg(feature = "x")]`, "#[test]"}, a.Strings())
	assert.True(t, Attrs{}.IsEmpty())
}

func TestNormalizeCrateName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "my_crate", NormalizeCrateName("my-crate"))
	assert.Equal(t, []string{"a", "b"}, SplitPath("a::b"))
	assert.Nil(t, SplitPath(""))
}
