package tags_test

import (
	"math"
	"testing"

	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestEmptyIsSingleton(t *testing.T) {
	assert.Same(t, tags.Empty(), tags.Empty().Merge(tags.Empty()))
	assert.Same(t, tags.Empty(), tags.NewBuilder().Build())
	assert.True(t, tags.Empty().IsEmpty())
	assert.Equal(t, "{}", tags.Empty().String())
}

func TestMerge_IdentityShortCircuits(t *testing.T) {
	tg := tags.Of("foo", "bar")
	assert.Same(t, tg, tg.Merge(tags.Empty()))
	assert.Same(t, tg, tags.Empty().Merge(tg))
}

func TestMerge_UnionIsCommutative(t *testing.T) {
	a := tags.NewBuilder().AddString("tag", "abc").AddString("tag", "def").Build()
	b := tags.NewBuilder().AddString("tag", "abc").AddString("tag", "xyz").Build()

	expected := map[string][]any{"tag": {"abc", "def", "xyz"}}
	assert.Equal(t, expected, a.Merge(b).AsMap())
	assert.Equal(t, expected, b.Merge(a).AsMap())
	assert.Equal(t, "{tag=[abc, def, xyz]}", a.Merge(b).String())
}

func TestMerge_Associative(t *testing.T) {
	a := tags.Of("a", int64(1))
	b := tags.NewBuilder().AddInt("a", 2).Add("flag").Build()
	c := tags.NewBuilder().AddBool("a", true).AddString("z", "q").Build()

	assert.Equal(t, a.Merge(b).Merge(c).AsMap(), a.Merge(b.Merge(c)).AsMap())
}

func TestValueOrdering_MixedTypes(t *testing.T) {
	tg := tags.NewBuilder().
		AddFloat("mixed", 1.5).
		AddInt("mixed", 42).
		AddString("mixed", "zeta").
		AddBool("mixed", true).
		AddString("mixed", "alpha").
		AddInt("mixed", -7).
		AddBool("mixed", false).
		AddFloat("mixed", -0.5).
		AddString("mixed", "alpha").
		Add("bare").
		Build()

	assert.Equal(t, "{bare=[], mixed=[false, true, alpha, zeta, -7, 42, -0.5, 1.5]}", tg.String())
	assert.Equal(t, []string{"bare", "mixed"}, tg.Names())

	vals, ok := tg.Values("mixed")
	require.True(t, ok)
	assert.Len(t, vals, 8, "duplicates are removed")
	bare, ok := tg.Values("bare")
	assert.True(t, ok)
	assert.Empty(t, bare)
}

func TestBareTagThenValue(t *testing.T) {
	tg := tags.NewBuilder().Add("x").AddString("x", "v").Add("x").Build()
	assert.Equal(t, map[string][]any{"x": {"v"}}, tg.AsMap())
}

func TestInvalidNamesPanicAtTheCall(t *testing.T) {
	invalid := []string{"", "has space", "semi;colon", "quote\"", "new\nline"}
	for _, name := range invalid {
		t.Run(name, func(t *testing.T) {
			b := tags.NewBuilder()
			assert.Panics(t, func() { b.Add(name) })
			assert.Panics(t, func() { b.AddString(name, "v") })
			assert.Error(t, tags.ValidateName(name))
		})
	}
	assert.NoError(t, tags.ValidateName("request.id-2_x"))
}

func TestRejectsUnsupportedValues(t *testing.T) {
	assert.Panics(t, func() { tags.NewBuilder().AddFloat("f", math.NaN()) })
	assert.Panics(t, func() { tags.NewBuilder().AddValue("s", struct{}{}) })
	assert.Panics(t, func() { tags.Of("s", []string{"a"}) })
}

func TestAddValue_WidensNumbers(t *testing.T) {
	tg := tags.NewBuilder().AddValue("n", 3).AddValue("n", int32(3)).AddValue("f", float32(0.5)).Build()
	assert.Equal(t, map[string][]any{"n": {int64(3)}, "f": {0.5}}, tg.AsMap())
}

func TestBuildIsolatedFromBuilder(t *testing.T) {
	b := tags.NewBuilder().AddString("k", "a")
	first := b.Build()
	b.AddString("k", "b")
	assert.Equal(t, map[string][]any{"k": {"a"}}, first.AsMap())
	assert.Equal(t, map[string][]any{"k": {"a", "b"}}, b.Build().AsMap())
}

func TestAttributes(t *testing.T) {
	tg := tags.NewBuilder().
		Add("bare").
		AddInt("count", 3).
		AddString("multi", "a").
		AddInt("multi", 1).
		Build()

	assert.Equal(t, []attribute.KeyValue{
		attribute.Bool("bare", true),
		attribute.Int64("count", 3),
		attribute.StringSlice("multi", []string{"a", "1"}),
	}, tg.Attributes())
}
