package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	t.Parallel()

	base := NewStd("suite not found")
	ee := New(base).
		Component("datastore").
		Category(CategoryNotFound).
		Context("suite_id", 42).
		Build()

	assert.Equal(t, "suite not found", ee.Error())
	assert.Equal(t, "datastore", ee.GetComponent())
	assert.Equal(t, string(CategoryNotFound), ee.GetCategory())
	assert.Equal(t, 42, ee.GetContext()["suite_id"])
	assert.False(t, ee.GetTimestamp().IsZero())
}

func TestDefaultCategory(t *testing.T) {
	t.Parallel()

	ee := Newf("boom %d", 7).Build()
	assert.Equal(t, string(CategoryGeneric), ee.GetCategory())
	assert.Equal(t, "boom 7", ee.GetMessage())
}

func TestUnwrapChain(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("reading template: %w", ErrHeaderNotFound)
	ee := Wrap(wrapped).Category(CategoryCSVParsing).Build()

	require.True(t, Is(ee, ErrHeaderNotFound))

	var target *EnhancedError
	require.True(t, As(ee, &target))
	assert.Equal(t, CategoryCSVParsing, target.Category)
}

func TestIsMatchesCategory(t *testing.T) {
	t.Parallel()

	a := New(NewStd("a")).Category(CategoryMerge).Build()
	b := New(NewStd("b")).Category(CategoryMerge).Build()
	c := New(NewStd("c")).Category(CategoryImport).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

func TestContextIsCopied(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("x")).Context("k", "v").Build()
	got := ee.GetContext()
	got["k"] = "mutated"

	assert.Equal(t, "v", ee.GetContext()["k"])
}
