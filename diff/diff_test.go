package diff_test

import (
	"testing"

	"github.com/delaneyj/rxstate/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjects(t *testing.T) {
	shared := []int{1}
	a := map[string]any{
		"same":    1,
		"list":    shared,
		"changed": "x",
		"gone":    true,
		"nested":  map[string]any{"n": 1, "keep": 2},
	}
	b := map[string]any{
		"same":    1,
		"list":    shared,
		"changed": "y",
		"added":   3.5,
		"nested":  map[string]any{"n": 2, "keep": 2},
	}

	cs := diff.Objects(a, b)
	require.Len(t, cs, 4)
	assert.Equal(t, diff.Change{Before: "x", After: "y"}, cs["changed"])
	assert.Equal(t, diff.Undefined, cs["gone"].After)
	assert.Equal(t, diff.Undefined, cs["added"].Before)
	assert.Equal(t, diff.Changeset{"n": {Before: 1, After: 2}}, cs["nested"].Nested)
}

func TestObjectsComparesSlicesByIdentity(t *testing.T) {
	cs := diff.Objects(map[string]any{"l": []int{1}}, map[string]any{"l": []int{1}})
	assert.Contains(t, cs, "l")
}

func TestFormatChangeset(t *testing.T) {
	cs := diff.Objects(
		map[string]any{"b": "x", "a": map[string]any{"n": 1}},
		map[string]any{"a": map[string]any{"n": 2}, "c": []string{"y"}},
	)
	want := "a:\n" +
		"  n: 1 => 2\n" +
		"b: \"x\" => undefined\n" +
		"c: undefined => [\"y\"]"
	assert.Equal(t, want, diff.FormatChangeset(cs))
	assert.Empty(t, diff.FormatChangeset(diff.Changeset{}))
}
