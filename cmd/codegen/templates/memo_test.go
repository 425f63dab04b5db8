package templates_test

import (
	"strings"
	"testing"

	"github.com/delaneyj/rxstate/cmd/codegen/templates"
	"github.com/stretchr/testify/assert"
)

func TestMemoGen(t *testing.T) {
	out := templates.MemoGen(2)
	assert.True(t, strings.HasPrefix(out, "// Code generated by cmd/codegen. DO NOT EDIT."))
	assert.Contains(t, out, "func Memo1[S, V0, R any](")
	assert.Contains(t, out, "func Memo2[S, V0, V1, R any](")
	assert.Contains(t, out, "// Memo2 memoizes combine over 2 input selectors.")
	assert.NotContains(t, out, "func Memo3[")
}

func TestMemoGenNumbersInputs(t *testing.T) {
	out := templates.MemoGen(3)
	assert.Contains(t, out, "func Memo3[S, V0, V1, V2, R any](")
	assert.Contains(t, out, "combine func(V0, V1, V2) R,")
	assert.Contains(t, out, "last = combine(v0, v1, v2)")
	assert.Contains(t, out, "combine func(V0) R,")
}
