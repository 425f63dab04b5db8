// Package diff compares two records key by key and renders the result for
// logs.
package diff

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/delaneyj/rxstate/internal/equal"
)

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined stands for the missing side of a key present in only one of the
// compared records.
var Undefined any = undefined{}

// Change is one differing key: either a pair of values or, when both sides
// are records, the changes inside them.
type Change struct {
	Before any
	After  any
	Nested Changeset
}

type Changeset map[string]Change

// Objects compares a and b shallowly by identity and descends into keys
// holding a record on both sides.
func Objects(a, b map[string]any) Changeset {
	changes := Changeset{}
	for k, before := range a {
		after, ok := b[k]
		if !ok {
			after = Undefined
		}
		if equal.Any(before, after) {
			continue
		}
		nestedA, okA := before.(map[string]any)
		nestedB, okB := after.(map[string]any)
		if okA && okB {
			changes[k] = Change{Before: before, After: after, Nested: Objects(nestedA, nestedB)}
			continue
		}
		changes[k] = Change{Before: before, After: after}
	}
	for k, after := range b {
		if _, ok := a[k]; !ok {
			changes[k] = Change{Before: Undefined, After: after}
		}
	}
	return changes
}

// FormatChangeset renders one line per changed key, sorted, nested changes
// indented under their key:
//
//	a:
//	  b: 1 => 2
//	c: "x" => undefined
func FormatChangeset(cs Changeset) string {
	var sb strings.Builder
	format(&sb, cs, 0)
	return sb.String()
}

func format(sb *strings.Builder, cs Changeset, depth int) {
	keys := make([]string, 0, len(cs))
	for k := range cs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		if depth > 0 || i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(k)
		sb.WriteByte(':')

		change := cs[k]
		if change.Nested != nil {
			format(sb, change.Nested, depth+1)
			continue
		}
		sb.WriteByte(' ')
		sb.WriteString(render(change.Before))
		sb.WriteString(" => ")
		sb.WriteString(render(change.After))
	}
}

func render(v any) string {
	if v == Undefined {
		return "undefined"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
