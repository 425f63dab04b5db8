package immutable

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/rxstate/internal/equal"
)

// SetIndex returns a copy of s with s[i] set to v.
func SetIndex[T any](s []T, i int, v T) []T {
	if equal.Values(s[i], v) {
		return s
	}
	out := make([]T, len(s))
	copy(out, s)
	out[i] = v
	return out
}

// Splice removes deleteCount elements at start and inserts items in their
// place. A negative start counts back from the end; start and deleteCount
// are clamped to the slice. Deleting nothing and inserting nothing returns s.
func Splice[T any](s []T, start, deleteCount int, items ...T) []T {
	if deleteCount == 0 && len(items) == 0 {
		return s
	}

	if start < 0 {
		start += len(s)
	}
	start = max(0, min(start, len(s)))
	deleteCount = max(0, min(deleteCount, len(s)-start))

	out := make([]T, 0, len(s)-deleteCount+len(items))
	out = append(out, s[:start]...)
	out = append(out, items...)
	out = append(out, s[start+deleteCount:]...)
	return out
}

func Insert[T any](s []T, index int, v T) []T {
	return Splice(s, index, 0, v)
}

// Push returns a copy of s with v appended. It never shares s's backing
// array.
func Push[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

// Filter keeps the elements keep returns true for, returning s when it keeps
// all of them.
func Filter[T any](s []T, keep func(T) bool) []T {
	var out []T
	dropped := false
	for i, v := range s {
		if keep(v) {
			if dropped {
				out = append(out, v)
			}
			continue
		}
		if !dropped {
			dropped = true
			out = make([]T, i, len(s))
			copy(out, s[:i])
		}
	}
	if !dropped {
		return s
	}
	return out
}

// Map replaces every element with fn(element, index), returning s when fn
// changes nothing.
func Map[T any](s []T, fn func(v T, i int) T) []T {
	var out []T
	for i, v := range s {
		updated := fn(v, i)
		if out == nil && equal.Values(updated, v) {
			continue
		}
		if out == nil {
			out = make([]T, len(s))
			copy(out, s)
		}
		out[i] = updated
	}
	if out == nil {
		return s
	}
	return out
}

// Union appends the elements of source that target lacks. The result holds
// each element once.
func Union[T comparable](target, source []T) []T {
	seen := mapset.NewThreadUnsafeSet[T]()
	for _, v := range target {
		seen.Add(v)
	}
	if seen.Contains(source...) {
		return target
	}

	out := make([]T, 0, seen.Cardinality()+len(source))
	seen.Clear()
	for _, v := range target {
		if seen.Add(v) {
			out = append(out, v)
		}
	}
	for _, v := range source {
		if seen.Add(v) {
			out = append(out, v)
		}
	}
	return out
}

// Compose chains f and g.
func Compose[A, B, C any](f func(A) B, g func(B) C) func(A) C {
	return func(a A) C {
		return g(f(a))
	}
}

func Compose3[A, B, C, D any](f func(A) B, g func(B) C, h func(C) D) func(A) D {
	return func(a A) D {
		return h(g(f(a)))
	}
}
