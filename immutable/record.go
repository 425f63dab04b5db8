// Package immutable updates nested records and slices by copying. Every
// helper returns its input unchanged, the same map or the same slice, when
// the update would not change anything, so that stores comparing by identity
// see no change.
package immutable

import (
	"fmt"
	"strings"

	"github.com/delaneyj/rxstate/internal/equal"
)

// Record is the shape nested state takes.
type Record = map[string]any

// InvalidPathError reports a path that runs through something other than a
// record.
type InvalidPathError struct {
	Path []string
	// At is the index in Path of the step that is not a record.
	At int
}

func (e *InvalidPathError) Error() string {
	if len(e.Path) == 0 {
		return "immutable: empty path"
	}
	return fmt.Sprintf("immutable: %s is not a record in path %s",
		strings.Join(e.Path[:e.At+1], "."), strings.Join(e.Path, "."))
}

// GetIn follows path through nested records. ok is false when a key is
// missing or a step is not a record.
func GetIn(rec Record, path ...string) (value any, ok bool) {
	var current any = rec
	for _, key := range path {
		r, isRecord := current.(Record)
		if !isRecord {
			return nil, false
		}
		current, ok = r[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetIn returns a copy of rec with value at path, copying every record along
// the way. Every step but the last must already be a record.
func SetIn(rec Record, value any, path ...string) (Record, error) {
	if len(path) == 0 {
		return nil, &InvalidPathError{}
	}
	if current, ok := GetIn(rec, path...); ok && equal.Any(current, value) {
		return rec, nil
	}
	return setIn(rec, value, path, 0)
}

func setIn(rec Record, value any, path []string, depth int) (Record, error) {
	key := path[depth]
	if depth == len(path)-1 {
		return Set(rec, key, value), nil
	}

	nested, ok := rec[key].(Record)
	if !ok {
		return nil, &InvalidPathError{Path: path, At: depth}
	}
	updated, err := setIn(nested, value, path, depth+1)
	if err != nil {
		return nil, err
	}
	return Set(rec, key, updated), nil
}

// UpdateIn replaces the value at path with fn applied to it. fn receives nil
// when there is no value yet.
func UpdateIn(rec Record, fn func(any) any, path ...string) (Record, error) {
	current, _ := GetIn(rec, path...)
	return SetIn(rec, fn(current), path...)
}

func MustSetIn(rec Record, value any, path ...string) Record {
	out, err := SetIn(rec, value, path...)
	if err != nil {
		panic(err)
	}
	return out
}

func MustUpdateIn(rec Record, fn func(any) any, path ...string) Record {
	out, err := UpdateIn(rec, fn, path...)
	if err != nil {
		panic(err)
	}
	return out
}

// Set returns a copy of rec with key set to value.
func Set(rec Record, key string, value any) Record {
	if current, ok := rec[key]; ok && equal.Any(current, value) {
		return rec
	}
	out := make(Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	out[key] = value
	return out
}

// Merge returns target with every non-nil entry of source written over it.
func Merge(target, source Record) Record {
	changed := false
	for k, v := range source {
		if v == nil {
			continue
		}
		if current, ok := target[k]; !ok || !equal.Any(current, v) {
			changed = true
			break
		}
	}
	if !changed {
		return target
	}

	out := make(Record, len(target)+len(source))
	for k, v := range target {
		out[k] = v
	}
	for k, v := range source {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func RemoveKeys(target Record, keys ...string) Record {
	present := false
	for _, k := range keys {
		if _, ok := target[k]; ok {
			present = true
			break
		}
	}
	if !present {
		return target
	}

	out := make(Record, len(target))
	for k, v := range target {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// MapEntries replaces every value with fn(key, value).
func MapEntries(target Record, fn func(key string, value any) any) Record {
	var out Record
	for k, v := range target {
		updated := fn(k, v)
		if out == nil && equal.Any(updated, v) {
			continue
		}
		if out == nil {
			out = make(Record, len(target))
			for k2, v2 := range target {
				out[k2] = v2
			}
		}
		out[k] = updated
	}
	if out == nil {
		return target
	}
	return out
}
