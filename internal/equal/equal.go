package equal

import "reflect"

// Values reports whether a and b are the same value.
//
// Comparable values use ==. Maps, slices, funcs and channels have no value
// equality in Go, so they are compared by identity instead: two slices are
// the same when they share a backing array, length and capacity, two maps
// when they are the same map.
func Values[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case float64:
		bv, ok := any(b).(float64)
		return ok && av == bv
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	}
	return Any(a, b)
}

// Any is Values for untyped operands.
func Any(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len() && va.Cap() == vb.Cap()
	}

	if va.Type().Comparable() {
		return safeCompare(a, b)
	}

	// structs or arrays holding slices/maps: compare field by field by identity
	switch va.Kind() {
	case reflect.Struct:
		for i := 0; i < va.NumField(); i++ {
			if !fieldEqual(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := 0; i < va.Len(); i++ {
			if !fieldEqual(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	}

	return false
}

func fieldEqual(a, b reflect.Value) bool {
	if a.CanInterface() {
		return Any(a.Interface(), b.Interface())
	}

	// unexported field: reflect only hands out primitives here
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len()
	}
	return false
}

// safeCompare guards against interface fields whose dynamic type is not
// comparable, where == panics at runtime.
func safeCompare(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
