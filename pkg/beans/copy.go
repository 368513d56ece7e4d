// Package beans copies the populated fields of one struct onto another.
// It backs partial updates: a patch struct carries only the fields the
// caller wants to change, everything left nil or zero is kept.
package beans

import (
	"fmt"
	"reflect"
	"sync"
)

// fieldInfo contains pre-computed metadata about a struct field.
type fieldInfo struct {
	index    int
	embedded bool // anonymous struct field, copied recursively
}

// Global cache for type metadata (thread-safe).
var typeCache sync.Map // map[reflect.Type][]fieldInfo

// fieldsOf returns cached copyable fields of struct type t.
func fieldsOf(t reflect.Type) []fieldInfo {
	if cached, ok := typeCache.Load(t); ok {
		return cached.([]fieldInfo)
	}

	fields := make([]fieldInfo, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("beans") == "-" {
			continue
		}
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			fields = append(fields, fieldInfo{index: i, embedded: true})
			continue
		}
		if !field.IsExported() {
			continue
		}
		fields = append(fields, fieldInfo{index: i})
	}

	typeCache.Store(t, fields)
	return fields
}

// CopyNonNil copies every exported field of src that is non-nil (pointers,
// maps, slices, interfaces) or non-zero (other kinds) into dst.
// dst must be a pointer to a struct of the same type as src (or *src).
// Fields tagged `beans:"-"` are never copied.
func CopyNonNil(dst, src any) error {
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("beans: dst must be a non-nil pointer, got %T", dst)
	}
	dv = dv.Elem()

	sv := reflect.ValueOf(src)
	if sv.Kind() == reflect.Ptr {
		if sv.IsNil() {
			return nil
		}
		sv = sv.Elem()
	}

	if dv.Kind() != reflect.Struct || sv.Type() != dv.Type() {
		return fmt.Errorf("beans: cannot copy %s into %s", sv.Type(), dv.Type())
	}

	copyStruct(dv, sv)
	return nil
}

func copyStruct(dv, sv reflect.Value) {
	for _, fi := range fieldsOf(sv.Type()) {
		sf := sv.Field(fi.index)
		df := dv.Field(fi.index)

		if fi.embedded {
			copyStruct(df, sf)
			continue
		}
		if !df.CanSet() || sf.IsZero() {
			continue
		}
		df.Set(sf)
	}
}
