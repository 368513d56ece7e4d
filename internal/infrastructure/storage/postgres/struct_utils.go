package postgres

import (
	"reflect"
	"sync"
)

// column describes one db-tagged field reachable from a struct type.
type column struct {
	name  string
	index []int // path for reflect.Value.FieldByIndex, through embedded structs
}

var columnCache sync.Map // map[reflect.Type][]column

// columnsOf returns the db columns of t in declaration order, with embedded
// structs (entity.Person) flattened in place. Results are cached per type.
func columnsOf(t reflect.Type) []column {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := columnCache.Load(t); ok {
		return cached.([]column)
	}

	cols := collectColumns(t, nil)
	columnCache.Store(t, cols)
	return cols
}

func collectColumns(t reflect.Type, prefix []int) []column {
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		path := append(append([]int(nil), prefix...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			cols = append(cols, collectColumns(field.Type, path)...)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}
		cols = append(cols, column{name: tag, index: path})
	}
	return cols
}

// ExtractDBColumns returns the column names of T from its "db" tags.
//
//	ExtractDBColumns[people.Student]()
//	// ["id", "first_name", "last_name", "email", "created_at", "student_number", ...]
func ExtractDBColumns[T any]() []string {
	cols := columnsOf(reflect.TypeOf((*T)(nil)).Elem())
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// StructToMap converts a struct (or pointer to one) to a column/value map.
// Columns named in exclude are left out.
func StructToMap(v any, exclude ...string) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	cols := columnsOf(rv.Type())
	res := make(map[string]any, len(cols))
	for _, c := range cols {
		res[c.name] = rv.FieldByIndex(c.index).Interface()
	}
	for _, name := range exclude {
		delete(res, name)
	}
	return res
}
