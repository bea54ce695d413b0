package storage

import (
	"reflect"
	"strings"
)

// keyColumns are never rewritten by a merge.
var keyColumns = map[string]bool{"partition_key": true, "row_key": true}

type column struct {
	name  string
	index int
}

// columnsOf lists the persisted columns of a record struct using the first
// segment of the bun tag. Embedded fields and fields tagged "-" are skipped.
func columnsOf(t reflect.Type) []column {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	cols := make([]column, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("bun"), ",")[0]
		if name == "" {
			name = ColumnName(f.Name)
		}
		if name == "-" {
			continue
		}
		cols = append(cols, column{name: name, index: i})
	}
	return cols
}

// PopulatedColumns returns the non-key columns of record holding a non-zero
// value, in declaration order.
func PopulatedColumns(record any) []string {
	rv := reflect.Indirect(reflect.ValueOf(record))
	var out []string
	for _, c := range columnsOf(rv.Type()) {
		if keyColumns[c.name] {
			continue
		}
		if !rv.Field(c.index).IsZero() {
			out = append(out, c.name)
		}
	}
	return out
}

// ColumnValue returns the value stored in the given column of record.
func ColumnValue(record any, name string) (any, bool) {
	rv := reflect.Indirect(reflect.ValueOf(record))
	for _, c := range columnsOf(rv.Type()) {
		if c.name == name {
			return rv.Field(c.index).Interface(), true
		}
	}
	return nil, false
}

// MergeColumns copies the listed columns from src onto dst and returns the
// result. With no columns the populated columns of src are copied.
func MergeColumns[T any](dst, src T, columns ...string) T {
	if len(columns) == 0 {
		columns = PopulatedColumns(src)
	}
	wanted := make(map[string]bool, len(columns))
	for _, c := range columns {
		wanted[c] = true
	}

	out := reflect.New(reflect.TypeOf(dst)).Elem()
	out.Set(reflect.ValueOf(dst))
	from := reflect.ValueOf(src)
	for _, c := range columnsOf(out.Type()) {
		if wanted[c.name] && !keyColumns[c.name] {
			out.Field(c.index).Set(from.Field(c.index))
		}
	}
	return out.Interface().(T)
}

// equalValues compares two scalar values by kind so that named integer types
// match plain integers.
func equalValues(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	default:
		return v
	}
}

// Matches reports whether record satisfies every condition of the filter.
// The partition key is not checked.
func (f Filter) Matches(record any) bool {
	for _, cond := range f.Conditions {
		v, ok := ColumnValue(record, cond.Column())
		if !ok || !equalValues(v, cond.Value) {
			return false
		}
	}
	return true
}
