// Package report turns raw data rows into report rows.
//
// Rows are read through schema.Row, implemented here for maps (MapRow) and
// for structs (StructRow), so the compiler never depends on a concrete row
// type.
package report

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// MapRow reads values from a map keyed by column id.
type MapRow map[string]any

// Get implements schema.Row.
func (r MapRow) Get(id string) (any, bool) {
	v, ok := r[id]
	return v, ok
}

// StructRow reads values from a struct. A column id matches, in order:
// a field tagged `report:"<id>"`, a field tagged `json:"<id>"`, a field
// named exactly id, a field named by the CamelCase form of id
// (created_at -> CreatedAt), and finally a method of that CamelCase name
// taking no arguments and returning one value.
type StructRow struct {
	v reflect.Value // the pointer or struct as given
}

// NewStructRow wraps a struct or a non-nil pointer to a struct.
func NewStructRow(v any) (*StructRow, error) {
	rv := reflect.ValueOf(v)
	s := rv
	if s.Kind() == reflect.Pointer {
		if s.IsNil() {
			return nil, fmt.Errorf("report: nil %T row", v)
		}
		s = s.Elem()
	}
	if s.Kind() != reflect.Struct {
		return nil, fmt.Errorf("report: unsupported row type %T", v)
	}
	return &StructRow{v: rv}, nil
}

func (r *StructRow) elem() reflect.Value {
	if r.v.Kind() == reflect.Pointer {
		return r.v.Elem()
	}
	return r.v
}

// Get implements schema.Row.
func (r *StructRow) Get(id string) (any, bool) {
	s := r.elem()
	t := s.Type()
	camel := camelCase(id)

	if i, ok := fieldIndex(t, id, camel); ok {
		f := s.Field(i)
		if !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}

	if m := r.v.MethodByName(camel); m.IsValid() {
		if m.Type().NumIn() == 0 && m.Type().NumOut() == 1 {
			return m.Call(nil)[0].Interface(), true
		}
	}
	return nil, false
}

func fieldIndex(t reflect.Type, id, camel string) (int, bool) {
	byTag := func(key string) (int, bool) {
		for i := 0; i < t.NumField(); i++ {
			tag, ok := t.Field(i).Tag.Lookup(key)
			if !ok {
				continue
			}
			if name, _, _ := strings.Cut(tag, ","); name == id {
				return i, true
			}
		}
		return 0, false
	}
	if i, ok := byTag("report"); ok {
		return i, true
	}
	if i, ok := byTag("json"); ok {
		return i, true
	}
	for _, name := range []string{id, camel} {
		if f, ok := t.FieldByName(name); ok && len(f.Index) == 1 {
			return f.Index[0], true
		}
	}
	return 0, false
}

// camelCase converts snake_case to CamelCase.
func camelCase(id string) string {
	var b strings.Builder
	upper := true
	for _, r := range id {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
