package stix

import (
	"fmt"
	"reflect"
	"strings"
)

// ResolveStructKey applies the repository-wide rule to resolve a struct field's
// record field name.
// Priority: stix:"name" > json tag name > field name; "-" disables the field.
func ResolveStructKey(sf reflect.StructField) string {
	for _, tag := range []string{"stix", "json"} {
		t := sf.Tag.Get(tag)
		if t == "" {
			continue
		}
		if t == "-" {
			return "-"
		}
		if i := strings.IndexByte(t, ','); i >= 0 {
			t = t[:i]
		}
		if t != "" {
			return t
		}
	}
	return sf.Name
}

// FieldValues converts a struct (or pointer to struct) into field values for
// Construct. Nil pointers, nil slices, nil maps and fields tagged omitempty
// holding a zero value are treated as absent.
func FieldValues(v any) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("stix: FieldValues of nil %T", v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("stix: FieldValues expects a struct, got %T", v)
	}
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := ResolveStructKey(sf)
		if key == "-" {
			continue
		}
		fv := rv.Field(i)
		switch fv.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
			if fv.IsNil() {
				continue
			}
		}
		if hasOmitEmpty(sf) && fv.IsZero() {
			continue
		}
		if fv.Kind() == reflect.Pointer {
			fv = fv.Elem()
		}
		out[key] = fv.Interface()
	}
	return out, nil
}

func hasOmitEmpty(sf reflect.StructField) bool {
	for _, tag := range []string{sf.Tag.Get("stix"), sf.Tag.Get("json")} {
		for _, opt := range strings.Split(tag, ",")[1:] {
			if strings.TrimSpace(opt) == "omitempty" {
				return true
			}
		}
	}
	return false
}

// asList returns the elements of any slice or array value.
func asList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false // []byte is a scalar, not a list
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// cloneValue deep-copies the mutable containers a record may hold so callers
// cannot mutate a record through a retained or returned reference. Maps of any
// type become map[string]any and pointers are replaced by copies of their
// targets.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case []byte:
		return append([]byte(nil), t...)
	case *Record, string, bool, nil:
		return v
	}
	if l, ok := asList(v); ok {
		out := make([]any, len(l))
		for i, e := range l {
			out[i] = cloneValue(e)
		}
		return out
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = cloneValue(iter.Value().Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return cloneValue(rv.Elem().Interface())
	}
	return v
}

// mapKey renders a map key the way the JSON encoder names object members.
func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}
