package stix

import "iter"

// Record is an immutable, validated instance of a Schema. Fields are kept in
// schema declaration order. A Record is safe for concurrent reads.
type Record struct {
	schema   *Schema
	typeName string
	names    []string
	values   map[string]any
}

func freeze(s *Schema, typeName string, values map[string]any) *Record {
	r := &Record{
		schema:   s,
		typeName: typeName,
		names:    make([]string, 0, len(values)),
		values:   make(map[string]any, len(values)),
	}
	for _, f := range s.fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		r.names = append(r.names, f.Name)
		r.values[f.Name] = cloneValue(v)
	}
	return r
}

// Schema returns the schema the record was built from.
func (r *Record) Schema() *Schema { return r.schema }

// TypeName returns the type name the record was built as.
func (r *Record) TypeName() string { return r.typeName }

// Get returns the value of name and whether it is present.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Value returns the value of name, or nil when the field is absent.
func (r *Record) Value(name string) any {
	v, _ := r.Get(name)
	return v
}

// Has reports whether name is present.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Keys returns the present field names in schema order.
func (r *Record) Keys() []string { return append([]string(nil), r.names...) }

// Len returns the number of present fields.
func (r *Record) Len() int { return len(r.names) }

// All iterates over present fields in schema order.
func (r *Record) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, n := range r.names {
			if !yield(n, cloneValue(r.values[n])) {
				return
			}
		}
	}
}

// Set always fails: records cannot be modified after creation.
func (r *Record) Set(name string, _ any) error {
	return &ImmutableError{TypeName: r.typeName, Field: name}
}

// Delete always fails: records cannot be modified after creation.
func (r *Record) Delete(name string) error {
	return &ImmutableError{TypeName: r.typeName, Field: name}
}

// String returns the canonical JSON text, or an empty string if the record
// holds a value that cannot be encoded.
func (r *Record) String() string {
	s, err := ToJSON(r)
	if err != nil {
		return ""
	}
	return s
}
