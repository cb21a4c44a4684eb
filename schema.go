package stix

import (
	"errors"
	"fmt"
)

// Field pairs a field name with its Property.
type Field struct {
	Name string
	Prop Property
}

// F is shorthand for Field{Name: name, Prop: prop}.
func F(name string, prop Property) Field { return Field{Name: name, Prop: prop} }

// Schema is the ordered, immutable set of fields of one record type.
type Schema struct {
	typeName string
	fields   []Field
	index    map[string]int
}

// NewSchema validates and returns a schema. typeName is used in error
// messages. Field names must be non-empty and unique and every field needs a
// Property.
func NewSchema(typeName string, fields ...Field) (*Schema, error) {
	if typeName == "" {
		return nil, errors.New("stix: schema type name is empty")
	}
	s := &Schema{
		typeName: typeName,
		fields:   make([]Field, 0, len(fields)),
		index:    make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("stix: %s: empty field name", typeName)
		}
		if f.Prop == nil {
			return nil, fmt.Errorf("stix: %s: field %q has no property", typeName, f.Name)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("stix: %s: duplicate field %q", typeName, f.Name)
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. It is intended for
// package-level schema variables.
func MustSchema(typeName string, fields ...Field) *Schema {
	s, err := NewSchema(typeName, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// TypeName returns the name used in error messages.
func (s *Schema) TypeName() string { return s.typeName }

// Len returns the number of declared fields.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns the declared fields in order.
func (s *Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Property returns the Property declared for name.
func (s *Schema) Property(name string) (Property, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.fields[i].Prop, true
}

// RequiredFields returns the names of required fields in declaration order.
func (s *Schema) RequiredFields() []string {
	var out []string
	for _, f := range s.fields {
		if f.Prop.Required() {
			out = append(out, f.Name)
		}
	}
	return out
}
