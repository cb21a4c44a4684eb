package stix

import (
	"errors"
	"sort"
)

// New constructs a record of s using the schema's type name.
func New(s *Schema, values map[string]any) (*Record, error) {
	return Construct(s, "", values)
}

// MustNew is like New but panics on error.
func MustNew(s *Schema, values map[string]any) *Record {
	r, err := New(s, values)
	if err != nil {
		panic(err)
	}
	return r
}

// Construct validates and defaults values against s and freezes the result.
// typeName names the type in error messages; empty means s.TypeName().
//
// Construction is all-or-nothing: the first failure is returned and no
// record is produced. Failures are, in order of detection,
// *UnexpectedFieldError, *MissingFieldError and *InvalidValueError.
func Construct(s *Schema, typeName string, values map[string]any) (*Record, error) {
	if typeName == "" {
		typeName = s.typeName
	}
	bc := newBuildContext(typeName, values)

	var extra []string
	for k := range values {
		if _, ok := s.index[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, &UnexpectedFieldError{TypeName: typeName, Fields: extra}
	}

	var missing []string
	for _, f := range s.fields {
		if !f.Prop.Required() {
			continue
		}
		if _, ok := values[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingFieldError{TypeName: typeName, Fields: missing}
	}

	out := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		v, ok := values[f.Name]
		if !ok {
			dv, err := f.Prop.Default(bc)
			if errors.Is(err, ErrNoDefault) {
				continue
			}
			if err != nil {
				return nil, &InvalidValueError{TypeName: typeName, Field: f.Name, Cause: err}
			}
			v = dv
		}
		nv, err := f.Prop.Validate(v)
		if err != nil {
			return nil, &InvalidValueError{TypeName: typeName, Field: f.Name, Cause: err}
		}
		out[f.Name] = nv
	}
	return freeze(s, typeName, out), nil
}
