package stix

import (
	"strings"
	"time"

	"github.com/reoring/stix/codec"
)

// StringProperty accepts string values.
func StringProperty(opts ...PropOption) *Prop {
	return NewProperty(append([]PropOption{Validator(validateString)}, opts...)...)
}

func validateString(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, Reasonf("must be a string")
	}
	return s, nil
}

// TimestampProperty accepts time.Time values and RFC 3339 strings and
// normalizes both to a UTC time.Time.
func TimestampProperty(opts ...PropOption) *Prop {
	return NewProperty(append([]PropOption{Validator(validateTimestamp)}, opts...)...)
}

func validateTimestamp(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		ts, err := codec.ParseTimestamp(t)
		if err != nil {
			return nil, Reasonf("must be an RFC 3339 timestamp")
		}
		return ts, nil
	}
	return nil, Reasonf("must be a timestamp")
}

// ListProperty accepts slices whose elements all satisfy item. The
// validated value is a []any of the normalized elements.
func ListProperty(item Property, opts ...PropOption) *Prop {
	return NewProperty(append([]PropOption{Validator(func(v any) (any, error) {
		l, ok := asList(v)
		if !ok {
			return nil, Reasonf("must be a list")
		}
		out := make([]any, len(l))
		for i, e := range l {
			ne, err := item.Validate(e)
			if err != nil {
				return nil, Reasonf("item %d: %s", i, trimPeriod(err.Error()))
			}
			out[i] = ne
		}
		return out, nil
	})}, opts...)...)
}

// EmbeddedProperty accepts records built from s, or field-value maps that are
// constructed into such records.
func EmbeddedProperty(s *Schema, opts ...PropOption) *Prop {
	return NewProperty(append([]PropOption{Validator(func(v any) (any, error) {
		switch t := v.(type) {
		case *Record:
			if t.Schema() != s {
				return nil, Reasonf("must be a %s", s.TypeName())
			}
			return t, nil
		case map[string]any:
			r, err := Construct(s, "", t)
			if err != nil {
				return nil, Reasonf("%s", trimPeriod(err.Error()))
			}
			return r, nil
		}
		return nil, Reasonf("must be a %s", s.TypeName())
	})}, opts...)...)
}

func trimPeriod(s string) string { return strings.TrimSuffix(s, ".") }
