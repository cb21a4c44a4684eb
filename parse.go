package stix

import (
	"errors"
	"fmt"
	"io"

	eng "github.com/reoring/stix/internal/engine"
)

// DefaultMaxDepth bounds JSON nesting when ParseOpt.MaxDepth is zero.
const DefaultMaxDepth = 64

// ParseOpt bundles JSON input options.
type ParseOpt struct {
	// TypeName overrides the schema type name in error messages.
	TypeName string
	// MaxDepth bounds object/array nesting; 0 selects DefaultMaxDepth and a
	// negative value disables the limit.
	MaxDepth int
}

// ParseJSON decodes a JSON object into field values and constructs a record
// of s from them. Duplicate keys anywhere in the document are rejected.
// Re-parsing the output of ToJSON yields an equal record.
func ParseJSON(s *Schema, data []byte, opts ...ParseOpt) (*Record, error) {
	var opt ParseOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	depth := opt.MaxDepth
	switch {
	case depth == 0:
		depth = DefaultMaxDepth
	case depth < 0:
		depth = 0
	}
	v, err := eng.Decode(data, eng.Options{MaxDepth: depth})
	if err != nil {
		return nil, toConstructError(err)
	}
	values, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Cause: fmt.Errorf("expected a JSON object, got %s", jsonKind(v))}
	}
	return Construct(s, opt.TypeName, values)
}

// ParseJSONReader reads r fully and calls ParseJSON.
func ParseJSONReader(s *Schema, r io.Reader, opts ...ParseOpt) (*Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseJSON(s, data, opts...)
}

func toConstructError(err error) error {
	var de *eng.DuplicateKeyError
	if errors.As(err, &de) {
		return &DuplicateKeyError{Path: de.Path}
	}
	return &ParseError{Cause: err}
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return "number"
}
