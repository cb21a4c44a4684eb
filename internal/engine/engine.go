package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

// Options controls decoding limits.
type Options struct {
	// MaxDepth bounds object/array nesting; 0 means unlimited.
	MaxDepth int
}

// DuplicateKeyError reports an object key seen twice. Path is the JSON
// Pointer of the duplicated member.
type DuplicateKeyError struct{ Path string }

func (e *DuplicateKeyError) Error() string { return "key duplicated at " + e.Path }

// DepthError reports nesting beyond Options.MaxDepth.
type DepthError struct{ Path string }

func (e *DepthError) Error() string { return "max depth exceeded at " + e.Path }

var (
	errTrailingData = errors.New("unexpected data after top-level value")
	errSyntax       = errors.New("invalid JSON syntax")
)

// Decode reads exactly one JSON value from data. Objects become
// map[string]any, arrays []any and numbers json.Number. Duplicate keys in any
// object are rejected.
func Decode(data []byte, opt Options) (any, error) {
	// The token stream does not check separators, so validate the grammar first.
	if !j.Valid(data) {
		return nil, syntaxError(data)
	}
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	d := &decoder{dec: dec, opt: opt}
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	v, err := d.value(tok, "", 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailingData
		}
		return nil, err
	}
	return v, nil
}

// syntaxError returns the decoder's description of why data is not JSON.
func syntaxError(data []byte) error {
	var v any
	if err := j.Unmarshal(data, &v); err != nil {
		return err
	}
	return errSyntax
}

type decoder struct {
	dec *j.Decoder
	opt Options
}

func (d *decoder) value(tok j.Token, path string, depth int) (any, error) {
	switch t := tok.(type) {
	case j.Delim:
		switch t {
		case '{':
			if err := d.enter(path, depth); err != nil {
				return nil, err
			}
			return d.object(path, depth+1)
		case '[':
			if err := d.enter(path, depth); err != nil {
				return nil, err
			}
			return d.array(path, depth+1)
		}
		return nil, fmt.Errorf("unexpected delimiter %q at %s", rune(t), pointer(path))
	case string, bool, nil, j.Number:
		return t, nil
	case float64:
		return j.Number(strconv.FormatFloat(t, 'g', -1, 64)), nil
	}
	return nil, fmt.Errorf("unexpected token %T at %s", tok, pointer(path))
}

func (d *decoder) enter(path string, depth int) error {
	if d.opt.MaxDepth > 0 && depth >= d.opt.MaxDepth {
		return &DepthError{Path: pointer(path)}
	}
	return nil
}

func (d *decoder) object(path string, depth int) (any, error) {
	m := make(map[string]any)
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(j.Delim); ok && delim == '}' {
			return m, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key at %s", pointer(path))
		}
		kpath := joinJSONPointer(path, key)
		if _, dup := m[key]; dup {
			return nil, &DuplicateKeyError{Path: kpath}
		}
		vt, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		v, err := d.value(vt, kpath, depth)
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
}

func (d *decoder) array(path string, depth int) (any, error) {
	arr := []any{}
	for i := 0; ; i++ {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := tok.(j.Delim); ok && delim == ']' {
			return arr, nil
		}
		v, err := d.value(tok, joinJSONPointer(path, strconv.Itoa(i)), depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func pointer(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinJSONPointer(base, token string) string {
	return base + "/" + jsonPointerEscaper.Replace(token)
}
