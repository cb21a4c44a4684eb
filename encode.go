package stix

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"github.com/reoring/stix/codec"
)

const canonicalIndent = "    "

// EncodeOpt adjusts the canonical text produced by ToJSONWith.
type EncodeOpt struct {
	// EnsureASCII escapes every non-ASCII character as \uXXXX (UTF-16
	// surrogate pairs above U+FFFF), matching Python's json.dumps default.
	EnsureASCII bool
	// FloatFraction renders float values the way Python's repr does:
	// integral values keep a ".0" and exponents appear only outside
	// [1e-4, 1e16). Numbers decoded from JSON input keep their text.
	FloatFraction bool
}

// ToJSON renders r in canonical form: keys sorted, four-space indentation,
// ": " between keys and values, no HTML escaping. Timestamps are formatted
// with codec.FormatTimestamp and nested records are expanded in place.
// The output is stable: equal records always render to identical text.
func ToJSON(r *Record) (string, error) {
	return ToJSONWith(r, EncodeOpt{})
}

// ToJSONWith is ToJSON with output adjustments.
func ToJSONWith(r *Record, opt EncodeOpt) (string, error) {
	if r == nil {
		return "", errors.New("stix: ToJSON of nil record")
	}
	b, err := json.MarshalIndentWithOption(plainValue(r, opt), "", canonicalIndent, json.DisableHTMLEscape())
	if err != nil {
		return "", err
	}
	if opt.EnsureASCII {
		return escapeNonASCII(string(b)), nil
	}
	return string(b), nil
}

// MarshalJSON renders the compact form of the canonical encoding so records
// can be embedded in other JSON documents.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.MarshalWithOption(plainValue(r, EncodeOpt{}), json.DisableHTMLEscape())
}

// plainValue converts records, timestamps and lists into the plain
// map/slice/scalar tree the JSON encoder understands.
func plainValue(v any, opt EncodeOpt) any {
	switch t := v.(type) {
	case *Record:
		if t == nil {
			return nil
		}
		m := make(map[string]any, len(t.names))
		for _, n := range t.names {
			m[n] = plainValue(t.values[n], opt)
		}
		return m
	case time.Time:
		return codec.FormatTimestamp(t)
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = plainValue(vv, opt)
		}
		return m
	case float64:
		if opt.FloatFraction {
			return floatText(t)
		}
		return v
	case float32:
		if opt.FloatFraction {
			return floatText(float64(t))
		}
		return v
	case string, []byte, nil:
		return v
	}
	if l, ok := asList(v); ok {
		out := make([]any, len(l))
		for i, e := range l {
			out[i] = plainValue(e, opt)
		}
		return out
	}
	return v
}

// floatText returns f as a JSON number in Python repr form. NaN and
// infinities are returned unchanged so the encoder rejects them.
func floatText(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	if abs := math.Abs(f); f == 0 || (abs >= 1e-4 && abs < 1e16) {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return json.Number(s)
	}
	return json.Number(strconv.FormatFloat(f, 'e', -1, 64))
}

// escapeNonASCII rewrites non-ASCII runes as lowercase \u escapes. Such
// runes only occur inside string literals of encoder output.
func escapeNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < utf8.RuneSelf:
			b.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&b, `\u%04x\u%04x`, r1, r2)
		default:
			fmt.Fprintf(&b, `\u%04x`, r)
		}
	}
	return b.String()
}
