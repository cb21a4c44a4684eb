package stix

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

const idSeparator = "--"

// IDNamespace is the UUIDv5 namespace used by DeterministicID.
var IDNamespace = uuid.MustParse("00abedb4-aa42-466c-9c01-fed23315a9b7")

// TypeProperty accepts exactly the type name and defaults to it.
func TypeProperty(typeName string, opts ...PropOption) *Prop {
	p := NewProperty(append(opts, Fixed(typeName))...)
	p.mismatch = fmt.Sprintf("does not match expected type name '%s'", typeName)
	return p
}

// IDGenerator produces the UUID part of a default identifier.
type IDGenerator func(bc *BuildContext) (uuid.UUID, error)

// IdentifierProperty accepts identifiers of the form "<typeName>--<UUID>".
// A nil gen leaves the property without a default.
func IdentifierProperty(typeName string, gen IDGenerator, opts ...PropOption) *Prop {
	prefix := typeName + idSeparator
	all := []PropOption{Validator(func(v any) (any, error) {
		return validateIdentifier(typeName, v)
	})}
	if gen != nil {
		all = append(all, WithDefault(func(bc *BuildContext) (any, error) {
			u, err := gen(bc)
			if err != nil {
				return nil, err
			}
			return prefix + u.String(), nil
		}))
	}
	return NewProperty(append(all, opts...)...)
}

func validateIdentifier(typeName string, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, Reasonf("must be a string")
	}
	parts := strings.Split(s, idSeparator)
	if len(parts) != 2 {
		return nil, Reasonf("must be of the form '%s--<UUID>'", typeName)
	}
	if parts[0] != typeName {
		return nil, Reasonf("must start with '%s--'", typeName)
	}
	if len(parts[1]) != 36 {
		return nil, Reasonf("must have a valid UUID after '--'")
	}
	if _, err := uuid.Parse(parts[1]); err != nil {
		return nil, Reasonf("must have a valid UUID after '--'")
	}
	return s, nil
}

// RandomID generates version 4 UUIDs.
func RandomID() IDGenerator {
	return func(*BuildContext) (uuid.UUID, error) { return uuid.NewRandom() }
}

// DeterministicID generates version 5 UUIDs in IDNamespace, named by the
// RFC 8785 canonical JSON of the contributing fields the caller supplied.
// Equal contributing content always yields the same identifier. When none of
// the contributing fields were supplied it falls back to RandomID.
func DeterministicID(contributing ...string) IDGenerator {
	return func(bc *BuildContext) (uuid.UUID, error) {
		if bc == nil {
			return uuid.NewRandom()
		}
		content := make(map[string]any, len(contributing))
		for _, name := range contributing {
			if v, ok := bc.Supplied(name); ok {
				content[name] = plainValue(v, EncodeOpt{})
			}
		}
		if len(content) == 0 {
			return uuid.NewRandom()
		}
		raw, err := json.Marshal(content)
		if err != nil {
			return uuid.Nil, fmt.Errorf("deterministic id: %w", err)
		}
		canon, err := jcs.Transform(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("deterministic id: %w", err)
		}
		return uuid.NewSHA1(IDNamespace, canon), nil
	}
}
