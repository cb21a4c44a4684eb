package stix

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnexpectedField = "unexpected_field"
	CodeRequired        = "required"
	CodeInvalidValue    = "invalid_value"
	CodeImmutable       = "immutable"
	CodeDuplicateKey    = "duplicate_key"
	CodeParseError      = "parse_error"
)

var (
	// ErrNoDefault is returned by Property.Default when no default is configured.
	ErrNoDefault = errors.New("stix: no default value")
	// ErrImmutable matches every ImmutableError via errors.Is.
	ErrImmutable = errors.New("stix: cannot modify properties after creation")
)

// ConstructError is implemented by every error returned from construction.
type ConstructError interface {
	error
	Code() string
}

// ValueError is the reason a Property rejected a value.
type ValueError struct {
	Reason string
}

func (e *ValueError) Error() string { return e.Reason }

// Reasonf builds a ValueError with a formatted reason.
func Reasonf(format string, args ...any) error {
	return &ValueError{Reason: fmt.Sprintf(format, args...)}
}

// UnexpectedFieldError reports supplied fields that the schema does not declare.
type UnexpectedFieldError struct {
	TypeName string
	Fields   []string // sorted
}

func (e *UnexpectedFieldError) Error() string {
	return fmt.Sprintf("Unexpected field(s) for %s: (%s).", e.TypeName, strings.Join(e.Fields, ", "))
}

func (e *UnexpectedFieldError) Code() string { return CodeUnexpectedField }

// MissingFieldError reports required fields that were not supplied.
type MissingFieldError struct {
	TypeName string
	Fields   []string // sorted
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing required field(s) for %s: (%s).", e.TypeName, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldError) Code() string { return CodeRequired }

// InvalidValueError wraps a Property rejection with type and field context.
type InvalidValueError struct {
	TypeName string
	Field    string
	Cause    error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("Invalid value for %s '%s': %s.", e.TypeName, e.Field, e.Cause.Error())
}

func (e *InvalidValueError) Code() string  { return CodeInvalidValue }
func (e *InvalidValueError) Unwrap() error { return e.Cause }

// ImmutableError is returned by every mutation attempt on a Record.
type ImmutableError struct {
	TypeName string
	Field    string
}

func (e *ImmutableError) Error() string {
	return fmt.Sprintf("Cannot modify properties after creation (%s '%s').", e.TypeName, e.Field)
}

func (e *ImmutableError) Code() string        { return CodeImmutable }
func (e *ImmutableError) Is(target error) bool { return target == ErrImmutable }

// DuplicateKeyError reports a key that appears twice in one JSON object.
type DuplicateKeyError struct {
	Path string // JSON Pointer of the duplicated member, e.g. /kill_chain_phases/0/phase_name
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("Duplicate key in JSON input at %s.", e.Path)
}

func (e *DuplicateKeyError) Code() string { return CodeDuplicateKey }

// ParseError reports JSON input that could not be decoded into field values.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string { return "Cannot parse JSON input: " + e.Cause.Error() }

func (e *ParseError) Code() string  { return CodeParseError }
func (e *ParseError) Unwrap() error { return e.Cause }

// AsConstructError extracts a ConstructError from err using errors.As internally.
func AsConstructError(err error) (ConstructError, bool) {
	if err == nil {
		return nil, false
	}
	var ce ConstructError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
