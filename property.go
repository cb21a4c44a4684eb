package stix

import "reflect"

// Property is the validation and default contract of one schema field.
type Property interface {
	// Required reports whether construction fails when the field is absent.
	Required() bool
	// Validate returns the (possibly normalized) value, or a reason error
	// (usually a *ValueError) when the value is not acceptable.
	Validate(v any) (any, error)
	// Default returns the value used when the field is absent. It returns
	// ErrNoDefault when the property has no default.
	Default(bc *BuildContext) (any, error)
}

// DefaultFunc computes a default value. bc is nil outside construction.
type DefaultFunc func(bc *BuildContext) (any, error)

// ValidateFunc checks and optionally normalizes a value.
type ValidateFunc func(v any) (any, error)

// PropOption configures a Prop.
type PropOption func(*Prop)

// Prop is the configurable Property used by every built-in property kind.
// With no options it accepts any value and has no default.
type Prop struct {
	required   bool
	fixed      any
	hasFixed   bool
	mismatch   string // reason for a value other than fixed; empty uses "must equal"
	defaultFn  DefaultFunc
	validators []ValidateFunc
}

var _ Property = (*Prop)(nil)

// NewProperty returns a Prop configured by opts.
func NewProperty(opts ...PropOption) *Prop {
	p := &Prop{}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Required marks the field as required.
func Required() PropOption {
	return func(p *Prop) { p.required = true }
}

// Fixed makes v the only legal value and the default.
func Fixed(v any) PropOption {
	return func(p *Prop) {
		p.fixed = v
		p.hasFixed = true
	}
}

// WithDefault sets a default factory.
func WithDefault(fn DefaultFunc) PropOption {
	return func(p *Prop) { p.defaultFn = fn }
}

// DefaultValue sets a constant default. The value is still validated at construction.
func DefaultValue(v any) PropOption {
	return WithDefault(func(*BuildContext) (any, error) { return v, nil })
}

// DefaultNow defaults the field to the construction timestamp, shared by every
// "now" field of the same record.
func DefaultNow() PropOption {
	return WithDefault(func(bc *BuildContext) (any, error) {
		if bc == nil {
			return now(), nil
		}
		return bc.Now, nil
	})
}

// Validator appends a validation step. Steps run in registration order and
// each receives the previous step's result.
func Validator(fn ValidateFunc) PropOption {
	return func(p *Prop) { p.validators = append(p.validators, fn) }
}

func (p *Prop) Required() bool { return p.required }

func (p *Prop) Validate(v any) (any, error) {
	if p.hasFixed {
		if !reflect.DeepEqual(v, p.fixed) {
			if p.mismatch != "" {
				return nil, &ValueError{Reason: p.mismatch}
			}
			return nil, Reasonf("must equal '%v'", p.fixed)
		}
		return p.fixed, nil
	}
	for _, fn := range p.validators {
		nv, err := fn(v)
		if err != nil {
			return nil, err
		}
		v = nv
	}
	return v, nil
}

func (p *Prop) Default(bc *BuildContext) (any, error) {
	if p.hasFixed {
		return p.fixed, nil
	}
	if p.defaultFn == nil {
		return nil, ErrNoDefault
	}
	return p.defaultFn(bc)
}
