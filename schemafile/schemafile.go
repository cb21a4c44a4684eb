// Package schemafile declares record schemas in YAML.
//
//	types:
//	  - name: kill-chain-phase
//	    title: KillChainPhase
//	    fields:
//	      - {name: kill_chain_name, kind: string, required: true}
//	      - {name: phase_name, kind: string, required: true}
//
// Field kinds are any (default), string, timestamp, type, id, list (with
// items) and embedded (with ref naming an earlier or already registered type).
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reoring/stix"
)

// File is the top-level document.
type File struct {
	Types []TypeDef `yaml:"types"`
}

// TypeDef declares one schema.
type TypeDef struct {
	// Name is the registry key and the default prefix of type/id fields.
	Name string `yaml:"name"`
	// Title names the type in error messages; defaults to Name.
	Title  string     `yaml:"title"`
	Fields []FieldDef `yaml:"fields"`
}

// FieldDef declares one field (or, under items, one list element).
type FieldDef struct {
	Name       string    `yaml:"name"`
	Kind       string    `yaml:"kind"`
	Required   bool      `yaml:"required"`
	Fixed      yaml.Node `yaml:"fixed"`
	Default    yaml.Node `yaml:"default"`
	DefaultNow bool      `yaml:"default_now"`
	// TypeName overrides the prefix checked by type and id kinds.
	TypeName     string    `yaml:"type_name"`
	Generate     string    `yaml:"generate"`
	Contributing []string  `yaml:"contributing"`
	Items        *FieldDef `yaml:"items"`
	Ref          string    `yaml:"ref"`
}

// Load parses data into a new registry.
func Load(data []byte) (*stix.Registry, error) {
	reg := stix.NewRegistry()
	if err := LoadInto(reg, data); err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadFile reads and parses the YAML file at path.
func LoadFile(path string) (*stix.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// LoadInto parses data and registers its types into reg. Embedded refs may
// name types already present in reg. Nothing is registered when any type
// fails to build.
func LoadInto(reg *stix.Registry, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("schemafile: empty document")
		}
		return fmt.Errorf("schemafile: %w", err)
	}
	if len(f.Types) == 0 {
		return errors.New("schemafile: no types declared")
	}

	built := make(map[string]*stix.Schema, len(f.Types))
	order := make([]string, 0, len(f.Types))
	lookup := func(name string) (*stix.Schema, bool) {
		if s, ok := built[name]; ok {
			return s, true
		}
		return reg.Lookup(name)
	}
	for i := range f.Types {
		td := &f.Types[i]
		if td.Name == "" {
			return fmt.Errorf("schemafile: types[%d]: missing name", i)
		}
		if _, dup := lookup(td.Name); dup {
			return fmt.Errorf("schemafile: %s: type already declared", td.Name)
		}
		s, err := td.build(lookup)
		if err != nil {
			return err
		}
		built[td.Name] = s
		order = append(order, td.Name)
	}
	for _, name := range order {
		if err := reg.Register(name, built[name]); err != nil {
			return fmt.Errorf("schemafile: %w", err)
		}
	}
	return nil
}

type lookupFunc func(name string) (*stix.Schema, bool)

func (td *TypeDef) build(lookup lookupFunc) (*stix.Schema, error) {
	title := td.Title
	if title == "" {
		title = td.Name
	}
	fields := make([]stix.Field, 0, len(td.Fields))
	for i := range td.Fields {
		fd := &td.Fields[i]
		if fd.Name == "" {
			return nil, fmt.Errorf("schemafile: %s.fields[%d]: missing name", td.Name, i)
		}
		p, err := fd.property(td, lookup, td.Name+"."+fd.Name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, stix.F(fd.Name, p))
	}
	s, err := stix.NewSchema(title, fields...)
	if err != nil {
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	return s, nil
}

func (fd *FieldDef) property(td *TypeDef, lookup lookupFunc, path string) (stix.Property, error) {
	opts, err := fd.options(path)
	if err != nil {
		return nil, err
	}
	prefix := fd.TypeName
	if prefix == "" {
		prefix = td.Name
	}
	if fd.Generate != "" && fd.Kind != "id" {
		return nil, fmt.Errorf("schemafile: %s: generate is only valid for kind id", path)
	}
	switch fd.Kind {
	case "", "any":
		return stix.NewProperty(opts...), nil
	case "string":
		return stix.StringProperty(opts...), nil
	case "timestamp":
		return stix.TimestampProperty(opts...), nil
	case "type":
		return stix.TypeProperty(prefix, opts...), nil
	case "id":
		var gen stix.IDGenerator
		switch fd.Generate {
		case "":
		case "random":
			gen = stix.RandomID()
		case "deterministic":
			if len(fd.Contributing) == 0 {
				return nil, fmt.Errorf("schemafile: %s: deterministic ids need contributing fields", path)
			}
			gen = stix.DeterministicID(fd.Contributing...)
		default:
			return nil, fmt.Errorf("schemafile: %s: unknown generator %q", path, fd.Generate)
		}
		return stix.IdentifierProperty(prefix, gen, opts...), nil
	case "list":
		if fd.Items == nil {
			return nil, fmt.Errorf("schemafile: %s: list needs items", path)
		}
		item, err := fd.Items.property(td, lookup, path+"[]")
		if err != nil {
			return nil, err
		}
		return stix.ListProperty(item, opts...), nil
	case "embedded":
		s, ok := lookup(fd.Ref)
		if !ok {
			return nil, fmt.Errorf("schemafile: %s: unknown ref %q", path, fd.Ref)
		}
		return stix.EmbeddedProperty(s, opts...), nil
	}
	return nil, fmt.Errorf("schemafile: %s: unknown kind %q", path, fd.Kind)
}

func (fd *FieldDef) options(path string) ([]stix.PropOption, error) {
	var opts []stix.PropOption
	if fd.Required {
		opts = append(opts, stix.Required())
	}
	if !fd.Fixed.IsZero() {
		var v any
		if err := fd.Fixed.Decode(&v); err != nil {
			return nil, fmt.Errorf("schemafile: %s: line %d: %w", path, fd.Fixed.Line, err)
		}
		opts = append(opts, stix.Fixed(v))
	}
	hasDefault := !fd.Default.IsZero()
	if hasDefault && fd.DefaultNow {
		return nil, fmt.Errorf("schemafile: %s: default and default_now are exclusive", path)
	}
	if hasDefault {
		var v any
		if err := fd.Default.Decode(&v); err != nil {
			return nil, fmt.Errorf("schemafile: %s: line %d: %w", path, fd.Default.Line, err)
		}
		opts = append(opts, stix.DefaultValue(v))
	}
	if fd.DefaultNow {
		opts = append(opts, stix.DefaultNow())
	}
	return opts, nil
}
