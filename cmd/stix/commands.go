package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/reoring/stix"
	"github.com/reoring/stix/objects"
	"github.com/reoring/stix/schemafile"
)

var (
	typeName      string
	valuesPath    string
	ensureASCII   bool
	floatFraction bool
)

// constructCmd builds a record from field values and prints it.
var constructCmd = &cobra.Command{
	Use:   "construct",
	Short: "Construct a record and print its canonical JSON",
	Long: `Reads field values from a YAML or JSON mapping, applies the type's
defaults and validation, and prints the canonical JSON of the record.

Example:
  stix construct --type kill-chain-phase --values phase.yaml`,
	Args: cobra.NoArgs,
	RunE: runConstruct,
}

// validateCmd checks a JSON document against a type.
var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Validate JSON documents against a type",
	Long: `Parses each JSON document (stdin when no file is given) and reports
whether it constructs a valid record. Several files are checked in parallel.`,
	RunE:  runValidate,
}

// typesCmd lists the known types.
var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List known types",
	Args:  cobra.NoArgs,
	RunE:  runTypes,
}

func runConstruct(cmd *cobra.Command, args []string) error {
	s, err := lookupSchema(typeName)
	if err != nil {
		return err
	}
	data, err := readInput(cmd, valuesPath)
	if err != nil {
		return err
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("reading values: %w", err)
	}
	logger.Debug("Constructing record", zap.String("type", typeName), zap.Int("fields", len(values)))
	r, err := stix.New(s, values)
	if err != nil {
		logger.Debug("Construction failed", zap.Error(err))
		return err
	}
	text, err := stix.ToJSONWith(r, stix.EncodeOpt{EnsureASCII: ensureASCII, FloatFraction: floatFraction})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := lookupSchema(typeName)
	if err != nil {
		return err
	}
	if len(args) <= 1 {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		r, err := validateInput(cmd, s, path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %s (%d fields)\n", r.TypeName(), r.Len())
		return err
	}

	results := make([]error, len(args))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range args {
		g.Go(func() error {
			_, results[i] = validateInput(cmd, s, path)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, path := range args {
		line := fmt.Sprintf("ok: %s", path)
		if results[i] != nil {
			failed++
			line = fmt.Sprintf("FAIL: %s: %v", path, results[i])
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}

func validateInput(cmd *cobra.Command, s *stix.Schema, path string) (*stix.Record, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	r, err := stix.ParseJSON(s, data)
	if err != nil {
		if ce, ok := stix.AsConstructError(err); ok {
			logger.Info("Validation failed", zap.String("type", typeName), zap.String("input", path), zap.String("code", ce.Code()))
		}
		return nil, err
	}
	logger.Debug("Validated record", zap.String("type", typeName), zap.String("input", path), zap.Strings("fields", r.Keys()))
	return r, nil
}

func runTypes(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	for _, n := range reg.Names() {
		s, _ := reg.Lookup(n)
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", n, s.TypeName()); err != nil {
			return err
		}
	}
	return nil
}

// loadRegistry returns the built-in types plus those declared in --schema.
func loadRegistry() (*stix.Registry, error) {
	reg := stix.NewRegistry()
	for _, n := range objects.Registry.Names() {
		s, _ := objects.Registry.Lookup(n)
		if err := reg.Register(n, s); err != nil {
			return nil, err
		}
	}
	if schemaPath == "" {
		return reg, nil
	}
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, err
	}
	if err := schemafile.LoadInto(reg, data); err != nil {
		return nil, err
	}
	logger.Debug("Loaded schema file", zap.String("path", schemaPath), zap.Strings("types", reg.Names()))
	return reg, nil
}

func lookupSchema(name string) (*stix.Schema, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	s, ok := reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown type %q (known: %v)", name, reg.Names())
	}
	return s, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
