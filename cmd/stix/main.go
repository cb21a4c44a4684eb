// Command stix constructs and validates STIX records from the command line.
//
// Usage:
//
//	stix construct --type indicator --values indicator.yaml
//	stix validate --type kill-chain-phase phase.json other.json
//	stix types [--schema types.yaml]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	schemaPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stix",
	Short: "Construct, validate and print STIX records in canonical JSON",
	Long: `stix builds schema-validated STIX records from field values and prints
their canonical JSON form (sorted keys, four-space indentation).

Built-in types: indicator, kill-chain-phase, external-reference.
Additional types can be declared in a YAML schema file with --schema.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "YAML file declaring additional types")

	constructCmd.Flags().StringVarP(&typeName, "type", "t", "", "type to construct")
	constructCmd.Flags().StringVar(&valuesPath, "values", "-", "YAML or JSON file with field values (- for stdin)")
	constructCmd.Flags().BoolVar(&ensureASCII, "ensure-ascii", false, "escape non-ASCII characters as \\uXXXX")
	constructCmd.Flags().BoolVar(&floatFraction, "float-fraction", false, "render integral floats with a trailing .0")
	_ = constructCmd.MarkFlagRequired("type")

	validateCmd.Flags().StringVarP(&typeName, "type", "t", "", "type to validate against")
	_ = validateCmd.MarkFlagRequired("type")

	rootCmd.AddCommand(constructCmd, validateCmd, typesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
