// =============================================================================
// metafactors - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (metafactors)
//   ├── convertCmd  (metafactors convert <input>)
//   ├── validateCmd (metafactors validate <factors-file>)
//   ├── inspectCmd  (metafactors inspect <document.json>)
//   └── versionCmd  (metafactors version)
//
// CONFIGURATION LAYERS (highest wins):
//   1. Command-line flags
//   2. METAFACTORS_* environment variables
//   3. The YAML file named by --config (or ./metafactors.yaml if present)
//   4. Built-in defaults
//
// EXIT CODES:
//   0  success, including a skipped run
//   1  usage or other error
//   2  file could not be read or written
//   3  malformed input table
//   4  malformed factor file
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stela2502/metafactors/internal/config"
	"github.com/stela2502/metafactors/internal/types"
	"github.com/stela2502/metafactors/pkg/utils"
)

// DefaultConfigFile is loaded when --config is not given and the file exists.
const DefaultConfigFile = "metafactors.yaml"

// envPrefix namespaces environment overrides, e.g. METAFACTORS_WORKERS.
const envPrefix = "METAFACTORS"

// Exit codes returned by Execute.
const (
	ExitOK             = 0
	ExitError          = 1
	ExitIO             = 2
	ExitMalformedTable = 3
	ExitMalformedFile  = 4
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "metafactors",
		Short: "Convert metadata tables into numeric and factor JSON",
		Long: `metafactors reads a tab-separated metadata table (one row per sample,
one column per attribute), decides for every column whether it is numeric
or categorical, and writes a JSON document together with an editable
factor file describing the level/code mapping of every categorical column.

An existing factor file is never overwritten: a second run with the same
factor file is skipped, or reuses the curated file with --reuse-factors.

Example Usage:
  metafactors convert meta.tsv                     # writes meta.json and factors.tsv
  metafactors convert meta.csv -d , -c cluster     # force 'cluster' to be a factor
  metafactors convert meta.tsv --reuse-factors     # apply a hand-edited factors.tsv
  metafactors validate factors.tsv                 # check a hand-edited factor file
  metafactors inspect meta.json                    # summarise a document`,

		SilenceErrors: true,
		SilenceUsage:  true,

		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file (default ./"+DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default info)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json (default text)")

	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI with os.Args and returns the process exit code.
// It is called by main.main().
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return ExitOK
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var (
		ioErr     *types.IOError
		tableErr  *types.MalformedTableError
		factorErr *types.MalformedFactorFileError
	)

	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &factorErr):
		return ExitMalformedFile
	case errors.As(err, &tableErr):
		return ExitMalformedTable
	case errors.As(err, &ioErr):
		return ExitIO
	default:
		return ExitError
	}
}

// =============================================================================
// CONFIGURATION INITIALIZATION
// =============================================================================

// loadConfig resolves the configuration for cmd: the YAML file (or defaults)
// with environment variables and explicitly set flags layered on top. The
// returned viper instance has every flag of cmd bound under its flag name.
func loadConfig(cmd *cobra.Command) (*config.Config, *viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	var (
		cfg *config.Config
		err error
	)
	switch path := v.GetString("config"); {
	case path != "":
		cfg, err = config.Load(path)
	case utils.FileExists(DefaultConfigFile):
		cfg, err = config.Load(DefaultConfigFile)
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, nil, err
	}

	if v.IsSet("log-level") {
		cfg.LogLevel = v.GetString("log-level")
	}
	if v.IsSet("log-format") {
		cfg.LogFormat = v.GetString("log-format")
	}

	return cfg, v, nil
}
