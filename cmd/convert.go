// =============================================================================
// metafactors - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which runs the conversion
// pipeline for one metadata file.
//
// COMMAND USAGE:
//   metafactors convert <input> [flags]
//
// FLAGS:
//   -d, --delimiter      : Field separator of the input (default "\t")
//   -c, --categorical    : Columns forced to be factors (comma-separated)
//   -f, --factors-file   : Factor side file (default factors.tsv)
//   -o, --output         : JSON document (default <input>.json)
//       --encoding       : Character set of the input (default UTF-8)
//       --sheet          : Worksheet of an .xlsx input (default first)
//       --missing        : Missing-value sentinels (default NA)
//       --workers        : Columns classified concurrently (default 1)
//       --reuse-factors  : Apply an existing factor file instead of skipping
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stela2502/metafactors/internal/config"
	"github.com/stela2502/metafactors/internal/converter"
	"github.com/stela2502/metafactors/internal/types"
	"github.com/stela2502/metafactors/pkg/utils"
)

// newConvertCmd creates the 'convert' command.
func newConvertCmd() *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a metadata table into a JSON document and a factor file",
		Long: `Convert reads a delimited metadata table (or an .xlsx workbook), classifies
every column as numeric or categorical and writes:

  - the JSON document (numeric values, or factor codes plus levels)
  - the factor side file listing column, level and code of every factor

If the factor file already exists the run is skipped and nothing is written.
With --reuse-factors the existing file is applied instead: its codes are kept,
new levels found in the data are appended after them, and the file itself is
left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: runConvert,
	}

	flags := convertCmd.Flags()
	flags.StringP("delimiter", "d", "", `Field delimiter: "\t", ",", ";", "|" or their names (default "\t")`)
	flags.StringSliceP("categorical", "c", nil, "Columns to force as categorical (comma-separated)")
	flags.StringP("factors-file", "f", "", "Factor side file (default "+config.DefaultFactorsFile+")")
	flags.StringP("output", "o", "", "Output JSON document (default: input with .json extension)")
	flags.String("encoding", "", "Character encoding of the input (default UTF-8)")
	flags.String("sheet", "", "Worksheet of an .xlsx input (default: first sheet)")
	flags.StringSlice("missing", nil, "Additional cell values treated as missing (default NA)")
	flags.Int("workers", 0, "Number of columns classified concurrently (default 1)")
	flags.Bool("reuse-factors", false, "Apply an existing factor file instead of skipping the run")

	return convertCmd
}

// runConvert is the main function for the 'convert' command.
func runConvert(cmd *cobra.Command, args []string) error {
	cfg, v, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyConvertFlags(cfg, v)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	req, err := buildRequest(cfg, args[0])
	if err != nil {
		return err
	}

	outcome, err := converter.New(logger, Version).Convert(req)
	if err != nil {
		return err
	}

	printOutcome(cmd.OutOrStdout(), req, outcome)
	return nil
}

// applyConvertFlags layers flags and environment variables over cfg.
func applyConvertFlags(cfg *config.Config, v *viper.Viper) {
	if v.IsSet("delimiter") {
		cfg.Delimiter = v.GetString("delimiter")
	}
	if v.IsSet("categorical") {
		cfg.Categorical = splitAll(v.GetStringSlice("categorical"))
	}
	if v.IsSet("factors-file") {
		cfg.FactorsFile = v.GetString("factors-file")
	}
	if v.IsSet("output") {
		cfg.Output = v.GetString("output")
	}
	if v.IsSet("encoding") {
		cfg.Encoding = v.GetString("encoding")
	}
	if v.IsSet("sheet") {
		cfg.Sheet = v.GetString("sheet")
	}
	if v.IsSet("missing") {
		cfg.MissingValues = splitAll(v.GetStringSlice("missing"))
	}
	if v.IsSet("workers") {
		cfg.Workers = v.GetInt("workers")
	}
	if v.IsSet("reuse-factors") {
		cfg.ReuseFactors = v.GetBool("reuse-factors")
	}
}

// splitAll flattens list values that may still hold commas, as environment
// variables arrive as a single string.
func splitAll(values []string) []string {
	out := []string{}
	for _, value := range values {
		out = append(out, config.SplitList(value)...)
	}
	return out
}

// buildRequest turns the resolved configuration into a conversion request.
func buildRequest(cfg *config.Config, input string) (*converter.Request, error) {
	delimiter, err := config.ParseDelimiter(cfg.Delimiter)
	if err != nil {
		return nil, err
	}

	output := cfg.Output
	if output == "" {
		output = utils.DefaultOutputPath(input)
	}

	return &converter.Request{
		InputPath:     input,
		Delimiter:     delimiter,
		Categorical:   types.NewStringSet(cfg.Categorical...),
		FactorsPath:   cfg.FactorsFile,
		OutputPath:    output,
		Encoding:      cfg.Encoding,
		Sheet:         cfg.Sheet,
		MissingValues: cfg.MissingValues,
		Workers:       cfg.Workers,
		ReuseFactors:  cfg.ReuseFactors,
	}, nil
}

// printOutcome writes a short human-readable summary of a run.
func printOutcome(w io.Writer, req *converter.Request, outcome *converter.Outcome) {
	if outcome.Kind == converter.OutcomeSkippedExisting {
		fmt.Fprintf(w, "Skipped: factor file %s already exists (use --reuse-factors to apply it)\n", req.FactorsPath)
		return
	}

	fmt.Fprintf(w, "Converted %s (%d rows, %d numeric, %d categorical) in %v\n",
		req.InputPath, outcome.Rows, outcome.Numeric, outcome.Categorical, outcome.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  document: %s\n", outcome.OutputPath)

	switch outcome.Kind {
	case converter.OutcomeWritten:
		fmt.Fprintf(w, "  factors:  %s\n", outcome.FactorsPath)
	case converter.OutcomeReused:
		fmt.Fprintf(w, "  factors:  %s (reused, unchanged)\n", outcome.FactorsPath)
	}

	if len(outcome.AddedLevels) == 0 {
		return
	}
	columns := make([]string, 0, len(outcome.AddedLevels))
	for column := range outcome.AddedLevels {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	for _, column := range columns {
		fmt.Fprintf(w, "  new levels in %s: %s\n", column, strings.Join(outcome.AddedLevels[column], ", "))
	}
}
