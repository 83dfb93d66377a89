// =============================================================================
// metafactors - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks a factor side file
// after hand edits, before it is applied with 'convert --reuse-factors'.
//
// COMMAND USAGE:
//   metafactors validate <factors-file>
//
// CHECKS:
//   - Every line has exactly column, level and code
//   - Codes are non-negative integers, 0..n-1 per column without gaps
//   - No level or code appears twice in a column
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stela2502/metafactors/internal/factor"
)

// maxListedLevels caps how many levels are printed per column.
const maxListedLevels = 8

// newValidateCmd creates the 'validate' command.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <factors-file>",
		Short: "Check a factor side file for errors",
		Long: `Validate parses a factor side file and reports its columns and levels.
It exits non-zero with the offending line if the file is malformed.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

// runValidate is the main function for the 'validate' command.
func runValidate(cmd *cobra.Command, args []string) error {
	factors, err := factor.ReadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: OK, %d factor columns\n", args[0], len(factors))
	for _, ft := range factors {
		levels := ft.Levels()
		listed := levels
		suffix := ""
		if len(listed) > maxListedLevels {
			listed = listed[:maxListedLevels]
			suffix = fmt.Sprintf(", ... (%d more)", len(levels)-maxListedLevels)
		}
		fmt.Fprintf(out, "  %s: %d levels [%s%s]\n", ft.Column, len(levels), strings.Join(listed, ", "), suffix)
	}
	return nil
}
