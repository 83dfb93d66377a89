package cmd

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stela2502/metafactors/internal/document"
	"github.com/stela2502/metafactors/internal/types"
)

// newInspectCmd creates the 'inspect' command.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <document.json>",
		Short: "Summarise a converted JSON document",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
}

// runInspect decodes the document and prints one line per column.
func runInspect(cmd *cobra.Command, args []string) error {
	doc, err := document.ReadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d rows, %d columns", args[0], doc.Rows, len(doc.Columns))
	if doc.Generator.Name != "" {
		fmt.Fprintf(out, " (%s %s)", doc.Generator.Name, doc.Generator.Version)
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tKIND\tLEVELS\tMISSING")
	for _, col := range doc.Columns {
		switch col.Kind {
		case types.KindNumeric:
			fmt.Fprintf(tw, "%s\t%s\t-\t%d\n", col.Name, col.Kind, countNaN(col.Values))
		default:
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", col.Name, col.Kind, col.Factor.Len(), countMissingCodes(col.Codes))
		}
	}
	return tw.Flush()
}

func countNaN(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

func countMissingCodes(codes []int) int {
	n := 0
	for _, c := range codes {
		if c == types.MissingCode {
			n++
		}
	}
	return n
}
