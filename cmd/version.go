// =============================================================================
// metafactors - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   metafactors version
//
// OUTPUT:
//   metafactors
//   Version:        1.0.0
//   Build Date:     2024-01-01
//   Schema Version: 1
//   Go Version:     go1.24.0
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/stela2502/metafactors/internal/document"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================
// These variables are set at build time using ldflags.
// Example build command:
//   go build -ldflags "-X 'github.com/stela2502/metafactors/cmd.Version=1.0.0'"

// Version is the application version. It is also recorded in every
// document's generator block.
var Version = "dev"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

// newVersionCmd creates the 'version' command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the application version",
		Long:  `Display the application version, build date, document schema version and Go runtime version.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "metafactors")
			fmt.Fprintf(out, "Version:        %s\n", Version)
			fmt.Fprintf(out, "Build Date:     %s\n", BuildDate)
			fmt.Fprintf(out, "Schema Version: %d\n", document.SchemaVersion)
			fmt.Fprintf(out, "Go Version:     %s\n", runtime.Version())
		},
	}
}
