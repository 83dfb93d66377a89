// =============================================================================
// metafactors - Main Entry Point
// =============================================================================
//
// USAGE:
//   metafactors convert <input>        - Convert a metadata table
//   metafactors validate <factors>     - Check a hand-edited factor file
//   metafactors inspect <document>     - Summarise a JSON document
//   metafactors version                - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Readers, inference, factors, document and the converter
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"os"

	"github.com/stela2502/metafactors/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
