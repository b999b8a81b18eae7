// =============================================================================
// Sport Passport Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Sport Passport Converter CLI. It
// hands control to the Cobra commands in the cmd package.
//
// USAGE:
//   passport convert <input>   - Convert a pupil export into an import CSV
//   passport schema            - List the output columns
//   passport version           - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra, Viper)
//   - internal/      : Conversion pipeline (not for external import)
//   - pkg/utils/     : Run ids and the side log writers
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sport-passport-converter/cmd"
)

func main() {
	cmd.Execute()
}
