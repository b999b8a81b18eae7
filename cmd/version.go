// =============================================================================
// Sport Passport Converter - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   passport version
//   passport version --short
//
// OUTPUT:
//   Sport Passport Converter
//   Version:    0.1.0
//   Commit:     3f2c1ab
//   Build Date: 2024-09-01
//   Go Version: go1.24.0
//   Schema:     20 columns
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
)

// Build information, set with ldflags:
//   go build -ldflags "-X 'github.com/ginjaninja78/sport-passport-converter/cmd.Version=0.1.0'"
var (
	Version   = "0.1.0"
	Commit    = "none"
	BuildDate = "unknown"
)

var shortVersion bool

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if shortVersion {
			fmt.Fprintln(out, Version)
			return
		}
		fmt.Fprintln(out, "Sport Passport Converter")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Commit:     %s\n", Commit)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
		fmt.Fprintf(out, "Schema:     %d columns\n", schema.Default().Len())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&shortVersion, "short", false, "Print the version number only")
	rootCmd.AddCommand(versionCmd)
}
