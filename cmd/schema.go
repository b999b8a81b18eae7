package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sport-passport-converter/internal/matcher"
	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
)

// schemaCmd lists the output columns and the header variations that map
// onto each of them.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "List the output columns and the input headers they accept",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printSchema(os.Stdout, schema.Default(), matcher.DefaultVariations())
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func printSchema(out io.Writer, s *schema.Schema, variations matcher.Variations) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tColumn\tType\tRequired\tAlso accepts")
	for i, f := range s.Fields() {
		required := ""
		if f.Required {
			required = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, f.Header, f.Type, required,
			strings.Join(variations.ForField(f)[1:], ", "))
	}
	w.Flush()
}
