// =============================================================================
// Sport Passport Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, the main command of the tool. It
// converts one pupil export into a Sport Passport import file.
//
// COMMAND USAGE:
//   passport convert <input> [flags]
//
// FLAGS:
//   -o, --output            : Output CSV path (default <input>.converted.csv)
//   -y, --auto-confirm      : Accept every prompt's default without asking
//   --default-postcode      : Postcode written to every row
//   --default-email         : Email written to every row
//   --encoding              : Encoding of delimited input
//   --delimiter             : Delimiter of delimited input
//   --sheet                 : Spreadsheet sheet to read
//   --min-confidence        : Variation match threshold (0-1]
//   --corrections-log       : Write <output>.corrections.log
//   --summary-log           : Write <output>.summary.log
//   --ledger-db             : Append the run to a SQLite ledger
//
// PROCESSING PIPELINE:
//   1. Load configuration and merge flag / environment overrides
//   2. Read the input grid (Excel or delimited text)
//   3. Detect the header and data rows, map headers to fields
//   4. Repair, normalise, and validate every row
//   5. Confirm and write the 20-column CSV
//   6. Write the side logs and ledger entry
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/sport-passport-converter/internal/config"
	"github.com/ginjaninja78/sport-passport-converter/internal/converter"
	"github.com/ginjaninja78/sport-passport-converter/internal/ledgerstore"
	"github.com/ginjaninja78/sport-passport-converter/internal/prompt"
	"github.com/ginjaninja78/sport-passport-converter/internal/types"
	"github.com/ginjaninja78/sport-passport-converter/pkg/utils"
)

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

// convertCmd represents the 'convert' command.
var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Convert a pupil export into a Sport Passport import CSV",
	Long: `The convert command reads a pupil export (.xlsx, .xlsm, .csv, .txt) and
writes the 20-column CSV expected by the Sport Passport bulk import.

Every decision (header mapping, trimming title rows, fixing a bad value) is
asked on the terminal unless --auto-confirm is given. With --auto-confirm
every automatic fix is accepted and rows that still fail are skipped.

Nothing is written if the conversion is aborted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runConvert(cmd.Context(), cfg, args[0], viper.GetString("output_path"), os.Stdin, os.Stdout)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	flags := convertCmd.Flags()
	flags.StringP("output", "o", "", "Output CSV path (default <input>.converted.csv)")
	flags.BoolP("auto-confirm", "y", false, "Accept defaults without prompting")
	flags.String("default-postcode", "", "Postcode to use for every row")
	flags.String("default-email", "", "Email to use for every row")
	flags.String("encoding", "", "Encoding of delimited input (utf-8, utf-16, latin1, windows-1252)")
	flags.String("delimiter", "", "Delimiter of delimited input (comma, semicolon, tab, pipe)")
	flags.String("sheet", "", "Spreadsheet sheet to read (default first sheet)")
	flags.Float64("min-confidence", 0, "Minimum confidence for a variation header match")
	flags.Bool("corrections-log", false, "Write <output>.corrections.log")
	flags.Bool("summary-log", false, "Write <output>.summary.log")
	flags.String("ledger-db", "", "SQLite database to append the run to")

	for key, name := range convertFlagKeys {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("convert: binding --%s to %s: %v", name, key, err))
		}
	}

	rootCmd.AddCommand(convertCmd)
}

// convertFlagKeys maps viper keys to convert flags. "output" is the config
// section, so the path flag binds to its own key.
var convertFlagKeys = map[string]string{
	"output_path":             "output",
	"auto_confirm":            "auto-confirm",
	"defaults.postcode":       "default-postcode",
	"defaults.email":          "default-email",
	"input.encoding":          "encoding",
	"input.delimiter":         "delimiter",
	"input.sheet":             "sheet",
	"matching.min_confidence": "min-confidence",
	"output.corrections_log":  "corrections-log",
	"output.summary_log":      "summary-log",
	"output.ledger_db":        "ledger-db",
}

// =============================================================================
// CONVERSION
// =============================================================================

// runConvert converts inputPath and writes every requested output.
//
// PARAMETERS:
//   - ctx: bounds the ledger database calls
//   - cfg: merged configuration
//   - inputPath, outputPath: files; an empty outputPath uses the default
//   - in, out: the operator's terminal
//
// RETURNS:
//   - nil on success or when the operator cancels; an error otherwise
func runConvert(ctx context.Context, cfg *config.MainConfig, inputPath, outputPath string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !utils.FileExists(inputPath) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if outputPath == "" {
		outputPath = converter.DefaultOutputPath(inputPath)
	}
	if err := utils.EnsureParentDir(outputPath); err != nil {
		return err
	}

	console := prompt.New(in, out, nil)
	var resolver converter.Resolver = console
	if cfg.AutoConfirm {
		resolver = converter.AutoResolver{}
	}

	logger := log.With().Str("input", inputPath).Logger()
	conv := converter.New(converter.OptionsFromConfig(cfg), resolver, converter.NewZerologLogger(logger))

	start := time.Now()
	result, err := conv.Run(inputPath, outputPath)
	switch {
	case errors.Is(err, types.ErrAborted):
		logger.Warn().Msg("conversion aborted by operator, nothing written")
		return nil
	case errors.Is(err, converter.ErrExportDeclined):
		logger.Warn().Msg("export cancelled, nothing written")
		return nil
	case err != nil:
		return err
	}

	logger.Info().
		Str("run_id", result.RunID).
		Str("output", result.OutputPath).
		Int("rows", len(result.Rows)).
		Int("skipped", len(result.Skipped)).
		Int("corrections", result.Stats.Total).
		Dur("duration", result.ProcessingTime).
		Msg("conversion complete")
	console.Summary(result)

	return writeSideOutputs(ctx, cfg, result, start)
}

// writeSideOutputs writes the optional logs and ledger entry for a
// finished run. The CSV is already on disk, so failures here are reported
// as errors but do not undo it.
func writeSideOutputs(ctx context.Context, cfg *config.MainConfig, result *converter.Result, start time.Time) error {
	if cfg.Output.CorrectionsLog {
		path := utils.CorrectionsLogPath(result.OutputPath)
		if err := utils.WriteCorrectionsLog(path, result.RunID, result.Corrections, result.Manual); err != nil {
			return fmt.Errorf("failed to write corrections log: %w", err)
		}
		log.Debug().Str("path", path).Msg("corrections log written")
	}

	if cfg.Output.SummaryLog {
		path := utils.SummaryLogPath(result.OutputPath)
		if err := utils.WriteSummaryLog(path, summaryOf(result, start)); err != nil {
			return fmt.Errorf("failed to write summary log: %w", err)
		}
		log.Debug().Str("path", path).Msg("summary log written")
	}

	if cfg.Output.LedgerDB != "" {
		store, err := ledgerstore.Open(ctx, cfg.Output.LedgerDB)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveRun(ctx, ledgerstore.RunFromResult(result, start)); err != nil {
			return err
		}
		log.Debug().Str("db", cfg.Output.LedgerDB).Str("run_id", result.RunID).Msg("run saved to ledger")
	}
	return nil
}

func summaryOf(r *converter.Result, start time.Time) utils.RunSummary {
	return utils.RunSummary{
		RunID:       r.RunID,
		InputFile:   r.InputPath,
		OutputFile:  r.OutputPath,
		StartTime:   start,
		EndTime:     start.Add(r.ProcessingTime),
		TotalRows:   r.TotalRows,
		WrittenRows: len(r.Rows),
		EmptyRows:   r.EmptyRows,
		CSVRepairs:  r.CSVRepairs,
		Corrections: r.Stats.Total,
		ByType:      r.Stats.ByType,
		Manual:      len(r.Manual),
		Skipped:     r.Skipped,
	}
}
