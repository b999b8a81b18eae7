// =============================================================================
// Sport Passport Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'convert', 'schema') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (passport)
//   ├── convertCmd (passport convert <input>)
//   ├── schemaCmd  (passport schema)
//   └── versionCmd (passport version)
//
// CONFIGURATION:
//   Settings are layered, highest first:
//   1. Command-line flags
//   2. PASSPORT_* environment variables (PASSPORT_DEFAULTS_EMAIL, ...)
//   3. The YAML file named by --config
//   4. Built-in defaults
//
// =============================================================================

package cmd

import (
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/sport-passport-converter/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file. Empty means built-in
// defaults only.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// envPrefix is the prefix of every environment variable the CLI reads.
const envPrefix = "PASSPORT"

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "passport",
	Short: "Sport Passport Converter - Turn school pupil exports into Sport Passport import files",
	Long: `Sport Passport Converter reads a pupil export (CSV or Excel) with whatever
column names the source system uses and writes the strict 20-column CSV that
the Sport Passport bulk import accepts.

Key Features:
  - Fuzzy header matching with operator confirmation
  - Removal of title and totals rows around the data
  - Repair of rows split by commas in medical notes
  - UK date, postcode, email, and gender normalisation
  - A full ledger of every correction made

Example Usage:
  passport convert pupils.xlsx                     # Interactive conversion
  passport convert pupils.csv -y -o import.csv     # No prompts
  passport convert pupils.csv --default-email office@school.example
  passport schema                                  # List the output columns`,

	// Execute logs the error itself.
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		InitLogging(verbose)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("fatal error")
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to a YAML configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose (debug) logging",
	)

	cobra.OnInitialize(initViper)
}

// initViper enables PASSPORT_* environment variables. Nested keys map to
// underscores: input.encoding is read from PASSPORT_INPUT_ENCODING.
func initViper() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads the configuration file (if any) and applies environment
// and flag overrides on top of it.
func loadConfig() (*config.MainConfig, error) {
	path := cfgFile
	if path == "" {
		path = viper.GetString("config")
	}

	cfg, err := config.LoadMainConfig(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		log.Debug().Str("config", path).Msg("configuration loaded")
	}

	mergeOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !verbose {
		if err := setLogLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// mergeOverrides copies every key set by a flag or an environment variable
// into cfg.
func mergeOverrides(cfg *config.MainConfig) {
	if viper.IsSet("auto_confirm") {
		cfg.AutoConfirm = viper.GetBool("auto_confirm")
	}
	setString := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	setString("defaults.postcode", &cfg.Defaults.Postcode)
	setString("defaults.email", &cfg.Defaults.Email)
	setString("input.encoding", &cfg.Input.Encoding)
	setString("input.delimiter", &cfg.Input.Delimiter)
	setString("input.sheet", &cfg.Input.Sheet)
	setString("output.ledger_db", &cfg.Output.LedgerDB)
	setString("log_level", &cfg.LogLevel)

	if viper.IsSet("matching.min_confidence") {
		cfg.Matching.MinConfidence = viper.GetFloat64("matching.min_confidence")
	}
	if viper.IsSet("matching.header_min_matches") {
		cfg.Matching.HeaderMinMatches = viper.GetInt("matching.header_min_matches")
	}
	if viper.IsSet("output.corrections_log") {
		cfg.Output.CorrectionsLog = viper.GetBool("output.corrections_log")
	}
	if viper.IsSet("output.summary_log") {
		cfg.Output.SummaryLog = viper.GetBool("output.summary_log")
	}
}
