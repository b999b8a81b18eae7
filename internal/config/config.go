// =============================================================================
// Sport Passport Converter - Configuration Module
// =============================================================================
//
// This module loads the optional YAML configuration file. Every setting has
// a default, so the converter runs without any file at all. Command-line
// flags and PASSPORT_* environment variables override file values; that
// layering happens in the cmd package.
//
// EXAMPLE (passport.yaml):
//
//   auto_confirm: false
//   defaults:
//     postcode: "SW1A 1AA"
//     email: "office@school.example"
//   input:
//     encoding: windows-1252
//     delimiter: semicolon
//     sheet: Pupils
//   matching:
//     min_confidence: 0.5
//     header_min_matches: 3
//   output:
//     corrections_log: true
//     summary_log: true
//     ledger_db: ./passport-ledger.db
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sport-passport-converter/internal/schema"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the converter configuration.
type MainConfig struct {
	// AutoConfirm answers every decision point without prompting.
	AutoConfirm bool `yaml:"auto_confirm"`

	// Defaults are operator-supplied values written to every output row.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Input controls how source files are read.
	Input InputSettings `yaml:"input"`

	// Matching tunes header detection and the variation tier.
	Matching MatchingSettings `yaml:"matching"`

	// Output controls the side files written next to the CSV.
	Output OutputSettings `yaml:"output"`

	// LogLevel is a zerolog level name. -v forces debug.
	LogLevel string `yaml:"log_level"`
}

// DefaultsConfig holds the school-wide override values.
type DefaultsConfig struct {
	Postcode string `yaml:"postcode"`
	Email    string `yaml:"email"`
}

// InputSettings describes the source file format.
type InputSettings struct {
	// Encoding of delimited files: utf-8, utf-16, latin1, windows-1252.
	Encoding string `yaml:"encoding"`

	// Delimiter is comma, semicolon, tab, pipe, or a single character.
	Delimiter string `yaml:"delimiter"`

	// Sheet is the spreadsheet sheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`
}

// MatchingSettings tunes the header matcher and row detector.
type MatchingSettings struct {
	MinConfidence    float64 `yaml:"min_confidence"`
	HeaderMinMatches int     `yaml:"header_min_matches"`
}

// OutputSettings selects the optional outputs.
type OutputSettings struct {
	CorrectionsLog bool   `yaml:"corrections_log"`
	SummaryLog     bool   `yaml:"summary_log"`
	LedgerDB       string `yaml:"ledger_db"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration used when no file is given.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the configuration from a YAML file. An empty path
// returns the defaults.
//
// PARAMETERS:
//   - configPath: The path to the configuration file, or "".
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed, or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset option.
func applyMainConfigDefaults(config *MainConfig) {
	if config.Input.Encoding == "" {
		config.Input.Encoding = "utf-8"
	}
	if config.Input.Delimiter == "" {
		config.Input.Delimiter = "comma"
	}
	if config.Matching.MinConfidence == 0 {
		config.Matching.MinConfidence = 0.5
	}
	if config.Matching.HeaderMinMatches == 0 {
		config.Matching.HeaderMinMatches = 3
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

// Validate checks value ranges. It is also called after flags and
// environment variables have been merged in.
func (c *MainConfig) Validate() error {
	if c.Matching.MinConfidence <= 0 || c.Matching.MinConfidence > 1 {
		return fmt.Errorf("matching.min_confidence must be in (0, 1], got %v", c.Matching.MinConfidence)
	}
	if c.Matching.HeaderMinMatches < 1 {
		return fmt.Errorf("matching.header_min_matches must be at least 1, got %d", c.Matching.HeaderMinMatches)
	}
	if _, err := ParseDelimiter(c.Input.Delimiter); err != nil {
		return err
	}
	if email := strings.TrimSpace(c.Defaults.Email); email != "" && !schema.EmailPattern.MatchString(email) {
		return fmt.Errorf("defaults.email is not a valid email address: %q", email)
	}
	return nil
}

// Overrides returns field name -> value for the non-empty defaults.
func (c *MainConfig) Overrides() map[string]string {
	out := make(map[string]string)
	if v := strings.TrimSpace(c.Defaults.Postcode); v != "" {
		out[schema.FieldPostcode] = v
	}
	if v := strings.TrimSpace(c.Defaults.Email); v != "" {
		out[schema.FieldEmail] = v
	}
	return out
}

// ParseDelimiter resolves a delimiter name or single character.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\\t", "\t", "tab":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a name or a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}
