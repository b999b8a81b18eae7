package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogging configures zerolog. Output goes to stderr so it does not mix
// with the interactive prompts on stdout.
func InitLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// setLogLevel applies a level name from the configuration.
func setLogLevel(name string) error {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log_level %q: %w", name, err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}
