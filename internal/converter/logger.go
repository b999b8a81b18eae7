package converter

import (
	"github.com/rs/zerolog"
)

// Logger is the sink the converter reports progress to. The converter never
// writes to a global stream.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// ZerologLogger adapts a zerolog.Logger to Logger.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps l.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: l}
}

func (l *ZerologLogger) Debug(msg string, args ...interface{}) { l.log.Debug().Msgf(msg, args...) }
func (l *ZerologLogger) Info(msg string, args ...interface{})  { l.log.Info().Msgf(msg, args...) }
func (l *ZerologLogger) Warn(msg string, args ...interface{})  { l.log.Warn().Msgf(msg, args...) }
func (l *ZerologLogger) Error(msg string, args ...interface{}) { l.log.Error().Msgf(msg, args...) }

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
