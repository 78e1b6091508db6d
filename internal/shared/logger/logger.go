// Package logger builds the base zerolog.Logger the composition root
// hands to every component. Components derive their own context from it
// via With(); nothing else constructs loggers.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the process-wide base logger. devMode switches to the
// human-readable console writer; anything else emits JSON lines for the
// log pipeline.
func New(devMode bool) zerolog.Logger {
	if devMode {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
		return zerolog.New(consoleWriter).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
