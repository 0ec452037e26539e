package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

func New() zerolog.Logger {
	return NewWithWriter(os.Stderr, os.Getenv("ENV"))
}

// NewWithWriter builds the service logger on top of w.
func NewWithWriter(w io.Writer, env string) zerolog.Logger {
	// For Google Cloud Logging, the level field name should be "severity".
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(w).With().Timestamp().Logger()
	if env == "development" {
		return logger.Output(zerolog.ConsoleWriter{Out: w}).Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.InfoLevel)
}
