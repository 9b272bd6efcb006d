// Package logging builds the structured logger shared by the backend.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"wakescribe/internal/config"
)

// New returns a zerolog logger configured from cfg. Unknown levels fall back
// to info; any format other than "json" renders for humans.
func New(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var output io.Writer = os.Stderr
	if cfg.Format != "json" {
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}
