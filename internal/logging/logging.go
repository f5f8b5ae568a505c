// Package logging builds the zerolog logger used across locknote.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when the configured level is empty or unknown.
const DefaultLevel = zerolog.WarnLevel

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		return DefaultLevel
	}
	return level
}

// New returns a human-readable console logger writing to w.
func New(level string, w io.Writer) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    true,
	}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}
