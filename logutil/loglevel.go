package logutil

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var levels = map[string]zerolog.Level{
	"trace": zerolog.TraceLevel,
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
	"fatal": zerolog.FatalLevel,
	"panic": zerolog.PanicLevel,
}

// ParseZerologLevel maps a level name to zerolog, defaulting to info.
func ParseZerologLevel(level string) zerolog.Level {
	if lvl, ok := levels[level]; ok {
		return lvl
	}

	return zerolog.InfoLevel
}

func ValidLevel(level string) error {
	if _, ok := levels[level]; !ok {
		return fmt.Errorf("unknown log level %q", level) //nolint:err113
	}

	return nil
}

// Setup configures the global logger. Pretty output is meant for terminals.
func Setup(level string, pretty bool) {
	zerolog.SetGlobalLevel(ParseZerologLevel(level))

	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339} //nolint:exhaustruct
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
