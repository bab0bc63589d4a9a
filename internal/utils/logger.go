package utils

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/aziot-sas-agent/internal/errkind"
)

// NewLogger creates the agent logger writing to out.
// format is json or console; level is any zerolog level name.
func NewLogger(level, format string, out io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), errkind.Configuration(fmt.Sprintf("invalid log level %q", level))
	}

	switch format {
	case "json":
	case "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), errkind.Configuration(fmt.Sprintf("invalid log format %q", format))
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
