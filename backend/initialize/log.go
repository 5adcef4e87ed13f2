package initialize

import (
	"io"
	"os"
	"strings"

	"compliance-feed/backend/global"

	"github.com/rs/zerolog"
)

func init() {
	// console writer until the config says otherwise
	global.Logger = NewLogger(os.Stdout, "console", "info")
}

// NewLogger builds the process logger. format is "json" or "console";
// an unknown level falls back to info.
func NewLogger(out io.Writer, format, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
