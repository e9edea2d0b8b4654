package cli

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// newLogger builds a console logger at the named level. Unknown levels fall back to info.
func newLogger(w io.Writer, level string) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	logger := zerolog.New(console).With().Timestamp().Logger()

	lv := zerolog.InfoLevel
	if strings.TrimSpace(level) != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil {
			lv = parsed
		} else {
			logger.Warn().Str("log.level", level).Msg("unknown log level; defaulting to info")
		}
	}
	return logger.Level(lv)
}
