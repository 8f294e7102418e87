package obs

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger.
// format "text" writes human readable console lines; anything else writes JSON.
func InitLogger(level, format string) {
	InitLoggerTo(os.Stdout, level, format)
}

func InitLoggerTo(w io.Writer, level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if strings.EqualFold(format, "text") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(w).With().
		Timestamp().
		Str("service", "facility-route-service").
		Logger()
}

// Logger returns the global logger enriched with the request id carried by ctx.
func Logger(ctx context.Context) *zerolog.Logger {
	l := log.Logger
	if reqID := RequestID(ctx); reqID != "" {
		l = l.With().Str("req_id", reqID).Logger()
	}
	return &l
}
