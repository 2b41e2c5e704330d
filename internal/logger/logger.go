// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// New returns a console logger tagged with a fresh run id so log lines from
// separate invocations can be told apart in cron output.
func New() zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).
		With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger()
}
