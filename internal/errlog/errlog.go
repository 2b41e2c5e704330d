// Package errlog collects non-fatal run errors and persists them to the
// error log file. Entries are timestamped strings, not Go errors: they are
// surfaced at the end of a run without interrupting it.
package errlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/grading-notifier/internal/timeutil"
)

// Collector accumulates formatted error entries for one run.
type Collector struct {
	log     zerolog.Logger
	clock   timeutil.Clock
	entries []string
}

// New returns an empty collector. A nil clock uses UTC now.
func New(log zerolog.Logger, clock timeutil.Clock) *Collector {
	if clock == nil {
		clock = timeutil.UTCNow
	}
	return &Collector{log: log, clock: clock}
}

// Errorf records a formatted entry prefixed with the current timestamp and
// logs it.
func (c *Collector) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.log.Error().Msg(msg)
	c.entries = append(c.entries, fmt.Sprintf("[%s] %s", timeutil.Label(c.clock), msg))
}

// Entries returns the collected entries in order.
func (c *Collector) Entries() []string {
	return c.entries
}

// Empty reports whether nothing has been collected.
func (c *Collector) Empty() bool {
	return len(c.entries) == 0
}

// Save appends the collected entries to the error log file, creating parent
// directories as needed. Saving an empty collector is a no-op.
func (c *Collector) Save(path string) error {
	if c.Empty() {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create error log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open error log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(c.entries, "\n") + "\n"); err != nil {
		return fmt.Errorf("failed to write error log: %w", err)
	}
	return nil
}
