// Package timeutil provides the UTC timestamp labels shared across the
// notifier: history labels, snapshot filenames, and error-log prefixes.
package timeutil

import "time"

const (
	// LabelFormat is the label written into run logs and error entries.
	// UTC does not observe daylight savings, so successive labels are
	// strictly increasing.
	LabelFormat = "2006-01-02 15:04:05.000000"

	// FileLabelFormat is a filename-safe variant used for snapshot files.
	// Lexicographic order over these names matches chronological order.
	FileLabelFormat = "2006-01-02 150405"
)

// Clock supplies the current time. It exists so the reconciler and stores
// can be tested with a fixed time.
type Clock func() time.Time

// UTCNow is the default Clock.
func UTCNow() time.Time {
	return time.Now().UTC()
}

// Label returns the current UTC time formatted as a history label.
func Label(clock Clock) string {
	if clock == nil {
		clock = UTCNow
	}
	return clock().UTC().Format(LabelFormat)
}

// FileLabel returns the current UTC time formatted as a snapshot filename
// prefix.
func FileLabel(clock Clock) string {
	if clock == nil {
		clock = UTCNow
	}
	return clock().UTC().Format(FileLabelFormat)
}
