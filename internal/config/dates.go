package config

import (
	"fmt"
	"time"

	"github.com/jonathan/grading-notifier/internal/timeutil"
)

// Config dates are written as plain days in the course's local timezone.
// A start date opens the window at midnight; end and deadline dates are
// inclusive of the named day, so the cutoff is midnight of the following day.
const dateFormat = "2006-01-02"

var eastern = mustLoadEastern()

func mustLoadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(fmt.Sprintf("load US eastern timezone: %v", err))
	}
	return loc
}

// buildAssignment folds an assignment's raw date strings into the flags the
// reconciler consumes. Flags are computed against now exactly once.
func buildAssignment(raw rawAssignment, clock timeutil.Clock) (Assignment, error) {
	now := clock().UTC()

	start, err := parseDay(raw.Start, 0)
	if err != nil {
		return Assignment{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := parseDay(raw.End, 24*time.Hour)
	if err != nil {
		return Assignment{}, fmt.Errorf("invalid end date: %w", err)
	}
	deadline, err := parseDay(raw.Deadline, 24*time.Hour)
	if err != nil {
		return Assignment{}, fmt.Errorf("invalid deadline date: %w", err)
	}

	return Assignment{
		Name:           raw.Name,
		ValidDateRange: validDateRange(now, start, end),
		DeadlineLabel:  raw.Deadline,
		PassedDeadline: deadline != nil && !now.Before(*deadline),
	}, nil
}

// parseDay parses a config date in the local course timezone and shifts it
// by the given offset before converting to UTC. A zero offset yields the
// start of the day; a full day yields the exclusive end of it.
func parseDay(value string, offset time.Duration) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation(dateFormat, value, eastern)
	if err != nil {
		return nil, err
	}
	utc := day.Add(offset).UTC()
	return &utc, nil
}

func validDateRange(now time.Time, start, end *time.Time) bool {
	if start != nil && now.Before(*start) {
		return false
	}
	if end != nil && !now.Before(*end) {
		return false
	}
	return true
}
