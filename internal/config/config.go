// Package config loads and validates the notifier's YAML configuration and
// environment secrets.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/grading-notifier/internal/timeutil"
)

// Config is the validated run configuration.
type Config struct {
	// Channels maps channel names used in sources to messaging channel ids.
	Channels map[string]string
	// Courses maps "<course> <period>" to its configuration.
	Courses map[string]Course
	// IgnoreGraderPrefix excludes matching graders from progress counts.
	IgnoreGraderPrefix string
}

// Course is one configured course.
type Course struct {
	Name        string
	Period      string
	Channel     string
	Assignments []Assignment
}

// Key returns the course cache key, "<course> <period>".
func (c Course) Key() string {
	return c.Name + " " + c.Period
}

// Assignment is one configured assignment. The date-window flags are
// computed once at config-read time and not re-evaluated during the run.
type Assignment struct {
	Name string
	// ValidDateRange reports whether now falls inside the configured
	// start/end window. Assignments outside their window are skipped
	// entirely.
	ValidDateRange bool
	// DeadlineLabel is the raw configured deadline date, empty when none.
	DeadlineLabel string
	// PassedDeadline reports whether the grading deadline has been
	// crossed.
	PassedDeadline bool
}

// raw YAML shapes; channel ids are checked by hand so a non-string id can be
// reported per channel rather than failing the whole decode.
type rawConfig struct {
	Channels           map[string]any `yaml:"channels"`
	Sources            []rawCourse    `yaml:"sources"`
	IgnoreGraderPrefix string         `yaml:"ignore_grader_prefix"`
}

type rawCourse struct {
	Course      string          `yaml:"course" validate:"required"`
	Period      string          `yaml:"period" validate:"required"`
	Channel     string          `yaml:"channel" validate:"required"`
	Assignments []rawAssignment `yaml:"assignments" validate:"required,min=1"`
}

type rawAssignment struct {
	Name     string `yaml:"name" validate:"required"`
	Start    string `yaml:"start" validate:"omitempty,datetime=2006-01-02"`
	End      string `yaml:"end" validate:"omitempty,datetime=2006-01-02"`
	Deadline string `yaml:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

// Load reads and validates the config file. On failure it returns nil and
// the list of problems found; the config is all-or-nothing, so any problem
// invalidates the whole file.
func Load(path string, clock timeutil.Clock) (*Config, []string) {
	if clock == nil {
		clock = timeutil.UTCNow
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, []string{fmt.Sprintf("config file %q could not be read: %v", path, err)}
	}

	var raw rawConfig
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, []string{fmt.Sprintf("config file has an invalid format: %v", err)}
	}
	if raw.Channels == nil || raw.Sources == nil {
		return nil, []string{"config file has an invalid format"}
	}

	var errs []string

	channels := make(map[string]string, len(raw.Channels))
	for channel, id := range raw.Channels {
		strID, ok := id.(string)
		if !ok {
			errs = append(errs, fmt.Sprintf(
				"config file has an invalid channel id for channel %q (expected string)", channel))
			continue
		}
		channels[channel] = strID
	}

	validate := validator.New()
	courses := make(map[string]Course, len(raw.Sources))
	for i, source := range raw.Sources {
		course, courseErrs := buildCourse(validate, i, source, clock)
		if len(courseErrs) > 0 {
			errs = append(errs, courseErrs...)
			continue
		}
		key := course.Key()
		if _, exists := courses[key]; exists {
			errs = append(errs, "config file has a repeating course name and period")
			continue
		}
		if _, known := channels[course.Channel]; !known {
			errs = append(errs, fmt.Sprintf(
				"config file has unknown channel name %q for course %q", course.Channel, key))
			continue
		}
		courses[key] = course
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &Config{
		Channels:           channels,
		Courses:            courses,
		IgnoreGraderPrefix: raw.IgnoreGraderPrefix,
	}, nil
}

func buildCourse(validate *validator.Validate, index int, raw rawCourse, clock timeutil.Clock) (Course, []string) {
	if err := validate.Struct(raw); err != nil {
		return Course{}, []string{fmt.Sprintf(
			"config file has an invalid course format at index %d", index)}
	}

	course := Course{
		Name:    raw.Course,
		Period:  raw.Period,
		Channel: raw.Channel,
	}

	var errs []string
	for j, assignment := range raw.Assignments {
		if err := validate.Struct(assignment); err != nil {
			errs = append(errs, fmt.Sprintf(
				"config file has an invalid course format at index %d, assignment index %d",
				index, j))
			continue
		}
		built, err := buildAssignment(assignment, clock)
		if err != nil {
			errs = append(errs, fmt.Sprintf(
				"config file has an invalid course format at index %d, assignment index %d: %v",
				index, j, err))
			continue
		}
		course.Assignments = append(course.Assignments, built)
	}
	if len(errs) > 0 {
		return Course{}, errs
	}

	return course, nil
}
