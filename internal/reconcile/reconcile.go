// Package reconcile walks the configured courses, feeds live submission data
// through the tracker, and sends notifications when grading progress changed.
package reconcile

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/jonathan/grading-notifier/internal/codepost"
	"github.com/jonathan/grading-notifier/internal/config"
	"github.com/jonathan/grading-notifier/internal/errlog"
	"github.com/jonathan/grading-notifier/internal/notify"
	"github.com/jonathan/grading-notifier/internal/timeutil"
	"github.com/jonathan/grading-notifier/internal/tracker"
)

// GradeSource provides the live course and submission data, normally the
// codePost client.
type GradeSource interface {
	ListCourses(ctx context.Context, name, period string) ([]codepost.Course, error)
	ListSubmissions(ctx context.Context, assignmentID int) ([]codepost.Submission, error)
}

// Messenger delivers notifications, normally the Slack client.
type Messenger interface {
	PostMessage(ctx context.Context, channelID, text string) error
	PostBlockMessage(ctx context.Context, channelID, text string) error
}

// Reconciler runs one polling pass over all configured courses.
type Reconciler struct {
	Source    GradeSource
	Messenger Messenger
	Errors    *errlog.Collector
	Log       zerolog.Logger
	Clock     timeutil.Clock
	// IgnoreGraderPrefix is forwarded to the tracker.
	IgnoreGraderPrefix string
}

// CourseData is one course's snapshot document, keyed by assignment name.
type CourseData = map[string]tracker.Snapshot

// Run processes every configured course sequentially and returns the courses
// whose data changed, keyed by course key. Domain-level failures (course not
// found, missing assignment, message build or delivery failures) are
// collected into the error collector and never interrupt the loop; only
// transport failures from the grade source propagate and abort the run.
func (r *Reconciler) Run(ctx context.Context, courses map[string]config.Course, channels map[string]string, cached map[string]CourseData) (map[string]CourseData, bool, error) {
	clock := r.Clock
	if clock == nil {
		clock = timeutil.UTCNow
	}

	keys := make([]string, 0, len(courses))
	for key := range courses {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := map[string]CourseData{}
	anyChanged := false

	for _, key := range keys {
		course := courses[key]
		r.Log.Info().Str("course", key).Msg("processing course")

		live, err := r.Source.ListCourses(ctx, course.Name, course.Period)
		if err != nil {
			return nil, false, err
		}
		if len(live) == 0 {
			r.Errors.Errorf("course %q with period %q could not be found",
				course.Name, course.Period)
			continue
		}
		// Take the first course if there are duplicates.
		liveCourse := live[0]

		byName := make(map[string]codepost.Assignment, len(liveCourse.Assignments))
		for _, assignment := range liveCourse.Assignments {
			byName[assignment.Name] = assignment
		}

		data, changed, err := r.reconcileCourse(ctx, clock, key, course, byName,
			channels[course.Channel], cached[key])
		if err != nil {
			return nil, false, err
		}
		if changed {
			out[key] = data
			anyChanged = true
		}
	}

	return out, anyChanged, nil
}

func (r *Reconciler) reconcileCourse(ctx context.Context, clock timeutil.Clock, courseKey string, course config.Course, live map[string]codepost.Assignment, channelID string, cached CourseData) (CourseData, bool, error) {
	data := CourseData{}
	changed := false

	for _, assignment := range course.Assignments {
		prior := priorSnapshot(cached, assignment.Name)

		// Outside the configured date window: no fetch, no tracker run,
		// no history churn. The prior snapshot is carried forward so a
		// wholesale save of the course cannot lose it.
		if !assignment.ValidDateRange {
			if prior != nil {
				data[assignment.Name] = *prior
			}
			continue
		}

		liveAssignment, ok := live[assignment.Name]
		if !ok {
			r.Errors.Errorf("course %q does not have an assignment called %q",
				courseKey, assignment.Name)
			if prior != nil {
				data[assignment.Name] = *prior
			}
			continue
		}

		r.Log.Info().Str("course", courseKey).Str("assignment", assignment.Name).
			Msg("processing assignment")

		submissions, err := r.Source.ListSubmissions(ctx, liveAssignment.ID)
		if err != nil {
			return nil, false, err
		}

		res := tracker.Track(toObservations(submissions), timeutil.Label(clock), prior,
			tracker.Options{IgnoreGraderPrefix: r.IgnoreGraderPrefix})
		snapshot := res.Snapshot

		if deadlineDue(assignment, snapshot) {
			if r.sendDeadline(ctx, clock, channelID, assignment, &snapshot) {
				changed = true
			}
		}

		if res.Notify {
			r.Log.Info().Str("assignment", assignment.Name).
				Msg("assignment changed, sending notification")
			msg := notify.BuildProgress(assignment.Name, snapshot, res.GradersFinalized)
			if err := r.Messenger.PostMessage(ctx, channelID, msg); err != nil {
				r.Errors.Errorf("Slack API error: %v", err)
			}
		}

		data[assignment.Name] = snapshot
		if res.Changed {
			changed = true
		}
	}

	return data, changed, nil
}

// deadlineDue reports whether the one-time deadline message still needs to
// go out for this assignment.
func deadlineDue(assignment config.Assignment, snapshot tracker.Snapshot) bool {
	return assignment.DeadlineLabel != "" &&
		assignment.PassedDeadline &&
		snapshot.SentDeadlineMessage == nil
}

// sendDeadline builds and delivers the deadline message. The sent stamp is
// written only on delivery success, so failed attempts are retried on the
// next run.
func (r *Reconciler) sendDeadline(ctx context.Context, clock timeutil.Clock, channelID string, assignment config.Assignment, snapshot *tracker.Snapshot) bool {
	msg, err := notify.BuildDeadline(assignment.Name, assignment.DeadlineLabel, *snapshot)
	if err != nil {
		r.Errors.Errorf("failed to build deadline message for %q: %v", assignment.Name, err)
		return false
	}
	if err := r.Messenger.PostBlockMessage(ctx, channelID, msg); err != nil {
		r.Errors.Errorf("Slack API error: %v", err)
		return false
	}
	stamp := timeutil.Label(clock)
	snapshot.SentDeadlineMessage = &stamp
	return true
}

func priorSnapshot(cached CourseData, name string) *tracker.Snapshot {
	if cached == nil {
		return nil
	}
	snapshot, ok := cached[name]
	if !ok {
		return nil
	}
	return &snapshot
}

func toObservations(submissions []codepost.Submission) []tracker.Submission {
	out := make([]tracker.Submission, 0, len(submissions))
	for _, s := range submissions {
		out = append(out, tracker.Submission{
			ID:        s.ID,
			Finalized: s.IsFinalized,
			Grader:    s.Grader,
		})
	}
	return out
}
