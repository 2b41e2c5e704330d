// Package notify composes the human-readable Slack messages sent when an
// assignment's grading progress changes.
package notify

import (
	"fmt"
	"strings"

	"github.com/jonathan/grading-notifier/internal/tracker"
)

// BuildProgress renders the grading progress update for an assignment.
// The unclaimed figure in the message is derived from the counts rather than
// taken verbatim, so it stays consistent even when graders are excluded from
// the draft count.
func BuildProgress(assignment string, snap tracker.Snapshot, gradersFinalized []string) string {
	unclaimed := snap.Total - (snap.Finalized + snap.Drafts)

	done := 0.0
	if snap.Total > 0 {
		done = float64(snap.Finalized) / float64(snap.Total)
	}

	msg := fmt.Sprintf(
		"*%s*: %.2f%% done (%d finalized, %d drafts, %d left to grade)",
		assignment, done*100, snap.Finalized, snap.Drafts, unclaimed,
	)
	if len(gradersFinalized) > 0 {
		msg += fmt.Sprintf(
			"\nGraders who most recently finalized: %s",
			strings.Join(gradersFinalized, ", "),
		)
	}
	return msg
}

// BuildDeadline renders the one-time message sent after an assignment's
// grading deadline has passed. The deadline label comes from the config and
// must be non-empty.
func BuildDeadline(assignment, deadlineLabel string, snap tracker.Snapshot) (string, error) {
	if deadlineLabel == "" {
		return "", fmt.Errorf("assignment %q has no deadline label", assignment)
	}

	remaining := snap.Total - snap.Finalized
	if remaining <= 0 {
		return fmt.Sprintf(
			"*%s*: the grading deadline (%s) has passed and all %d submissions are finalized :tada:",
			assignment, deadlineLabel, snap.Total,
		), nil
	}
	return fmt.Sprintf(
		"*%s*: the grading deadline (%s) has passed with %d of %d submissions not finalized",
		assignment, deadlineLabel, remaining, snap.Total,
	), nil
}
