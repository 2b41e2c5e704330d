package tracker

import (
	"sort"
	"strings"
)

// Track merges one pass of live submissions into the prior snapshot for an
// assignment. The prior snapshot is never mutated; the returned snapshot is
// an independent copy.
//
// A status entry is written only when the computed current record differs
// from the last recorded one, and the run log gains an entry only for runs
// that wrote at least one status. A run that records nothing does not
// consume a run index: the next run recomputes the same index.
func Track(live []Submission, label string, prior *Snapshot, opts Options) Result {
	snap := Snapshot{
		Runs:        map[int]string{},
		Submissions: map[int]map[int]Record{},
	}
	if prior != nil {
		snap.Runs = cloneRuns(prior.Runs)
		snap.Submissions = cloneSubmissions(prior.Submissions)
		snap.SentDeadlineMessage = prior.SentDeadlineMessage
	}

	next := maxRunIndex(snap) + 1

	// Every previously seen submission is presumed deleted until it shows
	// up in the live pass.
	pending := make(map[int]struct{}, len(snap.Submissions))
	for id := range snap.Submissions {
		pending[id] = struct{}{}
	}

	updated := false
	finalizedBy := map[string]struct{}{}

	for _, sub := range live {
		delete(pending, sub.ID)

		last, ok := lastRecord(snap.Submissions[sub.ID])
		if !ok {
			last = unknownRecord()
		}

		current, ignored := classify(sub, opts)

		if !ignored {
			snap.Total++
			switch current.Status {
			case StatusFinalized:
				snap.Finalized++
			case StatusDraft:
				snap.Drafts++
			default:
				snap.Unclaimed++
			}
		}

		if current.Status == StatusFinalized && last.Status != StatusFinalized && sub.Grader != nil {
			finalizedBy[*sub.Grader] = struct{}{}
		}

		if current.Equal(last) {
			continue
		}
		if snap.Submissions[sub.ID] == nil {
			snap.Submissions[sub.ID] = map[int]Record{}
		}
		snap.Submissions[sub.ID][next] = current
		updated = true
	}

	// Submissions that vanished from the live feed are marked deleted,
	// exactly once.
	for _, id := range sortedIDs(pending) {
		last, ok := lastRecord(snap.Submissions[id])
		if ok && last.Equal(deletedRecord()) {
			continue
		}
		snap.Submissions[id][next] = deletedRecord()
		updated = true
	}

	if updated {
		snap.Runs[next] = label
	}

	changed := prior == nil || updated ||
		snap.Total != prior.Total ||
		snap.Finalized != prior.Finalized ||
		snap.Drafts != prior.Drafts ||
		snap.Unclaimed != prior.Unclaimed

	return Result{
		Changed:          changed,
		Notify:           changed && snap.Total > 0 && snap.Finalized > 0,
		Snapshot:         snap,
		GradersFinalized: sortedGraders(finalizedBy),
	}
}

// classify maps a live observation to its status record and reports whether
// the submission is excluded from the counts.
func classify(sub Submission, opts Options) (Record, bool) {
	if sub.Finalized {
		return Record{Status: StatusFinalized, Grader: sub.Grader}, false
	}
	if sub.Grader != nil {
		ignored := opts.IgnoreGraderPrefix != "" &&
			strings.HasPrefix(*sub.Grader, opts.IgnoreGraderPrefix)
		return Record{Status: StatusDraft, Grader: sub.Grader}, ignored
	}
	return Record{Status: StatusUnclaimed, Grader: nil}, false
}

// lastRecord returns the record at the numerically greatest run index.
func lastRecord(history map[int]Record) (Record, bool) {
	max := 0
	found := false
	for idx := range history {
		if !found || idx > max {
			max = idx
			found = true
		}
	}
	if !found {
		return Record{}, false
	}
	return history[max], true
}

// maxRunIndex returns the greatest run index recorded anywhere in the
// snapshot, or 0 when there is no history.
func maxRunIndex(snap Snapshot) int {
	max := 0
	for idx := range snap.Runs {
		if idx > max {
			max = idx
		}
	}
	for _, history := range snap.Submissions {
		for idx := range history {
			if idx > max {
				max = idx
			}
		}
	}
	return max
}

func cloneRuns(runs map[int]string) map[int]string {
	out := make(map[int]string, len(runs))
	for idx, label := range runs {
		out[idx] = label
	}
	return out
}

func cloneSubmissions(subs map[int]map[int]Record) map[int]map[int]Record {
	out := make(map[int]map[int]Record, len(subs))
	for id, history := range subs {
		cloned := make(map[int]Record, len(history))
		for idx, rec := range history {
			cloned[idx] = rec
		}
		out[id] = cloned
	}
	return out
}

func sortedIDs(ids map[int]struct{}) []int {
	out := make([]int, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func sortedGraders(graders map[string]struct{}) []string {
	out := make([]string, 0, len(graders))
	for grader := range graders {
		out = append(out, grader)
	}
	sort.Strings(out)
	return out
}
