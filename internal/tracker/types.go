// Package tracker maintains per-assignment submission status history across
// polling runs and decides when an observed difference is a change worth
// notifying about.
package tracker

// Status is the grading state recorded for a submission at one run.
type Status string

const (
	// StatusUnclaimed means no grader has picked up the submission.
	StatusUnclaimed Status = "unclaimed"
	// StatusDraft means a grader has claimed the submission but not
	// finalized it.
	StatusDraft Status = "draft"
	// StatusFinalized means grading is complete.
	StatusFinalized Status = "finalized"
	// StatusDeleted means the submission disappeared from the live feed.
	StatusDeleted Status = "deleted"
	// StatusUnknown is only ever returned by lookups on empty history;
	// it is never stored.
	StatusUnknown Status = "unknown"
)

// Record is one recorded status observation for a submission.
type Record struct {
	Status Status  `json:"status"`
	Grader *string `json:"grader"`
}

// Equal reports whether two records agree on both status and grader.
func (r Record) Equal(other Record) bool {
	if r.Status != other.Status {
		return false
	}
	if (r.Grader == nil) != (other.Grader == nil) {
		return false
	}
	return r.Grader == nil || *r.Grader == *other.Grader
}

// unknownRecord is the lookup sentinel for submissions with no history.
func unknownRecord() Record {
	grader := string(StatusUnknown)
	return Record{Status: StatusUnknown, Grader: &grader}
}

// deletedRecord is what gets written when a submission vanishes.
func deletedRecord() Record {
	return Record{Status: StatusDeleted, Grader: nil}
}

// Submission is one live observation from the grading API.
type Submission struct {
	ID        int
	Finalized bool
	Grader    *string
}

// Snapshot is the accumulated state for one assignment. Runs maps a run
// index to the timestamp label of the run that recorded at least one
// transition; Submissions maps submission id -> run index -> record.
// Integer map keys serialize as strings under encoding/json, which is the
// stored document format.
type Snapshot struct {
	Total               int                    `json:"total"`
	Finalized           int                    `json:"finalized"`
	Drafts              int                    `json:"drafts"`
	Unclaimed           int                    `json:"unclaimed"`
	Runs                map[int]string         `json:"runs"`
	Submissions         map[int]map[int]Record `json:"submissions"`
	SentDeadlineMessage *string                `json:"sent_deadline_message"`
}

// Options configures tracking behavior.
type Options struct {
	// IgnoreGraderPrefix excludes drafts claimed by graders whose name
	// starts with this prefix (bot or staff accounts) from the Total and
	// Drafts counts. Their status history is still recorded.
	IgnoreGraderPrefix string
}

// Result is the verdict of one tracking pass.
type Result struct {
	// Changed reports whether the assignment differs from the prior
	// snapshot in any way that should be persisted.
	Changed bool
	// Notify reports whether a progress notification should be sent.
	// Never true while nothing has been finalized.
	Notify bool
	// Snapshot is the merged state to persist.
	Snapshot Snapshot
	// GradersFinalized lists graders who finalized a submission during
	// this run, sorted. Transient: not part of the snapshot.
	GradersFinalized []string
}
