package tracker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestTrack_FirstRun(t *testing.T) {
	live := []Submission{
		{ID: 1, Finalized: true, Grader: strptr("a")},
		{ID: 2, Finalized: false, Grader: nil},
	}

	res := Track(live, "label-1", nil, Options{})

	assert.True(t, res.Changed)
	assert.True(t, res.Notify)
	assert.Equal(t, 2, res.Snapshot.Total)
	assert.Equal(t, 1, res.Snapshot.Finalized)
	assert.Equal(t, 0, res.Snapshot.Drafts)
	assert.Equal(t, 1, res.Snapshot.Unclaimed)

	require.Equal(t, map[int]string{1: "label-1"}, res.Snapshot.Runs)

	require.Contains(t, res.Snapshot.Submissions, 1)
	require.Contains(t, res.Snapshot.Submissions, 2)
	assert.Equal(t, Record{Status: StatusFinalized, Grader: strptr("a")},
		res.Snapshot.Submissions[1][1])
	assert.Equal(t, Record{Status: StatusUnclaimed, Grader: nil},
		res.Snapshot.Submissions[2][1])

	assert.Equal(t, []string{"a"}, res.GradersFinalized)
}

func TestTrack_SecondRunIdentical(t *testing.T) {
	live := []Submission{
		{ID: 1, Finalized: true, Grader: strptr("a")},
		{ID: 2, Finalized: false, Grader: nil},
	}

	first := Track(live, "label-1", nil, Options{})
	second := Track(live, "label-2", &first.Snapshot, Options{})

	assert.False(t, second.Changed)
	assert.False(t, second.Notify)
	assert.Equal(t, first.Snapshot.Runs, second.Snapshot.Runs)
	assert.Equal(t, first.Snapshot.Submissions, second.Snapshot.Submissions)
	assert.Empty(t, second.GradersFinalized)
}

func TestTrack_DeletionRecordedExactlyOnce(t *testing.T) {
	live := []Submission{
		{ID: 1, Finalized: true, Grader: strptr("a")},
		{ID: 2, Finalized: false, Grader: nil},
	}

	first := Track(live, "label-1", nil, Options{})

	// Submission 2 disappears. The silent second run did not consume a run
	// index, so the deletion lands at index 2.
	remaining := []Submission{{ID: 1, Finalized: true, Grader: strptr("a")}}
	second := Track(remaining, "label-2", &first.Snapshot, Options{})

	assert.True(t, second.Changed)
	assert.Equal(t, Record{Status: StatusDeleted, Grader: nil},
		second.Snapshot.Submissions[2][2])
	assert.Equal(t, "label-2", second.Snapshot.Runs[2])

	// A further run with the submission still absent must not re-mark it.
	third := Track(remaining, "label-3", &second.Snapshot, Options{})
	assert.False(t, third.Changed)
	assert.Len(t, third.Snapshot.Submissions[2], 1)
	assert.NotContains(t, third.Snapshot.Runs, 3)
}

func TestTrack_NotificationGating(t *testing.T) {
	// Five unclaimed submissions: changed, but nothing graded yet.
	var live []Submission
	for id := 1; id <= 5; id++ {
		live = append(live, Submission{ID: id})
	}
	res := Track(live, "label-1", nil, Options{})
	assert.True(t, res.Changed)
	assert.False(t, res.Notify)

	// One finalizes: changed counts, notification fires.
	live[0] = Submission{ID: 1, Finalized: true, Grader: strptr("a")}
	second := Track(live, "label-2", &res.Snapshot, Options{})
	assert.True(t, second.Changed)
	assert.True(t, second.Notify)
}

func TestTrack_DraftTransitions(t *testing.T) {
	live := []Submission{{ID: 7, Finalized: false, Grader: strptr("g1")}}
	first := Track(live, "label-1", nil, Options{})
	assert.Equal(t, 1, first.Snapshot.Drafts)
	assert.Equal(t, Record{Status: StatusDraft, Grader: strptr("g1")},
		first.Snapshot.Submissions[7][1])

	// Same status, different grader: both fields matter for equality.
	live = []Submission{{ID: 7, Finalized: false, Grader: strptr("g2")}}
	second := Track(live, "label-2", &first.Snapshot, Options{})
	assert.True(t, second.Changed)
	assert.Equal(t, Record{Status: StatusDraft, Grader: strptr("g2")},
		second.Snapshot.Submissions[7][2])

	// Finalized by g2: newly finalized grader is reported once.
	live = []Submission{{ID: 7, Finalized: true, Grader: strptr("g2")}}
	third := Track(live, "label-3", &second.Snapshot, Options{})
	assert.True(t, third.Notify)
	assert.Equal(t, []string{"g2"}, third.GradersFinalized)

	// Still finalized: not "newly" finalized anymore.
	fourth := Track(live, "label-4", &third.Snapshot, Options{})
	assert.Empty(t, fourth.GradersFinalized)
	assert.False(t, fourth.Changed)
}

func TestTrack_IgnoreGraderPrefix(t *testing.T) {
	live := []Submission{
		{ID: 1, Finalized: false, Grader: strptr("bot-checker")},
		{ID: 2, Finalized: false, Grader: strptr("human")},
	}

	res := Track(live, "label-1", nil, Options{IgnoreGraderPrefix: "bot-"})

	// The bot draft is excluded from counts but its status is recorded.
	assert.Equal(t, 1, res.Snapshot.Total)
	assert.Equal(t, 1, res.Snapshot.Drafts)
	assert.Contains(t, res.Snapshot.Submissions, 1)
	assert.Equal(t, Record{Status: StatusDraft, Grader: strptr("bot-checker")},
		res.Snapshot.Submissions[1][1])
}

func TestTrack_PriorSnapshotNotMutated(t *testing.T) {
	live := []Submission{{ID: 1, Finalized: false, Grader: nil}}
	first := Track(live, "label-1", nil, Options{})

	live = []Submission{{ID: 1, Finalized: true, Grader: strptr("a")}}
	_ = Track(live, "label-2", &first.Snapshot, Options{})

	assert.Len(t, first.Snapshot.Submissions[1], 1)
	assert.Len(t, first.Snapshot.Runs, 1)
}

func TestTrack_CarriesDeadlineStamp(t *testing.T) {
	stamp := "2024-01-01 00:00:00.000000"
	prior := &Snapshot{
		Runs:                map[int]string{1: "label-1"},
		Submissions:         map[int]map[int]Record{},
		SentDeadlineMessage: &stamp,
	}

	res := Track(nil, "label-2", prior, Options{})
	require.NotNil(t, res.Snapshot.SentDeadlineMessage)
	assert.Equal(t, stamp, *res.Snapshot.SentDeadlineMessage)
}

func TestTrack_RunIndicesMonotonic(t *testing.T) {
	var prior *Snapshot
	for i := 1; i <= 4; i++ {
		grader := "g"
		live := []Submission{{ID: 1, Finalized: i%2 == 0, Grader: &grader}}
		res := Track(live, "label", prior, Options{})
		require.True(t, res.Changed, "run %d", i)
		assert.Contains(t, res.Snapshot.Runs, i)
		prior = &res.Snapshot
	}
	assert.Len(t, prior.Runs, 4)
	assert.Len(t, prior.Submissions[1], 4)
}

func TestSnapshot_JSONKeysAreStrings(t *testing.T) {
	live := []Submission{{ID: 12, Finalized: true, Grader: strptr("a")}}
	res := Track(live, "label-1", nil, Options{})

	raw, err := json.Marshal(res.Snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"runs":{"1":"label-1"}`)
	assert.Contains(t, string(raw), `"12":{"1":`)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, res.Snapshot, decoded)
}
