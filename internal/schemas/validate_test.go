package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/grading-notifier/internal/tracker"
)

func TestValidateSnapshotDocument(t *testing.T) {
	grader := "alice"
	doc := map[string]tracker.Snapshot{
		"Hello": {
			Total:     2,
			Finalized: 1,
			Unclaimed: 1,
			Runs:      map[int]string{1: "2024-03-15 12:00:00.000000"},
			Submissions: map[int]map[int]tracker.Record{
				1: {1: {Status: tracker.StatusFinalized, Grader: &grader}},
				2: {1: {Status: tracker.StatusUnclaimed, Grader: nil}},
			},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.NoError(t, ValidateSnapshotDocument(raw))
}

func TestValidateSnapshotDocument_EmptyDocument(t *testing.T) {
	assert.NoError(t, ValidateSnapshotDocument([]byte(`{}`)))
}

func TestValidateSnapshotDocument_RejectsBadShape(t *testing.T) {
	cases := map[string]string{
		"negative count": `{"Hello": {"total": -1, "finalized": 0, "drafts": 0, "unclaimed": 0, "runs": {}, "submissions": {}}}`,
		"missing counts": `{"Hello": {"runs": {}, "submissions": {}}}`,
		"bad run key":    `{"Hello": {"total": 0, "finalized": 0, "drafts": 0, "unclaimed": 0, "runs": {"abc": "x"}, "submissions": {}}}`,
		"bad status":     `{"Hello": {"total": 0, "finalized": 0, "drafts": 0, "unclaimed": 0, "runs": {}, "submissions": {"1": {"1": {"status": "unknown", "grader": null}}}}}`,
		"not an object":  `[1, 2, 3]`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateSnapshotDocument([]byte(doc))
			require.Error(t, err)

			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}
