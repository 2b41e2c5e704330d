package errlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
}

func TestCollector_Errorf(t *testing.T) {
	c := New(zerolog.Nop(), fixedClock)
	c.Errorf("course %q could not be found", "COS126 F2024")

	require.Len(t, c.Entries(), 1)
	assert.Equal(t,
		`[2024-03-15 12:00:00.000000] course "COS126 F2024" could not be found`,
		c.Entries()[0])
	assert.False(t, c.Empty())
}

func TestCollector_SaveAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "ERRORS.txt")

	first := New(zerolog.Nop(), fixedClock)
	first.Errorf("first")
	require.NoError(t, first.Save(path))

	second := New(zerolog.Nop(), fixedClock)
	second.Errorf("second")
	require.NoError(t, second.Save(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"[2024-03-15 12:00:00.000000] first\n[2024-03-15 12:00:00.000000] second\n",
		string(content))
}

func TestCollector_SaveEmptyIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ERRORS.txt")
	c := New(zerolog.Nop(), nil)
	require.NoError(t, c.Save(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
