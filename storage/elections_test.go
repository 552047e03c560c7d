package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIndexElectionTimes(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	whole := &Election{StartTime: base, EndTime: base.Add(time.Hour)}
	fractional := &Election{StartTime: base.Add(500 * time.Millisecond), EndTime: base.Add(time.Hour)}
	indexElectionTimes(whole)
	indexElectionTimes(fractional)

	// RFC3339Nano trims trailing sub-second zeros, so this pair of start
	// times compares backwards as strings. The numeric attributes must
	// order by time.
	assert.Greater(t, whole.StartTime.Format(time.RFC3339Nano), fractional.StartTime.Format(time.RFC3339Nano))
	assert.Less(t, whole.StartsAt, fractional.StartsAt)

	assert.Equal(t, base.UnixNano(), whole.StartsAt)
	assert.Equal(t, base.Add(time.Hour).UnixNano(), whole.EndsAt)
}

func TestIndexElectionTimesExactBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	e := &Election{StartTime: now, EndTime: now.Add(time.Hour)}
	indexElectionTimes(e)

	// An election is due the instant its window opens, not a tick later.
	assert.LessOrEqual(t, e.StartsAt, now.UnixNano())
}
