package vote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCast_SelfVoteRejected(t *testing.T) {
	tally := NewTally()

	ok := tally.Cast("ana", "ana", "COSA", true)

	assert.False(t, ok, "self-vote must be rejected")
	assert.Equal(t, Counts{}, tally.Counts("ana", "COSA"))
	assert.False(t, tally.HasBallots())
}

func TestCast_ExclusiveChoice(t *testing.T) {
	tally := NewTally()

	tally.Cast("ana", "beto", "COSA", true)
	tally.Cast("ana", "beto", "COSA", false)

	c := tally.Counts("beto", "COSA")
	assert.Equal(t, 0, c.Approve, "approve vote must be withdrawn on flip")
	assert.Equal(t, 1, c.Reject)
}

func TestCast_CountsPerPair(t *testing.T) {
	tally := NewTally()

	tally.Cast("ana", "beto", "COSA", true)
	tally.Cast("carla", "beto", "COSA", true)
	tally.Cast("dani", "beto", "COSA", false)
	tally.Cast("ana", "beto", "FRUTA", false)

	assert.Equal(t, Counts{Approve: 2, Reject: 1}, tally.Counts("beto", "COSA"))
	assert.Equal(t, Counts{Approve: 0, Reject: 1}, tally.Counts("beto", "FRUTA"))
	assert.True(t, tally.HasBallots())
}

func TestResolve_PrefixMismatchBeatsVotes(t *testing.T) {
	tally := NewTally()
	tally.Cast("ana", "beto", "COSA", true)
	tally.Cast("carla", "beto", "COSA", true)

	valid := tally.Resolve("beto", "COSA", "A", "Burro", nil, true)

	assert.False(t, valid, "wrong first letter is invalid regardless of votes")
}

func TestResolve_Majority(t *testing.T) {
	tally := NewTally()
	tally.Cast("ana", "beto", "COSA", true)
	tally.Cast("carla", "beto", "COSA", true)
	tally.Cast("dani", "beto", "COSA", false)

	assert.True(t, tally.Resolve("beto", "COSA", "A", "Auto", nil, false))

	tally.Cast("ana", "beto", "COSA", false)
	tally.Cast("carla", "beto", "COSA", false)
	assert.False(t, tally.Resolve("beto", "COSA", "A", "Auto", nil, true))
}

func TestResolve_TieUsesHostResolutionThenDefault(t *testing.T) {
	tally := NewTally()
	tally.Cast("ana", "beto", "COSA", true)
	tally.Cast("carla", "beto", "COSA", false)

	resolutions := map[string]bool{"beto:COSA": false}
	assert.False(t, tally.Resolve("beto", "COSA", "A", "Auto", resolutions, true))

	// No host resolution: the configured default decides.
	assert.True(t, tally.Resolve("beto", "COSA", "A", "Auto", nil, true))
	assert.False(t, tally.Resolve("beto", "COSA", "A", "Auto", nil, false))
}

func TestResolve_NoBallotsUsesDefault(t *testing.T) {
	tally := NewTally()

	assert.True(t, tally.Resolve("beto", "COSA", "A", "Auto", nil, true))
}

func TestRemoveVoter(t *testing.T) {
	tally := NewTally()
	tally.Cast("ana", "beto", "COSA", true)
	tally.Cast("ana", "carla", "COSA", false)

	tally.RemoveVoter("ana")

	assert.Equal(t, Counts{}, tally.Counts("beto", "COSA"))
	assert.Equal(t, Counts{}, tally.Counts("carla", "COSA"))
	assert.False(t, tally.HasBallots())
}

func TestReset(t *testing.T) {
	tally := NewTally()
	tally.Cast("ana", "beto", "COSA", true)

	tally.Reset()

	assert.False(t, tally.HasBallots())
	assert.Equal(t, Counts{}, tally.Counts("beto", "COSA"))
}
