package scheduler

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWinnerSingleMax(t *testing.T) {
	tallies := []CandidateTally{
		{CandidateID: "A", Name: "Alice", Tally: 5},
		{CandidateID: "B", Name: "Bob", Tally: 3},
		{CandidateID: "_abstain", Name: "None of the above", Tally: 0},
	}

	winner, isTie := ResolveWinner(tallies, rand.New(rand.NewSource(1)))
	require.NotNil(t, winner)
	assert.Equal(t, "A", winner.CandidateID)
	assert.False(t, isTie)
}

func TestResolveWinnerTie(t *testing.T) {
	tallies := []CandidateTally{
		{CandidateID: "A", Tally: 4},
		{CandidateID: "B", Tally: 4},
		{CandidateID: "_abstain", Tally: 0},
	}

	winner, isTie := ResolveWinner(tallies, rand.New(rand.NewSource(7)))
	require.NotNil(t, winner)
	assert.True(t, isTie)
	assert.Contains(t, []string{"A", "B"}, winner.CandidateID)
}

func TestResolveWinnerTieIsSeedDeterministic(t *testing.T) {
	tallies := []CandidateTally{
		{CandidateID: "A", Tally: 2},
		{CandidateID: "B", Tally: 2},
		{CandidateID: "C", Tally: 2},
	}

	first, _ := ResolveWinner(tallies, rand.New(rand.NewSource(42)))
	second, _ := ResolveWinner(tallies, rand.New(rand.NewSource(42)))
	assert.Equal(t, first.CandidateID, second.CandidateID)
}

func TestResolveWinnerAbstainCanWin(t *testing.T) {
	tallies := []CandidateTally{
		{CandidateID: "A", Tally: 1},
		{CandidateID: "_abstain", Name: "None of the above", Tally: 9},
	}

	winner, isTie := ResolveWinner(tallies, rand.New(rand.NewSource(1)))
	require.NotNil(t, winner)
	assert.Equal(t, "_abstain", winner.CandidateID)
	assert.False(t, isTie)
}

func TestResolveWinnerEmpty(t *testing.T) {
	winner, isTie := ResolveWinner(nil, rand.New(rand.NewSource(1)))
	assert.Nil(t, winner)
	assert.False(t, isTie)
}

func TestResolveWinnerDoesNotMutateTallies(t *testing.T) {
	tallies := []CandidateTally{
		{CandidateID: "A", Tally: 4},
		{CandidateID: "B", Tally: 4},
	}

	_, _ = ResolveWinner(tallies, rand.New(rand.NewSource(3)))
	assert.Equal(t, 4, tallies[0].Tally)
	assert.Equal(t, 4, tallies[1].Tally)
}
