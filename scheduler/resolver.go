package scheduler

import "math/rand"

// CandidateTally is one decrypted per-candidate result.
type CandidateTally struct {
	CandidateID string
	Name        string
	Tally       int
}

// ResolveWinner picks the candidate with the maximum tally. When several
// candidates share the maximum the winner is drawn uniformly from them and
// isTie is true; pass a seeded rand to make that reproducible. The abstain
// entry competes like any other candidate. An empty slice yields no winner
// and no tie. Tallies are never mutated.
func ResolveWinner(tallies []CandidateTally, rng *rand.Rand) (winner *CandidateTally, isTie bool) {
	if len(tallies) == 0 {
		return nil, false
	}

	maxTally := tallies[0].Tally
	for _, t := range tallies[1:] {
		if t.Tally > maxTally {
			maxTally = t.Tally
		}
	}

	top := make([]int, 0, 1)
	for i, t := range tallies {
		if t.Tally == maxTally {
			top = append(top, i)
		}
	}

	if len(top) == 1 {
		return &tallies[top[0]], false
	}
	return &tallies[top[rng.Intn(len(top))]], true
}
