package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/encryption"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/notification"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const credentialAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const credentialLength = 10

// Materializer derives the per-election working sets from the election's
// referenced rosters. Materialize is idempotent: existing sets are
// returned unchanged and nothing is re-created or re-notified.
type Materializer struct {
	VoterLists     storage.VoterListStorage
	CandidateLists storage.CandidateListStorage
	VoterSets      storage.VoterSetStorage
	CandidateSets  storage.CandidateSetStorage
	Cipher         *encryption.TallyCipher
	Notifier       notification.Notifier
}

// Materialize returns the election's voter and candidate sets, creating
// whichever is missing. created reports whether any set was created in
// this call; "registered" notifications go out only for a fresh voter set.
func (m *Materializer) Materialize(ctx context.Context, election *storage.Election) (*storage.ElectionVoterSet, *storage.ElectionCandidateSet, bool, error) {
	voterSet, err := m.VoterSets.Get(ctx, election.ID)
	if err != nil && !errors.Is(err, storage.ErrItemNotFound) {
		return nil, nil, false, err
	}
	candidateSet, err := m.CandidateSets.Get(ctx, election.ID)
	if err != nil && !errors.Is(err, storage.ErrItemNotFound) {
		return nil, nil, false, err
	}
	if voterSet != nil && candidateSet != nil {
		return voterSet, candidateSet, false, nil
	}

	created := false
	if voterSet == nil {
		voterSet, err = m.buildVoterSet(ctx, election)
		if err != nil {
			return nil, nil, false, err
		}
		if err := m.VoterSets.Create(ctx, voterSet); err != nil {
			// A concurrent or crashed earlier pass won the create; reuse its set.
			if errors.Is(err, storage.ErrItemWithIDAlreadyExists) {
				voterSet, err = m.VoterSets.Get(ctx, election.ID)
				if err != nil {
					return nil, nil, false, err
				}
			} else {
				return nil, nil, false, fmt.Errorf("voter set for election %s: %w", election.ID, err)
			}
		} else {
			created = true
			m.notifyRegistered(ctx, election, voterSet)
		}
	}

	if candidateSet == nil {
		candidateSet, err = m.buildCandidateSet(ctx, election)
		if err != nil {
			return nil, nil, false, err
		}
		if err := m.CandidateSets.Create(ctx, candidateSet); err != nil {
			if errors.Is(err, storage.ErrItemWithIDAlreadyExists) {
				candidateSet, err = m.CandidateSets.Get(ctx, election.ID)
				if err != nil {
					return nil, nil, false, err
				}
			} else {
				return nil, nil, false, fmt.Errorf("candidate set for election %s: %w", election.ID, err)
			}
		} else {
			created = true
		}
	}

	return voterSet, candidateSet, created, nil
}

func (m *Materializer) buildVoterSet(ctx context.Context, election *storage.Election) (*storage.ElectionVoterSet, error) {
	lists, err := resolveLists(ctx, election.VoterListNames, m.VoterLists.Get)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	set := &storage.ElectionVoterSet{
		ElectionID: election.ID,
		Voters:     make([]storage.ElectionVoter, 0),
		CreatedAt:  time.Now().UTC(),
	}
	for _, list := range lists {
		for _, entry := range list.Voters {
			if seen[entry.VoterID] {
				continue
			}
			seen[entry.VoterID] = true

			credential, err := gonanoid.Generate(credentialAlphabet, credentialLength)
			if err != nil {
				return nil, err
			}
			set.Voters = append(set.Voters, storage.ElectionVoter{
				VoterID:    entry.VoterID,
				Name:       entry.Name,
				Email:      entry.Email,
				Credential: credential,
				HasVoted:   false,
			})
		}
	}
	return set, nil
}

func (m *Materializer) buildCandidateSet(ctx context.Context, election *storage.Election) (*storage.ElectionCandidateSet, error) {
	lists, err := resolveLists(ctx, election.CandidateListNames, m.CandidateLists.Get)
	if err != nil {
		return nil, err
	}

	zero, err := m.Cipher.Encrypt(0)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	set := &storage.ElectionCandidateSet{
		ElectionID: election.ID,
		Candidates: make([]storage.ElectionCandidate, 0),
		CreatedAt:  time.Now().UTC(),
	}
	for _, list := range lists {
		for _, entry := range list.Candidates {
			if seen[entry.CandidateID] {
				continue
			}
			seen[entry.CandidateID] = true

			tally, err := m.Cipher.Encrypt(0)
			if err != nil {
				return nil, err
			}
			set.Candidates = append(set.Candidates, storage.ElectionCandidate{
				CandidateID:    entry.CandidateID,
				Name:           entry.Name,
				ImageURL:       entry.ImageURL,
				EncryptedTally: tally,
			})
		}
	}

	set.Candidates = append(set.Candidates, storage.ElectionCandidate{
		CandidateID:    storage.AbstainCandidateID,
		Name:           "None of the above",
		EncryptedTally: zero,
	})
	return set, nil
}

// resolveLists fetches the named lists concurrently, preserving the order
// the election references them in so dedup stays first-occurrence-wins.
func resolveLists[T any](ctx context.Context, names []string, get func(context.Context, string) (*T, error)) ([]*T, error) {
	lists := make([]*T, len(names))
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			lists[i], errs[i] = get(ctx, name)
		}(i, name)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("resolve list %s: %w", names[i], err)
		}
	}
	return lists, nil
}

func (m *Materializer) notifyRegistered(ctx context.Context, election *storage.Election, set *storage.ElectionVoterSet) {
	if m.Notifier == nil {
		return
	}
	for _, voter := range set.Voters {
		ok := m.Notifier.Notify(ctx, notification.KindRegistered, voter.Email, notification.Payload{
			ElectionName: election.Name,
			VoterName:    voter.Name,
			Credential:   voter.Credential,
		})
		if !ok {
			logging.Log.Warnf("ROSTER: registered notification to %s failed, continuing", voter.Email)
		}
	}
}
