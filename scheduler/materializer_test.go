package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/notification"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeDeduplicatesAcrossVoterLists(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	require.NoError(t, f.voterLists.Create(ctx, &storage.VoterList{
		Name: "engineering",
		Voters: []storage.VoterListEntry{
			{VoterID: "v1", Name: "Ada", Email: "ada@example.com"},
			{VoterID: "v2", Name: "Ben", Email: "ben@example.com"},
		},
	}))
	require.NoError(t, f.voterLists.Create(ctx, &storage.VoterList{
		Name: "managers",
		Voters: []storage.VoterListEntry{
			{VoterID: "v2", Name: "Ben (mgr)", Email: "ben+mgr@example.com"},
			{VoterID: "v3", Name: "Cleo", Email: "cleo@example.com"},
		},
	}))
	require.NoError(t, f.candidateLists.Create(ctx, &storage.CandidateList{
		Name:       "board",
		Candidates: []storage.CandidateListEntry{{CandidateID: "c1", Name: "Dana"}},
	}))

	election := &storage.Election{
		ID:                 "EL1",
		Name:               "Board 2025",
		StartTime:          f.now.Add(-time.Hour),
		EndTime:            f.now.Add(time.Hour),
		VoterListNames:     []string{"engineering", "managers"},
		CandidateListNames: []string{"board"},
	}

	voterSet, _, created, err := f.coordinator.Materializer.Materialize(ctx, election)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, voterSet.Voters, 3)

	// First occurrence wins, so v2 keeps the engineering list's fields.
	assert.Equal(t, "v2", voterSet.Voters[1].VoterID)
	assert.Equal(t, "Ben", voterSet.Voters[1].Name)
	assert.Equal(t, "ben@example.com", voterSet.Voters[1].Email)

	// Each registered voter gets a distinct credential.
	credentials := make(map[string]bool)
	for _, voter := range voterSet.Voters {
		credentials[voter.Credential] = true
	}
	assert.Len(t, credentials, 3)
}

func TestMaterializeIsIdempotent(t *testing.T) {
	f := newCoordinatorFixture(t)
	election := f.seedScheduledElection(t)
	ctx := context.Background()

	first, _, created, err := f.coordinator.Materializer.Materialize(ctx, election)
	require.NoError(t, err)
	assert.True(t, created)

	second, _, created, err := f.coordinator.Materializer.Materialize(ctx, election)
	require.NoError(t, err)
	assert.False(t, created)

	// Credentials are minted once and must survive the second call.
	require.Len(t, second.Voters, len(first.Voters))
	for i := range first.Voters {
		assert.Equal(t, first.Voters[i].Credential, second.Voters[i].Credential)
	}
	assert.Equal(t, 1, f.voterSets.CreateCalls)
	assert.Equal(t, 1, f.candidateSets.CreateCalls)
	assert.Equal(t, 3, f.notifier.CountByKind(notification.KindRegistered))
}

func TestMaterializeResumesAfterPartialCreate(t *testing.T) {
	f := newCoordinatorFixture(t)
	election := f.seedScheduledElection(t)
	ctx := context.Background()

	// First pass crashes after the voter set but before the candidate set.
	f.candidateSets.FailCreate = errors.New("store unavailable")
	_, _, _, err := f.coordinator.Materializer.Materialize(ctx, election)
	require.Error(t, err)

	f.candidateSets.FailCreate = nil
	voterSet, candidateSet, created, err := f.coordinator.Materializer.Materialize(ctx, election)
	require.NoError(t, err)
	assert.True(t, created, "the missing candidate set was created on resume")
	require.NotNil(t, voterSet)
	require.NotNil(t, candidateSet)

	assert.Equal(t, 1, f.voterSets.CreateCalls, "existing voter set must not be re-created")
	assert.Equal(t, 3, f.notifier.CountByKind(notification.KindRegistered), "registered mails must not repeat on resume")
}

func TestMaterializeFailsOnMissingList(t *testing.T) {
	f := newCoordinatorFixture(t)
	ctx := context.Background()

	election := &storage.Election{
		ID:                 "EL9",
		Name:               "Broken",
		StartTime:          f.now.Add(-time.Hour),
		EndTime:            f.now.Add(time.Hour),
		VoterListNames:     []string{"missing"},
		CandidateListNames: []string{"also-missing"},
	}

	_, _, _, err := f.coordinator.Materializer.Materialize(ctx, election)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}
