package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/encryption"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/notification"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage/storagetest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coordinatorFixture struct {
	elections      *storagetest.ElectionStore
	voterLists     *storagetest.VoterListStore
	candidateLists *storagetest.CandidateListStore
	voterSets      *storagetest.VoterSetStore
	candidateSets  *storagetest.CandidateSetStore
	archive        *storagetest.ArchiveStore
	audit          *storagetest.AuditStore
	notifier       *storagetest.RecordingNotifier
	cipher         *encryption.TallyCipher
	coordinator    *Coordinator
	now            time.Time
}

func newCoordinatorFixture(t *testing.T) *coordinatorFixture {
	t.Helper()
	logging.Log = logrus.New()

	f := &coordinatorFixture{
		elections:      storagetest.NewElectionStore(),
		voterLists:     storagetest.NewVoterListStore(),
		candidateLists: storagetest.NewCandidateListStore(),
		voterSets:      storagetest.NewVoterSetStore(),
		candidateSets:  storagetest.NewCandidateSetStore(),
		archive:        storagetest.NewArchiveStore(),
		audit:          storagetest.NewAuditStore(),
		notifier:       &storagetest.RecordingNotifier{},
		cipher:         encryption.NewTallyCipher("test-secret"),
		now:            time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	f.coordinator = &Coordinator{
		Elections:     f.elections,
		VoterSets:     f.voterSets,
		CandidateSets: f.candidateSets,
		Archive:       f.archive,
		AuditLog:      f.audit,
		Materializer: &Materializer{
			VoterLists:     f.voterLists,
			CandidateLists: f.candidateLists,
			VoterSets:      f.voterSets,
			CandidateSets:  f.candidateSets,
			Cipher:         f.cipher,
			Notifier:       f.notifier,
		},
		Cipher:       f.cipher,
		Notifier:     f.notifier,
		PollInterval: time.Minute,
		Rand:         rand.New(rand.NewSource(1)),
		Now:          func() time.Time { return f.now },
	}
	return f
}

// seedScheduledElection stores an election whose window opened an hour ago
// and closes an hour from now, with one three-voter list and one
// two-candidate list.
func (f *coordinatorFixture) seedScheduledElection(t *testing.T) *storage.Election {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.voterLists.Create(ctx, &storage.VoterList{
		Name: "staff",
		Voters: []storage.VoterListEntry{
			{VoterID: "v1", Name: "Ada", Email: "ada@example.com"},
			{VoterID: "v2", Name: "Ben", Email: "ben@example.com"},
			{VoterID: "v3", Name: "Cleo", Email: "cleo@example.com"},
		},
	}))
	require.NoError(t, f.candidateLists.Create(ctx, &storage.CandidateList{
		Name: "board",
		Candidates: []storage.CandidateListEntry{
			{CandidateID: "c1", Name: "Dana"},
			{CandidateID: "c2", Name: "Eli"},
		},
	}))

	election := &storage.Election{
		ID:                 "EL1",
		Name:               "Board 2025",
		StartTime:          f.now.Add(-time.Hour),
		EndTime:            f.now.Add(time.Hour),
		VoterListNames:     []string{"staff"},
		CandidateListNames: []string{"board"},
		CreatedBy:          "admin",
	}
	require.NoError(t, f.elections.Create(ctx, election))
	return election
}

// setTally overwrites one candidate's encrypted tally in place.
func (f *coordinatorFixture) setTally(t *testing.T, electionID, candidateID string, count int) {
	t.Helper()
	ctx := context.Background()

	set, err := f.candidateSets.Get(ctx, electionID)
	require.NoError(t, err)
	for i := range set.Candidates {
		if set.Candidates[i].CandidateID == candidateID {
			token, err := f.cipher.Encrypt(count)
			require.NoError(t, err)
			set.Candidates[i].EncryptedTally = token
		}
	}
	require.NoError(t, f.candidateSets.Update(ctx, set))
}

func (f *coordinatorFixture) markVoted(t *testing.T, electionID string, voterIDs ...string) {
	t.Helper()
	ctx := context.Background()

	set, err := f.voterSets.Get(ctx, electionID)
	require.NoError(t, err)
	for i := range set.Voters {
		for _, id := range voterIDs {
			if set.Voters[i].VoterID == id {
				set.Voters[i].HasVoted = true
			}
		}
	}
	require.NoError(t, f.voterSets.Update(ctx, set))
}

func TestTickPopulatesDueElection(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedScheduledElection(t)
	ctx := context.Background()

	f.coordinator.RunOnce(ctx)

	election, err := f.elections.Get(ctx, "EL1")
	require.NoError(t, err)
	assert.True(t, election.IsPopulated)

	voterSet, err := f.voterSets.Get(ctx, "EL1")
	require.NoError(t, err)
	require.Len(t, voterSet.Voters, 3)
	for _, voter := range voterSet.Voters {
		assert.False(t, voter.HasVoted)
		assert.Len(t, voter.Credential, 10)
	}

	candidateSet, err := f.candidateSets.Get(ctx, "EL1")
	require.NoError(t, err)
	require.Len(t, candidateSet.Candidates, 3, "two candidates plus the abstain entry")

	foundAbstain := false
	for _, candidate := range candidateSet.Candidates {
		count, err := f.cipher.Decrypt(candidate.EncryptedTally)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		if candidate.CandidateID == storage.AbstainCandidateID {
			foundAbstain = true
		}
	}
	assert.True(t, foundAbstain)

	assert.Equal(t, 3, f.notifier.CountByKind(notification.KindRegistered))
	assert.Equal(t, 3, f.notifier.CountByKind(notification.KindStarted))
}

func TestTickPopulationIsIdempotent(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedScheduledElection(t)
	ctx := context.Background()

	f.coordinator.RunOnce(ctx)
	f.coordinator.RunOnce(ctx)

	assert.Equal(t, 1, f.voterSets.CreateCalls)
	assert.Equal(t, 1, f.candidateSets.CreateCalls)
	assert.Equal(t, 3, f.notifier.CountByKind(notification.KindRegistered), "exactly one registered batch")
	assert.Equal(t, 3, f.notifier.CountByKind(notification.KindStarted), "exactly one started batch")
}

func TestTickRetriesAfterFailedPopulationFlagWrite(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedScheduledElection(t)
	ctx := context.Background()

	// Crash between set creation and the IsPopulated write.
	f.elections.FailUpdate = errors.New("store unavailable")
	f.coordinator.RunOnce(ctx)

	election, err := f.elections.Get(ctx, "EL1")
	require.NoError(t, err)
	assert.False(t, election.IsPopulated)
	assert.Equal(t, 0, f.notifier.CountByKind(notification.KindStarted), "no started mail before the flag is durable")

	f.elections.FailUpdate = nil
	f.coordinator.RunOnce(ctx)

	election, err = f.elections.Get(ctx, "EL1")
	require.NoError(t, err)
	assert.True(t, election.IsPopulated)
	assert.Equal(t, 1, f.voterSets.CreateCalls, "existing set must be reused on retry")
	assert.Equal(t, 3, f.notifier.CountByKind(notification.KindRegistered))
	assert.Equal(t, 3, f.notifier.CountByKind(notification.KindStarted), "started batch must go out with the retried flag write")
}

func TestTickClosesAndArchivesEndedElection(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedScheduledElection(t)
	ctx := context.Background()

	f.coordinator.RunOnce(ctx)
	f.setTally(t, "EL1", "c1", 5)
	f.setTally(t, "EL1", "c2", 3)
	f.markVoted(t, "EL1", "v1", "v2")

	f.now = f.now.Add(2 * time.Hour)
	f.coordinator.RunOnce(ctx)

	_, err := f.elections.Get(ctx, "EL1")
	assert.ErrorIs(t, err, storage.ErrItemNotFound, "live election must be purged")
	_, err = f.voterSets.Get(ctx, "EL1")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
	_, err = f.candidateSets.Get(ctx, "EL1")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)

	archived, err := f.archive.Get(ctx, "EL1")
	require.NoError(t, err)
	assert.Equal(t, "c1", archived.WinnerID)
	assert.Equal(t, "Dana", archived.WinnerName)
	assert.False(t, archived.IsTie)
	assert.ElementsMatch(t, []string{"v1", "v2"}, archived.VotedIDs)
	assert.ElementsMatch(t, []string{"v3"}, archived.NotVotedIDs)
	assert.Equal(t, "admin", archived.CreatedBy)

	talliesByID := make(map[string]int)
	for _, tally := range archived.Tallies {
		talliesByID[tally.CandidateID] = tally.Tally
	}
	assert.Equal(t, map[string]int{"c1": 5, "c2": 3, storage.AbstainCandidateID: 0}, talliesByID)

	assert.Equal(t, 3, f.notifier.CountByKind(notification.KindEnded))
}

func TestTickCloseDetectsTie(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedScheduledElection(t)
	ctx := context.Background()

	f.coordinator.RunOnce(ctx)
	f.setTally(t, "EL1", "c1", 4)
	f.setTally(t, "EL1", "c2", 4)

	f.now = f.now.Add(2 * time.Hour)
	f.coordinator.RunOnce(ctx)

	archived, err := f.archive.Get(ctx, "EL1")
	require.NoError(t, err)
	assert.True(t, archived.IsTie)
	assert.Contains(t, []string{"c1", "c2"}, archived.WinnerID)
}

func TestTickCloseIsolatesIntegrityFailure(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedScheduledElection(t)
	ctx := context.Background()

	f.coordinator.RunOnce(ctx)

	// Corrupt one stored tally token.
	set, err := f.candidateSets.Get(ctx, "EL1")
	require.NoError(t, err)
	set.Candidates[0].EncryptedTally = "not-a-valid-token"
	require.NoError(t, f.candidateSets.Update(ctx, set))

	f.now = f.now.Add(2 * time.Hour)
	f.coordinator.RunOnce(ctx)

	// The election stays Populated for operator attention.
	election, err := f.elections.Get(ctx, "EL1")
	require.NoError(t, err)
	assert.True(t, election.IsPopulated)
	assert.False(t, election.IsResultPublished)

	_, err = f.archive.Get(ctx, "EL1")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
	assert.Equal(t, 0, f.notifier.CountByKind(notification.KindEnded))
}

func TestTickCloseDoesNotRerollPublishedResult(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedScheduledElection(t)
	ctx := context.Background()

	f.coordinator.RunOnce(ctx)
	f.setTally(t, "EL1", "c1", 4)
	f.setTally(t, "EL1", "c2", 4)

	// Simulate a crash after result publication but before archival.
	election, err := f.elections.Get(ctx, "EL1")
	require.NoError(t, err)
	election.WinnerID = "c2"
	election.WinnerName = "Eli"
	election.IsTie = true
	election.IsResultPublished = true
	require.NoError(t, f.elections.Update(ctx, election))

	f.now = f.now.Add(2 * time.Hour)
	f.coordinator.RunOnce(ctx)

	archived, err := f.archive.Get(ctx, "EL1")
	require.NoError(t, err)
	assert.Equal(t, "c2", archived.WinnerID, "published tie-break must be reused, not re-rolled")
	assert.True(t, archived.IsTie)
}

func TestTickFinishesPurgeAfterPartialArchival(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedScheduledElection(t)
	ctx := context.Background()

	f.coordinator.RunOnce(ctx)

	// Simulate a crash that archived and deleted the candidate set but
	// left the election row and voter set behind.
	require.NoError(t, f.archive.Create(ctx, &storage.ArchivedElection{ElectionID: "EL1", Name: "Board 2025"}))
	require.NoError(t, f.candidateSets.Delete(ctx, "EL1"))

	f.now = f.now.Add(2 * time.Hour)
	f.coordinator.RunOnce(ctx)

	_, err := f.elections.Get(ctx, "EL1")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
	_, err = f.voterSets.Get(ctx, "EL1")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
}

func TestTickDoesNotRepeatEndedMailAfterArchiveExists(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedScheduledElection(t)
	ctx := context.Background()

	f.coordinator.RunOnce(ctx)

	// An earlier pass archived this election but crashed before purging.
	require.NoError(t, f.archive.Create(ctx, &storage.ArchivedElection{
		ElectionID: "EL1",
		Name:       "Board 2025",
		WinnerID:   "c1",
	}))

	f.now = f.now.Add(2 * time.Hour)
	f.coordinator.RunOnce(ctx)

	_, err := f.elections.Get(ctx, "EL1")
	assert.ErrorIs(t, err, storage.ErrItemNotFound, "purge must still complete")
	assert.Equal(t, 0, f.notifier.CountByKind(notification.KindEnded), "results already mailed by the earlier pass")

	archived, err := f.archive.Get(ctx, "EL1")
	require.NoError(t, err)
	assert.Equal(t, "c1", archived.WinnerID, "the existing record must not be replaced")
}

func TestTickIsolatesFailingElection(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedScheduledElection(t)
	ctx := context.Background()

	// A second election referencing a missing list must not block EL1.
	require.NoError(t, f.elections.Create(ctx, &storage.Election{
		ID:                 "EL2",
		Name:               "Broken",
		StartTime:          f.now.Add(-time.Hour),
		EndTime:            f.now.Add(time.Hour),
		VoterListNames:     []string{"missing"},
		CandidateListNames: []string{"board"},
	}))

	f.coordinator.RunOnce(ctx)

	election, err := f.elections.Get(ctx, "EL1")
	require.NoError(t, err)
	assert.True(t, election.IsPopulated)

	broken, err := f.elections.Get(ctx, "EL2")
	require.NoError(t, err)
	assert.False(t, broken.IsPopulated)
}

func TestTickFullLifecycle(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seedScheduledElection(t)
	ctx := context.Background()

	f.coordinator.RunOnce(ctx)
	f.setTally(t, "EL1", "c2", 2)
	f.markVoted(t, "EL1", "v1", "v2")

	f.now = f.now.Add(2 * time.Hour)
	f.coordinator.RunOnce(ctx)
	// Extra ticks after archival must be no-ops.
	f.coordinator.RunOnce(ctx)

	archived, err := f.archive.Get(ctx, "EL1")
	require.NoError(t, err)
	assert.Equal(t, "c2", archived.WinnerID)
	assert.Equal(t, 3, f.notifier.CountByKind(notification.KindEnded), "ended batch must go out exactly once")
}
