package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/encryption"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/notification"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage"
)

const defaultOpTimeout = 30 * time.Second

// Coordinator drives the election lifecycle: Scheduled -> Populated ->
// Closed -> Archived. It is invoked on a fixed cadence; every transition
// is guarded by existence checks and monotonic flags so a tick can crash
// anywhere and the next tick resumes without double-processing. One
// election's failure never aborts the tick or the process.
type Coordinator struct {
	Elections     storage.ElectionStorage
	VoterSets     storage.VoterSetStorage
	CandidateSets storage.CandidateSetStorage
	Archive       storage.ArchiveStorage
	AuditLog      storage.VoteAuditStorage
	Materializer  *Materializer
	Cipher        *encryption.TallyCipher
	Notifier      notification.Notifier
	PollInterval  time.Duration
	Rand          *rand.Rand

	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
}

// Start runs ticks until ctx is cancelled. Ticks never overlap: each runs
// to completion before the next timer firing is considered.
func (c *Coordinator) Start(ctx context.Context) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Log.Infof("SCHEDULER: coordinator started, polling every %s", interval)

	for {
		c.RunOnce(ctx)
		select {
		case <-ctx.Done():
			logging.Log.Info("SCHEDULER: coordinator stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single tick: populate every election whose window has
// opened, then close and archive every election whose window has ended.
func (c *Coordinator) RunOnce(ctx context.Context) {
	now := c.now()

	due, err := c.Elections.FindDueForPopulation(ctx, now)
	if err != nil {
		logging.Log.Errorf("SCHEDULER: failed to query elections due for population: %v", err)
	} else {
		for _, election := range due {
			if err := c.runIsolated(ctx, func(opCtx context.Context) error {
				return c.populate(opCtx, election)
			}); err != nil {
				logging.Log.Errorf("SCHEDULER: populating election %s failed, will retry next tick: %v", election.ID, err)
			}
		}
	}

	ended, err := c.Elections.FindDueForClose(ctx, now)
	if err != nil {
		logging.Log.Errorf("SCHEDULER: failed to query elections due for close: %v", err)
		return
	}
	for _, election := range ended {
		if err := c.runIsolated(ctx, func(opCtx context.Context) error {
			return c.closeAndArchive(opCtx, election)
		}); err != nil {
			logging.Log.Errorf("SCHEDULER: closing election %s failed: %v", election.ID, err)
		}
	}
}

// runIsolated bounds one election's processing so a hung store or mail
// call cannot stall the whole tick.
func (c *Coordinator) runIsolated(ctx context.Context, fn func(context.Context) error) error {
	timeout := c.PollInterval
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(opCtx)
}

// populate is the Scheduled -> Populated transition. IsPopulated is set
// only after both working sets are durably created, and is the single
// source of truth for completed materialization.
func (c *Coordinator) populate(ctx context.Context, election *storage.Election) error {
	if election.IsPopulated {
		return nil
	}

	voterSet, _, _, err := c.Materializer.Materialize(ctx, election)
	if err != nil {
		return err
	}

	election.IsPopulated = true
	if err := c.Elections.Update(ctx, election); err != nil {
		return err
	}
	logging.Log.Infof("SCHEDULER: election %s populated with %d voters", election.ID, len(voterSet.Voters))

	// The started batch is keyed on the flag write: a tick that built the
	// sets but failed the write sent nothing, and once the flag is durable
	// the election stops being due, so the batch goes out once.
	c.notifyVoters(ctx, election, voterSet, notification.KindStarted, "", false)
	return nil
}

// closeAndArchive is the Populated -> Closed -> Archived transition, run
// as one pass. The archive record is created before any live row is
// deleted; its conditional put is the exactly-once guard, and the deletes
// are retried on later ticks until all succeed.
func (c *Coordinator) closeAndArchive(ctx context.Context, election *storage.Election) error {
	candidateSet, err := c.CandidateSets.Get(ctx, election.ID)
	if errors.Is(err, storage.ErrItemNotFound) {
		// A crashed earlier pass already archived and partially purged.
		if _, archErr := c.Archive.Get(ctx, election.ID); archErr == nil {
			return c.purge(ctx, election, nil)
		}
		return fmt.Errorf("election %s is populated but has no candidate set", election.ID)
	}
	if err != nil {
		return err
	}

	tallies := make([]CandidateTally, 0, len(candidateSet.Candidates))
	for _, candidate := range candidateSet.Candidates {
		count, err := c.Cipher.Decrypt(candidate.EncryptedTally)
		if err != nil {
			// Leaves the election Populated for operator attention.
			logging.Log.Errorf("SCHEDULER: tally for candidate %s of election %s failed decryption: %v", candidate.CandidateID, election.ID, err)
			return err
		}
		tallies = append(tallies, CandidateTally{
			CandidateID: candidate.CandidateID,
			Name:        candidate.Name,
			Tally:       count,
		})
	}

	// A crash between result publication and archival must not re-roll a
	// tie-break, so a published result is reused as-is.
	if !election.IsResultPublished {
		winner, isTie := ResolveWinner(tallies, c.rng())
		if winner != nil {
			election.WinnerID = winner.CandidateID
			election.WinnerName = winner.Name
		}
		election.IsTie = isTie
		election.IsResultPublished = true
		if err := c.Elections.Update(ctx, election); err != nil {
			return err
		}
		logging.Log.Infof("SCHEDULER: election %s resolved, winner=%s tie=%v", election.ID, election.WinnerName, election.IsTie)
	}

	voterSet, err := c.VoterSets.Get(ctx, election.ID)
	if err != nil && !errors.Is(err, storage.ErrItemNotFound) {
		return err
	}

	voted := make([]string, 0)
	notVoted := make([]string, 0)
	if voterSet != nil {
		for _, voter := range voterSet.Voters {
			if voter.HasVoted {
				voted = append(voted, voter.VoterID)
			} else {
				notVoted = append(notVoted, voter.VoterID)
			}
		}
	}

	archivedTallies := make([]storage.ArchivedTally, 0, len(tallies))
	for _, t := range tallies {
		archivedTallies = append(archivedTallies, storage.ArchivedTally{
			CandidateID: t.CandidateID,
			Name:        t.Name,
			Tally:       t.Tally,
		})
	}

	archived := &storage.ArchivedElection{
		ElectionID:  election.ID,
		Name:        election.Name,
		Description: election.Description,
		StartTime:   election.StartTime,
		EndTime:     election.EndTime,
		VotedIDs:    voted,
		NotVotedIDs: notVoted,
		Tallies:     archivedTallies,
		WinnerID:    election.WinnerID,
		WinnerName:  election.WinnerName,
		IsTie:       election.IsTie,
		CreatedBy:   election.CreatedBy,
		ArchivedAt:  c.now(),
	}
	archiveCreated := true
	if err := c.Archive.Create(ctx, archived); err != nil {
		if !errors.Is(err, storage.ErrItemWithIDAlreadyExists) {
			return err
		}
		// An earlier pass already archived this election; finish the purge
		// but do not mail results a second time.
		archiveCreated = false
	}

	if err := c.purge(ctx, election, voterSet); err != nil {
		return err
	}

	if voterSet != nil && archiveCreated {
		c.notifyVoters(ctx, election, voterSet, notification.KindEnded, election.WinnerName, election.IsTie)
	}
	return nil
}

// purge deletes the live working state. The election row goes last so a
// partial purge is still discoverable by the next tick's close query.
func (c *Coordinator) purge(ctx context.Context, election *storage.Election, voterSet *storage.ElectionVoterSet) error {
	// Guard against a second coordinator instance racing the delete.
	if _, err := c.Elections.Get(ctx, election.ID); errors.Is(err, storage.ErrItemNotFound) {
		logging.Log.Warnf("SCHEDULER: election %s already purged", election.ID)
		return nil
	} else if err != nil {
		return err
	}

	if err := c.AuditLog.DeleteByElection(ctx, election.ID); err != nil {
		return err
	}
	if err := c.CandidateSets.Delete(ctx, election.ID); err != nil {
		return err
	}
	if err := c.VoterSets.Delete(ctx, election.ID); err != nil {
		return err
	}
	if err := c.Elections.Delete(ctx, election.ID); err != nil {
		return err
	}
	logging.Log.Infof("SCHEDULER: election %s archived and purged", election.ID)
	return nil
}

func (c *Coordinator) notifyVoters(ctx context.Context, election *storage.Election, set *storage.ElectionVoterSet, kind notification.Kind, winner string, isTie bool) {
	if c.Notifier == nil {
		return
	}
	for _, voter := range set.Voters {
		ok := c.Notifier.Notify(ctx, kind, voter.Email, notification.Payload{
			ElectionName: election.Name,
			VoterName:    voter.Name,
			Winner:       winner,
			IsTie:        isTie,
		})
		if !ok {
			logging.Log.Warnf("SCHEDULER: %s notification to %s failed, continuing", kind, voter.Email)
		}
	}
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

func (c *Coordinator) rng() *rand.Rand {
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c.Rand
}
