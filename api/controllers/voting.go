package controllers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/api/models"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/encryption"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage"
	"github.com/gin-gonic/gin"
)

type VotingController struct {
	electionsStorage    storage.ElectionStorage
	voterSetStorage     storage.VoterSetStorage
	candidateSetStorage storage.CandidateSetStorage
	auditStorage        storage.VoteAuditStorage
	archiveStorage      storage.ArchiveStorage
	cipher              *encryption.TallyCipher
}

func NewVotingController(elections storage.ElectionStorage, voterSets storage.VoterSetStorage, candidateSets storage.CandidateSetStorage, audit storage.VoteAuditStorage, archive storage.ArchiveStorage, cipher *encryption.TallyCipher) *VotingController {
	return &VotingController{
		electionsStorage:    elections,
		voterSetStorage:     voterSets,
		candidateSetStorage: candidateSets,
		auditStorage:        audit,
		archiveStorage:      archive,
		cipher:              cipher,
	}
}

func (c *VotingController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api")

	group.GET("/verify/:election/:credential", c.validateCredential)
	group.POST("/vote", c.castVote)
	group.GET("/results/:id", c.getResult)
}

// validateCredential godoc
// @Summary Validate a voting credential
// @Description Checks a one-time credential against an election's voter set
// @Tags voting
// @Produce json
// @Param election path string true "Election ID"
// @Param credential path string true "Voting credential"
// @Success 200 {object} models.CredentialValidationResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/verify/{election}/{credential} [get]
func (c *VotingController) validateCredential(g *gin.Context) {
	electionID := g.Param("election")
	credential := g.Param("credential")

	set, err := c.voterSetStorage.Get(g.Request.Context(), electionID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "election has no voter set"})
			return
		}
		logging.Log.Errorf("VOTE: failed to load voter set for %s: %v", electionID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load voter set"})
		return
	}

	for _, voter := range set.Voters {
		if voter.Credential == credential {
			g.JSON(http.StatusOK, &models.CredentialValidationResponse{
				Valid:      true,
				ElectionID: electionID,
				VoterID:    voter.VoterID,
				HasVoted:   voter.HasVoted,
			})
			return
		}
	}
	g.JSON(http.StatusOK, &models.CredentialValidationResponse{Valid: false, ElectionID: electionID})
}

// castVote godoc
// @Summary Cast a vote
// @Description Records one vote for a candidate inside the election window
// @Tags voting
// @Accept json
// @Produce json
// @Param vote body models.CastVoteRequest true "Vote submission"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Outside window, bad credential or already voted"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/vote [post]
func (c *VotingController) castVote(g *gin.Context) {
	var req models.CastVoteRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.ElectionID == "" || req.Credential == "" || req.CandidateID == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	election, err := c.electionsStorage.Get(g.Request.Context(), req.ElectionID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "election not found"})
			return
		}
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load election"})
		return
	}

	now := time.Now().UTC()
	if !election.IsPopulated || now.Before(election.StartTime) || !now.Before(election.EndTime) {
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "election is not open for voting"})
		return
	}

	voterSet, err := c.voterSetStorage.Get(g.Request.Context(), req.ElectionID)
	if err != nil {
		logging.Log.Errorf("VOTE: failed to load voter set for %s: %v", req.ElectionID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load voter set"})
		return
	}

	voterIdx := -1
	for i, voter := range voterSet.Voters {
		if voter.Credential == req.Credential {
			voterIdx = i
			break
		}
	}
	if voterIdx < 0 {
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "credential not valid for this election"})
		return
	}
	if voterSet.Voters[voterIdx].HasVoted {
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "vote already cast"})
		return
	}

	// The audit hash is the duplicate-submission guard; record it before
	// touching any tally.
	entry := &storage.VoteAuditEntry{
		Hash:       voteHash(req.ElectionID, voterSet.Voters[voterIdx].VoterID),
		ElectionID: req.ElectionID,
		Timestamp:  now,
	}
	if err := c.auditStorage.Create(g.Request.Context(), entry); err != nil {
		if errors.Is(err, storage.ErrItemWithIDAlreadyExists) {
			g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "vote already cast"})
			return
		}
		logging.Log.Errorf("VOTE: failed to record audit entry: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not record vote"})
		return
	}

	if err := c.countVote(g.Request.Context(), req.ElectionID, req.CandidateID); err != nil {
		c.releaseAudit(g.Request.Context(), entry.Hash)
		if errors.Is(err, errCandidateNotFound) {
			g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "candidate not in this election"})
			return
		}
		logging.Log.Errorf("VOTE: failed to count vote in election %s: %v", req.ElectionID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not record vote"})
		return
	}

	if err := c.markVoted(g.Request.Context(), req.ElectionID, req.Credential); err != nil {
		logging.Log.Errorf("VOTE: failed to mark voter as voted in election %s: %v", req.ElectionID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not mark voter as voted"})
		return
	}

	g.JSON(http.StatusOK, &models.MessageResponse{Message: "vote registered"})
}

// maxVoteRetries bounds the conditional-write retry loops. Every retry is
// caused by another vote landing on the same item first, so the loop
// terminates well inside the bound under realistic contention.
const maxVoteRetries = 8

var errCandidateNotFound = errors.New("candidate not in this election")

// countVote increments one candidate's encrypted tally. The whole set is
// re-read and the write retried on a version conflict, so two concurrent
// votes can never overwrite each other's increment.
func (c *VotingController) countVote(ctx context.Context, electionID, candidateID string) error {
	for attempt := 0; attempt < maxVoteRetries; attempt++ {
		set, err := c.candidateSetStorage.Get(ctx, electionID)
		if err != nil {
			return err
		}

		idx := -1
		for i, candidate := range set.Candidates {
			if candidate.CandidateID == candidateID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return errCandidateNotFound
		}

		count, err := c.cipher.Decrypt(set.Candidates[idx].EncryptedTally)
		if err != nil {
			return err
		}
		token, err := c.cipher.Encrypt(count + 1)
		if err != nil {
			return err
		}
		set.Candidates[idx].EncryptedTally = token

		err = c.candidateSetStorage.Update(ctx, set)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("tally for candidate %s in election %s: %w", candidateID, electionID, storage.ErrVersionConflict)
}

func (c *VotingController) markVoted(ctx context.Context, electionID, credential string) error {
	for attempt := 0; attempt < maxVoteRetries; attempt++ {
		set, err := c.voterSetStorage.Get(ctx, electionID)
		if err != nil {
			return err
		}
		for i := range set.Voters {
			if set.Voters[i].Credential == credential {
				set.Voters[i].HasVoted = true
			}
		}

		err = c.voterSetStorage.Update(ctx, set)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return err
		}
	}
	return fmt.Errorf("voter set for election %s: %w", electionID, storage.ErrVersionConflict)
}

// releaseAudit removes the duplicate guard for a vote that was not
// counted, so the voter can submit again.
func (c *VotingController) releaseAudit(ctx context.Context, hash string) {
	if err := c.auditStorage.Delete(ctx, hash); err != nil {
		logging.Log.Warnf("VOTE: failed to release audit entry %s: %v", hash, err)
	}
}

// getResult godoc
// @Summary Get the result of a concluded election
// @Tags voting
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.ElectionResultResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Election not yet resulted"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/results/{id} [get]
func (c *VotingController) getResult(g *gin.Context) {
	id := g.Param("id")

	archived, err := c.archiveStorage.Get(g.Request.Context(), id)
	if err == nil {
		g.JSON(http.StatusOK, models.TransformArchivedElectionFromStorage(archived))
		return
	}
	if !errors.Is(err, storage.ErrItemNotFound) {
		logging.Log.Errorf("VOTE: failed to load archive for %s: %v", id, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load results"})
		return
	}

	// Not archived yet: distinguish "still running" from "unknown".
	if _, err := c.electionsStorage.Get(g.Request.Context(), id); err == nil {
		g.JSON(http.StatusConflict, &models.ErrorResponse{Error: "election not yet resulted"})
		return
	}
	g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: fmt.Sprintf("no election or result found for %s", id)})
}

func voteHash(electionID, voterID string) string {
	sum := sha256.Sum256([]byte(electionID + "|" + voterID))
	return hex.EncodeToString(sum[:])
}
