package controllers

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/api/models"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/api/transport"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/notification"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage"
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type ElectionAdminController struct {
	electionsStorage    storage.ElectionStorage
	voterSetStorage     storage.VoterSetStorage
	candidateSetStorage storage.CandidateSetStorage
	auditStorage        storage.VoteAuditStorage
	notifier            notification.Notifier
}

func NewElectionAdminController(elections storage.ElectionStorage, voterSets storage.VoterSetStorage, candidateSets storage.CandidateSetStorage, audit storage.VoteAuditStorage, notifier notification.Notifier) *ElectionAdminController {
	return &ElectionAdminController{
		electionsStorage:    elections,
		voterSetStorage:     voterSets,
		candidateSetStorage: candidateSets,
		auditStorage:        audit,
		notifier:            notifier,
	}
}

func (c *ElectionAdminController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/admin/elections", transport.AdminAuthMiddleware())

	group.GET("", c.getAll)
	group.GET("/:id", c.get)
	group.POST("", c.create)
	group.PUT("/:id", c.update)
	group.DELETE("/:id", c.delete)
}

// @Security AdminToken
// @Summary List all live elections
// @Tags Admin/Elections
// @Produce json
// @Success 200 {array} models.ElectionResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/elections [get]
func (c *ElectionAdminController) getAll(g *gin.Context) {
	elections, err := c.electionsStorage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list elections: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]models.ElectionResponse, 0, len(elections))
	for _, e := range elections {
		responses = append(responses, models.TransformElectionFromStorage(e))
	}
	g.JSON(http.StatusOK, responses)
}

// @Security AdminToken
// @Summary Get an election by ID
// @Tags Admin/Elections
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.ElectionResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/elections/{id} [get]
func (c *ElectionAdminController) get(g *gin.Context) {
	election, err := c.electionsStorage.Get(g.Request.Context(), g.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, gin.H{"error": "election not found"})
			return
		}
		logging.Log.Errorf("ADMIN: failed to get election: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	g.JSON(http.StatusOK, models.TransformElectionFromStorage(election))
}

// @Security AdminToken
// @Summary Create an election
// @Tags Admin/Elections
// @Accept json
// @Produce json
// @Param election body models.ElectionCreateRequest true "Election object"
// @Success 200 {object} models.ElectionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/elections [post]
func (c *ElectionAdminController) create(g *gin.Context) {
	var req models.ElectionCreateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		logging.Log.Errorf("ADMIN: invalid create election request: %v", err)
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if req.Name == "" || len(req.VoterListNames) == 0 || len(req.CandidateListNames) == 0 {
		g.JSON(http.StatusBadRequest, gin.H{"error": "name, voter lists and candidate lists are required"})
		return
	}
	if !req.EndTime.After(req.StartTime) {
		g.JSON(http.StatusBadRequest, gin.H{"error": "end time must be after start time"})
		return
	}

	id, err := gonanoid.Generate(models.Alphabet, models.ElectionIDLength)
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to generate election id: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate election id"})
		return
	}

	election := &storage.Election{
		ID:                 id,
		Name:               req.Name,
		Description:        req.Description,
		StartTime:          req.StartTime.UTC(),
		EndTime:            req.EndTime.UTC(),
		VoterListNames:     req.VoterListNames,
		CandidateListNames: req.CandidateListNames,
		CreatedBy:          req.CreatedBy,
		CreatedAt:          time.Now().UTC(),
	}

	if err := c.electionsStorage.Create(g.Request.Context(), election); err != nil {
		logging.Log.Errorf("ADMIN: failed to create election: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logging.Log.Infof("ADMIN: created election %s (%s)", election.ID, election.Name)
	g.JSON(http.StatusOK, models.TransformElectionFromStorage(election))
}

// @Security AdminToken
// @Summary Update an election
// @Tags Admin/Elections
// @Accept json
// @Produce json
// @Param id path string true "Election ID"
// @Param election body models.ElectionUpdateRequest true "Election update object"
// @Success 200 {object} models.ElectionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/elections/{id} [put]
func (c *ElectionAdminController) update(g *gin.Context) {
	election, err := c.electionsStorage.Get(g.Request.Context(), g.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, gin.H{"error": "election not found"})
			return
		}
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req models.ElectionUpdateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Name == "" || !req.EndTime.After(req.StartTime) {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid request, empty name or bad window"})
		return
	}

	// Materialization snapshots the rosters, so list references are frozen
	// once the election is populated.
	if election.IsPopulated {
		if !slices.Equal(req.VoterListNames, election.VoterListNames) || !slices.Equal(req.CandidateListNames, election.CandidateListNames) {
			g.JSON(http.StatusConflict, gin.H{"error": "cannot change rosters of a populated election"})
			return
		}
	}

	election.Name = req.Name
	election.Description = req.Description
	election.StartTime = req.StartTime.UTC()
	election.EndTime = req.EndTime.UTC()
	election.VoterListNames = req.VoterListNames
	election.CandidateListNames = req.CandidateListNames

	if err := c.electionsStorage.Update(g.Request.Context(), election); err != nil {
		logging.Log.Errorf("ADMIN: failed to update election %s: %v", election.ID, err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.notifyMaterializedVoters(g, election, notification.KindUpdated)
	g.JSON(http.StatusOK, models.TransformElectionFromStorage(election))
}

// @Security AdminToken
// @Summary Delete a live election and its working state
// @Tags Admin/Elections
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/elections/{id} [delete]
func (c *ElectionAdminController) delete(g *gin.Context) {
	id := g.Param("id")
	election, err := c.electionsStorage.Get(g.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, gin.H{"error": "election not found"})
			return
		}
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Cancellation notices go out before the voter set is purged.
	c.notifyMaterializedVoters(g, election, notification.KindCancelled)

	if err := c.auditStorage.DeleteByElection(g.Request.Context(), id); err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := c.candidateSetStorage.Delete(g.Request.Context(), id); err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := c.voterSetStorage.Delete(g.Request.Context(), id); err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := c.electionsStorage.Delete(g.Request.Context(), id); err != nil {
		logging.Log.Errorf("ADMIN: failed to delete election %s: %v", id, err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logging.Log.Infof("ADMIN: deleted election %s", id)
	g.JSON(http.StatusOK, gin.H{"message": "election deleted"})
}

func (c *ElectionAdminController) notifyMaterializedVoters(g *gin.Context, election *storage.Election, kind notification.Kind) {
	if !election.IsPopulated || c.notifier == nil {
		return
	}

	set, err := c.voterSetStorage.Get(g.Request.Context(), election.ID)
	if err != nil {
		logging.Log.Warnf("ADMIN: could not load voter set for %s notifications: %v", kind, err)
		return
	}
	for _, voter := range set.Voters {
		if ok := c.notifier.Notify(g.Request.Context(), kind, voter.Email, notification.Payload{
			ElectionName: election.Name,
			VoterName:    voter.Name,
		}); !ok {
			logging.Log.Warnf("ADMIN: %s notification to %s failed, continuing", kind, voter.Email)
		}
	}
}
