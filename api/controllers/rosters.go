package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/api/models"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/api/transport"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage"
	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type RosterMetaController struct {
	voterListStorage     storage.VoterListStorage
	candidateListStorage storage.CandidateListStorage
	electionsStorage     storage.ElectionStorage
}

func NewRosterMetaController(voterLists storage.VoterListStorage, candidateLists storage.CandidateListStorage, elections storage.ElectionStorage) *RosterMetaController {
	return &RosterMetaController{
		voterListStorage:     voterLists,
		candidateListStorage: candidateLists,
		electionsStorage:     elections,
	}
}

func (c *RosterMetaController) RegisterRoutes(engine *gin.Engine) {
	voters := engine.Group("/api/meta/voter-lists", transport.AdminAuthMiddleware())
	voters.GET("", c.getAllVoterLists)
	voters.GET("/:name", c.getVoterList)
	voters.POST("", c.createVoterList)
	voters.PUT("/:name", c.updateVoterList)
	voters.DELETE("/:name", c.deleteVoterList)

	candidates := engine.Group("/api/meta/candidate-lists", transport.AdminAuthMiddleware())
	candidates.GET("", c.getAllCandidateLists)
	candidates.GET("/:name", c.getCandidateList)
	candidates.POST("", c.createCandidateList)
	candidates.PUT("/:name", c.updateCandidateList)
	candidates.DELETE("/:name", c.deleteCandidateList)
}

// @Security AdminToken
// @Summary List all voter lists
// @Tags Meta/Rosters
// @Produce json
// @Success 200 {array} models.VoterListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/voter-lists [get]
func (c *RosterMetaController) getAllVoterLists(g *gin.Context) {
	lists, err := c.voterListStorage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("META: failed to list voter lists: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]models.VoterListResponse, 0, len(lists))
	for _, list := range lists {
		responses = append(responses, models.TransformVoterListFromStorage(list))
	}
	g.JSON(http.StatusOK, responses)
}

// @Security AdminToken
// @Summary Get a voter list by name
// @Tags Meta/Rosters
// @Produce json
// @Param name path string true "List name"
// @Success 200 {object} models.VoterListResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/voter-lists/{name} [get]
func (c *RosterMetaController) getVoterList(g *gin.Context) {
	list, err := c.voterListStorage.Get(g.Request.Context(), g.Param("name"))
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, gin.H{"error": "voter list not found"})
			return
		}
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	g.JSON(http.StatusOK, models.TransformVoterListFromStorage(list))
}

// @Security AdminToken
// @Summary Create a voter list
// @Tags Meta/Rosters
// @Accept json
// @Produce json
// @Param list body models.VoterListCreateRequest true "Voter list"
// @Success 200 {object} models.VoterListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/voter-lists [post]
func (c *RosterMetaController) createVoterList(g *gin.Context) {
	var req models.VoterListCreateRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.Name == "" {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid request, missing list name"})
		return
	}

	voters, err := normalizeVoterEntries(req.Name, req.Voters)
	if err != nil {
		logging.Log.Errorf("META: failed to normalize voter entries: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list := &storage.VoterList{
		Name:      req.Name,
		Voters:    voters,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.voterListStorage.Create(g.Request.Context(), list); err != nil {
		if errors.Is(err, storage.ErrItemWithIDAlreadyExists) {
			g.JSON(http.StatusConflict, gin.H{"error": "voter list with this name already exists"})
			return
		}
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logging.Log.Infof("META: created voter list %s with %d voters", list.Name, len(list.Voters))
	g.JSON(http.StatusOK, models.TransformVoterListFromStorage(list))
}

// @Security AdminToken
// @Summary Replace the entries of a voter list
// @Tags Meta/Rosters
// @Accept json
// @Produce json
// @Param name path string true "List name"
// @Param list body models.VoterListUpdateRequest true "Voter list update"
// @Success 200 {object} models.VoterListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/voter-lists/{name} [put]
func (c *RosterMetaController) updateVoterList(g *gin.Context) {
	name := g.Param("name")

	locked, err := c.listReferencedByPopulatedElection(g, name, true)
	if err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if locked {
		g.JSON(http.StatusConflict, gin.H{"error": "voter list is referenced by a populated election"})
		return
	}

	var req models.VoterListUpdateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	voters, err := normalizeVoterEntries(name, req.Voters)
	if err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	list := &storage.VoterList{Name: name, Voters: voters}
	if err := c.voterListStorage.Update(g.Request.Context(), list); err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	g.JSON(http.StatusOK, models.TransformVoterListFromStorage(list))
}

// @Security AdminToken
// @Summary Delete a voter list
// @Tags Meta/Rosters
// @Produce json
// @Param name path string true "List name"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/voter-lists/{name} [delete]
func (c *RosterMetaController) deleteVoterList(g *gin.Context) {
	name := g.Param("name")

	locked, err := c.listReferencedByPopulatedElection(g, name, true)
	if err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if locked {
		g.JSON(http.StatusConflict, gin.H{"error": "voter list is referenced by a populated election"})
		return
	}

	if err := c.voterListStorage.Delete(g.Request.Context(), name); err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logging.Log.Infof("META: deleted voter list %s", name)
	g.JSON(http.StatusOK, gin.H{"message": "voter list deleted"})
}

// @Security AdminToken
// @Summary List all candidate lists
// @Tags Meta/Rosters
// @Produce json
// @Success 200 {array} models.CandidateListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/candidate-lists [get]
func (c *RosterMetaController) getAllCandidateLists(g *gin.Context) {
	lists, err := c.candidateListStorage.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("META: failed to list candidate lists: %v", err)
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]models.CandidateListResponse, 0, len(lists))
	for _, list := range lists {
		responses = append(responses, models.TransformCandidateListFromStorage(list))
	}
	g.JSON(http.StatusOK, responses)
}

// @Security AdminToken
// @Summary Get a candidate list by name
// @Tags Meta/Rosters
// @Produce json
// @Param name path string true "List name"
// @Success 200 {object} models.CandidateListResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/candidate-lists/{name} [get]
func (c *RosterMetaController) getCandidateList(g *gin.Context) {
	list, err := c.candidateListStorage.Get(g.Request.Context(), g.Param("name"))
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, gin.H{"error": "candidate list not found"})
			return
		}
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	g.JSON(http.StatusOK, models.TransformCandidateListFromStorage(list))
}

// @Security AdminToken
// @Summary Create a candidate list
// @Tags Meta/Rosters
// @Accept json
// @Produce json
// @Param list body models.CandidateListCreateRequest true "Candidate list"
// @Success 200 {object} models.CandidateListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/candidate-lists [post]
func (c *RosterMetaController) createCandidateList(g *gin.Context) {
	var req models.CandidateListCreateRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.Name == "" {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid request, missing list name"})
		return
	}

	list := &storage.CandidateList{
		Name:       req.Name,
		Candidates: normalizeCandidateEntries(req.Name, req.Candidates),
		CreatedAt:  time.Now().UTC(),
	}
	if err := c.candidateListStorage.Create(g.Request.Context(), list); err != nil {
		if errors.Is(err, storage.ErrItemWithIDAlreadyExists) {
			g.JSON(http.StatusConflict, gin.H{"error": "candidate list with this name already exists"})
			return
		}
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logging.Log.Infof("META: created candidate list %s with %d candidates", list.Name, len(list.Candidates))
	g.JSON(http.StatusOK, models.TransformCandidateListFromStorage(list))
}

// @Security AdminToken
// @Summary Replace the entries of a candidate list
// @Tags Meta/Rosters
// @Accept json
// @Produce json
// @Param name path string true "List name"
// @Param list body models.CandidateListUpdateRequest true "Candidate list update"
// @Success 200 {object} models.CandidateListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/candidate-lists/{name} [put]
func (c *RosterMetaController) updateCandidateList(g *gin.Context) {
	name := g.Param("name")

	locked, err := c.listReferencedByPopulatedElection(g, name, false)
	if err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if locked {
		g.JSON(http.StatusConflict, gin.H{"error": "candidate list is referenced by a populated election"})
		return
	}

	var req models.CandidateListUpdateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	list := &storage.CandidateList{Name: name, Candidates: normalizeCandidateEntries(name, req.Candidates)}
	if err := c.candidateListStorage.Update(g.Request.Context(), list); err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	g.JSON(http.StatusOK, models.TransformCandidateListFromStorage(list))
}

// @Security AdminToken
// @Summary Delete a candidate list
// @Tags Meta/Rosters
// @Produce json
// @Param name path string true "List name"
// @Success 200 {object} models.MessageResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/candidate-lists/{name} [delete]
func (c *RosterMetaController) deleteCandidateList(g *gin.Context) {
	name := g.Param("name")

	locked, err := c.listReferencedByPopulatedElection(g, name, false)
	if err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if locked {
		g.JSON(http.StatusConflict, gin.H{"error": "candidate list is referenced by a populated election"})
		return
	}

	if err := c.candidateListStorage.Delete(g.Request.Context(), name); err != nil {
		g.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logging.Log.Infof("META: deleted candidate list %s", name)
	g.JSON(http.StatusOK, gin.H{"message": "candidate list deleted"})
}

func (c *RosterMetaController) listReferencedByPopulatedElection(g *gin.Context, name string, voterList bool) (bool, error) {
	elections, err := c.electionsStorage.GetAll(g.Request.Context())
	if err != nil {
		return false, err
	}
	for _, e := range elections {
		if !e.IsPopulated {
			continue
		}
		refs := e.CandidateListNames
		if voterList {
			refs = e.VoterListNames
		}
		if slices.Contains(refs, name) {
			return true, nil
		}
	}
	return false, nil
}

// normalizeVoterEntries fills the gaps the upload path is allowed to leave:
// a deterministic ID from list name, timestamp and row index when one is
// missing, and a generated fixed-length password.
func normalizeVoterEntries(listName string, entries []models.VoterEntryRequest) ([]storage.VoterListEntry, error) {
	now := time.Now().UTC().Unix()
	voters := make([]storage.VoterListEntry, 0, len(entries))
	for i, entry := range entries {
		id := entry.VoterID
		if id == "" {
			id = fmt.Sprintf("%s-%d-%d", listName, now, i)
		}
		password := entry.Password
		if password == "" {
			generated, err := gonanoid.Generate(models.Alphabet, models.GeneratedPasswordLength)
			if err != nil {
				return nil, err
			}
			password = generated
		}
		voters = append(voters, storage.VoterListEntry{
			VoterID:  id,
			Name:     entry.Name,
			Email:    entry.Email,
			Password: password,
		})
	}
	return voters, nil
}

func normalizeCandidateEntries(listName string, entries []models.CandidateEntryRequest) []storage.CandidateListEntry {
	now := time.Now().UTC().Unix()
	candidates := make([]storage.CandidateListEntry, 0, len(entries))
	for i, entry := range entries {
		id := entry.CandidateID
		if id == "" {
			id = fmt.Sprintf("%s-%d-%d", listName, now, i)
		}
		candidates = append(candidates, storage.CandidateListEntry{
			CandidateID: id,
			Name:        entry.Name,
			ImageURL:    entry.ImageURL,
		})
	}
	return candidates
}
