package models

import (
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage"
)

type VoterEntryRequest struct {
	VoterID  string `json:"voterId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VoterListCreateRequest struct {
	Name   string              `json:"name"`
	Voters []VoterEntryRequest `json:"voters"`
}

type VoterListUpdateRequest struct {
	Voters []VoterEntryRequest `json:"voters"`
}

type VoterEntryResponse struct {
	VoterID string `json:"voterId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

type VoterListResponse struct {
	Name   string               `json:"name"`
	Voters []VoterEntryResponse `json:"voters"`
}

// Passwords stay out of list responses.
func TransformVoterListFromStorage(list *storage.VoterList) VoterListResponse {
	voters := make([]VoterEntryResponse, 0, len(list.Voters))
	for _, v := range list.Voters {
		voters = append(voters, VoterEntryResponse{
			VoterID: v.VoterID,
			Name:    v.Name,
			Email:   v.Email,
		})
	}
	return VoterListResponse{Name: list.Name, Voters: voters}
}

type CandidateEntryRequest struct {
	CandidateID string `json:"candidateId"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
}

type CandidateListCreateRequest struct {
	Name       string                  `json:"name"`
	Candidates []CandidateEntryRequest `json:"candidates"`
}

type CandidateListUpdateRequest struct {
	Candidates []CandidateEntryRequest `json:"candidates"`
}

type CandidateListResponse struct {
	Name       string                  `json:"name"`
	Candidates []CandidateEntryRequest `json:"candidates"`
}

func TransformCandidateListFromStorage(list *storage.CandidateList) CandidateListResponse {
	candidates := make([]CandidateEntryRequest, 0, len(list.Candidates))
	for _, c := range list.Candidates {
		candidates = append(candidates, CandidateEntryRequest{
			CandidateID: c.CandidateID,
			Name:        c.Name,
			ImageURL:    c.ImageURL,
		})
	}
	return CandidateListResponse{Name: list.Name, Candidates: candidates}
}
