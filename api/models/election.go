package models

import (
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/storage"
)

type ElectionCreateRequest struct {
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	VoterListNames     []string  `json:"voterLists"`
	CandidateListNames []string  `json:"candidateLists"`
	CreatedBy          string    `json:"createdBy"`
}

type ElectionUpdateRequest struct {
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	VoterListNames     []string  `json:"voterLists"`
	CandidateListNames []string  `json:"candidateLists"`
}

type ElectionResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	VoterListNames     []string  `json:"voterLists"`
	CandidateListNames []string  `json:"candidateLists"`
	IsPopulated        bool      `json:"isPopulated"`
	IsResultPublished  bool      `json:"isResultPublished"`
	CreatedBy          string    `json:"createdBy"`
	CreatedAt          time.Time `json:"createdAt"`
}

func TransformElectionFromStorage(e *storage.Election) ElectionResponse {
	return ElectionResponse{
		ID:                 e.ID,
		Name:               e.Name,
		Description:        e.Description,
		StartTime:          e.StartTime,
		EndTime:            e.EndTime,
		VoterListNames:     e.VoterListNames,
		CandidateListNames: e.CandidateListNames,
		IsPopulated:        e.IsPopulated,
		IsResultPublished:  e.IsResultPublished,
		CreatedBy:          e.CreatedBy,
		CreatedAt:          e.CreatedAt,
	}
}

type TallyResult struct {
	CandidateID string `json:"candidateId"`
	Name        string `json:"name"`
	Tally       int    `json:"tally"`
}

type ElectionResultResponse struct {
	ElectionID    string        `json:"electionId"`
	Name          string        `json:"name"`
	WinnerID      string        `json:"winnerId"`
	WinnerName    string        `json:"winnerName"`
	IsTie         bool          `json:"isTie"`
	Tallies       []TallyResult `json:"tallies"`
	VotedCount    int           `json:"votedCount"`
	NotVotedCount int           `json:"notVotedCount"`
	EndTime       time.Time     `json:"endTime"`
}

func TransformArchivedElectionFromStorage(a *storage.ArchivedElection) ElectionResultResponse {
	tallies := make([]TallyResult, 0, len(a.Tallies))
	for _, t := range a.Tallies {
		tallies = append(tallies, TallyResult{
			CandidateID: t.CandidateID,
			Name:        t.Name,
			Tally:       t.Tally,
		})
	}
	return ElectionResultResponse{
		ElectionID:    a.ElectionID,
		Name:          a.Name,
		WinnerID:      a.WinnerID,
		WinnerName:    a.WinnerName,
		IsTie:         a.IsTie,
		Tallies:       tallies,
		VotedCount:    len(a.VotedIDs),
		NotVotedCount: len(a.NotVotedIDs),
		EndTime:       a.EndTime,
	}
}
