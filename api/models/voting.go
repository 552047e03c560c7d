package models

type CredentialValidationResponse struct {
	Valid      bool   `json:"valid"`
	ElectionID string `json:"electionId"`
	VoterID    string `json:"voterId,omitempty"`
	HasVoted   bool   `json:"hasVoted"`
}

type CastVoteRequest struct {
	ElectionID  string `json:"electionId"`
	Credential  string `json:"credential"`
	CandidateID string `json:"candidateId"`
}
