package storage

import "time"

// AbstainCandidateID is the reserved identifier of the synthetic
// "none of the above" entry seeded into every election candidate set.
// The underscore keeps it outside the alphabet used for generated IDs.
const AbstainCandidateID = "_abstain"

type Election struct {
	ID                 string    `dynamodbav:"PK"`
	Name               string    `dynamodbav:"Name"`
	Description        string    `dynamodbav:"Description"`
	StartTime          time.Time `dynamodbav:"StartTime"`
	EndTime            time.Time `dynamodbav:"EndTime"`
	// StartsAt and EndsAt mirror the window as epoch nanoseconds. The
	// storage layer keeps them in step on every write; window scans compare
	// these numbers because RFC3339Nano strings do not sort by time once
	// trailing sub-second zeros are trimmed.
	StartsAt           int64     `dynamodbav:"StartsAt"`
	EndsAt             int64     `dynamodbav:"EndsAt"`
	VoterListNames     []string  `dynamodbav:"VoterListNames"`
	CandidateListNames []string  `dynamodbav:"CandidateListNames"`
	IsPopulated        bool      `dynamodbav:"IsPopulated"`
	IsResultPublished  bool      `dynamodbav:"IsResultPublished"`
	WinnerID           string    `dynamodbav:"WinnerID"`
	WinnerName         string    `dynamodbav:"WinnerName"`
	IsTie              bool      `dynamodbav:"IsTie"`
	CreatedBy          string    `dynamodbav:"CreatedBy"`
	CreatedAt          time.Time `dynamodbav:"CreatedAt"`
}

type VoterListEntry struct {
	VoterID  string `dynamodbav:"VoterID"`
	Name     string `dynamodbav:"Name"`
	Email    string `dynamodbav:"Email"`
	Password string `dynamodbav:"Password"`
}

type VoterList struct {
	Name      string           `dynamodbav:"PK"`
	Voters    []VoterListEntry `dynamodbav:"Voters"`
	CreatedAt time.Time        `dynamodbav:"CreatedAt"`
}

type CandidateListEntry struct {
	CandidateID string `dynamodbav:"CandidateID"`
	Name        string `dynamodbav:"Name"`
	ImageURL    string `dynamodbav:"ImageURL"`
}

type CandidateList struct {
	Name       string               `dynamodbav:"PK"`
	Candidates []CandidateListEntry `dynamodbav:"Candidates"`
	CreatedAt  time.Time            `dynamodbav:"CreatedAt"`
}

// ElectionVoter is one entry of a materialized per-election voter set.
// HasVoted transitions false to true exactly once, set by the vote path.
type ElectionVoter struct {
	VoterID    string `dynamodbav:"VoterID"`
	Name       string `dynamodbav:"Name"`
	Email      string `dynamodbav:"Email"`
	Credential string `dynamodbav:"Credential"`
	HasVoted   bool   `dynamodbav:"HasVoted"`
}

type ElectionVoterSet struct {
	ElectionID string          `dynamodbav:"PK"`
	Voters     []ElectionVoter `dynamodbav:"Voters"`
	// Version guards concurrent writers: Update is conditional on the
	// version that was read and bumps it on success.
	Version    int             `dynamodbav:"Version"`
	CreatedAt  time.Time       `dynamodbav:"CreatedAt"`
}

// ElectionCandidate carries its tally only in encrypted form while the
// election is live.
type ElectionCandidate struct {
	CandidateID    string `dynamodbav:"CandidateID"`
	Name           string `dynamodbav:"Name"`
	ImageURL       string `dynamodbav:"ImageURL"`
	EncryptedTally string `dynamodbav:"EncryptedTally"`
}

type ElectionCandidateSet struct {
	ElectionID string              `dynamodbav:"PK"`
	Candidates []ElectionCandidate `dynamodbav:"Candidates"`
	Version    int                 `dynamodbav:"Version"`
	CreatedAt  time.Time           `dynamodbav:"CreatedAt"`
}

type ArchivedTally struct {
	CandidateID string `dynamodbav:"CandidateID"`
	Name        string `dynamodbav:"Name"`
	Tally       int    `dynamodbav:"Tally"`
}

// ArchivedElection is the write-once snapshot taken when an election is
// closed; the live election, its working sets and its audit entries are
// deleted in the same pass.
type ArchivedElection struct {
	ElectionID  string          `dynamodbav:"PK"`
	Name        string          `dynamodbav:"Name"`
	Description string          `dynamodbav:"Description"`
	StartTime   time.Time       `dynamodbav:"StartTime"`
	EndTime     time.Time       `dynamodbav:"EndTime"`
	VotedIDs    []string        `dynamodbav:"VotedIDs"`
	NotVotedIDs []string        `dynamodbav:"NotVotedIDs"`
	Tallies     []ArchivedTally `dynamodbav:"Tallies"`
	WinnerID    string          `dynamodbav:"WinnerID"`
	WinnerName  string          `dynamodbav:"WinnerName"`
	IsTie       bool            `dynamodbav:"IsTie"`
	CreatedBy   string          `dynamodbav:"CreatedBy"`
	ArchivedAt  time.Time       `dynamodbav:"ArchivedAt"`
}

// VoteAuditEntry is append-only; Hash is sha256(electionID|voterID) and
// enforces one submission per voter per election via a conditional put.
type VoteAuditEntry struct {
	Hash       string    `dynamodbav:"PK"`
	ElectionID string    `dynamodbav:"ElectionID"`
	Timestamp  time.Time `dynamodbav:"Timestamp"`
}
